package media

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestMemory_PutGet(t *testing.T) {
	m := NewMemory("")
	data := []byte("jpeg-bytes")
	u, err := m.Put(context.Background(), "batches/B010.jpg", data)
	require.NoError(t, err)
	require.Equal(t, "memory://images/batches/B010.jpg", u)

	data[0] = 'X'
	got, ok := m.Get("batches/B010.jpg")
	require.True(t, ok)
	require.Equal(t, "jpeg-bytes", string(got))
}

type fakeS3 struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.in = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3_Put(t *testing.T) {
	f := &fakeS3{}
	s := newS3(f, S3Config{Bucket: "harvest"}, "ap-south-1")

	u, err := s.Put(context.Background(), "batches/B010.png", pngHeader)
	require.NoError(t, err)
	require.Equal(t, "https://harvest.s3.ap-south-1.amazonaws.com/batches/B010.png", u)
	require.Equal(t, "harvest", aws.ToString(f.in.Bucket))
	require.Equal(t, "batches/B010.png", aws.ToString(f.in.Key))
	require.Equal(t, "image/png", aws.ToString(f.in.ContentType))
	require.Equal(t, pngHeader, f.body)
}

func TestS3_BaseURL(t *testing.T) {
	s := newS3(&fakeS3{}, S3Config{Bucket: "harvest", Endpoint: "http://minio:9000"}, "us-east-1")
	u, err := s.Put(context.Background(), "k", []byte("x"))
	require.NoError(t, err)
	require.Equal(t, "http://minio:9000/harvest/k", u)

	s = newS3(&fakeS3{}, S3Config{Bucket: "harvest", PublicBase: "https://cdn.example.org/"}, "us-east-1")
	u, err = s.Put(context.Background(), "k", []byte("x"))
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.org/k", u)
}

func TestS3_PutError(t *testing.T) {
	s := newS3(&fakeS3{err: errors.New("denied")}, S3Config{Bucket: "b"}, "us-east-1")
	_, err := s.Put(context.Background(), "k", []byte("x"))
	require.ErrorContains(t, err, "denied")
}
