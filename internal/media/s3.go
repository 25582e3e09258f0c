package media

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds construction parameters for an S3-compatible bucket (AWS S3 or MinIO).
type S3Config struct {
	Region     string `yaml:"region"`
	Bucket     string `yaml:"bucket"`
	Endpoint   string `yaml:"endpoint"`    // optional custom endpoint
	PathStyle  bool   `yaml:"path_style"`  // required by most MinIO setups
	PublicBase string `yaml:"public_base"` // optional URL prefix for served objects
}

type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 stores images in a bucket.
type S3 struct {
	client putObjectAPI
	bucket string
	base   string
}

// NewS3 loads AWS credentials from the default chain and builds a store.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return newS3(client, cfg, region), nil
}

func newS3(client putObjectAPI, cfg S3Config, region string) *S3 {
	base := strings.TrimRight(cfg.PublicBase, "/")
	if base == "" {
		switch {
		case cfg.Endpoint != "":
			u, err := url.JoinPath(cfg.Endpoint, cfg.Bucket)
			if err == nil {
				base = u
			}
		default:
			base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, region)
		}
	}
	return &S3{client: client, bucket: cfg.Bucket, base: base}
}

// Put implements Store.
func (s *S3) Put(ctx context.Context, key string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(ContentType(data)),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put %s: %w", key, err)
	}
	return s.base + "/" + key, nil
}
