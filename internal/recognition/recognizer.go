// Package recognition provides plant recognizers used by batch submission.
// Real computer vision lives outside this service; the implementations here
// are deterministic or randomized stand-ins with simulated latency.
package recognition

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/and161185/ayurtrace/internal/errs"
	"github.com/and161185/ayurtrace/internal/model"
)

// Recognizer labels a harvest photo.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (model.Recognition, error)
}

// Labels are the herbs the portal knows about.
var Labels = []string{
	"Ashwagandha", "Tulsi", "Brahmi", "Turmeric", "Neem", "Shatavari", "Giloy", "Amla", "Moringa",
}

// Fixed always answers with Result after Latency.
type Fixed struct {
	Result  model.Recognition
	Latency time.Duration
}

// NewFixed returns the prototype answer: Ashwagandha at 98.7.
func NewFixed(latency time.Duration) *Fixed {
	return &Fixed{Result: model.Recognition{Label: "Ashwagandha", Confidence: 98.7}, Latency: latency}
}

// Recognize implements Recognizer.
func (f *Fixed) Recognize(ctx context.Context, image []byte) (model.Recognition, error) {
	if len(image) == 0 {
		return model.Recognition{}, errs.ErrRecognitionUnavailable
	}
	if err := sleep(ctx, f.Latency); err != nil {
		return model.Recognition{}, err
	}
	return f.Result, nil
}

// Random picks a label from Labels with confidence in [Lo, Hi).
type Random struct {
	Lo, Hi  float64
	Latency time.Duration

	intn  func(n int) int
	randf func() float64
}

// NewRandom constructs a randomized recognizer.
func NewRandom(lo, hi float64, latency time.Duration) *Random {
	return &Random{Lo: lo, Hi: hi, Latency: latency, intn: rand.IntN, randf: rand.Float64}
}

// Recognize implements Recognizer.
func (r *Random) Recognize(ctx context.Context, image []byte) (model.Recognition, error) {
	if len(image) == 0 {
		return model.Recognition{}, errs.ErrRecognitionUnavailable
	}
	if err := sleep(ctx, r.Latency); err != nil {
		return model.Recognition{}, err
	}
	return model.Recognition{
		Label:      Labels[r.intn(len(Labels))],
		Confidence: r.Lo + r.randf()*(r.Hi-r.Lo),
	}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
