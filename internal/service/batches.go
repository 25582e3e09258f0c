package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/paulmach/orb"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/and161185/ayurtrace/internal/errs"
	"github.com/and161185/ayurtrace/internal/events"
	"github.com/and161185/ayurtrace/internal/fhir"
	"github.com/and161185/ayurtrace/internal/geocode"
	"github.com/and161185/ayurtrace/internal/ledger"
	"github.com/and161185/ayurtrace/internal/media"
	"github.com/and161185/ayurtrace/internal/metrics"
	"github.com/and161185/ayurtrace/internal/model"
	"github.com/and161185/ayurtrace/internal/recognition"
	"github.com/and161185/ayurtrace/internal/repository"
)

// BatchService defines the harvest batch lifecycle.
type BatchService interface {
	// Recognize labels a plant photo.
	Recognize(ctx context.Context, image []byte) (model.Recognition, error)
	// PrepareSubmission runs recognition and reverse geocoding concurrently.
	PrepareSubmission(ctx context.Context, image []byte, loc orb.Point) (model.Draft, error)
	// Submit anchors and stores a new pending batch.
	Submit(ctx context.Context, sub model.Submission) (*model.Batch, error)
	// Review changes status and optionally attaches a lab result.
	// Approved requires a Pass report; a Fail report only goes with Rejected.
	Review(ctx context.Context, id string, upd model.StatusUpdate) (*model.Batch, error)
	// UploadLabReport records a report file and moves the batch to the verdict's status.
	UploadLabReport(ctx context.Context, id, fileName string, verdict model.Verdict, baseVer int64) (*model.Batch, error)
	// Recall marks a batch recalled; recalling twice is a no-op.
	Recall(ctx context.Context, id string, baseVer int64) (*model.Batch, error)
	// ListByOwner returns the owner's batches, newest first.
	ListByOwner(ctx context.Context, owner uuid.UUID) ([]model.Batch, error)
	// List returns all batches matching f, newest first.
	List(ctx context.Context, f model.BatchFilter) ([]model.Batch, error)
	// Get loads one batch.
	Get(ctx context.Context, id string) (*model.Batch, error)
	// Stats counts batches per status.
	Stats(ctx context.Context) (model.BatchStats, error)
	// Summary totals one farmer's harvests, earnings and quality.
	Summary(ctx context.Context, owner uuid.UUID) (model.FarmerSummary, error)
	// ExportFHIR renders the lab result of a batch as a FHIR Observation.
	ExportFHIR(ctx context.Context, id string) (*fhir.Observation, error)
}

// BatchOptions bounds calls to external capabilities.
type BatchOptions struct {
	RecognitionTimeout time.Duration
	GeocodeTimeout     time.Duration
}

// BatchDeps are the collaborators of BatchServiceImpl. Media, Events, Metrics and Log are optional.
type BatchDeps struct {
	Batches    repository.BatchRepository
	Users      repository.UserRepository
	Anchor     ledger.Anchor
	Recognizer recognition.Recognizer
	Geocoder   geocode.Geocoder
	Media      media.Store
	Events     events.Publisher
	Metrics    *metrics.Metrics
	Log        *zap.Logger
}

type BatchServiceImpl struct {
	batches    repository.BatchRepository
	users      repository.UserRepository
	anchor     ledger.Anchor
	recognizer recognition.Recognizer
	geocoder   geocode.Geocoder
	media      media.Store
	events     events.Publisher
	metrics    *metrics.Metrics
	log        *zap.Logger
	opts       BatchOptions
	now        func() time.Time
	intn       func(n int64) int64
	randf      func() float64
}

// NewBatchService constructs BatchService with required dependencies.
func NewBatchService(d BatchDeps, opts BatchOptions) *BatchServiceImpl {
	if opts.RecognitionTimeout <= 0 {
		opts.RecognitionTimeout = 10 * time.Second
	}
	if opts.GeocodeTimeout <= 0 {
		opts.GeocodeTimeout = 5 * time.Second
	}
	pub := d.Events
	if pub == nil {
		pub = events.Nop{}
	}
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &BatchServiceImpl{
		batches:    d.Batches,
		users:      d.Users,
		anchor:     d.Anchor,
		recognizer: d.Recognizer,
		geocoder:   d.Geocoder,
		media:      d.Media,
		events:     pub,
		metrics:    d.Metrics,
		log:        log,
		opts:       opts,
		now:        time.Now,
		intn:       rand.Int64N,
		randf:      rand.Float64,
	}
}

// Recognize labels image within the recognition timeout.
func (s *BatchServiceImpl) Recognize(ctx context.Context, image []byte) (model.Recognition, error) {
	if len(image) == 0 {
		return model.Recognition{}, fmt.Errorf("%w: empty image", errs.ErrInvalidArgument)
	}
	rctx, cancel := context.WithTimeout(ctx, s.opts.RecognitionTimeout)
	defer cancel()
	rec, err := s.recognizer.Recognize(rctx, image)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return model.Recognition{}, fmt.Errorf("recognize: %w", errs.ErrTimeout)
		}
		return model.Recognition{}, err
	}
	return rec, nil
}

// PrepareSubmission fans out recognition and reverse geocoding. A geocoder
// problem degrades to a placeholder address; a recognition failure fails the draft.
func (s *BatchServiceImpl) PrepareSubmission(ctx context.Context, image []byte, loc orb.Point) (model.Draft, error) {
	if err := validLocation(loc); err != nil {
		return model.Draft{}, err
	}
	d := model.Draft{Location: loc}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rec, err := s.Recognize(gctx, image)
		if err != nil {
			return err
		}
		d.Recognition = rec
		return nil
	})
	g.Go(func() error {
		cctx, cancel := context.WithTimeout(gctx, s.opts.GeocodeTimeout)
		defer cancel()
		d.Address = s.geocoder.Reverse(cctx, loc)
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.Draft{}, err
	}
	return d, nil
}

// anchorPayload is everything the content id commits to.
type anchorPayload struct {
	OwnerID      string              `json:"ownerId"`
	PlantName    string              `json:"plantName"`
	Confidence   float64             `json:"confidence"`
	Latitude     float64             `json:"latitude"`
	Longitude    float64             `json:"longitude"`
	Address      string              `json:"address,omitempty"`
	Confirmation *model.Confirmation `json:"confirmation,omitempty"`
	SubmittedAt  time.Time           `json:"submittedAt"`
}

// Submit validates sub, stores the photo, anchors the payload and inserts a pending batch.
func (s *BatchServiceImpl) Submit(ctx context.Context, sub model.Submission) (*model.Batch, error) {
	plant := strings.TrimSpace(sub.PlantName)
	switch {
	case sub.OwnerID == uuid.Nil:
		return nil, fmt.Errorf("%w: empty owner", errs.ErrInvalidArgument)
	case plant == "":
		return nil, fmt.Errorf("%w: empty plant name", errs.ErrInvalidArgument)
	case sub.Confidence < 0 || sub.Confidence > 100:
		return nil, fmt.Errorf("%w: confidence %v out of range", errs.ErrInvalidArgument, sub.Confidence)
	}
	if err := validLocation(sub.Location); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, sub.OwnerID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	address := strings.TrimSpace(sub.Address)
	imageURL := media.DefaultImageURL
	if len(sub.Image) > 0 && s.media != nil {
		key, err := uuid.NewV4()
		if err != nil {
			return nil, err
		}
		if imageURL, err = s.media.Put(ctx, "batches/"+key.String(), sub.Image); err != nil {
			return nil, fmt.Errorf("store image: %w", err)
		}
	}

	payload, err := json.Marshal(anchorPayload{
		OwnerID:      sub.OwnerID.String(),
		PlantName:    plant,
		Confidence:   sub.Confidence,
		Latitude:     sub.Location.Lat(),
		Longitude:    sub.Location.Lon(),
		Address:      address,
		Confirmation: sub.Confirmation,
		SubmittedAt:  now,
	})
	if err != nil {
		return nil, err
	}
	contentID, err := s.anchor.Anchor(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("anchor: %w", err)
	}

	b, err := s.batches.Insert(ctx, &model.Batch{
		ContentID:    contentID,
		OwnerID:      sub.OwnerID,
		PlantName:    plant,
		Confidence:   sub.Confidence,
		SubmittedAt:  now,
		Location:     sub.Location,
		Address:      address,
		Confirmation: sub.Confirmation,
		Status:       model.StatusPending,
		Earnings:     decimal.NewFromInt(1000 + s.intn(5000)),
		QualityScore: 85 + s.randf()*13,
		ImageURL:     imageURL,
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.TypeSubmitted, b)
	s.log.Info("batch submitted", zap.String("batch_id", b.ID), zap.String("content_id", b.ContentID))
	return b, nil
}

// Review validates upd before touching storage and applies it atomically.
// A report's verdict must match the target status unless the batch is being
// recalled; approval always needs a passing report, rejection does not.
// No-op updates publish nothing.
func (s *BatchServiceImpl) Review(ctx context.Context, id string, upd model.StatusUpdate) (*model.Batch, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: empty batch id", errs.ErrInvalidArgument)
	}
	if !upd.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", errs.ErrInvalidArgument, upd.Status)
	}
	if lr := upd.LabResult; lr != nil {
		if strings.TrimSpace(lr.FileName) == "" || !lr.Verdict.Valid() {
			return nil, fmt.Errorf("%w: incomplete lab result", errs.ErrInvalidArgument)
		}
		if upd.Status != model.StatusRecalled && upd.Status != lr.Verdict.Status() {
			return nil, fmt.Errorf("%w: %s report cannot set %s", errs.ErrInvalidArgument, lr.Verdict, upd.Status)
		}
		if lr.UploadedAt.IsZero() {
			cp := *lr
			cp.UploadedAt = s.now().UTC()
			upd.LabResult = &cp
		}
	} else if upd.Status == model.StatusApproved {
		return nil, fmt.Errorf("%w: approval needs a passing lab report", errs.ErrInvalidArgument)
	}
	b, changed, err := s.batches.UpdateStatus(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	if changed {
		s.publish(ctx, events.TypeReviewed, b)
	}
	return b, nil
}

// UploadLabReport attaches fileName with verdict and moves the batch to
// Approved (Pass) or Rejected (Fail).
func (s *BatchServiceImpl) UploadLabReport(ctx context.Context, id, fileName string, verdict model.Verdict, baseVer int64) (*model.Batch, error) {
	if !verdict.Valid() {
		return nil, fmt.Errorf("%w: unknown verdict %q", errs.ErrInvalidArgument, verdict)
	}
	return s.Review(ctx, id, model.StatusUpdate{
		Status:    verdict.Status(),
		LabResult: &model.LabResult{FileName: fileName, Verdict: verdict},
		BaseVer:   baseVer,
	})
}

// Recall marks a batch recalled, keeping its lab result.
func (s *BatchServiceImpl) Recall(ctx context.Context, id string, baseVer int64) (*model.Batch, error) {
	return s.Review(ctx, id, model.StatusUpdate{Status: model.StatusRecalled, BaseVer: baseVer})
}

// ListByOwner returns the owner's batches, newest submission first.
func (s *BatchServiceImpl) ListByOwner(ctx context.Context, owner uuid.UUID) ([]model.Batch, error) {
	bs, err := s.batches.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	newestFirst(bs)
	return bs, nil
}

// List returns batches matching f, newest submission first.
func (s *BatchServiceImpl) List(ctx context.Context, f model.BatchFilter) ([]model.Batch, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", errs.ErrInvalidArgument, f.Status)
	}
	all, err := s.batches.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Batch, 0, len(all))
	for _, b := range all {
		if f.Match(b) {
			out = append(out, b)
		}
	}
	newestFirst(out)
	return out, nil
}

// Get loads one batch.
func (s *BatchServiceImpl) Get(ctx context.Context, id string) (*model.Batch, error) {
	return s.batches.Get(ctx, strings.TrimSpace(id))
}

// Stats counts all batches per status.
func (s *BatchServiceImpl) Stats(ctx context.Context) (model.BatchStats, error) {
	all, err := s.batches.ListAll(ctx)
	if err != nil {
		return model.BatchStats{}, err
	}
	var st model.BatchStats
	for _, b := range all {
		st.Add(b)
	}
	return st, nil
}

// Summary aggregates the owner's batches.
func (s *BatchServiceImpl) Summary(ctx context.Context, owner uuid.UUID) (model.FarmerSummary, error) {
	bs, err := s.batches.ListByOwner(ctx, owner)
	if err != nil {
		return model.FarmerSummary{}, err
	}
	return model.Summarize(bs), nil
}

// ExportFHIR renders the batch's lab result.
func (s *BatchServiceImpl) ExportFHIR(ctx context.Context, id string) (*fhir.Observation, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return fhir.FromBatch(*b)
}

// publish is best-effort: a broker outage never fails a committed change.
func (s *BatchServiceImpl) publish(ctx context.Context, typ string, b *model.Batch) {
	s.metrics.BatchTransition(string(b.Status))
	ev := model.BatchEvent{
		Type:      typ,
		BatchID:   b.ID,
		ContentID: b.ContentID,
		OwnerID:   b.OwnerID.String(),
		Status:    string(b.Status),
		At:        s.now().UTC(),
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn("publish batch event", zap.String("batch_id", b.ID), zap.String("type", typ), zap.Error(err))
	}
}

// newestFirst sorts by submission time; ties keep store order.
func newestFirst(bs []model.Batch) {
	sort.SliceStable(bs, func(i, j int) bool { return bs[i].SubmittedAt.After(bs[j].SubmittedAt) })
}

func validLocation(p orb.Point) error {
	if p.Lat() < -90 || p.Lat() > 90 || p.Lon() < -180 || p.Lon() > 180 {
		return fmt.Errorf("%w: coordinates out of range", errs.ErrInvalidArgument)
	}
	return nil
}
