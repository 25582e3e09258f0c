package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/paulmach/orb"
	"github.com/shopspring/decimal"

	"github.com/and161185/ayurtrace/internal/errs"
)

// BatchStatus is the lifecycle state of a harvest batch.
type BatchStatus string

const (
	StatusPending  BatchStatus = "pending"
	StatusApproved BatchStatus = "approved"
	StatusRejected BatchStatus = "rejected"
	StatusRecalled BatchStatus = "recalled"
)

// Valid reports whether s is a known status.
func (s BatchStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusRecalled:
		return true
	default:
		return false
	}
}

// Label is the human-readable status used in dashboards and exports.
func (s BatchStatus) Label() string {
	switch s {
	case StatusPending:
		return "Pending Lab Approval"
	case StatusApproved:
		return "Approved"
	case StatusRejected:
		return "Rejected by Lab"
	case StatusRecalled:
		return "Recalled by Regulator"
	default:
		return string(s)
	}
}

// CheckTransition validates from -> to. A recall of an already recalled batch
// is reported as a no-op rather than an error.
func CheckTransition(from, to BatchStatus) (noop bool, err error) {
	if !to.Valid() {
		return false, fmt.Errorf("%w: unknown status %q", errs.ErrInvalidArgument, to)
	}
	if to == StatusPending {
		return false, fmt.Errorf("%w: %s -> %s", errs.ErrInvalidTransition, from, to)
	}
	if from == StatusRecalled {
		if to == StatusRecalled {
			return true, nil
		}
		return false, fmt.Errorf("%w: %s -> %s", errs.ErrInvalidTransition, from, to)
	}
	return false, nil
}

// Verdict is the pass/fail outcome of a lab test.
type Verdict string

const (
	VerdictPass Verdict = "Pass"
	VerdictFail Verdict = "Fail"
)

// Valid reports whether v is Pass or Fail.
func (v Verdict) Valid() bool { return v == VerdictPass || v == VerdictFail }

// Status is the batch status implied by an uploaded report.
func (v Verdict) Status() BatchStatus {
	if v == VerdictPass {
		return StatusApproved
	}
	return StatusRejected
}

// LabResult is attached to a batch by a reviewer.
type LabResult struct {
	FileName   string    `json:"fileName"`
	UploadedAt time.Time `json:"uploadedAt"`
	Verdict    Verdict   `json:"result"`
}

// Confirmation is the data the farmer confirmed over the IVR call.
type Confirmation struct {
	FarmerName string `json:"farmerName"`
	PlantType  string `json:"plantType"`
	Quantity   string `json:"quantity"`
}

// Batch is one farmer's harvest submission.
type Batch struct {
	ID           string // B001, B002, ...
	ContentID    string // 0x-prefixed sha256, immutable
	OwnerID      uuid.UUID
	PlantName    string
	Confidence   float64 // 0..100
	SubmittedAt  time.Time
	Location     orb.Point // [lon, lat]
	Address      string
	Confirmation *Confirmation
	Status       BatchStatus
	LabResult    *LabResult
	Earnings     decimal.Decimal
	QualityScore float64
	ImageURL     string
	Version      int64
}

// Clone returns a deep copy.
func (b Batch) Clone() Batch {
	if b.Confirmation != nil {
		c := *b.Confirmation
		b.Confirmation = &c
	}
	if b.LabResult != nil {
		l := *b.LabResult
		b.LabResult = &l
	}
	return b
}

// StatusUpdate is a review intent with an optional optimistic base version (0 = unconditional).
type StatusUpdate struct {
	Status    BatchStatus
	LabResult *LabResult // nil keeps the current result
	BaseVer   int64
}

// Apply validates u against b and mutates b. It reports whether anything changed.
func (u StatusUpdate) Apply(b *Batch) (bool, error) {
	if u.BaseVer > 0 && u.BaseVer != b.Version {
		return false, errs.ErrVersionConflict
	}
	noop, err := CheckTransition(b.Status, u.Status)
	if err != nil || noop {
		return false, err
	}
	b.Status = u.Status
	if u.LabResult != nil {
		l := *u.LabResult
		b.LabResult = &l
	}
	b.Version++
	return true, nil
}

// FormatBatchID renders a store sequence number as a batch id.
func FormatBatchID(seq int64) string {
	return fmt.Sprintf("B%03d", seq)
}

// BatchFilter narrows batch listings.
type BatchFilter struct {
	Status BatchStatus // empty = any
	Search string      // case-insensitive match on id, plant name, owner id
}

// Match reports whether b passes the filter.
func (f BatchFilter) Match(b Batch) bool {
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Search))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(b.ID), q) ||
		strings.Contains(strings.ToLower(b.PlantName), q) ||
		strings.Contains(b.OwnerID.String(), q)
}

// BatchStats counts batches per status.
type BatchStats struct {
	Total    int
	Pending  int
	Approved int
	Rejected int
	Recalled int
}

// Add counts b.
func (s *BatchStats) Add(b Batch) {
	s.Total++
	switch b.Status {
	case StatusPending:
		s.Pending++
	case StatusApproved:
		s.Approved++
	case StatusRejected:
		s.Rejected++
	case StatusRecalled:
		s.Recalled++
	}
}

// FarmerSummary is the dashboard view of one farmer's batches.
type FarmerSummary struct {
	TotalHarvests int
	Approved      int
	TotalEarnings decimal.Decimal
	AvgQuality    float64 // 0 when there are no batches
}

// Summarize totals bs.
func Summarize(bs []Batch) FarmerSummary {
	s := FarmerSummary{TotalEarnings: decimal.Zero}
	var quality float64
	for _, b := range bs {
		s.TotalHarvests++
		s.TotalEarnings = s.TotalEarnings.Add(b.Earnings)
		quality += b.QualityScore
		if b.Status == StatusApproved {
			s.Approved++
		}
	}
	if s.TotalHarvests > 0 {
		s.AvgQuality = quality / float64(s.TotalHarvests)
	}
	return s
}

// Submission is the farmer's input to batch creation.
type Submission struct {
	OwnerID      uuid.UUID
	PlantName    string
	Confidence   float64
	Location     orb.Point
	Address      string
	Confirmation *Confirmation
	Image        []byte // optional photo
}

// Recognition is a recognizer's answer for an image.
type Recognition struct {
	Label      string
	Confidence float64
}

// Draft is a prepared submission: recognition plus resolved address.
type Draft struct {
	Recognition Recognition
	Location    orb.Point
	Address     string
}

// BatchEvent is published on lifecycle changes.
type BatchEvent struct {
	Type      string    `json:"type"` // submitted | reviewed
	BatchID   string    `json:"batchId"`
	ContentID string    `json:"contentId"`
	OwnerID   string    `json:"ownerId"`
	Status    string    `json:"status"`
	At        time.Time `json:"at"`
}
