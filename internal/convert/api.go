// Package convert maps domain types to API messages and back.
package convert

import (
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"
	"github.com/paulmach/orb"

	"github.com/and161185/ayurtrace/internal/api"
	"github.com/and161185/ayurtrace/internal/errs"
	"github.com/and161185/ayurtrace/internal/model"
)

// --- Users ---

// ToAPISettings converts domain settings to the API message.
func ToAPISettings(s *model.Settings) *api.Settings {
	if s == nil {
		return nil
	}
	return &api.Settings{SMS: s.Notifications.SMS, IVR: s.Notifications.IVR, Language: s.Language}
}

// FromAPISettings converts API settings to the domain type.
func FromAPISettings(s *api.Settings) *model.Settings {
	if s == nil {
		return nil
	}
	return &model.Settings{
		Notifications: model.Notifications{SMS: s.SMS, IVR: s.IVR},
		Language:      s.Language,
	}
}

// ToAPIUser converts a sanitized user.
func ToAPIUser(u model.User) api.User {
	return api.User{
		ID:          u.ID.String(),
		Name:        u.Name,
		Phone:       u.Phone,
		Role:        string(u.Role),
		MemberSince: u.MemberSince,
		Country:     u.Country,
		Settings:    ToAPISettings(u.Settings),
	}
}

// ToAPISession converts a login result.
func ToAPISession(s model.Session) *api.Session {
	return &api.Session{
		AccessToken: s.Tokens.AccessToken,
		ExpiresAt:   s.Tokens.ExpiresAt,
		User:        ToAPIUser(s.User),
	}
}

// FromAPIUserPatch converts a profile update.
func FromAPIUserPatch(in *api.UpdateProfileRequest) model.UserPatch {
	return model.UserPatch{
		Name:     in.Name,
		Country:  in.Country,
		Settings: FromAPISettings(in.Settings),
	}
}

// --- Batches ---

// ToAPIBatch converts a batch.
func ToAPIBatch(b model.Batch) *api.Batch {
	out := &api.Batch{
		ID:           b.ID,
		ContentID:    b.ContentID,
		FarmerID:     b.OwnerID.String(),
		PlantName:    b.PlantName,
		Confidence:   b.Confidence,
		SubmittedAt:  b.SubmittedAt,
		Latitude:     b.Location.Lat(),
		Longitude:    b.Location.Lon(),
		Address:      b.Address,
		Status:       string(b.Status),
		StatusLabel:  b.Status.Label(),
		Earnings:     b.Earnings.StringFixed(2),
		QualityScore: b.QualityScore,
		ImageURL:     b.ImageURL,
		Version:      b.Version,
	}
	if c := b.Confirmation; c != nil {
		out.Confirmation = &api.Confirmation{FarmerName: c.FarmerName, PlantType: c.PlantType, Quantity: c.Quantity}
	}
	if l := b.LabResult; l != nil {
		out.LabResult = &api.LabResult{FileName: l.FileName, UploadedAt: l.UploadedAt, Result: string(l.Verdict)}
	}
	return out
}

// ToAPIBatchList converts a listing; an empty input yields an empty, non-nil slice.
func ToAPIBatchList(bs []model.Batch) *api.BatchList {
	out := &api.BatchList{Batches: make([]api.Batch, 0, len(bs))}
	for _, b := range bs {
		out.Batches = append(out.Batches, *ToAPIBatch(b))
	}
	return out
}

// FromAPIStatus parses a status name case-insensitively.
func FromAPIStatus(s string) (model.BatchStatus, error) {
	st := model.BatchStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", errs.ErrInvalidArgument, s)
	}
	return st, nil
}

// FromAPIVerdict parses "Pass" or "Fail", ignoring case.
func FromAPIVerdict(s string) (model.Verdict, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pass":
		return model.VerdictPass, nil
	case "fail":
		return model.VerdictFail, nil
	default:
		return "", fmt.Errorf("%w: unknown result %q", errs.ErrInvalidArgument, s)
	}
}

// FromAPILabResult converts an optional lab result.
func FromAPILabResult(in *api.LabResult) (*model.LabResult, error) {
	if in == nil {
		return nil, nil
	}
	v, err := FromAPIVerdict(in.Result)
	if err != nil {
		return nil, err
	}
	return &model.LabResult{FileName: in.FileName, UploadedAt: in.UploadedAt, Verdict: v}, nil
}

// FromAPIStatusUpdate converts a review request.
func FromAPIStatusUpdate(in *api.ReviewBatchRequest) (model.StatusUpdate, error) {
	st, err := FromAPIStatus(in.Status)
	if err != nil {
		return model.StatusUpdate{}, err
	}
	lr, err := FromAPILabResult(in.LabResult)
	if err != nil {
		return model.StatusUpdate{}, err
	}
	return model.StatusUpdate{Status: st, LabResult: lr, BaseVer: in.BaseVer}, nil
}

// FromAPIFilter converts listing criteria; an empty status means any.
func FromAPIFilter(in *api.ListBatchesRequest) (model.BatchFilter, error) {
	f := model.BatchFilter{Search: in.Search}
	if strings.TrimSpace(in.Status) == "" {
		return f, nil
	}
	st, err := FromAPIStatus(in.Status)
	if err != nil {
		return model.BatchFilter{}, err
	}
	f.Status = st
	return f, nil
}

// FromAPISubmission builds a submission owned by owner.
func FromAPISubmission(owner uuid.UUID, in *api.SubmitBatchRequest) model.Submission {
	sub := model.Submission{
		OwnerID:    owner,
		PlantName:  in.PlantName,
		Confidence: in.Confidence,
		Location:   Point(in.Latitude, in.Longitude),
		Address:    in.Address,
		Image:      in.Image,
	}
	if c := in.Confirmation; c != nil {
		sub.Confirmation = &model.Confirmation{FarmerName: c.FarmerName, PlantType: c.PlantType, Quantity: c.Quantity}
	}
	return sub
}

// Point builds an orb point from latitude and longitude.
func Point(lat, lon float64) orb.Point { return orb.Point{lon, lat} }

// ToAPIRecognition converts a recognizer answer.
func ToAPIRecognition(r model.Recognition) *api.Recognition {
	return &api.Recognition{Label: r.Label, Confidence: r.Confidence}
}

// ToAPIDraft converts a prepared submission.
func ToAPIDraft(d model.Draft) *api.Draft {
	return &api.Draft{
		Recognition: *ToAPIRecognition(d.Recognition),
		Latitude:    d.Location.Lat(),
		Longitude:   d.Location.Lon(),
		Address:     d.Address,
	}
}

// ToAPIStats converts per-status counters.
func ToAPIStats(s model.BatchStats) *api.BatchStats {
	return &api.BatchStats{
		Total:    s.Total,
		Pending:  s.Pending,
		Approved: s.Approved,
		Rejected: s.Rejected,
		Recalled: s.Recalled,
	}
}

// ToAPISummary converts a farmer summary; earnings keep two decimals.
func ToAPISummary(s model.FarmerSummary) *api.FarmerSummary {
	return &api.FarmerSummary{
		TotalHarvests: s.TotalHarvests,
		Approved:      s.Approved,
		TotalEarnings: s.TotalEarnings.StringFixed(2),
		AvgQuality:    s.AvgQuality,
	}
}
