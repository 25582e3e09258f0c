package model

import (
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/and161185/ayurtrace/internal/errs"
)

func TestCheckTransition(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from, to BatchStatus
		noop     bool
		err      error
	}{
		{StatusPending, StatusApproved, false, nil},
		{StatusPending, StatusRejected, false, nil},
		{StatusPending, StatusRecalled, false, nil},
		{StatusApproved, StatusRejected, false, nil},
		{StatusRejected, StatusApproved, false, nil},
		{StatusApproved, StatusRecalled, false, nil},
		{StatusApproved, StatusPending, false, errs.ErrInvalidTransition},
		{StatusRecalled, StatusRecalled, true, nil},
		{StatusRecalled, StatusApproved, false, errs.ErrInvalidTransition},
		{StatusPending, "shipped", false, errs.ErrInvalidArgument},
	}
	for _, c := range cases {
		noop, err := CheckTransition(c.from, c.to)
		if c.err == nil {
			require.NoError(t, err, "%s -> %s", c.from, c.to)
		} else {
			require.ErrorIs(t, err, c.err, "%s -> %s", c.from, c.to)
		}
		require.Equal(t, c.noop, noop, "%s -> %s", c.from, c.to)
	}
}

func TestStatusUpdate_Apply(t *testing.T) {
	t.Parallel()

	lab := &LabResult{FileName: "r.pdf", UploadedAt: time.Unix(100, 0), Verdict: VerdictPass}
	b := Batch{ID: "B001", Status: StatusPending, Version: 1}

	changed, err := StatusUpdate{Status: StatusApproved, LabResult: lab, BaseVer: 1}.Apply(&b)
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, StatusApproved, b.Status)
	require.Equal(t, int64(2), b.Version)
	require.NotSame(t, lab, b.LabResult)
	require.Equal(t, *lab, *b.LabResult)

	// stale base version
	_, err = StatusUpdate{Status: StatusRejected, BaseVer: 1}.Apply(&b)
	require.ErrorIs(t, err, errs.ErrVersionConflict)
	require.Equal(t, StatusApproved, b.Status)

	// nil lab result keeps the previous one
	changed, err = StatusUpdate{Status: StatusRecalled}.Apply(&b)
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, "r.pdf", b.LabResult.FileName)
	require.Equal(t, int64(3), b.Version)

	// repeated recall changes nothing
	changed, err = StatusUpdate{Status: StatusRecalled}.Apply(&b)
	require.NoError(t, err)
	require.False(t, changed)
	require.Equal(t, int64(3), b.Version)

	_, err = StatusUpdate{Status: StatusApproved}.Apply(&b)
	if !errors.Is(err, errs.ErrInvalidTransition) {
		t.Fatalf("want ErrInvalidTransition, got %v", err)
	}
}

func TestBatchFilter_Match(t *testing.T) {
	t.Parallel()

	owner := uuid.Must(uuid.NewV4())
	b := Batch{ID: "B007", PlantName: "Ashwagandha", OwnerID: owner, Status: StatusApproved}

	require.True(t, BatchFilter{}.Match(b))
	require.True(t, BatchFilter{Status: StatusApproved}.Match(b))
	require.False(t, BatchFilter{Status: StatusPending}.Match(b))
	require.True(t, BatchFilter{Search: "b007"}.Match(b))
	require.True(t, BatchFilter{Search: "  ASHWA "}.Match(b))
	require.True(t, BatchFilter{Search: owner.String()[:8]}.Match(b))
	require.False(t, BatchFilter{Search: "tulsi"}.Match(b))
	require.False(t, BatchFilter{Status: StatusPending, Search: "ashwa"}.Match(b))
}

func TestBatchStats_Add(t *testing.T) {
	t.Parallel()

	var s BatchStats
	for _, st := range []BatchStatus{StatusPending, StatusApproved, StatusApproved, StatusRejected, StatusRecalled} {
		s.Add(Batch{Status: st})
	}
	require.Equal(t, BatchStats{Total: 5, Pending: 1, Approved: 2, Rejected: 1, Recalled: 1}, s)
}

func TestLabelsAndIDs(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Pending Lab Approval", StatusPending.Label())
	require.Equal(t, "Recalled by Regulator", StatusRecalled.Label())
	require.Equal(t, "odd", BatchStatus("odd").Label())
	require.Equal(t, "B001", FormatBatchID(1))
	require.Equal(t, "B1234", FormatBatchID(1234))
	require.Equal(t, StatusApproved, VerdictPass.Status())
	require.Equal(t, StatusRejected, VerdictFail.Status())
	require.False(t, Verdict("pass").Valid())
}

func TestRole_Can(t *testing.T) {
	t.Parallel()

	require.True(t, RoleFarmer.Can(ActionSubmitBatch))
	require.False(t, RoleFarmer.Can(ActionListAllBatches))
	require.True(t, RoleLab.Can(ActionReviewBatch))
	require.False(t, RoleLab.Can(ActionRecallBatch))
	require.True(t, RoleRegulator.Can(ActionRecallBatch))
	require.True(t, RoleRegulator.Can(ActionExportFHIR))
	require.False(t, RoleRegulator.Can(ActionSubmitBatch))
	require.False(t, Role("admin").Can(ActionViewStats))
	require.False(t, Role("admin").Valid())
}

func TestUserPatch_And_Clone(t *testing.T) {
	t.Parallel()

	u := User{Name: "Asha", Settings: DefaultSettings()}
	c := u.Clone()
	c.Settings.Language = "Hindi"
	require.Equal(t, "English", u.Settings.Language)

	require.True(t, UserPatch{}.Empty())
	name, country := "Asha Devi", "India"
	p := UserPatch{Name: &name, Country: &country, Settings: &Settings{Language: "Tamil"}}
	require.False(t, p.Empty())
	p.Apply(&u)
	require.Equal(t, "Asha Devi", u.Name)
	require.Equal(t, "India", u.Country)
	require.Equal(t, "Tamil", u.Settings.Language)
	require.NotSame(t, p.Settings, u.Settings)
}

func TestBatch_Clone(t *testing.T) {
	t.Parallel()

	b := Batch{Confirmation: &Confirmation{Quantity: "5 kg"}, LabResult: &LabResult{Verdict: VerdictPass}}
	c := b.Clone()
	c.Confirmation.Quantity = "6 kg"
	c.LabResult.Verdict = VerdictFail
	require.Equal(t, "5 kg", b.Confirmation.Quantity)
	require.Equal(t, VerdictPass, b.LabResult.Verdict)
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	empty := Summarize(nil)
	require.Zero(t, empty.TotalHarvests)
	require.True(t, empty.TotalEarnings.IsZero())
	require.Zero(t, empty.AvgQuality)

	s := Summarize([]Batch{
		{Status: StatusApproved, Earnings: decimal.RequireFromString("5100.50"), QualityScore: 95},
		{Status: StatusPending, Earnings: decimal.NewFromInt(3000), QualityScore: 89},
		{Status: StatusRecalled, Earnings: decimal.NewFromInt(1000), QualityScore: 86},
	})
	require.Equal(t, 3, s.TotalHarvests)
	require.Equal(t, 1, s.Approved)
	require.Equal(t, "9100.5", s.TotalEarnings.String())
	require.InDelta(t, 90.0, s.AvgQuality, 1e-9)
}
