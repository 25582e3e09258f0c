// Package seed loads the demo accounts and harvest batches used by the
// portal walkthrough. Every account's password is DemoPassword.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/paulmach/orb"
	"github.com/shopspring/decimal"

	"github.com/and161185/ayurtrace/internal/errs"
	"github.com/and161185/ayurtrace/internal/ledger"
	"github.com/and161185/ayurtrace/internal/model"
	"github.com/and161185/ayurtrace/internal/repository"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "password123"

var namespace = uuid.Must(uuid.FromString("8f9b3f54-2f0c-4a53-9d3e-6a1c2b7d4e10"))

// UserID returns the stable ID of a seeded account key such as "farmer-1".
func UserID(key string) uuid.UUID { return uuid.NewV5(namespace, key) }

type demoUser struct {
	key, name, phone string
	role             model.Role
	since            string
	ivr              bool
}

var users = []demoUser{
	{"farmer-1", "Ramesh Kumar", "9876543210", model.RoleFarmer, "2023-09-15", true},
	{"farmer-2", "Sita Devi", "9876543211", model.RoleFarmer, "2022-11-20", false},
	{"lab-1", "Central Herb Lab", "9876543212", model.RoleLab, "2022-01-10", true},
	{"regulator-1", "AYUSH Regulator", "9876543213", model.RoleRegulator, "2021-06-01", true},
}

type demoBatch struct {
	plant      string
	confidence float64
	daysAgo    int
	lat, lon   float64
	address    string
	status     model.BatchStatus
	labDaysAgo int // -1: no lab result
	earnings   int64
	quality    float64
	photo      string
	quantity   string
}

// Listed in ID order; the store assigns B001..B009.
var batches = []demoBatch{
	{"Ashwagandha", 98.2, 3, 28.6139, 77.2090, "Connaught Place, New Delhi, Delhi, India", model.StatusApproved, 1, 5100, 95.0, "photo-1620786384240-27e1d1337626", "25.5 kg"},
	{"Tulsi", 95.5, 6, 28.6139, 77.2090, "Connaught Place, New Delhi, Delhi, India", model.StatusApproved, 4, 3200, 91.2, "photo-1621511414129-2703db444883", "15 kg"},
	{"Brahmi", 99.1, 12, 19.0760, 72.8777, "Santacruz East, Mumbai, Maharashtra, India", model.StatusPending, -1, 3000, 88.9, "photo-1596009249536-e0f6f4a86a3b", "20 kg"},
	{"Turmeric", 97.8, 18, 18.5204, 73.8567, "Deccan Gymkhana, Pune, Maharashtra, India", model.StatusApproved, 14, 4550, 93.5, "photo-1596009249536-e0f6f4a86a3b", "30 kg"},
	{"Neem", 96.3, 25, 26.9124, 75.7873, "C Scheme, Jaipur, Rajasthan, India", model.StatusApproved, 21, 3800, 90.1, "photo-1596009249536-e0f6f4a86a3b", "45 kg"},
	{"Shatavari", 97.5, 35, 10.8505, 76.2711, "Thrissur, Kerala, India", model.StatusApproved, 29, 6200, 96.8, "photo-1520106212299-d99c443e4568", "50 kg"},
	{"Giloy", 94.8, 50, 30.0668, 79.0193, "Rudraprayag, Uttarakhand, India", model.StatusApproved, 44, 4100, 92.3, "photo-1620786384240-27e1d1337626", "35 kg"},
	{"Amla", 96.7, 1, 25.4358, 81.8463, "Allahabad, Uttar Pradesh, India", model.StatusApproved, 0, 4800, 94.2, "photo-1596009249536-e0f6f4a86a3b", "40 kg"},
	{"Moringa", 97.1, 2, 13.0827, 80.2707, "Chennai, Tamil Nadu, India", model.StatusApproved, 1, 5500, 95.8, "photo-1520106212299-d99c443e4568", "60 kg"},
}

// Load inserts the demo data unless the first demo account already exists.
// It reports whether anything was inserted.
func Load(ctx context.Context, us repository.UserRepository, bs repository.BatchRepository, now time.Time) (bool, error) {
	if _, err := us.GetByPhone(ctx, users[0].phone); err == nil {
		return false, nil
	} else if !errors.Is(err, errs.ErrNotFound) {
		return false, err
	}

	for _, d := range users {
		since, err := time.Parse(time.DateOnly, d.since)
		if err != nil {
			return false, err
		}
		s := model.DefaultSettings()
		s.Notifications.IVR = d.ivr
		u := &model.User{
			ID:          UserID(d.key),
			Name:        d.name,
			Phone:       d.phone,
			Role:        d.role,
			MemberSince: since,
			Country:     "India",
			Settings:    s,
		}
		if err := us.Create(ctx, u, DemoPassword); err != nil {
			return false, fmt.Errorf("seed user %s: %w", d.key, err)
		}
	}

	owner := UserID("farmer-1")
	day := 24 * time.Hour
	for i, d := range batches {
		id := model.FormatBatchID(int64(i + 1))
		b := &model.Batch{
			ContentID:   ledger.ComputeID([]byte("seed:"+id), nil),
			OwnerID:     owner,
			PlantName:   d.plant,
			Confidence:  d.confidence,
			SubmittedAt: now.Add(-time.Duration(d.daysAgo) * day),
			Location:    orb.Point{d.lon, d.lat},
			Address:     d.address,
			Confirmation: &model.Confirmation{
				FarmerName: users[0].name,
				PlantType:  d.plant,
				Quantity:   d.quantity,
			},
			Status:       d.status,
			Earnings:     decimal.NewFromInt(d.earnings),
			QualityScore: d.quality,
			ImageURL:     "https://images.unsplash.com/" + d.photo + "?q=80&w=400",
		}
		if d.labDaysAgo >= 0 {
			b.LabResult = &model.LabResult{
				FileName:   fmt.Sprintf("lab_report_%s.pdf", id),
				UploadedAt: now.Add(-time.Duration(d.labDaysAgo) * day),
				Verdict:    model.VerdictPass,
			}
		}
		if _, err := bs.Insert(ctx, b); err != nil {
			return false, fmt.Errorf("seed batch %s: %w", id, err)
		}
	}
	return true, nil
}
