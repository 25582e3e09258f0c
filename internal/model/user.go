package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Role is the closed set of portal roles.
type Role string

const (
	RoleFarmer    Role = "farmer"
	RoleLab       Role = "lab"
	RoleRegulator Role = "regulator"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleFarmer, RoleLab, RoleRegulator:
		return true
	default:
		return false
	}
}

// Action is an operation guarded by role.
type Action int

const (
	ActionSubmitBatch Action = iota
	ActionListOwnBatches
	ActionListAllBatches
	ActionReviewBatch
	ActionRecallBatch
	ActionViewStats
	ActionExportFHIR
)

// Can reports whether role r may perform a.
func (r Role) Can(a Action) bool {
	switch r {
	case RoleFarmer:
		return a == ActionSubmitBatch || a == ActionListOwnBatches
	case RoleLab:
		return a == ActionListAllBatches || a == ActionReviewBatch || a == ActionViewStats
	case RoleRegulator:
		return a == ActionListAllBatches || a == ActionRecallBatch || a == ActionViewStats || a == ActionExportFHIR
	default:
		return false
	}
}

// Notifications toggles per-channel messages.
type Notifications struct {
	SMS bool `json:"sms"`
	IVR bool `json:"ivr"`
}

// Settings are user preferences.
type Settings struct {
	Notifications Notifications `json:"notifications"`
	Language      string        `json:"language"`
}

// DefaultSettings returns settings given to newly enrolled users.
func DefaultSettings() *Settings {
	return &Settings{Notifications: Notifications{SMS: true, IVR: true}, Language: "English"}
}

// User is the sanitized account view. Secrets live only in storage rows.
type User struct {
	ID          uuid.UUID
	Name        string
	Phone       string // contact address; empty for federated users without one
	Role        Role
	MemberSince time.Time
	Country     string
	Settings    *Settings // optional
}

// Clone returns a deep copy.
func (u User) Clone() User {
	if u.Settings != nil {
		s := *u.Settings
		u.Settings = &s
	}
	return u
}

// UserPatch holds optional profile fields; nil means "keep".
type UserPatch struct {
	Name     *string
	Country  *string
	Settings *Settings
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.Name == nil && p.Country == nil && p.Settings == nil
}

// Apply merges p into u.
func (p UserPatch) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Country != nil {
		u.Country = *p.Country
	}
	if p.Settings != nil {
		s := *p.Settings
		u.Settings = &s
	}
}
