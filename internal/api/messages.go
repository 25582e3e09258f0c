// Code hand-written in place of protoc output. Messages travel with the
// "json" codec registered in codec.go.

package api

import "time"

// Empty is used by methods without a meaningful request or response.
type Empty struct{}

// Settings are the user's preferences.
type Settings struct {
	SMS      bool   `json:"sms"`
	IVR      bool   `json:"ivr"`
	Language string `json:"language"`
}

// User is the sanitized profile; it never carries a secret.
type User struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone,omitempty"`
	Role        string    `json:"role"`
	MemberSince time.Time `json:"memberSince"`
	Country     string    `json:"country"`
	Settings    *Settings `json:"settings,omitempty"`
}

// Session is returned by every login method.
type Session struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	User        User      `json:"user"`
}

type AuthenticateRequest struct {
	Identifier string `json:"identifier"` // phone or user id
	Secret     string `json:"secret"`
}

type RequestCodeRequest struct {
	Contact string `json:"contact"`
}

type VerifyCodeRequest struct {
	Contact string `json:"contact"`
	Code    string `json:"code"`
}

type FederatedLoginRequest struct {
	Assertion string `json:"assertion"`
}

type RegisterRequest struct {
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Secret string `json:"secret"`
}

// UpdateProfileRequest carries optional fields; absent fields are kept.
type UpdateProfileRequest struct {
	Name     *string   `json:"name,omitempty"`
	Country  *string   `json:"country,omitempty"`
	Settings *Settings `json:"settings,omitempty"`
}

type Confirmation struct {
	FarmerName string `json:"farmerName"`
	PlantType  string `json:"plantType"`
	Quantity   string `json:"quantity"`
}

type LabResult struct {
	FileName   string    `json:"fileName"`
	UploadedAt time.Time `json:"uploadedAt"`
	Result     string    `json:"result"` // Pass | Fail
}

type Batch struct {
	ID           string        `json:"id"`
	ContentID    string        `json:"contentId"`
	FarmerID     string        `json:"farmerId"`
	PlantName    string        `json:"plantName"`
	Confidence   float64       `json:"confidence"`
	SubmittedAt  time.Time     `json:"submittedAt"`
	Latitude     float64       `json:"latitude"`
	Longitude    float64       `json:"longitude"`
	Address      string        `json:"address,omitempty"`
	Confirmation *Confirmation `json:"confirmation,omitempty"`
	Status       string        `json:"status"`
	StatusLabel  string        `json:"statusLabel"`
	LabResult    *LabResult    `json:"labResult,omitempty"`
	Earnings     string        `json:"earnings"` // decimal rupees
	QualityScore float64       `json:"qualityScore"`
	ImageURL     string        `json:"imageUrl"`
	Version      int64         `json:"version"`
}

type BatchList struct {
	Batches []Batch `json:"batches"`
}

type ListBatchesRequest struct {
	Status string `json:"status,omitempty"`
	Search string `json:"search,omitempty"`
}

type GetBatchRequest struct {
	ID string `json:"id"`
}

type RecognizeRequest struct {
	Image []byte `json:"image"`
}

type Recognition struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

type PrepareSubmissionRequest struct {
	Image     []byte  `json:"image"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Draft struct {
	Recognition Recognition `json:"recognition"`
	Latitude    float64     `json:"latitude"`
	Longitude   float64     `json:"longitude"`
	Address     string      `json:"address"`
}

// SubmitBatchRequest is filed on behalf of the calling farmer.
type SubmitBatchRequest struct {
	PlantName    string        `json:"plantName"`
	Confidence   float64       `json:"confidence"`
	Latitude     float64       `json:"latitude"`
	Longitude    float64       `json:"longitude"`
	Address      string        `json:"address,omitempty"`
	Confirmation *Confirmation `json:"confirmation,omitempty"`
	Image        []byte        `json:"image,omitempty"`
}

type ReviewBatchRequest struct {
	ID        string     `json:"id"`
	Status    string     `json:"status"`
	LabResult *LabResult `json:"labResult,omitempty"`
	BaseVer   int64      `json:"baseVer,omitempty"` // 0 = unconditional
}

type UploadLabReportRequest struct {
	ID       string `json:"id"`
	FileName string `json:"fileName"`
	Result   string `json:"result"`
	BaseVer  int64  `json:"baseVer,omitempty"`
}

type RecallBatchRequest struct {
	ID      string `json:"id"`
	BaseVer int64  `json:"baseVer,omitempty"`
}

type BatchStats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Recalled int `json:"recalled"`
}

// FarmerSummary is the calling farmer's dashboard totals.
type FarmerSummary struct {
	TotalHarvests int     `json:"totalHarvests"`
	Approved      int     `json:"approved"`
	TotalEarnings string  `json:"totalEarnings"` // decimal rupees
	AvgQuality    float64 `json:"avgQuality"`
}

type ExportFHIRRequest struct {
	ID string `json:"id"`
}
