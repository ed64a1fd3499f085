package learnsdk

import (
	"encoding/json"
	"time"
)

// ============================================================================
// Session Types
// ============================================================================

// TokenPair is the access/refresh pair issued by one authentication exchange.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Complete reports whether both halves are present.
func (p TokenPair) Complete() bool {
	return p.AccessToken != "" && p.RefreshToken != ""
}

// User is the profile returned by session validation. Read-only to callers.
type User struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Phone      string `json:"phone,omitempty"`
	Pfp        string `json:"pfp,omitempty"`
	Role       string `json:"role"`
	IsEducator bool   `json:"isEducator"`
	IsAdmin    bool   `json:"isAdmin"`
	Verified   bool   `json:"verified"`
}

// Session is derived from the last validation; it is never persisted.
type Session struct {
	User            *User
	IsAuthenticated bool
}

// SessionState is the lifecycle position of a SessionManager.
type SessionState int

const (
	StateUnknown SessionState = iota
	StateAuthenticating
	StateAuthenticated
	StateAnonymous
)

func (s SessionState) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// SignupRequest registers a pending account. AsEducator records that the
// caller wants to continue into educator registration after OTP verification.
type SignupRequest struct {
	Name       string
	Email      string
	Password   string
	AsEducator bool
}

// NextStep is what a caller should do after a successful OTP verification.
type NextStep string

const (
	StepLogin                NextStep = "login"
	StepEducatorRegistration NextStep = "educator_registration"
)

// OTPResult is returned by VerifyOTP.
type OTPResult struct {
	NextStep NextStep
	Session  Session
}

// ============================================================================
// Access Types
// ============================================================================

// AccessDecision is the entitlement state for one (user, course) pair.
type AccessDecision struct {
	IsOwner   bool
	HasAccess bool // completed purchase on record
}

// Allowed reports whether protected content may be fetched.
func (d AccessDecision) Allowed() bool {
	return d.IsOwner || d.HasAccess
}

// ============================================================================
// Catalog / Content Types
// ============================================================================

type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category,omitempty"`
	Price       int64     `json:"price"` // minor currency units
	EducatorID  string    `json:"educatorId"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Module struct {
	ID          string `json:"id"`
	CourseID    string `json:"courseId"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Order       int    `json:"order"`
}

type StudyMaterial struct {
	ID       string `json:"id"`
	ModuleID string `json:"moduleId"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Kind     string `json:"kind"` // pdf, link, ...
}

type Class struct {
	ID       string `json:"id"`
	CourseID string `json:"courseId"`
	ModuleID string `json:"moduleId"`
	Title    string `json:"title"`
	VideoURL string `json:"videoUrl"`
	Duration int    `json:"duration"` // seconds
}

type Review struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"courseId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// ============================================================================
// Authoring Types
// ============================================================================

// CourseInput is the editable part of a course. Updates replace every field.
type CourseInput struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	Price       int64  `json:"price"`
	Thumbnail   string `json:"thumbnail,omitempty"`
}

// ModuleInput describes a module. Order 0 appends on create and keeps the
// current position on update.
type ModuleInput struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Order       int    `json:"order,omitempty"`
}

type MaterialInput struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Kind  string `json:"kind,omitempty"`
}

type ClassInput struct {
	Title    string `json:"title"`
	VideoURL string `json:"videoUrl,omitempty"`
	Duration int    `json:"duration,omitempty"`
}

// CreateModuleBody is the wire body of POST /content/createModule.
type CreateModuleBody struct {
	CourseID string `json:"courseId"`
	ModuleInput
}

// UploadMaterialBody is the wire body of POST /content/uploadStudyMaterial.
type UploadMaterialBody struct {
	ModuleID     string        `json:"moduleId"`
	MaterialData MaterialInput `json:"materialData"`
}

// ProfileUpdate holds the mutable profile fields; nil means unchanged.
type ProfileUpdate struct {
	Name  *string `json:"name,omitempty"`
	Phone *string `json:"phone,omitempty"`
	Pfp   *string `json:"pfp,omitempty"`
}

// ============================================================================
// Payment Types
// ============================================================================

// Order is created server side before the payment widget is opened.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	CourseID string `json:"courseId"`
	Key      string `json:"-"` // publishable processor key
}

// PaymentResult is what the payment widget hands back on success.
type PaymentResult struct {
	PaymentID string `json:"paymentId"`
	OrderID   string `json:"orderId"`
	Signature string `json:"signature"`
}

// ============================================================================
// Wire Types (used for JSON unmarshaling)
// ============================================================================

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type authResponse struct {
	envelope
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (r authResponse) pair() TokenPair {
	return TokenPair{AccessToken: r.AccessToken, RefreshToken: r.RefreshToken}
}

type userResponse struct {
	envelope
	User *User `json:"user"`
}

type dataResponse[T any] struct {
	envelope
	Data T `json:"data"`
}

type orderResponse struct {
	envelope
	Order Order  `json:"order"`
	Key   string `json:"key"`
}

func decodeBody(resp *Response, target any) error {
	return json.Unmarshal(resp.Body, target)
}
