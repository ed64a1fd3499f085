// Package domain holds the records the mock backend keeps in memory.
package domain

import "time"

// Roles.
const (
	RoleStudent  = "student"
	RoleEducator = "educator"
	RoleAdmin    = "admin"
)

type User struct {
	ID           string
	Email        string // normalized: lowercased and trimmed
	Name         string
	Phone        string
	Pfp          string
	Role         string
	Bio          string
	Expertise    []string
	PasswordHash string
	OTPSecret    string // TOTP secret used for signup verification codes
	Verified     bool
	CreatedAt    time.Time
}

func (u User) IsEducator() bool { return u.Role == RoleEducator || u.Role == RoleAdmin }
func (u User) IsAdmin() bool    { return u.Role == RoleAdmin }

// RefreshToken is stored by fingerprint only; the raw value is never kept.
type RefreshToken struct {
	Fingerprint string
	UserID      string
	ExpiresAt   time.Time
	Revoked     bool
}

type Course struct {
	ID          string
	Title       string
	Description string
	Category    string
	Price       int64 // minor units
	EducatorID  string
	Thumbnail   string
	CreatedAt   time.Time
}

type Module struct {
	ID          string
	CourseID    string
	Title       string
	Description string
	Order       int
}

type StudyMaterial struct {
	ID       string
	ModuleID string
	Title    string
	URL      string
	Kind     string
}

type Class struct {
	ID       string
	CourseID string
	ModuleID string
	Title    string
	VideoURL string
	Duration int
}

type Review struct {
	ID        string
	CourseID  string
	UserID    string
	UserName  string
	Rating    int
	Comment   string
	CreatedAt time.Time
}

// Order statuses.
const (
	OrderCreated = "created"
	OrderPaid    = "paid"
)

type Order struct {
	ID        string
	CourseID  string
	UserID    string
	Amount    int64
	Currency  string
	Status    string
	CreatedAt time.Time
}

// Purchase is the entitlement recorded once a payment is verified.
type Purchase struct {
	UserID    string
	CourseID  string
	OrderID   string
	PaymentID string
	Revoked   bool
	CreatedAt time.Time
}

type VideoProgress struct {
	UserID    string
	ClassID   string
	Progress  float64
	UpdatedAt time.Time
}
