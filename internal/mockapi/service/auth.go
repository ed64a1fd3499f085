package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/aussiebroadwan/learnhub/internal/mockapi/domain"
	"github.com/aussiebroadwan/learnhub/internal/mockapi/store"
	"github.com/aussiebroadwan/learnhub/pkg/cryptox"
	"github.com/aussiebroadwan/learnhub/pkg/idx"
	"github.com/aussiebroadwan/learnhub/pkg/slogx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const minPasswordLength = 8

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrNotVerified        = errors.New("account_not_verified")
	ErrInvalidOTP         = errors.New("invalid_otp")
	ErrAccountExists      = errors.New("account_exists")
)

// ValidationError is a user-facing input problem.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Message }

// otpOpts widens the TOTP period so an emailed code stays usable for a few
// minutes.
var otpOpts = totp.ValidateOpts{
	Period:    300,
	Skew:      1,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

type AuthService struct {
	Store  *store.Memory
	Tokens *TokenService
	Hasher cryptox.PasswordHasher
	Mailer Mailer
	Issuer string
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates an unverified account and mails a verification code. Signing
// up again before verifying resends the code.
func (s *AuthService) Signup(ctx context.Context, name, email, password string) error {
	l := slogx.FromContext(ctx)

	email = NormalizeEmail(email)
	name = strings.TrimSpace(name)
	if _, err := mail.ParseAddress(email); err != nil {
		return &ValidationError{Field: "email", Message: "must be a valid email address"}
	}
	if name == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if len(password) < minPasswordLength {
		return &ValidationError{Field: "password", Message: fmt.Sprintf("must be at least %d characters", minPasswordLength)}
	}

	if existing, err := s.Store.GetUserByEmail(ctx, email); err == nil {
		if existing.Verified {
			return ErrAccountExists
		}
		return s.sendCode(ctx, existing)
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: email,
		Period:      uint(otpOpts.Period),
		Digits:      otpOpts.Digits,
		Algorithm:   otpOpts.Algorithm,
	})
	if err != nil {
		return fmt.Errorf("generate otp secret: %w", err)
	}

	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		Name:         name,
		Role:         domain.RoleStudent,
		PasswordHash: hash,
		OTPSecret:    key.Secret(),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.Store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return ErrAccountExists
		}
		return err
	}

	l.Info("signup pending verification", slog.String("user_id", u.ID))
	return s.sendCode(ctx, u)
}

func (s *AuthService) sendCode(ctx context.Context, u domain.User) error {
	code, err := totp.GenerateCodeCustom(u.OTPSecret, time.Now(), otpOpts)
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	return s.Mailer.SendOTP(ctx, u.Email, code)
}

// VerifyOTP marks the account verified and signs it in.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (TokenPair, error) {
	u, err := s.Store.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return TokenPair{}, ErrInvalidOTP
	}
	ok, err := totp.ValidateCustom(strings.TrimSpace(code), u.OTPSecret, time.Now(), otpOpts)
	if err != nil || !ok {
		return TokenPair{}, ErrInvalidOTP
	}

	u, err = s.Store.UpdateUser(ctx, u.ID, func(u *domain.User) { u.Verified = true })
	if err != nil {
		return TokenPair{}, err
	}
	return s.Tokens.IssuePair(ctx, u)
}

// Login checks credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (TokenPair, error) {
	l := slogx.FromContext(ctx)

	u, err := s.Store.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return TokenPair{}, ErrInvalidCredentials
	}
	if err := s.Hasher.Verify(password, u.PasswordHash); err != nil {
		l.Info("login rejected", slog.String("user_id", u.ID))
		return TokenPair{}, ErrInvalidCredentials
	}
	if !u.Verified {
		return TokenPair{}, ErrNotVerified
	}
	return s.Tokens.IssuePair(ctx, u)
}

func (s *AuthService) Refresh(ctx context.Context, refresh string) (TokenPair, error) {
	return s.Tokens.Rotate(ctx, refresh)
}

func (s *AuthService) Logout(ctx context.Context, refresh string) {
	s.Tokens.Revoke(ctx, refresh)
}

// RegisterEducator upgrades a student account.
func (s *AuthService) RegisterEducator(ctx context.Context, userID, bio string, expertise []string) (domain.User, error) {
	return s.Store.UpdateUser(ctx, userID, func(u *domain.User) {
		if u.Role == domain.RoleStudent {
			u.Role = domain.RoleEducator
		}
		u.Bio = strings.TrimSpace(bio)
		u.Expertise = expertise
	})
}

// ProfileUpdate mirrors the editable profile fields; nil leaves a field alone.
type ProfileUpdate struct {
	Name  *string
	Phone *string
	Pfp   *string
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (domain.User, error) {
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return domain.User{}, &ValidationError{Field: "name", Message: "cannot be empty"}
	}
	return s.Store.UpdateUser(ctx, userID, func(u *domain.User) {
		if upd.Name != nil {
			u.Name = strings.TrimSpace(*upd.Name)
		}
		if upd.Phone != nil {
			u.Phone = strings.TrimSpace(*upd.Phone)
		}
		if upd.Pfp != nil {
			u.Pfp = strings.TrimSpace(*upd.Pfp)
		}
	})
}
