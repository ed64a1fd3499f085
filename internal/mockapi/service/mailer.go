package service

import (
	"context"
	"log/slog"
	"sync"
)

// Mailer delivers one-time codes. The mock never sends real mail.
type Mailer interface {
	SendOTP(ctx context.Context, email, code string) error
}

// LogMailer writes codes to the log, which is how a developer running the
// binary reads them.
type LogMailer struct {
	Logger *slog.Logger
}

func (m LogMailer) SendOTP(_ context.Context, email, code string) error {
	m.Logger.Info("otp issued", "email", email, "code", code)
	return nil
}

// CaptureMailer remembers the last code sent to each address.
type CaptureMailer struct {
	mu    sync.Mutex
	codes map[string]string
}

func NewCaptureMailer() *CaptureMailer {
	return &CaptureMailer{codes: make(map[string]string)}
}

func (m *CaptureMailer) SendOTP(_ context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[email] = code
	return nil
}

// LastCode returns the most recent code for email, or "".
func (m *CaptureMailer) LastCode(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[email]
}
