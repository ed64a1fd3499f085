package learnsdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// ============================================================================
// AuthError - session and credential failures
// ============================================================================

// Kind classifies an AuthError.
type Kind int

const (
	// KindUnexpected covers malformed responses and anything unclassified.
	KindUnexpected Kind = iota
	// KindInvalidCredentials means a login or OTP exchange was rejected. Not retried.
	KindInvalidCredentials
	// KindSessionExpired means the refresh token is missing or rejected, or a
	// replayed request was rejected again. Local tokens are already cleared.
	KindSessionExpired
	// KindForbidden means the caller is authenticated but not entitled.
	KindForbidden
	// KindNetwork is a transport failure. Safe to retry by the caller.
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindSessionExpired:
		return "session_expired"
	case KindForbidden:
		return "forbidden"
	case KindNetwork:
		return "network_error"
	default:
		return "unexpected"
	}
}

// AuthError is the typed failure returned by SessionManager and AccessGate.
type AuthError struct {
	Kind       Kind
	Op         string // e.g. "login", "refresh", "GET /courses/all"
	StatusCode int    // 0 when no response was received
	Message    string
	Err        error
}

func (e *AuthError) Error() string {
	var b strings.Builder
	b.WriteString("learnsdk")
	if e.Op != "" {
		b.WriteString(": " + e.Op)
	}
	b.WriteString(": " + e.Kind.String())
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is matches any *AuthError of the same Kind, so the sentinels below work
// with errors.Is regardless of Op or status.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidCredentials = &AuthError{Kind: KindInvalidCredentials}
	ErrSessionExpired     = &AuthError{Kind: KindSessionExpired}
	ErrForbidden          = &AuthError{Kind: KindForbidden}
	ErrNetwork            = &AuthError{Kind: KindNetwork}
)

// ============================================================================
// APIError - non-auth HTTP failures
// ============================================================================

// APIError is a non-2xx response that is not part of the session lifecycle.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("learnsdk: %s: HTTP %d: %s", e.Op, e.StatusCode, e.Message)
}

// Is lets a 403 satisfy errors.Is(err, ErrForbidden).
func (e *APIError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Kind == KindForbidden && e.StatusCode == http.StatusForbidden
}

// parseErrorResponse builds an APIError from a {success:false, message} body,
// falling back to the status text.
func parseErrorResponse(op string, resp *Response) *APIError {
	var env envelope
	if err := json.Unmarshal(resp.Body, &env); err == nil && env.Message != "" {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Message: env.Message}
	}
	return &APIError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Message:    http.StatusText(resp.StatusCode),
	}
}

// messageOf returns the server-supplied message in an error body, or "".
func messageOf(resp *Response) string {
	var env envelope
	if json.Unmarshal(resp.Body, &env) == nil {
		return env.Message
	}
	return ""
}
