// Package mockapitest runs the mock API on an httptest server and exposes the
// knobs tests need: seeding, reading OTP codes, forcing token expiry, failure
// injection and per-endpoint hit counters.
package mockapitest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/learnhub/internal/mockapi/app"
	"github.com/aussiebroadwan/learnhub/internal/mockapi/domain"
	"github.com/aussiebroadwan/learnhub/internal/mockapi/service"
	"github.com/aussiebroadwan/learnhub/pkg/idx"
	"github.com/aussiebroadwan/learnhub/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

// Password is used for every account created through the fixture.
const Password = "correct-horse-battery"

type Server struct {
	*httptest.Server

	Backend *app.Backend
	Mailer  *service.CaptureMailer

	mu        sync.Mutex
	overrides map[string]http.Handler
}

type Option func(*app.Config)

// WithAccessTTL shortens access token lifetime.
func WithAccessTTL(d time.Duration) Option {
	return func(c *app.Config) { c.AccessTTL = d }
}

// New starts a server that is closed when tb finishes.
func New(tb testing.TB, opts ...Option) *Server {
	tb.Helper()

	cfg := app.Config{
		PaymentKeyID: "rzp_test_fixture",
		Currency:     "INR",
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Server{
		Mailer:    service.NewCaptureMailer(),
		overrides: make(map[string]http.Handler),
	}
	s.Backend = app.NewBackend(cfg, slogx.Discard(), s.Mailer)
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	tb.Cleanup(s.Close)
	return s
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	h, ok := s.overrides[r.Method+" "+r.URL.Path]
	s.mu.Unlock()
	if ok {
		h.ServeHTTP(w, r)
		return
	}
	s.Backend.Router.ServeHTTP(w, r)
}

// Override answers method+path with h instead of the mock API until the test
// ends. Overridden requests are not counted by Hits unless h hands them to
// the Backend router.
func (s *Server) Override(tb testing.TB, method, path string, h http.HandlerFunc) {
	tb.Helper()
	key := method + " " + path
	s.mu.Lock()
	s.overrides[key] = h
	s.mu.Unlock()
	tb.Cleanup(func() {
		s.mu.Lock()
		delete(s.overrides, key)
		s.mu.Unlock()
	})
}

// ============================================================================
// Seeding
// ============================================================================

// CreateUser adds a verified account with the fixture Password.
func (s *Server) CreateUser(tb testing.TB, email, role string) domain.User {
	tb.Helper()
	hash, err := s.Backend.Auth.Hasher.Hash(Password)
	require.NoError(tb, err)

	u := domain.User{
		ID:           idx.New().String(),
		Email:        service.NormalizeEmail(email),
		Name:         email,
		Role:         role,
		PasswordHash: hash,
		Verified:     true,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(tb, s.Backend.Store.CreateUser(context.Background(), u))
	return u
}

// CreateCourse adds a course authored by educatorID with the given number of
// modules, each holding one material and one class.
func (s *Server) CreateCourse(tb testing.TB, educatorID string, price int64, modules int) domain.Course {
	tb.Helper()
	ctx := context.Background()

	c := domain.Course{
		ID:         idx.NewPrefixed("course").String(),
		Title:      "Course by " + educatorID,
		Category:   "testing",
		Price:      price,
		EducatorID: educatorID,
		CreatedAt:  time.Now().UTC(),
	}
	s.Backend.Store.PutCourse(ctx, c)

	for i := range modules {
		m := domain.Module{ID: idx.NewPrefixed("mod").String(), CourseID: c.ID, Title: "Module", Order: i + 1}
		s.Backend.Store.PutModule(ctx, m)
		s.Backend.Store.PutMaterial(ctx, domain.StudyMaterial{ID: idx.NewPrefixed("mat").String(), ModuleID: m.ID, Title: "Notes", Kind: "pdf"})
		s.Backend.Store.PutClass(ctx, domain.Class{ID: idx.NewPrefixed("class").String(), CourseID: c.ID, ModuleID: m.ID, Title: "Lecture"})
	}
	return c
}

// Modules returns the stored modules of a course.
func (s *Server) Modules(courseID string) []domain.Module {
	return s.Backend.Store.ModulesByCourse(context.Background(), courseID)
}

// Classes returns the stored classes of a course.
func (s *Server) Classes(courseID string) []domain.Class {
	return s.Backend.Store.ClassesByCourse(context.Background(), courseID)
}

// GrantPurchase records an entitlement without going through payment.
func (s *Server) GrantPurchase(userID, courseID string) {
	s.Backend.Store.PutPurchase(context.Background(), domain.Purchase{
		UserID:    userID,
		CourseID:  courseID,
		OrderID:   idx.NewPrefixed("order").String(),
		CreatedAt: time.Now().UTC(),
	})
}

// HasPurchase reports the backend's view of an entitlement.
func (s *Server) HasPurchase(userID, courseID string) bool {
	return s.Backend.Store.HasPurchase(context.Background(), userID, courseID)
}

// User reloads an account by id.
func (s *Server) User(tb testing.TB, id string) domain.User {
	tb.Helper()
	u, err := s.Backend.Store.GetUserByID(context.Background(), id)
	require.NoError(tb, err)
	return u
}

// ============================================================================
// Control
// ============================================================================

// OTP returns the last verification code mailed to email.
func (s *Server) OTP(email string) string {
	return s.Mailer.LastCode(service.NormalizeEmail(email))
}

// ExpireAccessTokens makes every access token issued so far fail with 401.
func (s *Server) ExpireAccessTokens() {
	s.Backend.Tokens.ExpireAccessTokens()
}

// RevokeRefreshTokens makes every outstanding refresh token unusable.
func (s *Server) RevokeRefreshTokens() {
	s.Backend.Store.RevokeAllRefreshTokens(context.Background())
}

// Sign produces a valid gateway signature for a sandbox payment.
func (s *Server) Sign(orderID, paymentID string) string {
	return service.Sign(s.Backend.Payments.Secret, orderID, paymentID)
}

// Hits returns how many requests reached method and path.
func (s *Server) Hits(method, path string) int {
	return s.count(method, path, "true") + s.count(method, path, "false")
}

// AuthHeaders returns how many of those carried an Authorization header.
func (s *Server) AuthHeaders(method, path string) int {
	return s.count(method, path, "true")
}

func (s *Server) ResetStats() {
	s.Backend.Router.Metrics.Requests.Reset()
}

func (s *Server) count(method, path, auth string) int {
	return int(testutil.ToFloat64(s.Backend.Router.Metrics.Requests.WithLabelValues(method, path, auth)))
}
