package learnsdk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// SessionManager is the single source of truth for whether a usable session
// exists. It owns the token store and a dedicated HTTP pipeline; every other
// client in this package sends through it.
type SessionManager struct {
	cfg      Config
	store    TokenStore
	flags    FlagStore
	log      *slog.Logger
	metrics  *Metrics
	pipeline Doer
	refresh  singleflight.Group

	mu    sync.RWMutex
	state SessionState
	user  *User
	// gen advances on every login, logout and expiry. Work that started under
	// an older generation must not write tokens or session state.
	gen uint64
}

// NewSessionManager builds a manager with its own middleware pipeline:
// request id, logging, metrics, throttle, refresh-retry, bearer, transport.
func NewSessionManager(cfg Config) (*SessionManager, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("learnsdk: BaseURL is required")
	}
	cfg = cfg.withDefaults()

	m := &SessionManager{
		cfg:     cfg,
		store:   cfg.Store,
		flags:   cfg.Flags,
		log:     cfg.Logger,
		metrics: cfg.Metrics,
		state:   StateUnknown,
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(cfg.RateLimit, cfg.Burst)
	}

	m.pipeline = chain(
		&transport{baseURL: cfg.BaseURL, client: cfg.HTTPClient},
		requestIDMiddleware,
		loggingMiddleware(m.log),
		metricsMiddleware(m.metrics),
		throttleMiddleware(limiter),
		m.refreshRetryMiddleware,
		m.bearerMiddleware,
	)
	return m, nil
}

// ============================================================================
// Session state
// ============================================================================

// State returns the current lifecycle state.
func (m *SessionManager) State() SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Current returns the last validated session without calling the backend.
func (m *SessionManager) Current() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessionLocked()
}

func (m *SessionManager) sessionLocked() Session {
	if m.user == nil {
		return Session{}
	}
	u := *m.user
	return Session{User: &u, IsAuthenticated: m.state == StateAuthenticated}
}

func (m *SessionManager) generation() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gen
}

func (m *SessionManager) beginAuthenticating() SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.state
	m.state = StateAuthenticating
	return prev
}

func (m *SessionManager) restoreState(prev SessionState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateAuthenticating {
		m.state = prev
	}
}

// settle records the outcome of a validation started under gen.
func (m *SessionManager) settle(gen uint64, u *User) Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return m.sessionLocked()
	}
	m.user = u
	if u != nil {
		m.state = StateAuthenticated
	} else {
		m.state = StateAnonymous
	}
	return m.sessionLocked()
}

// installTokens starts a new generation holding pair.
func (m *SessionManager) installTokens(ctx context.Context, pair TokenPair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	m.user = nil
	if err := m.store.SetTokens(ctx, pair); err != nil {
		return fmt.Errorf("store tokens: %w", err)
	}
	return nil
}

// reset ends the current generation and clears local state.
func (m *SessionManager) reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	m.user = nil
	m.state = StateAnonymous
	if err := m.store.ClearTokens(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("clear tokens: %w", err)
	}
	return nil
}

// expire tears the session down after an irrecoverable refresh failure. It is
// a no-op if gen is no longer current, so one failure fires the hook once, and
// the hook only fires on a transition into StateAnonymous.
func (m *SessionManager) expire(ctx context.Context, gen uint64, reason string) {
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return
	}
	wasAnonymous := m.state == StateAnonymous
	m.gen++
	m.user = nil
	m.state = StateAnonymous
	err := m.store.ClearTokens(context.WithoutCancel(ctx))
	m.mu.Unlock()

	if err != nil {
		m.log.Error("failed to clear tokens on session expiry", "err", err)
	}
	if wasAnonymous {
		return
	}
	m.log.Info("session expired", "reason", reason)
	if m.cfg.OnSessionExpired != nil {
		m.cfg.OnSessionExpired()
	}
}

// ============================================================================
// Operations
// ============================================================================

// Init resolves StateUnknown from whatever tokens are already stored.
// No tokens means anonymous; a refresh token alone is exchanged first.
func (m *SessionManager) Init(ctx context.Context) (Session, error) {
	at, err := m.store.AccessToken(ctx)
	if err != nil {
		return Session{}, fmt.Errorf("read access token: %w", err)
	}
	rt, err := m.store.RefreshToken(ctx)
	if err != nil {
		return Session{}, fmt.Errorf("read refresh token: %w", err)
	}

	if at == "" && rt == "" {
		return m.settle(m.generation(), nil), nil
	}

	prev := m.beginAuthenticating()
	if at == "" {
		if _, err := m.Refresh(ctx); err != nil {
			if errors.Is(err, ErrSessionExpired) {
				return m.Current(), nil
			}
			m.restoreState(prev)
			return Session{}, err
		}
	}

	sess, err := m.ValidateSession(ctx)
	if err != nil {
		m.restoreState(prev)
		return Session{}, err
	}
	return sess, nil
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a token pair and validates the new session.
func (m *SessionManager) Login(ctx context.Context, email, password string) (Session, error) {
	prev := m.beginAuthenticating()

	ar, err := m.exchange(ctx, "login", "/auth/login", credentials{Email: email, Password: password})
	if err != nil {
		m.restoreState(prev)
		return Session{}, err
	}
	if !ar.pair().Complete() {
		m.restoreState(prev)
		return Session{}, &AuthError{Kind: KindUnexpected, Op: "login", Message: "response carried no token pair"}
	}
	if err := m.installTokens(ctx, ar.pair()); err != nil {
		m.restoreState(prev)
		return Session{}, err
	}

	m.log.Info("logged in", "email", normalizeEmail(email))
	sess, err := m.ValidateSession(ctx)
	if err != nil {
		// Tokens are installed but the session could not be confirmed.
		m.restoreState(StateUnknown)
		return Session{}, err
	}
	return sess, nil
}

type signupBody struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup registers a pending account. No session is established until the
// emailed OTP is verified.
func (m *SessionManager) Signup(ctx context.Context, req SignupRequest) error {
	var env envelope
	err := m.Do(ctx, &Request{
		Op:        "signup",
		Method:    http.MethodPost,
		Path:      "/auth/signup",
		Body:      signupBody{Name: req.Name, Email: req.Email, Password: req.Password},
		Anonymous: true,
		NoRetry:   true,
	}, &env)
	if err != nil {
		return err
	}
	if !env.Success {
		return &APIError{Op: "signup", StatusCode: http.StatusOK, Message: env.Message}
	}

	if req.AsEducator {
		if err := m.flags.SetFlag(ctx, pendingEducatorKey(req.Email)); err != nil {
			return fmt.Errorf("record pending educator registration: %w", err)
		}
	}
	return nil
}

type otpBody struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// VerifyOTP completes a pending registration. Any returned token pair is
// installed, and NextStep says whether educator registration should follow.
func (m *SessionManager) VerifyOTP(ctx context.Context, email, code string) (OTPResult, error) {
	prev := m.beginAuthenticating()

	ar, err := m.exchange(ctx, "otp.verify", "/otp/verify", otpBody{Email: email, OTP: code})
	if err != nil {
		m.restoreState(prev)
		return OTPResult{}, err
	}

	var sess Session
	if ar.pair().Complete() {
		if err := m.installTokens(ctx, ar.pair()); err != nil {
			m.restoreState(prev)
			return OTPResult{}, err
		}
		if sess, err = m.ValidateSession(ctx); err != nil {
			m.restoreState(StateUnknown)
			return OTPResult{}, err
		}
	} else {
		m.restoreState(prev)
	}

	pending, err := m.flags.ConsumeFlag(ctx, pendingEducatorKey(email))
	if err != nil {
		return OTPResult{}, fmt.Errorf("read pending educator registration: %w", err)
	}

	step := StepLogin
	if pending {
		step = StepEducatorRegistration
	}
	return OTPResult{NextStep: step, Session: sess}, nil
}

// ValidateSession asks the backend who the current access token belongs to.
// An authentication failure is a normal outcome and yields an empty Session.
func (m *SessionManager) ValidateSession(ctx context.Context) (Session, error) {
	gen := m.generation()

	var ur userResponse
	err := m.Do(ctx, &Request{Op: "validate", Method: http.MethodGet, Path: "/auth/validate"}, &ur)
	switch {
	case errors.Is(err, ErrSessionExpired):
		return m.settle(gen, nil), nil
	case err != nil:
		return Session{}, err
	case !ur.Success || ur.User == nil:
		return m.settle(gen, nil), nil
	}
	return m.settle(gen, ur.User), nil
}

// Profile fetches the full profile of the signed-in user.
func (m *SessionManager) Profile(ctx context.Context) (*User, error) {
	var ur userResponse
	if err := m.Do(ctx, &Request{Op: "profile", Method: http.MethodGet, Path: "/auth/profile"}, &ur); err != nil {
		return nil, err
	}
	if !ur.Success || ur.User == nil {
		return nil, &AuthError{Kind: KindUnexpected, Op: "profile", Message: ur.Message}
	}
	return ur.User, nil
}

type logoutBody struct {
	RefreshToken string `json:"refreshToken"`
}

// Logout revokes the refresh token server side when possible, then always
// clears local state.
func (m *SessionManager) Logout(ctx context.Context) error {
	rt, err := m.store.RefreshToken(ctx)
	if err != nil {
		m.log.Warn("read refresh token for logout", "err", err)
	}
	if rt != "" {
		err := m.Do(ctx, &Request{
			Op:        "logout",
			Method:    http.MethodPost,
			Path:      "/auth/logout",
			Body:      logoutBody{RefreshToken: rt},
			Anonymous: true,
			NoRetry:   true,
		}, nil)
		if err != nil {
			m.log.Warn("server logout failed, clearing local session anyway", "err", err)
		}
	}
	return m.reset(ctx)
}

// Do sends r through the pipeline and decodes a 2xx JSON body into out when
// out is non-nil. Non-2xx responses become *APIError; an unrecoverable 401
// becomes an *AuthError of KindSessionExpired.
func (m *SessionManager) Do(ctx context.Context, r *Request, out any) error {
	resp, err := m.send(ctx, r)
	if err != nil {
		return err
	}
	if !resp.OK() {
		if resp.StatusCode == http.StatusUnauthorized && !r.Anonymous {
			return &AuthError{Kind: KindSessionExpired, Op: r.Op, StatusCode: resp.StatusCode, Message: messageOf(resp)}
		}
		return parseErrorResponse(r.Op, resp)
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := decodeBody(resp, out); err != nil {
		return &AuthError{
			Kind:       KindUnexpected,
			Op:         r.Op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("failed to decode response: %w", err),
		}
	}
	return nil
}

func (m *SessionManager) send(ctx context.Context, r *Request) (*Response, error) {
	if r.Header == nil {
		r.Header = make(http.Header)
	}
	return m.pipeline.Do(ctx, r)
}

// exchange posts credentials to an anonymous endpoint that answers with a
// token pair. Rejections map to KindInvalidCredentials.
func (m *SessionManager) exchange(ctx context.Context, op, path string, body any) (authResponse, error) {
	resp, err := m.send(ctx, &Request{
		Op:        op,
		Method:    http.MethodPost,
		Path:      path,
		Body:      body,
		Anonymous: true,
		NoRetry:   true,
	})
	if err != nil {
		return authResponse{}, err
	}

	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		return authResponse{}, &AuthError{Kind: KindInvalidCredentials, Op: op, StatusCode: resp.StatusCode, Message: messageOf(resp)}
	}
	if !resp.OK() {
		return authResponse{}, parseErrorResponse(op, resp)
	}

	var ar authResponse
	if err := decodeBody(resp, &ar); err != nil {
		return authResponse{}, &AuthError{Kind: KindUnexpected, Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if !ar.Success {
		return authResponse{}, &AuthError{Kind: KindInvalidCredentials, Op: op, StatusCode: resp.StatusCode, Message: ar.Message}
	}
	return ar, nil
}
