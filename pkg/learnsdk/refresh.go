package learnsdk

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
)

type refreshBody struct {
	Token string `json:"token"`
}

// Refresh exchanges the stored refresh token for a new pair. On any failure
// the local session is cleared before the error is returned.
func (m *SessionManager) Refresh(ctx context.Context) (TokenPair, error) {
	return m.coalescedRefresh(ctx, "", true)
}

// coalescedRefresh shares one in-flight exchange between every caller of the
// same generation. Unless force is set, the exchange is skipped when the
// stored access token already differs from stale.
func (m *SessionManager) coalescedRefresh(ctx context.Context, stale string, force bool) (TokenPair, error) {
	gen := m.generation()
	ch := m.refresh.DoChan(strconv.FormatUint(gen, 10), func() (any, error) {
		// Callers may give up; the shared exchange still finishes.
		return m.exchangeRefresh(context.WithoutCancel(ctx), gen, stale, force)
	})

	select {
	case <-ctx.Done():
		return TokenPair{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return TokenPair{}, res.Err
		}
		return res.Val.(TokenPair), nil
	}
}

func (m *SessionManager) exchangeRefresh(ctx context.Context, gen uint64, stale string, force bool) (TokenPair, error) {
	if !force {
		at, err := m.store.AccessToken(ctx)
		if err == nil && at != "" && at != stale {
			rt, err := m.store.RefreshToken(ctx)
			if err != nil {
				return m.failRefresh(ctx, gen, &AuthError{Kind: KindUnexpected, Op: "refresh", Err: fmt.Errorf("read refresh token: %w", err)})
			}
			m.metrics.refresh(refreshReused)
			return TokenPair{AccessToken: at, RefreshToken: rt}, nil
		}
	}

	rt, err := m.store.RefreshToken(ctx)
	if err != nil {
		return m.failRefresh(ctx, gen, &AuthError{Kind: KindUnexpected, Op: "refresh", Err: fmt.Errorf("read refresh token: %w", err)})
	}
	if rt == "" {
		return m.failRefresh(ctx, gen, &AuthError{Kind: KindSessionExpired, Op: "refresh", Message: "no refresh token"})
	}

	resp, err := m.send(ctx, &Request{
		Op:        "refresh",
		Method:    http.MethodPost,
		Path:      "/auth/refreshtoken",
		Body:      refreshBody{Token: rt},
		Anonymous: true,
		NoRetry:   true,
	})
	if err != nil {
		return m.failRefresh(ctx, gen, err)
	}
	if !resp.OK() {
		kind := KindSessionExpired
		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			kind = KindUnexpected
		}
		return m.failRefresh(ctx, gen, &AuthError{Kind: kind, Op: "refresh", StatusCode: resp.StatusCode, Message: messageOf(resp)})
	}

	var ar authResponse
	if err := decodeBody(resp, &ar); err != nil {
		return m.failRefresh(ctx, gen, &AuthError{Kind: KindUnexpected, Op: "refresh", StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)})
	}
	if !ar.Success || !ar.pair().Complete() {
		return m.failRefresh(ctx, gen, &AuthError{Kind: KindSessionExpired, Op: "refresh", StatusCode: resp.StatusCode, Message: ar.Message})
	}

	pair := ar.pair()
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		m.metrics.refresh(refreshFailure)
		m.log.Debug("discarding refresh result from superseded session")
		return TokenPair{}, &AuthError{Kind: KindSessionExpired, Op: "refresh", Message: "session changed during refresh"}
	}
	err = m.store.SetTokens(ctx, pair)
	m.mu.Unlock()
	if err != nil {
		return m.failRefresh(ctx, gen, &AuthError{Kind: KindUnexpected, Op: "refresh", Err: fmt.Errorf("store tokens: %w", err)})
	}

	m.metrics.refresh(refreshSuccess)
	m.log.Debug("access token refreshed")
	return pair, nil
}

func (m *SessionManager) failRefresh(ctx context.Context, gen uint64, err error) (TokenPair, error) {
	m.metrics.refresh(refreshFailure)
	m.expire(ctx, gen, err.Error())
	return TokenPair{}, err
}

// bearerMiddleware attaches the current access token unless the request is
// anonymous, in which case any Authorization header is stripped.
func (m *SessionManager) bearerMiddleware(next Doer) Doer {
	return DoerFunc(func(ctx context.Context, r *Request) (*Response, error) {
		r.Header.Del("Authorization")
		r.sentToken = ""
		if !r.Anonymous {
			tok, err := m.store.AccessToken(ctx)
			if err != nil {
				return nil, fmt.Errorf("read access token: %w", err)
			}
			if tok != "" {
				r.Header.Set("Authorization", "Bearer "+tok)
				r.sentToken = tok
			}
		}
		return next.Do(ctx, r)
	})
}

// refreshRetryMiddleware replays a request at most once after a 401. A 401 on
// the replay, or a failed refresh, ends the session.
func (m *SessionManager) refreshRetryMiddleware(next Doer) Doer {
	return DoerFunc(func(ctx context.Context, r *Request) (*Response, error) {
		resp, err := next.Do(ctx, r)
		if err != nil || resp.StatusCode != http.StatusUnauthorized || r.Anonymous || r.NoRetry {
			return resp, err
		}
		if r.Attempt > 0 {
			return nil, m.rejectReplay(ctx, m.generation(), r, resp)
		}

		if _, err := m.coalescedRefresh(ctx, r.sentToken, false); err != nil {
			return nil, err
		}

		gen := m.generation()
		replay := r.clone()
		replay.Attempt = 1
		m.metrics.replay()
		m.log.Debug("replaying request after refresh", "op", r.Op)

		resp, err = next.Do(ctx, replay)
		if err != nil || resp.StatusCode != http.StatusUnauthorized {
			return resp, err
		}
		return nil, m.rejectReplay(ctx, gen, replay, resp)
	})
}

func (m *SessionManager) rejectReplay(ctx context.Context, gen uint64, r *Request, resp *Response) error {
	m.expire(ctx, gen, "replayed request rejected")
	return &AuthError{Kind: KindSessionExpired, Op: r.Op, StatusCode: resp.StatusCode, Message: messageOf(resp)}
}
