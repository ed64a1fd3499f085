package learnsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/aussiebroadwan/learnhub/pkg/idx"
	"github.com/aussiebroadwan/learnhub/pkg/slogx"
	"golang.org/x/time/rate"
)

const maxResponseBytes = 4 << 20

// Request is a replayable description of one API call. The pipeline never
// touches a shared *http.Request, so a replay is built from the same values.
type Request struct {
	Op     string // stable, low-cardinality name used in logs, metrics and errors
	Method string
	Path   string
	Query  url.Values
	Body   any // JSON-encoded on every attempt
	Header http.Header

	// Attempt is 0 for the original call and 1 for the single replay.
	Attempt int
	// Anonymous requests never carry an Authorization header.
	Anonymous bool
	// NoRetry disables refresh-and-replay on 401.
	NoRetry bool

	sentToken string
}

func (r *Request) clone() *Request {
	c := *r
	c.Header = r.Header.Clone()
	return &c
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Doer executes a Request.
type Doer interface {
	Do(ctx context.Context, r *Request) (*Response, error)
}

type DoerFunc func(ctx context.Context, r *Request) (*Response, error)

func (f DoerFunc) Do(ctx context.Context, r *Request) (*Response, error) { return f(ctx, r) }

// Middleware wraps a Doer.
type Middleware func(next Doer) Doer

// chain applies mws so the first one listed runs first.
func chain(final Doer, mws ...Middleware) Doer {
	for i := len(mws) - 1; i >= 0; i-- {
		final = mws[i](final)
	}
	return final
}

// ============================================================================
// Transport
// ============================================================================

type transport struct {
	baseURL string
	client  *http.Client
}

func (t *transport) Do(ctx context.Context, r *Request) (*Response, error) {
	var body io.Reader
	if r.Body != nil {
		b, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	u := t.baseURL + r.Path
	if len(r.Query) > 0 {
		u += "?" + r.Query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range r.Header {
		req.Header[k] = append([]string(nil), vs...)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &AuthError{Kind: KindNetwork, Op: r.Op, Err: err}
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &AuthError{Kind: KindNetwork, Op: r.Op, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: b}, nil
}

// ============================================================================
// Ambient middlewares
// ============================================================================

func requestIDMiddleware(next Doer) Doer {
	return DoerFunc(func(ctx context.Context, r *Request) (*Response, error) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = slogx.RequestID(ctx)
		}
		if id == "" {
			id = idx.New().String()
		}
		r.Header.Set("X-Request-ID", id)
		return next.Do(slogx.WithRequestID(ctx, id), r)
	})
}

// loggingMiddleware logs one line per logical call. Tokens are never logged.
func loggingMiddleware(base *slog.Logger) Middleware {
	return func(next Doer) Doer {
		return DoerFunc(func(ctx context.Context, r *Request) (*Response, error) {
			start := time.Now()
			log := base.With("req_id", slogx.RequestID(ctx))

			resp, err := next.Do(ctx, r)

			attrs := []any{
				"op", r.Op,
				"method", r.Method,
				"path", r.Path,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if err != nil {
				log.Warn("api call failed", append(attrs, "err", err)...)
				return resp, err
			}
			log.Debug("api call", append(attrs, "status", resp.StatusCode)...)
			return resp, nil
		})
	}
}

func metricsMiddleware(m *Metrics) Middleware {
	return func(next Doer) Doer {
		if m == nil {
			return next
		}
		return DoerFunc(func(ctx context.Context, r *Request) (*Response, error) {
			start := time.Now()
			resp, err := next.Do(ctx, r)
			status := 0
			if resp != nil {
				status = resp.StatusCode
			}
			m.observeRequest(r.Op, status, time.Since(start))
			return resp, err
		})
	}
}

func throttleMiddleware(l *rate.Limiter) Middleware {
	return func(next Doer) Doer {
		if l == nil {
			return next
		}
		return DoerFunc(func(ctx context.Context, r *Request) (*Response, error) {
			if err := l.Wait(ctx); err != nil {
				return nil, fmt.Errorf("throttle %s: %w", r.Op, err)
			}
			return next.Do(ctx, r)
		})
	}
}
