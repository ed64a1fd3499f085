package learnsdk

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// AccessGate decides whether the current user may fetch a course's protected
// content. Every infrastructure failure resolves to "no access".
type AccessGate struct {
	sm  *SessionManager
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	cache map[accessKey]cachedDecision
}

type accessKey struct {
	userID   string
	courseID string
	gen      uint64
}

type cachedDecision struct {
	decision AccessDecision
	expires  time.Time
}

// NewAccessGate returns a gate backed by sm. Decisions are reused for the
// manager's AccessCacheTTL, roughly one page view.
func NewAccessGate(sm *SessionManager) *AccessGate {
	return &AccessGate{
		sm:    sm,
		ttl:   sm.cfg.AccessCacheTTL,
		now:   time.Now,
		cache: make(map[accessKey]cachedDecision),
	}
}

// CheckOwnership reports whether the signed-in educator authored the course.
// Non-educators are answered locally; educators are always confirmed by the
// backend for this course id.
func (g *AccessGate) CheckOwnership(ctx context.Context, courseID string) (bool, error) {
	sess := g.sm.Current()
	if sess.User == nil || !sess.User.IsEducator {
		return false, nil
	}
	return g.query(ctx, "courses.ownership", courseID, "ownership")
}

// CheckAccess reports whether the user owns or has purchased the course.
func (g *AccessGate) CheckAccess(ctx context.Context, courseID string) (bool, error) {
	d, err := g.Decide(ctx, courseID)
	return d.Allowed(), err
}

// Decide returns the cached decision when fresh, otherwise runs the ownership
// and purchase checks concurrently. On error the zero decision is returned.
func (g *AccessGate) Decide(ctx context.Context, courseID string) (AccessDecision, error) {
	key, cacheable := g.key(courseID)
	if cacheable {
		if d, ok := g.lookup(key); ok {
			return d, nil
		}
	}

	var d AccessDecision
	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		owner, err := g.CheckOwnership(egctx, courseID)
		d.IsOwner = owner
		return err
	})
	eg.Go(func() error {
		purchased, err := g.query(egctx, "courses.access", courseID, "access")
		d.HasAccess = purchased
		return err
	})
	if err := eg.Wait(); err != nil {
		g.sm.metrics.decision(outcomeError)
		g.sm.log.Warn("access check failed, denying", "course_id", courseID, "err", err)
		return AccessDecision{}, err
	}

	switch {
	case d.IsOwner:
		g.sm.metrics.decision(outcomeOwner)
	case d.HasAccess:
		g.sm.metrics.decision(outcomePurchased)
	default:
		g.sm.metrics.decision(outcomeLocked)
	}

	if cacheable {
		g.store(key, d)
	}
	return d, nil
}

// Require returns nil only when protected content may be fetched. A locked
// course yields an error matching ErrForbidden.
func (g *AccessGate) Require(ctx context.Context, courseID string) error {
	d, err := g.Decide(ctx, courseID)
	if err != nil {
		return err
	}
	if !d.Allowed() {
		return &AuthError{Kind: KindForbidden, Op: "access", Message: "course " + courseID + " is locked"}
	}
	return nil
}

// OnPurchaseCompleted drops every cached decision for the course and asks the
// backend again. A payment is never assumed to have granted access.
func (g *AccessGate) OnPurchaseCompleted(ctx context.Context, courseID string) (AccessDecision, error) {
	g.Invalidate(courseID)
	return g.Decide(ctx, courseID)
}

// Invalidate forgets cached decisions for courseID.
func (g *AccessGate) Invalidate(courseID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for k := range g.cache {
		if k.courseID == courseID {
			delete(g.cache, k)
		}
	}
}

func (g *AccessGate) key(courseID string) (accessKey, bool) {
	g.sm.mu.RLock()
	defer g.sm.mu.RUnlock()
	if g.sm.user == nil {
		return accessKey{}, false
	}
	return accessKey{userID: g.sm.user.ID, courseID: courseID, gen: g.sm.gen}, true
}

func (g *AccessGate) lookup(k accessKey) (AccessDecision, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.cache[k]
	if !ok || !g.now().Before(c.expires) {
		return AccessDecision{}, false
	}
	return c.decision, true
}

// store keeps d unless the session moved on while it was computed. Entries
// from older generations and expired ones are evicted on the way.
func (g *AccessGate) store(k accessKey, d AccessDecision) {
	if k.gen < g.sm.generation() {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	for old, c := range g.cache {
		if old.gen < k.gen || !now.Before(c.expires) {
			delete(g.cache, old)
		}
	}
	g.cache[k] = cachedDecision{decision: d, expires: now.Add(g.ttl)}
}

// query calls GET /courses/{id}/{check}. A 403 is a plain "no".
func (g *AccessGate) query(ctx context.Context, op, courseID, check string) (bool, error) {
	var env envelope
	err := g.sm.Do(ctx, &Request{
		Op:     op,
		Method: http.MethodGet,
		Path:   "/courses/" + url.PathEscape(courseID) + "/" + check,
	}, &env)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusForbidden {
			return false, nil
		}
		return false, err
	}
	return env.Success, nil
}
