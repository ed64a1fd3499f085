package learnsdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// TokenStore persists the token pair. Only SessionManager writes to it.
// Reads return "" when the token is absent.
type TokenStore interface {
	SetTokens(ctx context.Context, pair TokenPair) error
	AccessToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (string, error)
	ClearTokens(ctx context.Context) error
}

// MemoryTokenStore keeps the pair in process memory.
type MemoryTokenStore struct {
	mu   sync.RWMutex
	pair TokenPair
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) SetTokens(_ context.Context, pair TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = pair
	return nil
}

func (s *MemoryTokenStore) AccessToken(context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair.AccessToken, nil
}

func (s *MemoryTokenStore) RefreshToken(context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair.RefreshToken, nil
}

func (s *MemoryTokenStore) ClearTokens(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = TokenPair{}
	return nil
}

// Cookie names used by CookieTokenStore.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// cookieEpoch is the expiry written when clearing, which makes jars drop the cookie.
var cookieEpoch = time.Unix(1, 0).UTC()

// CookieTokenStore keeps the pair as two path-scoped cookies in a jar bound
// to the API origin. Sharing the jar with an http.Client sends them along
// the way a browser would.
type CookieTokenStore struct {
	mu  sync.Mutex
	jar http.CookieJar
	u   *url.URL
}

// NewCookieTokenStore scopes the cookies to baseURL.
func NewCookieTokenStore(jar http.CookieJar, baseURL string) (*CookieTokenStore, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse base url: missing host in %q", baseURL)
	}
	return &CookieTokenStore{jar: jar, u: &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}}, nil
}

// Jar exposes the underlying jar, e.g. to install on an http.Client.
func (s *CookieTokenStore) Jar() http.CookieJar { return s.jar }

func (s *CookieTokenStore) SetTokens(_ context.Context, pair TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jar.SetCookies(s.u, []*http.Cookie{
		{Name: AccessTokenCookie, Value: pair.AccessToken, Path: "/"},
		{Name: RefreshTokenCookie, Value: pair.RefreshToken, Path: "/"},
	})
	return nil
}

func (s *CookieTokenStore) AccessToken(context.Context) (string, error) {
	return s.get(AccessTokenCookie), nil
}

func (s *CookieTokenStore) RefreshToken(context.Context) (string, error) {
	return s.get(RefreshTokenCookie), nil
}

func (s *CookieTokenStore) ClearTokens(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jar.SetCookies(s.u, []*http.Cookie{
		{Name: AccessTokenCookie, Path: "/", Expires: cookieEpoch},
		{Name: RefreshTokenCookie, Path: "/", Expires: cookieEpoch},
	})
	return nil
}

func (s *CookieTokenStore) get(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.jar.Cookies(s.u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}
