package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/aussiebroadwan/learnhub/internal/mockapi/domain"
	"github.com/aussiebroadwan/learnhub/internal/mockapi/store"
	"github.com/aussiebroadwan/learnhub/pkg/cryptox"
	"github.com/aussiebroadwan/learnhub/pkg/httpx"
	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

var (
	ErrInvalidRefresh = errors.New("invalid_refresh_token")
	ErrInvalidToken   = errors.New("invalid_token")
)

// TokenPair is what the auth endpoints hand back.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// accessClaims are the claims carried by access tokens. Epoch lets the
// service invalidate every outstanding access token at once.
type accessClaims struct {
	jwt.RegisteredClaims

	Epoch int64 `json:"epoch"`
}

// TokenService issues HS256 access tokens and opaque, rotating refresh tokens.
type TokenService struct {
	Store      *store.Memory
	Secret     []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	epoch atomic.Int64
}

// IssuePair mints a fresh access/refresh pair for u.
func (s *TokenService) IssuePair(ctx context.Context, u domain.User) (TokenPair, error) {
	now := time.Now()

	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.Issuer,
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.AccessTTL)),
			ID:        cryptox.MustGenerateToken(cryptox.TokenSize128),
		},
		Epoch: s.epoch.Load(),
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.Store.CreateRefreshToken(ctx, domain.RefreshToken{
		Fingerprint: cryptox.FingerprintToken(refresh),
		UserID:      u.ID,
		ExpiresAt:   now.Add(s.RefreshTTL),
	}); err != nil {
		return TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Rotate consumes a refresh token and issues a new pair for its owner.
func (s *TokenService) Rotate(ctx context.Context, refresh string) (TokenPair, error) {
	if refresh == "" {
		return TokenPair{}, ErrInvalidRefresh
	}
	rt, err := s.Store.ConsumeRefreshToken(ctx, cryptox.FingerprintToken(refresh), time.Now())
	if err != nil {
		return TokenPair{}, ErrInvalidRefresh
	}
	u, err := s.Store.GetUserByID(ctx, rt.UserID)
	if err != nil {
		return TokenPair{}, ErrInvalidRefresh
	}
	return s.IssuePair(ctx, u)
}

// Revoke invalidates a refresh token. Unknown tokens are ignored.
func (s *TokenService) Revoke(ctx context.Context, refresh string) {
	if refresh == "" {
		return
	}
	s.Store.RevokeRefreshToken(ctx, cryptox.FingerprintToken(refresh))
}

// ExpireAccessTokens invalidates every access token issued so far. Refresh
// tokens stay valid.
func (s *TokenService) ExpireAccessTokens() {
	s.epoch.Add(1)
}

// VerifyAccessToken implements httpx.TokenVerifier. The role is read from the
// store so an educator upgrade applies without reissuing tokens.
func (s *TokenService) VerifyAccessToken(raw string) (httpx.Principal, error) {
	var claims accessClaims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return s.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return httpx.Principal{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Epoch != s.epoch.Load() {
		return httpx.Principal{}, fmt.Errorf("%w: superseded", ErrInvalidToken)
	}

	u, err := s.Store.GetUserByID(context.Background(), claims.Subject)
	if err != nil {
		return httpx.Principal{}, fmt.Errorf("%w: unknown subject", ErrInvalidToken)
	}
	return httpx.Principal{UserID: u.ID, Role: u.Role}, nil
}
