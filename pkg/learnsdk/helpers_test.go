package learnsdk_test

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/aussiebroadwan/learnhub/internal/mockapi/mockapitest"
	"github.com/aussiebroadwan/learnhub/pkg/learnsdk"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type harness struct {
	srv     *mockapitest.Server
	sm      *learnsdk.SessionManager
	store   learnsdk.TokenStore
	metrics *learnsdk.Metrics
	expired *atomic.Int32
}

type harnessOption func(*learnsdk.Config)

func withStore(s learnsdk.TokenStore) harnessOption {
	return func(c *learnsdk.Config) { c.Store = s }
}

func newHarness(t *testing.T, srv *mockapitest.Server, opts ...harnessOption) *harness {
	t.Helper()

	h := &harness{
		srv:     srv,
		metrics: learnsdk.NewMetrics(prometheus.NewRegistry()),
		expired: new(atomic.Int32),
	}
	cfg := learnsdk.Config{
		BaseURL:          srv.URL,
		HTTPClient:       srv.Client(),
		Store:            learnsdk.NewMemoryTokenStore(),
		Metrics:          h.metrics,
		OnSessionExpired: func() { h.expired.Add(1) },
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	h.store = cfg.Store

	sm, err := learnsdk.NewSessionManager(cfg)
	require.NoError(t, err)
	h.sm = sm
	return h
}

func (h *harness) login(t *testing.T, email string) learnsdk.Session {
	t.Helper()
	sess, err := h.sm.Login(context.Background(), email, mockapitest.Password)
	require.NoError(t, err)
	require.True(t, sess.IsAuthenticated)
	return sess
}

func (h *harness) tokens(t *testing.T) learnsdk.TokenPair {
	t.Helper()
	ctx := context.Background()
	at, err := h.store.AccessToken(ctx)
	require.NoError(t, err)
	rt, err := h.store.RefreshToken(ctx)
	require.NoError(t, err)
	return learnsdk.TokenPair{AccessToken: at, RefreshToken: rt}
}

// sandboxProcessor pays through the mock gateway endpoint.
type sandboxProcessor struct {
	srv *mockapitest.Server
}

func (p sandboxProcessor) Collect(ctx context.Context, order learnsdk.Order) (learnsdk.PaymentResult, error) {
	paymentID := "pay_test_" + order.ID
	return learnsdk.PaymentResult{
		PaymentID: paymentID,
		OrderID:   order.ID,
		Signature: p.srv.Sign(order.ID, paymentID),
	}, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
