package sqlitestore

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/learnhub/internal/mockapi/domain"
	"github.com/aussiebroadwan/learnhub/internal/mockapi/mockapitest"
	"github.com/aussiebroadwan/learnhub/pkg/learnsdk"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestStore_Tokens(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, path := openTemp(t)

	at, err := s.AccessToken(ctx)
	require.NoError(t, err)
	require.Empty(t, at)

	require.NoError(t, s.SetTokens(ctx, learnsdk.TokenPair{AccessToken: "a1", RefreshToken: "r1"}))
	require.NoError(t, s.SetTokens(ctx, learnsdk.TokenPair{AccessToken: "a2", RefreshToken: "r2"}))

	at, err = s.AccessToken(ctx)
	require.NoError(t, err)
	require.Equal(t, "a2", at)

	// State survives reopening the file, and migrations are idempotent.
	require.NoError(t, s.Close())
	reopened, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	rt, err := reopened.RefreshToken(ctx)
	require.NoError(t, err)
	require.Equal(t, "r2", rt)

	require.NoError(t, reopened.ClearTokens(ctx))
	at, err = reopened.AccessToken(ctx)
	require.NoError(t, err)
	require.Empty(t, at)
	rt, err = reopened.RefreshToken(ctx)
	require.NoError(t, err)
	require.Empty(t, rt)
}

func TestStore_Flags(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := openTemp(t)

	require.NoError(t, s.SetFlag(ctx, "pending_educator:a@example.com"))
	require.NoError(t, s.SetFlag(ctx, "pending_educator:a@example.com"))

	ok, err := s.ConsumeFlag(ctx, "pending_educator:a@example.com")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.ConsumeFlag(ctx, "pending_educator:a@example.com")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStore_BacksSessionManager(t *testing.T) {
	t.Parallel()
	srv := mockapitest.New(t)
	srv.CreateUser(t, "alice@example.com", domain.RoleStudent)
	ctx := context.Background()
	s, _ := openTemp(t)

	newManager := func() *learnsdk.SessionManager {
		sm, err := learnsdk.NewSessionManager(learnsdk.Config{
			BaseURL:    srv.URL,
			HTTPClient: srv.Client(),
			Store:      s,
			Flags:      s,
		})
		require.NoError(t, err)
		return sm
	}

	_, err := newManager().Login(ctx, "alice@example.com", mockapitest.Password)
	require.NoError(t, err)

	srv.ExpireAccessTokens()
	sess, err := newManager().Init(ctx)
	require.NoError(t, err)
	require.True(t, sess.IsAuthenticated)
	require.Equal(t, 1, srv.Hits(http.MethodPost, "/auth/refreshtoken"))
}
