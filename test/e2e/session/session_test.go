//go:build e2e

package session_test

import (
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/learnhub/pkg/learnsdk"
	"github.com/stretchr/testify/require"
)

// TestSilentRefresh lets a short lived access token expire for real and
// checks that concurrent callers share one refresh and all succeed.
func TestSilentRefresh(t *testing.T) {
	baseURL := setupMockAPI(t, 2*time.Second)
	c := newClient(t, baseURL)
	c.login(t, demoStudentEmail)

	time.Sleep(3 * time.Second)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = c.sm.Profile(t.Context())
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, learnsdk.StateAuthenticated, c.sm.State())
	require.Zero(t, c.expired.Load())
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	baseURL := setupMockAPI(t, time.Minute)
	c := newClient(t, baseURL)
	c.login(t, demoStudentEmail)

	require.NoError(t, c.sm.Logout(t.Context()))

	_, err := c.sm.Profile(t.Context())
	require.ErrorIs(t, err, learnsdk.ErrSessionExpired)
	require.Equal(t, learnsdk.StateAnonymous, c.sm.State())
}

func TestAccessAndPurchase(t *testing.T) {
	baseURL := setupMockAPI(t, time.Minute)

	student := newClient(t, baseURL)
	student.login(t, demoStudentEmail)

	owned := student.courseByTitle(t, "Go for Backend Engineers")
	locked := student.courseByTitle(t, "Practical SQL")

	mods, err := student.content.ListModules(t.Context(), owned.ID)
	require.NoError(t, err)
	require.Len(t, mods, 3)

	_, err = student.content.ListModules(t.Context(), locked.ID)
	require.ErrorIs(t, err, learnsdk.ErrForbidden)

	checkout := learnsdk.NewCheckout(student.sm, student.gate, gatewayProcessor{sm: student.sm})
	d, err := checkout.Purchase(t.Context(), locked.ID, locked.Price)
	require.NoError(t, err)
	require.True(t, d.HasAccess)

	mods, err = student.content.ListModules(t.Context(), locked.ID)
	require.NoError(t, err)
	require.Len(t, mods, 2)

	t.Run("educator owns seeded courses", func(t *testing.T) {
		educator := newClient(t, baseURL)
		educator.login(t, demoEducatorEmail)

		owner, err := educator.gate.CheckOwnership(t.Context(), locked.ID)
		require.NoError(t, err)
		require.True(t, owner)

		empty := educator.courseByTitle(t, "Design Systems 101")
		mods, err := educator.content.ListModules(t.Context(), empty.ID)
		require.NoError(t, err)
		require.Empty(t, mods)
	})
}
