package learnsdk_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/aussiebroadwan/learnhub/internal/mockapi/domain"
	"github.com/aussiebroadwan/learnhub/internal/mockapi/mockapitest"
	"github.com/aussiebroadwan/learnhub/pkg/learnsdk"
	"github.com/stretchr/testify/require"
)

type processorFunc func(ctx context.Context, order learnsdk.Order) (learnsdk.PaymentResult, error)

func (f processorFunc) Collect(ctx context.Context, order learnsdk.Order) (learnsdk.PaymentResult, error) {
	return f(ctx, order)
}

func TestCheckout_Purchase(t *testing.T) {
	t.Parallel()
	srv := mockapitest.New(t)
	edu := srv.CreateUser(t, "edu@example.com", domain.RoleEducator)
	course := srv.CreateCourse(t, edu.ID, 49900, 1)
	srv.CreateUser(t, "stu@example.com", domain.RoleStudent)
	ctx := context.Background()

	h := newHarness(t, srv)
	sess := h.login(t, "stu@example.com")
	gate := learnsdk.NewAccessGate(h.sm)
	checkout := learnsdk.NewCheckout(h.sm, gate, sandboxProcessor{srv: srv})
	content := learnsdk.NewContent(h.sm, gate)

	_, err := content.ListModules(ctx, course.ID)
	require.ErrorIs(t, err, learnsdk.ErrForbidden)
	srv.ResetStats()

	d, err := checkout.Purchase(ctx, course.ID, course.Price)
	require.NoError(t, err)
	require.True(t, d.HasAccess)
	require.True(t, srv.HasPurchase(sess.User.ID, course.ID))
	require.Equal(t, 1, srv.Hits(http.MethodGet, "/courses/"+course.ID+"/access"), "access is re-queried after payment")

	mods, err := content.ListModules(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, mods, 1)

	t.Run("second purchase is rejected", func(t *testing.T) {
		_, err := checkout.CreateOrder(ctx, course.ID, course.Price)
		var apiErr *learnsdk.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusConflict, apiErr.StatusCode)
	})
}

func TestCheckout_CreateOrder(t *testing.T) {
	t.Parallel()
	srv := mockapitest.New(t)
	edu := srv.CreateUser(t, "edu@example.com", domain.RoleEducator)
	course := srv.CreateCourse(t, edu.ID, 1000, 1)
	srv.CreateUser(t, "stu@example.com", domain.RoleStudent)
	ctx := context.Background()

	t.Run("requires a session", func(t *testing.T) {
		h := newHarness(t, srv)
		checkout := learnsdk.NewCheckout(h.sm, learnsdk.NewAccessGate(h.sm), sandboxProcessor{srv: srv})

		_, err := checkout.CreateOrder(ctx, course.ID, course.Price)
		require.ErrorIs(t, err, learnsdk.ErrSessionExpired)
		require.Zero(t, srv.Hits(http.MethodPost, "/payment/createOrder"))
	})

	t.Run("returns the order and publishable key", func(t *testing.T) {
		h := newHarness(t, srv)
		h.login(t, "stu@example.com")
		checkout := learnsdk.NewCheckout(h.sm, learnsdk.NewAccessGate(h.sm), sandboxProcessor{srv: srv})

		order, err := checkout.CreateOrder(ctx, course.ID, course.Price)
		require.NoError(t, err)
		require.NotEmpty(t, order.ID)
		require.Equal(t, course.ID, order.CourseID)
		require.Equal(t, course.Price, order.Amount)
		require.Equal(t, "INR", order.Currency)
		require.Equal(t, "rzp_test_fixture", order.Key)
	})

	t.Run("amount must match the price", func(t *testing.T) {
		h := newHarness(t, srv)
		h.login(t, "stu@example.com")
		checkout := learnsdk.NewCheckout(h.sm, learnsdk.NewAccessGate(h.sm), sandboxProcessor{srv: srv})

		_, err := checkout.CreateOrder(ctx, course.ID, 1)
		var apiErr *learnsdk.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	})
}

func TestCheckout_VerifyRejected(t *testing.T) {
	t.Parallel()
	srv := mockapitest.New(t)
	edu := srv.CreateUser(t, "edu@example.com", domain.RoleEducator)
	course := srv.CreateCourse(t, edu.ID, 1000, 1)
	stu := srv.CreateUser(t, "stu@example.com", domain.RoleStudent)
	ctx := context.Background()

	h := newHarness(t, srv)
	h.login(t, "stu@example.com")
	gate := learnsdk.NewAccessGate(h.sm)

	forged := processorFunc(func(_ context.Context, order learnsdk.Order) (learnsdk.PaymentResult, error) {
		return learnsdk.PaymentResult{PaymentID: "pay_forged", OrderID: order.ID, Signature: "deadbeef"}, nil
	})
	d, err := learnsdk.NewCheckout(h.sm, gate, forged).Purchase(ctx, course.ID, course.Price)
	require.ErrorIs(t, err, learnsdk.ErrPaymentNotVerified)
	require.False(t, d.Allowed())
	require.False(t, srv.HasPurchase(stu.ID, course.ID))

	ok, err := gate.CheckAccess(ctx, course.ID)
	require.NoError(t, err)
	require.False(t, ok)

	t.Run("widget failure never reaches verify", func(t *testing.T) {
		srv.ResetStats()
		cancelled := processorFunc(func(context.Context, learnsdk.Order) (learnsdk.PaymentResult, error) {
			return learnsdk.PaymentResult{}, errors.New("user closed the widget")
		})
		_, err := learnsdk.NewCheckout(h.sm, gate, cancelled).Purchase(ctx, course.ID, course.Price)
		require.Error(t, err)
		require.Zero(t, srv.Hits(http.MethodPost, "/payment/verify"))
	})
}
