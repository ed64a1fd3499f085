package learnsdk_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/aussiebroadwan/learnhub/internal/mockapi/domain"
	"github.com/aussiebroadwan/learnhub/internal/mockapi/mockapitest"
	"github.com/aussiebroadwan/learnhub/pkg/learnsdk"
	"github.com/stretchr/testify/require"
)

func TestContent_Owner(t *testing.T) {
	t.Parallel()
	srv := mockapitest.New(t)
	edu := srv.CreateUser(t, "edu@example.com", domain.RoleEducator)
	course := srv.CreateCourse(t, edu.ID, 1000, 3)
	empty := srv.CreateCourse(t, edu.ID, 1000, 0)
	ctx := context.Background()

	h := newHarness(t, srv)
	h.login(t, "edu@example.com")
	gate := learnsdk.NewAccessGate(h.sm)
	content := learnsdk.NewContent(h.sm, gate)

	mods, err := content.ListModules(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, mods, 3)
	for i, m := range mods {
		require.Equal(t, course.ID, m.CourseID)
		require.Equal(t, i+1, m.Order)
	}

	mats, err := content.ListStudyMaterials(ctx, course.ID, mods[0].ID)
	require.NoError(t, err)
	require.Len(t, mats, 1)
	require.Equal(t, mods[0].ID, mats[0].ModuleID)

	classes, err := content.ListClasses(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, classes, 3)

	t.Run("course without modules is empty", func(t *testing.T) {
		mods, err := content.ListModules(ctx, empty.ID)
		require.NoError(t, err)
		require.NotNil(t, mods)
		require.Empty(t, mods)
	})

	t.Run("video progress", func(t *testing.T) {
		require.NoError(t, content.SaveVideoProgress(ctx, classes[0].ID, 42.5))

		err := content.SaveVideoProgress(ctx, classes[0].ID, 120)
		var apiErr *learnsdk.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	})
}

func TestCatalog(t *testing.T) {
	t.Parallel()
	srv := mockapitest.New(t)
	edu := srv.CreateUser(t, "edu@example.com", domain.RoleEducator)
	other := srv.CreateUser(t, "other@example.com", domain.RoleEducator)
	a := srv.CreateCourse(t, edu.ID, 1000, 1)
	srv.CreateCourse(t, other.ID, 2000, 1)
	ctx := context.Background()

	h := newHarness(t, srv)
	catalog := learnsdk.NewCatalog(h.sm)

	all, err := catalog.ListCourses(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	got, err := catalog.GetCourse(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, a.Title, got.Title)
	require.Equal(t, a.Price, got.Price)

	_, err = catalog.GetCourse(ctx, "course_missing")
	var apiErr *learnsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.StatusCode)

	mine, err := catalog.CoursesByEducator(ctx, edu.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, a.ID, mine[0].ID)

	found, err := catalog.SearchCourses(ctx, "TESTING")
	require.NoError(t, err)
	require.Len(t, found, 2)

	none, err := catalog.SearchCourses(ctx, "underwater basket weaving")
	require.NoError(t, err)
	require.Empty(t, none)

	// Public reads work signed out and do not end a session that never began.
	require.Zero(t, srv.AuthHeaders(http.MethodGet, "/courses/all"))
	require.Zero(t, h.expired.Load())
}

func TestReviews(t *testing.T) {
	t.Parallel()
	srv := mockapitest.New(t)
	edu := srv.CreateUser(t, "edu@example.com", domain.RoleEducator)
	course := srv.CreateCourse(t, edu.ID, 1000, 1)
	buyer := srv.CreateUser(t, "buyer@example.com", domain.RoleStudent)
	srv.CreateUser(t, "browser@example.com", domain.RoleStudent)
	srv.GrantPurchase(buyer.ID, course.ID)
	ctx := context.Background()

	t.Run("only purchasers may review", func(t *testing.T) {
		h := newHarness(t, srv)
		h.login(t, "browser@example.com")
		_, err := learnsdk.NewReviews(h.sm).CreateReview(ctx, course.ID, 5, "great")
		require.ErrorIs(t, err, learnsdk.ErrForbidden)
	})

	t.Run("purchaser review is listed publicly", func(t *testing.T) {
		h := newHarness(t, srv)
		h.login(t, "buyer@example.com")
		rev, err := learnsdk.NewReviews(h.sm).CreateReview(ctx, course.ID, 4, " solid course ")
		require.NoError(t, err)
		require.Equal(t, "solid course", rev.Comment)

		anon := newHarness(t, srv)
		list, err := learnsdk.NewReviews(anon.sm).CourseReviews(ctx, course.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.Equal(t, buyer.ID, list[0].UserID)
		require.Equal(t, 4, list[0].Rating)
	})
}
