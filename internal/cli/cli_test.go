package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/learnhub/internal/mockapi/domain"
	"github.com/aussiebroadwan/learnhub/internal/mockapi/mockapitest"
	"github.com/aussiebroadwan/learnhub/pkg/slogx"
	"github.com/stretchr/testify/require"
)

type testCLI struct {
	t     *testing.T
	srv   *mockapitest.Server
	state string
}

func newTestCLI(t *testing.T, srv *mockapitest.Server) *testCLI {
	return &testCLI{t: t, srv: srv, state: filepath.Join(t.TempDir(), "state.db")}
}

// run executes one command in a fresh process-like CLI over the shared state
// file and returns stdout, stderr and the command error.
func (tc *testCLI) run(args ...string) (string, string, error) {
	tc.t.Helper()
	var out, errOut bytes.Buffer
	c, err := New(Config{APIURL: tc.srv.URL, StateFile: tc.state}, &out, &errOut,
		WithHTTPClient(tc.srv.Client()),
		WithLogger(slogx.Discard()),
	)
	require.NoError(tc.t, err)
	defer func() { require.NoError(tc.t, c.Close()) }()

	err = c.Run(context.Background(), args)
	return out.String(), errOut.String(), err
}

func (tc *testCLI) mustRun(args ...string) string {
	tc.t.Helper()
	out, errOut, err := tc.run(args...)
	require.NoError(tc.t, err, errOut)
	return out
}

func TestCLI_EducatorSignupFlow(t *testing.T) {
	t.Parallel()
	srv := mockapitest.New(t)
	tc := newTestCLI(t, srv)

	out := tc.mustRun("signup", "-name", "Eve", "-email", "eve@example.com", "-password", "password123", "-educator")
	require.Contains(t, out, "Verification code sent")

	out = tc.mustRun("verify", "-email", "eve@example.com", "-code", srv.OTP("eve@example.com"))
	require.Contains(t, out, "learnhub educator")

	out = tc.mustRun("educator", "-bio", "Teaches Go", "-expertise", "go, testing")
	require.Contains(t, out, "Educator registration complete")

	out = tc.mustRun("whoami")
	require.Contains(t, out, "eve@example.com")
	require.Contains(t, out, domain.RoleEducator)
}

func TestCLI_PurchaseFlow(t *testing.T) {
	t.Parallel()
	srv := mockapitest.New(t)
	edu := srv.CreateUser(t, "edu@example.com", domain.RoleEducator)
	course := srv.CreateCourse(t, edu.ID, 49900, 2)
	srv.CreateUser(t, "stu@example.com", domain.RoleStudent)
	tc := newTestCLI(t, srv)

	out := tc.mustRun("courses")
	require.Contains(t, out, course.ID)
	require.Contains(t, out, "499.00")

	_, _, err := tc.run("modules", course.ID)
	require.ErrorIs(t, err, ErrNotSignedIn)

	out = tc.mustRun("login", "-email", "stu@example.com", "-password", mockapitest.Password)
	require.Contains(t, out, "Signed in as")

	require.Contains(t, tc.mustRun("access", course.ID), "locked")

	_, _, err = tc.run("modules", course.ID)
	require.ErrorContains(t, err, "learnhub buy")
	require.Zero(t, srv.Hits("GET", "/content/getAllModules/"+course.ID))

	out = tc.mustRun("buy", course.ID)
	require.Contains(t, out, "Purchased")

	require.Contains(t, tc.mustRun("access", course.ID), "purchased")
	out = tc.mustRun("modules", course.ID)
	require.Contains(t, out, "Module")

	out = tc.mustRun("buy", course.ID)
	require.Contains(t, out, "already have access")

	tc.mustRun("review", "-rating", "5", "-comment", "great", course.ID)
	require.Contains(t, tc.mustRun("reviews", course.ID), "great")

	require.Contains(t, tc.mustRun("logout"), "Signed out")
	require.Contains(t, tc.mustRun("whoami"), "Not signed in")
}

func TestCLI_SessionExpiredPrintsLoginHint(t *testing.T) {
	t.Parallel()
	srv := mockapitest.New(t)
	srv.CreateUser(t, "stu@example.com", domain.RoleStudent)
	tc := newTestCLI(t, srv)

	tc.mustRun("login", "-email", "stu@example.com", "-password", mockapitest.Password)
	srv.ExpireAccessTokens()
	srv.RevokeRefreshTokens()

	_, errOut, err := tc.run("profile")
	require.ErrorIs(t, err, ErrNotSignedIn)
	require.Contains(t, errOut, "learnhub login")

	// The stale tokens are gone, so the next command does not hint again.
	_, errOut, err = tc.run("profile")
	require.ErrorIs(t, err, ErrNotSignedIn)
	require.NotContains(t, errOut, "session has expired")
}

func TestCLI_Usage(t *testing.T) {
	t.Parallel()
	srv := mockapitest.New(t)
	tc := newTestCLI(t, srv)

	_, errOut, err := tc.run("frobnicate")
	require.ErrorContains(t, err, "unknown command")
	require.Contains(t, errOut, "learnhub login")

	_, _, err = tc.run("modules")
	require.ErrorContains(t, err, "COURSE_ID")

	_, _, err = tc.run("login", "-email", "nobody@example.com", "-password", "x")
	require.ErrorContains(t, err, "invalid email or password")
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{49900, "499.00"},
		{123456, "1234.56"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, formatPrice(tt.in))
	}
}
