//go:build e2e

package session_test

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/learnhub/pkg/learnsdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Container setup and SDK helpers for the session end-to-end tests. The mock
 * API image is built once and started per test with the demo data seeded.
 */

const (
	testImageName = "learnhub-mockapi-test:latest"

	demoPassword      = "learnhub-demo"
	demoEducatorEmail = "educator@learnhub.dev"
	demoStudentEmail  = "student@learnhub.dev"
)

// TestMain builds the Docker image once before all tests and removes it after.
func TestMain(m *testing.M) {
	fmt.Fprintf(os.Stdout, "Building mock API Docker image...")

	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up mock API Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	cmd := exec.CommandContext(context.Background(), "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/mockapi/Dockerfile",
		"../../../")
	cmd.Stdout = os.Stdout
	return cmd.Run()
}

func cleanupDockerImage() {
	_ = exec.CommandContext(context.Background(), "docker", "rmi", "-f", testImageName).Run()
}

// setupMockAPI starts the mock API with the given access token lifetime and
// returns its base URL. The container is terminated when t finishes.
func setupMockAPI(t *testing.T, accessTTL time.Duration) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8080/tcp"},
		Env: map[string]string{
			"PORT":               "8080",
			"MOCKAPI_SEED":       "true",
			"MOCKAPI_ACCESS_TTL": accessTTL.String(),
			"ENV":                "test",
			"LOG_LEVEL":          "info",
			"LOG_FORMAT":         "json",
		},
		WaitingFor: wait.ForHTTP("/livez").
			WithPort("8080/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	return fmt.Sprintf("http://%s:%s", host, mappedPort.Port())
}

type client struct {
	sm      *learnsdk.SessionManager
	gate    *learnsdk.AccessGate
	catalog *learnsdk.Catalog
	content *learnsdk.Content
	expired *atomic.Int32
}

func newClient(t *testing.T, baseURL string) *client {
	t.Helper()
	c := &client{expired: new(atomic.Int32)}

	sm, err := learnsdk.NewSessionManager(learnsdk.Config{
		BaseURL:          baseURL,
		HTTPClient:       &http.Client{Timeout: 10 * time.Second},
		OnSessionExpired: func() { c.expired.Add(1) },
	})
	require.NoError(t, err)

	c.sm = sm
	c.gate = learnsdk.NewAccessGate(sm)
	c.catalog = learnsdk.NewCatalog(sm)
	c.content = learnsdk.NewContent(sm, c.gate)
	return c
}

func (c *client) login(t *testing.T, email string) learnsdk.Session {
	t.Helper()
	sess, err := c.sm.Login(t.Context(), email, demoPassword)
	require.NoError(t, err)
	require.True(t, sess.IsAuthenticated)
	return sess
}

// courseByTitle finds a seeded course.
func (c *client) courseByTitle(t *testing.T, title string) learnsdk.Course {
	t.Helper()
	courses, err := c.catalog.ListCourses(t.Context())
	require.NoError(t, err)
	for _, course := range courses {
		if course.Title == title {
			return course
		}
	}
	t.Fatalf("course %q not found", title)
	return learnsdk.Course{}
}

// gatewayProcessor pays through the mock API's sandbox gateway.
type gatewayProcessor struct {
	sm *learnsdk.SessionManager
}

func (p gatewayProcessor) Collect(ctx context.Context, order learnsdk.Order) (learnsdk.PaymentResult, error) {
	var res learnsdk.PaymentResult
	err := p.sm.Do(ctx, &learnsdk.Request{
		Op:        "gateway.pay",
		Method:    http.MethodPost,
		Path:      "/gateway/pay",
		Body:      map[string]string{"orderId": order.ID},
		Anonymous: true,
	}, &res)
	return res, err
}
