package http_test

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/aussiebroadwan/learnhub/internal/mockapi/domain"
	"github.com/aussiebroadwan/learnhub/internal/mockapi/mockapitest"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success      bool            `json:"success"`
	Message      string          `json:"message"`
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
	Data         json.RawMessage `json:"data"`
}

func call(t *testing.T, srv *mockapitest.Server, method, path, token, body string) (int, envelope) {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, rdr)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	_ = json.NewDecoder(resp.Body).Decode(&env)
	return resp.StatusCode, env
}

func login(t *testing.T, srv *mockapitest.Server, email string) envelope {
	t.Helper()
	code, env := call(t, srv, http.MethodPost, "/auth/login", "",
		`{"email":"`+email+`","password":"`+mockapitest.Password+`"}`)
	require.Equal(t, http.StatusOK, code, env.Message)
	require.True(t, env.Success)
	return env
}

func TestRouter_AuthEndpoints(t *testing.T) {
	t.Parallel()
	srv := mockapitest.New(t)
	srv.CreateUser(t, "alice@example.com", domain.RoleStudent)

	t.Run("wrong password is 401", func(t *testing.T) {
		code, env := call(t, srv, http.MethodPost, "/auth/login", "", `{"email":"alice@example.com","password":"nope"}`)
		require.Equal(t, http.StatusUnauthorized, code)
		require.False(t, env.Success)
	})

	t.Run("validate requires bearer", func(t *testing.T) {
		code, _ := call(t, srv, http.MethodGet, "/auth/validate", "", "")
		require.Equal(t, http.StatusUnauthorized, code)
	})

	t.Run("refresh rotates", func(t *testing.T) {
		pair := login(t, srv, "alice@example.com")

		code, next := call(t, srv, http.MethodPost, "/auth/refreshtoken", "", `{"token":"`+pair.RefreshToken+`"}`)
		require.Equal(t, http.StatusOK, code)
		require.NotEmpty(t, next.AccessToken)

		code, _ = call(t, srv, http.MethodPost, "/auth/refreshtoken", "", `{"token":"`+pair.RefreshToken+`"}`)
		require.Equal(t, http.StatusUnauthorized, code)

		code, _ = call(t, srv, http.MethodGet, "/auth/validate", next.AccessToken, "")
		require.Equal(t, http.StatusOK, code)
	})

	t.Run("expired access tokens are rejected", func(t *testing.T) {
		pair := login(t, srv, "alice@example.com")
		srv.ExpireAccessTokens()
		code, _ := call(t, srv, http.MethodGet, "/auth/validate", pair.AccessToken, "")
		require.Equal(t, http.StatusUnauthorized, code)
	})
}

func TestRouter_CourseDispatch(t *testing.T) {
	t.Parallel()
	srv := mockapitest.New(t)
	edu := srv.CreateUser(t, "edu@example.com", domain.RoleEducator)
	stu := srv.CreateUser(t, "stu@example.com", domain.RoleStudent)
	course := srv.CreateCourse(t, edu.ID, 1000, 2)

	eduTok := login(t, srv, "edu@example.com").AccessToken
	stuTok := login(t, srv, "stu@example.com").AccessToken

	tests := []struct {
		name, path, token string
		wantCode          int
		wantSuccess       bool
	}{
		{"single is public", "/courses/single/" + course.ID, "", http.StatusOK, true},
		{"educator listing is public", "/courses/educator/" + edu.ID, "", http.StatusOK, true},
		{"ownership needs auth", "/courses/" + course.ID + "/ownership", "", http.StatusUnauthorized, false},
		{"owner", "/courses/" + course.ID + "/ownership", eduTok, http.StatusOK, true},
		{"not owner", "/courses/" + course.ID + "/ownership", stuTok, http.StatusForbidden, false},
		{"no purchase", "/courses/" + course.ID + "/access", stuTok, http.StatusOK, false},
		{"unknown course", "/courses/missing/access", stuTok, http.StatusNotFound, false},
		{"unknown shape", "/courses/a/b", "", http.StatusNotFound, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := call(t, srv, http.MethodGet, tt.path, tt.token, "")
			require.Equal(t, tt.wantCode, code)
			require.Equal(t, tt.wantSuccess, env.Success)
		})
	}

	srv.GrantPurchase(stu.ID, course.ID)
	_, env := call(t, srv, http.MethodGet, "/courses/"+course.ID+"/access", stuTok, "")
	require.True(t, env.Success)
}

func TestRouter_ContentIsGatedServerSide(t *testing.T) {
	t.Parallel()
	srv := mockapitest.New(t)
	edu := srv.CreateUser(t, "edu@example.com", domain.RoleEducator)
	srv.CreateUser(t, "stu@example.com", domain.RoleStudent)
	course := srv.CreateCourse(t, edu.ID, 1000, 1)
	empty := srv.CreateCourse(t, edu.ID, 1000, 0)

	stuTok := login(t, srv, "stu@example.com").AccessToken
	eduTok := login(t, srv, "edu@example.com").AccessToken

	code, _ := call(t, srv, http.MethodGet, "/content/getAllModules/"+course.ID, stuTok, "")
	require.Equal(t, http.StatusForbidden, code)

	code, env := call(t, srv, http.MethodGet, "/content/getAllModules/"+course.ID, eduTok, "")
	require.Equal(t, http.StatusOK, code)
	var mods []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &mods))
	require.Len(t, mods, 1)

	code, _ = call(t, srv, http.MethodGet, "/content/getAllModules/"+empty.ID, eduTok, "")
	require.Equal(t, http.StatusNotFound, code)

	require.Equal(t, 3, srv.Hits(http.MethodGet, "/content/getAllModules/"+course.ID)+srv.Hits(http.MethodGet, "/content/getAllModules/"+empty.ID))
}

func TestRouter_Health(t *testing.T) {
	t.Parallel()
	srv := mockapitest.New(t)

	for _, path := range []string{"/livez", "/readyz"} {
		resp, err := srv.Client().Get(srv.URL + path)
		require.NoError(t, err)
		_ = resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	}
}

func TestRouter_Metrics(t *testing.T) {
	t.Parallel()
	srv := mockapitest.New(t)
	srv.CreateUser(t, "alice@example.com", domain.RoleStudent)

	tok := login(t, srv, "alice@example.com").AccessToken
	call(t, srv, http.MethodGet, "/auth/validate", tok, "")
	call(t, srv, http.MethodGet, "/auth/validate", "", "")

	require.Equal(t, 1, srv.Hits(http.MethodPost, "/auth/login"))
	require.Zero(t, srv.AuthHeaders(http.MethodPost, "/auth/login"))
	require.Equal(t, 2, srv.Hits(http.MethodGet, "/auth/validate"))
	require.Equal(t, 1, srv.AuthHeaders(http.MethodGet, "/auth/validate"))

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "learnhub_mockapi_requests_total{")
	require.Contains(t, string(body), `path="/auth/validate"`)

	srv.ResetStats()
	require.Zero(t, srv.Hits(http.MethodGet, "/auth/validate"))
}

func TestRouter_AuthoringRequiresOwnership(t *testing.T) {
	t.Parallel()
	srv := mockapitest.New(t)
	owner := srv.CreateUser(t, "owner@example.com", domain.RoleEducator)
	srv.CreateUser(t, "other@example.com", domain.RoleEducator)
	srv.CreateUser(t, "stu@example.com", domain.RoleStudent)
	course := srv.CreateCourse(t, owner.ID, 1000, 1)
	mod := srv.Modules(course.ID)[0]
	class := srv.Classes(course.ID)[0]

	ownerTok := login(t, srv, "owner@example.com").AccessToken
	otherTok := login(t, srv, "other@example.com").AccessToken
	stuTok := login(t, srv, "stu@example.com").AccessToken

	tests := []struct {
		name, method, path, token, body string
		wantCode                         int
	}{
		{"student cannot create", http.MethodPost, "/courses/create", stuTok, `{"title":"x","price":0}`, http.StatusForbidden},
		{"create needs auth", http.MethodPost, "/courses/create", "", `{"title":"x","price":0}`, http.StatusUnauthorized},
		{"educator creates", http.MethodPost, "/courses/create", otherTok, `{"title":"Mine","price":100}`, http.StatusCreated},
		{"missing title", http.MethodPost, "/courses/create", otherTok, `{"price":100}`, http.StatusBadRequest},
		{"other cannot update", http.MethodPut, "/courses/update/" + course.ID, otherTok, `{"title":"x","price":0}`, http.StatusForbidden},
		{"other cannot add module", http.MethodPost, "/content/createModule", otherTok, `{"courseId":"` + course.ID + `","title":"x"}`, http.StatusForbidden},
		{"other cannot add material", http.MethodPost, "/content/uploadStudyMaterial", otherTok, `{"moduleId":"` + mod.ID + `","materialData":{"title":"x","url":"https://x"}}`, http.StatusForbidden},
		{"other cannot add class", http.MethodPost, "/content/" + mod.ID, otherTok, `{"title":"x"}`, http.StatusForbidden},
		{"other cannot delete class", http.MethodDelete, "/content/deleteClass/" + class.ID, otherTok, "", http.StatusForbidden},
		{"unknown module", http.MethodPut, "/content/updateModule/mod_missing", ownerTok, `{"title":"x"}`, http.StatusNotFound},
		{"owner adds module", http.MethodPost, "/content/createModule", ownerTok, `{"courseId":"` + course.ID + `","title":"Second"}`, http.StatusCreated},
		{"owner updates class", http.MethodPut, "/content/class/" + class.ID, ownerTok, `{"title":"Renamed","duration":60}`, http.StatusOK},
		{"student cannot list module classes", http.MethodGet, "/content/getModuleClasses/" + mod.ID, stuTok, "", http.StatusForbidden},
		{"owner lists module classes", http.MethodGet, "/content/getModuleClasses/" + mod.ID, ownerTok, "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := call(t, srv, tt.method, tt.path, tt.token, tt.body)
			require.Equal(t, tt.wantCode, code, env.Message)
		})
	}

	require.Len(t, srv.Modules(course.ID), 2)
	require.Equal(t, "Renamed", srv.Classes(course.ID)[0].Title)

	code, _ := call(t, srv, http.MethodDelete, "/courses/delete/"+course.ID, ownerTok, "")
	require.Equal(t, http.StatusOK, code)
	require.Empty(t, srv.Modules(course.ID))
	require.Empty(t, srv.Classes(course.ID))
}
