package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/learnhub/internal/mockapi/store"
	"github.com/aussiebroadwan/learnhub/pkg/httpx"
)

type healthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}

// LivezHandler always returns 200 while the process is up.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, healthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler reports 503 when the store is unavailable.
func ReadyzHandler(startTime time.Time, version string, st *store.Memory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok", Uptime: time.Since(startTime).String(), Version: version}
		code := http.StatusOK
		if err := st.Ping(r.Context()); err != nil {
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
		}
		httpx.WriteJSON(w, code, resp)
	}
}
