package http

import (
	"net/http"

	"github.com/aussiebroadwan/learnhub/internal/mockapi/service"
	"github.com/aussiebroadwan/learnhub/pkg/httpx"
	"github.com/aussiebroadwan/learnhub/pkg/slogx"
)

type CourseHandler struct {
	CourseService *service.CourseService

	checks http.Handler
}

// NewCourseHandler wraps the per-user ownership/access checks in authn; the
// rest of the catalog is public.
func NewCourseHandler(courses *service.CourseService, authn httpx.Middleware) *CourseHandler {
	h := &CourseHandler{CourseService: courses}
	h.checks = httpx.Chain(http.HandlerFunc(h.handleCheck), authn)
	return h
}

// HandleAll handles GET /courses/all.
func (h *CourseHandler) HandleAll(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, ok(toCourses(h.CourseService.All(r.Context()))))
}

// HandleSearch handles GET /courses/search?query=.
func (h *CourseHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("query")
	httpx.WriteJSON(w, http.StatusOK, ok(toCourses(h.CourseService.Search(r.Context(), q))))
}

// HandleTwoSegment dispatches GET /courses/{first}/{second}:
//
//	/courses/single/{id}
//	/courses/educator/{id}
//	/courses/{id}/ownership
//	/courses/{id}/access
func (h *CourseHandler) HandleTwoSegment(w http.ResponseWriter, r *http.Request) {
	first, second := r.PathValue("first"), r.PathValue("second")

	switch {
	case first == "single":
		c, err := h.CourseService.Get(r.Context(), second)
		if err != nil {
			writeServiceError(w, slogx.FromContext(r.Context()), err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, ok(toCourse(c)))
	case first == "educator":
		httpx.WriteJSON(w, http.StatusOK, ok(toCourses(h.CourseService.ByEducator(r.Context(), second))))
	case second == "ownership" || second == "access":
		h.checks.ServeHTTP(w, r)
	default:
		httpx.WriteError(w, http.StatusNotFound, "Not found")
	}
}

// handleCheck answers ownership with 200 or 403 and access with
// {success: bool}.
func (h *CourseHandler) handleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	userID := httpx.UserIDFromContext(ctx)
	courseID := r.PathValue("first")

	if r.PathValue("second") == "ownership" {
		owner, err := h.CourseService.IsOwner(ctx, userID, courseID)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}
		if !owner {
			httpx.WriteError(w, http.StatusForbidden, "You are not the owner of this course")
			return
		}
		httpx.WriteJSON(w, http.StatusOK, httpx.Envelope{Success: true, Message: "Owner"})
		return
	}

	purchased, err := h.CourseService.HasPurchase(ctx, userID, courseID)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, httpx.Envelope{Success: purchased})
}
