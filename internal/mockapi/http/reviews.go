package http

import (
	"net/http"

	"github.com/aussiebroadwan/learnhub/internal/mockapi/service"
	"github.com/aussiebroadwan/learnhub/pkg/httpx"
	"github.com/aussiebroadwan/learnhub/pkg/slogx"
)

type ReviewHandler struct {
	CourseService *service.CourseService
}

func (h *ReviewHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reviews, err := h.CourseService.Reviews(ctx, r.PathValue("courseId"))
	if err != nil {
		writeServiceError(w, slogx.FromContext(ctx), err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ok(toReviews(reviews)))
}

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h *ReviewHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req reviewRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	rev, err := h.CourseService.AddReview(ctx, httpx.UserIDFromContext(ctx), r.PathValue("courseId"), req.Rating, req.Comment)
	if err != nil {
		writeServiceError(w, slogx.FromContext(ctx), err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, ok(toReview(rev)))
}
