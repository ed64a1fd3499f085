package http

import (
	"net/http"

	"github.com/aussiebroadwan/learnhub/internal/mockapi/service"
	"github.com/aussiebroadwan/learnhub/pkg/httpx"
	"github.com/aussiebroadwan/learnhub/pkg/slogx"
)

// ContentHandler serves protected course material. Every endpoint re-checks
// ownership or purchase; the client-side gate is not trusted.
type ContentHandler struct {
	CourseService *service.CourseService
}

func (h *ContentHandler) HandleModules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	mods, err := h.CourseService.Modules(ctx, httpx.UserIDFromContext(ctx), r.PathValue("courseId"))
	if err != nil {
		writeServiceError(w, slogx.FromContext(ctx), err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ok(toModules(mods)))
}

func (h *ContentHandler) HandleMaterials(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	mats, err := h.CourseService.Materials(ctx, httpx.UserIDFromContext(ctx), r.PathValue("moduleId"))
	if err != nil {
		writeServiceError(w, slogx.FromContext(ctx), err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ok(toMaterials(mats)))
}

func (h *ContentHandler) HandleClasses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	classes, err := h.CourseService.Classes(ctx, httpx.UserIDFromContext(ctx), r.PathValue("courseId"))
	if err != nil {
		writeServiceError(w, slogx.FromContext(ctx), err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ok(toClasses(classes)))
}

func (h *ContentHandler) HandleModuleClasses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	classes, err := h.CourseService.ModuleClasses(ctx, httpx.UserIDFromContext(ctx), r.PathValue("moduleId"))
	if err != nil {
		writeServiceError(w, slogx.FromContext(ctx), err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ok(toClasses(classes)))
}

type progressRequest struct {
	ClassID  string  `json:"classId"`
	Progress float64 `json:"progress"`
}

func (h *ContentHandler) HandleSaveProgress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req progressRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.CourseService.SaveProgress(ctx, httpx.UserIDFromContext(ctx), req.ClassID, req.Progress); err != nil {
		writeServiceError(w, slogx.FromContext(ctx), err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, httpx.Envelope{Success: true, Message: "Progress saved"})
}
