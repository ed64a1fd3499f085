package http

import (
	"net/http"

	"github.com/aussiebroadwan/learnhub/internal/mockapi/service"
	"github.com/aussiebroadwan/learnhub/pkg/httpx"
	"github.com/aussiebroadwan/learnhub/pkg/learnsdk"
	"github.com/aussiebroadwan/learnhub/pkg/slogx"
)

// AuthoringHandler serves the educator write endpoints. Ownership is decided
// by the service from the stored course, whatever the client checked.
type AuthoringHandler struct {
	CourseService *service.CourseService
}

// decode reads the request body into v, answering 400 itself on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := httpx.DecodeJSON(w, r, v); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func deleted(w http.ResponseWriter, msg string) {
	httpx.WriteJSON(w, http.StatusOK, httpx.Envelope{Success: true, Message: msg})
}

func courseInput(in learnsdk.CourseInput) service.CourseInput {
	return service.CourseInput{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Price:       in.Price,
		Thumbnail:   in.Thumbnail,
	}
}

func moduleInput(in learnsdk.ModuleInput) service.ModuleInput {
	return service.ModuleInput{Title: in.Title, Description: in.Description, Order: in.Order}
}

func materialInput(in learnsdk.MaterialInput) service.MaterialInput {
	return service.MaterialInput{Title: in.Title, URL: in.URL, Kind: in.Kind}
}

func classInput(in learnsdk.ClassInput) service.ClassInput {
	return service.ClassInput{Title: in.Title, VideoURL: in.VideoURL, Duration: in.Duration}
}

// ============================================================================
// Courses
// ============================================================================

// HandleCreateCourse handles POST /courses/create.
func (h *AuthoringHandler) HandleCreateCourse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req learnsdk.CourseInput
	if !decode(w, r, &req) {
		return
	}

	c, err := h.CourseService.CreateCourse(ctx, httpx.UserIDFromContext(ctx), courseInput(req))
	if err != nil {
		writeServiceError(w, slogx.FromContext(ctx), err)
		return
	}
	slogx.FromContext(ctx).Info("course created", "course_id", c.ID)
	httpx.WriteJSON(w, http.StatusCreated, ok(toCourse(c)))
}

// HandleUpdateCourse handles PUT /courses/update/{courseId}.
func (h *AuthoringHandler) HandleUpdateCourse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req learnsdk.CourseInput
	if !decode(w, r, &req) {
		return
	}

	c, err := h.CourseService.UpdateCourse(ctx, httpx.UserIDFromContext(ctx), r.PathValue("courseId"), courseInput(req))
	if err != nil {
		writeServiceError(w, slogx.FromContext(ctx), err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ok(toCourse(c)))
}

// HandleDeleteCourse handles DELETE /courses/delete/{courseId}.
func (h *AuthoringHandler) HandleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.CourseService.DeleteCourse(ctx, httpx.UserIDFromContext(ctx), r.PathValue("courseId")); err != nil {
		writeServiceError(w, slogx.FromContext(ctx), err)
		return
	}
	deleted(w, "Course deleted")
}

// ============================================================================
// Modules
// ============================================================================

// HandleCreateModule handles POST /content/createModule.
func (h *AuthoringHandler) HandleCreateModule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req learnsdk.CreateModuleBody
	if !decode(w, r, &req) {
		return
	}

	m, err := h.CourseService.CreateModule(ctx, httpx.UserIDFromContext(ctx), req.CourseID, moduleInput(req.ModuleInput))
	if err != nil {
		writeServiceError(w, slogx.FromContext(ctx), err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, ok(toModule(m)))
}

// HandleUpdateModule handles PUT /content/updateModule/{moduleId}.
func (h *AuthoringHandler) HandleUpdateModule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req learnsdk.ModuleInput
	if !decode(w, r, &req) {
		return
	}

	m, err := h.CourseService.UpdateModule(ctx, httpx.UserIDFromContext(ctx), r.PathValue("moduleId"), moduleInput(req))
	if err != nil {
		writeServiceError(w, slogx.FromContext(ctx), err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ok(toModule(m)))
}

// HandleDeleteModule handles DELETE /content/module/{moduleId}.
func (h *AuthoringHandler) HandleDeleteModule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.CourseService.DeleteModule(ctx, httpx.UserIDFromContext(ctx), r.PathValue("moduleId")); err != nil {
		writeServiceError(w, slogx.FromContext(ctx), err)
		return
	}
	deleted(w, "Module deleted")
}

// ============================================================================
// Study materials
// ============================================================================

// HandleUploadMaterial handles POST /content/uploadStudyMaterial.
func (h *AuthoringHandler) HandleUploadMaterial(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req learnsdk.UploadMaterialBody
	if !decode(w, r, &req) {
		return
	}

	m, err := h.CourseService.AddMaterial(ctx, httpx.UserIDFromContext(ctx), req.ModuleID, materialInput(req.MaterialData))
	if err != nil {
		writeServiceError(w, slogx.FromContext(ctx), err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, ok(toMaterial(m)))
}

// HandleUpdateMaterial handles PUT /content/updateStudymaterial/{materialId}.
func (h *AuthoringHandler) HandleUpdateMaterial(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req learnsdk.MaterialInput
	if !decode(w, r, &req) {
		return
	}

	m, err := h.CourseService.UpdateMaterial(ctx, httpx.UserIDFromContext(ctx), r.PathValue("materialId"), materialInput(req))
	if err != nil {
		writeServiceError(w, slogx.FromContext(ctx), err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ok(toMaterial(m)))
}

// HandleDeleteMaterial handles DELETE /content/deleteStudyMaterial/{materialId}.
func (h *AuthoringHandler) HandleDeleteMaterial(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.CourseService.DeleteMaterial(ctx, httpx.UserIDFromContext(ctx), r.PathValue("materialId")); err != nil {
		writeServiceError(w, slogx.FromContext(ctx), err)
		return
	}
	deleted(w, "Study material deleted")
}

// ============================================================================
// Classes
// ============================================================================

// HandleCreateClass handles POST /content/{moduleId}.
func (h *AuthoringHandler) HandleCreateClass(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req learnsdk.ClassInput
	if !decode(w, r, &req) {
		return
	}

	c, err := h.CourseService.CreateClass(ctx, httpx.UserIDFromContext(ctx), r.PathValue("moduleId"), classInput(req))
	if err != nil {
		writeServiceError(w, slogx.FromContext(ctx), err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, ok(toClass(c)))
}

// HandleUpdateClass handles PUT /content/class/{classId}.
func (h *AuthoringHandler) HandleUpdateClass(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req learnsdk.ClassInput
	if !decode(w, r, &req) {
		return
	}

	c, err := h.CourseService.UpdateClass(ctx, httpx.UserIDFromContext(ctx), r.PathValue("classId"), classInput(req))
	if err != nil {
		writeServiceError(w, slogx.FromContext(ctx), err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ok(toClass(c)))
}

// HandleDeleteClass handles DELETE /content/deleteClass/{classId}.
func (h *AuthoringHandler) HandleDeleteClass(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.CourseService.DeleteClass(ctx, httpx.UserIDFromContext(ctx), r.PathValue("classId")); err != nil {
		writeServiceError(w, slogx.FromContext(ctx), err)
		return
	}
	deleted(w, "Class deleted")
}
