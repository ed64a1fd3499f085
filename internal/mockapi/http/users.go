package http

import (
	"net/http"

	"github.com/aussiebroadwan/learnhub/internal/mockapi/service"
	"github.com/aussiebroadwan/learnhub/internal/mockapi/store"
	"github.com/aussiebroadwan/learnhub/pkg/httpx"
	"github.com/aussiebroadwan/learnhub/pkg/learnsdk"
	"github.com/aussiebroadwan/learnhub/pkg/slogx"
)

type UserHandler struct {
	AuthService *service.AuthService
	Store       *store.Memory
}

// HandleGetProfile handles GET /users/getprofile.
func (h *UserHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	u, err := h.Store.GetUserByID(ctx, httpx.UserIDFromContext(ctx))
	if err != nil {
		writeServiceError(w, slogx.FromContext(ctx), err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ok(toUser(u)))
}

// HandleUpdateProfile handles PUT /users/updateprofile.
func (h *UserHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req learnsdk.ProfileUpdate
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	u, err := h.AuthService.UpdateProfile(ctx, httpx.UserIDFromContext(ctx), service.ProfileUpdate{
		Name:  req.Name,
		Phone: req.Phone,
		Pfp:   req.Pfp,
	})
	if err != nil {
		writeServiceError(w, slogx.FromContext(ctx), err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ok(toUser(u)))
}

// HandleRegisterEducator handles POST /educator/register.
func (h *UserHandler) HandleRegisterEducator(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req learnsdk.EducatorRegistration
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Bio == "" {
		httpx.WriteError(w, http.StatusBadRequest, "bio: is required")
		return
	}

	if _, err := h.AuthService.RegisterEducator(ctx, httpx.UserIDFromContext(ctx), req.Bio, req.Expertise); err != nil {
		writeServiceError(w, slogx.FromContext(ctx), err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, httpx.Envelope{Success: true, Message: "Educator registration complete"})
}
