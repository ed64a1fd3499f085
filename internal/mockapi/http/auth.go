package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/learnhub/internal/mockapi/service"
	"github.com/aussiebroadwan/learnhub/internal/mockapi/store"
	"github.com/aussiebroadwan/learnhub/pkg/httpx"
	"github.com/aussiebroadwan/learnhub/pkg/slogx"
)

type AuthHandler struct {
	AuthService *service.AuthService
	Store       *store.Memory
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type otpRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type refreshRequest struct {
	Token string `json:"token"`
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func writePair(w http.ResponseWriter, msg string, pair service.TokenPair) {
	httpx.WriteJSON(w, http.StatusOK, authResponse{
		Envelope:     httpx.Envelope{Success: true, Message: msg},
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// HandleLogin handles POST /auth/login.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	pair, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, service.ErrNotVerified):
		httpx.WriteError(w, http.StatusForbidden, "Please verify your email before logging in")
		return
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	case err != nil:
		writeServiceError(w, slogx.FromContext(r.Context()), err)
		return
	}
	writePair(w, "Login successful", pair)
}

// HandleSignup handles POST /auth/signup. No tokens are issued until the
// emailed code is verified.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := h.AuthService.Signup(r.Context(), req.Name, req.Email, req.Password)
	if errors.Is(err, service.ErrAccountExists) {
		httpx.WriteError(w, http.StatusConflict, "An account with this email already exists")
		return
	}
	if err != nil {
		writeServiceError(w, slogx.FromContext(r.Context()), err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, httpx.Envelope{Success: true, Message: "OTP sent to your email"})
}

// HandleVerifyOTP handles POST /otp/verify.
func (h *AuthHandler) HandleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	pair, err := h.AuthService.VerifyOTP(r.Context(), req.Email, req.OTP)
	if errors.Is(err, service.ErrInvalidOTP) {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid or expired OTP")
		return
	}
	if err != nil {
		writeServiceError(w, slogx.FromContext(r.Context()), err)
		return
	}
	writePair(w, "Email verified", pair)
}

// HandleRefresh handles POST /auth/refreshtoken. The presented refresh token
// is consumed; a second use fails.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	pair, err := h.AuthService.Refresh(r.Context(), req.Token)
	if errors.Is(err, service.ErrInvalidRefresh) {
		httpx.WriteError(w, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	}
	if err != nil {
		writeServiceError(w, slogx.FromContext(r.Context()), err)
		return
	}
	writePair(w, "Token refreshed", pair)
}

// HandleLogout handles POST /auth/logout. It always succeeds.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.AuthService.Logout(r.Context(), req.RefreshToken)
	httpx.WriteJSON(w, http.StatusOK, httpx.Envelope{Success: true, Message: "Logged out"})
}

// HandleValidate handles GET /auth/validate and GET /auth/profile.
func (h *AuthHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	u, err := h.Store.GetUserByID(ctx, httpx.UserIDFromContext(ctx))
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "Unknown user")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, userResponse{
		Envelope: httpx.Envelope{Success: true},
		User:     toUser(u),
	})
}
