package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/learnhub/internal/mockapi/service"
	"github.com/aussiebroadwan/learnhub/pkg/httpx"
	"github.com/aussiebroadwan/learnhub/pkg/learnsdk"
	"github.com/aussiebroadwan/learnhub/pkg/slogx"
)

type PaymentHandler struct {
	PaymentService *service.PaymentService
}

type createOrderRequest struct {
	CourseID string `json:"courseId"`
	Amount   int64  `json:"amount"`
	UserID   string `json:"userId"`
}

// HandleCreateOrder handles POST /payment/createOrder. The userId in the body
// must match the token.
func (h *PaymentHandler) HandleCreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := httpx.UserIDFromContext(ctx)

	var req createOrderRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserID != "" && req.UserID != userID {
		httpx.WriteError(w, http.StatusForbidden, "userId does not match the signed-in user")
		return
	}

	o, err := h.PaymentService.CreateOrder(ctx, userID, req.CourseID, req.Amount)
	switch {
	case errors.Is(err, service.ErrAmountMismatch):
		httpx.WriteError(w, http.StatusBadRequest, "Amount does not match the course price")
		return
	case errors.Is(err, service.ErrAlreadyPurchased):
		httpx.WriteError(w, http.StatusConflict, "Course already purchased")
		return
	case err != nil:
		writeServiceError(w, slogx.FromContext(ctx), err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, orderResponse{
		Envelope: httpx.Envelope{Success: true},
		Order: learnsdk.Order{
			ID:       o.ID,
			Amount:   o.Amount,
			Currency: o.Currency,
			CourseID: o.CourseID,
		},
		Key: h.PaymentService.KeyID,
	})
}

type verifyRequest struct {
	PaymentID string `json:"paymentId"`
	OrderID   string `json:"orderId"`
	Signature string `json:"signature"`
	CourseID  string `json:"courseId"`
}

// HandleVerify handles POST /payment/verify. Any rejection is a 400 so the
// client can tell it apart from an auth failure.
func (h *PaymentHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req verifyRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := h.PaymentService.Verify(ctx, httpx.UserIDFromContext(ctx), req.CourseID, req.OrderID, req.PaymentID, req.Signature)
	switch {
	case errors.Is(err, service.ErrBadSignature),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrOrderUsed):
		httpx.WriteError(w, http.StatusBadRequest, "Payment verification failed: "+err.Error())
		return
	case err != nil:
		writeServiceError(w, slogx.FromContext(ctx), err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, httpx.Envelope{Success: true, Message: "Payment verified"})
}

type gatewayPayRequest struct {
	OrderID string `json:"orderId"`
}

// HandleGatewayPay handles POST /gateway/pay, the sandbox payment widget.
func (h *PaymentHandler) HandleGatewayPay(w http.ResponseWriter, r *http.Request) {
	var req gatewayPayRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	paymentID, sig, err := h.PaymentService.Pay(r.Context(), req.OrderID)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	httpx.WriteJSON(w, http.StatusOK, learnsdk.PaymentResult{
		PaymentID: paymentID,
		OrderID:   req.OrderID,
		Signature: sig,
	})
}
