package learnsdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// PaymentProcessor is the external payment widget. Collect shows it for the
// order and returns once the user has paid.
type PaymentProcessor interface {
	Collect(ctx context.Context, order Order) (PaymentResult, error)
}

// ErrPaymentNotVerified means the backend rejected the payment signature.
var ErrPaymentNotVerified = errors.New("learnsdk: payment not verified")

// Checkout runs the purchase flow and keeps the AccessGate in sync with it.
type Checkout struct {
	sm        *SessionManager
	gate      *AccessGate
	processor PaymentProcessor
}

func NewCheckout(sm *SessionManager, gate *AccessGate, processor PaymentProcessor) *Checkout {
	return &Checkout{sm: sm, gate: gate, processor: processor}
}

type createOrderBody struct {
	CourseID string `json:"courseId"`
	Amount   int64  `json:"amount"`
	UserID   string `json:"userId"`
}

// CreateOrder asks the backend for a payment order. amount is in minor units.
func (c *Checkout) CreateOrder(ctx context.Context, courseID string, amount int64) (Order, error) {
	sess := c.sm.Current()
	if sess.User == nil {
		return Order{}, &AuthError{Kind: KindSessionExpired, Op: "payment.createOrder", Message: "sign in to purchase"}
	}

	var or orderResponse
	err := c.sm.Do(ctx, &Request{
		Op:     "payment.createOrder",
		Method: http.MethodPost,
		Path:   "/payment/createOrder",
		Body:   createOrderBody{CourseID: courseID, Amount: amount, UserID: sess.User.ID},
	}, &or)
	if err != nil {
		return Order{}, err
	}
	if !or.Success || or.Order.ID == "" {
		return Order{}, &APIError{Op: "payment.createOrder", StatusCode: http.StatusOK, Message: or.Message}
	}

	order := or.Order
	order.Key = or.Key
	if order.CourseID == "" {
		order.CourseID = courseID
	}
	return order, nil
}

type verifyBody struct {
	PaymentResult
	CourseID string `json:"courseId"`
}

// Verify forwards the widget's result to the backend. On success the gate's
// cached decision for the course is dropped and a fresh one returned.
func (c *Checkout) Verify(ctx context.Context, courseID string, res PaymentResult) (AccessDecision, error) {
	var env envelope
	err := c.sm.Do(ctx, &Request{
		Op:     "payment.verify",
		Method: http.MethodPost,
		Path:   "/payment/verify",
		Body:   verifyBody{PaymentResult: res, CourseID: courseID},
	}, &env)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest {
			return AccessDecision{}, fmt.Errorf("%w: %s", ErrPaymentNotVerified, apiErr.Message)
		}
		return AccessDecision{}, err
	}
	if !env.Success {
		return AccessDecision{}, fmt.Errorf("%w: %s", ErrPaymentNotVerified, env.Message)
	}

	c.sm.log.Info("payment verified", "course_id", courseID, "order_id", res.OrderID)
	return c.gate.OnPurchaseCompleted(ctx, courseID)
}

// Purchase chains CreateOrder, the payment widget and Verify.
func (c *Checkout) Purchase(ctx context.Context, courseID string, amount int64) (AccessDecision, error) {
	order, err := c.CreateOrder(ctx, courseID, amount)
	if err != nil {
		return AccessDecision{}, err
	}
	res, err := c.processor.Collect(ctx, order)
	if err != nil {
		return AccessDecision{}, fmt.Errorf("collect payment: %w", err)
	}
	return c.Verify(ctx, courseID, res)
}
