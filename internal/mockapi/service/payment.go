package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/learnhub/internal/mockapi/domain"
	"github.com/aussiebroadwan/learnhub/internal/mockapi/store"
	"github.com/aussiebroadwan/learnhub/pkg/cryptox"
	"github.com/aussiebroadwan/learnhub/pkg/idx"
	"github.com/aussiebroadwan/learnhub/pkg/slogx"
)

var (
	ErrAmountMismatch   = errors.New("amount_mismatch")
	ErrAlreadyPurchased = errors.New("already_purchased")
	ErrBadSignature     = errors.New("invalid_signature")
	ErrOrderNotFound    = errors.New("order_not_found")
	ErrOrderUsed        = errors.New("order_already_paid")
)

// PaymentService plays both sides of a hosted payment gateway: it creates
// orders like the merchant backend and signs payments like the gateway.
type PaymentService struct {
	Store    *store.Memory
	Secret   string // shared gateway secret used for signatures
	KeyID    string // publishable key handed to the client widget
	Currency string
}

// CreateOrder opens an order for the full course price.
func (s *PaymentService) CreateOrder(ctx context.Context, userID, courseID string, amount int64) (domain.Order, error) {
	c, err := s.Store.GetCourse(ctx, courseID)
	if err != nil {
		return domain.Order{}, err
	}
	if amount != c.Price {
		return domain.Order{}, ErrAmountMismatch
	}
	if s.Store.HasPurchase(ctx, userID, courseID) {
		return domain.Order{}, ErrAlreadyPurchased
	}

	o := domain.Order{
		ID:        idx.NewPrefixed("order").String(),
		CourseID:  courseID,
		UserID:    userID,
		Amount:    amount,
		Currency:  s.Currency,
		Status:    domain.OrderCreated,
		CreatedAt: time.Now().UTC(),
	}
	s.Store.CreateOrder(ctx, o)
	return o, nil
}

// Pay simulates the gateway capturing an order and returns the signed result
// the widget would hand to the client.
func (s *PaymentService) Pay(ctx context.Context, orderID string) (paymentID, signature string, err error) {
	o, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return "", "", ErrOrderNotFound
	}
	if o.Status != domain.OrderCreated {
		return "", "", ErrOrderUsed
	}
	paymentID = idx.NewPrefixed("pay").String()
	return paymentID, Sign(s.Secret, orderID, paymentID), nil
}

// Verify checks the gateway signature and records the entitlement.
func (s *PaymentService) Verify(ctx context.Context, userID, courseID, orderID, paymentID, signature string) error {
	l := slogx.FromContext(ctx)

	o, err := s.Store.GetOrder(ctx, orderID)
	if err != nil || o.UserID != userID || (courseID != "" && o.CourseID != courseID) {
		return ErrOrderNotFound
	}
	if !cryptox.VerifyHMAC(s.Secret, orderID+"|"+paymentID, signature) {
		l.Warn("payment signature mismatch", slog.String("order_id", orderID))
		return ErrBadSignature
	}

	if _, err := s.Store.CompleteOrder(ctx, orderID, paymentID, time.Now().UTC()); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return ErrOrderUsed
		}
		return err
	}
	l.Info("purchase recorded", slog.String("order_id", orderID), slog.String("course_id", o.CourseID))
	return nil
}

// Sign produces the gateway signature for an order/payment pair.
func Sign(secret, orderID, paymentID string) string {
	return cryptox.SignHMAC(secret, orderID+"|"+paymentID)
}
