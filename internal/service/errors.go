package service

import (
	"errors"
	"fmt"
)

// Errors returned by the services. Handlers map them to HTTP status codes.
var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrProductNotFound       = errors.New("product not found")
	ErrProductUnavailable    = errors.New("product is not available")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrInvalidOrder          = errors.New("invalid order")
	ErrInvalidStatus         = errors.New("invalid status")
	ErrCannotCancelDelivered = errors.New("cannot cancel delivered order")
	ErrAlreadyPaid           = errors.New("order has already been paid")
	ErrOrderCancelled        = errors.New("order has been cancelled")
	ErrPaymentNotFound       = errors.New("payment not found")
	ErrValidationFailed      = errors.New("payment validation failed")
	ErrPaymentRejected       = errors.New("payment initiation failed")
	ErrGatewayUnavailable    = errors.New("payment gateway unavailable")

	ErrEmailTaken         = errors.New("email has already been taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrUnauthenticated    = errors.New("unauthenticated")
)

// StockError names the product that ran out.
type StockError struct {
	ProductName string
}

func (e *StockError) Error() string {
	return "Insufficient stock for product: " + e.ProductName
}

func (e *StockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// GatewayError carries the reason a gateway refused to open a session.
type GatewayError struct {
	Reason string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment initiation failed: %s", e.Reason)
}

func (e *GatewayError) Is(target error) bool {
	return target == ErrPaymentRejected
}
