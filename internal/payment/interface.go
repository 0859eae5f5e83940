package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrGatewayRejected means the gateway answered but refused the session.
	ErrGatewayRejected = errors.New("payment gateway rejected the request")
	// ErrGatewayUnavailable covers transport failures and malformed replies.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)

// Customer carries the buyer and shipment fields a hosted checkout needs.
type Customer struct {
	Name    string
	Email   string
	Phone   string
	Address string
	City    string
	Country string
}

// InitRequest describes one hosted checkout session.
type InitRequest struct {
	TransactionID string
	Amount        decimal.Decimal
	Currency      string
	ProductName   string
	Customer      Customer
}

// InitResult contains the result of a session creation.
type InitResult struct {
	PaymentURL    string `json:"payment_url"`
	SessionKey    string `json:"session_key,omitempty"`
	FailedReason  string `json:"failed_reason,omitempty"`
	RawResponse   string `json:"-"`
	TransactionID string `json:"transaction_id"`
}

// Validation is the gateway's authoritative view of one transaction.
type Validation struct {
	Status        string
	TransactionID string
	ValidationID  string
	Amount        decimal.Decimal
	Currency      string
	CardType      string
	BankTranID    string
	RawResponse   string
}

// Valid reports whether the gateway settled the transaction.
func (v *Validation) Valid() bool {
	return v != nil && (v.Status == "VALID" || v.Status == "VALIDATED")
}

// Terminal reports a final unsuccessful state.
func (v *Validation) Terminal() bool {
	if v == nil {
		return false
	}
	switch v.Status {
	case "FAILED", "CANCELLED", "EXPIRED", "INVALID_TRANSACTION", "UNATTEMPTED":
		return true
	}
	return false
}

// Gateway defines the interface for payment gateway implementations.
type Gateway interface {
	// Name returns the gateway identifier stored on Payment rows.
	Name() string

	// InitiatePayment opens a hosted checkout session.
	InitiatePayment(ctx context.Context, req InitRequest) (*InitResult, error)

	// ValidatePayment confirms a success callback server-to-server.
	ValidatePayment(ctx context.Context, validationID string) (*Validation, error)

	// QueryTransaction looks a transaction up by merchant transaction id.
	// It returns nil, nil when the gateway has no record of it.
	QueryTransaction(ctx context.Context, transactionID string) (*Validation, error)
}
