package service

import (
	"context"

	"github.com/shopspring/decimal"
)

// Notifier receives shop events after they are committed.
type Notifier interface {
	OrderPlaced(ctx context.Context, orderNumber, customer string, total decimal.Decimal, method string)
	PaymentReceived(ctx context.Context, orderNumber, tranID string, amount decimal.Decimal, cardType string)
	OrderCancelled(ctx context.Context, orderNumber string)
}

type nopNotifier struct{}

func (nopNotifier) OrderPlaced(context.Context, string, string, decimal.Decimal, string)     {}
func (nopNotifier) PaymentReceived(context.Context, string, string, decimal.Decimal, string) {}
func (nopNotifier) OrderCancelled(context.Context, string)                                   {}

func orNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
