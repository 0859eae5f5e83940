package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultAPIBase = "https://api.telegram.org"
	sendTimeout    = 5 * time.Second
)

// Notifier posts shop events to an admin chat through the Telegram Bot API.
// A nil *Notifier, or one built without a token, silently drops messages.
type Notifier struct {
	chatID string
	client *resty.Client
	logger *zap.Logger
}

// NewNotifier returns nil when token or chatID is empty.
func NewNotifier(token, chatID string, logger *zap.Logger) *Notifier {
	return newNotifier(defaultAPIBase, token, chatID, sendTimeout, logger)
}

func newNotifier(apiBase, token, chatID string, timeout time.Duration, logger *zap.Logger) *Notifier {
	if token == "" || chatID == "" {
		return nil
	}
	return &Notifier{
		chatID: chatID,
		client: resty.New().
			SetBaseURL(strings.TrimRight(apiBase, "/") + "/bot" + token).
			SetTimeout(timeout),
		logger: logger,
	}
}

type apiResult struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// SendMessage sends an HTML-formatted text message to the admin chat.
func (n *Notifier) SendMessage(ctx context.Context, text string) error {
	if n == nil {
		return nil
	}
	resp, err := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]interface{}{
			"chat_id":    n.chatID,
			"text":       text,
			"parse_mode": "HTML",
		}).
		Post("/sendMessage")
	if err != nil {
		return fmt.Errorf("telegram sendMessage failed: %w", err)
	}

	var result apiResult
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return fmt.Errorf("telegram sendMessage: unexpected response (%d)", resp.StatusCode())
	}
	if !result.OK {
		return fmt.Errorf("telegram sendMessage: %s", result.Description)
	}
	return nil
}

// OrderPlaced reports a new order. Errors are logged, never returned.
func (n *Notifier) OrderPlaced(ctx context.Context, orderNumber, customer string, total decimal.Decimal, method string) {
	n.notify(ctx, fmt.Sprintf(
		"🛒 <b>New order</b>\nOrder: %s\nCustomer: %s\nTotal: %s\nPayment: %s",
		html.EscapeString(orderNumber), html.EscapeString(customer), total.StringFixed(2), html.EscapeString(method),
	))
}

// PaymentReceived reports a gateway-confirmed payment.
func (n *Notifier) PaymentReceived(ctx context.Context, orderNumber, tranID string, amount decimal.Decimal, cardType string) {
	n.notify(ctx, fmt.Sprintf(
		"💵 <b>Payment received</b>\nOrder: %s\nTransaction: %s\nAmount: %s\nCard: %s",
		html.EscapeString(orderNumber), html.EscapeString(tranID), amount.StringFixed(2), html.EscapeString(cardType),
	))
}

// OrderCancelled reports a cancellation.
func (n *Notifier) OrderCancelled(ctx context.Context, orderNumber string) {
	n.notify(ctx, fmt.Sprintf("❌ <b>Order cancelled</b>\nOrder: %s", html.EscapeString(orderNumber)))
}

func (n *Notifier) notify(ctx context.Context, text string) {
	if n == nil {
		return
	}
	if err := n.SendMessage(ctx, text); err != nil {
		n.logger.Warn("Admin notification failed", zap.Error(err))
	}
}
