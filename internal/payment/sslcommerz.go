package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"furnistore/internal/pkg/httpclient"
)

const (
	sslcommerzSandboxURL = "https://sandbox.sslcommerz.com"
	sslcommerzLiveURL    = "https://securepay.sslcommerz.com"

	sslcommerzInitPath     = "/gwprocess/v4/api.php"
	sslcommerzValidatePath = "/validator/api/validationserverAPI.php"
	sslcommerzQueryPath    = "/validator/api/merchantTransIDvalidationAPI.php"
)

// SSLCommerzConfig holds store credentials and callback URLs.
type SSLCommerzConfig struct {
	StoreID       string
	StorePassword string
	Sandbox       bool
	BaseURL       string // overrides the sandbox/live host when set
	SuccessURL    string
	FailURL       string
	CancelURL     string
	Timeout       time.Duration
}

// SSLCommerzGateway implements the Gateway interface for SSLCommerz hosted checkout.
type SSLCommerzGateway struct {
	cfg    SSLCommerzConfig
	init   *httpclient.Client
	query  *httpclient.Client
	logger *zap.Logger
}

func NewSSLCommerzGateway(cfg SSLCommerzConfig, logger *zap.Logger) *SSLCommerzGateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	base := cfg.BaseURL
	if base == "" {
		base = sslcommerzLiveURL
		if cfg.Sandbox {
			base = sslcommerzSandboxURL
		}
	}
	return &SSLCommerzGateway{
		cfg:  cfg,
		init: httpclient.New().WithBaseURL(base).WithTimeout(cfg.Timeout),
		// validation and lookups are reads, safe to retry
		query:  httpclient.New().WithBaseURL(base).WithTimeout(cfg.Timeout).WithRetries(2, time.Second, 5*time.Second),
		logger: logger,
	}
}

func (g *SSLCommerzGateway) Name() string {
	return "sslcommerz"
}

type sslcommerzInitResponse struct {
	Status         string `json:"status"`
	FailedReason   string `json:"failedreason"`
	SessionKey     string `json:"sessionkey"`
	GatewayPageURL string `json:"GatewayPageURL"`
}

func (g *SSLCommerzGateway) InitiatePayment(ctx context.Context, req InitRequest) (*InitResult, error) {
	form := map[string]string{
		"store_id":         g.cfg.StoreID,
		"store_passwd":     g.cfg.StorePassword,
		"total_amount":     req.Amount.StringFixed(2),
		"currency":         req.Currency,
		"tran_id":          req.TransactionID,
		"success_url":      g.cfg.SuccessURL,
		"fail_url":         g.cfg.FailURL,
		"cancel_url":       g.cfg.CancelURL,
		"cus_name":         req.Customer.Name,
		"cus_email":        req.Customer.Email,
		"cus_phone":        req.Customer.Phone,
		"cus_add1":         req.Customer.Address,
		"cus_city":         req.Customer.City,
		"cus_country":      req.Customer.Country,
		"shipping_method":  "NO",
		"product_name":     req.ProductName,
		"product_category": "Furniture",
		"product_profile":  "general",
	}

	resp, err := g.init.PostForm(ctx, sslcommerzInitPath, form)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	g.logger.Info("SSLCommerz session response",
		zap.String("tran_id", req.TransactionID),
		zap.Int("status_code", resp.StatusCode),
	)
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: http %d", ErrGatewayUnavailable, resp.StatusCode)
	}

	var body sslcommerzInitResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("%w: decode session response: %v", ErrGatewayUnavailable, err)
	}

	result := &InitResult{
		PaymentURL:    body.GatewayPageURL,
		SessionKey:    body.SessionKey,
		FailedReason:  body.FailedReason,
		RawResponse:   string(resp.Body),
		TransactionID: req.TransactionID,
	}
	if body.GatewayPageURL == "" {
		if result.FailedReason == "" {
			result.FailedReason = "Unknown error"
		}
		return result, fmt.Errorf("%w: %s", ErrGatewayRejected, result.FailedReason)
	}
	return result, nil
}

func (g *SSLCommerzGateway) ValidatePayment(ctx context.Context, validationID string) (*Validation, error) {
	if validationID == "" {
		return &Validation{Status: "INVALID_TRANSACTION"}, nil
	}
	resp, err := g.query.Get(ctx, sslcommerzValidatePath, url.Values{
		"val_id":       {validationID},
		"store_id":     {g.cfg.StoreID},
		"store_passwd": {g.cfg.StorePassword},
		"v":            {"1"},
		"format":       {"json"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: validation http %d", ErrGatewayUnavailable, resp.StatusCode)
	}

	var body sslcommerzValidation
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("%w: decode validation: %v", ErrGatewayUnavailable, err)
	}
	v := body.toValidation()
	v.RawResponse = string(resp.Body)
	return v, nil
}

type sslcommerzValidation struct {
	Status     string `json:"status"`
	TranID     string `json:"tran_id"`
	ValID      string `json:"val_id"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
	CardType   string `json:"card_type"`
	BankTranID string `json:"bank_tran_id"`
}

func (s sslcommerzValidation) toValidation() *Validation {
	// an unparsable amount stays zero and fails the amount check downstream
	amount, _ := decimal.NewFromString(s.Amount)
	return &Validation{
		Status:        s.Status,
		TransactionID: s.TranID,
		ValidationID:  s.ValID,
		Amount:        amount,
		Currency:      s.Currency,
		CardType:      s.CardType,
		BankTranID:    s.BankTranID,
	}
}

type sslcommerzQueryResponse struct {
	APIConnect string                 `json:"APIConnect"`
	Element    []sslcommerzValidation `json:"element"`
}

func (g *SSLCommerzGateway) QueryTransaction(ctx context.Context, transactionID string) (*Validation, error) {
	resp, err := g.query.Get(ctx, sslcommerzQueryPath, url.Values{
		"tran_id":      {transactionID},
		"store_id":     {g.cfg.StoreID},
		"store_passwd": {g.cfg.StorePassword},
		"format":       {"json"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: query http %d", ErrGatewayUnavailable, resp.StatusCode)
	}

	var body sslcommerzQueryResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("%w: decode query: %v", ErrGatewayUnavailable, err)
	}
	if body.APIConnect != "" && body.APIConnect != "DONE" {
		return nil, fmt.Errorf("%w: api connect %s", ErrGatewayUnavailable, body.APIConnect)
	}
	if len(body.Element) == 0 {
		return nil, nil
	}

	// a settled attempt wins over earlier failed ones
	best := body.Element[0].toValidation()
	for _, el := range body.Element {
		if v := el.toValidation(); v.Valid() {
			best = v
			break
		}
	}
	best.RawResponse = string(resp.Body)
	return best, nil
}
