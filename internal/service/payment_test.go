package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"

	"furnistore/internal/models"
	"furnistore/internal/payment"
	"furnistore/internal/testutil"
)

type fakeGateway struct {
	initResult  *payment.InitResult
	initErr     error
	lastInit    payment.InitRequest
	validation  *payment.Validation
	validateErr error
	queries     map[string]*payment.Validation
	onInit      func()
}

func (g *fakeGateway) Name() string { return "sslcommerz" }

func (g *fakeGateway) InitiatePayment(_ context.Context, req payment.InitRequest) (*payment.InitResult, error) {
	g.lastInit = req
	if g.onInit != nil {
		g.onInit()
	}
	if g.initErr != nil {
		return g.initResult, g.initErr
	}
	res := *g.initResult
	res.TransactionID = req.TransactionID
	return &res, nil
}

func (g *fakeGateway) ValidatePayment(_ context.Context, _ string) (*payment.Validation, error) {
	return g.validation, g.validateErr
}

func (g *fakeGateway) QueryTransaction(_ context.Context, tranID string) (*payment.Validation, error) {
	return g.queries[tranID], nil
}

type paymentFixture struct {
	db       *gorm.DB
	svc      *PaymentService
	gateway  *fakeGateway
	notifier *recordingNotifier
	user     *models.User
	order    *models.Order
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	db := testutil.NewDB(t)
	n := &recordingNotifier{}
	gw := &fakeGateway{
		initResult: &payment.InitResult{
			PaymentURL:  "https://sandbox.sslcommerz.com/EasyCheckOut/abc",
			SessionKey:  "SESSION123",
			RawResponse: `{"status":"SUCCESS"}`,
		},
		queries: map[string]*payment.Validation{},
	}
	user := testutil.CreateUser(t, db, "buyer@test.io", models.RoleUser)
	sofa := testutil.CreateProduct(t, db, "Sofa", "600.00", 5)

	orders := NewOrderService(db, nil, zap.NewNop())
	order, err := orders.Create(context.Background(), user, models.CreateOrderRequest{
		Items:         []models.OrderItemRequest{{ProductID: sofa.ID, Quantity: 1}},
		PaymentMethod: models.MethodOnline,
	})
	require.NoError(t, err)

	return &paymentFixture{
		db:       db,
		svc:      NewPaymentService(db, gw, n, zap.NewNop()),
		gateway:  gw,
		notifier: n,
		user:     user,
		order:    order,
	}
}

func (f *paymentFixture) initiate(t *testing.T) *InitiateResult {
	t.Helper()
	res, err := f.svc.Initiate(context.Background(), f.user, f.order.ID)
	require.NoError(t, err)
	return res
}

func (f *paymentFixture) reload(t *testing.T) (*models.Order, *models.Payment) {
	t.Helper()
	var order models.Order
	require.NoError(t, f.db.First(&order, f.order.ID).Error)
	var p models.Payment
	require.NoError(t, f.db.Where("order_id = ?", order.ID).Order("id DESC").First(&p).Error)
	return &order, &p
}

func (f *paymentFixture) validFor(tranID string) *payment.Validation {
	return &payment.Validation{
		Status:        "VALID",
		TransactionID: tranID,
		ValidationID:  "VAL-1",
		Amount:        f.order.Total,
		Currency:      "BDT",
		CardType:      "VISA-Dutch Bangla",
		RawResponse:   `{"status":"VALID"}`,
	}
}

func TestInitiateUsesStoredOrder(t *testing.T) {
	f := newPaymentFixture(t)
	res := f.initiate(t)

	assert.Equal(t, "https://sandbox.sslcommerz.com/EasyCheckOut/abc", res.PaymentURL)
	assert.Contains(t, res.TransactionID, "TRANS_"+f.order.OrderNumber+"_")

	req := f.gateway.lastInit
	assert.True(t, req.Amount.Equal(decimal.RequireFromString("648.00")))
	assert.Equal(t, "BDT", req.Currency)
	assert.Equal(t, "Order #"+f.order.OrderNumber, req.ProductName)
	assert.Equal(t, "buyer@test.io", req.Customer.Email)
	assert.Equal(t, "Bangladesh", req.Customer.Country)

	_, p := f.reload(t)
	assert.Equal(t, models.TxPending, p.Status)
	assert.Equal(t, "SESSION123", p.SessionKey)
	assert.Equal(t, "sslcommerz", p.PaymentMethod)
	assert.True(t, p.Amount.Equal(f.order.Total))
}

func TestInitiateRejectedMarksPaymentFailed(t *testing.T) {
	f := newPaymentFixture(t)
	f.gateway.initResult = &payment.InitResult{FailedReason: "Store Credential Error Or Store is De-active"}
	f.gateway.initErr = fmt.Errorf("%w: FAILED", payment.ErrGatewayRejected)

	_, err := f.svc.Initiate(context.Background(), f.user, f.order.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPaymentRejected)
	var gwErr *GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, "Store Credential Error Or Store is De-active", gwErr.Reason)

	_, p := f.reload(t)
	assert.Equal(t, models.TxFailed, p.Status)

	f.gateway.initResult = nil
	f.gateway.initErr = fmt.Errorf("%w: dial tcp: timeout", payment.ErrGatewayUnavailable)
	_, err = f.svc.Initiate(context.Background(), f.user, f.order.ID)
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
}

func TestInitiateFailureLogsLostPaymentUpdate(t *testing.T) {
	f := newPaymentFixture(t)
	core, logs := observer.New(zap.WarnLevel)
	f.svc.logger = zap.New(core)
	f.gateway.initErr = fmt.Errorf("%w: dial tcp: timeout", payment.ErrGatewayUnavailable)
	f.gateway.onInit = func() {
		require.NoError(t, f.db.Migrator().DropTable(&models.Payment{}))
	}

	_, err := f.svc.Initiate(context.Background(), f.user, f.order.ID)
	assert.ErrorIs(t, err, ErrGatewayUnavailable)

	lost := logs.FilterMessage("Failed to mark payment failed").All()
	require.Len(t, lost, 1)
	assert.Equal(t, f.gateway.lastInit.TransactionID, lost[0].ContextMap()["tran_id"])
}

func TestInitiateGuards(t *testing.T) {
	f := newPaymentFixture(t)
	stranger := testutil.CreateUser(t, f.db, "stranger@test.io", models.RoleUser)
	_, err := f.svc.Initiate(context.Background(), stranger, f.order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	admin := testutil.CreateUser(t, f.db, "admin@test.io", models.RoleAdmin)
	_, err = f.svc.Initiate(context.Background(), admin, f.order.ID)
	require.NoError(t, err)
	// the customer block belongs to the order owner, not the caller
	assert.Equal(t, "buyer@test.io", f.gateway.lastInit.Customer.Email)

	require.NoError(t, f.db.Model(&models.Order{}).Where("id = ?", f.order.ID).
		Update("payment_status", models.PaymentPaid).Error)
	_, err = f.svc.Initiate(context.Background(), f.user, f.order.ID)
	assert.ErrorIs(t, err, ErrAlreadyPaid)

	require.NoError(t, f.db.Model(&models.Order{}).Where("id = ?", f.order.ID).
		Updates(map[string]interface{}{"payment_status": models.PaymentUnpaid, "status": models.OrderCancelled}).Error)
	_, err = f.svc.Initiate(context.Background(), f.user, f.order.ID)
	assert.ErrorIs(t, err, ErrOrderCancelled)
}

func TestHandleSuccessCompletesOnce(t *testing.T) {
	f := newPaymentFixture(t)
	res := f.initiate(t)
	f.gateway.validation = f.validFor(res.TransactionID)

	cb := SuccessCallback{TransactionID: res.TransactionID, ValidationID: "VAL-1", Amount: "648.00"}
	out, err := f.svc.HandleSuccess(context.Background(), cb)
	require.NoError(t, err)
	assert.Equal(t, f.order.OrderNumber, out.OrderNumber)
	assert.False(t, out.Duplicate)

	order, p := f.reload(t)
	assert.Equal(t, models.PaymentPaid, order.PaymentStatus)
	assert.Equal(t, models.OrderProcessing, order.Status)
	require.NotNil(t, order.TransactionID)
	assert.Equal(t, res.TransactionID, *order.TransactionID)
	assert.Equal(t, models.TxCompleted, p.Status)
	assert.Equal(t, "VAL-1", p.ValidationID)
	assert.Equal(t, "VISA-Dutch Bangla", p.CardType)

	again, err := f.svc.HandleSuccess(context.Background(), cb)
	require.NoError(t, err)
	assert.True(t, again.Duplicate)
	assert.Len(t, f.notifier.received, 1)
}

func TestHandleSuccessKeepsCancelledOrderStatus(t *testing.T) {
	f := newPaymentFixture(t)
	res := f.initiate(t)
	require.NoError(t, f.db.Model(&models.Order{}).Where("id = ?", f.order.ID).
		Update("status", models.OrderCancelled).Error)
	f.gateway.validation = f.validFor(res.TransactionID)

	_, err := f.svc.HandleSuccess(context.Background(), SuccessCallback{TransactionID: res.TransactionID, ValidationID: "VAL-1"})
	require.NoError(t, err)

	order, _ := f.reload(t)
	assert.Equal(t, models.PaymentPaid, order.PaymentStatus)
	assert.Equal(t, models.OrderCancelled, order.Status)
}

func TestHandleSuccessRejectsMismatchedValidation(t *testing.T) {
	cases := map[string]func(v *payment.Validation){
		"status":  func(v *payment.Validation) { v.Status = "INVALID_TRANSACTION" },
		"amount":  func(v *payment.Validation) { v.Amount = decimal.RequireFromString("1.00") },
		"tran_id": func(v *payment.Validation) { v.TransactionID = "TRANS_OTHER" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := newPaymentFixture(t)
			res := f.initiate(t)
			v := f.validFor(res.TransactionID)
			mutate(v)
			f.gateway.validation = v

			_, err := f.svc.HandleSuccess(context.Background(), SuccessCallback{TransactionID: res.TransactionID, ValidationID: "VAL-1"})
			assert.ErrorIs(t, err, ErrValidationFailed)

			order, p := f.reload(t)
			assert.Equal(t, models.PaymentUnpaid, order.PaymentStatus)
			assert.Equal(t, models.TxPending, p.Status)
		})
	}
}

func TestHandleSuccessUnknownTransaction(t *testing.T) {
	f := newPaymentFixture(t)
	_, err := f.svc.HandleSuccess(context.Background(), SuccessCallback{TransactionID: "TRANS_NOPE", ValidationID: "V"})
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	_, err = f.svc.HandleSuccess(context.Background(), SuccessCallback{TransactionID: "TRANS_NOPE"})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestHandleFailAndCancel(t *testing.T) {
	f := newPaymentFixture(t)
	res := f.initiate(t)

	out, err := f.svc.HandleFail(context.Background(), res.TransactionID, "card declined")
	require.NoError(t, err)
	assert.Equal(t, f.order.OrderNumber, out.OrderNumber)
	order, p := f.reload(t)
	assert.Equal(t, models.PaymentFailed, order.PaymentStatus)
	assert.Equal(t, models.TxFailed, p.Status)

	// a second attempt can be cancelled at the gateway
	res2 := f.initiate(t)
	_, err = f.svc.HandleCancel(context.Background(), res2.TransactionID)
	require.NoError(t, err)
	order, p = f.reload(t)
	assert.Equal(t, models.PaymentCancelled, order.PaymentStatus)
	assert.Equal(t, models.TxCancelled, p.Status)

	_, err = f.svc.HandleCancel(context.Background(), "TRANS_UNKNOWN")
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestFailCallbackDoesNotUnpayOrder(t *testing.T) {
	f := newPaymentFixture(t)
	first := f.initiate(t)
	second := f.initiate(t)
	require.NotEqual(t, first.TransactionID, second.TransactionID)

	f.gateway.validation = f.validFor(first.TransactionID)
	_, err := f.svc.HandleSuccess(context.Background(), SuccessCallback{TransactionID: first.TransactionID, ValidationID: "VAL-1"})
	require.NoError(t, err)

	_, err = f.svc.HandleFail(context.Background(), second.TransactionID, "")
	require.NoError(t, err)

	order, _ := f.reload(t)
	assert.Equal(t, models.PaymentPaid, order.PaymentStatus)
}

func TestStatus(t *testing.T) {
	f := newPaymentFixture(t)
	view, err := f.svc.Status(context.Background(), f.user, f.order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentUnpaid, view.PaymentStatus)
	assert.Nil(t, view.Payment)

	res := f.initiate(t)
	view, err = f.svc.Status(context.Background(), f.user, f.order.ID)
	require.NoError(t, err)
	require.NotNil(t, view.Payment)
	assert.Equal(t, res.TransactionID, view.Payment.TransactionID)
	assert.Equal(t, f.order.OrderNumber, view.OrderNumber)
}

func TestReconcile(t *testing.T) {
	f := newPaymentFixture(t)
	settled := f.initiate(t)
	f.gateway.queries[settled.TransactionID] = f.validFor(settled.TransactionID)

	// nothing is old enough yet
	n, err := f.svc.Reconcile(context.Background(), 30*time.Minute, 50)
	require.NoError(t, err)
	assert.Zero(t, n)

	f.svc.now = func() time.Time { return time.Now().Add(time.Hour) }
	n, err = f.svc.Reconcile(context.Background(), 30*time.Minute, 50)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	order, p := f.reload(t)
	assert.Equal(t, models.PaymentPaid, order.PaymentStatus)
	assert.Equal(t, models.TxCompleted, p.Status)
	assert.Len(t, f.notifier.received, 1)
}

func TestReconcileExpiresAbandonedPayments(t *testing.T) {
	f := newPaymentFixture(t)
	f.initiate(t)

	// unknown to the gateway but still young: left alone
	f.svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	n, err := f.svc.Reconcile(context.Background(), 30*time.Minute, 50)
	require.NoError(t, err)
	assert.Zero(t, n)

	f.svc.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	n, err = f.svc.Reconcile(context.Background(), 30*time.Minute, 50)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	order, p := f.reload(t)
	assert.Equal(t, models.TxFailed, p.Status)
	assert.Equal(t, models.PaymentFailed, order.PaymentStatus)
}

func TestReconcileExpiresPaymentsStuckAtGateway(t *testing.T) {
	cases := map[string]func(f *paymentFixture, tranID string) *payment.Validation{
		"amount mismatch": func(f *paymentFixture, tranID string) *payment.Validation {
			v := f.validFor(tranID)
			v.Amount = f.order.Total.Sub(decimal.NewFromInt(1))
			return v
		},
		"never terminal": func(f *paymentFixture, tranID string) *payment.Validation {
			v := f.validFor(tranID)
			v.Status = "PENDING"
			return v
		},
	}
	for name, query := range cases {
		t.Run(name, func(t *testing.T) {
			f := newPaymentFixture(t)
			res := f.initiate(t)
			f.gateway.queries[res.TransactionID] = query(f, res.TransactionID)

			f.svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
			n, err := f.svc.Reconcile(context.Background(), 30*time.Minute, 50)
			require.NoError(t, err)
			assert.Zero(t, n)
			_, p := f.reload(t)
			assert.Equal(t, models.TxPending, p.Status)

			f.svc.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
			n, err = f.svc.Reconcile(context.Background(), 30*time.Minute, 50)
			require.NoError(t, err)
			assert.Equal(t, 1, n)
			order, p := f.reload(t)
			assert.Equal(t, models.TxFailed, p.Status)
			assert.Equal(t, models.PaymentFailed, order.PaymentStatus)
			assert.Empty(t, f.notifier.received)
		})
	}
}
