package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"furnistore/internal/models"
	"furnistore/internal/testutil"
)

type recordingNotifier struct {
	placed    []string
	received  []string
	cancelled []string
}

func (n *recordingNotifier) OrderPlaced(_ context.Context, orderNumber, _ string, _ decimal.Decimal, _ string) {
	n.placed = append(n.placed, orderNumber)
}

func (n *recordingNotifier) PaymentReceived(_ context.Context, orderNumber, _ string, _ decimal.Decimal, _ string) {
	n.received = append(n.received, orderNumber)
}

func (n *recordingNotifier) OrderCancelled(_ context.Context, orderNumber string) {
	n.cancelled = append(n.cancelled, orderNumber)
}

func stockOf(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()
	var p models.Product
	require.NoError(t, db.First(&p, id).Error)
	return p.Stock
}

func newOrderService(t *testing.T) (*OrderService, *gorm.DB, *recordingNotifier) {
	db := testutil.NewDB(t)
	n := &recordingNotifier{}
	return NewOrderService(db, n, zap.NewNop()), db, n
}

func TestCalculateTotals(t *testing.T) {
	small := CalculateTotals(decimal.RequireFromString("100"))
	assert.Equal(t, "8.00", small.Tax.StringFixed(2))
	assert.Equal(t, "50.00", small.Shipping.StringFixed(2))
	assert.Equal(t, "158.00", small.Total.StringFixed(2))

	// exactly at the threshold still pays shipping
	edge := CalculateTotals(decimal.RequireFromString("500"))
	assert.Equal(t, "50.00", edge.Shipping.StringFixed(2))
	assert.Equal(t, "590.00", edge.Total.StringFixed(2))

	large := CalculateTotals(decimal.RequireFromString("1234.56"))
	assert.Equal(t, "98.76", large.Tax.StringFixed(2))
	assert.True(t, large.Shipping.IsZero())
	assert.Equal(t, "1333.32", large.Total.StringFixed(2))
}

func TestCreateOrderDecrementsStockAndSnapshotsPrices(t *testing.T) {
	svc, db, n := newOrderService(t)
	user := testutil.CreateUser(t, db, "buyer@test.io", models.RoleUser)
	sofa := testutil.CreateProduct(t, db, "Sofa", "300.00", 5)
	lamp := testutil.CreateProduct(t, db, "Lamp", "25.50", 10)

	order, err := svc.Create(context.Background(), user, models.CreateOrderRequest{
		Items: []models.OrderItemRequest{
			{ProductID: sofa.ID, Quantity: 2},
			{ProductID: lamp.ID, Quantity: 1},
		},
		PaymentMethod: models.MethodCOD,
	})
	require.NoError(t, err)

	assert.Equal(t, "625.50", order.Subtotal.StringFixed(2))
	assert.Equal(t, "50.04", order.Tax.StringFixed(2))
	assert.True(t, order.Shipping.IsZero())
	assert.Equal(t, "675.54", order.Total.StringFixed(2))
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, models.PaymentUnpaid, order.PaymentStatus)
	assert.Contains(t, order.OrderNumber, "ORD-")
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Sofa", order.Items[0].ProductName)

	// defaults come from the profile
	assert.Equal(t, user.Name, order.CustomerName)
	assert.Equal(t, user.Phone, order.CustomerPhone)
	assert.Equal(t, user.Address, order.ShippingAddress)

	assert.Equal(t, 3, stockOf(t, db, sofa.ID))
	assert.Equal(t, 9, stockOf(t, db, lamp.ID))
	assert.Equal(t, []string{order.OrderNumber}, n.placed)

	// later price changes do not touch the order
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", sofa.ID).Update("price", "999.00").Error)
	again, err := svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, "300.00", again.Items[0].Price.StringFixed(2))
}

func TestCreateOrderInsufficientStockRollsBack(t *testing.T) {
	svc, db, n := newOrderService(t)
	user := testutil.CreateUser(t, db, "buyer@test.io", models.RoleUser)
	chair := testutil.CreateProduct(t, db, "Chair", "40.00", 10)
	table := testutil.CreateProduct(t, db, "Table", "200.00", 1)

	_, err := svc.Create(context.Background(), user, models.CreateOrderRequest{
		Items: []models.OrderItemRequest{
			{ProductID: chair.ID, Quantity: 4},
			{ProductID: table.ID, Quantity: 2},
		},
		PaymentMethod: models.MethodOnline,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.Equal(t, "Insufficient stock for product: Table", err.Error())

	assert.Equal(t, 10, stockOf(t, db, chair.ID))
	assert.Equal(t, 1, stockOf(t, db, table.ID))

	var count int64
	require.NoError(t, db.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, n.placed)
}

func TestCreateOrderRejectsMissingAndInactiveProducts(t *testing.T) {
	svc, db, _ := newOrderService(t)
	user := testutil.CreateUser(t, db, "buyer@test.io", models.RoleUser)
	hidden := testutil.CreateProduct(t, db, "Hidden", "10.00", 10)
	require.NoError(t, db.Model(hidden).Update("is_active", false).Error)

	_, err := svc.Create(context.Background(), user, models.CreateOrderRequest{
		Items:         []models.OrderItemRequest{{ProductID: 9999, Quantity: 1}},
		PaymentMethod: models.MethodCOD,
	})
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = svc.Create(context.Background(), user, models.CreateOrderRequest{
		Items:         []models.OrderItemRequest{{ProductID: hidden.ID, Quantity: 1}},
		PaymentMethod: models.MethodCOD,
	})
	assert.ErrorIs(t, err, ErrProductUnavailable)
	assert.Equal(t, 10, stockOf(t, db, hidden.ID))
}

func TestCreateOrderRejectsMalformedItems(t *testing.T) {
	svc, db, _ := newOrderService(t)
	user := testutil.CreateUser(t, db, "buyer@test.io", models.RoleUser)
	chair := testutil.CreateProduct(t, db, "Chair", "50.00", 5)

	_, err := svc.Create(context.Background(), user, models.CreateOrderRequest{PaymentMethod: models.MethodCOD})
	assert.ErrorIs(t, err, ErrInvalidOrder)
	assert.NotErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.Create(context.Background(), user, models.CreateOrderRequest{
		Items:         []models.OrderItemRequest{{ProductID: chair.ID, Quantity: 2}, {ProductID: chair.ID, Quantity: 0}},
		PaymentMethod: models.MethodCOD,
	})
	assert.ErrorIs(t, err, ErrInvalidOrder)
	assert.Equal(t, 5, stockOf(t, db, chair.ID))
}

func TestCancelRestoresStockOnce(t *testing.T) {
	svc, db, n := newOrderService(t)
	user := testutil.CreateUser(t, db, "buyer@test.io", models.RoleUser)
	bed := testutil.CreateProduct(t, db, "Bed", "450.00", 3)

	order, err := svc.Create(context.Background(), user, models.CreateOrderRequest{
		Items:         []models.OrderItemRequest{{ProductID: bed.ID, Quantity: 2}},
		PaymentMethod: models.MethodCOD,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stockOf(t, db, bed.ID))

	cancelled, err := svc.Cancel(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, cancelled.Status)
	assert.Equal(t, 3, stockOf(t, db, bed.ID))

	_, err = svc.Cancel(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stockOf(t, db, bed.ID))
	assert.Len(t, n.cancelled, 1)
}

func TestCancelDeliveredOrderIsRejected(t *testing.T) {
	svc, db, _ := newOrderService(t)
	user := testutil.CreateUser(t, db, "buyer@test.io", models.RoleUser)
	desk := testutil.CreateProduct(t, db, "Desk", "120.00", 4)

	order, err := svc.Create(context.Background(), user, models.CreateOrderRequest{
		Items:         []models.OrderItemRequest{{ProductID: desk.ID, Quantity: 1}},
		PaymentMethod: models.MethodCOD,
	})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), order.ID, models.OrderDelivered)
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), order.ID)
	assert.ErrorIs(t, err, ErrCannotCancelDelivered)
	assert.Equal(t, 3, stockOf(t, db, desk.ID))

	_, err = svc.Cancel(context.Background(), 4242)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestAdminStatusUpdates(t *testing.T) {
	svc, db, _ := newOrderService(t)
	user := testutil.CreateUser(t, db, "buyer@test.io", models.RoleUser)
	shelf := testutil.CreateProduct(t, db, "Shelf", "80.00", 4)

	order, err := svc.Create(context.Background(), user, models.CreateOrderRequest{
		Items:         []models.OrderItemRequest{{ProductID: shelf.ID, Quantity: 1}},
		PaymentMethod: models.MethodCOD,
	})
	require.NoError(t, err)

	// any transition is allowed, including backwards
	updated, err := svc.UpdateStatus(context.Background(), order.ID, models.OrderShipped)
	require.NoError(t, err)
	assert.Equal(t, models.OrderShipped, updated.Status)
	updated, err = svc.UpdateStatus(context.Background(), order.ID, models.OrderPending)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, updated.Status)

	_, err = svc.UpdateStatus(context.Background(), order.ID, "lost")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	paid, err := svc.UpdatePaymentStatus(context.Background(), order.ID, models.PaymentPaid)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, paid.PaymentStatus)

	_, err = svc.UpdatePaymentStatus(context.Background(), 777, models.PaymentPaid)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOwnershipAndDelete(t *testing.T) {
	svc, db, _ := newOrderService(t)
	alice := testutil.CreateUser(t, db, "alice@test.io", models.RoleUser)
	bob := testutil.CreateUser(t, db, "bob@test.io", models.RoleUser)
	stool := testutil.CreateProduct(t, db, "Stool", "15.00", 10)

	order, err := svc.Create(context.Background(), alice, models.CreateOrderRequest{
		Items:         []models.OrderItemRequest{{ProductID: stool.ID, Quantity: 3}},
		PaymentMethod: models.MethodCOD,
	})
	require.NoError(t, err)

	_, err = svc.GetForUser(context.Background(), bob.ID, order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	mine, err := svc.ListForUser(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	require.NoError(t, svc.Delete(context.Background(), order.ID))
	_, err = svc.Get(context.Background(), order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	// deletion does not give stock back
	assert.Equal(t, 7, stockOf(t, db, stool.ID))

	assert.ErrorIs(t, svc.Delete(context.Background(), order.ID), ErrOrderNotFound)
}
