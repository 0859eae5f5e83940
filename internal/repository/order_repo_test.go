package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"furnistore/internal/models"
	"furnistore/internal/testutil"
)

func makeOrder(t *testing.T, db *gorm.DB, user *models.User, product *models.Product, number, customer string, status models.OrderStatus, qty int) *models.Order {
	t.Helper()
	sub := product.Price.Mul(decimal.NewFromInt(int64(qty)))
	o := &models.Order{
		UserID:        user.ID,
		OrderNumber:   number,
		Subtotal:      sub,
		Tax:           decimal.Zero,
		Shipping:      decimal.Zero,
		Total:         sub,
		Status:        status,
		PaymentMethod: models.MethodCOD,
		PaymentStatus: models.PaymentUnpaid,
		CustomerName:  customer,
		Items: []models.OrderItem{{
			ProductID: product.ID, ProductName: product.Name, Price: product.Price,
			Quantity: qty, Subtotal: sub,
		}},
	}
	require.NoError(t, NewOrderRepository(db).Create(o))
	return o
}

func TestOrderFindAllFilters(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewOrderRepository(db)
	u := testutil.CreateUser(t, db, "buyer@test.io", models.RoleUser)
	p := testutil.CreateProduct(t, db, "Desk", "100.00", 50)

	makeOrder(t, db, u, p, "ORD-A", "Alice", models.OrderPending, 1)
	makeOrder(t, db, u, p, "ORD-B", "Bob", models.OrderShipped, 3)
	makeOrder(t, db, u, p, "ORD-C", "Carol", models.OrderPending, 2)

	all, total, err := repo.FindAll(OrderFilter{Status: "all"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, all, 3)

	pending, total, err := repo.FindAll(OrderFilter{Status: "pending"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, pending, 2)

	bob, _, err := repo.FindAll(OrderFilter{Search: "bob"})
	require.NoError(t, err)
	require.Len(t, bob, 1)
	assert.Equal(t, "ORD-B", bob[0].OrderNumber)
	require.NotNil(t, bob[0].User)
	assert.Len(t, bob[0].Items, 1)

	byTotal, _, err := repo.FindAll(OrderFilter{SortBy: "total", SortOrder: "desc"})
	require.NoError(t, err)
	assert.Equal(t, "ORD-B", byTotal[0].OrderNumber)
}

func TestOrderFindByUserScopesOwnership(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewOrderRepository(db)
	alice := testutil.CreateUser(t, db, "alice@test.io", models.RoleUser)
	bob := testutil.CreateUser(t, db, "bob@test.io", models.RoleUser)
	p := testutil.CreateProduct(t, db, "Chair", "50.00", 10)

	mine := makeOrder(t, db, alice, p, "ORD-1", "Alice", models.OrderPending, 1)
	makeOrder(t, db, bob, p, "ORD-2", "Bob", models.OrderPending, 1)

	orders, err := repo.FindByUser(alice.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "ORD-1", orders[0].OrderNumber)
	require.Len(t, orders[0].Items, 1)
	require.NotNil(t, orders[0].Items[0].Product)

	_, err = repo.FindByUserAndID(bob.ID, mine.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestOrderDeleteRemovesChildren(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewOrderRepository(db)
	u := testutil.CreateUser(t, db, "x@test.io", models.RoleUser)
	p := testutil.CreateProduct(t, db, "Shelf", "70.00", 10)
	o := makeOrder(t, db, u, p, "ORD-D", "X", models.OrderPending, 1)
	require.NoError(t, NewPaymentRepository(db).Create(&models.Payment{
		OrderID: o.ID, TransactionID: "TRANS_D", Amount: o.Total, Currency: "BDT", Status: models.TxPending,
	}))

	require.NoError(t, repo.Delete(o.ID))

	var items, payments int64
	db.Model(&models.OrderItem{}).Where("order_id = ?", o.ID).Count(&items)
	db.Model(&models.Payment{}).Where("order_id = ?", o.ID).Count(&payments)
	assert.Zero(t, items)
	assert.Zero(t, payments)
	assert.ErrorIs(t, repo.Delete(o.ID), gorm.ErrRecordNotFound)
}

func TestPaymentStaleAndLatest(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.CreateUser(t, db, "p@test.io", models.RoleUser)
	p := testutil.CreateProduct(t, db, "Rug", "30.00", 10)
	o := makeOrder(t, db, u, p, "ORD-P", "P", models.OrderPending, 1)
	repo := NewPaymentRepository(db)

	old := &models.Payment{OrderID: o.ID, TransactionID: "T1", Amount: o.Total, Currency: "BDT", Status: models.TxPending,
		CreatedAt: time.Now().Add(-2 * time.Hour)}
	fresh := &models.Payment{OrderID: o.ID, TransactionID: "T2", Amount: o.Total, Currency: "BDT", Status: models.TxPending}
	require.NoError(t, repo.Create(old))
	require.NoError(t, repo.Create(fresh))

	stale, err := repo.FindStalePending(time.Now().Add(-time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "T1", stale[0].TransactionID)

	latest, err := repo.LatestForOrder(o.ID)
	require.NoError(t, err)
	assert.Equal(t, "T2", latest.TransactionID)

	got, err := repo.FindByTransactionID("T1")
	require.NoError(t, err)
	assert.Equal(t, old.ID, got.ID)
}
