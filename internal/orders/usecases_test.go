package orders

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/matheusmosca/marketplace/internal/apperr"
	"github.com/matheusmosca/marketplace/internal/database"
	"github.com/matheusmosca/marketplace/internal/database/dbtest"
	"github.com/matheusmosca/marketplace/internal/httpx"
)

// MockRepository para testes que não precisam de banco real
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) BeginTx(ctx context.Context) (database.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(database.Tx), args.Error(1)
}

func (m *MockRepository) LockCartLines(ctx context.Context, tx database.Tx, buyerID uuid.UUID) ([]CartLine, error) {
	args := m.Called(ctx, tx, buyerID)
	lines, _ := args.Get(0).([]CartLine)
	return lines, args.Error(1)
}

func (m *MockRepository) ResolveAddress(ctx context.Context, tx database.Tx, buyerID uuid.UUID, addressID *uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, tx, buyerID, addressID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockRepository) InsertOrder(ctx context.Context, tx database.Tx, order *Order) error {
	return m.Called(ctx, tx, order).Error(0)
}

func (m *MockRepository) InsertItems(ctx context.Context, tx database.Tx, orderID uuid.UUID, lines []CartLine) error {
	return m.Called(ctx, tx, orderID, lines).Error(0)
}

func (m *MockRepository) DecrementStock(ctx context.Context, tx database.Tx, line CartLine) error {
	return m.Called(ctx, tx, line).Error(0)
}

func (m *MockRepository) ClearCart(ctx context.Context, tx database.Tx, buyerID uuid.UUID) error {
	return m.Called(ctx, tx, buyerID).Error(0)
}

func (m *MockRepository) AddOutboxEvent(ctx context.Context, tx database.Tx, event OutboxEvent) error {
	return m.Called(ctx, tx, event).Error(0)
}

func (m *MockRepository) ListOrders(ctx context.Context, buyerID uuid.UUID, f ListFilter) ([]Order, int64, error) {
	args := m.Called(ctx, buyerID, f)
	orders, _ := args.Get(0).([]Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *MockRepository) GetOrder(ctx context.Context, buyerID, orderID uuid.UUID) (*Order, error) {
	args := m.Called(ctx, buyerID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) ListItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]OrderItem)
	return items, args.Error(1)
}

type recordingCache struct {
	deleted []uuid.UUID
}

func (c *recordingCache) Delete(_ context.Context, ids ...uuid.UUID) error {
	c.deleted = append(c.deleted, ids...)
	return nil
}

var writeMethods = []string{"ResolveAddress", "InsertOrder", "InsertItems", "DecrementStock", "ClearCart", "AddOutboxEvent"}

func assertNoWrites(t *testing.T, repo *MockRepository) {
	t.Helper()
	for _, method := range writeMethods {
		for _, call := range repo.Calls {
			assert.NotEqual(t, method, call.Method, "unexpected call to %s", method)
		}
	}
}

func newTestUseCase(t *testing.T, repo Repository, cache ProductInvalidator) *OrderUseCase {
	t.Helper()
	uc, err := NewOrderUseCase(repo, cache, Pricing{
		ShippingFee: decimal.RequireFromString("50.00"),
		TaxRate:     decimal.RequireFromString("0.12"),
	})
	require.NoError(t, err)
	return uc
}

func sampleLines() []CartLine {
	return []CartLine{
		{ProductID: uuid.New(), SellerID: uuid.New(), ProductName: "Tomato", Quantity: 2, UnitPrice: decimal.RequireFromString("10.00"), Stock: 5},
		{ProductID: uuid.New(), SellerID: uuid.New(), ProductName: "Basil", Quantity: 1, UnitPrice: decimal.RequireFromString("5.00"), Stock: 1},
	}
}

func TestPlaceOrder_Success(t *testing.T) {
	repo := new(MockRepository)
	cache := &recordingCache{}
	tx := dbtest.NewMockTx()
	buyerID, addressID, orderID := uuid.New(), uuid.New(), uuid.New()
	lines := sampleLines()

	repo.On("BeginTx", mock.Anything).Return(tx, nil)
	repo.On("LockCartLines", mock.Anything, tx, buyerID).Return(lines, nil)
	repo.On("ResolveAddress", mock.Anything, tx, buyerID, (*uuid.UUID)(nil)).Return(addressID, nil)
	repo.On("InsertOrder", mock.Anything, tx, mock.AnythingOfType("*orders.Order")).
		Run(func(args mock.Arguments) {
			o := args.Get(2).(*Order)
			o.ID = orderID
			o.Status = StatusPending
		}).
		Return(nil)
	repo.On("InsertItems", mock.Anything, tx, orderID, lines).Return(nil)
	for _, l := range lines {
		repo.On("DecrementStock", mock.Anything, tx, l).Return(nil).Once()
	}
	repo.On("ClearCart", mock.Anything, tx, buyerID).Return(nil)
	repo.On("AddOutboxEvent", mock.Anything, tx, mock.MatchedBy(func(e OutboxEvent) bool {
		return e.AggregateID == orderID && e.EventType == EventOrderPlaced && len(e.Payload) > 0
	})).Return(nil)

	uc := newTestUseCase(t, repo, cache)
	order, err := uc.PlaceOrder(context.Background(), buyerID, PlaceOrderRequest{PaymentMethod: " cod "})

	require.NoError(t, err)
	assert.Equal(t, orderID, order.ID)
	assert.Equal(t, "cod", order.PaymentMethod)
	assert.Equal(t, "25.00", order.TotalAmount.StringFixed(2))
	assert.Equal(t, "50.00", order.ShippingFee.StringFixed(2))
	assert.Equal(t, "3.00", order.TaxAmount.StringFixed(2))
	assert.Equal(t, "78.00", order.FinalAmount.StringFixed(2))
	assert.Equal(t, &addressID, order.ShippingAddressID)
	assert.NotEmpty(t, order.OrderNumber)

	require.Len(t, order.Items, 2)
	assert.Equal(t, "20.00", order.Items[0].TotalPrice.StringFixed(2))
	assert.True(t, order.Items[0].UnitPrice.Equal(lines[0].UnitPrice))

	assert.True(t, tx.Committed)
	tx.AssertNumberOfCalls(t, "Commit", 1)
	repo.AssertExpectations(t)
	assert.ElementsMatch(t, []uuid.UUID{lines[0].ProductID, lines[1].ProductID}, cache.deleted)
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	repo := new(MockRepository)
	cache := &recordingCache{}
	tx := dbtest.NewMockTx()
	buyerID := uuid.New()
	lines := sampleLines()
	lines[1].Quantity = 3

	repo.On("BeginTx", mock.Anything).Return(tx, nil)
	repo.On("LockCartLines", mock.Anything, tx, buyerID).Return(lines, nil)

	uc := newTestUseCase(t, repo, cache)
	order, err := uc.PlaceOrder(context.Background(), buyerID, PlaceOrderRequest{PaymentMethod: "cod"})

	assert.Nil(t, order)
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Basil", stockErr.ProductName)
	assert.Equal(t, 3, stockErr.Requested)
	assert.Equal(t, 1, stockErr.Available)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	assertNoWrites(t, repo)
	assert.False(t, tx.Committed)
	assert.True(t, tx.RolledBack)
	assert.Empty(t, cache.deleted)
}

func TestPlaceOrder_StockChangedDuringDecrement(t *testing.T) {
	repo := new(MockRepository)
	tx := dbtest.NewMockTx()
	buyerID, orderID := uuid.New(), uuid.New()
	lines := sampleLines()

	repo.On("BeginTx", mock.Anything).Return(tx, nil)
	repo.On("LockCartLines", mock.Anything, tx, buyerID).Return(lines, nil)
	repo.On("ResolveAddress", mock.Anything, tx, buyerID, (*uuid.UUID)(nil)).Return(uuid.New(), nil)
	repo.On("InsertOrder", mock.Anything, tx, mock.Anything).
		Run(func(args mock.Arguments) { args.Get(2).(*Order).ID = orderID }).
		Return(nil)
	repo.On("InsertItems", mock.Anything, tx, orderID, lines).Return(nil)
	repo.On("DecrementStock", mock.Anything, tx, lines[0]).
		Return(&InsufficientStockError{ProductID: lines[0].ProductID, ProductName: lines[0].ProductName})

	uc := newTestUseCase(t, repo, nil)
	_, err := uc.PlaceOrder(context.Background(), buyerID, PlaceOrderRequest{PaymentMethod: "cod"})

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	repo.AssertNotCalled(t, "ClearCart", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "AddOutboxEvent", mock.Anything, mock.Anything, mock.Anything)
	assert.False(t, tx.Committed)
	assert.True(t, tx.RolledBack)
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	repo := new(MockRepository)
	tx := dbtest.NewMockTx()
	buyerID := uuid.New()

	repo.On("BeginTx", mock.Anything).Return(tx, nil)
	repo.On("LockCartLines", mock.Anything, tx, buyerID).Return(nil, nil)

	uc := newTestUseCase(t, repo, nil)
	_, err := uc.PlaceOrder(context.Background(), buyerID, PlaceOrderRequest{PaymentMethod: "cod"})

	assert.True(t, errors.Is(err, ErrEmptyCart))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assertNoWrites(t, repo)
	assert.False(t, tx.Committed)
}

func TestPlaceOrder_PaymentMethodRequired(t *testing.T) {
	repo := new(MockRepository)

	uc := newTestUseCase(t, repo, nil)
	_, err := uc.PlaceOrder(context.Background(), uuid.New(), PlaceOrderRequest{PaymentMethod: "  "})

	assert.ErrorIs(t, err, ErrPaymentMethodRequired)
	repo.AssertNotCalled(t, "BeginTx", mock.Anything)
}

func TestPlaceOrder_ForeignAddress(t *testing.T) {
	repo := new(MockRepository)
	tx := dbtest.NewMockTx()
	buyerID, foreign := uuid.New(), uuid.New()

	repo.On("BeginTx", mock.Anything).Return(tx, nil)
	repo.On("LockCartLines", mock.Anything, tx, buyerID).Return(sampleLines(), nil)
	repo.On("ResolveAddress", mock.Anything, tx, buyerID, &foreign).Return(uuid.Nil, ErrAddressNotFound)

	uc := newTestUseCase(t, repo, nil)
	_, err := uc.PlaceOrder(context.Background(), buyerID, PlaceOrderRequest{PaymentMethod: "cod", ShippingAddressID: &foreign})

	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	repo.AssertNotCalled(t, "InsertOrder", mock.Anything, mock.Anything, mock.Anything)
	assert.False(t, tx.Committed)
}

func TestPlaceOrder_RegeneratesOrderNumberOnCollision(t *testing.T) {
	repo := new(MockRepository)
	tx := dbtest.NewMockTx()
	buyerID, orderID := uuid.New(), uuid.New()
	lines := sampleLines()

	var tried []string
	repo.On("BeginTx", mock.Anything).Return(tx, nil)
	repo.On("LockCartLines", mock.Anything, tx, buyerID).Return(lines, nil)
	repo.On("ResolveAddress", mock.Anything, tx, buyerID, (*uuid.UUID)(nil)).Return(uuid.New(), nil)
	repo.On("InsertOrder", mock.Anything, tx, mock.Anything).
		Run(func(args mock.Arguments) { tried = append(tried, args.Get(2).(*Order).OrderNumber) }).
		Return(ErrOrderNumberTaken).Twice()
	repo.On("InsertOrder", mock.Anything, tx, mock.Anything).
		Run(func(args mock.Arguments) {
			o := args.Get(2).(*Order)
			tried = append(tried, o.OrderNumber)
			o.ID = orderID
		}).
		Return(nil).Once()
	repo.On("InsertItems", mock.Anything, tx, orderID, lines).Return(nil)
	repo.On("DecrementStock", mock.Anything, tx, mock.Anything).Return(nil)
	repo.On("ClearCart", mock.Anything, tx, buyerID).Return(nil)
	repo.On("AddOutboxEvent", mock.Anything, tx, mock.Anything).Return(nil)

	uc := newTestUseCase(t, repo, nil)
	seq := 0
	uc.newNumber = func(time.Time) string {
		seq++
		return fmt.Sprintf("PM-TEST-%05d", seq)
	}

	order, err := uc.PlaceOrder(context.Background(), buyerID, PlaceOrderRequest{PaymentMethod: "cod"})

	require.NoError(t, err)
	assert.Equal(t, []string{"PM-TEST-00001", "PM-TEST-00002", "PM-TEST-00003"}, tried)
	assert.Equal(t, "PM-TEST-00003", order.OrderNumber)
	assert.True(t, tx.Committed)
}

func TestPlaceOrder_OrderNumberAttemptsExhausted(t *testing.T) {
	repo := new(MockRepository)
	tx := dbtest.NewMockTx()
	buyerID := uuid.New()

	repo.On("BeginTx", mock.Anything).Return(tx, nil)
	repo.On("LockCartLines", mock.Anything, tx, buyerID).Return(sampleLines(), nil)
	repo.On("ResolveAddress", mock.Anything, tx, buyerID, (*uuid.UUID)(nil)).Return(uuid.New(), nil)
	repo.On("InsertOrder", mock.Anything, tx, mock.Anything).Return(ErrOrderNumberTaken)

	uc := newTestUseCase(t, repo, nil)
	_, err := uc.PlaceOrder(context.Background(), buyerID, PlaceOrderRequest{PaymentMethod: "cod"})

	assert.ErrorIs(t, err, ErrOrderNumberExhaust)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	repo.AssertNumberOfCalls(t, "InsertOrder", maxOrderNumberAttempts)
	repo.AssertNotCalled(t, "InsertItems", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.False(t, tx.Committed)
}

func TestPlaceOrder_CommitFailure(t *testing.T) {
	repo := new(MockRepository)
	cache := &recordingCache{}
	tx := &dbtest.MockTx{}
	tx.On("Commit").Return(errors.New("connection reset"))
	tx.On("Rollback").Return(nil)
	buyerID := uuid.New()

	repo.On("BeginTx", mock.Anything).Return(tx, nil)
	repo.On("LockCartLines", mock.Anything, tx, buyerID).Return(sampleLines(), nil)
	repo.On("ResolveAddress", mock.Anything, tx, buyerID, (*uuid.UUID)(nil)).Return(uuid.New(), nil)
	repo.On("InsertOrder", mock.Anything, tx, mock.Anything).Return(nil)
	repo.On("InsertItems", mock.Anything, tx, mock.Anything, mock.Anything).Return(nil)
	repo.On("DecrementStock", mock.Anything, tx, mock.Anything).Return(nil)
	repo.On("ClearCart", mock.Anything, tx, buyerID).Return(nil)
	repo.On("AddOutboxEvent", mock.Anything, tx, mock.Anything).Return(nil)

	uc := newTestUseCase(t, repo, cache)
	_, err := uc.PlaceOrder(context.Background(), buyerID, PlaceOrderRequest{PaymentMethod: "cod"})

	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.Empty(t, cache.deleted)
}

func TestListOrders_InvalidStatus(t *testing.T) {
	repo := new(MockRepository)

	uc := newTestUseCase(t, repo, nil)
	_, _, err := uc.ListOrders(context.Background(), uuid.New(), ListFilter{Status: "lost", Page: httpx.Page{Page: 1, Limit: 10}})

	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	repo.AssertNotCalled(t, "ListOrders", mock.Anything, mock.Anything, mock.Anything)
}

func TestListOrders(t *testing.T) {
	repo := new(MockRepository)
	buyerID := uuid.New()
	f := ListFilter{Status: StatusShipped, Page: httpx.Page{Page: 2, Limit: 5}}
	repo.On("ListOrders", mock.Anything, buyerID, f).Return([]Order{{ID: uuid.New()}}, int64(6), nil)

	uc := newTestUseCase(t, repo, nil)
	orders, total, err := uc.ListOrders(context.Background(), buyerID, f)

	require.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.Equal(t, int64(6), total)
}

func TestGetOrder(t *testing.T) {
	repo := new(MockRepository)
	buyerID, orderID := uuid.New(), uuid.New()
	repo.On("GetOrder", mock.Anything, buyerID, orderID).Return(&Order{ID: orderID}, nil)
	repo.On("ListItems", mock.Anything, orderID).Return([]OrderItem{{ProductName: "Tomato"}, {ProductName: "Basil"}}, nil)

	uc := newTestUseCase(t, repo, nil)
	order, err := uc.GetOrder(context.Background(), buyerID, orderID)

	require.NoError(t, err)
	assert.Len(t, order.Items, 2)
	assert.Equal(t, 2, order.ItemCount)
}

func TestGetOrder_OtherBuyer(t *testing.T) {
	repo := new(MockRepository)
	buyerID, orderID := uuid.New(), uuid.New()
	repo.On("GetOrder", mock.Anything, buyerID, orderID).Return(nil, ErrOrderNotFound)

	uc := newTestUseCase(t, repo, nil)
	_, err := uc.GetOrder(context.Background(), buyerID, orderID)

	assert.ErrorIs(t, err, ErrOrderNotFound)
	repo.AssertNotCalled(t, "ListItems", mock.Anything, mock.Anything)
}
