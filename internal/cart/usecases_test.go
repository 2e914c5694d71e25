package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/matheusmosca/marketplace/internal/apperr"
)

// MockRepository para testes que não precisam de banco real
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ListItems(ctx context.Context, userID uuid.UUID) ([]Item, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]Item), args.Error(1)
}

func (m *MockRepository) GetProductStock(ctx context.Context, productID uuid.UUID) (int, error) {
	args := m.Called(ctx, productID)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) MergeLine(ctx context.Context, userID, productID uuid.UUID, quantity, maxQuantity int) (*CartLine, error) {
	args := m.Called(ctx, userID, productID, quantity, maxQuantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CartLine), args.Error(1)
}

func (m *MockRepository) GetLineStock(ctx context.Context, userID, lineID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID, lineID)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) SetQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) (*CartLine, error) {
	args := m.Called(ctx, userID, lineID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CartLine), args.Error(1)
}

func (m *MockRepository) RemoveLine(ctx context.Context, userID, lineID uuid.UUID) error {
	return m.Called(ctx, userID, lineID).Error(0)
}

func (m *MockRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func intPtr(v int) *int { return &v }

func TestNewCart_Totals(t *testing.T) {
	cart := NewCart([]Item{
		{ProductName: "A", Price: decimal.RequireFromString("10.00"), Quantity: 2},
		{ProductName: "B", Price: decimal.RequireFromString("5.00"), Quantity: 1},
		{ProductName: "C", Price: decimal.RequireFromString("0.10"), Quantity: 3},
	})

	assert.Equal(t, 3, cart.Summary.ItemCount)
	assert.Equal(t, "20", cart.Items[0].Subtotal.String())
	assert.Equal(t, "0.3", cart.Items[2].Subtotal.String())
	assert.Equal(t, "25.30", cart.Summary.Total.StringFixed(2))
}

func TestNewCart_Empty(t *testing.T) {
	cart := NewCart(nil)

	assert.NotNil(t, cart.Items)
	assert.Equal(t, 0, cart.Summary.ItemCount)
	assert.True(t, cart.Summary.Total.IsZero())
}

func TestAddItem_DefaultsToOne(t *testing.T) {
	repo := new(MockRepository)
	ctx := context.Background()
	userID, productID := uuid.New(), uuid.New()

	repo.On("GetProductStock", ctx, productID).Return(5, nil)
	repo.On("MergeLine", ctx, userID, productID, 1, 5).
		Return(&CartLine{ProductID: productID, Quantity: 1}, nil)

	line, err := NewCartUseCase(repo).AddItem(ctx, userID, AddItemRequest{ProductID: productID})

	require.NoError(t, err)
	assert.Equal(t, 1, line.Quantity)
	repo.AssertExpectations(t)
}

func TestAddItem_Rejections(t *testing.T) {
	ctx := context.Background()
	userID, productID := uuid.New(), uuid.New()

	tests := []struct {
		name     string
		quantity int
		setup    func(*MockRepository)
		wantErr  error
		wantKind apperr.Kind
	}{
		{
			name: "product not active", quantity: 1,
			setup: func(r *MockRepository) {
				r.On("GetProductStock", ctx, productID).Return(0, ErrProductUnavailable)
			},
			wantErr: ErrProductUnavailable, wantKind: apperr.KindNotFound,
		},
		{
			name: "above stock", quantity: 6,
			setup: func(r *MockRepository) {
				r.On("GetProductStock", ctx, productID).Return(5, nil)
			},
			wantErr: ErrInsufficientStock, wantKind: apperr.KindValidation,
		},
		{
			name: "merged quantity above stock", quantity: 3,
			setup: func(r *MockRepository) {
				r.On("GetProductStock", ctx, productID).Return(5, nil)
				r.On("MergeLine", ctx, userID, productID, 3, 5).Return(nil, ErrExceedsStock)
			},
			wantErr: ErrExceedsStock, wantKind: apperr.KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			tt.setup(repo)

			_, err := NewCartUseCase(repo).AddItem(ctx, userID, AddItemRequest{ProductID: productID, Quantity: intPtr(tt.quantity)})

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantKind, apperr.KindOf(err))
		})
	}
}

func TestUpdateQuantity(t *testing.T) {
	ctx := context.Background()
	userID, lineID := uuid.New(), uuid.New()

	t.Run("within stock", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetLineStock", ctx, userID, lineID).Return(4, nil)
		repo.On("SetQuantity", ctx, userID, lineID, 4).Return(&CartLine{ID: lineID, Quantity: 4}, nil)

		line, err := NewCartUseCase(repo).UpdateQuantity(ctx, userID, lineID, 4)

		require.NoError(t, err)
		assert.Equal(t, 4, line.Quantity)
	})

	t.Run("above stock", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetLineStock", ctx, userID, lineID).Return(4, nil)

		_, err := NewCartUseCase(repo).UpdateQuantity(ctx, userID, lineID, 5)

		assert.ErrorIs(t, err, ErrExceedsStock)
		repo.AssertNotCalled(t, "SetQuantity", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("line of another user", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetLineStock", ctx, userID, lineID).Return(0, ErrLineNotFound)

		_, err := NewCartUseCase(repo).UpdateQuantity(ctx, userID, lineID, 1)

		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})
}

func TestGetCart(t *testing.T) {
	repo := new(MockRepository)
	ctx := context.Background()
	userID := uuid.New()

	repo.On("ListItems", ctx, userID).Return([]Item{
		{Price: decimal.RequireFromString("2.50"), Quantity: 4},
	}, nil)

	cart, err := NewCartUseCase(repo).GetCart(ctx, userID)

	require.NoError(t, err)
	assert.Equal(t, "10.00", cart.Summary.Total.StringFixed(2))
}
