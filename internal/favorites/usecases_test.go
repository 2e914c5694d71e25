package favorites

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheusmosca/marketplace/internal/apperr"
	"github.com/matheusmosca/marketplace/internal/httpx"
)

type favoriteKey struct{ user, product uuid.UUID }

// memoryRepository guarda favoritos em memória, com a mesma semântica de conflito do banco
type memoryRepository struct {
	products  map[uuid.UUID]bool
	favorites map[favoriteKey]Favorite
	failWith  error
}

func newMemoryRepository(products ...uuid.UUID) *memoryRepository {
	repo := &memoryRepository{products: map[uuid.UUID]bool{}, favorites: map[favoriteKey]Favorite{}}
	for _, id := range products {
		repo.products[id] = true
	}
	return repo
}

func (m *memoryRepository) List(_ context.Context, userID uuid.UUID, page httpx.Page) ([]FavoriteProduct, int64, error) {
	out := make([]FavoriteProduct, 0)
	for k, f := range m.favorites {
		if k.user == userID {
			out = append(out, FavoriteProduct{FavoriteID: f.ID, ProductID: f.ProductID, FavoritedAt: f.CreatedAt})
		}
	}
	return out, int64(len(out)), nil
}

func (m *memoryRepository) ProductExists(_ context.Context, productID uuid.UUID) (bool, error) {
	if m.failWith != nil {
		return false, m.failWith
	}
	return m.products[productID], nil
}

func (m *memoryRepository) Insert(_ context.Context, userID, productID uuid.UUID) (*Favorite, error) {
	key := favoriteKey{userID, productID}
	if _, ok := m.favorites[key]; ok {
		return nil, ErrAlreadyFavorite
	}
	f := Favorite{ID: uuid.New(), UserID: userID, ProductID: productID, CreatedAt: time.Now()}
	m.favorites[key] = f
	return &f, nil
}

func (m *memoryRepository) Delete(_ context.Context, userID, productID uuid.UUID) (bool, error) {
	key := favoriteKey{userID, productID}
	if _, ok := m.favorites[key]; !ok {
		return false, nil
	}
	delete(m.favorites, key)
	return true, nil
}

func (m *memoryRepository) Exists(_ context.Context, userID, productID uuid.UUID) (bool, error) {
	_, ok := m.favorites[favoriteKey{userID, productID}]
	return ok, nil
}

func TestAdd(t *testing.T) {
	ctx := context.Background()
	userID, productID := uuid.New(), uuid.New()
	uc := NewFavoriteUseCase(newMemoryRepository(productID))

	favorite, err := uc.Add(ctx, userID, productID)
	require.NoError(t, err)
	assert.Equal(t, productID, favorite.ProductID)

	_, err = uc.Add(ctx, userID, productID)
	assert.ErrorIs(t, err, ErrAlreadyFavorite)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = uc.Add(ctx, userID, uuid.New())
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	userID, productID := uuid.New(), uuid.New()
	uc := NewFavoriteUseCase(newMemoryRepository(productID))

	assert.ErrorIs(t, uc.Remove(ctx, userID, productID), ErrFavoriteNotFound)

	_, err := uc.Add(ctx, userID, productID)
	require.NoError(t, err)
	require.NoError(t, uc.Remove(ctx, userID, productID))

	m, err := uc.Check(ctx, userID, productID)
	require.NoError(t, err)
	assert.False(t, m.IsFavorite)
}

func TestToggle_TwiceRestoresState(t *testing.T) {
	ctx := context.Background()
	productID := uuid.New()

	for _, startFavorite := range []bool{false, true} {
		userID := uuid.New()
		uc := NewFavoriteUseCase(newMemoryRepository(productID))
		if startFavorite {
			_, err := uc.Add(ctx, userID, productID)
			require.NoError(t, err)
		}

		first, err := uc.Toggle(ctx, userID, productID)
		require.NoError(t, err)
		assert.Equal(t, !startFavorite, first.IsFavorite)

		second, err := uc.Toggle(ctx, userID, productID)
		require.NoError(t, err)
		assert.Equal(t, startFavorite, second.IsFavorite)

		m, err := uc.Check(ctx, userID, productID)
		require.NoError(t, err)
		assert.Equal(t, startFavorite, m.IsFavorite)
	}
}

func TestToggle_UnknownProduct(t *testing.T) {
	uc := NewFavoriteUseCase(newMemoryRepository())

	_, err := uc.Toggle(context.Background(), uuid.New(), uuid.New())

	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestToggle_StoreFailure(t *testing.T) {
	repo := newMemoryRepository()
	repo.failWith = errors.New("connection reset")
	uc := NewFavoriteUseCase(repo)

	_, err := uc.Toggle(context.Background(), uuid.New(), uuid.New())

	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}
