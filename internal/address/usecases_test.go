package address

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheusmosca/marketplace/internal/apperr"
	"github.com/matheusmosca/marketplace/internal/database"
)

// memoryRepository guarda endereços em memória. Rollback restaura o estado do BeginTx.
type memoryRepository struct {
	addresses []Address
	clock     time.Time
}

type memoryTx struct {
	repo      *memoryRepository
	snapshot  []Address
	committed bool
}

func (t *memoryTx) Commit() error {
	t.committed = true
	return nil
}

func (t *memoryTx) Rollback() error {
	if !t.committed {
		t.repo.addresses = t.snapshot
	}
	return nil
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *memoryRepository) BeginTx(context.Context) (database.Tx, error) {
	snapshot := make([]Address, len(m.addresses))
	copy(snapshot, m.addresses)
	return &memoryTx{repo: m, snapshot: snapshot}, nil
}

func (m *memoryRepository) List(_ context.Context, userID uuid.UUID) ([]Address, error) {
	out := make([]Address, 0)
	for _, a := range m.addresses {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memoryRepository) LockUser(context.Context, database.Tx, uuid.UUID) error { return nil }

func (m *memoryRepository) Count(ctx context.Context, _ database.Tx, userID uuid.UUID) (int, error) {
	list, _ := m.List(ctx, userID)
	return len(list), nil
}

func (m *memoryRepository) UnsetDefault(_ context.Context, _ database.Tx, userID uuid.UUID) error {
	for i := range m.addresses {
		if m.addresses[i].UserID == userID {
			m.addresses[i].IsDefault = false
		}
	}
	return nil
}

func (m *memoryRepository) Insert(_ context.Context, _ database.Tx, addr *Address) error {
	m.clock = m.clock.Add(time.Minute)
	addr.ID = uuid.New()
	addr.CreatedAt = m.clock
	m.addresses = append(m.addresses, *addr)
	return nil
}

func (m *memoryRepository) MarkDefault(_ context.Context, _ database.Tx, userID, addressID uuid.UUID) error {
	for i := range m.addresses {
		if m.addresses[i].ID == addressID && m.addresses[i].UserID == userID {
			m.addresses[i].IsDefault = true
			return nil
		}
	}
	return ErrAddressNotFound
}

func (m *memoryRepository) Delete(_ context.Context, _ database.Tx, userID, addressID uuid.UUID) (bool, error) {
	for i, a := range m.addresses {
		if a.ID == addressID && a.UserID == userID {
			m.addresses = append(m.addresses[:i:i], m.addresses[i+1:]...)
			return a.IsDefault, nil
		}
	}
	return false, ErrAddressNotFound
}

func (m *memoryRepository) PromoteNewest(_ context.Context, _ database.Tx, userID uuid.UUID) error {
	newest := -1
	for i, a := range m.addresses {
		if a.UserID == userID && (newest < 0 || a.CreatedAt.After(m.addresses[newest].CreatedAt)) {
			newest = i
		}
	}
	if newest >= 0 {
		m.addresses[newest].IsDefault = true
	}
	return nil
}

func (m *memoryRepository) defaults(userID uuid.UUID) []Address {
	var out []Address
	for _, a := range m.addresses {
		if a.UserID == userID && a.IsDefault {
			out = append(out, a)
		}
	}
	return out
}

func validRequest(street string, isDefault bool) CreateAddressRequest {
	return CreateAddressRequest{
		StreetAddress: street,
		City:          "Kuala Lumpur",
		State:         "WP",
		PostalCode:    "50000",
		IsDefault:     isDefault,
	}
}

func TestCreate_FirstAddressBecomesDefault(t *testing.T) {
	repo := newMemoryRepository()
	uc := NewAddressUseCase(repo)
	userID := uuid.New()

	addr, err := uc.Create(context.Background(), userID, validRequest("1 Jalan A", false))

	require.NoError(t, err)
	assert.True(t, addr.IsDefault)
	assert.Equal(t, DefaultCountry, addr.Country)
	assert.Len(t, repo.defaults(userID), 1)
}

func TestCreate_NewDefaultReplacesPrevious(t *testing.T) {
	repo := newMemoryRepository()
	uc := NewAddressUseCase(repo)
	userID := uuid.New()
	ctx := context.Background()

	first, err := uc.Create(ctx, userID, validRequest("1 Jalan A", true))
	require.NoError(t, err)
	second, err := uc.Create(ctx, userID, validRequest("2 Jalan B", true))
	require.NoError(t, err)
	third, err := uc.Create(ctx, userID, validRequest("3 Jalan C", false))
	require.NoError(t, err)

	defaults := repo.defaults(userID)
	require.Len(t, defaults, 1)
	assert.Equal(t, second.ID, defaults[0].ID)
	assert.NotEqual(t, first.ID, defaults[0].ID)
	assert.False(t, third.IsDefault)
}

func TestCreate_KeepsExplicitCountry(t *testing.T) {
	repo := newMemoryRepository()
	req := validRequest("1 Orchard Rd", false)
	req.Country = "Singapore"

	addr, err := NewAddressUseCase(repo).Create(context.Background(), uuid.New(), req)

	require.NoError(t, err)
	assert.Equal(t, "Singapore", addr.Country)
}

func TestSetDefault(t *testing.T) {
	repo := newMemoryRepository()
	uc := NewAddressUseCase(repo)
	userID := uuid.New()
	ctx := context.Background()

	_, err := uc.Create(ctx, userID, validRequest("1 Jalan A", true))
	require.NoError(t, err)
	other, err := uc.Create(ctx, userID, validRequest("2 Jalan B", false))
	require.NoError(t, err)

	require.NoError(t, uc.SetDefault(ctx, userID, other.ID))

	defaults := repo.defaults(userID)
	require.Len(t, defaults, 1)
	assert.Equal(t, other.ID, defaults[0].ID)
}

func TestSetDefault_UnknownAddressLeavesStateUnchanged(t *testing.T) {
	repo := newMemoryRepository()
	uc := NewAddressUseCase(repo)
	userID := uuid.New()
	ctx := context.Background()

	current, err := uc.Create(ctx, userID, validRequest("1 Jalan A", true))
	require.NoError(t, err)

	err = uc.SetDefault(ctx, userID, uuid.New())

	assert.True(t, errors.Is(err, ErrAddressNotFound))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	defaults := repo.defaults(userID)
	require.Len(t, defaults, 1)
	assert.Equal(t, current.ID, defaults[0].ID)
}

func TestSetDefault_OtherUsersAddress(t *testing.T) {
	repo := newMemoryRepository()
	uc := NewAddressUseCase(repo)
	owner, intruder := uuid.New(), uuid.New()
	ctx := context.Background()

	addr, err := uc.Create(ctx, owner, validRequest("1 Jalan A", true))
	require.NoError(t, err)

	err = uc.SetDefault(ctx, intruder, addr.ID)

	assert.ErrorIs(t, err, ErrAddressNotFound)
	assert.Len(t, repo.defaults(owner), 1)
}

func TestDelete_PromotesNewestWhenDefaultRemoved(t *testing.T) {
	repo := newMemoryRepository()
	uc := NewAddressUseCase(repo)
	userID := uuid.New()
	ctx := context.Background()

	def, err := uc.Create(ctx, userID, validRequest("1 Jalan A", true))
	require.NoError(t, err)
	_, err = uc.Create(ctx, userID, validRequest("2 Jalan B", false))
	require.NoError(t, err)
	newest, err := uc.Create(ctx, userID, validRequest("3 Jalan C", false))
	require.NoError(t, err)

	require.NoError(t, uc.Delete(ctx, userID, def.ID))

	defaults := repo.defaults(userID)
	require.Len(t, defaults, 1)
	assert.Equal(t, newest.ID, defaults[0].ID)
}

func TestDelete_NotFound(t *testing.T) {
	uc := NewAddressUseCase(newMemoryRepository())

	err := uc.Delete(context.Background(), uuid.New(), uuid.New())

	assert.ErrorIs(t, err, ErrAddressNotFound)
}
