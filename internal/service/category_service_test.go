package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gastoscan/internal/models"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCategoryStore struct {
	categories []*models.Category
	listCalls  int
	createErr  error
}

func (f *fakeCategoryStore) ListActiveByAccount(_ context.Context, accountID uuid.UUID) ([]*models.Category, error) {
	f.listCalls++
	var out []*models.Category
	for _, c := range f.categories {
		if c.AccountID == accountID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCategoryStore) Create(_ context.Context, c *models.Category) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.categories = append(f.categories, c)
	return nil
}

func (f *fakeCategoryStore) GetByID(_ context.Context, id uuid.UUID) (*models.Category, error) {
	for _, c := range f.categories {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, fmt.Errorf("no rows")
}

type fakeAccountStore struct {
	accounts map[uuid.UUID]*models.Account
}

func (f *fakeAccountStore) Create(_ context.Context, a *models.Account) error {
	if f.accounts == nil {
		f.accounts = map[uuid.UUID]*models.Account{}
	}
	f.accounts[a.ID] = a
	return nil
}

func (f *fakeAccountStore) GetByID(_ context.Context, id uuid.UUID) (*models.Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return nil, fmt.Errorf("no rows")
	}
	return a, nil
}

func newTestCategoryService(cats *fakeCategoryStore, accounts *fakeAccountStore) *CategoryService {
	return &CategoryService{
		categories: cats,
		accounts:   accounts,
		index:      gocache.New(30*time.Second, time.Minute),
		logger:     zap.NewNop(),
	}
}

func seedCategory(accountID uuid.UUID, name string) *models.Category {
	return &models.Category{
		ID:        uuid.New(),
		AccountID: accountID,
		Name:      name,
		Status:    models.CategoryStatusActive,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestNormalizeCategoryName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Transporte", "transporte"},
		{"Transporte Aéreo", "transporte aereo"},
		{"transporte-aereo", "transporte aereo"},
		{"  Comidas  y   Dietas ", "comidas y dietas"},
		{"Alimentación", "alimentacion"},
		{"OFICINA/MATERIAL", "oficina material"},
		{"", ""},
		{"---", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeCategoryName(tt.in), "input %q", tt.in)
	}
}

func TestResolveExactMatchIgnoresCaseAndAccents(t *testing.T) {
	accountID := uuid.New()
	existing := seedCategory(accountID, "transporte")
	svc := newTestCategoryService(&fakeCategoryStore{categories: []*models.Category{existing}}, &fakeAccountStore{})

	res, err := svc.Resolve(context.Background(), accountID, "Transporte")
	require.NoError(t, err)
	assert.Equal(t, CategoryMatchExact, res.Outcome)
	require.NotNil(t, res.Category)
	assert.Equal(t, existing.ID, res.Category.ID)
}

func TestResolvePartialMatch(t *testing.T) {
	accountID := uuid.New()
	existing := seedCategory(accountID, "Material de oficina")
	svc := newTestCategoryService(&fakeCategoryStore{categories: []*models.Category{existing}}, &fakeAccountStore{})

	res, err := svc.Resolve(context.Background(), accountID, "material")
	require.NoError(t, err)
	assert.Equal(t, CategoryMatchPartial, res.Outcome)
	require.NotNil(t, res.Category)
	assert.Equal(t, existing.ID, res.Category.ID)
}

func TestResolveFallsBackToCatchAll(t *testing.T) {
	accountID := uuid.New()
	otra := seedCategory(accountID, "Otra")
	svc := newTestCategoryService(&fakeCategoryStore{
		categories: []*models.Category{seedCategory(accountID, "Transporte"), otra},
	}, &fakeAccountStore{})

	res, err := svc.Resolve(context.Background(), accountID, "Gastos varios imprevistos")
	require.NoError(t, err)
	assert.Equal(t, CategoryMatchFallback, res.Outcome)
	require.NotNil(t, res.Category)
	assert.Equal(t, otra.ID, res.Category.ID)
}

func TestResolveNeedsDecisionWithoutFallback(t *testing.T) {
	accountID := uuid.New()
	svc := newTestCategoryService(&fakeCategoryStore{
		categories: []*models.Category{seedCategory(accountID, "Transporte")},
	}, &fakeAccountStore{})

	res, err := svc.Resolve(context.Background(), accountID, "Formación")
	require.NoError(t, err)
	assert.Equal(t, CategoryMatchNeedsDecision, res.Outcome)
	assert.Nil(t, res.Category)
	assert.Equal(t, "Formación", res.ProposedName)
}

func TestResolveUsesCachedIndex(t *testing.T) {
	accountID := uuid.New()
	store := &fakeCategoryStore{categories: []*models.Category{seedCategory(accountID, "Transporte")}}
	svc := newTestCategoryService(store, &fakeAccountStore{})

	_, err := svc.Resolve(context.Background(), accountID, "Transporte")
	require.NoError(t, err)
	_, err = svc.Resolve(context.Background(), accountID, "Transporte")
	require.NoError(t, err)

	assert.Equal(t, 1, store.listCalls)
}

func TestCreateCategoryRequiresPermission(t *testing.T) {
	accountID := uuid.New()
	accounts := &fakeAccountStore{accounts: map[uuid.UUID]*models.Account{
		accountID: {ID: accountID, CanAddCustomCategories: false},
	}}
	svc := newTestCategoryService(&fakeCategoryStore{}, accounts)

	_, err := svc.Create(context.Background(), accountID, "Viajes")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCreateCategoryRejectsNormalizedDuplicate(t *testing.T) {
	accountID := uuid.New()
	accounts := &fakeAccountStore{accounts: map[uuid.UUID]*models.Account{
		accountID: {ID: accountID, CanAddCustomCategories: true},
	}}
	store := &fakeCategoryStore{categories: []*models.Category{seedCategory(accountID, "Transporte")}}
	svc := newTestCategoryService(store, accounts)

	_, err := svc.Create(context.Background(), accountID, "TRANSPORTE")
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestCreateCategoryInvalidatesIndex(t *testing.T) {
	accountID := uuid.New()
	accounts := &fakeAccountStore{accounts: map[uuid.UUID]*models.Account{
		accountID: {ID: accountID, CanAddCustomCategories: true},
	}}
	store := &fakeCategoryStore{}
	svc := newTestCategoryService(store, accounts)

	res, err := svc.Resolve(context.Background(), accountID, "Viajes")
	require.NoError(t, err)
	assert.Equal(t, CategoryMatchNeedsDecision, res.Outcome)

	created, err := svc.Create(context.Background(), accountID, "Viajes")
	require.NoError(t, err)

	res, err = svc.Resolve(context.Background(), accountID, "viajes")
	require.NoError(t, err)
	assert.Equal(t, CategoryMatchExact, res.Outcome)
	require.NotNil(t, res.Category)
	assert.Equal(t, created.ID, res.Category.ID.String())
}
