package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/mediplant/storefront/internal/catalog"
)

type mockRepository struct {
	listFunc           func(ctx context.Context, filter catalog.Filter) ([]catalog.Product, error)
	listAllFunc        func(ctx context.Context) ([]catalog.Product, error)
	getActiveFunc      func(ctx context.Context, id uuid.UUID) (*catalog.Product, error)
	getAnyFunc         func(ctx context.Context, id uuid.UUID) (*catalog.Product, error)
	listRelatedFunc    func(ctx context.Context, categoryID, excludeID uuid.UUID, limit int) ([]catalog.Product, error)
	createFunc         func(ctx context.Context, p *catalog.Product) error
	updateFunc         func(ctx context.Context, p *catalog.Product) error
	deactivateFunc     func(ctx context.Context, id uuid.UUID) error
	listCategoriesFunc func(ctx context.Context) ([]catalog.Category, error)
	createCategoryFunc func(ctx context.Context, c *catalog.Category) error
}

func (m *mockRepository) List(ctx context.Context, filter catalog.Filter) ([]catalog.Product, error) {
	return m.listFunc(ctx, filter)
}

func (m *mockRepository) ListAll(ctx context.Context) ([]catalog.Product, error) {
	return m.listAllFunc(ctx)
}

func (m *mockRepository) GetActive(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	return m.getActiveFunc(ctx, id)
}

func (m *mockRepository) GetAny(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	return m.getAnyFunc(ctx, id)
}

func (m *mockRepository) ListRelated(ctx context.Context, categoryID, excludeID uuid.UUID, limit int) ([]catalog.Product, error) {
	return m.listRelatedFunc(ctx, categoryID, excludeID, limit)
}

func (m *mockRepository) Create(ctx context.Context, p *catalog.Product) error {
	return m.createFunc(ctx, p)
}

func (m *mockRepository) Update(ctx context.Context, p *catalog.Product) error {
	return m.updateFunc(ctx, p)
}

func (m *mockRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return m.deactivateFunc(ctx, id)
}

func (m *mockRepository) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	return m.listCategoriesFunc(ctx)
}

func (m *mockRepository) CreateCategory(ctx context.Context, c *catalog.Category) error {
	return m.createCategoryFunc(ctx, c)
}

func TestService_Create_Validation(t *testing.T) {
	svc := catalog.NewService(&mockRepository{})

	tests := []struct {
		name  string
		input catalog.ProductInput
		want  error
	}{
		{
			name:  "blank name",
			input: catalog.ProductInput{Name: "  ", Price: decimal.NewFromInt(10)},
			want:  catalog.ErrNameRequired,
		},
		{
			name:  "negative price",
			input: catalog.ProductInput{Name: "Tulsi", Price: decimal.NewFromInt(-1)},
			want:  catalog.ErrInvalidPrice,
		},
		{
			name:  "negative stock",
			input: catalog.ProductInput{Name: "Tulsi", Price: decimal.NewFromInt(10), StockQuantity: -1},
			want:  catalog.ErrInvalidStock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.input)
			assert.True(t, errors.Is(err, tt.want))
		})
	}
}

func TestService_Create_DefaultsActive(t *testing.T) {
	var created *catalog.Product
	repo := &mockRepository{
		createFunc: func(ctx context.Context, p *catalog.Product) error {
			created = p
			return nil
		},
	}
	svc := catalog.NewService(repo)

	p, err := svc.Create(context.Background(), catalog.ProductInput{
		Name:          "Tulsi",
		Price:         decimal.NewFromInt(100),
		StockQuantity: 10,
	})

	assert.NoError(t, err)
	assert.Equal(t, created, p)
	assert.True(t, p.IsActive)
	assert.Equal(t, 10, p.StockQuantity)
}

func TestService_Related_NoCategory(t *testing.T) {
	repo := &mockRepository{
		listRelatedFunc: func(ctx context.Context, categoryID, excludeID uuid.UUID, limit int) ([]catalog.Product, error) {
			t.Fatal("no lookup expected for an uncategorized product")
			return nil, nil
		},
	}
	svc := catalog.NewService(repo)

	related, err := svc.Related(context.Background(), &catalog.Product{ID: uuid.Must(uuid.NewV4())}, 4)
	assert.NoError(t, err)
	assert.Empty(t, related)
}
