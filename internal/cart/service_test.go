package cart_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/mediplant/storefront/internal/cart"
)

type mockRepository struct {
	purgeInactiveFunc func(ctx context.Context, userID uuid.UUID) error
	linesFunc         func(ctx context.Context, userID uuid.UUID) ([]cart.Line, error)
	upsertFunc        func(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	setQuantityFunc   func(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	deleteFunc        func(ctx context.Context, userID, productID uuid.UUID) error
	clearFunc         func(ctx context.Context, userID uuid.UUID) error
}

func (m *mockRepository) PurgeInactive(ctx context.Context, userID uuid.UUID) error {
	if m.purgeInactiveFunc != nil {
		return m.purgeInactiveFunc(ctx, userID)
	}
	return nil
}

func (m *mockRepository) Lines(ctx context.Context, userID uuid.UUID) ([]cart.Line, error) {
	return m.linesFunc(ctx, userID)
}

func (m *mockRepository) Upsert(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	return m.upsertFunc(ctx, userID, productID, quantity)
}

func (m *mockRepository) SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	return m.setQuantityFunc(ctx, userID, productID, quantity)
}

func (m *mockRepository) Delete(ctx context.Context, userID, productID uuid.UUID) error {
	return m.deleteFunc(ctx, userID, productID)
}

func (m *mockRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	if m.clearFunc != nil {
		return m.clearFunc(ctx, userID)
	}
	return nil
}

func mustUUID(t *testing.T) uuid.UUID {
	t.Helper()
	id, err := uuid.NewV4()
	assert.NoError(t, err)
	return id
}

func line(productID uuid.UUID, name string, qty int, price string, stock int) cart.Line {
	p := decimal.RequireFromString(price)
	return cart.Line{
		ProductID:      productID,
		ProductName:    name,
		Quantity:       qty,
		UnitPrice:      p,
		LineSubtotal:   p.Mul(decimal.NewFromInt(int64(qty))),
		AvailableStock: stock,
	}
}

func TestService_Add_InvalidQuantity(t *testing.T) {
	svc := cart.NewService(&mockRepository{})
	err := svc.Add(context.Background(), mustUUID(t), mustUUID(t), 0)
	assert.True(t, errors.Is(err, cart.ErrInvalidQuantity))
}

func TestService_Snapshot_AllInStock(t *testing.T) {
	userID := mustUUID(t)
	tulsi := mustUUID(t)
	neem := mustUUID(t)

	repo := &mockRepository{
		linesFunc: func(ctx context.Context, id uuid.UUID) ([]cart.Line, error) {
			return []cart.Line{
				line(tulsi, "Tulsi", 3, "100", 5),
				line(neem, "Neem", 1, "250.50", 10),
			}, nil
		},
		setQuantityFunc: func(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
			t.Fatal("no quantity correction expected")
			return nil
		},
		deleteFunc: func(ctx context.Context, userID, productID uuid.UUID) error {
			t.Fatal("no line drop expected")
			return nil
		},
	}

	svc := cart.NewService(repo)
	snap, warnings, err := svc.Snapshot(context.Background(), userID)

	assert.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Len(t, snap.Lines, 2)
	assert.True(t, snap.Subtotal.Equal(decimal.RequireFromString("550.50")))
	for _, l := range snap.Lines {
		assert.True(t, l.LineSubtotal.Equal(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))))
		assert.LessOrEqual(t, l.Quantity, l.AvailableStock)
	}
}

func TestService_Snapshot_ReducesOverStockLine(t *testing.T) {
	userID := mustUUID(t)
	ashwagandha := mustUUID(t)

	var corrected int
	repo := &mockRepository{
		linesFunc: func(ctx context.Context, id uuid.UUID) ([]cart.Line, error) {
			return []cart.Line{line(ashwagandha, "Ashwagandha", 5, "100", 2)}, nil
		},
		setQuantityFunc: func(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
			assert.Equal(t, ashwagandha, productID)
			corrected = quantity
			return nil
		},
	}

	svc := cart.NewService(repo)
	snap, warnings, err := svc.Snapshot(context.Background(), userID)

	assert.NoError(t, err)
	assert.Equal(t, 2, corrected)
	assert.Len(t, snap.Lines, 1)
	assert.Equal(t, 2, snap.Lines[0].Quantity)
	assert.True(t, snap.Subtotal.Equal(decimal.RequireFromString("200")))

	if assert.Len(t, warnings, 1) {
		assert.Equal(t, "Ashwagandha", warnings[0].ProductName)
		assert.False(t, warnings[0].Dropped)
		assert.Equal(t, 2, warnings[0].Remaining)
	}
}

func TestService_Snapshot_DropsOutOfStockLine(t *testing.T) {
	userID := mustUUID(t)
	brahmi := mustUUID(t)
	tulsi := mustUUID(t)

	var dropped []uuid.UUID
	repo := &mockRepository{
		linesFunc: func(ctx context.Context, id uuid.UUID) ([]cart.Line, error) {
			return []cart.Line{
				line(brahmi, "Brahmi", 2, "150", 0),
				line(tulsi, "Tulsi", 1, "100", 4),
			}, nil
		},
		deleteFunc: func(ctx context.Context, userID, productID uuid.UUID) error {
			dropped = append(dropped, productID)
			return nil
		},
	}

	svc := cart.NewService(repo)
	snap, warnings, err := svc.Snapshot(context.Background(), userID)

	assert.NoError(t, err)
	assert.Equal(t, []uuid.UUID{brahmi}, dropped)
	assert.Len(t, snap.Lines, 1)
	assert.Equal(t, tulsi, snap.Lines[0].ProductID)
	assert.True(t, snap.Subtotal.Equal(decimal.RequireFromString("100")))

	if assert.Len(t, warnings, 1) {
		assert.True(t, warnings[0].Dropped)
		assert.Contains(t, warnings[0].Message(), "out of stock")
	}
}

// A second view after corrections were persisted starts from corrected data
// and must emit no further warnings.
func TestService_Snapshot_Idempotent(t *testing.T) {
	userID := mustUUID(t)
	ashwagandha := mustUUID(t)

	quantities := map[uuid.UUID]int{ashwagandha: 5}
	repo := &mockRepository{
		linesFunc: func(ctx context.Context, id uuid.UUID) ([]cart.Line, error) {
			return []cart.Line{line(ashwagandha, "Ashwagandha", quantities[ashwagandha], "100", 2)}, nil
		},
		setQuantityFunc: func(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
			quantities[productID] = quantity
			return nil
		},
	}

	svc := cart.NewService(repo)

	first, warnings, err := svc.Snapshot(context.Background(), userID)
	assert.NoError(t, err)
	assert.Len(t, warnings, 1)

	second, warnings, err := svc.Snapshot(context.Background(), userID)
	assert.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, first, second)
}
