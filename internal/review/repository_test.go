package review_test

import (
	"context"
	"os"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediplant/storefront/internal/review"
)

// These tests need a migrated database. Set TEST_DATABASE_URL to run them.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(context.Background(),
		`TRUNCATE order_items, orders, reviews, products, users CASCADE`)
	require.NoError(t, err)
	return pool
}

func seedOrderWithItem(t *testing.T, pool *pgxpool.Pool, userID, productID uuid.UUID, status string) {
	t.Helper()
	ctx := context.Background()
	orderID := uuid.Must(uuid.NewV4())

	_, err := pool.Exec(ctx, `
		INSERT INTO orders (id, order_number, user_id, status, subtotal, total_amount,
			address_line1, city, state, postal_code, phone)
		VALUES ($1, $2, $3, $4, 100, 100, 'a', 'b', 'c', 'd', 'e')
	`, orderID, orderID.String(), userID, status)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `
		INSERT INTO order_items (id, order_id, product_id, product_name, quantity, unit_price, total_price)
		VALUES ($1, $2, $3, 'Tulsi', 1, 100, 100)
	`, uuid.Must(uuid.NewV4()), orderID, productID)
	require.NoError(t, err)
}

func TestRepository_HasPurchased(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	userID := uuid.Must(uuid.NewV4())
	_, err := pool.Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash)
		VALUES ($1, 'Test Customer', $2, 'x')
	`, userID, userID.String()+"@example.com")
	require.NoError(t, err)

	productID := uuid.Must(uuid.NewV4())
	_, err = pool.Exec(ctx, `
		INSERT INTO products (id, name, price, stock_quantity) VALUES ($1, $2, 100, 5)
	`, productID, "Tulsi")
	require.NoError(t, err)

	repo := review.NewRepository(pool)

	// No order yet.
	got, err := repo.HasPurchased(ctx, userID, productID)
	require.NoError(t, err)
	assert.False(t, got)

	// A cancelled order does not count as a purchase.
	seedOrderWithItem(t, pool, userID, productID, "cancelled")
	got, err = repo.HasPurchased(ctx, userID, productID)
	require.NoError(t, err)
	assert.False(t, got)

	// Any non-cancelled order does, even before delivery.
	seedOrderWithItem(t, pool, userID, productID, "pending")
	got, err = repo.HasPurchased(ctx, userID, productID)
	require.NoError(t, err)
	assert.True(t, got)
}
