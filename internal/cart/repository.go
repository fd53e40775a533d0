package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrLineNotFound    = errors.New("cart line not found")
)

type Repository interface {
	// PurgeInactive removes cart lines whose product has been deactivated or
	// deleted, so they never surface in a snapshot.
	PurgeInactive(ctx context.Context, userID uuid.UUID) error
	Lines(ctx context.Context, userID uuid.UUID) ([]Line, error)
	Upsert(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	Delete(ctx context.Context, userID, productID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) PurgeInactive(ctx context.Context, userID uuid.UUID) error {
	query := `
		DELETE FROM cart_items ci
		USING products p
		WHERE ci.product_id = p.id AND ci.user_id = $1 AND NOT p.is_active
	`
	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("repository: failed to purge inactive cart lines: %w", err)
	}
	return nil
}

func (r *postgresRepository) Lines(ctx context.Context, userID uuid.UUID) ([]Line, error) {
	query := `
		SELECT ci.product_id, p.name, ci.quantity, p.price, p.stock_quantity, p.image_url
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id AND p.is_active
		WHERE ci.user_id = $1
		ORDER BY ci.created_at
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query cart lines: %w", err)
	}
	defer rows.Close()

	lines := make([]Line, 0)
	for rows.Next() {
		var l Line
		err := rows.Scan(&l.ProductID, &l.ProductName, &l.Quantity, &l.UnitPrice, &l.AvailableStock, &l.ImageURL)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan cart line: %w", err)
		}
		l.LineSubtotal = l.UnitPrice.Mul(decimalFromInt(l.Quantity))
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating cart lines: %w", err)
	}
	return lines, nil
}

// Upsert adds quantity to an existing (user, product) line or creates one.
// The insert only matches an active product, so adding a deactivated product
// reports not found.
func (r *postgresRepository) Upsert(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	lineID, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("repository: failed to generate cart line ID: %w", err)
	}

	query := `
		INSERT INTO cart_items (id, user_id, product_id, quantity)
		SELECT $1, $2, p.id, $4
		FROM products p
		WHERE p.id = $3 AND p.is_active
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = now()
	`
	cmdTag, err := r.db.Exec(ctx, query, lineID, userID, productID, quantity)
	if err != nil {
		return fmt.Errorf("repository: failed to upsert cart line: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *postgresRepository) SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	query := `
		UPDATE cart_items SET quantity = $3, updated_at = now()
		WHERE user_id = $1 AND product_id = $2
	`
	cmdTag, err := r.db.Exec(ctx, query, userID, productID, quantity)
	if err != nil {
		return fmt.Errorf("repository: failed to set cart line quantity: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrLineNotFound
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, userID, productID uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return fmt.Errorf("repository: failed to delete cart line: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrLineNotFound
	}
	return nil
}

func (r *postgresRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("repository: failed to clear cart: %w", err)
	}
	return nil
}
