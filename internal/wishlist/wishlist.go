package wishlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrEntryNotFound   = errors.New("wishlist entry not found")
	ErrEntryExists     = errors.New("product already in wishlist")
)

// Entry is a saved product with enough of the product row joined in to render
// the wishlist page without a second lookup.
type Entry struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url,omitempty"`
	InStock     bool            `json:"in_stock"`
	CreatedAt   time.Time       `json:"created_at"`
}

type Repository interface {
	Add(ctx context.Context, userID, productID uuid.UUID) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]Entry, error)
	// MoveToCart consumes the wishlist entry and adds the product to the cart
	// with quantity one, in a single transaction. A missing entry fails the
	// whole move; nothing reaches the cart.
	MoveToCart(ctx context.Context, userID, productID uuid.UUID) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Add(ctx context.Context, userID, productID uuid.UUID) error {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("repository: failed to generate wishlist entry ID: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, `
		INSERT INTO wishlists (id, user_id, product_id)
		SELECT $1, $2, p.id
		FROM products p
		WHERE p.id = $3 AND p.is_active
		ON CONFLICT (user_id, product_id) DO NOTHING
	`, id, userID, productID)
	if err != nil {
		return fmt.Errorf("repository: failed to add wishlist entry: %w", err)
	}
	// No row inserted means either the conflict target fired or the product
	// is unknown; the existence check tells the two apart.
	if cmdTag.RowsAffected() == 0 {
		var exists bool
		err := r.db.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM wishlists WHERE user_id = $1 AND product_id = $2)
		`, userID, productID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("repository: failed to check wishlist entry: %w", err)
		}
		if exists {
			return ErrEntryExists
		}
		return ErrProductNotFound
	}
	return nil
}

func (r *postgresRepository) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `
		DELETE FROM wishlists WHERE user_id = $1 AND product_id = $2
	`, userID, productID)
	if err != nil {
		return fmt.Errorf("repository: failed to remove wishlist entry: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (r *postgresRepository) MoveToCart(ctx context.Context, userID, productID uuid.UUID) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				log.Error().Err(rbErr).Stringer("product_id", productID).Msg("repository: failed to rollback wishlist move")
			}
		}
	}()

	var entryID uuid.UUID
	err = tx.QueryRow(ctx, `
		DELETE FROM wishlists WHERE user_id = $1 AND product_id = $2 RETURNING id
	`, userID, productID).Scan(&entryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = ErrEntryNotFound
			return err
		}
		err = fmt.Errorf("repository: failed to consume wishlist entry: %w", err)
		return err
	}

	lineID, genErr := uuid.NewV4()
	if genErr != nil {
		err = fmt.Errorf("repository: failed to generate cart line ID: %w", genErr)
		return err
	}

	cmdTag, execErr := tx.Exec(ctx, `
		INSERT INTO cart_items (id, user_id, product_id, quantity)
		SELECT $1, $2, p.id, 1
		FROM products p
		WHERE p.id = $3 AND p.is_active
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + 1, updated_at = now()
	`, lineID, userID, productID)
	if execErr != nil {
		err = fmt.Errorf("repository: failed to add moved entry to cart: %w", execErr)
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		err = ErrProductNotFound
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		err = fmt.Errorf("repository: failed to commit wishlist move: %w", err)
		return err
	}
	return nil
}

func (r *postgresRepository) List(ctx context.Context, userID uuid.UUID) ([]Entry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT w.id, w.product_id, p.name, p.price, p.image_url, p.stock_quantity > 0, w.created_at
		FROM wishlists w
		JOIN products p ON p.id = w.product_id AND p.is_active
		WHERE w.user_id = $1
		ORDER BY w.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query wishlist: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		err := rows.Scan(&e.ID, &e.ProductID, &e.ProductName, &e.Price, &e.ImageURL, &e.InStock, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan wishlist entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating wishlist: %w", err)
	}
	return entries, nil
}
