package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var ErrReviewNotFound = errors.New("review not found")

type Repository interface {
	// Upsert writes the review and recomputes the product's rating aggregate
	// in one transaction, so listings never show a stale average.
	Upsert(ctx context.Context, rv *Review) error
	Delete(ctx context.Context, userID, reviewID uuid.UUID) error
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]Review, error)
	// HasPurchased reports whether the user has a non-cancelled order
	// containing the product.
	HasPurchased(ctx context.Context, userID, productID uuid.UUID) (bool, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Upsert(ctx context.Context, rv *Review) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				log.Error().Err(rbErr).Stringer("review_id", rv.ID).Msg("repository: failed to rollback review upsert")
			}
		}
	}()

	now := time.Now().UTC()
	rv.CreatedAt = now
	rv.UpdatedAt = now

	err = tx.QueryRow(ctx, `
		INSERT INTO reviews (id, user_id, product_id, rating, title, comment, is_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, product_id) DO UPDATE
		SET rating = EXCLUDED.rating,
		    title = EXCLUDED.title,
		    comment = EXCLUDED.comment,
		    is_verified = EXCLUDED.is_verified,
		    updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`, rv.ID, rv.UserID, rv.ProductID, rv.Rating, rv.Title, rv.Comment, rv.IsVerified, rv.CreatedAt, rv.UpdatedAt).
		Scan(&rv.ID, &rv.CreatedAt)
	if err != nil {
		err = fmt.Errorf("repository: failed to upsert review: %w", err)
		return err
	}

	if err = r.recomputeAggregate(ctx, tx, rv.ProductID); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		err = fmt.Errorf("repository: failed to commit review upsert: %w", err)
		return err
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, userID, reviewID uuid.UUID) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				log.Error().Err(rbErr).Stringer("review_id", reviewID).Msg("repository: failed to rollback review delete")
			}
		}
	}()

	var productID uuid.UUID
	err = tx.QueryRow(ctx, `
		DELETE FROM reviews WHERE id = $1 AND user_id = $2 RETURNING product_id
	`, reviewID, userID).Scan(&productID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = ErrReviewNotFound
			return err
		}
		err = fmt.Errorf("repository: failed to delete review %s: %w", reviewID, err)
		return err
	}

	if err = r.recomputeAggregate(ctx, tx, productID); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		err = fmt.Errorf("repository: failed to commit review delete: %w", err)
		return err
	}
	return nil
}

func (r *postgresRepository) recomputeAggregate(ctx context.Context, tx pgx.Tx, productID uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		UPDATE products p
		SET rating_average = COALESCE(agg.avg_rating, 0),
		    rating_count = COALESCE(agg.cnt, 0),
		    updated_at = now()
		FROM (
			SELECT ROUND(AVG(rating)::numeric, 1) AS avg_rating, COUNT(*) AS cnt
			FROM reviews
			WHERE product_id = $1
		) agg
		WHERE p.id = $1
	`, productID)
	if err != nil {
		return fmt.Errorf("repository: failed to recompute rating for product %s: %w", productID, err)
	}
	return nil
}

func (r *postgresRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]Review, error) {
	rows, err := r.db.Query(ctx, `
		SELECT r.id, r.user_id, u.name, r.product_id, r.rating, r.title, r.comment,
		       r.is_verified, r.created_at, r.updated_at
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.product_id = $1
		ORDER BY r.created_at DESC
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query reviews for product %s: %w", productID, err)
	}
	defer rows.Close()

	reviews := make([]Review, 0)
	for rows.Next() {
		var rv Review
		err := rows.Scan(&rv.ID, &rv.UserID, &rv.UserName, &rv.ProductID, &rv.Rating,
			&rv.Title, &rv.Comment, &rv.IsVerified, &rv.CreatedAt, &rv.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating reviews: %w", err)
	}
	return reviews, nil
}

func (r *postgresRepository) HasPurchased(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM orders o
			JOIN order_items oi ON oi.order_id = o.id
			WHERE o.user_id = $1 AND oi.product_id = $2 AND o.status <> 'cancelled'
		)
	`, userID, productID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("repository: failed to check purchase history: %w", err)
	}
	return exists, nil
}
