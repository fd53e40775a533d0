package review

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

var ErrInvalidRating = errors.New("rating must be between 1 and 5")

type SubmitInput struct {
	ProductID uuid.UUID
	Rating    int
	Title     string
	Comment   string
}

type Service interface {
	// Submit creates the user's review of a product, or replaces the existing
	// one. The verified flag records whether the user has a non-cancelled
	// order containing the product; unverified reviews are still accepted.
	Submit(ctx context.Context, userID uuid.UUID, input SubmitInput) (*Review, error)
	Delete(ctx context.Context, userID, reviewID uuid.UUID) error
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]Review, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Submit(ctx context.Context, userID uuid.UUID, input SubmitInput) (*Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, ErrInvalidRating
	}

	verified, err := s.repo.HasPurchased(ctx, userID, input.ProductID)
	if err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("service: failed to generate review ID: %w", err)
	}

	rv := &Review{
		ID:         id,
		ProductID:  input.ProductID,
		UserID:     userID,
		Rating:     input.Rating,
		Title:      strings.TrimSpace(input.Title),
		Comment:    strings.TrimSpace(input.Comment),
		IsVerified: verified,
	}

	if err := s.repo.Upsert(ctx, rv); err != nil {
		return nil, fmt.Errorf("service: failed to submit review: %w", err)
	}

	log.Info().
		Stringer("review_id", rv.ID).
		Stringer("product_id", rv.ProductID).
		Int("rating", rv.Rating).
		Bool("verified", rv.IsVerified).
		Msg("service: review submitted")
	return rv, nil
}

func (s *service) Delete(ctx context.Context, userID, reviewID uuid.UUID) error {
	if err := s.repo.Delete(ctx, userID, reviewID); err != nil {
		if errors.Is(err, ErrReviewNotFound) {
			return ErrReviewNotFound
		}
		return fmt.Errorf("service: failed to delete review: %w", err)
	}
	return nil
}

func (s *service) ListByProduct(ctx context.Context, productID uuid.UUID) ([]Review, error) {
	reviews, err := s.repo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	return reviews, nil
}
