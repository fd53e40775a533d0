package wishlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
)

type Service interface {
	Add(ctx context.Context, userID, productID uuid.UUID) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]Entry, error)
	// MoveToCart adds the saved product to the cart with quantity one and
	// drops it from the wishlist, atomically.
	MoveToCart(ctx context.Context, userID, productID uuid.UUID) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Add(ctx context.Context, userID, productID uuid.UUID) error {
	if err := s.repo.Add(ctx, userID, productID); err != nil {
		if errors.Is(err, ErrProductNotFound) || errors.Is(err, ErrEntryExists) {
			return err
		}
		return fmt.Errorf("service: failed to add wishlist entry: %w", err)
	}
	return nil
}

func (s *service) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	if err := s.repo.Remove(ctx, userID, productID); err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			return ErrEntryNotFound
		}
		return fmt.Errorf("service: failed to remove wishlist entry: %w", err)
	}
	return nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]Entry, error) {
	entries, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	return entries, nil
}

func (s *service) MoveToCart(ctx context.Context, userID, productID uuid.UUID) error {
	if err := s.repo.MoveToCart(ctx, userID, productID); err != nil {
		if errors.Is(err, ErrEntryNotFound) || errors.Is(err, ErrProductNotFound) {
			return err
		}
		return fmt.Errorf("service: failed to move wishlist entry to cart: %w", err)
	}
	return nil
}
