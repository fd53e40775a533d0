package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var ErrInvalidQuantity = errors.New("quantity must be at least 1")

type Service interface {
	Add(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error

	// Lines is the shared snapshot reader: the one join used by both the cart
	// page and checkout. Lines against inactive products are purged first.
	Lines(ctx context.Context, userID uuid.UUID) ([]Line, error)

	// Snapshot reads the cart and reconciles it against live stock. Lines
	// over stock are reduced, lines with no stock are dropped; both changes
	// are persisted so the next view starts from corrected data.
	Snapshot(ctx context.Context, userID uuid.UUID) (Snapshot, []StockWarning, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Add(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if err := s.repo.Upsert(ctx, userID, productID, quantity); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("service: failed to add cart line: %w", err)
	}
	return nil
}

func (s *service) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if err := s.repo.SetQuantity(ctx, userID, productID, quantity); err != nil {
		if errors.Is(err, ErrLineNotFound) {
			return ErrLineNotFound
		}
		return fmt.Errorf("service: failed to update cart line: %w", err)
	}
	return nil
}

func (s *service) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	if err := s.repo.Delete(ctx, userID, productID); err != nil {
		if errors.Is(err, ErrLineNotFound) {
			return ErrLineNotFound
		}
		return fmt.Errorf("service: failed to remove cart line: %w", err)
	}
	return nil
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.Clear(ctx, userID); err != nil {
		return fmt.Errorf("service: %w", err)
	}
	return nil
}

func (s *service) Lines(ctx context.Context, userID uuid.UUID) ([]Line, error) {
	if err := s.repo.PurgeInactive(ctx, userID); err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	lines, err := s.repo.Lines(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	return lines, nil
}

func (s *service) Snapshot(ctx context.Context, userID uuid.UUID) (Snapshot, []StockWarning, error) {
	lines, err := s.Lines(ctx, userID)
	if err != nil {
		return Snapshot{}, nil, err
	}

	warnings := make([]StockWarning, 0)
	kept := make([]Line, 0, len(lines))
	subtotal := decimal.Zero

	for _, l := range lines {
		switch {
		case l.AvailableStock == 0:
			if err := s.repo.Delete(ctx, userID, l.ProductID); err != nil && !errors.Is(err, ErrLineNotFound) {
				return Snapshot{}, nil, fmt.Errorf("service: failed to drop out-of-stock line: %w", err)
			}
			warnings = append(warnings, StockWarning{
				ProductID:   l.ProductID,
				ProductName: l.ProductName,
				Dropped:     true,
			})
			log.Warn().
				Stringer("user_id", userID).
				Stringer("product_id", l.ProductID).
				Msg("service: dropped out-of-stock cart line")
			continue

		case l.AvailableStock < l.Quantity:
			if err := s.repo.SetQuantity(ctx, userID, l.ProductID, l.AvailableStock); err != nil && !errors.Is(err, ErrLineNotFound) {
				return Snapshot{}, nil, fmt.Errorf("service: failed to reduce cart line quantity: %w", err)
			}
			warnings = append(warnings, StockWarning{
				ProductID:   l.ProductID,
				ProductName: l.ProductName,
				Remaining:   l.AvailableStock,
			})
			log.Warn().
				Stringer("user_id", userID).
				Stringer("product_id", l.ProductID).
				Int("requested", l.Quantity).
				Int("available", l.AvailableStock).
				Msg("service: reduced cart line to available stock")
			l.Quantity = l.AvailableStock
			l.LineSubtotal = l.UnitPrice.Mul(decimalFromInt(l.Quantity))
		}

		subtotal = subtotal.Add(l.LineSubtotal)
		kept = append(kept, l)
	}

	return Snapshot{Lines: kept, Subtotal: subtotal}, warnings, nil
}
