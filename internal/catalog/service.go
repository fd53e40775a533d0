package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var (
	ErrNameRequired = errors.New("product name is required")
	ErrInvalidPrice = errors.New("product price must be non-negative")
	ErrInvalidStock = errors.New("stock quantity must be non-negative")
)

type ProductInput struct {
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Benefits          string          `json:"benefits"`
	UsageInstructions string          `json:"usage_instructions"`
	Warnings          string          `json:"warnings"`
	Price             decimal.Decimal `json:"price"`
	CategoryID        *uuid.UUID      `json:"category_id"`
	ImageURL          string          `json:"image_url"`
	StockQuantity     int             `json:"stock_quantity"`
	IsActive          *bool           `json:"is_active"`
}

type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

type Service interface {
	List(ctx context.Context, filter Filter) ([]Product, error)
	ListAll(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id uuid.UUID) (*Product, error)
	Related(ctx context.Context, p *Product, limit int) ([]Product, error)
	Create(ctx context.Context, input ProductInput) (*Product, error)
	Update(ctx context.Context, id uuid.UUID, input ProductInput) (*Product, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	Categories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, input CategoryInput) (*Category, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context, filter Filter) ([]Product, error) {
	products, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list products: %w", err)
	}
	return products, nil
}

func (s *service) ListAll(ctx context.Context) ([]Product, error) {
	products, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list all products: %w", err)
	}
	return products, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Product, error) {
	p, err := s.repo.GetActive(ctx, id)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch product: %w", err)
	}
	return p, nil
}

func (s *service) Related(ctx context.Context, p *Product, limit int) ([]Product, error) {
	if p.CategoryID == nil {
		return []Product{}, nil
	}
	related, err := s.repo.ListRelated(ctx, *p.CategoryID, p.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list related products: %w", err)
	}
	return related, nil
}

func validateProductInput(input *ProductInput) error {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return ErrNameRequired
	}
	if input.Price.IsNegative() {
		return ErrInvalidPrice
	}
	if input.StockQuantity < 0 {
		return ErrInvalidStock
	}
	return nil
}

func (s *service) Create(ctx context.Context, input ProductInput) (*Product, error) {
	if err := validateProductInput(&input); err != nil {
		return nil, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("service: failed to generate product ID: %w", err)
	}

	now := time.Now().UTC()
	p := &Product{
		ID:                id,
		Name:              input.Name,
		Description:       input.Description,
		Benefits:          input.Benefits,
		UsageInstructions: input.UsageInstructions,
		Warnings:          input.Warnings,
		Price:             input.Price,
		CategoryID:        input.CategoryID,
		ImageURL:          input.ImageURL,
		StockQuantity:     input.StockQuantity,
		IsActive:          true,
		RatingAverage:     decimal.Zero,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if input.IsActive != nil {
		p.IsActive = *input.IsActive
	}

	if err := s.repo.Create(ctx, p); err != nil {
		log.Error().Err(err).Msg("service: failed to create product")
		return nil, fmt.Errorf("service: failed to create product: %w", err)
	}

	log.Info().Stringer("product_id", p.ID).Str("name", p.Name).Msg("service: product created")
	return p, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input ProductInput) (*Product, error) {
	if err := validateProductInput(&input); err != nil {
		return nil, err
	}

	p, err := s.repo.GetAny(ctx, id)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch product for update: %w", err)
	}

	p.Name = input.Name
	p.Description = input.Description
	p.Benefits = input.Benefits
	p.UsageInstructions = input.UsageInstructions
	p.Warnings = input.Warnings
	p.Price = input.Price
	p.CategoryID = input.CategoryID
	p.ImageURL = input.ImageURL
	p.StockQuantity = input.StockQuantity
	if input.IsActive != nil {
		p.IsActive = *input.IsActive
	}
	p.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, p); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("service: failed to update product: %w", err)
	}

	log.Info().Stringer("product_id", p.ID).Msg("service: product updated")
	return p, nil
}

func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("service: failed to deactivate product: %w", err)
	}
	log.Info().Stringer("product_id", id).Msg("service: product deactivated")
	return nil
}

func (s *service) Categories(ctx context.Context) ([]Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *service) CreateCategory(ctx context.Context, input CategoryInput) (*Category, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, ErrNameRequired
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("service: failed to generate category ID: %w", err)
	}

	c := &Category{
		ID:          id,
		Name:        input.Name,
		Description: input.Description,
		ImageURL:    input.ImageURL,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.CreateCategory(ctx, c); err != nil {
		if errors.Is(err, ErrCategoryExists) {
			return nil, ErrCategoryExists
		}
		return nil, fmt.Errorf("service: failed to create category: %w", err)
	}

	log.Info().Stringer("category_id", c.ID).Str("name", c.Name).Msg("service: category created")
	return c, nil
}
