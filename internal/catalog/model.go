package catalog

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

type Product struct {
	ID                uuid.UUID       `json:"id"`
	Name              string          `json:"name"`
	Description       string          `json:"description,omitempty"`
	Benefits          string          `json:"benefits,omitempty"`
	UsageInstructions string          `json:"usage_instructions,omitempty"`
	Warnings          string          `json:"warnings,omitempty"`
	Price             decimal.Decimal `json:"price"`
	CategoryID        *uuid.UUID      `json:"category_id,omitempty"`
	CategoryName      string          `json:"category_name,omitempty"`
	ImageURL          string          `json:"image_url,omitempty"`
	StockQuantity     int             `json:"stock_quantity"`
	IsActive          bool            `json:"is_active"`
	RatingAverage     decimal.Decimal `json:"rating_average"`
	RatingCount       int             `json:"rating_count"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Filter narrows the public product listing.
type Filter struct {
	CategoryID *uuid.UUID
	Search     string
	Page       int
	PerPage    int
}

const defaultPerPage = 12

func (f *Filter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 || f.PerPage > 100 {
		f.PerPage = defaultPerPage
	}
}
