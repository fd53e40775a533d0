package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/mediplant/storefront/internal/cart"
	"github.com/mediplant/storefront/internal/user"
)

var (
	ErrCartEmpty          = errors.New("cart is empty")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrPaymentUnsupported = errors.New("unsupported payment method")
)

// ValidationError reports a missing or malformed field in the placement input.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid value for field %q", e.Field)
}

// Any non-terminal status may move to cancelled; confirmed may skip straight
// to shipped when there is no separate preparation step.
var allowedTransitions = map[Status]map[Status]bool{
	StatusPending:    {StatusConfirmed: true, StatusCancelled: true},
	StatusConfirmed:  {StatusProcessing: true, StatusShipped: true, StatusCancelled: true},
	StatusProcessing: {StatusShipped: true, StatusCancelled: true},
	StatusShipped:    {StatusDelivered: true, StatusCancelled: true},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

// customerCancellable is narrower than the admin transition table: once the
// order is being prepared the customer goes through support instead.
var customerCancellable = []Status{StatusPending, StatusConfirmed}

var paymentMethods = map[string]bool{
	"cod":  true,
	"card": true,
	"upi":  true,
}

// CartReader is the slice of the cart service checkout depends on: the same
// reader the cart page uses, so both surfaces price from identical data.
type CartReader interface {
	Lines(ctx context.Context, userID uuid.UUID) ([]cart.Line, error)
}

type PlaceInput struct {
	Address       Address
	PaymentMethod string
	Notes         string
}

type Service interface {
	Place(ctx context.Context, ident user.Identity, input PlaceInput) (*Order, error)
	Get(ctx context.Context, ident user.Identity, id uuid.UUID) (*Order, error)
	GetByNumber(ctx context.Context, ident user.Identity, orderNumber string) (*Order, error)
	List(ctx context.Context, ident user.Identity) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
	Cancel(ctx context.Context, ident user.Identity, id uuid.UUID, reason string) error
	UpdateStatus(ctx context.Context, id uuid.UUID, to Status, trackingNumber string) error
	Quote(ctx context.Context, ident user.Identity) (Breakdown, error)
}

type service struct {
	repo    Repository
	carts   CartReader
	pricing PricingConfig
}

func NewService(repo Repository, carts CartReader, pricing PricingConfig) Service {
	return &service{repo: repo, carts: carts, pricing: pricing}
}

func validatePlaceInput(input PlaceInput) error {
	switch {
	case strings.TrimSpace(input.Address.Line1) == "":
		return &ValidationError{Field: "address_line1"}
	case strings.TrimSpace(input.Address.City) == "":
		return &ValidationError{Field: "city"}
	case strings.TrimSpace(input.Address.State) == "":
		return &ValidationError{Field: "state"}
	case strings.TrimSpace(input.Address.PostalCode) == "":
		return &ValidationError{Field: "postal_code"}
	case strings.TrimSpace(input.Address.Phone) == "":
		return &ValidationError{Field: "phone"}
	}
	if !paymentMethods[input.PaymentMethod] {
		return ErrPaymentUnsupported
	}
	return nil
}

func (s *service) Place(ctx context.Context, ident user.Identity, input PlaceInput) (*Order, error) {
	if err := validatePlaceInput(input); err != nil {
		return nil, err
	}

	lines, err := s.carts.Lines(ctx, ident.UserID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to read cart for placement: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrCartEmpty
	}

	// Checkout is strict where the cart page is lenient: any shortfall
	// rejects the placement instead of silently shrinking the order.
	var short []string
	for _, l := range lines {
		if l.AvailableStock < l.Quantity {
			short = append(short, l.ProductName)
		}
	}
	if len(short) > 0 {
		return nil, &InsufficientStockError{Products: short}
	}

	subtotal := decimal.Zero
	items := make([]Item, 0, len(lines))
	for _, l := range lines {
		items = append(items, Item{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			TotalPrice:  l.LineSubtotal,
		})
		subtotal = subtotal.Add(l.LineSubtotal)
	}
	breakdown := CalculateBreakdown(s.pricing, subtotal)

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("service: failed to generate order ID: %w", err)
	}

	o := &Order{
		ID:              id,
		OrderNumber:     generateOrderNumber(time.Now(), id),
		UserID:          ident.UserID,
		Status:          StatusPending,
		Items:           items,
		Subtotal:        breakdown.Subtotal,
		TaxAmount:       breakdown.Tax,
		ShippingAmount:  breakdown.Shipping,
		TotalAmount:     breakdown.Total,
		ShippingAddress: input.Address,
		PaymentMethod:   input.PaymentMethod,
		Notes:           input.Notes,
	}

	if err := s.repo.Create(ctx, o); err != nil {
		var stockErr *InsufficientStockError
		if errors.As(err, &stockErr) {
			return nil, stockErr
		}
		return nil, fmt.Errorf("service: failed to place order: %w", err)
	}

	log.Info().
		Stringer("order_id", o.ID).
		Str("order_number", o.OrderNumber).
		Stringer("user_id", ident.UserID).
		Str("total", o.TotalAmount.StringFixed(2)).
		Msg("service: order placed")
	return o, nil
}

// Quote prices the current cart without placing anything. It reads the same
// lines and applies the same strict stock check as Place, so a cart that
// would be rejected at placement never quotes a total.
func (s *service) Quote(ctx context.Context, ident user.Identity) (Breakdown, error) {
	lines, err := s.carts.Lines(ctx, ident.UserID)
	if err != nil {
		return Breakdown{}, fmt.Errorf("service: failed to read cart for quote: %w", err)
	}
	if len(lines) == 0 {
		return Breakdown{}, ErrCartEmpty
	}

	var short []string
	for _, l := range lines {
		if l.AvailableStock < l.Quantity {
			short = append(short, l.ProductName)
		}
	}
	if len(short) > 0 {
		return Breakdown{}, &InsufficientStockError{Products: short}
	}

	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.LineSubtotal)
	}
	return CalculateBreakdown(s.pricing, subtotal), nil
}

func (s *service) Get(ctx context.Context, ident user.Identity, id uuid.UUID) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("service: failed to get order: %w", err)
	}
	// Another customer's order reads as absent, not as forbidden.
	if !ident.IsAdmin() && o.UserID != ident.UserID {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (s *service) GetByNumber(ctx context.Context, ident user.Identity, orderNumber string) (*Order, error) {
	o, err := s.repo.GetByNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("service: failed to get order by number: %w", err)
	}
	if !ident.IsAdmin() && o.UserID != ident.UserID {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (s *service) List(ctx context.Context, ident user.Identity) ([]Order, error) {
	orders, err := s.repo.ListByUser(ctx, ident.UserID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *service) ListAll(ctx context.Context) ([]Order, error) {
	orders, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list all orders: %w", err)
	}
	return orders, nil
}

func (s *service) Cancel(ctx context.Context, ident user.Identity, id uuid.UUID, reason string) error {
	ownerID := ident.UserID
	allowedFrom := customerCancellable
	if ident.IsAdmin() {
		ownerID = uuid.Nil
		allowedFrom = []Status{StatusPending, StatusConfirmed, StatusProcessing, StatusShipped}
	}

	if err := s.repo.Cancel(ctx, id, ownerID, allowedFrom, reason); err != nil {
		if errors.Is(err, ErrOrderNotFound) || errors.Is(err, ErrNotCancellable) {
			return err
		}
		return fmt.Errorf("service: failed to cancel order: %w", err)
	}

	log.Info().
		Stringer("order_id", id).
		Stringer("user_id", ident.UserID).
		Msg("service: order cancelled, stock restored")
	return nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, to Status, trackingNumber string) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	}

	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("service: failed to load order for status update: %w", err)
	}

	if !allowedTransitions[o.Status][to] {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, o.Status, to)
	}

	// Cancellation restores stock, so it goes through the cancel path even
	// when an administrator drives it from the status endpoint.
	if to == StatusCancelled {
		return s.Cancel(ctx, user.Identity{Role: user.RoleAdmin}, id, "cancelled by admin")
	}

	if to == StatusShipped && strings.TrimSpace(trackingNumber) == "" {
		return &ValidationError{Field: "tracking_number"}
	}

	if err := s.repo.UpdateStatus(ctx, id, o.Status, to, trackingNumber); err != nil {
		if errors.Is(err, ErrStateConflict) {
			return fmt.Errorf("%w: order changed concurrently", ErrInvalidTransition)
		}
		return fmt.Errorf("service: failed to update order status: %w", err)
	}

	log.Info().
		Stringer("order_id", id).
		Str("from", o.Status.String()).
		Str("to", to.String()).
		Msg("service: order status updated")
	return nil
}
