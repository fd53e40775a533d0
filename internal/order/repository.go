package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrNotCancellable = errors.New("order cannot be cancelled in its current state")
	ErrStateConflict  = errors.New("order status changed concurrently")
)

// InsufficientStockError reports the products that blocked a placement.
type InsufficientStockError struct {
	Products []string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for: %s", strings.Join(e.Products, ", "))
}

type Repository interface {
	// Create persists the order, its items, the stock decrements, and the
	// cart clearing as one transaction. Stock is decremented conditionally;
	// a line that cannot be covered aborts the whole placement.
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
	// Cancel flips the order to cancelled and restores stock for every item,
	// in one transaction guarded by a row lock. ownerID narrows the lookup to
	// that owner; uuid.Nil skips the ownership filter (administrative path).
	Cancel(ctx context.Context, orderID, ownerID uuid.UUID, allowedFrom []Status, reason string) error
	// UpdateStatus transitions from exactly the given status; a concurrent
	// change surfaces as ErrStateConflict.
	UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to Status, trackingNumber string) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const orderColumns = `
	id, order_number, user_id, status, subtotal, tax_amount, shipping_amount, total_amount,
	address_line1, address_line2, city, state, postal_code, phone,
	payment_method, tracking_number, notes, cancel_reason, created_at, updated_at
`

func (r *postgresRepository) Create(ctx context.Context, o *Order) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				log.Error().Err(rbErr).Stringer("order_id", o.ID).Msg("repository: failed to rollback placement")
			}
		}
	}()

	// Conditional decrement closes the check-then-act race: two checkouts
	// competing for the last unit cannot both match stock_quantity >= $1.
	for _, item := range o.Items {
		cmdTag, execErr := tx.Exec(ctx, `
			UPDATE products
			SET stock_quantity = stock_quantity - $1, updated_at = now()
			WHERE id = $2 AND stock_quantity >= $1
		`, item.Quantity, item.ProductID)
		if execErr != nil {
			err = fmt.Errorf("repository: failed to decrement stock for product %s: %w", item.ProductID, execErr)
			return err
		}
		if cmdTag.RowsAffected() == 0 {
			err = &InsufficientStockError{Products: []string{item.ProductName}}
			return err
		}
	}

	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`,
		o.ID, o.OrderNumber, o.UserID, string(o.Status),
		o.Subtotal, o.TaxAmount, o.ShippingAmount, o.TotalAmount,
		o.ShippingAddress.Line1, o.ShippingAddress.Line2, o.ShippingAddress.City,
		o.ShippingAddress.State, o.ShippingAddress.PostalCode, o.ShippingAddress.Phone,
		o.PaymentMethod, o.TrackingNumber, o.Notes, o.CancelReason, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		err = fmt.Errorf("repository: failed to insert order: %w", err)
		return err
	}

	for i := range o.Items {
		item := &o.Items[i]
		itemID, genErr := uuid.NewV4()
		if genErr != nil {
			err = fmt.Errorf("repository: failed to generate order item ID: %w", genErr)
			return err
		}
		item.ID = itemID
		item.OrderID = o.ID

		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, product_name, quantity, unit_price, total_price)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, item.ID, item.OrderID, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice, item.TotalPrice)
		if err != nil {
			err = fmt.Errorf("repository: failed to insert order item for order %s: %w", o.ID, err)
			return err
		}
	}

	if _, err = tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, o.UserID); err != nil {
		err = fmt.Errorf("repository: failed to clear cart for user %s: %w", o.UserID, err)
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		err = fmt.Errorf("repository: failed to commit placement: %w", err)
		return err
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *postgresRepository) GetByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_number = $1`, orderNumber)
}

func (r *postgresRepository) getOne(ctx context.Context, query string, arg any) (*Order, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order: %w", err)
	}

	items, err := r.itemsFor(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var status string
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &status,
		&o.Subtotal, &o.TaxAmount, &o.ShippingAmount, &o.TotalAmount,
		&o.ShippingAddress.Line1, &o.ShippingAddress.Line2, &o.ShippingAddress.City,
		&o.ShippingAddress.State, &o.ShippingAddress.PostalCode, &o.ShippingAddress.Phone,
		&o.PaymentMethod, &o.TrackingNumber, &o.Notes, &o.CancelReason, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Status = Status(status)
	return &o, nil
}

func (r *postgresRepository) itemsFor(ctx context.Context, orderID uuid.UUID) ([]Item, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, product_id, product_name, quantity, unit_price, total_price
		FROM order_items
		WHERE order_id = $1
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items for order %s: %w", orderID, err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var item Item
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.Quantity, &item.UnitPrice, &item.TotalPrice)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item for order %s: %w", orderID, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order items for order %s: %w", orderID, err)
	}
	return items, nil
}

func (r *postgresRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	return r.list(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *postgresRepository) ListAll(ctx context.Context) ([]Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

func (r *postgresRepository) list(ctx context.Context, query string, args ...any) ([]Order, error) {
	orderRows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	defer orderRows.Close()

	ordersMap := make(map[uuid.UUID]*Order)
	var orderIDs []uuid.UUID

	for orderRows.Next() {
		o, err := scanOrder(orderRows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		o.Items = make([]Item, 0)
		ordersMap[o.ID] = o
		orderIDs = append(orderIDs, o.ID)
	}
	if err := orderRows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders: %w", err)
	}

	if len(orderIDs) == 0 {
		return []Order{}, nil
	}

	itemRows, err := r.db.Query(ctx, `
		SELECT id, order_id, product_id, product_name, quantity, unit_price, total_price
		FROM order_items
		WHERE order_id = ANY($1)
	`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item Item
		err := itemRows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.Quantity, &item.UnitPrice, &item.TotalPrice)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item: %w", err)
		}
		if o, ok := ordersMap[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order items: %w", err)
	}

	result := make([]Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		result = append(result, *ordersMap[id])
	}
	return result, nil
}

func (r *postgresRepository) Cancel(ctx context.Context, orderID, ownerID uuid.UUID, allowedFrom []Status, reason string) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				log.Error().Err(rbErr).Stringer("order_id", orderID).Msg("repository: failed to rollback cancellation")
			}
		}
	}()

	// Lock the order row so a concurrent cancel or status update serializes
	// behind this one; the status check below then decides exactly once.
	query := `SELECT status FROM orders WHERE id = $1`
	args := []any{orderID}
	if ownerID != uuid.Nil {
		query += ` AND user_id = $2`
		args = append(args, ownerID)
	}
	query += ` FOR UPDATE`

	var current string
	if err = tx.QueryRow(ctx, query, args...).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = ErrOrderNotFound
			return err
		}
		err = fmt.Errorf("repository: failed to lock order %s: %w", orderID, err)
		return err
	}

	allowed := false
	for _, s := range allowedFrom {
		if Status(current) == s {
			allowed = true
			break
		}
	}
	if !allowed {
		err = fmt.Errorf("%w: status is %s", ErrNotCancellable, current)
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE orders
		SET status = $1, cancel_reason = $2, updated_at = now()
		WHERE id = $3
	`, string(StatusCancelled), reason, orderID)
	if err != nil {
		err = fmt.Errorf("repository: failed to mark order %s cancelled: %w", orderID, err)
		return err
	}

	// Exact inverse of the placement decrement, applied once per order: the
	// status guard above rejects a second cancellation before reaching here.
	rows, qErr := tx.Query(ctx, `SELECT product_id, quantity FROM order_items WHERE order_id = $1`, orderID)
	if qErr != nil {
		err = fmt.Errorf("repository: failed to query items for cancellation of %s: %w", orderID, qErr)
		return err
	}
	type restore struct {
		productID uuid.UUID
		quantity  int
	}
	var restores []restore
	for rows.Next() {
		var re restore
		if err = rows.Scan(&re.productID, &re.quantity); err != nil {
			rows.Close()
			err = fmt.Errorf("repository: failed to scan item for cancellation of %s: %w", orderID, err)
			return err
		}
		restores = append(restores, re)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		err = fmt.Errorf("repository: error iterating items for cancellation of %s: %w", orderID, err)
		return err
	}

	for _, re := range restores {
		_, err = tx.Exec(ctx, `
			UPDATE products SET stock_quantity = stock_quantity + $1, updated_at = now() WHERE id = $2
		`, re.quantity, re.productID)
		if err != nil {
			err = fmt.Errorf("repository: failed to restore stock for product %s: %w", re.productID, err)
			return err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		err = fmt.Errorf("repository: failed to commit cancellation: %w", err)
		return err
	}
	return nil
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to Status, trackingNumber string) error {
	query := `
		UPDATE orders
		SET status = $1, updated_at = now()
	`
	args := []any{string(to)}
	if trackingNumber != "" {
		args = append(args, trackingNumber)
		query += fmt.Sprintf(", tracking_number = $%d", len(args))
	}
	args = append(args, orderID, string(from))
	query += fmt.Sprintf(" WHERE id = $%d AND status = $%d", len(args)-1, len(args))

	cmdTag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("repository: failed to update status of order %s: %w", orderID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrStateConflict
	}
	return nil
}
