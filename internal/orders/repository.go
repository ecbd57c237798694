package orders

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/rmarques/storefront/internal/domain"
)

var (
	ErrCartEmpty      = errors.New("cart is empty")
	ErrOrderNotFound  = errors.New("order not found")
	ErrNotCancellable = errors.New("only pending orders can be cancelled")
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type cartSnapshot struct {
	cartID string
	lines  []CheckoutLine
}

// loadSnapshot reads the user's cart lines joined with live product stock.
// It runs inside the checkout transaction so validation and commit see the
// same state.
func (r *Repository) loadSnapshot(ctx context.Context, tx *sql.Tx, userID string) (*cartSnapshot, error) {
	snap := &cartSnapshot{}

	err := tx.QueryRowContext(ctx, `
		SELECT id FROM carts WHERE user_id = $1
	`, userID).Scan(&snap.cartID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCartEmpty
		}
		return nil, err
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT ci.product_id, p.name, ci.variant, ci.quantity, ci.price, p.stock
		FROM cart_items ci
		JOIN products p ON ci.product_id = p.id
		WHERE ci.cart_id = $1
	`, snap.cartID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var line CheckoutLine
		if err := rows.Scan(&line.ProductID, &line.ProductName, &line.Variant, &line.Quantity, &line.Price, &line.Stock); err != nil {
			return nil, err
		}
		snap.lines = append(snap.lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(snap.lines) == 0 {
		return nil, ErrCartEmpty
	}

	return snap, nil
}

// PlaceOrder converts the user's cart into an order: snapshot, stock
// validation, order header, captured line items, stock decrements, cart
// clear. All of it is one transaction; any failure leaves every table
// untouched. The decrement is conditional on remaining stock so two
// concurrent checkouts cannot oversell: the loser rolls back with an
// InsufficientStockError even though its snapshot passed validation.
func (r *Repository) PlaceOrder(ctx context.Context, userID string) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	snap, err := r.loadSnapshot(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	if err := ValidateStock(snap.lines); err != nil {
		return nil, err
	}

	var total int64
	for _, line := range snap.lines {
		total += line.Price * int64(line.Quantity)
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:        uuid.New().String(),
		UserID:    userID,
		Total:     total,
		Status:    domain.OrderStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, total, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`, order.ID, order.UserID, order.Total, order.Status, order.CreatedAt)
	if err != nil {
		return nil, err
	}

	for _, line := range snap.lines {
		orderLine := domain.OrderLine{
			ID:          uuid.New().String(),
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			Price:       line.Price,
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, price)
			VALUES ($1, $2, $3, $4, $5)
		`, orderLine.ID, order.ID, orderLine.ProductID, orderLine.Quantity, orderLine.Price)
		if err != nil {
			return nil, err
		}
		order.Lines = append(order.Lines, orderLine)
	}

	for _, line := range snap.lines {
		result, err := tx.ExecContext(ctx, `
			UPDATE products
			SET stock = stock - $2
			WHERE id = $1 AND stock >= $2
		`, line.ProductID, line.Quantity)
		if err != nil {
			return nil, err
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return nil, err
		}
		if rowsAffected == 0 {
			return nil, &InsufficientStockError{ProductID: line.ProductID, ProductName: line.ProductName}
		}
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM cart_items WHERE cart_id = $1
	`, snap.cartID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return order, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	order := &domain.Order{}
	var tracking sql.NullString

	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, total, status, tracking_number, created_at, updated_at
		FROM orders
		WHERE id = $1
	`, id).Scan(&order.ID, &order.UserID, &order.Total, &order.Status, &tracking, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	order.TrackingNumber = tracking.String

	rows, err := r.db.QueryContext(ctx, `
		SELECT oi.id, oi.product_id, p.name, p.image_url, oi.quantity, oi.price
		FROM order_items oi
		JOIN products p ON oi.product_id = p.id
		WHERE oi.order_id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.ID, &line.ProductID, &line.ProductName, &line.ProductImage, &line.Quantity, &line.Price); err != nil {
			return nil, err
		}
		order.Lines = append(order.Lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return order, nil
}

// ListByUser returns the caller's orders, newest first, with their lines
// loaded in one batched query.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, total, status, tracking_number, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[string]*domain.Order)
	var orderIDs []string

	for rows.Next() {
		var order domain.Order
		var tracking sql.NullString
		if err := rows.Scan(&order.ID, &order.UserID, &order.Total, &order.Status, &tracking, &order.CreatedAt, &order.UpdatedAt); err != nil {
			return nil, err
		}
		order.TrackingNumber = tracking.String
		order.Lines = []domain.OrderLine{}
		orderMap[order.ID] = &order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	lineRows, err := r.db.QueryContext(ctx, `
		SELECT oi.order_id, oi.id, oi.product_id, p.name, p.image_url, oi.quantity, oi.price
		FROM order_items oi
		JOIN products p ON oi.product_id = p.id
		WHERE oi.order_id = ANY($1)
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = lineRows.Close() }()

	for lineRows.Next() {
		var orderID string
		var line domain.OrderLine
		if err := lineRows.Scan(&orderID, &line.ID, &line.ProductID, &line.ProductName, &line.ProductImage, &line.Quantity, &line.Price); err != nil {
			return nil, err
		}
		order := orderMap[orderID]
		order.Lines = append(order.Lines, line)
	}

	if err := lineRows.Err(); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}

// ListAll returns every order joined with its owner's identity, newest
// first. No pagination.
func (r *Repository) ListAll(ctx context.Context) ([]domain.AdminOrder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT o.id, o.user_id, u.name, u.email, o.total, o.status, o.tracking_number, o.created_at, o.updated_at
		FROM orders o
		JOIN users u ON o.user_id = u.id
		ORDER BY o.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orders := []domain.AdminOrder{}
	for rows.Next() {
		var order domain.AdminOrder
		var tracking sql.NullString
		if err := rows.Scan(&order.ID, &order.UserID, &order.UserName, &order.UserEmail, &order.Total, &order.Status, &tracking, &order.CreatedAt, &order.UpdatedAt); err != nil {
			return nil, err
		}
		order.TrackingNumber = tracking.String
		// The listing omits item rows; keep lines an empty list rather
		// than null, matching ListByUser.
		order.Lines = []domain.OrderLine{}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}

// UpdateStatus sets any canonical status from any prior status; there is no
// transition check on the administrative path. An empty tracking number
// clears the column.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, trackingNumber string) (*domain.Order, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, tracking_number = NULLIF($2, ''), updated_at = NOW()
		WHERE id = $3
	`, status, trackingNumber, id)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, nil
	}

	return r.GetByID(ctx, id)
}

// Cancel flips one of the caller's pending orders to cancelled. A foreign
// or unknown order id fails with ErrOrderNotFound either way, so callers
// cannot probe for other users' order ids. When restock is set, the
// cancelled quantities return to product stock in the same transaction.
func (r *Repository) Cancel(ctx context.Context, id, userID string, restock bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var ownerID string
	var status domain.OrderStatus
	err = tx.QueryRowContext(ctx, `
		SELECT user_id, status FROM orders WHERE id = $1 FOR UPDATE
	`, id).Scan(&ownerID, &status)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrOrderNotFound
		}
		return err
	}

	if ownerID != userID {
		return ErrOrderNotFound
	}
	if status != domain.OrderStatusPending {
		return ErrNotCancellable
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, domain.OrderStatusCancelled, id)
	if err != nil {
		return err
	}

	if restock {
		_, err = tx.ExecContext(ctx, `
			UPDATE products p
			SET stock = p.stock + oi.quantity
			FROM order_items oi
			WHERE oi.order_id = $1 AND oi.product_id = p.id
		`, id)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}
