package cart

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/rmarques/storefront/internal/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrLineNotFound    = errors.New("cart item not found")
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Get loads the user's cart with its lines joined against product names.
// A user without a cart gets an empty cart value, not an error.
func (r *Repository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	cart := &domain.Cart{UserID: userID, Lines: []domain.CartLine{}}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, created_at
		FROM carts
		WHERE user_id = $1
	`, userID).Scan(&cart.ID, &cart.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return cart, nil
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT ci.id, ci.product_id, p.name, ci.variant, ci.quantity, ci.price, ci.added_at
		FROM cart_items ci
		JOIN products p ON ci.product_id = p.id
		WHERE ci.cart_id = $1
		ORDER BY ci.added_at
	`, cart.ID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(&line.ID, &line.ProductID, &line.ProductName, &line.Variant, &line.Quantity, &line.Price, &line.AddedAt); err != nil {
			return nil, err
		}
		cart.Lines = append(cart.Lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return cart, nil
}

// AddLine captures the product's current price and adds it to the user's
// cart, creating the cart on first use. Re-adding the same product+variant
// increments the existing line instead of duplicating it.
func (r *Repository) AddLine(ctx context.Context, userID, productID, variant string, quantity int) error {
	var price int64
	err := r.db.QueryRowContext(ctx, `
		SELECT price FROM products WHERE id = $1
	`, productID).Scan(&price)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrProductNotFound
		}
		return err
	}

	cartID, err := r.getOrCreateCart(ctx, userID)
	if err != nil {
		return err
	}

	// The unique (cart_id, product_id, variant) index turns concurrent adds
	// of the same line into increments.
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO cart_items (id, cart_id, product_id, variant, quantity, price, added_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (cart_id, product_id, variant)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
	`, uuid.New().String(), cartID, productID, variant, quantity, price, time.Now().UTC())
	return err
}

func (r *Repository) getOrCreateCart(ctx context.Context, userID string) (string, error) {
	var cartID string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO carts (id, user_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id
	`, uuid.New().String(), userID, time.Now().UTC()).Scan(&cartID)
	return cartID, err
}

// UpdateQuantity sets the quantity of one of the caller's cart lines.
func (r *Repository) UpdateQuantity(ctx context.Context, userID, lineID string, quantity int) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE cart_items ci
		SET quantity = $1
		FROM carts c
		WHERE ci.id = $2 AND ci.cart_id = c.id AND c.user_id = $3
	`, quantity, lineID, userID)
	if err != nil {
		return err
	}
	return r.requireLine(result)
}

func (r *Repository) RemoveLine(ctx context.Context, userID, lineID string) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_items ci
		USING carts c
		WHERE ci.id = $1 AND ci.cart_id = c.id AND c.user_id = $2
	`, lineID, userID)
	if err != nil {
		return err
	}
	return r.requireLine(result)
}

// Clear removes every line from the user's cart. The cart row is kept for
// reuse; clearing a missing cart is a no-op.
func (r *Repository) Clear(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_items ci
		USING carts c
		WHERE ci.cart_id = c.id AND c.user_id = $1
	`, userID)
	return err
}

func (r *Repository) requireLine(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrLineNotFound
	}
	return nil
}
