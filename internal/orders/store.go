// Package orders persists placed checkout orders in PostgreSQL.
package orders

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"

	"storefront/internal/checkout"
	"storefront/internal/common/database"
)

// Migrations holds the schema for the order tables.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations holding the files.
const MigrationsDir = "migrations"

const (
	numberPrefix   = "ORD-"
	numberAttempts = 3
	statusPlaced   = "PLACED"
)

var itemColumns = []string{
	"order_id", "position", "item_id", "name", "color", "size",
	"quantity", "unit_price_minor", "line_total_minor",
}

// Store places orders in the database. It implements checkout.OrderService.
type Store struct {
	db     *database.DB
	logger *slog.Logger
	now    func() time.Time
}

// New creates a new order store
func New(db *database.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger, now: time.Now}
}

var _ checkout.OrderService = (*Store)(nil)

// Checkout stores the order and its items in one transaction. A clash on
// the generated order number is retried with a fresh number.
func (s *Store) Checkout(ctx context.Context, sub *checkout.Submission) (*checkout.OrderRef, error) {
	if sub == nil || len(sub.Items) == 0 {
		return nil, &checkout.OrderRejectedError{Message: "Your cart is empty"}
	}

	var lastErr error
	for attempt := 0; attempt < numberAttempts; attempt++ {
		now := s.now().UTC()
		id := ulid.Make().String()
		number := orderNumber(id, now)

		err := s.db.WithTx(ctx, func(tx pgx.Tx) error {
			return insertOrder(ctx, tx, id, number, sub, now)
		})
		if err == nil {
			s.logger.Info("order placed",
				"order_id", id,
				"order_number", number,
				"items", len(sub.Items),
				"total", sub.Total.AmountMinor,
			)
			return &checkout.OrderRef{OrderID: id, OrderNumber: number}, nil
		}
		if !errors.Is(err, database.ErrAlreadyExists) {
			return nil, err
		}
		lastErr = err
		s.logger.Warn("order number clash, retrying", "order_number", number, "attempt", attempt+1)
	}
	return nil, fmt.Errorf("placing order: %w", lastErr)
}

// orderNumber is the date of the order followed by the random tail of its ID.
func orderNumber(id string, at time.Time) string {
	tail := id
	if len(tail) > 6 {
		tail = tail[len(tail)-6:]
	}
	return numberPrefix + at.Format("060102") + "-" + strings.ToUpper(tail)
}

func insertOrder(ctx context.Context, tx pgx.Tx, id, number string, sub *checkout.Submission, now time.Time) error {
	args, err := orderArgs(id, number, sub, now)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO orders (
			id, order_number, status, customer_first, customer_last, customer_email,
			customer_phone, billing_address, shipping_address, delivery_method,
			payment_method, card_type, card_last4, coupon_code, order_notes,
			shipping_notes, subtotal_minor, shipping_fee_minor, discount_minor,
			tax_minor, total_minor, currency, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23
		)
	`
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("order number %s: %w", number, database.ErrAlreadyExists)
		}
		return fmt.Errorf("inserting order: %w", err)
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"order_items"}, itemColumns, pgx.CopyFromRows(itemRows(id, sub.Items))); err != nil {
		return fmt.Errorf("inserting order items: %w", err)
	}
	return nil
}

func orderArgs(id, number string, sub *checkout.Submission, now time.Time) ([]interface{}, error) {
	billing, err := json.Marshal(sub.BillingAddress)
	if err != nil {
		return nil, fmt.Errorf("encoding billing address: %w", err)
	}
	shipping, err := json.Marshal(sub.ShippingAddress)
	if err != nil {
		return nil, fmt.Errorf("encoding shipping address: %w", err)
	}

	var cardType, cardLast4 *string
	if sub.PaymentInfo != nil {
		cardType = nullable(sub.PaymentInfo.CardType)
		cardLast4 = nullable(sub.PaymentInfo.CardLast4)
	}

	return []interface{}{
		id,
		number,
		statusPlaced,
		sub.Customer.FirstName,
		sub.Customer.LastName,
		sub.Customer.Email,
		sub.Customer.Phone,
		billing,
		shipping,
		sub.DeliveryMethod,
		sub.PaymentMethod,
		cardType,
		cardLast4,
		nullable(sub.CouponCode),
		nullable(sub.OrderNotes),
		nullable(sub.ShippingNotes),
		sub.Subtotal.AmountMinor,
		sub.ShippingFee.AmountMinor,
		sub.Discount.AmountMinor,
		sub.TaxTotal.AmountMinor,
		sub.Total.AmountMinor,
		string(sub.Total.Currency),
		now,
	}, nil
}

func itemRows(orderID string, items []checkout.Item) [][]interface{} {
	rows := make([][]interface{}, 0, len(items))
	for i, it := range items {
		rows = append(rows, []interface{}{
			orderID,
			i + 1,
			it.ID,
			it.Name,
			nullable(it.Color),
			nullable(it.Size),
			it.Quantity,
			it.UnitPrice.AmountMinor,
			it.LineTotal.AmountMinor,
		})
	}
	return rows
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
