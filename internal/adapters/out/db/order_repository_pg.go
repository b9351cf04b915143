package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	common "brihaspati/internal/domain/common"
	orderdom "brihaspati/internal/domain/order"
)

// PostgreSQL implementation of order.Repository
type OrderRepositoryPG struct {
	DB    *sql.DB
	newID func() string
}

func NewOrderRepositoryPG(db *sql.DB) *OrderRepositoryPG {
	return &OrderRepositoryPG{DB: db, newID: uuid.NewString}
}

// Add inserts o with a generated uuid and returns it.
func (r *OrderRepositoryPG) Add(ctx context.Context, o orderdom.Order) (string, error) {
	if r == nil || r.DB == nil {
		return "", errors.New("order_repository_pg: db is nil")
	}

	items, err := json.Marshal(o.Items)
	if err != nil {
		return "", fmt.Errorf("order_repository_pg: encode items: %w", err)
	}

	id := r.newID()
	const q = `
INSERT INTO orders (
  id, customer_name, customer_email, customer_phone, customer_city, delivery_address,
  payment_method, items, total, order_date, estimated_delivery_date, status, user_id
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`

	_, err = r.DB.ExecContext(ctx, q,
		id,
		o.CustomerName,
		o.CustomerEmail,
		o.CustomerPhone,
		o.CustomerCity,
		o.DeliveryAddress,
		string(o.PaymentMethod),
		string(items),
		o.Total,
		o.OrderDate.UTC(),
		o.EstimatedDeliveryDate.UTC(),
		string(o.Status),
		nullString(o.UserID),
	)
	if err != nil {
		return "", classify("order_repository_pg: insert", err)
	}
	return id, nil
}

// classify maps driver errors onto the store failure classes.
func classify(op string, err error) error {
	var pe *pq.Error
	if errors.As(err, &pe) {
		switch {
		case pe.Code == "42501" || pe.Code.Class() == "28":
			return fmt.Errorf("%s: %w: %w", op, common.ErrPermissionDenied, err)
		case pe.Code.Class() == "08" || pe.Code.Class() == "57" || pe.Code.Class() == "53":
			return fmt.Errorf("%s: %w: %w", op, common.ErrOffline, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%s: %w: %w", op, common.ErrOffline, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
