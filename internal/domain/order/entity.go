// internal/domain/order/entity.go
package order

import (
	"errors"
	"strings"
	"time"

	"brihaspati/internal/domain/cart"
	common "brihaspati/internal/domain/common"
)

type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cod"
	PaymentOnline         PaymentMethod = "online"
)

type Status string

const StatusPending Status = "pending"

// DeliveryLeadTime is added to the order date to get the estimated delivery.
const DeliveryLeadTime = 3 * 24 * time.Hour

var (
	ErrEmptyCart                = errors.New("order: cart is empty")
	ErrOnlinePaymentUnavailable = errors.New("order: online payment is under development")
)

// Form is the checkout form as submitted by the shopper.
type Form struct {
	CustomerName    string        `json:"customerName"`
	CustomerEmail   string        `json:"customerEmail"`
	CustomerPhone   string        `json:"customerPhone"`
	CustomerCity    string        `json:"customerCity"`
	DeliveryAddress string        `json:"deliveryAddress"`
	PaymentMethod   PaymentMethod `json:"paymentMethod"`
}

// Order is the document stored in the orders collection.
type Order struct {
	ID                    string        `json:"id"`
	CustomerName          string        `json:"customerName"`
	CustomerEmail         string        `json:"customerEmail"`
	CustomerPhone         string        `json:"customerPhone"`
	CustomerCity          string        `json:"customerCity"`
	DeliveryAddress       string        `json:"deliveryAddress"`
	PaymentMethod         PaymentMethod `json:"paymentMethod"`
	Items                 []cart.Line   `json:"items"`
	Total                 float64       `json:"total"`
	OrderDate             time.Time     `json:"orderDate"`
	EstimatedDeliveryDate time.Time     `json:"estimatedDeliveryDate"`
	Status                Status        `json:"status"`
	UserID                string        `json:"userId,omitempty"`
}

// Validate checks the form in the order the shopper sees the messages.
func (f Form) Validate() error {
	required := []struct {
		field string
		value string
		label string
	}{
		{"customerName", f.CustomerName, "name"},
		{"customerEmail", f.CustomerEmail, "email"},
		{"customerPhone", f.CustomerPhone, "phone"},
		{"customerCity", f.CustomerCity, "city"},
		{"deliveryAddress", f.DeliveryAddress, "deliveryaddress"},
	}
	for _, r := range required {
		if common.Blank(r.value) {
			return common.NewValidationError(r.field, "Please fill in "+r.label)
		}
	}

	if !common.IsEmail(f.CustomerEmail) {
		return common.NewValidationError("customerEmail", "Please enter a valid email address")
	}
	if len(common.Digits(f.CustomerPhone)) != 10 {
		return common.NewValidationError("customerPhone", "Please enter a valid 10-digit mobile number")
	}
	return nil
}

// New builds a pending order from a validated form and the cart lines.
func New(f Form, lines []cart.Line, userID string, now time.Time) (Order, error) {
	if len(lines) == 0 {
		return Order{}, ErrEmptyCart
	}
	if err := f.Validate(); err != nil {
		return Order{}, err
	}
	if f.PaymentMethod == PaymentOnline {
		return Order{}, ErrOnlinePaymentUnavailable
	}

	pm := f.PaymentMethod
	if pm == "" {
		pm = PaymentCashOnDelivery
	}

	items := cart.Clone(lines)
	return Order{
		CustomerName:          strings.TrimSpace(f.CustomerName),
		CustomerEmail:         strings.TrimSpace(f.CustomerEmail),
		CustomerPhone:         strings.TrimSpace(f.CustomerPhone),
		CustomerCity:          strings.TrimSpace(f.CustomerCity),
		DeliveryAddress:       strings.TrimSpace(f.DeliveryAddress),
		PaymentMethod:         pm,
		Items:                 items,
		Total:                 cart.TotalPrice(items),
		OrderDate:             now.UTC(),
		EstimatedDeliveryDate: now.UTC().Add(DeliveryLeadTime),
		Status:                StatusPending,
		UserID:                strings.TrimSpace(userID),
	}, nil
}

// OrdersTableDDL is the Postgres schema used when orders are kept in SQL.
const OrdersTableDDL = `
CREATE TABLE IF NOT EXISTS orders (
  id                      TEXT PRIMARY KEY,
  customer_name           TEXT NOT NULL,
  customer_email          TEXT NOT NULL,
  customer_phone          TEXT NOT NULL,
  customer_city           TEXT NOT NULL,
  delivery_address        TEXT NOT NULL,
  payment_method          TEXT NOT NULL,
  items                   JSONB NOT NULL,
  total                   NUMERIC(12,2) NOT NULL CHECK (total >= 0),
  order_date              TIMESTAMPTZ NOT NULL,
  estimated_delivery_date TIMESTAMPTZ NOT NULL,
  status                  TEXT NOT NULL,
  user_id                 TEXT,
  created_at              TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders(user_id);
`
