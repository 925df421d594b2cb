package entity

import "time"

type OrderStatus string

const (
	OrderPending        OrderStatus = "PENDING"
	OrderConfirmed      OrderStatus = "CONFIRMED"
	OrderProcessing     OrderStatus = "PROCESSING"
	OrderShipped        OrderStatus = "SHIPPED"
	OrderOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	OrderDelivered      OrderStatus = "DELIVERED"
	OrderCancelled      OrderStatus = "CANCELLED"
	OrderRefunded       OrderStatus = "REFUNDED"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
)

// Order is one vendor's share of a checkout. Every order created from the same
// checkout carries the same TransactionRef and PaymentIntentID.
type Order struct {
	ID                int64         `json:"id"`
	OrderNumber       string        `json:"order_number"`
	VendorID          int           `json:"vendor_id"`
	UserID            int           `json:"user_id"`
	TransactionRef    string        `json:"transaction_ref"`
	Subtotal          float64       `json:"subtotal"`
	ShippingCost      float64       `json:"shipping_cost"`
	Discount          float64       `json:"discount"`
	TotalAmount       float64       `json:"total_amount"`
	Status            OrderStatus   `json:"status"`
	PaymentStatus     PaymentStatus `json:"payment_status"`
	PaymentIntentID   string        `json:"payment_intent_id"`
	AddressID         *int64        `json:"address_id,omitempty"`
	ShippingAddressID *int64        `json:"shipping_address_id,omitempty"`
	ShippingCity      string        `json:"shipping_city"`
	ShippingState     string        `json:"shipping_state"`
	ShippingCountry   string        `json:"shipping_country"`
	Version           int           `json:"version"`
	Items             []OrderItem   `json:"items"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// OrderItem snapshots the purchased line at checkout time. Unit price is locked
// when the order is created; later catalog changes never touch it.
type OrderItem struct {
	ID         int64   `json:"id"`
	OrderID    int64   `json:"order_id"`
	ProductID  int     `json:"product_id"`
	VariantID  *int    `json:"variant_id,omitempty"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	TotalPrice float64 `json:"total_price"`
}
