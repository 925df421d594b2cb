package entity

import "time"

type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "PENDING"
	DeliveryAssigned  DeliveryStatus = "ASSIGNED"
	DeliveryPickedUp  DeliveryStatus = "PICKED_UP"
	DeliveryInTransit DeliveryStatus = "IN_TRANSIT"
	DeliveryDelivered DeliveryStatus = "DELIVERED"
	DeliveryFailed    DeliveryStatus = "FAILED"
	DeliveryCancelled DeliveryStatus = "CANCELLED"
)

// Delivery tracks the physical fulfillment of one order (1:1). Its status
// machine drives the owning order's status, never the other way around.
type Delivery struct {
	ID             int64          `json:"id"`
	OrderID        int64          `json:"order_id"`
	Status         DeliveryStatus `json:"status"`
	RiderID        *int           `json:"rider_id,omitempty"`
	TrackingNumber string         `json:"tracking_number"`
	Version        int            `json:"version"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// RiderEarning is credited once when a delivery completes.
type RiderEarning struct {
	ID        int64     `json:"id"`
	RiderID   int       `json:"rider_id"`
	OrderID   int64     `json:"order_id"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}
