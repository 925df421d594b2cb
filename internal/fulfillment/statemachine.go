package fulfillment

import "marketplace-backend/internal/entity"

// One adjacency map per entity, built once and tested exhaustively. Anything
// not listed is an invalid transition.

var orderTransitions = map[entity.OrderStatus][]entity.OrderStatus{
	entity.OrderPending:        {entity.OrderConfirmed, entity.OrderProcessing, entity.OrderCancelled},
	entity.OrderConfirmed:      {entity.OrderProcessing, entity.OrderCancelled},
	entity.OrderProcessing:     {entity.OrderShipped, entity.OrderCancelled},
	entity.OrderShipped:        {entity.OrderOutForDelivery, entity.OrderDelivered, entity.OrderCancelled},
	entity.OrderOutForDelivery: {entity.OrderDelivered},
	entity.OrderDelivered:      {entity.OrderRefunded},
	entity.OrderCancelled:      {entity.OrderRefunded},
	entity.OrderRefunded:       {},
}

var deliveryTransitions = map[entity.DeliveryStatus][]entity.DeliveryStatus{
	entity.DeliveryPending:   {entity.DeliveryAssigned, entity.DeliveryCancelled},
	entity.DeliveryAssigned:  {entity.DeliveryPickedUp, entity.DeliveryCancelled},
	entity.DeliveryPickedUp:  {entity.DeliveryInTransit},
	entity.DeliveryInTransit: {entity.DeliveryDelivered, entity.DeliveryFailed},
	entity.DeliveryDelivered: {},
	entity.DeliveryFailed:    {entity.DeliveryPending},
	entity.DeliveryCancelled: {entity.DeliveryPending},
}

// Delivery progress drives the owning order's status. The coupling is
// one-directional: order transitions never touch the delivery.
var deliveryToOrder = map[entity.DeliveryStatus]entity.OrderStatus{
	entity.DeliveryPickedUp:  entity.OrderShipped,
	entity.DeliveryInTransit: entity.OrderOutForDelivery,
	entity.DeliveryDelivered: entity.OrderDelivered,
}

func CanTransitionOrder(from, to entity.OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func ValidateOrderTransition(from, to entity.OrderStatus) error {
	if !CanTransitionOrder(from, to) {
		return &entity.InvalidTransitionError{Entity: "order", From: string(from), To: string(to)}
	}
	return nil
}

func CanTransitionDelivery(from, to entity.DeliveryStatus) bool {
	for _, next := range deliveryTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func ValidateDeliveryTransition(from, to entity.DeliveryStatus) error {
	if !CanTransitionDelivery(from, to) {
		return &entity.InvalidTransitionError{Entity: "delivery", From: string(from), To: string(to)}
	}
	return nil
}

// OrderStatusFor reports the order status a delivery transition propagates to,
// if any.
func OrderStatusFor(ds entity.DeliveryStatus) (entity.OrderStatus, bool) {
	status, ok := deliveryToOrder[ds]
	return status, ok
}

// OrderStatuses and DeliveryStatuses expose the known states so tests can walk
// the full adjacency grid.
func OrderStatuses() []entity.OrderStatus {
	return []entity.OrderStatus{
		entity.OrderPending, entity.OrderConfirmed, entity.OrderProcessing,
		entity.OrderShipped, entity.OrderOutForDelivery, entity.OrderDelivered,
		entity.OrderCancelled, entity.OrderRefunded,
	}
}

func DeliveryStatuses() []entity.DeliveryStatus {
	return []entity.DeliveryStatus{
		entity.DeliveryPending, entity.DeliveryAssigned, entity.DeliveryPickedUp,
		entity.DeliveryInTransit, entity.DeliveryDelivered, entity.DeliveryFailed,
		entity.DeliveryCancelled,
	}
}
