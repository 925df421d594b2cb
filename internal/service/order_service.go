package service

import (
	"context"
	"errors"
	"fmt"

	"marketplace-backend/internal/entity"
	"marketplace-backend/internal/fulfillment"
	"marketplace-backend/internal/scope"
)

const (
	resourceOrders = "orders"
	actionRead     = "read"
	actionUpdate   = "update"
)

// OrderStore is the repository surface the order service drives transitions
// and listings through.
type OrderStore interface {
	GetOrderByID(ctx context.Context, id int64) (*entity.Order, error)
	ListOrdersByUser(ctx context.Context, userID int) ([]*entity.Order, error)
	ListOrdersByVendor(ctx context.Context, vendorID int) ([]*entity.Order, error)
	ListOrdersWhere(ctx context.Context, where string, args []interface{}) ([]*entity.Order, error)
	ListAllOrders(ctx context.Context) ([]*entity.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, version int, status entity.OrderStatus) error
	CreateDelivery(ctx context.Context, delivery *entity.Delivery) error
	GetDeliveryByID(ctx context.Context, id int64) (*entity.Delivery, error)
	GetDeliveryByOrderID(ctx context.Context, orderID int64) (*entity.Delivery, error)
	UpdateDeliveryStatus(ctx context.Context, id int64, version int, status entity.DeliveryStatus, riderID *int) error
	CreateRiderEarning(ctx context.Context, earning *entity.RiderEarning) error
}

type Restocker interface {
	Restock(ctx context.Context, productID, quantity int) error
}

type Sink interface {
	Notify(ctx context.Context, userID int, ntype, title, message string, data map[string]interface{})
}

// OrderService applies fulfillment transitions and their side effects, and
// serves the role- and scope-filtered order listings.
type OrderService struct {
	store     OrderStore
	inventory Restocker
	sink      Sink
	columns   map[string]string
}

func NewOrderService(store OrderStore, inventory Restocker, sink Sink, scopeColumns map[string]string) *OrderService {
	return &OrderService{store: store, inventory: inventory, sink: sink, columns: scopeColumns}
}

// UpdateOrderStatus drives one order transition on behalf of an operator.
// The optimistic version check serializes racing operators per order; side
// effects run only after the update wins, so they fire exactly once.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, operator entity.Operator, orderID int64, newStatus entity.OrderStatus) (*entity.Order, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !s.mayTransition(ctx, operator, order, false) {
		return nil, entity.ErrForbidden
	}
	if err := fulfillment.ValidateOrderTransition(order.Status, newStatus); err != nil {
		return nil, err
	}

	if err := s.store.UpdateOrderStatus(ctx, order.ID, order.Version, newStatus); err != nil {
		return nil, err
	}
	order.Status = newStatus
	order.Version++

	if err := s.applySideEffects(ctx, order, newStatus); err != nil {
		return nil, err
	}
	return order, nil
}

// CancelOrder cancels an order on behalf of its customer or any operator
// allowed to drive transitions on it.
func (s *OrderService) CancelOrder(ctx context.Context, operator entity.Operator, orderID int64) (*entity.Order, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	ownCustomer := operator.Role == entity.RoleCustomer && operator.ID == order.UserID
	if !ownCustomer && !s.mayTransition(ctx, operator, order, false) {
		return nil, entity.ErrForbidden
	}
	if err := fulfillment.ValidateOrderTransition(order.Status, entity.OrderCancelled); err != nil {
		return nil, err
	}

	if err := s.store.UpdateOrderStatus(ctx, order.ID, order.Version, entity.OrderCancelled); err != nil {
		return nil, err
	}
	order.Status = entity.OrderCancelled
	order.Version++

	if err := s.applySideEffects(ctx, order, entity.OrderCancelled); err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateDeliveryStatus drives a delivery transition and propagates rider
// progress onto the owning order. The coupling is one-directional: the
// delivery drives the order, never the reverse.
func (s *OrderService) UpdateDeliveryStatus(ctx context.Context, operator entity.Operator, deliveryID int64, newStatus entity.DeliveryStatus, riderID *int) (*entity.Delivery, error) {
	delivery, err := s.store.GetDeliveryByID(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	order, err := s.store.GetOrderByID(ctx, delivery.OrderID)
	if err != nil {
		return nil, err
	}

	if !s.mayTransitionDelivery(ctx, operator, order, delivery) {
		return nil, entity.ErrForbidden
	}
	if err := fulfillment.ValidateDeliveryTransition(delivery.Status, newStatus); err != nil {
		return nil, err
	}

	if err := s.store.UpdateDeliveryStatus(ctx, delivery.ID, delivery.Version, newStatus, riderID); err != nil {
		return nil, err
	}
	delivery.Status = newStatus
	delivery.Version++
	if riderID != nil {
		delivery.RiderID = riderID
	}

	if orderStatus, ok := fulfillment.OrderStatusFor(newStatus); ok && fulfillment.CanTransitionOrder(order.Status, orderStatus) {
		if err := s.store.UpdateOrderStatus(ctx, order.ID, order.Version, orderStatus); err != nil {
			return nil, err
		}
		order.Status = orderStatus
		order.Version++
		if err := s.applySideEffects(ctx, order, orderStatus); err != nil {
			return nil, err
		}
	}
	return delivery, nil
}

// ListOwnOrders serves GET /orders for the authenticated customer.
func (s *OrderService) ListOwnOrders(ctx context.Context, operator entity.Operator) ([]*entity.Order, error) {
	return s.store.ListOrdersByUser(ctx, operator.ID)
}

// ListOrders serves the admin and dashboard listings. Vendors see their own
// orders; admins see everything; sub-admins see what their scope predicate
// allows, and a DENY decision short-circuits into an empty set before any
// query runs.
func (s *OrderService) ListOrders(ctx context.Context, operator entity.Operator) ([]*entity.Order, error) {
	switch operator.Role {
	case entity.RoleVendor:
		return s.store.ListOrdersByVendor(ctx, operator.VendorID)
	case entity.RoleAdmin, entity.RoleSubAdmin:
		decision := scope.BuildPredicate(operator, resourceOrders, []string{actionRead})
		switch decision.Effect {
		case scope.Deny:
			return []*entity.Order{}, nil
		case scope.Global:
			return s.store.ListAllOrders(ctx)
		default:
			where, args := scope.CompileSQL(decision.Pred, s.columns)
			return s.store.ListOrdersWhere(ctx, where, args)
		}
	default:
		return nil, entity.ErrForbidden
	}
}

func (s *OrderService) applySideEffects(ctx context.Context, order *entity.Order, newStatus entity.OrderStatus) error {
	switch newStatus {
	case entity.OrderProcessing:
		// First move into a shippable state gets a delivery row.
		if _, err := s.store.GetDeliveryByOrderID(ctx, order.ID); errors.Is(err, entity.ErrNotFound) {
			delivery := &entity.Delivery{
				OrderID:        order.ID,
				Status:         entity.DeliveryPending,
				TrackingNumber: fmt.Sprintf("TRK-%s", order.OrderNumber),
				Version:        1,
			}
			if err := s.store.CreateDelivery(ctx, delivery); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
	case entity.OrderCancelled:
		for _, item := range order.Items {
			if err := s.inventory.Restock(ctx, item.ProductID, item.Quantity); err != nil {
				logger.Error().Err(err).Msgf("Error restocking product %d for order %d", item.ProductID, order.ID)
				return err
			}
		}
		s.sink.Notify(ctx, order.UserID, "order_cancelled", "Order cancelled",
			fmt.Sprintf("Order %s was cancelled.", order.OrderNumber),
			map[string]interface{}{"order_number": order.OrderNumber})
	case entity.OrderDelivered:
		delivery, err := s.store.GetDeliveryByOrderID(ctx, order.ID)
		if err == nil && delivery.RiderID != nil {
			earning := riderEarning(order, *delivery.RiderID)
			if err := s.store.CreateRiderEarning(ctx, earning); err != nil {
				return err
			}
		} else if err != nil && !errors.Is(err, entity.ErrNotFound) {
			return err
		}
		s.sink.Notify(ctx, order.UserID, "order_delivered", "Order delivered",
			fmt.Sprintf("Order %s was delivered.", order.OrderNumber),
			map[string]interface{}{"order_number": order.OrderNumber})
	}
	return nil
}

// riderEarning pays 10% of the order total with a 5.00 floor.
func riderEarning(order *entity.Order, riderID int) *entity.RiderEarning {
	amount := order.TotalAmount * 0.10
	if amount < 5.00 {
		amount = 5.00
	}
	return &entity.RiderEarning{RiderID: riderID, OrderID: order.ID, Amount: amount}
}

// mayTransition answers whether the operator may drive transitions on this
// order: the owning vendor, an unrestricted admin, or a sub-admin whose scope
// covers the order's shipping location. Scope denials stay opaque to callers.
func (s *OrderService) mayTransition(ctx context.Context, operator entity.Operator, order *entity.Order, riderChecked bool) bool {
	switch operator.Role {
	case entity.RoleAdmin:
		return true
	case entity.RoleVendor:
		return operator.VendorID == order.VendorID
	case entity.RoleSubAdmin:
		decision := scope.BuildPredicate(operator, resourceOrders, []string{actionUpdate})
		switch decision.Effect {
		case scope.Global:
			return true
		case scope.Deny:
			return false
		default:
			return scope.Eval(decision.Pred, map[string]string{
				scope.FieldCity:    order.ShippingCity,
				scope.FieldState:   order.ShippingState,
				scope.FieldCountry: order.ShippingCountry,
			})
		}
	case entity.RoleRider:
		return riderChecked
	}
	return false
}

func (s *OrderService) mayTransitionDelivery(ctx context.Context, operator entity.Operator, order *entity.Order, delivery *entity.Delivery) bool {
	assigned := operator.Role == entity.RoleRider && delivery.RiderID != nil && *delivery.RiderID == operator.ID
	return s.mayTransition(ctx, operator, order, assigned)
}
