package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-backend/internal/entity"
	"marketplace-backend/internal/repository"
	"marketplace-backend/internal/service"
)

// --- Mocks ---

type mockOrderStore struct {
	orders      map[int64]*entity.Order
	deliveries  map[int64]*entity.Delivery
	earnings    []*entity.RiderEarning
	lastWhere   string
	lastArgs    []interface{}
	listedAll   bool
	nextID      int64
	raceOnWrite bool
}

func newMockOrderStore(orders ...*entity.Order) *mockOrderStore {
	store := &mockOrderStore{
		orders:     make(map[int64]*entity.Order),
		deliveries: make(map[int64]*entity.Delivery),
		nextID:     1000,
	}
	for _, o := range orders {
		store.orders[o.ID] = o
	}
	return store
}

func (m *mockOrderStore) GetOrderByID(ctx context.Context, id int64) (*entity.Order, error) {
	order, ok := m.orders[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	copied := *order
	return &copied, nil
}

func (m *mockOrderStore) ListOrdersByUser(ctx context.Context, userID int) ([]*entity.Order, error) {
	var out []*entity.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockOrderStore) ListOrdersByVendor(ctx context.Context, vendorID int) ([]*entity.Order, error) {
	var out []*entity.Order
	for _, o := range m.orders {
		if o.VendorID == vendorID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockOrderStore) ListOrdersWhere(ctx context.Context, where string, args []interface{}) ([]*entity.Order, error) {
	m.lastWhere = where
	m.lastArgs = args
	return nil, nil
}

func (m *mockOrderStore) ListAllOrders(ctx context.Context) ([]*entity.Order, error) {
	m.listedAll = true
	var out []*entity.Order
	for _, o := range m.orders {
		out = append(out, o)
	}
	return out, nil
}

func (m *mockOrderStore) UpdateOrderStatus(ctx context.Context, id int64, version int, status entity.OrderStatus) error {
	order, ok := m.orders[id]
	if !ok {
		return entity.ErrNotFound
	}
	if m.raceOnWrite {
		// Another writer slipped in between the caller's read and this write.
		m.raceOnWrite = false
		order.Version++
	}
	if order.Version != version {
		return entity.ErrConcurrencyConflict
	}
	order.Status = status
	order.Version++
	return nil
}

func (m *mockOrderStore) CreateDelivery(ctx context.Context, delivery *entity.Delivery) error {
	m.nextID++
	delivery.ID = m.nextID
	copied := *delivery
	m.deliveries[delivery.ID] = &copied
	return nil
}

func (m *mockOrderStore) GetDeliveryByID(ctx context.Context, id int64) (*entity.Delivery, error) {
	delivery, ok := m.deliveries[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	copied := *delivery
	return &copied, nil
}

func (m *mockOrderStore) GetDeliveryByOrderID(ctx context.Context, orderID int64) (*entity.Delivery, error) {
	for _, d := range m.deliveries {
		if d.OrderID == orderID {
			copied := *d
			return &copied, nil
		}
	}
	return nil, entity.ErrNotFound
}

func (m *mockOrderStore) UpdateDeliveryStatus(ctx context.Context, id int64, version int, status entity.DeliveryStatus, riderID *int) error {
	delivery, ok := m.deliveries[id]
	if !ok {
		return entity.ErrNotFound
	}
	if delivery.Version != version {
		return entity.ErrConcurrencyConflict
	}
	delivery.Status = status
	delivery.Version++
	if riderID != nil {
		delivery.RiderID = riderID
	}
	return nil
}

func (m *mockOrderStore) CreateRiderEarning(ctx context.Context, earning *entity.RiderEarning) error {
	m.earnings = append(m.earnings, earning)
	return nil
}

type recordingSink struct {
	notifications []string
}

func (m *recordingSink) Notify(ctx context.Context, userID int, ntype, title, message string, data map[string]interface{}) {
	m.notifications = append(m.notifications, ntype)
}

// --- Fixtures ---

func lagosOrder(id int64, status entity.OrderStatus) *entity.Order {
	return &entity.Order{
		ID:              id,
		OrderNumber:     "ORD-1",
		VendorID:        1,
		UserID:          42,
		TransactionRef:  "tx-1",
		TotalAmount:     45.00,
		Status:          status,
		PaymentStatus:   entity.PaymentCompleted,
		ShippingCity:    "Lagos",
		ShippingState:   "Lagos State",
		ShippingCountry: "Nigeria",
		Version:         1,
		Items: []entity.OrderItem{
			{ProductID: 10, Quantity: 2, UnitPrice: 10, TotalPrice: 20},
			{ProductID: 20, Quantity: 1, UnitPrice: 25, TotalPrice: 25},
		},
	}
}

func setupOrderService(orders ...*entity.Order) (*service.OrderService, *mockOrderStore, *mockInventory, *recordingSink) {
	store := newMockOrderStore(orders...)
	inventory := &mockInventory{}
	sink := &recordingSink{}
	svc := service.NewOrderService(store, inventory, sink, repository.ScopeColumns)
	return svc, store, inventory, sink
}

var vendorOp = entity.Operator{ID: 5, Role: entity.RoleVendor, VendorID: 1}
var adminOp = entity.Operator{ID: 1, Role: entity.RoleAdmin}

func lagosSubAdmin() entity.Operator {
	return entity.Operator{ID: 9, Role: entity.RoleSubAdmin, Grants: []entity.ScopeGrant{
		{Resource: "orders", Actions: []string{"read", "update"}, Scope: &entity.GeoScope{Cities: []string{"Lagos"}}},
	}}
}

// --- Tests ---

func TestCancelOrder_DeliveredIsRejected(t *testing.T) {
	svc, store, inventory, _ := setupOrderService(lagosOrder(1, entity.OrderDelivered))

	_, err := svc.CancelOrder(context.Background(), adminOp, 1)

	var transitionErr *entity.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, string(entity.OrderDelivered), transitionErr.From)
	assert.Equal(t, string(entity.OrderCancelled), transitionErr.To)
	assert.Equal(t, entity.OrderDelivered, store.orders[1].Status)
	assert.Empty(t, inventory.restocks)
}

func TestCancelOrder_ProcessingRestocksExactlyOnce(t *testing.T) {
	svc, store, inventory, sink := setupOrderService(lagosOrder(1, entity.OrderProcessing))

	order, err := svc.CancelOrder(context.Background(), vendorOp, 1)

	require.NoError(t, err)
	assert.Equal(t, entity.OrderCancelled, order.Status)
	assert.Equal(t, entity.OrderCancelled, store.orders[1].Status)
	assert.Equal(t, map[int]int{10: 2, 20: 1}, inventory.restocks)
	assert.Equal(t, []string{"order_cancelled"}, sink.notifications)

	// A replay loses the optimistic version check and restocks nothing more.
	_, err = svc.CancelOrder(context.Background(), vendorOp, 1)
	require.Error(t, err)
	assert.Equal(t, map[int]int{10: 2, 20: 1}, inventory.restocks)
}

func TestCancelOrder_CustomerOwnsOrder(t *testing.T) {
	svc, _, _, _ := setupOrderService(lagosOrder(1, entity.OrderPending))

	_, err := svc.CancelOrder(context.Background(), entity.Operator{ID: 42, Role: entity.RoleCustomer}, 1)
	require.NoError(t, err)

	svc2, _, _, _ := setupOrderService(lagosOrder(1, entity.OrderPending))
	_, err = svc2.CancelOrder(context.Background(), entity.Operator{ID: 99, Role: entity.RoleCustomer}, 1)
	assert.ErrorIs(t, err, entity.ErrForbidden)
}

func TestUpdateOrderStatus_WrongVendorForbidden(t *testing.T) {
	svc, _, _, _ := setupOrderService(lagosOrder(1, entity.OrderConfirmed))
	otherVendor := entity.Operator{ID: 6, Role: entity.RoleVendor, VendorID: 2}

	_, err := svc.UpdateOrderStatus(context.Background(), otherVendor, 1, entity.OrderProcessing)
	assert.ErrorIs(t, err, entity.ErrForbidden)
}

func TestUpdateOrderStatus_SubAdminScope(t *testing.T) {
	svc, _, _, _ := setupOrderService(lagosOrder(1, entity.OrderConfirmed))

	_, err := svc.UpdateOrderStatus(context.Background(), lagosSubAdmin(), 1, entity.OrderProcessing)
	assert.NoError(t, err)

	abuja := lagosOrder(2, entity.OrderConfirmed)
	abuja.ShippingCity = "Abuja"
	svc2, _, _, _ := setupOrderService(abuja)
	_, err = svc2.UpdateOrderStatus(context.Background(), lagosSubAdmin(), 2, entity.OrderProcessing)
	assert.ErrorIs(t, err, entity.ErrForbidden, "scope denial stays opaque")
}

func TestUpdateOrderStatus_ProcessingCreatesDelivery(t *testing.T) {
	svc, store, _, _ := setupOrderService(lagosOrder(1, entity.OrderConfirmed))

	_, err := svc.UpdateOrderStatus(context.Background(), vendorOp, 1, entity.OrderProcessing)
	require.NoError(t, err)

	delivery, err := store.GetDeliveryByOrderID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, entity.DeliveryPending, delivery.Status)
	assert.NotEmpty(t, delivery.TrackingNumber)
}

func TestUpdateDeliveryStatus_PropagatesToOrder(t *testing.T) {
	order := lagosOrder(1, entity.OrderProcessing)
	svc, store, _, sink := setupOrderService(order)
	rider := 77
	store.deliveries[500] = &entity.Delivery{ID: 500, OrderID: 1, Status: entity.DeliveryAssigned, RiderID: &rider, Version: 1}
	riderOp := entity.Operator{ID: 77, Role: entity.RoleRider}

	// PICKED_UP drives the order to SHIPPED.
	_, err := svc.UpdateDeliveryStatus(context.Background(), riderOp, 500, entity.DeliveryPickedUp, nil)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderShipped, store.orders[1].Status)

	// IN_TRANSIT drives it OUT_FOR_DELIVERY.
	_, err = svc.UpdateDeliveryStatus(context.Background(), riderOp, 500, entity.DeliveryInTransit, nil)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderOutForDelivery, store.orders[1].Status)

	// DELIVERED completes the order, credits the rider and notifies the user.
	_, err = svc.UpdateDeliveryStatus(context.Background(), riderOp, 500, entity.DeliveryDelivered, nil)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderDelivered, store.orders[1].Status)
	require.Len(t, store.earnings, 1)
	assert.Equal(t, 77, store.earnings[0].RiderID)
	assert.InDelta(t, 5.00, store.earnings[0].Amount, 1e-9, "10 percent of $45 is under the $5 floor")
	assert.Contains(t, sink.notifications, "order_delivered")
}

func TestUpdateDeliveryStatus_UnassignedRiderForbidden(t *testing.T) {
	svc, store, _, _ := setupOrderService(lagosOrder(1, entity.OrderProcessing))
	assigned := 77
	store.deliveries[500] = &entity.Delivery{ID: 500, OrderID: 1, Status: entity.DeliveryAssigned, RiderID: &assigned, Version: 1}

	stranger := entity.Operator{ID: 78, Role: entity.RoleRider}
	_, err := svc.UpdateDeliveryStatus(context.Background(), stranger, 500, entity.DeliveryPickedUp, nil)
	assert.ErrorIs(t, err, entity.ErrForbidden)
}

func TestRiderEarning_TenPercentAboveFloor(t *testing.T) {
	order := lagosOrder(1, entity.OrderOutForDelivery)
	order.TotalAmount = 120.00
	svc, store, _, _ := setupOrderService(order)
	rider := 77
	store.deliveries[500] = &entity.Delivery{ID: 500, OrderID: 1, Status: entity.DeliveryInTransit, RiderID: &rider, Version: 1}

	_, err := svc.UpdateDeliveryStatus(context.Background(), entity.Operator{ID: 77, Role: entity.RoleRider}, 500, entity.DeliveryDelivered, nil)
	require.NoError(t, err)
	require.Len(t, store.earnings, 1)
	assert.InDelta(t, 12.00, store.earnings[0].Amount, 1e-9)
}

func TestListOrders_ScopeFiltering(t *testing.T) {
	svc, store, _, _ := setupOrderService(lagosOrder(1, entity.OrderPending))

	// Admins see everything.
	_, err := svc.ListOrders(context.Background(), adminOp)
	require.NoError(t, err)
	assert.True(t, store.listedAll)

	// A scoped sub-admin lists through the compiled predicate.
	_, err = svc.ListOrders(context.Background(), lagosSubAdmin())
	require.NoError(t, err)
	assert.Equal(t, "LOWER(shipping_city) IN (?)", store.lastWhere)
	assert.Equal(t, []interface{}{"lagos"}, store.lastArgs)

	// A sub-admin with no matching grant is denied before any query runs.
	store.lastWhere = ""
	denied := entity.Operator{ID: 9, Role: entity.RoleSubAdmin}
	orders, err := svc.ListOrders(context.Background(), denied)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Empty(t, store.lastWhere)

	// Customers have no admin listing at all.
	_, err = svc.ListOrders(context.Background(), entity.Operator{ID: 42, Role: entity.RoleCustomer})
	assert.ErrorIs(t, err, entity.ErrForbidden)
}

func TestUpdateOrderStatus_ConcurrentWriterLoses(t *testing.T) {
	svc, store, _, _ := setupOrderService(lagosOrder(1, entity.OrderConfirmed))
	store.raceOnWrite = true

	_, err := svc.UpdateOrderStatus(context.Background(), vendorOp, 1, entity.OrderProcessing)
	assert.ErrorIs(t, err, entity.ErrConcurrencyConflict)
}
