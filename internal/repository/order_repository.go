package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"marketplace-backend/internal/entity"
)

// ScopeColumns maps the scope engine's logical fields to the orders table.
var ScopeColumns = map[string]string{
	"city":    "shipping_city",
	"state":   "shipping_state",
	"country": "shipping_country",
}

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, order_number, vendor_id, user_id, transaction_ref, subtotal,
	shipping_cost, discount, total_amount, status, payment_status, payment_intent_id,
	address_id, shipping_address_id, shipping_city, shipping_state, shipping_country,
	version, created_at, updated_at`

// CreateCheckout persists every vendor order of one checkout, with items, in a
// single transaction. Either all sibling orders land or none do.
func (r *OrderRepository) CreateCheckout(ctx context.Context, orders []*entity.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	orderQuery := `INSERT INTO orders (order_number, vendor_id, user_id, transaction_ref, subtotal,
		shipping_cost, discount, total_amount, status, payment_status, payment_intent_id,
		address_id, shipping_address_id, shipping_city, shipping_state, shipping_country, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for _, order := range orders {
		res, err := tx.ExecContext(ctx, orderQuery,
			order.OrderNumber, order.VendorID, order.UserID, order.TransactionRef, order.Subtotal,
			order.ShippingCost, order.Discount, order.TotalAmount, order.Status, order.PaymentStatus,
			order.PaymentIntentID, order.AddressID, order.ShippingAddressID,
			order.ShippingCity, order.ShippingState, order.ShippingCountry, order.Version)
		if err != nil {
			tx.Rollback()
			return errors.Wrap(err, "inserting order")
		}

		orderID, err := res.LastInsertId()
		if err != nil {
			tx.Rollback()
			return err
		}
		order.ID = orderID

		// Batch insert the items.
		itemQuery := `INSERT INTO order_items (order_id, product_id, variant_id, quantity, unit_price, total_price) VALUES `
		var values []interface{}
		for i := range order.Items {
			item := &order.Items[i]
			item.OrderID = orderID
			itemQuery += "(?, ?, ?, ?, ?, ?),"
			values = append(values, orderID, item.ProductID, item.VariantID, item.Quantity, item.UnitPrice, item.TotalPrice)
		}
		itemQuery = itemQuery[:len(itemQuery)-1]

		if _, err := tx.ExecContext(ctx, itemQuery, values...); err != nil {
			tx.Rollback()
			return errors.Wrap(err, "inserting order items")
		}
	}

	return tx.Commit()
}

func (r *OrderRepository) GetOrderByID(ctx context.Context, id int64) (*entity.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	order, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *OrderRepository) GetOrdersByTransactionRef(ctx context.Context, txRef string) ([]*entity.Order, error) {
	return r.queryOrders(ctx, `SELECT `+orderColumns+` FROM orders WHERE transaction_ref = ?`, txRef)
}

func (r *OrderRepository) ListOrdersByUser(ctx context.Context, userID int) ([]*entity.Order, error) {
	return r.queryOrders(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = ? ORDER BY created_at DESC`, userID)
}

func (r *OrderRepository) ListOrdersByVendor(ctx context.Context, vendorID int) ([]*entity.Order, error) {
	return r.queryOrders(ctx, `SELECT `+orderColumns+` FROM orders WHERE vendor_id = ? ORDER BY created_at DESC`, vendorID)
}

// ListOrdersWhere runs a listing narrowed by a compiled scope predicate.
func (r *OrderRepository) ListOrdersWhere(ctx context.Context, where string, args []interface{}) ([]*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE ` + where + ` ORDER BY created_at DESC`
	return r.queryOrders(ctx, query, args...)
}

func (r *OrderRepository) ListAllOrders(ctx context.Context) ([]*entity.Order, error) {
	return r.queryOrders(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

// UpdateOrderStatus applies a status change guarded by an optimistic version
// check. Zero rows affected means a concurrent writer won.
func (r *OrderRepository) UpdateOrderStatus(ctx context.Context, id int64, version int, status entity.OrderStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`,
		status, time.Now().UTC(), id, version)
	if err != nil {
		return errors.Wrap(err, "updating order status")
	}
	return checkConflict(res)
}

func (r *OrderRepository) UpdateOrderPayment(ctx context.Context, id int64, version int, status entity.OrderStatus, paymentStatus entity.PaymentStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = ?, payment_status = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`,
		status, paymentStatus, time.Now().UTC(), id, version)
	if err != nil {
		return errors.Wrap(err, "updating order payment")
	}
	return checkConflict(res)
}

func (r *OrderRepository) CreateDelivery(ctx context.Context, delivery *entity.Delivery) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO deliveries (order_id, status, rider_id, tracking_number, version) VALUES (?, ?, ?, ?, ?)`,
		delivery.OrderID, delivery.Status, delivery.RiderID, delivery.TrackingNumber, delivery.Version)
	if err != nil {
		return errors.Wrap(err, "inserting delivery")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	delivery.ID = id
	return nil
}

func (r *OrderRepository) GetDeliveryByID(ctx context.Context, id int64) (*entity.Delivery, error) {
	return r.scanDelivery(r.db.QueryRowContext(ctx,
		`SELECT id, order_id, status, rider_id, tracking_number, version, created_at, updated_at FROM deliveries WHERE id = ?`, id))
}

func (r *OrderRepository) GetDeliveryByOrderID(ctx context.Context, orderID int64) (*entity.Delivery, error) {
	return r.scanDelivery(r.db.QueryRowContext(ctx,
		`SELECT id, order_id, status, rider_id, tracking_number, version, created_at, updated_at FROM deliveries WHERE order_id = ?`, orderID))
}

func (r *OrderRepository) UpdateDeliveryStatus(ctx context.Context, id int64, version int, status entity.DeliveryStatus, riderID *int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE deliveries SET status = ?, rider_id = COALESCE(?, rider_id), version = version + 1, updated_at = ? WHERE id = ? AND version = ?`,
		status, riderID, time.Now().UTC(), id, version)
	if err != nil {
		return errors.Wrap(err, "updating delivery status")
	}
	return checkConflict(res)
}

func (r *OrderRepository) CreateRiderEarning(ctx context.Context, earning *entity.RiderEarning) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO rider_earnings (rider_id, order_id, amount) VALUES (?, ?, ?)`,
		earning.RiderID, earning.OrderID, earning.Amount)
	if err != nil {
		return errors.Wrap(err, "inserting rider earning")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	earning.ID = id
	return nil
}

func (r *OrderRepository) queryOrders(ctx context.Context, query string, args ...interface{}) ([]*entity.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*entity.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, order := range orders {
		if err := r.loadItems(ctx, order); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *OrderRepository) loadItems(ctx context.Context, order *entity.Order) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, product_id, variant_id, quantity, unit_price, total_price FROM order_items WHERE order_id = ?`,
		order.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		item := entity.OrderItem{}
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.VariantID, &item.Quantity, &item.UnitPrice, &item.TotalPrice); err != nil {
			return err
		}
		order.Items = append(order.Items, item)
	}
	return rows.Err()
}

func (r *OrderRepository) scanDelivery(row *sql.Row) (*entity.Delivery, error) {
	delivery := &entity.Delivery{}
	err := row.Scan(&delivery.ID, &delivery.OrderID, &delivery.Status, &delivery.RiderID,
		&delivery.TrackingNumber, &delivery.Version, &delivery.CreatedAt, &delivery.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return delivery, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*entity.Order, error) {
	order := &entity.Order{}
	err := row.Scan(&order.ID, &order.OrderNumber, &order.VendorID, &order.UserID, &order.TransactionRef,
		&order.Subtotal, &order.ShippingCost, &order.Discount, &order.TotalAmount, &order.Status,
		&order.PaymentStatus, &order.PaymentIntentID, &order.AddressID, &order.ShippingAddressID,
		&order.ShippingCity, &order.ShippingState, &order.ShippingCountry,
		&order.Version, &order.CreatedAt, &order.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

func checkConflict(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return entity.ErrConcurrencyConflict
	}
	return nil
}
