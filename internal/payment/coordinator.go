package payment

import (
	"context"
	"math"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"marketplace-backend/internal/entity"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFailure Outcome = "FAILURE"
)

// OrderStore is the slice of the order repository the coordinator needs to
// reconcile a transaction group.
type OrderStore interface {
	GetOrdersByTransactionRef(ctx context.Context, txRef string) ([]*entity.Order, error)
	UpdateOrderPayment(ctx context.Context, orderID int64, version int, status entity.OrderStatus, paymentStatus entity.PaymentStatus) error
}

type Sink interface {
	Notify(ctx context.Context, userID int, ntype, title, message string, data map[string]interface{})
}

// Restocker returns reserved stock to inventory when a payment falls through.
type Restocker interface {
	Restock(ctx context.Context, productID, quantity int) error
}

// Coordinator requests one payment intent per checkout and later reconciles
// the gateway's asynchronous callbacks onto every order sharing the tx_ref.
type Coordinator struct {
	gateway     Gateway
	orders      OrderStore
	inventory   Restocker
	sink        Sink
	redirectURL string
}

func NewCoordinator(gateway Gateway, orders OrderStore, inventory Restocker, sink Sink, redirectURL string) *Coordinator {
	return &Coordinator{gateway: gateway, orders: orders, inventory: inventory, sink: sink, redirectURL: redirectURL}
}

// MinorUnits converts a major-unit amount to the gateway's minor units,
// rounding to the nearest cent.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// CreateIntent asks the gateway for a hosted checkout covering the whole
// checkout total. It runs before any order is persisted; when the gateway
// cannot produce a checkout reference the entire checkout fails and nothing
// is written.
func (c *Coordinator) CreateIntent(ctx context.Context, totalAmount float64, currency, payerEmail string, perVendor map[int]float64) (*entity.PaymentIntent, error) {
	txRef := uuid.NewString()
	resp, err := c.gateway.Initiate(ctx, InitiateRequest{
		TxRef:       txRef,
		AmountMinor: MinorUnits(totalAmount),
		Currency:    currency,
		PayerEmail:  payerEmail,
		RedirectURL: c.redirectURL,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Error creating payment intent")
		return nil, err
	}

	perVendorMinor := make(map[int]int64, len(perVendor))
	for vendorID, amount := range perVendor {
		perVendorMinor[vendorID] = MinorUnits(amount)
	}
	return &entity.PaymentIntent{
		ID:                    uuid.NewString(),
		TxRef:                 txRef,
		CheckoutURL:           resp.CheckoutURL,
		Currency:              currency,
		TotalAmountMinor:      MinorUnits(totalAmount),
		PerVendorAmountsMinor: perVendorMinor,
	}, nil
}

// Reconcile applies a gateway callback to every order sharing the tx_ref.
// A SUCCESS callback is never trusted on its own: the transaction is
// re-verified directly with the gateway first, and only a matching
// authoritative answer confirms the orders. Replays are idempotent; orders
// already in a terminal payment state are left alone and not re-notified.
func (c *Coordinator) Reconcile(ctx context.Context, txRef, transactionID string, outcome Outcome) error {
	orders, err := c.orders.GetOrdersByTransactionRef(ctx, txRef)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		return entity.ErrNotFound
	}

	confirmed := false
	if outcome == OutcomeSuccess {
		verified, err := c.gateway.Verify(ctx, transactionID)
		if err != nil {
			// Never mark success on a failed verification; the caller retries.
			return err
		}
		confirmed = verified.Status == StatusSuccessful && verified.TxRef == txRef
	}

	status, paymentStatus := entity.OrderCancelled, entity.PaymentFailed
	if confirmed {
		status, paymentStatus = entity.OrderConfirmed, entity.PaymentCompleted
	}

	for _, order := range orders {
		if order.PaymentStatus == entity.PaymentCompleted || order.PaymentStatus == entity.PaymentFailed {
			continue
		}
		if err := c.orders.UpdateOrderPayment(ctx, order.ID, order.Version, status, paymentStatus); err != nil {
			logger.Error().Err(err).Msgf("Error reconciling order %d for tx_ref %s", order.ID, txRef)
			return err
		}
		if confirmed {
			c.sink.Notify(ctx, order.UserID, "payment_completed", "Payment received",
				"Your payment was confirmed and your order is being prepared.",
				map[string]interface{}{"order_number": order.OrderNumber})
			continue
		}

		// A cancelled order returns its reserved stock; the terminal-state
		// skip above keeps a replay from restocking twice.
		for _, item := range order.Items {
			if err := c.inventory.Restock(ctx, item.ProductID, item.Quantity); err != nil {
				logger.Error().Err(err).Msgf("Error restocking product %d for order %d", item.ProductID, order.ID)
				return err
			}
		}
		c.sink.Notify(ctx, order.UserID, "payment_failed", "Payment failed",
			"We could not confirm your payment. The order was cancelled.",
			map[string]interface{}{"order_number": order.OrderNumber})
	}
	return nil
}
