package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"marketplace-backend/internal/client"
	"marketplace-backend/internal/discount"
	"marketplace-backend/internal/entity"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Collaborator contracts the checkout consumes. The HTTP clients in
// internal/client implement them; tests substitute fakes.
type PricingResolver interface {
	Price(ctx context.Context, productID int, variantID *int) (float64, error)
}

type InventoryValidator interface {
	Validate(ctx context.Context, lines []entity.CartLine) (*client.ValidationReport, error)
	Restock(ctx context.Context, productID, quantity int) error
}

type ShippingResolver interface {
	Cost(ctx context.Context, shippingOptionID, vendorID int) (float64, error)
}

type CouponLookup interface {
	FindActive(ctx context.Context, code string) (*entity.Coupon, error)
}

type AddressResolver interface {
	Resolve(ctx context.Context, userID int, sel entity.CheckoutAddress) (*entity.ResolvedAddress, error)
}

type IntentCreator interface {
	CreateIntent(ctx context.Context, totalAmount float64, currency, payerEmail string, perVendor map[int]float64) (*entity.PaymentIntent, error)
}

type CheckoutStore interface {
	CreateCheckout(ctx context.Context, orders []*entity.Order) error
}

// CheckoutService is the order fan-out engine: it turns one multi-vendor cart
// into one order aggregate per vendor, all sharing a single payment intent and
// transaction ref.
type CheckoutService struct {
	store     CheckoutStore
	pricing   PricingResolver
	inventory InventoryValidator
	shipping  ShippingResolver
	coupons   CouponLookup
	addresses AddressResolver
	payments  IntentCreator
	rdb       redis.Cmdable
}

func NewCheckoutService(store CheckoutStore, pricing PricingResolver, inventory InventoryValidator,
	shipping ShippingResolver, coupons CouponLookup, addresses AddressResolver,
	payments IntentCreator, rdb redis.Cmdable) *CheckoutService {
	return &CheckoutService{
		store:     store,
		pricing:   pricing,
		inventory: inventory,
		shipping:  shipping,
		coupons:   coupons,
		addresses: addresses,
		payments:  payments,
		rdb:       rdb,
	}
}

// CreateOrders runs a checkout end to end. Nothing is persisted until the
// gateway has produced a payment intent for the grand total, and all vendor
// orders land in one storage transaction.
func (s *CheckoutService) CreateOrders(ctx context.Context, operator entity.Operator, req entity.CheckoutRequest) (*entity.CheckoutResult, error) {
	completed := false
	if req.IdempotentKey != "" {
		ok, err := s.claimIdempotentKey(ctx, req.IdempotentKey)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, entity.ErrIdempotentReplay
		}
		// A failed checkout releases the key so an honest retry is not a replay.
		defer func() {
			if !completed {
				s.releaseIdempotentKey(ctx, req.IdempotentKey)
			}
		}()
	}

	address, err := s.addresses.Resolve(ctx, operator.ID, req.Address)
	if err != nil {
		return nil, err
	}

	groups, err := s.validateAndGroup(ctx, req.Lines)
	if err != nil {
		return nil, err
	}

	subtotals := make(map[int]float64, len(groups))
	for vendorID, group := range groups {
		var subtotal float64
		for _, line := range group.Lines {
			subtotal += line.UnitPrice * float64(line.Quantity)
		}
		subtotals[vendorID] = subtotal
	}

	// One distribution per checkout: FIXED coupons split proportionally, so
	// every vendor subtotal has to be known at once.
	discounts := make(map[int]float64, len(subtotals))
	if req.CouponCode != "" {
		coupon, err := s.coupons.FindActive(ctx, req.CouponCode)
		if err != nil {
			return nil, err
		}
		discounts = discount.Distribute(coupon, subtotals, time.Now().UTC())
	}

	shippingCosts := make(map[int]float64, len(groups))
	if req.ShippingOptionID != nil {
		for vendorID := range groups {
			cost, err := s.shipping.Cost(ctx, *req.ShippingOptionID, vendorID)
			if err != nil {
				return nil, err
			}
			shippingCosts[vendorID] = cost
		}
	}

	perVendorTotals := make(map[int]float64, len(groups))
	var grandTotal float64
	for vendorID, subtotal := range subtotals {
		discounted := subtotal - discounts[vendorID]
		if discounted < 0 {
			discounted = 0
		}
		total := discounted + shippingCosts[vendorID]
		perVendorTotals[vendorID] = total
		grandTotal += total
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	// The intent comes first: a gateway failure fails the whole checkout and
	// no orders exist without one.
	intent, err := s.payments.CreateIntent(ctx, grandTotal, currency, req.PayerEmail, perVendorTotals)
	if err != nil {
		return nil, err
	}

	orders := make([]*entity.Order, 0, len(groups))
	for _, vendorID := range sortedVendorIDs(groups) {
		group := groups[vendorID]
		order := &entity.Order{
			OrderNumber:       newOrderNumber(),
			VendorID:          vendorID,
			UserID:            operator.ID,
			TransactionRef:    intent.TxRef,
			Subtotal:          subtotals[vendorID],
			ShippingCost:      shippingCosts[vendorID],
			Discount:          discounts[vendorID],
			TotalAmount:       perVendorTotals[vendorID],
			Status:            entity.OrderPending,
			PaymentStatus:     entity.PaymentPending,
			PaymentIntentID:   intent.ID,
			AddressID:         address.AddressID,
			ShippingAddressID: address.ShippingAddressID,
			ShippingCity:      address.City,
			ShippingState:     address.State,
			ShippingCountry:   address.Country,
			Version:           1,
		}
		for _, line := range group.Lines {
			order.Items = append(order.Items, entity.OrderItem{
				ProductID:  line.Product.ID,
				VariantID:  line.VariantID,
				Quantity:   line.Quantity,
				UnitPrice:  line.UnitPrice,
				TotalPrice: line.UnitPrice * float64(line.Quantity),
			})
		}
		orders = append(orders, order)
	}

	if err := s.store.CreateCheckout(ctx, orders); err != nil {
		logger.Error().Err(err).Msgf("Error persisting checkout %s", intent.TxRef)
		return nil, err
	}

	completed = true
	return &entity.CheckoutResult{
		Orders:         orders,
		PaymentIntent:  intent,
		TransactionRef: intent.TxRef,
	}, nil
}

// validateAndGroup checks every cart line against inventory, aggregates all
// line-level problems, resolves locked-in unit prices concurrently and groups
// the lines by vendor.
func (s *CheckoutService) validateAndGroup(ctx context.Context, lines []entity.CartLine) (map[int]*entity.VendorGroup, error) {
	var lineErrors []entity.LineError
	for _, line := range lines {
		if line.Quantity < 1 {
			lineErrors = append(lineErrors, entity.LineError{ProductID: line.ProductID, Reason: "quantity must be at least 1"})
		}
	}
	if len(lines) == 0 {
		return nil, &entity.ValidationError{Lines: []entity.LineError{{Reason: "cart is empty"}}}
	}

	report, err := s.inventory.Validate(ctx, lines)
	if err != nil {
		return nil, err
	}
	lineErrors = append(lineErrors, report.Errors...)

	for _, line := range lines {
		product, ok := report.Products[line.ProductID]
		if !ok {
			lineErrors = append(lineErrors, entity.LineError{ProductID: line.ProductID, Reason: "product not found"})
			continue
		}
		// A line whose product has no vendor cannot be fanned out; that is a
		// fatal validation error, not a silent drop.
		if product.VendorID == 0 {
			lineErrors = append(lineErrors, entity.LineError{ProductID: line.ProductID, Reason: "product has no vendor"})
		}
	}
	if len(lineErrors) > 0 {
		return nil, &entity.ValidationError{Lines: lineErrors}
	}

	// Prices are resolved per line, not per product: the same product can
	// appear under several variants, each with its own price.
	type pricedLine struct {
		Index int
		Price float64
		Err   error
	}
	priceCh := make(chan pricedLine, len(lines))
	for i, line := range lines {
		go func(i int, line entity.CartLine) {
			price, err := s.pricing.Price(ctx, line.ProductID, line.VariantID)
			priceCh <- pricedLine{Index: i, Price: price, Err: err}
		}(i, line)
	}

	prices := make([]float64, len(lines))
	for range lines {
		result := <-priceCh
		if result.Err != nil {
			logger.Error().Err(result.Err).Msgf("Error resolving price for product %d", lines[result.Index].ProductID)
			return nil, result.Err
		}
		prices[result.Index] = result.Price
	}

	groups := make(map[int]*entity.VendorGroup)
	for i, line := range lines {
		product := report.Products[line.ProductID]
		group, ok := groups[product.VendorID]
		if !ok {
			group = &entity.VendorGroup{VendorID: product.VendorID}
			groups[product.VendorID] = group
		}
		group.Lines = append(group.Lines, entity.GroupedLine{
			Product:   product,
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
			UnitPrice: prices[i],
		})
	}
	return groups, nil
}

func (s *CheckoutService) claimIdempotentKey(ctx context.Context, key string) (bool, error) {
	if s.rdb == nil {
		return true, nil
	}
	ok, err := s.rdb.SetNX(ctx, idempotentKey(key), "exists", 24*time.Hour).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, err
	}
	return ok, nil
}

func (s *CheckoutService) releaseIdempotentKey(ctx context.Context, key string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, idempotentKey(key)).Err(); err != nil {
		logger.Warn().Err(err).Msgf("Error releasing idempotent key %s", key)
	}
}

func idempotentKey(key string) string {
	return fmt.Sprintf("idempotent-key:%s", key)
}

// newOrderNumber builds a human-readable, advisorily unique order number.
// A collision surfaces as a retryable insert failure, never a crash.
func newOrderNumber() string {
	return fmt.Sprintf("ORD-%d-%04d", time.Now().UnixMilli(), rand.Intn(10000))
}

func sortedVendorIDs(groups map[int]*entity.VendorGroup) []int {
	ids := make([]int, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
