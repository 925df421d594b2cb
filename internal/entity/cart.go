package entity

// CartLine is one requested product in a checkout. Ephemeral input, never persisted.
type CartLine struct {
	ProductID int  `json:"product_id"`
	VariantID *int `json:"variant_id,omitempty"`
	Quantity  int  `json:"quantity"`
}

// ProductSnapshot is what the catalog knew about a product at validation time.
type ProductSnapshot struct {
	ID       int     `json:"id"`
	VendorID int     `json:"vendor_id"`
	Name     string  `json:"name"`
	Stock    int     `json:"stock"`
	Price    float64 `json:"price"`
}

// VendorGroup collects the cart lines belonging to one vendor.
type VendorGroup struct {
	VendorID int
	Lines    []GroupedLine
}

type GroupedLine struct {
	Product   ProductSnapshot
	VariantID *int
	Quantity  int
	UnitPrice float64
}

// AddressInput is an ad-hoc shipping address supplied inline with a checkout.
type AddressInput struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
	Zip     string `json:"zip"`
}

// CheckoutAddress holds the caller's address selection. Exactly one of the four
// modes has to resolve: explicit address id, saved shipping address id, an inline
// address, or the user's default address.
type CheckoutAddress struct {
	AddressID         *int64        `json:"address_id,omitempty"`
	ShippingAddressID *int64        `json:"shipping_address_id,omitempty"`
	ShippingAddress   *AddressInput `json:"shipping_address,omitempty"`
}

// ResolvedAddress is the shipping location a checkout settled on.
type ResolvedAddress struct {
	AddressID         *int64 `json:"address_id,omitempty"`
	ShippingAddressID *int64 `json:"shipping_address_id,omitempty"`
	City              string `json:"city"`
	State             string `json:"state"`
	Country           string `json:"country"`
}

// CheckoutRequest is the payload of POST /orders.
type CheckoutRequest struct {
	Lines            []CartLine      `json:"lines"`
	CouponCode       string          `json:"coupon_code,omitempty"`
	Address          CheckoutAddress `json:"address"`
	ShippingOptionID *int            `json:"shipping_option_id,omitempty"`
	PayerEmail       string          `json:"payer_email"`
	Currency         string          `json:"currency"`
	IdempotentKey    string          `json:"-"`
}

// CheckoutResult is what a successful checkout hands back: every vendor order,
// the single payment intent covering them, and the shared correlation ref.
type CheckoutResult struct {
	Orders         []*Order       `json:"orders"`
	PaymentIntent  *PaymentIntent `json:"payment_intent"`
	TransactionRef string         `json:"transaction_ref"`
}
