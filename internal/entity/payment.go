package entity

// PaymentIntent is the single external payment request sized at a checkout's
// grand total. Created once, before any vendor order is persisted, and resolved
// exactly once by a gateway callback.
type PaymentIntent struct {
	ID                    string        `json:"id"`
	TxRef                 string        `json:"tx_ref"`
	CheckoutURL           string        `json:"checkout_url"`
	Currency              string        `json:"currency"`
	TotalAmountMinor      int64         `json:"total_amount_minor"`
	PerVendorAmountsMinor map[int]int64 `json:"per_vendor_amounts_minor"`
}
