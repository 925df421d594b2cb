package entity

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrAddressResolution   = errors.New("no usable shipping address for checkout")
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrPaymentGateway      = errors.New("payment gateway error")
	ErrConcurrencyConflict = errors.New("order was modified by another operation")
	ErrIdempotentReplay    = errors.New("idempotent key already exists")
)

// LineError describes one cart line's validation problem.
type LineError struct {
	ProductID int    `json:"product_id"`
	Reason    string `json:"reason"`
}

// ValidationError aggregates every line-level problem found in a checkout,
// not just the first.
type ValidationError struct {
	Lines []LineError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		parts = append(parts, fmt.Sprintf("product %d: %s", l.ProductID, l.Reason))
	}
	return "invalid cart: " + strings.Join(parts, "; ")
}

// InvalidTransitionError names both states of a rejected status change.
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition from %s to %s", e.Entity, e.From, e.To)
}
