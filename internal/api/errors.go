package api

import (
	"errors"

	"github.com/labstack/echo/v4"

	"marketplace-backend/internal/entity"
)

// writeError maps the error taxonomy onto HTTP responses. Authorization and
// scope failures stay opaque: a 403 never says which rule denied.
func writeError(c echo.Context, err error) error {
	var validationErr *entity.ValidationError
	if errors.As(err, &validationErr) {
		return c.JSON(422, map[string]interface{}{"error": "invalid cart", "lines": validationErr.Lines})
	}
	var transitionErr *entity.InvalidTransitionError
	if errors.As(err, &transitionErr) {
		return c.JSON(400, map[string]string{"error": transitionErr.Error()})
	}

	switch {
	case errors.Is(err, entity.ErrAddressResolution):
		return c.JSON(400, map[string]string{"error": "no usable shipping address"})
	case errors.Is(err, entity.ErrNotFound):
		return c.JSON(404, map[string]string{"error": "not found"})
	case errors.Is(err, entity.ErrForbidden):
		return c.JSON(403, map[string]string{"error": "forbidden"})
	case errors.Is(err, entity.ErrConcurrencyConflict):
		return c.JSON(409, map[string]string{"error": "conflict, retry the operation"})
	case errors.Is(err, entity.ErrIdempotentReplay):
		return c.JSON(409, map[string]string{"error": "duplicate request"})
	case errors.Is(err, entity.ErrPaymentGateway):
		return c.JSON(502, map[string]string{"error": "payment gateway unavailable"})
	}
	return c.JSON(500, map[string]string{"error": err.Error()})
}
