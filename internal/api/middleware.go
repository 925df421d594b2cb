package api

import (
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"marketplace-backend/internal/entity"
)

// OperatorClaims is the JWT payload issued by the user service. It carries
// everything the scope filter needs: role, permission grants and the
// profile-level default geography.
type OperatorClaims struct {
	UserID     int                 `json:"user_id"`
	Role       string              `json:"role"`
	VendorID   int                 `json:"vendor_id,omitempty"`
	Grants     []entity.ScopeGrant `json:"grants,omitempty"`
	ProfileGeo *entity.GeoScope    `json:"profile_geo,omitempty"`
	jwt.RegisteredClaims
}

func NewJWTMiddleware(secret string) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(secret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return &OperatorClaims{}
		},
	})
}

// OperatorFromContext rebuilds the operator from the validated token. The
// operator travels as an explicit parameter from here on; nothing below the
// handlers reads ambient request state.
func OperatorFromContext(c echo.Context) entity.Operator {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return entity.Operator{}
	}
	claims, ok := token.Claims.(*OperatorClaims)
	if !ok {
		return entity.Operator{}
	}
	return entity.Operator{
		ID:         claims.UserID,
		Role:       entity.Role(claims.Role),
		VendorID:   claims.VendorID,
		Grants:     claims.Grants,
		ProfileGeo: claims.ProfileGeo,
	}
}
