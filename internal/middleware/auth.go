package middleware

import (
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"dsas/internal/auth"
	"dsas/internal/errors"
)

// ClaimsKey is the echo context key holding *auth.Claims.
const ClaimsKey = "user"

// JWT authenticates bearer access tokens. Refresh tokens and blacklisted
// access tokens are refused.
func JWT(jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  ClaimsKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			claims, err := jwtService.ValidateToken(token, auth.TokenAccess)
			if err != nil {
				return nil, err
			}
			revoked, err := tokenStore.IsAccessTokenBlacklisted(c.Request().Context(), claims.ID)
			if err != nil {
				return nil, err
			}
			if revoked {
				return nil, errors.ErrInvalidToken
			}
			return claims, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
				Error: errors.ErrInvalidToken.Message,
				Code:  string(errors.ErrInvalidToken.Reason),
			})
		},
	})
}

// ClaimsFrom returns the claims stored by JWT.
func ClaimsFrom(c echo.Context) (*auth.Claims, bool) {
	claims, ok := c.Get(ClaimsKey).(*auth.Claims)
	return claims, ok && claims != nil
}

// IdentityFrom returns the authenticated caller.
func IdentityFrom(c echo.Context) (auth.Identity, bool) {
	claims, ok := ClaimsFrom(c)
	if !ok {
		return auth.Identity{}, false
	}
	return claims.Identity(), true
}
