package middleware // middleware contains reusable HTTP middleware functions

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/fatora-app/fatora-server/internal/utils"
)

// TokenValidator checks that an issued token (identified by its SHA-256
// hash) is still live, returning the owning user's ID.  The token
// repository implements it; tests substitute an in-memory fake.
type TokenValidator interface {
	Validate(ctx context.Context, tokenHash string) (uint64, error)
}

// BearerAuth returns an Echo middleware that authenticates requests with
// an `Authorization: Bearer <token>` header.  Two checks are performed:
// the token must carry a valid HS256 signature with an unexpired exp
// claim, and its hash must still exist unrevoked in the token store.
// The second check is what makes logout effective: a signed token whose
// row was revoked is rejected here with 401.
//
// On success the middleware injects "user_id" (uint64) and "token_hash"
// (string) into the request context for downstream handlers.
func BearerAuth(secret string, tokens TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				// Reject tokens signed with anything but HMAC.
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid token"})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid claims"})
			}
			uid, ok := subjectID(claims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid claims"})
			}

			// The signature only proves the token was issued; the store
			// decides whether it is still live.
			hash := utils.HashToken(raw)
			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()
			dbUID, err := tokens.Validate(ctx, hash)
			if err != nil || dbUID != uid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid token"})
			}

			c.Set("user_id", uid)
			c.Set("token_hash", hash)
			return next(c)
		}
	}
}

// subjectID extracts the user ID from the sub claim.  JWT numeric values
// decode as float64; some encoders emit numeric strings instead.
func subjectID(claims jwt.MapClaims) (uint64, bool) {
	switch v := claims["sub"].(type) {
	case float64:
		return uint64(v), true
	case string:
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}
