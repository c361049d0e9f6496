package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// errInvalidUser is returned by getUserID when the middleware did not
// leave a usable user ID in the context.
var errInvalidUser = errors.New("invalid user in context")

// getUserID extracts the authenticated user's ID stored by the bearer
// middleware.
func getUserID(c echo.Context) (uint64, error) {
	v, ok := c.Get("user_id").(uint64)
	if !ok || v == 0 {
		return 0, errInvalidUser
	}
	return v, nil
}

// validationFailed writes the standard 422 body with field-level errors
// so clients can attach messages to individual form inputs.
func validationFailed(c echo.Context, errs map[string][]string) error {
	return c.JSON(http.StatusUnprocessableEntity, echo.Map{
		"message": "the given data was invalid",
		"errors":  errs,
	})
}
