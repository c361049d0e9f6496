// Package repository defines error values that are reused across multiple
// repositories.  These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// inspecting driver-specific error strings themselves.
package repository

import (
	"errors"
	"strings"
)

// ErrEmailExists is returned when a user registration collides with an
// existing email.  Handlers translate this into a 422 validation error
// on the email field.
var ErrEmailExists = errors.New("email already exists")

// ErrBarcodeExists is returned when a product insert collides with the
// unique index on products.barcode.  The index is the only serialization
// point for concurrent creates: both writers race the INSERT and the
// database guarantees exactly one of them wins.
var ErrBarcodeExists = errors.New("barcode already exists")

// ErrProductNotFound is returned when no product matches a barcode.
var ErrProductNotFound = errors.New("product not found")

// isDuplicateKey reports whether err is a MySQL duplicate-entry error
// (error number 1062) raised by a unique constraint violation.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}
