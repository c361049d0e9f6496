package model

import "time"

// Product represents a catalog entry keyed by barcode.  The barcode is
// globally unique (enforced by a unique index on products.barcode) and a
// product is never mutated after creation: it is inserted once and read
// arbitrarily many times by barcode lookups.
//
// Image holds the public path of the stored image asset and is nil when
// the product was created without one.  UserID references the user who
// created the entry.
type Product struct {
	ID        uint64    `json:"id"`         // products.id
	Barcode   string    `json:"barcode"`    // products.barcode (unique)
	Name      string    `json:"name"`       // products.name (max 50 chars)
	Brand     string    `json:"brand"`      // products.brand (max 50 chars)
	LastPrice float64   `json:"last_price"` // products.last_price
	Image     *string   `json:"image"`      // products.image (nullable path)
	UserID    uint64    `json:"user_id"`    // products.user_id (creator)
	CreatedAt time.Time `json:"created_at"` // products.created_at
	UpdatedAt time.Time `json:"updated_at"` // products.updated_at
}
