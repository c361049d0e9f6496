// Package queue defines message payloads exchanged over the message broker.
package queue

// ProductCreatedEvent is published when a product is successfully added
// to the catalog.  It carries enough information for downstream
// consumers to log or trigger analytics without querying the primary
// database.
type ProductCreatedEvent struct {
	ProductID uint64  `json:"product_id"`
	Barcode   string  `json:"barcode"`
	Name      string  `json:"name"`
	Brand     string  `json:"brand"`
	LastPrice float64 `json:"last_price"`
	UserID    uint64  `json:"user_id"`
	CreatedAt string  `json:"created_at"`
}
