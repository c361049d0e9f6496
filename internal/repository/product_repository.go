// This file defines the product repository.  A product is a catalog entry
// uniquely keyed by barcode; barcode uniqueness is enforced by the
// database index, never by an application-level check-then-insert, so
// concurrent creates with the same barcode cannot race past each other.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fatora-app/fatora-server/internal/model"
)

// ProductRepo encapsulates all database queries related to products.
type ProductRepo struct {
	db *sql.DB
}

// NewProductRepo constructs a ProductRepo with the provided DB handle.
func NewProductRepo(db *sql.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

// Create inserts a new product.  On success the ID, CreatedAt and
// UpdatedAt fields are populated from the database so callers receive a
// fully assembled record.  A duplicate barcode surfaces as
// ErrBarcodeExists regardless of which concurrent writer lost the race.
func (r *ProductRepo) Create(ctx context.Context, p *model.Product) error {
	const qInsert = `INSERT INTO products (barcode, name, brand, last_price, image, user_id)
	                 VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, qInsert,
		p.Barcode, p.Name, p.Brand, p.LastPrice, p.Image, p.UserID)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrBarcodeExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)

	const qSelect = "SELECT created_at, updated_at FROM products WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSelect, p.ID).Scan(&p.CreatedAt, &p.UpdatedAt)
}

// GetByBarcode fetches a product by its barcode.  It returns
// ErrProductNotFound when no row matches; an unknown barcode is a normal
// outcome for the scanner flow, not an internal failure.
func (r *ProductRepo) GetByBarcode(ctx context.Context, barcode string) (*model.Product, error) {
	const q = `SELECT id, barcode, name, brand, last_price, image, user_id, created_at, updated_at
	           FROM products WHERE barcode = ? LIMIT 1`
	var p model.Product
	err := r.db.QueryRowContext(ctx, q, barcode).Scan(
		&p.ID, &p.Barcode, &p.Name, &p.Brand, &p.LastPrice, &p.Image, &p.UserID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListByUser returns all products created by a specific user ordered by id.
func (r *ProductRepo) ListByUser(ctx context.Context, userID uint64) ([]*model.Product, error) {
	const q = `SELECT id, barcode, name, brand, last_price, image, user_id, created_at, updated_at
	           FROM products WHERE user_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Product
	for rows.Next() {
		p := new(model.Product)
		if err := rows.Scan(&p.ID, &p.Barcode, &p.Name, &p.Brand, &p.LastPrice, &p.Image, &p.UserID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
