package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Product is a catalog row: a detector class id bound to a name and unit price.
type Product struct {
	ClassID   int
	Name      string
	Price     float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProductRepository provides access to the products table.
type ProductRepository struct {
	db *sql.DB
}

// Products returns the product repository for this store.
func (s *Store) Products() *ProductRepository {
	return &ProductRepository{db: s.db}
}

// Upsert inserts a product or replaces the name and price of an existing class id.
func (r *ProductRepository) Upsert(p *Product) error {
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO products (class_id, name, price, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(class_id) DO UPDATE SET name = excluded.name, price = excluded.price, updated_at = excluded.updated_at`,
		p.ClassID, p.Name, p.Price, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

// GetByClassID retrieves a product by detector class id.
func (r *ProductRepository) GetByClassID(classID int) (*Product, error) {
	p := &Product{}
	err := r.db.QueryRow(
		`SELECT class_id, name, price, created_at, updated_at FROM products WHERE class_id = ?`,
		classID,
	).Scan(&p.ClassID, &p.Name, &p.Price, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// List returns every product ordered by class id.
func (r *ProductRepository) List() ([]*Product, error) {
	rows, err := r.db.Query(
		`SELECT class_id, name, price, created_at, updated_at FROM products ORDER BY class_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		p := &Product{}
		if err := rows.Scan(&p.ClassID, &p.Name, &p.Price, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

// Count returns the number of products.
func (r *ProductRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Seed inserts the given products in a single transaction when the table is empty.
// It reports whether anything was written.
func (r *ProductRepository) Seed(products []Product) (bool, error) {
	n, err := r.Count()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	now := time.Now()
	for _, p := range products {
		if _, err := tx.Exec(
			`INSERT INTO products (class_id, name, price, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			p.ClassID, p.Name, p.Price, now, now,
		); err != nil {
			return false, fmt.Errorf("seed product %d: %w", p.ClassID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes a product by class id.
func (r *ProductRepository) Delete(classID int) error {
	result, err := r.db.Exec(`DELETE FROM products WHERE class_id = ?`, classID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
