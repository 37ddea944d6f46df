package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetOrder looks up an order by exact id. Returns (nil, nil) when the
// order does not exist.
func (s *Store) GetOrder(ctx context.Context, id string) (*Order, error) {
	var o Order
	var eta sql.NullTime
	var carrier, tracking sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, status, last_update_at, eta_date, carrier, tracking_number
		FROM orders WHERE id = ?
	`, id).Scan(&o.ID, &o.UserID, &o.Status, &o.LastUpdateAt, &eta, &carrier, &tracking)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}

	if eta.Valid {
		t := eta.Time
		o.ETADate = &t
	}
	if carrier.Valid {
		o.Carrier = carrier.String
	}
	if tracking.Valid {
		o.TrackingNumber = tracking.String
	}
	return &o, nil
}

// SearchProducts returns products whose name contains the given
// substring, case-insensitively, ordered by name then id so that the
// first match is deterministic for a fixed catalog.
func (s *Store) SearchProducts(ctx context.Context, substring string) ([]Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, features, price, stock
		FROM products
		WHERE lower(name) LIKE '%' || lower(?) || '%'
		ORDER BY name ASC, id ASC
	`, substring)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		var features sql.NullString
		var price, stock sql.NullInt64
		if err := rows.Scan(&p.ID, &p.Name, &features, &price, &stock); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		if features.Valid {
			p.Features = features.String
		}
		if price.Valid {
			v := price.Int64
			p.Price = &v
		}
		if stock.Valid {
			v := stock.Int64
			p.Stock = &v
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// GetPolicy looks up the most recently updated policy document of the
// given type. Returns (nil, nil) when no such policy exists.
func (s *Store) GetPolicy(ctx context.Context, policyType string) (*Policy, error) {
	var p Policy
	err := s.db.QueryRowContext(ctx, `
		SELECT id, type, content_markdown, created_at, updated_at
		FROM policies
		WHERE type = ?
		ORDER BY updated_at DESC
		LIMIT 1
	`, policyType).Scan(&p.ID, &p.Type, &p.ContentMarkdown, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get policy: %w", err)
	}
	return &p, nil
}
