package store

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML fixture format accepted by the seed subcommand.
type SeedFile struct {
	Orders   []Order   `yaml:"orders"`
	Products []Product `yaml:"products"`
	Policies []Policy  `yaml:"policies"`
}

// LoadSeedFile parses a YAML fixture file.
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sf SeedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &sf, nil
}

// Seed loads every section of a fixture file into the store.
func (s *Store) Seed(ctx context.Context, sf *SeedFile) error {
	if err := s.SeedOrders(ctx, sf.Orders); err != nil {
		return err
	}
	if err := s.SeedProducts(ctx, sf.Products); err != nil {
		return err
	}
	return s.SeedPolicies(ctx, sf.Policies)
}

// SeedOrders upserts demo orders. An order without a last-update time
// gets the current time.
func (s *Store) SeedOrders(ctx context.Context, orders []Order) error {
	for _, o := range orders {
		if o.ID == "" {
			return fmt.Errorf("seed order: missing id")
		}
		last := o.LastUpdateAt
		if last.IsZero() {
			last = time.Now().UTC()
		}

		_, err := s.db.ExecContext(ctx, `
			INSERT INTO orders (id, user_id, status, last_update_at, eta_date, carrier, tracking_number)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				user_id = excluded.user_id,
				status = excluded.status,
				last_update_at = excluded.last_update_at,
				eta_date = excluded.eta_date,
				carrier = excluded.carrier,
				tracking_number = excluded.tracking_number
		`, o.ID, o.UserID, o.Status, last, o.ETADate, nullIfEmpty(o.Carrier), nullIfEmpty(o.TrackingNumber))
		if err != nil {
			return fmt.Errorf("seed order %s: %w", o.ID, err)
		}
	}
	return nil
}

// SeedProducts upserts catalog entries.
func (s *Store) SeedProducts(ctx context.Context, products []Product) error {
	for _, p := range products {
		if p.ID == "" || p.Name == "" {
			return fmt.Errorf("seed product: missing id or name")
		}

		_, err := s.db.ExecContext(ctx, `
			INSERT INTO products (id, name, features, price, stock)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				features = excluded.features,
				price = excluded.price,
				stock = excluded.stock
		`, p.ID, p.Name, nullIfEmpty(p.Features), p.Price, p.Stock)
		if err != nil {
			return fmt.Errorf("seed product %s: %w", p.ID, err)
		}
	}
	return nil
}

// SeedPolicies upserts policy documents. A policy without an id gets a
// fresh UUID.
func (s *Store) SeedPolicies(ctx context.Context, policies []Policy) error {
	now := time.Now().UTC()
	for _, p := range policies {
		if p.Type == "" || p.ContentMarkdown == "" {
			return fmt.Errorf("seed policy: missing type or content")
		}
		if p.ID == "" {
			p.ID = uuid.New().String()
		}

		_, err := s.db.ExecContext(ctx, `
			INSERT INTO policies (id, type, content_markdown, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				type = excluded.type,
				content_markdown = excluded.content_markdown,
				updated_at = excluded.updated_at
		`, p.ID, p.Type, p.ContentMarkdown, now, now)
		if err != nil {
			return fmt.Errorf("seed policy %s: %w", p.Type, err)
		}
	}
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
