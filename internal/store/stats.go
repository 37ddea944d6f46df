package store

import (
	"context"
	"fmt"
)

// Stats returns row counts for monitoring. The first failing count
// query aborts with its error rather than reporting zeros.
func (s *Store) Stats(ctx context.Context) (map[string]any, error) {
	counts := map[string]any{"storage": "sqlite"}

	queries := []struct {
		key   string
		query string
	}{
		{"sessions", `SELECT COUNT(DISTINCT session_id) FROM messages`},
		{"messages", `SELECT COUNT(*) FROM messages`},
		{"orders", `SELECT COUNT(*) FROM orders`},
		{"products", `SELECT COUNT(*) FROM products`},
		{"policies", `SELECT COUNT(*) FROM policies`},
	}

	for _, q := range queries {
		var n int
		if err := s.db.QueryRowContext(ctx, q.query).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", q.key, err)
		}
		counts[q.key] = n
	}

	return counts, nil
}
