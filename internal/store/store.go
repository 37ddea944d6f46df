// Package store provides SQLite-backed persistence for conversation
// messages and the read-only reference data (orders, products, policies)
// consumed by the chatbot tools.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Message roles. A message is written by exactly one of the two parties.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one side of a conversation turn. Rows are immutable once
// written; the only delete path is DeleteSession.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	TurnIndex int       `json:"turn_index"`
	CreatedAt time.Time `json:"created_at"`
}

// Order is a customer order, looked up by the order-status tool.
type Order struct {
	ID             string     `json:"id" yaml:"id"`
	UserID         string     `json:"user_id" yaml:"user_id"`
	Status         string     `json:"status" yaml:"status"` // pending, confirmed, shipped, delivered, cancelled
	LastUpdateAt   time.Time  `json:"last_update_at" yaml:"last_update_at"`
	ETADate        *time.Time `json:"eta_date,omitempty" yaml:"eta_date,omitempty"`
	Carrier        string     `json:"carrier,omitempty" yaml:"carrier,omitempty"`
	TrackingNumber string     `json:"tracking_number,omitempty" yaml:"tracking_number,omitempty"`
}

// Product is a catalog entry, looked up by the product-info tool.
// Price is whole rupiah. Nil price or stock means unknown; zero stock
// means out of stock.
type Product struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Features string `json:"features,omitempty" yaml:"features,omitempty"`
	Price    *int64 `json:"price,omitempty" yaml:"price,omitempty"`
	Stock    *int64 `json:"stock,omitempty" yaml:"stock,omitempty"`
}

// Policy is a policy document stored as markdown, looked up by type
// (e.g. "warranty").
type Policy struct {
	ID              string    `json:"id" yaml:"id"`
	Type            string    `json:"type" yaml:"type"`
	ContentMarkdown string    `json:"content_markdown" yaml:"content_markdown"`
	CreatedAt       time.Time `json:"created_at" yaml:"-"`
	UpdatedAt       time.Time `json:"updated_at" yaml:"-"`
}

// Store wraps the SQLite database holding messages and reference data.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and runs migrations.
// The DSN enables WAL, a busy timeout, and immediate transactions so
// that read-then-write transactions serialize against each other.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Conversation messages, append-only
	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
		content TEXT NOT NULL,
		turn_index INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, turn_index);

	-- Reference data: orders
	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		status TEXT NOT NULL,
		last_update_at TIMESTAMP NOT NULL,
		eta_date TIMESTAMP,
		carrier TEXT,
		tracking_number TEXT
	);

	-- Reference data: product catalog
	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		features TEXT,
		price INTEGER,
		stock INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_products_name ON products(name);

	-- Reference data: policy documents (markdown)
	CREATE TABLE IF NOT EXISTS policies (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		content_markdown TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_policies_type ON policies(type);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying connection for tests and stats queries.
func (s *Store) DB() *sql.DB {
	return s.db
}
