package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// AppendUserTurn writes a user message at the next free turn index for
// the session and returns the stored message. The max-read and the
// insert run in a single immediate transaction, so two concurrent turns
// on the same session cannot allocate the same index.
func (s *Store) AppendUserTurn(ctx context.Context, sessionID, content string) (Message, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Message{}, fmt.Errorf("begin turn: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var next int
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(turn_index), 0) + 1 FROM messages WHERE session_id = ?
	`, sessionID).Scan(&next)
	if err != nil {
		return Message{}, fmt.Errorf("allocate turn index: %w", err)
	}

	msg, err := insertMessage(ctx, tx, sessionID, RoleUser, content, next)
	if err != nil {
		return Message{}, err
	}

	if err := tx.Commit(); err != nil {
		return Message{}, fmt.Errorf("commit turn: %w", err)
	}
	return msg, nil
}

// AppendAssistantTurn writes the assistant half of an exchange at the
// turn index already allocated for the paired user message.
func (s *Store) AppendAssistantTurn(ctx context.Context, sessionID, content string, turnIndex int) (Message, error) {
	if turnIndex <= 0 {
		return Message{}, fmt.Errorf("invalid turn index %d", turnIndex)
	}
	return insertMessage(ctx, s.db, sessionID, RoleAssistant, content, turnIndex)
}

func insertMessage(ctx context.Context, db execer, sessionID, role, content string, turnIndex int) (Message, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Message{}, fmt.Errorf("message id: %w", err)
	}

	msg := Message{
		ID:        id.String(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		TurnIndex: turnIndex,
		CreatedAt: time.Now().UTC(),
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO messages (id, session_id, role, content, turn_index, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, msg.ID, msg.SessionID, msg.Role, msg.Content, msg.TurnIndex, msg.CreatedAt)
	if err != nil {
		return Message{}, fmt.Errorf("insert message: %w", err)
	}

	return msg, nil
}

// MaxTurnIndex returns the highest turn index recorded for a session,
// or 0 when the session has no messages.
func (s *Store) MaxTurnIndex(ctx context.Context, sessionID string) (int, error) {
	var max int
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(turn_index), 0) FROM messages WHERE session_id = ?
	`, sessionID).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max turn index: %w", err)
	}
	return max, nil
}

// RecentMessagesBefore returns up to limit messages for a session with
// turn_index strictly below beforeTurn, most recent first
// (turn_index DESC, created_at DESC). Pass beforeTurn <= 0 for no bound.
func (s *Store) RecentMessagesBefore(ctx context.Context, sessionID string, beforeTurn, limit int) ([]Message, error) {
	query := `
		SELECT id, session_id, role, content, turn_index, created_at
		FROM messages
		WHERE session_id = ?`
	args := []any{sessionID}

	if beforeTurn > 0 {
		query += ` AND turn_index < ?`
		args = append(args, beforeTurn)
	}
	query += `
		ORDER BY turn_index DESC, created_at DESC
		LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("recent messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// SessionMessages returns all messages for a session in chronological
// order, for the history endpoint.
func (s *Store) SessionMessages(ctx context.Context, sessionID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, role, content, turn_index, created_at
		FROM messages
		WHERE session_id = ?
		ORDER BY turn_index ASC, created_at ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("session messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// DeleteSession removes all messages for a session and reports how many
// rows were deleted.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete session: %w", err)
	}
	return n, nil
}

func scanMessages(rows *sql.Rows) ([]Message, error) {
	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.TurnIndex, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}
