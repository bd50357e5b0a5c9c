package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
	"unicode/utf8"

	_ "github.com/lib/pq"
)

// Store is the durable chat log on postgres. It records finished exchanges
// only; live conversation state lives in the session store.
type Store struct {
	DB      *sql.DB
	timeout time.Duration
}

// NewWithDSN opens a postgres connection pool and verifies it with a ping.
func NewWithDSN(dsn string, timeout time.Duration) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{DB: db, timeout: timeout}, nil
}

// Message is one persisted exchange.
type Message struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

// SaveExchange appends one exchange to the chat log, creating the session
// row on first use. The session title is the first message, truncated.
func (s *Store) SaveExchange(ctx context.Context, sessionID, message, response string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO chat_sessions (id, title) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
		sessionID, truncateTitle(message, 50))
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO chat_messages (session_id, message, response) VALUES ($1, $2, $3)`,
		sessionID, message, response)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return tx.Commit()
}

// ListMessages returns a session's exchanges, oldest first.
func (s *Store) ListMessages(ctx context.Context, sessionID string) ([]Message, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, session_id, message, response, created_at
		   FROM chat_messages WHERE session_id = $1 ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Message, &m.Response, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.DB.Close()
}

// truncateTitle shortens s to at most n runes without splitting a rune.
func truncateTitle(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
