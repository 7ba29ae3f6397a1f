// Package journal keeps an append-only SQLite record of fireplace events.
// It is an audit trail only; nothing in it is read back into engine state.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/elzekool/mqtt-fireplace-control/internal/logger"
	"github.com/elzekool/mqtt-fireplace-control/internal/logic"
)

const (
	queueSize     = 128
	appendTimeout = 2 * time.Second
	// DefaultLimit is used by List when limit is not positive.
	DefaultLimit = 100
	// MaxLimit is the most entries List returns.
	MaxLimit = 1000
)

// Entry is a stored event.
type Entry struct {
	ID         string    `json:"id"`
	OccurredAt time.Time `json:"occurred_at"`
	Type       string    `json:"type"`
	From       string    `json:"from,omitempty"`
	To         string    `json:"to,omitempty"`
	Topic      string    `json:"topic,omitempty"`
	Detail     string    `json:"detail,omitempty"`
}

// Journal writes observed events to SQLite from a background goroutine so
// the engine loops never wait on disk.
type Journal struct {
	db    *sql.DB
	log   *logger.Logger
	queue chan Entry
}

// Open opens or creates the journal database at path.
func Open(path string, log *logger.Logger) (*Journal, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	return New(db, log), nil
}

// New wraps an already opened database.
func New(db *sql.DB, log *logger.Logger) *Journal {
	if log == nil {
		log = logger.Nop()
	}
	return &Journal{
		db:    db,
		log:   log,
		queue: make(chan Entry, queueSize),
	}
}

// Append inserts e. A missing ID or timestamp is filled in.
func (j *Journal) Append(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO fireplace_events (id, occurred_at, type, from_value, to_value, topic, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		e.ID,
		e.OccurredAt.UTC(),
		e.Type,
		e.From,
		e.To,
		e.Topic,
		e.Detail,
	)
	if err != nil {
		return fmt.Errorf("append %s event: %w", e.Type, err)
	}
	return nil
}

// List returns up to limit entries, newest first. limit is capped at
// MaxLimit.
func (j *Journal) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	rows, err := j.db.QueryContext(ctx, `
		SELECT id, occurred_at, type, from_value, to_value, topic, detail
		FROM fireplace_events
		ORDER BY occurred_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	out := make([]Entry, 0, min(limit, DefaultLimit))
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.OccurredAt, &e.Type, &e.From, &e.To, &e.Topic, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.OccurredAt = e.OccurredAt.UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return out, nil
}

// Observe queues an engine event for writing. Accepted commands are not
// journaled. If the queue is full the event is dropped.
func (j *Journal) Observe(e logic.Event) {
	if e.Type == logic.EventCommandAccepted {
		return
	}
	entry := Entry{
		OccurredAt: e.Timestamp,
		Type:       string(e.Type),
		From:       e.From,
		To:         e.To,
		Topic:      e.Topic,
		Detail:     e.Detail,
	}
	select {
	case j.queue <- entry:
	default:
		j.log.Warnw("journal queue full, dropping event", "type", e.Type)
	}
}

// Run writes queued events until ctx is done, then flushes what is left.
func (j *Journal) Run(ctx context.Context) error {
	for {
		select {
		case e := <-j.queue:
			j.write(context.Background(), e)
		case <-ctx.Done():
			j.flush()
			return nil
		}
	}
}

func (j *Journal) flush() {
	for {
		select {
		case e := <-j.queue:
			j.write(context.Background(), e)
		default:
			return
		}
	}
}

func (j *Journal) write(parent context.Context, e Entry) {
	ctx, cancel := context.WithTimeout(parent, appendTimeout)
	defer cancel()
	if err := j.Append(ctx, e); err != nil {
		j.log.Errorw("journal write failed", "err", err)
	}
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}
