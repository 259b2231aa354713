package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prohmpiriya/event-planner/internal/domain"
)

// pgUniqueViolation is the SQLSTATE of a primary key conflict
const pgUniqueViolation = "23505"

// Schema creates the tables used by the PostgreSQL repositories.
// Events are stored as one JSONB document per row.
const Schema = `
CREATE TABLE IF NOT EXISTS events (
	id         TEXT PRIMARY KEY,
	doc        JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_created_at ON events (created_at);

CREATE TABLE IF NOT EXISTS event_changelogs (
	id         TEXT PRIMARY KEY,
	event_id   TEXT NOT NULL,
	entry      JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_event_changelogs_event ON event_changelogs (event_id, created_at);
`

// EnsureSchema applies Schema
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// PostgresEventRepository implements EventRepository using PostgreSQL
type PostgresEventRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresEventRepository creates a new PostgresEventRepository
func NewPostgresEventRepository(pool *pgxpool.Pool) *PostgresEventRepository {
	return &PostgresEventRepository{pool: pool}
}

// Create inserts a new event
func (r *PostgresEventRepository) Create(ctx context.Context, event *domain.Event) error {
	doc, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	query := `INSERT INTO events (id, doc, created_at, updated_at) VALUES ($1, $2, $3, $4)`
	_, err = r.pool.Exec(ctx, query, event.ID, doc, event.CreatedAt, event.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// GetByID retrieves an event by ID
func (r *PostgresEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	event, err := scanEvent(r.pool.QueryRow(ctx, `SELECT doc FROM events WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return event, nil
}

// List returns every event ordered by creation time
func (r *PostgresEventRepository) List(ctx context.Context) ([]*domain.Event, error) {
	rows, err := r.pool.Query(ctx, `SELECT doc FROM events ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := []*domain.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// Patch locks the row, merges patch into the stored document and writes it
// back in one transaction
func (r *PostgresEventRepository) Patch(ctx context.Context, id string, patch *domain.EventPatch, updatedAt time.Time) (*domain.Event, *domain.Event, error) {
	var before, after *domain.Event
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		current, err := scanEvent(tx.QueryRow(ctx, `SELECT doc FROM events WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotFound
			}
			return err
		}

		updated := domain.ApplyPatch(current, patch)
		updated.UpdatedAt = updatedAt
		doc, err := json.Marshal(updated)
		if err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE events SET doc = $2, updated_at = $3 WHERE id = $1`,
			id, doc, updatedAt,
		); err != nil {
			return fmt.Errorf("failed to update event: %w", err)
		}
		before, after = current, updated
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return before, after, nil
}

// SetContractDocument merges doc into the contract object of the stored document
func (r *PostgresEventRepository) SetContractDocument(ctx context.Context, id string, doc domain.ContractDocument) error {
	patch, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode contract document: %w", err)
	}

	now := time.Now().UTC()
	query := `
		UPDATE events
		SET doc = jsonb_set(
				jsonb_set(doc, '{contract}', COALESCE(doc->'contract', '{}'::jsonb) || $2::jsonb),
				'{updatedAt}', to_jsonb($3::text)),
			updated_at = $4
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query, id, patch, now.Format(time.RFC3339Nano), now)
	if err != nil {
		return fmt.Errorf("failed to set contract document: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes an event
func (r *PostgresEventRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var doc []byte
	if err := row.Scan(&doc); err != nil {
		return nil, err
	}
	var event domain.Event
	if err := json.Unmarshal(doc, &event); err != nil {
		return nil, fmt.Errorf("failed to decode event: %w", err)
	}
	return &event, nil
}

// PostgresChangeLogRepository implements ChangeLogRepository using PostgreSQL
type PostgresChangeLogRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresChangeLogRepository creates a new PostgresChangeLogRepository
func NewPostgresChangeLogRepository(pool *pgxpool.Pool) *PostgresChangeLogRepository {
	return &PostgresChangeLogRepository{pool: pool}
}

// Append inserts entries in one batch
func (r *PostgresChangeLogRepository) Append(ctx context.Context, entries ...domain.ChangeLogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		doc, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to encode changelog entry: %w", err)
		}
		batch.Queue(
			`INSERT INTO event_changelogs (id, event_id, entry, created_at) VALUES ($1, $2, $3, $4)`,
			e.ID, e.EventID, doc, e.Timestamp,
		)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to append changelog: %w", err)
	}
	return nil
}

// ListByEvent returns the entries of eventID, oldest first
func (r *PostgresChangeLogRepository) ListByEvent(ctx context.Context, eventID string) ([]domain.ChangeLogEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT entry FROM event_changelogs WHERE event_id = $1 ORDER BY created_at, id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list changelog: %w", err)
	}
	defer rows.Close()

	entries := []domain.ChangeLogEntry{}
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var entry domain.ChangeLogEntry
		if err := json.Unmarshal(doc, &entry); err != nil {
			return nil, fmt.Errorf("failed to decode changelog entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
