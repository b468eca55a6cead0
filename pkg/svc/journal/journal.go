package journal

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Event is one recorded rollout transition.
type Event struct {
	ID        uuid.UUID `db:"id"`
	Time      time.Time `db:"time"`
	Namespace string    `db:"namespace"`
	Rollout   string    `db:"rollout"`
	Revision  string    `db:"revision"`
	Phase     string    `db:"phase"`
	Step      int32     `db:"step"`
	Reason    string    `db:"reason"`
	Message   string    `db:"message"`
	Warning   bool      `db:"warning"`
}

// Recorder stores and reads rollout events.
type Recorder interface {
	Record(ctx context.Context, events ...Event) error
	Events(ctx context.Context, namespace, rollout string, limit int) ([]Event, error)
	Close() error
}

// Journal is a Recorder backed by SQLite.
type Journal struct {
	dbConn *sqlx.DB
}

var _ Recorder = (*Journal)(nil)

// Open opens or creates the SQLite journal at path and applies pending migrations.
func Open(ctx context.Context, path string) (*Journal, error) {
	dbConn, err := sqlx.ConnectContext(ctx, "sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("connecting to journal %s: %w", path, err)
	}

	dbConn.SetMaxOpenConns(1)

	migrations, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		_ = dbConn.Close()

		return nil, fmt.Errorf("loading journal migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, dbConn.DB, migrations)
	if err != nil {
		_ = dbConn.Close()

		return nil, fmt.Errorf("creating migration provider: %w", err)
	}

	_, err = provider.Up(ctx)
	if err != nil {
		_ = dbConn.Close()

		return nil, fmt.Errorf("applying journal migrations: %w", err)
	}

	return &Journal{dbConn: dbConn}, nil
}

// Record stores events, assigning IDs and times where missing.
func (j *Journal) Record(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}

	for i := range events {
		if events[i].ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return fmt.Errorf("creating event id: %w", err)
			}

			events[i].ID = id
		}

		if events[i].Time.IsZero() {
			events[i].Time = time.Now()
		}

		events[i].Time = events[i].Time.UTC()
	}

	query := `INSERT INTO events (id, time, namespace, rollout, revision, phase, step, reason, message, warning)
	          VALUES (:id, :time, :namespace, :rollout, :revision, :phase, :step, :reason, :message, :warning)`

	_, err := j.dbConn.NamedExecContext(ctx, query, events)
	if err != nil {
		return fmt.Errorf("inserting %d events: %w", len(events), err)
	}

	return nil
}

// Events returns the newest events of a rollout, oldest first. A limit of zero
// or less returns every event.
func (j *Journal) Events(ctx context.Context, namespace, rollout string, limit int) ([]Event, error) {
	query := `SELECT id, time, namespace, rollout, revision, phase, step, reason, message, warning
	          FROM events WHERE namespace = ? AND rollout = ? ORDER BY time DESC, id DESC`

	args := []any{namespace, rollout}
	if limit > 0 {
		query += " LIMIT ?"

		args = append(args, limit)
	}

	var events []Event

	err := j.dbConn.SelectContext(ctx, &events, query, args...)
	if err != nil {
		return nil, fmt.Errorf("reading events of %s/%s: %w", namespace, rollout, err)
	}

	for left, right := 0, len(events)-1; left < right; left, right = left+1, right-1 {
		events[left], events[right] = events[right], events[left]
	}

	return events, nil
}

// Close terminates the database connection.
func (j *Journal) Close() error {
	err := j.dbConn.Close()
	if err != nil {
		return fmt.Errorf("closing journal: %w", err)
	}

	return nil
}

// Nop is a Recorder that discards events.
type Nop struct{}

var _ Recorder = Nop{}

// Record discards events.
func (Nop) Record(context.Context, ...Event) error { return nil }

// Events returns no events.
func (Nop) Events(context.Context, string, string, int) ([]Event, error) { return nil, nil }

// Close does nothing.
func (Nop) Close() error { return nil }
