// Package journal records every committed property mutation in SQLite so
// edits made through the server can be reviewed later.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/creatorbridge/creatorbridge/internal/apply"
	"github.com/creatorbridge/creatorbridge/internal/web/middleware"
)

const schema = `
CREATE TABLE IF NOT EXISTS mutations (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id  TEXT NOT NULL DEFAULT '',
	instance    TEXT NOT NULL,
	target      TEXT NOT NULL,
	kind        TEXT NOT NULL,
	path        TEXT NOT NULL,
	commit_path TEXT NOT NULL,
	value       TEXT NOT NULL,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS mutations_instance ON mutations (instance, id);
`

const insertSQL = `INSERT INTO mutations
	(request_id, instance, target, kind, path, commit_path, value, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

const selectSQL = `SELECT id, request_id, instance, target, kind, path, commit_path, value, created_at
	FROM mutations`

// Entry is one recorded mutation.
type Entry struct {
	ID        int64           `json:"id"`
	RequestID string          `json:"requestId,omitempty"`
	Instance  string          `json:"instance"`
	Target    string          `json:"target"`
	Kind      string          `json:"kind"`
	Path      string          `json:"path"`
	Commit    string          `json:"commit"`
	Value     json.RawMessage `json:"value"`
	At        time.Time       `json:"at"`
}

// Filter narrows List.
type Filter struct {
	Instance string // empty for all instances
	Limit    int    // zero for no limit
}

// Journal is a SQLite-backed mutation log.
type Journal struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ apply.Observer = (*Journal)(nil)

// Open opens (creating if needed) the journal database at path.
func Open(ctx context.Context, path string, logger *zap.Logger) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// a single connection keeps :memory: databases alive and serializes writes
	db.SetMaxOpenConns(1)

	j := New(db, logger)
	if err := j.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

// New wraps an open database. Call Migrate before use on a fresh database.
func New(db *sql.DB, logger *zap.Logger) *Journal {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Journal{db: db, logger: logger}
}

// Migrate creates the journal table.
func (j *Journal) Migrate(ctx context.Context) error {
	if _, err := j.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate journal: %w", err)
	}
	return nil
}

// Record stores m.
func (j *Journal) Record(ctx context.Context, m apply.Mutation) error {
	value, err := json.Marshal(m.Value)
	if err != nil {
		return fmt.Errorf("encode value of %s: %w", m.Path, err)
	}
	_, err = j.db.ExecContext(ctx, insertSQL,
		middleware.GetRequestID(ctx),
		m.Instance,
		m.Target,
		m.Kind.String(),
		m.Path,
		m.Commit,
		string(value),
		m.At.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record mutation: %w", err)
	}
	return nil
}

// Committed records m. The mutation is already applied, so a failure to
// record it is logged rather than returned.
func (j *Journal) Committed(ctx context.Context, m apply.Mutation) {
	if err := j.Record(ctx, m); err != nil {
		j.logger.Error("journal write failed",
			zap.String("instance", m.Instance),
			zap.String("path", m.Path),
			zap.Error(err),
		)
	}
}

// List returns recorded mutations, newest first.
func (j *Journal) List(ctx context.Context, f Filter) ([]Entry, error) {
	query := selectSQL
	var args []any
	if f.Instance != "" {
		query += " WHERE instance = ?"
		args = append(args, f.Instance)
	}
	query += " ORDER BY id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list mutations: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e     Entry
			value string
			at    int64
		)
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Instance, &e.Target, &e.Kind,
			&e.Path, &e.Commit, &value, &at); err != nil {
			return nil, fmt.Errorf("scan mutation: %w", err)
		}
		e.Value = json.RawMessage(value)
		e.At = time.UnixMilli(at).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list mutations: %w", err)
	}
	return entries, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}
