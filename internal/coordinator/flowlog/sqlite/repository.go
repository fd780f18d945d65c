// Package sqlite provides a SQLite-backed implementation of flowlog.Repository.
//
// WAL mode is enabled on Open so the checkout handlers can append while a
// reader inspects the log.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jcmexdev/comanda/internal/coordinator/flowlog"

	// pure-Go driver, no CGO
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS flow_logs (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    flow_id     TEXT NOT NULL,
    order_id    TEXT NOT NULL DEFAULT '',
    status      TEXT NOT NULL,
    step        TEXT NOT NULL DEFAULT '',
    errors      TEXT NOT NULL DEFAULT '[]',
    trace_id    TEXT NOT NULL DEFAULT '',
    span_id     TEXT NOT NULL DEFAULT '',
    updated_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_flow_logs_flow_id ON flow_logs(flow_id, id);
CREATE INDEX IF NOT EXISTS idx_flow_logs_order_id ON flow_logs(order_id);
`

type Repository struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
//
//	repo, err := sqlite.Open("./data/flows.db")
func Open(path string) (*Repository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}
	// single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) Save(ctx context.Context, entry *flowlog.Entry) error {
	const q = `
		INSERT INTO flow_logs
			(flow_id, order_id, status, step, errors, trace_id, span_id, updated_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?)`

	errs := entry.Errors
	if errs == nil {
		errs = []string{}
	}
	errJSON, err := json.Marshal(errs)
	if err != nil {
		return fmt.Errorf("sqlite: encode errors for %q: %w", entry.FlowID, err)
	}

	_, err = r.db.ExecContext(ctx, q,
		entry.FlowID,
		entry.OrderID,
		string(entry.Status),
		entry.Step,
		string(errJSON),
		entry.TraceID,
		entry.SpanID,
		formatTime(entry.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save flow log for %q: %w", entry.FlowID, err)
	}
	return nil
}

// List returns every entry of a flow in the order it was written.
func (r *Repository) List(ctx context.Context, flowID string) ([]flowlog.Entry, error) {
	const q = `
		SELECT flow_id, order_id, status, step, errors, trace_id, span_id, updated_at
		FROM   flow_logs
		WHERE  flow_id = ?
		ORDER  BY id ASC`

	rows, err := r.db.QueryContext(ctx, q, flowID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list flow %q: %w", flowID, err)
	}
	defer rows.Close()

	var out []flowlog.Entry
	for rows.Next() {
		var (
			entry     flowlog.Entry
			errJSON   string
			updatedAt string
		)
		if err := rows.Scan(
			&entry.FlowID,
			&entry.OrderID,
			&entry.Status,
			&entry.Step,
			&errJSON,
			&entry.TraceID,
			&entry.SpanID,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scan flow %q: %w", flowID, err)
		}
		if err := json.Unmarshal([]byte(errJSON), &entry.Errors); err != nil {
			return nil, fmt.Errorf("sqlite: decode errors for %q: %w", flowID, err)
		}
		if entry.UpdatedAt, err = parseRFC3339(updatedAt); err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

var _ flowlog.Repository = (*Repository)(nil)
