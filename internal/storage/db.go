package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"cardfetch/internal"
	"cardfetch/internal/util"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL UNIQUE,
  inputPath TEXT NOT NULL,
  outputPath TEXT NOT NULL,
  variant TEXT NOT NULL,
  startedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  finishedAt TEXT,
  countsJson TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS row_outcomes (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId INTEGER NOT NULL,
  lineNo INTEGER NOT NULL,
  externalId TEXT,
  name TEXT NOT NULL,
  status TEXT NOT NULL,
  passcode TEXT,
  error TEXT,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(runId) REFERENCES runs(id)
);
CREATE INDEX IF NOT EXISTS idx_row_outcomes_run ON row_outcomes(runId, status);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) StartRun(traceID, inputPath, outputPath, variant string) (int64, error) {
	result, err := d.conn.Exec(`
INSERT INTO runs (traceId, inputPath, outputPath, variant) VALUES (?, ?, ?, ?)
`, traceID, inputPath, outputPath, variant)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (d *DB) RecordOutcome(runID int64, outcome internal.RowOutcome) error {
	_, err := d.conn.Exec(`
INSERT INTO row_outcomes (runId, lineNo, externalId, name, status, passcode, error)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, runID, outcome.LineNo, util.StringPtr(outcome.ExternalID), outcome.Name, string(outcome.Status), util.StringPtr(outcome.Passcode), util.StringPtr(outcome.Error))
	return err
}

func (d *DB) FinishRun(runID int64, summary internal.RunSummary) error {
	countsJSON, _ := json.Marshal(map[string]int{
		"total":   summary.Total,
		"saved":   summary.Saved,
		"failed":  summary.Failed,
		"skipped": summary.Skipped,
	})
	_, err := d.conn.Exec(`UPDATE runs SET finishedAt = CURRENT_TIMESTAMP, countsJson = ? WHERE id = ?`, string(countsJSON), runID)
	if err != nil {
		return err
	}
	return d.SetMetadata("runs.last_trace_id", summary.TraceID)
}

func (d *DB) ListRuns(limit int) ([]internal.RunRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.conn.Query(`
SELECT id, traceId, inputPath, outputPath, variant, startedAt, finishedAt, countsJson
FROM runs ORDER BY id DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RunRow
	for rows.Next() {
		var row internal.RunRow
		if err := rows.Scan(&row.ID, &row.TraceID, &row.InputPath, &row.OutputPath, &row.Variant, &row.StartedAt, &row.FinishedAt, &row.CountsJSON); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// FailedRows returns the failed input rows of a run in input order.
func (d *DB) FailedRows(traceID string) ([]internal.InputRow, error) {
	var runID int64
	err := d.conn.QueryRow(`SELECT id FROM runs WHERE traceId = ?`, traceID).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: trace=%s", traceID)
	}
	if err != nil {
		return nil, err
	}

	rows, err := d.conn.Query(`
SELECT lineNo, COALESCE(externalId, ''), name
FROM row_outcomes WHERE runId = ? AND status = ?
ORDER BY lineNo ASC
`, runID, string(internal.OutcomeFailed))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.InputRow
	for rows.Next() {
		var row internal.InputRow
		if err := rows.Scan(&row.LineNo, &row.ExternalID, &row.Name); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
