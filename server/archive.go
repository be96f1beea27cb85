package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/auravoice/aura-core/config"
	"github.com/auravoice/aura-core/core/llms"
	_ "modernc.org/sqlite"
)

// Archive persists conversation turns to SQLite so a session can resume
// after its in-memory retention window has lapsed or the server restarted.
// A disabled archive is a valid no-op archive.
type Archive struct {
	db            *sql.DB
	retentionDays int
	clock         func() time.Time
}

// OpenArchive opens the archive at the configured path, creating the schema
// when missing. When the archive is disabled every method is a no-op.
func OpenArchive(ctx context.Context, cfg config.ArchiveConfig, logger *slog.Logger) (*Archive, error) {
	if !cfg.Enabled {
		return &Archive{clock: time.Now}, nil
	}

	dir := filepath.Dir(cfg.Path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create archive dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	archive := &Archive{db: db, retentionDays: cfg.RetentionDays, clock: time.Now}
	if err := archive.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := archive.Prune(ctx); err != nil {
		logger.Warn("archive prune on start failed", slog.String("error", err.Error()))
	}
	return archive, nil
}

func (a *Archive) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS sessions (
    session_id TEXT PRIMARY KEY,
    updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS turns (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    turn_id TEXT NOT NULL,
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    tool_name TEXT NOT NULL DEFAULT '',
    tool_result TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL,
    FOREIGN KEY(session_id) REFERENCES sessions(session_id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, id);
`
	_, err := a.db.ExecContext(ctx, ddl)
	return err
}

// SaveTurns replaces the archived history of a session. Called when a live
// connection detaches.
func (a *Archive) SaveTurns(ctx context.Context, sessionID string, turns []llms.Turn) error {
	if a.db == nil {
		return nil
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions(session_id, updated_at) VALUES(?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET updated_at=excluded.updated_at`,
		sessionID, a.clock().UTC().Format(time.RFC3339Nano)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM turns WHERE session_id = ?`, sessionID); err != nil {
		return err
	}
	for _, turn := range turns {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO turns(session_id, turn_id, role, content, tool_name, tool_result, created_at)
			 VALUES(?, ?, ?, ?, ?, ?, ?)`,
			sessionID, turn.ID, string(turn.Role), turn.Content, turn.ToolName, turn.ToolResult,
			turn.CreatedAt.UTC().Format(time.RFC3339Nano)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadTurns returns the archived history of a session in chronological
// order, nil when the session is unknown.
func (a *Archive) LoadTurns(ctx context.Context, sessionID string) ([]llms.Turn, error) {
	if a.db == nil {
		return nil, nil
	}

	rows, err := a.db.QueryContext(ctx,
		`SELECT turn_id, role, content, tool_name, tool_result, created_at
		 FROM turns WHERE session_id = ? ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []llms.Turn
	for rows.Next() {
		var turn llms.Turn
		var role, created string
		if err := rows.Scan(&turn.ID, &role, &turn.Content, &turn.ToolName, &turn.ToolResult, &created); err != nil {
			return nil, err
		}
		turn.Role = llms.TurnRole(role)
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			turn.CreatedAt = ts
		}
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}

// Prune drops sessions older than the retention window.
func (a *Archive) Prune(ctx context.Context) error {
	if a.db == nil || a.retentionDays <= 0 {
		return nil
	}
	cutoff := a.clock().Add(-time.Duration(a.retentionDays) * 24 * time.Hour)
	_, err := a.db.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < ?`,
		cutoff.UTC().Format(time.RFC3339Nano))
	return err
}

func (a *Archive) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
