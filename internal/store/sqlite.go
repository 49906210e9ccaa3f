package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Zuo-Peng/convman/internal/model"
)

const sqliteSchema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS conversations (
    id            TEXT PRIMARY KEY,
    title         TEXT NOT NULL DEFAULT '',
    url           TEXT NOT NULL DEFAULT '',
    saved_at      TEXT NOT NULL DEFAULT '',
    message_count INTEGER NOT NULL DEFAULT 0,
    messages      TEXT NOT NULL DEFAULT '[]'
);

CREATE INDEX IF NOT EXISTS conversations_saved_at ON conversations(saved_at);

CREATE TABLE IF NOT EXISTS snapshots (
    path            TEXT PRIMARY KEY,
    conversation_id TEXT NOT NULL,
    mtime           INTEGER NOT NULL DEFAULT 0,
    size            INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);
`

// schemaVersion should be bumped whenever extraction changes enough that
// imported snapshots must be re-read.
const schemaVersion = "1"

type SQLite struct {
	db *sql.DB
}

func OpenSQLite(dbPath string) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	s := &SQLite{db: db}
	s.migrateSchemaVersion()
	return s, nil
}

func (s *SQLite) migrateSchemaVersion() {
	var ver string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&ver)
	if err != nil || ver != schemaVersion {
		// force re-import by resetting snapshot mtime/size
		s.db.Exec("UPDATE snapshots SET mtime = 0, size = 0")
		s.db.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)", schemaVersion)
	}
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Save(ctx context.Context, c *model.Conversation) error {
	msgs, err := json.Marshal(c.Messages)
	if err != nil {
		return fmt.Errorf("encode messages: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, title, url, saved_at, message_count, messages)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title = excluded.title,
		   url = excluded.url,
		   saved_at = excluded.saved_at,
		   message_count = excluded.message_count,
		   messages = excluded.messages`,
		c.ID, c.Title, c.URL, c.SavedAt.UTC().Format(time.RFC3339Nano), c.MessageCount, string(msgs),
	)
	if err != nil {
		return fmt.Errorf("save conversation %s: %w", c.ID, err)
	}
	storeLog.Debug("conversation_saved",
		slog.String("id", c.ID),
		slog.Int("messages", c.MessageCount))
	return nil
}

func (s *SQLite) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, url, saved_at, message_count FROM conversations ORDER BY saved_at DESC, id")
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var savedAt string
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.URL, &savedAt, &sum.MessageCount); err != nil {
			return nil, err
		}
		sum.SavedAt = parseTime(savedAt)
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *SQLite) Get(ctx context.Context, id string) (*model.Conversation, error) {
	var c model.Conversation
	var savedAt, msgs string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, title, url, saved_at, message_count, messages FROM conversations WHERE id = ?",
		id,
	).Scan(&c.ID, &c.Title, &c.URL, &savedAt, &c.MessageCount, &msgs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation %s: %w", id, err)
	}
	c.SavedAt = parseTime(savedAt)
	if err := json.Unmarshal([]byte(msgs), &c.Messages); err != nil {
		return nil, fmt.Errorf("decode messages of %s: %w", id, err)
	}
	return &c, nil
}

func (s *SQLite) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM conversations WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete conversation %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM conversations").Scan(&n)
	return n, err
}

func (s *SQLite) Snapshot(ctx context.Context, path string) (*Snapshot, error) {
	snap := Snapshot{Path: path}
	err := s.db.QueryRowContext(ctx,
		"SELECT conversation_id, mtime, size FROM snapshots WHERE path = ?",
		path,
	).Scan(&snap.ConversationID, &snap.Mtime, &snap.Size)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *SQLite) PutSnapshot(ctx context.Context, snap Snapshot) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO snapshots (path, conversation_id, mtime, size) VALUES (?, ?, ?, ?)`,
		snap.Path, snap.ConversationID, snap.Mtime, snap.Size,
	)
	return err
}

func (s *SQLite) Snapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT path, conversation_id, mtime, size FROM snapshots ORDER BY path")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.Path, &snap.ConversationID, &snap.Mtime, &snap.Size); err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

func (s *SQLite) DeleteSnapshot(ctx context.Context, path string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM snapshots WHERE path = ?", path)
	return err
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
