package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Zuo-Peng/convman/internal/model"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS conversations (
    id            TEXT PRIMARY KEY,
    title         TEXT NOT NULL DEFAULT '',
    url           TEXT NOT NULL DEFAULT '',
    saved_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    message_count INTEGER NOT NULL DEFAULT 0,
    messages      JSONB NOT NULL DEFAULT '[]'
);

CREATE INDEX IF NOT EXISTS conversations_saved_at ON conversations(saved_at);

CREATE TABLE IF NOT EXISTS snapshots (
    path            TEXT PRIMARY KEY,
    conversation_id TEXT NOT NULL,
    mtime           BIGINT NOT NULL DEFAULT 0,
    size            BIGINT NOT NULL DEFAULT 0
);
`

type Postgres struct {
	pool *pgxpool.Pool
}

func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) Save(ctx context.Context, c *model.Conversation) error {
	msgs, err := json.Marshal(c.Messages)
	if err != nil {
		return fmt.Errorf("encode messages: %w", err)
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO conversations (id, title, url, saved_at, message_count, messages)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			url = EXCLUDED.url,
			saved_at = EXCLUDED.saved_at,
			message_count = EXCLUDED.message_count,
			messages = EXCLUDED.messages`,
		c.ID, c.Title, c.URL, c.SavedAt, c.MessageCount, msgs,
	)
	if err != nil {
		return fmt.Errorf("save conversation %s: %w", c.ID, err)
	}
	storeLog.Debug("conversation_saved",
		slog.String("id", c.ID),
		slog.Int("messages", c.MessageCount))
	return nil
}

func (p *Postgres) List(ctx context.Context) ([]Summary, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, title, url, saved_at, message_count FROM conversations ORDER BY saved_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.Title, &s.URL, &s.SavedAt, &s.MessageCount); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *Postgres) Get(ctx context.Context, id string) (*model.Conversation, error) {
	var c model.Conversation
	var msgs []byte
	err := p.pool.QueryRow(ctx,
		`SELECT id, title, url, saved_at, message_count, messages FROM conversations WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Title, &c.URL, &c.SavedAt, &c.MessageCount, &msgs)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation %s: %w", id, err)
	}
	if err := json.Unmarshal(msgs, &c.Messages); err != nil {
		return nil, fmt.Errorf("decode messages of %s: %w", id, err)
	}
	return &c, nil
}

func (p *Postgres) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM conversations WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete conversation %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (p *Postgres) Count(ctx context.Context) (int, error) {
	var n int
	err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM conversations`).Scan(&n)
	return n, err
}

func (p *Postgres) Snapshot(ctx context.Context, path string) (*Snapshot, error) {
	snap := Snapshot{Path: path}
	err := p.pool.QueryRow(ctx,
		`SELECT conversation_id, mtime, size FROM snapshots WHERE path = $1`,
		path,
	).Scan(&snap.ConversationID, &snap.Mtime, &snap.Size)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (p *Postgres) PutSnapshot(ctx context.Context, snap Snapshot) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO snapshots (path, conversation_id, mtime, size)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (path) DO UPDATE SET
			conversation_id = EXCLUDED.conversation_id,
			mtime = EXCLUDED.mtime,
			size = EXCLUDED.size`,
		snap.Path, snap.ConversationID, snap.Mtime, snap.Size,
	)
	return err
}

func (p *Postgres) Snapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := p.pool.Query(ctx, `SELECT path, conversation_id, mtime, size FROM snapshots ORDER BY path`)
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

func (p *Postgres) DeleteSnapshot(ctx context.Context, path string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM snapshots WHERE path = $1`, path)
	return err
}
