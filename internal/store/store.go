// Package store keeps saved conversations. SQLite is the default backend;
// PostgreSQL is used when a database URL is configured.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Zuo-Peng/convman/internal/logging"
	"github.com/Zuo-Peng/convman/internal/model"
)

var storeLog = logging.ForComponent(logging.CompStore)

// Summary is the list view of a saved conversation.
type Summary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	URL          string    `json:"url"`
	SavedAt      time.Time `json:"savedAt"`
	MessageCount int       `json:"messageCount"`
}

// Snapshot records which conversation an imported HTML file became, with the
// file's mtime and size at import.
type Snapshot struct {
	Path           string
	ConversationID string
	Mtime          int64
	Size           int64
}

type Store interface {
	// Save inserts c or replaces the conversation with the same id.
	Save(ctx context.Context, c *model.Conversation) error
	// List returns every saved conversation, newest first.
	List(ctx context.Context) ([]Summary, error)
	// Get returns nil, nil when id is unknown.
	Get(ctx context.Context, id string) (*model.Conversation, error)
	// Delete reports false, nil when id is unknown.
	Delete(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context) (int, error)

	// Snapshot returns nil, nil for a path never imported.
	Snapshot(ctx context.Context, path string) (*Snapshot, error)
	PutSnapshot(ctx context.Context, s Snapshot) error
	Snapshots(ctx context.Context) ([]Snapshot, error)
	DeleteSnapshot(ctx context.Context, path string) error

	Close() error
}

// Open picks the backend: PostgreSQL when databaseURL is set, otherwise the
// SQLite file at dbPath.
func Open(ctx context.Context, dbPath, databaseURL string) (Store, error) {
	if databaseURL != "" {
		pg, err := OpenPostgres(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		return pg, nil
	}
	lite, err := OpenSQLite(dbPath)
	if err != nil {
		return nil, err
	}
	return lite, nil
}

// NewID returns a saved-conversation id: conv_<unix millis>_<9 hex chars>.
func NewID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("conv_%d_%s", now.UnixMilli(), suffix)
}

// SummaryOf is the list view of c.
func SummaryOf(c *model.Conversation) Summary {
	return Summary{
		ID:           c.ID,
		Title:        c.Title,
		URL:          c.URL,
		SavedAt:      c.SavedAt,
		MessageCount: c.MessageCount,
	}
}
