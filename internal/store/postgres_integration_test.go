//go:build integration

package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func setupPostgres(t *testing.T) *Postgres {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	p, err := OpenPostgres(context.Background(), dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestIntegration_SaveGetDelete(t *testing.T) {
	p := setupPostgres(t)
	ctx := context.Background()
	id := "integration-" + uuid.NewString()[:8]

	c := conversation(id, "Integration", time.Now().UTC().Truncate(time.Microsecond))
	if err := p.Save(ctx, c); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := p.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil || got.Title != "Integration" || len(got.Messages) != 2 {
		t.Fatalf("unexpected conversation: %+v", got)
	}

	ok, err := p.Delete(ctx, id)
	if err != nil || !ok {
		t.Fatalf("Delete = %v, %v", ok, err)
	}
	if got, _ := p.Get(ctx, id); got != nil {
		t.Fatal("expected conversation to be gone")
	}
}

func TestIntegration_Snapshots(t *testing.T) {
	p := setupPostgres(t)
	ctx := context.Background()
	path := "/integration/" + uuid.NewString() + ".html"

	if err := p.PutSnapshot(ctx, Snapshot{Path: path, ConversationID: "c", Mtime: 1, Size: 2}); err != nil {
		t.Fatalf("PutSnapshot failed: %v", err)
	}
	snap, err := p.Snapshot(ctx, path)
	if err != nil || snap == nil || snap.Size != 2 {
		t.Fatalf("Snapshot = %+v, %v", snap, err)
	}
	if err := p.DeleteSnapshot(ctx, path); err != nil {
		t.Fatalf("DeleteSnapshot failed: %v", err)
	}
}
