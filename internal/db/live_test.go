package db

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/ES-COCO/es-coco/internal/config"
)

// TestLiveDatabase opens the real transcript database and reads switch segments.
// Skipped if the database doesn't exist.
func TestLiveDatabase(t *testing.T) {
	cfg, err := config.NewConfig()
	if err != nil {
		t.Skip("no usable config:", err)
	}
	dbPath := cfg.Database
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Skip("database not found at", dbPath)
	}

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	ids, err := store.SwitchSegmentIDs(ctx)
	if err != nil {
		t.Fatalf("SwitchSegmentIDs: %v", err)
	}
	fmt.Printf("Segments with a code-switch: %d\n", len(ids))
	if len(ids) == 0 {
		return
	}

	segments, err := store.Segments(ctx, ids[:min(5, len(ids))], OrderBySourceThenStart)
	if err != nil {
		t.Fatalf("Segments: %v", err)
	}
	for _, s := range segments {
		fmt.Printf("  segment %d (%s) %d-%dms\n", s.ID, s.SourceName.String, s.StartMS.Int64, s.EndMS.Int64)
	}
}
