package history_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	_ "modernc.org/sqlite"

	"golfr/internal/history"
	"golfr/internal/testsupport"
)

func TestRecordAndRecent(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithHistory())
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	mtime := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)
	first := history.Entry{
		RunID:        "run-1",
		Input:        "/data/a.golfr",
		InputSize:    120,
		InputModTime: mtime,
		Output:       "/out/a.mp4",
		Format:       "mp4",
		Settings:     "mp4/10/30",
		Status:       history.StatusSucceeded,
		GridSize:     3,
		Frames:       42,
		Elapsed:      1500 * time.Millisecond,
	}
	second := history.Entry{
		RunID:        "run-1",
		Input:        "/data/b.golfr",
		Format:       "mp4",
		Settings:     "mp4/10/30",
		Status:       history.StatusFailed,
		ErrorKind:    "malformed_record",
		ErrorMessage: "bad token",
		ErrorLine:    7,
	}
	for _, e := range []history.Entry{first, second} {
		if _, err := store.Record(ctx, e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	entries, err := store.Recent(ctx, history.Filter{})
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	ignore := cmpopts.IgnoreFields(history.Entry{}, "ID", "CreatedAt")
	if diff := cmp.Diff(second, entries[0], ignore); diff != "" {
		t.Fatalf("newest entry (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(first, entries[1], ignore); diff != "" {
		t.Fatalf("oldest entry (-want +got):\n%s", diff)
	}
	if entries[0].CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be populated")
	}

	failed, err := store.Recent(ctx, history.Filter{Status: history.StatusFailed})
	if err != nil {
		t.Fatal(err)
	}
	if len(failed) != 1 || failed[0].Input != "/data/b.golfr" {
		t.Fatalf("unexpected failed entries: %+v", failed)
	}

	limited, err := store.Recent(ctx, history.Filter{Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(limited))
	}
}

func TestLastSuccess(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithHistory())
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	got, err := store.LastSuccess(ctx, "/data/a.golfr")
	if err != nil || got != nil {
		t.Fatalf("expected no entry, got %+v, %v", got, err)
	}

	mtime := time.Unix(1700000000, 5)
	for _, e := range []history.Entry{
		{Input: "/data/a.golfr", Status: history.StatusSucceeded, Settings: "old", InputSize: 10, InputModTime: mtime},
		{Input: "/data/a.golfr", Status: history.StatusSucceeded, Settings: "new", InputSize: 10, InputModTime: mtime},
		{Input: "/data/a.golfr", Status: history.StatusFailed, Settings: "new"},
	} {
		if _, err := store.Record(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	got, err = store.LastSuccess(ctx, "/data/a.golfr")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Settings != "new" {
		t.Fatalf("expected newest success, got %+v", got)
	}
	if !got.Matches(10, mtime, "new") {
		t.Fatal("expected entry to match identical input")
	}
	if got.Matches(11, mtime, "new") || got.Matches(10, mtime.Add(time.Second), "new") || got.Matches(10, mtime, "old") {
		t.Fatal("expected changed input or settings not to match")
	}
}

func TestClear(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithHistory())
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	old := time.Now().Add(-48 * time.Hour)
	if _, err := store.Record(ctx, history.Entry{Input: "a", Status: history.StatusSucceeded, CreatedAt: old}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Record(ctx, history.Entry{Input: "b", Status: history.StatusSucceeded}); err != nil {
		t.Fatal(err)
	}

	removed, err := store.Clear(ctx, time.Now().Add(-24*time.Hour))
	if err != nil || removed != 1 {
		t.Fatalf("Clear(before) = %d, %v; want 1", removed, err)
	}
	removed, err = store.Clear(ctx, time.Time{})
	if err != nil || removed != 1 {
		t.Fatalf("Clear(all) = %d, %v; want 1", removed, err)
	}
}

func TestConcurrentRecord(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithHistory())
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Record(ctx, history.Entry{Input: "x", Status: history.StatusSucceeded}); err != nil {
				t.Errorf("Record: %v", err)
			}
		}()
	}
	wg.Wait()

	entries, err := store.Recent(ctx, history.Filter{Input: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 8 {
		t.Fatalf("expected 8 entries, got %d", len(entries))
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	_ = store.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatal(err)
	}
	_ = db.Close()

	if _, err := history.Open(path); !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := history.Open(" "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
