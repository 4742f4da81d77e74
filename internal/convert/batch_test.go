package convert_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"golfr/internal/convert"
	"golfr/internal/failure"
	"golfr/internal/history"
	"golfr/internal/logging"
	"golfr/internal/testsupport"
)

func writeBatch(t *testing.T, dir string) []string {
	t.Helper()
	return []string{
		testsupport.WriteRecording(t, dir, "a.golfr", 2, [][]int{{0}, {1}}),
		testsupport.WriteText(t, dir, "b.golfr", "0\n1\n"),
		testsupport.WriteRecording(t, dir, "c.golfr", 3, [][]int{{4}}),
	}
}

func TestBatchContinuesPastFailures(t *testing.T) {
	for _, workers := range []int{1, 3} {
		cfg := testsupport.NewConfig(t)
		cfg.Batch.Workers = workers
		dir := t.TempDir()
		inputs := writeBatch(t, dir)

		c, opener := newConverter(t, cfg)
		report, err := c.Batch(context.Background(), dir)
		if err != nil {
			t.Fatalf("workers=%d: Batch: %v", workers, err)
		}

		var got []string
		for _, res := range report.Results {
			got = append(got, res.Input)
		}
		if diff := cmp.Diff(inputs, got); diff != "" {
			t.Fatalf("workers=%d: result order (-want +got):\n%s", workers, diff)
		}
		if report.Succeeded() != 2 || report.Failed() != 1 || report.Frames() != 3 {
			t.Fatalf("workers=%d: succeeded=%d failed=%d frames=%d", workers, report.Succeeded(), report.Failed(), report.Frames())
		}
		if !errors.Is(report.Results[1].Err, failure.ErrInvalidHeader) {
			t.Fatalf("workers=%d: expected invalid header for b, got %v", workers, report.Results[1].Err)
		}
		if opener.opened() != 2 {
			t.Fatalf("workers=%d: opened %d sinks", workers, opener.opened())
		}

		var partial *convert.PartialError
		if !errors.As(report.Err(), &partial) || partial.Failed != 1 || partial.Total != 3 {
			t.Fatalf("workers=%d: expected partial error, got %v", workers, report.Err())
		}
		for _, name := range []string{"a.gif", "c.gif"} {
			if _, err := os.Stat(filepath.Join(cfg.Output.Dir, name)); err != nil {
				t.Fatalf("workers=%d: expected %s: %v", workers, name, err)
			}
		}
		if _, err := os.Stat(filepath.Join(cfg.Output.Dir, "b.gif")); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("workers=%d: expected no output for b, got %v", workers, err)
		}
	}
}

func TestBatchEmptyDirectory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	testsupport.WriteText(t, dir, "notes.txt", "hello")

	c, _ := newConverter(t, cfg)
	_, err := c.Batch(context.Background(), dir)
	if !errors.Is(err, convert.ErrNoRecordings) {
		t.Fatalf("expected ErrNoRecordings, got %v", err)
	}
}

func TestDiscoverFiltersEntries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	testsupport.WriteText(t, dir, "b.golfr.gz", "")
	testsupport.WriteText(t, dir, "a.golfr", "")
	testsupport.WriteText(t, dir, "notes.txt", "")
	testsupport.WriteText(t, dir, ".golfr", "")
	testsupport.WriteText(t, filepath.Join(dir, "nested.golfr"), "c.golfr", "")
	if err := os.Symlink(filepath.Join(dir, "a.golfr"), filepath.Join(dir, "link.golfr")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(dir, "missing"), filepath.Join(dir, "dangling.golfr")); err != nil {
		t.Fatal(err)
	}

	c, _ := newConverter(t, cfg)
	paths, err := c.Discover(dir)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	want := []string{
		filepath.Join(dir, "a.golfr"),
		filepath.Join(dir, "b.golfr.gz"),
		filepath.Join(dir, "link.golfr"),
	}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Fatalf("Discover (-want +got):\n%s", diff)
	}
}

func TestRunDispatchesOnInputKind(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := t.TempDir()
	inputs := writeBatch(t, dir)
	c, _ := newConverter(t, cfg)

	report, err := c.Run(context.Background(), inputs[0])
	if err != nil || len(report.Results) != 1 || report.Err() != nil {
		t.Fatalf("single file run: %v %+v", err, report)
	}

	cfg.Output.Overwrite = true
	c, _ = newConverter(t, cfg)
	report, err = c.Run(context.Background(), dir)
	if err != nil || len(report.Results) != 3 {
		t.Fatalf("directory run: %v %+v", err, report)
	}

	if _, err := c.Run(context.Background(), filepath.Join(dir, "missing.golfr")); !errors.Is(err, failure.ErrIO) {
		t.Fatalf("expected io error for missing input, got %v", err)
	}
}

func TestSkipUnchangedUsesHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithHistory())
	cfg.Batch.SkipUnchanged = true
	cfg.Output.Overwrite = true
	store := testsupport.MustOpenStore(t, cfg)
	input := testsupport.WriteRecording(t, t.TempDir(), "life.golfr", 2, [][]int{{0}})

	ctx := logging.WithRunID(context.Background(), "run-1")
	c, opener := newConverter(t, cfg, convert.WithLedger(store))

	if res := c.ConvertFile(ctx, input); res.Err != nil || res.Unchanged {
		t.Fatalf("first run: %+v", res)
	}
	second := c.ConvertFile(ctx, input)
	if second.Err != nil || !second.Unchanged {
		t.Fatalf("second run should be skipped: %+v", second)
	}
	if opener.opened() != 1 {
		t.Fatalf("expected one sink, got %d", opener.opened())
	}

	testsupport.WriteRecording(t, filepath.Dir(input), "life.golfr", 2, [][]int{{0}, {1, 2}})
	if res := c.ConvertFile(ctx, input); res.Err != nil || res.Unchanged || res.Frames != 2 {
		t.Fatalf("changed input should convert: %+v", res)
	}

	entries, err := store.Recent(ctx, history.Filter{Input: input})
	if err != nil {
		t.Fatal(err)
	}
	var statuses []history.Status
	for _, e := range entries {
		statuses = append(statuses, e.Status)
		if e.RunID != "run-1" {
			t.Fatalf("run id = %q", e.RunID)
		}
	}
	want := []history.Status{history.StatusSucceeded, history.StatusSkipped, history.StatusSucceeded}
	if diff := cmp.Diff(want, statuses); diff != "" {
		t.Fatalf("ledger statuses newest first (-want +got):\n%s", diff)
	}
}

func TestFailuresAreRecordedInHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithHistory())
	store := testsupport.MustOpenStore(t, cfg)
	input := testsupport.WriteText(t, t.TempDir(), "bad.golfr", "2\n0\nz\n")

	c, _ := newConverter(t, cfg, convert.WithLedger(store))
	if res := c.ConvertFile(context.Background(), input); res.Err == nil {
		t.Fatal("expected failure")
	}

	entries, err := store.Recent(context.Background(), history.Filter{Status: history.StatusFailed})
	if err != nil || len(entries) != 1 {
		t.Fatalf("Recent: %v %d", err, len(entries))
	}
	got := entries[0]
	if got.ErrorKind != "malformed_record" || got.ErrorLine != 3 || got.Output != "" || got.GridSize != 2 {
		t.Fatalf("unexpected failure entry %+v", got)
	}
}

func TestReportErr(t *testing.T) {
	boom := errors.New("boom")
	cases := []struct {
		name    string
		results []convert.Result
		check   func(error) bool
	}{
		{"all ok", []convert.Result{{}, {Unchanged: true}}, func(err error) bool { return err == nil }},
		{"single failure", []convert.Result{{Err: boom}}, func(err error) bool { return err == boom }},
		{"partial", []convert.Result{{}, {Err: boom}}, func(err error) bool {
			var partial *convert.PartialError
			return errors.As(err, &partial) && errors.Is(err, boom)
		}},
		{"all failed", []convert.Result{{Err: boom}, {Err: boom}}, func(err error) bool {
			var partial *convert.PartialError
			return err != nil && !errors.As(err, &partial) && errors.Is(err, boom)
		}},
	}
	for _, tc := range cases {
		report := &convert.Report{Results: tc.results}
		if err := report.Err(); !tc.check(err) {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
	}
}
