package deps

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func writeStub(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCheckBinaries(t *testing.T) {
	present := writeStub(t, t.TempDir(), "present")
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Empty", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Command != present {
		t.Fatalf("expected resolved command %q, got %q", present, results[0].Command)
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected empty command status: %#v", results[2])
	}
}

func TestCheckBinariesResolvesFromPath(t *testing.T) {
	binDir := t.TempDir()
	want := writeStub(t, binDir, "golfr-test-tool")
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))

	status := CheckBinaries([]Requirement{{Name: "tool", Command: "golfr-test-tool"}})[0]
	if !status.Available || status.Command != want {
		t.Fatalf("expected %q to resolve, got %#v", want, status)
	}
}

func fakeFFmpeg(t *testing.T, mode string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "FFMPEG_HELPER_MODE="+mode)
		return cmd
	}
	t.Cleanup(func() { commandContext = original })
}

func TestCheckFFmpegReportsVersion(t *testing.T) {
	fakeFFmpeg(t, "version")
	binary := writeStub(t, t.TempDir(), "ffmpeg")

	status := CheckFFmpeg(context.Background(), binary)
	if !status.Available {
		t.Fatalf("expected ffmpeg to be available, got %#v", status)
	}
	if !strings.HasPrefix(status.Detail, "ffmpeg version 7.1") {
		t.Fatalf("unexpected detail %q", status.Detail)
	}
}

func TestCheckFFmpegFailingBinary(t *testing.T) {
	fakeFFmpeg(t, "failure")
	binary := writeStub(t, t.TempDir(), "ffmpeg")

	status := CheckFFmpeg(context.Background(), binary)
	if status.Available {
		t.Fatal("expected failing ffmpeg to be unavailable")
	}
	if status.Detail == "" {
		t.Fatal("expected detail for failing ffmpeg")
	}
}

func TestCheckFFmpegMissing(t *testing.T) {
	status := CheckFFmpeg(context.Background(), filepath.Join(t.TempDir(), "missing-ffmpeg"))
	if status.Available {
		t.Fatal("expected missing ffmpeg to be unavailable")
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	switch os.Getenv("FFMPEG_HELPER_MODE") {
	case "version":
		fmt.Println("ffmpeg version 7.1 Copyright (c) 2000-2024 the FFmpeg developers")
		fmt.Println("built with gcc")
		os.Exit(0)
	case "failure":
		fmt.Fprintln(os.Stderr, "boom")
		os.Exit(1)
	default:
		os.Exit(0)
	}
}
