package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pelletier/go-toml/v2"

	"golfr/internal/config"
)

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("GOLFR_FFMPEG", "")
	t.Chdir(home)
	return home
}

func TestLoadDefaultConfig(t *testing.T) {
	home := isolateHome(t)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(home, ".config", "golfr", "config.toml"); resolved != want {
		t.Fatalf("resolved = %q, want %q", resolved, want)
	}
	if cfg.Render.Resolution != 10 || cfg.Render.FPS != 30 {
		t.Fatalf("unexpected render defaults: %+v", cfg.Render)
	}
	if cfg.Render.Format != "mp4" || cfg.Render.OnMalformed != "fail" {
		t.Fatalf("unexpected render defaults: %+v", cfg.Render)
	}
	if diff := cmp.Diff([]string{".golfr", ".golfr.gz"}, cfg.Render.Extensions); diff != "" {
		t.Fatalf("extensions (-want +got):\n%s", diff)
	}
	if cfg.Output.Dir != "" {
		t.Fatalf("expected empty output dir, got %q", cfg.Output.Dir)
	}
	if cfg.Batch.Workers != 1 {
		t.Fatalf("workers = %d", cfg.Batch.Workers)
	}
	if cfg.FFmpegBinary() != "ffmpeg" {
		t.Fatalf("ffmpeg binary = %q", cfg.FFmpegBinary())
	}
	if want := filepath.Join(home, ".local", "share", "golfr", "history.db"); cfg.History.Path != want {
		t.Fatalf("history path = %q, want %q", cfg.History.Path, want)
	}
}

func TestLoadFileOverridesAndNormalizes(t *testing.T) {
	home := isolateHome(t)
	path := filepath.Join(home, "custom.toml")
	content := `
[render]
resolution = 4
fps = 12
format = " GIF "
on_malformed = "Skip"
extensions = ["golfr", ".GOLFR", ".rec"]

[output]
dir = "~/videos"

[batch]
workers = 3

[logging]
format = "JSON"
level = "DEBUG"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved=%q exists=%v", resolved, exists)
	}
	if cfg.Render.Format != "gif" || cfg.Render.OnMalformed != "skip" {
		t.Fatalf("render not normalized: %+v", cfg.Render)
	}
	if diff := cmp.Diff([]string{".golfr", ".rec"}, cfg.Render.Extensions); diff != "" {
		t.Fatalf("extensions (-want +got):\n%s", diff)
	}
	if cfg.Output.Dir != filepath.Join(home, "videos") {
		t.Fatalf("output dir = %q", cfg.Output.Dir)
	}
	if cfg.Batch.Workers != 3 || cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected values: %+v %+v", cfg.Batch, cfg.Logging)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"resolution":   "[render]\nresolution = 0\n",
		"fps":          "[render]\nfps = -1\n",
		"format":       "[render]\nformat = \"avi\"\n",
		"policy":       "[render]\non_malformed = \"ignore\"\n",
		"workers":      "[batch]\nworkers = -2\n",
		"skip history": "[batch]\nskip_unchanged = true\n[history]\nenabled = false\n",
		"crf":          "[encoder]\ncrf = 99\n",
		"level":        "[logging]\nlevel = \"loud\"\n",
		"unknown key":  "[render]\nsize = 3\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			home := isolateHome(t)
			path := filepath.Join(home, "bad.toml")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, _, _, err := config.Load(path); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestFFmpegEnvFallback(t *testing.T) {
	isolateHome(t)
	t.Setenv("GOLFR_FFMPEG", "/opt/ffmpeg/bin/ffmpeg")
	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.FFmpegBinary() != "/opt/ffmpeg/bin/ffmpeg" {
		t.Fatalf("ffmpeg binary = %q", cfg.FFmpegBinary())
	}
}

func TestHasExtensionPrefersLongestMatch(t *testing.T) {
	cfg := config.Default()
	cfg.Render.Extensions = []string{".gz", ".golfr", ".golfr.gz"}
	cases := []struct {
		name string
		ext  string
		ok   bool
	}{
		{"life.golfr", ".golfr", true},
		{"LIFE.GOLFR.GZ", ".golfr.gz", true},
		{"notes.txt", "", false},
		{".golfr", "", false},
	}
	for _, tc := range cases {
		ext, ok := cfg.HasExtension(tc.name)
		if ext != tc.ext || ok != tc.ok {
			t.Errorf("HasExtension(%q) = %q, %v; want %q, %v", tc.name, ext, ok, tc.ext, tc.ok)
		}
	}
}

func TestSampleConfigMatchesDefaults(t *testing.T) {
	home := isolateHome(t)
	path := filepath.Join(home, "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		t.Fatalf("sample is not valid TOML: %v", err)
	}
	loaded, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	defaults, _, _, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(defaults, loaded); diff != "" {
		t.Fatalf("sample config drifted from defaults (-default +sample):\n%s", diff)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	isolateHome(t)
	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	data, err := cfg.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[render]") || !strings.Contains(string(data), "resolution = 10") {
		t.Fatalf("unexpected encoding:\n%s", data)
	}
}

func TestEnsureDirectories(t *testing.T) {
	home := isolateHome(t)
	cfg := config.Default()
	cfg.Output.Dir = filepath.Join(home, "out", "videos")
	cfg.Logging.Dir = filepath.Join(home, "logs")
	cfg.History.Path = filepath.Join(home, "state", "history.db")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Output.Dir, cfg.Logging.Dir, filepath.Dir(cfg.History.Path)} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}
