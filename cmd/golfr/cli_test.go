package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golfr/internal/testsupport"
)

type cliTestEnv struct {
	baseDir     string
	configPath  string
	outputDir   string
	historyPath string
	inputDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("GOLFR_FFMPEG", "")

	env := &cliTestEnv{
		baseDir:     base,
		configPath:  filepath.Join(base, "golfr.toml"),
		outputDir:   filepath.Join(base, "out"),
		historyPath: filepath.Join(base, "state", "history.db"),
		inputDir:    filepath.Join(base, "in"),
	}
	writeTestConfig(t, env, "gif")
	return env
}

func writeTestConfig(t *testing.T, env *cliTestEnv, format string) {
	t.Helper()
	content := fmt.Sprintf(`[render]
format = %q
resolution = 2

[output]
dir = %q

[history]
enabled = true
path = %q

[logging]
level = "error"
`, format, env.outputDir, env.historyPath)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func (env *cliTestEnv) recording(t *testing.T, name string, size int, frames [][]int) string {
	t.Helper()
	return testsupport.WriteRecording(t, env.inputDir, name, size, frames)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
