package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

var commandContext = exec.CommandContext

// CheckFFmpeg reports whether the configured ffmpeg binary resolves and, when
// it does, records the first line of "ffmpeg -version" as the detail.
func CheckFFmpeg(ctx context.Context, binary string) Status {
	status := CheckBinaries([]Requirement{{
		Name:        "FFmpeg",
		Command:     binary,
		Description: "Required for mp4, mkv, webm and av1 output",
	}})[0]
	if !status.Available {
		return status
	}
	version, err := FFmpegVersion(ctx, status.Command)
	if err != nil {
		status.Available = false
		status.Detail = err.Error()
		return status
	}
	status.Detail = version
	return status
}

// FFmpegVersion runs "<binary> -version" and returns its first output line.
func FFmpegVersion(ctx context.Context, binary string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var stdout bytes.Buffer
	cmd := commandContext(ctx, binary, "-hide_banner", "-version") //nolint:gosec
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("run %s -version: %w", binary, err)
	}
	scanner := bufio.NewScanner(&stdout)
	if scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line, nil
		}
	}
	return "", fmt.Errorf("%s -version printed nothing", binary)
}
