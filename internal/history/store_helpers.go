package history

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		entry        Entry
		status       string
		mtime        int64
		output       sql.NullString
		errorKind    sql.NullString
		errorMessage sql.NullString
		durationMS   int64
		createdRaw   string
	)
	if err := scanner.Scan(
		&entry.ID,
		&entry.RunID,
		&entry.Input,
		&entry.InputSize,
		&mtime,
		&output,
		&entry.Format,
		&entry.Settings,
		&status,
		&entry.GridSize,
		&entry.Frames,
		&entry.SkippedFrames,
		&errorKind,
		&errorMessage,
		&entry.ErrorLine,
		&durationMS,
		&createdRaw,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan conversion: %w", err)
	}

	entry.Status = Status(status)
	if mtime != 0 {
		entry.InputModTime = time.Unix(0, mtime)
	}
	entry.Output = output.String
	entry.ErrorKind = errorKind.String
	entry.ErrorMessage = errorMessage.String
	entry.Elapsed = time.Duration(durationMS) * time.Millisecond
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		entry.CreatedAt = created
	}
	return &entry, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
