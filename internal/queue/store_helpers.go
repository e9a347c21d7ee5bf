package queue

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"av1ify/internal/operation"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*Item, error) {
	var (
		item         Item
		isFolder     int
		op           string
		mode         string
		outputParam  sql.NullString
		errorMessage sql.NullString
		createdAt    string
		updatedAt    string
	)
	err := row.Scan(
		&item.ID,
		&item.UUID,
		&item.SourcePath,
		&isFolder,
		&op,
		&mode,
		&outputParam,
		&item.Status,
		&item.Position,
		&errorMessage,
		&item.FilesDone,
		&item.FilesTotal,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.IsFolder = isFolder != 0
	item.Operation = operation.Choice(op)
	item.OutputMode = OutputMode(mode)
	item.OutputParam = outputParam.String
	item.ErrorMessage = errorMessage.String

	if item.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if item.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &item, nil
}

func parseTimestamp(value string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts, nil
	}
	return time.Parse(time.RFC3339, value)
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", count), ", ")
}
