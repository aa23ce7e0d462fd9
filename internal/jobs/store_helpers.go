package jobs

import (
	"database/sql"
	"strings"
	"time"
)

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id           string
		statusStr    string
		progress     int
		message      sql.NullString
		errorCode    sql.NullString
		fileID       sql.NullString
		uploadStatus sql.NullString
		paramsJSON   string
		resultFile   sql.NullString
		createdRaw   string
		updatedRaw   string
	)

	if err := scanner.Scan(
		&id,
		&statusStr,
		&progress,
		&message,
		&errorCode,
		&fileID,
		&uploadStatus,
		&paramsJSON,
		&resultFile,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	return &Job{
		ID:           id,
		Status:       Status(statusStr),
		Progress:     progress,
		Message:      message.String,
		ErrorCode:    errorCode.String,
		FileID:       fileID.String,
		UploadStatus: uploadStatus.String,
		ParamsJSON:   paramsJSON,
		ResultFile:   resultFile.String,
		CreatedAt:    parseTimestamp(createdRaw),
		UpdatedAt:    parseTimestamp(updatedRaw),
	}, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func parseTimestamp(raw string) time.Time {
	if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return ts
	}
	return time.Time{}
}
