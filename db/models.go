package db

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Compression struct {
	ID             int64              `json:"id"`
	CreatedAt      pgtype.Timestamptz `json:"created_at"`
	Format         string             `json:"format"`
	Outcome        string             `json:"outcome"`
	OriginalSize   int64              `json:"original_size"`
	CompressedSize *int64             `json:"compressed_size"`
	Quality        int32              `json:"quality"`
	Preset         *int32             `json:"preset"`
	DurationMs     int64              `json:"duration_ms"`
	InputSha256    string             `json:"input_sha256"`
	UserAgent      *string            `json:"user_agent"`
	Err            *string            `json:"err"`
}

type Log struct {
	ID            int64              `json:"id"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	RequestMethod *string            `json:"request_method"`
	RequestPath   *string            `json:"request_path"`
	HttpStatus    *int32             `json:"http_status"`
	Format        *string            `json:"format"`
	Outcome       *string            `json:"outcome"`
	Message       *string            `json:"message"`
	Err           *string            `json:"err"`
}
