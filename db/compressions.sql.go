package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const recordCompression = `-- name: RecordCompression :one
INSERT INTO compressions (
  format, outcome, original_size, compressed_size, quality, preset, duration_ms, input_sha256, user_agent, err
) VALUES (
  $1, $2, $3, $4, $5, $6, $7, $8, $9, $10
)
RETURNING id
`

type RecordCompressionParams struct {
	Format         string  `json:"format"`
	Outcome        string  `json:"outcome"`
	OriginalSize   int64   `json:"original_size"`
	CompressedSize *int64  `json:"compressed_size"`
	Quality        int32   `json:"quality"`
	Preset         *int32  `json:"preset"`
	DurationMs     int64   `json:"duration_ms"`
	InputSha256    string  `json:"input_sha256"`
	UserAgent      *string `json:"user_agent"`
	Err            *string `json:"err"`
}

func (q *Queries) RecordCompression(ctx context.Context, arg RecordCompressionParams) (int64, error) {
	row := q.db.QueryRow(ctx, recordCompression,
		arg.Format,
		arg.Outcome,
		arg.OriginalSize,
		arg.CompressedSize,
		arg.Quality,
		arg.Preset,
		arg.DurationMs,
		arg.InputSha256,
		arg.UserAgent,
		arg.Err,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const getCompressionStats = `-- name: GetCompressionStats :many
SELECT
  format,
  outcome,
  COUNT(*)::bigint AS count,
  COALESCE(SUM(original_size), 0)::bigint AS total_original_size,
  COALESCE(SUM(compressed_size), 0)::bigint AS total_compressed_size,
  COALESCE(AVG(duration_ms), 0)::bigint AS avg_duration_ms
FROM compressions
GROUP BY format, outcome
ORDER BY format, outcome
`

type GetCompressionStatsRow struct {
	Format              string `json:"format"`
	Outcome             string `json:"outcome"`
	Count               int64  `json:"count"`
	TotalOriginalSize   int64  `json:"total_original_size"`
	TotalCompressedSize int64  `json:"total_compressed_size"`
	AvgDurationMs       int64  `json:"avg_duration_ms"`
}

func (q *Queries) GetCompressionStats(ctx context.Context) ([]GetCompressionStatsRow, error) {
	rows, err := q.db.Query(ctx, getCompressionStats)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetCompressionStatsRow
	for rows.Next() {
		var i GetCompressionStatsRow
		if err := rows.Scan(
			&i.Format,
			&i.Outcome,
			&i.Count,
			&i.TotalOriginalSize,
			&i.TotalCompressedSize,
			&i.AvgDurationMs,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getRecentCompressions = `-- name: GetRecentCompressions :many
SELECT id, created_at, format, outcome, original_size, compressed_size, quality, preset, duration_ms, input_sha256, user_agent, err
FROM compressions
ORDER BY created_at DESC, id DESC
LIMIT $1
`

func (q *Queries) GetRecentCompressions(ctx context.Context, limit int32) ([]Compression, error) {
	rows, err := q.db.Query(ctx, getRecentCompressions, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Compression
	for rows.Next() {
		var i Compression
		if err := rows.Scan(
			&i.ID,
			&i.CreatedAt,
			&i.Format,
			&i.Outcome,
			&i.OriginalSize,
			&i.CompressedSize,
			&i.Quality,
			&i.Preset,
			&i.DurationMs,
			&i.InputSha256,
			&i.UserAgent,
			&i.Err,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteOldCompressions = `-- name: DeleteOldCompressions :execrows
DELETE FROM compressions
WHERE created_at < now() - $1::interval
`

func (q *Queries) DeleteOldCompressions(ctx context.Context, retention pgtype.Interval) (int64, error) {
	result, err := q.db.Exec(ctx, deleteOldCompressions, retention)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
