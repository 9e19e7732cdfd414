package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const insertLog = `-- name: InsertLog :exec
INSERT INTO logs (
  request_method, request_path, http_status, format, outcome, message, err
) VALUES (
  $1, $2, $3, $4, $5, $6, $7
)
`

type InsertLogParams struct {
	RequestMethod *string `json:"request_method"`
	RequestPath   *string `json:"request_path"`
	HttpStatus    *int32  `json:"http_status"`
	Format        *string `json:"format"`
	Outcome       *string `json:"outcome"`
	Message       *string `json:"message"`
	Err           *string `json:"err"`
}

func (q *Queries) InsertLog(ctx context.Context, arg InsertLogParams) error {
	_, err := q.db.Exec(ctx, insertLog,
		arg.RequestMethod,
		arg.RequestPath,
		arg.HttpStatus,
		arg.Format,
		arg.Outcome,
		arg.Message,
		arg.Err,
	)
	return err
}

const getRecentLogs = `-- name: GetRecentLogs :many
SELECT id, created_at, request_method, request_path, http_status, format, outcome, message, err
FROM logs
ORDER BY created_at DESC, id DESC
LIMIT $1
`

func (q *Queries) GetRecentLogs(ctx context.Context, limit int32) ([]Log, error) {
	rows, err := q.db.Query(ctx, getRecentLogs, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLogs(rows)
}

const getRecentLogsPaginated = `-- name: GetRecentLogsPaginated :many
SELECT id, created_at, request_method, request_path, http_status, format, outcome, message, err
FROM logs
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2
`

type GetRecentLogsPaginatedParams struct {
	Limit  int32 `json:"limit"`
	Offset int32 `json:"offset"`
}

func (q *Queries) GetRecentLogsPaginated(ctx context.Context, arg GetRecentLogsPaginatedParams) ([]Log, error) {
	rows, err := q.db.Query(ctx, getRecentLogsPaginated, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLogs(rows)
}

const countLogs = `-- name: CountLogs :one
SELECT COUNT(*) FROM logs
`

func (q *Queries) CountLogs(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, countLogs)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const deleteOldLogs = `-- name: DeleteOldLogs :execrows
DELETE FROM logs
WHERE created_at < now() - $1::interval
`

func (q *Queries) DeleteOldLogs(ctx context.Context, retention pgtype.Interval) (int64, error) {
	result, err := q.db.Exec(ctx, deleteOldLogs, retention)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

type logRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanLogs(rows logRows) ([]Log, error) {
	var items []Log
	for rows.Next() {
		var i Log
		if err := rows.Scan(
			&i.ID,
			&i.CreatedAt,
			&i.RequestMethod,
			&i.RequestPath,
			&i.HttpStatus,
			&i.Format,
			&i.Outcome,
			&i.Message,
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
