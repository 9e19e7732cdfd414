package slogdb

import (
	"context"
	"log/slog"
	"sync"

	"chimbori.dev/squeeze/db"
)

// DBHandler is a slog.Handler that writes error-level logs to the PostgreSQL `logs` table,
// so failed compressions can be reviewed from the dashboard.
// It wraps another handler to maintain normal console/file logging.
type DBHandler struct {
	parent slog.Handler
	conn   db.DBTX
	attrs  []slog.Attr // Added via WithAttrs; the parent keeps its own copy for formatting.
	mu     *sync.Mutex
}

// NewDBHandler creates a new database logging handler that wraps the parent handler.
// Only ERROR level logs are written to the database; all logs are passed to the parent.
func NewDBHandler(parent slog.Handler, conn db.DBTX) *DBHandler {
	return &DBHandler{
		parent: parent,
		conn:   conn,
		mu:     &sync.Mutex{},
	}
}

// Enabled reports whether the handler handles records at the given level. It delegates to the parent handler.
func (h *DBHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.parent.Enabled(ctx, level)
}

// Handle writes error-level logs to the database, then delegates to the parent handler.
func (h *DBHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		h.writeToDatabase(ctx, r)
	}
	// Always pass through to the parent handler for console/file logging
	return h.parent.Handle(ctx, r)
}

// WithAttrs returns a new handler with the given attributes added.
func (h *DBHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &DBHandler{
		parent: h.parent.WithAttrs(attrs),
		conn:   h.conn,
		attrs:  append(h.attrs[:len(h.attrs):len(h.attrs)], attrs...),
		mu:     h.mu,
	}
}

// WithGroup returns a new handler with the given group added.
// Grouped attributes are not mapped to columns, since their keys no longer match.
func (h *DBHandler) WithGroup(name string) slog.Handler {
	return &DBHandler{
		parent: h.parent.WithGroup(name),
		conn:   h.conn,
		attrs:  h.attrs,
		mu:     h.mu,
	}
}

// writeToDatabase extracts relevant information from the log record and writes it to the `logs` table.
func (h *DBHandler) writeToDatabase(ctx context.Context, r slog.Record) {
	h.mu.Lock()
	defer h.mu.Unlock()

	message := r.Message
	params := db.InsertLogParams{Message: &message}
	for _, a := range h.attrs {
		collect(&params, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		collect(&params, a)
		return true
	})

	// Use context.Background() to avoid cancellation issues during shutdown
	err := db.New(h.conn).InsertLog(context.Background(), params)
	// If we fail to write to the database, log it to the parent handler,
	// but don’t propagate the error to avoid infinite loops.
	if err != nil {
		_ = h.parent.Handle(ctx, slog.NewRecord(r.Time, slog.LevelWarn, "Failed to write log to database", r.PC))
	}
}

// collect maps well-known attribute keys onto columns of the `logs` table.
func collect(params *db.InsertLogParams, a slog.Attr) {
	a.Value = a.Value.Resolve()
	switch a.Key {
	case "err":
		params.Err = nonEmpty(a.Value.String())
	case "method":
		params.RequestMethod = nonEmpty(a.Value.String())
	case "path":
		params.RequestPath = nonEmpty(a.Value.String())
	case "format":
		params.Format = nonEmpty(a.Value.String())
	case "outcome":
		params.Outcome = nonEmpty(a.Value.String())
	case "status":
		var i int32
		switch a.Value.Kind() {
		case slog.KindInt64:
			i = int32(a.Value.Int64())
		case slog.KindUint64:
			i = int32(a.Value.Uint64())
		default:
			return
		}
		params.HttpStatus = &i
	}
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
