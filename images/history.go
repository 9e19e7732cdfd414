package images

import (
	"context"
	"log/slog"
	"time"

	"chimbori.dev/squeeze/conf"
	"chimbori.dev/squeeze/db"
	"chimbori.dev/squeeze/imgcompress"
	"github.com/lmittmann/tint"
)

// HistoryStore persists one row per compression; *db.Queries implements it.
type HistoryStore interface {
	RecordCompression(ctx context.Context, arg db.RecordCompressionParams) (int64, error)
}

// History is nil when no database is configured or history is disabled.
var History HistoryStore

// InitHistory enables history when a database is connected & history is turned on.
func InitHistory() {
	if db.Enabled() && conf.Config.History.Enabled != nil && *conf.Config.History.Enabled {
		History = db.New(db.Pool)
	}
}

func historyParams(outcome imgcompress.Outcome, req imgcompress.Request, digest, userAgent string, elapsed time.Duration) db.RecordCompressionParams {
	params := db.RecordCompressionParams{
		Format:       outcome.Format.String(),
		Outcome:      outcome.Kind.String(),
		OriginalSize: int64(outcome.OriginalSize),
		Quality:      int32(req.Quality),
		DurationMs:   elapsed.Milliseconds(),
		InputSha256:  digest,
		UserAgent:    &userAgent,
	}
	if outcome.Size > 0 {
		size := int64(outcome.Size)
		params.CompressedSize = &size
	}
	if req.Preset != imgcompress.PresetUnset {
		preset := int32(req.Preset)
		params.Preset = &preset
	}
	if outcome.Err != nil {
		msg := outcome.Err.Error()
		params.Err = &msg
	}
	return params
}

func recordCompression(outcome imgcompress.Outcome, req imgcompress.Request, digest, userAgent string, elapsed time.Duration) {
	if History == nil {
		return
	}
	// Use context.Background() so a client disconnecting does not drop the record.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := History.RecordCompression(ctx, historyParams(outcome, req, digest, userAgent, elapsed)); err != nil {
		slog.Error("failed to record compression", tint.Err(err),
			"format", outcome.Format.String(),
			"outcome", outcome.Kind.String())
	}
}
