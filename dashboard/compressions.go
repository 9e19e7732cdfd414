package dashboard

import (
	"log/slog"
	"net/http"
	"strconv"

	"chimbori.dev/squeeze/db"
	"github.com/dustin/go-humanize"
	"github.com/lmittmann/tint"
)

const maxCompressionsLimit = 500

// formatStats aggregates all outcomes recorded for one image format.
type formatStats struct {
	Format         string                      `json:"format"`
	Count          int64                       `json:"count"`
	BytesIn        int64                       `json:"bytes_in"`
	BytesOut       int64                       `json:"bytes_out"`
	BytesSaved     int64                       `json:"bytes_saved"`
	HumanSaved     string                      `json:"human_saved"`
	Outcomes       []db.GetCompressionStatsRow `json:"outcomes"`
	CompressedRate float64                     `json:"compressed_rate"`
}

// GET /dashboard/stats
func statsHandler(w http.ResponseWriter, req *http.Request) {
	rows, err := store.GetCompressionStats(req.Context())
	if err != nil {
		slog.Error("failed to fetch compression stats", tint.Err(err),
			"method", req.Method,
			"path", req.URL.Path,
			"status", http.StatusInternalServerError)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, req, summarize(rows))
}

// summarize groups per-outcome rows by format. Savings only count successful compressions,
// since no output is returned for any other outcome.
func summarize(rows []db.GetCompressionStatsRow) []formatStats {
	var stats []formatStats
	index := map[string]int{}
	for _, row := range rows {
		i, ok := index[row.Format]
		if !ok {
			i = len(stats)
			index[row.Format] = i
			stats = append(stats, formatStats{Format: row.Format, Outcomes: []db.GetCompressionStatsRow{}})
		}
		s := &stats[i]
		s.Count += row.Count
		s.Outcomes = append(s.Outcomes, row)
		if row.Outcome == "compressed" {
			s.BytesIn += row.TotalOriginalSize
			s.BytesOut += row.TotalCompressedSize
		}
	}
	for i := range stats {
		s := &stats[i]
		s.BytesSaved = s.BytesIn - s.BytesOut
		s.HumanSaved = humanize.IBytes(uint64(max(s.BytesSaved, 0)))
		for _, row := range s.Outcomes {
			if row.Outcome == "compressed" && s.Count > 0 {
				s.CompressedRate = float64(row.Count) / float64(s.Count)
			}
		}
	}
	if stats == nil {
		stats = []formatStats{}
	}
	return stats
}

// GET /dashboard/compressions?limit={limit}
func compressionsHandler(w http.ResponseWriter, req *http.Request) {
	limit := 50
	if limitStr := req.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = min(l, maxCompressionsLimit)
		}
	}

	compressions, err := store.GetRecentCompressions(req.Context(), int32(limit))
	if err != nil {
		slog.Error("failed to fetch compressions", tint.Err(err),
			"method", req.Method,
			"path", req.URL.Path,
			"status", http.StatusInternalServerError)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if compressions == nil {
		compressions = []db.Compression{}
	}
	writeJSON(w, req, compressions)
}
