package dashboard

import (
	"log/slog"
	"net/http"
	"strconv"

	"chimbori.dev/squeeze/conf"
	"chimbori.dev/squeeze/db"
	"github.com/lmittmann/tint"
)

type logsPage struct {
	Page       int      `json:"page"`
	PageSize   int      `json:"page_size"`
	TotalCount int64    `json:"total_count"`
	TotalPages int64    `json:"total_pages"`
	Logs       []db.Log `json:"logs"`
}

// GET /dashboard/logs/data?page={page}
func logsDataHandler(w http.ResponseWriter, req *http.Request) {
	page := 1
	if pageStr := req.URL.Query().Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}

	// Fetch total count for pagination
	totalCount, err := store.CountLogs(req.Context())
	if err != nil {
		slog.Error("failed to count logs", tint.Err(err),
			"method", req.Method,
			"path", req.URL.Path,
			"status", http.StatusInternalServerError)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Fetch paginated items
	limit := conf.Config.Logs.Pagination.Limit
	if limit <= 0 {
		limit = 50
	}
	logs, err := store.GetRecentLogsPaginated(req.Context(), db.GetRecentLogsPaginatedParams{
		Limit:  int32(limit),
		Offset: int32((page - 1) * limit),
	})
	if err != nil {
		slog.Error("failed to fetch logs", tint.Err(err),
			"method", req.Method,
			"path", req.URL.Path,
			"status", http.StatusInternalServerError)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if logs == nil {
		logs = []db.Log{}
	}

	writeJSON(w, req, logsPage{
		Page:       page,
		PageSize:   limit,
		TotalCount: totalCount,
		TotalPages: (totalCount + int64(limit) - 1) / int64(limit),
		Logs:       logs,
	})
}
