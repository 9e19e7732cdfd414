package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"chimbori.dev/squeeze/conf"
	"chimbori.dev/squeeze/core"
	"chimbori.dev/squeeze/db"
	"chimbori.dev/squeeze/images"
	"github.com/justinas/alice"
	"github.com/lmittmann/tint"
)

var sessionStore = core.NewInMemorySessionStore(24 * time.Hour)

const sessionCookieName = "squeeze_session"

// Store is the subset of [db.Queries] read by the dashboard.
type Store interface {
	GetCompressionStats(ctx context.Context) ([]db.GetCompressionStatsRow, error)
	GetRecentCompressions(ctx context.Context, limit int32) ([]db.Compression, error)
	CountLogs(ctx context.Context) (int64, error)
	GetRecentLogsPaginated(ctx context.Context, arg db.GetRecentLogsPaginatedParams) ([]db.Log, error)
}

// store is nil when no database is configured.
var store Store

func Init(mux *http.ServeMux) {
	if db.Enabled() {
		store = db.New(db.Pool)
	}

	chain := alice.New(core.GzipHandler, authHandler)

	mux.Handle("GET /dashboard", chain.ThenFunc(homeHandler))
	mux.Handle("DELETE /dashboard/session", chain.ThenFunc(logoutHandler))
	mux.Handle("GET /dashboard/stats", chain.Append(requireStore).ThenFunc(statsHandler))
	mux.Handle("GET /dashboard/compressions", chain.Append(requireStore).ThenFunc(compressionsHandler))
	mux.Handle("GET /dashboard/logs/data", chain.Append(requireStore).ThenFunc(logsDataHandler))
}

// GET /dashboard
func homeHandler(w http.ResponseWriter, req *http.Request) {
	status := struct {
		App            string `json:"app"`
		BuildTimestamp string `json:"build_timestamp"`
		Workers        int    `json:"workers"`
		CacheEnabled   bool   `json:"cache_enabled"`
		HistoryEnabled bool   `json:"history_enabled"`
		JPEGEncoder    string `json:"jpeg_encoder"`
		WebPEncoder    string `json:"webp_encoder"`
	}{
		App:            conf.AppName,
		BuildTimestamp: conf.BuildTimestamp,
		CacheEnabled:   images.Cache != nil,
		HistoryEnabled: images.History != nil,
		JPEGEncoder:    conf.Config.Compression.JPEG.Encoder,
		WebPEncoder:    conf.Config.Compression.WebP.Encoder,
	}
	if images.Pool != nil {
		status.Workers = images.Pool.Size()
	}
	writeJSON(w, req, status)
}

// DELETE /dashboard/session
func logoutHandler(w http.ResponseWriter, req *http.Request) {
	if cookie, err := req.Cookie(sessionCookieName); err == nil {
		sessionStore.Delete(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Checks whether the user is authorized, and either returns an error, or executes the passed [http.Handler].
func authHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if cookie, err := req.Cookie(sessionCookieName); err == nil {
			if sessionStore.IsValid(cookie.Value) {
				next.ServeHTTP(w, req)
				return
			}
		}

		reqUsername, reqPassword, ok := req.BasicAuth()
		if !ok || conf.Config.Dashboard.Username == "" || reqUsername != conf.Config.Dashboard.Username {
			slog.Warn("no credentials provided", tint.Err(fmt.Errorf("no credentials (from: %s)", core.ReadUserIP(req))),
				"method", req.Method,
				"path", req.URL.Path,
				"status", http.StatusUnauthorized)
			w.Header().Add("WWW-Authenticate", fmt.Sprintf(`Basic realm="%s"`, conf.AppName))
			http.Error(w, "Please provide valid credentials to access this section.", http.StatusUnauthorized)
			return
		}

		if !core.CheckPassword(conf.Config.Dashboard.Password, reqPassword) {
			slog.Error("invalid credentials provided", tint.Err(fmt.Errorf("invalid credentials (from: %s)", core.ReadUserIP(req))),
				"method", req.Method,
				"path", req.URL.Path,
				"status", http.StatusUnauthorized)
			http.Error(w, "Please provide valid credentials to access this section.", http.StatusUnauthorized)
			return
		}

		sessionID, err := sessionStore.Create(reqUsername)
		if err == nil {
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookieName,
				Value:    sessionID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				MaxAge:   int((24 * time.Hour).Seconds()),
			})
		} else {
			slog.Error("failed to create session", tint.Err(err))
		}

		next.ServeHTTP(w, req)
	})
}

// requireStore rejects requests for history when no database is configured.
func requireStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if store == nil {
			http.Error(w, "No database configured", http.StatusServiceUnavailable)
			return
		}
		next.ServeHTTP(w, req)
	})
}

func writeJSON(w http.ResponseWriter, req *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write JSON", tint.Err(err),
			"method", req.Method,
			"path", req.URL.Path)
	}
}

func CleanupExpiredSessions() int {
	return sessionStore.CleanupExpired()
}
