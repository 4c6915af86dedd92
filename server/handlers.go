package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/onnwee/chatstock/archive"
	"github.com/onnwee/chatstock/db"
	"github.com/onnwee/chatstock/telemetry"
)

// runCycle is the archive entry point; a package var so tests can stub it.
var runCycle = archive.Run

// Handlers holds shared dependencies for HTTP handlers.
type Handlers struct {
	DB *sql.DB
}

func NewHandlers(dbc *sql.DB) *Handlers {
	return &Handlers{DB: dbc}
}

// HandleHealthz reports process liveness.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleReadyz reports readiness: the database must answer a ping.
func (h *Handlers) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.DB.PingContext(ctx); err != nil {
		http.Error(w, "db unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// HandleStatus returns the last cycle outcome and per-room watermarks.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	lastRun, _ := db.KVGet(ctx, h.DB, "job_archive_last")
	lastStatus, _ := db.KVGet(ctx, h.DB, "job_archive_status")

	watermarks := map[string]string{}
	rows, err := h.DB.QueryContext(ctx, `SELECT key, value FROM kv WHERE key LIKE 'lastId:%'`)
	if err == nil {
		defer rows.Close() //nolint:errcheck
		for rows.Next() {
			var k, v string
			if err := rows.Scan(&k, &v); err != nil {
				continue
			}
			watermarks[strings.TrimPrefix(k, "lastId:")] = v
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"last_run":    lastRun,
		"last_status": lastStatus,
		"watermarks":  watermarks,
	}); err != nil {
		slog.Warn("status encode failed", slog.Any("err", err))
	}
}

// HandleAdminRun triggers one archival cycle synchronously and returns its
// human-readable status string. The cycle itself never errors out; whatever
// happened is in the string.
func (h *Handlers) HandleAdminRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	telemetry.LoggerWithCorr(r.Context()).Info("manual archive run requested", slog.String("component", "http"))
	status := runCycle(r.Context(), h.DB)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(status + "\n"))
}
