package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/gridcmd/internal/catalog"
	"github.com/gyaneshwarpardhi/gridcmd/internal/command"
	"github.com/gyaneshwarpardhi/gridcmd/internal/config"
	"github.com/gyaneshwarpardhi/gridcmd/internal/dispatch"
	"github.com/gyaneshwarpardhi/gridcmd/internal/executor"
	"github.com/gyaneshwarpardhi/gridcmd/internal/interpolate"
	"github.com/gyaneshwarpardhi/gridcmd/internal/resolver"
)

// Handler holds all HTTP handler dependencies.
type Handler struct {
	store    *config.Store
	loader   *config.Loader
	catalog  *catalog.Catalog
	resolver *resolver.Resolver
	exec     *executor.Executor
	mux      *http.ServeMux
}

// New creates an HTTP handler and registers all routes. loader may be nil
// when the document is not file-backed (reload then returns 409).
func New(store *config.Store, loader *config.Loader, cat *catalog.Catalog, res *resolver.Resolver, exec *executor.Executor) http.Handler {
	h := &Handler{store: store, loader: loader, catalog: cat, resolver: res, exec: exec, mux: http.NewServeMux()}

	h.mux.HandleFunc("GET /v1/commands", h.listCommands)
	h.mux.HandleFunc("POST /v1/commands/{key}/execute", h.executeCommand)
	h.mux.HandleFunc("GET /v1/config", h.getConfig)
	h.mux.HandleFunc("POST /v1/config/reload", h.reloadConfig)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

// commandView is the rendering-layer shape of one resolved command.
type commandView struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	IconName    string `json:"iconName,omitempty"`
	Group       string `json:"group"`
	Enabled     bool   `json:"enabled"`
	KeyShortcut string `json:"keyShortcut,omitempty"`
}

// GET /v1/commands?recordType=account&capabilities=read,update
func (h *Handler) listCommands(w http.ResponseWriter, r *http.Request) {
	recordType := r.URL.Query().Get("recordType")
	if recordType == "" {
		respondError(w, http.StatusBadRequest, "recordType is required")
		return
	}
	caps := command.NewCapabilitySet(strings.Split(r.URL.Query().Get("capabilities"), ",")...)

	rc := h.store.Resolve(recordType)
	cmds := h.resolver.Resolve(recordType, caps)

	views := make([]commandView, 0, len(cmds))
	for _, c := range cmds {
		views = append(views, commandView{
			Key:         c.Key,
			Label:       c.Label,
			IconName:    c.IconName,
			Group:       string(c.Group),
			Enabled:     c.Enabled,
			KeyShortcut: c.KeyShortcut,
		})
	}
	respond(w, http.StatusOK, map[string]interface{}{
		"recordType":     strings.ToLower(recordType),
		"viewHint":       rc.ViewHint,
		"toolbarDensity": rc.ToolbarDensity,
		"commands":       views,
	})
}

// executeRequest is the execution context as supplied by the host UI.
type executeRequest struct {
	RecordTypeName  string              `json:"recordTypeName"`
	SelectedRecords []command.RecordRef `json:"selectedRecords"`
	Capabilities    []string            `json:"capabilities"`
	ParentRecord    *command.RecordRef  `json:"parentRecord"`
	Confirmed       bool                `json:"confirmed"`
}

// POST /v1/commands/{key}/execute
func (h *Handler) executeCommand(w http.ResponseWriter, r *http.Request) {
	key := strings.ToLower(r.PathValue("key"))

	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON: %s", err)
		return
	}
	if req.RecordTypeName == "" {
		respondError(w, http.StatusBadRequest, "recordTypeName is required")
		return
	}

	caps := command.NewCapabilitySet(req.Capabilities...)
	var cmd *resolver.Command
	for _, c := range h.resolver.Resolve(req.RecordTypeName, caps) {
		if c.Key == key {
			cmd = c
			break
		}
	}
	if cmd == nil {
		respondError(w, http.StatusNotFound, "command %q not available for record type %q (built-ins: %s)",
			key, req.RecordTypeName, strings.Join(h.catalog.Keys(), ", "))
		return
	}

	invocationID := uuid.New().String()
	ec := &command.ExecutionContext{
		SelectedRecords: req.SelectedRecords,
		RecordTypeName:  strings.ToLower(req.RecordTypeName),
		Capabilities:    caps,
		ParentRecord:    req.ParentRecord,
		Refresh: func() {
			slog.Info("refresh signalled", "invocation", invocationID, "command", key)
		},
	}

	// The confirmation step over HTTP: the first call reports the message,
	// the client retries with confirmed=true. Arity is checked first so an
	// invocation that can only fail is never offered a prompt.
	if cmd.ConfirmationMessage != "" && !req.Confirmed {
		if err := executor.Validate(cmd, ec); err != nil {
			respondError(w, http.StatusUnprocessableEntity, "%s", err)
			return
		}
		respond(w, http.StatusOK, map[string]interface{}{
			"key":                  key,
			"executed":             false,
			"confirmationRequired": interpolate.Expand(cmd.ConfirmationMessage, ec),
		})
		return
	}

	res, err := h.exec.Execute(r.Context(), cmd, ec)
	if err != nil {
		var vErr *command.ValidationError
		var bErr *command.BusyError
		var dErr *dispatch.Error
		switch {
		case errors.As(err, &vErr):
			respondError(w, http.StatusUnprocessableEntity, "%s", vErr)
		case errors.As(err, &bErr):
			respondError(w, http.StatusConflict, "%s", bErr)
		case errors.As(err, &dErr):
			respondError(w, http.StatusBadGateway, "%s", dErr)
		default:
			respondError(w, http.StatusInternalServerError, "%s", err)
		}
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{
		"key":        res.Key,
		"executed":   !res.Canceled,
		"canceled":   res.Canceled,
		"message":    res.Message,
		"refreshed":  res.Refreshed,
		"invocation": invocationID,
	})
}

// GET /v1/config — the loaded document.
func (h *Handler) getConfig(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, h.store.Document())
}

// POST /v1/config/reload — re-read the document from disk.
func (h *Handler) reloadConfig(w http.ResponseWriter, r *http.Request) {
	if h.loader == nil {
		respondError(w, http.StatusConflict, "document is not file-backed")
		return
	}
	if err := h.loader.Reload(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "%s", err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"reloaded": true})
}

// GET /healthz — always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

// respond writes v as the JSON body with the given status.
func respond(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError writes the error envelope shared by all routes.
func respondError(w http.ResponseWriter, status int, format string, args ...interface{}) {
	respond(w, status, map[string]string{"error": fmt.Sprintf(format, args...)})
}

// loggingMiddleware logs each request with method, path, status and latency.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
