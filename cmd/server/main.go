package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gyaneshwarpardhi/gridcmd/internal/api"
	"github.com/gyaneshwarpardhi/gridcmd/internal/catalog"
	"github.com/gyaneshwarpardhi/gridcmd/internal/config"
	"github.com/gyaneshwarpardhi/gridcmd/internal/dispatch"
	"github.com/gyaneshwarpardhi/gridcmd/internal/dispatch/webapi"
	"github.com/gyaneshwarpardhi/gridcmd/internal/executor"
	"github.com/gyaneshwarpardhi/gridcmd/internal/resolver"
)

func main() {
	settingsPath := flag.String("settings", "configs/settings.yaml", "Path to server settings YAML")
	addr := flag.String("addr", "", "HTTP listen address (overrides settings)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// ── Settings ─────────────────────────────────────────────────────────────
	settings, err := config.LoadSettings(*settingsPath)
	if err != nil {
		slog.Error("failed to load settings", "err", err)
		os.Exit(1)
	}
	if *addr != "" {
		settings.Addr = *addr
	}

	// ── Command document ─────────────────────────────────────────────────────
	store := config.NewStore()
	loader, err := config.NewLoader(settings.CommandDocument, store)
	if err != nil {
		slog.Error("failed to load command document", "err", err)
		os.Exit(1)
	}
	slog.Info("command document loaded", "path", settings.CommandDocument,
		"types", len(store.Document().TypeConfigs))

	// ── Engine wiring ─────────────────────────────────────────────────────────
	backend := webapi.New(settings.BackendBaseURL, time.Duration(settings.BackendTimeoutMs)*time.Millisecond)
	cat := catalog.New(backend)
	slog.Info("catalog ready", "builtins", cat.Keys())
	res := resolver.New(store, cat)
	disp := dispatch.New(backend)
	exec := executor.New(disp, nil) // confirmation handled at the API layer

	// ── Hot-reload watcher ────────────────────────────────────────────────────
	loader.OnChange(func() {
		slog.Info("command document hot-reloaded",
			"types", len(store.Document().TypeConfigs))
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("document watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.New(store, loader, cat, res, exec)
	srv := &http.Server{
		Addr:         settings.Addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", settings.Addr, "backend", settings.BackendBaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	slog.Info("goodbye")
}
