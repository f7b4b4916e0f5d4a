package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"submissions/internal/app"
	"submissions/internal/config"
	"submissions/internal/logger"
	"submissions/internal/metrics"
	"submissions/internal/response"
	"submissions/internal/server"
)

func main() {
	_, thisFile, _, _ := runtime.Caller(0)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to read configuration: " + err.Error())
		os.Exit(1)
	}

	err = logger.SetupSLog(cfg.LogLevel, cfg.LogFormat, path.Dir(path.Dir(path.Dir(thisFile))), middleware.RequestIDKey)
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}

	ctx := context.Background()

	a, err := app.New(ctx, cfg, slog.Default())
	if err != nil {
		slog.Error("Failed to set up storage: " + err.Error())
		os.Exit(1)
	}

	if err := a.Migrate(ctx); err != nil {
		slog.Error("Failed to create tables: " + err.Error())
		os.Exit(1)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(metrics.Middleware)

	r.Handle("/metrics", promhttp.Handler())
	r.Mount("/api", server.Handler(
		a.Contexts,
		a.Genres,
		&response.Responder{DebugMode: cfg.DebugMode},
	))

	slog.Info("Listening", slog.String("addr", cfg.BindAddr))
	slog.Error("aborting: " + http.ListenAndServe(cfg.BindAddr, r).Error())
	os.Exit(1)
}
