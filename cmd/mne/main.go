package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mne-tracker/internal/cache"
	"mne-tracker/internal/config"
	"mne-tracker/internal/service/catalog"
	"mne-tracker/internal/service/content"
	"mne-tracker/internal/service/contract"
	"mne-tracker/internal/service/dashboard"
	"mne-tracker/internal/service/target"
	"mne-tracker/internal/storage/mysql"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

type services struct {
	targets   *target.TargetService
	dashboard *dashboard.DashboardService
	contracts *contract.ContractService
	content   *content.ContentService
	catalog   *catalog.CatalogService
}

func main() {
	cfg := config.MustConfig()

	log := setupLogger(cfg.Env, cfg.Log.ErrorFile)

	storage, err := mysql.New(cfg.DB)
	if err != nil {
		log.Error("failed to open db", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer storage.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := storage.Ping(ctx); err != nil {
		log.Warn("db is not reachable yet", slog.String("error", err.Error()))
	}
	cancel()

	var (
		indicatorCache target.Cache  = cache.Nop{}
		contentCache   content.Cache = cache.Nop{}
	)
	if cfg.Redis.Addr != "" {
		rc := cache.NewRedisCache(cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB), cfg.Redis.Prefix, cfg.Redis.TTL)
		defer rc.Close()

		pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := rc.Ping(pingCtx); err != nil {
			log.Warn("redis is not reachable, lookups will fall through to db", slog.String("error", err.Error()))
		}
		pingCancel()

		indicatorCache, contentCache = rc, rc
		log.Info("redis cache enabled", slog.String("addr", cfg.Redis.Addr), slog.Duration("ttl", cfg.Redis.TTL))
	} else {
		log.Warn("redis addr is empty, cache disabled")
	}

	targets := target.NewTargetService(storage, indicatorCache, target.Policy{StrictMargin: cfg.Target.StrictMargin}, log)
	svc := services{
		targets:   targets,
		dashboard: dashboard.NewDashboardService(storage),
		contracts: contract.NewContractService(storage, targets, log),
		content:   content.NewContentService(storage, contentCache, log),
		catalog:   catalog.NewCatalogService(storage, targets, log),
	}

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      routes(*cfg, log, storage, svc),
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout * 3,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("server started", slog.String("address", cfg.Address), slog.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", slog.String("error", err.Error()))
	}

	log.Info("server stopped")
}

// dualHandler пишет всё в stdout, а ошибки дополнительно в файл
type dualHandler struct {
	coreHandler  slog.Handler
	errorHandler slog.Handler
}

func (h *dualHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return h.coreHandler.Enabled(ctx, lvl) || h.errorHandler.Enabled(ctx, lvl)
}

func (h *dualHandler) Handle(ctx context.Context, r slog.Record) error {
	var err error

	if h.coreHandler.Enabled(ctx, r.Level) {
		if err = h.coreHandler.Handle(ctx, r); err != nil {
			return err
		}
	}

	if r.Level >= slog.LevelError && h.errorHandler.Enabled(ctx, r.Level) {
		// файл вторичен, его ошибка не должна терять запись в stdout
		_ = h.errorHandler.Handle(ctx, r.Clone())
	}

	return err
}

func (h *dualHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &dualHandler{
		coreHandler:  h.coreHandler.WithAttrs(attrs),
		errorHandler: h.errorHandler.WithAttrs(attrs),
	}
}

func (h *dualHandler) WithGroup(name string) slog.Handler {
	return &dualHandler{
		coreHandler:  h.coreHandler.WithGroup(name),
		errorHandler: h.errorHandler.WithGroup(name),
	}
}

func setupLogger(env, errorFile string) *slog.Logger {
	level := slog.LevelDebug
	if env == envProd {
		level = slog.LevelInfo
	}

	var coreHandler slog.Handler
	switch env {
	case envDev:
		coreHandler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	default:
		coreHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	f, err := os.OpenFile(errorFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		slog.Warn("cannot open error log file", slog.String("path", errorFile), slog.String("error", err.Error()))
		return slog.New(coreHandler)
	}

	return slog.New(&dualHandler{
		coreHandler:  coreHandler,
		errorHandler: slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelError}),
	})
}
