package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"queueboard/frontend/login"
	"queueboard/frontend/officer"
	"queueboard/infrastructure/audit"
	"queueboard/infrastructure/cache"
	"queueboard/infrastructure/config"
	httpserver "queueboard/infrastructure/http"
	"queueboard/infrastructure/queueapi"
	"queueboard/infrastructure/queuestate"
	"queueboard/infrastructure/rbac"
	"queueboard/infrastructure/sqlite"
	"queueboard/infrastructure/telemetry"
)

const sessionPurgeInterval = time.Hour

func main() {
	cfg := config.Load()

	shutdownTracing := telemetry.Setup("queueboard")
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			slog.Warn("tracer shutdown failed", slog.Any("err", err))
		}
	}()

	db, err := sqlite.OpenDB(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := sqlite.ApplyEmbeddedMigrations(context.Background(), db); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	if cfg.WebsocketURL != "" {
		slog.Info("QMS_WEBSOCKET_URL is set but push updates are not used; polling instead")
	}
	if cfg.OutletID == "" {
		slog.Warn("QMS_OUTLET_ID is empty; the status board has no outlet to show")
	}

	api := queueapi.New(queueapi.Options{
		BaseURL:  cfg.APIBaseURL,
		Timeout:  cfg.APITimeout,
		OutletID: cfg.OutletID,
		APIToken: cfg.APIToken,
		WaitUnit: cfg.WaitUnit,
	})

	board := queuestate.NewStore(api, queuestate.Options{OutletID: cfg.OutletID})
	if cfg.OutletID != "" {
		board.StartOutletUpdates(cfg.OutletID, cfg.BoardPollInterval)
	}
	board.StartAnalyticsUpdates(cfg.AnalyticsPollInterval)

	viewers := cache.NewViewerRegistry(func() *queuestate.Store {
		return queuestate.NewStore(api, queuestate.Options{OutletID: cfg.OutletID, TokenInterval: cfg.TokenPollInterval})
	}, cfg.ViewerIdleTimeout, cfg.MaxViewers)
	viewers.StartSweeper(time.Minute)

	purger := queuestate.NewPoller(sessionPurgeInterval, func(ctx context.Context) {
		n, err := login.PurgeExpiredSessions(ctx, db)
		if err != nil {
			slog.Error("purge expired sessions failed", slog.Any("err", err))
			return
		}
		if n > 0 {
			slog.Info("purged expired sessions", slog.Int64("count", n))
		}
	})
	purger.Start()

	officer.RefreshSeconds = int(cfg.OfficerPollInterval.Seconds())

	rbacCache := cache.NewRbacRolesCache()
	server := httpserver.NewServer(cfg.Addr, httpserver.Deps{
		DB:           db,
		API:          api,
		Board:        board,
		Viewers:      viewers,
		SessionCache: cache.NewOfficerSessionCache(),
		RbacCache:    rbacCache,
		Rbac:         rbac.New(rbacCache),
		Audit:        audit.NewService(),
		OutletID:     cfg.OutletID,
	})
	if err := server.Start(); err != nil {
		log.Fatalf("start server: %v", err)
	}
	slog.Info("queueboard listening",
		slog.String("addr", cfg.Addr),
		slog.String("api", cfg.APIBaseURL),
		slog.String("outlet", cfg.OutletID))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	purger.Stop()
	viewers.Close()
	board.Close()
	if err := server.Stop(); err != nil {
		slog.Error("graceful shutdown error", slog.Any("err", err))
	}
}
