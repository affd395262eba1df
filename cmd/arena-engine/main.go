package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/park285/Baduk-Arena-Engine/internal/broadcast"
	appcfg "github.com/park285/Baduk-Arena-Engine/internal/config"
	"github.com/park285/Baduk-Arena-Engine/internal/engine"
	"github.com/park285/Baduk-Arena-Engine/internal/gateway"
	"github.com/park285/Baduk-Arena-Engine/internal/msgcat"
	"github.com/park285/Baduk-Arena-Engine/internal/obslog"
	"github.com/park285/Baduk-Arena-Engine/internal/repository"
	"github.com/park285/Baduk-Arena-Engine/internal/reward"
	"github.com/park285/Baduk-Arena-Engine/internal/store"
	"github.com/park285/Baduk-Arena-Engine/internal/tick"
)

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()

	cfg, err := appcfg.Load()
	if err != nil {
		logger.Fatal("config_error", zap.Error(err))
	}

	cat, err := msgcat.New(messageOverrideDir(cfg.MessageLocale))
	if err != nil {
		logger.Fatal("msgcat_error", zap.Error(err))
	}

	sessions, err := store.Open(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis_error", zap.Error(err))
	}
	defer sessions.Close()

	// Result sinks are optional: the engine runs fine as a pure live
	// engine, archiving and rewards only happen when configured.
	var sinks engine.MultiSink
	var repo *repository.Repository
	if cfg.DatabaseURL != "" {
		repo, err = repository.New(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("postgres_error", zap.Error(err))
		}
		defer repo.Close()
		sinks = append(sinks, repo)
	}
	if cfg.RewardURL != "" {
		sinks = append(sinks, reward.NewNotifier(cfg.RewardURL))
	}

	hub := gateway.NewHub()
	pubs := []broadcast.Publisher{hub}
	if cfg.NATSURL != "" {
		nc, err := broadcast.ConnectNATS(cfg.NATSURL)
		if err != nil {
			logger.Fatal("nats_error", zap.Error(err))
		}
		defer nc.Close()
		pubs = append(pubs, nc)
	}

	mgr := engine.NewManager(sessions, sinks, broadcast.Tee(pubs...))
	mgr.SetCapacity(cfg.MaxSessions)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := mgr.Restore(ctx); err != nil {
		logger.Fatal("restore_error", zap.Error(err))
	}

	driver := tick.New(mgr, time.Duration(cfg.TickIntervalMS)*time.Millisecond)
	go driver.Run(ctx)

	srv := gateway.NewServer(cfg.ListenAddr, mgr, hub, cat)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info("engine_start",
		zap.String("listen_addr", cfg.ListenAddr),
		zap.Int("tick_interval_ms", cfg.TickIntervalMS),
		zap.Int("max_sessions", cfg.MaxSessions),
		zap.Bool("archive", repo != nil),
		zap.Bool("nats", cfg.NATSURL != ""),
	)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen_error", zap.Error(err))
		}
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		logger.Warn("shutdown_error", zap.Error(err))
	}
	logger.Info("engine_stop")
}

// messageOverrideDir lets operators drop per-locale template overrides
// under messages/<locale>/ next to the binary.
func messageOverrideDir(locale string) string {
	dir := filepath.Join("messages", locale)
	if st, err := os.Stat(dir); err == nil && st.IsDir() {
		return dir
	}
	return ""
}
