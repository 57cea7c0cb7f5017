package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lsfd/config"
	"lsfd/internal/app/router"
	historymod "lsfd/internal/module/history"
	lsbatchmod "lsfd/internal/module/lsbatch"
	submitmod "lsfd/internal/module/submit"
	usermod "lsfd/internal/module/user"
	condac "lsfd/internal/pkg/client/conda"
	"lsfd/internal/pkg/client/jobstore"
	ldapc "lsfd/internal/pkg/client/ldap"
	lsbatchc "lsfd/internal/pkg/client/lsbatch"
	statussync "lsfd/internal/pkg/sync"

	docs "lsfd/internal/app/docs"

	kingpin "github.com/alecthomas/kingpin/v2"
	"github.com/prometheus/common/promslog"
	promslogflag "github.com/prometheus/common/promslog/flag"
	"github.com/prometheus/common/version"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           LSFD
// @version         0.0.1-alpha
// @description     LSF Batch Submission Daemon
// @schema			http
// @BasePath        /api/v1
func main() {
	// CLI flags
	var (
		addrFlag        = kingpin.Flag("addr", "Server listen address (e.g. :8080 or 127.0.0.1:8080)").Default(":8080").Envar("LSFD_ADDR").String()
		shutdownTimeout = kingpin.Flag("shutdown-timeout", "Graceful shutdown timeout (e.g. 10s)").Default("10s").Envar("LSFD_SHUTDOWN_TIMEOUT").String()
		configFile      = kingpin.Flag("config", "Path to YAML config file").Short('c').Default("config.yaml").Envar("LSFD_CONFIG").String()
	)
	promslogConfig := &promslog.Config{}
	promslogflag.AddFlags(kingpin.CommandLine, promslogConfig)
	kingpin.Version(version.Print("lsfd"))
	kingpin.HelpFlag.Short('h')
	kingpin.Parse()

	logger := promslog.New(promslogConfig)
	slog.SetDefault(logger)

	// Load config
	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("failed to load config", slog.String("path", *configFile), slog.Any("err", err))
		os.Exit(1)
	}

	// Init jobstore client and set as default
	store, err := jobstore.New(cfg.Server.Jobstore, logger)
	if err != nil {
		logger.Error("failed to initialize jobstore client", slog.Any("err", err))
		os.Exit(1)
	}
	jobstore.SetDefault(store)

	// Init LDAP client and set as default
	lcli, err := ldapc.New(cfg.Server.LDAP)
	if err != nil {
		logger.Error("failed to initialize ldap client", slog.Any("err", err))
		os.Exit(1)
	}
	ldapc.SetDefault(lcli)

	// Init LSF batch and conda clients
	bcli := lsbatchc.New(cfg.Server.LSF, logger)
	lsbatchc.SetDefault(bcli)
	condac.SetDefault(condac.New(logger))

	// Submission defaults, hot-reloaded from the config file
	submitmod.Configure(cfg.Server.Submit)
	watcher := config.NewWatcher(*configFile, cfg, logger)
	watcher.OnUpdate(func(c *config.Config) {
		submitmod.Configure(c.Server.Submit)
	})
	watchCtx, cancelWatch := context.WithCancel(context.Background())
	defer cancelWatch()
	go func() {
		if err := watcher.Watch(watchCtx); err != nil {
			logger.Warn("config watcher stopped", slog.Any("err", err))
		}
	}()

	// Periodic job-status refresh
	var syncer *statussync.Service
	if cfg.Server.Sync.Enabled {
		schedule := cfg.Server.Sync.Schedule
		if schedule == "" {
			schedule = "@every 1m"
		}
		syncer = statussync.New(store, bcli, logger)
		if err := syncer.Start(schedule); err != nil {
			logger.Error("failed to start status sync", slog.Any("err", err))
			os.Exit(1)
		}
	}

	// Build router
	r := router.New()
	docs.SwaggerInfo.BasePath = "/api/v1"
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.Register(
		submitmod.Router{},
		lsbatchmod.Router{},
		historymod.Router{},
		usermod.Router{},
	)
	router.MountAll(r)

	addr := *addrFlag

	// HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in background
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("server failed", slog.Any("err", err))
			os.Exit(1)
		}
	case <-quit:
		// proceed to shutdown
	}
	logger.Info("shutting down server...")

	// Parse shutdown timeout
	to, err := time.ParseDuration(*shutdownTimeout)
	if err != nil || to <= 0 {
		to = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), to)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", slog.Any("err", err))
	}

	cancelWatch()
	if syncer != nil {
		syncer.Stop()
	}
	if store != nil {
		_ = store.Close()
	}
	if lcli != nil {
		lcli.Close()
	}
	logger.Info("server exiting")
}
