package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dealdesk-io/dealdesk/internal/api"
	"github.com/dealdesk-io/dealdesk/internal/config"
	"github.com/dealdesk-io/dealdesk/internal/logger"
	"github.com/dealdesk-io/dealdesk/internal/server"
	"github.com/dealdesk-io/dealdesk/internal/services"
	"github.com/dealdesk-io/dealdesk/internal/utils"
	"go.uber.org/zap"
)

// Build information (set via ldflags)
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildTime  = "unknown"
)

func main() {
	var showVersion = flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("dealdesk backend\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Commit: %s\n", CommitHash)
		fmt.Printf("Built: %s\n", BuildTime)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
	}); err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	zlog := logger.GetLogger()

	var db services.DBService
	switch cfg.DB.Driver {
	case "postgres":
		db, err = services.NewPostgresDBService(cfg.DB.GetDSN())
	default:
		db, err = services.NewSqliteDBService(cfg.DB.Path)
	}
	if err != nil {
		zlog.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	generator, err := services.NewLocalContractGenerator(cfg.ContractDir)
	if err != nil {
		zlog.Fatal("failed to initialize contract generator", zap.Error(err))
	}
	provider := services.NewMemoryPaymentProvider()

	svc := server.InitializeServices(db.GetDB(), provider, generator, zlog)
	server.RegisterHooks(db.GetDB(), svc)

	auth := utils.NewJwtAuthenticator(cfg.JWT.SigningKey,
		time.Duration(cfg.JWT.ExpirationHours)*time.Hour)

	apiServer := api.NewAPIServer(api.ServerDeps{
		Auth:     auth,
		Deals:    svc.Deals,
		Changes:  svc.Changes,
		Deletes:  svc.Deletes,
		Profits:  svc.Profits,
		Payments: svc.Payments,
		Notifier: svc.Notifier,
		Logger:   zlog,
	})

	go func() {
		zlog.Info("API server starting", zap.String("port", cfg.Server.Port))
		if err := apiServer.Start(cfg.Server.Port); err != nil {
			zlog.Fatal("failed to start API server", zap.Error(err))
		}
	}()

	// Set up graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	zlog.Info("shutting down server")
	if err := apiServer.Shutdown(); err != nil {
		zlog.Error("error shutting down API server", zap.Error(err))
	}
	zlog.Info("server shut down successfully")
}
