package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/bryanwahyu/codepilot/internal/analyzer"
	"github.com/bryanwahyu/codepilot/internal/application"
	appanalysis "github.com/bryanwahyu/codepilot/internal/application/analysis"
	appassist "github.com/bryanwahyu/codepilot/internal/application/assist"
	appcollab "github.com/bryanwahyu/codepilot/internal/application/collab"
	"github.com/bryanwahyu/codepilot/internal/config"
	analysisdomain "github.com/bryanwahyu/codepilot/internal/domain/analysis"
	assistdomain "github.com/bryanwahyu/codepilot/internal/domain/assist"
	aiopenai "github.com/bryanwahyu/codepilot/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/codepilot/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/codepilot/internal/infra/db/postgres"
	sqlitep "github.com/bryanwahyu/codepilot/internal/infra/db/sqlite"
	"github.com/bryanwahyu/codepilot/internal/infra/httpserver"
	minioStore "github.com/bryanwahyu/codepilot/internal/infra/storage"
	"github.com/bryanwahyu/codepilot/internal/infra/ws"
	"github.com/bryanwahyu/codepilot/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// sqlite is always open: ai responses and session snapshots live there
	sdb, err := sqlitep.Connect(ctx, cfg.Database.Path)
	if err != nil {
		logger.Fatal("sqlite connect error", zap.Error(err))
	}
	defer sdb.Close()

	checkers := map[string]middleware.HealthChecker{
		"sqlite": &middleware.DatabaseHealthChecker{DB: sdb},
	}

	// analysis results go to the configured driver
	var analysisRepo analysisdomain.Repository
	switch cfg.Database.Driver {
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			logger.Fatal("mysql connect error", zap.Error(err))
		}
		defer db.Close()
		analysisRepo = mysqlp.NewAnalysisRepository(db)
		checkers["mysql"] = &middleware.DatabaseHealthChecker{DB: db}
	case "postgres":
		db, err := postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			logger.Fatal("postgres connect error", zap.Error(err))
		}
		defer db.Close()
		analysisRepo = postgresp.NewAnalysisRepository(db)
		checkers["postgres"] = &middleware.DatabaseHealthChecker{DB: db}
	default:
		analysisRepo = sqlitep.NewAnalysisRepository(sdb)
	}

	// optional report artifact store
	var reports analysisdomain.ReportStore
	if cfg.Minio.Enabled {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			logger.Fatal("minio init error", zap.Error(err))
		}
		reports = store
	}

	// optional AI client; without a key the assistant answers in demo mode
	var aiClient assistdomain.Client
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		aiClient = aiopenai.NewClient(key, cfg.OpenAI.Model)
	} else {
		logger.Info("OPENAI_API_KEY not set, running in demo mode")
	}

	clock := application.SystemClock{}

	analysisSvc := &appanalysis.Service{
		Engine:  analyzer.New(logger),
		Repo:    analysisRepo,
		Reports: reports,
		Clock:   clock,
		Log:     logger,
	}
	assistSvc := &appassist.Service{
		Client:   aiClient,
		Repo:     sqlitep.NewResponseRepository(sdb),
		Analysis: analysisSvc,
		Clock:    clock,
		Log:      logger,
	}

	store := appcollab.NewStore(clock, logger, sqlitep.NewSessionRepository(sdb))
	hub := ws.NewHub(logger)
	coordinator := &appcollab.Coordinator{Store: store, Transport: hub, Log: logger}
	wsHandler := &ws.Handler{Hub: hub, Coordinator: coordinator, Log: logger}

	go store.StartJanitor(ctx,
		time.Duration(cfg.Collab.SessionTTLMinutes)*time.Minute,
		time.Duration(cfg.Collab.SweepIntervalMinutes)*time.Minute,
	)

	// init router
	mux := chi.NewRouter()
	mux.Mount("/", httpserver.NewRouter(analysisSvc, assistSvc, coordinator, wsHandler, httpserver.Options{
		Log:             logger,
		HealthCheckers:  checkers,
		RateLimit:       cfg.RateLimit.Capacity,
		RateLimitRefill: cfg.RateLimit.RefillRate,
	}))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		logger.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down server")
	cancel()

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}
}
