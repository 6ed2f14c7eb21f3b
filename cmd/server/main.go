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

	"industry-pulse/config"
	"industry-pulse/internal/api"
	"industry-pulse/internal/broker"
	"industry-pulse/internal/pipeline"
	"industry-pulse/internal/redisclient"
	"industry-pulse/internal/service"
	"industry-pulse/internal/store"
	"industry-pulse/internal/util"
	"industry-pulse/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting industry-pulse analytics service")

	tp, err := util.InitTracer("industry-pulse", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("Failed to ensure database schema: %v", err)
	}
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	tieBreak, err := pipeline.ParseTieBreak(cfg.Analytics.TieBreak)
	if err != nil {
		log.Fatalf("Invalid analytics config: %v", err)
	}
	rankingMode, err := pipeline.ParseRankingMode(cfg.Analytics.RankingMode)
	if err != nil {
		log.Fatalf("Invalid analytics config: %v", err)
	}

	p := pipeline.New(pipeline.Options{
		ShortWindow: cfg.Analytics.ShortWindow,
		LongWindow:  cfg.Analytics.LongWindow,
		TopN:        cfg.Analytics.TopN,
		TieBreak:    tieBreak,
		Ranking:     rankingMode,
	})

	analytics := service.NewAnalyticsService(
		db,
		redisClient,
		eventPublisher,
		p,
		cfg.Analytics.ReportCacheTTL,
		cfg.Analytics.RunLockTTL,
	)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	runConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents, cfg.Kafka.ConsumerGroup)
	runWorker := worker.NewRunWorker(runConsumer, analytics)
	go func() {
		if err := runWorker.Start(workerCtx); err != nil {
			log.Printf("Run worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(analytics, service.FeedPaths{
		Historical: cfg.Feeds.HistoricalOrdersPath,
		Recent:     cfg.Feeds.RecentOrdersPath,
		Customers:  cfg.Feeds.CustomersPath,
	})
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	runWorker.Stop()

	log.Println("Server exited")
}
