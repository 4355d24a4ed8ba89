package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/eduline/billing-service/config"
	"github.com/eduline/billing-service/internal/api/rest"
	"github.com/eduline/billing-service/internal/api/rest/handlers"
	"github.com/eduline/billing-service/internal/api/rest/middleware"
	"github.com/eduline/billing-service/internal/catalog"
	"github.com/eduline/billing-service/internal/gateway"
	"github.com/eduline/billing-service/internal/kafka"
	"github.com/eduline/billing-service/internal/kafka/producer"
	"github.com/eduline/billing-service/internal/metrics"
	"github.com/eduline/billing-service/internal/repository"
	"github.com/eduline/billing-service/internal/service"
	"github.com/eduline/billing-service/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	// .env опционален, в контейнерах окружение задается снаружи
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(logger.INFO)
		bootLog.Fatal("Failed to load configuration: %v", err)
	}

	log := logger.New(logger.ParseLevel(cfg.Logging.Level))
	log.Info("Starting billing service")

	if logger.ParseLevel(cfg.Logging.Level) != logger.DEBUG {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Метрики
	registry := prometheus.NewRegistry()
	billingMetrics := metrics.NewBillingMetrics(registry, log)
	systemMetrics := metrics.NewSystemMetrics(registry, log)
	systemMetrics.StartRecording(15 * time.Second)
	defer systemMetrics.Stop()

	// Хранилище подписок и контента
	var subRepo repository.SubscriptionRepository
	var contentRepo repository.ContentRepository
	if cfg.Database.Configured() {
		db, err := repository.ConnectPostgres(ctx, cfg.Database.GetDSN(), log)
		if err != nil {
			log.Fatal("Failed to connect to database: %v", err)
		}
		defer db.Close()

		subRepo = repository.NewPostgresSubscriptionRepository(db)
		contentRepo = repository.NewPostgresContentRepository(db)
	} else {
		log.Warn("Database is not configured, using in-memory storage")
		subRepo = repository.NewInMemorySubscriptionRepository()
		contentRepo = repository.NewInMemoryContentRepository()
	}

	// Кэш подписок
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("Redis is unreachable, continuing without cache: %v", err)
		} else {
			subRepo = repository.NewCachedSubscriptionRepository(subRepo, rdb, log)
			defer rdb.Close()
			log.Info("Subscription cache enabled")
		}
	}

	// Kafka продюсер событий подписок
	var subProducer producer.SubscriptionProducer
	if brokers := cfg.Kafka.BrokerList(); cfg.Kafka.Enabled && len(brokers) > 0 {
		if err := kafka.EnsureTopics(brokers, log); err != nil {
			log.Warn("Failed to ensure Kafka topics: %v", err)
		}

		kafkaCfg := kafka.NewConfig(brokers)
		syncProducer, err := sarama.NewSyncProducer(kafkaCfg.Brokers, kafka.NewSaramaConfig(kafkaCfg))
		if err != nil {
			log.Warn("Failed to create Kafka producer, events will not be published: %v", err)
		} else {
			subProducer = producer.NewKafkaSubscriptionProducer(syncProducer, log)
			defer subProducer.Close()
			log.Info("Kafka producer connected to %v", brokers)
		}
	}

	// Платежный шлюз и каталог тарифов
	gw := gateway.NewStripeGateway(cfg.Stripe.APIKey, cfg.Stripe.WebhookSecret, log)
	cat := catalog.New(cfg.Prices)

	// Сервисы
	billingSvc := service.NewBillingService(gw, cat, billingMetrics, log)
	webhookSvc := service.NewWebhookService(gw, cat, subRepo, subProducer, billingMetrics, log)
	importSvc := service.NewImportService(contentRepo, cfg.Import.FixturesDir, billingMetrics, log)

	// Обработчики и middleware
	authMw := middleware.NewJWTMiddleware(&middleware.DefaultTokenValidator{
		Secret: []byte(cfg.Auth.JWTSecret),
	}, log)

	router := rest.SetupRouter(log, registry, rest.RouterDeps{
		Billing: handlers.NewBillingHandler(billingSvc, cfg.Server.BaseURL, log),
		Webhook: handlers.NewWebhookHandler(webhookSvc, log),
		Import:  handlers.NewImportHandler(importSvc, cfg.Import.Secret, log),
		Auth:    authMw,
	})

	server := rest.NewServer(router, cfg, log)
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed: %v", err)
	}
	log.Info("Server stopped")
}
