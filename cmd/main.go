/**
 * @description
 * This is the main entry point for the ledger-service. It is responsible for
 * initializing all components of the service, including configuration, the durable
 * document store, message brokers, repositories, the core application service,
 * the conservation auditor, and the HTTP server. It wires everything together
 * and starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/go-chi/chi/v5: For HTTP routing.
 * - github.com/joho/godotenv: Loads a local .env file in development.
 * - github.com/robfig/cron/v3: Schedules the periodic conservation audit.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages for the service.
 * - pkg/rabbitmq: Client for RabbitMQ.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/atlascoins/ledger-service/internal/api"
	"github.com/atlascoins/ledger-service/internal/app"
	"github.com/atlascoins/ledger-service/internal/config"
	"github.com/atlascoins/ledger-service/internal/store"
	"github.com/atlascoins/ledger-service/pkg/rabbitmq"
)

func main() {
	// A missing .env is fine; environment variables win either way.
	if err := godotenv.Load(); err != nil {
		log.Println("level=info component=bootstrap msg=\"no .env file found, relying on environment\"")
	}

	// Load application configuration from environment variables.
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}

	log.Printf("level=info component=bootstrap msg=\"starting ledger-service\" port=%s starting_grant=%d", cfg.ServerPort, cfg.StartingGrant)

	// Pick the durable document store. A configured DATABASE_URL selects
	// Postgres; otherwise documents live as JSON files under DATA_DIR, which
	// is enough for a single-node deployment.
	var kv store.KV
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		pgKV, err := store.ConnectPostgresKV(context.Background(), cfg.DatabaseURL, 30*time.Second)
		if err != nil {
			log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
		}
		defer pgKV.Close()
		kv = pgKV
		log.Println("level=info component=bootstrap msg=\"database connected\" store=postgres")
	} else {
		fileKV, err := store.NewFileKV(cfg.DataDir)
		if err != nil {
			log.Fatalf("level=fatal component=bootstrap msg=\"data dir init failed\" dir=%s err=%v", cfg.DataDir, err)
		}
		kv = fileKV
		log.Printf("level=info component=bootstrap msg=\"file store ready\" dir=%s", cfg.DataDir)
	}

	// Initialize the RabbitMQ producer to publish transfer events.
	// This service only needs to publish, so we use a producer.
	var producer rabbitmq.Publisher
	if strings.TrimSpace(cfg.RabbitMQURL) != "" {
		rabbitProducer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL, cfg.TransferEventExchange)
		if err != nil {
			log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; events disabled\" err=%v", err)
		} else {
			defer rabbitProducer.Close()
			producer = rabbitProducer
			log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
		}
	}

	// Initialize the data access layer (repository).
	repository := store.NewKVRepository(kv, cfg.StartingGrant)

	// Initialize the core application service with its dependencies.
	ledgerService := app.NewService(repository, producer, cfg.StartingGrant)

	// Optional Redis-backed rate limiting of transfer attempts.
	if cfg.TransferRateLimitPerMinute > 0 {
		if strings.TrimSpace(cfg.RedisURL) == "" {
			log.Println("level=warn component=bootstrap msg=\"redis url missing; transfer rate limiting disabled\" env=REDIS_URL")
		} else if redisOptions, parseErr := redis.ParseURL(cfg.RedisURL); parseErr != nil {
			log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; transfer rate limiting disabled\" err=%v", parseErr)
		} else {
			redisClient := redis.NewClient(redisOptions)
			pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelPing()
			if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis ping failed; transfer rate limiting disabled\" err=%v", pingErr)
				redisClient.Close()
			} else {
				defer redisClient.Close()
				ledgerService.SetTransferRateLimiter(
					app.NewRedisTransferRateLimiter(redisClient, cfg.RedisRateLimitPrefix),
					cfg.TransferRateLimitPerMinute,
				)
				log.Println("level=info component=bootstrap msg=\"redis connected\"")
			}
		}
	}

	// Schedule the conservation audit. It re-sums every balance against the
	// minted total and screams in the logs if coins leaked.
	auditor := cron.New()
	if _, err := auditor.AddFunc(cfg.AuditSchedule, func() {
		auditCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := ledgerService.VerifyConservation(auditCtx); err != nil {
			log.Printf("level=error component=auditor msg=\"conservation audit failed\" err=%v", err)
		}
	}); err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"audit schedule invalid\" schedule=%q err=%v", cfg.AuditSchedule, err)
	}
	auditor.Start()
	defer auditor.Stop()

	// Initialize the API handlers.
	ledgerHandlers := api.NewLedgerHandlers(ledgerService)

	// Set up the HTTP router and define the API routes.
	router := chi.NewRouter()
	router.Mount("/api/v1", api.LedgerRoutes(
		ledgerHandlers,
		cfg.GoogleJWKSURL,
		cfg.GoogleAudience,
		cfg.GoogleIssuer,
		cfg.AllowedOrigins(),
	))

	// Start the HTTP server, binding to all interfaces.
	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)

	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
