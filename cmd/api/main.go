package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/codetrack/internal/api"
	"example.com/codetrack/internal/auth"
	"example.com/codetrack/internal/challenge"
	"example.com/codetrack/internal/config"
	"example.com/codetrack/internal/domain"
	"example.com/codetrack/internal/outbox"
	persistence "example.com/codetrack/internal/persistence/postgres"
	"example.com/codetrack/internal/providercache"
	"example.com/codetrack/internal/providers/github"
	"example.com/codetrack/internal/providers/stackoverflow"
	httptransport "example.com/codetrack/internal/transport/http"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("invalid TIMEZONE %q: %v", cfg.Timezone, err)
	}

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	producer := outbox.NewProducer(cfg.KafkaBrokers)
	defer producer.Close()

	dispatcher := outbox.NewDispatcher(pool, producer, cfg.OutboxPollInterval, cfg.OutboxBatchSize)
	go dispatcher.Start(ctx)

	generator := challenge.NewGenerator(challenge.Config{
		ProviderURL: cfg.ChallengeURL,
		APIKey:      cfg.ChallengeAPIKey,
		Timeout:     cfg.ProviderTimeout,
	})

	service := domain.NewService(
		persistence.NewActivityRepository(pool),
		persistence.NewTodoRepository(pool),
		persistence.NewChallengeRepository(pool),
		generator,
		domain.WithLocation(location),
	)

	cache := providercache.New(cfg.ProfileCacheTTL)
	githubClient := github.NewClient(cache, github.Config{
		APIBaseURL: cfg.GitHubAPIBaseURL,
		GraphQLURL: cfg.GitHubGraphQLURL,
		Token:      cfg.GitHubToken,
		Timeout:    cfg.ProviderTimeout,
	})
	stackoverflowClient := stackoverflow.NewClient(cache, stackoverflow.Config{
		BaseURL: cfg.StackExchangeURL,
		Key:     cfg.StackExchangeKey,
		Timeout: cfg.ProviderTimeout,
	})

	handler := api.NewHandler(service, githubClient, stackoverflowClient)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	// Simple CORS middleware for local dev
	cors := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "http://localhost:5173")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}

	// Basic request logger
	logger := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("%s %s", r.Method, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}

	authMiddleware := auth.NewMiddleware(
		auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer},
		func(r *http.Request) bool {
			return r.URL.Path == "/healthz" || r.URL.Path == "/metrics"
		},
	)

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, authMiddleware.Wrap(logger(cors(mux))))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("codetrack listening on %s", cfg.HTTPAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	dispatcher.Wait()
}
