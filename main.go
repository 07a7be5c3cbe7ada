package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"jraargz/ofertasworker/config"
	"jraargz/ofertasworker/internal/extractor"
	"jraargz/ofertasworker/internal/history"
	"jraargz/ofertasworker/internal/resolver"
	"jraargz/ofertasworker/internal/scoring"
	"jraargz/ofertasworker/internal/scraper"
	"jraargz/ofertasworker/logger"
	"jraargz/ofertasworker/services/cache"
	"jraargz/ofertasworker/services/publisher"
	"jraargz/ofertasworker/services/worker"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Int("listing_urls", len(cfg.ListingURLs)).
		Strs("run_times", cfg.RunTimes).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	services := initializeServices(cfg)
	defer services.Cleanup()

	// Build the pipeline
	res := resolver.New(cfg.ResolveTimeout)
	ext := extractor.New(extractor.DefaultSelectors(), res, cfg.MinDiscount, cfg.DebugDir)
	store := history.NewStore(cfg.HistoryFile, cfg.DedupWindow)
	engine := scoring.NewEngine(res)

	pipeline := scraper.New(cfg, ext, store, engine, services.Cache, services.Publishers)

	// Create and start worker
	w := worker.NewWorker(ctx, pipeline, cfg.RunTimes)

	workerDone := make(chan error, 1)
	go func() {
		log.Info().Msg("Starting offer scraper worker")
		workerDone <- w.Start()
	}()

	// Wait for shutdown signal or worker error
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		cancel()
	case err := <-workerDone:
		if err != nil {
			log.Error().Err(err).Msg("Worker exited with error")
		} else {
			log.Info().Msg("Worker exited normally")
		}
	}

	log.Info().Msg("Shutting down gracefully...")
}

// Services holds the optional external services
type Services struct {
	Cache      cache.CacheService
	Publishers []publisher.Publisher
}

// Cleanup closes all held connections
func (s *Services) Cleanup() {
	for _, pub := range s.Publishers {
		pub.Close()
	}
}

// initializeServices wires the optional cache and publishers from config
func initializeServices(cfg config.Config) *Services {
	services := &Services{}

	if cfg.MemcacheAddr != "" {
		services.Cache = cache.NewMemcacheService(cfg.MemcacheAddr)
		logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
	}

	if cfg.AffiliateCmd != "" {
		services.Publishers = append(services.Publishers, publisher.NewExecPublisher(cfg.AffiliateCmd))
		logger.Info("Affiliate generator enabled: %s", cfg.AffiliateCmd)
	}

	if cfg.RedisAddr != "" {
		services.Publishers = append(services.Publishers,
			publisher.NewRedisPublisher(cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream, cfg.RedisStreamMax))
		logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
			cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	}

	return services
}
