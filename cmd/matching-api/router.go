// Package main provides the API router setup.
package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/recovr-ai/matching-engine/cmd/matching-api/handlers"
	"github.com/recovr-ai/matching-engine/cmd/matching-api/middleware"
	"github.com/recovr-ai/matching-engine/internal/autocomplete"
	"github.com/recovr-ai/matching-engine/internal/cache"
	"github.com/recovr-ai/matching-engine/internal/catalog"
	"github.com/recovr-ai/matching-engine/internal/config"
	"github.com/recovr-ai/matching-engine/internal/detection"
	"github.com/recovr-ai/matching-engine/internal/extractor"
	"github.com/recovr-ai/matching-engine/internal/features"
	"github.com/recovr-ai/matching-engine/internal/matching"
	"github.com/recovr-ai/matching-engine/internal/observability"
	"github.com/recovr-ai/matching-engine/internal/ratelimit"
	"github.com/recovr-ai/matching-engine/internal/search"
)

// NewRouter wires the service graph and returns the HTTP handler plus a
// cleanup function for graceful shutdown.
func NewRouter(logger *observability.Logger, cfg *config.Config) (http.Handler, func(), error) {
	db, err := catalog.Open(
		cfg.Catalog.Driver,
		cfg.CatalogDSN(),
		cfg.Catalog.Postgres.MaxOpenConns,
		cfg.Catalog.Postgres.MaxIdleConns,
		cfg.Catalog.Postgres.ConnMaxLifetime,
	)
	if err != nil {
		return nil, nil, err
	}
	repo := catalog.NewRepository(db)

	var cacheClient cache.Client
	if cfg.Cache.Driver == "redis" {
		cacheClient, err = cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			PoolSize: cfg.Cache.Redis.PoolSize,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("Redis unavailable, falling back to memory cache")
			cacheClient = cache.NewMemoryClient(cfg.Cache.MaxEntries)
		}
	} else {
		cacheClient = cache.NewMemoryClient(cfg.Cache.MaxEntries)
	}

	var ext extractor.Extractor
	if cfg.Extractor.BaseURL != "" {
		client, err := extractor.NewClient(extractor.Config{
			BaseURL:   cfg.Extractor.BaseURL,
			Dimension: cfg.Extractor.Dimension,
			Timeout:   cfg.Extractor.Timeout,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("Extractor misconfigured, image search limited to pre-extracted features")
		} else {
			ext = client
		}
	}

	resultCacheCfg := matching.DefaultResultCacheConfig()
	resultCacheCfg.TTL = cfg.Cache.TTL
	resultCacheCfg.Enabled = cfg.Matching.CacheResults
	resultCache := matching.NewResultCache(cacheClient, logger, resultCacheCfg)

	searchSvc := search.NewService(
		repo,
		ext,
		features.NewNormalizer(cfg.Extractor.Dimension),
		matching.NewSimilarityScorer(cfg.Matching.VarianceThreshold),
		resultCache,
		logger,
		search.Config{
			PageSize:      cfg.Catalog.PageSize,
			TextMinScore:  cfg.Matching.TextMinScore,
			ImageMinScore: cfg.Matching.ImageMinScore,
			MaxResults:    cfg.Matching.MaxResults,
			ScoreWorkers:  cfg.Matching.ScoreWorkers,
			CacheResults:  cfg.Matching.CacheResults,
		},
	)

	suggestSvc := autocomplete.NewService(repo, logger, autocomplete.Config{
		RefreshInterval: cfg.Autocomplete.RefreshInterval,
		SampleSize:      cfg.Autocomplete.SampleSize,
		MaxSuggestions:  cfg.Autocomplete.MaxSuggestions,
	})

	limiter := ratelimit.New(ratelimit.Config{
		Limit:   cfg.RateLimit.Limit,
		Window:  cfg.RateLimit.Window,
		Enabled: cfg.RateLimit.Enabled,
	}, logger)

	tracker := detection.NewTracker(detection.TrackerConfig{
		IOUThreshold:      cfg.Detection.IOUThreshold,
		TrackTimeout:      cfg.Detection.TrackTimeout,
		HistoryLength:     cfg.Detection.HistoryLength,
		SpeedThreshold:    cfg.Detection.SpeedThreshold,
		VelocitySmoothing: cfg.Detection.VelocitySmoothing,
	})

	sweepDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cfg.Detection.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				if evicted := tracker.Sweep(now); len(evicted) > 0 {
					logger.Debug().Int("evicted", len(evicted)).Msg("Idle detection tracks evicted")
				}
			case <-sweepDone:
				return
			}
		}
	}()

	searchHandler := handlers.NewSearchHandler(logger, searchSvc)
	autocompleteHandler := handlers.NewAutocompleteHandler(logger, suggestSvc)
	matchesHandler := handlers.NewMatchesHandler(logger, searchSvc)
	detectionsHandler := handlers.NewDetectionsHandler(logger, tracker, cfg.Detection.IOUThreshold)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(chimiddleware.Timeout(cfg.Server.ReadTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"matching-engine"}`))
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"not ready","reason":"catalog unreachable"}`))
			return
		}
		w.Write([]byte(`{"status":"ready"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/search", func(r chi.Router) {
			r.Use(middleware.RateLimit(limiter, logger))
			r.Post("/text", searchHandler.Text)
			r.Post("/image", searchHandler.Image)
			r.Get("/autocomplete", autocompleteHandler.Suggest)
		})

		r.Get("/matches/{itemId}", matchesHandler.ForItem)

		r.Route("/detections", func(r chi.Router) {
			r.Post("/", detectionsHandler.Process)
			r.Get("/tracks", detectionsHandler.Tracks)
		})
	})

	cleanup := func() {
		close(sweepDone)
		limiter.Close()
		if err := cacheClient.Close(); err != nil {
			logger.Warn().Err(err).Msg("Cache close failed")
		}
		if err := db.Close(); err != nil {
			logger.Warn().Err(err).Msg("Catalog close failed")
		}
	}

	return r, cleanup, nil
}
