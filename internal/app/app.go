// Package app assembles the services behind the HTTP server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/doclens/backend/config"
	httpDelivery "github.com/doclens/backend/internal/delivery/http"
	"github.com/doclens/backend/internal/domain"
	"github.com/doclens/backend/internal/infrastructure/cache"
	"github.com/doclens/backend/internal/infrastructure/extract"
	"github.com/doclens/backend/internal/infrastructure/fetch"
	badgerstore "github.com/doclens/backend/internal/infrastructure/storage/badger"
	boltstore "github.com/doclens/backend/internal/infrastructure/storage/bolt"
	"github.com/doclens/backend/internal/logging"
	"github.com/doclens/backend/internal/usecase"
	"github.com/doclens/backend/internal/worker"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// boltFileName is used when storage.path names a directory
const boltFileName = "doclens.db"

// App holds the wired services and the resources they own
type App struct {
	Config    *config.Config
	Logger    *logrus.Logger
	Products  *usecase.ProductService
	Analyses  *usecase.AnalysisService
	Jobs      *worker.JobRunner
	Extractor *extract.Extractor
	Fetcher   *fetch.Client

	closers []func() error
}

// Build opens storage and cache and wires every service from cfg.
// Callers must Close the returned App.
func Build(cfg *config.Config, logger *logrus.Logger) (_ *App, err error) {
	if logger == nil {
		logger = logging.New(cfg.Log)
	}

	app := &App{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	products, analyses, err := app.openStorage()
	if err != nil {
		return nil, err
	}

	cacheRepo := app.openCache()

	app.Extractor = extract.New(cfg.Analysis.MaxDocumentBytes, logging.Component(logger, "extractor"))

	app.Fetcher = fetch.NewClient(fetch.Config{
		Timeout:         cfg.Fetch.Timeout,
		UserAgent:       cfg.Fetch.UserAgent,
		RespectRobots:   cfg.Fetch.RespectRobots,
		MaxBytes:        cfg.Analysis.MaxDocumentBytes,
		RequestsPerHour: cfg.RateLimit.Fetch,
	}, logging.Component(logger, "fetch"))

	// Enable debug mode in development environment
	if cfg.Server.Environment == "development" {
		app.Fetcher.SetDebug(true)
	}

	app.Products = usecase.NewProductService(products, logging.Component(logger, "product_service"))
	app.Analyses = usecase.NewAnalysisService(
		cacheRepo,
		products,
		analyses,
		app.Extractor,
		app.Fetcher,
		usecase.AnalysisServiceConfig{
			CacheTTL:           cfg.Cache.TTL,
			ContextWords:       cfg.Analysis.ContextWords,
			MaxContexts:        cfg.Analysis.MaxContexts,
			EnableDebugLogging: cfg.Analysis.EnableDebugLogging,
		},
		logging.Component(logger, "analysis_service"),
	)

	app.Jobs, err = worker.NewJobRunner(
		cfg.Analysis.WorkerPoolSize,
		cfg.Analysis.JobRetention,
		logging.Component(logger, "job_runner"),
	)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, func() error { return app.Jobs.Release(5 * time.Second) })

	return app, nil
}

func (a *App) openStorage() (domain.ProductRepository, domain.AnalysisRepository, error) {
	cfg := a.Config.Storage
	log := logging.Component(a.Logger, "storage")

	switch cfg.Type {
	case "bolt":
		path := cfg.Path
		if filepath.Ext(path) == "" {
			path = filepath.Join(path, boltFileName)
		}
		store, err := boltstore.NewStore(path)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, store.Close)
		log.WithField("path", path).Info("bolt storage opened")
		return store.Products(), store.Analyses(), nil

	case "badger", "":
		backend, err := badgerstore.OpenBackend(cfg.Path, cfg.InMemory, log)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, backend.Close)
		log.WithFields(logrus.Fields{"path": cfg.Path, "in_memory": cfg.InMemory}).Info("badger storage opened")
		return badgerstore.NewProductRepository(backend), badgerstore.NewAnalysisRepository(backend), nil

	default:
		return nil, nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

// openCache connects to Redis when configured, falling back to the
// in-memory cache if the server does not answer.
func (a *App) openCache() domain.CacheRepository {
	cfg := a.Config.Cache
	log := logging.Component(a.Logger, "cache")

	if cfg.Type == "redis" {
		redisCache, err := cache.NewRedisCache(cfg.RedisURL, "doclens:")
		if err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err = redisCache.Ping(ctx)
			cancel()
			if err == nil {
				a.closers = append(a.closers, redisCache.Close)
				log.WithField("ttl", cfg.TTL).Info("redis cache connected")
				return redisCache
			}
			redisCache.Close()
		}
		log.WithError(err).Warn("redis unavailable, using in-memory cache")
	}

	memCache := cache.NewMemoryCache(0)
	a.closers = append(a.closers, memCache.Close)
	log.WithField("ttl", cfg.TTL).Info("memory cache ready")
	return memCache
}

// Router builds the HTTP router over the app's services
func (a *App) Router() *gin.Engine {
	handler := httpDelivery.NewHandler(httpDelivery.HandlerConfig{
		Analyses:     a.Analyses,
		Products:     a.Products,
		Jobs:         a.Jobs,
		ContextWords: a.Config.Analysis.ContextWords,

		MaxDocumentBytes: a.Config.Analysis.MaxDocumentBytes,
		Logger:           logging.Component(a.Logger, "http"),
	})
	return httpDelivery.SetupRouter(a.Config, handler, logging.Component(a.Logger, "http"))
}

// Close releases resources in reverse order of acquisition
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
