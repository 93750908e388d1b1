package app

import (
	"fmt"

	"github.com/evyataryagoni/iptracker/internal/cache"
	"github.com/evyataryagoni/iptracker/internal/config"
	"github.com/evyataryagoni/iptracker/internal/controller"
	"github.com/evyataryagoni/iptracker/internal/geoapi"
	"github.com/evyataryagoni/iptracker/internal/history"
	"github.com/evyataryagoni/iptracker/internal/logger"
	"github.com/evyataryagoni/iptracker/internal/metrics"
	"github.com/evyataryagoni/iptracker/internal/presenter"
	"github.com/evyataryagoni/iptracker/internal/service"
	"github.com/evyataryagoni/iptracker/internal/store"
	"github.com/redis/go-redis/v9"
)

// App is the lookup core wired from configuration
// The HTTP server, the CLI and the seed tool all build one.
type App struct {
	Config  *config.Config
	Logger  *logger.Logger
	Metrics *metrics.Metrics

	Backend   store.Store
	StoreName string
	Store     *store.Adapter
	Cache     *cache.Cache
	History   *history.Manager
	Fetcher   geoapi.Fetcher
	Lookups   *service.LookupService
}

// Option tweaks how New builds the app
type Option func(*options)

type options struct {
	backend store.Store
	fetcher geoapi.Fetcher
}

// WithBackend replaces the configured datastore
func WithBackend(s store.Store) Option {
	return func(o *options) { o.backend = s }
}

// WithFetcher replaces the HTTP geolocation client
func WithFetcher(f geoapi.Fetcher) Option {
	return func(o *options) { o.fetcher = f }
}

// NewLogger builds the application logger from configuration
func NewLogger(cfg *config.Config) *logger.Logger {
	return logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})
}

// New validates cfg and wires store, cache, history, client and lookup service
func New(cfg *config.Config, log *logger.Logger, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{
		Config:  cfg,
		Logger:  log,
		Metrics: metrics.New(),
	}

	if o.backend != nil {
		a.Backend, a.StoreName = o.backend, "custom"
	} else {
		backend, name, err := store.New(store.Config{
			Type:          cfg.DatastoreType,
			Path:          cfg.DatastorePath,
			MySQLDSN:      cfg.MySQLDSN,
			RedisAddr:     cfg.RedisAddr,
			RedisPassword: cfg.RedisPassword,
			RedisDB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		a.Backend, a.StoreName = backend, name
	}
	log.Info().Str("datastore", a.StoreName).Msg("Datastore initialized")

	a.Fetcher = o.fetcher
	if a.Fetcher == nil {
		client, err := geoapi.NewClient(geoapi.Config{
			Endpoint:   cfg.GeoAPIURL,
			APIKey:     cfg.GeoAPIKey,
			QueryParam: cfg.GeoAPIQueryParam,
			Timeout:    cfg.GeoAPITimeout,
		})
		if err != nil {
			a.Backend.Close()
			return nil, fmt.Errorf("failed to create geolocation client: %w", err)
		}
		a.Fetcher = client
	}

	a.Store = store.NewAdapter(a.Backend, a.StoreName, a.Metrics, log)
	a.Cache = cache.New(a.Store, a.Metrics, log)
	a.History = history.NewManager(a.Store, a.Metrics, log)
	a.Lookups = service.NewLookupService(a.Fetcher, a.Cache, a.History, a.Metrics, log)

	return a, nil
}

// Controller builds a controller drawing into p
func (a *App) Controller(p presenter.Presenter) *controller.Controller {
	return controller.New(a.Lookups, a.History, a.Cache, p, a.Metrics, a.Logger)
}

// RedisClient returns the datastore's Redis connection, if it has one
func (a *App) RedisClient() *redis.Client {
	if rs, ok := a.Backend.(*store.RedisStore); ok {
		return rs.Client()
	}
	return nil
}

// Close releases the datastore
func (a *App) Close() error {
	return a.Store.Close()
}
