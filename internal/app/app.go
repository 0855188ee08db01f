package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/johnrirwin/autolot/internal/admin"
	"github.com/johnrirwin/autolot/internal/cache"
	"github.com/johnrirwin/autolot/internal/catalog"
	"github.com/johnrirwin/autolot/internal/config"
	"github.com/johnrirwin/autolot/internal/database"
	"github.com/johnrirwin/autolot/internal/httpapi"
	"github.com/johnrirwin/autolot/internal/images"
	"github.com/johnrirwin/autolot/internal/leads"
	"github.com/johnrirwin/autolot/internal/logging"
	"github.com/johnrirwin/autolot/internal/mcp"
	"github.com/johnrirwin/autolot/internal/metrics"
	"github.com/johnrirwin/autolot/internal/models"
	"github.com/johnrirwin/autolot/internal/moderation"
	"github.com/johnrirwin/autolot/internal/notify"
	"github.com/johnrirwin/autolot/internal/pricing"
	"github.com/johnrirwin/autolot/internal/ratelimit"
)

// App holds all application dependencies
type App struct {
	Config     *config.Config
	Logger     *logging.Logger
	Metrics    *metrics.Metrics
	Cache      cache.Cache
	Inventory  *catalog.Inventory
	Leads      *leads.Service
	Photos     *images.Service
	Dashboard  *admin.Dashboard
	HTTPServer *httpapi.Server

	db           *database.DB
	vehicleStore *database.VehicleStore
	redisCache   *cache.RedisCache
	nats         *notify.NATSNotifier
	limiter      ratelimit.RateLimiter
	pending      images.PendingStore
}

// New creates and initializes a new App instance.
// Only an unusable catalog is fatal; every other backend falls back to an in-process one.
func New(cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	// Initialize logger and metrics
	app.Logger = logging.New(logging.ParseLevel(cfg.Logging.Level))
	app.Metrics = metrics.New()

	// Initialize cache, submit throttle and photo token store
	app.Cache = app.initCache()

	// Initialize the vehicle catalog
	store, err := app.initCatalog()
	if err != nil {
		return nil, err
	}
	app.Inventory = catalog.NewInventory(store)

	// Initialize photo moderation
	app.Photos = images.NewService(app.initModerator(), app.pending, cfg.Moderation.Timeout)

	// Initialize lead intake
	app.Leads = leads.NewService(leads.Deps{
		Inventory: app.Inventory,
		Estimator: pricing.NewEstimator(nil),
		Photos:    app.Photos,
		Notifier:  app.initNotifier(),
		Limiter:   app.limiter,
		Metrics:   app.Metrics,
		Logger:    app.Logger,
	})

	// Initialize admin dashboard
	var stock admin.StockWriter
	if app.vehicleStore != nil {
		stock = app.vehicleStore
	}
	app.Dashboard = admin.NewDashboard(app.Inventory, stock, app.Metrics, app.Logger)

	// Initialize HTTP server
	app.HTTPServer = httpapi.New(httpapi.Deps{
		Inventory: app.Inventory,
		Cache:     app.Cache,
		Leads:     app.Leads,
		Photos:    app.Photos,
		Dashboard: app.Dashboard,
		Metrics:   app.Metrics,
		Logger:    app.Logger,
		RateLimit: cfg.Server.APIRateLimit,
		RateBurst: cfg.Server.APIRateBurst,

		TrustedProxies: cfg.Server.TrustedProxies,
	})

	return app, nil
}

// Run serves MCP over stdio or HTTP, depending on configuration
func (a *App) Run(ctx context.Context) error {
	if a.Config.Server.MCPMode {
		return a.runMCPMode(ctx)
	}
	return a.runHTTPMode(ctx)
}

func (a *App) runMCPMode(ctx context.Context) error {
	a.Logger.Info("Starting MCP server in stdio mode")
	server := mcp.NewServer(mcp.NewHandler(a.Inventory, a.Leads, a.Logger), a.Logger)
	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (a *App) runHTTPMode(ctx context.Context) error {
	snapshot := a.Inventory.Current()
	a.Logger.Info("Starting HTTP server", logging.WithFields(map[string]interface{}{
		"addr":     a.Config.Server.HTTPAddr,
		"vehicles": snapshot.Len(),
		"in_stock": snapshot.InStockCount(),
	}))
	return a.HTTPServer.Start(a.Config.Server.HTTPAddr)
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown(ctx context.Context) error {
	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error("HTTP server shutdown error", logging.WithField("error", err.Error()))
		}
	}

	if a.nats != nil {
		if err := a.nats.Close(); err != nil {
			a.Logger.Error("NATS drain error", logging.WithField("error", err.Error()))
		}
	}

	if mem, ok := a.Cache.(*cache.MemoryCache); ok {
		mem.Stop()
	}
	if a.redisCache != nil {
		if err := a.redisCache.Close(); err != nil {
			a.Logger.Error("Redis close error", logging.WithField("error", err.Error()))
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.Logger.Error("Database close error", logging.WithField("error", err.Error()))
		}
	}

	return nil
}

func (a *App) initCache() cache.Cache {
	interval := a.Config.Leads.SubmitInterval
	pendingTTL := a.Config.Moderation.PendingUploadTTL

	switch a.Config.Cache.Backend {
	case "redis":
		a.Logger.Info("Using Redis cache backend", logging.WithField("addr", a.Config.Cache.RedisAddr))
		redisCache, err := cache.NewRedis(cache.RedisConfig{
			Addr:   a.Config.Cache.RedisAddr,
			Prefix: cache.DefaultPrefix,
		}, a.Config.Cache.TTL)
		if err != nil {
			a.Logger.Error("Failed to connect to Redis, falling back to memory cache", logging.WithField("error", err.Error()))
			break
		}
		a.redisCache = redisCache
		// Share throttling and photo tokens across replicas
		a.limiter = ratelimit.NewRedis(redisCache.Client(), cache.DefaultPrefix, interval)
		a.pending = images.NewRedisPendingStore(redisCache.Client(), pendingTTL)
		a.Logger.Info("Using Redis for lead throttling and photo tokens")
		return redisCache
	default:
		a.Logger.Info("Using in-memory cache backend")
	}

	a.limiter = ratelimit.New(interval)
	a.pending = images.NewInMemoryPendingStore(pendingTTL)
	return cache.NewMemory(a.Config.Cache.TTL)
}

func (a *App) initCatalog() (*catalog.Store, error) {
	switch a.Config.Catalog.Source {
	case config.CatalogFile:
		store, err := catalog.LoadYAML(a.Config.Catalog.File)
		if err != nil {
			return nil, fmt.Errorf("load catalog file: %w", err)
		}
		a.Logger.Info("Loaded catalog file", logging.WithFields(map[string]interface{}{
			"path":     a.Config.Catalog.File,
			"vehicles": store.Len(),
		}))
		return store, nil
	case config.CatalogPostgres:
		store, err := a.initDatabaseCatalog()
		if err != nil {
			a.Logger.Warn("Failed to load catalog from PostgreSQL, using embedded dataset", logging.WithField("error", err.Error()))
			return catalog.Default(), nil
		}
		return store, nil
	default:
		return catalog.Default(), nil
	}
}

// initDatabaseCatalog loads vehicles from PostgreSQL, seeding an empty table from the embedded dataset
func (a *App) initDatabaseCatalog() (*catalog.Store, error) {
	dbConfig := database.DefaultConfig()
	dbConfig.Host = a.Config.Database.Host
	dbConfig.Port = a.Config.Database.Port
	dbConfig.User = a.Config.Database.User
	dbConfig.Password = a.Config.Database.Password
	dbConfig.Database = a.Config.Database.Database
	dbConfig.SSLMode = a.Config.Database.SSLMode

	db, err := database.New(dbConfig)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	vehicles := database.NewVehicleStore(db)
	count, err := vehicles.Count(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}
	if count == 0 {
		if err := vehicles.Seed(ctx, catalog.Default().Vehicles()); err != nil {
			db.Close()
			return nil, fmt.Errorf("seed vehicles: %w", err)
		}
		a.Logger.Info("Seeded vehicles table from embedded dataset")
	}

	rows, err := vehicles.LoadAll(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}
	store, err := catalog.New(rows)
	if err != nil {
		db.Close()
		return nil, err
	}

	a.db = db
	a.vehicleStore = vehicles
	a.Logger.Info("Loaded catalog from PostgreSQL", logging.WithField("vehicles", store.Len()))
	return store, nil
}

func (a *App) initModerator() images.Moderator {
	cfg := a.Config.Moderation
	if !cfg.Enabled {
		a.Logger.Info("Photo moderation disabled, approving all uploads")
		return moderation.NewService(moderation.NoopDetector{}, cfg.RejectConfidence)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	detector, err := moderation.NewAWSDetector(ctx, cfg.AWSRegion)
	if err != nil {
		// Without a detector every upload comes back PENDING_REVIEW with no token
		a.Logger.Warn("Failed to initialize Rekognition, photos will not be verified", logging.WithField("error", err.Error()))
		return unavailableModerator{err: err}
	}
	return moderation.NewService(detector, cfg.RejectConfidence)
}

func (a *App) initNotifier() notify.Notifier {
	logNotifier := notify.NewLogNotifier(a.Logger)
	if a.Config.Leads.NATSURL == "" {
		return logNotifier
	}

	nc, err := notify.Connect(a.Config.Leads.NATSURL, a.Logger)
	if err != nil {
		a.Logger.Warn("Failed to connect to NATS, leads will only be logged", logging.WithField("error", err.Error()))
		return logNotifier
	}
	a.nats = nc
	a.Logger.Info("Publishing leads to NATS", logging.WithField("url", a.Config.Leads.NATSURL))
	return notify.Fanout{logNotifier, nc}
}

// unavailableModerator fails every check so uploads stay unverified
type unavailableModerator struct {
	err error
}

func (m unavailableModerator) ModerateImageBytes(ctx context.Context, imageBytes []byte) (*models.ModerationDecision, error) {
	return nil, fmt.Errorf("moderation unavailable: %w", m.err)
}
