package app

import (
	"context"
	"fmt"
	"time"

	"github.com/synclinehq/syncline/config"
	"github.com/synclinehq/syncline/handlers"
	"github.com/synclinehq/syncline/identity"
	"github.com/synclinehq/syncline/middleware"
	"github.com/synclinehq/syncline/repositories"
	"github.com/synclinehq/syncline/repositories/postgres"
	"github.com/synclinehq/syncline/services/providers"
	syncservice "github.com/synclinehq/syncline/services/sync"
	"github.com/synclinehq/syncline/session"
	"github.com/synclinehq/syncline/storage"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	SyncRuns        repositories.SyncRunRepository
	ContactMappings repositories.ContactMappingRepository
	TxManager       repositories.TransactionManager

	// Identity platform
	IdentityFactory *identity.Factory
	Accessor        *session.Accessor
	Gate            *session.Gate
	AuthMiddleware  *middleware.AuthMiddleware

	// Sync pipeline
	ProviderRegistry *providers.Registry
	SyncService      *syncservice.Service

	// Handlers
	AuthHandler    *handlers.AuthHandler
	HealthHandler  *handlers.HealthHandler
	StorageHandler *handlers.StorageHandler
	SyncHandler    *handlers.SyncHandler
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initRepositories()

	if err := deps.initProviders(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}

	deps.initAuth(cfg)
	deps.initStorage(cfg)

	deps.HealthHandler = handlers.NewHealthHandler(deps.DB.DB, logger)
	deps.SyncHandler = handlers.NewSyncHandler(deps.SyncService, logger)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase initializes the PostgreSQL connection pool and schema
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	factory, err := postgres.NewRepositoryFactory(cfg, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	d.RepoFactory = factory
	d.DB = factory.GetDB()

	if err := factory.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	repos := d.RepoFactory.NewRepositories()

	d.SyncRuns = repos.SyncRuns
	d.ContactMappings = repos.ContactMappings
	d.TxManager = d.RepoFactory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
}

// initProviders registers the configured contact providers and builds the
// sync service between them.
func (d *Dependencies) initProviders(cfg *config.Config) error {
	registry := providers.NewRegistry()

	source := providers.NewRESTProvider(cfg.Sync.Source, d.Logger)
	target := providers.NewRESTProvider(cfg.Sync.Target, d.Logger)

	if err := registry.Register(source); err != nil {
		return fmt.Errorf("failed to register source provider: %w", err)
	}
	if err := registry.Register(target); err != nil {
		return fmt.Errorf("failed to register target provider: %w", err)
	}

	if cfg.Sync.Source.BaseURL == "" || cfg.Sync.Target.BaseURL == "" {
		d.Logger.Warn("sync provider endpoints not fully configured")
	}

	d.ProviderRegistry = registry
	d.SyncService = syncservice.NewService(source, target,
		d.SyncRuns, d.ContactMappings, d.TxManager, cfg.Sync.PageSize, d.Logger)

	d.Logger.Info("sync providers initialized",
		zap.String("source", cfg.Sync.Source.Name),
		zap.String("target", cfg.Sync.Target.Name))
	return nil
}

func (d *Dependencies) initAuth(cfg *config.Config) {
	d.IdentityFactory = identity.NewFactory(cfg.Platform, d.Logger)
	d.Accessor = session.NewAccessor(d.IdentityFactory, cfg.App, d.Logger)
	d.Gate = session.NewGate(d.Accessor, cfg.App.LoginPath, d.Logger)

	if cfg.Platform.URL == "" {
		d.Logger.Warn("identity platform not configured, protected routes will reject all requests")
		d.AuthMiddleware = middleware.NewAuthMiddleware(&rejectAllValidator{}, d.Logger)
	} else {
		validator := identity.NewValidator(identity.ValidatorConfig{
			PlatformURL: cfg.Platform.URL,
			Audience:    cfg.Platform.JWTAudience,
			CacheTTL:    time.Hour,
			HTTPTimeout: cfg.Platform.HTTPTimeout,
		})
		d.AuthMiddleware = middleware.NewAuthMiddleware(validator, d.Logger)
	}

	cookieOpts := session.DefaultCookieOptions(d.Config.IsProduction())
	d.AuthHandler = handlers.NewAuthHandler(d.Accessor, d.Gate, cfg.App, cookieOpts, d.Logger)
	d.Logger.Info("auth handler initialized")
}

// initStorage wires the storage diagnostician. The service-role credential
// comes from the identity factory's privileged client, so every privileged
// handle in the process goes through the same gate. A downgraded or missing
// handle leaves the client nil and the diagnostician reports the missing
// configuration instead.
func (d *Dependencies) initStorage(cfg *config.Config) {
	var client *storage.Client
	if privileged, err := d.IdentityFactory.Privileged(identity.RuntimeServer); err == nil && privileged.Privileged() {
		client = storage.NewClient(privileged.BaseURL(), privileged.APIKey(), cfg.Platform.HTTPTimeout)
	} else {
		d.Logger.Warn("storage client not configured, diagnostics will report missing credentials")
	}

	diag := storage.NewDiagnostician(client, d.Logger)
	d.StorageHandler = handlers.NewStorageHandler(diag, d.Logger)
}

// rejectAllValidator rejects all tokens (used when the platform is not configured)
type rejectAllValidator struct{}

func (*rejectAllValidator) ValidateToken(context.Context, string) (*identity.ParsedClaims, error) {
	return nil, fmt.Errorf("authentication not configured")
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
