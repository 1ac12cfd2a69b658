// Package container provides dependency injection using Uber FX
// This implements the Dependency Inversion Principle from SOLID
package container

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/giuseppemarasca93/dietcoach/internal/application/aiplan"
	"github.com/giuseppemarasca93/dietcoach/internal/application/planning"
	"github.com/giuseppemarasca93/dietcoach/internal/application/plans"
	"github.com/giuseppemarasca93/dietcoach/internal/application/recipe"
	"github.com/giuseppemarasca93/dietcoach/internal/application/retry"
	"github.com/giuseppemarasca93/dietcoach/internal/application/search"
	"github.com/giuseppemarasca93/dietcoach/internal/application/settings"
	"github.com/giuseppemarasca93/dietcoach/internal/domain/mealplan"
	"github.com/giuseppemarasca93/dietcoach/internal/infrastructure/ai/gemini"
	"github.com/giuseppemarasca93/dietcoach/internal/infrastructure/ai/openai"
	"github.com/giuseppemarasca93/dietcoach/internal/infrastructure/config"
	"github.com/giuseppemarasca93/dietcoach/internal/infrastructure/edamam"
	"github.com/giuseppemarasca93/dietcoach/internal/infrastructure/http/handlers"
	"github.com/giuseppemarasca93/dietcoach/internal/infrastructure/http/middleware"
	"github.com/giuseppemarasca93/dietcoach/internal/infrastructure/http/server"
	"github.com/giuseppemarasca93/dietcoach/internal/infrastructure/messaging"
	"github.com/giuseppemarasca93/dietcoach/internal/infrastructure/messaging/kafka"
	"github.com/giuseppemarasca93/dietcoach/internal/infrastructure/monitoring"
	gormRepo "github.com/giuseppemarasca93/dietcoach/internal/infrastructure/persistence/gorm"
	"github.com/giuseppemarasca93/dietcoach/internal/infrastructure/persistence/memory"
	"github.com/giuseppemarasca93/dietcoach/internal/infrastructure/persistence/postgres"
	redisRepo "github.com/giuseppemarasca93/dietcoach/internal/infrastructure/persistence/redis"
	"github.com/giuseppemarasca93/dietcoach/internal/infrastructure/persistence/sqlite"
	"github.com/giuseppemarasca93/dietcoach/internal/ports/inbound"
	"github.com/giuseppemarasca93/dietcoach/internal/ports/outbound"
	"github.com/giuseppemarasca93/dietcoach/pkg/logger"
)

// ConfigPath names the configuration file; empty searches the default locations
type ConfigPath string

// Module provides all dependency injection modules
var Module = fx.Options(
	// Infrastructure modules
	ConfigModule,
	LoggerModule,
	DatabaseModule,
	CacheModule,
	MonitoringModule,

	// Repository modules
	RepositoryModule,

	// Outbound adapters
	ProviderModule,
	EventModule,

	// Service modules
	ServiceModule,

	// HTTP modules
	HTTPModule,

	// Lifecycle hooks
	LifecycleModule,
)

// ConfigModule provides configuration
var ConfigModule = fx.Provide(
	func(path ConfigPath) (*config.Config, error) {
		return config.Load(string(path))
	},
)

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, zap.AtomicLevel, error) {
		return logger.NewWithLevel(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
		})
	},
)

// Database is the open gorm handle plus its pool
type Database struct {
	DB  *gorm.DB
	SQL *sql.DB
}

// DatabaseModule provides database connections
var DatabaseModule = fx.Provide(
	NewDatabase,
	func(d *Database) *gorm.DB { return d.DB },
)

// NewDatabase opens the configured driver and closes it on shutdown
func NewDatabase(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*Database, error) {
	var db *Database
	switch cfg.Database.Driver {
	case "postgres":
		cm, err := postgres.NewConnectionManager(cfg, log)
		if err != nil {
			return nil, err
		}
		db = &Database{DB: cm.GetDB(), SQL: cm.SQLDB()}
		lc.Append(fx.StopHook(cm.Close))

	default:
		gdb, err := sqlite.SetupDatabase(cfg.Database.Path,
			gormRepo.NewLogger(log.Named("gorm"), cfg.Database.LogLevel, cfg.Database.SlowQueryThreshold))
		if err != nil {
			return nil, fmt.Errorf("failed to setup SQLite database: %w", err)
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		db = &Database{DB: gdb, SQL: sqlDB}
		lc.Append(fx.StopHook(sqlDB.Close))

		log.Info("Connected to SQLite database", zap.String("path", cfg.Database.Path))
	}

	return db, nil
}

// CacheModule provides the external search cache and, when used, the Redis client
var CacheModule = fx.Provide(
	NewRedisClient,
	NewCacheRepository,
)

// NewRedisClient connects to Redis when the cache driver needs it. It returns
// nil otherwise.
func NewRedisClient(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (redis.UniversalClient, error) {
	if cfg.Cache.Driver != "redis" {
		return nil, nil
	}
	client, err := redisRepo.NewClient(cfg.Redis, log.Named("redis"))
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(client.Close))
	return client, nil
}

// NewCacheRepository selects the cache implementation
func NewCacheRepository(lc fx.Lifecycle, cfg *config.Config, client redis.UniversalClient, log *zap.Logger) outbound.CacheRepository {
	if client != nil {
		return redisRepo.NewCacheRepository(client, cfg.Redis.KeyPrefix, log.Named("cache"))
	}

	cache := memory.NewCacheRepository(cfg.Cache.MaxEntries, cfg.Cache.TTL, cfg.Cache.SweepInterval)
	lc.Append(fx.StopHook(cache.Close))
	log.Info("Using in-memory search cache",
		zap.Int("max_entries", cfg.Cache.MaxEntries),
		zap.Duration("ttl", cfg.Cache.TTL),
	)
	return cache
}

// MonitoringModule provides metrics and tracing
var MonitoringModule = fx.Provide(
	monitoring.NewMetricsCollector,
	func(m *monitoring.MetricsCollector) outbound.Metrics { return m },
	NewTracingProvider,
)

// NewTracingProvider installs the global tracer provider
func NewTracingProvider(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
	tp, err := monitoring.NewTracingProvider(context.Background(), monitoring.TracingConfig{
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		OTLPEndpoint:   cfg.Monitoring.OTLPEndpoint,
		SamplingRate:   cfg.Monitoring.SamplingRate,
		Enabled:        cfg.Monitoring.EnableTracing,
	}, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(tp.Shutdown))
	return tp, nil
}

// RepositoryModule provides repository implementations
var RepositoryModule = fx.Provide(
	fx.Annotate(gormRepo.NewRecipeRepository, fx.As(new(outbound.RecipeRepository))),
	fx.Annotate(gormRepo.NewMacroProfileRepository, fx.As(new(outbound.MacroProfileRepository))),
	fx.Annotate(gormRepo.NewPreferencesRepository, fx.As(new(outbound.PreferencesRepository))),
	fx.Annotate(gormRepo.NewWeeklyIntentRepository, fx.As(new(outbound.WeeklyIntentRepository))),
	fx.Annotate(gormRepo.NewMealPlanRepository, fx.As(new(outbound.MealPlanRepository))),
)

// ProviderModule provides the text generation and recipe search adapters
var ProviderModule = fx.Provide(
	NewTextGenerator,
	func(cfg *config.Config, log *zap.Logger) outbound.RecipeSearchProvider {
		return edamam.NewClient(edamam.Config{
			AppID:   cfg.Edamam.AppID,
			AppKey:  cfg.Edamam.AppKey,
			BaseURL: cfg.Edamam.BaseURL,
			Timeout: cfg.Edamam.Timeout,
		}, log)
	},
)

// NewTextGenerator builds the configured AI provider. It returns nil when the
// provider has no API key, which leaves the ai strategy unavailable.
func NewTextGenerator(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (outbound.TextGenerator, error) {
	switch cfg.AI.Provider {
	case gemini.ProviderName:
		if cfg.AI.GeminiKey == "" {
			log.Warn("Gemini API key missing, AI plan generation disabled")
			return nil, nil
		}
		client, err := gemini.NewClient(context.Background(), gemini.Config{
			APIKey:      cfg.AI.GeminiKey,
			Model:       cfg.AI.GeminiModel,
			MaxTokens:   cfg.AI.MaxTokens,
			Temperature: cfg.AI.Temperature,
		}, log)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.StopHook(client.Close))
		return client, nil

	default:
		if cfg.AI.OpenAIKey == "" {
			log.Warn("OpenAI API key missing, AI plan generation disabled")
			return nil, nil
		}
		return openai.NewClient(openai.Config{
			APIKey:      cfg.AI.OpenAIKey,
			BaseURL:     cfg.AI.OpenAIBaseURL,
			Model:       cfg.AI.OpenAIModel,
			MaxTokens:   cfg.AI.MaxTokens,
			Temperature: cfg.AI.Temperature,
			Timeout:     cfg.AI.Timeout,
		}, log), nil
	}
}

// EventModule provides the plan event publisher
var EventModule = fx.Provide(
	NewEventPublisher,
)

// NewEventPublisher publishes to Kafka when enabled and to the log otherwise
func NewEventPublisher(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (outbound.EventPublisher, error) {
	if !cfg.Kafka.Enabled {
		return messaging.NewLogPublisher(log), nil
	}

	publisher, err := kafka.NewPublisher(kafka.Config{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    cfg.Kafka.Topic,
		ClientID: cfg.Kafka.ClientID,
		RetryMax: cfg.Kafka.RetryMax,
	}, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(publisher.Close))
	return publisher, nil
}

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	NewGenerator,
	NewPlanningService,
	func(provider outbound.RecipeSearchProvider, cache outbound.CacheRepository, metrics outbound.Metrics, cfg *config.Config, log *zap.Logger) *search.Fetcher {
		return search.NewFetcher(provider, cache, metrics, search.Config{
			CacheTTL:          cfg.Cache.TTL,
			RequestsPerSecond: cfg.Edamam.RequestsPerSecond,
			Retry: retry.Policy{
				MaxAttempts: cfg.Edamam.MaxAttempts,
				BaseBackoff: cfg.Edamam.BaseBackoff,
			},
		}, log)
	},
	fx.Annotate(
		func(repo outbound.RecipeRepository, fetcher *search.Fetcher, log *zap.Logger) *recipe.RecipeService {
			return recipe.NewRecipeService(repo, fetcher, log)
		},
		fx.As(new(inbound.RecipeService)),
	),
	fx.Annotate(
		func(
			profiles outbound.MacroProfileRepository,
			prefs outbound.PreferencesRepository,
			intents outbound.WeeklyIntentRepository,
			cfg *config.Config,
			log *zap.Logger,
		) *settings.Service {
			return settings.NewService(profiles, prefs, intents, cfg.Planner.Policy(), log)
		},
		fx.As(new(inbound.SettingsService)),
	),
	fx.Annotate(plans.NewService, fx.As(new(inbound.MealPlanService))),
)

// NewGenerator wraps the text generator with retries and validation. Nil when
// no provider is configured.
func NewGenerator(
	textGen outbound.TextGenerator,
	recipes outbound.RecipeRepository,
	metrics outbound.Metrics,
	cfg *config.Config,
	log *zap.Logger,
) *aiplan.Generator {
	if textGen == nil {
		return nil
	}
	return aiplan.NewGenerator(textGen, recipes, aiplan.Config{
		MaxAttempts: cfg.AI.MaxAttempts,
		BaseBackoff: cfg.AI.BaseBackoff,
	}, log, aiplan.WithMetrics(metrics))
}

// PlanningParams groups the planning service dependencies
type PlanningParams struct {
	fx.In

	Config      *config.Config
	Logger      *zap.Logger
	Recipes     outbound.RecipeRepository
	Profiles    outbound.MacroProfileRepository
	Preferences outbound.PreferencesRepository
	Intents     outbound.WeeklyIntentRepository
	Plans       outbound.MealPlanRepository
	Generator   *aiplan.Generator
	Events      outbound.EventPublisher
	Metrics     outbound.Metrics
}

// NewPlanningService builds the unified generation service
func NewPlanningService(p PlanningParams) inbound.PlanningService {
	assembler := mealplan.NewAssembler(mealplan.NewMatcher(p.Config.Planner.MatcherConfig()))
	return planning.NewService(
		planning.Repositories{
			Recipes:     p.Recipes,
			Profiles:    p.Profiles,
			Preferences: p.Preferences,
			Intents:     p.Intents,
			Plans:       p.Plans,
		},
		assembler,
		p.Generator,
		p.Events,
		p.Metrics,
		planning.Config{
			DefaultMealsPerDay: p.Config.Planner.DefaultMealsPerDay,
			IntentPolicy:       p.Config.Planner.Policy(),
		},
		p.Logger,
	)
}

// HTTPModule provides HTTP server and handlers
var HTTPModule = fx.Provide(
	middleware.New,
	handlers.New,
	NewHealthCheck,
	server.NewServer,
)

// HealthParams groups the dependencies the health report inspects
type HealthParams struct {
	fx.In

	Config  *config.Config
	DB      *Database
	Cache   outbound.CacheRepository
	TextGen outbound.TextGenerator
	Logger  *zap.Logger
}

// NewHealthCheck checks the database, the search cache and the AI provider
func NewHealthCheck(p HealthParams) *monitoring.Health {
	h := monitoring.NewHealth(p.Config.App.Version, p.Logger)
	h.Add("database", monitoring.DatabaseCheck(p.DB.SQL))
	h.Add("search_cache", monitoring.SearchCacheCheck(p.Cache, p.Config.Cache.Driver))
	h.Add("plan_provider", monitoring.PlanProviderCheck(p.Config.AI.Provider, p.TextGen))
	return h
}

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterLifecycleHooks,
)

// LifecycleParams groups what the lifecycle hooks touch
type LifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Config     *config.Config
	ConfigPath ConfigPath
	Logger     *zap.Logger
	Level      zap.AtomicLevel
	Database   *Database
	Metrics    *monitoring.MetricsCollector
	Server     *server.Server
}

// RegisterLifecycleHooks registers application lifecycle hooks
func RegisterLifecycleHooks(p LifecycleParams) {
	log := p.Logger
	stopStats := make(chan struct{})

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting dietcoach",
				zap.String("version", p.Config.App.Version),
				zap.String("environment", p.Config.App.Environment),
				zap.String("database", p.Config.Database.Driver),
				zap.String("ai_provider", p.Config.AI.Provider),
			)

			config.Watch(string(p.ConfigPath), log, func(updated *config.Config) {
				p.Level.SetLevel(logger.ParseLevel(updated.App.LogLevel))
			})

			go reportPoolStats(p.Database.SQL, p.Metrics, 15*time.Second, stopStats)

			go func() {
				if err := p.Server.Start(); err != nil {
					log.Error("HTTP server stopped", zap.Error(err))
					_ = p.Shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down dietcoach")
			close(stopStats)

			shutdownCtx, cancel := context.WithTimeout(ctx, p.Config.Server.ShutdownTimeout)
			defer cancel()
			if err := p.Server.Shutdown(shutdownCtx); err != nil {
				log.Error("Failed to shutdown HTTP server", zap.Error(err))
			}

			_ = log.Sync()
			return nil
		},
	})
}

func reportPoolStats(db *sql.DB, metrics *monitoring.MetricsCollector, every time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		stats := db.Stats()
		metrics.UpdateDBConnections(stats.InUse, stats.Idle)
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}
