// Package container wires the application together with samber/do.
// Each concern registers through its own provider package so the
// server and worker binaries can compose only what they need.
package container

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/shortlink-go/internal/analytics"
	"github.com/serroba/shortlink-go/internal/handlers"
	"github.com/serroba/shortlink-go/internal/health"
	"github.com/serroba/shortlink-go/internal/messaging"
	"github.com/serroba/shortlink-go/internal/middleware"
	"github.com/serroba/shortlink-go/internal/ratelimit"
	"github.com/serroba/shortlink-go/internal/scheduler"
	"github.com/serroba/shortlink-go/internal/shortlink"
	"github.com/serroba/shortlink-go/internal/store"
	"go.uber.org/zap"
)

// Options configures both binaries.
type Options struct {
	Port            int           `default:"8888"           help:"Port to listen on"                                        short:"p"`
	BaseURL         string        `default:""               help:"Public base URL for short links; defaults to http://localhost:<port>"`
	DatabaseURL     string        `default:""               help:"PostgreSQL connection string; empty runs on the in-memory store"`
	RedisAddr       string        `default:"localhost:6379" help:"Redis server address"                                     short:"r"`
	CodeLength      int           `default:"6"              help:"Length of generated short codes"                          short:"c"`
	MaxCodeAttempts int           `default:"10"             help:"Retry budget for finding a free short code"`
	ExpirationDays  int           `default:"7"              help:"Days until newly created links expire"`
	SweepInterval   time.Duration `default:"24h"            help:"Cadence of the scheduled expiry sweep"`
	StatsInterval   time.Duration `default:"1h"             help:"Cadence of stats logging; 0 disables"`
	CacheTTL        time.Duration `default:"5m"             help:"TTL for cached link lookups"`
	LogFormat       string        `default:"console"        help:"Log format: console or json"`
}

func (o *Options) baseURL() string {
	if o.BaseURL != "" {
		return o.BaseURL
	}

	return fmt.Sprintf("http://localhost:%d", o.Port)
}

// LoggerPackage provides the zap logger.
func LoggerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.LogFormat == "json" {
			return zap.NewProduction()
		}

		return zap.NewDevelopment()
	})
}

// RedisPackage provides the shared Redis client.
func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*redis.Client, error) {
		opts := do.MustInvoke[*Options](i)

		return redis.NewClient(&redis.Options{Addr: opts.RedisAddr}), nil
	})
}

// PostgresPackage provides the pgx pool. Only invoked when a database
// URL is configured.
func PostgresPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*pgxpool.Pool, error) {
		opts := do.MustInvoke[*Options](i)

		pool, err := pgxpool.New(context.Background(), opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}

		return pool, nil
	})
}

// RepositoryPackage provides the lifecycle repository: Postgres behind
// a Redis read cache when a database is configured, in-memory otherwise.
func RepositoryPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (shortlink.Repository, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.DatabaseURL == "" {
			return store.NewMemoryStore(), nil
		}

		pool := do.MustInvoke[*pgxpool.Pool](i)

		pg := store.NewPostgresStore(pool)
		if err := pg.Migrate(context.Background()); err != nil {
			return nil, fmt.Errorf("migrating schema: %w", err)
		}

		client := do.MustInvoke[*redis.Client](i)

		return store.NewRedisCacheRepository(pg, client, opts.CacheTTL), nil
	})
}

// ServicePackage provides the URL lifecycle service.
func ServicePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*shortlink.Service, error) {
		opts := do.MustInvoke[*Options](i)
		repo := do.MustInvoke[shortlink.Repository](i)
		logger := do.MustInvoke[*zap.Logger](i)

		generate, err := shortlink.NewCodeGenerator(opts.CodeLength)
		if err != nil {
			return nil, fmt.Errorf("creating code generator: %w", err)
		}

		resolver := shortlink.NewUniqueResolver(repo, generate, opts.MaxCodeAttempts)

		return shortlink.NewService(repo, resolver, opts.ExpirationDays, logger), nil
	})
}

// SchedulerPackage provides the cleanup sweeper.
func SchedulerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*scheduler.Sweeper, error) {
		opts := do.MustInvoke[*Options](i)
		svc := do.MustInvoke[*shortlink.Service](i)
		logger := do.MustInvoke[*zap.Logger](i)

		return scheduler.NewSweeper(svc, opts.SweepInterval, opts.StatsInterval, logger), nil
	})
}

// RateLimitPackage provides the request limiter on a Redis window store.
func RateLimitPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*ratelimit.Limiter, error) {
		client := do.MustInvoke[*redis.Client](i)

		return ratelimit.NewLimiter(store.NewRateLimitRedisStore(client)), nil
	})
}

// defaultLimits applies to endpoints without their own declaration.
var defaultLimits = []ratelimit.LimitConfig{
	{Window: time.Minute, Max: 120},
}

// EventBusPackage provides the usage-event publisher and the typed
// publish functions handlers depend on.
func EventBusPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.EventBus, error) {
		client := do.MustInvoke[*redis.Client](i)

		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: client},
			watermill.NopLogger{},
		)
		if err != nil {
			return nil, fmt.Errorf("creating publisher: %w", err)
		}

		return messaging.NewEventBus(publisher), nil
	})

	do.Provide(injector, func(i *do.Injector) (messaging.Publish[analytics.LinkCreatedEvent], error) {
		bus := do.MustInvoke[*messaging.EventBus](i)

		return messaging.NewPublishFunc[analytics.LinkCreatedEvent](bus.Publisher(), analytics.TopicLinkCreated), nil
	})

	do.Provide(injector, func(i *do.Injector) (messaging.Publish[analytics.LinkAccessedEvent], error) {
		bus := do.MustInvoke[*messaging.EventBus](i)

		return messaging.NewPublishFunc[analytics.LinkAccessedEvent](bus.Publisher(), analytics.TopicLinkAccessed), nil
	})
}

// HTTPPackage provides the router and API with all routes registered.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		router := do.MustInvoke[*chi.Mux](i)
		logger := do.MustInvoke[*zap.Logger](i)
		svc := do.MustInvoke[*shortlink.Service](i)
		limiter := do.MustInvoke[*ratelimit.Limiter](i)

		api := humachi.New(router, huma.DefaultConfig("Shortlink API", "1.0.0"))
		api.UseMiddleware(
			middleware.RequestMeta(api),
			middleware.RateLimiter(api, limiter, defaultLimits, logger),
		)

		linkHandler := handlers.NewLinkHandler(
			svc,
			opts.baseURL(),
			do.MustInvoke[messaging.Publish[analytics.LinkCreatedEvent]](i),
			do.MustInvoke[messaging.Publish[analytics.LinkAccessedEvent]](i),
			logger,
		)
		adminHandler := handlers.NewAdminHandler(svc, logger)

		var dbChecker health.Checker
		if opts.DatabaseURL != "" {
			dbChecker = health.NewPostgresChecker(do.MustInvoke[*pgxpool.Pool](i))
		}

		cacheChecker := health.NewRedisChecker(do.MustInvoke[*redis.Client](i))

		health.RegisterRoutes(api, health.NewHandler(dbChecker, cacheChecker))
		handlers.RegisterRoutes(api, linkHandler, adminHandler)

		return api, nil
	})
}

// ConsumerGroupPackage provides the usage-event consumers for the
// worker binary.
func ConsumerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		client := do.MustInvoke[*redis.Client](i)
		logger := do.MustInvoke[*zap.Logger](i)

		subscriber, err := redisstream.NewSubscriber(
			redisstream.SubscriberConfig{
				Client:        client,
				ConsumerGroup: "shortlink-analytics",
			},
			watermill.NopLogger{},
		)
		if err != nil {
			return nil, fmt.Errorf("creating subscriber: %w", err)
		}

		recorder := analytics.NewRecorder(analytics.NewRedisStore(client), logger)

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(messaging.NewConsumer(subscriber, analytics.TopicLinkCreated, recorder.HandleLinkCreated, logger))
		group.Add(messaging.NewConsumer(subscriber, analytics.TopicLinkAccessed, recorder.HandleLinkAccessed, logger))

		return group, nil
	})
}
