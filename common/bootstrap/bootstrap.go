package bootstrap

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/lumacast/showrunner/common/cache"
	"github.com/lumacast/showrunner/common/config"
	"github.com/lumacast/showrunner/common/db"
	"github.com/lumacast/showrunner/common/logger"
	"github.com/lumacast/showrunner/common/metrics"
	"github.com/lumacast/showrunner/common/queue"
	rediscommon "github.com/lumacast/showrunner/common/redis"
	"github.com/lumacast/showrunner/common/switcher"
	"github.com/lumacast/showrunner/common/telemetry"
)

// Setup initializes all service components.
// This is the main entry point for all services.
func Setup(ctx context.Context, serviceName string, opts ...Option) (*Components, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	components := &Components{
		cleanupFuncs: make([]func() error, 0),
	}

	// 1. Load configuration
	var err error
	if options.customConfig != nil {
		components.Config = options.customConfig
	} else {
		components.Config, err = config.Load(serviceName)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	// 2. Initialize logger
	if options.customLogger != nil {
		components.Logger = options.customLogger
	} else {
		components.Logger = logger.New(
			components.Config.Service.LogLevel,
			components.Config.Service.LogFormat,
		)
	}

	systemInfo := metrics.CaptureSystemInfo()
	components.Logger.Info("initializing service",
		"service", serviceName,
		"environment", components.Config.Service.Environment,
		"host", systemInfo.Hostname,
		"os", systemInfo.OS,
		"cpus", systemInfo.CPULogical,
		"container", systemInfo.InContainer,
	)

	// 3. Initialize database
	if !options.skipDB {
		components.Logger.Info("connecting to database")
		components.DB, err = db.New(ctx, components.Config, components.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		components.addCleanup(func() error {
			components.Logger.Info("closing database connection")
			components.DB.Close()
			return nil
		})

		if options.dbInitHook != nil {
			components.Logger.Info("running database init hook")
			if err := options.dbInitHook(components.DB); err != nil {
				components.Shutdown(ctx)
				return nil, fmt.Errorf("database init hook failed: %w", err)
			}
		}
	}

	// 4. Initialize Redis (graphics channel bus transport)
	if !options.skipRedis {
		components.Logger.Info("connecting to redis", "addr", components.Config.RedisAddr())

		rawClient := goredis.NewClient(&goredis.Options{
			Addr:     components.Config.RedisAddr(),
			Password: components.Config.Redis.Password,
			DB:       components.Config.Redis.DB,
		})
		components.Redis = rediscommon.NewClient(rawClient, components.Logger)

		if err := components.Redis.Ping(ctx); err != nil {
			components.Shutdown(ctx)
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}

		components.addCleanup(func() error {
			components.Logger.Info("closing redis connection")
			return components.Redis.Close()
		})
	}

	// 5. In-process event queue
	components.Queue = queue.NewMemoryQueue(components.Logger)
	components.addCleanup(func() error {
		components.Logger.Info("closing queue")
		return components.Queue.Close()
	})

	// 6. Cache
	if components.Config.Cache.Enabled {
		components.Cache = cache.NewMemoryCache(components.Logger)
		components.addCleanup(func() error {
			components.Logger.Info("closing cache")
			return components.Cache.Close()
		})
	}

	// 7. Switcher gateway (connects lazily on first call)
	if !options.skipSwitcher {
		client := switcher.NewClient(components.Config.Switcher, components.Logger)
		components.Switcher = client
		components.addCleanup(func() error {
			components.Logger.Info("closing switcher connection")
			return client.Close()
		})
	}

	// 8. Telemetry
	if !options.skipTelemetry && components.Config.Telemetry.EnablePprof {
		components.Logger.Info("initializing telemetry")
		components.Telemetry = telemetry.New(
			components.Config.Telemetry.PprofPort,
			components.Logger,
		)

		if err := components.Telemetry.Start(ctx); err != nil {
			components.Logger.Warn("failed to start telemetry", "error", err)
			// Don't fail startup if telemetry fails
		}
	}

	components.Logger.Info("service initialization complete",
		"service", serviceName,
		"db", components.DB != nil,
		"redis", components.Redis != nil,
		"switcher", components.Switcher != nil,
	)

	return components, nil
}

// MustSetup is like Setup but panics on error.
// Useful for services that can't recover from initialization failure.
func MustSetup(ctx context.Context, serviceName string, opts ...Option) *Components {
	components, err := Setup(ctx, serviceName, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to setup service %s: %v", serviceName, err))
	}
	return components
}
