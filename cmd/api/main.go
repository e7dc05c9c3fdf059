package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/davidleathers/zero-trust-access-engine/internal/api/rest"
	"github.com/davidleathers/zero-trust-access-engine/internal/infrastructure/auditlog"
	"github.com/davidleathers/zero-trust-access-engine/internal/infrastructure/cache"
	"github.com/davidleathers/zero-trust-access-engine/internal/infrastructure/config"
	"github.com/davidleathers/zero-trust-access-engine/internal/infrastructure/database"
	"github.com/davidleathers/zero-trust-access-engine/internal/infrastructure/geoip"
	"github.com/davidleathers/zero-trust-access-engine/internal/infrastructure/telemetry"
	"github.com/davidleathers/zero-trust-access-engine/internal/infrastructure/threatintel"
	"github.com/davidleathers/zero-trust-access-engine/internal/metrics"
	"github.com/davidleathers/zero-trust-access-engine/internal/service/zerotrust"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to configuration file")
		migrate    = flag.Bool("migrate", false, "Apply database migrations before serving")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := telemetry.NewLogger(cfg.LogLevel, cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *migrate, logger); err != nil {
		logger.Fatal("access engine stopped with error", zap.Error(err))
	}
	logger.Info("access engine stopped")
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

func run(ctx context.Context, cfg *config.Config, migrate bool, logger *zap.Logger) error {
	provider, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	if migrate {
		if err := database.Migrate(cfg.Database.URL); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		logger.Info("database migrations applied")
	}

	pool, err := database.NewPool(ctx, &cfg.Database, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	cacheManager, err := cache.NewCacheManager(&cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer func() { _ = cacheManager.Close() }()

	location, err := cfg.ZeroTrust.Location()
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	engineMetrics := metrics.NewRegistry(registry)

	deps := zerotrust.Dependencies{
		Devices:    database.NewDeviceRepository(pool),
		Locations:  database.NewLocationRepository(pool),
		Threats:    threatintel.NewFeed(cacheManager.Client(), logger),
		Behavior:   database.NewBehaviorRepository(pool, database.DefaultHistoryLookback),
		Compliance: database.NewComplianceRepository(pool),
		Metrics:    engineMetrics,
		Logger:     logger,
	}

	switch cfg.ZeroTrust.StoreBackend {
	case "redis":
		deps.Baselines = cacheManager.Baselines
		deps.Sessions = cacheManager.Sessions
	default:
		deps.Baselines = cache.NewMemoryBaselineStore()
		deps.Sessions = cache.NewMemorySessionStore()
	}

	switch cfg.Audit.Sink {
	case "file":
		auditLog, err := auditlog.Open(cfg.Audit.FilePath)
		if err != nil {
			return err
		}
		defer func() { _ = auditLog.Close() }()
		deps.Audit = auditLog
	default:
		deps.Audit = database.NewSecurityEventRepository(pool)
	}

	if cfg.GeoIP.DatabasePath != "" {
		resolver, err := geoip.Open(cfg.GeoIP.DatabasePath)
		if err != nil {
			return err
		}
		defer func() { _ = resolver.Close() }()
		deps.Resolver = resolver
	}

	svc, err := zerotrust.NewService(deps, zerotrust.Config{
		BusinessHoursStart:  cfg.ZeroTrust.BusinessHoursStart,
		BusinessHoursEnd:    cfg.ZeroTrust.BusinessHoursEnd,
		Location:            location,
		CollaboratorTimeout: cfg.ZeroTrust.CollaboratorTimeout,
		BehaviorWindow:      cfg.ZeroTrust.BehaviorWindow,
		RiskWindow:          cfg.ZeroTrust.RiskWindow,
		BaselineMaxAge:      cfg.ZeroTrust.BaselineMaxAge,
		AnomalyThreshold:    cfg.ZeroTrust.AnomalyThreshold,
		HighRiskKeywords:    cfg.ZeroTrust.HighRiskKeywords,
	})
	if err != nil {
		return fmt.Errorf("create access engine: %w", err)
	}

	routerCfg := rest.RouterConfig{
		Service:     svc,
		Logger:      logger,
		Version:     cfg.Version,
		Metrics:     engineMetrics,
		Gatherer:    registry,
		RateLimiter: rest.NewRateLimiter(float64(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.BurstSize),
	}
	if cfg.Auth.Enabled {
		routerCfg.Authenticator = rest.NewAuthenticator(rest.AuthConfig{
			Secret: []byte(cfg.Auth.JWTSecret),
			Issuer: cfg.Auth.Issuer,
		})
	}

	logger.Info("starting access engine",
		zap.String("version", cfg.Version),
		zap.String("environment", cfg.Environment),
		zap.String("store_backend", cfg.ZeroTrust.StoreBackend),
		zap.String("audit_sink", cfg.Audit.Sink),
	)

	return rest.NewServer(cfg.Server, rest.NewRouter(routerCfg), logger).Run(ctx)
}
