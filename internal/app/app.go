// Package app wires configuration into the running object graph shared
// by the server and the interactive CLI.
package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pharmagen-dev/pharmagen/internal/chat"
	"github.com/pharmagen-dev/pharmagen/internal/llm/provider"
	"github.com/pharmagen-dev/pharmagen/internal/report"
	"github.com/pharmagen-dev/pharmagen/internal/respond"
	"github.com/pharmagen-dev/pharmagen/internal/translate"
	"github.com/pharmagen-dev/pharmagen/pkg/cache"
	"github.com/pharmagen-dev/pharmagen/pkg/config"
	"github.com/pharmagen-dev/pharmagen/pkg/observability"
	"github.com/pharmagen-dev/pharmagen/pkg/ratelimit"
)

// App is the assembled application graph.
type App struct {
	Config   *config.Config
	Engine   *chat.Engine
	Exporter *report.Exporter
	Health   *observability.HealthChecker
	Logger   *slog.Logger
}

// New builds the application from a validated configuration.
func New(cfg *config.Config) (*App, error) {
	logger := newLogger(cfg.LogLevel)
	observability.InitMetrics()

	p, err := buildProvider(cfg)
	if err != nil {
		return nil, err
	}
	p = provider.NewThrottledProvider(p, cfg.ModelCallsPerSecond, cfg.ModelCallBurst)

	translator := translate.New(p, buildCache(cfg, logger), cfg.Cache.TTL(),
		translate.WithModel(cfg.ModelName),
		translate.WithTemperature(cfg.TranslationTemp),
		translate.WithLogger(logger))

	responder := respond.New(p, respond.Config{
		Model:         cfg.ModelName,
		DiagnosisTemp: cfg.Temperature,
		QnATemp:       cfg.Temperature,
	}, logger)

	engine := chat.NewEngine(buildLimiter(cfg, logger), translator, responder, cfg.MaxMessageLength, logger)
	exporter := report.NewExporter(cfg.Report.Enabled, cfg.Report.OutputDir, cfg.Report.ShowDisclaimer, logger)

	health := observability.NewHealthChecker()
	health.RegisterCheck(observability.PingCheck())

	return &App{
		Config:   cfg,
		Engine:   engine,
		Exporter: exporter,
		Health:   health,
		Logger:   logger,
	}, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}

func buildProvider(cfg *config.Config) (provider.Provider, error) {
	opts := map[string]any{}
	switch cfg.Provider {
	case "gemini":
		opts["api_key"] = cfg.GeminiAPIKey
	case "openai":
		opts["api_key"] = cfg.OpenAIAPIKey
	}
	p, err := provider.Create(cfg.Provider, opts)
	if err != nil {
		return nil, fmt.Errorf("app: create provider %q: %w", cfg.Provider, err)
	}
	return p, nil
}

// buildCache prefers the shared redis store and degrades to the
// in-process cache when redis is unavailable.
func buildCache(cfg *config.Config, logger *slog.Logger) cache.Cache {
	if !cfg.Cache.Enabled {
		return cache.Disabled()
	}
	if cfg.Redis.Enabled {
		c, err := cache.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err == nil {
			return c
		}
		logger.Warn("redis cache unavailable, using in-process cache", "addr", cfg.Redis.Addr, "error", err)
	}
	return cache.NewMemory()
}

// buildLimiter mirrors buildCache's degradation for the rate limiter.
func buildLimiter(cfg *config.Config, logger *slog.Logger) ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return ratelimit.Disabled()
	}
	if cfg.Redis.Enabled {
		l, err := ratelimit.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			cfg.RateLimit.PerMinute, cfg.RateLimit.PerHour, logger)
		if err == nil {
			return l
		}
		logger.Warn("redis rate limiter unavailable, using in-process limiter", "addr", cfg.Redis.Addr, "error", err)
	}
	return ratelimit.NewSlidingWindow(cfg.RateLimit.PerMinute, cfg.RateLimit.PerHour)
}
