package app

import (
	"fmt"
	"strings"
	"time"

	"replybot/internal/generate"
	"replybot/internal/mentions"
	"replybot/internal/retry"
	"replybot/internal/schedule"
	"replybot/internal/server"
	"replybot/internal/storage"
	logx "replybot/pkg/logx"
)

func mapLogConfig(cfg *Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Memory: logx.MemoryConfig{
			Enabled: cfg.Logging.Memory.Enabled,
			Size:    cfg.Logging.Memory.Size,
		},
	}
}

func mapStorageConfig(cfg *Config) (storage.Config, error) {
	if cfg.Storage == nil {
		return storage.Config{}, nil
	}
	busy, err := parseDurationOrDefault("storage.busy_timeout", cfg.Storage.BusyTimeout, 0)
	if err != nil {
		return storage.Config{}, err
	}
	return storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: busy,
	}, nil
}

func mapCoordinatorConfig(cfg *Config) (schedule.CoordinatorConfig, error) {
	interval, err := parseDurationOrDefault("agent.reply_interval", cfg.Agent.ReplyInterval, 16*time.Minute)
	if err != nil {
		return schedule.CoordinatorConfig{}, err
	}
	return schedule.CoordinatorConfig{
		Interval:   interval,
		MaxReplies: cfg.Agent.MaxReplies,
	}, nil
}

func mapRetryPolicy(cfg *Config) (retry.Policy, error) {
	base, err := parseDurationOrDefault("agent.retry.base", cfg.Agent.Retry.Base, time.Second)
	if err != nil {
		return retry.Policy{}, err
	}
	return retry.Policy{
		Attempts: cfg.Agent.Retry.Attempts,
		Base:     base,
	}, nil
}

func mapServerConfig(cfg *Config) (server.Config, error) {
	if cfg.Server == nil {
		return server.Config{}, nil
	}
	s := cfg.Server
	window, err := parseDurationOrDefault("server.rate_limit.window", s.RateLimit.Window, 15*time.Minute)
	if err != nil {
		return server.Config{}, err
	}
	readT, err := parseDurationOrDefault("server.read_timeout", s.ReadTimeout, 10*time.Second)
	if err != nil {
		return server.Config{}, err
	}
	writeT, err := parseDurationOrDefault("server.write_timeout", s.WriteTimeout, 30*time.Second)
	if err != nil {
		return server.Config{}, err
	}
	idleT, err := parseDurationOrDefault("server.idle_timeout", s.IdleTimeout, time.Minute)
	if err != nil {
		return server.Config{}, err
	}
	return server.Config{
		Enabled:           s.Enabled,
		Addr:              s.Addr,
		JWTSecret:         s.JWTSecret,
		RateLimitRequests: s.RateLimit.Requests,
		RateLimitWindow:   window,
		ReadTimeout:       readT,
		WriteTimeout:      writeT,
		IdleTimeout:       idleT,
	}, nil
}

func mapMentionsConfig(cfg *Config) mentions.Config {
	if cfg.Mentions == nil {
		return mentions.Config{}
	}
	return mentions.Config{
		Enabled: cfg.Mentions.Enabled,
		Spec:    cfg.Mentions.Spec,
	}
}

// buildRouter assembles the generation backends from the providers section.
// At least one provider must be configured.
func buildRouter(cfg *Config, policy retry.Policy, log logx.Logger) (*generate.Router, error) {
	var backends []generate.Generator
	if g := cfg.Providers.Gemini; g != nil {
		backends = append(backends, generate.NewGemini(generate.GeminiOptions{
			APIKey:  g.APIKey,
			Model:   g.Model,
			BaseURL: g.BaseURL,
		}))
	}
	if a := cfg.Providers.Azure; a != nil {
		backends = append(backends, generate.NewAzure(generate.AzureOptions{
			Endpoint:   a.Endpoint,
			APIKey:     a.APIKey,
			Deployment: a.Deployment,
			APIVersion: a.APIVersion,
		}))
	}
	if len(backends) == 0 {
		return nil, fmt.Errorf("providers: at least one of gemini/azure must be configured")
	}
	def := strings.TrimSpace(cfg.Providers.Default)
	return generate.NewRouter(log.With(logx.String("comp", "generate")), policy, def, backends...), nil
}
