package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"replybot/internal/agent"
	"replybot/internal/eventbus"
	"replybot/internal/mentions"
	"replybot/internal/schedule"
	"replybot/internal/server"
	"replybot/internal/storage"
	"replybot/internal/twitter"
	logx "replybot/pkg/logx"
)

type App struct {
	cfgPath string

	cfgm *ConfigManager
	sup  *Supervisor

	log   logx.Logger
	logs  *logx.Service
	bus   eventbus.Bus
	store schedule.Store

	tw *twitter.Client

	agent    *agent.Service
	reg      *schedule.JobRegistry
	coord    *schedule.Coordinator
	reporter *schedule.Reporter
	mentions *mentions.Service
	server   *server.Service
}

func NewApp(cfgPath string) (*App, error) {
	cfgm := NewConfigManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(mapLogConfig(cfg))
	log = log.With(logx.String("comp", "app"))

	bus := eventbus.New()

	// Storage: defaults to the in-memory store when the section is omitted.
	sc, err := mapStorageConfig(cfg)
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(sc, log.With(logx.String("comp", "storage")))
	if err != nil {
		return nil, err
	}

	tw := twitter.New(twitter.Options{
		APIKey:       cfg.Twitter.APIKey,
		APISecret:    cfg.Twitter.APISecret,
		AccessToken:  cfg.Twitter.AccessToken,
		AccessSecret: cfg.Twitter.AccessSecret,
		Username:     cfg.Twitter.Username,
		BaseURL:      cfg.Twitter.BaseURL,
		Logger:       log.With(logx.String("comp", "twitter")),
	})

	policy, err := mapRetryPolicy(cfg)
	if err != nil {
		return nil, err
	}
	router, err := buildRouter(cfg, policy, log)
	if err != nil {
		return nil, err
	}

	agentSvc := agent.New(tw, router, tw, log)

	coordCfg, err := mapCoordinatorConfig(cfg)
	if err != nil {
		return nil, err
	}
	reg := schedule.NewRegistry()
	coord := schedule.NewCoordinator(coordCfg, agentSvc, store, reg, bus, log)
	reporter := schedule.NewReporter(store)

	mentionsSvc := mentions.New(mapMentionsConfig(cfg), tw, agentSvc, bus,
		log.With(logx.String("comp", "mentions")))

	srvCfg, err := mapServerConfig(cfg)
	if err != nil {
		return nil, err
	}
	srv := server.New(srvCfg, server.Deps{
		Scheduler: coord,
		OneShot:   agentSvc,
		Status:    reporter,
		Logs:      logSvc,
	}, log.With(logx.String("comp", "server")))

	return &App{
		cfgPath:  cfgPath,
		cfgm:     cfgm,
		log:      log,
		logs:     logSvc,
		bus:      bus,
		store:    store,
		tw:       tw,
		agent:    agentSvc,
		reg:      reg,
		coord:    coord,
		reporter: reporter,
		mentions: mentionsSvc,
		server:   srv,
	}, nil
}

// Coordinator exposes the schedule trigger path (used by operational tooling).
func (a *App) Coordinator() *schedule.Coordinator { return a.coord }

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = NewSupervisor(ctx, WithLogger(a.log), WithCancelOnError(true))

	// Transactional config reload: validate before commit/publish.
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(c context.Context, cfg *Config) error {
		if _, err := mapCoordinatorConfig(cfg); err != nil {
			return err
		}
		if _, err := mapRetryPolicy(cfg); err != nil {
			return err
		}
		if _, err := mapServerConfig(cfg); err != nil {
			return err
		}
		if _, err := mapStorageConfig(cfg); err != nil {
			return err
		}
		if cfg.Providers.Gemini == nil && cfg.Providers.Azure == nil {
			return fmt.Errorf("providers: at least one of gemini/azure must be configured")
		}
		if cfg.Agent.MaxReplies < 0 {
			return fmt.Errorf("agent.max_replies must be >= 0")
		}
		return nil
	})

	if err := a.mentions.Start(); err != nil && !errors.Is(err, mentions.ErrDisabled) {
		return err
	}
	if a.server.Enabled() {
		a.server.Start(a.sup.Context())
	}

	// Log events for observability/debug (components can also subscribe themselves).
	events, unsub := a.bus.Subscribe(128)
	a.sup.Go0("eventbus.log", func(c context.Context) {
		defer unsub()
		for {
			select {
			case <-c.Done():
				return
			case e, ok := <-events:
				if !ok {
					return
				}
				a.log.Debug("event", logx.String("type", e.Type), logx.Time("time", e.Time))
			}
		}
	})

	// Hot reload config fan-out.
	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		lastApplied := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				// Coalesce bursts: keep only the latest config in the channel.
				for {
					select {
					case newer := <-sub:
						if newer != nil {
							newCfg = newer
						}
					default:
						goto APPLY
					}
				}
			APPLY:
				sections, attrs := SummarizeConfigChange(lastApplied, newCfg)
				if len(sections) == 0 {
					a.log.Debug("config reload received, but no effective changes detected")
					continue
				}
				fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
				a.log.Debug("config change summary", fields...)
				lastApplied = newCfg

				a.applyReload(c, newCfg, sections)

				if a.bus != nil {
					a.bus.Publish(eventbus.Event{
						Type: eventbus.TypeConfigApplied,
						Data: map[string]any{"changed": sections},
					})
				}
				a.log.Info("config reloaded", fields...)
			}
		}
	})

	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})

	a.log.Info("app started")
	return nil
}

// applyReload pushes a validated config into the running services. Sections
// that require a rebuild of long-lived clients (twitter, providers, agent
// pacing, storage) only take effect after a restart.
func (a *App) applyReload(ctx context.Context, cfg *Config, sections []string) {
	a.logs.Apply(mapLogConfig(cfg))

	if err := a.mentions.Apply(mapMentionsConfig(cfg)); err != nil {
		a.log.Warn("invalid mentions config; keeping previous", logx.Err(err))
	}

	if srvCfg, err := mapServerConfig(cfg); err != nil {
		a.log.Warn("invalid server config; keeping previous", logx.Err(err))
	} else {
		a.server.Reconfigure(ctx, srvCfg)
	}

	for _, s := range sections {
		switch s {
		case "twitter", "providers", "agent", "storage":
			a.log.Warn("config change requires restart to take effect", logx.String("section", s))
		}
	}
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))

	// Cancel the app run context so background loops start unwinding immediately.
	a.sup.Cancel()

	// Helper: run a shutdown step with an upper bound so one component can't
	// stall the whole stop.
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		start := time.Now()

		stepCtx := ctx
		var cancel context.CancelFunc
		if max > 0 {
			// Respect the caller's deadline; never extend it.
			if dl, ok := ctx.Deadline(); ok {
				rem := time.Until(dl)
				if rem <= 0 {
					max = 0
				} else if rem < max {
					max = rem
				}
			}
			if max > 0 {
				stepCtx, cancel = context.WithTimeout(ctx, max)
				defer cancel()
			}
		}

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			}
			a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)",
				logx.String("name", name),
				logx.Duration("elapsed", time.Since(start)),
			)
		}
	}

	// Stop accepting work first, then drain background jobs, then close storage.
	step("server", 3*time.Second, func(c context.Context) error { a.server.Stop(c); return nil })
	step("mentions", 2*time.Second, func(c context.Context) error { return a.mentions.Stop(c) })
	step("schedules", 5*time.Second, func(c context.Context) error { a.reg.Stop(); return nil })
	step("storage", 1*time.Second, func(c context.Context) error { return a.store.Close() })

	// Finally, wait for supervised goroutines (config watch/reload, event log).
	step("supervisor", 2*time.Second, func(c context.Context) error { return a.sup.Wait(c) })

	a.log.Info("stopped")
	_ = a.logs.Close()
	return nil
}
