// Package app wires the daemon together: config manager, logging, store,
// gateway, dispatcher, jobs, scheduler and the admin API.
package app

import (
	"context"
	"fmt"
	"sync"

	"stagepush/internal/admin"
	"stagepush/internal/config"
	"stagepush/internal/dispatch"
	"stagepush/internal/gateway"
	"stagepush/internal/jobs"
	"stagepush/internal/localtime"
	"stagepush/internal/messages"
	"stagepush/internal/observability"
	"stagepush/internal/scheduler"
	"stagepush/internal/storage"
	"stagepush/pkg/logx"
)

type App struct {
	cfgMgr *config.Manager
	logSvc *logx.Service
	log    logx.Logger

	store storage.Store
	sched *scheduler.Service
	admin *admin.Server
	pprof *observability.PprofServer

	watchCancel context.CancelFunc
	wg          sync.WaitGroup
}

func New(cfgPath string) (*App, error) {
	mgr := config.NewManager(cfgPath)
	cfg, err := mgr.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File:    logx.FileConfig(cfg.Logging.File),
	})
	mgr.SetLogger(log)
	mgr.SetValidator(func(c *config.Config) error { return c.Validate() })

	return &App{cfgMgr: mgr, logSvc: logSvc, log: log}, nil
}

func (a *App) Logger() logx.Logger { return a.log }

func (a *App) Start(ctx context.Context) error {
	cfg := a.cfgMgr.Get()

	store, err := storage.Open(storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: cfg.StorageBusyTimeout(),
	}, a.log.With(logx.String("comp", "storage")))
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	a.store = store

	sa, err := gateway.LoadServiceAccount(cfg.Gateway.CredentialsFile)
	if err != nil {
		return err
	}
	tokens := gateway.NewTokenSource(sa, nil)
	client := gateway.NewClient(sa, tokens, nil, cfg.Gateway.BaseURL)

	dispatcher := dispatch.New(
		dispatch.Config{RatePerSec: cfg.Dispatch.RatePerSec},
		store, client, a.log.With(logx.String("comp", "dispatch")),
	)

	eval := localtime.NewEvaluator(cfg.Window.DefaultTimezone, cfg.Window.StartHour, cfg.Window.EndHour)
	selector := messages.NewSelector(messages.DefaultCatalog(), store, nil)

	deps := jobs.Deps{
		Store:    store,
		Push:     dispatcher,
		Selector: selector,
		Eval:     eval,
		Log:      a.log.With(logx.String("comp", "jobs")),
		Limits: jobs.Limits{
			MaxSubjects:    cfg.Rules.MaxSubjects,
			MaxRunDuration: cfg.MaxRunDuration(),
		},
		Rules: jobs.Rules{
			EngagementCooldown: cfg.EngagementCooldown(),
			IdleThreshold:      cfg.IdleThreshold(),
		},
	}

	a.sched = scheduler.New(scheduler.Config{
		Enabled:     cfg.Scheduler.Enabled,
		Timezone:    cfg.Scheduler.Timezone,
		HistorySize: cfg.Scheduler.HistorySize,
		Schedules:   cfg.Scheduler.Schedules,
	}, a.log.With(logx.String("comp", "scheduler")))
	for _, j := range jobs.All(deps) {
		a.sched.Register(j)
	}
	if err := a.sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	a.admin = admin.New(admin.Config{
		Enabled: cfg.Admin.Enabled,
		Addr:    cfg.Admin.Addr,
		Token:   cfg.Admin.Token,
	}, a.sched, a.log.With(logx.String("comp", "admin")))
	a.admin.Start(ctx)

	a.pprof = observability.NewPprofServer(a.log)
	a.pprof.Apply(ctx, pprofConfig(cfg))

	// Hot reload: logging applies live; everything else takes effect on the
	// next restart.
	watchCtx, cancel := context.WithCancel(ctx)
	a.watchCancel = cancel
	updates := a.cfgMgr.Subscribe(1)
	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		_ = a.cfgMgr.Watch(watchCtx)
	}()
	go func() {
		defer a.wg.Done()
		for {
			select {
			case <-watchCtx.Done():
				a.cfgMgr.Unsubscribe(updates)
				return
			case next, ok := <-updates:
				if !ok {
					return
				}
				a.applyReload(next)
			}
		}
	}()

	a.log.Info("stagepush started",
		logx.String("storage", cfg.Storage.Path),
		logx.Bool("scheduler", cfg.Scheduler.Enabled),
		logx.Bool("admin", cfg.Admin.Enabled))
	return nil
}

func (a *App) applyReload(next *config.Config) {
	a.logSvc.Apply(logx.Config{
		Level:   next.Logging.Level,
		Console: next.Logging.Console,
		File:    logx.FileConfig(next.Logging.File),
	})
	if a.pprof != nil {
		a.pprof.Apply(context.Background(), pprofConfig(next))
	}
	a.log.Info("config applied", logx.String("level", next.Logging.Level))
}

func pprofConfig(cfg *config.Config) observability.PprofConfig {
	return observability.PprofConfig{
		Enabled:              cfg.Debug.Pprof.Enabled,
		Address:              cfg.Debug.Pprof.Address,
		BlockProfileRate:     cfg.Debug.Pprof.BlockProfileRate,
		MutexProfileFraction: cfg.Debug.Pprof.MutexProfileFraction,
	}
}

func (a *App) Stop(ctx context.Context) error {
	if a.watchCancel != nil {
		a.watchCancel()
	}
	if a.admin != nil {
		a.admin.Stop(ctx)
	}
	if a.pprof != nil {
		a.pprof.Stop(ctx)
	}
	if a.sched != nil {
		a.sched.Stop(ctx)
	}
	a.wg.Wait()
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.logSvc != nil {
		_ = a.logSvc.Close()
	}
	return nil
}
