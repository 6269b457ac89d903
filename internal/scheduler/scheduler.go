// Package scheduler drives the notification jobs on cron triggers. A job
// whose previous run is still in flight is skipped, not queued: every run is
// a full batch, so running two at once only burns gateway quota.
package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"stagepush/internal/jobs"
	"stagepush/pkg/logx"
)

var ErrUnknownJob = errors.New("scheduler: unknown job")
var ErrAlreadyRunning = errors.New("scheduler: job already running")

type Config struct {
	Enabled     bool
	Timezone    string // IANA TZ for cron specs
	HistorySize int
	// Schedules maps job name to a cron spec or "@every ..." expression.
	Schedules map[string]string
}

// HistoryItem is one finished run, kept for the admin API.
type HistoryItem struct {
	Job      string
	Started  time.Time
	Duration time.Duration
	Error    string
	Manual   bool
}

type entry struct {
	job     jobs.Job
	spec    string
	running bool
}

type Service struct {
	mu sync.Mutex

	log logx.Logger
	cfg Config
	loc *time.Location

	parser  cron.Parser
	c       *cron.Cron
	entries map[string]*entry

	hmu     sync.Mutex
	history []HistoryItem
}

func New(cfg Config, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 100
	}
	return &Service{
		cfg:     cfg,
		log:     log,
		parser:  cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		entries: map[string]*entry{},
	}
}

func (s *Service) Enabled() bool { return s.cfg.Enabled }

// Register adds a job under the spec from config. Jobs with no configured
// schedule are still registered so the admin API can trigger them manually.
func (s *Service) Register(job jobs.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[job.Name()] = &entry{job: job, spec: strings.TrimSpace(s.cfg.Schedules[job.Name()])}
}

func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return nil
	}
	if !s.cfg.Enabled {
		s.log.Info("scheduler disabled")
		return nil
	}

	loc := s.loadLocationLocked()
	s.loc = loc
	s.c = cron.New(cron.WithParser(s.parser), cron.WithLocation(loc))

	for name, e := range s.entries {
		if e.spec == "" {
			s.log.Warn("job has no schedule; manual trigger only", logx.String("job", name))
			continue
		}
		name, e := name, e
		if _, err := s.c.AddFunc(e.spec, func() { s.fire(ctx, name, e, false) }); err != nil {
			_ = s.c.Stop()
			s.c = nil
			return err
		}
	}

	s.c.Start()
	s.log.Info("scheduler started", logx.Int("jobs", len(s.entries)), logx.String("tz", loc.String()))
	return nil
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
	s.log.Info("scheduler stopped")
}

// RunNow triggers one job immediately (admin API). Returns ErrAlreadyRunning
// when that job's previous run has not finished.
func (s *Service) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	e, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return ErrUnknownJob
	}
	return s.fire(ctx, name, e, true)
}

// Jobs lists registered job names with their specs.
func (s *Service) Jobs() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.entries))
	for name, e := range s.entries {
		out[name] = e.spec
	}
	return out
}

func (s *Service) History() []HistoryItem {
	s.hmu.Lock()
	defer s.hmu.Unlock()
	out := make([]HistoryItem, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Service) fire(ctx context.Context, name string, e *entry, manual bool) error {
	s.mu.Lock()
	if e.running {
		s.mu.Unlock()
		s.log.Warn("previous run still in flight; skipping", logx.String("job", name))
		if manual {
			return ErrAlreadyRunning
		}
		return nil
	}
	e.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		e.running = false
		s.mu.Unlock()
	}()

	start := time.Now()
	err := e.job.Run(ctx)
	item := HistoryItem{Job: name, Started: start, Duration: time.Since(start), Manual: manual}
	if err != nil {
		item.Error = err.Error()
		s.log.Warn("job run failed", logx.String("job", name), logx.Err(err))
	}

	s.hmu.Lock()
	s.history = append(s.history, item)
	if len(s.history) > s.cfg.HistorySize {
		s.history = s.history[len(s.history)-s.cfg.HistorySize:]
	}
	s.hmu.Unlock()
	return err
}

func (s *Service) loadLocationLocked() *time.Location {
	tz := strings.TrimSpace(s.cfg.Timezone)
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		s.log.Warn("invalid scheduler timezone, falling back to UTC", logx.String("tz", tz), logx.Err(err))
		return time.UTC
	}
	return loc
}
