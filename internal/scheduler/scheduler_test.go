package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"stagepush/pkg/logx"
)

type stubJob struct {
	name string
	mu   sync.Mutex
	runs int
	err  error

	block chan struct{} // when set, Run waits until closed
}

func (j *stubJob) Name() string { return j.name }

func (j *stubJob) Run(_ context.Context) error {
	j.mu.Lock()
	j.runs++
	j.mu.Unlock()
	if j.block != nil {
		<-j.block
	}
	return j.err
}

func (j *stubJob) runCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.runs
}

func TestRunNow(t *testing.T) {
	t.Parallel()
	s := New(Config{Enabled: true}, logx.Nop())
	job := &stubJob{name: "marketing"}
	s.Register(job)

	if err := s.RunNow(context.Background(), "marketing"); err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	if job.runCount() != 1 {
		t.Fatalf("runs = %d, want 1", job.runCount())
	}

	if err := s.RunNow(context.Background(), "nope"); !errors.Is(err, ErrUnknownJob) {
		t.Fatalf("unknown job: err = %v, want ErrUnknownJob", err)
	}
}

func TestRunNowOverlapGuard(t *testing.T) {
	t.Parallel()
	s := New(Config{Enabled: true}, logx.Nop())
	job := &stubJob{name: "slow", block: make(chan struct{})}
	s.Register(job)

	done := make(chan error, 1)
	go func() { done <- s.RunNow(context.Background(), "slow") }()

	// Wait for the first run to take the slot.
	deadline := time.After(2 * time.Second)
	for job.runCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("first run never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	if err := s.RunNow(context.Background(), "slow"); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("overlap: err = %v, want ErrAlreadyRunning", err)
	}

	close(job.block)
	if err := <-done; err != nil {
		t.Fatalf("first run: %v", err)
	}
	if job.runCount() != 1 {
		t.Fatalf("runs = %d, want 1", job.runCount())
	}
}

func TestHistoryRecordsRuns(t *testing.T) {
	t.Parallel()
	s := New(Config{Enabled: true, HistorySize: 2}, logx.Nop())
	ok := &stubJob{name: "ok"}
	bad := &stubJob{name: "bad", err: errors.New("boom")}
	s.Register(ok)
	s.Register(bad)

	_ = s.RunNow(context.Background(), "ok")
	if err := s.RunNow(context.Background(), "bad"); err == nil {
		t.Fatal("expected job error to propagate")
	}
	_ = s.RunNow(context.Background(), "ok")

	hist := s.History()
	if len(hist) != 2 {
		t.Fatalf("history len = %d, want 2 (ring capped)", len(hist))
	}
	if hist[0].Job != "bad" || hist[0].Error != "boom" {
		t.Fatalf("hist[0] = %+v", hist[0])
	}
	if hist[1].Job != "ok" || hist[1].Error != "" || !hist[1].Manual {
		t.Fatalf("hist[1] = %+v", hist[1])
	}
}

func TestJobsListsSpecs(t *testing.T) {
	t.Parallel()
	s := New(Config{
		Enabled:   true,
		Schedules: map[string]string{"marketing": "0 12 * * *"},
	}, logx.Nop())
	s.Register(&stubJob{name: "marketing"})
	s.Register(&stubJob{name: "trial_reminders"})

	got := s.Jobs()
	if got["marketing"] != "0 12 * * *" {
		t.Fatalf("marketing spec = %q", got["marketing"])
	}
	if spec, ok := got["trial_reminders"]; !ok || spec != "" {
		t.Fatalf("trial_reminders = %q,%v; want registered with empty spec", spec, ok)
	}
}

func TestStartRejectsBadSpec(t *testing.T) {
	t.Parallel()
	s := New(Config{
		Enabled:   true,
		Schedules: map[string]string{"marketing": "not a cron line"},
	}, logx.Nop())
	s.Register(&stubJob{name: "marketing"})

	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected error for invalid spec")
	}
}

func TestStartDisabledIsNoop(t *testing.T) {
	t.Parallel()
	s := New(Config{Enabled: false}, logx.Nop())
	s.Register(&stubJob{name: "marketing"})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Stop(context.Background())

	// Manual triggering still works with the cron loop off.
	if err := s.RunNow(context.Background(), "marketing"); err != nil {
		t.Fatalf("RunNow: %v", err)
	}
}

func TestStartAndStop(t *testing.T) {
	t.Parallel()
	s := New(Config{
		Enabled:   true,
		Timezone:  "Europe/Berlin",
		Schedules: map[string]string{"marketing": "@every 1h"},
	}, logx.Nop())
	s.Register(&stubJob{name: "marketing"})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// Idempotent.
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	s.Stop(context.Background())
	s.Stop(context.Background())
}
