// Package jobs implements the five scheduled notification jobs. Each job is
// a stateless batch: enumerate subjects, gate on window and ledger, claim,
// then fan out through the dispatcher. All state lives in the store.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"stagepush/internal/dispatch"
	"stagepush/internal/gateway"
	"stagepush/internal/localtime"
	"stagepush/internal/messages"
	"stagepush/internal/storage"
	"stagepush/pkg/logx"
)

// Job is one runnable batch. Runs must be idempotent: invoking a job twice
// in immediate succession sends nothing the second time.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Pusher is the dispatcher surface jobs use.
type Pusher interface {
	Send(ctx context.Context, userID int64, note dispatch.Note) (dispatch.Result, error)
}

// Limits caps a single batch so a run can't outlive its external trigger.
type Limits struct {
	MaxSubjects    int
	MaxRunDuration time.Duration
}

// Rules holds the eligibility constants shared across jobs.
type Rules struct {
	EngagementCooldown time.Duration // min gap between tips (default 72h)
	IdleThreshold      time.Duration // inactivity before the re-engagement pool (default 7d)
}

func (r Rules) withDefaults() Rules {
	if r.EngagementCooldown <= 0 {
		r.EngagementCooldown = 72 * time.Hour
	}
	if r.IdleThreshold <= 0 {
		r.IdleThreshold = 7 * 24 * time.Hour
	}
	return r
}

// Deps is the shared wiring for every job.
type Deps struct {
	Store    storage.Store
	Push     Pusher
	Selector *messages.Selector
	Eval     *localtime.Evaluator
	Clock    func() time.Time
	Log      logx.Logger
	Limits   Limits
	Rules    Rules
}

func (d Deps) normalized() Deps {
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Log.IsZero() {
		d.Log = logx.Nop()
	}
	if d.Eval == nil {
		d.Eval = localtime.NewEvaluator("", 0, 0)
	}
	d.Rules = d.Rules.withDefaults()
	return d
}

// All constructs the five jobs in their scheduling order.
func All(d Deps) []Job {
	d = d.normalized()
	return []Job{
		NewShowReminders(d),
		NewEngagementTips(d),
		NewMarketing(d),
		NewExpiryReminders(d),
		NewTrialReminders(d),
	}
}

// eachSubject walks the subject list under the configured caps. A credential
// failure aborts the run; any other per-subject error is logged and the loop
// continues.
func (d Deps) eachSubject(ctx context.Context, job string, users []storage.User, fn func(ctx context.Context, u storage.User) error) error {
	started := d.Clock()
	var done, skipped int
	for i, u := range users {
		if d.Limits.MaxSubjects > 0 && i >= d.Limits.MaxSubjects {
			d.Log.Warn("subject cap reached", logx.String("job", job),
				logx.Int("cap", d.Limits.MaxSubjects), logx.Int("total", len(users)))
			break
		}
		if d.Limits.MaxRunDuration > 0 && d.Clock().Sub(started) > d.Limits.MaxRunDuration {
			d.Log.Warn("run duration cap reached", logx.String("job", job),
				logx.Duration("cap", d.Limits.MaxRunDuration), logx.Int("done", done))
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		err := d.runOne(ctx, u, fn)
		switch {
		case err == nil:
			done++
		case errors.Is(err, gateway.ErrCredential):
			// No run can proceed without a bearer token; the next scheduled
			// invocation retries.
			d.Log.Error("aborting run", logx.String("job", job), logx.Err(err))
			return err
		default:
			skipped++
			d.Log.Warn("subject skipped", logx.String("job", job),
				logx.Int64("user", u.ID), logx.Err(err))
		}
	}
	d.Log.Info("job finished", logx.String("job", job),
		logx.Int("subjects", len(users)), logx.Int("done", done),
		logx.Int("skipped", skipped), logx.Duration("took", d.Clock().Sub(started)))
	return nil
}

func (d Deps) runOne(ctx context.Context, u storage.User, fn func(ctx context.Context, u storage.User) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			d.Log.Error("panic in subject handler", logx.Int64("user", u.ID),
				logx.Any("panic", r), logx.String("stack", string(debug.Stack())))
		}
	}()
	return fn(ctx, u)
}

// deliver writes the in-app feed record, then pushes. The feed write is
// fire-and-forget: its failure never blocks the push.
func (d Deps) deliver(ctx context.Context, userID int64, note dispatch.Note) error {
	rec := storage.FeedRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     note.Title,
		Body:      note.Body,
		Link:      note.Link,
		CreatedAt: d.Clock(),
	}
	if err := d.Store.AppendFeed(ctx, rec); err != nil {
		d.Log.Warn("feed record failed", logx.Int64("user", userID), logx.Err(err))
	}

	res, err := d.Push.Send(ctx, userID, note)
	if err != nil {
		return err
	}
	if !res.OK() {
		d.Log.Warn("push failed on all devices", logx.Int64("user", userID),
			logx.Int("failed", res.Failed))
		return nil
	}
	d.Log.Debug("push delivered", logx.Int64("user", userID),
		logx.Int("sent", res.Sent), logx.Int("failed", res.Failed))
	return nil
}

// zone resolves a user's timezone, logging the fallback warning once per
// subject rather than failing.
func (d Deps) zone(u storage.User) localtime.Timezone {
	tz, warn := d.Eval.Parse(u.Timezone)
	if warn != nil {
		d.Log.Debug("timezone fallback", logx.Int64("user", u.ID), logx.Err(warn))
	}
	return tz
}
