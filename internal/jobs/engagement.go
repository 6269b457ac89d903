package jobs

import (
	"context"
	"fmt"
	"time"

	"stagepush/internal/dispatch"
	"stagepush/internal/messages"
	"stagepush/internal/storage"
)

// EngagementTips sends subscribers a usage tip, at most one every cooldown
// period (default 3 days). When a user has seen the whole pool, their history
// resets and the cycle restarts.
type EngagementTips struct {
	d Deps
}

func NewEngagementTips(d Deps) *EngagementTips { return &EngagementTips{d: d.normalized()} }

func (j *EngagementTips) Name() string { return "engagement_tips" }

func (j *EngagementTips) Run(ctx context.Context) error {
	d := j.d
	users, err := d.Store.Subscribers(ctx)
	if err != nil {
		return fmt.Errorf("list subscribers: %w", err)
	}
	return d.eachSubject(ctx, j.Name(), users, j.tipOne)
}

func (j *EngagementTips) tipOne(ctx context.Context, u storage.User) error {
	d := j.d
	now := d.Clock()
	tz := d.zone(u)

	// Quiet hours are a hard gate, checked before any ledger read.
	if !d.Eval.WithinPushWindow(tz, now) {
		return nil
	}

	// Cooldown is wall-clock, not calendar-day.
	sent, err := d.Store.DeliveredSince(ctx, u.ID, storage.KindEngagementTip, now.Add(-d.Rules.EngagementCooldown))
	if err != nil {
		return fmt.Errorf("ledger read: %w", err)
	}
	if sent {
		return nil
	}

	localDate := d.Eval.RelativeDates(tz, now, 0)[0]
	held, err := d.Store.Claim(ctx, storage.DeliveryKey{
		SubjectID: u.ID,
		Kind:      storage.KindEngagementTip,
		ExtraKey:  localDate,
	})
	if err != nil {
		return fmt.Errorf("claim: %w", err)
	}
	if !held {
		return nil
	}

	cohort, err := j.cohort(ctx, u, now)
	if err != nil {
		return err
	}
	msg, err := d.Selector.Pick(ctx, u.ID, cohort, messages.ResetOnExhaustion)
	if err != nil {
		return fmt.Errorf("pick message: %w", err)
	}
	if err := d.Store.RecordMessageSent(ctx, u.ID, msg.ID); err != nil {
		return fmt.Errorf("record message: %w", err)
	}

	return d.deliver(ctx, u.ID, dispatch.Note{
		Title: msg.Title,
		Body:  msg.Body,
		Link:  msg.Link,
	})
}

// cohort classifies a subscriber among the engagement pools (conversion
// never applies here; this job only sees subscribers).
func (j *EngagementTips) cohort(ctx context.Context, u storage.User, now time.Time) (messages.Cohort, error) {
	d := j.d
	count, err := d.Store.ShowCount(ctx, u.ID)
	if err != nil {
		return "", fmt.Errorf("show count: %w", err)
	}
	return messages.ClassifyCohort(true, u.LastSeenAt, count, now, d.Rules.IdleThreshold), nil
}
