package jobs

import (
	"context"
	"fmt"

	"stagepush/internal/dispatch"
	"stagepush/internal/messages"
	"stagepush/internal/storage"
)

// Marketing sends every user with a device at most one message per local
// calendar day, picking the pool by cohort. On pool exhaustion it repeats
// without resetting history (unlike the tips job).
type Marketing struct {
	d Deps
}

func NewMarketing(d Deps) *Marketing { return &Marketing{d: d.normalized()} }

func (j *Marketing) Name() string { return "marketing" }

func (j *Marketing) Run(ctx context.Context) error {
	d := j.d
	users, err := d.Store.UsersWithDevices(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	return d.eachSubject(ctx, j.Name(), users, j.sendOne)
}

func (j *Marketing) sendOne(ctx context.Context, u storage.User) error {
	d := j.d
	now := d.Clock()
	tz := d.zone(u)

	// Quiet hours are a hard gate, checked before any ledger read.
	if !d.Eval.WithinPushWindow(tz, now) {
		return nil
	}

	// One per local calendar day, regardless of cohort or message.
	since := d.Eval.StartOfTodayUTC(tz, now)
	sent, err := d.Store.DeliveredSince(ctx, u.ID, storage.KindMarketing, since)
	if err != nil {
		return fmt.Errorf("ledger read: %w", err)
	}
	if sent {
		return nil
	}

	localDate := d.Eval.RelativeDates(tz, now, 0)[0]
	held, err := d.Store.Claim(ctx, storage.DeliveryKey{
		SubjectID: u.ID,
		Kind:      storage.KindMarketing,
		ExtraKey:  localDate,
	})
	if err != nil {
		return fmt.Errorf("claim: %w", err)
	}
	if !held {
		return nil
	}

	subscribed := u.PlanStatus == storage.PlanActive
	var count int
	if subscribed {
		if count, err = d.Store.ShowCount(ctx, u.ID); err != nil {
			return fmt.Errorf("show count: %w", err)
		}
	}
	cohort := messages.ClassifyCohort(subscribed, u.LastSeenAt, count, now, d.Rules.IdleThreshold)

	msg, err := d.Selector.Pick(ctx, u.ID, cohort, messages.RepeatOnExhaustion)
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
