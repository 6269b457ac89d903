package jobs

import (
	"context"
	"errors"
	"fmt"

	"stagepush/internal/dispatch"
	"stagepush/internal/gateway"
	"stagepush/internal/storage"
	"stagepush/pkg/logx"
)

// expiryMilestones are the whole-days-remaining marks that each fire exactly
// once per subscription.
var expiryMilestones = [...]int{7, 5, 3, 1}

// ExpiryReminders nudges users whose cancelled subscription still has paid
// time left, at the 7/5/3/1 days-remaining marks.
type ExpiryReminders struct {
	d Deps
}

func NewExpiryReminders(d Deps) *ExpiryReminders { return &ExpiryReminders{d: d.normalized()} }

func (j *ExpiryReminders) Name() string { return "expiry_reminders" }

func (j *ExpiryReminders) Run(ctx context.Context) error {
	d := j.d
	subs, err := d.Store.CancelledSubscriptions(ctx)
	if err != nil {
		return fmt.Errorf("list subscriptions: %w", err)
	}

	started := d.Clock()
	var done, skipped int
	for _, sub := range subs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.Limits.MaxRunDuration > 0 && d.Clock().Sub(started) > d.Limits.MaxRunDuration {
			d.Log.Warn("run duration cap reached", logx.String("job", j.Name()))
			break
		}

		err := d.runOne(ctx, storage.User{ID: sub.UserID}, func(ctx context.Context, _ storage.User) error {
			return j.remindOne(ctx, sub)
		})
		switch {
		case err == nil:
			done++
		case errors.Is(err, gateway.ErrCredential):
			d.Log.Error("aborting run", logx.String("job", j.Name()), logx.Err(err))
			return err
		default:
			skipped++
			d.Log.Warn("subscription skipped", logx.Int64("subscription", sub.ID),
				logx.Int64("user", sub.UserID), logx.Err(err))
		}
	}
	d.Log.Info("job finished", logx.String("job", j.Name()),
		logx.Int("subjects", len(subs)), logx.Int("done", done),
		logx.Int("skipped", skipped), logx.Duration("took", d.Clock().Sub(started)))
	return nil
}

func (j *ExpiryReminders) remindOne(ctx context.Context, sub storage.Subscription) error {
	d := j.d
	now := d.Clock()

	if sub.NextDueDate.IsZero() || !sub.NextDueDate.After(now) {
		return nil
	}
	daysLeft := int(sub.NextDueDate.Sub(now).Hours() / 24)

	milestone := 0
	for _, m := range expiryMilestones {
		if daysLeft == m {
			milestone = m
			break
		}
	}
	if milestone == 0 {
		return nil
	}

	user, err := d.Store.UserByID(ctx, sub.UserID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	tz := d.zone(user)
	if !d.Eval.WithinPushWindow(tz, now) {
		return nil
	}

	// One-shot per subscription and milestone, not per day.
	held, err := d.Store.Claim(ctx, storage.DeliveryKey{
		SubjectID: sub.UserID,
		Kind:      storage.KindExpiryReminder,
		ExtraKey:  fmt.Sprintf("sub:%d:%d_days", sub.ID, milestone),
	})
	if err != nil {
		return fmt.Errorf("claim: %w", err)
	}
	if !held {
		return nil
	}

	return d.deliver(ctx, sub.UserID, expiryNote(milestone))
}

func expiryNote(daysLeft int) dispatch.Note {
	day := "days"
	if daysLeft == 1 {
		day = "day"
	}
	return dispatch.Note{
		Title: "Your Pro access is ending",
		Body: fmt.Sprintf("Your subscription ends in %d %s. Renew to keep your full gig history and reports.",
			daysLeft, day),
		Link: "/billing",
		Data: map[string]string{"daysLeft": fmt.Sprintf("%d", daysLeft)},
	}
}
