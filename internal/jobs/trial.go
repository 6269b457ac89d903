package jobs

import (
	"context"
	"fmt"

	"stagepush/internal/dispatch"
	"stagepush/internal/storage"
)

// trialMilestones are the days-since-signup marks, highest first. Only the
// highest applicable one fires, each exactly once.
var trialMilestones = [...]int{7, 3, 1}

// TrialReminders nudges users who signed up but never finished activating.
type TrialReminders struct {
	d Deps
}

func NewTrialReminders(d Deps) *TrialReminders { return &TrialReminders{d: d.normalized()} }

func (j *TrialReminders) Name() string { return "trial_reminders" }

func (j *TrialReminders) Run(ctx context.Context) error {
	d := j.d
	users, err := d.Store.PendingUsers(ctx)
	if err != nil {
		return fmt.Errorf("list pending users: %w", err)
	}
	return d.eachSubject(ctx, j.Name(), users, j.remindOne)
}

func (j *TrialReminders) remindOne(ctx context.Context, u storage.User) error {
	d := j.d
	now := d.Clock()
	tz := d.zone(u)

	if !d.Eval.WithinPushWindow(tz, now) {
		return nil
	}

	if u.CreatedAt.IsZero() {
		return nil
	}
	days := int(now.Sub(u.CreatedAt).Hours() / 24)

	milestone := 0
	for _, m := range trialMilestones {
		if days >= m {
			milestone = m
			break
		}
	}
	if milestone == 0 {
		return nil
	}

	held, err := d.Store.Claim(ctx, storage.DeliveryKey{
		SubjectID: u.ID,
		Kind:      storage.KindTrialReminder,
		ExtraKey:  fmt.Sprintf("%d_days", milestone),
	})
	if err != nil {
		return fmt.Errorf("claim: %w", err)
	}
	if !held {
		return nil
	}

	return d.deliver(ctx, u.ID, trialNote(milestone))
}

func trialNote(milestone int) dispatch.Note {
	var title, body string
	switch milestone {
	case 1:
		title = "Finish setting up"
		body = "Your account is one step from ready. Activate your plan and log your first show."
	case 3:
		title = "Your trial is waiting"
		body = "Three days in and your gig book is still empty. Activate now and start tracking."
	default:
		title = "Don't lose your spot"
		body = "It's been a week since you signed up. Activate your plan to keep your account."
	}
	return dispatch.Note{
		Title: title,
		Body:  body,
		Link:  "/billing",
		Data:  map[string]string{"milestone": fmt.Sprintf("%d_days", milestone)},
	}
}
