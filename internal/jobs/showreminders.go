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

// Reminder types for shows, in firing order.
const (
	Reminder7Days  = "7_days"
	Reminder1Day   = "1_day"
	ReminderToday  = "today"
	Reminder3Hours = "3_hours"
)

// The 3-hour reminder fires only when the show starts within this many
// minutes (a half-hour band centered on 180).
const (
	threeHourMin = 165
	threeHourMax = 195
)

// ShowReminders notifies every participant of an upcoming show at the
// 7-day, 1-day, day-of and 3-hours-before marks. At most one reminder per
// participant per show per day; each type at most once ever.
type ShowReminders struct {
	d Deps
}

func NewShowReminders(d Deps) *ShowReminders { return &ShowReminders{d: d.normalized()} }

func (j *ShowReminders) Name() string { return "show_reminders" }

func (j *ShowReminders) Run(ctx context.Context) error {
	d := j.d
	now := d.Clock()

	// One day of slack on each side covers participants whose local date is
	// ahead of or behind UTC.
	from := now.AddDate(0, 0, -1).UTC().Format("2006-01-02")
	to := now.AddDate(0, 0, 8).UTC().Format("2006-01-02")

	shows, err := d.Store.ShowsBetween(ctx, from, to)
	if err != nil {
		return fmt.Errorf("list shows: %w", err)
	}

	started := now
	for _, show := range shows {
		if d.Limits.MaxRunDuration > 0 && d.Clock().Sub(started) > d.Limits.MaxRunDuration {
			d.Log.Warn("run duration cap reached", logx.String("job", j.Name()))
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := j.runShow(ctx, show); err != nil {
			return err
		}
	}
	d.Log.Info("job finished", logx.String("job", j.Name()),
		logx.Int("shows", len(shows)), logx.Duration("took", d.Clock().Sub(started)))
	return nil
}

func (j *ShowReminders) runShow(ctx context.Context, show storage.Show) error {
	d := j.d
	for _, userID := range participants(show) {
		err := d.runOne(ctx, storage.User{ID: userID}, func(ctx context.Context, _ storage.User) error {
			return j.remindParticipant(ctx, show, userID)
		})
		if err != nil {
			if errors.Is(err, gateway.ErrCredential) {
				return err
			}
			d.Log.Warn("participant skipped", logx.Int64("show", show.ID),
				logx.Int64("user", userID), logx.Err(err))
		}
	}
	return nil
}

func (j *ShowReminders) remindParticipant(ctx context.Context, show storage.Show, userID int64) error {
	d := j.d
	now := d.Clock()

	user, err := d.Store.UserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	tz := d.zone(user)

	rel := d.Eval.RelativeDates(tz, now, 0, 1, 7)
	var rtype string
	switch show.DateLocal {
	case rel[7]:
		rtype = Reminder7Days
	case rel[1]:
		rtype = Reminder1Day
	case rel[0]:
		rtype = ReminderToday
		if mins, merr := d.Eval.MinutesUntilShow(tz, now, show.DateLocal, show.TimeLocal); merr == nil &&
			mins >= threeHourMin && mins <= threeHourMax {
			rtype = Reminder3Hours
		}
	default:
		return nil
	}

	// At most one show reminder per participant per show per local day.
	since := d.Eval.StartOfTodayUTC(tz, now)
	already, err := d.Store.ShowDeliveredSince(ctx, show.ID, userID, since)
	if err != nil {
		return fmt.Errorf("ledger read: %w", err)
	}
	if already {
		return nil
	}

	held, err := d.Store.Claim(ctx, storage.DeliveryKey{
		SubjectID: userID,
		Kind:      storage.KindShowReminder,
		ExtraKey:  fmt.Sprintf("show:%d:%s", show.ID, rtype),
	})
	if err != nil {
		return fmt.Errorf("claim: %w", err)
	}
	if !held {
		return nil
	}

	return d.deliver(ctx, userID, showNote(show, rtype))
}

func showNote(show storage.Show, rtype string) dispatch.Note {
	venue := show.VenueName
	if venue == "" {
		venue = "your venue"
	}
	var title, body string
	switch rtype {
	case Reminder7Days:
		title = "One week to showtime"
		body = fmt.Sprintf("Your show at %s is in 7 days (%s at %s).", venue, show.DateLocal, show.TimeLocal)
	case Reminder1Day:
		title = "Show tomorrow"
		body = fmt.Sprintf("Tomorrow: %s at %s. Time to pack the van.", venue, show.TimeLocal)
	case ReminderToday:
		title = "It's show day"
		body = fmt.Sprintf("Tonight at %s, %s. Break a leg!", venue, show.TimeLocal)
	case Reminder3Hours:
		title = "Doors in a few hours"
		body = fmt.Sprintf("Your show at %s starts at %s. Soundcheck time.", venue, show.TimeLocal)
	}
	return dispatch.Note{
		Title: title,
		Body:  body,
		Link:  "/shows",
		Data: map[string]string{
			"showId": fmt.Sprintf("%d", show.ID),
			"type":   rtype,
		},
	}
}

func participants(show storage.Show) []int64 {
	out := make([]int64, 0, len(show.MemberIDs)+1)
	seen := map[int64]struct{}{}
	for _, id := range append([]int64{show.OwnerID}, show.MemberIDs...) {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
