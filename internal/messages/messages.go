// Package messages holds the static notification copy, grouped into cohort
// pools, and the selector that picks an unsent message per user.
package messages

import "time"

// Message is one compiled-in notification text. Immutable at runtime.
type Message struct {
	ID    string
	Title string
	Body  string
	Link  string
}

// Cohort is a mutually exclusive user category; each maps to one pool.
type Cohort string

const (
	Conversion          Cohort = "conversion"
	ActiveEngagement    Cohort = "active_engagement"
	InactiveEngagement  Cohort = "inactive_engagement"
	NewUserEngagement   Cohort = "new_user_engagement"
)

// Pool is an ordered message list for one cohort.
type Pool []Message

// Catalog maps cohorts to pools. Injected so tests can substitute small
// pools; the production catalog lives in catalog.go.
type Catalog map[Cohort]Pool

// ClassifyCohort applies the job's precedence order:
// non-subscribers convert; subscribers idle at least idleThreshold get
// re-engagement; subscribers with zero shows get onboarding; everyone else
// gets the active pool.
func ClassifyCohort(subscribed bool, lastSeenAt time.Time, showCount int, now time.Time, idleThreshold time.Duration) Cohort {
	if !subscribed {
		return Conversion
	}
	if !lastSeenAt.IsZero() && now.Sub(lastSeenAt) >= idleThreshold {
		return InactiveEngagement
	}
	if showCount == 0 {
		return NewUserEngagement
	}
	return ActiveEngagement
}
