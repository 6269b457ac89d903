package storage

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("storage: not found")

// Config configures storage.
//
// Driver values:
//   - "sqlite": SQLite database file (the default and only driver)
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // 0 means default
}

// Plan status values for User.PlanStatus.
const (
	PlanFree      = "free"
	PlanPending   = "pending"
	PlanActive    = "active"
	PlanCancelled = "cancelled"
)

// Subscription status values.
const (
	SubActive    = "active"
	SubCancelled = "cancelled"
)

// Device platforms.
const (
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
	PlatformWeb     = "web"
)

// User is read-only to the engine.
type User struct {
	ID         int64
	Name       string
	Timezone   string
	PlanStatus string
	LastSeenAt time.Time // zero when never seen
	CreatedAt  time.Time
}

// Device rows are created at app install/login. The engine mutates them only
// to null a token the gateway reported dead.
type Device struct {
	ID       int64
	UserID   int64
	Token    string
	Platform string
	Timezone string
}

// Show is read-only; drives show-reminder eligibility.
// MemberIDs holds team members; the owner is a participant too.
type Show struct {
	ID        int64
	OwnerID   int64
	DateLocal string // YYYY-MM-DD
	TimeLocal string // HH:MM
	VenueName string
	MemberIDs []int64
}

// Subscription is read-only; drives expiry reminders.
type Subscription struct {
	ID          int64
	UserID      int64
	Status      string
	NextDueDate time.Time
}

// DeliveryKey is the ledger uniqueness key. ExtraKey varies per job:
// show reminders use "show:<id>:<type>", one-shot reminders use the
// reminder type, daily-capped jobs use the local calendar date.
type DeliveryKey struct {
	SubjectID int64
	Kind      string
	ExtraKey  string
}

// Notification kinds recorded in the ledger.
const (
	KindShowReminder   = "show_reminder"
	KindEngagementTip  = "engagement_tip"
	KindMarketing      = "marketing"
	KindExpiryReminder = "subscription_expiry"
	KindTrialReminder  = "trial_reminder"
)

// FeedRecord is one in-app notification row. Writing it is fire-and-forget
// and independent of push delivery.
type FeedRecord struct {
	ID        string
	UserID    int64
	Title     string
	Body      string
	Link      string
	CreatedAt time.Time
}
