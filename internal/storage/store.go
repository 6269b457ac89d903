package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"stagepush/pkg/logx"
)

// Store is the persistence API used by the jobs and the dispatcher.
type Store interface {
	// Device registry.
	ListDeviceTokens(ctx context.Context, userID int64) ([]Device, error)
	UpsertDevice(ctx context.Context, d Device) error
	InvalidateDevice(ctx context.Context, deviceID int64) error

	// Delivery ledger. Claim is atomic insert-if-absent: true means this run
	// holds the claim and should send; false means already sent.
	Claim(ctx context.Context, key DeliveryKey) (bool, error)
	DeliveredSince(ctx context.Context, userID int64, kind string, since time.Time) (bool, error)
	ShowDeliveredSince(ctx context.Context, showID, userID int64, since time.Time) (bool, error)

	// Message log (global across cohorts).
	SentMessageIDs(ctx context.Context, userID int64) ([]string, error)
	RecordMessageSent(ctx context.Context, userID int64, messageID string) error
	ResetMessageHistory(ctx context.Context, userID int64) error

	// In-app notification feed.
	AppendFeed(ctx context.Context, rec FeedRecord) error

	// Business reads (read-only contracts).
	UsersWithDevices(ctx context.Context) ([]User, error)
	Subscribers(ctx context.Context) ([]User, error)
	PendingUsers(ctx context.Context) ([]User, error)
	UserByID(ctx context.Context, id int64) (User, error)
	ShowsBetween(ctx context.Context, fromDate, toDate string) ([]Show, error)
	ShowCount(ctx context.Context, userID int64) (int, error)
	CancelledSubscriptions(ctx context.Context) ([]Subscription, error)

	Close() error
}

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "", "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
