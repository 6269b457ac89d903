package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"stagepush/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log}

	// Basic pragmas.
	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ---- Device registry ----

func (s *sqliteStore) ListDeviceTokens(ctx context.Context, userID int64) ([]Device, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, token, platform, timezone
		 FROM devices WHERE user_id = ? AND token IS NOT NULL AND token != ''`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Device
	for rows.Next() {
		var d Device
		var token, tz sql.NullString
		if err := rows.Scan(&d.ID, &d.UserID, &token, &d.Platform, &tz); err != nil {
			return nil, err
		}
		d.Token = token.String
		d.Timezone = tz.String
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *sqliteStore) UpsertDevice(ctx context.Context, d Device) error {
	if d.ID == 0 {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO devices(user_id, token, platform, timezone) VALUES(?,?,?,?)`,
			d.UserID, nullStr(d.Token), d.Platform, nullStr(d.Timezone))
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO devices(id, user_id, token, platform, timezone) VALUES(?,?,?,?,?)
		 ON CONFLICT(id) DO UPDATE SET token=excluded.token, platform=excluded.platform, timezone=excluded.timezone`,
		d.ID, d.UserID, nullStr(d.Token), d.Platform, nullStr(d.Timezone))
	return err
}

func (s *sqliteStore) InvalidateDevice(ctx context.Context, deviceID int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE devices SET token = NULL WHERE id = ?`, deviceID)
	return err
}

// ---- Delivery ledger ----

func (s *sqliteStore) Claim(ctx context.Context, key DeliveryKey) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO delivery_log(subject_id, kind, extra_key, sent_at) VALUES(?,?,?,?)
		 ON CONFLICT(subject_id, kind, extra_key) DO NOTHING`,
		key.SubjectID, key.Kind, key.ExtraKey, time.Now().UnixMilli())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *sqliteStore) DeliveredSince(ctx context.Context, userID int64, kind string, since time.Time) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM delivery_log WHERE subject_id = ? AND kind = ? AND sent_at >= ? LIMIT 1`,
		userID, kind, since.UnixMilli()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *sqliteStore) ShowDeliveredSince(ctx context.Context, showID, userID int64, since time.Time) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM delivery_log
		 WHERE subject_id = ? AND kind = ? AND extra_key LIKE ? AND sent_at >= ? LIMIT 1`,
		userID, KindShowReminder, fmt.Sprintf("show:%d:%%", showID), since.UnixMilli()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ---- Message log ----

func (s *sqliteStore) SentMessageIDs(ctx context.Context, userID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT message_id FROM message_log WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *sqliteStore) RecordMessageSent(ctx context.Context, userID int64, messageID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO message_log(user_id, message_id, sent_at) VALUES(?,?,?)`,
		userID, messageID, time.Now().UnixMilli())
	return err
}

func (s *sqliteStore) ResetMessageHistory(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM message_log WHERE user_id = ?`, userID)
	return err
}

// ---- Feed ----

func (s *sqliteStore) AppendFeed(ctx context.Context, rec FeedRecord) error {
	at := rec.CreatedAt
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO feed(id, user_id, title, body, link, created_at) VALUES(?,?,?,?,?,?)`,
		rec.ID, rec.UserID, rec.Title, rec.Body, rec.Link, at.UnixMilli())
	return err
}

// ---- Business reads ----

const userCols = `id, name, timezone, plan_status, last_seen_at, created_at`

func scanUser(sc interface{ Scan(...any) error }) (User, error) {
	var u User
	var tz sql.NullString
	var lastSeen sql.NullInt64
	var created int64
	if err := sc.Scan(&u.ID, &u.Name, &tz, &u.PlanStatus, &lastSeen, &created); err != nil {
		return User{}, err
	}
	u.Timezone = tz.String
	if lastSeen.Valid {
		u.LastSeenAt = time.UnixMilli(lastSeen.Int64)
	}
	u.CreatedAt = time.UnixMilli(created)
	return u, nil
}

func (s *sqliteStore) queryUsers(ctx context.Context, where string, args ...any) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userCols+` FROM users `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *sqliteStore) UsersWithDevices(ctx context.Context) ([]User, error) {
	return s.queryUsers(ctx,
		`WHERE id IN (SELECT DISTINCT user_id FROM devices WHERE token IS NOT NULL AND token != '')`)
}

func (s *sqliteStore) Subscribers(ctx context.Context) ([]User, error) {
	return s.queryUsers(ctx, `WHERE plan_status = ?`, PlanActive)
}

func (s *sqliteStore) PendingUsers(ctx context.Context) ([]User, error) {
	return s.queryUsers(ctx, `WHERE plan_status = ?`, PlanPending)
}

func (s *sqliteStore) UserByID(ctx context.Context, id int64) (User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (s *sqliteStore) ShowsBetween(ctx context.Context, fromDate, toDate string) ([]Show, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, date_local, time_local, venue_name
		 FROM shows WHERE date_local >= ? AND date_local <= ? ORDER BY date_local`,
		fromDate, toDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Show
	for rows.Next() {
		var sh Show
		if err := rows.Scan(&sh.ID, &sh.OwnerID, &sh.DateLocal, &sh.TimeLocal, &sh.VenueName); err != nil {
			return nil, err
		}
		out = append(out, sh)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		members, err := s.showMembers(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].MemberIDs = members
	}
	return out, nil
}

func (s *sqliteStore) showMembers(ctx context.Context, showID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM show_members WHERE show_id = ?`, showID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *sqliteStore) ShowCount(ctx context.Context, userID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM shows WHERE owner_id = ?
		   OR id IN (SELECT show_id FROM show_members WHERE user_id = ?)`,
		userID, userID).Scan(&n)
	return n, err
}

func (s *sqliteStore) CancelledSubscriptions(ctx context.Context) ([]Subscription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, status, next_due_date FROM subscriptions WHERE status = ?`,
		SubCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Subscription
	for rows.Next() {
		var sub Subscription
		var due sql.NullInt64
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.Status, &due); err != nil {
			return nil, err
		}
		if due.Valid {
			sub.NextDueDate = time.UnixMilli(due.Int64)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
