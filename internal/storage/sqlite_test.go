package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"stagepush/pkg/logx"
)

func openTestStore(t *testing.T) (*sqliteStore, context.Context) {
	t.Helper()
	st, err := Open(Config{Path: filepath.Join(t.TempDir(), "test.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st.(*sqliteStore), context.Background()
}

func seedUser(t *testing.T, s *sqliteStore, id int64, plan, tz string) {
	t.Helper()
	_, err := s.db.Exec(
		`INSERT INTO users(id, name, timezone, plan_status, created_at) VALUES(?,?,?,?,?)`,
		id, "user", nullStr(tz), plan, time.Now().UnixMilli())
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func TestClaimIsExactlyOnce(t *testing.T) {
	t.Parallel()
	s, ctx := openTestStore(t)

	key := DeliveryKey{SubjectID: 42, Kind: KindShowReminder, ExtraKey: "show:9:1_day"}
	held, err := s.Claim(ctx, key)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if !held {
		t.Fatal("first claim should be held")
	}

	held, err = s.Claim(ctx, key)
	if err != nil {
		t.Fatalf("second Claim: %v", err)
	}
	if held {
		t.Fatal("duplicate claim must not be held")
	}

	// A different extra_key is a different claim.
	held, err = s.Claim(ctx, DeliveryKey{SubjectID: 42, Kind: KindShowReminder, ExtraKey: "show:9:today"})
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if !held {
		t.Fatal("distinct key should be held")
	}
}

func TestDeliveredSince(t *testing.T) {
	t.Parallel()
	s, ctx := openTestStore(t)

	if _, err := s.Claim(ctx, DeliveryKey{SubjectID: 5, Kind: KindMarketing, ExtraKey: "2026-07-09"}); err != nil {
		t.Fatalf("Claim: %v", err)
	}

	got, err := s.DeliveredSince(ctx, 5, KindMarketing, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("DeliveredSince: %v", err)
	}
	if !got {
		t.Fatal("expected delivery inside the window")
	}

	got, err = s.DeliveredSince(ctx, 5, KindMarketing, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("DeliveredSince: %v", err)
	}
	if got {
		t.Fatal("future cutoff must not match")
	}

	got, err = s.DeliveredSince(ctx, 5, KindEngagementTip, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("DeliveredSince: %v", err)
	}
	if got {
		t.Fatal("other kinds must not match")
	}
}

func TestShowDeliveredSince(t *testing.T) {
	t.Parallel()
	s, ctx := openTestStore(t)

	if _, err := s.Claim(ctx, DeliveryKey{SubjectID: 5, Kind: KindShowReminder, ExtraKey: "show:9:7_days"}); err != nil {
		t.Fatalf("Claim: %v", err)
	}

	got, err := s.ShowDeliveredSince(ctx, 9, 5, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("ShowDeliveredSince: %v", err)
	}
	if !got {
		t.Fatal("expected a match for the same show")
	}

	got, err = s.ShowDeliveredSince(ctx, 10, 5, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("ShowDeliveredSince: %v", err)
	}
	if got {
		t.Fatal("other shows must not match")
	}
}

func TestDeviceRegistry(t *testing.T) {
	t.Parallel()
	s, ctx := openTestStore(t)

	for _, d := range []Device{
		{UserID: 7, Token: "tok-a", Platform: PlatformIOS, Timezone: "Europe/Berlin"},
		{UserID: 7, Token: "tok-b", Platform: PlatformAndroid},
		{UserID: 8, Token: "tok-c", Platform: PlatformAndroid},
	} {
		if err := s.UpsertDevice(ctx, d); err != nil {
			t.Fatalf("UpsertDevice: %v", err)
		}
	}

	devices, err := s.ListDeviceTokens(ctx, 7)
	if err != nil {
		t.Fatalf("ListDeviceTokens: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("len(devices) = %d, want 2", len(devices))
	}
	if devices[0].Timezone != "Europe/Berlin" {
		t.Fatalf("timezone = %q", devices[0].Timezone)
	}

	// Invalidation nulls the token; the device disappears from listings.
	if err := s.InvalidateDevice(ctx, devices[0].ID); err != nil {
		t.Fatalf("InvalidateDevice: %v", err)
	}
	devices, err = s.ListDeviceTokens(ctx, 7)
	if err != nil {
		t.Fatalf("ListDeviceTokens: %v", err)
	}
	if len(devices) != 1 || devices[0].Token != "tok-b" {
		t.Fatalf("after invalidation: %+v", devices)
	}
}

func TestMessageLog(t *testing.T) {
	t.Parallel()
	s, ctx := openTestStore(t)

	for _, id := range []string{"eng_01", "conv_02"} {
		if err := s.RecordMessageSent(ctx, 7, id); err != nil {
			t.Fatalf("RecordMessageSent: %v", err)
		}
	}
	ids, err := s.SentMessageIDs(ctx, 7)
	if err != nil {
		t.Fatalf("SentMessageIDs: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("ids = %v, want 2 entries", ids)
	}

	if err := s.ResetMessageHistory(ctx, 7); err != nil {
		t.Fatalf("ResetMessageHistory: %v", err)
	}
	ids, err = s.SentMessageIDs(ctx, 7)
	if err != nil {
		t.Fatalf("SentMessageIDs: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("history not cleared: %v", ids)
	}
}

func TestUserQueries(t *testing.T) {
	t.Parallel()
	s, ctx := openTestStore(t)

	seedUser(t, s, 1, PlanActive, "America/Sao_Paulo")
	seedUser(t, s, 2, PlanFree, "")
	seedUser(t, s, 3, PlanPending, "")
	if err := s.UpsertDevice(ctx, Device{UserID: 1, Token: "tok"}); err != nil {
		t.Fatalf("UpsertDevice: %v", err)
	}

	subs, err := s.Subscribers(ctx)
	if err != nil {
		t.Fatalf("Subscribers: %v", err)
	}
	if len(subs) != 1 || subs[0].ID != 1 {
		t.Fatalf("Subscribers = %+v", subs)
	}

	pending, err := s.PendingUsers(ctx)
	if err != nil {
		t.Fatalf("PendingUsers: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != 3 {
		t.Fatalf("PendingUsers = %+v", pending)
	}

	withDevices, err := s.UsersWithDevices(ctx)
	if err != nil {
		t.Fatalf("UsersWithDevices: %v", err)
	}
	if len(withDevices) != 1 || withDevices[0].ID != 1 {
		t.Fatalf("UsersWithDevices = %+v", withDevices)
	}

	u, err := s.UserByID(ctx, 1)
	if err != nil {
		t.Fatalf("UserByID: %v", err)
	}
	if u.Timezone != "America/Sao_Paulo" {
		t.Fatalf("timezone = %q", u.Timezone)
	}
	if _, err := s.UserByID(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing user: err = %v, want ErrNotFound", err)
	}
}

func TestShowsBetween(t *testing.T) {
	t.Parallel()
	s, ctx := openTestStore(t)

	stmts := []struct {
		q    string
		args []any
	}{
		{`INSERT INTO shows(id, owner_id, date_local, time_local, venue_name) VALUES(?,?,?,?,?)`,
			[]any{1, 10, "2026-07-09", "20:00", "Blue Note"}},
		{`INSERT INTO shows(id, owner_id, date_local, time_local, venue_name) VALUES(?,?,?,?,?)`,
			[]any{2, 10, "2026-08-01", "21:00", "Far Future Hall"}},
		{`INSERT INTO show_members(show_id, user_id) VALUES(?,?)`, []any{1, 11}},
		{`INSERT INTO show_members(show_id, user_id) VALUES(?,?)`, []any{1, 12}},
	}
	for _, st := range stmts {
		if _, err := s.db.Exec(st.q, st.args...); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	shows, err := s.ShowsBetween(ctx, "2026-07-01", "2026-07-31")
	if err != nil {
		t.Fatalf("ShowsBetween: %v", err)
	}
	if len(shows) != 1 || shows[0].ID != 1 {
		t.Fatalf("shows = %+v", shows)
	}
	if len(shows[0].MemberIDs) != 2 {
		t.Fatalf("members = %v, want 2", shows[0].MemberIDs)
	}

	// Owned shows and member shows both count.
	n, err := s.ShowCount(ctx, 10)
	if err != nil {
		t.Fatalf("ShowCount: %v", err)
	}
	if n != 2 {
		t.Fatalf("owner count = %d, want 2", n)
	}
	n, err = s.ShowCount(ctx, 11)
	if err != nil {
		t.Fatalf("ShowCount: %v", err)
	}
	if n != 1 {
		t.Fatalf("member count = %d, want 1", n)
	}
}

func TestCancelledSubscriptions(t *testing.T) {
	t.Parallel()
	s, ctx := openTestStore(t)

	due := time.Date(2026, 9, 8, 0, 0, 0, 0, time.UTC)
	seed := []struct {
		id     int64
		status string
		due    any
	}{
		{1, SubCancelled, due.UnixMilli()},
		{2, SubActive, due.UnixMilli()},
		{3, SubCancelled, nil},
	}
	for _, row := range seed {
		if _, err := s.db.Exec(
			`INSERT INTO subscriptions(id, user_id, status, next_due_date) VALUES(?,?,?,?)`,
			row.id, row.id*10, row.status, row.due); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	subs, err := s.CancelledSubscriptions(ctx)
	if err != nil {
		t.Fatalf("CancelledSubscriptions: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("len = %d, want 2", len(subs))
	}
	for _, sub := range subs {
		if sub.ID == 1 && !sub.NextDueDate.Equal(due) {
			t.Fatalf("next due = %v, want %v", sub.NextDueDate, due)
		}
		if sub.ID == 3 && !sub.NextDueDate.IsZero() {
			t.Fatalf("missing due date should stay zero, got %v", sub.NextDueDate)
		}
	}
}

func TestAppendFeed(t *testing.T) {
	t.Parallel()
	s, ctx := openTestStore(t)

	rec := FeedRecord{ID: "feed-1", UserID: 7, Title: "t", Body: "b", Link: "/shows/1"}
	if err := s.AppendFeed(ctx, rec); err != nil {
		t.Fatalf("AppendFeed: %v", err)
	}

	var title, link string
	var createdAt int64
	err := s.db.QueryRow(`SELECT title, link, created_at FROM feed WHERE id = ?`, rec.ID).
		Scan(&title, &link, &createdAt)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if title != "t" || link != "/shows/1" {
		t.Fatalf("row = %s %s", title, link)
	}
	if createdAt == 0 {
		t.Fatal("created_at should default to now")
	}
}
