package messages

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"
)

type fakeHistory struct {
	sent   map[int64][]string
	resets int
}

func (h *fakeHistory) SentMessageIDs(_ context.Context, userID int64) ([]string, error) {
	return h.sent[userID], nil
}

func (h *fakeHistory) ResetMessageHistory(_ context.Context, userID int64) error {
	h.resets++
	delete(h.sent, userID)
	return nil
}

func testCatalog() Catalog {
	return Catalog{
		ActiveEngagement: {
			{ID: "eng_01", Title: "a", Body: "a"},
			{ID: "eng_02", Title: "b", Body: "b"},
			{ID: "eng_03", Title: "c", Body: "c"},
		},
		Conversion: {
			{ID: "conv_01", Title: "x", Body: "x"},
		},
	}
}

func TestPickSkipsSentMessages(t *testing.T) {
	t.Parallel()
	h := &fakeHistory{sent: map[int64][]string{7: {"eng_01", "eng_03"}}}
	s := NewSelector(testCatalog(), h, rand.New(rand.NewSource(1)))

	got, err := s.Pick(context.Background(), 7, ActiveEngagement, ResetOnExhaustion)
	if err != nil {
		t.Fatalf("Pick error: %v", err)
	}
	if got.ID != "eng_02" {
		t.Fatalf("picked %s, want eng_02 (only unsent)", got.ID)
	}
	if h.resets != 0 {
		t.Fatalf("resets = %d, want 0", h.resets)
	}
}

func TestPickResetOnExhaustion(t *testing.T) {
	t.Parallel()
	h := &fakeHistory{sent: map[int64][]string{7: {"eng_01", "eng_02", "eng_03"}}}
	s := NewSelector(testCatalog(), h, rand.New(rand.NewSource(1)))

	got, err := s.Pick(context.Background(), 7, ActiveEngagement, ResetOnExhaustion)
	if err != nil {
		t.Fatalf("Pick error: %v", err)
	}
	if got.ID == "" {
		t.Fatal("expected a message after reset")
	}
	if h.resets != 1 {
		t.Fatalf("resets = %d, want 1", h.resets)
	}
	if len(h.sent[7]) != 0 {
		t.Fatalf("history not wiped: %v", h.sent[7])
	}
}

func TestPickRepeatOnExhaustion(t *testing.T) {
	t.Parallel()
	h := &fakeHistory{sent: map[int64][]string{7: {"eng_01", "eng_02", "eng_03"}}}
	s := NewSelector(testCatalog(), h, rand.New(rand.NewSource(1)))

	got, err := s.Pick(context.Background(), 7, ActiveEngagement, RepeatOnExhaustion)
	if err != nil {
		t.Fatalf("Pick error: %v", err)
	}
	if got.ID == "" {
		t.Fatal("expected a repeated message")
	}
	if h.resets != 0 {
		t.Fatalf("resets = %d, want 0 (history preserved)", h.resets)
	}
	if len(h.sent[7]) != 3 {
		t.Fatalf("history changed: %v", h.sent[7])
	}
}

func TestPickEmptyPool(t *testing.T) {
	t.Parallel()
	s := NewSelector(testCatalog(), &fakeHistory{sent: map[int64][]string{}}, nil)
	_, err := s.Pick(context.Background(), 7, InactiveEngagement, ResetOnExhaustion)
	if !errors.Is(err, ErrEmptyPool) {
		t.Fatalf("err = %v, want ErrEmptyPool", err)
	}
}

func TestClassifyCohort(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	week := 7 * 24 * time.Hour

	tests := []struct {
		name       string
		subscribed bool
		lastSeen   time.Time
		shows      int
		want       Cohort
	}{
		{name: "free user", subscribed: false, lastSeen: now, shows: 10, want: Conversion},
		{name: "idle beats new user", subscribed: true, lastSeen: now.Add(-8 * 24 * time.Hour), shows: 0, want: InactiveEngagement},
		{name: "idle exactly at threshold", subscribed: true, lastSeen: now.Add(-week), shows: 5, want: InactiveEngagement},
		{name: "no shows yet", subscribed: true, lastSeen: now.Add(-time.Hour), shows: 0, want: NewUserEngagement},
		{name: "never seen with shows", subscribed: true, shows: 3, want: ActiveEngagement},
		{name: "active", subscribed: true, lastSeen: now.Add(-time.Hour), shows: 3, want: ActiveEngagement},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyCohort(tt.subscribed, tt.lastSeen, tt.shows, now, week)
			if got != tt.want {
				t.Fatalf("ClassifyCohort = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDefaultCatalogPoolsNonEmpty(t *testing.T) {
	t.Parallel()
	cat := DefaultCatalog()
	for _, cohort := range []Cohort{Conversion, ActiveEngagement, InactiveEngagement, NewUserEngagement} {
		pool := cat[cohort]
		if len(pool) == 0 {
			t.Fatalf("cohort %s has an empty pool", cohort)
		}
		seen := make(map[string]bool, len(pool))
		for _, m := range pool {
			if m.ID == "" || m.Title == "" || m.Body == "" {
				t.Fatalf("cohort %s has an incomplete message: %+v", cohort, m)
			}
			if seen[m.ID] {
				t.Fatalf("duplicate message id %s in cohort %s", m.ID, cohort)
			}
			seen[m.ID] = true
		}
	}
}
