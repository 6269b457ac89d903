package messages

import (
	"context"
	"errors"
	"math/rand"
)

// Strategy names what happens when a user has exhausted a pool.
//
// The two jobs that pick from pools intentionally disagree here: the
// engagement-tip job wipes the user's history and restarts the cycle, the
// marketing job starts repeating without touching history.
type Strategy int

const (
	// ResetOnExhaustion deletes the user's entire send history, then picks
	// from the full pool.
	ResetOnExhaustion Strategy = iota
	// RepeatOnExhaustion picks from the full pool without resetting history;
	// repeats become possible.
	RepeatOnExhaustion
)

var ErrEmptyPool = errors.New("messages: empty pool")

// History is the slice of the store the selector needs.
type History interface {
	SentMessageIDs(ctx context.Context, userID int64) ([]string, error)
	ResetMessageHistory(ctx context.Context, userID int64) error
}

// Selector picks an unsent message from a cohort's pool.
type Selector struct {
	catalog Catalog
	history History
	intn    func(n int) int
}

// NewSelector builds a selector. rnd may be nil (uses math/rand); tests pass
// a deterministic source.
func NewSelector(catalog Catalog, history History, rnd *rand.Rand) *Selector {
	intn := rand.Intn
	if rnd != nil {
		intn = rnd.Intn
	}
	return &Selector{catalog: catalog, history: history, intn: intn}
}

// Pick returns an unsent message for the user from the cohort's pool,
// applying the given exhaustion strategy. The message-id history is global:
// sends from any cohort count against every pool.
func (s *Selector) Pick(ctx context.Context, userID int64, cohort Cohort, strategy Strategy) (Message, error) {
	pool := s.catalog[cohort]
	if len(pool) == 0 {
		return Message{}, ErrEmptyPool
	}

	sent, err := s.history.SentMessageIDs(ctx, userID)
	if err != nil {
		return Message{}, err
	}
	seen := make(map[string]struct{}, len(sent))
	for _, id := range sent {
		seen[id] = struct{}{}
	}

	unsent := make([]Message, 0, len(pool))
	for _, m := range pool {
		if _, ok := seen[m.ID]; !ok {
			unsent = append(unsent, m)
		}
	}

	if len(unsent) > 0 {
		return unsent[s.intn(len(unsent))], nil
	}

	// Pool exhausted.
	switch strategy {
	case ResetOnExhaustion:
		if err := s.history.ResetMessageHistory(ctx, userID); err != nil {
			return Message{}, err
		}
	case RepeatOnExhaustion:
		// keep history; repeats allowed
	}
	return pool[s.intn(len(pool))], nil
}
