package risk

import (
	"context"
	"sync"
	"time"

	"github.com/sardis-labs/core/id"
	"github.com/sardis-labs/core/types"
)

const historyCap = 100

// agentHistory is the mutable per-agent state a MemoryProfileStore keeps
// between payments.
type agentHistory struct {
	recent []time.Time // transaction timestamps, oldest first

	amounts    []types.Money // capped at historyCap, most recent last
	recipients map[id.WalletID]bool
	categories map[string]bool

	failureCount        int
	consecutiveFailures int
}

// MemoryProfileStore is an in-process, mutex-guarded RiskProfileStore. It
// keeps exactly the rolling-window and history state the risk rules read,
// per spec §4.2.2, and nothing more durable stores would also persist
// (that's the job of whatever also implements store.Store).
type MemoryProfileStore struct {
	mu   sync.Mutex
	byAgent map[id.AgentID]*agentHistory
	now  func() time.Time
}

// NewMemoryProfileStore builds an empty profile store.
func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{
		byAgent: make(map[id.AgentID]*agentHistory),
		now:     time.Now,
	}
}

func (s *MemoryProfileStore) historyFor(agentID id.AgentID) *agentHistory {
	h, ok := s.byAgent[agentID]
	if !ok {
		h = &agentHistory{
			recipients: make(map[id.WalletID]bool),
			categories: make(map[string]bool),
		}
		s.byAgent[agentID] = h
	}
	return h
}

// GetAgentProfile implements orchestrator.RiskProfileStore.
func (s *MemoryProfileStore) GetAgentProfile(_ context.Context, agentID id.AgentID) (AgentProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.historyFor(agentID)
	now := s.now().UTC()

	var lastHour, lastDay int
	for _, t := range h.recent {
		switch {
		case now.Sub(t) <= time.Hour:
			lastHour++
			lastDay++
		case now.Sub(t) <= 24*time.Hour:
			lastDay++
		}
	}

	profile := AgentProfile{
		TransactionsLastHour: lastHour,
		TransactionsLastDay:  lastDay,
		HistoryCount:         len(h.amounts),
		AmountHistory:        append([]types.Money(nil), h.amounts...),
		TypicalRecipients:    copyWalletSet(h.recipients),
		TypicalCategories:    copyStringSet(h.categories),
		FailureCount:         h.failureCount,
		ConsecutiveFailures:  h.consecutiveFailures,
	}

	if n := len(h.amounts); n > 0 {
		var sum types.Money
		max := h.amounts[0]
		for i, m := range h.amounts {
			if i == 0 {
				sum = m
				continue
			}
			sum = sum.Add(m)
			if m.Amount.GreaterThan(max.Amount) {
				max = m
			}
		}
		profile.AverageAmount = sum.Divide(int64(n))
		profile.MaxAmount = max
	}

	return profile, nil
}

// RecordOutcome implements orchestrator.RiskProfileStore. It updates the
// rolling window and, on success, folds the payment into the agent's
// history; a failure only moves the failure counters so repeated denials
// don't quietly normalize an attacker's amount distribution.
func (s *MemoryProfileStore) RecordOutcome(_ context.Context, agentID id.AgentID, success bool, amount types.Money, recipient id.WalletID, category string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.historyFor(agentID)
	now := s.now().UTC()
	h.recent = pruneOlderThan(append(h.recent, now), now, 24*time.Hour)

	if !success {
		h.failureCount++
		h.consecutiveFailures++
		return
	}

	h.consecutiveFailures = 0
	h.amounts = append(h.amounts, amount)
	if len(h.amounts) > historyCap {
		h.amounts = h.amounts[len(h.amounts)-historyCap:]
	}
	h.recipients[recipient] = true
	if category != "" {
		h.categories[category] = true
	}
}

func pruneOlderThan(ts []time.Time, now time.Time, window time.Duration) []time.Time {
	out := ts[:0]
	for _, t := range ts {
		if now.Sub(t) <= window {
			out = append(out, t)
		}
	}
	return out
}

func copyWalletSet(m map[id.WalletID]bool) map[id.WalletID]bool {
	out := make(map[id.WalletID]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyStringSet(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
