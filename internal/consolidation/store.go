package consolidation

import (
	"context"
	"sync"
)

// DecisionLog persists conflict arbitrations. Append-only: decisions are
// never updated or deleted.
type DecisionLog interface {
	Append(ctx context.Context, decision ConflictDecision) error
	List(ctx context.Context) ([]ConflictDecision, error)
}

// MemoryDecisionLog is an in-memory DecisionLog for the demo binary and tests.
type MemoryDecisionLog struct {
	mu        sync.RWMutex
	decisions []ConflictDecision
}

// NewMemoryDecisionLog creates an empty in-memory decision log.
func NewMemoryDecisionLog() *MemoryDecisionLog {
	return &MemoryDecisionLog{}
}

func (l *MemoryDecisionLog) Append(_ context.Context, decision ConflictDecision) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.decisions = append(l.decisions, decision)
	return nil
}

func (l *MemoryDecisionLog) List(_ context.Context) ([]ConflictDecision, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]ConflictDecision, len(l.decisions))
	copy(out, l.decisions)
	return out, nil
}
