package summary

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

type Strategy string

const (
	StrategyRSSFirst    Strategy = "rss_first"
	StrategyAIGenerated Strategy = "ai_generated"
	StrategyHybrid      Strategy = "hybrid"
	StrategySimple      Strategy = "simple"

	DefaultStrategy = StrategyRSSFirst
)

var Strategies = []Strategy{StrategyRSSFirst, StrategyAIGenerated, StrategyHybrid, StrategySimple}

func (s Strategy) String() string {
	return string(s)
}

func (s Strategy) Valid() bool {
	switch s {
	case StrategyRSSFirst, StrategyAIGenerated, StrategyHybrid, StrategySimple:
		return true
	}
	return false
}

// ParseStrategy accepts a strategy name case-insensitively.
func ParseStrategy(name string) (Strategy, error) {
	s := Strategy(strings.ToLower(strings.TrimSpace(name)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown summary strategy %q", name)
	}
	return s, nil
}

// StrategyStore persists the active strategy.
type StrategyStore interface {
	GetStrategy(ctx context.Context) (Strategy, error)
	SetStrategy(ctx context.Context, strategy Strategy) error
}

// MemoryStore keeps the strategy in memory for one-shot runs.
type MemoryStore struct {
	mu       sync.RWMutex
	strategy Strategy
}

func NewMemoryStore(strategy Strategy) *MemoryStore {
	if !strategy.Valid() {
		strategy = DefaultStrategy
	}
	return &MemoryStore{strategy: strategy}
}

func (m *MemoryStore) GetStrategy(_ context.Context) (Strategy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.strategy, nil
}

func (m *MemoryStore) SetStrategy(_ context.Context, strategy Strategy) error {
	if !strategy.Valid() {
		return fmt.Errorf("unknown summary strategy %q", strategy)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.strategy = strategy
	return nil
}

var _ StrategyStore = (*MemoryStore)(nil)
