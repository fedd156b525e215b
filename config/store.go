package config

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Store publishes the current scoring and strategy documents. Reads are
// lock-free snapshots; writers replace the whole document.
type Store struct {
	scoringPath  string
	strategyPath string

	scoring  atomic.Pointer[ScoringConfig]
	strategy atomic.Pointer[StrategyConfig]

	mu        sync.Mutex // serialises Reload
	listeners []func()
}

// NewStore loads both documents. Load problems are logged and defaults used.
func NewStore(scoringPath, strategyPath string) *Store {
	s := &Store{scoringPath: scoringPath, strategyPath: strategyPath}
	sc, _ := LoadScoring(scoringPath)
	st, _ := LoadStrategy(strategyPath)
	s.scoring.Store(&sc)
	s.strategy.Store(&st)
	return s
}

// NewStaticStore wraps already-built documents, mainly for tests.
func NewStaticStore(sc ScoringConfig, st StrategyConfig) *Store {
	sc.Validate()
	_ = st.Validate()
	s := &Store{}
	s.scoring.Store(&sc)
	s.strategy.Store(&st)
	return s
}

func (s *Store) Scoring() ScoringConfig   { return *s.scoring.Load() }
func (s *Store) Strategy() StrategyConfig { return *s.strategy.Load() }

// SetStrategy replaces the strategy document, last write wins.
func (s *Store) SetStrategy(c StrategyConfig) error {
	err := c.Validate()
	s.strategy.Store(&c)
	slog.Info("strategy updated", "strategy", c.PriorityStrategy, "stopConditions", c.Stop.Enabled)
	s.notify()
	return err
}

// OnReload registers fn to run after every successful swap.
func (s *Store) OnReload(fn func()) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Reload re-reads both files from disk. It is the single hot-reload entry
// point; a bad document falls back to defaults, it never leaves the store empty.
func (s *Store) Reload() error {
	s.mu.Lock()
	sc, scErr := LoadScoring(s.scoringPath)
	st, stErr := LoadStrategy(s.strategyPath)
	s.scoring.Store(&sc)
	s.strategy.Store(&st)
	s.mu.Unlock()

	slog.Info("config reloaded", "scoring", s.scoringPath, "strategy", s.strategyPath)
	s.notify()
	if scErr != nil {
		return scErr
	}
	return stErr
}

// Paths returns the files the store reloads from.
func (s *Store) Paths() []string {
	var out []string
	for _, p := range []string{s.scoringPath, s.strategyPath} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (s *Store) notify() {
	s.mu.Lock()
	ls := append([]func(){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range ls {
		fn()
	}
}
