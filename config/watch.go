package config

import (
	"context"
	"os"
	"time"
)

// Watcher polls file modification times and calls onChange for each file
// that changed since the previous scan.
type Watcher struct {
	Paths     []string
	Interval  time.Duration
	onChange  func(string)
	lastMTime map[string]time.Time
}

func NewWatcher(paths []string, interval time.Duration, onChange func(string)) *Watcher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Watcher{
		Paths:     paths,
		Interval:  interval,
		onChange:  onChange,
		lastMTime: make(map[string]time.Time),
	}
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()
	w.scan(true)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.scan(false)
		}
	}
}

func (w *Watcher) scan(prime bool) {
	for _, p := range w.Paths {
		fi, err := os.Stat(p)
		if err != nil {
			continue
		}
		mt := fi.ModTime()
		last, ok := w.lastMTime[p]
		w.lastMTime[p] = mt
		if prime {
			continue
		}
		// A file absent when the watcher primed counts as changed when it appears.
		if (!ok || mt.After(last)) && w.onChange != nil {
			w.onChange(p)
		}
	}
}

// WatchStore reloads s whenever one of its files changes.
func WatchStore(ctx context.Context, s *Store, interval time.Duration) {
	w := NewWatcher(s.Paths(), interval, func(string) { _ = s.Reload() })
	w.Run(ctx)
}
