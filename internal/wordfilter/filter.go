// Package wordfilter holds the process-wide sensitive word snapshot.
// Request paths only read it; the list is replaced wholesale by Refresh.
package wordfilter

import (
	"context"
	"log"
	"strings"
	"sync/atomic"
	"time"
)

// Source supplies the current word list.
type Source interface {
	ListWords(ctx context.Context) ([]string, error)
}

// Filter rejects content containing any listed word, case-insensitively.
type Filter struct {
	source Source
	words  atomic.Pointer[[]string]
}

// New returns a filter with an empty snapshot. Call Refresh before serving.
func New(source Source) *Filter {
	f := &Filter{source: source}
	empty := []string{}
	f.words.Store(&empty)
	return f
}

// Refresh loads a new snapshot. On error the previous snapshot is kept.
func (f *Filter) Refresh(ctx context.Context) error {
	raw, err := f.source.ListWords(ctx)
	if err != nil {
		return err
	}
	words := make([]string, 0, len(raw))
	for _, w := range raw {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			words = append(words, w)
		}
	}
	f.words.Store(&words)
	log.Printf("wordfilter: loaded %d words", len(words))
	return nil
}

// Run refreshes the snapshot every interval until ctx is done.
func (f *Filter) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := f.Refresh(ctx); err != nil {
				log.Printf("wordfilter: refresh failed: %v", err)
			}
		}
	}
}

// Contains reports whether text contains a listed word.
func (f *Filter) Contains(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, w := range *f.words.Load() {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
