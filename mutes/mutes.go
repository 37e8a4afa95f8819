// Package mutes loads the operator's muted accounts, which every engine consults before acting
// on a post.
//
// Muted accounts' posts occasionally slip through platform search filters, so the set is
// checked explicitly rather than trusted to the search query.
package mutes

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/lukehollenback/birdcall/platform"
)

type Lister interface {
	MutedIDs(ctx context.Context) iter.Seq2[platform.AccountID, error]
}

// Read-only set of muted account ids. A nil *Set contains nothing.
type Set struct {
	ids map[platform.AccountID]bool
}

func NewSet(ids ...platform.AccountID) *Set {
	s := &Set{
		ids: make(map[platform.AccountID]bool, len(ids)),
	}
	for _, id := range ids {
		s.ids[id] = true
	}
	return s
}

// Fetches the full mute list. Intended to be called once per run.
func Load(ctx context.Context, client Lister, logger *slog.Logger) (*Set, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := NewSet()
	for id, err := range client.MutedIDs(ctx) {
		if err != nil {
			return nil, fmt.Errorf("loading mutes: %w", err)
		}
		s.ids[id] = true
	}
	logger.Info("loaded mutes", "count", s.Len())
	return s, nil
}

func (s *Set) Contains(id platform.AccountID) bool {
	if s == nil {
		return false
	}
	return s.ids[id]
}

// Whether the post's author is muted.
func (s *Set) Excludes(p *platform.Post) bool {
	return s.Contains(p.Author.ID)
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}
