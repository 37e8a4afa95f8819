// Package sampling builds a randomized author filter from the operator's social graph, which
// biases search results toward accounts the operator already knows.
package sampling

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/lukehollenback/birdcall/platform"
)

type Platform interface {
	Friends(ctx context.Context) iter.Seq2[*platform.Account, error]
	// empty screenName means the authenticated account
	Followers(ctx context.Context, screenName string) iter.Seq2[*platform.Account, error]
	ListMembers(ctx context.Context, listID string) iter.Seq2[*platform.Account, error]
}

// Social graph sources to draw authors from.
type Sources struct {
	Friends   bool
	Followers bool
	ListID    string
}

func (s Sources) Empty() bool {
	return !s.Friends && !s.Followers && s.ListID == ""
}

type Builder struct {
	Client Platform
	Logger *slog.Logger
	// if nil, a freshly seeded generator is used for every invocation
	Rand *rand.Rand
}

func NewBuilder(client Platform, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		Client: client,
		Logger: logger.With("system", "sampling"),
	}
}

// Collects screen names from the requested sources, de-duplicated by first occurrence across all
// of them.
func (b *Builder) Collect(ctx context.Context, src Sources) ([]string, error) {
	names := []string{}
	seen := make(map[string]bool)
	add := func(source string, accounts iter.Seq2[*platform.Account, error]) error {
		n := 0
		for acct, err := range accounts {
			if err != nil {
				return fmt.Errorf("listing %s: %w", source, err)
			}
			if seen[acct.ScreenName] {
				continue
			}
			seen[acct.ScreenName] = true
			names = append(names, acct.ScreenName)
			n++
		}
		b.Logger.Info("collected authors", "source", source, "added", n)
		return nil
	}

	if src.Friends {
		if err := add("friends", b.Client.Friends(ctx)); err != nil {
			return nil, err
		}
	}
	if src.Followers {
		if err := add("followers", b.Client.Followers(ctx, "")); err != nil {
			return nil, err
		}
	}
	if src.ListID != "" {
		if err := add("list members", b.Client.ListMembers(ctx, src.ListID)); err != nil {
			return nil, err
		}
	}
	return names, nil
}

// Shuffles names (in place) and renders the first maxTerms as a disjunction of "from:" terms.
// Returns an empty string for an empty list, meaning "no author restriction".
func Render(names []string, maxTerms int, rng *rand.Rand) string {
	if len(names) == 0 || maxTerms <= 0 {
		return ""
	}
	rng.Shuffle(len(names), func(i, j int) {
		names[i], names[j] = names[j], names[i]
	})
	if len(names) > maxTerms {
		names = names[:maxTerms]
	}
	terms := make([]string, len(names))
	for i, n := range names {
		terms[i] = "from:" + n
	}
	return "(" + strings.Join(terms, " OR ") + ")"
}

// Collects authors from the sources and renders a random filter of at most maxTerms of them.
func (b *Builder) BuildFilter(ctx context.Context, src Sources, maxTerms int) (string, error) {
	if src.Empty() {
		return "", nil
	}
	names, err := b.Collect(ctx, src)
	if err != nil {
		return "", err
	}
	rng := b.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return Render(names, maxTerms, rng), nil
}

// Joins a base search query and an author filter.
func AppendFilter(query, filter string) string {
	if filter == "" {
		return query
	}
	if query == "" {
		return filter
	}
	return query + " " + filter
}
