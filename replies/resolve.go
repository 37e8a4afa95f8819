// Package replies reconstructs the set of direct replies to one or more target posts.
//
// The platform's standard search can not answer "replies to post X". Instead the resolver
// searches for recent posts addressed to each target's author (excluding the author's own
// self-replies), bounded below by the oldest target id, and then keeps only the candidates whose
// in-reply-to id is one of the targets. The search over-returns (replies to other posts by the
// same authors), so that membership check is required for correctness.
//
// Results are best-effort: replies older than the platform's search window are never seen, and a
// reply to a target which was not known when the target list was assembled is dropped.
package replies

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/lukehollenback/birdcall/mutes"
	"github.com/lukehollenback/birdcall/platform"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var ErrEmptySeed = errors.New("reply resolution needs a post id or a search query")

var tracer = otel.Tracer("replies")

type Platform interface {
	FetchPost(ctx context.Context, id platform.PostID) (*platform.Post, error)
	Search(ctx context.Context, params platform.SearchParams) iter.Seq2[*platform.Post, error]
}

// Target posts to find replies to. At least one field must be set; when both are, the targets
// are the union.
type Seed struct {
	PostID platform.PostID
	// may contain the "{today}" placeholder
	Query string
}

type Resolver struct {
	Client Platform
	// may be nil
	Mutes  *mutes.Set
	Logger *slog.Logger

	// bounds on the seed query search
	SeedPageSize int
	SeedMaxPages int

	// page size for the reply search; zero uses the platform default
	ReplyPageSize int

	Now func() time.Time
}

func NewResolver(client Platform, muteSet *mutes.Set, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		Client:       client,
		Mutes:        muteSet,
		Logger:       logger.With("system", "replies"),
		SeedPageSize: 3,
		SeedMaxPages: 1,
		Now:          time.Now,
	}
}

type Resolution struct {
	// target post ids, oldest first
	TargetIDs []platform.PostID
	// target author screen names, in first-seen order
	Authors []string
	// the reply search query; empty when there are no targets
	Query string
	// Lazily searches for replies on each iteration. Candidates are yielded in platform order
	// (newest first) and are never re-sorted.
	Replies iter.Seq2[*platform.Post, error]
}

// Renders a disjunction matching posts addressed to any of the authors, excluding each author's
// self-replies.
func BuildQuery(authors []string) string {
	if len(authors) == 1 {
		return fmt.Sprintf("to:%s -from:%s", authors[0], authors[0])
	}
	clauses := make([]string, len(authors))
	for i, a := range authors {
		clauses[i] = fmt.Sprintf("(to:%s -from:%s)", a, a)
	}
	return strings.Join(clauses, " OR ")
}

// Assembles the target posts (eagerly) and returns a lazy sequence of their replies.
func (r *Resolver) Resolve(ctx context.Context, seed Seed) (*Resolution, error) {
	if seed.PostID == 0 && seed.Query == "" {
		return nil, ErrEmptySeed
	}
	ctx, span := tracer.Start(ctx, "Resolve")
	defer span.End()

	var targetIDs []platform.PostID
	var authors []string
	seenIDs := make(map[platform.PostID]bool)
	seenAuthors := make(map[platform.AccountID]bool)
	add := func(p *platform.Post) {
		if !seenIDs[p.ID] {
			seenIDs[p.ID] = true
			targetIDs = append(targetIDs, p.ID)
		}
		if !seenAuthors[p.Author.ID] {
			seenAuthors[p.Author.ID] = true
			authors = append(authors, p.Author.ScreenName)
		}
	}

	if seed.PostID != 0 {
		target, err := r.Client.FetchPost(ctx, seed.PostID)
		if err != nil {
			return nil, fmt.Errorf("fetching target post: %w", err)
		}
		add(target)
	}

	if seed.Query != "" {
		now := time.Now
		if r.Now != nil {
			now = r.Now
		}
		q := platform.FormatQuery(seed.Query, now())
		r.Logger.Info("searching for target posts", "query", q)
		params := platform.SearchParams{
			Query:    q,
			PageSize: r.SeedPageSize,
			MaxPages: r.SeedMaxPages,
		}
		for p, err := range r.Client.Search(ctx, params) {
			if err != nil {
				return nil, fmt.Errorf("searching for target posts: %w", err)
			}
			add(p)
		}
	}

	slices.Sort(targetIDs)
	span.SetAttributes(attribute.Int("targets", len(targetIDs)))

	res := &Resolution{
		TargetIDs: targetIDs,
		Authors:   authors,
	}
	if len(targetIDs) == 0 {
		r.Logger.Info("no target posts found")
		res.Replies = func(yield func(*platform.Post, error) bool) {}
		return res, nil
	}
	res.Query = BuildQuery(authors)
	res.Replies = r.replies(ctx, res.Query, seenIDs, targetIDs[0])
	return res, nil
}

func (r *Resolver) replies(ctx context.Context, query string, targets map[platform.PostID]bool, since platform.PostID) iter.Seq2[*platform.Post, error] {
	return func(yield func(*platform.Post, error) bool) {
		r.Logger.Info("searching for replies", "query", query, "since", since)
		params := platform.SearchParams{
			Query:    query,
			SinceID:  since,
			PageSize: r.ReplyPageSize,
		}
		for cand, err := range r.Client.Search(ctx, params) {
			if err != nil {
				yield(nil, fmt.Errorf("searching for replies: %w", err))
				return
			}
			if !cand.IsReplyTo(targets) {
				r.Logger.Debug("skipping post which is not a reply to a target", "post", cand.ID)
				continue
			}
			if r.Mutes.Excludes(cand) {
				r.Logger.Info("skipping reply from muted account", "post", cand.ID, "author", cand.Author.ID)
				continue
			}
			if !yield(cand, nil) {
				return
			}
		}
	}
}
