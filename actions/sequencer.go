// Package actions performs the retweet → like → follow sequence over a stream of candidate posts.
//
// Retweeting is the gating action: if it fails, nothing else happens for that candidate and it
// does not count against the budget. Likes and follows are best-effort and only logged when they
// fail. Between successful candidates the sequencer blocks for a fixed delay, to stay under the
// platform's abuse thresholds.
//
// The sequencer relies on the platform's "already retweeted" flag to make re-runs safe. That flag
// is eventually consistent, so a stale flag simply shows up as a failed retweet.
package actions

import (
	"context"
	"iter"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/lukehollenback/birdcall/mutes"
	"github.com/lukehollenback/birdcall/platform"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("actions")

// number of random draws SampleAndProcess makes before giving up
const maxSampleAttempts = 5

type Platform interface {
	FetchPost(ctx context.Context, id platform.PostID) (*platform.Post, error)
	Retweet(ctx context.Context, id platform.PostID) error
	Like(ctx context.Context, id platform.PostID) error
	Follow(ctx context.Context, id platform.AccountID) error
}

type Options struct {
	// also like each retweeted post
	Like bool
	// also follow the author of each retweeted post
	Follow bool
	// stop after this many successful retweets
	MaxActions int
	// pause after each successful retweet
	Delay time.Duration
	// act on the quoted post instead of a candidate which quotes another post
	TraverseQuotes bool
}

func DefaultOptions() Options {
	return Options{
		MaxActions: 7,
		Delay:      30 * time.Second,
	}
}

type Sequencer struct {
	Client Platform
	// may be nil
	Mutes  *mutes.Set
	Logger *slog.Logger
	// blocks for the given duration or until the context is done
	Sleep func(ctx context.Context, d time.Duration) error
}

func NewSequencer(client Platform, muteSet *mutes.Set, logger *slog.Logger) *Sequencer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sequencer{
		Client: client,
		Mutes:  muteSet,
		Logger: logger.With("system", "actions"),
		Sleep:  SleepContext,
	}
}

func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Outcome of processing one candidate, logged as a single line.
type stepResult struct {
	candidate *platform.Post
	target    *platform.Post
	skip      string
	retweeted bool
	liked     []platform.PostID
	followed  bool
}

func (r *stepResult) logLine(logger *slog.Logger) {
	if r.skip != "" {
		candidatesSkipped.WithLabelValues(r.skip).Inc()
		logger.Info("skipped candidate", "post", r.candidate.ID, "reason", r.skip)
		return
	}
	logger.Info("processed candidate",
		"post", r.candidate.ID,
		"target", r.target.ID,
		"author", r.target.Author.ID,
		"retweeted", r.retweeted,
		"liked", r.liked,
		"followed", r.followed,
	)
}

func (s *Sequencer) record(m platform.Mutation, err error) {
	if err == nil {
		mutationCount.WithLabelValues(string(m), "ok").Inc()
		return
	}
	mutationCount.WithLabelValues(string(m), string(platform.KindOf(err))).Inc()
}

// Runs the full sequence for one candidate. Returns whether the retweet succeeded.
func (s *Sequencer) step(ctx context.Context, c *platform.Post, opts Options) bool {
	candidatesProcessed.Inc()
	res := &stepResult{candidate: c, target: c}
	defer res.logLine(s.Logger)

	if s.Mutes.Excludes(c) {
		res.skip = "muted"
		return false
	}

	// the quoted payload embedded in search results lacks reliable flags, so fetch it fresh
	if opts.TraverseQuotes && c.QuotedPostID != nil {
		quoted, err := s.Client.FetchPost(ctx, *c.QuotedPostID)
		if err != nil {
			s.Logger.Warn("failed to fetch quoted post", "post", c.ID, "quoted", *c.QuotedPostID, "err", err)
			res.skip = "quote-fetch"
			return false
		}
		s.Logger.Debug("traversed to quoted post", "post", c.ID, "quoted", quoted.ID)
		res.target = quoted
	}
	t := res.target

	if t.RetweetedBySelf {
		res.skip = "already-retweeted"
		return false
	}

	err := s.Client.Retweet(ctx, t.ID)
	s.record(platform.MutationRetweet, err)
	if err != nil {
		s.Logger.Warn("failed to retweet, not counting it", "post", t.ID, "err", err)
		res.skip = "retweet-failed"
		return false
	}
	res.retweeted = true

	if opts.Like {
		likes := []platform.PostID{t.ID}
		if t.ID != c.ID {
			likes = append(likes, c.ID)
		}
		for _, id := range likes {
			err := s.Client.Like(ctx, id)
			s.record(platform.MutationLike, err)
			if err != nil {
				s.Logger.Warn("failed to like", "post", id, "err", err)
				continue
			}
			res.liked = append(res.liked, id)
		}
	}

	if opts.Follow {
		err := s.Client.Follow(ctx, t.Author.ID)
		s.record(platform.MutationFollow, err)
		if err != nil {
			s.Logger.Warn("failed to follow author", "post", t.ID, "author", t.Author.ID, "err", err)
		} else {
			res.followed = true
		}
	}
	return true
}

// Processes candidates in order until MaxActions retweets have succeeded or the sequence ends.
// Returns the number of successful retweets, which never exceeds MaxActions. An error from the
// candidate sequence (or context cancellation during the delay) ends processing early and is
// returned along with the count so far.
func (s *Sequencer) Process(ctx context.Context, candidates iter.Seq2[*platform.Post, error], opts Options) (int, error) {
	if opts.MaxActions <= 0 {
		return 0, nil
	}
	ctx, span := tracer.Start(ctx, "Process")
	defer span.End()

	count := 0
	for c, err := range candidates {
		if err != nil {
			span.SetAttributes(attribute.Int("retweets", count))
			return count, err
		}
		if !s.step(ctx, c, opts) {
			continue
		}
		count++
		if count >= opts.MaxActions {
			s.Logger.Info("reached maximum retweets", "max", opts.MaxActions)
			break
		}
		if err := s.sleep(ctx, opts.Delay); err != nil {
			span.SetAttributes(attribute.Int("retweets", count))
			return count, err
		}
	}
	span.SetAttributes(attribute.Int("retweets", count))
	return count, nil
}

func (s *Sequencer) sleep(ctx context.Context, d time.Duration) error {
	if s.Sleep == nil {
		return SleepContext(ctx, d)
	}
	return s.Sleep(ctx, d)
}

// Retweets one randomly chosen candidate from a small, finite result page. Up to five draws are
// made; a draw is burned when the chosen post is muted, already retweeted, or fails to retweet.
// Returns 1 if a retweet succeeded, otherwise 0. No pacing delay is applied.
func (s *Sequencer) SampleAndProcess(ctx context.Context, candidates []*platform.Post, opts Options, rng *rand.Rand) (int, error) {
	if len(candidates) == 0 {
		s.Logger.Info("no candidates to sample")
		return 0, nil
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	for attempt := 0; attempt < maxSampleAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		c := candidates[rng.IntN(len(candidates))]
		if s.step(ctx, c, opts) {
			return 1, nil
		}
	}
	s.Logger.Info("gave up sampling candidates", "attempts", maxSampleAttempts)
	return 0, nil
}
