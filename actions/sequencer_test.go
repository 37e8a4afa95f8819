package actions

import (
	"context"
	"errors"
	"iter"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/lukehollenback/birdcall/internal/testutil"
	"github.com/lukehollenback/birdcall/mutes"
	"github.com/lukehollenback/birdcall/platform"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seqOf(posts ...*platform.Post) iter.Seq2[*platform.Post, error] {
	return func(yield func(*platform.Post, error) bool) {
		for _, p := range posts {
			if !yield(p, nil) {
				return
			}
		}
	}
}

// sequencer with a recording, non-blocking sleep
func testSequencer(fake *testutil.FakePlatform, muted *mutes.Set) (*Sequencer, *[]time.Duration) {
	var sleeps []time.Duration
	s := NewSequencer(fake, muted, nil)
	s.Sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}
	return s, &sleeps
}

func TestProcessPartialFailures(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	fake := testutil.NewFakePlatform()
	p1 := testutil.NewPost(1, 11, "one")
	p2 := testutil.NewPost(2, 12, "two")
	p3 := testutil.NewPost(3, 13, "three")
	fake.LikeErrs[1] = testutil.RejectedErr(platform.MutationLike, "1")
	fake.RetweetErrs[2] = testutil.RejectedErr(platform.MutationRetweet, "2")

	s, sleeps := testSequencer(fake, nil)
	opts := Options{Like: true, MaxActions: 2, Delay: 30 * time.Second}
	n, err := s.Process(ctx, seqOf(p1, p2, p3), opts)
	assert.NoError(err)
	assert.Equal(2, n)
	assert.Equal([]platform.PostID{1, 3}, fake.Retweets)
	assert.Equal([]platform.PostID{3}, fake.Likes)
	assert.Empty(fake.Follows)
	// one pause, after P1; none after reaching the budget on P3
	assert.Equal([]time.Duration{30 * time.Second}, *sleeps)
}

func TestProcessFollowAfterLikeFailure(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	fake := testutil.NewFakePlatform()
	fake.LikeErrs[1] = testutil.RejectedErr(platform.MutationLike, "1")
	fake.FollowErrs[12] = testutil.RejectedErr(platform.MutationFollow, "12")

	s, _ := testSequencer(fake, nil)
	opts := Options{Like: true, Follow: true, MaxActions: 5}
	n, err := s.Process(ctx, seqOf(testutil.NewPost(1, 11, "one"), testutil.NewPost(2, 12, "two")), opts)
	assert.NoError(err)
	assert.Equal(2, n)
	assert.Equal([]platform.AccountID{11}, fake.Follows)
	assert.Equal([]platform.PostID{2}, fake.Likes)
}

func TestProcessTraverseQuotes(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	fake := testutil.NewFakePlatform()
	quoted := testutil.NewPost(50, 5, "quoted")
	fake.AddPosts(quoted)
	c := testutil.Quote(testutil.NewPost(60, 6, "quoter"), 50)

	s, _ := testSequencer(fake, nil)
	n, err := s.Process(ctx, seqOf(c), Options{Like: true, Follow: true, MaxActions: 7, TraverseQuotes: true})
	assert.NoError(err)
	assert.Equal(1, n)
	assert.Equal([]platform.PostID{50}, fake.Fetches)
	assert.Equal([]platform.PostID{50}, fake.Retweets)
	assert.Equal([]platform.PostID{50, 60}, fake.Likes)
	assert.Equal([]platform.AccountID{5}, fake.Follows)

	// without traversal the candidate itself is the target
	fake2 := testutil.NewFakePlatform()
	s2, _ := testSequencer(fake2, nil)
	n, err = s2.Process(ctx, seqOf(c), Options{Like: true, MaxActions: 7})
	assert.NoError(err)
	assert.Equal(1, n)
	assert.Empty(fake2.Fetches)
	assert.Equal([]platform.PostID{60}, fake2.Retweets)
	assert.Equal([]platform.PostID{60}, fake2.Likes)
}

func TestProcessSkips(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	fake := testutil.NewFakePlatform()
	done := testutil.NewPost(1, 11, "done")
	done.RetweetedBySelf = true
	muted := testutil.NewPost(2, 66, "muted")
	missingQuote := testutil.Quote(testutil.NewPost(3, 13, "quoter"), 404)
	ok := testutil.NewPost(4, 14, "ok")

	s, sleeps := testSequencer(fake, mutes.NewSet(66))
	n, err := s.Process(ctx, seqOf(done, muted, missingQuote, ok), Options{MaxActions: 7, Delay: time.Second, TraverseQuotes: true})
	assert.NoError(err)
	assert.Equal(1, n)
	assert.Equal([]platform.PostID{4}, fake.Retweets)
	// skips consume no budget and no pause
	assert.Len(*sleeps, 1)
}

func TestProcessIdempotentRerun(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	fake := testutil.NewFakePlatform()
	fake.SearchResults["q"] = []*platform.Post{
		testutil.NewPost(3, 13, "c"),
		testutil.NewPost(2, 12, "b"),
		testutil.NewPost(1, 11, "a"),
	}
	s, _ := testSequencer(fake, nil)
	opts := Options{Like: true, MaxActions: 10}

	n, err := s.Process(ctx, fake.Search(ctx, platform.SearchParams{Query: "q"}), opts)
	assert.NoError(err)
	assert.Equal(3, n)

	n, err = s.Process(ctx, fake.Search(ctx, platform.SearchParams{Query: "q"}), opts)
	assert.NoError(err)
	assert.Equal(0, n)
	assert.Len(fake.Retweets, 3)
}

func TestProcessBudgetInvariant(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	rng := rand.New(rand.NewPCG(1, 2))

	for round := 0; round < 50; round++ {
		fake := testutil.NewFakePlatform()
		var posts []*platform.Post
		size := rng.IntN(20)
		for i := 0; i < size; i++ {
			p := testutil.NewPost(platform.PostID(100+i), platform.AccountID(i), "x")
			if rng.IntN(3) == 0 {
				fake.RetweetErrs[p.ID] = testutil.RejectedErr(platform.MutationRetweet, p.ID.String())
			}
			posts = append(posts, p)
		}
		maxActions := rng.IntN(8) - 1
		pulled := 0
		candidates := func(yield func(*platform.Post, error) bool) {
			for _, p := range posts {
				pulled++
				if !yield(p, nil) {
					return
				}
			}
		}

		s, _ := testSequencer(fake, nil)
		n, err := s.Process(ctx, candidates, Options{MaxActions: maxActions, Like: rng.IntN(2) == 0})
		assert.NoError(err)
		assert.Equal(len(fake.Retweets), n)
		if maxActions <= 0 {
			assert.Zero(n)
			assert.Zero(pulled)
			continue
		}
		assert.LessOrEqual(n, maxActions)
		if n == maxActions {
			// stopped strictly at the budget: nothing pulled after the last retweet
			last := fake.Retweets[len(fake.Retweets)-1]
			assert.Equal(int(last-100)+1, pulled)
		}
	}
}

func TestProcessCandidateError(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	fake := testutil.NewFakePlatform()
	candidates := func(yield func(*platform.Post, error) bool) {
		if !yield(testutil.NewPost(1, 11, "a"), nil) {
			return
		}
		yield(nil, errors.New("search failed"))
	}
	s, _ := testSequencer(fake, nil)
	n, err := s.Process(ctx, candidates, DefaultOptions())
	assert.ErrorContains(err, "search failed")
	assert.Equal(1, n)
}

func TestProcessCancelledDuringDelay(t *testing.T) {
	assert := assert.New(t)
	ctx, cancel := context.WithCancel(context.Background())

	fake := testutil.NewFakePlatform()
	s := NewSequencer(fake, nil, nil)
	s.Sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return SleepContext(ctx, d)
	}
	n, err := s.Process(ctx, seqOf(testutil.NewPost(1, 11, "a"), testutil.NewPost(2, 12, "b")), DefaultOptions())
	assert.ErrorIs(err, context.Canceled)
	assert.Equal(1, n)
	assert.Equal([]platform.PostID{1}, fake.Retweets)
}

func TestSleepContext(t *testing.T) {
	assert := assert.New(t)

	assert.NoError(SleepContext(context.Background(), time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(SleepContext(ctx, time.Hour), context.Canceled)
}

func TestSampleAndProcess(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	fake := testutil.NewFakePlatform()
	good := testutil.NewPost(3, 13, "good")
	candidates := []*platform.Post{
		testutil.NewPost(1, 66, "muted"),
		testutil.NewPost(2, 12, "failing"),
		good,
	}
	fake.RetweetErrs[2] = testutil.RejectedErr(platform.MutationRetweet, "2")

	s, sleeps := testSequencer(fake, mutes.NewSet(66))
	// try seeds until one picks the good candidate within five draws
	for seed := uint64(0); seed < 20; seed++ {
		n, err := s.SampleAndProcess(ctx, candidates, Options{Like: true, Follow: true}, rand.New(rand.NewPCG(seed, seed)))
		require.NoError(err)
		if n == 1 {
			break
		}
	}
	assert.Equal([]platform.PostID{3}, fake.Retweets)
	assert.Equal([]platform.PostID{3}, fake.Likes)
	assert.Equal([]platform.AccountID{13}, fake.Follows)
	assert.Empty(*sleeps)
}

func TestSampleAndProcessGivesUp(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	fake := testutil.NewFakePlatform()
	s, _ := testSequencer(fake, mutes.NewSet(66))
	n, err := s.SampleAndProcess(ctx, []*platform.Post{testutil.NewPost(1, 66, "muted")}, Options{}, rand.New(rand.NewPCG(1, 1)))
	assert.NoError(err)
	assert.Zero(n)
	assert.Empty(fake.Retweets)

	n, err = s.SampleAndProcess(ctx, nil, Options{}, nil)
	assert.NoError(err)
	assert.Zero(n)
}

func TestSampleAndProcessAttemptLimit(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	fake := testutil.NewFakePlatform()
	var candidates []*platform.Post
	for i := 1; i <= 10; i++ {
		p := testutil.NewPost(platform.PostID(i), platform.AccountID(i), "x")
		fake.RetweetErrs[p.ID] = testutil.RejectedErr(platform.MutationRetweet, p.ID.String())
		candidates = append(candidates, p)
	}
	attempts := 0
	s := NewSequencer(&countingPlatform{FakePlatform: fake, retweets: &attempts}, nil, nil)
	n, err := s.SampleAndProcess(ctx, candidates, Options{}, rand.New(rand.NewPCG(3, 4)))
	assert.NoError(err)
	assert.Zero(n)
	assert.Equal(maxSampleAttempts, attempts)
}

type countingPlatform struct {
	*testutil.FakePlatform
	retweets *int
}

func (c *countingPlatform) Retweet(ctx context.Context, id platform.PostID) error {
	*c.retweets++
	return c.FakePlatform.Retweet(ctx, id)
}
