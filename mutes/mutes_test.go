package mutes

import (
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/lukehollenback/birdcall/internal/testutil"
	"github.com/lukehollenback/birdcall/platform"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	assert := assert.New(t)

	fake := testutil.NewFakePlatform()
	fake.Muted = []platform.AccountID{10, 20, 20, 30}

	s, err := Load(context.Background(), fake, nil)
	assert.NoError(err)
	assert.Equal(3, s.Len())
	assert.True(s.Contains(20))
	assert.False(s.Contains(40))

	assert.True(s.Excludes(testutil.NewPost(1, 30, "muted")))
	assert.False(s.Excludes(testutil.NewPost(2, 31, "fine")))
}

func TestNilSet(t *testing.T) {
	assert := assert.New(t)

	var s *Set
	assert.False(s.Contains(1))
	assert.Equal(0, s.Len())
	assert.False(s.Excludes(testutil.NewPost(1, 1, "anyone")))
}

type failingLister struct{}

func (failingLister) MutedIDs(ctx context.Context) iter.Seq2[platform.AccountID, error] {
	return func(yield func(platform.AccountID, error) bool) {
		if !yield(5, nil) {
			return
		}
		yield(0, errors.New("rate limited"))
	}
}

func TestLoadError(t *testing.T) {
	_, err := Load(context.Background(), failingLister{}, nil)
	assert.ErrorContains(t, err, "rate limited")
}
