package testutil

import (
	"context"
	"fmt"
	"io"
	"iter"

	"github.com/lukehollenback/birdcall/platform"
)

type PostedStatus struct {
	Text  string
	Media []platform.MediaID
}

type UploadedMedia struct {
	Filename string
	Body     []byte
}

// In-memory stand-in for the platform adapter. Configure the exported maps, run the code under
// test, then inspect the recorded calls.
//
// Retweets and likes are remembered, so posts returned by later fetches or searches carry
// updated "retweeted"/"liked" flags, and repeating a retweet fails with KindAlreadyDone.
type FakePlatform struct {
	Self platform.Account

	// posts available to FetchPost
	Posts map[platform.PostID]*platform.Post
	// search results by exact query string, newest first
	SearchResults map[string][]*platform.Post
	Muted         []platform.AccountID

	FriendList   []*platform.Account
	FollowerList []*platform.Account
	// followers of other accounts, by screen name
	FollowersOf map[string][]*platform.Account
	// list members by list id
	Lists map[string][]*platform.Account
	// accounts which follow Self back
	FollowsBack map[platform.AccountID]bool

	// injected failures
	RetweetErrs  map[platform.PostID]error
	LikeErrs     map[platform.PostID]error
	FollowErrs   map[platform.AccountID]error
	UnfollowErrs map[platform.AccountID]error
	FetchErrs    map[platform.PostID]error
	SearchErr    error

	// recorded calls
	Searches  []platform.SearchParams
	Fetches   []platform.PostID
	Retweets  []platform.PostID
	Likes     []platform.PostID
	Follows   []platform.AccountID
	Unfollows []platform.AccountID
	Statuses  []PostedStatus
	Uploads   []UploadedMedia

	retweeted map[platform.PostID]bool
	liked     map[platform.PostID]bool
	nextID    platform.PostID
}

func NewFakePlatform() *FakePlatform {
	return &FakePlatform{
		Self:          platform.Account{ID: 1, ScreenName: "birdcall"},
		Posts:         make(map[platform.PostID]*platform.Post),
		SearchResults: make(map[string][]*platform.Post),
		FollowersOf:   make(map[string][]*platform.Account),
		Lists:         make(map[string][]*platform.Account),
		FollowsBack:   make(map[platform.AccountID]bool),
		RetweetErrs:   make(map[platform.PostID]error),
		LikeErrs:      make(map[platform.PostID]error),
		FollowErrs:    make(map[platform.AccountID]error),
		UnfollowErrs:  make(map[platform.AccountID]error),
		FetchErrs:     make(map[platform.PostID]error),
		retweeted:     make(map[platform.PostID]bool),
		liked:         make(map[platform.PostID]bool),
		nextID:        1_000_000,
	}
}

// Registers posts for FetchPost.
func (f *FakePlatform) AddPosts(posts ...*platform.Post) {
	for _, p := range posts {
		f.Posts[p.ID] = p
	}
}

func (f *FakePlatform) view(p *platform.Post) *platform.Post {
	out := *p
	out.RetweetedBySelf = p.RetweetedBySelf || f.retweeted[p.ID]
	out.LikedBySelf = p.LikedBySelf || f.liked[p.ID]
	return &out
}

func (f *FakePlatform) FetchPost(ctx context.Context, id platform.PostID) (*platform.Post, error) {
	f.Fetches = append(f.Fetches, id)
	if err := f.FetchErrs[id]; err != nil {
		return nil, err
	}
	p, ok := f.Posts[id]
	if !ok {
		return nil, fmt.Errorf("fetching post %s: not found", id)
	}
	return f.view(p), nil
}

func (f *FakePlatform) Search(ctx context.Context, params platform.SearchParams) iter.Seq2[*platform.Post, error] {
	return func(yield func(*platform.Post, error) bool) {
		f.Searches = append(f.Searches, params)
		if f.SearchErr != nil {
			yield(nil, f.SearchErr)
			return
		}
		limit := -1
		if params.PageSize > 0 && params.MaxPages > 0 {
			limit = params.PageSize * params.MaxPages
		}
		n := 0
		for _, p := range f.SearchResults[params.Query] {
			if params.SinceID > 0 && p.ID <= params.SinceID {
				continue
			}
			if limit >= 0 && n >= limit {
				return
			}
			n++
			if !yield(f.view(p), nil) {
				return
			}
		}
	}
}

func seqOf[T any](items []T) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
	}
}

func (f *FakePlatform) MutedIDs(ctx context.Context) iter.Seq2[platform.AccountID, error] {
	return seqOf(f.Muted)
}

func (f *FakePlatform) Friends(ctx context.Context) iter.Seq2[*platform.Account, error] {
	return seqOf(f.FriendList)
}

func (f *FakePlatform) Followers(ctx context.Context, screenName string) iter.Seq2[*platform.Account, error] {
	if screenName == "" || screenName == f.Self.ScreenName {
		return seqOf(f.FollowerList)
	}
	return seqOf(f.FollowersOf[screenName])
}

func (f *FakePlatform) ListMembers(ctx context.Context, listID string) iter.Seq2[*platform.Account, error] {
	return seqOf(f.Lists[listID])
}

func (f *FakePlatform) Retweet(ctx context.Context, id platform.PostID) error {
	if err := f.RetweetErrs[id]; err != nil {
		return err
	}
	if f.retweeted[id] {
		return &platform.MutationError{Mutation: platform.MutationRetweet, Kind: platform.KindAlreadyDone, Target: id.String(), Message: "already retweeted"}
	}
	f.retweeted[id] = true
	f.Retweets = append(f.Retweets, id)
	return nil
}

func (f *FakePlatform) Like(ctx context.Context, id platform.PostID) error {
	if err := f.LikeErrs[id]; err != nil {
		return err
	}
	f.liked[id] = true
	f.Likes = append(f.Likes, id)
	return nil
}

func (f *FakePlatform) Follow(ctx context.Context, id platform.AccountID) error {
	if err := f.FollowErrs[id]; err != nil {
		return err
	}
	f.Follows = append(f.Follows, id)
	return nil
}

func (f *FakePlatform) Unfollow(ctx context.Context, id platform.AccountID) error {
	if err := f.UnfollowErrs[id]; err != nil {
		return err
	}
	f.Unfollows = append(f.Unfollows, id)
	return nil
}

func (f *FakePlatform) Friendship(ctx context.Context, source, target platform.AccountID) (*platform.Friendship, error) {
	return &platform.Friendship{
		FollowedBy: f.FollowsBack[target],
		Following:  true,
	}, nil
}

func (f *FakePlatform) VerifyCredentials(ctx context.Context) (*platform.Account, error) {
	self := f.Self
	return &self, nil
}

func (f *FakePlatform) PostStatus(ctx context.Context, text string, media []platform.MediaID) (*platform.Post, error) {
	f.Statuses = append(f.Statuses, PostedStatus{Text: text, Media: media})
	f.nextID++
	p := &platform.Post{ID: f.nextID, Author: f.Self, Text: text}
	f.Posts[p.ID] = p
	return f.view(p), nil
}

func (f *FakePlatform) UploadMedia(ctx context.Context, filename string, r io.Reader) (platform.MediaID, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.Uploads = append(f.Uploads, UploadedMedia{Filename: filename, Body: body})
	return platform.MediaID(fmt.Sprintf("media-%d", len(f.Uploads))), nil
}

// Whether the fake has recorded a successful retweet of id.
func (f *FakePlatform) HasRetweeted(id platform.PostID) bool {
	return f.retweeted[id]
}
