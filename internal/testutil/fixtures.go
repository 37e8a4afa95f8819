package testutil

import (
	"errors"

	"github.com/lukehollenback/birdcall/platform"

	"github.com/brianvoe/gofakeit/v6"
)

// Builds a post authored by the given account.
func NewPost(id platform.PostID, authorID platform.AccountID, screenName string) *platform.Post {
	return &platform.Post{
		ID:     id,
		Author: platform.Account{ID: authorID, ScreenName: screenName},
		Text:   "post " + id.String(),
	}
}

func Reply(p *platform.Post, parent platform.PostID) *platform.Post {
	p.InReplyTo = &parent
	return p
}

func Quote(p *platform.Post, quoted platform.PostID) *platform.Post {
	p.QuotedPostID = &quoted
	return p
}

func RejectedErr(m platform.Mutation, target string) error {
	return &platform.MutationError{
		Mutation: m,
		Kind:     platform.KindRejected,
		Target:   target,
		Message:  "rejected by test",
		Wrapped:  errors.New("rejected by test"),
	}
}

// Generates n accounts with ids starting at firstID and realistic profile fields. The same seed
// always produces the same accounts.
func FakeAccounts(seed int64, firstID platform.AccountID, n int) []*platform.Account {
	faker := gofakeit.New(seed)
	out := make([]*platform.Account, n)
	for i := 0; i < n; i++ {
		out[i] = &platform.Account{
			ID:          firstID + platform.AccountID(i),
			ScreenName:  faker.Username(),
			Name:        faker.Name(),
			Location:    faker.City(),
			Description: faker.Sentence(8),
			URL:         faker.URL(),
		}
	}
	return out
}
