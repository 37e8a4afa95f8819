package twitter

import (
	"github.com/lukehollenback/birdcall/platform"

	"github.com/araddon/dateparse"
)

type apiUser struct {
	ID          int64   `json:"id"`
	ScreenName  string  `json:"screen_name"`
	Name        string  `json:"name"`
	Location    string  `json:"location"`
	Description string  `json:"description"`
	URL         *string `json:"url"`
}

func (u *apiUser) Account() *platform.Account {
	acct := &platform.Account{
		ID:          platform.AccountID(u.ID),
		ScreenName:  u.ScreenName,
		Name:        u.Name,
		Location:    u.Location,
		Description: u.Description,
	}
	if u.URL != nil {
		acct.URL = *u.URL
	}
	return acct
}

type apiTweet struct {
	ID                int64   `json:"id"`
	CreatedAt         string  `json:"created_at"`
	Text              string  `json:"text"`
	FullText          string  `json:"full_text"`
	User              apiUser `json:"user"`
	InReplyToStatusID *int64  `json:"in_reply_to_status_id"`
	IsQuoteStatus     bool    `json:"is_quote_status"`
	QuotedStatusID    *int64  `json:"quoted_status_id"`
	// only present when the quoted post is visible; its flags are not reliable
	QuotedStatus *apiTweet `json:"quoted_status"`
	Retweeted    bool      `json:"retweeted"`
	Favorited    bool      `json:"favorited"`
}

// Converts the API payload to a platform.Post. Optional references (quote, reply parent) are
// resolved here, once.
func (t *apiTweet) Post() *platform.Post {
	p := &platform.Post{
		ID:              platform.PostID(t.ID),
		Author:          *t.User.Account(),
		Text:            t.Text,
		RetweetedBySelf: t.Retweeted,
		LikedBySelf:     t.Favorited,
	}
	if t.FullText != "" {
		p.Text = t.FullText
	}
	// eg "Wed Oct 10 20:19:24 +0000 2018"; a bad timestamp leaves CreatedAt zero
	if t.CreatedAt != "" {
		if ts, err := dateparse.ParseAny(t.CreatedAt); err == nil {
			p.CreatedAt = ts.UTC()
		}
	}
	if t.InReplyToStatusID != nil {
		parent := platform.PostID(*t.InReplyToStatusID)
		p.InReplyTo = &parent
	}
	if t.QuotedStatusID != nil {
		quoted := platform.PostID(*t.QuotedStatusID)
		p.QuotedPostID = &quoted
	} else if t.QuotedStatus != nil {
		quoted := platform.PostID(t.QuotedStatus.ID)
		p.QuotedPostID = &quoted
	}
	return p
}

type searchResponse struct {
	Statuses       []apiTweet `json:"statuses"`
	SearchMetadata struct {
		NextResults string `json:"next_results"`
	} `json:"search_metadata"`
}

type usersPage struct {
	Users      []apiUser `json:"users"`
	NextCursor int64     `json:"next_cursor"`
}

type idsPage struct {
	IDs        []int64 `json:"ids"`
	NextCursor int64   `json:"next_cursor"`
}

type relationshipResponse struct {
	Relationship struct {
		Source struct {
			FollowedBy bool `json:"followed_by"`
			Following  bool `json:"following"`
		} `json:"source"`
	} `json:"relationship"`
}

type mediaUploadResponse struct {
	MediaID       int64  `json:"media_id"`
	MediaIDString string `json:"media_id_string"`
}
