package twitter

import (
	"context"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/lukehollenback/birdcall/platform"

	"github.com/google/go-querystring/query"
)

// page size for social-graph listing endpoints (API maximum)
const graphPageSize = 200

func (c *Client) FetchPost(ctx context.Context, id platform.PostID) (*platform.Post, error) {
	var tweet apiTweet
	err := c.Do(ctx, APIRequest{
		Method:   http.MethodGet,
		Endpoint: "statuses/show",
		QueryParams: url.Values{
			"id":               []string{id.String()},
			"include_entities": []string{"false"},
			"tweet_mode":       []string{"extended"},
		},
	}, &tweet)
	if err != nil {
		return nil, fmt.Errorf("fetching post %s: %w", id, err)
	}
	return tweet.Post(), nil
}

type searchQuery struct {
	Query           string `url:"q"`
	IncludeEntities bool   `url:"include_entities"`
	TweetMode       string `url:"tweet_mode"`
	Count           int    `url:"count,omitempty"`
	ResultType      string `url:"result_type,omitempty"`
	SinceID         int64  `url:"since_id,omitempty"`
	MaxID           int64  `url:"max_id,omitempty"`
}

// Lazily pages through search results, newest first. Pages are walked backwards in time using
// "max_id", and bounded below by SinceID when set.
func (c *Client) Search(ctx context.Context, params platform.SearchParams) iter.Seq2[*platform.Post, error] {
	return func(yield func(*platform.Post, error) bool) {
		var maxID int64
		for page := 0; params.MaxPages <= 0 || page < params.MaxPages; page++ {
			q, err := query.Values(searchQuery{
				Query:           params.Query,
				IncludeEntities: false,
				TweetMode:       "extended",
				Count:           params.PageSize,
				ResultType:      params.ResultType,
				SinceID:         int64(params.SinceID),
				MaxID:           maxID,
			})
			if err != nil {
				yield(nil, err)
				return
			}

			var resp searchResponse
			err = c.Do(ctx, APIRequest{
				Method:      http.MethodGet,
				Endpoint:    "search/tweets",
				QueryParams: q,
			}, &resp)
			if err != nil {
				yield(nil, fmt.Errorf("searching %q: %w", params.Query, err))
				return
			}
			if len(resp.Statuses) == 0 {
				return
			}
			for _, tweet := range resp.Statuses {
				if !yield(tweet.Post(), nil) {
					return
				}
				if maxID == 0 || tweet.ID <= maxID {
					maxID = tweet.ID - 1
				}
			}
			if resp.SearchMetadata.NextResults == "" {
				return
			}
		}
	}
}

func (c *Client) MutedIDs(ctx context.Context) iter.Seq2[platform.AccountID, error] {
	return cursorSeq(ctx, c, "mutes/users/ids", nil, func(p *idsPage) ([]platform.AccountID, int64) {
		out := make([]platform.AccountID, len(p.IDs))
		for i, id := range p.IDs {
			out[i] = platform.AccountID(id)
		}
		return out, p.NextCursor
	})
}

func accountsFromPage(p *usersPage) ([]*platform.Account, int64) {
	out := make([]*platform.Account, len(p.Users))
	for i := range p.Users {
		out[i] = p.Users[i].Account()
	}
	return out, p.NextCursor
}

func graphParams() url.Values {
	return url.Values{
		"count":                 []string{strconv.Itoa(graphPageSize)},
		"skip_status":           []string{"true"},
		"include_user_entities": []string{"false"},
	}
}

// Accounts the authenticated user follows.
func (c *Client) Friends(ctx context.Context) iter.Seq2[*platform.Account, error] {
	return cursorSeq(ctx, c, "friends/list", graphParams(), accountsFromPage)
}

// Followers of the account with the given screen name, or of the authenticated user if
// screenName is empty.
func (c *Client) Followers(ctx context.Context, screenName string) iter.Seq2[*platform.Account, error] {
	params := graphParams()
	if screenName != "" {
		params.Set("screen_name", strings.TrimPrefix(screenName, "@"))
	}
	return cursorSeq(ctx, c, "followers/list", params, accountsFromPage)
}

func (c *Client) ListMembers(ctx context.Context, listID string) iter.Seq2[*platform.Account, error] {
	params := graphParams()
	params.Set("list_id", listID)
	return cursorSeq(ctx, c, "lists/members", params, accountsFromPage)
}

func (c *Client) mutate(ctx context.Context, m platform.Mutation, target string, req APIRequest) error {
	if err := c.Do(ctx, req, nil); err != nil {
		return mutationError(m, target, err)
	}
	return nil
}

func (c *Client) Retweet(ctx context.Context, id platform.PostID) error {
	return c.mutate(ctx, platform.MutationRetweet, id.String(), APIRequest{
		Method:   http.MethodPost,
		Endpoint: "statuses/retweet/" + id.String(),
		Name:     "statuses/retweet",
		Form:     url.Values{"trim_user": []string{"true"}},
	})
}

func (c *Client) Like(ctx context.Context, id platform.PostID) error {
	return c.mutate(ctx, platform.MutationLike, id.String(), APIRequest{
		Method:   http.MethodPost,
		Endpoint: "favorites/create",
		Form: url.Values{
			"id":               []string{id.String()},
			"include_entities": []string{"false"},
		},
	})
}

func (c *Client) Follow(ctx context.Context, id platform.AccountID) error {
	return c.mutate(ctx, platform.MutationFollow, id.String(), APIRequest{
		Method:   http.MethodPost,
		Endpoint: "friendships/create",
		Form:     url.Values{"user_id": []string{id.String()}},
	})
}

func (c *Client) Unfollow(ctx context.Context, id platform.AccountID) error {
	return c.mutate(ctx, platform.MutationUnfollow, id.String(), APIRequest{
		Method:   http.MethodPost,
		Endpoint: "friendships/destroy",
		Form:     url.Values{"user_id": []string{id.String()}},
	})
}

// Relationship between two accounts, from the point of view of source.
func (c *Client) Friendship(ctx context.Context, source, target platform.AccountID) (*platform.Friendship, error) {
	var resp relationshipResponse
	err := c.Do(ctx, APIRequest{
		Method:   http.MethodGet,
		Endpoint: "friendships/show",
		QueryParams: url.Values{
			"source_id": []string{source.String()},
			"target_id": []string{target.String()},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("fetching friendship %s -> %s: %w", source, target, err)
	}
	return &platform.Friendship{
		FollowedBy: resp.Relationship.Source.FollowedBy,
		Following:  resp.Relationship.Source.Following,
	}, nil
}

// The authenticated account.
func (c *Client) VerifyCredentials(ctx context.Context) (*platform.Account, error) {
	var user apiUser
	err := c.Do(ctx, APIRequest{
		Method:   http.MethodGet,
		Endpoint: "account/verify_credentials",
		QueryParams: url.Values{
			"skip_status":      []string{"true"},
			"include_entities": []string{"false"},
		},
	}, &user)
	if err != nil {
		return nil, fmt.Errorf("verifying credentials: %w", err)
	}
	return user.Account(), nil
}

func (c *Client) PostStatus(ctx context.Context, text string, media []platform.MediaID) (*platform.Post, error) {
	form := url.Values{}
	form.Set("status", text)
	if len(media) > 0 {
		ids := make([]string, len(media))
		for i, m := range media {
			ids[i] = string(m)
		}
		form.Set("media_ids", strings.Join(ids, ","))
	}
	var tweet apiTweet
	err := c.Do(ctx, APIRequest{
		Method:   http.MethodPost,
		Endpoint: "statuses/update",
		Form:     form,
	}, &tweet)
	if err != nil {
		return nil, fmt.Errorf("posting status: %w", err)
	}
	return tweet.Post(), nil
}

func (c *Client) UploadMedia(ctx context.Context, filename string, r io.Reader) (platform.MediaID, error) {
	var resp mediaUploadResponse
	err := c.Do(ctx, APIRequest{
		Method:   http.MethodPost,
		Endpoint: "media/upload",
		Upload:   true,
		File: &FilePart{
			Field:    "media",
			Filename: filename,
			Body:     r,
		},
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("uploading media %s: %w", filename, err)
	}
	if resp.MediaIDString != "" {
		return platform.MediaID(resp.MediaIDString), nil
	}
	if resp.MediaID == 0 {
		return "", fmt.Errorf("uploading media %s: empty media id in response", filename)
	}
	return platform.MediaID(strconv.FormatInt(resp.MediaID, 10)), nil
}
