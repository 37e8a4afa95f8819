package platform

import (
	"strconv"
	"strings"
	"time"
)

// Identifier of a post. Values increase monotonically with creation time, which is what allows a
// post id to be used as a "since" lower bound when searching.
type PostID int64

func (id PostID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

func ParsePostID(raw string) (PostID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, err
	}
	return PostID(n), nil
}

// Stable identifier of an account. Screen names are mutable aliases and must never be used to
// deduplicate accounts; this is the only key that is.
type AccountID int64

func (id AccountID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

type Account struct {
	ID          AccountID
	ScreenName  string
	Name        string
	Location    string
	Description string
	URL         string
}

type Post struct {
	ID     PostID
	Author Account
	Text   string
	// zero if unknown
	CreatedAt time.Time

	// set when the post embeds (quotes) another post
	QuotedPostID *PostID

	// set when the post is a reply
	InReplyTo *PostID

	// best-effort flags as reported by the platform at fetch time; may be stale
	RetweetedBySelf bool
	LikedBySelf     bool
}

func (p *Post) IsQuote() bool {
	return p.QuotedPostID != nil
}

func (p *Post) IsReplyTo(ids map[PostID]bool) bool {
	if p.InReplyTo == nil {
		return false
	}
	return ids[*p.InReplyTo]
}

type Friendship struct {
	// target follows source
	FollowedBy bool
	// source follows target
	Following bool
}

// Opaque handle returned by a media upload, attached to a new post.
type MediaID string

// Placeholder substituted with the current date (YYYY-MM-DD) in search queries.
const TodayPlaceholder = "{today}"

// Substitutes dynamic values (currently only the date) into a search query.
func FormatQuery(q string, now time.Time) string {
	return strings.ReplaceAll(q, TodayPlaceholder, now.Format(time.DateOnly))
}

type SearchParams struct {
	Query string
	// only return posts newer than this id (zero for no bound)
	SinceID PostID
	// results per page; zero uses the platform default
	PageSize int
	// maximum number of pages to fetch; zero for no limit
	MaxPages int
	// "recent", "popular" or "mixed"; empty uses the platform default
	ResultType string
}
