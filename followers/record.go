package followers

import (
	"fmt"

	"github.com/lukehollenback/birdcall/platform"

	"github.com/PuerkitoBio/purell"
)

// One follower of the snapshotted account. Rows are keyed by account ID; DirectMessaged is set by
// the operator (or other tooling) after the fact, and is carried over untouched when merging.
type Record struct {
	ID                platform.AccountID `gorm:"primaryKey;autoIncrement:false"`
	ScreenName        string
	Name              string
	Location          string
	Bio               string
	Website           string
	DirectMessageLink string
	DirectMessaged    bool `gorm:"not null;default:false"`
}

func (Record) TableName() string {
	return "follower_records"
}

func DirectMessageLink(id platform.AccountID) string {
	return fmt.Sprintf("https://twitter.com/messages/compose?recipient_id=%d", id)
}

// Builds a fresh record for a newly seen follower.
func NewRecord(acct *platform.Account) *Record {
	return &Record{
		ID:                acct.ID,
		ScreenName:        acct.ScreenName,
		Name:              acct.Name,
		Location:          acct.Location,
		Bio:               acct.Description,
		Website:           normalizeWebsite(acct.URL),
		DirectMessageLink: DirectMessageLink(acct.ID),
		DirectMessaged:    false,
	}
}

// Light-touch cleanup of a profile URL. Values which fail to parse are kept verbatim.
func normalizeWebsite(raw string) string {
	if raw == "" {
		return ""
	}
	clean, err := purell.NormalizeURLString(raw, purell.FlagsSafe|purell.FlagRemoveDuplicateSlashes)
	if err != nil {
		return raw
	}
	return clean
}
