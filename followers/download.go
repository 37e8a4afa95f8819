package followers

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/lukehollenback/birdcall/platform"
)

type Platform interface {
	Followers(ctx context.Context, screenName string) iter.Seq2[*platform.Account, error]
}

type Downloader struct {
	Client Platform
	Store  Store
	Logger *slog.Logger
}

type Summary struct {
	// records already in the store (append mode only)
	Loaded int
	// followers returned by the platform, including ones already present
	Downloaded int
	// records in the store after saving
	Saved int
}

func NewDownloader(client Platform, store Store, logger *slog.Logger) *Downloader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Downloader{
		Client: client,
		Store:  store,
		Logger: logger.With("system", "followers"),
	}
}

// Snapshots the followers of user (the authenticated account if empty) into the store.
//
// In append mode, existing records are kept as-is (including their DirectMessaged flag) and only
// followers with unseen IDs are added. Otherwise the store is replaced by the fresh download.
func (d *Downloader) Download(ctx context.Context, user string, appendMode bool) (*Summary, error) {
	var sum Summary
	var records []*Record
	seen := make(map[platform.AccountID]bool)

	if appendMode {
		existing, err := d.Store.Load(ctx)
		if err != nil {
			return nil, err
		}
		for _, rec := range existing {
			if seen[rec.ID] {
				continue
			}
			seen[rec.ID] = true
			records = append(records, rec)
		}
		sum.Loaded = len(records)
	}

	for acct, err := range d.Client.Followers(ctx, user) {
		if err != nil {
			return nil, fmt.Errorf("listing followers: %w", err)
		}
		sum.Downloaded++
		if seen[acct.ID] {
			continue
		}
		seen[acct.ID] = true
		records = append(records, NewRecord(acct))
		if sum.Downloaded%1000 == 0 {
			d.Logger.Info("downloading followers", "user", user, "downloaded", sum.Downloaded)
		}
	}

	if err := d.Store.Save(ctx, records); err != nil {
		return nil, err
	}
	sum.Saved = len(records)
	d.Logger.Info("saved follower snapshot", "user", user, "append", appendMode, "loaded", sum.Loaded, "downloaded", sum.Downloaded, "saved", sum.Saved)
	return &sum, nil
}
