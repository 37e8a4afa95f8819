// Package unfollow prunes one-way friendships: accounts the operator follows which do not follow
// back.
package unfollow

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/lukehollenback/birdcall/platform"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var unfollowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "birdcall_unfollows",
	Help: "Number of unfollow attempts, by result",
}, []string{"result"})

type Platform interface {
	VerifyCredentials(ctx context.Context) (*platform.Account, error)
	Friends(ctx context.Context) iter.Seq2[*platform.Account, error]
	Friendship(ctx context.Context, source, target platform.AccountID) (*platform.Friendship, error)
	Unfollow(ctx context.Context, id platform.AccountID) error
}

type Pruner struct {
	Client Platform
	Logger *slog.Logger
}

func NewPruner(client Platform, logger *slog.Logger) *Pruner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		Client: client,
		Logger: logger.With("system", "unfollow"),
	}
}

// Unfollows every friend who is not following the authenticated account back, returning how many
// were unfollowed. A failed unfollow is logged and skipped; failures listing friends or fetching a
// relationship abort the run.
func (p *Pruner) UnfollowTraitors(ctx context.Context) (int, error) {
	self, err := p.Client.VerifyCredentials(ctx)
	if err != nil {
		return 0, fmt.Errorf("verifying credentials: %w", err)
	}

	count := 0
	for friend, err := range p.Client.Friends(ctx) {
		if err != nil {
			return count, fmt.Errorf("listing friends: %w", err)
		}
		rel, err := p.Client.Friendship(ctx, self.ID, friend.ID)
		if err != nil {
			return count, fmt.Errorf("fetching friendship with %s: %w", friend.ID, err)
		}
		if rel.FollowedBy {
			continue
		}
		if err := p.Client.Unfollow(ctx, friend.ID); err != nil {
			unfollowsTotal.WithLabelValues("failed").Inc()
			p.Logger.Warn("unfollow failed", "account", friend.ID, "screenName", friend.ScreenName, "err", err)
			continue
		}
		unfollowsTotal.WithLabelValues("ok").Inc()
		count++
		p.Logger.Info("unfollowed", "account", friend.ID, "screenName", friend.ScreenName)
	}
	p.Logger.Info("unfollowed non-followers", "count", count)
	return count, nil
}
