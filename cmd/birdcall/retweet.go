package main

import (
	"fmt"
	"time"

	"github.com/lukehollenback/birdcall/actions"
	"github.com/lukehollenback/birdcall/mutes"
	"github.com/lukehollenback/birdcall/platform"
	"github.com/lukehollenback/birdcall/replies"
	"github.com/lukehollenback/birdcall/sampling"

	"github.com/urfave/cli/v2"
)

const (
	searchResultCount = 25
	searchResultType  = "recent"
)

var engagementFlags = []cli.Flag{
	&cli.BoolFlag{
		Name:  "like",
		Usage: "also like each retweeted post",
	},
	&cli.BoolFlag{
		Name:  "follow",
		Usage: "also follow the author of each retweeted post",
	},
}

var cmdRetweetSearch = &cli.Command{
	Name:  "retweet-search",
	Usage: "retweet a random recent post matching a search query",
	Flags: append([]cli.Flag{
		&cli.StringFlag{
			Name:     "query",
			Usage:    "search query; {today} is replaced with the current date",
			Required: true,
		},
		&cli.BoolFlag{
			Name:  "friends",
			Usage: "restrict authors to a sample of accounts you follow",
		},
		&cli.BoolFlag{
			Name:  "followers",
			Usage: "restrict authors to a sample of your followers",
		},
		&cli.StringFlag{
			Name:  "members",
			Usage: "restrict authors to a sample of members of this list (by ID)",
		},
		&cli.IntFlag{
			Name:  "filter-count",
			Usage: "max number of authors in the filter",
			Value: 15,
		},
	}, engagementFlags...),
	Action: runRetweetSearch,
}

func runRetweetSearch(cctx *cli.Context) error {
	rt, err := setup(cctx)
	if err != nil {
		return err
	}
	defer rt.finish(cctx)
	ctx := rt.Ctx

	muteSet, err := mutes.Load(ctx, rt.Client, rt.Logger)
	if err != nil {
		return err
	}

	query := platform.FormatQuery(cctx.String("query"), time.Now())
	src := sampling.Sources{
		Friends:   cctx.Bool("friends"),
		Followers: cctx.Bool("followers"),
		ListID:    cctx.String("members"),
	}
	if !src.Empty() {
		filter, err := sampling.NewBuilder(rt.Client, rt.Logger).BuildFilter(ctx, src, cctx.Int("filter-count"))
		if err != nil {
			return err
		}
		query = sampling.AppendFilter(query, filter)
	}
	rt.Logger.Info("searching", "query", query)

	var results []*platform.Post
	params := platform.SearchParams{
		Query:      query,
		PageSize:   searchResultCount,
		MaxPages:   1,
		ResultType: searchResultType,
	}
	for p, err := range rt.Client.Search(ctx, params) {
		if err != nil {
			return err
		}
		results = append(results, p)
	}
	rt.Logger.Info("found search results", "count", len(results))

	opts := actions.DefaultOptions()
	opts.Like = cctx.Bool("like")
	opts.Follow = cctx.Bool("follow")
	seq := actions.NewSequencer(rt.Client, muteSet, rt.Logger)
	n, err := seq.SampleAndProcess(ctx, results, opts, nil)
	if err != nil {
		return err
	}
	fmt.Printf("Retweeted %d posts.\n", n)
	return nil
}

var cmdRetweetReplies = &cli.Command{
	Name:  "retweet-replies",
	Usage: "retweet replies to a post, or to the posts matching a search query",
	Flags: append([]cli.Flag{
		&cli.Int64Flag{
			Name:  "tweet-id",
			Usage: "ID of the post whose replies to retweet",
		},
		&cli.StringFlag{
			Name:  "tweet-query",
			Usage: "search query selecting posts whose replies to retweet; {today} is replaced with the current date",
		},
		&cli.IntFlag{
			Name:  "tweet-query-count",
			Usage: "number of posts taken from --tweet-query results",
			Value: 3,
		},
		&cli.IntFlag{
			Name:  "max-retweets",
			Usage: "maximum number of replies to retweet",
			Value: 7,
		},
		&cli.Float64Flag{
			Name:  "delay",
			Usage: "seconds between retweets",
			Value: 30,
		},
		&cli.BoolFlag{
			Name:  "traverse-quotes",
			Usage: "for replies which quote another post, act on the quoted post instead",
		},
	}, engagementFlags...),
	Action: runRetweetReplies,
}

func runRetweetReplies(cctx *cli.Context) error {
	seed := replies.Seed{
		PostID: platform.PostID(cctx.Int64("tweet-id")),
		Query:  cctx.String("tweet-query"),
	}
	if seed.PostID == 0 && seed.Query == "" {
		return fmt.Errorf("one of --tweet-id or --tweet-query is required: %w", replies.ErrEmptySeed)
	}

	rt, err := setup(cctx)
	if err != nil {
		return err
	}
	defer rt.finish(cctx)
	ctx := rt.Ctx

	muteSet, err := mutes.Load(ctx, rt.Client, rt.Logger)
	if err != nil {
		return err
	}

	resolver := replies.NewResolver(rt.Client, muteSet, rt.Logger)
	resolver.SeedPageSize = cctx.Int("tweet-query-count")
	res, err := resolver.Resolve(ctx, seed)
	if err != nil {
		return err
	}
	if len(res.TargetIDs) == 0 {
		fmt.Println("No target posts found.")
		return nil
	}

	opts := actions.Options{
		Like:           cctx.Bool("like"),
		Follow:         cctx.Bool("follow"),
		MaxActions:     cctx.Int("max-retweets"),
		Delay:          time.Duration(cctx.Float64("delay") * float64(time.Second)),
		TraverseQuotes: cctx.Bool("traverse-quotes"),
	}
	seq := actions.NewSequencer(rt.Client, muteSet, rt.Logger)
	n, err := seq.Process(ctx, res.Replies, opts)
	fmt.Printf("Retweeted %d replies.\n", n)
	return err
}
