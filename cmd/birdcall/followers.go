package main

import (
	"fmt"

	"github.com/lukehollenback/birdcall/followers"

	"github.com/urfave/cli/v2"
)

var cmdDownloadFollowers = &cli.Command{
	Name:  "download-followers",
	Usage: "snapshot an account's followers to a CSV file or database",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "user",
			Usage: "screen name of the account (default: the authenticated account)",
		},
		&cli.StringFlag{
			Name:  "output",
			Usage: "CSV file path, or database URL (sqlite://..., postgres://...)",
			Value: "followers.csv",
		},
		&cli.BoolFlag{
			Name:  "append",
			Usage: "merge with existing records instead of replacing them",
		},
	},
	Action: runDownloadFollowers,
}

func runDownloadFollowers(cctx *cli.Context) error {
	rt, err := setup(cctx)
	if err != nil {
		return err
	}
	defer rt.finish(cctx)

	store, err := followers.OpenStore(cctx.String("output"))
	if err != nil {
		return err
	}
	d := followers.NewDownloader(rt.Client, store, rt.Logger)
	sum, err := d.Download(rt.Ctx, cctx.String("user"), cctx.Bool("append"))
	if err != nil {
		return err
	}
	fmt.Printf("Saved %d followers (%d downloaded, %d previously stored).\n", sum.Saved, sum.Downloaded, sum.Loaded)
	return nil
}
