package main

import (
	"fmt"

	"github.com/lukehollenback/birdcall/poster"

	"github.com/urfave/cli/v2"
)

var cmdTweet = &cli.Command{
	Name:  "tweet",
	Usage: "post the content of a file, or of a random file in a directory",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "path",
			Usage:    "file (or directory to choose a random file from) with the post text",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "media",
			Usage: "file (or directory to choose a random file from) to attach",
		},
		&cli.BoolFlag{
			Name:  "delete-content",
			Usage: "delete the content file after posting",
		},
		&cli.BoolFlag{
			Name:  "delete-media",
			Usage: "delete the media file after posting",
		},
	},
	Action: runTweet,
}

func runTweet(cctx *cli.Context) error {
	rt, err := setup(cctx)
	if err != nil {
		return err
	}
	defer rt.finish(cctx)

	p := poster.NewPoster(rt.Client, rt.Logger)
	res, err := p.Post(rt.Ctx, poster.Request{
		ContentPath:   cctx.String("path"),
		MediaPath:     cctx.String("media"),
		DeleteContent: cctx.Bool("delete-content"),
		DeleteMedia:   cctx.Bool("delete-media"),
	})
	if res != nil && res.Post != nil {
		// only the ID on stdout, so it can be piped to other commands
		fmt.Println(res.Post.ID)
	}
	return err
}
