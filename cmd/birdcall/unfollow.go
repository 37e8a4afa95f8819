package main

import (
	"fmt"

	"github.com/lukehollenback/birdcall/unfollow"

	"github.com/urfave/cli/v2"
)

var cmdUnfollowTraitors = &cli.Command{
	Name:   "unfollow-traitors",
	Usage:  "unfollow every account which does not follow back",
	Action: runUnfollowTraitors,
}

func runUnfollowTraitors(cctx *cli.Context) error {
	rt, err := setup(cctx)
	if err != nil {
		return err
	}
	defer rt.finish(cctx)

	n, err := unfollow.NewPruner(rt.Client, rt.Logger).UnfollowTraitors(rt.Ctx)
	fmt.Printf("Unfollowed %d accounts.\n", n)
	return err
}
