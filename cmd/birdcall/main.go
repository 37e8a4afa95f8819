package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lukehollenback/birdcall/util/cliutil"

	_ "github.com/joho/godotenv/autoload"

	"github.com/carlmjohnson/versioninfo"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	// the working-directory .env is loaded by godotenv/autoload; this one is lower priority, and
	// must be loaded before flags resolve their env vars
	if _, err := cliutil.LoadConfigDotenv("birdcall"); err != nil {
		return fmt.Errorf("loading config dotenv: %w", err)
	}

	app := cli.App{
		Name:    "birdcall",
		Usage:   "automation routines for a Twitter account",
		Version: versioninfo.Short(),
		Flags:   globalFlags,
	}
	app.Commands = []*cli.Command{
		cmdDownloadFollowers,
		cmdRetweetSearch,
		cmdRetweetReplies,
		cmdTweet,
		cmdUnfollowTraitors,
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return app.RunContext(ctx, args)
}
