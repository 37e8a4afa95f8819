package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lukehollenback/birdcall/pkg/metrics"
	"github.com/lukehollenback/birdcall/twitter"
	"github.com/lukehollenback/birdcall/util/cliutil"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/urfave/cli/v2"
)

var globalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "consumer-key",
		Usage:   "Twitter app consumer (API) key",
		EnvVars: []string{twitter.EnvConsumerKey},
	},
	&cli.StringFlag{
		Name:    "consumer-secret",
		Usage:   "Twitter app consumer (API) secret",
		EnvVars: []string{twitter.EnvConsumerSecret},
	},
	&cli.StringFlag{
		Name:    "access-token",
		Usage:   "OAuth access token for the bot account",
		EnvVars: []string{twitter.EnvAccessToken},
	},
	&cli.StringFlag{
		Name:    "access-secret",
		Usage:   "OAuth access token secret for the bot account",
		EnvVars: []string{twitter.EnvAccessSecret},
	},
	&cli.StringFlag{
		Name:    "api-host",
		Usage:   "base URL of the REST API",
		Value:   twitter.DefaultHost,
		EnvVars: []string{"BIRDCALL_API_HOST"},
	},
	&cli.StringFlag{
		Name:    "upload-host",
		Usage:   "base URL of the media upload API",
		Value:   twitter.DefaultUploadHost,
		EnvVars: []string{"BIRDCALL_UPLOAD_HOST"},
	},
	&cli.Float64Flag{
		Name:    "api-rate",
		Usage:   "max API requests per second (0 for unlimited)",
		Value:   1,
		EnvVars: []string{"BIRDCALL_API_RATE"},
	},
	&cli.StringFlag{
		Name:    "log-level",
		Usage:   "log verbosity level (eg: warn, info, debug)",
		EnvVars: []string{"BIRDCALL_LOG_LEVEL", "LOG_LEVEL"},
	},
	&cli.StringFlag{
		Name:    "log-format",
		Usage:   "log output format: text or json",
		EnvVars: []string{"BIRDCALL_LOG_FMT", "LOG_FMT"},
	},
	&cli.StringFlag{
		Name:    "metrics-listen",
		Usage:   "IP or address, and port, to serve metrics on while a command runs",
		EnvVars: []string{"BIRDCALL_METRICS_LISTEN"},
	},
	&cli.StringFlag{
		Name:    "metrics-push-url",
		Usage:   "prometheus pushgateway URL; metrics are pushed when a command finishes",
		EnvVars: []string{"BIRDCALL_METRICS_PUSH_URL"},
	},
}

func credentials(cctx *cli.Context) twitter.Credentials {
	return twitter.Credentials{
		ConsumerKey:    cctx.String("consumer-key"),
		ConsumerSecret: cctx.String("consumer-secret"),
		AccessToken:    cctx.String("access-token"),
		AccessSecret:   cctx.String("access-secret"),
	}
}

func configLogger(cctx *cli.Context) (*slog.Logger, error) {
	return cliutil.SetupSlog(cliutil.LogOptions{
		LogLevel:  cctx.String("log-level"),
		LogFormat: cctx.String("log-format"),
	})
}

// Everything a command needs: logger, API client, and a context. Credentials are checked before
// anything touches the network.
type session struct {
	Ctx    context.Context
	Logger *slog.Logger
	Client *twitter.Client

	shutdownOTEL func(context.Context) error
	stopMetrics  context.CancelFunc
}

func setup(cctx *cli.Context) (*session, error) {
	logger, err := configLogger(cctx)
	if err != nil {
		return nil, err
	}

	client, err := twitter.Authenticate(credentials(cctx))
	if err != nil {
		return nil, err
	}
	client.Host = cctx.String("api-host")
	client.UploadHost = cctx.String("upload-host")
	client.Limiter = twitter.NewLimiter(cctx.Float64("api-rate"))
	client.Logger = logger.With("system", "twitter")

	ctx := cctx.Context
	shutdown, err := cliutil.SetupOTEL(ctx, "birdcall")
	if err != nil {
		return nil, fmt.Errorf("setting up tracing: %w", err)
	}

	metricsCtx, stopMetrics := context.WithCancel(ctx)
	if addr := cctx.String("metrics-listen"); addr != "" {
		go func() {
			if err := metrics.RunServer(metricsCtx, addr); err != nil {
				logger.Error("metrics server failed", "addr", addr, "err", err)
			}
		}()
	}

	return &session{
		Ctx:          ctx,
		Logger:       logger,
		Client:       client,
		shutdownOTEL: shutdown,
		stopMetrics:  stopMetrics,
	}, nil
}

// Flushes traces, and pushes metrics if a pushgateway is configured. Failures are logged: the
// command's own result is what matters for the exit code.
func (rt *session) finish(cctx *cli.Context) {
	defer rt.stopMetrics()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rt.shutdownOTEL(ctx); err != nil {
		rt.Logger.Error("failed to shutdown trace exporter", "err", err)
	}

	if u := cctx.String("metrics-push-url"); u != "" {
		err := push.New(u, "birdcall").
			Gatherer(prometheus.DefaultGatherer).
			Grouping("command", cctx.Command.Name).
			PushContext(ctx)
		if err != nil {
			rt.Logger.Error("failed to push metrics", "url", u, "err", err)
		}
	}
}
