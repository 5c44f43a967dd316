package app

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/crazy-max/imgplayer/internal/browser"
	"github.com/crazy-max/imgplayer/internal/config"
	"github.com/crazy-max/imgplayer/internal/logging"
	"github.com/crazy-max/imgplayer/internal/metrics"
	"github.com/crazy-max/imgplayer/internal/server"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ImgPlayer represents an active imgplayer object
type ImgPlayer struct {
	ctx     context.Context
	cancel  context.CancelFunc
	meta    config.Meta
	cli     config.Cli
	logger  zerolog.Logger
	browser *browser.Browser
	srv     *http.Server
}

// New creates new imgplayer instance
func New(meta config.Meta, cli config.Cli) (*ImgPlayer, error) {
	logger := log.With().Str("root", cli.Root).Logger()

	bopts := browser.Options{
		Root:   cli.Root,
		Logger: logger,
	}
	if cli.Metrics {
		bopts.Observer = metrics.Recorder{}
	}
	b, err := browser.New(bopts)
	if err != nil {
		return nil, errors.Wrap(err, "cannot initialize browser")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &ImgPlayer{
		ctx:     ctx,
		cancel:  cancel,
		meta:    meta,
		cli:     cli,
		logger:  logger,
		browser: b,
		srv: &http.Server{
			Addr: net.JoinHostPort(cli.Bind, strconv.Itoa(cli.Port)),
			Handler: server.New(b, server.Options{
				Index:   cli.Index,
				Metrics: cli.Metrics,
				Logger:  logger,
			}),
			ReadHeaderTimeout: 10 * time.Second,
			ErrorLog:          logging.ErrorLog(logrus.ErrorLevel),
		},
	}, nil
}

// Start starts imgplayer and blocks until the server is shut down
func (c *ImgPlayer) Start() error {
	eg, ctx := errgroup.WithContext(c.ctx)

	eg.Go(func() error {
		c.logger.Info().Msgf("Starting %s %s", c.meta.Name, c.meta.Version)
		c.logger.Info().Msgf("Serving %s on http://%s", c.browser.Root(), c.srv.Addr)
		if err := c.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrapf(err, "cannot listen on %s", c.srv.Addr)
		}
		return nil
	})

	eg.Go(func() error {
		<-ctx.Done()
		c.logger.Debug().Msg("Shutting down server")
		sctx, cancel := context.WithTimeout(context.Background(), c.cli.ShutdownTimeout)
		defer cancel()
		err := c.srv.Shutdown(sctx)
		c.browser.Close()
		return errors.Wrap(err, "cannot shut down server")
	})

	return eg.Wait()
}

// Close stops imgplayer. In-flight requests are given the shutdown timeout
// to complete.
func (c *ImgPlayer) Close() {
	c.cancel()
}
