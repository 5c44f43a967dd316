package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	_ "time/tzdata"

	"github.com/alecthomas/kong"
	"github.com/crazy-max/imgplayer/internal/app"
	"github.com/crazy-max/imgplayer/internal/config"
	"github.com/crazy-max/imgplayer/internal/logging"
	"github.com/rs/zerolog/log"
)

var (
	imgplayer *app.ImgPlayer
	cli       config.Cli
	version   = "dev"
	meta      = config.Meta{
		ID:     "imgplayer",
		Name:   "ImgPlayer",
		Desc:   "Browse images of a folder and of the archives it contains over HTTP",
		URL:    "https://github.com/crazy-max/imgplayer",
		Author: "CrazyMax",
	}
)

func main() {
	var err error
	runtime.GOMAXPROCS(runtime.NumCPU())

	meta.Version = version

	_ = kong.Parse(&cli,
		kong.Name(meta.ID),
		kong.Description(fmt.Sprintf("%s. More info: %s", meta.Desc, meta.URL)),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))

	// Logging
	logging.Configure(cli)

	// Init
	if imgplayer, err = app.New(meta, cli); err != nil {
		log.Fatal().Err(err).Msg("cannot initialize imgplayer")
	}

	// Handle os signals
	channel := make(chan os.Signal, 1)
	signal.Notify(channel, os.Interrupt, SIGTERM)
	go func() {
		sig := <-channel
		log.Warn().Msgf("caught signal %v", sig)
		imgplayer.Close()
	}()

	// Start
	if err = imgplayer.Start(); err != nil {
		log.Fatal().Stack().Err(err).Send()
	}
}
