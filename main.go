package main

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	stdlog "log"

	"phishcheck/cmd"
	"phishcheck/internal/config"
	"phishcheck/internal/logger"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := app().Run(os.Args); err != nil {
		stdlog.Fatalf("error running the app: %v", err)
	}
}

func app() *cli.App {
	helpName := color.YellowString(filepath.Base(os.Args[0]))
	year := strconv.Itoa(time.Now().UTC().Year())

	app := &cli.App{
		Name:        "phishcheck",
		Usage:       "URL classification service",
		HelpName:    helpName,
		Version:     "v0.1.0",
		Compiled:    time.Now().UTC(),
		Copyright:   "© " + year + " RUNAHO",
		Description: "Classifies URLs as harmful, safe or unknown against a local dataset of URLs and domains.",
		Commands:    cmd.Commands,
		Before:      before,
	}

	app.Suggest = true
	return app
}

func before(c *cli.Context) error {
	stdlog.Print("Initializing application configuration")
	if err := config.InitConfig(); err != nil {
		stdlog.Printf("error loading config: %v", err)
		return err
	}

	logger.InitializeLogger()

	cfg := config.GetConfig()
	log.Debug().
		Str("environment", cfg.APP.Environment).
		Str("dataset", cfg.Dataset.Path).
		Str("reload_cron", cfg.Dataset.ReloadCron).
		Msg("Configuration loaded")

	return nil
}
