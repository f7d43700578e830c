package cmd

import (
	"context"
	"fmt"

	"phishcheck/features/dataset"
	"phishcheck/features/web"
	"phishcheck/internal/config"
	"phishcheck/internal/runner"
	"phishcheck/internal/telemetry"

	"github.com/ory/graceful"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

// WebServer is the CLI command that starts the web API server.
var WebServer = &cli.Command{
	Name:    "serve",
	Aliases: []string{"s"},
	Usage:   "Start web API server",
	Flags:   []cli.Flag{fileFlag},
	Action:  serve,
}

func serve(c *cli.Context) (err error) {
	if err := config.InitConfig(); err != nil {
		log.Error().Err(err).Msg("Failed to load config")
		return err
	}
	cfg := config.GetConfig()

	shutdownTelemetry, err := telemetry.InitTelemetry(c.Context, cfg.Telemetry, c.App.Version)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize telemetry")
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		_ = shutdownTelemetry(ctx)
	}()

	store := dataset.NewStore(datasetPath(c, cfg), storeOptions(cfg.Dataset)...)

	app, err := web.NewApplication(cfg, store)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create web application")
		return err
	}

	// The service does not start without a dataset; later reload
	// failures keep the last good version instead.
	d, err := store.Reload(c.Context)
	if err != nil {
		log.Error().Err(err).Str("path", store.Path()).Msg("Failed to load dataset")
		return fmt.Errorf("initial dataset load: %w", err)
	}
	log.Info().
		Str("version", d.Version()).
		Int("entries", d.Len()).
		Int("rejected", len(d.Rejected())).
		Msg("Dataset ready")

	if _, err := runner.InitializeRunner(store, cfg.Dataset); err != nil {
		log.Error().Err(err).Msg("Failed to initialize scheduler runner")
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := runner.ShutdownRunner(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to stop scheduler runner")
		}
	}()

	server := graceful.WithDefaults(app.Echo.Server)
	log.Info().Msgf("Starting server on %s", server.Addr)

	if err = graceful.Graceful(server.ListenAndServe, server.Shutdown); err != nil {
		log.Error().Err(err).Msg("Failed to start server")
		return err
	}

	log.Info().Msg("Server stopped gracefully.")
	return nil
}
