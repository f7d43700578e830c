package cmd

import (
	"phishcheck/features/dataset"
	"phishcheck/internal/config"

	"github.com/urfave/cli/v2"
)

var Commands = []*cli.Command{
	WebServer,
	CheckCommand,
	DatasetCommand,
}

var fileFlag = &cli.StringFlag{
	Name:    "file",
	Aliases: []string{"f"},
	Usage:   "Dataset file. Defaults to Dataset.path from the config.",
}

// datasetPath returns --file when set, the configured path otherwise.
func datasetPath(c *cli.Context, cfg *config.Config) string {
	if p := c.String(fileFlag.Name); p != "" {
		return p
	}
	return cfg.Dataset.Path
}

func storeOptions(cfg config.DatasetConfig) []dataset.Option {
	opts := []dataset.Option{
		dataset.WithWorkers(cfg.Workers),
		dataset.WithLegacyFormat(cfg.AllowLegacyFormat),
	}
	if cfg.UseBloom {
		opts = append(opts, dataset.WithBloom(cfg.BloomFPRate))
	}
	return opts
}
