package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"phishcheck/features/classification"
	"phishcheck/features/dataset"
	"phishcheck/features/entries/enums"
	"phishcheck/internal/config"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

// CheckCommand classifies one URL against the dataset file, offline.
var CheckCommand = &cli.Command{
	Name:    "check",
	Aliases: []string{"c"},
	Usage:   "Classify a URL against the dataset file",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "url",
			Aliases:  []string{"u"},
			Usage:    "URL to check. A missing scheme means http.",
			Required: true,
		},
		&cli.BoolFlag{
			Name:    "json",
			Aliases: []string{"j"},
			Usage:   "Output the result as JSON.",
			Value:   false,
		},
		fileFlag,
	},
	Action: checkURL,
}

func checkURL(c *cli.Context) error {
	cfg := config.GetConfig()
	if cfg == nil {
		return config.ErrNoDatasetPath
	}

	store := dataset.NewStore(datasetPath(c, cfg), storeOptions(cfg.Dataset)...)
	if _, err := store.Reload(c.Context); err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	result, err := classification.NewService(store).Check(c.String("url"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid url %q: %v", c.String("url"), err), 2)
	}

	return printCheckResult(result, c.Bool("json"))
}

func printCheckResult(result classification.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return nil
	}

	verdict := result.Verdict.String()
	switch result.Verdict {
	case enums.VerdictHarmful:
		verdict = color.RedString(verdict)
	case enums.VerdictSafe:
		verdict = color.GreenString(verdict)
	default:
		verdict = color.YellowString(verdict)
	}

	fmt.Printf("%s  %s\n", verdict, result.Normalized)
	if result.MatchedPattern != nil {
		fmt.Printf("  matched %s entry %q\n", result.MatchType, *result.MatchedPattern)
	}

	log.Debug().
		Str("url", result.Input).
		Str("dataset_version", result.DatasetVersion).
		Msg("Check finished")

	return nil
}
