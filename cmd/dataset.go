package cmd

import (
	"errors"
	"fmt"
	"os"

	"phishcheck/features/dataset"
	"phishcheck/features/entries"
	"phishcheck/features/entries/enums"
	"phishcheck/internal/config"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

var ErrInvalidRecords = errors.New("dataset has rejected records")

// DatasetCommand groups the offline dataset file tools.
var DatasetCommand = &cli.Command{
	Name:    "dataset",
	Aliases: []string{"d"},
	Usage:   "Inspect and edit the dataset file",
	Subcommands: []*cli.Command{
		{
			Name:  "validate",
			Usage: "Load the dataset and report rejected and duplicate records",
			Flags: []cli.Flag{
				fileFlag,
				&cli.BoolFlag{
					Name:  "strict",
					Usage: "Exit with an error when any record is rejected.",
				},
			},
			Action: validateDataset,
		},
		{
			Name:  "add",
			Usage: "Add or replace an entry and save the file",
			Flags: []cli.Flag{
				fileFlag,
				&cli.StringFlag{Name: "pattern", Aliases: []string{"p"}, Required: true, Usage: "URL or host to classify."},
				&cli.StringFlag{Name: "scope", Aliases: []string{"s"}, Value: enums.ScopeExact.String(), Usage: "exact or domain."},
				&cli.StringFlag{Name: "label", Aliases: []string{"l"}, Value: enums.LabelHarmful.String(), Usage: "harmful or safe."},
				&cli.StringFlag{Name: "source", Usage: "Free-form provenance."},
			},
			Action: addEntry,
		},
		{
			Name:  "remove",
			Usage: "Remove an entry and save the file",
			Flags: []cli.Flag{
				fileFlag,
				&cli.StringFlag{Name: "pattern", Aliases: []string{"p"}, Required: true},
				&cli.StringFlag{Name: "scope", Aliases: []string{"s"}, Value: enums.ScopeExact.String(), Usage: "exact or domain."},
			},
			Action: removeEntry,
		},
		{
			Name:  "convert",
			Usage: "Rewrite the dataset (including the flagged_sites format) as a normalized entry array",
			Flags: []cli.Flag{
				fileFlag,
				&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Required: true, Usage: "Destination file."},
			},
			Action: convertDataset,
		},
	},
}

// openStore loads the dataset file for an offline edit.
func openStore(c *cli.Context) (*dataset.Store, error) {
	cfg := config.GetConfig()
	if cfg == nil {
		return nil, config.ErrNoDatasetPath
	}

	store := dataset.NewStore(datasetPath(c, cfg), storeOptions(cfg.Dataset)...)
	if _, err := store.Reload(c.Context); err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	return store, nil
}

func validateDataset(c *cli.Context) error {
	store, err := openStore(c)
	if err != nil {
		return err
	}

	d := store.Snapshot()
	exact, domain := d.Counts()
	fmt.Printf("%s %s\n", color.CyanString("dataset"), store.Path())
	fmt.Printf("  entries:    %d (exact %d, domain %d)\n", d.Len(), exact, domain)
	fmt.Printf("  duplicates: %d\n", d.Duplicates())

	rejected := d.Rejected()
	if len(rejected) == 0 {
		fmt.Printf("  rejected:   %s\n", color.GreenString("0"))
		return nil
	}

	fmt.Printf("  rejected:   %s\n", color.RedString("%d", len(rejected)))
	for _, r := range rejected {
		fmt.Printf("    #%d %q: %s\n", r.Index, r.Pattern, r.Reason)
	}

	if c.Bool("strict") {
		return cli.Exit(ErrInvalidRecords.Error(), 1)
	}
	return nil
}

func addEntry(c *cli.Context) error {
	scope, err := enums.ScopeString(c.String("scope"))
	if err != nil {
		return err
	}
	label, err := enums.LabelString(c.String("label"))
	if err != nil {
		return err
	}

	store, err := openStoreOrEmpty(c)
	if err != nil {
		return err
	}

	entry := entries.NewEntry(c.String("pattern"), scope).WithLabel(label).WithSource(c.String("source"))
	d, replaced, err := store.Upsert(c.Context, *entry)
	if err != nil {
		return err
	}

	action := "added"
	if replaced {
		action = "replaced"
	}
	log.Info().
		Str("pattern", entry.Pattern).
		Str("scope", scope.String()).
		Str("label", label.String()).
		Str("version", d.Version()).
		Msgf("Entry %s", action)

	return nil
}

func removeEntry(c *cli.Context) error {
	scope, err := enums.ScopeString(c.String("scope"))
	if err != nil {
		return err
	}

	store, err := openStore(c)
	if err != nil {
		return err
	}

	d, err := store.Remove(c.Context, c.String("pattern"), scope)
	if err != nil {
		return err
	}

	log.Info().
		Str("pattern", c.String("pattern")).
		Str("scope", scope.String()).
		Int("entries", d.Len()).
		Msg("Entry removed")

	return nil
}

func convertDataset(c *cli.Context) error {
	store, err := openStore(c)
	if err != nil {
		return err
	}

	if err := store.PersistTo(c.String("out")); err != nil {
		return err
	}

	log.Info().
		Str("from", store.Path()).
		Str("to", c.String("out")).
		Int("entries", store.Snapshot().Len()).
		Msg("Dataset converted")

	return nil
}

// openStoreOrEmpty is openStore that treats a missing file as an empty
// dataset, so the first add creates it.
func openStoreOrEmpty(c *cli.Context) (*dataset.Store, error) {
	store, err := openStore(c)
	if err == nil {
		return store, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	cfg := config.GetConfig()
	path := datasetPath(c, cfg)
	log.Warn().Err(err).Str("path", path).Msg("Dataset file does not exist, starting from an empty dataset")
	return dataset.NewStore(path, storeOptions(cfg.Dataset)...), nil
}
