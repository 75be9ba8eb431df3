package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cognicore/newsdedup/internal/table"
	"github.com/cognicore/newsdedup/pkg/newsdedup"
	"github.com/cognicore/newsdedup/pkg/newsdedup/config"
	"github.com/cognicore/newsdedup/pkg/newsdedup/store"
	"github.com/cognicore/newsdedup/pkg/newsdedup/store/sqlite"
)

type rootOptions struct {
	input      string
	output     string
	configPath string
	dotenvPath string
	dbPath     string
	logLevel   string
	logJSON    bool

	// Flag targets. Only flags the user set override file and env values.
	flags config.Config
}

func newRootCmd() *cobra.Command {
	o := &rootOptions{flags: config.Default()}

	cmd := &cobra.Command{
		Use:   "newsdedup",
		Short: "Flag exact and near-duplicate news articles",
		Long: "Reads a CSV or JSONL batch of articles, assigns each one an exact and a\n" +
			"near-duplicate representative, and writes the annotated table as CSV.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDedup(cmd, o)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.input, "input", "i", "", "input table (.csv, .jsonl or .ndjson)")
	f.StringVarP(&o.output, "output", "o", "", "output CSV path")
	f.Float64Var(&o.flags.Threshold, "threshold", o.flags.Threshold, "Jaccard similarity threshold in (0, 1]")
	f.IntVar(&o.flags.ShingleSize, "shingle-size", o.flags.ShingleSize, "tokens per shingle")
	f.IntVar(&o.flags.NumPerm, "num-perm", o.flags.NumPerm, "MinHash permutations")
	f.BoolVar(&o.flags.BlockByDate, "block-by-date", o.flags.BlockByDate, "only compare articles sharing a publication_date")
	f.Int64Var(&o.flags.Seed, "seed", o.flags.Seed, "MinHash permutation seed")
	f.IntVar(&o.flags.Workers, "workers", o.flags.Workers, "parallel workers")
	f.StringVar(&o.flags.HTMLMode, "html-mode", o.flags.HTMLMode, "tag stripping: regex or parse")
	f.StringVar(&o.flags.Stoplist, "stoplist", "", "YAML stoplist file (default built-in English list)")
	f.StringVar(&o.configPath, "config", "", "YAML config file")
	f.StringVar(&o.dotenvPath, "env-file", ".env", "dotenv file with NEWSDEDUP_* overrides")
	f.StringVar(&o.dbPath, "db", "", "SQLite database to record the run in")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")

	pf := cmd.PersistentFlags()
	pf.StringVar(&o.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.BoolVar(&o.logJSON, "log-json", false, "log JSON instead of console output")

	cmd.AddCommand(newParamsCmd())
	cmd.AddCommand(newRunsCmd())
	return cmd
}

func runDedup(cmd *cobra.Command, o *rootOptions) error {
	log, err := newLogger(cmd.ErrOrStderr(), o.logLevel, o.logJSON)
	if err != nil {
		return err
	}

	cfg, err := resolveConfig(cmd, o)
	if err != nil {
		return err
	}
	comps, err := config.Build(cfg)
	if err != nil {
		return err
	}

	tbl, err := table.Read(o.input)
	if err != nil {
		return err
	}
	if cfg.BlockByDate && !tbl.HasPublicationDate {
		log.Warn().Str("input", o.input).Msg("no publication_date column; clustering the whole batch")
		cfg.BlockByDate = false
	}

	var st store.Store
	if o.dbPath != "" {
		st, err = sqlite.OpenSQLite(cmd.Context(), o.dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
	}

	d, err := newsdedup.New(newsdedup.Options{
		Config:     cfg,
		Normalizer: comps.Normalizer,
		Store:      st,
		Logger:     &log,
	})
	if err != nil {
		if st != nil {
			st.Close()
		}
		return err
	}
	defer d.Close()

	report, err := d.Run(cmd.Context(), tbl.Records)
	if err != nil {
		return err
	}
	if err := table.WriteFile(o.output, report.Results); err != nil {
		return err
	}

	printSummary(cmd, report)
	return nil
}

// resolveConfig layers explicitly set flags over defaults, file and env.
func resolveConfig(cmd *cobra.Command, o *rootOptions) (config.Config, error) {
	loader := config.Loader{ConfigPath: o.configPath, DotEnvPath: o.dotenvPath}
	cfg, err := loader.Config()
	if err != nil {
		return cfg, err
	}

	f := cmd.Flags()
	if f.Changed("threshold") {
		cfg.Threshold = o.flags.Threshold
	}
	if f.Changed("shingle-size") {
		cfg.ShingleSize = o.flags.ShingleSize
	}
	if f.Changed("num-perm") {
		cfg.NumPerm = o.flags.NumPerm
	}
	if f.Changed("block-by-date") {
		cfg.BlockByDate = o.flags.BlockByDate
	}
	if f.Changed("seed") {
		cfg.Seed = o.flags.Seed
	}
	if f.Changed("workers") {
		cfg.Workers = o.flags.Workers
	}
	if f.Changed("html-mode") {
		cfg.HTMLMode = o.flags.HTMLMode
	}
	if f.Changed("stoplist") {
		cfg.Stoplist = o.flags.Stoplist
	}
	return cfg, nil
}

func printSummary(cmd *cobra.Command, report *newsdedup.Report) {
	s := report.Stats
	fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d records, %d exact groups (%d duplicates), %d near clusters (%d duplicates), lsh %s\n",
		report.RunID, s.Records, s.ExactGroups, s.ExactDuplicates, s.NearClusters, s.NearDuplicates, report.Params)
}
