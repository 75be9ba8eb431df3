package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cognicore/newsdedup/internal/table"
	"github.com/cognicore/newsdedup/pkg/newsdedup"
	"github.com/cognicore/newsdedup/pkg/newsdedup/ingest"
	"github.com/cognicore/newsdedup/pkg/newsdedup/store"
	"github.com/cognicore/newsdedup/pkg/newsdedup/store/sqlite"
)

func newRunsCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect runs recorded with --db",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (required)")
	_ = cmd.MarkPersistentFlagRequired("db")

	open := func(cmd *cobra.Command) (store.Store, error) {
		if dbPath == "" {
			return nil, errors.New("--db required")
		}
		return sqlite.OpenSQLite(cmd.Context(), dbPath)
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := open(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tCREATED\tRECORDS\tEXACT\tNEAR\tTHRESHOLD\tLSH\tBLOCKED")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%g\t%dx%d\t%t\n",
					r.ID, r.CreatedAt.Local().Format(time.DateTime), r.Records, r.ExactGroups, r.NearClusters,
					r.Threshold, r.Bands, r.RowsPerBand, r.BlockByDate)
			}
			return tw.Flush()
		},
	}
	list.Flags().IntVar(&limit, "limit", 20, "maximum runs to show (0 for all)")

	show := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print the output table of a recorded run as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := open(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			rows, err := st.Rows(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("run %s: %w", args[0], err)
			}
			return table.WriteCSV(cmd.OutOrStdout(), rowsToResults(rows))
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}

func rowsToResults(rows []store.Row) []newsdedup.Result {
	out := make([]newsdedup.Result, len(rows))
	for i, r := range rows {
		out[i] = newsdedup.Result{
			Record: ingest.Record{
				ArticleID:       r.ArticleID,
				Title:           r.Title,
				PublicationDate: r.PublicationDate,
				SourceURL:       r.SourceURL,
				ContentSnippet:  r.ContentSnippet,
			},
			ExactDuplicateOf: r.ExactDuplicateOf,
			NearDuplicateOf:  r.NearDuplicateOf,
		}
	}
	return out
}
