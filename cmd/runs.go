package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/confusedbuffalo/phone-report/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect validation run history",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List validation runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := store.NewSQLite(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		subdivision, _ := cmd.Flags().GetString("subdivision")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := st.ListRuns(ctx, store.RunFilter{Subdivision: subdivision, Limit: limit})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}
		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "FINISHED\tSUBDIVISION\tNUMBERS\tINVALID\tFIXABLE\tSAFE\tCHANGESET\tBBOX")
		for _, run := range runs {
			changeset := "-"
			if run.ChangesetID != 0 {
				changeset = fmt.Sprintf("%d", run.ChangesetID)
			}
			bbox := "-"
			if run.BBox != nil {
				bbox = fmt.Sprintf("%.2f,%.2f,%.2f,%.2f",
					run.BBox.MinLon, run.BBox.MinLat, run.BBox.MaxLon, run.BBox.MaxLat)
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
				run.FinishedAt.Format("2006-01-02 15:04"),
				run.Subdivision,
				run.Stats.TotalNumbers,
				run.Stats.InvalidCount,
				run.Stats.AutoFixableCount,
				run.Stats.SafeEditCount,
				changeset,
				bbox,
			)
		}
		return w.Flush()
	},
}

func init() {
	runsListCmd.Flags().String("subdivision", "", "filter by subdivision")
	runsListCmd.Flags().Int("limit", 20, "maximum rows")
	runsCmd.AddCommand(runsListCmd)
	rootCmd.AddCommand(runsCmd)
}
