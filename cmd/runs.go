package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"logocluster/internal/config"
	"logocluster/internal/sink"
	"logocluster/pkg/domain"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// runsCommand constructs the 'runs' subcommand that lists stored runs, or
// prints the full report of one run when its ID is given.
func runsCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "Lists persisted runs or shows one of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			strg, closeStrg, err := getPostgres(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStrg()

			if len(args) == 1 {
				id, err := uuid.Parse(args[0])
				if err != nil {
					return fmt.Errorf("invalid run id: %w", err)
				}
				report, err := strg.Run(ctx, domain.RunID(id))
				if err != nil {
					return err
				}

				return sink.WriteReport(cmd.OutOrStdout(), report)
			}

			limit, _ := cmd.Flags().GetUint("limit")
			runs, err := strg.Runs(ctx, limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "ID\tSTARTED\tDURATION\tALGORITHM\tTHRESHOLD\tDOMAINS\tHASHED\tCLUSTERS")
			for _, r := range runs {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
					r.ID, r.StartedAt.Format(time.RFC3339), r.Duration.Round(time.Millisecond),
					r.Algorithm, r.Threshold, r.Domains, r.Fingerprinted, r.Clusters)
			}

			return tw.Flush()
		},
	}
	cmd.Flags().Uint("limit", 20, "number of runs to list")

	return cmd
}
