package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"logocluster/internal/config"
	"logocluster/internal/fingerprint"
	"logocluster/internal/locator"

	"github.com/spf13/cobra"
)

// inspectCommand constructs the 'inspect' subcommand that runs the locator and
// the fingerprinter for a single domain and prints what they found.
func inspectCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <domain>",
		Short: "Shows the logo candidate and fingerprint of one domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client, err := newFetcher(cfg)
			if err != nil {
				return err
			}
			hasher, engine, err := newHasher(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "page:        %s\n", locator.PageURL(args[0]))

			logoURL, err := locator.New(client).Locate(ctx, args[0])
			if err != nil {
				return fmt.Errorf("could not locate logo: %w", err)
			}
			_, _ = fmt.Fprintf(out, "logo:        %s\n", logoURL)

			fp, err := fingerprint.New(client, hasher, fingerprint.NewOptions(cfg)).Fingerprint(ctx, logoURL)
			if err != nil {
				return fmt.Errorf("could not fingerprint logo: %w", err)
			}
			_, _ = fmt.Fprintf(out, "fingerprint: %s\n", fp)
			_, _ = fmt.Fprintf(out, "threshold:   %d\n", engine.Threshold())

			return nil
		},
	}

	return cmd
}
