package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"sapsdispatch/internal/dispatch"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var flags requestFlags
	var dryRun bool
	var assumeAvailable bool

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Expand a job into tasks and record it in the catalog",
		Example: `  sapsdispatch submit --lower-left-lat -7.9 --lower-left-lon -37.5 \
    --upper-right-lat -7.1 --upper-right-lon -36.3 --init 2015-06-01 --end 2015-06-30 \
    --inputdownloading-tag googleapis --preprocessing-tag legacy --processing-tag ufcg-sebal \
    --priority 3 --owner alice@example.org`,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := ctx.newDispatcher(dispatcherOptions{dryRun: dryRun, assumeAvailable: assumeAvailable})
			if err != nil {
				return err
			}
			res, submitErr := d.Submit(cmd.Context(), flags.request())

			var vErr *dispatch.ValidationError
			if errors.As(submitErr, &vErr) {
				return submitErr
			}
			view := newSubmitView(res, submitErr)
			if ctx.jsonOutput() {
				if err := writeJSON(cmd, view); err != nil {
					return err
				}
			} else if res.JobID != "" {
				writeRows(cmd.OutOrStdout(), []string{"Field", "Value"}, view.rows(), nil)
			}
			if submitErr != nil {
				return fmt.Errorf("submit job: %w", submitErr)
			}
			return nil
		},
	}

	flags.bindAll(cmd)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Expand into an in-memory catalog without resolving digests")
	cmd.Flags().BoolVar(&assumeAvailable, "assume-available", false, "Treat every region and day as having imagery")
	return cmd
}
