package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sapsdispatch/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var jobID string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the most recent run log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := logs.LatestRunLog(cfg.Paths.LogDir)
			if err != nil {
				return err
			}
			out, err := logs.Tail(path, logs.TailOptions{Limit: lines, JobID: jobID})
			if err != nil {
				return err
			}
			for _, line := range out {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show (0 for all)")
	cmd.Flags().StringVar(&jobID, "job", "", "Only show records for this job id")
	return cmd
}
