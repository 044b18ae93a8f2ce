package main

import (
	"strings"

	"github.com/spf13/cobra"

	"sapsdispatch/internal/digest"
	"sapsdispatch/internal/dispatch"
)

func newProcessedCommand(ctx *commandContext) *cobra.Command {
	var flags requestFlags

	cmd := &cobra.Command{
		Use:   "processed",
		Short: "Search archived tasks over an area, range and phase tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			bbox, _, err := dispatch.ParseArea(flags.lowerLeftLat, flags.lowerLeftLon, flags.upperRightLat, flags.upperRightLon)
			if err != nil {
				return err
			}
			init, end, err := dispatch.ParseRange(flags.initDate, flags.endDate)
			if err != nil {
				return err
			}
			tags := digest.PhaseTags{
				InputDownloading: strings.TrimSpace(flags.inputTag),
				Preprocessing:    strings.TrimSpace(flags.preTag),
				Processing:       strings.TrimSpace(flags.procTag),
			}
			d, err := ctx.readDispatcher()
			if err != nil {
				return err
			}
			tasks, err := d.ProcessedTasks(cmd.Context(), bbox, init, end, tags)
			if err != nil {
				return err
			}
			return printTasks(cmd, ctx, tasks)
		},
	}

	flags.bindArea(cmd)
	flags.bindRange(cmd)
	flags.bindTags(cmd)
	return cmd
}
