package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"sapsdispatch/internal/dispatch"
	"sapsdispatch/internal/wrs"
)

func newRegionsCommand(ctx *commandContext) *cobra.Command {
	regionsCmd := &cobra.Command{
		Use:   "regions",
		Short: "WRS-2 region utilities",
	}
	regionsCmd.AddCommand(newRegionsExpandCommand(ctx))
	regionsCmd.AddCommand(newRegionsFrequencyCommand(ctx))
	return regionsCmd
}

func newRegionsExpandCommand(ctx *commandContext) *cobra.Command {
	var flags requestFlags

	cmd := &cobra.Command{
		Use:         "expand",
		Short:       "Print the regions covering a bounding box",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			bbox, _, err := dispatch.ParseArea(flags.lowerLeftLat, flags.lowerLeftLon, flags.upperRightLat, flags.upperRightLon)
			if err != nil {
				return err
			}
			regions := wrs.RegionsFromArea(bbox)
			if ctx.jsonOutput() {
				return writeJSON(cmd, regions)
			}
			rows := make([][]string, 0, len(regions))
			for _, region := range regions {
				cell, err := wrs.ParseRegion(string(region))
				if err != nil {
					return err
				}
				lat, lon := cell.Center()
				rows = append(rows, []string{
					string(region),
					strconv.Itoa(cell.Path),
					strconv.Itoa(cell.Row),
					strconv.FormatFloat(lat, 'f', 3, 64),
					strconv.FormatFloat(lon, 'f', 3, 64),
				})
			}
			writeRows(cmd.OutOrStdout(), []string{"Region", "Path", "Row", "Center lat", "Center lon"}, rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight})
			return nil
		},
	}
	flags.bindArea(cmd)
	return cmd
}

func newRegionsFrequencyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "frequency",
		Short: "Count archived tasks per region",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := ctx.readDispatcher()
			if err != nil {
				return err
			}
			counts, err := d.RegionFrequency(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				out := make(map[string]int, len(counts))
				for _, c := range counts {
					out[string(c.Region)] = c.Count
				}
				return writeJSON(cmd, out)
			}
			if len(counts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No archived tasks")
				return nil
			}
			rows := make([][]string, 0, len(counts))
			for _, c := range counts {
				rows = append(rows, []string{string(c.Region), strconv.Itoa(c.Count)})
			}
			writeRows(cmd.OutOrStdout(), []string{"Region", "Archived"}, rows, []columnAlignment{alignLeft, alignRight})
			return nil
		},
	}
}
