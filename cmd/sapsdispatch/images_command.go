package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sapsdispatch/internal/calendar"
	"sapsdispatch/internal/catalog"
	"sapsdispatch/internal/wrs"
)

func newImagesCommand(ctx *commandContext) *cobra.Command {
	imagesCmd := &cobra.Command{
		Use:   "images",
		Short: "Manage known source imagery",
	}
	imagesCmd.AddCommand(newImagesAddCommand(ctx))
	imagesCmd.AddCommand(newImagesCheckCommand(ctx))
	return imagesCmd
}

func newImagesAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <region> <date> <dataset>",
		Short: "Record that imagery exists for a region on a day",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			image, err := parseImageArgs(args[0], args[1])
			if err != nil {
				return err
			}
			image.Dataset = strings.ToLower(strings.TrimSpace(args[2]))
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			if err := store.AddImage(cmd.Context(), image); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s imagery for %s on %s\n", image.Dataset, image.Region, args[1])
			return nil
		},
	}
}

func newImagesCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check <region> <date>",
		Short: "Report whether imagery is known for a region on a day",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			image, err := parseImageArgs(args[0], args[1])
			if err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			ok, err := store.ValidateImageAvailability(cmd.Context(), image.Region, image.Date)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{"region": image.Region, "date": args[1], "available": ok})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imagery for %s on %s: %s\n", image.Region, args[1], yesNo(ok))
			return nil
		},
	}
}

func parseImageArgs(region, date string) (catalog.Image, error) {
	cell, err := wrs.ParseRegion(strings.TrimSpace(region))
	if err != nil {
		return catalog.Image{}, err
	}
	day, err := calendar.Parse(strings.TrimSpace(date))
	if err != nil {
		return catalog.Image{}, fmt.Errorf("date %q: expected YYYY-MM-DD", date)
	}
	return catalog.Image{Region: cell.Region(), Date: day}, nil
}
