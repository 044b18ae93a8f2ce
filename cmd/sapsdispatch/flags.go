package main

import (
	"github.com/spf13/cobra"

	"sapsdispatch/internal/dispatch"
)

// requestFlags binds every submission field to command flags.
type requestFlags struct {
	lowerLeftLat  string
	lowerLeftLon  string
	upperRightLat string
	upperRightLon string
	initDate      string
	endDate       string
	inputTag      string
	preTag        string
	procTag       string
	priority      string
	owner         string
	label         string
}

func (f *requestFlags) bindArea(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.lowerLeftLat, "lower-left-lat", "", "Lower-left latitude")
	cmd.Flags().StringVar(&f.lowerLeftLon, "lower-left-lon", "", "Lower-left longitude")
	cmd.Flags().StringVar(&f.upperRightLat, "upper-right-lat", "", "Upper-right latitude")
	cmd.Flags().StringVar(&f.upperRightLon, "upper-right-lon", "", "Upper-right longitude")
}

func (f *requestFlags) bindRange(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.initDate, "init", "", "First day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.endDate, "end", "", "Last day, inclusive (YYYY-MM-DD)")
}

func (f *requestFlags) bindTags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.inputTag, "inputdownloading-tag", "", "Input downloading phase tag")
	cmd.Flags().StringVar(&f.preTag, "preprocessing-tag", "", "Preprocessing phase tag")
	cmd.Flags().StringVar(&f.procTag, "processing-tag", "", "Processing phase tag")
}

func (f *requestFlags) bindAll(cmd *cobra.Command) {
	f.bindArea(cmd)
	f.bindRange(cmd)
	f.bindTags(cmd)
	cmd.Flags().StringVar(&f.priority, "priority", "0", "Priority between 0 and 31")
	cmd.Flags().StringVar(&f.owner, "owner", "", "Owner e-mail")
	cmd.Flags().StringVar(&f.label, "label", "", "Job label (defaults to <owner>-<init year>-<end year>)")
}

func (f *requestFlags) request() dispatch.Request {
	return dispatch.Request{
		LowerLeftLat:        f.lowerLeftLat,
		LowerLeftLon:        f.lowerLeftLon,
		UpperRightLat:       f.upperRightLat,
		UpperRightLon:       f.upperRightLon,
		InitDate:            f.initDate,
		EndDate:             f.endDate,
		InputDownloadingTag: f.inputTag,
		PreprocessingTag:    f.preTag,
		ProcessingTag:       f.procTag,
		Priority:            f.priority,
		Owner:               f.owner,
		Label:               f.label,
	}
}
