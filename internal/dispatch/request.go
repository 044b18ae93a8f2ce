package dispatch

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"sapsdispatch/internal/calendar"
	"sapsdispatch/internal/digest"
	"sapsdispatch/internal/wrs"
)

const (
	MinPriority = 0
	MaxPriority = 31
)

// Request is a submission as received from a caller, before any parsing.
type Request struct {
	LowerLeftLat  string
	LowerLeftLon  string
	UpperRightLat string
	UpperRightLon string

	InitDate string
	EndDate  string

	InputDownloadingTag string
	PreprocessingTag    string
	ProcessingTag       string

	Priority string
	Owner    string
	Label    string
}

// JobSpec is a validated submission.
type JobSpec struct {
	BBox wrs.BBox
	// Coordinates keeps the trimmed caller strings in lower-left lat, lower-left
	// lon, upper-right lat, upper-right lon order.
	Coordinates [4]string
	Init        time.Time
	End         time.Time
	Tags        digest.PhaseTags
	Priority    int
	Owner       string
	Label       string
}

// Normalize validates req and derives the label when it is missing.
func Normalize(req Request) (JobSpec, error) {
	var spec JobSpec

	bbox, coordinates, err := ParseArea(req.LowerLeftLat, req.LowerLeftLon, req.UpperRightLat, req.UpperRightLon)
	if err != nil {
		return JobSpec{}, err
	}
	spec.BBox, spec.Coordinates = bbox, coordinates

	init, end, err := ParseRange(req.InitDate, req.EndDate)
	if err != nil {
		return JobSpec{}, err
	}
	spec.Init, spec.End = init, end

	tags := []struct {
		field string
		raw   string
		dst   *string
	}{
		{"inputdownloading_tag", req.InputDownloadingTag, &spec.Tags.InputDownloading},
		{"preprocessing_tag", req.PreprocessingTag, &spec.Tags.Preprocessing},
		{"processing_tag", req.ProcessingTag, &spec.Tags.Processing},
	}
	for _, tag := range tags {
		value := strings.TrimSpace(tag.raw)
		if value == "" {
			return JobSpec{}, &ValidationError{Field: tag.field, Reason: "required"}
		}
		*tag.dst = value
	}

	rawPriority := strings.TrimSpace(req.Priority)
	priority, err := strconv.Atoi(rawPriority)
	if err != nil {
		return JobSpec{}, &ValidationError{Field: "priority", Value: rawPriority, Reason: "not an integer"}
	}
	if priority < MinPriority || priority > MaxPriority {
		return JobSpec{}, &ValidationError{Field: "priority", Value: rawPriority, Reason: "must be between 0 and 31"}
	}
	spec.Priority = priority

	spec.Owner = strings.TrimSpace(req.Owner)
	if spec.Owner == "" {
		return JobSpec{}, &ValidationError{Field: "owner", Reason: "required"}
	}

	spec.Label = strings.TrimSpace(req.Label)
	if spec.Label == "" {
		spec.Label = DefaultLabel(spec.Owner, init, end)
	}
	return spec, nil
}

// ParseArea validates the four corner coordinates of a bounding box and
// returns the box with the trimmed inputs.
func ParseArea(lowerLeftLat, lowerLeftLon, upperRightLat, upperRightLon string) (wrs.BBox, [4]string, error) {
	var (
		bbox    wrs.BBox
		trimmed [4]string
	)
	coords := []struct {
		field string
		raw   string
		limit float64
		dst   *float64
	}{
		{"lower_left_lat", lowerLeftLat, 90, &bbox.MinLat},
		{"lower_left_lon", lowerLeftLon, 180, &bbox.MinLon},
		{"upper_right_lat", upperRightLat, 90, &bbox.MaxLat},
		{"upper_right_lon", upperRightLon, 180, &bbox.MaxLon},
	}
	for i, c := range coords {
		raw := strings.TrimSpace(c.raw)
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
			return wrs.BBox{}, trimmed, &ValidationError{Field: c.field, Value: raw, Reason: "not a number"}
		}
		if value < -c.limit || value > c.limit {
			return wrs.BBox{}, trimmed, &ValidationError{Field: c.field, Value: raw, Reason: "out of range"}
		}
		*c.dst = value
		trimmed[i] = raw
	}
	if bbox.MinLat > bbox.MaxLat {
		return wrs.BBox{}, trimmed, &ValidationError{Field: "upper_right_lat", Value: trimmed[2], Reason: "south of lower-left latitude"}
	}
	return bbox, trimmed, nil
}

// ParseRange validates an inclusive YYYY-MM-DD date range.
func ParseRange(initDate, endDate string) (time.Time, time.Time, error) {
	rawInit, rawEnd := strings.TrimSpace(initDate), strings.TrimSpace(endDate)
	init, err := calendar.Parse(rawInit)
	if err != nil {
		return time.Time{}, time.Time{}, &ValidationError{Field: "init_date", Value: rawInit, Reason: "expected YYYY-MM-DD"}
	}
	end, err := calendar.Parse(rawEnd)
	if err != nil {
		return time.Time{}, time.Time{}, &ValidationError{Field: "end_date", Value: rawEnd, Reason: "expected YYYY-MM-DD"}
	}
	if end.Before(init) {
		return time.Time{}, time.Time{}, &ValidationError{Field: "end_date", Value: rawEnd, Reason: "before init_date"}
	}
	return init, end, nil
}

// DefaultLabel builds "<owner local-part>-<init year>-<end year>" with the
// local part folded to lower-case ASCII.
func DefaultLabel(owner string, init, end time.Time) string {
	local, _, _ := strings.Cut(owner, "@")
	local = foldASCII(local)
	if local == "" {
		local = "job"
	}
	return local + "-" + strconv.Itoa(init.Year()) + "-" + strconv.Itoa(end.Year())
}

func foldASCII(value string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, value)
	if err != nil {
		folded = value
	}
	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '+':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-.")
}
