package logging

import "strings"

// FormatSubject builds the job/stage subject string used in console output.
// Job identifiers are shortened to their first segment.
func FormatSubject(jobID, stage string) string {
	jobID = shortJobID(jobID)
	stage = strings.TrimSpace(stage)
	switch {
	case jobID != "" && stage != "":
		return "Job " + jobID + " (" + stage + ")"
	case jobID != "":
		return "Job " + jobID
	default:
		return stage
	}
}

func shortJobID(id string) string {
	id = strings.TrimSpace(id)
	if idx := strings.IndexByte(id, '-'); idx > 0 {
		return id[:idx]
	}
	return id
}
