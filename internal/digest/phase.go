package digest

import "fmt"

// Phase names one of the three processing pipeline stages.
type Phase string

const (
	PhaseInputDownloading Phase = "inputdownloading"
	PhasePreprocessing    Phase = "preprocessing"
	PhaseProcessing       Phase = "processing"
)

// Phases lists every phase in pipeline order.
func Phases() []Phase {
	return []Phase{PhaseInputDownloading, PhasePreprocessing, PhaseProcessing}
}

// ParsePhase validates a phase name.
func ParsePhase(value string) (Phase, error) {
	for _, phase := range Phases() {
		if string(phase) == value {
			return phase, nil
		}
	}
	return "", fmt.Errorf("unknown phase %q", value)
}

// PhaseTags holds the human-chosen version tag for each phase.
type PhaseTags struct {
	InputDownloading string
	Preprocessing    string
	Processing       string
}

// Get returns the tag for phase.
func (t PhaseTags) Get(phase Phase) string {
	switch phase {
	case PhaseInputDownloading:
		return t.InputDownloading
	case PhasePreprocessing:
		return t.Preprocessing
	case PhaseProcessing:
		return t.Processing
	default:
		return ""
	}
}

// Resolved is a tag paired with the digest it resolved to.
type Resolved struct {
	Tag    string
	Digest string
}

// Set is the resolution of all three phases for one submission.
type Set struct {
	InputDownloading Resolved
	Preprocessing    Resolved
	Processing       Resolved
}

func (s *Set) put(phase Phase, r Resolved) {
	switch phase {
	case PhaseInputDownloading:
		s.InputDownloading = r
	case PhasePreprocessing:
		s.Preprocessing = r
	case PhaseProcessing:
		s.Processing = r
	}
}
