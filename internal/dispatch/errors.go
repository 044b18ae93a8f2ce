package dispatch

import (
	"fmt"
	"time"

	"sapsdispatch/internal/digest"
	"sapsdispatch/internal/services"
	"sapsdispatch/internal/wrs"
)

// ValidationError names the request field that failed normalization.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error { return services.ErrValidation }

// ResolutionError reports a phase tag that could not be turned into a digest.
// Nothing was persisted.
type ResolutionError struct {
	Phase digest.Phase
	Tag   string
	Err   error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s tag %q: %v", e.Phase, e.Tag, e.Err)
}

func (e *ResolutionError) Unwrap() []error { return []error{services.ErrExternalTool, e.Err} }

// AvailabilityCheckError reports that the oracle could not answer for a pair.
// The walk stopped there; PersistedTaskIDs lists what was already stored and
// no job record was written.
type AvailabilityCheckError struct {
	Region           wrs.Region
	Date             time.Time
	PersistedTaskIDs []string
	Err              error
}

func (e *AvailabilityCheckError) Error() string {
	return fmt.Sprintf("availability check for %s on %s: %v", e.Region, e.Date.Format(time.DateOnly), e.Err)
}

func (e *AvailabilityCheckError) Unwrap() []error { return []error{services.ErrTransient, e.Err} }

// JobRecordError reports a failed job record write after tasks were stored.
type JobRecordError struct {
	JobID            string
	PersistedTaskIDs []string
	Err              error
}

func (e *JobRecordError) Error() string {
	return fmt.Sprintf("write job record %s (%d tasks persisted): %v", e.JobID, len(e.PersistedTaskIDs), e.Err)
}

func (e *JobRecordError) Unwrap() []error { return []error{services.ErrTransient, e.Err} }

// IncompleteError reports a submission stopped by its context. JobID is empty
// when the stop came before the digests resolved.
type IncompleteError struct {
	JobID            string
	PersistedTaskIDs []string
	Err              error
}

func (e *IncompleteError) Error() string {
	if e.JobID == "" {
		return fmt.Sprintf("submission incomplete before digest resolution: %v", e.Err)
	}
	return fmt.Sprintf("submission %s incomplete (%d tasks persisted): %v", e.JobID, len(e.PersistedTaskIDs), e.Err)
}

func (e *IncompleteError) Unwrap() error { return e.Err }
