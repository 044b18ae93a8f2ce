package dispatch

import (
	"context"
	"log/slog"
	"slices"

	"sapsdispatch/internal/catalog"
	"sapsdispatch/internal/logging"
)

// JobRecordWriter persists the job header and its task links once the
// pipeline has finished.
type JobRecordWriter struct {
	catalog catalog.Catalog
	logger  *slog.Logger
}

// NewJobRecordWriter returns a writer backed by store.
func NewJobRecordWriter(store catalog.Catalog, logger *slog.Logger) *JobRecordWriter {
	return &JobRecordWriter{catalog: store, logger: logging.NewComponentLogger(logger, "jobrecord")}
}

// Job assembles the record for a normalized request and its accepted taskIDs.
func Job(jobID string, spec JobSpec, taskIDs []string) catalog.Job {
	return catalog.Job{
		ID:          jobID,
		Coordinates: spec.Coordinates,
		Init:        spec.Init,
		End:         spec.End,
		Priority:    spec.Priority,
		Label:       spec.Label,
		Owner:       spec.Owner,
		TaskIDs:     slices.Clone(taskIDs),
		State:       catalog.JobCreated,
	}
}

// Write stores job and links every id in job.TaskIDs. An empty id list still
// produces a job record. Failures come back as *JobRecordError.
func (w *JobRecordWriter) Write(ctx context.Context, job catalog.Job) error {
	fail := func(err error) error {
		return &JobRecordError{JobID: job.ID, PersistedTaskIDs: slices.Clone(job.TaskIDs), Err: err}
	}
	if err := w.catalog.AddNewUserJob(ctx, job); err != nil {
		return fail(err)
	}
	for _, taskID := range job.TaskIDs {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		if err := w.catalog.InsertJobTask(ctx, taskID, job.ID); err != nil {
			return fail(err)
		}
	}
	w.logger.Debug("job record written",
		logging.JobID(job.ID),
		logging.Int("tasks", len(job.TaskIDs)),
	)
	return nil
}
