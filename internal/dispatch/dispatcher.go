package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"sapsdispatch/internal/availability"
	"sapsdispatch/internal/calendar"
	"sapsdispatch/internal/catalog"
	"sapsdispatch/internal/config"
	"sapsdispatch/internal/dataset"
	"sapsdispatch/internal/digest"
	"sapsdispatch/internal/logging"
	"sapsdispatch/internal/services"
	"sapsdispatch/internal/wrs"
)

const requestIDLength = 12

// Storage is the catalog surface the dispatcher writes and reads.
type Storage interface {
	catalog.Catalog
	catalog.Reader
}

// Result is the outcome of one submission.
type Result struct {
	JobID     string
	RequestID string
	Label     string
	// TaskIDs lists the tasks durably stored, sorted. On an error it still
	// holds whatever was persisted before the failure.
	TaskIDs []string
	// Complete is true only when every pair was walked and the job record
	// was written.
	Complete           bool
	Regions            int
	Days               int
	Dropped            int
	Skipped            int
	AvailabilityChecks int
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithOracle replaces the catalog-backed availability oracle.
func WithOracle(oracle availability.Oracle) Option {
	return func(d *Dispatcher) {
		if oracle != nil {
			d.oracle = oracle
		}
	}
}

// WithRequestIDs overrides the correlation id generator.
func WithRequestIDs(next func() string) Option {
	return func(d *Dispatcher) {
		if next != nil {
			d.requestID = next
		}
	}
}

// Dispatcher runs submissions against a catalog. It is safe for concurrent
// use; every Submit builds its own pipeline.
type Dispatcher struct {
	store     Storage
	resolver  digest.Resolver
	oracle    availability.Oracle
	datasets  *dataset.Selector
	workers   int
	queueSize int
	timeout   time.Duration
	requestID func() string
	logger    *slog.Logger
}

// New builds a dispatcher from cfg. Unless WithOracle is given, availability
// is answered by the catalog's image table, behind a circuit breaker when
// availability.breaker_enabled is set.
func New(cfg *config.Config, store Storage, resolver digest.Resolver, opts ...Option) (*Dispatcher, error) {
	if cfg == nil {
		return nil, errors.New("dispatch: config is required")
	}
	if store == nil || resolver == nil {
		return nil, errors.New("dispatch: store and resolver are required")
	}
	datasets, err := dataset.FromConfig(cfg.Datasets)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "dispatch", "datasets", "", err)
	}
	d := &Dispatcher{
		store:     store,
		resolver:  resolver,
		datasets:  datasets,
		workers:   cfg.Dispatch.Workers,
		queueSize: cfg.Dispatch.QueueSize,
		timeout:   cfg.SubmissionTimeout(),
		requestID: func() string { return gonanoid.Must(requestIDLength) },
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.oracle == nil {
		d.oracle = availability.Func(store.ValidateImageAvailability)
		if cfg.Availability.BreakerEnabled {
			d.oracle = availability.NewBreaker(d.oracle, availability.BreakerSettings{
				MaxFailures: cfg.Availability.BreakerMaxFailures,
				OpenTimeout: cfg.BreakerOpenTimeout(),
				Logger:      d.logger,
			})
		}
	}
	d.logger = logging.NewComponentLogger(d.logger, "dispatch")
	return d, nil
}

// Submit expands req into tasks, persists them, and writes the job record.
//
// Errors are typed: *ValidationError and *ResolutionError mean nothing was
// stored; *AvailabilityCheckError, *JobRecordError and *IncompleteError carry
// the ids already persisted, also returned in Result.TaskIDs.
func (d *Dispatcher) Submit(ctx context.Context, req Request) (Result, error) {
	started := time.Now()
	spec, err := Normalize(req)
	if err != nil {
		return Result{}, err
	}
	requestID, ok := services.RequestIDFromContext(ctx)
	if !ok {
		requestID = d.requestID()
		ctx = services.WithRequestID(ctx, requestID)
	}
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	regions := wrs.RegionsFromArea(spec.BBox)
	result := Result{
		RequestID: requestID,
		Label:     spec.Label,
		Regions:   len(regions),
		Days:      calendar.Count(spec.Init, spec.End),
	}
	logger := logging.WithContext(services.WithStage(ctx, "resolve"), d.logger)
	logger.Info("submission accepted",
		logging.String("owner", spec.Owner),
		logging.String("label", spec.Label),
		logging.Int("priority", spec.Priority),
		logging.Int("regions", result.Regions),
		logging.Int("days", result.Days),
	)

	digests, err := digest.ResolveAll(ctx, d.resolver, spec.Tags)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, &IncompleteError{Err: ctxErr}
		}
		var phaseErr *digest.PhaseError
		if errors.As(err, &phaseErr) {
			err = &ResolutionError{Phase: phaseErr.Phase, Tag: phaseErr.Tag, Err: phaseErr.Err}
		}
		logging.ErrorWithContext(logger, "digest resolution failed", "digest_resolution_failed",
			logging.Error(err),
			logging.Hint("check the execution tags file and digest script"),
		)
		return result, err
	}

	// The job id covers the resolved digests, so it exists only from here on.
	jobID := JobID(spec, digests)
	result.JobID = jobID
	ctx = services.WithJobID(ctx, jobID)

	logger = logging.WithContext(services.WithStage(ctx, "expand"), d.logger)
	memo := availability.NewMemo(d.oracle)
	pipeline := NewPipeline(d.store, memo, d.datasets, d.workers, d.queueSize, logger)
	sink := pipeline.Run(ctx, Plan{JobID: jobID, Spec: spec, Regions: regions, Digests: digests})
	result.TaskIDs = sink.Accepted
	result.Dropped = sink.Dropped
	result.Skipped = sink.Skipped
	result.AvailabilityChecks = memo.Calls()

	if sink.Err != nil {
		var availErr *AvailabilityCheckError
		if errors.As(sink.Err, &availErr) {
			availErr.PersistedTaskIDs = sink.Accepted
			logging.ErrorWithContext(logger, "availability check failed", "availability_check_failed",
				logging.Error(availErr),
				logging.Int("tasks_accepted", len(sink.Accepted)),
				logging.Hint("resubmit the same request once the image catalog answers"),
			)
			return result, availErr
		}
		return result, d.incomplete(logger, jobID, sink.Accepted, sink.Err)
	}

	logger = logging.WithContext(services.WithStage(ctx, "record"), d.logger)
	writer := NewJobRecordWriter(d.store, logger)
	if err := writer.Write(ctx, Job(jobID, spec, sink.Accepted)); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, d.incomplete(logger, jobID, sink.Accepted, ctxErr)
		}
		logging.ErrorWithContext(logger, "job record write failed", "job_record_failed",
			logging.Error(err),
			logging.Int("tasks_accepted", len(sink.Accepted)),
			logging.Hint("resubmit the same request to retry the job record"),
		)
		return result, err
	}

	result.Complete = true
	logger.Info("submission complete",
		logging.String(logging.FieldEventType, "submission_complete"),
		logging.Int("tasks_accepted", len(sink.Accepted)),
		logging.Int("tasks_dropped", sink.Dropped),
		logging.Int("tasks_skipped", sink.Skipped),
		logging.Int("availability_checks", result.AvailabilityChecks),
		logging.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

func (d *Dispatcher) incomplete(logger *slog.Logger, jobID string, persisted []string, cause error) error {
	logging.WarnWithContext(logger, "submission cancelled", "submission_incomplete",
		logging.Error(cause),
		logging.Int("tasks_accepted", len(persisted)),
		logging.Hint("resubmit the same request to finish the job"),
	)
	return &IncompleteError{JobID: jobID, PersistedTaskIDs: persisted, Err: cause}
}

// ProcessedTasks returns archived tasks in every region covered by bbox,
// dated within [init, end], that ran exactly tags.
func (d *Dispatcher) ProcessedTasks(ctx context.Context, bbox wrs.BBox, init, end time.Time, tags digest.PhaseTags) ([]catalog.Task, error) {
	if end.Before(init) {
		return nil, &ValidationError{Field: "end_date", Value: end.Format(time.DateOnly), Reason: "before init_date"}
	}
	var tasks []catalog.Task
	for _, region := range wrs.RegionsFromArea(bbox) {
		found, err := d.store.GetProcessedTasks(ctx, region, init, end, tags)
		if err != nil {
			return nil, services.Wrap(services.ErrTransient, "dispatch", "processed tasks", string(region), err)
		}
		tasks = append(tasks, found...)
	}
	return tasks, nil
}

// Jobs lists jobs matching q together with the unpaged match count.
func (d *Dispatcher) Jobs(ctx context.Context, q catalog.JobQuery) ([]catalog.Job, int, error) {
	jobs, err := d.store.GetUserJobs(ctx, q)
	if err != nil {
		return nil, 0, services.Wrap(services.ErrTransient, "dispatch", "list jobs", "", err)
	}
	count, err := d.store.GetUserJobsCount(ctx, q)
	if err != nil {
		return nil, 0, services.Wrap(services.ErrTransient, "dispatch", "count jobs", "", err)
	}
	return jobs, count, nil
}

// JobTasks lists the tasks linked to jobID.
func (d *Dispatcher) JobTasks(ctx context.Context, jobID string, q catalog.TaskQuery) ([]catalog.Task, error) {
	tasks, err := d.store.GetUserJobTasks(ctx, jobID, q)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "dispatch", "job tasks", jobID, err)
	}
	return tasks, nil
}

// Task fetches one task. A missing task is reported with services.ErrNotFound.
func (d *Dispatcher) Task(ctx context.Context, id string) (*catalog.Task, error) {
	task, err := d.store.GetTaskByID(ctx, id)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "dispatch", "get task", id, err)
	}
	if task == nil {
		return nil, services.Wrap(services.ErrNotFound, "dispatch", "get task", fmt.Sprintf("task %s", id), nil)
	}
	return task, nil
}

// RegionFrequency counts archived tasks per region.
func (d *Dispatcher) RegionFrequency(ctx context.Context) ([]catalog.RegionCount, error) {
	counts, err := d.store.RegionFrequency(ctx, catalog.TaskArchived)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "dispatch", "region frequency", "", err)
	}
	return counts, nil
}
