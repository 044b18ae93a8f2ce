package dispatch

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"sapsdispatch/internal/availability"
	"sapsdispatch/internal/calendar"
	"sapsdispatch/internal/catalog"
	"sapsdispatch/internal/dataset"
	"sapsdispatch/internal/digest"
	"sapsdispatch/internal/logging"
	"sapsdispatch/internal/wrs"
)

// Plan is everything the producer needs to enumerate one job's tasks.
type Plan struct {
	JobID   string
	Spec    JobSpec
	Regions []wrs.Region
	Digests digest.Set
}

// SinkResult summarizes one pipeline run.
type SinkResult struct {
	// Accepted holds the ids the catalog stored, sorted.
	Accepted []string
	// Dropped counts descriptors whose insert failed.
	Dropped int
	// Skipped counts day × region pairs the oracle reported unavailable.
	Skipped int
	// Checks counts availability lookups made by the producer.
	Checks int
	// Err is set when the walk stopped early: a context error or an
	// *AvailabilityCheckError.
	Err error
}

// Pipeline persists the tasks of one submission through a bounded channel
// and a fixed worker pool. Build a fresh one per submission.
type Pipeline struct {
	catalog   catalog.Catalog
	oracle    availability.Oracle
	datasets  *dataset.Selector
	workers   int
	queueSize int
	logger    *slog.Logger
}

// NewPipeline wires a pipeline. Non-positive sizes fall back to one worker
// and an unbuffered channel.
func NewPipeline(store catalog.Catalog, oracle availability.Oracle, datasets *dataset.Selector, workers, queueSize int, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		catalog:   store,
		oracle:    oracle,
		datasets:  datasets,
		workers:   max(workers, 1),
		queueSize: max(queueSize, 0),
		logger:    logging.NewComponentLogger(logger, "pipeline"),
	}
}

// Run walks plan and returns once the producer has finished and every worker
// has returned.
func (p *Pipeline) Run(ctx context.Context, plan Plan) SinkResult {
	queue := make(chan catalog.TaskDescriptor, p.queueSize)

	var (
		mu       sync.Mutex
		accepted []string
		dropped  int
		wg       sync.WaitGroup
	)
	for range p.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				var (
					task catalog.TaskDescriptor
					ok   bool
				)
				select {
				case <-ctx.Done():
					return
				case task, ok = <-queue:
					if !ok {
						return
					}
				}
				id, err := p.catalog.AddNewTask(ctx, task)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					logging.WarnWithContext(p.logger, "task insert failed; dropping task", "task_insert_failed",
						logging.TaskID(task.TaskID),
						logging.Region(string(task.Region)),
						logging.Day(task.Date),
						logging.Dataset(task.Dataset),
						logging.Error(err),
						logging.Hint("resubmit the job once the catalog is healthy"),
						logging.Impact("task missing from the job record"),
					)
					mu.Lock()
					dropped++
					mu.Unlock()
					continue
				}
				mu.Lock()
				accepted = append(accepted, id)
				mu.Unlock()
			}
		}()
	}

	stats, err := p.produce(ctx, plan, queue)
	close(queue)
	wg.Wait()

	slices.Sort(accepted)
	stats.Accepted = accepted
	stats.Dropped = dropped
	stats.Err = err
	return stats
}

func (p *Pipeline) produce(ctx context.Context, plan Plan, queue chan<- catalog.TaskDescriptor) (SinkResult, error) {
	var stats SinkResult
	for day := range calendar.Walk(plan.Spec.Init, plan.Spec.End) {
		datasets := p.datasets.Active(day.Year())
		if len(datasets) == 0 {
			continue
		}
		for _, region := range plan.Regions {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			stats.Checks++
			available, err := p.oracle.Available(ctx, region, day)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return stats, ctxErr
				}
				return stats, &AvailabilityCheckError{Region: region, Date: day, Err: err}
			}
			if !available {
				stats.Skipped++
				p.logger.Debug("no imagery; skipping pair",
					logging.Region(string(region)),
					logging.Day(day),
				)
				continue
			}
			for _, name := range datasets {
				task := catalog.TaskDescriptor{
					TaskID:           TaskID(plan.JobID, name, day, string(region)),
					JobID:            plan.JobID,
					Region:           region,
					Date:             day,
					Dataset:          name,
					Priority:         plan.Spec.Priority,
					Owner:            plan.Spec.Owner,
					InputDownloading: plan.Digests.InputDownloading,
					Preprocessing:    plan.Digests.Preprocessing,
					Processing:       plan.Digests.Processing,
				}
				select {
				case queue <- task:
				case <-ctx.Done():
					return stats, ctx.Err()
				}
			}
		}
	}
	return stats, nil
}
