package catalog

import (
	"context"
	"time"

	"sapsdispatch/internal/digest"
	"sapsdispatch/internal/wrs"
)

// Catalog is the storage port written by the submission core. Implementations
// must be safe for concurrent callers.
type Catalog interface {
	// AddNewTask persists a task in the created state and returns its id.
	// Re-adding an existing id leaves the stored task untouched.
	AddNewTask(ctx context.Context, task TaskDescriptor) (string, error)
	// AddNewUserJob persists the job header. Re-adding an existing id is a no-op.
	AddNewUserJob(ctx context.Context, job Job) error
	// InsertJobTask links a persisted task to a persisted job.
	InsertJobTask(ctx context.Context, taskID, jobID string) error
	// ValidateImageAvailability reports whether imagery is known for region on day.
	ValidateImageAvailability(ctx context.Context, region wrs.Region, day time.Time) (bool, error)
}

// Reader serves the reporting queries.
type Reader interface {
	// GetTaskByID returns nil without error when the task does not exist.
	GetTaskByID(ctx context.Context, id string) (*Task, error)
	GetTasks(ctx context.Context, state TaskState) ([]Task, error)
	GetUserJobs(ctx context.Context, q JobQuery) ([]Job, error)
	GetUserJobsCount(ctx context.Context, q JobQuery) (int, error)
	GetUserJobTasks(ctx context.Context, jobID string, q TaskQuery) ([]Task, error)
	// GetProcessedTasks returns archived tasks in region dated within
	// [init, end] that ran exactly the given phase tags.
	GetProcessedTasks(ctx context.Context, region wrs.Region, init, end time.Time, tags digest.PhaseTags) ([]Task, error)
	// RegionFrequency counts tasks in state per region.
	RegionFrequency(ctx context.Context, state TaskState) ([]RegionCount, error)
}

// Store is a full catalog implementation.
type Store interface {
	Catalog
	Reader
	AddImage(ctx context.Context, image Image) error
	UpdateTaskState(ctx context.Context, taskID string, state TaskState) error
	Close() error
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*Memory)(nil)
)

const dateLayout = "2006-01-02"

func formatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}
