package catalog

import (
	"fmt"
	"time"

	"sapsdispatch/internal/digest"
	"sapsdispatch/internal/wrs"
)

// TaskState represents the lifecycle of a task.
type TaskState string

const (
	TaskCreated       TaskState = "created"
	TaskDownloading   TaskState = "downloading"
	TaskDownloaded    TaskState = "downloaded"
	TaskPreprocessing TaskState = "preprocessing"
	TaskPreprocessed  TaskState = "preprocessed"
	TaskRunning       TaskState = "running"
	TaskFinished      TaskState = "finished"
	TaskArchived      TaskState = "archived"
	TaskFailed        TaskState = "failed"
)

var allTaskStates = []TaskState{
	TaskCreated,
	TaskDownloading,
	TaskDownloaded,
	TaskPreprocessing,
	TaskPreprocessed,
	TaskRunning,
	TaskFinished,
	TaskArchived,
	TaskFailed,
}

// TaskStates returns every task state in lifecycle order.
func TaskStates() []TaskState {
	return append([]TaskState(nil), allTaskStates...)
}

// ParseTaskState validates a state name.
func ParseTaskState(value string) (TaskState, error) {
	for _, state := range allTaskStates {
		if string(state) == value {
			return state, nil
		}
	}
	return "", fmt.Errorf("unknown task state %q", value)
}

// JobState represents the lifecycle of a job record.
type JobState string

// JobCreated is the state every job is written with.
const JobCreated JobState = "created"

// TaskDescriptor is everything the dispatcher knows about a task when it is
// handed to the catalog.
type TaskDescriptor struct {
	TaskID           string
	JobID            string
	Region           wrs.Region
	Date             time.Time
	Dataset          string
	Priority         int
	Owner            string
	InputDownloading digest.Resolved
	Preprocessing    digest.Resolved
	Processing       digest.Resolved
}

// Task is a persisted descriptor with its processing state.
type Task struct {
	TaskDescriptor
	State     TaskState
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Job is one user submission. Coordinates keep the caller's original strings
// in lower-left latitude, lower-left longitude, upper-right latitude,
// upper-right longitude order.
type Job struct {
	ID          string
	Coordinates [4]string
	Init        time.Time
	End         time.Time
	Priority    int
	Label       string
	Owner       string
	TaskIDs     []string
	State       JobState
	CreatedAt   time.Time
}

// JobQuery filters and pages job listings.
type JobQuery struct {
	State JobState
	Owner string
	// Search matches job id, label, or owner case-insensitively.
	Search string
	// SortBy is one of created_at, label, owner, priority.
	SortBy string
	Desc   bool
	// Page is 1-based; Size 0 returns every match.
	Page int
	Size int
}

// TaskQuery filters and pages a job's tasks.
type TaskQuery struct {
	State TaskState
	Page  int
	Size  int
}

// Image records that source imagery exists for a region on a day.
type Image struct {
	Region  wrs.Region
	Date    time.Time
	Dataset string
}

// RegionCount is one row of a region frequency report.
type RegionCount struct {
	Region wrs.Region
	Count  int
}

func (q JobQuery) sortColumn() (string, error) {
	switch q.SortBy {
	case "", "created_at":
		return "created_at", nil
	case "label", "owner", "priority":
		return q.SortBy, nil
	default:
		return "", fmt.Errorf("unsupported job sort field %q", q.SortBy)
	}
}

func pageBounds(page, size int) (offset, limit int) {
	if size <= 0 {
		return 0, -1
	}
	if page < 1 {
		page = 1
	}
	return (page - 1) * size, size
}
