package catalog

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"sapsdispatch/internal/digest"
	"sapsdispatch/internal/wrs"
)

// Memory is an in-process Store. It backs dry runs and tests and follows the
// same idempotency rules as SQLiteStore.
type Memory struct {
	mu     sync.RWMutex
	tasks  map[string]*Task
	jobs   map[string]*Job
	links  map[string]map[string]struct{}
	images map[imageKey]struct{}
	now    func() time.Time
}

type imageKey struct {
	region  wrs.Region
	date    string
	dataset string
}

// NewMemory returns an empty in-memory catalog.
func NewMemory() *Memory {
	return &Memory{
		tasks:  make(map[string]*Task),
		jobs:   make(map[string]*Job),
		links:  make(map[string]map[string]struct{}),
		images: make(map[imageKey]struct{}),
		now:    time.Now,
	}
}

func (m *Memory) AddNewTask(ctx context.Context, task TaskDescriptor) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if task.TaskID == "" {
		return "", fmt.Errorf("task id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[task.TaskID]; ok {
		return task.TaskID, nil
	}
	now := m.now().UTC()
	task.Date = dayOf(task.Date)
	m.tasks[task.TaskID] = &Task{TaskDescriptor: task, State: TaskCreated, CreatedAt: now, UpdatedAt: now}
	return task.TaskID, nil
}

func (m *Memory) AddNewUserJob(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if job.ID == "" {
		return fmt.Errorf("job id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[job.ID]; ok {
		return nil
	}
	if job.State == "" {
		job.State = JobCreated
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = m.now().UTC()
	}
	job.Init = dayOf(job.Init)
	job.End = dayOf(job.End)
	job.TaskIDs = nil
	m.jobs[job.ID] = &job
	return nil
}

func (m *Memory) InsertJobTask(ctx context.Context, taskID, jobID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[jobID]; !ok {
		return fmt.Errorf("job %s: %w", jobID, ErrNotFound)
	}
	if _, ok := m.tasks[taskID]; !ok {
		return fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}
	set, ok := m.links[jobID]
	if !ok {
		set = make(map[string]struct{})
		m.links[jobID] = set
	}
	set[taskID] = struct{}{}
	return nil
}

func (m *Memory) ValidateImageAvailability(ctx context.Context, region wrs.Region, day time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	date := formatDate(day)
	m.mu.RLock()
	defer m.mu.RUnlock()
	for key := range m.images {
		if key.region == region && key.date == date {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) AddImage(ctx context.Context, image Image) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if image.Region == "" || image.Dataset == "" {
		return fmt.Errorf("image region and dataset are required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images[imageKey{region: image.Region, date: formatDate(image.Date), dataset: image.Dataset}] = struct{}{}
	return nil
}

func (m *Memory) UpdateTaskState(ctx context.Context, taskID string, state TaskState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := ParseTaskState(string(state)); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[taskID]
	if !ok {
		return fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}
	task.State = state
	task.UpdatedAt = m.now().UTC()
	return nil
}

func (m *Memory) GetTaskByID(ctx context.Context, id string) (*Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	task, ok := m.tasks[id]
	if !ok {
		return nil, nil
	}
	copied := *task
	return &copied, nil
}

func (m *Memory) GetTasks(ctx context.Context, state TaskState) ([]Task, error) {
	return m.filterTasks(ctx, func(t *Task) bool {
		return state == "" || t.State == state
	})
}

func (m *Memory) GetProcessedTasks(ctx context.Context, region wrs.Region, init, end time.Time, tags digest.PhaseTags) ([]Task, error) {
	from, to := formatDate(init), formatDate(end)
	tasks, err := m.filterTasks(ctx, func(t *Task) bool {
		date := formatDate(t.Date)
		return t.Region == region &&
			t.State == TaskArchived &&
			date >= from && date <= to &&
			t.InputDownloading.Tag == tags.InputDownloading &&
			t.Preprocessing.Tag == tags.Preprocessing &&
			t.Processing.Tag == tags.Processing
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(tasks, func(a, b Task) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		if c := strings.Compare(a.Dataset, b.Dataset); c != 0 {
			return c
		}
		return strings.Compare(a.TaskID, b.TaskID)
	})
	return tasks, nil
}

func (m *Memory) RegionFrequency(ctx context.Context, state TaskState) ([]RegionCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	counts := make(map[wrs.Region]int)
	for _, task := range m.tasks {
		if task.State == state {
			counts[task.Region]++
		}
	}
	m.mu.RUnlock()

	out := make([]RegionCount, 0, len(counts))
	for region, count := range counts {
		out = append(out, RegionCount{Region: region, Count: count})
	}
	slices.SortFunc(out, func(a, b RegionCount) int { return strings.Compare(string(a.Region), string(b.Region)) })
	return out, nil
}

func (m *Memory) GetUserJobs(ctx context.Context, q JobQuery) ([]Job, error) {
	column, err := q.sortColumn()
	if err != nil {
		return nil, err
	}
	jobs, err := m.matchJobs(ctx, q)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(jobs, func(a, b Job) int {
		c := compareJobs(column, a, b)
		if c == 0 {
			c = strings.Compare(a.ID, b.ID)
		}
		if q.Desc {
			return -c
		}
		return c
	})
	offset, limit := pageBounds(q.Page, q.Size)
	jobs = window(jobs, offset, limit)

	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range jobs {
		jobs[i].TaskIDs = m.linkedIDs(jobs[i].ID)
	}
	return jobs, nil
}

func (m *Memory) GetUserJobsCount(ctx context.Context, q JobQuery) (int, error) {
	jobs, err := m.matchJobs(ctx, q)
	if err != nil {
		return 0, err
	}
	return len(jobs), nil
}

func (m *Memory) GetUserJobTasks(ctx context.Context, jobID string, q TaskQuery) ([]Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	var tasks []Task
	for _, id := range m.linkedIDs(jobID) {
		task, ok := m.tasks[id]
		if !ok || (q.State != "" && task.State != q.State) {
			continue
		}
		tasks = append(tasks, *task)
	}
	m.mu.RUnlock()
	sortTasks(tasks)
	offset, limit := pageBounds(q.Page, q.Size)
	return window(tasks, offset, limit), nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

func (m *Memory) matchJobs(ctx context.Context, q JobQuery) ([]Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	search := strings.ToLower(strings.TrimSpace(q.Search))
	m.mu.RLock()
	defer m.mu.RUnlock()
	var jobs []Job
	for _, job := range m.jobs {
		if q.State != "" && job.State != q.State {
			continue
		}
		if q.Owner != "" && job.Owner != q.Owner {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(job.ID), search) &&
			!strings.Contains(strings.ToLower(job.Label), search) &&
			!strings.Contains(strings.ToLower(job.Owner), search) {
			continue
		}
		jobs = append(jobs, *job)
	}
	return jobs, nil
}

func (m *Memory) filterTasks(ctx context.Context, keep func(*Task) bool) ([]Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	var tasks []Task
	for _, task := range m.tasks {
		if keep(task) {
			tasks = append(tasks, *task)
		}
	}
	m.mu.RUnlock()
	sortTasks(tasks)
	return tasks, nil
}

// linkedIDs must be called with m.mu held.
func (m *Memory) linkedIDs(jobID string) []string {
	ids := make([]string, 0, len(m.links[jobID]))
	for id := range m.links[jobID] {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func compareJobs(column string, a, b Job) int {
	switch column {
	case "label":
		return strings.Compare(a.Label, b.Label)
	case "owner":
		return strings.Compare(a.Owner, b.Owner)
	case "priority":
		return a.Priority - b.Priority
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func sortTasks(tasks []Task) {
	slices.SortFunc(tasks, func(a, b Task) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		if c := strings.Compare(string(a.Region), string(b.Region)); c != 0 {
			return c
		}
		if c := strings.Compare(a.Dataset, b.Dataset); c != 0 {
			return c
		}
		return strings.Compare(a.TaskID, b.TaskID)
	})
}

func window[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit >= 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func dayOf(t time.Time) time.Time {
	y, mo, d := t.UTC().Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}
