package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sapsdispatch/internal/digest"
	"sapsdispatch/internal/wrs"
)

// AddNewTask inserts a task in the created state. An existing task with the
// same id is left untouched.
func (s *SQLiteStore) AddNewTask(ctx context.Context, task TaskDescriptor) (string, error) {
	if task.TaskID == "" {
		return "", errors.New("task id is required")
	}
	now := timestamp(time.Now())
	_, err := s.execWithRetry(ctx,
		`INSERT INTO tasks (`+taskColumns+`)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(task_id) DO NOTHING`,
		task.TaskID,
		task.JobID,
		string(task.Region),
		formatDate(task.Date),
		task.Dataset,
		task.Priority,
		task.Owner,
		task.InputDownloading.Tag,
		task.InputDownloading.Digest,
		task.Preprocessing.Tag,
		task.Preprocessing.Digest,
		task.Processing.Tag,
		task.Processing.Digest,
		string(TaskCreated),
		now,
		now,
	)
	if err != nil {
		return "", fmt.Errorf("insert task %s: %w", task.TaskID, err)
	}
	return task.TaskID, nil
}

// UpdateTaskState moves a task to state.
func (s *SQLiteStore) UpdateTaskState(ctx context.Context, taskID string, state TaskState) error {
	if _, err := ParseTaskState(string(state)); err != nil {
		return err
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE tasks SET state = ?, updated_at = ? WHERE task_id = ?`,
		string(state), timestamp(time.Now()), taskID,
	)
	if err != nil {
		return fmt.Errorf("update task state: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}
	return nil
}

// GetTaskByID fetches a task by identifier.
func (s *SQLiteStore) GetTaskByID(ctx context.Context, id string) (*Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE task_id = ?`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// GetTasks lists tasks in state, or every task when state is empty.
func (s *SQLiteStore) GetTasks(ctx context.Context, state TaskState) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	var args []any
	if state != "" {
		query += ` WHERE state = ?`
		args = append(args, string(state))
	}
	query += ` ORDER BY image_date, region, dataset, task_id`
	return s.queryTasks(ctx, query, args...)
}

// GetProcessedTasks returns archived tasks for region within [init, end]
// that ran the given phase tags.
func (s *SQLiteStore) GetProcessedTasks(ctx context.Context, region wrs.Region, init, end time.Time, tags digest.PhaseTags) ([]Task, error) {
	return s.queryTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks
        WHERE region = ? AND image_date BETWEEN ? AND ? AND state = ?
          AND inputdownloading_tag = ? AND preprocessing_tag = ? AND processing_tag = ?
        ORDER BY image_date, dataset, task_id`,
		string(region), formatDate(init), formatDate(end), string(TaskArchived),
		tags.InputDownloading, tags.Preprocessing, tags.Processing,
	)
}

// RegionFrequency counts tasks in state per region, ordered by region.
func (s *SQLiteStore) RegionFrequency(ctx context.Context, state TaskState) ([]RegionCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT region, COUNT(1) FROM tasks WHERE state = ? GROUP BY region ORDER BY region`,
		string(state),
	)
	if err != nil {
		return nil, fmt.Errorf("region frequency: %w", err)
	}
	defer rows.Close()

	var counts []RegionCount
	for rows.Next() {
		var (
			region string
			count  int
		)
		if err := rows.Scan(&region, &count); err != nil {
			return nil, fmt.Errorf("scan region frequency: %w", err)
		}
		counts = append(counts, RegionCount{Region: wrs.Region(region), Count: count})
	}
	return counts, rows.Err()
}

// AddImage records that imagery exists. Re-adding is a no-op.
func (s *SQLiteStore) AddImage(ctx context.Context, image Image) error {
	if image.Region == "" || image.Dataset == "" {
		return errors.New("image region and dataset are required")
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO images (region, image_date, dataset, created_at) VALUES (?, ?, ?, ?)
        ON CONFLICT(region, image_date, dataset) DO NOTHING`,
		string(image.Region), formatDate(image.Date), image.Dataset, timestamp(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("insert image: %w", err)
	}
	return nil
}

// ValidateImageAvailability reports whether any dataset has imagery for region on day.
func (s *SQLiteStore) ValidateImageAvailability(ctx context.Context, region wrs.Region, day time.Time) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM images WHERE region = ? AND image_date = ?`,
		string(region), formatDate(day),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check image availability: %w", err)
	}
	return count > 0, nil
}

func (s *SQLiteStore) queryTasks(ctx context.Context, query string, args ...any) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}
