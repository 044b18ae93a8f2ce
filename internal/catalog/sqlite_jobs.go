package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// AddNewUserJob inserts the job header. An existing job with the same id is
// left untouched. Task links are written separately with InsertJobTask.
func (s *SQLiteStore) AddNewUserJob(ctx context.Context, job Job) error {
	if job.ID == "" {
		return errors.New("job id is required")
	}
	state := job.State
	if state == "" {
		state = JobCreated
	}
	created := job.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO jobs (`+jobColumns+`)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(job_id) DO NOTHING`,
		job.ID,
		job.Coordinates[0],
		job.Coordinates[1],
		job.Coordinates[2],
		job.Coordinates[3],
		formatDate(job.Init),
		formatDate(job.End),
		job.Priority,
		job.Label,
		job.Owner,
		string(state),
		timestamp(created),
	)
	if err != nil {
		return fmt.Errorf("insert job %s: %w", job.ID, err)
	}
	return nil
}

// InsertJobTask links a task to a job. Repeated links are ignored.
func (s *SQLiteStore) InsertJobTask(ctx context.Context, taskID, jobID string) error {
	_, err := s.execWithRetry(ctx,
		`INSERT INTO job_tasks (job_id, task_id) VALUES (?, ?) ON CONFLICT(job_id, task_id) DO NOTHING`,
		jobID, taskID,
	)
	if err != nil {
		return fmt.Errorf("link task %s to job %s: %w", taskID, jobID, err)
	}
	return nil
}

// GetUserJobs lists jobs matching q with their task ids.
func (s *SQLiteStore) GetUserJobs(ctx context.Context, q JobQuery) ([]Job, error) {
	column, err := q.sortColumn()
	if err != nil {
		return nil, err
	}
	where, args := jobFilter(q)
	direction := "ASC"
	if q.Desc {
		direction = "DESC"
	}
	offset, limit := pageBounds(q.Page, q.Size)
	query := `SELECT ` + jobColumns + ` FROM jobs` + where +
		` ORDER BY ` + column + ` ` + direction + `, job_id ` + direction +
		` LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	var jobs []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if err := s.attachTaskIDs(ctx, jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// GetUserJobsCount counts jobs matching q, ignoring paging.
func (s *SQLiteStore) GetUserJobsCount(ctx context.Context, q JobQuery) (int, error) {
	where, args := jobFilter(q)
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM jobs`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count jobs: %w", err)
	}
	return count, nil
}

// GetUserJobTasks lists the tasks linked to jobID.
func (s *SQLiteStore) GetUserJobTasks(ctx context.Context, jobID string, q TaskQuery) ([]Task, error) {
	query := `SELECT ` + prefixed("t.", taskColumns) + ` FROM job_tasks jt
        JOIN tasks t ON t.task_id = jt.task_id
        WHERE jt.job_id = ?`
	args := []any{jobID}
	if q.State != "" {
		query += ` AND t.state = ?`
		args = append(args, string(q.State))
	}
	offset, limit := pageBounds(q.Page, q.Size)
	query += ` ORDER BY t.image_date, t.region, t.dataset, t.task_id LIMIT ? OFFSET ?`
	args = append(args, limit, offset)
	return s.queryTasks(ctx, query, args...)
}

func (s *SQLiteStore) attachTaskIDs(ctx context.Context, jobs []Job) error {
	if len(jobs) == 0 {
		return nil
	}
	index := make(map[string]int, len(jobs))
	args := make([]any, len(jobs))
	for i := range jobs {
		index[jobs[i].ID] = i
		args[i] = jobs[i].ID
		jobs[i].TaskIDs = []string{}
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT job_id, task_id FROM job_tasks WHERE job_id IN (`+makePlaceholders(len(jobs))+`) ORDER BY job_id, task_id`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("query job tasks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var jobID, taskID string
		if err := rows.Scan(&jobID, &taskID); err != nil {
			return fmt.Errorf("scan job task: %w", err)
		}
		if i, ok := index[jobID]; ok {
			jobs[i].TaskIDs = append(jobs[i].TaskIDs, taskID)
		}
	}
	return rows.Err()
}

func jobFilter(q JobQuery) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if q.State != "" {
		clauses = append(clauses, "state = ?")
		args = append(args, string(q.State))
	}
	if q.Owner != "" {
		clauses = append(clauses, "owner = ?")
		args = append(args, q.Owner)
	}
	if search := strings.ToLower(strings.TrimSpace(q.Search)); search != "" {
		like := "%" + search + "%"
		clauses = append(clauses, "(lower(job_id) LIKE ? OR lower(label) LIKE ? OR lower(owner) LIKE ?)")
		args = append(args, like, like, like)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func prefixed(prefix, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, part := range parts {
		parts[i] = prefix + part
	}
	return strings.Join(parts, ", ")
}
