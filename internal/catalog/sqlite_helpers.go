package catalog

import (
	"database/sql"
	"errors"
	"time"

	"sapsdispatch/internal/wrs"
)

const taskColumns = "task_id, job_id, region, image_date, dataset, priority, owner, inputdownloading_tag, inputdownloading_digest, preprocessing_tag, preprocessing_digest, processing_tag, processing_digest, state, created_at, updated_at"

const jobColumns = "job_id, lower_left_lat, lower_left_lon, upper_right_lat, upper_right_lon, init_date, end_date, priority, label, owner, state, created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(scanner rowScanner) (*Task, error) {
	var (
		task       Task
		region     string
		dateRaw    string
		stateRaw   string
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)
	if err := scanner.Scan(
		&task.TaskID,
		&task.JobID,
		&region,
		&dateRaw,
		&task.Dataset,
		&task.Priority,
		&task.Owner,
		&task.InputDownloading.Tag,
		&task.InputDownloading.Digest,
		&task.Preprocessing.Tag,
		&task.Preprocessing.Digest,
		&task.Processing.Tag,
		&task.Processing.Digest,
		&stateRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	task.Region = wrs.Region(region)
	task.State = TaskState(stateRaw)
	if date, err := time.Parse(dateLayout, dateRaw); err == nil {
		task.Date = date
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		task.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		task.UpdatedAt = updated
	}
	return &task, nil
}

func scanJob(scanner rowScanner) (*Job, error) {
	var (
		job        Job
		initRaw    string
		endRaw     string
		stateRaw   string
		createdRaw sql.NullString
	)
	if err := scanner.Scan(
		&job.ID,
		&job.Coordinates[0],
		&job.Coordinates[1],
		&job.Coordinates[2],
		&job.Coordinates[3],
		&initRaw,
		&endRaw,
		&job.Priority,
		&job.Label,
		&job.Owner,
		&stateRaw,
		&createdRaw,
	); err != nil {
		return nil, err
	}
	job.State = JobState(stateRaw)
	if init, err := time.Parse(dateLayout, initRaw); err == nil {
		job.Init = init
	}
	if end, err := time.Parse(dateLayout, endRaw); err == nil {
		job.End = end
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		job.CreatedAt = created
	}
	return &job, nil
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
