package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"sapsdispatch/internal/catalog"
	"sapsdispatch/internal/dispatch"
)

// writeJSON prints a view for scripts. Owners and labels are printed as
// typed, so HTML escaping stays off.
func writeJSON(cmd *cobra.Command, view any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(view); err != nil {
		return fmt.Errorf("encode json output: %w", err)
	}
	return nil
}

type submitView struct {
	JobID              string   `json:"job_id"`
	RequestID          string   `json:"request_id"`
	Label              string   `json:"label"`
	Complete           bool     `json:"complete"`
	Regions            int      `json:"regions"`
	Days               int      `json:"days"`
	Accepted           int      `json:"tasks_accepted"`
	Dropped            int      `json:"tasks_dropped"`
	Skipped            int      `json:"tasks_skipped"`
	AvailabilityChecks int      `json:"availability_checks"`
	TaskIDs            []string `json:"task_ids"`
	Error              string   `json:"error,omitempty"`
}

func newSubmitView(res dispatch.Result, err error) submitView {
	view := submitView{
		JobID:              res.JobID,
		RequestID:          res.RequestID,
		Label:              res.Label,
		Complete:           res.Complete,
		Regions:            res.Regions,
		Days:               res.Days,
		Accepted:           len(res.TaskIDs),
		Dropped:            res.Dropped,
		Skipped:            res.Skipped,
		AvailabilityChecks: res.AvailabilityChecks,
		TaskIDs:            res.TaskIDs,
	}
	if view.TaskIDs == nil {
		view.TaskIDs = []string{}
	}
	if err != nil {
		view.Error = err.Error()
	}
	return view
}

func (v submitView) rows() [][]string {
	return [][]string{
		{"Job", v.JobID},
		{"Request", v.RequestID},
		{"Label", v.Label},
		{"Complete", yesNo(v.Complete)},
		{"Regions", strconv.Itoa(v.Regions)},
		{"Days", strconv.Itoa(v.Days)},
		{"Tasks", strconv.Itoa(v.Accepted)},
		{"Dropped", strconv.Itoa(v.Dropped)},
		{"Skipped", strconv.Itoa(v.Skipped)},
		{"Availability checks", strconv.Itoa(v.AvailabilityChecks)},
	}
}

type jobView struct {
	ID          string    `json:"job_id"`
	Label       string    `json:"label"`
	Owner       string    `json:"owner"`
	Priority    int       `json:"priority"`
	State       string    `json:"state"`
	Init        string    `json:"init_date"`
	End         string    `json:"end_date"`
	Coordinates [4]string `json:"coordinates"`
	TaskIDs     []string  `json:"task_ids"`
	CreatedAt   time.Time `json:"created_at"`
}

func newJobView(job catalog.Job) jobView {
	ids := job.TaskIDs
	if ids == nil {
		ids = []string{}
	}
	return jobView{
		ID:          job.ID,
		Label:       job.Label,
		Owner:       job.Owner,
		Priority:    job.Priority,
		State:       string(job.State),
		Init:        job.Init.Format(time.DateOnly),
		End:         job.End.Format(time.DateOnly),
		Coordinates: job.Coordinates,
		TaskIDs:     ids,
		CreatedAt:   job.CreatedAt,
	}
}

func jobRows(jobs []catalog.Job) [][]string {
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		rows = append(rows, []string{
			job.ID,
			job.Label,
			job.Owner,
			strconv.Itoa(job.Priority),
			job.Init.Format(time.DateOnly) + ".." + job.End.Format(time.DateOnly),
			strconv.Itoa(len(job.TaskIDs)),
			string(job.State),
		})
	}
	return rows
}

var jobHeaders = []string{"Job", "Label", "Owner", "Priority", "Range", "Tasks", "State"}

type taskView struct {
	TaskID           string    `json:"task_id"`
	JobID            string    `json:"job_id"`
	Region           string    `json:"region"`
	Date             string    `json:"date"`
	Dataset          string    `json:"dataset"`
	Priority         int       `json:"priority"`
	Owner            string    `json:"owner"`
	State            string    `json:"state"`
	InputDownloading phaseView `json:"inputdownloading"`
	Preprocessing    phaseView `json:"preprocessing"`
	Processing       phaseView `json:"processing"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type phaseView struct {
	Tag    string `json:"tag"`
	Digest string `json:"digest"`
}

func newTaskView(task catalog.Task) taskView {
	return taskView{
		TaskID:           task.TaskID,
		JobID:            task.JobID,
		Region:           string(task.Region),
		Date:             task.Date.Format(time.DateOnly),
		Dataset:          task.Dataset,
		Priority:         task.Priority,
		Owner:            task.Owner,
		State:            string(task.State),
		InputDownloading: phaseView{Tag: task.InputDownloading.Tag, Digest: task.InputDownloading.Digest},
		Preprocessing:    phaseView{Tag: task.Preprocessing.Tag, Digest: task.Preprocessing.Digest},
		Processing:       phaseView{Tag: task.Processing.Tag, Digest: task.Processing.Digest},
		UpdatedAt:        task.UpdatedAt,
	}
}

func newTaskViews(tasks []catalog.Task) []taskView {
	views := make([]taskView, 0, len(tasks))
	for _, task := range tasks {
		views = append(views, newTaskView(task))
	}
	return views
}

var taskHeaders = []string{"Task", "Region", "Date", "Dataset", "State", "Tags"}

func taskRows(tasks []catalog.Task) [][]string {
	rows := make([][]string, 0, len(tasks))
	for _, task := range tasks {
		tags := strings.Join([]string{task.InputDownloading.Tag, task.Preprocessing.Tag, task.Processing.Tag}, "/")
		rows = append(rows, []string{
			task.TaskID,
			string(task.Region),
			task.Date.Format(time.DateOnly),
			task.Dataset,
			string(task.State),
			tags,
		})
	}
	return rows
}
