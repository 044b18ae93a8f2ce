package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sapsdispatch/internal/catalog"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect submitted jobs",
	}
	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsTasksCommand(ctx))
	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var query catalog.JobQuery
	var state string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := ctx.readDispatcher()
			if err != nil {
				return err
			}
			query.State = catalog.JobState(state)
			jobs, total, err := d.Jobs(cmd.Context(), query)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				views := make([]jobView, 0, len(jobs))
				for _, job := range jobs {
					views = append(views, newJobView(job))
				}
				return writeJSON(cmd, map[string]any{"total": total, "jobs": views})
			}
			out := cmd.OutOrStdout()
			if len(jobs) == 0 {
				fmt.Fprintln(out, "No jobs found")
				return nil
			}
			writeRows(out, jobHeaders, jobRows(jobs), []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignLeft})
			if len(jobs) < total {
				fmt.Fprintf(out, "Showing %d of %d jobs\n", len(jobs), total)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&query.Owner, "owner", "", "Only jobs owned by this user")
	cmd.Flags().StringVar(&state, "state", "", "Only jobs in this state")
	cmd.Flags().StringVar(&query.Search, "search", "", "Match job id, label or owner")
	cmd.Flags().StringVar(&query.SortBy, "sort", "created_at", "Sort by created_at, label, owner or priority")
	cmd.Flags().BoolVar(&query.Desc, "desc", false, "Sort descending")
	cmd.Flags().IntVar(&query.Page, "page", 1, "Page number")
	cmd.Flags().IntVar(&query.Size, "size", 0, "Page size (0 lists everything)")
	return cmd
}

func newJobsTasksCommand(ctx *commandContext) *cobra.Command {
	var query catalog.TaskQuery
	var state string

	cmd := &cobra.Command{
		Use:   "tasks <job-id>",
		Short: "List the tasks of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if state != "" {
				parsed, err := catalog.ParseTaskState(state)
				if err != nil {
					return err
				}
				query.State = parsed
			}
			d, err := ctx.readDispatcher()
			if err != nil {
				return err
			}
			tasks, err := d.JobTasks(cmd.Context(), args[0], query)
			if err != nil {
				return err
			}
			return printTasks(cmd, ctx, tasks)
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "Only tasks in this state")
	cmd.Flags().IntVar(&query.Page, "page", 1, "Page number")
	cmd.Flags().IntVar(&query.Size, "size", 0, "Page size (0 lists everything)")
	return cmd
}

func printTasks(cmd *cobra.Command, ctx *commandContext, tasks []catalog.Task) error {
	if ctx.jsonOutput() {
		return writeJSON(cmd, newTaskViews(tasks))
	}
	out := cmd.OutOrStdout()
	if len(tasks) == 0 {
		fmt.Fprintln(out, "No tasks found")
		return nil
	}
	writeRows(out, taskHeaders, taskRows(tasks), nil)
	return nil
}
