package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"sapsdispatch/internal/catalog"
)

func newTasksCommand(ctx *commandContext) *cobra.Command {
	tasksCmd := &cobra.Command{
		Use:   "tasks",
		Short: "Inspect and update tasks",
	}
	tasksCmd.AddCommand(newTasksListCommand(ctx))
	tasksCmd.AddCommand(newTasksShowCommand(ctx))
	tasksCmd.AddCommand(newTasksSetStateCommand(ctx))
	return tasksCmd
}

func newTasksListCommand(ctx *commandContext) *cobra.Command {
	var state string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks, optionally by state",
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter catalog.TaskState
			if state != "" {
				parsed, err := catalog.ParseTaskState(state)
				if err != nil {
					return err
				}
				filter = parsed
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			tasks, err := store.GetTasks(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return printTasks(cmd, ctx, tasks)
		},
	}
	cmd.Flags().StringVar(&state, "state", "", "Only tasks in this state")
	return cmd
}

func newTasksShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := ctx.readDispatcher()
			if err != nil {
				return err
			}
			task, err := d.Task(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, newTaskView(*task))
			}
			rows := [][]string{
				{"Task", task.TaskID},
				{"Job", task.JobID},
				{"Region", string(task.Region)},
				{"Date", task.Date.Format(time.DateOnly)},
				{"Dataset", task.Dataset},
				{"Priority", strconv.Itoa(task.Priority)},
				{"Owner", task.Owner},
				{"State", string(task.State)},
				{"Input downloading", task.InputDownloading.Tag + " " + task.InputDownloading.Digest},
				{"Preprocessing", task.Preprocessing.Tag + " " + task.Preprocessing.Digest},
				{"Processing", task.Processing.Tag + " " + task.Processing.Digest},
			}
			writeRows(cmd.OutOrStdout(), []string{"Field", "Value"}, rows, nil)
			return nil
		},
	}
}

func newTasksSetStateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set-state <task-id> <state>",
		Short: "Move a task to another state",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := catalog.ParseTaskState(args[1])
			if err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			if err := store.UpdateTaskState(cmd.Context(), args[0], state); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %s is now %s\n", args[0], state)
			return nil
		},
	}
}
