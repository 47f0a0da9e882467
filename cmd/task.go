package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"task-board.com/task-board/internal/constants"
	"task-board.com/task-board/internal/format"
	"task-board.com/task-board/internal/services"
	model "task-board.com/task-board/pkg/models"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks on the local board",
}

var taskAddCmd = &cobra.Command{
	Use:   "add [text]",
	Short: "Add a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskAdd,
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE:  runTaskList,
}

var taskShowCmd = &cobra.Command{
	Use:   "show [task-id]",
	Short: "Show task details",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskShow,
}

var taskMoveCmd = &cobra.Command{
	Use:   "move [task-id] [todo|inprogress|done]",
	Short: "Move a task to another column",
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskMove,
}

var taskEditCmd = &cobra.Command{
	Use:   "edit [task-id]",
	Short: "Edit task fields",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskEdit,
}

var taskRemoveCmd = &cobra.Command{
	Use:     "rm [task-id]",
	Aliases: []string{"delete"},
	Short:   "Delete a task",
	Args:    cobra.ExactArgs(1),
	RunE:    runTaskRemove,
}

var taskStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show board totals",
	RunE:  runTaskStats,
}

var (
	taskDesc     string
	taskColumn   string
	listColumn   string
	taskPriority string
	taskDue      string
	taskText     string
	clearDue     bool
)

func init() {
	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskShowCmd, taskMoveCmd, taskEditCmd, taskRemoveCmd, taskStatsCmd)

	taskAddCmd.Flags().StringVar(&taskDesc, "desc", "", "Task description")
	taskAddCmd.Flags().StringVar(&taskColumn, "column", "todo", "Column (todo, inprogress, done)")
	taskAddCmd.Flags().StringVar(&taskPriority, "priority", "medium", "Priority (high, medium, low)")
	taskAddCmd.Flags().StringVar(&taskDue, "due", "", "Due date (RFC 3339)")

	taskListCmd.Flags().StringVar(&listColumn, "column", "", "Only list one column")

	taskEditCmd.Flags().StringVar(&taskText, "text", "", "New text")
	taskEditCmd.Flags().StringVar(&taskDesc, "desc", "", "New description")
	taskEditCmd.Flags().StringVar(&taskPriority, "priority", "", "New priority")
	taskEditCmd.Flags().StringVar(&taskDue, "due", "", "New due date (RFC 3339)")
	taskEditCmd.Flags().BoolVar(&clearDue, "clear-due", false, "Remove the due date")

	rootCmd.AddCommand(taskCmd)
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	board, err := openBoard(cmd, loadConfig(), false)
	if err != nil {
		return err
	}

	due, err := parseDue(taskDue)
	if err != nil {
		return err
	}

	task, err := board.AddTask(cmd.Context(), services.NewTask{
		Text:        args[0],
		Description: taskDesc,
		Column:      constants.Column(taskColumn),
		Priority:    constants.Priority(taskPriority),
		DueDate:     due,
	})
	if task == nil {
		return err
	}
	warn(err)

	fmt.Printf("Created task: %s\n", task.ID)
	return nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	board, err := openBoard(cmd, loadConfig(), true)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCOLUMN\tPRIORITY\tTIME\tTEXT")
	for _, task := range board.List() {
		if listColumn != "" && string(task.Column) != listColumn {
			continue
		}
		elapsed, _ := board.Elapsed(task.ID)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", task.ID, task.Column, task.Priority, format.Elapsed(elapsed), task.Text)
	}
	return w.Flush()
}

func runTaskShow(cmd *cobra.Command, args []string) error {
	board, err := openBoard(cmd, loadConfig(), true)
	if err != nil {
		return err
	}

	task := board.Get(args[0])
	if task == nil {
		return fmt.Errorf("task %s not found", args[0])
	}
	elapsed, _ := board.Elapsed(task.ID)
	printTask(task, elapsed, time.Now())
	return nil
}

func runTaskMove(cmd *cobra.Command, args []string) error {
	board, err := openBoard(cmd, loadConfig(), false)
	if err != nil {
		return err
	}

	task, err := board.RequestColumnChange(cmd.Context(), args[0], constants.Column(args[1]))
	if task == nil {
		if err == nil {
			return fmt.Errorf("task %s not found", args[0])
		}
		return err
	}
	warn(err)

	fmt.Printf("Moved %s to %s (%s tracked)\n", task.ID, task.Column.Title(), format.Human(task.Accumulated()))
	return nil
}

func runTaskEdit(cmd *cobra.Command, args []string) error {
	board, err := openBoard(cmd, loadConfig(), false)
	if err != nil {
		return err
	}

	var req services.EditRequest
	flags := cmd.Flags()
	if flags.Changed("text") {
		req.Text = &taskText
	}
	if flags.Changed("desc") {
		req.Description = &taskDesc
	}
	if flags.Changed("priority") {
		p := constants.Priority(taskPriority)
		req.Priority = &p
	}
	if flags.Changed("due") {
		due, err := parseDue(taskDue)
		if err != nil {
			return err
		}
		req.DueDate = due
	}
	req.ClearDueDate = clearDue

	task, err := board.RequestEdit(cmd.Context(), args[0], req)
	if task == nil {
		if err == nil {
			return fmt.Errorf("task %s not found", args[0])
		}
		return err
	}
	warn(err)

	fmt.Printf("Updated task: %s\n", task.ID)
	return nil
}

func runTaskRemove(cmd *cobra.Command, args []string) error {
	board, err := openBoard(cmd, loadConfig(), false)
	if err != nil {
		return err
	}

	found, err := board.RequestDelete(cmd.Context(), args[0])
	if !found {
		return fmt.Errorf("task %s not found", args[0])
	}
	warn(err)

	fmt.Printf("Deleted task: %s\n", args[0])
	return nil
}

func runTaskStats(cmd *cobra.Command, args []string) error {
	board, err := openBoard(cmd, loadConfig(), true)
	if err != nil {
		return err
	}

	stats := board.Stats()
	fmt.Printf("Tasks:       %d\n", stats.Total)
	fmt.Printf("To Do:       %d\n", stats.Todo)
	fmt.Printf("In Progress: %d\n", stats.InProgress)
	fmt.Printf("Done:        %d\n", stats.Done)
	fmt.Printf("Tracked:     %s\n", stats.TimeSpentHuman)
	return nil
}

func printTask(task *model.Task, elapsed time.Duration, now time.Time) {
	fmt.Printf("ID:          %s\n", task.ID)
	fmt.Printf("Text:        %s\n", task.Text)
	if task.Description != "" {
		fmt.Printf("Description: %s\n", task.Description)
	}
	fmt.Printf("Column:      %s\n", task.Column.Title())
	fmt.Printf("Priority:    %s\n", task.Priority)
	fmt.Printf("Created:     %s (%s)\n", format.Timestamp(task.CreatedAt.Local()), format.Relative(task.CreatedAt, now))
	if task.DueDate != nil {
		fmt.Printf("Due:         %s\n", format.DueDate(*task.DueDate, now).Text)
	}
	if task.StartedAt != nil {
		fmt.Printf("Started:     %s\n", format.Timestamp(task.StartedAt.Local()))
	}
	if task.CompletedAt != nil {
		fmt.Printf("Completed:   %s\n", format.Timestamp(task.CompletedAt.Local()))
	}
	if task.IsInProgress() {
		fmt.Printf("Timer:       %s\n", format.Elapsed(elapsed))
	} else {
		fmt.Printf("Time spent:  %s\n", format.Human(elapsed))
	}
}

func parseDue(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	due, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("invalid due date %q: use RFC 3339, e.g. 2026-01-02T15:04:05Z", value)
	}
	return &due, nil
}

func warn(err error) {
	if err == nil {
		return
	}
	if errors.Is(err, services.ErrPersistFailed) {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
}
