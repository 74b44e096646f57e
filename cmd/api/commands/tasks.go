package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/taskmaster/kanban/internal/adapters/audit"
	"github.com/taskmaster/kanban/internal/adapters/feed"
	"github.com/taskmaster/kanban/internal/adapters/repository"
	"github.com/taskmaster/kanban/internal/application/services"
	"github.com/taskmaster/kanban/internal/domain/board"
	"github.com/taskmaster/kanban/internal/domain/entities"
	"github.com/taskmaster/kanban/internal/infrastructure/cache"
	"github.com/taskmaster/kanban/internal/infrastructure/config"
	"github.com/taskmaster/kanban/internal/infrastructure/database"
	"github.com/taskmaster/kanban/internal/infrastructure/logger"
	"github.com/taskmaster/kanban/internal/ports"
)

// taskEnv is one owner's live board, opened on the same change feed and
// audit trail the server uses so open boards see CLI writes.
type taskEnv struct {
	owner   *entities.User
	board   *services.TaskSync
	cleanup []func()
}

func (e *taskEnv) close() {
	for i := len(e.cleanup) - 1; i >= 0; i-- {
		e.cleanup[i]()
	}
}

func openTaskEnv(ctx context.Context, ownerEmail string) (*taskEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	env := &taskEnv{cleanup: []func(){func() { _ = log.Close() }}}

	db, err := database.New(cfg.Database)
	if err != nil {
		env.close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	env.cleanup = append(env.cleanup, func() { _ = db.Close() })

	rc, err := cache.Connect(ctx, cfg.Redis, log)
	if err != nil {
		env.close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	env.cleanup = append(env.cleanup, func() { _ = rc.Close() })

	var auditPublisher ports.AuditPublisher = audit.Nop{}
	if cfg.Audit.Enabled {
		rabbit, err := audit.NewRabbitPublisher(cfg.Audit.URL, cfg.Audit.Queue, log)
		if err != nil {
			env.close()
			return nil, fmt.Errorf("failed to connect audit publisher: %w", err)
		}
		auditPublisher = rabbit
		env.cleanup = append(env.cleanup, func() { _ = rabbit.Close() })
	}

	owner, err := repository.NewUserRepository(db.DB).GetByEmail(ctx, ownerEmail)
	if err != nil {
		env.close()
		return nil, fmt.Errorf("failed to find owner %s: %w", ownerEmail, err)
	}
	env.owner = owner

	taskRepo := repository.NewTaskRepository(db)
	taskFeed := feed.NewRedisFeed(rc, taskRepo, cfg.Feed.ChannelPrefix, cfg.Feed.ReconnectDelay, log)
	tasks := services.NewTaskService(taskRepo, taskFeed, auditPublisher, log)

	env.board = services.NewTaskSync(taskFeed, tasks, log)
	if _, err := env.board.Subscribe(ctx, owner.ID); err != nil {
		env.close()
		return nil, fmt.Errorf("failed to open board: %w", err)
	}
	env.cleanup = append(env.cleanup, env.board.Close)

	return env, nil
}

// withBoard opens the owner's board for the duration of fn.
func withBoard(cmd *cobra.Command, fn func(ctx context.Context, env *taskEnv) error) error {
	owner, _ := cmd.Flags().GetString("owner")
	ctx := cmd.Context()
	env, err := openTaskEnv(ctx, owner)
	if err != nil {
		return err
	}
	defer env.close()
	return fn(ctx, env)
}

// NewTaskCommand creates the task maintenance command
func NewTaskCommand() *cobra.Command {
	taskCmd := &cobra.Command{
		Use:   "task",
		Short: "Work with a user's board",
	}
	taskCmd.PersistentFlags().String("owner", "", "Owner email (required)")
	_ = taskCmd.MarkPersistentFlagRequired("owner")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _ := cmd.Flags().GetString("status")
			search, _ := cmd.Flags().GetString("search")
			overdue, _ := cmd.Flags().GetBool("overdue")

			filter := board.Filter{Search: search, OverdueOnly: overdue}
			if status != "" {
				s, err := entities.ParseTaskStatus(status)
				if err != nil {
					return err
				}
				filter.Status = s
			}
			return withBoard(cmd, func(_ context.Context, env *taskEnv) error {
				return listTasks(env, filter)
			})
		},
	}
	listCmd.Flags().String("status", "", "Only this column (todo, inprogress, done)")
	listCmd.Flags().String("search", "", "Title or description substring")
	listCmd.Flags().Bool("overdue", false, "Only overdue tasks")

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Print board statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBoard(cmd, func(_ context.Context, env *taskEnv) error {
				printStats(env.board.Statistics())
				return nil
			})
		},
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Create a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := createRequestFromFlags(cmd)
			if err != nil {
				return err
			}
			return withBoard(cmd, func(ctx context.Context, env *taskEnv) error {
				task, err := env.board.Create(ctx, req)
				if err != nil {
					return fmt.Errorf("failed to create task: %w", err)
				}
				fmt.Printf("Created task %s\n", task.ID)
				return nil
			})
		},
	}
	addCmd.Flags().String("title", "", "Task title (required)")
	addCmd.Flags().String("description", "", "Task description")
	addCmd.Flags().String("priority", "", "low, medium or high")
	addCmd.Flags().String("status", "", "Starting column")
	addCmd.Flags().String("deadline", "", "Deadline as YYYY-MM-DD")
	_ = addCmd.MarkFlagRequired("title")

	editCmd := &cobra.Command{
		Use:   "edit",
		Short: "Change the fields given as flags",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := taskIDFlag(cmd)
			if err != nil {
				return err
			}
			req, err := updateRequestFromFlags(cmd)
			if err != nil {
				return err
			}
			return withBoard(cmd, func(ctx context.Context, env *taskEnv) error {
				if err := env.board.Update(ctx, id, req); err != nil {
					return fmt.Errorf("failed to update task: %w", err)
				}
				fmt.Println("Task updated")
				return nil
			})
		},
	}
	editCmd.Flags().String("id", "", "Task ID (required)")
	editCmd.Flags().String("title", "", "New title")
	editCmd.Flags().String("description", "", "New description")
	editCmd.Flags().String("priority", "", "low, medium or high")
	editCmd.Flags().String("deadline", "", "Deadline as YYYY-MM-DD, empty to clear")
	_ = editCmd.MarkFlagRequired("id")

	moveCmd := &cobra.Command{
		Use:   "move",
		Short: "Move a task to another column",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := taskIDFlag(cmd)
			if err != nil {
				return err
			}
			to, _ := cmd.Flags().GetString("to")
			return withBoard(cmd, func(ctx context.Context, env *taskEnv) error {
				return moveTask(ctx, env, id, to)
			})
		},
	}
	moveCmd.Flags().String("id", "", "Task ID (required)")
	moveCmd.Flags().String("to", "", "Destination column (required)")
	_ = moveCmd.MarkFlagRequired("id")
	_ = moveCmd.MarkFlagRequired("to")

	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete one task",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := taskIDFlag(cmd)
			if err != nil {
				return err
			}
			return withBoard(cmd, func(ctx context.Context, env *taskEnv) error {
				if err := env.board.Delete(ctx, id); err != nil {
					return fmt.Errorf("failed to delete task: %w", err)
				}
				fmt.Println("Task deleted")
				return nil
			})
		},
	}
	deleteCmd.Flags().String("id", "", "Task ID (required)")
	_ = deleteCmd.MarkFlagRequired("id")

	bulkDeleteCmd := &cobra.Command{
		Use:   "bulk-delete",
		Short: "Delete several tasks in one transaction",
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			ids, _ := cmd.Flags().GetStringSlice("id")
			if !all && len(ids) == 0 {
				return errors.New("pass --all or at least one --id")
			}
			return withBoard(cmd, func(ctx context.Context, env *taskEnv) error {
				return bulkDelete(ctx, env, all, ids)
			})
		},
	}
	bulkDeleteCmd.Flags().Bool("all", false, "Delete every task on the board")
	bulkDeleteCmd.Flags().StringSlice("id", nil, "Task ID to delete (repeatable)")

	taskCmd.AddCommand(listCmd, statsCmd, addCmd, editCmd, moveCmd, deleteCmd, bulkDeleteCmd)
	return taskCmd
}

func taskIDFlag(cmd *cobra.Command) (uuid.UUID, error) {
	raw, _ := cmd.Flags().GetString("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid task id %q: %w", raw, err)
	}
	return id, nil
}

func createRequestFromFlags(cmd *cobra.Command) (ports.CreateTaskRequest, error) {
	req := ports.CreateTaskRequest{}
	req.Title, _ = cmd.Flags().GetString("title")
	req.Description, _ = cmd.Flags().GetString("description")

	priority, _ := cmd.Flags().GetString("priority")
	req.Priority = entities.Priority(priority)
	status, _ := cmd.Flags().GetString("status")
	req.Status = entities.TaskStatus(status)

	if raw, _ := cmd.Flags().GetString("deadline"); raw != "" {
		d, err := entities.ParseDate(raw)
		if err != nil {
			return req, err
		}
		req.Deadline = &d
	}
	return req, nil
}

// updateRequestFromFlags sets only the fields whose flags were passed.
func updateRequestFromFlags(cmd *cobra.Command) (ports.UpdateTaskRequest, error) {
	var req ports.UpdateTaskRequest
	flags := cmd.Flags()

	if flags.Changed("title") {
		v, _ := flags.GetString("title")
		req.Title = &v
	}
	if flags.Changed("description") {
		v, _ := flags.GetString("description")
		req.Description = &v
	}
	if flags.Changed("priority") {
		v, _ := flags.GetString("priority")
		p := entities.Priority(v)
		req.Priority = &p
	}
	if flags.Changed("deadline") {
		v, _ := flags.GetString("deadline")
		if v == "" {
			req.ClearDeadline = true
		} else {
			d, err := entities.ParseDate(v)
			if err != nil {
				return req, err
			}
			req.Deadline = &d
		}
	}

	if req == (ports.UpdateTaskRequest{}) {
		return req, errors.New("nothing to change")
	}
	return req, nil
}

func listTasks(env *taskEnv, filter board.Filter) error {
	var tasks []entities.Task
	if filter.Search == "" && !filter.OverdueOnly && filter.Status != "" {
		tasks = env.board.FilteredTasks(filter.Status)
	} else {
		tasks = env.board.Search(filter)
	}

	now := time.Now()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tPRIORITY\tDEADLINE\tTITLE")
	for i := range tasks {
		t := &tasks[i]
		deadline := "-"
		if t.Deadline != nil {
			deadline = t.Deadline.String()
			if t.IsOverdue(now) {
				deadline += " (overdue)"
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Status, t.Priority, deadline, t.Title)
	}
	return w.Flush()
}

func printStats(stats board.Statistics) {
	fmt.Printf("Total:       %d\n", stats.Total)
	fmt.Printf("To do:       %d\n", stats.Todo)
	fmt.Printf("In progress: %d\n", stats.InProgress)
	fmt.Printf("Done:        %d\n", stats.Done)
	fmt.Printf("Overdue:     %d\n", stats.Overdue)
}

// moveTask drops the card at the top of the destination column, the same
// drag the board UI would send.
func moveTask(ctx context.Context, env *taskEnv, id uuid.UUID, to string) error {
	src, ok := positionOf(env.board.Snapshot(), id)
	if !ok {
		return fmt.Errorf("task %s is not on the board", id)
	}

	moved, err := env.board.Move(ctx, board.DragEvent{
		TaskID:      id,
		Source:      src,
		Destination: &board.Position{ColumnID: strings.ToLower(to), Index: 0},
	})
	if err != nil {
		return fmt.Errorf("failed to move task: %w", err)
	}
	if !moved {
		fmt.Println("Task already there")
		return nil
	}
	fmt.Printf("Task moved to %s\n", to)
	return nil
}

// positionOf finds the card's column and its index within that column.
func positionOf(tasks []entities.Task, id uuid.UUID) (board.Position, bool) {
	index := map[entities.TaskStatus]int{}
	for i := range tasks {
		t := &tasks[i]
		if t.ID == id {
			return board.Position{ColumnID: string(t.Status), Index: index[t.Status]}, true
		}
		index[t.Status]++
	}
	return board.Position{}, false
}

func bulkDelete(ctx context.Context, env *taskEnv, all bool, rawIDs []string) error {
	sel := board.NewSelection()
	if err := sel.ToggleMode(); err != nil {
		return err
	}

	if all {
		snapshot := env.board.Snapshot()
		ids := make([]uuid.UUID, len(snapshot))
		for i := range snapshot {
			ids[i] = snapshot[i].ID
		}
		if err := sel.SelectAll(ids); err != nil {
			return err
		}
	} else {
		for _, raw := range rawIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				return fmt.Errorf("invalid task id %q: %w", raw, err)
			}
			if !sel.IsSelected(id) {
				if err := sel.Toggle(id); err != nil {
					return err
				}
			}
		}
	}

	n, err := env.board.DeleteSelection(ctx, sel)
	if err != nil {
		return fmt.Errorf("bulk delete rejected, nothing was deleted: %w", err)
	}

	fmt.Printf("Deleted %d task(s)\n", n)
	return nil
}
