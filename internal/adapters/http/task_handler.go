package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/taskmaster/kanban/internal/domain/board"
	"github.com/taskmaster/kanban/internal/domain/entities"
	"github.com/taskmaster/kanban/internal/infrastructure/logger"
	"github.com/taskmaster/kanban/internal/ports"
)

// TaskListResponse is a filtered page of the caller's board.
type TaskListResponse struct {
	Tasks []entities.Task `json:"tasks"`
	Total int             `json:"total"`
}

// TaskHandler handles task-related requests
type TaskHandler struct {
	taskService ports.TaskService
	logger      *logger.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService ports.TaskService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger,
	}
}

// ListTasks handles listing the caller's tasks, newest first
// @Summary List tasks
// @Tags tasks
// @Produce json
// @Param status query string false "Column: todo, inprogress or done"
// @Param search query string false "Title or description substring"
// @Param overdue query bool false "Only overdue tasks"
// @Success 200 {object} TaskListResponse
// @Failure 400 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /tasks [get]
func (h *TaskHandler) ListTasks(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	filter := board.Filter{Search: c.QueryParam("search")}

	if s := c.QueryParam("status"); s != "" {
		status, err := entities.ParseTaskStatus(s)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid status parameter")
		}
		filter.Status = status
	}

	if s := c.QueryParam("overdue"); s != "" {
		overdue, err := strconv.ParseBool(s)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid overdue parameter")
		}
		filter.OverdueOnly = overdue
	}

	tasks, err := h.taskService.ListTasks(c.Request().Context(), userID, filter)
	if err != nil {
		h.logger.Errorw("List tasks failed", "error", err, "user_id", userID)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve tasks")
	}
	if tasks == nil {
		tasks = []entities.Task{}
	}

	return c.JSON(http.StatusOK, TaskListResponse{Tasks: tasks, Total: len(tasks)})
}

// GetStatistics handles the board counters
// @Summary Board statistics
// @Tags tasks
// @Produce json
// @Success 200 {object} board.Statistics
// @Security BearerAuth
// @Router /tasks/stats [get]
func (h *TaskHandler) GetStatistics(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	stats, err := h.taskService.Statistics(c.Request().Context(), userID)
	if err != nil {
		h.logger.Errorw("Statistics failed", "error", err, "user_id", userID)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to compute statistics")
	}

	return c.JSON(http.StatusOK, stats)
}

// CreateTask handles task creation
// @Summary Create a task
// @Tags tasks
// @Accept json
// @Produce json
// @Param request body ports.CreateTaskRequest true "Task data"
// @Success 201 {object} entities.Task
// @Failure 400 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /tasks [post]
func (h *TaskHandler) CreateTask(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req ports.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.CreateTask(c.Request().Context(), userID, req)
	if err != nil {
		h.logger.Errorw("Create task failed", "error", err, "user_id", userID)
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, task)
}

// UpdateTask handles edit-form submissions
// @Summary Update a task
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param request body ports.UpdateTaskRequest true "Changed fields"
// @Success 200 {object} entities.Task
// @Failure 400 {object} ports.ErrorResponse
// @Failure 404 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id} [patch]
func (h *TaskHandler) UpdateTask(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	taskID, err := parseTaskID(c)
	if err != nil {
		return err
	}

	var req ports.UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.UpdateTask(c.Request().Context(), userID, taskID, req)
	if err != nil {
		h.logger.Errorw("Update task failed", "error", err, "task_id", taskID)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, task)
}

// SetStatus moves a task to another column
// @Summary Set task status
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param request body ports.SetStatusRequest true "New status"
// @Success 200 {object} ports.MessageResponse
// @Failure 404 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id}/status [put]
func (h *TaskHandler) SetStatus(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	taskID, err := parseTaskID(c)
	if err != nil {
		return err
	}

	var req ports.SetStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.taskService.SetStatus(c.Request().Context(), userID, taskID, req.Status); err != nil {
		h.logger.Errorw("Set status failed", "error", err, "task_id", taskID)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Status updated"})
}

// DeleteTask handles single task deletion
// @Summary Delete a task
// @Tags tasks
// @Param id path string true "Task ID"
// @Success 204
// @Failure 404 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	taskID, err := parseTaskID(c)
	if err != nil {
		return err
	}

	if err := h.taskService.DeleteTask(c.Request().Context(), userID, taskID); err != nil {
		h.logger.Errorw("Delete task failed", "error", err, "task_id", taskID)
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// BulkDelete removes a set of tasks all-or-nothing
// @Summary Bulk delete tasks
// @Tags tasks
// @Accept json
// @Produce json
// @Param request body ports.BulkDeleteRequest true "Task IDs"
// @Success 200 {object} ports.BulkDeleteResponse
// @Failure 404 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /tasks/bulk-delete [post]
func (h *TaskHandler) BulkDelete(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req ports.BulkDeleteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	n, err := h.taskService.BulkDelete(c.Request().Context(), userID, req.IDs)
	if err != nil {
		h.logger.Errorw("Bulk delete failed", "error", err, "user_id", userID, "count", len(req.IDs))
		return httpError(err)
	}

	return c.JSON(http.StatusOK, ports.BulkDeleteResponse{Success: true, DeletedCount: n})
}

// MoveTask applies a finished drag
// @Summary Apply a drag and drop
// @Tags tasks
// @Accept json
// @Produce json
// @Param request body board.DragEvent true "Drag result"
// @Success 200 {object} ports.MoveResponse
// @Failure 400 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /tasks/move [post]
func (h *TaskHandler) MoveTask(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var ev board.DragEvent
	if err := c.Bind(&ev); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&ev); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	moved, err := board.Reconcile(c.Request().Context(), ev, func(ctx context.Context, id uuid.UUID, status entities.TaskStatus) error {
		return h.taskService.SetStatus(ctx, userID, id, status)
	})
	if err != nil {
		h.logger.Errorw("Move task failed", "error", err, "task_id", ev.TaskID)
		return httpError(err)
	}

	return c.JSON(http.StatusOK, ports.MoveResponse{Moved: moved})
}
