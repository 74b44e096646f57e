package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/kanban/internal/application/services"
	"github.com/taskmaster/kanban/internal/infrastructure/logger"
	"github.com/taskmaster/kanban/internal/ports"
)

// StreamHandler serves the live board as server-sent events. Every push of
// the task feed is written as one full snapshot with its statistics.
type StreamHandler struct {
	feed      ports.TaskFeed
	tasks     ports.TaskService
	sessions  *services.SessionBroker
	keepAlive time.Duration
	logger    *logger.Logger
}

func NewStreamHandler(feed ports.TaskFeed, tasks ports.TaskService, sessions *services.SessionBroker, keepAlive time.Duration, logger *logger.Logger) *StreamHandler {
	return &StreamHandler{
		feed:      feed,
		tasks:     tasks,
		sessions:  sessions,
		keepAlive: keepAlive,
		logger:    logger.WithComponent("stream"),
	}
}

// Stream handles the live board feed
// @Summary Live board
// @Description Server-sent events; each event carries the full task list and statistics.
// @Tags tasks
// @Produce text/event-stream
// @Param token query string false "Access token when headers cannot be set"
// @Success 200 {object} ports.BoardSnapshot
// @Security BearerAuth
// @Router /tasks/stream [get]
func (h *StreamHandler) Stream(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "Streaming unsupported")
	}

	signedOut, stopWatch := h.sessions.Watch(userID)
	defer stopWatch()

	ctx := c.Request().Context()
	live := services.NewTaskSync(h.feed, h.tasks, h.logger)
	if _, err := live.Subscribe(ctx, userID); err != nil {
		h.logger.Errorw("Stream subscribe failed", "error", err, "user_id", userID)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Live feed unavailable")
	}
	defer live.Close()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)

	// The initial snapshot is already in place; drop its pending signal.
	select {
	case <-live.Changes():
	default:
	}
	if err := writeSnapshot(res, flusher, live.BoardSnapshot()); err != nil {
		return nil
	}

	keepAlive := h.keepAlive
	if keepAlive <= 0 {
		keepAlive = 25 * time.Second
	}
	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-signedOut:
			_, _ = fmt.Fprint(res, "event: signout\ndata: {}\n\n")
			flusher.Flush()
			h.logger.Infow("Stream closed on sign out", "user_id", userID)
			return nil
		case <-live.Changes():
			if err := writeSnapshot(res, flusher, live.BoardSnapshot()); err != nil {
				return nil
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(res, ": keep-alive\n\n"); err != nil {
				return nil
			}
			flusher.Flush()
		}
	}
}

func writeSnapshot(w http.ResponseWriter, flusher http.Flusher, snap ports.BoardSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
