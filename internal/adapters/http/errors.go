package http

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/taskmaster/kanban/internal/domain/board"
	"github.com/taskmaster/kanban/internal/domain/entities"
)

// httpError maps domain errors onto status codes. Messages of internal
// failures are not exposed.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, entities.ErrInvalidCredentials),
		errors.Is(err, entities.ErrInvalidToken),
		errors.Is(err, entities.ErrNotSignedIn):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error()).SetInternal(err)
	case errors.Is(err, entities.ErrEmailTaken):
		return echo.NewHTTPError(http.StatusConflict, "Email already registered").SetInternal(err)
	case errors.Is(err, entities.ErrPasswordMismatch),
		errors.Is(err, entities.ErrPasswordTooShort),
		errors.Is(err, entities.ErrEmptyTitle),
		errors.Is(err, entities.ErrInvalidStatus),
		errors.Is(err, entities.ErrInvalidPriority):
		return echo.NewHTTPError(http.StatusBadRequest, rootMessage(err)).SetInternal(err)
	case errors.Is(err, entities.ErrTaskNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Task not found").SetInternal(err)
	case errors.Is(err, board.ErrDeleteInProgress):
		return echo.NewHTTPError(http.StatusConflict, err.Error()).SetInternal(err)
	case entities.IsWriteError(err):
		return echo.NewHTTPError(http.StatusInternalServerError, "Write failed").SetInternal(err)
	case entities.IsAuthError(err):
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication failed").SetInternal(err)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)).SetInternal(err)
}

// rootMessage strips the operation prefixes added by AuthError and WriteError.
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

// getUserIDFromContext returns the authenticated user set by the auth
// middleware, or uuid.Nil.
func getUserIDFromContext(c echo.Context) uuid.UUID {
	switch v := c.Get("user").(type) {
	case uuid.UUID:
		return v
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return uuid.Nil
		}
		return id
	}
	return uuid.Nil
}

func requireUser(c echo.Context) (uuid.UUID, error) {
	id := getUserIDFromContext(c)
	if id == uuid.Nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "Not signed in")
	}
	return id, nil
}

func parseTaskID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid task ID")
	}
	return id, nil
}
