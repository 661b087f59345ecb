package http

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/todokeeper/internal/server/services"
	"github.com/labstack/echo/v4"
)

func (s *Server) handleListTodos(c echo.Context) error {
	includeAll := false
	if v := c.QueryParam("includeAll"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return badRequest(c, "includeAll must be a boolean")
		}
		includeAll = b
	}

	list, err := s.svc.Tasks.List(c.Request().Context(), accountID(c), includeAll)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, newTodoList(list, s.now()))
}

func (s *Server) handleCreateTodo(c echo.Context) error {
	var req todoRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	in := services.TaskInput{DurationMinutes: req.Time, Priority: req.Priority, ProjectID: req.ProjectID}
	if req.Title != nil {
		in.Title = *req.Title
	}

	task, err := s.svc.Tasks.Create(c.Request().Context(), accountID(c), in)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, newTodoResponse(task, s.now()))
}

func (s *Server) handleUpdateTodo(c echo.Context) error {
	var req todoRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	patch := services.TaskPatch{
		Title:           req.Title,
		DurationMinutes: req.Time,
		Priority:        req.Priority,
		ProjectID:       req.ProjectID,
	}
	task, err := s.svc.Tasks.Update(c.Request().Context(), accountID(c), c.Param("id"), patch)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, newTodoResponse(task, s.now()))
}

func (s *Server) handleDeleteTodo(c echo.Context) error {
	if err := s.svc.Tasks.Delete(c.Request().Context(), accountID(c), c.Param("id")); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "todo deleted"})
}

func (s *Server) handleSnooze(c echo.Context) error {
	var req snoozeRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	d, err := services.ParseSnoozeDuration(req.Duration)
	if err != nil {
		return s.fail(c, err)
	}

	until, err := s.svc.Snoozer.Snooze(c.Request().Context(), accountID(c), c.Param("id"), d)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, snoozeResponse{DeferredUntil: until})
}

func (s *Server) handleUnsnooze(c echo.Context) error {
	if err := s.svc.Snoozer.Unsnooze(c.Request().Context(), accountID(c), c.Param("id")); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "todo unsnoozed"})
}

func (s *Server) handleListSnoozed(c echo.Context) error {
	list, err := s.svc.Snoozer.ListDeferred(c.Request().Context(), accountID(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, newTodoList(list, s.now()))
}

func (s *Server) handleCountSnoozed(c echo.Context) error {
	n, err := s.svc.Snoozer.CountDeferred(c.Request().Context(), accountID(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, countResponse{Count: n})
}
