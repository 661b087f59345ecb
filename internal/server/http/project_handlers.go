package http

import (
	"net/http"

	"github.com/dmitrijs2005/todokeeper/internal/server/services"
	"github.com/labstack/echo/v4"
)

func (s *Server) handleListProjects(c echo.Context) error {
	list, err := s.svc.Projects.List(c.Request().Context(), accountID(c))
	if err != nil {
		return s.fail(c, err)
	}

	out := make([]projectResponse, 0, len(list))
	for _, p := range list {
		out = append(out, newProjectResponse(p))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleCreateProject(c echo.Context) error {
	var req projectRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	var name string
	if req.Name != nil {
		name = *req.Name
	}
	p, err := s.svc.Projects.Create(c.Request().Context(), accountID(c), name, req.Description)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, newProjectResponse(p))
}

func (s *Server) handleUpdateProject(c echo.Context) error {
	var req projectRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	p, err := s.svc.Projects.Update(c.Request().Context(), accountID(c), c.Param("id"), req.Name, req.Description)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, newProjectResponse(p))
}

func (s *Server) handleDeleteProject(c echo.Context) error {
	if err := s.svc.Projects.Delete(c.Request().Context(), accountID(c), c.Param("id")); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "project deleted"})
}

func (s *Server) handleGetSettings(c echo.Context) error {
	p, err := s.svc.Settings.Get(c.Request().Context(), accountID(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, newSettingsResponse(p))
}

func (s *Server) handleUpdateSettings(c echo.Context) error {
	var req settingsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	p, err := s.svc.Settings.Update(c.Request().Context(), accountID(c), services.PreferencesPatch{
		DefaultDuration: req.DefaultDuration,
		DefaultPriority: req.DefaultPriority,
		DefaultSorting:  req.DefaultSorting,
		DefaultOrdering: req.DefaultOrdering,
	})
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, newSettingsResponse(p))
}
