package http

import (
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/services"
)

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type registerRequest struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	CaptchaToken string `json:"captchaToken"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	UserID    string    `json:"userId"`
}

func newAuthResponse(s *services.Session) authResponse {
	return authResponse{Token: s.Token, ExpiresAt: s.ExpiresAt, UserID: s.AccountID}
}

type profileResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type resetConsumeRequest struct {
	ResetToken string `json:"resetToken"`
	Password   string `json:"password"`
}

type todoRequest struct {
	Title     *string `json:"title"`
	Time      *int    `json:"time"`
	Priority  *string `json:"priority"`
	ProjectID *string `json:"projectId"`
}

type todoResponse struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Time          int        `json:"time"`
	Priority      string     `json:"priority"`
	ProjectID     *string    `json:"projectId"`
	CreatedAt     time.Time  `json:"createdAt"`
	DeferredUntil *time.Time `json:"deferredUntil"`
	// Deferred is true while DeferredUntil lies in the future.
	Deferred bool `json:"deferred"`
}

func newTodoResponse(t *models.Task, now time.Time) todoResponse {
	return todoResponse{
		ID:            t.ID,
		Title:         t.Title,
		Time:          t.DurationMinutes,
		Priority:      string(t.Priority),
		ProjectID:     t.ProjectID,
		CreatedAt:     t.CreatedAt,
		DeferredUntil: t.DeferredUntil,
		Deferred:      t.Deferred(now),
	}
}

func newTodoList(list []*models.Task, now time.Time) []todoResponse {
	out := make([]todoResponse, 0, len(list))
	for _, t := range list {
		out = append(out, newTodoResponse(t, now))
	}
	return out
}

type snoozeRequest struct {
	Duration string `json:"duration"`
}

type snoozeResponse struct {
	DeferredUntil time.Time `json:"deferredUntil"`
}

type countResponse struct {
	Count int `json:"count"`
}

type projectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type projectResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

func newProjectResponse(p *models.Project) projectResponse {
	return projectResponse{ID: p.ID, Name: p.Name, Description: p.Description}
}

type settingsRequest struct {
	DefaultDuration *int    `json:"defaultDuration"`
	DefaultPriority *string `json:"defaultPriority"`
	DefaultSorting  *string `json:"defaultSorting"`
	DefaultOrdering *string `json:"defaultOrdering"`
}

type settingsResponse struct {
	DefaultDuration int    `json:"defaultDuration"`
	DefaultPriority string `json:"defaultPriority"`
	DefaultSorting  string `json:"defaultSorting"`
	DefaultOrdering string `json:"defaultOrdering"`
}

func newSettingsResponse(p *models.Preferences) settingsResponse {
	return settingsResponse{
		DefaultDuration: p.DefaultDuration,
		DefaultPriority: string(p.DefaultPriority),
		DefaultSorting:  string(p.DefaultSorting),
		DefaultOrdering: string(p.DefaultOrdering),
	}
}
