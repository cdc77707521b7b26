package handler

import (
	"github.com/opsdesk/dashboard/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request / Response types ---

type credentialsRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type signInResponse struct {
	User         *domain.UserIdentity `json:"user,omitempty"`
	ExpiresAt    int64                `json:"expires_at,omitempty"`
	Confirmation bool                 `json:"confirmation_required"`
	Message      string               `json:"message,omitempty"`
}

type authStateResponse struct {
	User       *domain.UserIdentity  `json:"user"`
	Role       *string               `json:"role"`
	IsApproved *bool                 `json:"is_approved"`
	IsLoading  bool                  `json:"is_loading"`
	Decision   domain.AccessDecision `json:"decision"`
}

type createTaskRequest struct {
	Title       string `json:"title"       validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	AssignedTo  string `json:"assigned_to" validate:"omitempty,uuid"`
	Priority    string `json:"priority"    validate:"omitempty,oneof=low medium high"`
}

type updateTaskStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open in_progress completed"`
}

type taskListResponse struct {
	Tasks []domain.Task `json:"tasks"`
}

type logListResponse struct {
	Logs []domain.LogEntry `json:"logs"`
}

type decisionRequest struct {
	Approve bool   `json:"approve"`
	Role    string `json:"role" validate:"required,oneof=user admin"`
}

type candidatesResponse struct {
	Candidates domain.Candidates `json:"candidates"`
	Error      string            `json:"error,omitempty"`
}

type pendingCountResponse struct {
	Pending int    `json:"pending"`
	Source  string `json:"source"`
}
