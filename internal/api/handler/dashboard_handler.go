package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/opsdesk/dashboard/internal/api/middleware"
	"github.com/opsdesk/dashboard/internal/core/ports"
)

// DashboardHandler serves the auth state and the dashboard's data views.
type DashboardHandler struct {
	service ports.DashboardService
}

func NewDashboardHandler(service ports.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Me returns the settled auth state of the browser session and the access
// decision derived from it. It never rejects.
//
// @Summary      Current auth state
// @Tags         auth
// @Produce      json
// @Success      200  {object}  authStateResponse
// @Router       /api/me [get]
func (h *DashboardHandler) Me(c echo.Context) error {
	state := middleware.AuthState(c)
	return c.JSON(http.StatusOK, authStateResponse{
		User:       state.User,
		Role:       state.Role,
		IsApproved: state.IsApproved,
		IsLoading:  state.IsLoading,
		Decision:   middleware.Decision(c),
	})
}

// View returns the role-specific dashboard.
//
// @Summary      Dashboard view
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  domain.DashboardView
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /api/dashboard [get]
func (h *DashboardHandler) View(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	view, err := h.service.View(c.Request().Context(), user, middleware.Decision(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// ListTasks returns the tasks visible to the caller, newest first.
//
// @Summary      List tasks
// @Tags         tasks
// @Produce      json
// @Success      200  {object}  taskListResponse
// @Router       /api/tasks [get]
func (h *DashboardHandler) ListTasks(c echo.Context) error {
	return c.JSON(http.StatusOK, taskListResponse{Tasks: h.service.Tasks(c.Request().Context())})
}

// CreateTask creates an open task.
//
// @Summary      Create task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        body  body      createTaskRequest  true  "Task"
// @Success      201   {object}  domain.Task
// @Failure      422   {object}  errorResponse
// @Router       /api/tasks [post]
func (h *DashboardHandler) CreateTask(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req createTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.service.CreateTask(c.Request().Context(), user.ID, ports.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, task)
}

// UpdateTaskStatus moves a task to a new status.
//
// @Summary      Update task status
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id    path      int                      true  "Task id"
// @Param        body  body      updateTaskStatusRequest  true  "New status"
// @Success      200   {object}  domain.Task
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/tasks/{id}/status [patch]
func (h *DashboardHandler) UpdateTaskStatus(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid task id")
	}
	var req updateTaskStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.service.UpdateTaskStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// ListLogs returns the newest log rows.
//
// @Summary      Recent log data
// @Tags         monitoring
// @Produce      json
// @Success      200  {object}  logListResponse
// @Router       /api/logs [get]
func (h *DashboardHandler) ListLogs(c echo.Context) error {
	return c.JSON(http.StatusOK, logListResponse{Logs: h.service.Logs(c.Request().Context())})
}
