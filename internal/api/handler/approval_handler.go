package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/opsdesk/dashboard/internal/core/ports"
)

// ApprovalHandler serves the admin approval page.
type ApprovalHandler struct {
	service ports.ApprovalService
	badge   ports.PendingBadge
	logger  zerolog.Logger
}

// NewApprovalHandler wires the workflow. badge may be nil, in which case the
// pending count is always read live.
func NewApprovalHandler(service ports.ApprovalService, badge ports.PendingBadge, logger zerolog.Logger) *ApprovalHandler {
	return &ApprovalHandler{service: service, badge: badge, logger: logger}
}

// ListCandidates returns every non-admin profile, newest first. A store
// failure still answers 200 with an empty list and an error message.
//
// @Summary      List approval candidates
// @Tags         admin
// @Produce      json
// @Success      200  {object}  candidatesResponse
// @Failure      403  {object}  errorResponse
// @Router       /api/admin/candidates [get]
func (h *ApprovalHandler) ListCandidates(c echo.Context) error {
	candidates, err := h.service.ListCandidates(c.Request().Context())
	resp := candidatesResponse{Candidates: candidates}
	if err != nil {
		resp.Error = "could not load users, try again"
	}
	return c.JSON(http.StatusOK, resp)
}

// Decide approves, soft-rejects or re-roles a candidate and returns the
// re-read candidate list.
//
// @Summary      Decide on a candidate
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id    path      string           true  "Profile id (uuid)"
// @Param        body  body      decisionRequest  true  "Decision"
// @Success      200   {object}  domain.DecisionResult
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/admin/candidates/{id}/decision [post]
func (h *ApprovalHandler) Decide(c echo.Context) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid profile id")
	}
	var req decisionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.service.Decide(c.Request().Context(), actor.ID, targetID.String(), req.Approve, req.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// PendingCount returns the pending-approval badge count. The polled value is
// preferred; without one the count is read live.
//
// @Summary      Pending approval count
// @Tags         admin
// @Produce      json
// @Success      200  {object}  pendingCountResponse
// @Failure      503  {object}  errorResponse
// @Router       /api/admin/pending-count [get]
func (h *ApprovalHandler) PendingCount(c echo.Context) error {
	if h.badge != nil {
		if n, ok := h.badge.Pending(); ok {
			return c.JSON(http.StatusOK, pendingCountResponse{Pending: n, Source: "poll"})
		}
	}

	n, err := h.service.PendingCount(c.Request().Context())
	if err != nil {
		h.logger.Warn().Err(err).Msg("live pending count failed")
		return echo.NewHTTPError(http.StatusServiceUnavailable, "pending count unavailable")
	}
	return c.JSON(http.StatusOK, pendingCountResponse{Pending: n, Source: "live"})
}
