package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pray3m/hyteno-fullstack-todo/internal/errors"
	"github.com/pray3m/hyteno-fullstack-todo/internal/service"
)

// NotificationHandler handles the notification feed endpoints.
type NotificationHandler struct {
	notificationService service.NotificationService
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List godoc
// @Summary List the caller's notifications, newest first
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Notification
// @Failure 401 {object} errors.ErrorResponse
// @Router /notifications [get]
func (h *NotificationHandler) List(c echo.Context) error {
	actor, err := Actor(c)
	if err != nil {
		return err
	}

	list, err := h.notificationService.ListForUser(c.Request().Context(), actor.ID)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, list)
}

// MarkRead godoc
// @Summary Mark a notification as read (idempotent)
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 200 {object} model.Notification
// @Failure 404 {object} errors.ErrorResponse
// @Router /notifications/{id}/read [patch]
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	actor, err := Actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	n, err := h.notificationService.MarkRead(c.Request().Context(), actor.ID, id)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, n)
}
