package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pray3m/hyteno-fullstack-todo/internal/errors"
	"github.com/pray3m/hyteno-fullstack-todo/internal/query"
	"github.com/pray3m/hyteno-fullstack-todo/internal/service"
)

// TodoHandler handles todo endpoints.
type TodoHandler struct {
	todoService service.TodoService
}

// NewTodoHandler creates a new todo handler.
func NewTodoHandler(todoService service.TodoService) *TodoHandler {
	return &TodoHandler{todoService: todoService}
}

// UpdateTodoRequest is a partial patch; absent fields keep prior values.
type UpdateTodoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"dueDate"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
}

// List godoc
// @Summary List todos with filters and sort
// @Tags todos
// @Produce json
// @Security BearerAuth
// @Param search query string false "Substring matched against title or description"
// @Param status query string false "TODO or DONE"
// @Param priority query string false "LOW, MEDIUM, or HIGH"
// @Param startDate query string false "Inclusive dueDate lower bound (YYYY-MM-DD)"
// @Param endDate query string false "Inclusive dueDate upper bound (YYYY-MM-DD)"
// @Param sortBy query string false "dueDate, priority, or createdAt"
// @Param order query string false "asc or desc"
// @Success 200 {array} model.Todo
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /todos [get]
func (h *TodoHandler) List(c echo.Context) error {
	if _, err := Actor(c); err != nil {
		return err
	}

	spec, err := query.ParseSpec(query.Params{
		Search:    c.QueryParam("search"),
		Status:    c.QueryParam("status"),
		Priority:  c.QueryParam("priority"),
		StartDate: c.QueryParam("startDate"),
		EndDate:   c.QueryParam("endDate"),
		SortBy:    c.QueryParam("sortBy"),
		Order:     c.QueryParam("order"),
	})
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	// The board is shared: every authenticated user sees all todos and
	// mutation rights are decided per row.
	todos, err := h.todoService.List(c.Request().Context(), 0, spec)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, todos)
}

// Create godoc
// @Summary Create a todo, optionally with a file attachment
// @Tags todos
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Title (1-100 chars)"
// @Param description formData string true "Description (1-500 chars)"
// @Param dueDate formData string true "Due date (YYYY-MM-DD)"
// @Param priority formData string false "LOW, MEDIUM, or HIGH"
// @Param status formData string false "TODO or DONE"
// @Param file formData file false "Attachment (max 5 MB)"
// @Success 201 {object} model.Todo
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /todos [post]
func (h *TodoHandler) Create(c echo.Context) error {
	actor, err := Actor(c)
	if err != nil {
		return err
	}

	input := service.CreateTodoInput{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		DueDate:     c.FormValue("dueDate"),
		Priority:    c.FormValue("priority"),
		Status:      c.FormValue("status"),
	}

	var attachment *service.AttachmentInput
	if fh, err := c.FormFile("file"); err == nil && fh != nil {
		src, err := fh.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unreadable attachment")
		}
		defer src.Close()
		data, err := io.ReadAll(src)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unreadable attachment")
		}
		attachment = &service.AttachmentInput{FileName: fh.Filename, Data: data}
	}

	todo, err := h.todoService.Create(c.Request().Context(), actor.ID, input, attachment)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusCreated, todo)
}

// Update godoc
// @Summary Patch a todo (owner or admin)
// @Tags todos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Todo ID"
// @Param request body UpdateTodoRequest true "Fields to change"
// @Success 200 {object} model.Todo
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /todos/{id} [patch]
func (h *TodoHandler) Update(c echo.Context) error {
	actor, err := Actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req UpdateTodoRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	todo, err := h.todoService.Update(c.Request().Context(), actor, id, service.UpdateTodoInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
		Status:      req.Status,
	})
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, todo)
}

// MarkDone godoc
// @Summary Mark a todo as done (owner or admin)
// @Tags todos
// @Produce json
// @Security BearerAuth
// @Param id path int true "Todo ID"
// @Success 200 {object} model.Todo
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /todos/{id}/done [patch]
func (h *TodoHandler) MarkDone(c echo.Context) error {
	actor, err := Actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	todo, err := h.todoService.MarkDone(c.Request().Context(), actor, id)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, todo)
}

// Delete godoc
// @Summary Delete a todo (owner or admin)
// @Tags todos
// @Produce json
// @Security BearerAuth
// @Param id path int true "Todo ID"
// @Success 200 {object} model.Todo
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /todos/{id} [delete]
func (h *TodoHandler) Delete(c echo.Context) error {
	actor, err := Actor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	todo, err := h.todoService.Remove(c.Request().Context(), actor, id)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, todo)
}
