package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/pray3m/hyteno-fullstack-todo/internal/model"
)

// ActorContextKey is where the route guard stashes the authenticated user.
const ActorContextKey = "actor"

// Actor returns the authenticated user loaded by the route guard.
func Actor(c echo.Context) (*model.User, error) {
	actor, ok := c.Get(ActorContextKey).(*model.User)
	if !ok || actor == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication")
	}
	return actor, nil
}

// pathID parses the :id path parameter.
func pathID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}
