package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/pray3m/hyteno-fullstack-todo/internal/auth"
	"github.com/pray3m/hyteno-fullstack-todo/internal/config"
	"github.com/pray3m/hyteno-fullstack-todo/internal/handler"
	"github.com/pray3m/hyteno-fullstack-todo/internal/model"
	"github.com/pray3m/hyteno-fullstack-todo/internal/service"
)

// Register wires routes and middleware. Secured routes run the pipeline
// authenticate (echo-jwt) -> load actor -> authorize(role) -> validate ->
// handler, each stage an explicit middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	userService service.UserService,
	authHandler *handler.AuthHandler,
	todoHandler *handler.TodoHandler,
	userHandler *handler.UserHandler,
	notificationHandler *handler.NotificationHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.Static("/uploads", cfg.UploadDir)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	// Secured routes (require JWT authentication)
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		SigningKey:  []byte(cfg.JWTSecret),
		TokenLookup: "header:" + echo.HeaderAuthorization,
		NewClaimsFunc: func(echo.Context) jwt.Claims {
			return &auth.Claims{}
		},
	}), loadActor(userService))

	// Todo routes
	secured.GET("/todos", todoHandler.List)
	secured.POST("/todos", todoHandler.Create)
	secured.PATCH("/todos/:id", todoHandler.Update)
	secured.PATCH("/todos/:id/done", todoHandler.MarkDone)
	secured.DELETE("/todos/:id", todoHandler.Delete)

	// Notification routes
	secured.GET("/notifications", notificationHandler.List)
	secured.PATCH("/notifications/:id/read", notificationHandler.MarkRead)

	// User management (ADMIN only)
	admin := secured.Group("/users", requireRole(model.RoleAdmin))
	admin.GET("", userHandler.ListUsers)
	admin.PATCH("/:id", userHandler.ChangeRole)
	admin.DELETE("/:id", userHandler.DeleteUser)
}

// loadActor resolves the validated token into a database-backed user so
// that role changes take effect on the next request, not the next login.
func loadActor(userService service.UserService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			claims, ok := token.Claims.(*auth.Claims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
			}
			userID, err := claims.UserID()
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
			}

			actor, err := userService.GetUser(c.Request().Context(), userID)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "unknown user")
			}

			c.Set(handler.ActorContextKey, actor)
			return next(c)
		}
	}
}

// requireRole rejects requests whose actor lacks one of the given roles.
func requireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, err := handler.Actor(c)
			if err != nil {
				return err
			}
			for _, role := range roles {
				if actor.Role == role {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
		}
	}
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
