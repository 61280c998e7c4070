package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/todo/api/handler"
	"github.com/fastygo/todo/internal/middleware"
)

type Handlers struct {
	Auth    *apiHandler.AuthHandler
	Profile *apiHandler.ProfileHandler
	Task    *apiHandler.TaskHandler
	Health  *apiHandler.HealthHandler
}

func New(handlers Handlers, requireUser func(middleware.AuthenticatedHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/", handlers.Health.Root)
	r.GET("/health", handlers.Health.Check)

	// Public user routes
	r.POST("/users/register", handlers.Auth.Register)
	r.POST("/users/login", handlers.Auth.Login)

	// Protected routes
	r.GET("/users/me", requireUser(handlers.Profile.Me))

	r.GET("/tasks/", requireUser(handlers.Task.ListTasks))
	r.POST("/tasks/", requireUser(handlers.Task.CreateTask))
	r.GET("/tasks/{id}", requireUser(handlers.Task.GetTask))
	r.PUT("/tasks/{id}", requireUser(handlers.Task.UpdateTask))
	r.DELETE("/tasks/{id}", requireUser(handlers.Task.DeleteTask))

	return r
}
