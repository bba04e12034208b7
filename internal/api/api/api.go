package api

import (
	"github.com/gin-contrib/cors"
	"github.com/wb-go/wbf/ginext"

	"eventure/cmd/middleware"
	"eventure/internal/service"
)

type Routers struct {
	Service service.Service
}

func NewRouters(r *Routers) *ginext.Engine {
	app := ginext.New("release")

	app.Use(middleware.LoggingMiddleware())
	app.Use(cors.Default())
	apiGroup := app.Group("/v1")

	apiGroup.POST("/events", r.Service.CreateEvent)
	apiGroup.GET("/events/:id", r.Service.GetEvent)
	apiGroup.PUT("/events/:id", r.Service.UpdateEvent)
	apiGroup.DELETE("/events/:id", r.Service.DeleteEvent)
	apiGroup.GET("/organizers/:id/events", r.Service.ListOrganizerEvents)

	apiGroup.POST("/events/:id/registrations", r.Service.Register)
	apiGroup.POST("/events/:id/registrations/confirm", r.Service.ConfirmRegistration)
	apiGroup.DELETE("/events/:id/registrations/:userID", r.Service.CancelRegistration)

	apiGroup.POST("/users", r.Service.CreateUser)
	apiGroup.GET("/users/:id", r.Service.GetUser)
	apiGroup.PUT("/users/:id", r.Service.UpdateUser)
	apiGroup.DELETE("/users/:id", r.Service.DeleteUser)
	apiGroup.GET("/users/:id/events", r.Service.ListRegisteredEvents)
	apiGroup.GET("/users/:id/notifications", r.Service.ListNotifications)

	apiGroup.POST("/notifications/:id/read", r.Service.MarkNotificationRead)
	apiGroup.DELETE("/notifications/:id", r.Service.DeleteNotification)

	return app
}
