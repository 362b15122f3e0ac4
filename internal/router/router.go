package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/corkboard-dev/corkboard/internal/handlers"
	"github.com/corkboard-dev/corkboard/internal/middleware"
	"github.com/corkboard-dev/corkboard/internal/services"
	"github.com/corkboard-dev/corkboard/internal/types"
	"github.com/corkboard-dev/corkboard/internal/ws"
)

type Deps struct {
	Projects      *services.ProjectsService
	Columns       *services.ColumnsService
	Tasks         *services.TasksService
	Notifications *services.NotificationsService
	Hub           *ws.Hub
}

func NewRouter(deps Deps) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	projectHandler := handlers.NewProjectHandler(deps.Projects)
	columnHandler := handlers.NewColumnHandler(deps.Columns)
	taskHandler := handlers.NewTaskHandler(deps.Tasks)
	notificationHandler := handlers.NewNotificationHandler(deps.Notifications)
	wsHandler := handlers.NewWSHandler(deps.Hub)

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)
		api.GET("/ws", middleware.AuthMiddleware(), wsHandler.Connect)

		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.Register)
			auth.POST("/login", handlers.Login)
			auth.POST("/logout", handlers.Logout)
			auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
		}

		projects := api.Group("/projects", middleware.AuthMiddleware())
		{
			projects.POST("", projectHandler.Create)
			projects.GET("", projectHandler.List)
			projects.GET("/:project_id", projectHandler.Get)
			projects.PATCH("/:project_id", projectHandler.Update)
			projects.DELETE("/:project_id", projectHandler.Delete)

			projects.POST("/:project_id/participants", projectHandler.AddParticipant)
			projects.DELETE("/:project_id/participants/:user_id", projectHandler.RemoveParticipant)
			projects.PATCH("/:project_id/participants/:user_id/role", projectHandler.UpdateParticipantRole)
			projects.POST("/:project_id/leave", projectHandler.Leave)
			projects.POST("/:project_id/export", projectHandler.ExportBacklog)

			projects.POST("/:project_id/columns", columnHandler.Create)
			projects.GET("/:project_id/columns", columnHandler.List)
		}

		columns := api.Group("/columns", middleware.AuthMiddleware())
		{
			columns.GET("/:column_id", columnHandler.Get)
			columns.PATCH("/:column_id", columnHandler.Update)
			columns.DELETE("/:column_id", columnHandler.Delete)
			columns.PATCH("/:column_id/order", columnHandler.Reorder)

			columns.POST("/:column_id/tasks", taskHandler.Create)
			columns.GET("/:column_id/tasks", taskHandler.List)
		}

		tasks := api.Group("/tasks", middleware.AuthMiddleware())
		{
			tasks.GET("/:task_id", taskHandler.Get)
			tasks.PATCH("/:task_id", taskHandler.Update)
			tasks.DELETE("/:task_id", taskHandler.Delete)
			tasks.PATCH("/:task_id/move", taskHandler.Move)
		}

		notifications := api.Group("/notifications", middleware.AuthMiddleware())
		{
			notifications.GET("", notificationHandler.List)
			notifications.PATCH("/:notification_id/read", notificationHandler.MarkRead)
		}
	}

	return r
}
