package routes

import (
	"safety-compliance-api/controllers"
	"safety-compliance-api/middleware"
	"safety-compliance-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Authentication
			public.POST("/login", controllers.Login)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Safety Compliance API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)
			protected.PUT("/change-password", controllers.ChangePassword)

			// File uploads (document PDFs, patrol and feedback photos)
			protected.POST("/files", controllers.UploadFile)

			// Lookups
			protected.GET("/document-categories", controllers.GetDocumentCategories)

			// Documents
			documents := protected.Group("/documents")
			{
				documents.GET("", controllers.GetDocuments)
				documents.GET("/:id", controllers.GetDocument)
				documents.POST("", controllers.SubmitDocument)
				documents.DELETE("/:id", controllers.DeleteDocument)

				// Approval chain: super admins first, then the assigned manager
				documents.POST("/:id/approve",
					middleware.RequireRole(models.RoleSuperAdmin, models.RoleManager),
					controllers.ApproveDocument)
				documents.POST("/:id/reject",
					middleware.RequireRole(models.RoleSuperAdmin, models.RoleManager),
					controllers.RejectDocument)
				documents.POST("/:id/request-update",
					middleware.RequireRole(models.RoleManager),
					controllers.RequestDocumentUpdate)
			}

			// Safety patrols
			patrols := protected.Group("/safety-patrols")
			{
				patrols.GET("", controllers.GetPatrols)
				patrols.GET("/:id", controllers.GetPatrol)
				patrols.POST("", controllers.SubmitPatrol)

				patrols.POST("/:id/approve",
					middleware.RequireRole(models.RoleSuperAdmin, models.RoleManager),
					controllers.ApprovePatrol)
				patrols.POST("/:id/reject",
					middleware.RequireRole(models.RoleSuperAdmin, models.RoleManager),
					controllers.RejectPatrol)

				// Remediation loop
				patrols.POST("/:id/action/start", controllers.StartPatrolAction)
				patrols.POST("/:id/feedback", controllers.SubmitPatrolFeedback)
				patrols.POST("/:id/feedback/approve",
					middleware.RequireRole(models.RoleSuperAdmin, models.RoleManager),
					controllers.ApprovePatrolFeedback)
				patrols.POST("/:id/feedback/reject",
					middleware.RequireRole(models.RoleSuperAdmin, models.RoleManager),
					controllers.RejectPatrolFeedback)

				patrols.DELETE("/:id",
					middleware.RequireRole(models.RoleSuperAdmin),
					controllers.DeletePatrol)
			}

			// Notifications
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", controllers.GetNotifications)
				notifications.GET("/unread-count", controllers.GetUnreadNotificationCount)
				notifications.PUT("/:id/read", controllers.MarkNotificationRead)
				notifications.PUT("/read-all", controllers.MarkAllNotificationsRead)
			}
		}
	}
}
