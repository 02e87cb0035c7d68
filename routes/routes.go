package routes

import (
	"edms-api/controllers"
	"edms-api/middleware"
	"edms-api/models"

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
					"message": "EDMS API is running",
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

			// Directory
			protected.GET("/users", controllers.GetUsers)
			protected.GET("/users/subordinates", controllers.GetSubordinates)
			protected.POST("/users", middleware.RequireRole(models.RoleAdmin), controllers.CreateUser)
			protected.PUT("/users/:id", middleware.RequireRole(models.RoleAdmin), controllers.UpdateUser)
			protected.DELETE("/users/:id", middleware.RequireRole(models.RoleAdmin), controllers.DeactivateUser)

			// Departments
			departments := protected.Group("/departments")
			{
				departments.GET("", controllers.GetDepartments)
				departments.POST("", middleware.RequireRole(models.RoleAdmin), controllers.CreateDepartment)
				departments.PUT("/:id", middleware.RequireRole(models.RoleAdmin), controllers.UpdateDepartment)
				departments.DELETE("/:id", middleware.RequireRole(models.RoleAdmin), controllers.DeleteDepartment)
			}

			// Document types
			types := protected.Group("/document-types")
			{
				types.GET("", controllers.GetDocumentTypes)
				types.POST("", middleware.RequireRole(models.RoleAdmin), controllers.CreateDocumentType)
				types.PUT("/:id", middleware.RequireRole(models.RoleAdmin), controllers.UpdateDocumentType)
				types.DELETE("/:id", middleware.RequireRole(models.RoleAdmin), controllers.DeleteDocumentType)
			}

			// Approval routes
			approvalRoutes := protected.Group("/routes")
			{
				approvalRoutes.GET("", controllers.GetApprovalRoutes)
				approvalRoutes.POST("", middleware.RequireRole(models.RoleAdmin), controllers.CreateApprovalRoute)
				approvalRoutes.PUT("/:id", middleware.RequireRole(models.RoleAdmin), controllers.UpdateApprovalRoute)
				approvalRoutes.DELETE("/:id", middleware.RequireRole(models.RoleAdmin), controllers.DeleteApprovalRoute)
			}

			// Documents and workflow operations
			documents := protected.Group("/documents")
			{
				documents.GET("", controllers.GetDocuments)
				documents.POST("", controllers.CreateDocument)
				documents.GET("/:id", controllers.GetDocument)
				documents.PUT("/:id", controllers.UpdateDocument)
				documents.DELETE("/:id", controllers.DeleteDocument)

				documents.POST("/:id/submit", controllers.SubmitDocument)
				documents.POST("/:id/approve", controllers.ApproveDocument)
				documents.POST("/:id/reject", controllers.RejectDocument)
				documents.POST("/:id/assign", controllers.AssignDocument)
				documents.GET("/:id/logs", controllers.GetDocumentLogs)
			}

			// Assignments
			assignments := protected.Group("/assignments")
			{
				assignments.GET("", controllers.GetAssignments)
				assignments.POST("/:id/accept", controllers.AcceptAssignment)
				assignments.POST("/:id/complete", controllers.CompleteAssignment)
			}

			// Notifications
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", controllers.GetNotifications)
				notifications.POST("/:id/read", controllers.MarkNotificationRead)
			}

			// Statistics dashboard
			protected.GET("/statistics",
				middleware.RequireRole(models.RoleAdmin, models.RoleRector, models.RoleProrector),
				controllers.GetStatistics)
		}
	}
}
