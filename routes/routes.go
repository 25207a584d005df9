package routes

import (
	"net/http"

	"research-registry-api/controllers"
	"research-registry-api/middleware"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			public.GET("/health", controllers.HealthCheck)

			// Authentication
			public.POST("/token", controllers.Login)
			public.POST("/token/refresh", controllers.RefreshToken)
			public.POST("/faculty/signup", controllers.FacultySignup)

			// Directory
			public.GET("/faculty", controllers.ListFaculty)
			public.GET("/papers", controllers.ListPapers)
			public.POST("/papers", controllers.CreatePaper)
			public.GET("/projects", controllers.ListProjects)
			public.POST("/projects", controllers.CreateProject)
			public.GET("/patents", controllers.ListPatents)
			public.POST("/patents", controllers.CreatePatent)
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			faculty := protected.Group("/faculty")
			{
				faculty.GET("/me", controllers.GetMyFaculty)
				faculty.POST("/photo", controllers.UploadFacultyPhoto)

				faculty.GET("/papers", controllers.ListMyPapers)
				faculty.POST("/papers", controllers.CreateMyPaper)
				faculty.POST("/papers/import", controllers.ImportMyPapers)
				faculty.GET("/authorships", controllers.ListMyAuthorships)

				faculty.GET("/projects", controllers.ListMyProjects)
				faculty.POST("/projects", controllers.CreateMyProject)
				faculty.GET("/patents", controllers.ListMyPatents)
				faculty.POST("/patents", controllers.CreateMyPatent)
			}

			admin := protected.Group("/admin")
			admin.Use(middleware.RequireAdmin())
			{
				admin.POST("/authorships/:id/approve", controllers.ApproveAuthorship)
				admin.POST("/authorships/:id/reject", controllers.RejectAuthorship)
				admin.POST("/faculty/:id/approve", controllers.ApproveFaculty)

				admin.POST("/imports", controllers.AdminRunDatasetImport)
				admin.GET("/imports", controllers.AdminListDatasetImports)
			}
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found"})
	})
}
