package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-admin-api/internal/middleware"
	"github.com/noah-isme/school-admin-api/internal/models"
)

// Handlers groups every HTTP handler mounted by RegisterRoutes.
type Handlers struct {
	Auth        *AuthHandler
	Teachers    *TeacherHandler
	Subjects    *SubjectHandler
	Students    *StudentHandler
	Enrollments *EnrollmentHandler
	Media       *MediaHandler
	Imports     *ImportHandler
	Dashboard   *DashboardHandler
	Reports     *ReportHandler
	System      *SystemHandler
}

// RegisterRoutes mounts the API under group. Catalogue reads need any valid
// token; writes, reports and diagnostics need the ADMIN role. Media downloads
// are authorised by their signed token alone.
func RegisterRoutes(group *gin.RouterGroup, h Handlers, tokens middleware.TokenValidator) {
	auth := group.Group("/auth")
	auth.POST("/login", h.Auth.Login)
	auth.POST("/register", middleware.OptionalJWT(tokens), h.Auth.Register)
	auth.GET("/me", middleware.JWT(tokens), h.Auth.Me)

	group.GET("/media/:token", h.Media.Serve)

	api := group.Group("", middleware.JWT(tokens), middleware.AdminForWrites())

	api.GET("/teachers", h.Teachers.List)
	api.POST("/teachers", h.Teachers.Create)
	api.GET("/teachers/:id", h.Teachers.Get)
	api.PUT("/teachers/:id", h.Teachers.Update)
	api.DELETE("/teachers/:id", h.Teachers.Delete)
	api.POST("/teachers/:id/photo", h.Teachers.UploadPhoto)

	api.GET("/subjects", h.Subjects.List)
	api.POST("/subjects", h.Subjects.Create)
	api.GET("/subjects/:id", h.Subjects.Get)
	api.PUT("/subjects/:id", h.Subjects.Update)
	api.DELETE("/subjects/:id", h.Subjects.Delete)

	api.GET("/students", h.Students.List)
	api.POST("/students", h.Students.Create)
	api.GET("/students/:id", h.Students.Get)
	api.PUT("/students/:id", h.Students.Update)
	api.DELETE("/students/:id", h.Students.Delete)
	api.POST("/students/:id/photo", h.Students.UploadPhoto)
	api.GET("/students/:id/enrollments", h.Enrollments.List)
	api.POST("/students/:id/enrollments/:subjectId", h.Enrollments.Enroll)
	api.DELETE("/students/:id/enrollments/:subjectId", h.Enrollments.Unenroll)

	api.POST("/import/:kind", h.Imports.Import)

	api.GET("/dashboard", h.Dashboard.Summary)

	admin := api.Group("", middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/reports", h.Reports.Summary)
	admin.GET("/reports/export", h.Reports.Export)
	admin.GET("/system/database", h.System.Database)
}
