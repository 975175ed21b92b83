package event

import (
	"github.com/scheduleshare/event-manager/internal/middleware"
	"github.com/gin-gonic/gin"
)

func Routes(r *gin.RouterGroup, authenticationMiddleware middleware.AuthenticationMiddleware, handler Handler) {
	tokenAuthenticationRouter := r.Group("/events")
	tokenAuthenticationRouter.Use(authenticationMiddleware.TokenAuthentication)

	tokenAuthenticationRouter.POST("", handler.Create)
	tokenAuthenticationRouter.GET("", handler.List)
	tokenAuthenticationRouter.POST("/batch", handler.BatchCreate)
	tokenAuthenticationRouter.GET("/ical", handler.ICalendar)

	tokenAuthenticationRouter.GET("/:id", handler.FindById)
	tokenAuthenticationRouter.PUT("/:id", handler.Update)
	tokenAuthenticationRouter.DELETE("/:id", handler.Delete)

	tokenAuthenticationRouter.POST("/:id/share", handler.Share)
	tokenAuthenticationRouter.GET("/:id/permissions", handler.ListPermissions)
	tokenAuthenticationRouter.PUT("/:id/permissions/:userId", handler.UpdatePermission)
	tokenAuthenticationRouter.DELETE("/:id/permissions/:userId", handler.RevokePermission)

	tokenAuthenticationRouter.GET("/:id/changelog", handler.Changelog)
	tokenAuthenticationRouter.GET("/:id/history/:version", handler.GetVersion)
	tokenAuthenticationRouter.GET("/:id/diff/:version1/:version2", handler.Diff)
	tokenAuthenticationRouter.POST("/:id/rollback/:version", handler.Rollback)
}
