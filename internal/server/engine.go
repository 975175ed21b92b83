package server

import (
	"log/slog"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	redocMiddleware "github.com/go-openapi/runtime/middleware"
	sloggin "github.com/samber/slog-gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/scheduleshare/event-manager/internal/middleware"
	"github.com/scheduleshare/event-manager/pkg/event"
	"github.com/scheduleshare/event-manager/pkg/health"
	"github.com/scheduleshare/event-manager/pkg/user"
)

func GetEngine(logger *slog.Logger, basePath string, authenticationMiddleware middleware.AuthenticationMiddleware, userHandler user.Handler, eventHandler event.Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(middleware.CorrelationID())
	r.Use(sloggin.New(logger))
	r.Use(otelgin.Middleware("event-manager"))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowCredentials = true
	corsConfig.AddAllowHeaders("authorization")
	r.Use(cors.New(corsConfig))

	r.Use(middleware.ErrorHandler())

	router := r.Group(basePath)

	redoc(router, basePath)

	router.GET("/health", health.Health)

	user.Routes(router, authenticationMiddleware, userHandler)
	event.Routes(router, authenticationMiddleware, eventHandler)

	return r
}

func redoc(router *gin.RouterGroup, basePath string) {
	router.StaticFile("/swagger.yaml", "./swagger/swagger.yaml")

	redocOpts := redocMiddleware.RedocOpts{
		BasePath: basePath,
		SpecURL:  "./swagger.yaml",
	}
	router.GET("/docs", func(c *gin.Context) {
		redocHandler := redocMiddleware.Redoc(redocOpts, nil)
		redocHandler.ServeHTTP(c.Writer, c.Request)
	})
}
