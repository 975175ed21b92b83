// Package classification Event Manager Service.
//
// Collaborative event management service with versioned change history, role based
// sharing and temporal conflict detection
//
// Terms Of Service:
//
// there are no TOS at this moment, use at your own risk we take no responsibility
//
//	Version: 0.1.0
//	License: TODO
//	Contact: <info@scheduleshare.org> https://github.com/scheduleshare/event-manager
//
//	Consumes:
//	  - application/json
//
//	Produces:
//	  - application/json
//
//	SecurityDefinitions:
//	  basicAuth:
//	    type: basic
//	  oauth2:
//	    type: oauth2
//	    tokenUrl: /tokens
//	    refreshUrl: /refresh
//	    flow: password
//
// swagger:meta
package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/scheduleshare/event-manager/internal/handler"
	internalLog "github.com/scheduleshare/event-manager/internal/log"
	"github.com/scheduleshare/event-manager/internal/middleware"
	"github.com/scheduleshare/event-manager/internal/server"
	"github.com/scheduleshare/event-manager/internal/tracing"
	"github.com/scheduleshare/event-manager/pkg/config"
	"github.com/scheduleshare/event-manager/pkg/event"
	"github.com/scheduleshare/event-manager/pkg/storage"
	"github.com/scheduleshare/event-manager/pkg/token"
	"github.com/scheduleshare/event-manager/pkg/user"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg := config.New()

	logger := slog.New(internalLog.New(slog.NewJSONHandler(os.Stdout, nil)))
	slog.SetDefault(logger)

	tracerProvider, err := tracing.NewTracerProvider("event-manager", cfg.Jaeger.Endpoint)
	if err != nil {
		return err
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			logger.Error("Failed to shut down tracer provider", "error", err)
		}
	}()

	db, err := storage.NewDatabase(cfg.Postgresql, logger)
	if err != nil {
		return err
	}

	redisClient, err := storage.NewRedis(context.Background(), cfg.Redis.Host, cfg.Redis.Port)
	if err != nil {
		return err
	}

	authentication := cfg.Authentication
	tokenRepository := token.NewRepository(redisClient)
	tokenService := token.NewService(
		logger,
		tokenRepository,
		authentication.Keys.PrivateKey,
		authentication.AccessTokenExpirationSeconds,
		authentication.RefreshTokenSecretKey,
		authentication.RefreshTokenExpirationSeconds,
		authentication.RefreshTokenRememberMeExpirationSeconds,
	)

	userRepository := user.NewRepository(db)
	userService := user.NewService(userRepository)
	userHandler := user.NewHandler(userService, tokenService)

	eventRepository := event.NewRepository(db)
	eventService := event.NewService(eventRepository, userService)
	eventHandler := event.NewHandler(eventService)

	authenticationMiddleware := middleware.NewAuthentication(authentication.Keys.PublicKey, userService)

	if err := handler.RegisterValidation(); err != nil {
		return err
	}

	r := server.GetEngine(logger, cfg.BasePath, authenticationMiddleware, userHandler, eventHandler)
	return r.Run()
}
