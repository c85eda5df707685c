// cmd/server/main.go
// Entry point for the Playout front-end server. It serves the marketplace's
// views as JSON, keeps an in-memory snapshot of games and turfs fetched from
// the remote API, and pushes change notifications over server-sent events.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	// cors lets the browser app call the server from a different origin.
	"github.com/gofiber/fiber/v2/middleware/cors"
	// logger prints request details (method, path, status, duration).
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ShyamLatake/playout-front/internal/apiclient"
	"github.com/ShyamLatake/playout-front/internal/broadcast"
	"github.com/ShyamLatake/playout-front/internal/config"
	"github.com/ShyamLatake/playout-front/internal/handlers"
	"github.com/ShyamLatake/playout-front/internal/identity"
	"github.com/ShyamLatake/playout-front/internal/logging"
	"github.com/ShyamLatake/playout-front/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New("", "info")
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := logging.New(cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The hub fans out "games changed" / "turfs changed" to SSE subscribers.
	hub := broadcast.NewHub(log)
	go hub.Run(ctx)

	// Each outgoing call carries the token of the viewer it is made for.
	api := apiclient.New(cfg.APIBaseURL, identity.ContextToken{}, &http.Client{Timeout: cfg.APITimeout}, log)
	s := store.New(api, hub, log)
	s.SetMaxAge(cfg.SnapshotMaxAge)

	app := fiber.New(fiber.Config{
		AppName: "Playout",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.CORSOrigins}))

	handlers.Routes(app, s, hub, identity.NewVerifier(cfg.TokenSecret))

	// Warm the snapshot so the first visitor doesn't wait. A failure here is
	// not fatal; the next list request retries.
	if err := s.EnsureGames(ctx); err != nil {
		log.Warn().Err(err).Msg("initial games load failed")
	}
	if err := s.EnsureTurfs(ctx); err != nil {
		log.Warn().Err(err).Msg("initial turfs load failed")
	}

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		if err := app.Shutdown(); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("port", cfg.Port).Str("api", cfg.APIBaseURL).Msg("starting server")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("listen")
	}
}
