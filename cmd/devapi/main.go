// cmd/devapi/main.go
// Entry point for the development API: a PostgreSQL-backed implementation of
// the marketplace's remote REST API so the front-end can run locally.
//
//	devapi                                   # serve on DEVAPI_PORT
//	devapi -mint-token u1 -name Asha -role owner
//
// -mint-token prints a signed bearer token for TOKEN_SECRET and exits.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ShyamLatake/playout-front/internal/config"
	"github.com/ShyamLatake/playout-front/internal/database"
	"github.com/ShyamLatake/playout-front/internal/devapi"
	"github.com/ShyamLatake/playout-front/internal/identity"
	"github.com/ShyamLatake/playout-front/internal/logging"
	"github.com/ShyamLatake/playout-front/internal/models"
)

func main() {
	mint := flag.String("mint-token", "", "print a token for this user id and exit")
	name := flag.String("name", "", "display name for -mint-token")
	email := flag.String("email", "", "email for -mint-token")
	role := flag.String("role", string(models.UserRolePlayer), "role for -mint-token: player, owner or admin")
	ttl := flag.Duration("ttl", 24*time.Hour, "lifetime for -mint-token")
	flag.Parse()

	if *mint != "" {
		secret := os.Getenv("TOKEN_SECRET")
		if secret == "" {
			fmt.Fprintln(os.Stderr, "TOKEN_SECRET must be set to mint tokens")
			os.Exit(1)
		}
		tok, err := identity.Mint(secret, identity.Viewer{
			ID: *mint, Name: *name, Email: *email, Role: models.UserRole(*role),
		}, *ttl)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(tok)
		return
	}

	cfg, err := config.LoadDevAPI()
	if err != nil {
		bootLog := logging.New("", "info")
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := logging.New(cfg.Env, cfg.LogLevel)

	db, err := database.Connect(cfg.DatabaseURL, database.Pool{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect to database")
	}

	// Schema changes live in migrations/ and are applied on every start.
	if err := database.RunMigrations(cfg.MigrationsSource, cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("run migrations")
	}

	if cfg.TokenSecret == "" {
		log.Warn().Msg("TOKEN_SECRET is empty; token signatures are not checked")
	}

	app := fiber.New(fiber.Config{AppName: "Playout dev API"})
	app.Use(recover.New())
	app.Use(logger.New())
	devapi.Routes(app, &devapi.Env{DB: db, Log: log}, identity.NewVerifier(cfg.TokenSecret))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		if err := app.Shutdown(); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("port", cfg.Port).Msg("starting dev API")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("listen")
	}
}
