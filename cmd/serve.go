package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/rapport/internal/api"
	"github.com/rapport/internal/config"
	"github.com/rapport/internal/database"
	"github.com/rapport/internal/progression"
	"github.com/rapport/internal/session"
	"github.com/rapport/internal/templates"
)

// ServeCommand returns the CLI command for starting the API server
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the Rapport API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port for the API server (overrides config)",
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	pcfg := progression.DefaultConfig()
	port := 8880
	dbURL := ""

	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		// Degraded mode: the controller stays available on built-in
		// defaults when the external config source is unusable.
		log.Warn().Err(err).Msg("configuration unavailable, falling back to built-in defaults")
	} else {
		if verr := config.Validate(cfg); verr != nil {
			log.Warn().Err(verr).Msg("configuration invalid, falling back to built-in defaults")
		} else {
			pcfg = cfg.ProgressionConfig()
			port = cfg.Server.Port
			dbURL = cfg.Database.URL
		}
	}

	if p := c.Int("port"); p > 0 {
		port = p
	}

	store, err := buildStore(c.Context, dbURL)
	if err != nil {
		return err
	}

	svc, err := api.NewService(pcfg, store)
	if err != nil {
		return fmt.Errorf("failed to build service: %w", err)
	}

	fmt.Printf("Starting Rapport API server on port %d...\n", port)
	server := api.NewServer(port, svc, templates.NewCatalog(nil))
	return server.Start()
}

func buildStore(ctx context.Context, dbURL string) (session.Store, error) {
	if dbURL == "" {
		log.Info().Msg("no database configured, using in-memory session store")
		return session.NewMemoryStore(), nil
	}

	db, err := database.NewDB(dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return session.NewPostgresStore(ctx, db)
}
