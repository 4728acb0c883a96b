package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ruteri/docvault/cmd/flags"
	"github.com/ruteri/docvault/httpserver"
	"github.com/ruteri/docvault/vault"
	"github.com/urfave/cli/v2"
)

var flagListenAddr = &cli.StringFlag{
	Name:    "listen-addr",
	Value:   "127.0.0.1:8080",
	EnvVars: []string{"DOCVAULT_LISTEN_ADDR"},
	Usage:   "address to listen on for API",
}

func main() {
	app := &cli.App{
		Name:  "vaultd",
		Usage: "Serve the local document vault API",
		Flags: append(append(append([]cli.Flag{flagListenAddr}, flags.StoreFlags...), flags.ServerFlags...), flags.LogFlags...),
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			store, err := flags.OpenStore(cCtx, logger)
			if err != nil {
				logger.Error("Failed to open vault store", "err", err)
				return err
			}

			manager := vault.NewManager(store, logger)

			migrated, err := manager.MigrateIfNeeded(context.Background())
			if err != nil {
				// Legacy data stays in place, the next start retries.
				logger.Error("Legacy vault migration failed", "err", err)
			} else if migrated {
				logger.Info("Adopted legacy vault", "name", vault.LegacyVaultName)
			}

			handler := httpserver.NewHandler(manager.NewSession(), logger)
			cfg := flags.ConfigureServer(cCtx, logger, cCtx.String(flagListenAddr.Name))
			server, err := httpserver.New(cfg, handler)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			logger.Info("Starting server")
			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()
			logger.Info("Server shutdown complete")

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
