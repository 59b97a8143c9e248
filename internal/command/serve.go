package command

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/stolasapp/watchlist/internal/app"
	"github.com/stolasapp/watchlist/internal/server"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "serve the watchlist web app",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (runErr error) {
			cfg, logger, store, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					runErr = errors.Join(runErr, err)
				}
			}()

			webapp, err := app.New(cfg, logger, store)
			if err != nil {
				return err
			}
			return server.Run(cmd.Context(), logger, webapp.Server, cfg.WebAddress)
		},
	}
}
