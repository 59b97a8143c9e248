package command

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/stolasapp/watchlist/internal/sec"
	"github.com/stolasapp/watchlist/internal/storage"
	"github.com/stolasapp/watchlist/internal/storage/db"
)

func adminCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "admin USERNAME",
		Short: "Create or update the owner account",
		Long: "Sets the login username and password of the single owner account, creating\n" +
			"it on first use. Passwords may be provided via stdin or through the\n" +
			"interactive prompt.",

		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (runErr error) {
			_, logger, store, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					runErr = errors.Join(runErr, err)
				}
			}()

			user, err := store.GetAdmin(cmd.Context())
			switch {
			case errors.Is(err, storage.ErrNotFound):
				user = db.User{Name: "Admin"}
			case err != nil:
				return err
			}

			username := args[0]
			if passwd, err := prompt("password: ", true); err != nil {
				return err
			} else if user.PasswordHash, err = sec.HashPassword(passwd); err != nil {
				return err
			}
			user.Username = username

			if err := store.SaveAdmin(cmd.Context(), user); err != nil {
				return err
			}
			logger.InfoContext(cmd.Context(), "owner account saved", slog.String("username", username))
			return nil
		},
	}
}
