package command

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/spf13/cobra"

	"github.com/stolasapp/watchlist/internal/storage/db"
)

var sampleMovies = []db.Movie{
	{Title: "My Neighbor Totoro", Year: "1988"},
	{Title: "Dead Poets Society", Year: "1989"},
	{Title: "A Perfect World", Year: "1993"},
	{Title: "Leon", Year: "1994"},
	{Title: "Mahjong", Year: "1996"},
	{Title: "Swallowtail Butterfly", Year: "1996"},
	{Title: "King of Comedy", Year: "1999"},
	{Title: "Devils on the Doorstep", Year: "1999"},
	{Title: "WALL-E", Year: "2008"},
	{Title: "The Pork of Music", Year: "2012"},
}

func seedCommand() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the watchlist with sample movies",
		Long: "Inserts the built-in sample list, or with --count, that many generated\n" +
			"movies. Rows are appended; existing entries are left alone.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (runErr error) {
			_, logger, store, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					runErr = errors.Join(runErr, err)
				}
			}()

			movies := sampleMovies
			if count > 0 {
				movies = make([]db.Movie, count)
				for i := range movies {
					movies[i] = db.Movie{
						Title: gofakeit.MovieName(),
						Year:  strconv.Itoa(gofakeit.Year()),
					}
				}
			}
			for _, movie := range movies {
				if _, err := store.CreateMovie(cmd.Context(), movie); err != nil {
					return err
				}
			}
			logger.InfoContext(cmd.Context(), "seeded watchlist", slog.Int("movies", len(movies)))
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 0, "generate this many fake movies instead of the sample list")
	return cmd
}
