package storage

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"math/rand/v2"
	"regexp"

	"github.com/influxdata/influxdb/pkg/snowflake"

	"github.com/stolasapp/watchlist/internal/storage/db"
)

// The owner account always lives at this row; the schema enforces it with a
// CHECK constraint, so the table can never hold a second account.
const adminRowID = 1

// Username validation constraints for the owner account.
const (
	minUsernameLen = 3
	maxUsernameLen = 64
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

func validUsername(name string) bool {
	return len(name) >= minUsernameLen &&
		len(name) <= maxUsernameLen &&
		usernameRegex.MatchString(name)
}

// DB is a [Store] backed by a SQLite database.
type DB struct {
	ids *snowflake.Generator
	db  *sql.DB
}

// NewDB opens (and migrates) the SQLite database at dbPath.
func NewDB(ctx context.Context, dbPath string, logger *slog.Logger) (*DB, error) {
	handle, err := db.Open(ctx, logger, dbPath)
	if err != nil {
		return nil, err
	}
	return &DB{
		ids: snowflake.New(rand.IntN(1023)), //nolint:gosec,mnd // this isn't for crypto
		db:  handle,
	}, nil
}

// Close satisfies the [Store] interface.
func (d *DB) Close() error {
	return d.db.Close()
}

// ListMovies satisfies the [Movies] interface.
func (d *DB) ListMovies(ctx context.Context) ([]db.Movie, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, title, year FROM movie ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck // read-only result set

	var movies []db.Movie
	for rows.Next() {
		var m db.Movie
		if err := rows.Scan(&m.ID, &m.Title, &m.Year); err != nil {
			return nil, err
		}
		movies = append(movies, m)
	}
	return movies, rows.Err()
}

// GetMovie satisfies the [Movies] interface.
func (d *DB) GetMovie(ctx context.Context, id uint64) (db.Movie, error) {
	var m db.Movie
	err := d.db.QueryRowContext(ctx,
		`SELECT id, title, year FROM movie WHERE id = ?`, id,
	).Scan(&m.ID, &m.Title, &m.Year)
	if errors.Is(err, sql.ErrNoRows) {
		return m, ErrNotFound
	}
	return m, err
}

// CreateMovie satisfies the [Movies] interface.
func (d *DB) CreateMovie(ctx context.Context, movie db.Movie) (db.Movie, error) {
	if movie.ID == 0 {
		movie.ID = d.ids.Next()
	}
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO movie (id, title, year) VALUES (?, ?, ?)`,
		movie.ID, movie.Title, movie.Year,
	)
	return movie, err
}

// UpdateMovie satisfies the [Movies] interface.
func (d *DB) UpdateMovie(ctx context.Context, movie db.Movie) error {
	res, err := d.db.ExecContext(ctx,
		`UPDATE movie SET title = ?, year = ? WHERE id = ?`,
		movie.Title, movie.Year, movie.ID,
	)
	if err != nil {
		return err
	}
	return errIfNoRows(res)
}

// DeleteMovie satisfies the [Movies] interface.
func (d *DB) DeleteMovie(ctx context.Context, id uint64) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM movie WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return errIfNoRows(res)
}

// GetAdmin satisfies the [Users] interface.
func (d *DB) GetAdmin(ctx context.Context) (db.User, error) {
	var u db.User
	err := d.db.QueryRowContext(ctx,
		`SELECT id, name, username, password_hash FROM user WHERE id = ?`,
		adminRowID,
	).Scan(&u.ID, &u.Name, &u.Username, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNotFound
	}
	return u, err
}

// SaveAdmin satisfies the [Users] interface.
func (d *DB) SaveAdmin(ctx context.Context, user db.User) error {
	if !validUsername(user.Username) {
		return ErrInvalidUsername
	}
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO user (id, name, username, password_hash) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			username = excluded.username,
			password_hash = excluded.password_hash`,
		adminRowID, user.Name, user.Username, user.PasswordHash,
	)
	return err
}

// SetAdminName satisfies the [Users] interface.
func (d *DB) SetAdminName(ctx context.Context, name string) error {
	res, err := d.db.ExecContext(ctx,
		`UPDATE user SET name = ? WHERE id = ?`, name, adminRowID,
	)
	if err != nil {
		return err
	}
	return errIfNoRows(res)
}

func errIfNoRows(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Store = (*DB)(nil)
