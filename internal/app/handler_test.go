package app

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stolasapp/watchlist/internal/config"
	"github.com/stolasapp/watchlist/internal/sec"
	"github.com/stolasapp/watchlist/internal/storage"
	"github.com/stolasapp/watchlist/internal/storage/db"
)

const (
	testUsername = "grey"
	testPassword = "watchlist-pass"
)

func newTestApp(t *testing.T) (*httptest.Server, *storage.DB) {
	t.Helper()

	store, err := storage.NewDB(
		t.Context(),
		filepath.Join(t.TempDir(), "db.sqlite"),
		slog.Default(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	hash, err := sec.HashPassword(testPassword)
	require.NoError(t, err)
	err = store.SaveAdmin(t.Context(), db.User{
		Name:         "Grey Li",
		Username:     testUsername,
		PasswordHash: hash,
	})
	require.NoError(t, err)

	cfg := config.Default()
	cfg.SessionSecret = config.NewSessionSecret()
	webapp, err := New(cfg, slog.Default(), store)
	require.NoError(t, err)

	srv := httptest.NewServer(webapp)
	t.Cleanup(srv.Close)
	return srv, store
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

// noFollow returns a client sharing the jar that stops at the first redirect.
func noFollow(client *http.Client) *http.Client {
	return &http.Client{
		Jar: client.Jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func get(t *testing.T, client *http.Client, url string) (int, string) {
	t.Helper()
	resp, err := client.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck // test helper
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func postForm(t *testing.T, client *http.Client, url string, form url.Values) (int, string) {
	t.Helper()
	resp, err := client.PostForm(url, form)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck // test helper
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func signIn(t *testing.T, client *http.Client, base string) {
	t.Helper()
	_, body := postForm(t, client, base+"/login", url.Values{
		"username": {testUsername},
		"password": {testPassword},
	})
	require.Contains(t, body, "Login success.")
}

func movieForm(title, year string) url.Values {
	return url.Values{"title": {title}, "year": {year}}
}

func TestIndexAnonymous(t *testing.T) {
	t.Parallel()
	srv, store := newTestApp(t)

	_, err := store.CreateMovie(t.Context(), db.Movie{Title: "My Neighbor Totoro", Year: "1988"})
	require.NoError(t, err)

	code, body := get(t, newClient(t), srv.URL+"/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "My Neighbor Totoro")
	assert.Contains(t, body, "Grey Li's Watchlist")
	// Anonymous visitors browse; they never see the owner's controls.
	assert.NotContains(t, body, "/movie/edit/")
	assert.Contains(t, body, "Login")
}

func TestCreateMovie(t *testing.T) {
	t.Parallel()
	srv, store := newTestApp(t)

	client := newClient(t)
	signIn(t, client, srv.URL)

	code, body := postForm(t, client, srv.URL+"/", movieForm("Dead Poets Society", "1989"))
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Item created.")
	assert.Contains(t, body, "Dead Poets Society")

	movies, err := store.ListMovies(t.Context())
	require.NoError(t, err)
	require.Len(t, movies, 1)
	assert.Equal(t, "Dead Poets Society", movies[0].Title)
	assert.Equal(t, "1989", movies[0].Year)
}

func TestCreateMovieValidation(t *testing.T) {
	t.Parallel()
	srv, store := newTestApp(t)

	client := newClient(t)
	signIn(t, client, srv.URL)

	long := func(n int) string {
		b := make([]byte, n)
		for i := range b {
			b[i] = 'x'
		}
		return string(b)
	}

	tests := []struct {
		name        string
		title, year string
	}{
		{name: "empty title", title: "", year: "2020"},
		{name: "empty year", title: "X", year: ""},
		{name: "title too long", title: long(61), year: "2020"},
		{name: "year too long", title: "X", year: "20201"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, body := postForm(t, client, srv.URL+"/", movieForm(test.title, test.year))
			assert.Contains(t, body, "Invalid input.")

			movies, err := store.ListMovies(t.Context())
			require.NoError(t, err)
			assert.Empty(t, movies, "no row may be inserted on validation failure")
		})
	}

	// Boundary values are accepted.
	_, body := postForm(t, client, srv.URL+"/", movieForm(long(60), "2020"))
	assert.Contains(t, body, "Item created.")
}

func TestCreateMovieAnonymous(t *testing.T) {
	t.Parallel()
	srv, store := newTestApp(t)

	_, err := store.CreateMovie(t.Context(), db.Movie{Title: "My Neighbor Totoro", Year: "1988"})
	require.NoError(t, err)

	client := newClient(t)

	// The unauthenticated attempt is a silent no-op: a bare redirect home,
	// no flash, no insert.
	resp, err := noFollow(client).PostForm(srv.URL+"/", movieForm("X", "2020"))
	require.NoError(t, err)
	resp.Body.Close() //nolint:errcheck // no body expected
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	_, body := get(t, client, srv.URL+"/")
	assert.NotContains(t, body, "class=\"alert\"")
	assert.NotContains(t, body, "2020")

	movies, err := store.ListMovies(t.Context())
	require.NoError(t, err)
	require.Len(t, movies, 1)
	assert.Equal(t, "My Neighbor Totoro", movies[0].Title)

	// The same payload from a signed-in session succeeds.
	signIn(t, client, srv.URL)
	_, body = postForm(t, client, srv.URL+"/", movieForm("X", "2020"))
	assert.Contains(t, body, "Item created.")

	movies, err = store.ListMovies(t.Context())
	require.NoError(t, err)
	assert.Len(t, movies, 2)
}

func TestEditMovie(t *testing.T) {
	t.Parallel()
	srv, store := newTestApp(t)

	movie, err := store.CreateMovie(t.Context(), db.Movie{Title: "My Neighbor Totoro", Year: "1988"})
	require.NoError(t, err)
	other, err := store.CreateMovie(t.Context(), db.Movie{Title: "WALL-E", Year: "2008"})
	require.NoError(t, err)

	client := newClient(t)
	signIn(t, client, srv.URL)
	editURL := fmt.Sprintf("%s/movie/edit/%d", srv.URL, movie.ID)

	code, body := get(t, client, editURL)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `value="My Neighbor Totoro"`)
	assert.Contains(t, body, `value="1988"`)

	_, body = postForm(t, client, editURL, movieForm("Tonari no Totoro", "1988"))
	assert.Contains(t, body, "Item updated.")

	// Applying the same edit twice yields the same state.
	_, body = postForm(t, client, editURL, movieForm("Tonari no Totoro", "1988"))
	assert.Contains(t, body, "Item updated.")

	updated, err := store.GetMovie(t.Context(), movie.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tonari no Totoro", updated.Title)

	untouched, err := store.GetMovie(t.Context(), other.ID)
	require.NoError(t, err)
	assert.Equal(t, other, untouched)
}

func TestEditMovieValidation(t *testing.T) {
	t.Parallel()
	srv, store := newTestApp(t)

	movie, err := store.CreateMovie(t.Context(), db.Movie{Title: "My Neighbor Totoro", Year: "1988"})
	require.NoError(t, err)

	client := newClient(t)
	signIn(t, client, srv.URL)
	editPath := fmt.Sprintf("/movie/edit/%d", movie.ID)

	// The failed edit redirects back to the same form, keeping the
	// visitor's place.
	resp, err := noFollow(client).PostForm(srv.URL+editPath, movieForm("", "1988"))
	require.NoError(t, err)
	resp.Body.Close() //nolint:errcheck // no body expected
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, editPath, resp.Header.Get("Location"))

	_, body := get(t, client, srv.URL+editPath)
	assert.Contains(t, body, "Invalid input.")

	unchanged, err := store.GetMovie(t.Context(), movie.ID)
	require.NoError(t, err)
	assert.Equal(t, movie, unchanged)
}

func TestEditMovieNotFound(t *testing.T) {
	t.Parallel()
	srv, _ := newTestApp(t)

	client := newClient(t)
	signIn(t, client, srv.URL)

	code, body := get(t, client, srv.URL+"/movie/edit/42")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, body, "Page Not Found - 404")

	code, body = postForm(t, client, srv.URL+"/movie/edit/42", movieForm("X", "2020"))
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, body, "Page Not Found - 404")

	// Malformed IDs are not-found too.
	code, _ = get(t, client, srv.URL+"/movie/edit/not-a-number")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestDeleteMovie(t *testing.T) {
	t.Parallel()
	srv, store := newTestApp(t)

	movie, err := store.CreateMovie(t.Context(), db.Movie{Title: "My Neighbor Totoro", Year: "1988"})
	require.NoError(t, err)
	other, err := store.CreateMovie(t.Context(), db.Movie{Title: "WALL-E", Year: "2008"})
	require.NoError(t, err)

	client := newClient(t)
	signIn(t, client, srv.URL)

	_, body := postForm(t, client, fmt.Sprintf("%s/movie/delete/%d", srv.URL, movie.ID), nil)
	assert.Contains(t, body, "Item deleted.")
	assert.NotContains(t, body, "My Neighbor Totoro")

	code, _ := postForm(t, client, srv.URL+"/movie/delete/42", nil)
	assert.Equal(t, http.StatusNotFound, code)

	movies, err := store.ListMovies(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []db.Movie{other}, movies)
}

func TestSettings(t *testing.T) {
	t.Parallel()
	srv, store := newTestApp(t)

	client := newClient(t)
	signIn(t, client, srv.URL)

	code, body := get(t, client, srv.URL+"/settings")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `value="Grey Li"`)

	_, body = postForm(t, client, srv.URL+"/settings", url.Values{"name": {"Totoro Fan"}})
	assert.Contains(t, body, "Settings updated.")
	assert.Contains(t, body, "Totoro Fan's Watchlist")

	for _, name := range []string{"", "this display name is way over twenty characters"} {
		_, body = postForm(t, client, srv.URL+"/settings", url.Values{"name": {name}})
		assert.Contains(t, body, "Invalid input.")
	}

	admin, err := store.GetAdmin(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "Totoro Fan", admin.Name)
}

func TestLogin(t *testing.T) {
	t.Parallel()
	srv, _ := newTestApp(t)

	t.Run("empty fields", func(t *testing.T) {
		t.Parallel()
		client := newClient(t)
		_, body := postForm(t, client, srv.URL+"/login", url.Values{
			"username": {""}, "password": {""},
		})
		assert.Contains(t, body, "Invalid input.")
	})

	t.Run("generic failure message", func(t *testing.T) {
		t.Parallel()

		// A wrong username and a wrong password must be indistinguishable.
		clientA := newClient(t)
		_, bodyWrongUser := postForm(t, clientA, srv.URL+"/login", url.Values{
			"username": {"someone-else"}, "password": {testPassword},
		})
		clientB := newClient(t)
		_, bodyWrongPass := postForm(t, clientB, srv.URL+"/login", url.Values{
			"username": {testUsername}, "password": {"wrong"},
		})

		assert.Contains(t, bodyWrongUser, "Invalid username or password.")
		assert.Equal(t, bodyWrongUser, bodyWrongPass)

		// Neither attempt signed anybody in.
		_, body := get(t, clientA, srv.URL+"/")
		assert.NotContains(t, body, "Logout")
	})

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		client := newClient(t)
		signIn(t, client, srv.URL)

		_, body := get(t, client, srv.URL+"/")
		assert.Contains(t, body, "Logout")
		assert.Contains(t, body, "Settings")
	})
}

func TestLogout(t *testing.T) {
	t.Parallel()
	srv, _ := newTestApp(t)

	client := newClient(t)
	signIn(t, client, srv.URL)

	_, body := get(t, client, srv.URL+"/logout")
	assert.Contains(t, body, "Goodbye.")
	assert.NotContains(t, body, "Logout")

	// Anonymous logout is a silent redirect home, like every other
	// protected path.
	resp, err := noFollow(newClient(t)).Get(srv.URL + "/logout")
	require.NoError(t, err)
	resp.Body.Close() //nolint:errcheck // no body expected
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestProtectedPathsRedirectAnonymous(t *testing.T) {
	t.Parallel()
	srv, store := newTestApp(t)

	movie, err := store.CreateMovie(t.Context(), db.Movie{Title: "Leon", Year: "1994"})
	require.NoError(t, err)

	client := noFollow(newClient(t))
	paths := []struct {
		method, path string
	}{
		{http.MethodGet, fmt.Sprintf("/movie/edit/%d", movie.ID)},
		{http.MethodPost, fmt.Sprintf("/movie/edit/%d", movie.ID)},
		{http.MethodPost, fmt.Sprintf("/movie/delete/%d", movie.ID)},
		{http.MethodGet, "/settings"},
		{http.MethodPost, "/settings"},
	}
	for _, p := range paths {
		req, err := http.NewRequestWithContext(t.Context(), p.method, srv.URL+p.path, nil)
		require.NoError(t, err)
		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close() //nolint:errcheck // no body expected
		assert.Equal(t, http.StatusFound, resp.StatusCode, "%s %s", p.method, p.path)
		assert.Equal(t, "/", resp.Header.Get("Location"), "%s %s", p.method, p.path)
	}
}

func TestNotFoundPage(t *testing.T) {
	t.Parallel()
	srv, _ := newTestApp(t)

	code, body := get(t, newClient(t), srv.URL+"/no/such/page")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, body, "Page Not Found - 404")
	assert.Contains(t, body, "Grey Li's Watchlist")
}
