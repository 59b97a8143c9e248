package app

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/stolasapp/watchlist/internal/sec"
	"github.com/stolasapp/watchlist/internal/storage"
	"github.com/stolasapp/watchlist/internal/storage/db"
)

// Field limits for form input.
const (
	maxTitleLen = 60
	maxYearLen  = 4
	maxNameLen  = 20
)

// One-time messages shown after a redirect.
const (
	msgInvalidInput    = "Invalid input."
	msgCreated         = "Item created."
	msgUpdated         = "Item updated."
	msgDeleted         = "Item deleted."
	msgSettingsUpdated = "Settings updated."
	msgLoginSuccess    = "Login success."
	msgLoginFailed     = "Invalid username or password."
	msgGoodbye         = "Goodbye."
)

type handler struct {
	store storage.Store
}

func (h handler) register(e *echo.Echo) {
	e.GET("/", h.index)
	e.POST("/", h.createMovie)

	movie := e.Group("/movie")
	movie.GET("/edit/:id", h.editMovieForm)
	movie.POST("/edit/:id", h.editMovie)
	movie.POST("/delete/:id", h.deleteMovie)

	e.GET("/settings", h.settingsForm)
	e.POST("/settings", h.updateSettings)
	e.GET("/login", h.loginForm)
	e.POST("/login", h.login)
	e.GET("/logout", h.logout)
}

func (h handler) index(c echo.Context) error {
	movies, err := h.store.ListMovies(c.Request().Context())
	if err != nil {
		return err
	}
	return h.render(c, "index.html", pageData{Movies: movies})
}

func (h handler) createMovie(c echo.Context) error {
	// Anonymous posts to protected paths bounce to the index without a
	// flash; the page never offers these forms to anonymous visitors, so
	// there is nobody to message. Debatable UX, but deliberate.
	if _, ok := sec.UserFrom(c.Request().Context()); !ok {
		return c.Redirect(http.StatusFound, "/")
	}

	title := c.FormValue("title")
	year := c.FormValue("year")
	if !validMovieInput(title, year) {
		flash(c, msgInvalidInput)
		return c.Redirect(http.StatusFound, "/")
	}

	if _, err := h.store.CreateMovie(c.Request().Context(), db.Movie{
		Title: title,
		Year:  year,
	}); err != nil {
		return err
	}
	flash(c, msgCreated)
	return c.Redirect(http.StatusFound, "/")
}

func (h handler) editMovieForm(c echo.Context) error {
	if _, ok := sec.UserFrom(c.Request().Context()); !ok {
		return c.Redirect(http.StatusFound, "/")
	}
	movie, err := h.movieFromPath(c)
	if err != nil {
		return err
	}
	return h.render(c, "edit.html", pageData{Movie: movie})
}

func (h handler) editMovie(c echo.Context) error {
	if _, ok := sec.UserFrom(c.Request().Context()); !ok {
		return c.Redirect(http.StatusFound, "/")
	}
	movie, err := h.movieFromPath(c)
	if err != nil {
		return err
	}

	title := c.FormValue("title")
	year := c.FormValue("year")
	if !validMovieInput(title, year) {
		flash(c, msgInvalidInput)
		// Back to the same form so the visitor keeps their place.
		return c.Redirect(http.StatusFound, fmt.Sprintf("/movie/edit/%d", movie.ID))
	}

	movie.Title = title
	movie.Year = year
	if err := h.store.UpdateMovie(c.Request().Context(), movie); err != nil {
		return err
	}
	flash(c, msgUpdated)
	return c.Redirect(http.StatusFound, "/")
}

func (h handler) deleteMovie(c echo.Context) error {
	if _, ok := sec.UserFrom(c.Request().Context()); !ok {
		return c.Redirect(http.StatusFound, "/")
	}
	movie, err := h.movieFromPath(c)
	if err != nil {
		return err
	}

	if err := h.store.DeleteMovie(c.Request().Context(), movie.ID); err != nil {
		return err
	}
	flash(c, msgDeleted)
	return c.Redirect(http.StatusFound, "/")
}

func (h handler) settingsForm(c echo.Context) error {
	if _, ok := sec.UserFrom(c.Request().Context()); !ok {
		return c.Redirect(http.StatusFound, "/")
	}
	return h.render(c, "settings.html", pageData{})
}

func (h handler) updateSettings(c echo.Context) error {
	if _, ok := sec.UserFrom(c.Request().Context()); !ok {
		return c.Redirect(http.StatusFound, "/")
	}

	name := c.FormValue("name")
	if name == "" || utf8.RuneCountInString(name) > maxNameLen {
		flash(c, msgInvalidInput)
		return c.Redirect(http.StatusFound, "/settings")
	}

	if err := h.store.SetAdminName(c.Request().Context(), name); err != nil {
		return err
	}
	flash(c, msgSettingsUpdated)
	return c.Redirect(http.StatusFound, "/")
}

func (h handler) loginForm(c echo.Context) error {
	return h.render(c, "login.html", pageData{})
}

func (h handler) login(c echo.Context) error {
	username := c.FormValue("username")
	password := c.FormValue("password")
	if username == "" || password == "" {
		flash(c, msgInvalidInput)
		return c.Redirect(http.StatusFound, "/login")
	}

	// One generic message for every credential failure; the response never
	// reveals whether the username or the password was wrong.
	owner, err := h.store.GetAdmin(c.Request().Context())
	switch {
	case errors.Is(err, storage.ErrNotFound):
		flash(c, msgLoginFailed)
		return c.Redirect(http.StatusFound, "/login")
	case err != nil:
		return err
	}
	if username != owner.Username || sec.ComparePassword(password, owner.PasswordHash) != nil {
		flash(c, msgLoginFailed)
		return c.Redirect(http.StatusFound, "/login")
	}

	if err := sec.SignIn(c, owner); err != nil {
		return err
	}
	flash(c, msgLoginSuccess)
	return c.Redirect(http.StatusFound, "/")
}

func (h handler) logout(c echo.Context) error {
	if _, ok := sec.UserFrom(c.Request().Context()); !ok {
		return c.Redirect(http.StatusFound, "/")
	}
	if err := sec.SignOut(c); err != nil {
		return err
	}
	flash(c, msgGoodbye)
	return c.Redirect(http.StatusFound, "/")
}

// movieFromPath resolves the :id path parameter to a stored movie. Malformed
// and unknown IDs are both not-found, rendered as the custom 404 page.
func (h handler) movieFromPath(c echo.Context) (db.Movie, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return db.Movie{}, echo.ErrNotFound
	}
	movie, err := h.store.GetMovie(c.Request().Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		return db.Movie{}, echo.ErrNotFound
	}
	return movie, err
}

func validMovieInput(title, year string) bool {
	return title != "" && year != "" &&
		utf8.RuneCountInString(title) <= maxTitleLen &&
		utf8.RuneCountInString(year) <= maxYearLen
}

// render fills in the page chrome (owner name, session state, pending
// flashes) and renders the named template.
func (h handler) render(c echo.Context, name string, data pageData) error {
	return h.renderStatus(c, http.StatusOK, name, data)
}

func (h handler) renderStatus(c echo.Context, status int, name string, data pageData) error {
	if owner, err := h.store.GetAdmin(c.Request().Context()); err == nil {
		data.User = owner
	}
	_, data.LoggedIn = sec.UserFrom(c.Request().Context())
	data.Flashes = takeFlashes(c)
	return c.Render(status, name, data)
}

// flash queues a one-time message for the next rendered page.
func flash(c echo.Context, message string) {
	sess, err := session.Get(sec.SessionName, c)
	if err != nil {
		return
	}
	sess.AddFlash(message)
	_ = sess.Save(c.Request(), c.Response())
}

// takeFlashes returns the pending messages and clears them from the session.
func takeFlashes(c echo.Context) []string {
	sess, err := session.Get(sec.SessionName, c)
	if err != nil {
		return nil
	}
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	_ = sess.Save(c.Request(), c.Response())

	messages := make([]string, 0, len(raw))
	for _, v := range raw {
		if msg, ok := v.(string); ok {
			messages = append(messages, msg)
		}
	}
	return messages
}
