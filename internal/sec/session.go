package sec

import (
	"context"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/stolasapp/watchlist/internal/storage"
	"github.com/stolasapp/watchlist/internal/storage/db"
)

// SessionName is the cookie holding the signed session.
const SessionName = "watchlist"

const userIDKey = "user_id"

type userContextKey struct{}

// Middleware installs a signed cookie session store keyed with secret. It
// must run before [ResolveUser] and any handler touching the session.
func Middleware(secret []byte) echo.MiddlewareFunc {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30, //nolint:mnd // thirty days
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return session.Middleware(store)
}

// ResolveUser returns middleware that resolves the session cookie to the
// owner account and threads it through the request context. A missing,
// invalid, or forged session simply leaves the request anonymous.
func ResolveUser(users storage.Users) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, err := session.Get(SessionName, c)
			if err != nil {
				return next(c)
			}
			id, ok := sess.Values[userIDKey].(uint64)
			if !ok {
				return next(c)
			}
			user, err := users.GetAdmin(c.Request().Context())
			if err != nil || user.ID != id {
				return next(c)
			}
			ctx := WithUser(c.Request().Context(), user)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// SignIn records the user's ID in the session, transitioning it to the
// authenticated state.
func SignIn(c echo.Context, user db.User) error {
	sess, err := session.Get(SessionName, c)
	if err != nil {
		return err
	}
	sess.Values[userIDKey] = user.ID
	return sess.Save(c.Request(), c.Response())
}

// SignOut drops the user's ID from the session, transitioning it to the
// anonymous state. Other session values (such as pending flash messages)
// survive.
func SignOut(c echo.Context) error {
	sess, err := session.Get(SessionName, c)
	if err != nil {
		return err
	}
	delete(sess.Values, userIDKey)
	return sess.Save(c.Request(), c.Response())
}

// WithUser returns a context carrying the signed-in user.
func WithUser(ctx context.Context, user db.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFrom returns the signed-in user for the request, if any.
func UserFrom(ctx context.Context) (db.User, bool) {
	user, ok := ctx.Value(userContextKey{}).(db.User)
	return user, ok
}
