// Package app contains the web front-end.
package app

import (
	"embed"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/stolasapp/watchlist/internal/config"
	"github.com/stolasapp/watchlist/internal/sec"
	"github.com/stolasapp/watchlist/internal/storage"
)

//go:embed static
var staticFiles embed.FS

// New creates the web front-end server.
func New(cfg *config.Config, logger *slog.Logger, store storage.Store) (*echo.Echo, error) {
	secret, err := cfg.SecretBytes()
	if err != nil {
		return nil, err
	}
	renderer, err := newRenderer()
	if err != nil {
		return nil, err
	}

	srv := echo.New()

	srv.HideBanner = true
	srv.HidePort = true
	srv.Logger.SetLevel(log.OFF)
	srv.Renderer = renderer

	if cfg.DevMode {
		srv.Debug = true
		srv.Use(logRequests(logger))
	}

	srv.Use(
		middleware.Recover(),
		middleware.Secure(),
		middleware.RequestID(),
		sec.Middleware(secret),
		sec.ResolveUser(store),
	)

	h := handler{store: store}
	srv.HTTPErrorHandler = errorHandler(logger, h)
	h.register(srv)

	staticFS := echo.MustSubFS(staticFiles, "static")
	srv.StaticFS("/static/", staticFS)
	srv.FileFS("/robots.txt", "robots.txt", staticFS)
	return srv, nil
}

// errorHandler renders the custom not-found page for 404s and a plain status
// line for anything else.
func errorHandler(logger *slog.Logger, h handler) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			code = httpErr.Code
		}

		if code == http.StatusNotFound {
			if renderErr := h.renderStatus(c, code, "404.html", pageData{}); renderErr == nil {
				return
			}
		}
		if code >= http.StatusInternalServerError {
			logger.ErrorContext(c.Request().Context(), "request failed",
				slog.Int("status", code),
				slog.Any("error", err),
			)
		}
		_ = c.String(code, http.StatusText(code))
	}
}

func logRequests(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			latency := time.Since(start)

			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			attrs := []slog.Attr{
				slog.String("method", req.Method),
				slog.String("uri", req.RequestURI),
				slog.String("route", c.Path()),
				slog.Duration("latency", latency),
				slog.Int("status", res.Status),
			}
			if err != nil {
				attrs = append(attrs, slog.Any("error", err))
			}
			logger.LogAttrs(
				req.Context(),
				slog.LevelDebug,
				"request handled",
				attrs...,
			)
			return err
		}
	}
}
