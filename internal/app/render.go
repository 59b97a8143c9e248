package app

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/stolasapp/watchlist/internal/storage/db"
)

//go:embed templates/*.html
var templateFiles embed.FS

// pageData is the payload every template receives. User is the owner account
// (for the page header, whether or not anyone is signed in); LoggedIn reports
// the session state; Flashes are the pending one-time messages.
type pageData struct {
	User     db.User
	LoggedIn bool
	Flashes  []string
	Movies   []db.Movie
	Movie    db.Movie
}

// renderer satisfies [echo.Renderer] over the embedded template set. Each
// page is parsed together with the shared base layout.
type renderer struct {
	pages map[string]*template.Template
}

func newRenderer() (*renderer, error) {
	pages := []string{"index.html", "edit.html", "settings.html", "login.html", "404.html"}
	r := &renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		t, err := template.ParseFS(templateFiles, "templates/base.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", page, err)
		}
		r.pages[page] = t
	}
	return r, nil
}

var renderBufferPool = sync.Pool{
	New: func() any {
		return &bytes.Buffer{}
	},
}

// Render satisfies [echo.Renderer]. Pages are rendered to a pooled buffer
// first so a template error never produces a half-written response.
func (r *renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}

	buf := renderBufferPool.Get().(*bytes.Buffer) //nolint:forcetypeassert // guaranteed by impl
	defer renderBufferPool.Put(buf)
	buf.Reset()

	if err := t.ExecuteTemplate(buf, "base", data); err != nil {
		return err
	}
	_, err := io.Copy(w, buf)
	return err
}
