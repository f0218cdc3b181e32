package api

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/galleryapp/gallery-server/internal/color"
	"github.com/galleryapp/gallery-server/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// pages lists the page templates; each is parsed together with base.html.
var pages = []string{"index", "upload", "signup", "login", "error"}

var templateFuncs = template.FuncMap{
	"color": color.ForName,
}

// parseTemplates parses every page once at startup.
func parseTemplates() (map[string]*template.Template, error) {
	out := make(map[string]*template.Template, len(pages))
	for _, name := range pages {
		tmpl, err := template.New(name).Funcs(templateFuncs).ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		out[name] = tmpl
	}
	return out, nil
}

// pageData is the data every page template receives.
type pageData struct {
	User    *domain.User
	IsAdmin bool
	Flashes []Flash
	Device  string

	// index
	Images   []imageView
	Tags     []*domain.Tag
	Sort     string
	Category string

	// login
	Next string

	// signup
	Form map[string]string

	// error
	Heading string
	Message string
}

// imageView adds resolved media URLs to an image.
type imageView struct {
	*domain.Image
	URL      string
	ThumbURL string
}

// newPage fills the fields shared by every page and consumes the flashes.
func (s *Server) newPage(w http.ResponseWriter, r *http.Request) *pageData {
	user := currentUser(r.Context())
	return &pageData{
		User:    user,
		IsAdmin: user.IsAdmin(),
		Flashes: s.popFlashes(w, r),
		Form:    map[string]string{},
	}
}

// render executes a page template. Output is buffered so a template error
// still yields a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data *pageData) {
	tmpl, ok := s.templates[name]
	if !ok {
		s.log(r).Error("Unknown template", "name", name)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		s.log(r).Error("Failed to execute template", "name", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderError renders the error page with the given status.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	data := s.newPage(w, r)
	data.Heading = http.StatusText(status)
	data.Message = message
	s.render(w, r, status, "error", data)
}
