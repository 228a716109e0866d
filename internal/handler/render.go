package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/dukerupert/notepad/internal/model"
)

// UpdatedLayout is how note cards show their last update.
const UpdatedLayout = "1/2/2006 03:04 PM"

var templateFuncs = template.FuncMap{
	"priorityClass": func(p model.Priority) string {
		return "priority-" + string(model.ParsePriority(string(p)))
	},
	// Server times arrive in the API's zone; cards all show local time.
	"formatUpdated": func(t time.Time) string {
		return t.Local().Format(UpdatedLayout)
	},
	"noteURL": func(id, action string) string {
		u := "/notes/" + url.PathEscape(id)
		if action != "" {
			u += "/" + action
		}
		return u
	},
	"priorities": func() []model.Priority {
		return model.Priorities
	},
}

// part is one named template rendered into a multi-fragment HTMX response.
type part struct {
	name string
	data any
}

// Renderer executes the embedded templates.
type Renderer struct {
	templates *template.Template
	logger    *slog.Logger
}

// NewRenderer parses templates/*.html from fsys.
func NewRenderer(fsys fs.FS, logger *slog.Logger) (*Renderer, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(fsys, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{templates: tmpl, logger: logger}, nil
}

// render executes every part into a buffer first so a template error still
// produces a clean 500.
func (rd *Renderer) render(w http.ResponseWriter, status int, parts ...part) {
	var buf bytes.Buffer
	for _, p := range parts {
		if err := rd.templates.ExecuteTemplate(&buf, p.name, p.data); err != nil {
			rd.logger.Error("template error", "template", p.name, "error", err)
			http.Error(w, "template error", http.StatusInternalServerError)
			return
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// redirect sends the browser to target, using HX-Redirect for HTMX requests.
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// toasts drops zero-value toasts.
func toasts(ts ...model.Toast) []model.Toast {
	out := make([]model.Toast, 0, len(ts))
	for _, t := range ts {
		if !t.IsZero() {
			out = append(out, t)
		}
	}
	return out
}
