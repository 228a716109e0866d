package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/notepad/internal/auth"
	"github.com/dukerupert/notepad/internal/model"
	"github.com/dukerupert/notepad/internal/notepad"
)

type pageData struct {
	Title      string
	Toasts     []model.Toast
	LiveSync   bool
	View       notepad.View
	Dialog     notepad.Dialog
	Priorities []model.Priority
}

type NotePadHandler struct {
	pads   *notepad.Registry
	render *Renderer
	logger *slog.Logger
}

func NewNotePadHandler(pads *notepad.Registry, rd *Renderer, logger *slog.Logger) *NotePadHandler {
	return &NotePadHandler{pads: pads, render: rd, logger: logger}
}

// pad returns the session's pad. The toast is non-zero only when this request
// triggered the initial load.
func (h *NotePadHandler) pad(w http.ResponseWriter, r *http.Request) (*notepad.Pad, model.Toast, bool) {
	sc, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil, model.Toast{}, false
	}
	p, t := h.pads.Get(r.Context(), sc.Key())
	return p, t, true
}

// list renders the note list with toasts appended out of band, plus any
// extra fragments.
func (h *NotePadHandler) list(w http.ResponseWriter, p *notepad.Pad, ts []model.Toast, extra ...part) {
	parts := []part{{"note-list", p.View()}}
	parts = append(parts, extra...)
	parts = append(parts, part{"toasts-oob", ts})
	h.render.render(w, http.StatusOK, parts...)
}

func (h *NotePadHandler) Page(w http.ResponseWriter, r *http.Request) {
	flash := takeFlash(w, r)
	p, loaded, ok := h.pad(w, r)
	if !ok {
		return
	}
	h.render.render(w, http.StatusOK, part{"notepad.html", pageData{
		Title:      "Dojo LoM",
		Toasts:     toasts(append(flash, loaded)...),
		LiveSync:   true,
		View:       p.View(),
		Dialog:     p.Dialog(),
		Priorities: model.Priorities,
	}})
}

func (h *NotePadHandler) List(w http.ResponseWriter, r *http.Request) {
	p, loaded, ok := h.pad(w, r)
	if !ok {
		return
	}
	h.list(w, p, toasts(loaded))
}

func (h *NotePadHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	p, loaded, ok := h.pad(w, r)
	if !ok {
		return
	}
	// A first access already fetched; refreshing again would only repeat it.
	if !loaded.IsZero() {
		h.list(w, p, toasts(loaded))
		return
	}
	h.list(w, p, toasts(p.Refresh(r.Context())))
}

func (h *NotePadHandler) Search(w http.ResponseWriter, r *http.Request) {
	p, loaded, ok := h.pad(w, r)
	if !ok {
		return
	}
	t := p.SetSearch(r.URL.Query().Get("q"))
	h.list(w, p, toasts(loaded, t))
}

func (h *NotePadHandler) Filter(w http.ResponseWriter, r *http.Request) {
	p, loaded, ok := h.pad(w, r)
	if !ok {
		return
	}
	t := p.SetPriorityFilter(r.URL.Query().Get("priority"))
	h.list(w, p, toasts(loaded, t))
}

func (h *NotePadHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	p, _, ok := h.pad(w, r)
	if !ok {
		return
	}
	h.render.render(w, http.StatusOK, part{"note-dialog", p.OpenCreate()})
}

func (h *NotePadHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	p, _, ok := h.pad(w, r)
	if !ok {
		return
	}
	d, err := p.OpenEdit(r.PathValue("id"))
	if err != nil {
		http.Error(w, "note not found", http.StatusNotFound)
		return
	}
	h.render.render(w, http.StatusOK, part{"note-dialog", d})
}

func (h *NotePadHandler) CloseDialog(w http.ResponseWriter, r *http.Request) {
	p, _, ok := h.pad(w, r)
	if !ok {
		return
	}
	p.CloseDialog()
	w.WriteHeader(http.StatusOK)
}

// Create saves a new note. A request without an open create dialog opens one
// first, so plain form posts work too.
func (h *NotePadHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, _, ok := h.pad(w, r)
	if !ok {
		return
	}
	if d := p.Dialog(); !d.Open || d.Editing() {
		p.OpenCreate()
	}
	h.save(w, r, p)
}

// Update saves the note named in the path, retargeting the dialog if needed.
func (h *NotePadHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, _, ok := h.pad(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if d := p.Dialog(); !d.Open || !d.Editing() || d.Selected.ID != id {
		if _, err := p.OpenEdit(id); err != nil {
			http.Error(w, "note not found", http.StatusNotFound)
			return
		}
	}
	h.save(w, r, p)
}

func (h *NotePadHandler) save(w http.ResponseWriter, r *http.Request, p *notepad.Pad) {
	draft := draftFromForm(r)
	t, err := p.Save(r.Context(), draft)
	switch {
	case err == nil:
	case errors.Is(err, notepad.ErrTitleRequired):
		// The dialog stays open with what was typed.
		d := p.Dialog()
		d.Draft = draft
		if !isHTMX(r) {
			http.Error(w, "title is required", http.StatusBadRequest)
			return
		}
		w.Header().Set("HX-Retarget", "#note-dialog")
		w.Header().Set("HX-Reswap", "innerHTML")
		h.render.render(w, http.StatusOK, part{"note-dialog", d})
		return
	case errors.Is(err, notepad.ErrNoteNotFound):
		http.Error(w, "note not found", http.StatusNotFound)
		return
	default:
		h.logger.Error("save note", "error", err)
		http.Error(w, "failed to save note", http.StatusInternalServerError)
		return
	}
	h.list(w, p, toasts(t), part{"note-dialog-oob", p.Dialog()})
}

func (h *NotePadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, _, ok := h.pad(w, r)
	if !ok {
		return
	}
	t, err := p.Delete(r.Context(), r.PathValue("id"))
	if errors.Is(err, notepad.ErrNoteNotFound) {
		http.Error(w, "note not found", http.StatusNotFound)
		return
	}
	h.list(w, p, toasts(t))
}

func (h *NotePadHandler) ToggleReminder(w http.ResponseWriter, r *http.Request) {
	p, _, ok := h.pad(w, r)
	if !ok {
		return
	}
	t, err := p.ToggleReminder(r.PathValue("id"))
	if errors.Is(err, notepad.ErrNoteNotFound) {
		http.Error(w, "note not found", http.StatusNotFound)
		return
	}
	h.list(w, p, toasts(t))
}

type notesResponse struct {
	Notes    []model.Note `json:"notes"`
	Total    int          `json:"total"`
	Query    string       `json:"query"`
	Priority string       `json:"priority"`
}

// Notes serves the visible notes as JSON.
func (h *NotePadHandler) Notes(w http.ResponseWriter, r *http.Request) {
	p, _, ok := h.pad(w, r)
	if !ok {
		return
	}
	v := p.View()
	writeJSON(w, http.StatusOK, notesResponse{
		Notes:    v.Notes,
		Total:    v.Total,
		Query:    v.Filter.Query,
		Priority: v.Filter.Priority,
	})
}

func draftFromForm(r *http.Request) notepad.Draft {
	d := notepad.Draft{
		Title:    r.FormValue("title"),
		Content:  r.FormValue("content"),
		Priority: model.Priority(r.FormValue("priority")),
	}
	switch r.FormValue("reminder") {
	case "on", "true", "1":
		d.HasReminder = true
	}
	return d
}
