package notepad

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/dukerupert/notepad/internal/model"
	"github.com/dukerupert/notepad/internal/notesapi"
)

var (
	ErrNoteNotFound = errors.New("note not found")
	ErrDialogClosed = errors.New("editor dialog is not open")
)

// API is the remote notes service.
type API interface {
	List(ctx context.Context) ([]model.Record, error)
	Create(ctx context.Context, p notesapi.Payload) error
	Update(ctx context.Context, id string, p notesapi.Payload) error
	Delete(ctx context.Context, id string) error
}

// View is a point-in-time copy of the pad for rendering.
type View struct {
	Notes   []model.Note
	Total   int
	Filter  Filter
	Loading bool
}

// Pad owns one session's in-memory note collection.
//
// Creates and edits are applied locally first and rolled back if the API call
// fails. Deletes wait for the API. Reminder toggles are local only.
type Pad struct {
	api      API
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
	onChange func(total int)
	sf       singleflight.Group

	mu      sync.Mutex
	notes   []model.Note
	filter  Filter
	dialog  Dialog
	loading int
}

func NewPad(api API, logger *slog.Logger) *Pad {
	return &Pad{
		api:    api,
		logger: logger,
		now:    time.Now,
		newID:  newNoteID,
		filter: Filter{Priority: FilterAll},
	}
}

func newNoteID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (p *Pad) changed() {
	if p.onChange == nil {
		return
	}
	p.mu.Lock()
	total := len(p.notes)
	p.mu.Unlock()
	p.onChange(total)
}

// fetch loads the first MaxNotes records. Concurrent callers share a single
// request so completions cannot overwrite each other out of order.
func (p *Pad) fetch(ctx context.Context) ([]model.Note, error) {
	ctx = context.WithoutCancel(ctx)
	v, err, _ := p.sf.Do("notes", func() (any, error) {
		p.mu.Lock()
		p.loading++
		p.mu.Unlock()
		defer func() {
			p.mu.Lock()
			p.loading--
			p.mu.Unlock()
		}()

		records, err := p.api.List(ctx)
		if err != nil {
			return nil, err
		}
		return fromRecords(records, p.now()), nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]model.Note)), nil
}

// Load performs the initial fetch. On failure the collection becomes a single
// fallback note.
func (p *Pad) Load(ctx context.Context) model.Toast {
	notes, err := p.fetch(ctx)
	if err != nil {
		p.logger.Warn("load notes", "error", err)
		p.mu.Lock()
		p.notes = []model.Note{model.FallbackNote(p.now())}
		p.mu.Unlock()
		p.changed()
		return model.ErrorToast("Connection Failed", "Could not load notes from server. Showing sample data.")
	}

	p.mu.Lock()
	p.notes = notes
	p.mu.Unlock()
	p.changed()
	return model.InfoToast("Notes Loaded", fmt.Sprintf("Successfully loaded %d notes from the server.", len(notes)))
}

// Refresh re-fetches the collection. On failure the collection is untouched.
func (p *Pad) Refresh(ctx context.Context) model.Toast {
	notes, err := p.fetch(ctx)
	if err != nil {
		p.logger.Warn("refresh notes", "error", err)
		return model.ErrorToast("Refresh Failed", "Could not refresh notes from server.")
	}

	p.mu.Lock()
	p.notes = notes
	p.mu.Unlock()
	p.changed()
	return model.InfoToast("Notes Refreshed", fmt.Sprintf("Successfully refreshed %d notes.", len(notes)))
}

// Notes returns the full collection.
func (p *Pad) Notes() []model.Note {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.notes)
}

// Visible returns the notes matching the current filter.
func (p *Pad) Visible() []model.Note {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filter.Apply(p.notes)
}

func (p *Pad) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return View{
		Notes:   p.filter.Apply(p.notes),
		Total:   len(p.notes),
		Filter:  p.filter,
		Loading: p.loading > 0,
	}
}

func (p *Pad) Filter() Filter {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filter
}

// SetSearch updates the query. A toast is returned only for non-blank queries.
func (p *Pad) SetSearch(q string) model.Toast {
	p.mu.Lock()
	p.filter.Query = q
	p.mu.Unlock()

	if strings.TrimSpace(q) != "" {
		return model.InfoToast("Search Applied", fmt.Sprintf("Searching for \"%s\"", q))
	}
	return model.Toast{}
}

// SetPriorityFilter selects a priority or FilterAll. Unknown values mean FilterAll.
func (p *Pad) SetPriorityFilter(s string) model.Toast {
	priority := ParseFilterPriority(s)
	p.mu.Lock()
	p.filter.Priority = priority
	p.mu.Unlock()

	if priority == FilterAll {
		return model.InfoToast("Filter Applied", "Showing all priorities")
	}
	return model.InfoToast("Filter Applied", fmt.Sprintf("Filtered by %s priority", priority))
}

// OpenCreate opens the editor with blank fields.
func (p *Pad) OpenCreate() Dialog {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dialog = Dialog{Open: true, Draft: NewDraft(nil)}
	return p.dialog
}

// OpenEdit opens the editor pre-filled from the note with the given id.
func (p *Pad) OpenEdit(id string) (Dialog, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n, ok := find(p.notes, id)
	if !ok {
		return Dialog{}, ErrNoteNotFound
	}
	p.dialog = Dialog{Open: true, Selected: &n, Draft: NewDraft(&n)}
	return p.dialog, nil
}

func (p *Pad) CloseDialog() {
	p.mu.Lock()
	p.dialog = Dialog{}
	p.mu.Unlock()
}

func (p *Pad) Dialog() Dialog {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dialog
}

// Save applies the draft to the dialog's target. A blank title leaves the
// dialog open and the collection unchanged. Any valid save closes the dialog,
// whatever the API outcome.
func (p *Pad) Save(ctx context.Context, d Draft) (model.Toast, error) {
	d, err := d.Normalize()
	if err != nil {
		return model.Toast{}, err
	}

	p.mu.Lock()
	if !p.dialog.Open {
		p.mu.Unlock()
		return model.Toast{}, ErrDialogClosed
	}
	selected := p.dialog.Selected
	p.dialog = Dialog{}
	p.mu.Unlock()

	if selected == nil {
		return p.create(ctx, d), nil
	}
	return p.update(ctx, selected.ID, d)
}

func (p *Pad) create(ctx context.Context, d Draft) model.Toast {
	n := model.NewNote(p.newID(), d.Title, d.Content, d.Priority, d.HasReminder, p.now())

	p.mu.Lock()
	p.notes = prepend(p.notes, n)
	p.mu.Unlock()
	p.changed()

	if err := p.api.Create(ctx, d.payload()); err != nil {
		p.logger.Warn("create note", "error", err)
		p.mu.Lock()
		p.notes = remove(p.notes, n.ID)
		p.mu.Unlock()
		p.changed()
		return model.ErrorToast("Error creating note", err.Error())
	}
	return model.InfoToast("Note created successfully!", n.Title)
}

func (p *Pad) update(ctx context.Context, id string, d Draft) (model.Toast, error) {
	p.mu.Lock()
	prev, ok := find(p.notes, id)
	if !ok {
		p.mu.Unlock()
		return model.Toast{}, ErrNoteNotFound
	}
	next := prev
	next.Title = d.Title
	next.Content = d.Content
	next.Priority = d.Priority
	next.HasReminder = d.HasReminder
	next.UpdatedAt = p.now()
	p.notes = replace(p.notes, next)
	p.mu.Unlock()
	p.changed()

	if err := p.api.Update(ctx, id, d.payload()); err != nil {
		p.logger.Warn("update note", "id", id, "error", err)
		p.mu.Lock()
		// Leave the note alone if it changed again while the call was in flight.
		if cur, ok := find(p.notes, id); ok && cur == next {
			p.notes = replace(p.notes, prev)
		}
		p.mu.Unlock()
		p.changed()
		return model.ErrorToast("Error updating note", err.Error()), nil
	}
	return model.InfoToast("Note updated successfully!", next.Title), nil
}

// Delete removes the note once the API confirms. On failure the note stays.
func (p *Pad) Delete(ctx context.Context, id string) (model.Toast, error) {
	p.mu.Lock()
	_, ok := find(p.notes, id)
	p.mu.Unlock()
	if !ok {
		return model.Toast{}, ErrNoteNotFound
	}

	if err := p.api.Delete(ctx, id); err != nil {
		p.logger.Warn("delete note", "id", id, "error", err)
		return model.ErrorToast("Delete Failed", "Could not delete the note. Please try again."), nil
	}

	p.mu.Lock()
	p.notes = remove(p.notes, id)
	p.mu.Unlock()
	p.changed()
	return model.InfoToast("Note deleted", "Your note has been successfully deleted."), nil
}

// ToggleReminder flips the reminder flag locally and bumps UpdatedAt.
func (p *Pad) ToggleReminder(id string) (model.Toast, error) {
	p.mu.Lock()
	n, ok := find(p.notes, id)
	if !ok {
		p.mu.Unlock()
		return model.Toast{}, ErrNoteNotFound
	}
	wasSet := n.HasReminder
	n.HasReminder = !wasSet
	n.UpdatedAt = p.now()
	p.notes = replace(p.notes, n)
	p.mu.Unlock()
	p.changed()

	if wasSet {
		return model.InfoToast("Reminder removed", "Reminder has been removed from this note."), nil
	}
	return model.InfoToast("Reminder set", "Reminder has been set for this note."), nil
}
