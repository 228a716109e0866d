package notepad

import (
	"errors"
	"strings"

	"github.com/dukerupert/notepad/internal/model"
	"github.com/dukerupert/notepad/internal/notesapi"
)

var ErrTitleRequired = errors.New("title is required")

// Draft holds the editor dialog's mutable fields.
type Draft struct {
	Title       string
	Content     string
	Priority    model.Priority
	HasReminder bool
}

// NewDraft initializes the editor fields from n, or blank defaults when n is nil.
func NewDraft(n *model.Note) Draft {
	if n == nil {
		return Draft{Priority: model.PriorityMedium}
	}
	return Draft{
		Title:       n.Title,
		Content:     n.Content,
		Priority:    n.Priority,
		HasReminder: n.HasReminder,
	}
}

// Normalize trims the text fields and resolves the priority. A blank title
// returns ErrTitleRequired.
func (d Draft) Normalize() (Draft, error) {
	d.Title = strings.TrimSpace(d.Title)
	d.Content = strings.TrimSpace(d.Content)
	d.Priority = model.ParsePriority(string(d.Priority))
	if d.Title == "" {
		return d, ErrTitleRequired
	}
	return d, nil
}

func (d Draft) payload() notesapi.Payload {
	return notesapi.Payload{
		Title:    d.Title,
		Note:     d.Content,
		Priority: string(d.Priority),
		Reminder: d.HasReminder,
	}
}

// Dialog is the editor's open state. Selected is nil when creating.
type Dialog struct {
	Open     bool
	Selected *model.Note
	Draft    Draft
}

// Editing reports whether the dialog targets an existing note.
func (d Dialog) Editing() bool {
	return d.Selected != nil
}
