package notepad

import (
	"slices"
	"strings"
	"time"

	"github.com/dukerupert/notepad/internal/model"
)

// MaxNotes caps how many records a single fetch keeps.
const MaxNotes = 10

// FilterAll disables priority filtering.
const FilterAll = "all"

// Filter is the search query and priority filter applied to the collection.
type Filter struct {
	Query    string
	Priority string
}

// ParseFilterPriority returns a known priority or FilterAll.
func ParseFilterPriority(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, p := range model.Priorities {
		if s == string(p) {
			return s
		}
	}
	return FilterAll
}

// Match reports whether n contains the query in its title or content
// (case-insensitively) and has the selected priority.
func (f Filter) Match(n model.Note) bool {
	if f.Priority != "" && f.Priority != FilterAll && string(n.Priority) != f.Priority {
		return false
	}
	if f.Query == "" {
		return true
	}
	q := strings.ToLower(f.Query)
	return strings.Contains(strings.ToLower(n.Title), q) ||
		strings.Contains(strings.ToLower(n.Content), q)
}

// Apply returns the matching notes in collection order.
func (f Filter) Apply(notes []model.Note) []model.Note {
	out := make([]model.Note, 0, len(notes))
	for _, n := range notes {
		if f.Match(n) {
			out = append(out, n)
		}
	}
	return out
}

// The helpers below never modify their input slice.

// fromRecords keeps the first MaxNotes records in server order.
func fromRecords(records []model.Record, now time.Time) []model.Note {
	if len(records) > MaxNotes {
		records = records[:MaxNotes]
	}
	notes := make([]model.Note, 0, len(records))
	for _, r := range records {
		notes = append(notes, r.ToNote(now))
	}
	return notes
}

func prepend(notes []model.Note, n model.Note) []model.Note {
	out := make([]model.Note, 0, len(notes)+1)
	out = append(out, n)
	return append(out, notes...)
}

func replace(notes []model.Note, n model.Note) []model.Note {
	out := slices.Clone(notes)
	for i := range out {
		if out[i].ID == n.ID {
			out[i] = n
		}
	}
	return out
}

func remove(notes []model.Note, id string) []model.Note {
	out := make([]model.Note, 0, len(notes))
	for _, n := range notes {
		if n.ID != id {
			out = append(out, n)
		}
	}
	return out
}

func find(notes []model.Note, id string) (model.Note, bool) {
	for _, n := range notes {
		if n.ID == id {
			return n, true
		}
	}
	return model.Note{}, false
}
