package model

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Priorities lists the priorities in display order.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// ParsePriority maps s to a known priority, defaulting to medium.
func ParsePriority(s string) Priority {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityHigh:
		return PriorityHigh
	case PriorityLow:
		return PriorityLow
	default:
		return PriorityMedium
	}
}

func (p Priority) Label() string {
	switch p {
	case PriorityHigh:
		return "High"
	case PriorityLow:
		return "Low"
	default:
		return "Medium"
	}
}

const (
	DefaultTitle   = "Untitled Note"
	DefaultContent = "No content available"
)

type Note struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Priority    Priority  `json:"priority"`
	HasReminder bool      `json:"hasReminder"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewNote builds a locally created note. CreatedAt and UpdatedAt are both now.
func NewNote(id, title, content string, priority Priority, hasReminder bool, now time.Time) Note {
	return Note{
		ID:          id,
		Title:       title,
		Content:     content,
		Priority:    priority,
		HasReminder: hasReminder,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// FallbackNote is shown when the initial fetch from the notes API fails.
func FallbackNote(now time.Time) Note {
	return Note{
		ID:          "1",
		Title:       "Welcome Note",
		Content:     "Failed to load notes from server. This is a sample note. Please check your API connection.",
		Priority:    PriorityHigh,
		HasReminder: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Record is a note as returned by the remote notes API. Field names vary
// between API versions, so several aliases are accepted.
type Record struct {
	ID          json.RawMessage `json:"id"`
	Title       Text            `json:"title"`
	Note        Text            `json:"note"`
	Content     Text            `json:"content"`
	Body        Text            `json:"body"`
	Priority    Text            `json:"priority"`
	HasReminder Flag            `json:"hasReminder"`
	Reminder    Flag            `json:"reminder"`
	CreatedAt   Text            `json:"created_at"`
	UpdatedAt   Text            `json:"updated_at"`
}

// ToNote converts the record into a Note. It is the only mapping from API data,
// used by both the initial load and refresh.
//
// CreatedAt and UpdatedAt come from created_at and updated_at when they parse;
// otherwise they fall back to now.
func (r Record) ToNote(now time.Time) Note {
	n := Note{
		ID:        r.id(),
		Title:     strings.TrimSpace(string(r.Title)),
		Content:   firstNonEmpty(r.Note, r.Content, r.Body),
		Priority:  ParsePriority(string(r.Priority)),
		CreatedAt: parseTimestamp(string(r.CreatedAt), now),
		UpdatedAt: parseTimestamp(string(r.UpdatedAt), now),
	}
	if n.Title == "" {
		n.Title = DefaultTitle
	}
	if n.Content == "" {
		n.Content = DefaultContent
	}
	if r.HasReminder.Set {
		n.HasReminder = r.HasReminder.Value
	} else {
		n.HasReminder = r.Reminder.Value
	}
	return n
}

func (r Record) id() string {
	raw := bytes.TrimSpace(r.ID)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		return num.String()
	}
	return string(raw)
}

func firstNonEmpty(vals ...Text) string {
	for _, v := range vals {
		if strings.TrimSpace(string(v)) != "" {
			return string(v)
		}
	}
	return ""
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(s string, fallback time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return fallback
}
