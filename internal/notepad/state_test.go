package notepad

import (
	"testing"
	"time"

	"github.com/dukerupert/notepad/internal/model"
)

func TestParseFilterPriority(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"high", "high"},
		{" LOW ", "low"},
		{"all", FilterAll},
		{"", FilterAll},
		{"urgent", FilterAll},
	}
	for _, tt := range tests {
		if got := ParseFilterPriority(tt.in); got != tt.want {
			t.Errorf("ParseFilterPriority(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFromRecordsCaps(t *testing.T) {
	now := time.Now()
	notes := fromRecords(records(12), now)
	if len(notes) != MaxNotes {
		t.Fatalf("len = %d, want %d", len(notes), MaxNotes)
	}
	if notes[0].ID != "1" || notes[9].ID != "10" {
		t.Errorf("ids = %q..%q, want 1..10", notes[0].ID, notes[9].ID)
	}
}

func TestHelpersDoNotMutate(t *testing.T) {
	orig := []model.Note{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}}

	replace(orig, model.Note{ID: "a", Title: "changed"})
	remove(orig, "a")
	prepend(orig, model.Note{ID: "c"})

	if orig[0].Title != "A" || len(orig) != 2 {
		t.Errorf("orig = %+v", orig)
	}
}

func TestDraftNormalize(t *testing.T) {
	d, err := Draft{Title: "  Hi  ", Content: " body ", Priority: "HIGH"}.Normalize()
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if d.Title != "Hi" || d.Content != "body" || d.Priority != model.PriorityHigh {
		t.Errorf("draft = %+v", d)
	}
	if _, err := (Draft{Title: "\t"}).Normalize(); err != ErrTitleRequired {
		t.Errorf("err = %v, want ErrTitleRequired", err)
	}
}

func TestNewDraft(t *testing.T) {
	if d := NewDraft(nil); d.Priority != model.PriorityMedium || d.Title != "" {
		t.Errorf("blank draft = %+v", d)
	}
	n := model.Note{Title: "T", Content: "C", Priority: model.PriorityLow, HasReminder: true}
	d := NewDraft(&n)
	if d.Title != "T" || d.Content != "C" || d.Priority != model.PriorityLow || !d.HasReminder {
		t.Errorf("draft = %+v", d)
	}
}
