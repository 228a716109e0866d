package model

type ToastVariant string

const (
	ToastDefault     ToastVariant = "default"
	ToastDestructive ToastVariant = "destructive"
)

// Toast is a transient user-facing notification describing an outcome.
type Toast struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Variant     ToastVariant `json:"variant"`
}

func InfoToast(title, description string) Toast {
	return Toast{Title: title, Description: description, Variant: ToastDefault}
}

func ErrorToast(title, description string) Toast {
	return Toast{Title: title, Description: description, Variant: ToastDestructive}
}

// IsZero reports whether t carries no notification.
func (t Toast) IsZero() bool {
	return t.Title == "" && t.Description == ""
}
