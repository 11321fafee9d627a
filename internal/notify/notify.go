package notify

import "github.com/google/uuid"

// Kind classifies a toast.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Toast is one transient notification shown to the user. Each completed
// operation emits exactly one.
type Toast struct {
	ID      string `json:"id"`
	Kind    Kind   `json:"kind"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Notifier receives toasts. The websocket hub implements it for the real
// app; tests substitute a recorder.
type Notifier interface {
	Notify(t Toast)
}

// Success builds a success toast with a fresh ID.
func Success(title, message string) Toast {
	return Toast{ID: uuid.NewString(), Kind: KindSuccess, Title: title, Message: message}
}

// Failure builds an error toast with a fresh ID.
func Failure(title, message string) Toast {
	return Toast{ID: uuid.NewString(), Kind: KindError, Title: title, Message: message}
}
