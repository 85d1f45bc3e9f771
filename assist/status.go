package assist

import (
	"context"
	"errors"
	"time"

	"github.com/nvello/feedpilot/backend"
)

// Status kinds.
const (
	StatusIdle    = "idle"
	StatusWorking = "working"
	StatusReady   = "ready"
	StatusError   = "error"
	StatusBlocked = "blocked" // user action needed before retrying
)

// Status is the one-line state the UI shows.
type Status struct {
	Text string `json:"text"`
	Kind string `json:"kind"`
}

// earlyMessages play in order while a generation runs; each entry
// becomes active once the elapsed time passes its mark.
var earlyMessages = []struct {
	after time.Duration
	text  string
}{
	{0, "Reading the post..."},
	{4 * time.Second, "Thinking about an angle..."},
	{10 * time.Second, "Drafting a reply..."},
	{18 * time.Second, "Polishing the wording..."},
}

// longWaitMessages rotate once the long-wait threshold has passed.
var longWaitMessages = []string{
	"Still working on it...",
	"Good replies take a moment...",
	"Almost there...",
}

const longWaitRotate = 6 * time.Second

// progressText picks the status line for a generation that has been
// running for elapsed. Past longWait the rotating messages take over.
func progressText(elapsed, longWait time.Duration) string {
	if elapsed >= longWait {
		i := int((elapsed-longWait)/longWaitRotate) % len(longWaitMessages)
		return longWaitMessages[i]
	}
	text := earlyMessages[0].text
	for _, m := range earlyMessages {
		if elapsed >= m.after {
			text = m.text
		}
	}
	return text
}

// errNoPersona blocks generation until the user picks a persona.
var errNoPersona = errors.New("assist: no persona selected")

// failureStatus maps a generation failure to a distinct, actionable
// status line. Prior variants are left intact by the caller; only the
// status changes.
func failureStatus(err error) Status {
	switch {
	case errors.Is(err, errNoPersona):
		return Status{Text: "Select an author persona first.", Kind: StatusBlocked}
	case errors.Is(err, backend.ErrUnauthorized):
		return Status{Text: "You are signed out. Log in to the backend in this browser, then try again.", Kind: StatusBlocked}
	case errors.Is(err, backend.ErrForbidden), errors.Is(err, backend.ErrRateLimited):
		return Status{Text: "The service is refusing requests right now. Wait a bit and retry.", Kind: StatusError}
	case errors.Is(err, backend.ErrNotFound):
		return Status{Text: "The generation endpoint was not found. Check the backend URL in settings.", Kind: StatusError}
	case errors.Is(err, backend.ErrUnreachable), errors.Is(err, context.DeadlineExceeded):
		return Status{Text: "Could not reach the backend. Check your connection and retry.", Kind: StatusError}
	default:
		return Status{Text: "Generation failed. Try again.", Kind: StatusError}
	}
}
