package notifier

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/artyomka101/appforphone/internal/constants"
)

// Notifier raises a user-visible notification. Delivery is best-effort:
// callers log failures and never roll back on them.
type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}

// Nop drops every notification
type Nop struct{}

func (Nop) Notify(context.Context, string, string) error { return nil }

// Writer prints notifications as lines to an io.Writer
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (n *Writer) Notify(_ context.Context, title, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, err := fmt.Fprintf(n.w, "🔔 %s: %s\n", title, message)
	return err
}

// New builds the notifier for a configured mode
func New(mode string, enabled bool, out io.Writer) (Notifier, error) {
	if !enabled {
		return Nop{}, nil
	}
	switch mode {
	case constants.NotifyModeTray:
		return NewTray(), nil
	case constants.NotifyModeStdout:
		return NewWriter(out), nil
	case constants.NotifyModeNone, "":
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown notification mode %q", mode)
	}
}
