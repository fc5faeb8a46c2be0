package debugflow

import (
	"context"
	"time"
)

// Default completion detection timings.
const (
	DefaultPollInterval = 500 * time.Millisecond
	DefaultTimeout      = 30 * time.Second
)

// Window is the handle of an authentication popup.
type Window interface {
	// Closed reports whether the operator closed the window. An error means
	// the state cannot be read right now; the watcher keeps polling.
	Closed() (bool, error)
}

// PopupOpener opens an authorization URL in a new window.
type PopupOpener interface {
	Open(ctx context.Context, url string) (Window, error)
}

// Completion says how a popup watch ended.
type Completion string

const (
	CompletionNone      Completion = ""
	CompletionClosed    Completion = "closed"
	CompletionTimeout   Completion = "timeout"
	CompletionCancelled Completion = "cancelled"
)

// watchPopup polls win every interval and gives up after timeout, whichever
// comes first. Both timers are stopped when it returns. A nil win is never
// polled, leaving the timeout as the only way out.
func watchPopup(ctx context.Context, win Window, interval, timeout time.Duration, logger Logger) Completion {
	ceiling := time.NewTimer(timeout)
	defer ceiling.Stop()

	var poll <-chan time.Time
	if win != nil {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		poll = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return CompletionCancelled
		case <-ceiling.C:
			return CompletionTimeout
		case <-poll:
			closed, err := win.Closed()
			if err != nil {
				logger.Debugf("Popup state unavailable: %v", err)
				continue
			}
			if closed {
				return CompletionClosed
			}
		}
	}
}
