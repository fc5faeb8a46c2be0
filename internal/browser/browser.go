// Package browser opens authorization URLs in a browser window and reports
// when that window goes away.
package browser

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/kballard/go-shellquote"

	"github.com/lukaszraczylo/idptest/internal/debugflow"
)

// URLPlaceholder is replaced by the URL in a configured command. Without it
// the URL is appended as the last argument.
const URLPlaceholder = "{url}"

// ErrDetached is returned by Window.Closed when the browser was started
// through a launcher that hands the URL over and exits.
var ErrDetached = errors.New("browser window is detached from its launcher")

// Logger interface for browser operations
type Logger interface {
	Debugf(format string, args ...interface{})
}

// Opener starts a browser for each URL.
type Opener struct {
	argv []string
	// detached is set for system launchers, whose exit says nothing about
	// the window they opened.
	detached bool
	logger   Logger
	lookPath func(string) (string, error)
}

// NewOpener parses command, a shell-quoted command line such as
// `firefox --new-window {url}`. An empty command uses the system launcher,
// which cannot tell when the window is closed.
func NewOpener(command string, logger Logger) (*Opener, error) {
	if logger == nil {
		logger = noOpLogger{}
	}

	o := &Opener{logger: logger, lookPath: exec.LookPath}
	if strings.TrimSpace(command) == "" {
		o.argv = systemLauncher(runtime.GOOS)
		o.detached = true
		return o, nil
	}

	argv, err := shellquote.Split(command)
	if err != nil {
		return nil, fmt.Errorf("invalid browser command %q: %w", command, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("browser command is empty")
	}
	o.argv = argv
	return o, nil
}

// Detached reports whether windows of this opener can only finish by timeout.
func (o *Opener) Detached() bool {
	return o.detached
}

// Command returns the command line that opens url.
func (o *Opener) Command(url string) []string {
	argv := make([]string, 0, len(o.argv)+1)
	replaced := false
	for _, arg := range o.argv {
		if strings.Contains(arg, URLPlaceholder) {
			arg = strings.ReplaceAll(arg, URLPlaceholder, url)
			replaced = true
		}
		argv = append(argv, arg)
	}
	if !replaced {
		argv = append(argv, url)
	}
	return argv
}

// Open starts the browser. A browser that cannot be started is reported as
// an error, the same way a blocked popup is.
func (o *Opener) Open(ctx context.Context, url string) (debugflow.Window, error) {
	argv := o.Command(url)
	path, err := o.lookPath(argv[0])
	if err != nil {
		return nil, fmt.Errorf("browser %q not found: %w", argv[0], err)
	}

	// The window outlives the request that opened it, so it is not bound to ctx.
	cmd := exec.Command(path, argv[1:]...) // #nosec G204 -- operator configured command
	o.logger.Debugf("Opening browser: %s", strings.Join(argv, " "))

	if o.detached {
		if err := runLauncher(ctx, cmd); err != nil {
			return nil, err
		}
		return &Window{detached: true}, nil
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	w := &Window{done: make(chan struct{})}
	go func() {
		w.setExit(cmd.Wait())
		close(w.done)
	}()
	return w, nil
}

// runLauncher waits for a system launcher to hand the URL over.
func runLauncher(ctx context.Context, cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start browser launcher: %w", err)
	}
	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	select {
	case err := <-exited:
		if err != nil {
			return fmt.Errorf("browser launcher failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		// Still running is good enough; the launcher owns the window now.
		return nil
	}
}

func systemLauncher(goos string) []string {
	switch goos {
	case "darwin":
		return []string{"open"}
	case "windows":
		return []string{"rundll32", "url.dll,FileProtocolHandler"}
	default:
		return []string{"xdg-open"}
	}
}

// Window is a browser started by an Opener.
type Window struct {
	detached bool
	done     chan struct{}

	mu      sync.Mutex
	exitErr error
}

func (w *Window) setExit(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.exitErr = err
}

// Closed reports whether the browser process has exited.
func (w *Window) Closed() (bool, error) {
	if w.detached {
		return false, ErrDetached
	}
	select {
	case <-w.done:
		return true, nil
	default:
		return false, nil
	}
}

// ExitErr returns the exit status of a closed window.
func (w *Window) ExitErr() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.exitErr
}

type noOpLogger struct{}

func (noOpLogger) Debugf(format string, args ...interface{}) {}
