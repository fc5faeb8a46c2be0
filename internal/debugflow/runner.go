package debugflow

import (
	"context"
	"sync"
	"time"

	"github.com/lukaszraczylo/idptest/internal/debugapi"
	debugerrors "github.com/lukaszraczylo/idptest/internal/errors"
	"github.com/lukaszraczylo/idptest/internal/sessionctx"
)

// Initiator starts a test run on the backend.
type Initiator interface {
	InitiateTest(ctx context.Context, idpID string) (*debugapi.InitiateResponse, error)
}

// RunnerConfig holds the settings of a Runner.
type RunnerConfig struct {
	TenantDomain string
	PollInterval time.Duration
	Timeout      time.Duration
}

// Runner starts connection tests and follows them until the results view.
type Runner struct {
	initiator Initiator
	storage   sessionctx.Storage
	popups    PopupOpener
	navigator Navigator
	config    RunnerConfig
	logger    Logger

	mu       sync.Mutex
	statuses Statuses
	current  *Run
	onChange func(Statuses)
}

// NewRunner creates a runner. storage is the durable storage of the current
// context; popups may be nil when no window can be opened.
func NewRunner(initiator Initiator, storage sessionctx.Storage, popups PopupOpener, navigator Navigator, config RunnerConfig, logger Logger) *Runner {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = noOpLogger{}
	}
	return &Runner{
		initiator: initiator,
		storage:   storage,
		popups:    popups,
		navigator: navigator,
		config:    config,
		logger:    logger,
		statuses:  IdleStatuses(),
	}
}

// OnChange registers fn to receive every status change. fn runs on the
// goroutine that made the change.
func (r *Runner) OnChange(fn func(Statuses)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = fn
}

// Statuses returns the current step statuses.
func (r *Runner) Statuses() Statuses {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statuses
}

// Busy reports whether the latest run still waits for its popup.
func (r *Runner) Busy() bool {
	r.mu.Lock()
	run := r.current
	r.mu.Unlock()

	if run == nil {
		return false
	}
	select {
	case <-run.Done():
		return false
	default:
		return true
	}
}

// RunTest starts a test of the connection. It returns once the initiation
// request has been answered and the popup, if any, has been opened; the popup
// watch continues in the background until Run.Done is closed. Cancelling ctx
// stops the watch without navigating. Failures are reported on the returned
// Run, never as a panic or a returned error.
func (r *Runner) RunTest(ctx context.Context, idpID string) *Run {
	run := newRun(idpID, r.config.TenantDomain)

	// All steps go pending in one transition, before the request is sent.
	r.mu.Lock()
	r.current = run
	r.statuses = PendingStatuses()
	snapshot, notify := r.statuses, r.onChange
	r.mu.Unlock()
	if notify != nil {
		notify(snapshot)
	}

	log := r.logger
	resp, err := r.initiator.InitiateTest(ctx, idpID)
	if err != nil {
		log.Errorf("Test initiation for %s failed: %v", idpID, err)
		run.Err = debugerrors.NewInitiationError(idpID, err)
		r.update(run, func(Statuses) Statuses { return ErrorStatuses() })
		run.finish(CompletionNone)
		return run
	}

	run.SessionID = resp.SessionID
	run.AuthorizationURL = resp.AuthorizationURL
	run.ResultsPath = ResultsPath(run.TenantDomain, idpID, resp.SessionID)

	if r.storage != nil {
		err := sessionctx.SaveSession(ctx, r.storage, sessionctx.Session{
			SessionID:    resp.SessionID,
			IdpID:        idpID,
			TenantDomain: run.TenantDomain,
		})
		if err != nil {
			// The results path still carries the id in its fragment.
			log.Errorf("Persisting session %s failed: %v", resp.SessionID, err)
		}
	}

	connection := StatusError
	if resp.Status == debugapi.StatusURLGenerated {
		connection = StatusSuccess
	}
	r.update(run, func(s Statuses) Statuses {
		s.Connection = connection
		return s
	})

	if resp.AuthorizationURL == "" {
		log.Infof("Backend returned no authorization URL for session %s (status %s)", resp.SessionID, resp.Status)
		run.finish(CompletionNone)
		return run
	}

	var win Window
	if r.popups == nil {
		run.PopupErr = debugerrors.NewPopupBlockedError(nil)
	} else if win, err = r.popups.Open(ctx, resp.AuthorizationURL); err != nil || win == nil {
		run.PopupErr = debugerrors.NewPopupBlockedError(err)
		win = nil
	}
	if run.PopupErr != nil {
		log.Errorf("Authentication window for session %s did not open; waiting %v before showing results", resp.SessionID, r.config.Timeout)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	run.cancel = cancel
	go func() {
		defer cancel()
		completion := watchPopup(watchCtx, win, r.config.PollInterval, r.config.Timeout, log)
		if completion != CompletionCancelled {
			run.navigate(r.navigator, log)
		}
		run.finish(completion)
	}()

	return run
}

// update applies fn to the statuses if run is still the latest run.
func (r *Runner) update(run *Run, fn func(Statuses) Statuses) {
	r.mu.Lock()
	if r.current != run {
		r.mu.Unlock()
		return
	}
	r.statuses = r.statuses.advance(fn(r.statuses))
	snapshot, notify := r.statuses, r.onChange
	r.mu.Unlock()

	if notify != nil {
		notify(snapshot)
	}
}

// Run is one test run.
type Run struct {
	IdpID            string
	TenantDomain     string
	SessionID        string
	AuthorizationURL string
	ResultsPath      string

	// Err is set when the initiation request failed.
	Err error
	// PopupErr is set when the authentication window could not be opened.
	// The run still navigates to the results view when the timeout fires.
	PopupErr error

	navigateOnce sync.Once
	navigated    bool

	mu         sync.Mutex
	completion Completion
	done       chan struct{}
	doneOnce   sync.Once
	cancel     context.CancelFunc
}

func newRun(idpID, tenantDomain string) *Run {
	return &Run{
		IdpID:        idpID,
		TenantDomain: tenantDomain,
		done:         make(chan struct{}),
	}
}

// navigate pushes the results path, at most once per run.
func (run *Run) navigate(nav Navigator, logger Logger) {
	run.navigateOnce.Do(func() {
		run.mu.Lock()
		run.navigated = true
		run.mu.Unlock()

		logger.Debugf("Navigating to %s", run.ResultsPath)
		if nav != nil {
			nav.Push(run.ResultsPath)
		}
	})
}

func (run *Run) finish(c Completion) {
	run.doneOnce.Do(func() {
		run.mu.Lock()
		run.completion = c
		run.mu.Unlock()
		close(run.done)
	})
}

// Done is closed when the run needs no more attention: after navigation,
// after a failure, or right away when no popup was involved.
func (run *Run) Done() <-chan struct{} {
	return run.done
}

// Wait blocks until Done is closed or ctx ends.
func (run *Run) Wait(ctx context.Context) error {
	select {
	case <-run.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel stops the popup watch without navigating.
func (run *Run) Cancel() {
	if run.cancel != nil {
		run.cancel()
	}
}

// Completion returns how the popup watch ended.
func (run *Run) Completion() Completion {
	run.mu.Lock()
	defer run.mu.Unlock()
	return run.completion
}

// Navigated reports whether the run moved to the results view.
func (run *Run) Navigated() bool {
	run.mu.Lock()
	defer run.mu.Unlock()
	return run.navigated
}
