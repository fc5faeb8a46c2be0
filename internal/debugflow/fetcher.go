package debugflow

import (
	"context"
	"sync"

	"github.com/lukaszraczylo/idptest/internal/debugapi"
	debugerrors "github.com/lukaszraczylo/idptest/internal/errors"
)

// FetchErrorKey is the translation key of the generic fetch failure message.
const FetchErrorKey = "console:develop.pages.idpTestResult.fetchError"

// ResultGetter reads the result of a test session.
type ResultGetter interface {
	FetchResult(ctx context.Context, sessionID string) (*debugapi.TestResult, error)
}

// Translator looks up user facing messages.
type Translator interface {
	T(key, fallback string) string
}

// ResultState is what the results view shows.
type ResultState struct {
	SessionID string
	Loading   bool
	Result    *debugapi.TestResult
	Err       *debugerrors.DebugError
	Statuses  Statuses
}

// Fetcher loads test results. Responses to superseded requests are dropped,
// so the state always reflects the latest Fetch issued.
type Fetcher struct {
	getter     ResultGetter
	translator Translator
	logger     Logger

	mu         sync.Mutex
	generation uint64
	state      ResultState
}

// NewFetcher creates a fetcher. translator may be nil.
func NewFetcher(getter ResultGetter, translator Translator, logger Logger) *Fetcher {
	if logger == nil {
		logger = noOpLogger{}
	}
	return &Fetcher{
		getter:     getter,
		translator: translator,
		logger:     logger,
		state:      ResultState{Statuses: IdleStatuses()},
	}
}

// State returns the current state.
func (f *Fetcher) State() ResultState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Fetch loads the result of sessionID and returns the resulting state. It can
// be repeated at will; every call issues a new request and clears the result
// shown so far. Step statuses only change when a result carries metadata.
func (f *Fetcher) Fetch(ctx context.Context, sessionID string) ResultState {
	f.mu.Lock()
	f.generation++
	gen := f.generation
	statuses := f.state.Statuses
	if sessionID == "" {
		f.state = ResultState{Err: debugerrors.NewNoSessionError(), Statuses: statuses}
		state := f.state
		f.mu.Unlock()
		return state
	}
	f.state = ResultState{SessionID: sessionID, Loading: true, Statuses: statuses}
	f.mu.Unlock()

	result, err := f.getter.FetchResult(ctx, sessionID)

	next := ResultState{SessionID: sessionID, Statuses: statuses}
	switch {
	case err != nil:
		next.Err = f.classify(err)
		f.logger.Debugf("Fetching result of session %s failed: %v", sessionID, err)
	default:
		// A nil result without an error leaves the view empty.
		next.Result = result
		if result != nil && result.Metadata != nil {
			next.Statuses = DeriveStatuses(result.Metadata)
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.generation {
		f.logger.Debugf("Dropping stale result of session %s", sessionID)
		return f.state
	}
	f.state = next
	return next
}

func (f *Fetcher) classify(err error) *debugerrors.DebugError {
	derr, ok := debugerrors.AsDebugError(err)
	if !ok {
		derr = debugerrors.NewRequestError("", 0, err)
	}
	if derr.Code != debugerrors.ErrCodeRequestFailed || derr.Message != debugerrors.MessageFetchFailed {
		return derr
	}

	// Generic failures carry the translated message.
	msg := debugerrors.MessageFetchFailed
	if f.translator != nil {
		msg = f.translator.T(FetchErrorKey, debugerrors.MessageFetchFailed)
	}
	translated := *derr
	translated.Message = msg
	return &translated
}
