package console

import (
	"context"
	"net/url"
	"sync"

	"github.com/lukaszraczylo/idptest/internal/debugflow"
	debugerrors "github.com/lukaszraczylo/idptest/internal/errors"
	"github.com/lukaszraczylo/idptest/internal/sessionctx"
)

// DisplayKind is what the results area of the view shows.
type DisplayKind int

const (
	DisplayLoading DisplayKind = iota
	DisplayError
	DisplayNoSession
	DisplayResult
	DisplayEmpty
)

func (k DisplayKind) String() string {
	switch k {
	case DisplayLoading:
		return "loading"
	case DisplayError:
		return "error"
	case DisplayNoSession:
		return "no-session"
	case DisplayResult:
		return "result"
	case DisplayEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// Display is a rendered snapshot of the results view.
type Display struct {
	Kind  DisplayKind
	State debugflow.ResultState
	// Message is the error text of DisplayError.
	Message string
	// Retryable is set when a Retry or Refresh action is offered.
	Retryable bool
}

// ResultView is the "Test Results" view. It recovers the session id of a run
// and shows its result.
type ResultView struct {
	tenantDomain string
	idpID        string
	fetcher      *debugflow.Fetcher
	storage      sessionctx.Storage
	opener       debugflow.OpenerContext
	logger       Logger

	mu        sync.Mutex
	sessionID string
	activated bool
}

// NewResultView creates the view. storage is the current context, opener the
// context that opened it; both may be nil.
func NewResultView(tenantDomain, idpID string, fetcher *debugflow.Fetcher, storage sessionctx.Storage, opener debugflow.OpenerContext, logger Logger) *ResultView {
	if logger == nil {
		logger = noOpLogger{}
	}
	return &ResultView{
		tenantDomain: tenantDomain,
		idpID:        idpID,
		fetcher:      fetcher,
		storage:      storage,
		opener:       opener,
		logger:       logger,
	}
}

// Activate shows the view for loc. The session id is resolved only while the
// view has none; once known, later locations do not replace it. A known id
// is fetched right away.
func (v *ResultView) Activate(ctx context.Context, loc *url.URL) Display {
	v.mu.Lock()
	v.activated = true
	sessionID := v.sessionID
	v.mu.Unlock()

	if sessionID == "" {
		resolver := debugflow.NewResolver(v.logger,
			debugflow.StorageLookup(v.storage, v.logger),
			debugflow.LocationLookup(loc),
			debugflow.OpenerLookup(v.opener, v.logger),
		)
		if id, ok := resolver.Resolve(ctx); ok {
			v.mu.Lock()
			if v.sessionID == "" {
				v.sessionID = id
			}
			sessionID = v.sessionID
			v.mu.Unlock()
		}
	}

	if sessionID == "" {
		return v.Display()
	}
	return display(v.fetcher.Fetch(ctx, sessionID), sessionID)
}

// Retry fetches the result again. It backs both the Retry and the Refresh
// actions. Without a session id it reports the missing session.
func (v *ResultView) Retry(ctx context.Context) Display {
	sessionID := v.SessionID()
	return display(v.fetcher.Fetch(ctx, sessionID), sessionID)
}

// SessionID returns the resolved session id.
func (v *ResultView) SessionID() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sessionID
}

// Display returns the current snapshot.
func (v *ResultView) Display() Display {
	v.mu.Lock()
	activated := v.activated
	sessionID := v.sessionID
	v.mu.Unlock()

	if !activated {
		return Display{Kind: DisplayLoading, State: v.fetcher.State()}
	}
	return display(v.fetcher.State(), sessionID)
}

// BackPath is where the back link leads.
func (v *ResultView) BackPath() string {
	return debugflow.ConnectionPath(v.tenantDomain, v.idpID)
}

func display(state debugflow.ResultState, sessionID string) Display {
	d := Display{State: state}
	switch {
	case state.Loading:
		d.Kind = DisplayLoading
	case state.Err != nil && state.Err.Code == debugerrors.ErrCodeNoSession:
		d.Kind = DisplayNoSession
	case state.Err != nil:
		d.Kind = DisplayError
		d.Message = state.Err.Message
		d.Retryable = true
	case sessionID == "":
		d.Kind = DisplayNoSession
	case state.Result != nil:
		d.Kind = DisplayResult
	default:
		d.Kind = DisplayEmpty
		d.Retryable = true
	}
	return d
}
