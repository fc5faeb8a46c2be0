// Package console holds the connection test and test result views, the router
// between them and their terminal rendering.
package console

import (
	"context"
	"errors"
	"sync"

	"github.com/lukaszraczylo/idptest/internal/debugapi"
	"github.com/lukaszraczylo/idptest/internal/debugflow"
)

// Translation keys of the test view.
const (
	keyDefaultTitle       = "console:develop.pages.idpTest.defaultTitle"
	keyDefaultDescription = "console:develop.pages.idpTest.defaultDescription"
)

// ErrRunInProgress is returned when a run is started while the popup of the
// previous one is still open.
var ErrRunInProgress = errors.New("a connection test is already running")

// Logger interface for view operations
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// ConnectorGetter looks up the connection being tested.
type ConnectorGetter interface {
	GetConnector(ctx context.Context, idpID string) (*debugapi.Connector, error)
}

// TestView is the "Test Connection" view of one connection.
type TestView struct {
	tenantDomain string
	idpID        string
	runner       *debugflow.Runner
	connectors   ConnectorGetter
	t            debugflow.Translator
	logger       Logger

	mu        sync.Mutex
	connector *debugapi.Connector
}

// NewTestView creates the view. connectors and t may be nil.
func NewTestView(tenantDomain, idpID string, runner *debugflow.Runner, connectors ConnectorGetter, t debugflow.Translator, logger Logger) *TestView {
	if logger == nil {
		logger = noOpLogger{}
	}
	return &TestView{
		tenantDomain: tenantDomain,
		idpID:        idpID,
		runner:       runner,
		connectors:   connectors,
		t:            translatorOrDefault(t),
		logger:       logger,
	}
}

// Load fetches the connection used to decorate the view. A failed lookup
// leaves the view with its default title.
func (v *TestView) Load(ctx context.Context) {
	if v.connectors == nil {
		return
	}
	conn, err := v.connectors.GetConnector(ctx, v.idpID)
	if err != nil {
		v.logger.Debugf("Connection %s lookup failed: %v", v.idpID, err)
		conn = nil
	}
	v.mu.Lock()
	v.connector = conn
	v.mu.Unlock()
}

// Connector returns the loaded connection, if any.
func (v *TestView) Connector() *debugapi.Connector {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.connector
}

// Title is "Test " followed by the connection name.
func (v *TestView) Title() string {
	return "Test " + v.connectorName()
}

func (v *TestView) connectorName() string {
	fallback := v.t.T(keyDefaultTitle, "Connection Test")
	conn := v.Connector()
	if conn == nil {
		return fallback
	}
	if conn.IsIdentityProvider() {
		return firstNonEmpty(conn.Name, fallback)
	}
	return firstNonEmpty(conn.FriendlyName, conn.DisplayName, conn.Name, fallback)
}

// Description is the subtitle of the view.
func (v *TestView) Description() string {
	conn := v.Connector()
	if conn == nil {
		return v.t.T(keyDefaultDescription, "Test Federated IdP connection")
	}
	return "Test the " + firstNonEmpty(conn.Name, "connection") + " connection"
}

// BackPath is where the back link leads.
func (v *TestView) BackPath() string {
	return debugflow.ConnectionPath(v.tenantDomain, v.idpID)
}

// Statuses returns the step statuses of the latest run.
func (v *TestView) Statuses() debugflow.Statuses {
	return v.runner.Statuses()
}

// Busy reports whether the run trigger is disabled.
func (v *TestView) Busy() bool {
	return v.runner.Busy()
}

// Run starts a test unless one is still waiting for its popup.
func (v *TestView) Run(ctx context.Context) (*debugflow.Run, error) {
	if v.Busy() {
		return nil, ErrRunInProgress
	}
	return v.runner.RunTest(ctx, v.idpID), nil
}

func firstNonEmpty(values ...string) string {
	for _, s := range values {
		if s != "" {
			return s
		}
	}
	return ""
}

type fallbackTranslator struct{}

func (fallbackTranslator) T(_, fallback string) string { return fallback }

func translatorOrDefault(t debugflow.Translator) debugflow.Translator {
	if t == nil {
		return fallbackTranslator{}
	}
	return t
}

type noOpLogger struct{}

func (noOpLogger) Debugf(format string, args ...interface{}) {}
func (noOpLogger) Infof(format string, args ...interface{})  {}
func (noOpLogger) Errorf(format string, args ...interface{}) {}
