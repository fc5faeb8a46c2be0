package sandbox

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukaszraczylo/idptest/internal/debugapi"
	"github.com/lukaszraczylo/idptest/internal/debugflow"
	debugerrors "github.com/lukaszraczylo/idptest/internal/errors"
	"github.com/lukaszraczylo/idptest/internal/httpclient"
	"github.com/lukaszraczylo/idptest/internal/sessionctx"
)

type fixture struct {
	server  *Server
	http    *httptest.Server
	client  *debugapi.Client
	browser *http.Client
	clock   *fakeClock
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()

	srv, err := New(cfg, nil)
	require.NoError(t, err)
	clock := &fakeClock{now: time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)}
	srv.now = clock.Now

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	f := &fixture{server: srv, http: ts, browser: ts.Client(), clock: clock}
	f.client = f.login(t)
	return f
}

// login fetches a console cookie and returns an API client carrying it.
func (f *fixture) login(t *testing.T) *debugapi.Client {
	t.Helper()

	resp, err := f.browser.Get(f.http.URL + "/sandbox/login?user=alice")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "alice", body["operator"])
	require.True(t, strings.HasPrefix(body["sessionCookie"], CookieName+"="))

	api, err := httpclient.NewFactory(nil).CreateAPI(5*time.Second, false)
	require.NoError(t, err)
	require.NoError(t, httpclient.SeedCookies(api, f.http.URL, body["sessionCookie"]))

	client, err := debugapi.NewClient(api, f.http.URL, "", nil)
	require.NoError(t, err)
	return client
}

func (f *fixture) authorize(t *testing.T, authURL string) int {
	t.Helper()
	resp, err := f.browser.Get(authURL)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestNewValidatesSecret(t *testing.T) {
	_, err := New(Config{Secret: "short"}, nil)
	assert.Error(t, err)

	srv, err := New(Config{}, nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(srv.cfg.Secret), minSecret)
	assert.Equal(t, debugapi.DefaultAPIPath, srv.cfg.APIPath)
}

func TestRequiresConsoleSession(t *testing.T) {
	f := newFixture(t, Config{})

	anonymous, err := debugapi.NewClient(f.browser, f.http.URL, "", nil)
	require.NoError(t, err)

	_, err = anonymous.InitiateTest(context.Background(), "google")
	derr, ok := debugerrors.AsDebugError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, derr.HTTPStatus)
	assert.Equal(t, "Console session is missing or expired", derr.Message)
}

func TestInitiateAuthorizeResult(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	resp, err := f.client.InitiateTest(ctx, "google")
	require.NoError(t, err)
	assert.Equal(t, debugapi.StatusURLGenerated, resp.Status)
	assert.Equal(t, f.http.URL+"/sandbox/authorize?sessionId="+resp.SessionID, resp.AuthorizationURL)

	_, err = f.client.FetchResult(ctx, resp.SessionID)
	assert.True(t, debugerrors.HasCode(err, debugerrors.ErrCodeResultNotReady), "not ready before authentication")

	assert.Equal(t, http.StatusOK, f.authorize(t, resp.AuthorizationURL))

	result, err := f.client.FetchResult(ctx, resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, resp.SessionID, result.SessionID)
	assert.Equal(t, "Google", result.IdpName)
	assert.Equal(t, "success", result.Metadata.Step(debugapi.MetaStepClaimMapping))
	assert.Equal(t, "alice@example.com", result.IncomingClaims["email"])
}

func TestUnknownIdentityProvider(t *testing.T) {
	f := newFixture(t, Config{})

	_, err := f.client.InitiateTest(context.Background(), "unknown")
	derr, ok := debugerrors.AsDebugError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, derr.HTTPStatus)
	assert.Contains(t, derr.Message, "unknown")

	_, err = f.client.GetConnector(context.Background(), "unknown")
	assert.Error(t, err)

	conn, err := f.client.GetConnector(context.Background(), "totp")
	require.NoError(t, err)
	assert.Equal(t, "TOTP", conn.FriendlyName)
}

func TestResultsExpire(t *testing.T) {
	f := newFixture(t, Config{ResultTTL: time.Minute})
	ctx := context.Background()

	resp, err := f.client.InitiateTest(ctx, "google")
	require.NoError(t, err)
	f.authorize(t, resp.AuthorizationURL)

	_, err = f.client.FetchResult(ctx, resp.SessionID)
	require.NoError(t, err)

	f.clock.Advance(2 * time.Minute)
	_, err = f.client.FetchResult(ctx, resp.SessionID)
	assert.True(t, debugerrors.HasCode(err, debugerrors.ErrCodeResultNotReady), "evicted sessions read as 404")
	assert.Equal(t, http.StatusNotFound, f.authorize(t, resp.AuthorizationURL))
}

func TestSweep(t *testing.T) {
	f := newFixture(t, Config{ResultTTL: time.Minute})

	for i := 0; i < 3; i++ {
		_, err := f.client.InitiateTest(context.Background(), "google")
		require.NoError(t, err)
	}
	assert.Zero(t, f.server.Sweep())

	f.clock.Advance(time.Hour)
	assert.Equal(t, 3, f.server.Sweep())
}

func TestRateLimit(t *testing.T) {
	srv, err := New(Config{RPS: 0.001, Burst: 2}, nil)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	var limited atomic.Int32
	for i := 0; i < 5; i++ {
		resp, err := ts.Client().Get(ts.URL + "/sandbox/login")
		require.NoError(t, err)
		if resp.StatusCode == http.StatusTooManyRequests {
			var apiErr debugapi.APIError
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&apiErr))
			assert.Equal(t, "Too many requests", apiErr.Message)
			limited.Add(1)
		}
		resp.Body.Close()
	}
	assert.Equal(t, int32(3), limited.Load())
}

// authorizingPopup follows the authorization URL like a browser would and
// reports the window closed once the identity provider page was shown.
type authorizingPopup struct {
	browser *http.Client
}

type closedWindow struct{}

func (closedWindow) Closed() (bool, error) { return true, nil }

func (p authorizingPopup) Open(ctx context.Context, url string) (debugflow.Window, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.browser.Do(req)
	if err != nil {
		return nil, err
	}
	resp.Body.Close()
	return closedWindow{}, nil
}

func TestConnectionTestEndToEnd(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	store := sessionctx.NewMemoryStore()
	console := sessionctx.Bind(store, "console")

	navigated := make(chan string, 1)
	runner := debugflow.NewRunner(f.client, console, authorizingPopup{browser: f.browser},
		debugflow.NavigatorFunc(func(path string) { navigated <- path }),
		debugflow.RunnerConfig{TenantDomain: "carbon.super", PollInterval: 5 * time.Millisecond, Timeout: 5 * time.Second}, nil)

	run := runner.RunTest(ctx, "google")
	require.NoError(t, run.Err)
	require.NoError(t, run.PopupErr)

	var path string
	select {
	case path = <-navigated:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not navigate")
	}
	assert.Equal(t, debugflow.ResultsPath("carbon.super", "google", run.SessionID), path)

	// The results view runs in a fresh context opened by the console.
	route, err := debugflow.ParseRoute(path)
	require.NoError(t, err)
	resolver := debugflow.NewResolver(nil,
		debugflow.StorageLookup(sessionctx.Bind(store, "results"), nil),
		debugflow.LocationLookup(route.Location),
		debugflow.OpenerLookup(sessionctx.NewOpener(store, "console"), nil))
	sessionID, ok := resolver.Resolve(ctx)
	require.True(t, ok)
	assert.Equal(t, run.SessionID, sessionID)

	state := debugflow.NewFetcher(f.client, nil, nil).Fetch(ctx, sessionID)
	require.Nil(t, state.Err)
	assert.Equal(t, debugflow.Statuses{
		Connection:     debugflow.StatusSuccess,
		Authentication: debugflow.StatusSuccess,
		ClaimsMapping:  debugflow.StatusSuccess,
	}, state.Statuses)
}
