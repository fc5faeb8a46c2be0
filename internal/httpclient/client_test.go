package httpclient

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactoryCreateClientWithPreset(t *testing.T) {
	factory := NewFactory(nil)

	testCases := []struct {
		name       string
		clientType ClientType
		shouldFail bool
		wantJar    bool
	}{
		{"Default", ClientTypeDefault, false, false},
		{"API", ClientTypeAPI, false, true},
		{"Invalid", ClientType("invalid"), true, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client, err := factory.CreateClientWithPreset(tc.clientType)
			if tc.shouldFail {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, client)
			assert.Equal(t, tc.wantJar, client.Jar != nil)
		})
	}
}

func TestFactoryValidateConfig(t *testing.T) {
	factory := NewFactory(nil)

	testCases := []struct {
		name       string
		config     Config
		shouldFail bool
	}{
		{"Valid config", PresetConfigs[ClientTypeAPI], false},
		{"Negative timeout", Config{Timeout: -1}, true},
		{"Timeout too long", Config{Timeout: 10 * time.Minute}, true},
		{"Negative redirects", Config{MaxRedirects: -1}, true},
		{"Negative idle conns", Config{MaxIdleConnsPerHost: -1}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := factory.ValidateConfig(&tc.config)
			if tc.shouldFail {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateAPI_InsecureTLS(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	factory := NewFactory(nil)

	secure, err := factory.CreateAPI(time.Second, false)
	require.NoError(t, err)
	_, err = secure.Get(server.URL)
	assert.Error(t, err, "self-signed certificate must be rejected by default")

	insecure, err := factory.CreateAPI(time.Second, true)
	require.NoError(t, err)
	resp, err := insecure.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestRedirectLimit(t *testing.T) {
	var hits int
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Redirect(w, r, server.URL, http.StatusFound)
	}))
	defer server.Close()

	factory := NewFactory(nil)
	client, err := factory.CreateClient(Config{Timeout: time.Second, MaxRedirects: 2})
	require.NoError(t, err)

	_, err = client.Get(server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stopped after 2 redirects")
	assert.Equal(t, 2, hits)
}

func TestSeedCookies(t *testing.T) {
	var received []*http.Cookie
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = r.Cookies()
	}))
	defer server.Close()

	factory := NewFactory(nil)
	client, err := factory.CreateAPI(time.Second, false)
	require.NoError(t, err)

	require.NoError(t, SeedCookies(client, server.URL, "JSESSIONID=abc; opbs=xyz"))

	resp, err := client.Get(server.URL + "/api/server/v1/debug/result/s1")
	require.NoError(t, err)
	resp.Body.Close()

	names := map[string]string{}
	for _, c := range received {
		names[c.Name] = c.Value
	}
	assert.Equal(t, "abc", names["JSESSIONID"])
	assert.Equal(t, "xyz", names["opbs"])
}

func TestSeedCookies_Errors(t *testing.T) {
	factory := NewFactory(nil)

	noJar, err := factory.CreateClientWithPreset(ClientTypeDefault)
	require.NoError(t, err)
	assert.Error(t, SeedCookies(noJar, "https://localhost:9443", "a=b"))
	assert.NoError(t, SeedCookies(noJar, "https://localhost:9443", "  "), "empty header is a no-op")

	withJar, err := factory.CreateAPI(0, false)
	require.NoError(t, err)
	assert.Error(t, SeedCookies(withJar, "://bad", "a=b"))
}
