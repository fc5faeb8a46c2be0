package debugflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaths(t *testing.T) {
	assert.Equal(t, "/t/carbon.super/console/connections/abc", ConnectionPath("carbon.super", "abc"))
	assert.Equal(t,
		"/t/carbon.super/console/connections/abc/debug-results#status=successful&sessionId=s1",
		ResultsPath("carbon.super", "abc", "s1"))
	assert.Equal(t,
		"/t/wso2.com/console/connections/abc/debug-results#status=successful&sessionId=a%26b",
		ResultsPath("wso2.com", "abc", "a&b"))
}

func TestParseRoute(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		kind    RouteKind
		tenant  string
		idpID   string
		session string
	}{
		{
			name:   "connection",
			raw:    "/t/carbon.super/console/connections/abc",
			kind:   RouteConnection,
			tenant: "carbon.super",
			idpID:  "abc",
		},
		{
			name:    "results with fragment",
			raw:     ResultsPath("carbon.super", "abc", "s1"),
			kind:    RouteResults,
			tenant:  "carbon.super",
			idpID:   "abc",
			session: "s1",
		},
		{
			name:    "absolute results url",
			raw:     "https://localhost:9443/t/t1/console/connections/x/debug-results?sid=q1",
			kind:    RouteResults,
			tenant:  "t1",
			idpID:   "x",
			session: "q1",
		},
		{
			name: "unknown",
			raw:  "/t/carbon.super/console/applications/abc",
			kind: RouteUnknown,
		},
		{
			name: "unknown suffix",
			raw:  "/t/carbon.super/console/connections/abc/settings",
			kind: RouteUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route, err := ParseRoute(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, route.Kind)
			if tt.kind == RouteUnknown {
				return
			}
			assert.Equal(t, tt.tenant, route.TenantDomain)
			assert.Equal(t, tt.idpID, route.IdpID)

			session, ok := SessionIDFromURL(route.Location)
			assert.Equal(t, tt.session != "", ok)
			assert.Equal(t, tt.session, session)
		})
	}

	_, err := ParseRoute("http://[::1")
	assert.Error(t, err)
}
