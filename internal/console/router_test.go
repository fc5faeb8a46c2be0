package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukaszraczylo/idptest/internal/debugflow"
)

func TestRouter(t *testing.T) {
	r := NewRouter(debugflow.ConnectionPath("carbon.super", "abc"), nil)

	var routes []debugflow.Route
	r.Listen(func(route debugflow.Route) { routes = append(routes, route) })

	r.Push(debugflow.ResultsPath("carbon.super", "abc", "s1"))
	r.Push("http://[::1")

	require.Len(t, routes, 1, "unparseable paths are not announced")
	assert.Equal(t, debugflow.RouteResults, routes[0].Kind)
	assert.Equal(t, "abc", routes[0].IdpID)

	id, ok := debugflow.SessionIDFromURL(routes[0].Location)
	assert.True(t, ok)
	assert.Equal(t, "s1", id)

	assert.Equal(t, "http://[::1", r.Current())
	assert.Len(t, r.History(), 3)
}

func TestRouterEmpty(t *testing.T) {
	r := NewRouter("", nil)
	assert.Empty(t, r.Current())
	assert.Empty(t, r.History())
}

func TestStaticPrompter(t *testing.T) {
	yes, err := StaticPrompter(true).Confirm("Retry?", false)
	assert.NoError(t, err)
	assert.True(t, yes)

	no, err := StaticPrompter(false).Confirm("Retry?", true)
	assert.NoError(t, err)
	assert.False(t, no)
}
