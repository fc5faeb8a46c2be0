package debugflow

import (
	"fmt"
	"net/url"
	"strings"
)

// Navigator moves the operator to another view.
type Navigator interface {
	Push(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

// Push calls f(path).
func (f NavigatorFunc) Push(path string) {
	f(path)
}

const resultsSuffix = "debug-results"

// ConnectionPath is the detail view of a connection.
func ConnectionPath(tenantDomain, idpID string) string {
	return fmt.Sprintf("/t/%s/console/connections/%s", tenantDomain, idpID)
}

// ResultsPath is the results view of a run. The session id travels in the
// fragment so that it never reaches a server log.
func ResultsPath(tenantDomain, idpID, sessionID string) string {
	return fmt.Sprintf("%s/%s#status=successful&sessionId=%s",
		ConnectionPath(tenantDomain, idpID), resultsSuffix, url.QueryEscape(sessionID))
}

// RouteKind identifies a console view.
type RouteKind int

const (
	RouteUnknown RouteKind = iota
	RouteConnection
	RouteResults
)

// Route is a parsed console path.
type Route struct {
	Kind         RouteKind
	TenantDomain string
	IdpID        string
	// Location is the full parsed path, query and fragment included.
	Location *url.URL
}

// ParseRoute recognises the connection and results paths. Absolute URLs are
// accepted; only their path, query and fragment matter.
func ParseRoute(raw string) (Route, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Route{}, fmt.Errorf("invalid console path %q: %w", raw, err)
	}

	route := Route{Location: u}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")

	// t/{tenant}/console/connections/{idpId}[/debug-results]
	if len(parts) < 5 || parts[0] != "t" || parts[2] != "console" || parts[3] != "connections" {
		return route, nil
	}
	route.TenantDomain = parts[1]
	route.IdpID = parts[4]

	switch {
	case len(parts) == 5:
		route.Kind = RouteConnection
	case len(parts) == 6 && parts[5] == resultsSuffix:
		route.Kind = RouteResults
	}
	return route, nil
}
