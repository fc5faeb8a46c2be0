package debugapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// StatusURLGenerated is the initiation status reported when the backend
// produced an authorization URL for the identity provider.
const StatusURLGenerated = "URL_GENERATED"

// Metadata keys carrying the backend-reported step statuses.
const (
	MetaStepConnection     = "step_connection_status"
	MetaStepAuthentication = "step_authentication_status"
	MetaStepClaimMapping   = "step_claim_mapping_status"
)

// InitiateResponse is returned by POST /debug/connection/{idpId}.
type InitiateResponse struct {
	SessionID        string `json:"sessionId"`
	Status           string `json:"status"`
	AuthorizationURL string `json:"authorizationUrl,omitempty"`
}

// Metadata holds free-form backend metadata of a test result.
type Metadata map[string]any

// Step returns the string value of a step status key. Missing or non-string
// values return "".
func (m Metadata) Step(key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

// TestResult is returned by GET /debug/result/{sessionId}.
type TestResult struct {
	SessionID      string         `json:"sessionId"`
	IdpName        string         `json:"idpName"`
	Authenticator  string         `json:"authenticator"`
	Username       string         `json:"username"`
	UserID         string         `json:"userId"`
	Success        bool           `json:"success"`
	Error          *string        `json:"error"`
	Timestamp      Timestamp      `json:"timestamp"`
	IncomingClaims map[string]any `json:"incomingClaims"`
	MappedClaims   map[string]any `json:"mappedClaims"`
	UserAttributes map[string]any `json:"userAttributes"`
	Metadata       Metadata       `json:"metadata"`

	// Raw is the response body as received.
	Raw json.RawMessage `json:"-"`
}

// GeneralInfo returns the summary fields shown on the "General Info" tab.
func (r *TestResult) GeneralInfo() map[string]any {
	return map[string]any{
		"sessionId":     r.SessionID,
		"idpName":       r.IdpName,
		"authenticator": r.Authenticator,
		"username":      r.Username,
		"userId":        r.UserID,
		"success":       r.Success,
		"error":         r.Error,
		"timestamp":     r.Timestamp,
	}
}

// Timestamp accepts either a JSON number or a JSON string.
type Timestamp string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Timestamp(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("timestamp must be a number or a string: %w", err)
	}
	*t = Timestamp(n.String())
	return nil
}

// MarshalJSON keeps numeric timestamps numeric.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t == "" {
		return []byte("null"), nil
	}
	if _, err := strconv.ParseFloat(string(t), 64); err == nil {
		return []byte(t), nil
	}
	return json.Marshal(string(t))
}

// FederatedAuthenticators describes the authenticators of a connection.
type FederatedAuthenticators struct {
	DefaultAuthenticatorID string `json:"defaultAuthenticatorId"`
}

// Connector is the connection metadata used to decorate the test page.
type Connector struct {
	ID                      string                   `json:"id"`
	Name                    string                   `json:"name"`
	FriendlyName            string                   `json:"friendlyName,omitempty"`
	DisplayName             string                   `json:"displayName,omitempty"`
	Image                   string                   `json:"image,omitempty"`
	FederatedAuthenticators *FederatedAuthenticators `json:"federatedAuthenticators,omitempty"`
}

// IsIdentityProvider reports whether the connector is an identity provider
// rather than a single authenticator.
func (c *Connector) IsIdentityProvider() bool {
	return c != nil && c.FederatedAuthenticators != nil
}

// APIError is the error body of the console API.
type APIError struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Description string `json:"description"`
	TraceID     string `json:"traceId"`
}
