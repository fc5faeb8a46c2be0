// Package sandbox serves a local stand-in for the connection debug API. It
// lets the test flow run end to end without an identity server.
package sandbox

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"golang.org/x/time/rate"

	"github.com/lukaszraczylo/idptest/internal/debugapi"
)

const (
	// CookieName is the name of the console session cookie.
	CookieName = "idptest-console"

	operatorKey = "operator"
	minSecret   = 32
)

// Config holds the sandbox settings.
type Config struct {
	// Secret signs the console session cookie. A random one is used when empty.
	Secret    string
	APIPath   string
	ResultTTL time.Duration
	RPS       float64
	Burst     int
	// Connectors are the identity providers the sandbox knows, by id.
	Connectors map[string]debugapi.Connector
}

// DefaultConfig returns the sandbox defaults.
func DefaultConfig() Config {
	return Config{
		APIPath:   debugapi.DefaultAPIPath,
		ResultTTL: 10 * time.Minute,
		RPS:       20,
		Burst:     40,
		Connectors: map[string]debugapi.Connector{
			"google": {
				ID:                      "google",
				Name:                    "Google",
				FederatedAuthenticators: &debugapi.FederatedAuthenticators{DefaultAuthenticatorID: "R29vZ2xlT0lEQ0F1dGhlbnRpY2F0b3I"},
			},
			"totp": {
				ID:           "totp",
				Name:         "totp",
				FriendlyName: "TOTP",
				DisplayName:  "Authenticator App",
			},
		},
	}
}

// Logger interface for sandbox operations
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
}

type debugSession struct {
	id         string
	idpID      string
	createdAt  time.Time
	authorized bool
	result     *debugapi.TestResult
}

// Server is the sandbox backend.
type Server struct {
	cfg     Config
	cookies *sessions.CookieStore
	limiter *rate.Limiter
	logger  Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*debugSession
}

// New creates a sandbox server.
func New(cfg Config, logger Logger) (*Server, error) {
	def := DefaultConfig()
	if cfg.APIPath == "" {
		cfg.APIPath = def.APIPath
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = def.ResultTTL
	}
	if cfg.RPS <= 0 {
		cfg.RPS = def.RPS
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if cfg.Connectors == nil {
		cfg.Connectors = def.Connectors
	}
	if cfg.Secret == "" {
		cfg.Secret = strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	}
	if len(cfg.Secret) < minSecret {
		return nil, fmt.Errorf("sandbox secret must be at least %d characters", minSecret)
	}
	if logger == nil {
		logger = noOpLogger{}
	}

	store := sessions.NewCookieStore([]byte(cfg.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int((8 * time.Hour).Seconds()),
	}

	return &Server{
		cfg:      cfg,
		cookies:  store,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*debugSession),
	}, nil
}

// Handler returns the HTTP handler of the sandbox.
func (s *Server) Handler() http.Handler {
	api := "/" + strings.Trim(s.cfg.APIPath, "/")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /sandbox/login", s.handleLogin)
	mux.HandleFunc("GET /sandbox/authorize", s.handleAuthorize)
	mux.Handle("POST "+api+"/debug/connection/{idpId}", s.requireOperator(s.handleInitiate))
	mux.Handle("GET "+api+"/debug/result/{sessionId}", s.requireOperator(s.handleResult))
	mux.Handle("GET "+api+"/identity-providers/{idpId}", s.requireOperator(s.handleConnector))
	return s.rateLimit(mux)
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "SBX-42900", "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireOperator(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := s.cookies.Get(r, CookieName)
		if err != nil || session.IsNew || session.Values[operatorKey] == nil {
			writeError(w, http.StatusUnauthorized, "SBX-40100", "Console session is missing or expired")
			return
		}
		next(w, r)
	})
}

// handleLogin issues the console session cookie and echoes it in the body
// so that it can be pasted into the configuration.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	operator := r.URL.Query().Get("user")
	if operator == "" {
		operator = "admin"
	}

	session, _ := s.cookies.New(r, CookieName)
	session.Values[operatorKey] = operator

	if err := session.Save(r, w); err != nil {
		writeError(w, http.StatusInternalServerError, "SBX-50000", "Failed to create console session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"operator":      operator,
		"sessionCookie": issuedCookie(w),
	})
}

func (s *Server) handleInitiate(w http.ResponseWriter, r *http.Request) {
	idpID := r.PathValue("idpId")
	if _, ok := s.cfg.Connectors[idpID]; !ok {
		writeError(w, http.StatusNotFound, "SBX-60004", fmt.Sprintf("Identity provider %s not found", idpID))
		return
	}

	sess := &debugSession{
		id:        uuid.NewString(),
		idpID:     idpID,
		createdAt: s.now(),
	}
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.logger.Infof("Started debug session %s for %s", sess.id, idpID)
	writeJSON(w, http.StatusOK, debugapi.InitiateResponse{
		SessionID:        sess.id,
		Status:           debugapi.StatusURLGenerated,
		AuthorizationURL: baseURL(r) + "/sandbox/authorize?sessionId=" + sess.id,
	})
}

// handleAuthorize plays the identity provider: it completes the
// authentication of a session and asks the operator to close the window.
func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("sessionId")

	s.mu.Lock()
	sess, ok := s.live(id)
	if ok && !sess.authorized {
		sess.authorized = true
		sess.result = s.cannedResult(sess)
	}
	s.mu.Unlock()

	if !ok {
		http.Error(w, "Unknown or expired debug session", http.StatusNotFound)
		return
	}
	s.logger.Infof("Debug session %s authenticated", id)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = fmt.Fprint(w, "<!doctype html><title>Authenticated</title><p>Authentication complete, you may close this window.</p>")
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("sessionId")

	s.mu.Lock()
	sess, ok := s.live(id)
	var result *debugapi.TestResult
	if ok && sess.authorized {
		result = sess.result
	}
	s.mu.Unlock()

	if result == nil {
		writeError(w, http.StatusNotFound, "SBX-60404", "Debug result not found")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleConnector(w http.ResponseWriter, r *http.Request) {
	conn, ok := s.cfg.Connectors[r.PathValue("idpId")]
	if !ok {
		writeError(w, http.StatusNotFound, "SBX-60004", "Identity provider not found")
		return
	}
	writeJSON(w, http.StatusOK, conn)
}

// live returns an unexpired session, evicting it once its TTL has passed.
// Callers hold s.mu.
func (s *Server) live(id string) (*debugSession, bool) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if s.now().Sub(sess.createdAt) > s.cfg.ResultTTL {
		delete(s.sessions, id)
		s.logger.Debugf("Evicted debug session %s", id)
		return nil, false
	}
	return sess, true
}

// Sweep drops every expired session and returns how many were dropped.
func (s *Server) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id := range s.sessions {
		if _, ok := s.live(id); !ok {
			n++
		}
	}
	return n
}

func (s *Server) cannedResult(sess *debugSession) *debugapi.TestResult {
	conn := s.cfg.Connectors[sess.idpID]
	email := "alice@example.com"
	return &debugapi.TestResult{
		SessionID:     sess.id,
		IdpName:       conn.Name,
		Authenticator: conn.Name + "Authenticator",
		Username:      email,
		UserID:        uuid.NewSHA1(uuid.NameSpaceURL, []byte(email)).String(),
		Success:       true,
		Timestamp:     debugapi.Timestamp(fmt.Sprint(s.now().UnixMilli())),
		IncomingClaims: map[string]any{
			"email":          email,
			"email_verified": true,
			"given_name":     "Alice",
		},
		MappedClaims: map[string]any{
			"http://wso2.org/claims/emailaddress": email,
			"http://wso2.org/claims/givenname":    "Alice",
		},
		UserAttributes: map[string]any{
			"username": email,
		},
		Metadata: debugapi.Metadata{
			debugapi.MetaStepConnection:     "success",
			debugapi.MetaStepAuthentication: "success",
			debugapi.MetaStepClaimMapping:   "success",
		},
	}
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// issuedCookie returns "name=value" of the console cookie set on w.
func issuedCookie(w http.ResponseWriter) string {
	for _, line := range w.Header().Values("Set-Cookie") {
		c, err := http.ParseSetCookie(line)
		if err == nil && c.Name == CookieName {
			return c.Name + "=" + c.Value
		}
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, debugapi.APIError{
		Code:    code,
		Message: message,
		TraceID: uuid.NewString(),
	})
}

type noOpLogger struct{}

func (noOpLogger) Debugf(format string, args ...interface{}) {}
func (noOpLogger) Infof(format string, args ...interface{})  {}
