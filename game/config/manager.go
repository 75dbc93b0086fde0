package config

import (
	"strings"
	"sync"
)

// Header names sent to the remote API.
const (
	HeaderContentType = "Content-Type"
	HeaderToken       = "X-Token"
	HeaderUsername    = "X-Username"
)

// Credential is a point-in-time copy of the auth values.
type Credential struct {
	Token    string `json:"-"`
	Username string `json:"username,omitempty"`
}

// Manager holds the base URL and credential for the lifetime of the process.
type Manager struct {
	baseURL  string
	token    string
	username string
	mu       sync.RWMutex
}

// NewManager creates a manager from validated settings.
func NewManager(settings Settings) (*Manager, error) {
	if err := validateBaseURL(settings.BaseURL); err != nil {
		return nil, err
	}

	return &Manager{
		baseURL:  strings.TrimRight(settings.BaseURL, "/"),
		token:    settings.Token,
		username: settings.Username,
	}, nil
}

// BaseURL returns the API root without a trailing slash.
func (m *Manager) BaseURL() string {
	return m.baseURL
}

// Token returns the current token, or "" when unset.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// Username returns the configured username, or "" when unset.
func (m *Manager) Username() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.username
}

// Credential returns a consistent copy of token and username.
func (m *Manager) Credential() Credential {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Credential{Token: m.token, Username: m.username}
}

// SetToken replaces the token used for subsequent requests.
func (m *Manager) SetToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = strings.TrimSpace(token)
}

// Update replaces the credential. Empty fields leave the current value untouched.
func (m *Manager) Update(c Credential) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.Token != "" {
		m.token = strings.TrimSpace(c.Token)
	}
	if c.Username != "" {
		m.username = strings.TrimSpace(c.Username)
	}
}

// HasAuthentication reports whether a token or a username is present.
func (m *Manager) HasAuthentication() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token != "" || m.username != ""
}

// AuthHeaders returns the headers for one request. Content-Type is always set,
// X-Token and X-Username only when present.
func (m *Manager) AuthHeaders() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	headers := map[string]string{
		HeaderContentType: "application/json",
	}
	if m.token != "" {
		headers[HeaderToken] = m.token
	}
	if m.username != "" {
		headers[HeaderUsername] = m.username
	}
	return headers
}
