package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults applied when a setting is not provided.
const (
	DefaultBaseURL       = "https://screeps.com/api"
	DefaultLoopWindow    = 60 * time.Second
	DefaultLoopThreshold = 3
	DefaultHTTPTimeout   = 30 * time.Second
)

// Environment variable names read by FromEnv.
const (
	EnvBaseURL       = "SCREEPS_BASE_URL"
	EnvToken         = "SCREEPS_TOKEN"
	EnvUsername      = "SCREEPS_USERNAME"
	EnvLoopWindow    = "SCREEPS_LOOP_WINDOW"
	EnvLoopThreshold = "SCREEPS_LOOP_THRESHOLD"
	EnvHTTPTimeout   = "SCREEPS_HTTP_TIMEOUT"
)

var (
	ErrMissingToken    = errors.New("no token configured, set SCREEPS_TOKEN and try again")
	ErrInvalidBaseURL  = errors.New("invalid base URL")
	ErrInvalidSettings = errors.New("invalid settings")
)

// Settings is the full set of inputs needed to build the gateway.
type Settings struct {
	BaseURL       string
	Token         string
	Username      string
	LoopWindow    time.Duration
	LoopThreshold int
	HTTPTimeout   time.Duration
}

// DefaultSettings returns settings with every default applied and no credential.
func DefaultSettings() Settings {
	return Settings{
		BaseURL:       DefaultBaseURL,
		LoopWindow:    DefaultLoopWindow,
		LoopThreshold: DefaultLoopThreshold,
		HTTPTimeout:   DefaultHTTPTimeout,
	}
}

// FromEnv reads settings from the process environment on top of the defaults.
func FromEnv() (Settings, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Settings, error) {
	s := DefaultSettings()

	if v, ok := lookup(EnvBaseURL); ok && strings.TrimSpace(v) != "" {
		s.BaseURL = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvToken); ok {
		s.Token = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvUsername); ok {
		s.Username = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvLoopWindow); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return s, fmt.Errorf("%w: %s: %v", ErrInvalidSettings, EnvLoopWindow, err)
		}
		s.LoopWindow = d
	}
	if v, ok := lookup(EnvLoopThreshold); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return s, fmt.Errorf("%w: %s: %v", ErrInvalidSettings, EnvLoopThreshold, err)
		}
		s.LoopThreshold = n
	}
	if v, ok := lookup(EnvHTTPTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return s, fmt.Errorf("%w: %s: %v", ErrInvalidSettings, EnvHTTPTimeout, err)
		}
		s.HTTPTimeout = d
	}

	return s, nil
}

// Validate checks the settings without touching the network. A missing token is
// not a validation error; RequireToken reports it separately so callers can
// decide whether unauthenticated use is acceptable.
func (s Settings) Validate() error {
	if err := validateBaseURL(s.BaseURL); err != nil {
		return err
	}
	if s.LoopWindow < 0 {
		return fmt.Errorf("%w: loop window must not be negative", ErrInvalidSettings)
	}
	if s.LoopThreshold < 0 {
		return fmt.Errorf("%w: loop threshold must not be negative", ErrInvalidSettings)
	}
	// A threshold of 1 would block the very first call.
	if s.LoopThreshold == 1 {
		return fmt.Errorf("%w: loop threshold must be 0 (disabled) or at least 2", ErrInvalidSettings)
	}
	if s.LoopThreshold > 0 && s.LoopWindow == 0 {
		return fmt.Errorf("%w: loop window must be positive when loop detection is enabled", ErrInvalidSettings)
	}
	if s.HTTPTimeout <= 0 {
		return fmt.Errorf("%w: http timeout must be positive", ErrInvalidSettings)
	}
	return nil
}

// RequireToken returns ErrMissingToken when no token is set.
func (s Settings) RequireToken() error {
	if s.Token == "" {
		return ErrMissingToken
	}
	return nil
}

func validateBaseURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: empty", ErrInvalidBaseURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidBaseURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidBaseURL)
	}
	return nil
}
