// Package mirror pushes collection payloads to a remote account store on a
// best-effort basis. It is strictly a write-side observer: never a read
// path, never a gate on local persistence.
package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultPushTimeout = 10 * time.Second

var errMissingBaseURL = errors.New("mirror: base url is required")

// HTTPMirrorConfig configures the remote push target.
type HTTPMirrorConfig struct {
	// BaseURL is the account store root, e.g. https://example.com/u/alice.
	BaseURL string
	// SessionToken authorizes pushes. With no token the mirror stays
	// dormant and every push is dropped.
	SessionToken string
	Client       *http.Client
	Timeout      time.Duration
	Logger       *zap.Logger
}

// HTTPMirror PUTs JSON payloads to <base>/<path>.json. Every push runs on
// its own goroutine; failures are logged and swallowed so the write path
// that triggered the push is never affected.
type HTTPMirror struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	logger  *zap.Logger

	mu    sync.RWMutex
	token string
}

// NewHTTPMirror validates the configuration and constructs the mirror.
func NewHTTPMirror(cfg HTTPMirrorConfig) (*HTTPMirror, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errMissingBaseURL
	}
	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultPushTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPMirror{
		baseURL: baseURL,
		client:  client,
		timeout: timeout,
		logger:  logger,
		token:   strings.TrimSpace(cfg.SessionToken),
	}, nil
}

// SetSessionToken installs or replaces the session token. An empty token
// deactivates the mirror.
func (m *HTTPMirror) SetSessionToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = strings.TrimSpace(token)
}

// SessionActive reports whether pushes are currently authorized.
func (m *HTTPMirror) SessionActive() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token != ""
}

// Push serializes the payload synchronously, then fires the upload on a
// background goroutine. Without an active session the payload is dropped.
func (m *HTTPMirror) Push(path string, payload any) {
	m.mu.RLock()
	token := m.token
	m.mu.RUnlock()
	if token == "" {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		m.logger.Warn("mirror payload encode failed",
			zap.String("path", path), zap.Error(err))
		return
	}

	go m.upload(path, token, body)
}

func (m *HTTPMirror) upload(path, token string, body []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	target := fmt.Sprintf("%s/%s.json", m.baseURL, strings.Trim(path, "/"))
	request, err := http.NewRequestWithContext(ctx, http.MethodPut, target, bytes.NewReader(body))
	if err != nil {
		m.logger.Warn("mirror request build failed",
			zap.String("path", path), zap.Error(err))
		return
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Authorization", "Bearer "+token)

	response, err := m.client.Do(request)
	if err != nil {
		m.logger.Warn("mirror push failed",
			zap.String("path", path), zap.Error(err))
		return
	}
	defer response.Body.Close() //nolint:errcheck

	if response.StatusCode >= http.StatusBadRequest {
		m.logger.Warn("mirror push rejected",
			zap.String("path", path), zap.Int("status", response.StatusCode))
		return
	}

	m.logger.Debug("mirror push accepted",
		zap.String("path", path), zap.Int("bytes", len(body)))
}
