package jenni

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/shinertx/jenni-shopify/internal/clock"
	"github.com/shinertx/jenni-shopify/internal/config"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	tokenPath        = "/api/sku-graph/product-availability-service/auth/token"
	tokenBuffer      = 60 * time.Second
	tokenMaxAttempts = 3
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// TokenManager caches the provider bearer credential and collapses concurrent
// refreshes onto a single in-flight exchange.
type TokenManager struct {
	cfg   config.Jenni
	httpc *http.Client
	log   *zap.Logger
	clock clock.Clock

	mu        sync.Mutex
	token     string
	expiresAt time.Time

	group singleflight.Group
}

func NewTokenManager(cfg config.Jenni, httpc *http.Client, log *zap.Logger, clk clock.Clock) *TokenManager {
	return &TokenManager{
		cfg:   cfg,
		httpc: httpc,
		log:   log.Named("jenni.token"),
		clock: clk,
	}
}

// GetToken returns the cached token when it is still valid, otherwise joins
// the single in-flight refresh. Failures are never cached.
func (m *TokenManager) GetToken(ctx context.Context) (string, error) {
	if !m.cfg.Enabled {
		return "", ErrDisabled
	}

	m.mu.Lock()
	if m.token != "" && m.clock.Now().Before(m.expiresAt) {
		token := m.token
		m.mu.Unlock()
		return token, nil
	}
	m.mu.Unlock()

	value, err, _ := m.group.Do("token", func() (any, error) {
		return m.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return value.(string), nil
}

func (m *TokenManager) refresh(ctx context.Context) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= tokenMaxAttempts; attempt++ {
		token, expiresIn, err := m.exchange(ctx)
		if err == nil {
			m.mu.Lock()
			m.token = token
			m.expiresAt = m.clock.Now().Add(time.Duration(expiresIn)*time.Second - tokenBuffer)
			m.mu.Unlock()
			return token, nil
		}
		lastErr = err
		m.log.Warn("token exchange failed", zap.Int("attempt", attempt), zap.Error(err))
		if ctx.Err() != nil {
			break
		}
	}
	return "", fmt.Errorf("%w: %v", ErrAuth, lastErr)
}

func (m *TokenManager) exchange(ctx context.Context) (string, int64, error) {
	body, err := json.Marshal(map[string]string{
		"client_id":     m.cfg.ClientID,
		"client_secret": m.cfg.ClientSecret,
	})
	if err != nil {
		return "", 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.APIHost+tokenPath, bytes.NewReader(body))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpc.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("token endpoint returned %d", resp.StatusCode)
	}

	var parsed tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", 0, err
	}
	if parsed.AccessToken == "" || parsed.ExpiresIn <= 0 {
		return "", 0, fmt.Errorf("token endpoint returned empty credential")
	}
	return parsed.AccessToken, parsed.ExpiresIn, nil
}
