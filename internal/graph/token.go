package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/benline/priority-gateway/internal/config"
	"github.com/benline/priority-gateway/internal/domain"
)

const tokenScope = "https://graph.microsoft.com/.default"

// TokenCache holds a single Graph bearer token acquired through the
// client-credentials grant. The TTL is kept shorter than the provider's
// real one-hour expiry so a token is never used close to its deadline.
// All access goes through the mutex; concurrent callers finding the token
// stale refresh it once, not twice.
type TokenCache struct {
	tenantID     string
	clientID     string
	clientSecret string
	ttl          time.Duration

	tokenURL string
	client   *http.Client
	logger   *zap.Logger
	now      func() time.Time

	mu         sync.Mutex
	token      string
	acquiredAt time.Time
}

func NewTokenCache(cfg config.Graph, logger *zap.Logger) *TokenCache {
	return &TokenCache{
		tenantID:     cfg.TenantID,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		ttl:          cfg.TokenTTL,
		tokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", cfg.TenantID),
		client:       &http.Client{Timeout: cfg.Timeout},
		logger:       logger,
		now:          time.Now,
	}
}

// Token returns a valid bearer token, refreshing it when the cached one is
// absent or older than the TTL. On refresh failure the previous cached value
// is left untouched and ErrTokenUnavailable is returned.
func (tc *TokenCache) Token(ctx context.Context) (string, error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if tc.token != "" && tc.now().Sub(tc.acquiredAt) < tc.ttl {
		return tc.token, nil
	}

	tc.logger.Info("access token expired or absent, fetching a new one")
	token, err := tc.fetch(ctx)
	if err != nil {
		tc.logger.Error("token refresh failed", zap.Error(err))
		return "", err
	}

	tc.token = token
	tc.acquiredAt = tc.now()
	return tc.token, nil
}

// Invalidate clears the cached token unconditionally, forcing the next
// Token call to re-authenticate. Used after a failed send.
func (tc *TokenCache) Invalidate() {
	tc.mu.Lock()
	tc.token = ""
	tc.acquiredAt = time.Time{}
	tc.mu.Unlock()
}

func (tc *TokenCache) fetch(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", tc.clientID)
	form.Set("client_secret", tc.clientSecret)
	form.Set("scope", tokenScope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tc.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTokenUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := tc.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTokenUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTokenUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		tc.logger.Error("token endpoint rejected request",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return "", fmt.Errorf("%w: status %d", domain.ErrTokenUnavailable, resp.StatusCode)
	}

	var parsed struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTokenUnavailable, err)
	}
	if parsed.AccessToken == "" {
		return "", fmt.Errorf("%w: access_token missing in response", domain.ErrTokenUnavailable)
	}
	return parsed.AccessToken, nil
}
