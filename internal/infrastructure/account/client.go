package account

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/SashaDiz/directoryhunt-sub001/internal/domain/user"
	"github.com/SashaDiz/directoryhunt-sub001/internal/platform/resilience"
	"github.com/SashaDiz/directoryhunt-sub001/internal/usecase"
)

// Client verifies voter access tokens against the accounts service. Verified
// tokens are cached briefly so a vote burst from one session does not hammer
// introspection.
type Client struct {
	httpClient     *http.Client
	introspectURL  string
	adminKey       string
	logger         *slog.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool

	mu    sync.Mutex
	cache map[string]cachedPrincipal
	ttl   time.Duration
	now   func() time.Time
}

type cachedPrincipal struct {
	principal user.Principal
	expiresAt time.Time
}

func NewClient(httpClient *http.Client, baseURL, introspectPath, adminKey string, breakerCfg resilience.CircuitBreakerConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	breakerCfg = resilience.NormalizeCircuitBreakerConfig(breakerCfg)

	return &Client{
		httpClient:     httpClient,
		introspectURL:  buildURL(baseURL, introspectPath),
		adminKey:       strings.TrimSpace(adminKey),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
		cache:          make(map[string]cachedPrincipal),
		ttl:            30 * time.Second,
		now:            time.Now,
	}
}

func (c *Client) VerifyAccessToken(ctx context.Context, token string) (user.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return user.Principal{}, fmt.Errorf("%w: token is required", usecase.ErrUnauthorized)
	}

	cacheKey := hashToken(token)
	if principal, ok := c.cachedLookup(cacheKey); ok {
		return principal, nil
	}

	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			return user.Principal{}, fmt.Errorf("%w: account introspection circuit open", usecase.ErrDependencyUnavailable)
		}
	}

	principal, err := c.introspect(ctx, token)
	c.recordCircuitResult(err)
	if err != nil {
		return user.Principal{}, err
	}

	c.cacheStore(cacheKey, principal)
	return principal, nil
}

func (c *Client) introspect(ctx context.Context, token string) (user.Principal, error) {
	encoded, err := sonic.Marshal(introspectRequest{Token: token})
	if err != nil {
		return user.Principal{}, fmt.Errorf("marshal introspect request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.introspectURL, bytes.NewReader(encoded))
	if err != nil {
		return user.Principal{}, fmt.Errorf("create introspect request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.adminKey != "" {
		req.Header.Set("x-admin-key", c.adminKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return user.Principal{}, fmt.Errorf("%w: request account introspection: %v", usecase.ErrDependencyUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return user.Principal{}, fmt.Errorf("%w: introspection denied", usecase.ErrUnauthorized)
	case resp.StatusCode == http.StatusForbidden:
		// Admin key rejection is our misconfiguration, not the caller's.
		return user.Principal{}, fmt.Errorf("%w: introspection forbidden", usecase.ErrDependencyUnavailable)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return user.Principal{}, fmt.Errorf("read introspect response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.WarnContext(ctx, "account introspection non-200", "status_code", resp.StatusCode)
		return user.Principal{}, fmt.Errorf("%w: account introspection failed with status %d", usecase.ErrDependencyUnavailable, resp.StatusCode)
	}

	var decoded introspectResponse
	if err := sonic.Unmarshal(body, &decoded); err != nil {
		return user.Principal{}, fmt.Errorf("unmarshal introspect response: %w", err)
	}

	if !decoded.Active {
		return user.Principal{}, fmt.Errorf("%w: inactive token", usecase.ErrUnauthorized)
	}
	if strings.TrimSpace(decoded.UserID) == "" {
		return user.Principal{}, fmt.Errorf("invalid introspect response: user_id is empty")
	}

	return user.Principal{
		UserID: decoded.UserID,
		Email:  decoded.Email,
	}, nil
}

func (c *Client) cachedLookup(key string) (user.Principal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cached, ok := c.cache[key]
	if !ok {
		return user.Principal{}, false
	}
	if c.now().After(cached.expiresAt) {
		delete(c.cache, key)
		return user.Principal{}, false
	}
	return cached.principal, true
}

func (c *Client) cacheStore(key string, principal user.Principal) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache[key] = cachedPrincipal{
		principal: principal,
		expiresAt: c.now().Add(c.ttl),
	}
}

func (c *Client) recordCircuitResult(err error) {
	if !c.circuitEnabled || c.breaker == nil {
		return
	}
	if isCircuitFailure(err) {
		c.breaker.RecordFailure()
		return
	}
	c.breaker.RecordSuccess()
}

type introspectRequest struct {
	Token string `json:"token"`
}

type introspectResponse struct {
	Active bool   `json:"active"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}
