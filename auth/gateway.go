// auth/gateway.go
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wfunc/catanclient/logger"
	"github.com/wfunc/catanclient/monitor"
	"github.com/wfunc/catanclient/storage"
)

var (
	ErrNoRefreshToken = errors.New("no refresh token held")
	ErrRefreshFailed  = errors.New("token refresh failed")
)

// Gateway attaches bearer credentials to outbound requests and recovers
// transparently from access-token expiry. The refresh exchange is
// single-flight: N concurrent requests hitting 401 trigger exactly one
// refresh round-trip, and all of them retry with the new credentials.
type Gateway struct {
	httpClient *http.Client
	baseURL    string
	tokens     *TokenStore
	refresh    singleflight.Group
	// refreshSkew triggers a proactive refresh when the access token
	// expires within this window.
	refreshSkew time.Duration
	monitor     *monitor.Monitor
}

func NewGateway(baseURL string, timeout time.Duration, tokens *TokenStore, mon *monitor.Monitor) *Gateway {
	return &Gateway{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		tokens:      tokens,
		refreshSkew: 10 * time.Second,
		monitor:     mon,
	}
}

// BaseURL returns the server root the gateway was built for.
func (g *Gateway) BaseURL() string { return g.baseURL }

// Tokens exposes the store so the api client can install pairs on login.
func (g *Gateway) Tokens() *TokenStore { return g.tokens }

// Do sends the request with bearer credentials. The request must carry a
// replayable body (http.NewRequest with a bytes.Reader does) so it can be
// resent after a refresh.
func (g *Gateway) Do(req *http.Request) (*http.Response, error) {
	pair := g.tokens.Current()
	if pair.AccessToken != "" && pair.RefreshToken != "" {
		if exp, ok := AccessTokenExpiry(pair.AccessToken); ok && time.Until(exp) < g.refreshSkew {
			// Best effort: a failed proactive refresh falls through to
			// the 401 path below.
			_ = g.refreshTokens(req.Context(), pair.AccessToken)
		}
	}

	used := g.tokens.Current().AccessToken
	resp, err := g.send(req, used)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	pair = g.tokens.Current()
	if pair.RefreshToken == "" {
		// Nothing to recover with; the caller surfaces the auth error.
		return resp, nil
	}
	if pair.AccessToken == used {
		if err := g.refreshTokens(req.Context(), used); err != nil {
			// Tokens were revoked inside the shared flight; hand the
			// original 401 back.
			return resp, nil
		}
	}
	// Either we refreshed or a concurrent caller already did; resend with
	// the new credentials.
	resp.Body.Close()
	retry, err := cloneRequest(req)
	if err != nil {
		return nil, err
	}
	return g.send(retry, g.tokens.Current().AccessToken)
}

func (g *Gateway) send(req *http.Request, accessToken string) (*http.Response, error) {
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	if g.monitor != nil {
		g.monitor.IncInFlight()
		defer g.monitor.DecInFlight()
		start := time.Now()
		defer func() { g.monitor.ObserveRequestLatency(time.Since(start)) }()
	}
	return g.httpClient.Do(req)
}

// refreshTokens exchanges the refresh token for a new pair. Concurrent
// callers share one exchange; on failure the stored pair is revoked exactly
// once, inside the shared flight. usedAccess is the access token the caller
// saw 401 with: if the stored token already moved past it, the refresh
// happened elsewhere and this flight is a no-op.
func (g *Gateway) refreshTokens(ctx context.Context, usedAccess string) error {
	_, err, _ := g.refresh.Do("refresh", func() (interface{}, error) {
		pair := g.tokens.Current()
		if pair.AccessToken != usedAccess {
			return nil, nil
		}
		if pair.RefreshToken == "" {
			return nil, ErrNoRefreshToken
		}

		next, err := g.exchange(ctx, pair.RefreshToken)
		if err != nil {
			logger.Log.Warnf("Token refresh failed, revoking credentials: %v", err)
			if clearErr := g.tokens.Clear(); clearErr != nil {
				logger.Log.Errorf("Failed to clear revoked tokens: %v", clearErr)
			}
			return nil, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
		}
		if g.monitor != nil {
			g.monitor.IncTokenRefreshes()
		}
		return nil, g.tokens.Set(next)
	})
	return err
}

func (g *Gateway) exchange(ctx context.Context, refreshToken string) (storage.TokenPair, error) {
	body, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return storage.TokenPair{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/auth/refresh", bytes.NewReader(body))
	if err != nil {
		return storage.TokenPair{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return storage.TokenPair{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return storage.TokenPair{}, fmt.Errorf("refresh rejected with status %d", resp.StatusCode)
	}

	var payload struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return storage.TokenPair{}, err
	}
	return storage.TokenPair{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
	}, nil
}

func cloneRequest(req *http.Request) (*http.Request, error) {
	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		retry.Body = body
	} else if req.Body != nil && req.Body != http.NoBody {
		return nil, errors.New("request body is not replayable")
	}
	return retry, nil
}
