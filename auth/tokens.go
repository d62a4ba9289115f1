// auth/tokens.go
package auth

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wfunc/catanclient/storage"
)

// TokenStore holds the access/refresh pair in memory and mirrors every
// write to durable storage so a restart resumes the session. Reads happen
// on every outbound request; writes only from login and the single-flight
// refresh.
type TokenStore struct {
	store storage.Store
	mutex sync.RWMutex
	pair  storage.TokenPair
}

func NewTokenStore(store storage.Store) (*TokenStore, error) {
	ts := &TokenStore{store: store}
	pair, err := store.LoadTokens()
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		return ts, nil
	}
	ts.pair = pair
	return ts, nil
}

func (t *TokenStore) Current() storage.TokenPair {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.pair
}

func (t *TokenStore) Set(pair storage.TokenPair) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if err := t.store.SaveTokens(pair); err != nil {
		return err
	}
	t.pair = pair
	return nil
}

// Clear revokes the stored pair, ending the session.
func (t *TokenStore) Clear() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.pair = storage.TokenPair{}
	return t.store.ClearTokens()
}

// AccessTokenExpiry peeks at the access token's exp claim without verifying
// the signature; the client never validates server tokens, it only uses the
// expiry to refresh ahead of a guaranteed 401.
func AccessTokenExpiry(raw string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
