// storage/interface.go
package storage

import (
	"errors"
)

// TokenPair is the persisted credential pair. It survives restarts and is
// cleared on logout or refresh-token revocation.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Settings are the user preferences the client keeps locally.
type Settings struct {
	Locale      string
	ColorScheme string
}

// Store is the client's durable local state. Implementations must be safe
// for concurrent use; every outbound request reads the token pair while a
// refresh may be writing it.
type Store interface {
	SaveTokens(pair TokenPair) error
	LoadTokens() (TokenPair, error)
	ClearTokens() error

	SaveSettings(s Settings) error
	LoadSettings() (Settings, error)

	Close() error
}

var ErrNotFound = errors.New("record not found")
