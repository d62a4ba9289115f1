// api/errors.go
package api

import (
	"fmt"
	"strings"
)

// FallbackMessage is shown when a rejected mutation carries no structured
// detail list.
const FallbackMessage = "something went wrong, please try again"

// Error is the server's structured rejection: an HTTP status plus zero or
// more human-readable details.
type Error struct {
	Status  int      `json:"-"`
	Details []string `json:"details"`
}

func (e *Error) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("server rejected request with status %d", e.Status)
	}
	return fmt.Sprintf("server rejected request with status %d: %s", e.Status, strings.Join(e.Details, "; "))
}

// Messages returns the detail strings for user display, or the generic
// fallback when the response carried none.
func (e *Error) Messages() []string {
	if len(e.Details) == 0 {
		return []string{FallbackMessage}
	}
	return e.Details
}

// IsUnauthorized reports an auth failure the gateway could not recover
// from; the caller routes the user back to login.
func (e *Error) IsUnauthorized() bool {
	return e.Status == 401
}
