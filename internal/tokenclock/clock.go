// Package tokenclock derives expiry information from the stored auth token.
//
// The token is decoded WITHOUT signature verification: the client holds no
// secret, and validation is the server's job on every request. Only the exp
// claim is read, and only to drive proactive logout, never authorization.
package tokenclock

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/leadgrid-dev/leadgrid/internal/credstore"
)

// DefaultSkew is subtracted from the token's true expiry so the session
// ends slightly early, preventing a request from carrying a token that
// expires mid-flight.
const DefaultSkew = 2 * time.Second

// Clock answers expiry questions about the token in the credential store.
type Clock struct {
	store *credstore.Store
	skew  time.Duration

	// Now is the time source, overridable in tests.
	Now func() time.Time
}

// New creates a clock over store with the default skew.
func New(store *credstore.Store) *Clock {
	return &Clock{store: store, skew: DefaultSkew, Now: time.Now}
}

// Skew returns the configured expiry skew.
func (c *Clock) Skew() time.Duration {
	return c.skew
}

// IsAuthenticated reports whether a token is present, regardless of its
// validity.
func (c *Clock) IsAuthenticated() bool {
	return c.store.Token() != ""
}

// ExpiresAt returns the token's absolute expiry instant. ok is false when
// there is no token, the token cannot be decoded, or it carries no exp
// claim.
func (c *Clock) ExpiresAt() (time.Time, bool) {
	tokenString := c.store.Token()
	if tokenString == "" {
		return time.Time{}, false
	}

	token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}

	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}

	return exp.Time, true
}

// IsExpired reports whether the session should be treated as over. A token
// that is present but undecodable counts as expired (fail closed). With no
// token at all there is nothing to expire, so the answer is false.
func (c *Clock) IsExpired() bool {
	if !c.IsAuthenticated() {
		return false
	}
	exp, ok := c.ExpiresAt()
	if !ok {
		return true
	}
	return !c.Now().Before(exp.Add(-c.skew))
}

// Remaining returns the time left before the skew-adjusted expiry. ok is
// false when no valid expiry can be established; callers must treat that
// as already expired, never as unlimited.
func (c *Clock) Remaining() (time.Duration, bool) {
	exp, ok := c.ExpiresAt()
	if !ok {
		return 0, false
	}
	return exp.Add(-c.skew).Sub(c.Now()), true
}
