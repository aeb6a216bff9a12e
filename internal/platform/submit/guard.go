// Package submit prevents a form from being submitted twice. Every rendered
// form carries a one-time token; the first submission claims it and any
// replay is rejected before the API is called.
package submit

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FieldName is the hidden form field the token travels in.
const FieldName = "submit_token"

// DefaultTTL bounds how long an unused form token stays valid.
const DefaultTTL = 2 * time.Hour

var (
	ErrMissingToken = errors.New("form token missing")
	ErrTokenUsed    = errors.New("form already submitted")
)

// Guard issues and claims one-time form tokens.
type Guard struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	issued map[string]time.Time
}

func NewGuard(ttl time.Duration) *Guard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Guard{ttl: ttl, now: time.Now, issued: make(map[string]time.Time)}
}

// Issue returns a fresh token for a form about to be rendered.
func (g *Guard) Issue() string {
	token := uuid.NewString()
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sweep()
	g.issued[token] = g.now().Add(g.ttl)
	return token
}

// Claim consumes token. It fails if the token is empty, unknown, expired or
// already claimed.
func (g *Guard) Claim(token string) error {
	if token == "" {
		return ErrMissingToken
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	exp, ok := g.issued[token]
	if !ok {
		return ErrTokenUsed
	}
	delete(g.issued, token)
	if g.now().After(exp) {
		return ErrTokenUsed
	}
	return nil
}

// Pending reports how many tokens are outstanding.
func (g *Guard) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.issued)
}

func (g *Guard) sweep() {
	now := g.now()
	for tok, exp := range g.issued {
		if now.After(exp) {
			delete(g.issued, tok)
		}
	}
}
