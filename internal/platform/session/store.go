// Package session owns the console's authentication state: the bearer token
// and the signed-in user. The state is process-wide, persisted through a
// Storage, and published to subscribers (the API client) whenever the token
// changes.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/clinic/clinic-admin/internal/platform/apiclient"
	"github.com/clinic/clinic-admin/pkg/clinicmodels"
)

// LoginPath is the authentication endpoint, relative to the API root.
const LoginPath = "/login"

// ErrSignInFailed is returned when the server accepted the request but did
// not issue a token.
var ErrSignInFailed = errors.New("sign-in failed: no token issued")

// literal left behind by clients that stored an undefined value
const undefinedLiteral = "undefined"

// Poster is the part of the API client the store needs to sign in.
type Poster interface {
	Post(ctx context.Context, path string, body, out any, opts ...apiclient.RequestOption) error
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string             `json:"token"`
	User  *clinicmodels.User `json:"user"`
}

type subscriber struct {
	id int
	fn func(token string)
}

// Store is the single owner of the session token.
type Store struct {
	storage Storage
	api     Poster
	logger  zerolog.Logger

	mu    sync.RWMutex
	token string
	user  *clinicmodels.User

	subMu  sync.Mutex
	subs   []subscriber
	nextID int
}

func NewStore(storage Storage, api Poster, logger zerolog.Logger) *Store {
	return &Store{storage: storage, api: api, logger: logger}
}

// Subscribe registers fn to be called with the new token (empty when signed
// out) every time the token changes. fn is called once immediately with the
// current token. The returned function cancels the subscription.
func (s *Store) Subscribe(fn func(token string)) (cancel func()) {
	s.subMu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.subMu.Unlock()

	fn(s.CurrentToken())

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) CurrentToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// CurrentUser returns a copy of the signed-in user, or nil.
func (s *Store) CurrentUser() *clinicmodels.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// HasToken reports whether a token is present. It is the only signal the
// route guard uses.
func (s *Store) HasToken() bool {
	return s.CurrentToken() != ""
}

// Restore loads the persisted session. Missing, "undefined" or malformed
// values are treated as absent and purged; storage errors are logged. It
// never fails and may be called repeatedly.
func (s *Store) Restore(ctx context.Context) {
	token := s.readToken(ctx)
	user := s.readUser(ctx)
	s.set(token, user)
	s.logger.Debug().Bool("signed_in", token != "").Msg("session restored")
}

// Reload re-reads the persisted session after an external change.
// Subscribers are notified only if the token changed.
func (s *Store) Reload(ctx context.Context) {
	before := s.CurrentToken()
	s.Restore(ctx)
	if after := s.CurrentToken(); after != before {
		s.logger.Info().Bool("signed_in", after != "").Msg("session changed outside this process")
	}
}

// Watch reloads the session whenever the storage reports an external change.
// It returns immediately when the storage cannot watch.
func (s *Store) Watch(ctx context.Context) error {
	w, ok := s.storage.(Watcher)
	if !ok {
		return nil
	}
	return w.Watch(ctx, func() { s.Reload(ctx) })
}

// SignIn authenticates against the API. On failure the returned error is the
// server's rejection (*apiclient.Error) or ErrSignInFailed, and the stored
// session is left untouched.
func (s *Store) SignIn(ctx context.Context, email, password string) error {
	var resp loginResponse
	if err := s.api.Post(ctx, LoginPath, credentials{Email: email, Password: password}, &resp); err != nil {
		s.logger.Info().Str("email", email).Str("reason", apiclient.Message(err)).Msg("sign-in rejected")
		return err
	}
	if resp.Token == "" {
		s.logger.Warn().Str("email", email).Msg("sign-in response carried no token")
		return ErrSignInFailed
	}

	s.set(resp.Token, resp.User)
	s.persist(ctx, resp.Token, resp.User)
	s.logger.Info().Str("email", email).Msg("signed in")
	return nil
}

// SignOut clears the session in memory and in storage.
func (s *Store) SignOut(ctx context.Context) {
	s.set("", nil)
	for _, key := range []string{KeyToken, KeyUser} {
		if err := s.storage.Delete(ctx, key); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to clear persisted session")
		}
	}
	s.logger.Info().Msg("signed out")
}

func (s *Store) set(token string, user *clinicmodels.User) {
	s.mu.Lock()
	changed := s.token != token
	s.token = token
	s.user = user
	s.mu.Unlock()

	if changed {
		s.notify(token)
	}
}

func (s *Store) notify(token string) {
	s.subMu.Lock()
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.fn(token)
	}
}

func (s *Store) persist(ctx context.Context, token string, user *clinicmodels.User) {
	if err := s.storage.Set(ctx, KeyToken, token); err != nil {
		s.logger.Warn().Err(err).Msg("failed to persist session token")
	}
	data, err := json.Marshal(user)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode session user")
		return
	}
	if err := s.storage.Set(ctx, KeyUser, string(data)); err != nil {
		s.logger.Warn().Err(err).Msg("failed to persist session user")
	}
}

func (s *Store) readToken(ctx context.Context) string {
	v, ok, err := s.storage.Get(ctx, KeyToken)
	if errors.Is(err, ErrCorrupt) {
		s.logger.Warn().Err(err).Msg("corrupt persisted session, resetting")
		s.purge(ctx, KeyToken)
		return ""
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read persisted token")
		return ""
	}
	if !ok || v == "" {
		return ""
	}
	if v == undefinedLiteral || v == "null" {
		s.purge(ctx, KeyToken)
		return ""
	}
	return v
}

func (s *Store) readUser(ctx context.Context) *clinicmodels.User {
	v, ok, err := s.storage.Get(ctx, KeyUser)
	if errors.Is(err, ErrCorrupt) {
		s.purge(ctx, KeyUser)
		return nil
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read persisted user")
		return nil
	}
	if !ok {
		return nil
	}
	if v == "" || v == undefinedLiteral {
		s.purge(ctx, KeyUser)
		return nil
	}
	var user *clinicmodels.User
	if err := json.Unmarshal([]byte(v), &user); err != nil {
		s.logger.Warn().Err(err).Msg("invalid persisted user, resetting")
		s.purge(ctx, KeyUser)
		return nil
	}
	return user
}

func (s *Store) purge(ctx context.Context, key string) {
	if err := s.storage.Delete(ctx, key); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to purge persisted value")
	}
}
