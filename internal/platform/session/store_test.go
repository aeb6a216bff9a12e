package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/clinic/clinic-admin/internal/platform/apiclient"
	"github.com/clinic/clinic-admin/pkg/clinicmodels"
)

// fakePoster answers the login call with a canned response or error.
type fakePoster struct {
	resp  any
	err   error
	calls int
	path  string
	body  any
}

func (f *fakePoster) Post(_ context.Context, path string, body, out any, _ ...apiclient.RequestOption) error {
	f.calls++
	f.path = path
	f.body = body
	if f.err != nil {
		return f.err
	}
	data, _ := json.Marshal(f.resp)
	return json.Unmarshal(data, out)
}

func newTestStore(storage Storage, api Poster) *Store {
	return NewStore(storage, api, zerolog.Nop())
}

func TestStore_SignInStoresAndPersists(t *testing.T) {
	storage := NewMemoryStorage()
	api := &fakePoster{resp: map[string]any{
		"token": "tok-1",
		"user":  map[string]any{"id": 3, "email": "ada@example.com", "first_name": "Ada"},
	}}
	s := newTestStore(storage, api)

	if err := s.SignIn(context.Background(), "ada@example.com", "secret"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.path != LoginPath {
		t.Errorf("expected POST %s, got %s", LoginPath, api.path)
	}
	if creds, ok := api.body.(credentials); !ok || creds.Email != "ada@example.com" || creds.Password != "secret" {
		t.Errorf("unexpected credentials %#v", api.body)
	}
	if s.CurrentToken() != "tok-1" {
		t.Errorf("expected token tok-1, got %q", s.CurrentToken())
	}
	if u := s.CurrentUser(); u == nil || u.Email != "ada@example.com" {
		t.Errorf("unexpected user %+v", u)
	}

	tok, ok, _ := storage.Get(context.Background(), KeyToken)
	if !ok || tok != "tok-1" {
		t.Errorf("expected persisted token, got %q (%v)", tok, ok)
	}
	raw, ok, _ := storage.Get(context.Background(), KeyUser)
	if !ok {
		t.Fatal("expected persisted user")
	}
	var u clinicmodels.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil || u.ID != 3 {
		t.Errorf("unexpected persisted user %q (%v)", raw, err)
	}
}

func TestStore_SignInWithoutUserDefaultsToNil(t *testing.T) {
	storage := NewMemoryStorage()
	s := newTestStore(storage, &fakePoster{resp: map[string]any{"token": "tok"}})

	if err := s.SignIn(context.Background(), "a@b.c", "pw"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.CurrentUser() != nil {
		t.Errorf("expected nil user, got %+v", s.CurrentUser())
	}
	raw, _, _ := storage.Get(context.Background(), KeyUser)
	if raw != "null" {
		t.Errorf("expected persisted null user, got %q", raw)
	}
}

func TestStore_SignInFailureDoesNotMutate(t *testing.T) {
	storage := NewMemoryStorage()
	storage.Set(context.Background(), KeyToken, "old")
	rejection := &apiclient.Error{Status: http.StatusUnauthorized, Message: "invalid credentials"}
	s := newTestStore(storage, &fakePoster{err: rejection})
	s.Restore(context.Background())

	err := s.SignIn(context.Background(), "a@b.c", "wrong")
	if !errors.Is(err, rejection) {
		t.Fatalf("expected server rejection, got %v", err)
	}
	if s.CurrentToken() != "old" {
		t.Errorf("expected token unchanged, got %q", s.CurrentToken())
	}
	if tok, _, _ := storage.Get(context.Background(), KeyToken); tok != "old" {
		t.Errorf("expected persisted token unchanged, got %q", tok)
	}
}

func TestStore_SignInWithoutTokenFails(t *testing.T) {
	s := newTestStore(NewMemoryStorage(), &fakePoster{resp: map[string]any{"user": nil}})
	err := s.SignIn(context.Background(), "a@b.c", "pw")
	if !errors.Is(err, ErrSignInFailed) {
		t.Fatalf("expected ErrSignInFailed, got %v", err)
	}
	if s.HasToken() {
		t.Error("expected no token")
	}
}

func TestStore_SignOutClearsEverything(t *testing.T) {
	storage := NewMemoryStorage()
	s := newTestStore(storage, &fakePoster{resp: map[string]any{"token": "tok", "user": map[string]any{"id": 1}}})
	s.SignIn(context.Background(), "a@b.c", "pw")

	s.SignOut(context.Background())

	if s.HasToken() || s.CurrentUser() != nil {
		t.Error("expected empty session after sign-out")
	}
	for _, key := range []string{KeyToken, KeyUser} {
		if _, ok, _ := storage.Get(context.Background(), key); ok {
			t.Errorf("expected %s purged", key)
		}
	}
}

func TestStore_SignOutWhenSignedOut(t *testing.T) {
	s := newTestStore(NewMemoryStorage(), &fakePoster{})
	s.SignOut(context.Background())
	if s.HasToken() {
		t.Error("expected no token")
	}
}

func TestStore_RestoreValidSession(t *testing.T) {
	storage := NewMemoryStorage()
	storage.Set(context.Background(), KeyToken, "tok")
	storage.Set(context.Background(), KeyUser, `{"id":9,"email":"x@y.z"}`)
	s := newTestStore(storage, &fakePoster{})

	s.Restore(context.Background())

	if s.CurrentToken() != "tok" {
		t.Errorf("expected restored token, got %q", s.CurrentToken())
	}
	if u := s.CurrentUser(); u == nil || u.ID != 9 {
		t.Errorf("unexpected user %+v", u)
	}
}

func TestStore_RestoreCorruptUser(t *testing.T) {
	for _, raw := range []string{"undefined", "{not json", "42", `"just a string"`, ""} {
		t.Run(raw, func(t *testing.T) {
			storage := NewMemoryStorage()
			storage.Set(context.Background(), KeyToken, "tok")
			storage.Set(context.Background(), KeyUser, raw)
			s := newTestStore(storage, &fakePoster{})

			s.Restore(context.Background())

			if s.CurrentUser() != nil {
				t.Errorf("expected nil user for %q", raw)
			}
			if _, ok, _ := storage.Get(context.Background(), KeyUser); ok {
				t.Errorf("expected corrupt user %q purged", raw)
			}
			if s.CurrentToken() != "tok" {
				t.Errorf("token must survive a corrupt user, got %q", s.CurrentToken())
			}

			// idempotent
			s.Restore(context.Background())
			if s.CurrentUser() != nil || s.CurrentToken() != "tok" {
				t.Error("second restore changed the outcome")
			}
		})
	}
}

func TestStore_RestoreNullUserIsKept(t *testing.T) {
	storage := NewMemoryStorage()
	storage.Set(context.Background(), KeyUser, "null")
	s := newTestStore(storage, &fakePoster{})
	s.Restore(context.Background())
	if s.CurrentUser() != nil {
		t.Error("expected nil user")
	}
	if _, ok, _ := storage.Get(context.Background(), KeyUser); !ok {
		t.Error("null is a valid stored user and must not be purged")
	}
}

func TestStore_RestoreUndefinedToken(t *testing.T) {
	storage := NewMemoryStorage()
	storage.Set(context.Background(), KeyToken, "undefined")
	s := newTestStore(storage, &fakePoster{})
	s.Restore(context.Background())
	if s.HasToken() {
		t.Error("literal undefined must not count as a token")
	}
	if _, ok, _ := storage.Get(context.Background(), KeyToken); ok {
		t.Error("expected undefined token purged")
	}
}

type failingStorage struct{}

func (failingStorage) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk on fire")
}

func (failingStorage) Set(context.Context, string, string) error {
	return errors.New("disk on fire")
}

func (failingStorage) Delete(context.Context, string) error {
	return errors.New("disk on fire")
}

func TestStore_RestoreNeverFails(t *testing.T) {
	s := newTestStore(failingStorage{}, &fakePoster{})
	s.Restore(context.Background())
	if s.HasToken() || s.CurrentUser() != nil {
		t.Error("expected empty session when storage fails")
	}
}

func TestStore_SignInSucceedsWhenPersistFails(t *testing.T) {
	s := newTestStore(failingStorage{}, &fakePoster{resp: map[string]any{"token": "tok"}})
	if err := s.SignIn(context.Background(), "a@b.c", "pw"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.CurrentToken() != "tok" {
		t.Errorf("expected in-memory token, got %q", s.CurrentToken())
	}
}

func TestStore_SubscribeNotifiesOnChangeOnly(t *testing.T) {
	s := newTestStore(NewMemoryStorage(), &fakePoster{resp: map[string]any{"token": "tok"}})
	var seen []string
	cancel := s.Subscribe(func(token string) { seen = append(seen, token) })

	s.Restore(context.Background()) // still empty: no notification
	s.SignIn(context.Background(), "a@b.c", "pw")
	s.SignIn(context.Background(), "a@b.c", "pw") // same token
	s.SignOut(context.Background())

	want := []string{"", "tok", ""}
	if len(seen) != len(want) {
		t.Fatalf("expected notifications %q, got %q", want, seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("notification %d: want %q, got %q", i, want[i], seen[i])
		}
	}

	cancel()
	s.SignIn(context.Background(), "a@b.c", "pw")
	if len(seen) != len(want) {
		t.Error("cancelled subscriber must not be called")
	}
}

func TestStore_ReloadPicksUpExternalSignOut(t *testing.T) {
	storage := NewMemoryStorage()
	s := newTestStore(storage, &fakePoster{resp: map[string]any{"token": "tok"}})
	s.SignIn(context.Background(), "a@b.c", "pw")

	// another process signs out
	storage.Delete(context.Background(), KeyToken)
	storage.Delete(context.Background(), KeyUser)

	s.Reload(context.Background())
	if s.HasToken() {
		t.Error("expected reload to observe the external sign-out")
	}
}

func TestStore_WatchWithoutWatcherReturns(t *testing.T) {
	s := newTestStore(NewMemoryStorage(), &fakePoster{})
	if err := s.Watch(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// The client's default Authorization header follows the session token.
func TestStore_DrivesClientAuthorizationHeader(t *testing.T) {
	var loginAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == LoginPath {
			loginAuth = r.Header.Get("Authorization")
			w.Write([]byte(`{"token":"jwt-abc","user":{"id":1}}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client, err := apiclient.New(srv.URL, apiclient.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	s := newTestStore(NewMemoryStorage(), client)
	s.Subscribe(client.SetBearerToken)

	for _, token := range []string{"jwt-abc"} {
		if err := s.SignIn(context.Background(), "a@b.c", "pw"); err != nil {
			t.Fatalf("sign in: %v", err)
		}
		if got := client.DefaultHeaders().Get("Authorization"); got != "Bearer "+token {
			t.Errorf("expected Bearer %s, got %q", token, got)
		}
		if s.CurrentToken() != token {
			t.Errorf("expected current token %s, got %q", token, s.CurrentToken())
		}
	}
	if loginAuth != "" {
		t.Errorf("login must be sent without a token, got %q", loginAuth)
	}

	s.SignOut(context.Background())
	if got := client.DefaultHeaders().Get("Authorization"); got != "" {
		t.Errorf("expected Authorization removed after sign-out, got %q", got)
	}
}
