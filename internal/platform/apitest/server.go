// Package apitest runs an in-memory clinic REST API for handler and client
// tests. It stores records as JSON objects per resource and records every
// request it receives.
package apitest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/clinic/clinic-admin/internal/platform/apiclient"
)

// Request is one call the fake API received.
type Request struct {
	Method        string
	Path          string
	Body          string
	Authorization string
}

type failure struct {
	status  int
	message string
}

// Server is the fake API.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	records  map[string]map[int64]map[string]any
	nextID   map[string]int64
	requests []Request
	failures map[string]failure
	users    map[string]map[string]any

	// RequireAuth rejects resource calls without a bearer token.
	RequireAuth bool
}

// New starts a fake API that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		records:  make(map[string]map[int64]map[string]any),
		nextID:   make(map[string]int64),
		failures: make(map[string]failure),
		users:    make(map[string]map[string]any),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// Client returns an API client pointed at the fake.
func (s *Server) Client(t testing.TB) *apiclient.Client {
	t.Helper()
	c, err := apiclient.New(s.URL, apiclient.WithHTTPClient(s.Server.Client()))
	if err != nil {
		t.Fatalf("api client: %v", err)
	}
	return c
}

// Seed stores items (structs or maps with an "id") under resource.
func (s *Server) Seed(resource string, items ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range items {
		data, _ := json.Marshal(it)
		var obj map[string]any
		_ = json.Unmarshal(data, &obj)
		id := toID(obj["id"])
		s.store(resource, id, obj)
		if id >= s.nextID[resource] {
			s.nextID[resource] = id
		}
	}
}

// AddUser registers a login the fake accepts.
func (s *Server) AddUser(email, password string, user map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := map[string]any{"password": password}
	for k, v := range user {
		u[k] = v
	}
	s.users[email] = u
}

// Fail makes method+path answer status with {"message": message}.
func (s *Server) Fail(method, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, message: message}
}

// Record returns the stored object for resource/id.
func (s *Server) Record(resource string, id int64) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.records[resource][id]
	return obj, ok
}

// Requests returns every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Count returns how many requests matched method and path exactly.
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Reset forgets the recorded requests.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

func (s *Server) store(resource string, id int64, obj map[string]any) {
	if s.records[resource] == nil {
		s.records[resource] = make(map[int64]map[string]any)
	}
	s.records[resource][id] = obj
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method:        r.Method,
		Path:          r.URL.Path,
		Body:          string(body),
		Authorization: r.Header.Get("Authorization"),
	})
	f, failing := s.failures[r.Method+" "+r.URL.Path]
	s.mu.Unlock()

	if failing {
		writeJSON(w, f.status, map[string]string{"message": f.message})
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/login":
		s.login(w, body)
		return
	case r.Method == http.MethodPost && r.URL.Path == "/register":
		s.register(w, body)
		return
	}

	if s.RequireAuth && !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
		return
	}

	switch len(parts) {
	case 1:
		s.collection(w, r, parts[0], body)
	case 2:
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not found"})
			return
		}
		s.item(w, r, parts[0], id, body)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not found"})
	}
}

func (s *Server) collection(w http.ResponseWriter, r *http.Request, resource string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch r.Method {
	case http.MethodGet:
		items := make([]map[string]any, 0, len(s.records[resource]))
		for id := int64(1); id <= s.nextID[resource]; id++ {
			if obj, ok := s.records[resource][id]; ok {
				items = append(items, obj)
			}
		}
		writeJSON(w, http.StatusOK, items)
	case http.MethodPost:
		var obj map[string]any
		if err := json.Unmarshal(body, &obj); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid JSON"})
			return
		}
		s.nextID[resource]++
		obj["id"] = s.nextID[resource]
		s.store(resource, s.nextID[resource], obj)
		writeJSON(w, http.StatusCreated, obj)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) item(w http.ResponseWriter, r *http.Request, resource string, id int64, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.records[resource][id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not found"})
		return
	}
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, obj)
	case http.MethodPatch:
		var patch map[string]any
		if err := json.Unmarshal(body, &patch); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid JSON"})
			return
		}
		for k, v := range patch {
			obj[k] = v
		}
		obj["id"] = id
		writeJSON(w, http.StatusOK, obj)
	case http.MethodDelete:
		delete(s.records[resource], id)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) login(w http.ResponseWriter, body []byte) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	_ = json.Unmarshal(body, &creds)
	s.mu.Lock()
	u, ok := s.users[creds.Email]
	s.mu.Unlock()
	if !ok || u["password"] != creds.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid email or password"})
		return
	}
	user := map[string]any{"email": creds.Email}
	for k, v := range u {
		if k != "password" {
			user[k] = v
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": "token-" + creds.Email, "user": user})
}

func (s *Server) register(w http.ResponseWriter, body []byte) {
	var reg map[string]any
	if err := json.Unmarshal(body, &reg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid JSON"})
		return
	}
	email, _ := reg["email"].(string)
	password, _ := reg["password"].(string)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[email]; exists {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "Email already registered"})
		return
	}
	u := map[string]any{"password": password}
	for k, v := range reg {
		if k != "password" {
			u[k] = v
		}
	}
	s.users[email] = u
	writeJSON(w, http.StatusCreated, map[string]string{"message": "User registered"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func toID(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case json.Number:
		id, _ := n.Int64()
		return id
	}
	return 0
}
