package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/securebridge/securebridge/internal/auth"
	"github.com/securebridge/securebridge/internal/model"
	"github.com/securebridge/securebridge/internal/repository"
	"github.com/securebridge/securebridge/internal/service"
)

// memStore is an in-memory credential store for handler tests.
type memStore struct {
	mu         sync.Mutex
	users      map[int64]*model.User
	keys       map[int64]*model.APIKey
	nextUserID int64
	nextKeyID  int64
}

func newMemStore() *memStore {
	return &memStore{
		users: make(map[int64]*model.User),
		keys:  make(map[int64]*model.APIKey),
	}
}

func (s *memStore) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return repository.ErrEmailExists
		}
	}
	s.nextUserID++
	user.ID = s.nextUserID
	clone := *user
	s.users[user.ID] = &clone
	return nil
}

func (s *memStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *memStore) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *memStore) CreateAPIKey(ctx context.Context, key *model.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextKeyID++
	key.ID = s.nextKeyID
	clone := *key
	s.keys[key.ID] = &clone
	return nil
}

func (s *memStore) ListActiveAPIKeys(ctx context.Context) ([]*model.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.APIKey
	for _, k := range s.keys {
		if k.IsActive {
			clone := *k
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *memStore) ListAPIKeysByOwner(ctx context.Context, ownerID int64) ([]*model.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.APIKey
	for _, k := range s.keys {
		if k.OwnerID == ownerID {
			clone := *k
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) GetAPIKeyByIDAndOwner(ctx context.Context, id, ownerID int64) (*model.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.keys[id]
	if !ok || k.OwnerID != ownerID {
		return nil, repository.ErrAPIKeyNotFound
	}
	clone := *k
	return &clone, nil
}

func (s *memStore) UpdateAPIKey(ctx context.Context, key *model.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[key.ID]; !ok {
		return repository.ErrAPIKeyNotFound
	}
	clone := *key
	s.keys[key.ID] = &clone
	return nil
}

func (s *memStore) UpdateAPIKeyLastUsed(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if k, ok := s.keys[id]; ok {
		now := time.Now()
		k.LastUsedAt = &now
	}
	return nil
}

func (s *memStore) DeleteAPIKey(ctx context.Context, id, ownerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.keys[id]
	if !ok || k.OwnerID != ownerID {
		return repository.ErrAPIKeyNotFound
	}
	delete(s.keys, id)
	return nil
}

// testEnv wires handlers against in-memory services.
type testEnv struct {
	store  *memStore
	tokens *auth.TokenAuthority
	auth   *AuthHandler
	keys   *APIKeyHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tokens, err := auth.NewTokenAuthority("handler-test-secret", "HS256", 30*time.Minute, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("NewTokenAuthority: %v", err)
	}
	cipher, err := auth.NewKeyCipher("handler-test-cipher")
	if err != nil {
		t.Fatalf("NewKeyCipher: %v", err)
	}

	store := newMemStore()
	authSvc := service.NewAuthService(store, tokens, logger, nil)
	keySvc := service.NewAPIKeyService(store, cipher, service.APIKeyConfig{
		Prefix:         "sbk_",
		DefaultTTLDays: 90,
		MinTTLDays:     1,
		MaxTTLDays:     365,
	}, logger, nil)

	return &testEnv{
		store:  store,
		tokens: tokens,
		auth:   NewAuthHandler(logger, authSvc, nil),
		keys:   NewAPIKeyHandler(logger, keySvc, nil),
	}
}

// signup creates an account directly through the service and returns it.
func (e *testEnv) signup(t *testing.T, email, password string) *model.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	u := &model.User{
		Email:        email,
		Name:         "Test User",
		PasswordHash: hash,
		Role:         model.RoleUser,
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := e.store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

// asUser stamps a user principal onto the request context, the way the
// auth middleware would.
func asUser(r *http.Request, user *model.User) *http.Request {
	principal := model.Principal{Kind: model.KindUser, User: user}
	return r.WithContext(auth.ContextWithPrincipal(r.Context(), principal))
}

// do runs a handler func against a request and returns the recorder.
func do(handler http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler(rec, r)
	return rec
}
