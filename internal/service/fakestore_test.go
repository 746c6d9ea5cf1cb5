package service

import (
	"context"
	"sync"
	"time"

	"github.com/securebridge/securebridge/internal/model"
	"github.com/securebridge/securebridge/internal/repository"
)

// fakeStore is an in-memory Store for service tests.
type fakeStore struct {
	mu         sync.Mutex
	users      map[int64]*model.User
	keys       map[int64]*model.APIKey
	nextUserID int64
	nextKeyID  int64

	// Failure injection
	failUserReads   error
	failKeyList     error
	failLastUsed    error
	lastUsedUpdates int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: make(map[int64]*model.User),
		keys:  make(map[int64]*model.APIKey),
	}
}

func (f *fakeStore) CreateUser(ctx context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return repository.ErrEmailExists
		}
	}
	f.nextUserID++
	user.ID = f.nextUserID
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUserReads != nil {
		return nil, f.failUserReads
	}
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeStore) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUserReads != nil {
		return nil, f.failUserReads
	}
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// setUserActive flips a user's active flag directly, as a profile
// update outside the services would.
func (f *fakeStore) setUserActive(id int64, active bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.IsActive = active
	}
}

func (f *fakeStore) CreateAPIKey(ctx context.Context, key *model.APIKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextKeyID++
	key.ID = f.nextKeyID
	cp := copyKey(key)
	f.keys[key.ID] = cp
	return nil
}

func (f *fakeStore) ListActiveAPIKeys(ctx context.Context) ([]*model.APIKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failKeyList != nil {
		return nil, f.failKeyList
	}
	var out []*model.APIKey
	for _, k := range f.keys {
		if k.IsActive {
			out = append(out, copyKey(k))
		}
	}
	return out, nil
}

func (f *fakeStore) ListAPIKeysByOwner(ctx context.Context, ownerID int64) ([]*model.APIKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.APIKey
	for _, k := range f.keys {
		if k.OwnerID == ownerID {
			out = append(out, copyKey(k))
		}
	}
	return out, nil
}

func (f *fakeStore) GetAPIKeyByIDAndOwner(ctx context.Context, id, ownerID int64) (*model.APIKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k, ok := f.keys[id]
	if !ok || k.OwnerID != ownerID {
		return nil, repository.ErrAPIKeyNotFound
	}
	return copyKey(k), nil
}

func (f *fakeStore) UpdateAPIKey(ctx context.Context, key *model.APIKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.keys[key.ID]; !ok {
		return repository.ErrAPIKeyNotFound
	}
	f.keys[key.ID] = copyKey(key)
	return nil
}

func (f *fakeStore) UpdateAPIKeyLastUsed(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLastUsed != nil {
		return f.failLastUsed
	}
	if k, ok := f.keys[id]; ok {
		now := time.Now()
		k.LastUsedAt = &now
	}
	f.lastUsedUpdates++
	return nil
}

func (f *fakeStore) DeleteAPIKey(ctx context.Context, id, ownerID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k, ok := f.keys[id]
	if !ok || k.OwnerID != ownerID {
		return repository.ErrAPIKeyNotFound
	}
	delete(f.keys, id)
	return nil
}

func (f *fakeStore) getKey(id int64) *model.APIKey {
	f.mu.Lock()
	defer f.mu.Unlock()
	k, ok := f.keys[id]
	if !ok {
		return nil
	}
	return copyKey(k)
}

func (f *fakeStore) lastUsedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastUsedUpdates
}

func copyKey(k *model.APIKey) *model.APIKey {
	cp := *k
	cp.Permissions = append([]string(nil), k.Permissions...)
	if k.LastUsedAt != nil {
		t := *k.LastUsedAt
		cp.LastUsedAt = &t
	}
	return &cp
}
