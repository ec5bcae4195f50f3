package user

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Directory is an in-memory Resolver used with the memory store driver.
type Directory struct {
	mu    sync.RWMutex
	users map[uuid.UUID]User
}

func NewDirectory(users ...User) *Directory {
	d := &Directory{users: make(map[uuid.UUID]User, len(users))}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

var _ Resolver = (*Directory)(nil)

func (d *Directory) Put(u User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.ID] = u
}

func (d *Directory) FindByID(_ context.Context, id uuid.UUID) (*User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}
