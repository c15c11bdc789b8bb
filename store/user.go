package store

import (
	"context"
	"fmt"
)

// User is the object representing a learner.
// Authentication lives outside the engine; the user row only anchors the
// per-user state (progress, engagement, unlocks).
type User struct {
	ID        int32
	UID       string
	Username  string
	CreatedTs int64
}

// FindUser is the find condition for user.
type FindUser struct {
	ID       *int32
	UID      *string
	Username *string

	Limit  *int
	Offset *int
}

// CreateUser creates a new user.
func (s *Store) CreateUser(ctx context.Context, create *User) (*User, error) {
	user, err := s.driver.CreateUser(ctx, create)
	if err != nil {
		return nil, err
	}
	s.userCache.Set(fmt.Sprintf("user-%d", user.ID), user)
	return user, nil
}

// ListUsers lists users with filter.
func (s *Store) ListUsers(ctx context.Context, find *FindUser) ([]*User, error) {
	return s.driver.ListUsers(ctx, find)
}

// GetUser gets a single user, or nil if none matches.
func (s *Store) GetUser(ctx context.Context, find *FindUser) (*User, error) {
	if find.ID != nil && find.UID == nil && find.Username == nil {
		if v, ok := s.userCache.Get(fmt.Sprintf("user-%d", *find.ID)); ok {
			if user, ok := v.(*User); ok {
				return user, nil
			}
		}
	}

	list, err := s.driver.ListUsers(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	user := list[0]
	s.userCache.Set(fmt.Sprintf("user-%d", user.ID), user)
	return user, nil
}
