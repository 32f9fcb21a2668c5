package repo

import (
	"context"
	"slices"

	"github.com/ovaphlow/pitchfork/service-userdir-go/internal/state"
	"github.com/ovaphlow/pitchfork/service-userdir-go/internal/storage"
	"github.com/ovaphlow/pitchfork/service-userdir-go/internal/user/entity"
)

// UsersKey is the storage key of the directory collection.
const UsersKey = "users"

// UserRepo keeps the ordered user collection in one persisted container.
// Every mutation writes a fresh slice; the stored slice is never modified in place.
type UserRepo struct {
	users *state.Container[[]entity.User]
}

func NewUserRepo(ctx context.Context, store *storage.Adapter) *UserRepo {
	return &UserRepo{users: state.New(ctx, store, UsersKey, []entity.User{})}
}

// List returns a deep copy of the collection in insertion order.
func (r *UserRepo) List() []entity.User {
	cur := r.users.Get()
	out := make([]entity.User, len(cur))
	for i, u := range cur {
		out[i] = u.Clone()
	}
	return out
}

// GetByID returns a copy of the record with id.
func (r *UserRepo) GetByID(id string) (*entity.User, bool) {
	cur := r.users.Get()
	i := slices.IndexFunc(cur, func(u entity.User) bool { return u.ID == id })
	if i < 0 {
		return nil, false
	}
	u := cur[i].Clone()
	return &u, true
}

// Append adds u at the end of the collection.
func (r *UserRepo) Append(ctx context.Context, u entity.User) {
	r.users.UpdateValue(ctx, func(prev []entity.User) []entity.User {
		return append(slices.Clip(prev), u.Clone())
	})
}

// Replace swaps the record with id for fn(old). It reports whether a record matched.
func (r *UserRepo) Replace(ctx context.Context, id string, fn func(old entity.User) entity.User) bool {
	matched := false
	r.users.UpdateValue(ctx, func(prev []entity.User) []entity.User {
		i := slices.IndexFunc(prev, func(u entity.User) bool { return u.ID == id })
		if i < 0 {
			return prev
		}
		matched = true
		next := slices.Clone(prev)
		next[i] = fn(prev[i])
		return next
	})
	return matched
}

// Remove drops every record with id, keeping the order of the rest.
// It reports whether anything was removed.
func (r *UserRepo) Remove(ctx context.Context, id string) bool {
	removed := false
	r.users.UpdateValue(ctx, func(prev []entity.User) []entity.User {
		next := slices.DeleteFunc(slices.Clone(prev), func(u entity.User) bool { return u.ID == id })
		removed = len(next) != len(prev)
		return next
	})
	return removed
}

// SeedIfEmpty stores seed when the collection is empty and reports whether it did.
func (r *UserRepo) SeedIfEmpty(ctx context.Context, seed []entity.User) bool {
	seeded := false
	r.users.UpdateValue(ctx, func(prev []entity.User) []entity.User {
		if len(prev) > 0 || len(seed) == 0 {
			return prev
		}
		seeded = true
		next := make([]entity.User, len(seed))
		for i, u := range seed {
			next[i] = u.Clone()
		}
		return next
	})
	return seeded
}
