package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-userdir-go/internal/storage"
	"github.com/ovaphlow/pitchfork/service-userdir-go/internal/user/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-userdir-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-userdir-go/pkg/utilities"
)

var ErrNotFound = errors.New("user not found")

// Directory manages the user collection. It performs no field validation;
// callers validate form input before invoking it.
type Directory struct {
	repo   *userrepo.UserRepo
	logger *zap.SugaredLogger
	// configuration knobs
	Now   func() time.Time
	NewID func() string

	mu       sync.Mutex
	inflight int
	// seq of the newest started operation; only it may set err
	seq    uint64
	errSeq uint64
	err    error
}

func NewDirectory(ctx context.Context, store *storage.Adapter, r *userrepo.UserRepo, logger *zap.SugaredLogger) *Directory {
	if r == nil {
		r = userrepo.NewUserRepo(ctx, store)
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Directory{
		repo:   r,
		logger: logger,
		Now:    func() time.Time { return time.Now().UTC() },
		NewID:  utilities.NewSnowflakeID,
	}
}

// Loading reports whether an operation is in flight.
func (d *Directory) Loading() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inflight > 0
}

// Err returns the failure of the most recently started operation, or nil.
// An older operation that finishes later does not overwrite it.
func (d *Directory) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

func (d *Directory) begin() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inflight++
	d.seq++
	d.errSeq = d.seq
	d.err = nil
	return d.seq
}

func (d *Directory) finish(seq uint64, op string, err error) error {
	if err != nil {
		err = fmt.Errorf("failed to %s: %w", op, err)
		d.logger.Warnw("directory operation failed", "op", op, "err", err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inflight--
	if seq == d.errSeq {
		d.err = err
	}
	return err
}

// AddUser appends a new record built from in and returns it.
func (d *Directory) AddUser(ctx context.Context, in entity.UserInput) (*entity.User, error) {
	seq := d.begin()
	if err := ctx.Err(); err != nil {
		return nil, d.finish(seq, "add user", err)
	}
	u := entity.NewUser(d.NewID(), in, d.Now())
	d.repo.Append(ctx, u)
	d.logger.Debugw("user added", "id", u.ID)
	return &u, d.finish(seq, "add user", nil)
}

// UpdateUser merges patch into the record with id. An unknown id leaves the
// collection unchanged and is not reported as an error.
func (d *Directory) UpdateUser(ctx context.Context, id string, patch entity.UserPatch) error {
	seq := d.begin()
	if err := ctx.Err(); err != nil {
		return d.finish(seq, "update user", err)
	}
	now := d.Now()
	matched := d.repo.Replace(ctx, id, func(old entity.User) entity.User {
		return patch.Apply(old, now)
	})
	if !matched {
		d.logger.Debugw("update matched no user", "id", id)
	}
	return d.finish(seq, "update user", nil)
}

// DeleteUser removes the record with id. An unknown id is a no-op.
func (d *Directory) DeleteUser(ctx context.Context, id string) error {
	seq := d.begin()
	if err := ctx.Err(); err != nil {
		return d.finish(seq, "delete user", err)
	}
	if !d.repo.Remove(ctx, id) {
		d.logger.Debugw("delete matched no user", "id", id)
	}
	return d.finish(seq, "delete user", nil)
}

// Users returns the collection in insertion order.
func (d *Directory) Users() []entity.User {
	return d.repo.List()
}

// User looks up a single record.
func (d *Directory) User(id string) (*entity.User, error) {
	u, ok := d.repo.GetByID(id)
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

// Search returns the records whose name, email or role contain query,
// ignoring case. An empty query returns every record.
func (d *Directory) Search(query string) []entity.User {
	all := d.repo.List()
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return all
	}
	out := make([]entity.User, 0, len(all))
	for _, u := range all {
		if strings.Contains(strings.ToLower(u.Name), q) ||
			strings.Contains(strings.ToLower(u.Email), q) ||
			strings.Contains(strings.ToLower(u.Role), q) {
			out = append(out, u)
		}
	}
	return out
}

// SeedIfEmpty fills an empty directory with samples and reports whether it did.
func (d *Directory) SeedIfEmpty(ctx context.Context, samples []entity.User) bool {
	seeded := d.repo.SeedIfEmpty(ctx, samples)
	if seeded {
		d.logger.Infow("directory seeded", "count", len(samples))
	}
	return seeded
}
