package user

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-userdir-go/internal/storage"
	storagerepo "github.com/ovaphlow/pitchfork/service-userdir-go/internal/storage/repo"
	"github.com/ovaphlow/pitchfork/service-userdir-go/internal/user/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-userdir-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-userdir-go/pkg/database"
)

// ---- helpers ----

func newTestStore(t *testing.T) (*storage.Adapter, *storagerepo.Repo) {
	t.Helper()
	db, err := database.Connect(database.Config{
		Driver: database.DriverSQLite, DSN: ":memory:", Timeout: time.Second, ConnectAttempts: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, database.DriverSQLite, zap.NewNop().Sugar()))
	kv := storagerepo.NewRepo(sqlx.NewDb(db, database.DriverSQLite))
	return storage.NewAdapter(kv, nil), kv
}

// fakeClock returns t0, t0+1s, t0+2s, ...
func fakeClock(t0 time.Time) func() time.Time {
	n := 0
	return func() time.Time {
		ts := t0.Add(time.Duration(n) * time.Second)
		n++
		return ts
	}
}

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestDirectory(t *testing.T) (*Directory, *storage.Adapter, *storagerepo.Repo) {
	t.Helper()
	store, kv := newTestStore(t)
	d := NewDirectory(context.Background(), store, nil, nil)
	d.Now = fakeClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	d.NewID = seqIDs()
	return d, store, kv
}

func storedUsers(t *testing.T, kv *storagerepo.Repo) []entity.User {
	t.Helper()
	raw, ok, err := kv.Get(context.Background(), userrepo.UsersKey)
	require.NoError(t, err)
	require.True(t, ok)
	var out []entity.User
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func strp(s string) *string { return &s }

// ---- TESTS ----

func TestAddUser_EmptyCollection(t *testing.T) {
	d, _, kv := newTestDirectory(t)
	ctx := context.Background()

	u, err := d.AddUser(ctx, entity.UserInput{Name: "John Doe", Role: "Engineer", Profile: entity.Profile{Email: "john@x.com"}})
	require.NoError(t, err)

	users := d.Users()
	require.Len(t, users, 1)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, u.ID, users[0].ID)
	assert.Equal(t, "John Doe", users[0].Name)
	assert.Equal(t, "john@x.com", users[0].Email)
	assert.Equal(t, "Engineer", users[0].Role)
	assert.False(t, users[0].CreatedAt.IsZero())
	assert.Nil(t, users[0].UpdatedAt)

	persisted := storedUsers(t, kv)
	require.Len(t, persisted, 1)
	assert.Equal(t, u.ID, persisted[0].ID)
	assert.False(t, d.Loading())
	assert.NoError(t, d.Err())
}

func TestAddUser_KeepsInsertionOrder(t *testing.T) {
	d, _, _ := newTestDirectory(t)
	ctx := context.Background()

	for _, n := range []string{"a", "b", "c"} {
		_, err := d.AddUser(ctx, entity.UserInput{Name: n})
		require.NoError(t, err)
	}

	users := d.Users()
	require.Len(t, users, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{users[0].Name, users[1].Name, users[2].Name})
	assert.Equal(t, []string{"id-1", "id-2", "id-3"}, []string{users[0].ID, users[1].ID, users[2].ID})
}

func TestAddUser_CancelledContextSetsErrorFlag(t *testing.T) {
	d, _, _ := newTestDirectory(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	u, err := d.AddUser(ctx, entity.UserInput{Name: "x"})
	require.Error(t, err)
	assert.Nil(t, u)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "failed to add user")
	assert.Equal(t, err, d.Err())
	assert.False(t, d.Loading())
	assert.Empty(t, d.Users())

	// next successful operation clears the flag
	_, err = d.AddUser(context.Background(), entity.UserInput{Name: "y"})
	require.NoError(t, err)
	assert.NoError(t, d.Err())
}

func TestDirectoryFlags_OverlappingOperations(t *testing.T) {
	d, _, _ := newTestDirectory(t)

	older := d.begin()
	newer := d.begin()
	assert.True(t, d.Loading())

	failed := d.finish(newer, "update user", context.Canceled)
	require.Error(t, failed)
	assert.True(t, d.Loading(), "older operation is still running")

	// the older operation finishing late must not clear the newer failure
	require.NoError(t, d.finish(older, "add user", nil))
	assert.False(t, d.Loading())
	assert.Equal(t, failed, d.Err())

	// nor may a late failure overwrite the result of a newer operation
	older = d.begin()
	newer = d.begin()
	require.NoError(t, d.finish(newer, "delete user", nil))
	require.Error(t, d.finish(older, "add user", context.Canceled))
	assert.NoError(t, d.Err())
	assert.False(t, d.Loading())
}

func TestUpdateUser_MergesPatchAndStamps(t *testing.T) {
	d, _, _ := newTestDirectory(t)
	ctx := context.Background()
	a, _ := d.AddUser(ctx, entity.UserInput{Name: "Alice", Role: "Dev", Profile: entity.Profile{Email: "a@x.com", Phone: "1"}})
	b, _ := d.AddUser(ctx, entity.UserInput{Name: "Bob", Role: "Ops", Profile: entity.Profile{Email: "b@x.com"}})
	before := d.Users()

	require.NoError(t, d.UpdateUser(ctx, a.ID, entity.UserPatch{Role: strp("Lead"), Phone: strp("2")}))

	after := d.Users()
	require.Len(t, after, 2)
	assert.Equal(t, a.ID, after[0].ID)
	assert.Equal(t, "Alice", after[0].Name)
	assert.Equal(t, "Lead", after[0].Role)
	assert.Equal(t, "2", after[0].Phone)
	assert.Equal(t, "a@x.com", after[0].Email)
	assert.Equal(t, before[0].CreatedAt, after[0].CreatedAt)
	require.NotNil(t, after[0].UpdatedAt)
	assert.True(t, after[0].UpdatedAt.After(after[0].CreatedAt))
	assert.Equal(t, before[1], after[1])
	assert.Equal(t, b.ID, after[1].ID)
}

func TestUpdateUser_UnknownIDLeavesStorageIdentical(t *testing.T) {
	d, _, kv := newTestDirectory(t)
	ctx := context.Background()
	_, _ = d.AddUser(ctx, entity.UserInput{Name: "Alice"})
	raw, _, err := kv.Get(ctx, userrepo.UsersKey)
	require.NoError(t, err)

	require.NoError(t, d.UpdateUser(ctx, "missing", entity.UserPatch{Name: strp("X")}))

	rawAfter, _, err := kv.Get(ctx, userrepo.UsersKey)
	require.NoError(t, err)
	assert.Equal(t, string(raw), string(rawAfter))
	assert.NoError(t, d.Err())
}

func TestDeleteUser_RemovesOnlyMatchAndKeepsOrder(t *testing.T) {
	d, _, _ := newTestDirectory(t)
	ctx := context.Background()
	for _, n := range []string{"a", "b", "c"} {
		_, _ = d.AddUser(ctx, entity.UserInput{Name: n})
	}

	require.NoError(t, d.DeleteUser(ctx, "id-2"))

	users := d.Users()
	require.Len(t, users, 2)
	assert.Equal(t, "id-1", users[0].ID)
	assert.Equal(t, "id-3", users[1].ID)
}

func TestDeleteUser_UnknownIDIsNoop(t *testing.T) {
	d, _, _ := newTestDirectory(t)
	ctx := context.Background()
	_, _ = d.AddUser(ctx, entity.UserInput{Name: "a"})

	require.NoError(t, d.DeleteUser(ctx, "nope"))
	assert.Len(t, d.Users(), 1)
}

func TestDeleteUser_SingleRecordWithID42(t *testing.T) {
	store, kv := newTestStore(t)
	ctx := context.Background()
	store.Write(ctx, userrepo.UsersKey, []entity.User{{ID: "42", Name: "Answer"}})
	d := NewDirectory(ctx, store, nil, nil)

	require.NoError(t, d.DeleteUser(ctx, "42"))

	assert.Empty(t, d.Users())
	assert.Empty(t, storedUsers(t, kv))
}

func TestDirectory_ReloadsFromStorage(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	d1 := NewDirectory(ctx, store, nil, nil)
	u, err := d1.AddUser(ctx, entity.UserInput{Name: "Persisted"})
	require.NoError(t, err)

	d2 := NewDirectory(ctx, store, nil, nil)
	got, err := d2.User(u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Persisted", got.Name)
}

func TestUser_NotFound(t *testing.T) {
	d, _, _ := newTestDirectory(t)
	_, err := d.User("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUsers_ReturnsCopies(t *testing.T) {
	d, _, _ := newTestDirectory(t)
	ctx := context.Background()
	_, _ = d.AddUser(ctx, entity.UserInput{Name: "a", Profile: entity.Profile{Experience: []entity.Experience{{Domain: "x"}}}})

	users := d.Users()
	users[0].Name = "mutated"
	users[0].Experience[0].Domain = "mutated"

	fresh := d.Users()
	assert.Equal(t, "a", fresh[0].Name)
	assert.Equal(t, "x", fresh[0].Experience[0].Domain)
}

func TestSearch_MatchesNameEmailRoleCaseInsensitive(t *testing.T) {
	d, _, _ := newTestDirectory(t)
	ctx := context.Background()
	_, _ = d.AddUser(ctx, entity.UserInput{Name: "John Doe", Role: "Software Engineer", Profile: entity.Profile{Email: "john.doe@example.com"}})
	_, _ = d.AddUser(ctx, entity.UserInput{Name: "Jane Smith", Role: "Product Manager", Profile: entity.Profile{Email: "jane@example.com"}})
	_, _ = d.AddUser(ctx, entity.UserInput{Name: "Mike", Role: "UX Designer", Profile: entity.Profile{Email: "mike@corp.io"}})

	assert.Len(t, d.Search(""), 3)
	assert.Len(t, d.Search("  "), 3)
	assert.Len(t, d.Search("EXAMPLE.com"), 2)
	assert.Len(t, d.Search("designer"), 1)
	assert.Len(t, d.Search("jane"), 1)
	assert.Empty(t, d.Search("nobody"))
}

func TestSeedIfEmpty(t *testing.T) {
	d, _, _ := newTestDirectory(t)
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, d.SeedIfEmpty(ctx, SampleUsers(now)))
	assert.Len(t, d.Users(), 3)
	assert.False(t, d.SeedIfEmpty(ctx, SampleUsers(now)))
	assert.Len(t, d.Users(), 3)
}
