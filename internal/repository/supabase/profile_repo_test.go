package supabase_test

import (
	"context"
	"testing"
	"time"

	"network20-backend/internal/domain"
	remote "network20-backend/internal/repository/supabase"
	"network20-backend/pkg/kvstore"
	sb "network20-backend/pkg/supabase"
	"network20-backend/pkg/supabase/supabasetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func newClient(t *testing.T) (*sb.Client, *supabasetest.Server) {
	t.Helper()
	srv := supabasetest.New()
	t.Cleanup(srv.Close)
	c, err := sb.New(sb.Config{URL: srv.URL, Key: supabasetest.Key, Store: kvstore.NewMemory()})
	require.NoError(t, err)
	t.Cleanup(c.Auth.Close)
	return c, srv
}

func signIn(t *testing.T, c *sb.Client, srv *supabasetest.Server, email string) string {
	t.Helper()
	id := srv.AddUser(email, "secret", "Tester")
	_, err := c.Auth.SignInWithPassword(context.Background(), email, "secret")
	require.NoError(t, err)
	return id
}

func seeded(id, owner, name string, public, available bool, day int) domain.Profile {
	p := domain.NewProfile(domain.ProfileInsert{DisplayName: name})
	p.ID = id
	p.UserID = &owner
	p.IsPublic = public
	p.IsAvailable = available
	p.CreatedAt = time.Date(2026, 1, day, 0, 0, 0, 0, time.UTC)
	p.UpdatedAt = p.CreatedAt
	return p
}

func TestProfileRepo_ListShowsOnlyPublicNewestFirst(t *testing.T) {
	c, srv := newClient(t)
	srv.Seed("profiles",
		seeded("p1", "u1", "Old public", true, true, 1),
		seeded("p2", "u2", "Private", false, true, 2),
		seeded("p3", "u3", "New public", true, false, 3),
	)
	repo := remote.NewProfileRepository(c)
	ctx := context.Background()

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "p3", list[0].ID)
	assert.Equal(t, "p1", list[1].ID)
	for _, p := range list {
		assert.True(t, p.IsPublic)
	}

	available, err := repo.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, "p1", available[0].ID)
}

func TestProfileRepo_GetByID(t *testing.T) {
	c, srv := newClient(t)
	srv.Seed("profiles", seeded("p1", "u1", "Ada", true, true, 1))
	repo := remote.NewProfileRepository(c)

	p, err := repo.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Ada", p.DisplayName)
	assert.Equal(t, "u1", *p.UserID)

	p, err = repo.GetByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestProfileRepo_CreateRequiresIdentity(t *testing.T) {
	c, _ := newClient(t)
	repo := remote.NewProfileRepository(c)

	_, err := repo.Create(context.Background(), domain.ProfileInsert{DisplayName: "Anon"})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestProfileRepo_CreateStampsOwner(t *testing.T) {
	c, srv := newClient(t)
	uid := signIn(t, c, srv, "ada@example.com")
	repo := remote.NewProfileRepository(c)

	p, err := repo.Create(context.Background(), domain.ProfileInsert{DisplayName: "Ada", Skills: []string{"Go"}})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	require.NotNil(t, p.UserID)
	assert.Equal(t, uid, *p.UserID)
	assert.Equal(t, domain.HoursPerWeek, p.HoursFrequency)
	assert.True(t, p.IsPublic)
	assert.False(t, p.CreatedAt.IsZero())

	own, err := repo.CurrentUserProfile(context.Background())
	require.NoError(t, err)
	require.NotNil(t, own)
	assert.Equal(t, p.ID, own.ID)
}

func TestProfileRepo_MutationsAreScopedToOwner(t *testing.T) {
	c, srv := newClient(t)
	uid := signIn(t, c, srv, "ada@example.com")
	srv.Seed("profiles",
		seeded("mine", uid, "Ada", true, true, 1),
		seeded("theirs", "someone-else", "Bob", true, true, 2),
	)
	repo := remote.NewProfileRepository(c)
	ctx := context.Background()

	updated, err := repo.Update(ctx, "mine", domain.ProfileUpdate{Bio: strPtr("Hello")})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "Hello", *updated.Bio)
	assert.Equal(t, "Ada", updated.DisplayName)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	updated, err = repo.Update(ctx, "theirs", domain.ProfileUpdate{Bio: strPtr("Hijack")})
	require.NoError(t, err)
	assert.Nil(t, updated)

	removed, err := repo.Delete(ctx, "theirs")
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = repo.Delete(ctx, "mine")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Delete(ctx, "mine")
	require.NoError(t, err)
	assert.False(t, removed)

	assert.Len(t, srv.Rows("profiles"), 1)
}

func TestProfileRepo_MutationsNeedSession(t *testing.T) {
	c, srv := newClient(t)
	srv.Seed("profiles", seeded("p1", "u1", "Ada", true, true, 1))
	repo := remote.NewProfileRepository(c)

	_, err := repo.Update(context.Background(), "p1", domain.ProfileUpdate{Bio: strPtr("x")})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	_, err = repo.Delete(context.Background(), "p1")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestProfileRepo_Search(t *testing.T) {
	c, srv := newClient(t)
	dana := seeded("p1", "u1", "Dana", true, true, 1)
	dana.Skills = []string{"React", "Design"}
	eve := seeded("p2", "u2", "Eve", true, true, 2)
	eve.Location = strPtr("Lisbon")
	hidden := seeded("p3", "u3", "Dana Hidden", false, true, 3)
	srv.Seed("profiles", dana, eve, hidden)
	repo := remote.NewProfileRepository(c)
	ctx := context.Background()

	got, err := repo.Search(ctx, "dana")
	require.NoError(t, err)
	require.Len(t, got, 1, "private profiles never show up")
	assert.Equal(t, "p1", got[0].ID)

	for _, q := range []string{"React", "react", "DESIGN", "Reac"} {
		got, err = repo.Search(ctx, q)
		require.NoError(t, err)
		require.Len(t, got, 1, "skills match %q by case-insensitive substring", q)
		assert.Equal(t, "p1", got[0].ID)
	}

	got, err = repo.Search(ctx, "LISB")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "p2", got[0].ID)

	got, err = repo.Search(ctx, `a,b") or (x`)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestProfileRepo_CurrentUserProfileWithoutSession(t *testing.T) {
	c, _ := newClient(t)
	repo := remote.NewProfileRepository(c)

	p, err := repo.CurrentUserProfile(context.Background())
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestProfileRepo_ActsAsAttachedSession(t *testing.T) {
	c, srv := newClient(t)
	repo := remote.NewProfileRepository(c)
	ctx := sb.WithSession(context.Background(), &sb.Session{
		AccessToken: "bearer-from-request",
		User:        sb.User{ID: "u-ctx"},
	})

	p, err := repo.Create(ctx, domain.ProfileInsert{DisplayName: "Via header"})
	require.NoError(t, err)
	assert.Equal(t, "u-ctx", *p.UserID)

	reqs := srv.Requests()
	assert.Equal(t, "Bearer bearer-from-request", reqs[len(reqs)-1].Authorization)
}
