package domain_test

import (
	"context"
	"errors"
	"testing"

	"network20-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestNewProfile_Defaults(t *testing.T) {
	p := domain.NewProfile(domain.ProfileInsert{DisplayName: "Ada", Tagline: strPtr("")})

	assert.Equal(t, "Ada", p.DisplayName)
	assert.Nil(t, p.Tagline, "empty strings are stored as null")
	assert.Equal(t, []string{}, p.Skills)
	assert.Equal(t, []domain.SocialLink{}, p.SocialLinks)
	assert.Equal(t, domain.HoursPerWeek, p.HoursFrequency)
	assert.Nil(t, p.PayPreference)
	assert.True(t, p.IsAvailable)
	assert.True(t, p.IsPublic)
}

func TestNewProfile_CopiesSlices(t *testing.T) {
	skills := []string{"Go"}
	p := domain.NewProfile(domain.ProfileInsert{DisplayName: "Ada", Skills: skills})
	skills[0] = "Rust"
	assert.Equal(t, []string{"Go"}, p.Skills)
}

func TestProfileUpdate_Apply(t *testing.T) {
	p := domain.NewProfile(domain.ProfileInsert{DisplayName: "Ada", Tagline: strPtr("A"), Location: strPtr("Berlin")})
	hours := 0
	pref := domain.PayPreference("")

	domain.ProfileUpdate{
		Bio:            strPtr("B"),
		Location:       strPtr(""),
		HoursAvailable: &hours,
		PayPreference:  &pref,
	}.Apply(&p)

	assert.Equal(t, "A", *p.Tagline, "untouched fields survive")
	assert.Equal(t, "B", *p.Bio)
	assert.Nil(t, p.Location, "empty string clears a nullable field")
	assert.Nil(t, p.HoursAvailable)
	assert.Nil(t, p.PayPreference)
}

func TestProfileUpdate_Columns(t *testing.T) {
	cols := domain.ProfileUpdate{Bio: strPtr("B"), Tagline: strPtr("")}.Columns()

	require.Len(t, cols, 2)
	assert.Equal(t, "B", *cols["bio"].(*string))
	assert.Nil(t, cols["tagline"].(*string))
}

func TestProfile_Matches(t *testing.T) {
	p := domain.NewProfile(domain.ProfileInsert{
		DisplayName: "Grace",
		Skills:      []string{"React", "Design"},
		Bio:         strPtr("Compiler person"),
	})

	assert.True(t, p.Matches("react"))
	assert.True(t, p.Matches("DESIGN"))
	assert.True(t, p.Matches("compiler"))
	assert.True(t, p.Matches("gra"))
	assert.False(t, p.Matches("cobol"))
}

func TestResolveCurrentUser(t *testing.T) {
	ctx := context.Background()
	own := &domain.Profile{ID: "remote-1"}
	user := &domain.AuthUser{ID: "u1"}

	found := func(context.Context) (*domain.Profile, error) { return own, nil }
	missing := func(context.Context) (*domain.Profile, error) { return nil, nil }
	failing := func(context.Context) (*domain.Profile, error) { return nil, errors.New("boom") }
	unused := func(context.Context) (*domain.Profile, error) {
		t.Fatal("lookup must not run")
		return nil, nil
	}

	tests := []struct {
		name    string
		remote  bool
		user    *domain.AuthUser
		pointer string
		lookup  domain.ProfileLookup
		kind    domain.CurrentUserKind
		id      string
	}{
		{"remote signed in with profile", true, user, "local_1", found, domain.CurrentUserAuthenticated, "remote-1"},
		{"remote signed in without profile ignores pointer", true, user, "local_1", missing, domain.CurrentUserNone, ""},
		{"remote anonymous falls back to pointer", true, nil, "local_1", unused, domain.CurrentUserLocalPointer, "local_1"},
		{"local mode uses pointer", false, user, "local_2", unused, domain.CurrentUserLocalPointer, "local_2"},
		{"local mode without pointer", false, nil, "", unused, domain.CurrentUserNone, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.ResolveCurrentUser(ctx, tt.remote, tt.user, tt.pointer, tt.lookup)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.id, got.ProfileID())
		})
	}

	t.Run("lookup failure propagates", func(t *testing.T) {
		_, err := domain.ResolveCurrentUser(ctx, true, user, "", failing)
		assert.Error(t, err)
	})
}

func TestJobInsert_RowDefaults(t *testing.T) {
	row := domain.JobInsert{CompanyName: "Acme", JobTitle: "Welder", ContactEmail: "hr@acme.test"}.Row()
	assert.Equal(t, true, row["is_active"])
	assert.Equal(t, []string{}, row["skills_needed"])
	assert.Nil(t, row["pay_range"].(*string))
}
