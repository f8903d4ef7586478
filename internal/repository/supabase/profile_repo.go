package supabase

import (
	"context"
	"errors"
	"time"

	"network20-backend/internal/domain"
	"network20-backend/pkg/supabase"
)

const profilesTable = "profiles"

type profileRepo struct {
	client *supabase.Client
	now    func() time.Time
}

// NewProfileRepository reads and writes the hosted profiles table as the
// caller's session. Listings only show public profiles.
func NewProfileRepository(client *supabase.Client) domain.RemoteProfileRepository {
	return &profileRepo{client: client, now: time.Now}
}

func (r *profileRepo) List(ctx context.Context) ([]domain.Profile, error) {
	profiles := []domain.Profile{}
	err := r.client.From(profilesTable).
		Select("*").
		Eq("is_public", "true").
		Order("created_at", false).
		Execute(ctx, &profiles)
	return profiles, err
}

func (r *profileRepo) ListAvailable(ctx context.Context) ([]domain.Profile, error) {
	profiles := []domain.Profile{}
	err := r.client.From(profilesTable).
		Select("*").
		Eq("is_public", "true").
		Eq("is_available", "true").
		Order("created_at", false).
		Execute(ctx, &profiles)
	return profiles, err
}

func (r *profileRepo) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	var p domain.Profile
	err := r.client.From(profilesTable).Select("*").Eq("id", id).Single().Execute(ctx, &p)
	if errors.Is(err, supabase.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *profileRepo) Create(ctx context.Context, in domain.ProfileInsert) (*domain.Profile, error) {
	userID, err := r.identity(ctx)
	if err != nil {
		return nil, err
	}

	var created domain.Profile
	err = r.client.From(profilesTable).
		Insert(insertRow(domain.NewProfile(in), userID)).
		Single().
		Execute(ctx, &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Update only touches rows owned by the signed-in user, on top of whatever
// row-level policy the backend enforces.
func (r *profileRepo) Update(ctx context.Context, id string, patch domain.ProfileUpdate) (*domain.Profile, error) {
	userID, err := r.identity(ctx)
	if err != nil {
		return nil, err
	}

	cols := patch.Columns()
	cols["updated_at"] = r.now().UTC().Truncate(time.Millisecond)

	var rows []domain.Profile
	err = r.client.From(profilesTable).
		Update(cols).
		Eq("id", id).
		Eq("user_id", userID).
		Execute(ctx, &rows)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

func (r *profileRepo) Delete(ctx context.Context, id string) (bool, error) {
	userID, err := r.identity(ctx)
	if err != nil {
		return false, err
	}

	var rows []domain.Profile
	err = r.client.From(profilesTable).
		Delete().
		Eq("id", id).
		Eq("user_id", userID).
		Execute(ctx, &rows)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// Search filters the public listing in process. PostgREST has no ilike over
// the elements of a text[] column, and skills must match by substring like
// every other searched field.
func (r *profileRepo) Search(ctx context.Context, query string) ([]domain.Profile, error) {
	public, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	matches := []domain.Profile{}
	for i := range public {
		if public[i].Matches(query) {
			matches = append(matches, public[i])
		}
	}
	return matches, nil
}

// CurrentUserProfile returns the newest profile owned by the signed-in user,
// or nil when nobody is signed in or they have none.
func (r *profileRepo) CurrentUserProfile(ctx context.Context) (*domain.Profile, error) {
	user, err := r.client.Auth.GetUser(ctx)
	if err != nil || user == nil {
		return nil, err
	}

	var rows []domain.Profile
	err = r.client.From(profilesTable).
		Select("*").
		Eq("user_id", user.ID).
		Order("created_at", false).
		Limit(1).
		Execute(ctx, &rows)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

func (r *profileRepo) identity(ctx context.Context) (string, error) {
	user, err := r.client.Auth.GetUser(ctx)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", domain.ErrUnauthenticated
	}
	return user.ID, nil
}

// insertRow leaves id and timestamps to the database.
func insertRow(p domain.Profile, userID string) map[string]any {
	return map[string]any{
		"user_id":         userID,
		"display_name":    p.DisplayName,
		"tagline":         p.Tagline,
		"skills":          p.Skills,
		"hours_available": p.HoursAvailable,
		"hours_frequency": p.HoursFrequency,
		"pay_preference":  p.PayPreference,
		"pay_rate":        p.PayRate,
		"location":        p.Location,
		"contact_email":   p.ContactEmail,
		"contact_phone":   p.ContactPhone,
		"social_links":    p.SocialLinks,
		"bio":             p.Bio,
		"avatar_url":      p.AvatarURL,
		"resume_url":      p.ResumeURL,
		"is_available":    p.IsAvailable,
		"is_public":       p.IsPublic,
	}
}
