package domain

import (
	"context"
	"strings"
	"time"
)

type HoursFrequency string

const (
	HoursPerWeek  HoursFrequency = "week"
	HoursPerMonth HoursFrequency = "month"
)

type PayPreference string

const (
	PayHourly     PayPreference = "hourly"
	PayProject    PayPreference = "project"
	PaySalary     PayPreference = "salary"
	PayNegotiable PayPreference = "negotiable"
)

type SocialPlatform string

const (
	PlatformTwitter   SocialPlatform = "twitter"
	PlatformLinkedIn  SocialPlatform = "linkedin"
	PlatformInstagram SocialPlatform = "instagram"
	PlatformGitHub    SocialPlatform = "github"
	PlatformWebsite   SocialPlatform = "website"
	PlatformOther     SocialPlatform = "other"
)

type SocialLink struct {
	Platform SocialPlatform `json:"platform" validate:"required,oneof=twitter linkedin instagram github website other"`
	Handle   string         `json:"handle" validate:"required"`
}

// Profile is a work card. Nullable columns are pointers; a nil UserID marks
// a guest/local record.
type Profile struct {
	ID             string         `json:"id"`
	UserID         *string        `json:"user_id"`
	DisplayName    string         `json:"display_name"`
	Tagline        *string        `json:"tagline"`
	Skills         []string       `json:"skills"`
	HoursAvailable *int           `json:"hours_available"`
	HoursFrequency HoursFrequency `json:"hours_frequency"`
	PayPreference  *PayPreference `json:"pay_preference"`
	PayRate        *string        `json:"pay_rate"`
	Location       *string        `json:"location"`
	ContactEmail   *string        `json:"contact_email"`
	ContactPhone   *string        `json:"contact_phone"`
	SocialLinks    []SocialLink   `json:"social_links"`
	Bio            *string        `json:"bio"`
	AvatarURL      *string        `json:"avatar_url"`
	ResumeURL      *string        `json:"resume_url"`
	IsAvailable    bool           `json:"is_available"`
	IsPublic       bool           `json:"is_public"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// ProfileInsert carries everything a caller may supply on creation.
// Omitted booleans default to true.
type ProfileInsert struct {
	DisplayName    string          `json:"display_name" validate:"required,no_blank"`
	Tagline        *string         `json:"tagline,omitempty"`
	Skills         []string        `json:"skills,omitempty"`
	HoursAvailable *int            `json:"hours_available,omitempty"`
	HoursFrequency *HoursFrequency `json:"hours_frequency,omitempty" validate:"omitempty,oneof=week month ''"`
	PayPreference  *PayPreference  `json:"pay_preference,omitempty" validate:"omitempty,oneof=hourly project salary negotiable ''"`
	PayRate        *string         `json:"pay_rate,omitempty"`
	Location       *string         `json:"location,omitempty"`
	ContactEmail   *string         `json:"contact_email,omitempty"`
	ContactPhone   *string         `json:"contact_phone,omitempty"`
	SocialLinks    []SocialLink    `json:"social_links,omitempty" validate:"dive"`
	Bio            *string         `json:"bio,omitempty"`
	AvatarURL      *string         `json:"avatar_url,omitempty"`
	ResumeURL      *string         `json:"resume_url,omitempty"`
	IsAvailable    *bool           `json:"is_available,omitempty"`
	IsPublic       *bool           `json:"is_public,omitempty"`
}

// ProfileUpdate is a partial patch: nil fields are left untouched, and a
// pointer to "" or 0 on a nullable field clears it.
type ProfileUpdate struct {
	DisplayName    *string         `json:"display_name,omitempty" validate:"omitempty,no_blank"`
	Tagline        *string         `json:"tagline,omitempty"`
	Skills         *[]string       `json:"skills,omitempty"`
	HoursAvailable *int            `json:"hours_available,omitempty"`
	HoursFrequency *HoursFrequency `json:"hours_frequency,omitempty" validate:"omitempty,oneof=week month ''"`
	PayPreference  *PayPreference  `json:"pay_preference,omitempty" validate:"omitempty,oneof=hourly project salary negotiable ''"`
	PayRate        *string         `json:"pay_rate,omitempty"`
	Location       *string         `json:"location,omitempty"`
	ContactEmail   *string         `json:"contact_email,omitempty"`
	ContactPhone   *string         `json:"contact_phone,omitempty"`
	SocialLinks    *[]SocialLink   `json:"social_links,omitempty" validate:"omitempty,dive"`
	Bio            *string         `json:"bio,omitempty"`
	AvatarURL      *string         `json:"avatar_url,omitempty"`
	ResumeURL      *string         `json:"resume_url,omitempty"`
	IsAvailable    *bool           `json:"is_available,omitempty"`
	IsPublic       *bool           `json:"is_public,omitempty"`
}

// NewProfile builds a full record from an insert, applying the defaults
// every backend shares. ID, owner and timestamps are left to the caller.
func NewProfile(in ProfileInsert) Profile {
	p := Profile{
		DisplayName:    in.DisplayName,
		Tagline:        nullable(in.Tagline),
		Skills:         []string{},
		HoursAvailable: nullableInt(in.HoursAvailable),
		HoursFrequency: HoursPerWeek,
		PayRate:        nullable(in.PayRate),
		Location:       nullable(in.Location),
		ContactEmail:   nullable(in.ContactEmail),
		ContactPhone:   nullable(in.ContactPhone),
		SocialLinks:    []SocialLink{},
		Bio:            nullable(in.Bio),
		AvatarURL:      nullable(in.AvatarURL),
		ResumeURL:      nullable(in.ResumeURL),
		IsAvailable:    true,
		IsPublic:       true,
	}
	if in.Skills != nil {
		p.Skills = append(p.Skills, in.Skills...)
	}
	if in.SocialLinks != nil {
		p.SocialLinks = append(p.SocialLinks, in.SocialLinks...)
	}
	if in.HoursFrequency != nil && *in.HoursFrequency != "" {
		p.HoursFrequency = *in.HoursFrequency
	}
	if in.PayPreference != nil && *in.PayPreference != "" {
		pref := *in.PayPreference
		p.PayPreference = &pref
	}
	if in.IsAvailable != nil {
		p.IsAvailable = *in.IsAvailable
	}
	if in.IsPublic != nil {
		p.IsPublic = *in.IsPublic
	}
	return p
}

// Apply merges the patch over p. UpdatedAt is not touched.
func (u ProfileUpdate) Apply(p *Profile) {
	if u.DisplayName != nil {
		p.DisplayName = *u.DisplayName
	}
	if u.Tagline != nil {
		p.Tagline = nullable(u.Tagline)
	}
	if u.Skills != nil {
		p.Skills = append([]string{}, (*u.Skills)...)
	}
	if u.HoursAvailable != nil {
		p.HoursAvailable = nullableInt(u.HoursAvailable)
	}
	if u.HoursFrequency != nil && *u.HoursFrequency != "" {
		p.HoursFrequency = *u.HoursFrequency
	}
	if u.PayPreference != nil {
		if *u.PayPreference == "" {
			p.PayPreference = nil
		} else {
			pref := *u.PayPreference
			p.PayPreference = &pref
		}
	}
	if u.PayRate != nil {
		p.PayRate = nullable(u.PayRate)
	}
	if u.Location != nil {
		p.Location = nullable(u.Location)
	}
	if u.ContactEmail != nil {
		p.ContactEmail = nullable(u.ContactEmail)
	}
	if u.ContactPhone != nil {
		p.ContactPhone = nullable(u.ContactPhone)
	}
	if u.SocialLinks != nil {
		p.SocialLinks = append([]SocialLink{}, (*u.SocialLinks)...)
	}
	if u.Bio != nil {
		p.Bio = nullable(u.Bio)
	}
	if u.AvatarURL != nil {
		p.AvatarURL = nullable(u.AvatarURL)
	}
	if u.ResumeURL != nil {
		p.ResumeURL = nullable(u.ResumeURL)
	}
	if u.IsAvailable != nil {
		p.IsAvailable = *u.IsAvailable
	}
	if u.IsPublic != nil {
		p.IsPublic = *u.IsPublic
	}
}

// Columns renders the patch as a column map for a row-level update.
// Cleared nullable fields map to nil so they are written as NULL.
func (u ProfileUpdate) Columns() map[string]any {
	cols := map[string]any{}
	setStr := func(name string, v *string) {
		if v != nil {
			cols[name] = nullable(v)
		}
	}
	if u.DisplayName != nil {
		cols["display_name"] = *u.DisplayName
	}
	setStr("tagline", u.Tagline)
	if u.Skills != nil {
		cols["skills"] = append([]string{}, (*u.Skills)...)
	}
	if u.HoursAvailable != nil {
		cols["hours_available"] = nullableInt(u.HoursAvailable)
	}
	if u.HoursFrequency != nil && *u.HoursFrequency != "" {
		cols["hours_frequency"] = *u.HoursFrequency
	}
	if u.PayPreference != nil {
		if *u.PayPreference == "" {
			cols["pay_preference"] = nil
		} else {
			cols["pay_preference"] = *u.PayPreference
		}
	}
	setStr("pay_rate", u.PayRate)
	setStr("location", u.Location)
	setStr("contact_email", u.ContactEmail)
	setStr("contact_phone", u.ContactPhone)
	if u.SocialLinks != nil {
		cols["social_links"] = append([]SocialLink{}, (*u.SocialLinks)...)
	}
	setStr("bio", u.Bio)
	setStr("avatar_url", u.AvatarURL)
	setStr("resume_url", u.ResumeURL)
	if u.IsAvailable != nil {
		cols["is_available"] = *u.IsAvailable
	}
	if u.IsPublic != nil {
		cols["is_public"] = *u.IsPublic
	}
	return cols
}

// Matches reports whether query occurs, case-insensitively, in the display
// name, tagline, any skill, location or bio.
func (p *Profile) Matches(query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(p.DisplayName), q) {
		return true
	}
	for _, field := range []*string{p.Tagline, p.Location, p.Bio} {
		if field != nil && strings.Contains(strings.ToLower(*field), q) {
			return true
		}
	}
	for _, s := range p.Skills {
		if strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}

func nullable(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}

func nullableInt(n *int) *int {
	if n == nil || *n == 0 {
		return nil
	}
	v := *n
	return &v
}

// ProfileRepository is the contract both persistence adapters fulfil.
// Not found is reported as a nil profile or false, never as an error.
type ProfileRepository interface {
	List(ctx context.Context) ([]Profile, error)
	ListAvailable(ctx context.Context) ([]Profile, error)
	GetByID(ctx context.Context, id string) (*Profile, error)
	Create(ctx context.Context, in ProfileInsert) (*Profile, error)
	Update(ctx context.Context, id string, patch ProfileUpdate) (*Profile, error)
	Delete(ctx context.Context, id string) (bool, error)
	Search(ctx context.Context, query string) ([]Profile, error)
}

// LocalProfileRepository adds the device-local current-user pointer.
// An empty id means no pointer is set.
type LocalProfileRepository interface {
	ProfileRepository
	CurrentUserID(ctx context.Context) (string, error)
	SetCurrentUserID(ctx context.Context, id string) error
	ClearAll(ctx context.Context) error
}

// RemoteProfileRepository adds lookup of the signed-in identity's own profile.
type RemoteProfileRepository interface {
	ProfileRepository
	CurrentUserProfile(ctx context.Context) (*Profile, error)
}

// ProfileStore is the single entry point used by the rendering layer. It
// embeds the auth passthrough so callers need one dependency.
type ProfileStore interface {
	AuthUsecase

	GetProfiles(ctx context.Context) ([]Profile, error)
	GetProfile(ctx context.Context, id string) (*Profile, error)
	CreateProfile(ctx context.Context, in ProfileInsert) (*Profile, error)
	UpdateProfile(ctx context.Context, id string, patch ProfileUpdate) (*Profile, error)
	DeleteProfile(ctx context.Context, id string) (bool, error)
	SearchProfiles(ctx context.Context, query string) ([]Profile, error)
	GetAvailableProfiles(ctx context.Context) ([]Profile, error)
	GetCurrentUserID(ctx context.Context) (string, error)
	SetCurrentUserID(ctx context.Context, id string) error
	GetCurrentUser(ctx context.Context) (*Profile, error)
	ResolveCurrentUser(ctx context.Context) (CurrentUser, error)
	GetAuthenticatedUserProfile(ctx context.Context) (*Profile, error)
	ClearAllProfiles(ctx context.Context) error
	Mode() StoreMode
}
