package domain

import "context"

type CurrentUserKind int

const (
	CurrentUserNone CurrentUserKind = iota
	CurrentUserAuthenticated
	CurrentUserLocalPointer
)

func (k CurrentUserKind) String() string {
	switch k {
	case CurrentUserAuthenticated:
		return "authenticated"
	case CurrentUserLocalPointer:
		return "local_pointer"
	default:
		return "none"
	}
}

// CurrentUser is either the signed-in identity's own profile, a device-local
// pointer id, or nobody.
type CurrentUser struct {
	Kind    CurrentUserKind `json:"kind"`
	Profile *Profile        `json:"profile,omitempty"`
	ID      string          `json:"id,omitempty"`
}

// ProfileID returns the id of the profile the caller owns, or "".
func (c CurrentUser) ProfileID() string {
	switch c.Kind {
	case CurrentUserAuthenticated:
		return c.Profile.ID
	case CurrentUserLocalPointer:
		return c.ID
	default:
		return ""
	}
}

// ProfileLookup loads the signed-in identity's own profile.
type ProfileLookup func(ctx context.Context) (*Profile, error)

// ResolveCurrentUser decides who "me" is. In remote mode a signed-in identity
// is resolved through its own profile and the local pointer is ignored, even
// when that identity has no profile yet. Otherwise the local pointer wins.
func ResolveCurrentUser(ctx context.Context, remote bool, authUser *AuthUser, localPointer string, lookup ProfileLookup) (CurrentUser, error) {
	if remote && authUser != nil {
		profile, err := lookup(ctx)
		if err != nil {
			return CurrentUser{}, err
		}
		if profile == nil {
			return CurrentUser{Kind: CurrentUserNone}, nil
		}
		return CurrentUser{Kind: CurrentUserAuthenticated, Profile: profile}, nil
	}
	if localPointer != "" {
		return CurrentUser{Kind: CurrentUserLocalPointer, ID: localPointer}, nil
	}
	return CurrentUser{Kind: CurrentUserNone}, nil
}
