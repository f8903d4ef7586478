package domain

import "context"

// AuthUser is the normalised identity handed to auth-state subscribers.
type AuthUser struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// AuthSession is the outcome of a sign-up or sign-in. Tokens are empty when
// the backend still waits for email confirmation.
type AuthSession struct {
	User         AuthUser `json:"user"`
	AccessToken  string   `json:"access_token,omitempty"`
	RefreshToken string   `json:"refresh_token,omitempty"`
	ExpiresAt    int64    `json:"expires_at,omitempty"`
}

// AuthListener receives the identity after every sign-in/out transition;
// nil means signed out.
type AuthListener func(user *AuthUser)

// Unsubscribe stops a listener. Calling it more than once is a no-op.
type Unsubscribe func()

// AuthService is the hosted backend's authentication surface.
type AuthService interface {
	SignUp(ctx context.Context, email, password, displayName string) (*AuthSession, error)
	SignIn(ctx context.Context, email, password string) (*AuthSession, error)
	SignOut(ctx context.Context) error
	ResetPassword(ctx context.Context, email string) error
	OnAuthStateChange(listener AuthListener) Unsubscribe
	CurrentUser(ctx context.Context) (*AuthUser, error)
}

// AuthUsecase is the passthrough exposed next to the profile store. Every
// operation fails with ErrBackendNotConfigured when no backend is set up.
type AuthUsecase interface {
	SignUp(ctx context.Context, email, password, displayName string) (*AuthSession, error)
	SignIn(ctx context.Context, email, password string) (*AuthSession, error)
	SignOut(ctx context.Context) error
	ResetPassword(ctx context.Context, email string) error
	OnAuthStateChange(listener AuthListener) (Unsubscribe, error)
	GetCurrentAuthUser(ctx context.Context) (*AuthUser, error)
}
