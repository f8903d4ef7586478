package supabase

import (
	"context"

	"network20-backend/internal/domain"
	"network20-backend/pkg/supabase"
)

type authService struct {
	client      *supabase.Client
	frontendURL string
}

// NewAuthService adapts the GoTrue client to domain.AuthService. Email links
// point back at frontendURL.
func NewAuthService(client *supabase.Client, frontendURL string) domain.AuthService {
	return &authService{client: client, frontendURL: frontendURL}
}

func (s *authService) SignUp(ctx context.Context, email, password, displayName string) (*domain.AuthSession, error) {
	params := supabase.SignUpParams{
		Email:    email,
		Password: password,
		Data:     map[string]any{"display_name": displayName},
	}
	if s.frontendURL != "" {
		params.RedirectTo = s.frontendURL + "/auth/callback"
	}
	user, session, err := s.client.Auth.SignUp(ctx, params)
	if err != nil {
		return nil, err
	}
	if session != nil {
		return toAuthSession(session), nil
	}
	return &domain.AuthSession{User: *toAuthUser(user)}, nil
}

func (s *authService) SignIn(ctx context.Context, email, password string) (*domain.AuthSession, error) {
	session, err := s.client.Auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return toAuthSession(session), nil
}

func (s *authService) SignOut(ctx context.Context) error {
	return s.client.Auth.SignOut(ctx)
}

func (s *authService) ResetPassword(ctx context.Context, email string) error {
	redirect := ""
	if s.frontendURL != "" {
		redirect = s.frontendURL + "/reset-password"
	}
	return s.client.Auth.ResetPasswordForEmail(ctx, email, redirect)
}

func (s *authService) OnAuthStateChange(listener domain.AuthListener) domain.Unsubscribe {
	unsubscribe := s.client.Auth.OnAuthStateChange(func(_ supabase.AuthEvent, session *supabase.Session) {
		if session == nil {
			listener(nil)
			return
		}
		listener(toAuthUser(&session.User))
	})
	return domain.Unsubscribe(unsubscribe)
}

func (s *authService) CurrentUser(ctx context.Context) (*domain.AuthUser, error) {
	user, err := s.client.Auth.GetUser(ctx)
	if err != nil || user == nil {
		return nil, err
	}
	return toAuthUser(user), nil
}

func toAuthUser(u *supabase.User) *domain.AuthUser {
	name, _ := u.UserMetadata["display_name"].(string)
	return &domain.AuthUser{ID: u.ID, Email: u.Email, DisplayName: name}
}

func toAuthSession(s *supabase.Session) *domain.AuthSession {
	return &domain.AuthSession{
		User:         *toAuthUser(&s.User),
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    s.ExpiresAt,
	}
}
