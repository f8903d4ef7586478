package usecase

import (
	"context"
	"strings"

	"network20-backend/internal/domain"
	"network20-backend/pkg/apperror"
	"network20-backend/pkg/logger"
)

type authUsecase struct {
	svc domain.AuthService
}

// NewAuthUsecase passes auth calls through to svc. With a nil svc every
// call fails with ErrBackendNotConfigured.
func NewAuthUsecase(svc domain.AuthService) domain.AuthUsecase {
	return &authUsecase{svc: svc}
}

func (u *authUsecase) SignUp(ctx context.Context, email, password, displayName string) (*domain.AuthSession, error) {
	if u.svc == nil {
		return nil, errNotConfigured
	}
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, apperror.BadRequest("Email and password are required")
	}
	session, err := u.svc.SignUp(ctx, email, password, displayName)
	if err != nil {
		logger.Log.Warn("sign up failed", "error", err)
		return nil, toAppError(err)
	}
	return session, nil
}

func (u *authUsecase) SignIn(ctx context.Context, email, password string) (*domain.AuthSession, error) {
	if u.svc == nil {
		return nil, errNotConfigured
	}
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, apperror.BadRequest("Email and password are required")
	}
	session, err := u.svc.SignIn(ctx, email, password)
	if err != nil {
		logger.Log.Warn("sign in failed", "error", err)
		return nil, toAppError(err)
	}
	return session, nil
}

func (u *authUsecase) SignOut(ctx context.Context) error {
	if u.svc == nil {
		return errNotConfigured
	}
	return toAppError(u.svc.SignOut(ctx))
}

func (u *authUsecase) ResetPassword(ctx context.Context, email string) error {
	if u.svc == nil {
		return errNotConfigured
	}
	if strings.TrimSpace(email) == "" {
		return apperror.BadRequest("Email is required")
	}
	return toAppError(u.svc.ResetPassword(ctx, email))
}

func (u *authUsecase) OnAuthStateChange(listener domain.AuthListener) (domain.Unsubscribe, error) {
	if u.svc == nil {
		return nil, errNotConfigured
	}
	return u.svc.OnAuthStateChange(listener), nil
}

func (u *authUsecase) GetCurrentAuthUser(ctx context.Context) (*domain.AuthUser, error) {
	if u.svc == nil {
		return nil, errNotConfigured
	}
	user, err := u.svc.CurrentUser(ctx)
	if err != nil {
		return nil, toAppError(err)
	}
	return user, nil
}
