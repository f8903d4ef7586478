package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"network20-backend/internal/domain"
	"network20-backend/internal/usecase"
	"network20-backend/pkg/apperror"
	"network20-backend/pkg/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type upstreamErr struct {
	status int
	msg    string
}

func (e upstreamErr) Error() string         { return e.msg }
func (e upstreamErr) HTTPStatus() int       { return e.status }
func (e upstreamErr) PublicMessage() string { return e.msg }

func strPtr(s string) *string { return &s }

func localStore(t *testing.T, local *MockLocalRepo) domain.ProfileStore {
	t.Helper()
	store, err := usecase.NewProfileStore(usecase.StoreConfig{}, local, nil, nil, validation.New())
	require.NoError(t, err)
	return store
}

func remoteStore(t *testing.T, cfg usecase.StoreConfig, local *MockLocalRepo, remote *MockRemoteRepo, auth *MockAuthService) domain.ProfileStore {
	t.Helper()
	cfg.Remote = true
	store, err := usecase.NewProfileStore(cfg, local, remote, usecase.NewAuthUsecase(auth), validation.New())
	require.NoError(t, err)
	return store
}

func TestNewProfileStore_Requirements(t *testing.T) {
	_, err := usecase.NewProfileStore(usecase.StoreConfig{}, nil, nil, nil, validation.New())
	assert.Error(t, err)

	_, err = usecase.NewProfileStore(usecase.StoreConfig{Remote: true}, new(MockLocalRepo), nil, nil, validation.New())
	assert.Error(t, err)
}

func TestProfileStore_LocalModeNeverTouchesRemote(t *testing.T) {
	ctx := context.Background()
	local := new(MockLocalRepo)
	remote := new(MockRemoteRepo)
	store, err := usecase.NewProfileStore(usecase.StoreConfig{}, local, remote, nil, validation.New())
	require.NoError(t, err)

	ada := &domain.Profile{ID: "local_1", DisplayName: "Ada"}
	local.On("List", ctx).Return([]domain.Profile{*ada}, nil)
	local.On("Create", ctx, domain.ProfileInsert{DisplayName: "Ada"}).Return(ada, nil)
	local.On("Search", ctx, "ada").Return([]domain.Profile{*ada}, nil)
	local.On("CurrentUserID", ctx).Return("local_1", nil)
	local.On("GetByID", ctx, "local_1").Return(ada, nil)

	assert.Equal(t, domain.ModeLocal, store.Mode())

	profiles, err := store.GetProfiles(ctx)
	require.NoError(t, err)
	assert.Len(t, profiles, 1)

	created, err := store.CreateProfile(ctx, domain.ProfileInsert{DisplayName: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "local_1", created.ID)

	_, err = store.SearchProfiles(ctx, "ada")
	require.NoError(t, err)

	me, err := store.GetCurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, ada, me)

	own, err := store.GetAuthenticatedUserProfile(ctx)
	require.NoError(t, err)
	assert.Nil(t, own)

	local.AssertExpectations(t)
	remote.AssertNotCalled(t, "List", mock.Anything)
	remote.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	remote.AssertNotCalled(t, "CurrentUserProfile", mock.Anything)
	local.AssertNotCalled(t, "SetCurrentUserID", mock.Anything, mock.Anything)
}

func TestProfileStore_LocalModeAuthNotConfigured(t *testing.T) {
	ctx := context.Background()
	store := localStore(t, new(MockLocalRepo))

	_, err := store.SignIn(ctx, "ada@example.com", "secret")
	assert.ErrorIs(t, err, domain.ErrBackendNotConfigured)
	assert.Equal(t, http.StatusServiceUnavailable, apperror.CodeOf(err))

	_, err = store.SignUp(ctx, "ada@example.com", "secret", "Ada")
	assert.ErrorIs(t, err, domain.ErrBackendNotConfigured)

	assert.ErrorIs(t, store.SignOut(ctx), domain.ErrBackendNotConfigured)
	assert.ErrorIs(t, store.ResetPassword(ctx, "ada@example.com"), domain.ErrBackendNotConfigured)

	_, err = store.OnAuthStateChange(func(*domain.AuthUser) {})
	assert.ErrorIs(t, err, domain.ErrBackendNotConfigured)
}

func TestProfileStore_ValidationRejected(t *testing.T) {
	ctx := context.Background()
	local := new(MockLocalRepo)
	store := localStore(t, local)

	_, err := store.CreateProfile(ctx, domain.ProfileInsert{DisplayName: "   "})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperror.CodeOf(err))
	assert.Contains(t, err.Error(), "display_name")

	_, err = store.UpdateProfile(ctx, "local_1", domain.ProfileUpdate{DisplayName: strPtr("")})
	assert.Equal(t, http.StatusBadRequest, apperror.CodeOf(err))

	local.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	local.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestProfileStore_ReadFailures(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection refused")

	t.Run("lenient reads return empty results", func(t *testing.T) {
		local, remote := new(MockLocalRepo), new(MockRemoteRepo)
		store := remoteStore(t, usecase.StoreConfig{}, local, remote, new(MockAuthService))
		remote.On("List", ctx).Return(nil, boom)
		remote.On("GetByID", ctx, "p1").Return(nil, boom)

		profiles, err := store.GetProfiles(ctx)
		require.NoError(t, err)
		assert.NotNil(t, profiles)
		assert.Empty(t, profiles)

		p, err := store.GetProfile(ctx, "p1")
		require.NoError(t, err)
		assert.Nil(t, p)
	})

	t.Run("strict reads surface the failure", func(t *testing.T) {
		local, remote := new(MockLocalRepo), new(MockRemoteRepo)
		store := remoteStore(t, usecase.StoreConfig{StrictReads: true}, local, remote, new(MockAuthService))
		remote.On("List", ctx).Return(nil, upstreamErr{status: 503, msg: "unavailable"})

		_, err := store.GetProfiles(ctx)
		require.Error(t, err)
		assert.Equal(t, http.StatusBadGateway, apperror.CodeOf(err))
	})

	t.Run("write failures always surface", func(t *testing.T) {
		local, remote := new(MockLocalRepo), new(MockRemoteRepo)
		store := remoteStore(t, usecase.StoreConfig{}, local, remote, new(MockAuthService))
		remote.On("Create", ctx, mock.Anything).Return(nil, domain.ErrUnauthenticated)
		remote.On("Delete", ctx, "p1").Return(false, upstreamErr{status: 403, msg: "permission denied"})

		_, err := store.CreateProfile(ctx, domain.ProfileInsert{DisplayName: "Ada"})
		assert.Equal(t, http.StatusUnauthorized, apperror.CodeOf(err))

		_, err = store.DeleteProfile(ctx, "p1")
		require.Error(t, err)
		assert.Equal(t, http.StatusForbidden, apperror.CodeOf(err))
		assert.Equal(t, "permission denied", err.Error())
		local.AssertNotCalled(t, "SetCurrentUserID", mock.Anything, mock.Anything)
	})
}

func TestProfileStore_RemoteCreateSetsPointer(t *testing.T) {
	ctx := context.Background()
	local, remote := new(MockLocalRepo), new(MockRemoteRepo)
	store := remoteStore(t, usecase.StoreConfig{}, local, remote, new(MockAuthService))

	created := &domain.Profile{ID: "3f1c", DisplayName: "Ada"}
	remote.On("Create", ctx, domain.ProfileInsert{DisplayName: "Ada"}).Return(created, nil)
	local.On("SetCurrentUserID", ctx, "3f1c").Return(errors.New("read-only fs"))

	p, err := store.CreateProfile(ctx, domain.ProfileInsert{DisplayName: "Ada"})
	require.NoError(t, err, "a pointer failure does not fail the create")
	assert.Equal(t, created, p)
	local.AssertExpectations(t)
	local.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProfileStore_RemoteDeleteClearsPointer(t *testing.T) {
	ctx := context.Background()
	local, remote := new(MockLocalRepo), new(MockRemoteRepo)
	store := remoteStore(t, usecase.StoreConfig{}, local, remote, new(MockAuthService))

	remote.On("Delete", ctx, "p1").Return(true, nil)
	remote.On("Delete", ctx, "p2").Return(true, nil)
	remote.On("Delete", ctx, "gone").Return(false, nil)
	local.On("CurrentUserID", ctx).Return("p1", nil)
	local.On("SetCurrentUserID", ctx, "").Return(nil).Once()

	removed, err := store.DeleteProfile(ctx, "p2")
	require.NoError(t, err)
	assert.True(t, removed)
	local.AssertNotCalled(t, "SetCurrentUserID", ctx, "")

	removed, err = store.DeleteProfile(ctx, "gone")
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = store.DeleteProfile(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, removed)
	local.AssertExpectations(t)
}

func TestProfileStore_ResolveCurrentUser(t *testing.T) {
	ctx := context.Background()

	t.Run("signed in with own profile", func(t *testing.T) {
		local, remote, auth := new(MockLocalRepo), new(MockRemoteRepo), new(MockAuthService)
		store := remoteStore(t, usecase.StoreConfig{}, local, remote, auth)
		own := &domain.Profile{ID: "remote-1"}
		auth.On("CurrentUser", ctx).Return(&domain.AuthUser{ID: "u1"}, nil)
		remote.On("CurrentUserProfile", ctx).Return(own, nil)
		local.On("CurrentUserID", ctx).Return("local_9", nil)

		cu, err := store.ResolveCurrentUser(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.CurrentUserAuthenticated, cu.Kind)
		assert.Equal(t, "remote-1", cu.ProfileID())

		me, err := store.GetCurrentUser(ctx)
		require.NoError(t, err)
		assert.Equal(t, own, me)

		id, err := store.GetCurrentUserID(ctx)
		require.NoError(t, err)
		assert.Equal(t, "remote-1", id, "the signed-in identity wins over the pointer")
	})

	t.Run("signed in without a profile ignores the pointer", func(t *testing.T) {
		local, remote, auth := new(MockLocalRepo), new(MockRemoteRepo), new(MockAuthService)
		store := remoteStore(t, usecase.StoreConfig{}, local, remote, auth)
		auth.On("CurrentUser", ctx).Return(&domain.AuthUser{ID: "u1"}, nil)
		remote.On("CurrentUserProfile", ctx).Return(nil, nil)
		local.On("CurrentUserID", ctx).Return("local_9", nil)

		id, err := store.GetCurrentUserID(ctx)
		require.NoError(t, err)
		assert.Empty(t, id)
	})

	t.Run("anonymous falls back to the pointer", func(t *testing.T) {
		local, remote, auth := new(MockLocalRepo), new(MockRemoteRepo), new(MockAuthService)
		store := remoteStore(t, usecase.StoreConfig{}, local, remote, auth)
		pointed := &domain.Profile{ID: "p7"}
		auth.On("CurrentUser", ctx).Return(nil, nil)
		local.On("CurrentUserID", ctx).Return("p7", nil)
		remote.On("GetByID", ctx, "p7").Return(pointed, nil)

		me, err := store.GetCurrentUser(ctx)
		require.NoError(t, err)
		assert.Equal(t, pointed, me)

		id, err := store.GetCurrentUserID(ctx)
		require.NoError(t, err)
		assert.Equal(t, "p7", id)
		remote.AssertNotCalled(t, "CurrentUserProfile", mock.Anything)
	})

	t.Run("local mode never asks the auth backend", func(t *testing.T) {
		local := new(MockLocalRepo)
		store := localStore(t, local)
		local.On("CurrentUserID", ctx).Return("", nil)

		cu, err := store.ResolveCurrentUser(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.CurrentUserNone, cu.Kind)
	})

	t.Run("auth failure reads as nobody", func(t *testing.T) {
		local, remote, auth := new(MockLocalRepo), new(MockRemoteRepo), new(MockAuthService)
		store := remoteStore(t, usecase.StoreConfig{}, local, remote, auth)
		auth.On("CurrentUser", ctx).Return(nil, upstreamErr{status: 500, msg: "down"})

		cu, err := store.ResolveCurrentUser(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.CurrentUserNone, cu.Kind)
	})
}

func TestProfileStore_PointerAndClear(t *testing.T) {
	ctx := context.Background()
	local := new(MockLocalRepo)
	store := localStore(t, local)
	local.On("SetCurrentUserID", ctx, "local_1").Return(nil)
	local.On("CurrentUserID", ctx).Return("local_1", nil)
	local.On("ClearAll", ctx).Return(errors.New("disk full"))

	require.NoError(t, store.SetCurrentUserID(ctx, "local_1"))
	id, err := store.GetCurrentUserID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "local_1", id)

	err = store.ClearAllProfiles(ctx)
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, apperror.CodeOf(err))
}

func TestProfileStore_SignOutClearsPointer(t *testing.T) {
	ctx := context.Background()

	t.Run("remote", func(t *testing.T) {
		local, remote, auth := new(MockLocalRepo), new(MockRemoteRepo), new(MockAuthService)
		store := remoteStore(t, usecase.StoreConfig{}, local, remote, auth)
		auth.On("SignOut", ctx).Return(nil)
		local.On("SetCurrentUserID", ctx, "").Return(nil).Once()

		require.NoError(t, store.SignOut(ctx))
		local.AssertExpectations(t)
	})

	t.Run("failed sign-out keeps the pointer", func(t *testing.T) {
		local, remote, auth := new(MockLocalRepo), new(MockRemoteRepo), new(MockAuthService)
		store := remoteStore(t, usecase.StoreConfig{}, local, remote, auth)
		auth.On("SignOut", ctx).Return(upstreamErr{status: 503, msg: "down"})

		err := store.SignOut(ctx)
		assert.Equal(t, http.StatusBadGateway, apperror.CodeOf(err))
		local.AssertNotCalled(t, "SetCurrentUserID", mock.Anything, mock.Anything)
	})

	t.Run("local mode has nobody to sign out", func(t *testing.T) {
		local := new(MockLocalRepo)
		store := localStore(t, local)

		err := store.SignOut(ctx)
		assert.ErrorIs(t, err, domain.ErrBackendNotConfigured)
		local.AssertNotCalled(t, "SetCurrentUserID", mock.Anything, mock.Anything)
	})
}

func TestProfileStore_SessionScopedSkipsSharedPointer(t *testing.T) {
	ctx := context.Background()
	local, remote, auth := new(MockLocalRepo), new(MockRemoteRepo), new(MockAuthService)
	store := remoteStore(t, usecase.StoreConfig{SessionScoped: true}, local, remote, auth)

	created := &domain.Profile{ID: "private-a", DisplayName: "Ada"}
	remote.On("Create", ctx, domain.ProfileInsert{DisplayName: "Ada"}).Return(created, nil)
	remote.On("Delete", ctx, "private-a").Return(true, nil)
	auth.On("CurrentUser", ctx).Return(nil, nil)
	auth.On("SignOut", ctx).Return(nil)

	_, err := store.CreateProfile(ctx, domain.ProfileInsert{DisplayName: "Ada"})
	require.NoError(t, err)

	me, err := store.GetCurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, me, "anonymous callers never inherit another caller's profile")

	id, err := store.GetCurrentUserID(ctx)
	require.NoError(t, err)
	assert.Empty(t, id)

	err = store.SetCurrentUserID(ctx, "private-a")
	assert.Equal(t, http.StatusConflict, apperror.CodeOf(err))

	err = store.ClearAllProfiles(ctx)
	assert.Equal(t, http.StatusUnauthorized, apperror.CodeOf(err))

	removed, err := store.DeleteProfile(ctx, "private-a")
	require.NoError(t, err)
	assert.True(t, removed)
	require.NoError(t, store.SignOut(ctx))

	local.AssertNotCalled(t, "CurrentUserID", mock.Anything)
	local.AssertNotCalled(t, "SetCurrentUserID", mock.Anything, mock.Anything)
	local.AssertNotCalled(t, "ClearAll", mock.Anything)
	remote.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestProfileStore_SessionScopedClearNeedsSignIn(t *testing.T) {
	ctx := context.Background()
	local, remote, auth := new(MockLocalRepo), new(MockRemoteRepo), new(MockAuthService)
	store := remoteStore(t, usecase.StoreConfig{SessionScoped: true}, local, remote, auth)
	auth.On("CurrentUser", ctx).Return(&domain.AuthUser{ID: "u1"}, nil)
	local.On("ClearAll", ctx).Return(nil).Once()

	require.NoError(t, store.ClearAllProfiles(ctx))
	local.AssertExpectations(t)
}
