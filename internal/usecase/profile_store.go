package usecase

import (
	"context"
	"errors"
	"time"

	"network20-backend/config"
	"network20-backend/internal/domain"
	"network20-backend/pkg/logger"

	"github.com/go-playground/validator/v10"
)

// StoreConfig is decided once at startup; the store never switches mode.
type StoreConfig struct {
	Remote      bool
	StrictReads bool
	// SessionScoped is set when one process serves many callers, each with
	// its own session. The current-user pointer is process-wide, so remote
	// mode then neither reads nor writes it.
	SessionScoped bool
}

func NewStoreConfig(cfg *config.Config) StoreConfig {
	return StoreConfig{Remote: cfg.RemoteConfigured(), StrictReads: cfg.StrictReads}
}

func (c StoreConfig) mode() domain.StoreMode {
	if c.Remote {
		return domain.ModeRemote
	}
	return domain.ModeLocal
}

type profileStore struct {
	domain.AuthUsecase

	policy        readPolicy
	sessionScoped bool
	local         domain.LocalProfileRepository
	remote        domain.RemoteProfileRepository
	validate      *validator.Validate
}

// NewProfileStore dispatches every profile operation to exactly one adapter.
// The local repository is always required: it also holds the current-user
// pointer in remote mode. A nil auth means no backend, so auth calls fail
// with ErrBackendNotConfigured.
func NewProfileStore(cfg StoreConfig, local domain.LocalProfileRepository, remote domain.RemoteProfileRepository, auth domain.AuthUsecase, validate *validator.Validate) (domain.ProfileStore, error) {
	if local == nil {
		return nil, errors.New("profile store: local repository is required")
	}
	if cfg.Remote && remote == nil {
		return nil, errors.New("profile store: remote mode needs a remote repository")
	}
	if auth == nil {
		auth = NewAuthUsecase(nil)
	}
	return &profileStore{
		AuthUsecase:   auth,
		policy:        readPolicy{mode: cfg.mode(), strict: cfg.StrictReads},
		sessionScoped: cfg.SessionScoped,
		local:         local,
		remote:        remote,
		validate:      validate,
	}, nil
}

func (s *profileStore) Mode() domain.StoreMode {
	return s.policy.mode
}

func (s *profileStore) remoteMode() bool {
	return s.policy.mode == domain.ModeRemote
}

// pointerShared reports whether the device pointer stands in for identity.
// It does not once callers bring their own remote sessions.
func (s *profileStore) pointerShared() bool {
	return !(s.remoteMode() && s.sessionScoped)
}

func (s *profileStore) active() domain.ProfileRepository {
	if s.remoteMode() {
		return s.remote
	}
	return s.local
}

func (s *profileStore) GetProfiles(ctx context.Context) ([]domain.Profile, error) {
	start := time.Now()
	profiles, err := s.active().List(ctx)
	return settle(s.policy, "get_profiles", start, profiles, err, []domain.Profile{})
}

func (s *profileStore) GetAvailableProfiles(ctx context.Context) ([]domain.Profile, error) {
	start := time.Now()
	profiles, err := s.active().ListAvailable(ctx)
	return settle(s.policy, "get_available_profiles", start, profiles, err, []domain.Profile{})
}

func (s *profileStore) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	start := time.Now()
	p, err := s.active().GetByID(ctx, id)
	return settle(s.policy, "get_profile", start, p, err, nil)
}

func (s *profileStore) SearchProfiles(ctx context.Context, query string) ([]domain.Profile, error) {
	start := time.Now()
	profiles, err := s.active().Search(ctx, query)
	return settle(s.policy, "search_profiles", start, profiles, err, []domain.Profile{})
}

func (s *profileStore) CreateProfile(ctx context.Context, in domain.ProfileInsert) (*domain.Profile, error) {
	start := time.Now()
	p, err := s.createProfile(ctx, in)
	return finish(s.policy, "create_profile", start, p, err)
}

func (s *profileStore) createProfile(ctx context.Context, in domain.ProfileInsert) (*domain.Profile, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}
	p, err := s.active().Create(ctx, in)
	if err != nil {
		return nil, err
	}
	if s.remoteMode() && s.pointerShared() {
		// The hosted row exists either way; a stale pointer is recoverable.
		if err := s.local.SetCurrentUserID(ctx, p.ID); err != nil {
			logger.Log.Warn("could not store current user pointer", "profile_id", p.ID, "error", err)
		}
	}
	return p, nil
}

func (s *profileStore) UpdateProfile(ctx context.Context, id string, patch domain.ProfileUpdate) (*domain.Profile, error) {
	start := time.Now()
	p, err := s.updateProfile(ctx, id, patch)
	return finish(s.policy, "update_profile", start, p, err)
}

func (s *profileStore) updateProfile(ctx context.Context, id string, patch domain.ProfileUpdate) (*domain.Profile, error) {
	if err := s.validate.Struct(patch); err != nil {
		return nil, validationError(err)
	}
	return s.active().Update(ctx, id, patch)
}

func (s *profileStore) DeleteProfile(ctx context.Context, id string) (bool, error) {
	start := time.Now()
	removed, err := s.deleteProfile(ctx, id)
	return finish(s.policy, "delete_profile", start, removed, err)
}

func (s *profileStore) deleteProfile(ctx context.Context, id string) (bool, error) {
	removed, err := s.active().Delete(ctx, id)
	if err != nil || !removed || !s.remoteMode() || !s.pointerShared() {
		return removed, err
	}
	// The local adapter clears its own pointer; in remote mode the pointer
	// may still name the deleted hosted row.
	pointer, err := s.local.CurrentUserID(ctx)
	if err == nil && pointer == id {
		err = s.local.SetCurrentUserID(ctx, "")
	}
	if err != nil {
		logger.Log.Warn("could not clear current user pointer", "profile_id", id, "error", err)
	}
	return true, nil
}

// GetCurrentUserID is the id of the caller's profile: the signed-in
// identity's own profile in remote mode, otherwise the local pointer.
func (s *profileStore) GetCurrentUserID(ctx context.Context) (string, error) {
	start := time.Now()
	cu, err := s.resolveCurrentUser(ctx)
	return settle(s.policy, "get_current_user_id", start, cu.ProfileID(), err, "")
}

func (s *profileStore) SetCurrentUserID(ctx context.Context, id string) error {
	start := time.Now()
	var err error = errPointerUnused
	if s.pointerShared() {
		err = s.local.SetCurrentUserID(ctx, id)
	}
	_, err = finish(s.policy, "set_current_user_id", start, struct{}{}, err)
	return err
}

// SignOut ends the session and forgets the pointer with it.
func (s *profileStore) SignOut(ctx context.Context) error {
	if err := s.AuthUsecase.SignOut(ctx); err != nil {
		return err
	}
	if !s.pointerShared() {
		return nil
	}
	start := time.Now()
	_, err := finish(s.policy, "sign_out", start, struct{}{}, s.local.SetCurrentUserID(ctx, ""))
	return err
}

// ResolveCurrentUser works out who "me" is. Local mode never asks the auth
// backend.
func (s *profileStore) ResolveCurrentUser(ctx context.Context) (domain.CurrentUser, error) {
	start := time.Now()
	cu, err := s.resolveCurrentUser(ctx)
	return settle(s.policy, "resolve_current_user", start, cu, err, domain.CurrentUser{Kind: domain.CurrentUserNone})
}

func (s *profileStore) resolveCurrentUser(ctx context.Context) (domain.CurrentUser, error) {
	var authUser *domain.AuthUser
	var lookup domain.ProfileLookup
	if s.remoteMode() {
		var err error
		if authUser, err = s.GetCurrentAuthUser(ctx); err != nil {
			return domain.CurrentUser{}, err
		}
		lookup = s.remote.CurrentUserProfile
	}

	var pointer string
	if s.pointerShared() {
		var err error
		if pointer, err = s.local.CurrentUserID(ctx); err != nil {
			return domain.CurrentUser{}, err
		}
	}
	return domain.ResolveCurrentUser(ctx, s.remoteMode(), authUser, pointer, lookup)
}

func (s *profileStore) GetCurrentUser(ctx context.Context) (*domain.Profile, error) {
	start := time.Now()
	p, err := s.currentUser(ctx)
	return settle(s.policy, "get_current_user", start, p, err, nil)
}

func (s *profileStore) currentUser(ctx context.Context) (*domain.Profile, error) {
	cu, err := s.resolveCurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	switch cu.Kind {
	case domain.CurrentUserAuthenticated:
		return cu.Profile, nil
	case domain.CurrentUserLocalPointer:
		return s.active().GetByID(ctx, cu.ID)
	default:
		return nil, nil
	}
}

// GetAuthenticatedUserProfile is always nil in local mode.
func (s *profileStore) GetAuthenticatedUserProfile(ctx context.Context) (*domain.Profile, error) {
	if !s.remoteMode() {
		return nil, nil
	}
	start := time.Now()
	p, err := s.remote.CurrentUserProfile(ctx)
	return settle(s.policy, "get_authenticated_user_profile", start, p, err, nil)
}

// ClearAllProfiles wipes device-local data only, in either mode. Callers
// sharing a session-scoped process must be signed in.
func (s *profileStore) ClearAllProfiles(ctx context.Context) error {
	start := time.Now()
	_, err := finish(s.policy, "clear_all_profiles", start, struct{}{}, s.clearAll(ctx))
	return err
}

func (s *profileStore) clearAll(ctx context.Context) error {
	if !s.pointerShared() {
		user, err := s.GetCurrentAuthUser(ctx)
		if err != nil {
			return err
		}
		if user == nil {
			return domain.ErrUnauthenticated
		}
	}
	return s.local.ClearAll(ctx)
}
