package usecase_test

import (
	"context"

	"network20-backend/internal/domain"

	"github.com/stretchr/testify/mock"
)

type MockProfileRepo struct {
	mock.Mock
}

func (m *MockProfileRepo) profiles(args mock.Arguments) ([]domain.Profile, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Profile), args.Error(1)
}

func (m *MockProfileRepo) profile(args mock.Arguments) (*domain.Profile, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

func (m *MockProfileRepo) List(ctx context.Context) ([]domain.Profile, error) {
	return m.profiles(m.Called(ctx))
}

func (m *MockProfileRepo) ListAvailable(ctx context.Context) ([]domain.Profile, error) {
	return m.profiles(m.Called(ctx))
}

func (m *MockProfileRepo) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	return m.profile(m.Called(ctx, id))
}

func (m *MockProfileRepo) Create(ctx context.Context, in domain.ProfileInsert) (*domain.Profile, error) {
	return m.profile(m.Called(ctx, in))
}

func (m *MockProfileRepo) Update(ctx context.Context, id string, patch domain.ProfileUpdate) (*domain.Profile, error) {
	return m.profile(m.Called(ctx, id, patch))
}

func (m *MockProfileRepo) Delete(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockProfileRepo) Search(ctx context.Context, query string) ([]domain.Profile, error) {
	return m.profiles(m.Called(ctx, query))
}

type MockLocalRepo struct {
	MockProfileRepo
}

func (m *MockLocalRepo) CurrentUserID(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockLocalRepo) SetCurrentUserID(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockLocalRepo) ClearAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockRemoteRepo struct {
	MockProfileRepo
}

func (m *MockRemoteRepo) CurrentUserProfile(ctx context.Context) (*domain.Profile, error) {
	return m.profile(m.Called(ctx))
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) session(args mock.Arguments) (*domain.AuthSession, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthSession), args.Error(1)
}

func (m *MockAuthService) SignUp(ctx context.Context, email, password, displayName string) (*domain.AuthSession, error) {
	return m.session(m.Called(ctx, email, password, displayName))
}

func (m *MockAuthService) SignIn(ctx context.Context, email, password string) (*domain.AuthSession, error) {
	return m.session(m.Called(ctx, email, password))
}

func (m *MockAuthService) SignOut(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockAuthService) ResetPassword(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockAuthService) OnAuthStateChange(listener domain.AuthListener) domain.Unsubscribe {
	m.Called(listener)
	return func() {}
}

func (m *MockAuthService) CurrentUser(ctx context.Context) (*domain.AuthUser, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthUser), args.Error(1)
}

type MockJobRepo struct {
	mock.Mock
}

func (m *MockJobRepo) jobs(args mock.Arguments) ([]domain.Job, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Job), args.Error(1)
}

func (m *MockJobRepo) job(args mock.Arguments) (*domain.Job, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Job), args.Error(1)
}

func (m *MockJobRepo) ListActive(ctx context.Context) ([]domain.Job, error) {
	return m.jobs(m.Called(ctx))
}

func (m *MockJobRepo) Search(ctx context.Context, query string) ([]domain.Job, error) {
	return m.jobs(m.Called(ctx, query))
}

func (m *MockJobRepo) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	return m.job(m.Called(ctx, id))
}

func (m *MockJobRepo) Create(ctx context.Context, in domain.JobInsert) (*domain.Job, error) {
	return m.job(m.Called(ctx, in))
}

func (m *MockJobRepo) Update(ctx context.Context, id string, patch domain.JobUpdate) (*domain.Job, error) {
	return m.job(m.Called(ctx, id, patch))
}

func (m *MockJobRepo) Delete(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type MockMaintenanceRepo struct {
	mock.Mock
}

func (m *MockMaintenanceRepo) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Profile), args.Error(1)
}

func (m *MockMaintenanceRepo) CountProfiles(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMaintenanceRepo) CountJobs(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMaintenanceRepo) DeleteProfilesByName(ctx context.Context, pattern string) ([]domain.Profile, error) {
	args := m.Called(ctx, pattern)
	return args.Get(0).([]domain.Profile), args.Error(1)
}

func (m *MockMaintenanceRepo) DeleteJobsByCompany(ctx context.Context, pattern string) ([]domain.Job, error) {
	args := m.Called(ctx, pattern)
	return args.Get(0).([]domain.Job), args.Error(1)
}

func (m *MockMaintenanceRepo) ProbeJobWrite(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
