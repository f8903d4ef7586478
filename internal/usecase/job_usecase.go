package usecase

import (
	"context"
	"time"

	"network20-backend/internal/domain"

	"github.com/go-playground/validator/v10"
)

type jobUsecase struct {
	repo     domain.JobRepository
	policy   readPolicy
	validate *validator.Validate
}

// NewJobUsecase serves jobs from the hosted backend. Jobs have no local
// copy, so in local mode (or with a nil repo) every call, reads included,
// fails with ErrBackendNotConfigured.
func NewJobUsecase(cfg StoreConfig, repo domain.JobRepository, validate *validator.Validate) domain.JobUsecase {
	if !cfg.Remote {
		repo = nil
	}
	return &jobUsecase{
		repo:     repo,
		policy:   readPolicy{mode: cfg.mode(), strict: cfg.StrictReads},
		validate: validate,
	}
}

func (u *jobUsecase) ListJobs(ctx context.Context) ([]domain.Job, error) {
	if u.repo == nil {
		return nil, errNotConfigured
	}
	start := time.Now()
	jobs, err := u.repo.ListActive(ctx)
	return settle(u.policy, "list_jobs", start, jobs, err, []domain.Job{})
}

func (u *jobUsecase) SearchJobs(ctx context.Context, query string) ([]domain.Job, error) {
	if u.repo == nil {
		return nil, errNotConfigured
	}
	start := time.Now()
	jobs, err := u.repo.Search(ctx, query)
	return settle(u.policy, "search_jobs", start, jobs, err, []domain.Job{})
}

func (u *jobUsecase) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	if u.repo == nil {
		return nil, errNotConfigured
	}
	start := time.Now()
	job, err := u.repo.GetByID(ctx, id)
	return settle(u.policy, "get_job", start, job, err, nil)
}

func (u *jobUsecase) CreateJob(ctx context.Context, in domain.JobInsert) (*domain.Job, error) {
	if u.repo == nil {
		return nil, errNotConfigured
	}
	start := time.Now()
	if err := u.validate.Struct(in); err != nil {
		return finish[*domain.Job](u.policy, "create_job", start, nil, validationError(err))
	}
	job, err := u.repo.Create(ctx, in)
	return finish(u.policy, "create_job", start, job, err)
}

func (u *jobUsecase) UpdateJob(ctx context.Context, id string, patch domain.JobUpdate) (*domain.Job, error) {
	if u.repo == nil {
		return nil, errNotConfigured
	}
	start := time.Now()
	if err := u.validate.Struct(patch); err != nil {
		return finish[*domain.Job](u.policy, "update_job", start, nil, validationError(err))
	}
	job, err := u.repo.Update(ctx, id, patch)
	return finish(u.policy, "update_job", start, job, err)
}

func (u *jobUsecase) DeleteJob(ctx context.Context, id string) (bool, error) {
	if u.repo == nil {
		return false, errNotConfigured
	}
	start := time.Now()
	removed, err := u.repo.Delete(ctx, id)
	return finish(u.policy, "delete_job", start, removed, err)
}
