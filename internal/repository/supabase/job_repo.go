package supabase

import (
	"context"
	"errors"
	"time"

	"network20-backend/internal/domain"
	"network20-backend/pkg/supabase"
)

const jobsTable = "jobs"

type jobRepo struct {
	client *supabase.Client
	now    func() time.Time
}

func NewJobRepository(client *supabase.Client) domain.JobRepository {
	return &jobRepo{client: client, now: time.Now}
}

func (r *jobRepo) ListActive(ctx context.Context) ([]domain.Job, error) {
	jobs := []domain.Job{}
	err := r.client.From(jobsTable).
		Select("*").
		Eq("is_active", "true").
		Order("created_at", false).
		Execute(ctx, &jobs)
	return jobs, err
}

func (r *jobRepo) Search(ctx context.Context, query string) ([]domain.Job, error) {
	jobs := []domain.Job{}
	err := r.client.From(jobsTable).
		Select("*").
		Eq("is_active", "true").
		Or(
			supabase.ILikeFilter("company_name", query),
			supabase.ILikeFilter("job_title", query),
			supabase.ILikeFilter("location", query),
			supabase.ILikeFilter("description", query),
		).
		Order("created_at", false).
		Execute(ctx, &jobs)
	return jobs, err
}

func (r *jobRepo) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	var job domain.Job
	err := r.client.From(jobsTable).Select("*").Eq("id", id).Single().Execute(ctx, &job)
	if errors.Is(err, supabase.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepo) Create(ctx context.Context, in domain.JobInsert) (*domain.Job, error) {
	var job domain.Job
	if err := r.client.From(jobsTable).Insert(in.Row()).Single().Execute(ctx, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepo) Update(ctx context.Context, id string, patch domain.JobUpdate) (*domain.Job, error) {
	cols := patch.Columns()
	cols["updated_at"] = r.now().UTC().Truncate(time.Millisecond)

	var rows []domain.Job
	err := r.client.From(jobsTable).Update(cols).Eq("id", id).Execute(ctx, &rows)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

func (r *jobRepo) Delete(ctx context.Context, id string) (bool, error) {
	var rows []domain.Job
	if err := r.client.From(jobsTable).Delete().Eq("id", id).Execute(ctx, &rows); err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}
