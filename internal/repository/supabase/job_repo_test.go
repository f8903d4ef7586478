package supabase_test

import (
	"context"
	"testing"
	"time"

	"network20-backend/internal/domain"
	remote "network20-backend/internal/repository/supabase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededJob(id, company, title string, active bool, day int) domain.Job {
	created := time.Date(2026, 2, day, 0, 0, 0, 0, time.UTC)
	return domain.Job{
		ID:           id,
		CompanyName:  company,
		JobTitle:     title,
		SkillsNeeded: []string{},
		ContactEmail: "hr@" + id + ".test",
		IsActive:     active,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
}

func TestJobRepo_ListActive(t *testing.T) {
	c, srv := newClient(t)
	srv.Seed("jobs",
		seededJob("j1", "Acme", "Welder", true, 1),
		seededJob("j2", "Closed Co", "Clerk", false, 2),
		seededJob("j3", "Globex", "Engineer", true, 3),
	)
	repo := remote.NewJobRepository(c)

	jobs, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "j3", jobs[0].ID)
	assert.Equal(t, "j1", jobs[1].ID)
}

func TestJobRepo_Search(t *testing.T) {
	c, srv := newClient(t)
	welder := seededJob("j1", "Acme", "Welder", true, 1)
	welder.Location = strPtr("Porto")
	srv.Seed("jobs", welder,
		seededJob("j2", "Acme Closed", "Welder", false, 2),
		seededJob("j3", "Globex", "Engineer", true, 3),
	)
	repo := remote.NewJobRepository(c)
	ctx := context.Background()

	jobs, err := repo.Search(ctx, "weld")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "j1", jobs[0].ID)

	jobs, err = repo.Search(ctx, "porto")
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	jobs, err = repo.Search(ctx, "nothing")
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestJobRepo_Lifecycle(t *testing.T) {
	c, _ := newClient(t)
	repo := remote.NewJobRepository(c)
	ctx := context.Background()

	job, err := repo.Create(ctx, domain.JobInsert{CompanyName: "Acme", JobTitle: "Welder", ContactEmail: "hr@acme.test"})
	require.NoError(t, err)
	assert.True(t, job.IsActive)
	assert.Equal(t, []string{}, job.SkillsNeeded)

	got, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Welder", got.JobTitle)

	inactive := false
	updated, err := repo.Update(ctx, job.ID, domain.JobUpdate{IsActive: &inactive, PayRange: strPtr("$20-30/h")})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "$20-30/h", *updated.PayRange)

	updated, err = repo.Update(ctx, "missing", domain.JobUpdate{IsActive: &inactive})
	require.NoError(t, err)
	assert.Nil(t, updated)

	removed, err := repo.Delete(ctx, job.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	got, err = repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
