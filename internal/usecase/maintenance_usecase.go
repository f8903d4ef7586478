package usecase

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"network20-backend/internal/domain"
	"network20-backend/pkg/apperror"
	"network20-backend/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// DefaultJobCleanupPattern matches the listings left behind by manual testing.
const DefaultJobCleanupPattern = "%TEST%"

type maintenanceUsecase struct {
	repo domain.MaintenanceRepository
}

func NewMaintenanceUsecase(repo domain.MaintenanceRepository) domain.MaintenanceUsecase {
	return &maintenanceUsecase{repo: repo}
}

// Backup writes every profile, newest first, as an indented JSON array.
func (u *maintenanceUsecase) Backup(ctx context.Context, w io.Writer) (domain.BackupSummary, error) {
	profiles, err := u.repo.ListProfiles(ctx)
	if err != nil {
		return domain.BackupSummary{}, err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(profiles); err != nil {
		return domain.BackupSummary{}, err
	}

	summary := domain.BackupSummary{Count: len(profiles)}
	if len(profiles) > 0 {
		newest := profiles[0].CreatedAt
		oldest := profiles[len(profiles)-1].CreatedAt
		summary.Newest, summary.Oldest = &newest, &oldest
	}
	logger.Log.Info("profiles backed up", "count", summary.Count)
	return summary, nil
}

// Check counts both tables and probes a job insert concurrently. A failed
// probe is reported, not returned.
func (u *maintenanceUsecase) Check(ctx context.Context) (domain.SetupReport, error) {
	var report domain.SetupReport
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := u.repo.CountProfiles(gctx)
		report.Profiles = n
		return err
	})
	g.Go(func() error {
		n, err := u.repo.CountJobs(gctx)
		report.Jobs = n
		return err
	})
	var probeErr error
	g.Go(func() error {
		probeErr = u.repo.ProbeJobWrite(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return report, err
	}

	if probeErr != nil {
		report.WriteError = probeErr.Error()
	} else {
		report.WriteOK = true
	}
	return report, nil
}

func (u *maintenanceUsecase) CleanupJobs(ctx context.Context, pattern string) ([]domain.Job, error) {
	if strings.TrimSpace(pattern) == "" {
		pattern = DefaultJobCleanupPattern
	}
	if err := checkPattern(pattern); err != nil {
		return nil, err
	}
	jobs, err := u.repo.DeleteJobsByCompany(ctx, pattern)
	if err != nil {
		return nil, err
	}
	logger.Log.Info("jobs deleted", "pattern", pattern, "count", len(jobs))
	return jobs, nil
}

func (u *maintenanceUsecase) DeleteProfiles(ctx context.Context, pattern string) ([]domain.Profile, error) {
	if err := checkPattern(pattern); err != nil {
		return nil, err
	}
	profiles, err := u.repo.DeleteProfilesByName(ctx, pattern)
	if err != nil {
		return nil, err
	}
	logger.Log.Info("profiles deleted", "pattern", pattern, "count", len(profiles))
	return profiles, nil
}

// checkPattern refuses patterns that would match every row.
func checkPattern(pattern string) error {
	if strings.Trim(pattern, "% _") == "" {
		return apperror.BadRequest("pattern must contain literal characters")
	}
	return nil
}
