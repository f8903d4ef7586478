package domain

import (
	"context"
	"io"
	"time"
)

// MaintenanceRepository talks to the hosted database directly, bypassing
// row-level policies. It backs operator tooling only.
type MaintenanceRepository interface {
	ListProfiles(ctx context.Context) ([]Profile, error)
	CountProfiles(ctx context.Context) (int64, error)
	CountJobs(ctx context.Context) (int64, error)
	DeleteProfilesByName(ctx context.Context, pattern string) ([]Profile, error)
	DeleteJobsByCompany(ctx context.Context, pattern string) ([]Job, error)
	// ProbeJobWrite inserts and removes a throwaway job inside a transaction
	// that is always rolled back.
	ProbeJobWrite(ctx context.Context) error
}

type BackupSummary struct {
	Count  int        `json:"count"`
	Newest *time.Time `json:"newest,omitempty"`
	Oldest *time.Time `json:"oldest,omitempty"`
}

type SetupReport struct {
	Profiles   int64  `json:"profiles"`
	Jobs       int64  `json:"jobs"`
	WriteOK    bool   `json:"write_ok"`
	WriteError string `json:"write_error,omitempty"`
}

type MaintenanceUsecase interface {
	Backup(ctx context.Context, w io.Writer) (BackupSummary, error)
	Check(ctx context.Context) (SetupReport, error)
	CleanupJobs(ctx context.Context, pattern string) ([]Job, error)
	DeleteProfiles(ctx context.Context, pattern string) ([]Profile, error)
}
