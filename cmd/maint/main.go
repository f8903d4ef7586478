// Command maint runs operator tasks directly against the hosted Postgres
// database: backups, a setup check and cleanup of test data.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"network20-backend/config"
	"network20-backend/internal/domain"
	"network20-backend/internal/repository/postgres"
	"network20-backend/internal/usecase"
	"network20-backend/pkg/database"
	"network20-backend/pkg/logger"
)

const usage = `usage: maint <command> [flags]

commands:
  backup [-out dir]              write all profiles to backup_profiles_<date>.json
  check                          report row counts and probe job writes
  cleanup-jobs [-pattern %TEST%] delete jobs whose company name matches
  delete-profiles -pattern p     delete profiles whose display name matches
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel)
	if cfg.DBUrl == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPostgresConnection(ctx, cfg.DBUrl)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	uc := usecase.NewMaintenanceUsecase(postgres.NewMaintenanceRepository(pool))
	if err := run(ctx, uc, os.Args[1], os.Args[2:], os.Stdout, time.Now()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		pool.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, uc domain.MaintenanceUsecase, cmd string, args []string, out io.Writer, now time.Time) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(out)

	switch cmd {
	case "backup":
		dir := fs.String("out", ".", "directory to write the backup file to")
		if err := fs.Parse(args); err != nil {
			return err
		}
		return backup(ctx, uc, *dir, out, now)

	case "check":
		if err := fs.Parse(args); err != nil {
			return err
		}
		report, err := uc.Check(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "profiles: %d\njobs: %d\n", report.Profiles, report.Jobs)
		if report.WriteOK {
			fmt.Fprintln(out, "job insert: ok")
		} else {
			fmt.Fprintf(out, "job insert: FAILED (%s)\n", report.WriteError)
		}
		return nil

	case "cleanup-jobs":
		pattern := fs.String("pattern", usecase.DefaultJobCleanupPattern, "ILIKE pattern matched against company_name")
		if err := fs.Parse(args); err != nil {
			return err
		}
		jobs, err := uc.CleanupJobs(ctx, *pattern)
		if err != nil {
			return err
		}
		for _, j := range jobs {
			fmt.Fprintf(out, "deleted job %s: %s at %s\n", j.ID, j.JobTitle, j.CompanyName)
		}
		fmt.Fprintf(out, "%d job(s) deleted\n", len(jobs))
		return nil

	case "delete-profiles":
		pattern := fs.String("pattern", "", "ILIKE pattern matched against display_name (required)")
		if err := fs.Parse(args); err != nil {
			return err
		}
		profiles, err := uc.DeleteProfiles(ctx, *pattern)
		if err != nil {
			return err
		}
		for _, p := range profiles {
			fmt.Fprintf(out, "deleted profile %s: %s\n", p.ID, p.DisplayName)
		}
		fmt.Fprintf(out, "%d profile(s) deleted\n", len(profiles))
		return nil

	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func backup(ctx context.Context, uc domain.MaintenanceUsecase, dir string, out io.Writer, now time.Time) error {
	path := filepath.Join(dir, fmt.Sprintf("backup_profiles_%s.json", now.Format("2006-01-02")))
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	summary, err := uc.Backup(ctx, f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return err
	}

	fmt.Fprintf(out, "backed up %d profile(s) to %s\n", summary.Count, path)
	if summary.Count > 0 {
		fmt.Fprintf(out, "newest: %s\noldest: %s\n", summary.Newest.Format(time.RFC3339), summary.Oldest.Format(time.RFC3339))
	}
	return nil
}
