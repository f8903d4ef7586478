package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"network20-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

const profileColumns = `
	id::text, user_id::text, display_name, tagline, skills,
	hours_available, COALESCE(hours_frequency, 'week'), pay_preference, pay_rate,
	location, contact_email, contact_phone, COALESCE(social_links, '[]'::jsonb),
	bio, avatar_url, resume_url, is_available, is_public, created_at, updated_at`

const jobColumns = `
	id::text, company_name, job_title, description, skills_needed,
	pay_range, location, contact_email, is_active, created_at, updated_at`

type maintenanceRepo struct {
	db *pgxpool.Pool
}

func NewMaintenanceRepository(db *pgxpool.Pool) domain.MaintenanceRepository {
	return &maintenanceRepo{db: db}
}

func (r *maintenanceRepo) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	rows, err := r.db.Query(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return collectProfiles(rows)
}

func (r *maintenanceRepo) CountProfiles(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&n)
	return n, err
}

func (r *maintenanceRepo) CountJobs(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM jobs`).Scan(&n)
	return n, err
}

func (r *maintenanceRepo) DeleteProfilesByName(ctx context.Context, pattern string) ([]domain.Profile, error) {
	rows, err := r.db.Query(ctx, `DELETE FROM profiles WHERE display_name ILIKE $1 RETURNING `+profileColumns, pattern)
	if err != nil {
		return nil, err
	}
	return collectProfiles(rows)
}

func (r *maintenanceRepo) DeleteJobsByCompany(ctx context.Context, pattern string) ([]domain.Job, error) {
	rows, err := r.db.Query(ctx, `DELETE FROM jobs WHERE company_name ILIKE $1 RETURNING `+jobColumns, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := []domain.Job{}
	for rows.Next() {
		var j domain.Job
		var skills []string
		if err := rows.Scan(
			&j.ID, &j.CompanyName, &j.JobTitle, &j.Description, pq.Array(&skills),
			&j.PayRange, &j.Location, &j.ContactEmail, &j.IsActive, &j.CreatedAt, &j.UpdatedAt,
		); err != nil {
			return nil, err
		}
		j.SkillsNeeded = nonNil(skills)
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (r *maintenanceRepo) ProbeJobWrite(ctx context.Context) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var id string
	err = tx.QueryRow(ctx,
		`INSERT INTO jobs (company_name, job_title, contact_email, skills_needed)
		 VALUES ($1, $2, $3, $4) RETURNING id::text`,
		"Setup Check TEST", "Connectivity probe", "probe@example.invalid", pq.Array([]string{}),
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert probe job: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM jobs WHERE id = $1::uuid`, id); err != nil {
		return fmt.Errorf("delete probe job: %w", err)
	}
	return nil
}

func collectProfiles(rows pgx.Rows) ([]domain.Profile, error) {
	defer rows.Close()

	profiles := []domain.Profile{}
	for rows.Next() {
		var p domain.Profile
		var skills []string
		var socialLinks []byte
		var frequency string
		var pay *string
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.DisplayName, &p.Tagline, pq.Array(&skills),
			&p.HoursAvailable, &frequency, &pay, &p.PayRate,
			&p.Location, &p.ContactEmail, &p.ContactPhone, &socialLinks,
			&p.Bio, &p.AvatarURL, &p.ResumeURL, &p.IsAvailable, &p.IsPublic, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		p.Skills = nonNil(skills)
		p.HoursFrequency = domain.HoursFrequency(frequency)
		if pay != nil {
			pref := domain.PayPreference(*pay)
			p.PayPreference = &pref
		}
		if err := json.Unmarshal(socialLinks, &p.SocialLinks); err != nil {
			return nil, fmt.Errorf("profile %s: decode social_links: %w", p.ID, err)
		}
		if p.SocialLinks == nil {
			p.SocialLinks = []domain.SocialLink{}
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
