package domain

import (
	"context"
	"time"
)

// Job is a listing posted by an employer. Jobs only exist on the remote backend.
type Job struct {
	ID           string    `json:"id"`
	CompanyName  string    `json:"company_name"`
	JobTitle     string    `json:"job_title"`
	Description  *string   `json:"description"`
	SkillsNeeded []string  `json:"skills_needed"`
	PayRange     *string   `json:"pay_range"`
	Location     *string   `json:"location"`
	ContactEmail string    `json:"contact_email"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type JobInsert struct {
	CompanyName  string   `json:"company_name" validate:"required,no_blank"`
	JobTitle     string   `json:"job_title" validate:"required,no_blank"`
	Description  *string  `json:"description,omitempty"`
	SkillsNeeded []string `json:"skills_needed,omitempty"`
	PayRange     *string  `json:"pay_range,omitempty"`
	Location     *string  `json:"location,omitempty"`
	ContactEmail string   `json:"contact_email" validate:"required,no_blank"`
	IsActive     *bool    `json:"is_active,omitempty"`
}

type JobUpdate struct {
	CompanyName  *string   `json:"company_name,omitempty" validate:"omitempty,no_blank"`
	JobTitle     *string   `json:"job_title,omitempty" validate:"omitempty,no_blank"`
	Description  *string   `json:"description,omitempty"`
	SkillsNeeded *[]string `json:"skills_needed,omitempty"`
	PayRange     *string   `json:"pay_range,omitempty"`
	Location     *string   `json:"location,omitempty"`
	ContactEmail *string   `json:"contact_email,omitempty" validate:"omitempty,no_blank"`
	IsActive     *bool     `json:"is_active,omitempty"`
}

// Row renders the insert as the column map sent to the backend.
func (in JobInsert) Row() map[string]any {
	row := map[string]any{
		"company_name":  in.CompanyName,
		"job_title":     in.JobTitle,
		"description":   nullable(in.Description),
		"skills_needed": []string{},
		"pay_range":     nullable(in.PayRange),
		"location":      nullable(in.Location),
		"contact_email": in.ContactEmail,
		"is_active":     true,
	}
	if in.SkillsNeeded != nil {
		row["skills_needed"] = append([]string{}, in.SkillsNeeded...)
	}
	if in.IsActive != nil {
		row["is_active"] = *in.IsActive
	}
	return row
}

func (u JobUpdate) Columns() map[string]any {
	cols := map[string]any{}
	if u.CompanyName != nil {
		cols["company_name"] = *u.CompanyName
	}
	if u.JobTitle != nil {
		cols["job_title"] = *u.JobTitle
	}
	if u.Description != nil {
		cols["description"] = nullable(u.Description)
	}
	if u.SkillsNeeded != nil {
		cols["skills_needed"] = append([]string{}, (*u.SkillsNeeded)...)
	}
	if u.PayRange != nil {
		cols["pay_range"] = nullable(u.PayRange)
	}
	if u.Location != nil {
		cols["location"] = nullable(u.Location)
	}
	if u.ContactEmail != nil {
		cols["contact_email"] = *u.ContactEmail
	}
	if u.IsActive != nil {
		cols["is_active"] = *u.IsActive
	}
	return cols
}

type JobRepository interface {
	ListActive(ctx context.Context) ([]Job, error)
	Search(ctx context.Context, query string) ([]Job, error)
	GetByID(ctx context.Context, id string) (*Job, error)
	Create(ctx context.Context, in JobInsert) (*Job, error)
	Update(ctx context.Context, id string, patch JobUpdate) (*Job, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type JobUsecase interface {
	ListJobs(ctx context.Context) ([]Job, error)
	SearchJobs(ctx context.Context, query string) ([]Job, error)
	GetJob(ctx context.Context, id string) (*Job, error)
	CreateJob(ctx context.Context, in JobInsert) (*Job, error)
	UpdateJob(ctx context.Context, id string, patch JobUpdate) (*Job, error)
	DeleteJob(ctx context.Context, id string) (bool, error)
}
