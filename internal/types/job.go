// Package types provides the request and response shapes for jobs and applications.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"github.com/go-playground/validator/v10"
)

// Job status values
const (
	JobStatusActive = "active"
	JobStatusClosed = "closed"
)

// PublicJobFields lists the job fields visible without authentication.
// hr_email and other internal fields are never part of it.
var PublicJobFields = []string{
	"title",
	"location",
	"jobType",
	"applicationDeadline",
	"salaryRange",
	"description",
	"company",
	"requirements",
	"company_logo",
}

// SalaryRange is the advertised pay band
type SalaryRange struct {
	Min      float64 `json:"min" validate:"gte=0"`
	Max      float64 `json:"max" validate:"gtefield=Min"`
	Currency string  `json:"currency" validate:"required,alpha,len=3"`
}

// JobSummary is the public projection of a job posting
type JobSummary struct {
	ID                  string       `json:"_id"`
	Title               string       `json:"title"`
	Location            string       `json:"location"`
	JobType             string       `json:"jobType"`
	ApplicationDeadline string       `json:"applicationDeadline"`
	SalaryRange         *SalaryRange `json:"salaryRange,omitempty"`
	Description         string       `json:"description"`
	Company             string       `json:"company"`
	Requirements        []string     `json:"requirements"`
	CompanyLogo         string       `json:"company_logo"`
}

// Job is a full job posting as stored
type Job struct {
	JobSummary
	Category         string   `json:"category,omitempty"`
	Responsibilities []string `json:"responsibilities,omitempty"`
	Status           string   `json:"status,omitempty"`
	HREmail          string   `json:"hr_email"`
	HRName           string   `json:"hr_name,omitempty"`
}

// OwnerJob is a job as seen by its recruiter, with the number of
// applications it has received at query time
type OwnerJob struct {
	Job
	ApplicationCount int64 `json:"applicationCount"`
}

// CreateJobRequest is the validated input for posting a job
type CreateJobRequest struct {
	Title               string       `json:"title" validate:"required,max=200"`
	Location            string       `json:"location" validate:"required,max=200"`
	JobType             string       `json:"jobType" validate:"required,max=50"`
	Category            string       `json:"category,omitempty" validate:"omitempty,max=100"`
	ApplicationDeadline string       `json:"applicationDeadline" validate:"required,datetime=2006-01-02"`
	SalaryRange         *SalaryRange `json:"salaryRange" validate:"required"`
	Description         string       `json:"description" validate:"required,max=10000"`
	Company             string       `json:"company" validate:"required,max=200"`
	Requirements        []string     `json:"requirements" validate:"max=50,dive,required,max=200"`
	Responsibilities    []string     `json:"responsibilities,omitempty" validate:"max=50,dive,required,max=500"`
	Status              string       `json:"status,omitempty" validate:"omitempty,oneof=active closed"`
	HREmail             string       `json:"hr_email" validate:"required,email"`
	HRName              string       `json:"hr_name,omitempty" validate:"omitempty,max=200"`
	CompanyLogo         string       `json:"company_logo,omitempty" validate:"omitempty,url"`
}

// Validate validates the CreateJobRequest using the validator.
func (r *CreateJobRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// ToJob converts the request into the stored job shape. Status defaults to active.
func (r *CreateJobRequest) ToJob() Job {
	status := r.Status
	if status == "" {
		status = JobStatusActive
	}
	requirements := r.Requirements
	if requirements == nil {
		requirements = []string{}
	}
	return Job{
		JobSummary: JobSummary{
			Title:               r.Title,
			Location:            r.Location,
			JobType:             r.JobType,
			ApplicationDeadline: r.ApplicationDeadline,
			SalaryRange:         r.SalaryRange,
			Description:         r.Description,
			Company:             r.Company,
			Requirements:        requirements,
			CompanyLogo:         r.CompanyLogo,
		},
		Category:         r.Category,
		Responsibilities: r.Responsibilities,
		Status:           status,
		HREmail:          r.HREmail,
		HRName:           r.HRName,
	}
}
