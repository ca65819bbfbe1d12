package jobboard

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jonathan/career-code/internal/access"
	"github.com/jonathan/career-code/internal/db"
	"github.com/jonathan/career-code/internal/schemas"
	"github.com/jonathan/career-code/internal/types"
)

// ApplicationService resolves applications and enriches them with job data
type ApplicationService struct {
	applications Collection
	jobs         *JobService
	policy       Policy
}

// NewApplicationService creates an ApplicationService. Job lookups go
// through jobs so enrichment shares its batching and identifier rules.
func NewApplicationService(applications Collection, jobs *JobService, policy Policy) *ApplicationService {
	return &ApplicationService{
		applications: applications,
		jobs:         jobs,
		policy:       policy,
	}
}

// ListForApplicant returns the requested applicant's applications, each
// enriched with title, company, location and company_logo of its job.
// jobID, when non-empty, narrows the result to that job. The caller must be
// the applicant; a mismatch fails before any store read. An application
// whose job no longer exists fails the whole call with ErrDataIntegrity.
func (s *ApplicationService) ListForApplicant(ctx context.Context, claimed, requested, jobID string) (views []types.ApplicationView, err error) {
	ctx, span := startSpan(ctx, "ApplicationService.ListForApplicant")
	defer func() { endSpan(span, err) }()

	if d := access.Authorize(claimed, requested); !d.Allowed {
		return nil, &ErrForbidden{Claimed: claimed, Requested: requested, Reason: d.Reason}
	}

	filter := db.Filter{types.ApplicationFieldApplicant: requested}
	if jobID != "" {
		if _, err := uuid.Parse(jobID); err != nil {
			return nil, &ErrInvalidIdentifier{Kind: "job", ID: jobID}
		}
		filter[types.ApplicationFieldJobID] = jobID
	}

	apps, err := s.find(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, apps)
}

// ListForJob returns every application submitted to a job. The caller must
// own the job.
func (s *ApplicationService) ListForJob(ctx context.Context, claimed, jobID string) (apps []types.Application, err error) {
	ctx, span := startSpan(ctx, "ApplicationService.ListForJob")
	defer func() { endSpan(span, err) }()

	if claimed == "" {
		return nil, &ErrForbidden{Requested: jobID, Reason: access.ReasonMissingIdentity}
	}

	job, err := s.jobs.getByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if d := access.Authorize(claimed, job.HREmail); !d.Allowed {
		return nil, &ErrForbidden{Claimed: claimed, Requested: job.HREmail, Reason: d.Reason}
	}

	return s.find(ctx, db.Filter{types.ApplicationFieldJobID: jobID})
}

func (s *ApplicationService) find(ctx context.Context, filter db.Filter) ([]types.Application, error) {
	docs, err := s.applications.FindMany(ctx, filter, nil)
	if err != nil {
		return nil, upstream("list applications", err)
	}
	apps := make([]types.Application, 0, len(docs))
	for _, doc := range docs {
		apps = append(apps, types.ApplicationFromMap(doc))
	}
	return apps, nil
}

func (s *ApplicationService) enrich(ctx context.Context, apps []types.Application) ([]types.ApplicationView, error) {
	seen := make(map[string]bool, len(apps))
	ids := make([]string, 0, len(apps))
	for _, app := range apps {
		if !seen[app.JobID] {
			seen[app.JobID] = true
			ids = append(ids, app.JobID)
		}
	}

	jobs, err := s.jobs.lookupMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]types.ApplicationView, 0, len(apps))
	for _, app := range apps {
		job, ok := jobs[app.JobID]
		if !ok {
			return nil, &ErrDataIntegrity{ApplicationID: app.ID, JobID: app.JobID}
		}
		views = append(views, types.ApplicationView{
			Application: app,
			Title:       job.Title,
			Company:     job.Company,
			Location:    job.Location,
			CompanyLogo: job.CompanyLogo,
		})
	}
	return views, nil
}

// Submit validates and stores a new application. The referenced job must
// exist. Status is always set to pending.
func (s *ApplicationService) Submit(ctx context.Context, submission map[string]any) (app *types.Application, err error) {
	ctx, span := startSpan(ctx, "ApplicationService.Submit")
	defer func() { endSpan(span, err) }()

	body, err := json.Marshal(submission)
	if err != nil {
		return nil, &ErrValidation{Field: "(root)", Message: err.Error()}
	}
	if err := schemas.ValidateApplication(body); err != nil {
		var schemaErr *schemas.ValidationError
		if errors.As(err, &schemaErr) {
			first := schemaErr.First()
			return nil, &ErrValidation{Field: first.Field, Message: first.Message}
		}
		return nil, err
	}

	created := types.ApplicationFromMap(submission)
	if _, err := s.jobs.getByID(ctx, created.JobID); err != nil {
		return nil, err
	}
	created.Status = types.ApplicationStatusPending

	doc := db.Document(created.Fields).Clone()
	doc[types.ApplicationFieldJobID] = created.JobID
	doc[types.ApplicationFieldApplicant] = created.Applicant
	doc[types.ApplicationFieldStatus] = created.Status

	id, err := s.applications.InsertOne(ctx, doc)
	if err != nil {
		return nil, upstream("insert application", err)
	}
	created.ID = id
	return &created, nil
}

// UpdateStatus sets an application's status. With RequireOwnerOnStatusUpdate
// the caller must own the job the application targets.
func (s *ApplicationService) UpdateStatus(ctx context.Context, claimed, id string, req *types.UpdateStatusRequest) (app *types.Application, err error) {
	ctx, span := startSpan(ctx, "ApplicationService.UpdateStatus")
	defer func() { endSpan(span, err) }()

	if _, err := uuid.Parse(id); err != nil {
		return nil, &ErrInvalidIdentifier{Kind: "application", ID: id}
	}
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	filter := db.Filter{db.IDField: id}

	if s.policy.RequireOwnerOnStatusUpdate {
		if claimed == "" {
			return nil, &ErrForbidden{Reason: access.ReasonMissingIdentity}
		}
		current, err := s.applications.FindOne(ctx, filter)
		if err != nil {
			return nil, upstream("get application", err)
		}
		if current == nil {
			return nil, &ErrNotFound{Kind: "application", ID: id}
		}
		existing := types.ApplicationFromMap(current)
		job, err := s.jobs.getByID(ctx, existing.JobID)
		if err != nil {
			var notFound *ErrNotFound
			var invalid *ErrInvalidIdentifier
			if errors.As(err, &notFound) || errors.As(err, &invalid) {
				return nil, &ErrDataIntegrity{ApplicationID: id, JobID: existing.JobID}
			}
			return nil, err
		}
		if d := access.Authorize(claimed, job.HREmail); !d.Allowed {
			return nil, &ErrForbidden{Claimed: claimed, Requested: job.HREmail, Reason: d.Reason}
		}
	}

	result, err := s.applications.UpdateOne(ctx, filter, db.Document{types.ApplicationFieldStatus: req.Status})
	if err != nil {
		return nil, upstream("update application", err)
	}
	if result.MatchedCount == 0 {
		return nil, &ErrNotFound{Kind: "application", ID: id}
	}

	updated, err := s.applications.FindOne(ctx, filter)
	if err != nil {
		return nil, upstream("get application", err)
	}
	if updated == nil {
		return nil, &ErrNotFound{Kind: "application", ID: id}
	}
	out := types.ApplicationFromMap(updated)
	return &out, nil
}
