package jobboard

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/jonathan/career-code/internal/access"
	"github.com/jonathan/career-code/internal/db"
	"github.com/jonathan/career-code/internal/types"
	"golang.org/x/sync/errgroup"
)

const ownerField = "hr_email"

// JobService resolves job listings, optionally scoped by owning recruiter
type JobService struct {
	jobs         Collection
	applications Collection
	policy       Policy
}

// NewJobService creates a JobService over the jobs and applications collections
func NewJobService(jobs, applications Collection, policy Policy) *JobService {
	return &JobService{
		jobs:         jobs,
		applications: applications,
		policy:       policy,
	}
}

// ListPublic returns every job projected to its public fields, in store order
func (s *JobService) ListPublic(ctx context.Context) (jobs []types.JobSummary, err error) {
	ctx, span := startSpan(ctx, "JobService.ListPublic")
	defer func() { endSpan(span, err) }()

	return s.listPublic(ctx, db.Filter{})
}

// ListPublicByOwner returns the public projection of jobs posted by owner.
// It requires no authentication and never exposes hr_email.
func (s *JobService) ListPublicByOwner(ctx context.Context, owner string) (jobs []types.JobSummary, err error) {
	ctx, span := startSpan(ctx, "JobService.ListPublicByOwner")
	defer func() { endSpan(span, err) }()

	return s.listPublic(ctx, db.Filter{ownerField: owner})
}

func (s *JobService) listPublic(ctx context.Context, filter db.Filter) ([]types.JobSummary, error) {
	docs, err := s.jobs.FindMany(ctx, filter, types.PublicJobFields)
	if err != nil {
		return nil, upstream("list jobs", err)
	}

	summaries := make([]types.JobSummary, 0, len(docs))
	for _, doc := range docs {
		var summary types.JobSummary
		if err := doc.Decode(&summary); err != nil {
			return nil, upstream("decode job", err)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// ListForOwner returns the owner's jobs with their application counts.
// The caller must be the owner; a mismatch fails before any store read.
func (s *JobService) ListForOwner(ctx context.Context, claimed, owner string) (jobs []types.OwnerJob, err error) {
	ctx, span := startSpan(ctx, "JobService.ListForOwner")
	defer func() { endSpan(span, err) }()

	if d := access.Authorize(claimed, owner); !d.Allowed {
		return nil, &ErrForbidden{Claimed: claimed, Requested: owner, Reason: d.Reason}
	}

	docs, err := s.jobs.FindMany(ctx, db.Filter{ownerField: owner}, nil)
	if err != nil {
		return nil, upstream("list owner jobs", err)
	}

	ids := make([]string, 0, len(docs))
	jobs = make([]types.OwnerJob, 0, len(docs))
	for _, doc := range docs {
		var job types.Job
		if err := doc.Decode(&job); err != nil {
			return nil, upstream("decode job", err)
		}
		jobs = append(jobs, types.OwnerJob{Job: job})
		ids = append(ids, job.ID)
	}

	counts, err := s.countApplications(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range jobs {
		jobs[i].ApplicationCount = counts[jobs[i].ID]
	}
	return jobs, nil
}

// countApplications returns the number of applications per job id, using a
// grouped count when the store supports it and a bounded fan-out otherwise
func (s *JobService) countApplications(ctx context.Context, jobIDs []string) (map[string]int64, error) {
	if len(jobIDs) == 0 {
		return map[string]int64{}, nil
	}

	if gc, ok := s.applications.(GroupCounter); ok {
		counts, err := gc.CountBy(ctx, types.ApplicationFieldJobID, jobIDs)
		if err != nil {
			return nil, upstream("count applications", err)
		}
		return counts, nil
	}

	var mu sync.Mutex
	counts := make(map[string]int64, len(jobIDs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.policy.fanOut())
	for _, id := range jobIDs {
		g.Go(func() error {
			n, err := s.applications.CountDocuments(gCtx, db.Filter{types.ApplicationFieldJobID: id})
			if err != nil {
				return upstream("count applications", err)
			}
			mu.Lock()
			counts[id] = n
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return counts, nil
}

// GetByID returns the job with the given identifier
func (s *JobService) GetByID(ctx context.Context, id string) (job *types.Job, err error) {
	ctx, span := startSpan(ctx, "JobService.GetByID")
	defer func() { endSpan(span, err) }()

	return s.getByID(ctx, id)
}

func (s *JobService) getByID(ctx context.Context, id string) (*types.Job, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, &ErrInvalidIdentifier{Kind: "job", ID: id}
	}

	doc, err := s.jobs.FindOne(ctx, db.Filter{db.IDField: id})
	if err != nil {
		return nil, upstream("get job", err)
	}
	if doc == nil {
		return nil, &ErrNotFound{Kind: "job", ID: id}
	}

	var job types.Job
	if err := doc.Decode(&job); err != nil {
		return nil, upstream("decode job", err)
	}
	return &job, nil
}

// lookupMany resolves the given job ids into a map. Ids with no job are
// absent from the result rather than failing the lookup.
func (s *JobService) lookupMany(ctx context.Context, ids []string) (map[string]types.Job, error) {
	found := make(map[string]types.Job, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	if bf, ok := s.jobs.(BatchFinder); ok {
		docs, err := bf.FindManyByIDs(ctx, ids)
		if err != nil {
			return nil, upstream("batch get jobs", err)
		}
		for _, doc := range docs {
			var job types.Job
			if err := doc.Decode(&job); err != nil {
				return nil, upstream("decode job", err)
			}
			found[job.ID] = job
		}
		return found, nil
	}

	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.policy.fanOut())
	for _, id := range ids {
		g.Go(func() error {
			job, err := s.getByID(gCtx, id)
			if err != nil {
				var notFound *ErrNotFound
				var invalid *ErrInvalidIdentifier
				if errors.As(err, &notFound) || errors.As(err, &invalid) {
					return nil
				}
				return err
			}
			mu.Lock()
			found[id] = *job
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return found, nil
}

// Create validates and stores a new job. With RequireOwnerOnCreate the
// caller must post under their own hr_email.
func (s *JobService) Create(ctx context.Context, claimed string, req *types.CreateJobRequest) (job *types.Job, err error) {
	ctx, span := startSpan(ctx, "JobService.Create")
	defer func() { endSpan(span, err) }()

	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	if s.policy.RequireOwnerOnCreate {
		if d := access.Authorize(claimed, req.HREmail); !d.Allowed {
			return nil, &ErrForbidden{Claimed: claimed, Requested: req.HREmail, Reason: d.Reason}
		}
	}

	created := req.ToJob()
	doc, err := db.Encode(created)
	if err != nil {
		return nil, err
	}

	id, err := s.jobs.InsertOne(ctx, doc)
	if err != nil {
		return nil, upstream("insert job", err)
	}
	created.ID = id
	return &created, nil
}
