package jobboard

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/bxcodec/faker/v3"
	"github.com/jonathan/career-code/internal/db"
	"github.com/jonathan/career-code/internal/types"
	"github.com/stretchr/testify/require"
)

// countingCollection records every store call made through it
type countingCollection struct {
	Collection
	reads  atomic.Int64
	writes atomic.Int64
}

func (c *countingCollection) FindMany(ctx context.Context, filter db.Filter, projection []string) ([]db.Document, error) {
	c.reads.Add(1)
	return c.Collection.FindMany(ctx, filter, projection)
}

func (c *countingCollection) FindOne(ctx context.Context, filter db.Filter) (db.Document, error) {
	c.reads.Add(1)
	return c.Collection.FindOne(ctx, filter)
}

func (c *countingCollection) CountDocuments(ctx context.Context, filter db.Filter) (int64, error) {
	c.reads.Add(1)
	return c.Collection.CountDocuments(ctx, filter)
}

func (c *countingCollection) InsertOne(ctx context.Context, doc db.Document) (string, error) {
	c.writes.Add(1)
	return c.Collection.InsertOne(ctx, doc)
}

func (c *countingCollection) UpdateOne(ctx context.Context, filter db.Filter, set db.Document) (db.UpdateResult, error) {
	c.writes.Add(1)
	return c.Collection.UpdateOne(ctx, filter, set)
}

// plainCollection hides the optional batch capabilities of the wrapped store
type plainCollection struct {
	Collection
}

// failingCollection fails every call
type failingCollection struct {
	err error
}

func (f failingCollection) FindMany(context.Context, db.Filter, []string) ([]db.Document, error) {
	return nil, f.err
}

func (f failingCollection) FindOne(context.Context, db.Filter) (db.Document, error) {
	return nil, f.err
}

func (f failingCollection) InsertOne(context.Context, db.Document) (string, error) {
	return "", f.err
}

func (f failingCollection) UpdateOne(context.Context, db.Filter, db.Document) (db.UpdateResult, error) {
	return db.UpdateResult{}, f.err
}

func (f failingCollection) CountDocuments(context.Context, db.Filter) (int64, error) {
	return 0, f.err
}

type fixture struct {
	jobs         *db.MemoryCollection
	applications *db.MemoryCollection
	jobService   *JobService
	appService   *ApplicationService
}

func newFixture(policy Policy) *fixture {
	jobs := db.NewMemoryCollection(db.CollectionJobs)
	apps := db.NewMemoryCollection(db.CollectionApplications)
	js := NewJobService(jobs, apps, policy)
	return &fixture{
		jobs:         jobs,
		applications: apps,
		jobService:   js,
		appService:   NewApplicationService(apps, js, policy),
	}
}

func fakeEmail() string {
	return strings.ToLower(faker.Email())
}

func newJobRequest(owner string) *types.CreateJobRequest {
	return &types.CreateJobRequest{
		Title:               "Backend Engineer",
		Location:            "Remote",
		JobType:             "full-time",
		Category:            "engineering",
		ApplicationDeadline: "2030-01-31",
		SalaryRange:         &types.SalaryRange{Min: 90000, Max: 120000, Currency: "USD"},
		Description:         "Build and operate services.",
		Company:             "Acme",
		Requirements:        []string{"Go", "PostgreSQL"},
		Responsibilities:    []string{"Ship features"},
		HREmail:             owner,
		HRName:              "Recruiter",
		CompanyLogo:         "https://acme.example/logo.png",
	}
}

func seedJob(t *testing.T, f *fixture, owner string) *types.Job {
	t.Helper()
	job, err := f.jobService.Create(context.Background(), owner, newJobRequest(owner))
	require.NoError(t, err)
	return job
}

func seedApplication(t *testing.T, f *fixture, jobID, applicant string) *types.Application {
	t.Helper()
	app, err := f.appService.Submit(context.Background(), map[string]any{
		"jobId":     jobID,
		"applicant": applicant,
		"linkedIn":  "https://linkedin.com/in/someone",
	})
	require.NoError(t, err)
	return app
}
