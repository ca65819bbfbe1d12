package server

import (
	"net/http"

	"github.com/jonathan/career-code/internal/server/middleware"
	"github.com/jonathan/career-code/internal/types"
)

// handleListJobs lists every job, or the jobs of one recruiter when ?email= is
// given. Both forms return the public projection only.
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	var (
		jobs []types.JobSummary
		err  error
	)
	if owner := r.URL.Query().Get("email"); owner != "" {
		jobs, err = s.jobs.ListPublicByOwner(r.Context(), owner)
	} else {
		jobs, err = s.jobs.ListPublic(r.Context())
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, jobs)
}

// handleListOwnerJobs lists the caller's own jobs with application counts
func (s *Server) handleListOwnerJobs(w http.ResponseWriter, r *http.Request) {
	claimed := middleware.ClaimedEmail(r)
	requested := r.URL.Query().Get("email")

	jobs, err := s.jobs.ListForOwner(r.Context(), claimed, requested)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, jobs)
}

// handleGetJob retrieves a job by its ID
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobs.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, job)
}

// handleCreateJob posts a new job
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req types.CreateJobRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	job, err := s.jobs.Create(r.Context(), middleware.ClaimedEmail(r), &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, job)
}
