package server

import (
	"net/http"

	"github.com/jonathan/career-code/internal/server/middleware"
	"github.com/jonathan/career-code/internal/types"
)

// handleListApplications lists the caller's applications enriched with job details.
// Query: email (required, must be the caller), job_id (optional).
func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	views, err := s.applications.ListForApplicant(r.Context(),
		middleware.ClaimedEmail(r), query.Get("email"), query.Get("job_id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, views)
}

// handleListJobApplications lists the applications received by one of the caller's jobs
func (s *Server) handleListJobApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := s.applications.ListForJob(r.Context(), middleware.ClaimedEmail(r), r.PathValue("job_id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, apps)
}

// handleSubmitApplication stores a new application
func (s *Server) handleSubmitApplication(w http.ResponseWriter, r *http.Request) {
	var submission map[string]any
	if err := s.decodeJSON(w, r, &submission); err != nil {
		s.writeError(w, r, err)
		return
	}

	app, err := s.applications.Submit(r.Context(), submission)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, app)
}

// handleUpdateApplicationStatus changes an application's status
func (s *Server) handleUpdateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	var req types.UpdateStatusRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	app, err := s.applications.UpdateStatus(r.Context(), middleware.ClaimedEmail(r), r.PathValue("id"), &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, app)
}
