//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
)

// Application status values. Any status may move to any other.
const (
	ApplicationStatusPending   = "pending"
	ApplicationStatusInterview = "interview"
	ApplicationStatusAccepted  = "accepted"
	ApplicationStatusRejected  = "rejected"
)

// ApplicationStatuses is the canonical status set
var ApplicationStatuses = []string{
	ApplicationStatusPending,
	ApplicationStatusInterview,
	ApplicationStatusAccepted,
	ApplicationStatusRejected,
}

// Reserved application keys; everything else is a free-form submitted field
const (
	ApplicationFieldID        = "_id"
	ApplicationFieldJobID     = "jobId"
	ApplicationFieldApplicant = "applicant"
	ApplicationFieldStatus    = "status"
)

// Application is one candidate's submission against a job.
// Fields holds the submitted values outside the reserved keys.
type Application struct {
	ID        string
	JobID     string
	Applicant string
	Status    string
	Fields    map[string]any
}

func (a Application) flatten() map[string]any {
	out := make(map[string]any, len(a.Fields)+4)
	for k, v := range a.Fields {
		out[k] = v
	}
	out[ApplicationFieldID] = a.ID
	out[ApplicationFieldJobID] = a.JobID
	out[ApplicationFieldApplicant] = a.Applicant
	out[ApplicationFieldStatus] = a.Status
	return out
}

// MarshalJSON writes the application as a single flat object
func (a Application) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.flatten())
}

// ApplicationFromMap splits a flat document into reserved keys and extra fields
func ApplicationFromMap(m map[string]any) Application {
	app := Application{Fields: map[string]any{}}
	for k, v := range m {
		switch k {
		case ApplicationFieldID:
			app.ID, _ = v.(string)
		case ApplicationFieldJobID:
			app.JobID, _ = v.(string)
		case ApplicationFieldApplicant:
			app.Applicant, _ = v.(string)
		case ApplicationFieldStatus:
			app.Status, _ = v.(string)
		default:
			app.Fields[k] = v
		}
	}
	return app
}

// ApplicationView is an application enriched with the job it targets
type ApplicationView struct {
	Application
	Title       string
	Company     string
	Location    string
	CompanyLogo string
}

// MarshalJSON writes the view as a single flat object
func (v ApplicationView) MarshalJSON() ([]byte, error) {
	out := v.flatten()
	out["title"] = v.Title
	out["company"] = v.Company
	out["location"] = v.Location
	out["company_logo"] = v.CompanyLogo
	return json.Marshal(out)
}

// UpdateStatusRequest is the validated input for changing an application's status
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending interview accepted rejected"`
}

// Validate validates the UpdateStatusRequest using the validator.
func (r *UpdateStatusRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
