// Package reports stores patient reports that clinicians feed to the NLP tasks.
package reports

import (
	"context"
	"errors"
	"time"

	"github.com/ajitpratap0/clinicalnlp/internal/validation"
)

const (
	MaxPatientNameChars = 255
	MaxReportTextChars  = 5000
)

// ErrNotFound is returned when no report has the requested id
var ErrNotFound = errors.New("report not found")

// Report is a stored clinical note
type Report struct {
	ID          int64     `json:"id"`
	PatientName string    `json:"patientName"`
	ReportText  string    `json:"reportText"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Store persists reports
type Store interface {
	Create(ctx context.Context, r *Report) error
	List(ctx context.Context) ([]Report, error)
	Get(ctx context.Context, id int64) (*Report, error)
	Update(ctx context.Context, id int64, r *Report) (*Report, error)
	Delete(ctx context.Context, id int64) error
}

// Validate checks the writable fields of a report
func Validate(r *Report) error {
	v := validation.NewValidator()
	v.Required("patientName", r.PatientName)
	v.MaxLength("patientName", r.PatientName, MaxPatientNameChars)
	v.Required("reportText", r.ReportText)
	v.MaxLength("reportText", r.ReportText, MaxReportTextChars)
	return v.Err()
}
