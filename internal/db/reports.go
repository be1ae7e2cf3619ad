package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ajitpratap0/clinicalnlp/internal/reports"
)

const reportColumns = "id, patient_name, report_text, created_at, updated_at"

var _ reports.Store = (*ReportRepository)(nil)

// ReportRepository stores patient reports in PostgreSQL
type ReportRepository struct {
	pool PoolInterface
}

// NewReportRepository creates a repository over pool
func NewReportRepository(pool PoolInterface) *ReportRepository {
	return &ReportRepository{pool: pool}
}

// Create inserts r and fills its id and timestamps
func (r *ReportRepository) Create(ctx context.Context, report *reports.Report) error {
	query := `
		INSERT INTO patient_reports (patient_name, report_text)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query, report.PatientName, report.ReportText).
		Scan(&report.ID, &report.CreatedAt, &report.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

// List returns every report ordered by id
func (r *ReportRepository) List(ctx context.Context) ([]reports.Report, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+reportColumns+" FROM patient_reports ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	out := make([]reports.Report, 0)
	for rows.Next() {
		var rep reports.Report
		if err := rows.Scan(&rep.ID, &rep.PatientName, &rep.ReportText, &rep.CreatedAt, &rep.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		out = append(out, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}
	return out, nil
}

// Get returns one report
func (r *ReportRepository) Get(ctx context.Context, id int64) (*reports.Report, error) {
	var rep reports.Report
	err := r.pool.QueryRow(ctx, "SELECT "+reportColumns+" FROM patient_reports WHERE id = $1", id).
		Scan(&rep.ID, &rep.PatientName, &rep.ReportText, &rep.CreatedAt, &rep.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, reports.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report %d: %w", id, err)
	}
	return &rep, nil
}

// Update replaces the writable fields of a report
func (r *ReportRepository) Update(ctx context.Context, id int64, report *reports.Report) (*reports.Report, error) {
	query := `
		UPDATE patient_reports
		SET patient_name = $1, report_text = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING ` + reportColumns

	var rep reports.Report
	err := r.pool.QueryRow(ctx, query, report.PatientName, report.ReportText, id).
		Scan(&rep.ID, &rep.PatientName, &rep.ReportText, &rep.CreatedAt, &rep.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, reports.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update report %d: %w", id, err)
	}
	return &rep, nil
}

// Delete removes a report
func (r *ReportRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM patient_reports WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete report %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return reports.ErrNotFound
	}
	return nil
}
