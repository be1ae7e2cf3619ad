package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/clinicalnlp/internal/reports"
)

var reportCols = []string{"id", "patient_name", "report_text", "created_at", "updated_at"}

func TestReportRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("INSERT INTO patient_reports").
		WithArgs("John Doe", "Patient reports dizziness.").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(7), now, now))

	repo := NewReportRepository(mock)
	report := &reports.Report{PatientName: "John Doe", ReportText: "Patient reports dizziness."}
	require.NoError(t, repo.Create(context.Background(), report))

	assert.Equal(t, int64(7), report.ID)
	assert.Equal(t, now, report.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepository_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	rows := pgxmock.NewRows(reportCols).
		AddRow(int64(1), "John Doe", "first", now, now).
		AddRow(int64(2), "Jane Roe", "second", now, now)
	mock.ExpectQuery("FROM patient_reports ORDER BY id").WillReturnRows(rows)

	repo := NewReportRepository(mock)
	got, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Jane Roe", got[1].PatientName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepository_ListEmpty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("FROM patient_reports ORDER BY id").WillReturnRows(pgxmock.NewRows(reportCols))

	got, err := NewReportRepository(mock).List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestReportRepository_Get(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("FROM patient_reports WHERE id").
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows(reportCols).AddRow(int64(3), "John Doe", "note", now, now))

	got, err := NewReportRepository(mock).Get(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "note", got.ReportText)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepository_GetNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("FROM patient_reports WHERE id").
		WithArgs(int64(99)).
		WillReturnError(pgx.ErrNoRows)

	_, err = NewReportRepository(mock).Get(context.Background(), 99)
	assert.ErrorIs(t, err, reports.ErrNotFound)
}

func TestReportRepository_Update(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	created := time.Now().UTC().Add(-time.Hour)
	updated := time.Now().UTC()
	mock.ExpectQuery("UPDATE patient_reports").
		WithArgs("John Doe", "Symptoms resolved.", int64(1)).
		WillReturnRows(pgxmock.NewRows(reportCols).AddRow(int64(1), "John Doe", "Symptoms resolved.", created, updated))

	got, err := NewReportRepository(mock).Update(context.Background(), 1, &reports.Report{
		PatientName: "John Doe",
		ReportText:  "Symptoms resolved.",
	})
	require.NoError(t, err)
	assert.Equal(t, created, got.CreatedAt)
	assert.Equal(t, updated, got.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepository_UpdateNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("UPDATE patient_reports").
		WithArgs("x", "y", int64(5)).
		WillReturnError(pgx.ErrNoRows)

	_, err = NewReportRepository(mock).Update(context.Background(), 5, &reports.Report{PatientName: "x", ReportText: "y"})
	assert.ErrorIs(t, err, reports.ErrNotFound)
}

func TestReportRepository_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM patient_reports").
		WithArgs(int64(1)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM patient_reports").
		WithArgs(int64(2)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	repo := NewReportRepository(mock)
	require.NoError(t, repo.Delete(context.Background(), 1))
	assert.ErrorIs(t, repo.Delete(context.Background(), 2), reports.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepository_WrapsDriverErrors(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	boom := errors.New("connection reset")
	mock.ExpectQuery("FROM patient_reports ORDER BY id").WillReturnError(boom)

	_, err = NewReportRepository(mock).List(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failed to list reports")
}
