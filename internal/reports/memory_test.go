package reports

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/clinicalnlp/internal/validation"
)

func TestMemoryStore_CRUD(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	clock := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store.now = func() time.Time { return clock }

	first := &Report{PatientName: "John Doe", ReportText: "Patient reports dizziness."}
	require.NoError(t, store.Create(ctx, first))
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, clock, first.CreatedAt)

	second := &Report{PatientName: "Jane Roe", ReportText: "Follow-up visit."}
	require.NoError(t, store.Create(ctx, second))
	assert.Equal(t, int64(2), second.ID)

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "John Doe", all[0].PatientName)
	assert.Equal(t, "Jane Roe", all[1].PatientName)

	got, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, *first, *got)

	clock = clock.Add(time.Hour)
	updated, err := store.Update(ctx, 1, &Report{PatientName: "John Doe", ReportText: "Symptoms resolved."})
	require.NoError(t, err)
	assert.Equal(t, "Symptoms resolved.", updated.ReportText)
	assert.Equal(t, first.CreatedAt, updated.CreatedAt)
	assert.Equal(t, clock, updated.UpdatedAt)

	require.NoError(t, store.Delete(ctx, 1))
	_, err = store.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	all, err = store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestMemoryStore_NotFound(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Update(ctx, 42, &Report{PatientName: "x", ReportText: "y"})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.Delete(ctx, 42), ErrNotFound)

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	r := &Report{PatientName: "John Doe", ReportText: "note"}
	require.NoError(t, store.Create(ctx, r))
	r.ReportText = "mutated"

	got, err := store.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "note", got.ReportText)
}

func TestMemoryStore_ConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Create(ctx, &Report{PatientName: "p", ReportText: "t"})
		}()
	}
	wg.Wait()

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 50)
	for i, r := range all {
		assert.Equal(t, int64(i+1), r.ID)
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(&Report{PatientName: "John Doe", ReportText: "note"}))

	err := Validate(&Report{PatientName: " ", ReportText: strings.Repeat("a", MaxReportTextChars+1)})
	require.Error(t, err)

	var verrs validation.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 2)
	assert.Equal(t, "patientName", verrs[0].Field)
	assert.Equal(t, "reportText", verrs[1].Field)
}
