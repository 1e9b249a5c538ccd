package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(rows ...BulkRow) *Session {
	return &Session{ID: "s1", Rows: rows}
}

func TestSnapshot_DedupesSKUsInOrder(t *testing.T) {
	s := newSession(NewBulkRow("B2", 1), NewBulkRow("A1", 1), NewBulkRow("B2", 3))
	snap := s.Snapshot()

	assert.Equal(t, []string{"B2", "A1"}, snap.SKUs)
	assert.Len(t, snap.Revisions, 3)
}

func TestApplyValidation_MatchesBySKU(t *testing.T) {
	s := newSession(NewBulkRow("ABC123", 5), NewBulkRow("DEF-456", 10), NewBulkRow("ABC123", 1))
	snap := s.Snapshot()

	applied := s.ApplyValidation(snap, []ValidationResult{
		{SKU: "ABC123", CatalogID: "cat-abc", Description: "Filter", Price: 10, Status: "ok", InStock: true},
	})

	assert.Equal(t, 3, applied)
	assert.Equal(t, RowStatusValid, s.Rows[0].Status())
	assert.Equal(t, RowStatusError, s.Rows[1].Status())
	assert.Equal(t, MsgValidationFailed, s.Rows[1].ErrorMessage())
	assert.Equal(t, RowStatusValid, s.Rows[2].Status())

	d, ok := s.Rows[2].Details()
	require.True(t, ok)
	assert.Equal(t, "cat-abc", d.CatalogID)
}

func TestApplyValidation_SkipsRowsChangedInFlight(t *testing.T) {
	s := newSession(NewBulkRow("A1", 1), NewBulkRow("B2", 1), NewBulkRow("C3", 1))
	snap := s.Snapshot()

	editedID := s.Rows[0].ID()
	s.Row(editedID).Edit(RowPatch{SKU: ptr("Z9")})
	require.True(t, s.DeleteRow(s.Rows[1].ID()))
	s.Rows = append(s.Rows, NewBulkRow("D4", 2))

	applied := s.ApplyValidation(snap, []ValidationResult{
		{SKU: "A1", Status: "ok", CatalogID: "a"},
		{SKU: "B2", Status: "ok", CatalogID: "b"},
		{SKU: "C3", Status: "warn", CatalogID: "c"},
	})

	assert.Equal(t, 1, applied)
	require.Len(t, s.Rows, 3)
	assert.Equal(t, RowStatusPending, s.Row(editedID).Status())
	assert.Equal(t, "Z9", s.Row(editedID).SKU())
	assert.Equal(t, RowStatusWarning, s.Rows[1].Status())
	assert.Equal(t, RowStatusPending, s.Rows[2].Status())
}

func TestApplyValidation_ReplacesPriorResults(t *testing.T) {
	s := newSession(NewBulkRow("A1", 1))
	s.ApplyValidation(s.Snapshot(), []ValidationResult{{SKU: "A1", Status: "ok", CatalogID: "a", Price: 3}})
	first := s.Rows[0]

	s.ApplyValidation(s.Snapshot(), []ValidationResult{{SKU: "A1", Status: "ok", CatalogID: "a", Price: 3}})
	assert.Equal(t, first, s.Rows[0])

	s.ApplyValidation(s.Snapshot(), nil)
	assert.Equal(t, RowStatusError, s.Rows[0].Status())
	_, ok := s.Rows[0].Details()
	assert.False(t, ok)
}

func TestReadiness(t *testing.T) {
	s := newSession(NewBulkRow("A", 1), NewBulkRow("B", 1), NewBulkRow("C", 1), NewBulkRow("D", 1))
	assert.Equal(t, ReadinessCounts{Total: 4, Pending: 4}, Readiness(s.Rows))

	s.ApplyValidation(s.Snapshot(), []ValidationResult{
		{SKU: "A", Status: "ok", CatalogID: "a"},
		{SKU: "B", Status: "warn", CatalogID: "b"},
		{SKU: "C", Status: "error"},
	})
	assert.Equal(t, ReadinessCounts{Total: 4, Valid: 1, Warning: 1, Error: 2, CanCommit: true}, Readiness(s.Rows))

	committable := s.CommittableRows()
	require.Len(t, committable, 2)
	assert.Equal(t, "A", committable[0].SKU())
	assert.Equal(t, "B", committable[1].SKU())
}

func TestReadiness_OnlyErrorsCannotCommit(t *testing.T) {
	s := newSession(NewBulkRow("A", 1))
	s.ApplyValidation(s.Snapshot(), nil)
	assert.False(t, Readiness(s.Rows).CanCommit)
	assert.Empty(t, s.CommittableRows())
}

func TestDeleteRow(t *testing.T) {
	s := newSession(NewBulkRow("A", 1), NewBulkRow("B", 1))
	id := s.Rows[0].ID()

	assert.True(t, s.DeleteRow(id))
	assert.False(t, s.DeleteRow(id))
	assert.Nil(t, s.Row(id))
	require.Len(t, s.Rows, 1)
	assert.Equal(t, "B", s.Rows[0].SKU())
}
