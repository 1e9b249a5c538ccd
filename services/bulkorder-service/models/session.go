package models

import (
	"time"

	"github.com/oemparts/storefront/services/common/sku"
)

// Session is one bulk-order editing session. A new paste replaces Rows;
// a successful commit or an explicit close deletes the session.
type Session struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id,omitempty"`
	Rows            []BulkRow  `json:"rows"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	LastValidatedAt *time.Time `json:"last_validated_at,omitempty"`
}

func (s *Session) rowIndex(rowID string) int {
	for i := range s.Rows {
		if s.Rows[i].ID() == rowID {
			return i
		}
	}
	return -1
}

// MaxSessionRows keeps every session's SKU list within one catalog
// validation call.
const MaxSessionRows = sku.MaxBatch

// Row returns a pointer into Rows, or nil.
func (s *Session) Row(rowID string) *BulkRow {
	if i := s.rowIndex(rowID); i >= 0 {
		return &s.Rows[i]
	}
	return nil
}

// DeleteRow removes the row and reports whether it existed.
func (s *Session) DeleteRow(rowID string) bool {
	i := s.rowIndex(rowID)
	if i < 0 {
		return false
	}
	s.Rows = append(s.Rows[:i], s.Rows[i+1:]...)
	return true
}

// CommittableRows returns the valid and warning rows in order.
func (s *Session) CommittableRows() []BulkRow {
	var out []BulkRow
	for _, r := range s.Rows {
		if r.IsCommittable() {
			out = append(out, r)
		}
	}
	return out
}

// ValidationSnapshot records which revision of each row was sent for
// validation, and the deduplicated SKU list that was sent.
type ValidationSnapshot struct {
	Revisions map[string]int
	SKUs      []string
}

// Snapshot captures the current rows for a validation round-trip. SKUs keep
// first-seen order.
func (s *Session) Snapshot() ValidationSnapshot {
	snap := ValidationSnapshot{Revisions: make(map[string]int, len(s.Rows))}
	seen := make(map[string]struct{}, len(s.Rows))
	for _, r := range s.Rows {
		snap.Revisions[r.ID()] = r.Revision()
		if _, dup := seen[r.SKU()]; dup {
			continue
		}
		seen[r.SKU()] = struct{}{}
		snap.SKUs = append(snap.SKUs, r.SKU())
	}
	return snap
}

// ApplyValidation merges results into the rows captured by snap. Rows deleted
// since the snapshot are simply absent; rows edited since then keep their
// pending state. Returns the number of rows updated.
func (s *Session) ApplyValidation(snap ValidationSnapshot, results []ValidationResult) int {
	bySKU := make(map[string]ValidationResult, len(results))
	for _, res := range results {
		if _, dup := bySKU[res.SKU]; !dup {
			bySKU[res.SKU] = res
		}
	}

	applied := 0
	for i := range s.Rows {
		row := &s.Rows[i]
		rev, ok := snap.Revisions[row.ID()]
		if !ok || rev != row.Revision() {
			continue
		}
		if res, ok := bySKU[row.SKU()]; ok {
			row.ApplyValidationResult(res)
		} else {
			row.MarkError(MsgValidationFailed)
		}
		applied++
	}
	return applied
}

// ReadinessCounts summarises row states and gates the add-to-cart action.
type ReadinessCounts struct {
	Total     int  `json:"total"`
	Pending   int  `json:"pending"`
	Valid     int  `json:"valid"`
	Warning   int  `json:"warning"`
	Error     int  `json:"error"`
	CanCommit bool `json:"can_commit"`
}

func Readiness(rows []BulkRow) ReadinessCounts {
	var c ReadinessCounts
	for _, r := range rows {
		c.Total++
		switch r.Status() {
		case RowStatusPending:
			c.Pending++
		case RowStatusValid:
			c.Valid++
		case RowStatusWarning:
			c.Warning++
		case RowStatusError:
			c.Error++
		}
	}
	c.CanCommit = c.Valid+c.Warning > 0
	return c
}
