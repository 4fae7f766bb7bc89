package models

import "strings"

// MUpdateResult is returned by every handler invocation and by the orchestrator.
// A failed result always carries a non-empty Message.
type MUpdateResult struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	Count         int    `json:"count"`
	InsertedCount *int   `json:"inserted_count,omitempty"`
	UpdatedCount  *int   `json:"updated_count,omitempty"`
	FailedCount   *int   `json:"failed_count,omitempty"` // Skipped batch sub-requests
	Data          any    `json:"data,omitempty"`
}

// -----------------------------------------------------------------------------

// Success builds a successful result.
func Success(message string, count int) MUpdateResult {
	return MUpdateResult{Success: true, Message: message, Count: count}
}

// -----------------------------------------------------------------------------

// Failure builds a failed result, substituting a generic message when none is given.
func Failure(message string) MUpdateResult {
	if strings.TrimSpace(message) == "" {
		message = "update failed"
	}
	return MUpdateResult{Success: false, Message: message}
}

// -----------------------------------------------------------------------------

// WithWrites attaches inserted/updated counts.
func (r MUpdateResult) WithWrites(s MUpsertSummary) MUpdateResult {
	inserted, updated := s.Inserted, s.Updated
	r.InsertedCount = &inserted
	r.UpdatedCount = &updated
	return r
}

// -----------------------------------------------------------------------------

// WithFailed attaches the number of skipped batch sub-requests.
func (r MUpdateResult) WithFailed(n int) MUpdateResult {
	r.FailedCount = &n
	return r
}

// -----------------------------------------------------------------------------

// Normalize enforces the non-empty message invariant on failed results.
func (r MUpdateResult) Normalize() MUpdateResult {
	if !r.Success && strings.TrimSpace(r.Message) == "" {
		r.Message = "update failed"
	}
	return r
}
