package repository

import (
	"context"
	"time"

	"voice-analytics/internal/domain/model"
)

// ListFilter selects visible requests. Deleted rows are never returned.
type ListFilter struct {
	CreatedBy      string // exact creator; ignored when OrganizationID is set
	OrganizationID string // every request of the organization
	Limit          int
	Offset         int
}

// TranscriptionRequestRepository is the single source of truth for request state.
// Status changes are conditional updates so that the lifecycle edges hold even
// when two writers race on the same row.
type TranscriptionRequestRepository interface {
	Create(ctx context.Context, tx Tx, req *model.TranscriptionRequest) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.TranscriptionRequest, error)

	// ClaimPending moves a pending row to processing and returns it.
	// Returns domain.ErrNotFound when the row is gone or no longer pending.
	ClaimPending(ctx context.Context, tx Tx, id string) (*model.TranscriptionRequest, error)

	// SaveTranscript records the transcript of a processing row.
	SaveTranscript(ctx context.Context, tx Tx, id, transcript string) error

	// Finish commits the terminal outcome of a processing row.
	// Returns domain.ErrInvalidTransition when the row is not processing.
	Finish(ctx context.Context, tx Tx, id string, outcome model.Outcome) error

	// MarkDeleted soft-deletes the row from whatever status it is in.
	MarkDeleted(ctx context.Context, tx Tx, id string) error

	// Delete removes the row entirely. Only used to undo a submission that
	// could not be scheduled.
	Delete(ctx context.Context, tx Tx, id string) error

	List(ctx context.Context, tx Tx, f ListFilter) ([]*model.TranscriptionRequest, error)
	ListStale(ctx context.Context, tx Tx, status model.RequestStatus, updatedBefore time.Time, limit int) ([]*model.TranscriptionRequest, error)
}

// AudioStash keeps submitted audio around long enough for a lost job to be
// rescheduled. Get returns domain.ErrNotFound when nothing is stored.
type AudioStash interface {
	Put(ctx context.Context, requestID string, audio []byte) error
	Get(ctx context.Context, requestID string) ([]byte, error)
	Delete(ctx context.Context, requestID string) error
}
