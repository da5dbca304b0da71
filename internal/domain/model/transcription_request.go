package model

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"voice-analytics/internal/domain"

	"github.com/google/uuid"
)

const DefaultReviewLanguage = "auto"

// MaxFilenameLength matches the filename column width, counted in characters.
const MaxFilenameLength = 256

// TranscriptionRequest is one transcription-and-review job.
type TranscriptionRequest struct {
	ID             string
	Filename       string
	Language       string
	Transcript     *string
	Outcome        Outcome
	Status         RequestStatus
	CreatedBy      string
	OrganizationID string // empty when the creator has no organization
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewTranscriptionRequest builds a pending request owned by caller.
func NewTranscriptionRequest(filename, language string, caller Caller) (*TranscriptionRequest, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" || caller.UserID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if utf8.RuneCountInString(filename) > MaxFilenameLength {
		return nil, fmt.Errorf("%w: filename longer than %d characters", domain.ErrInvalidArgument, MaxFilenameLength)
	}
	language = strings.TrimSpace(language)
	if language == "" {
		language = DefaultReviewLanguage
	}
	now := time.Now()
	return &TranscriptionRequest{
		ID:             uuid.NewString(),
		Filename:       filename,
		Language:       language,
		Status:         RequestStatusPending,
		CreatedBy:      caller.UserID,
		OrganizationID: caller.OrganizationID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// AccessibleBy reports whether caller may read or delete the request: its
// creator, or the owner of the organization it was created in.
func (r *TranscriptionRequest) AccessibleBy(c Caller) bool {
	if r == nil || c.UserID == "" {
		return false
	}
	if r.CreatedBy == c.UserID {
		return true
	}
	return c.IsOrgOwner && r.OrganizationID != "" && r.OrganizationID == c.OrganizationID
}

// Consistent checks the outcome/status invariant for a loaded row.
func (r *TranscriptionRequest) Consistent() bool {
	switch r.Status {
	case RequestStatusPending, RequestStatusProcessing:
		return r.Outcome.IsZero()
	case RequestStatusDone, RequestStatusError:
		return r.Outcome.Status() == r.Status
	case RequestStatusDeleted:
		return true
	}
	return false
}
