package model

type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "pending"
	RequestStatusProcessing RequestStatus = "processing"
	RequestStatusDone       RequestStatus = "done"
	RequestStatusError      RequestStatus = "error"
	RequestStatusDeleted    RequestStatus = "deleted"
)

// Valid reports whether s is one of the five known statuses.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusProcessing, RequestStatusDone, RequestStatusError, RequestStatusDeleted:
		return true
	}
	return false
}

// Terminal reports whether the pipeline is finished with the request.
func (s RequestStatus) Terminal() bool {
	return s == RequestStatusDone || s == RequestStatusError
}

// CanTransition enforces the lifecycle edges. Soft delete is reachable from
// anywhere; the pipeline only moves forward and never leaves a terminal state.
func CanTransition(from, to RequestStatus) bool {
	if to == RequestStatusDeleted {
		return from.Valid()
	}
	switch from {
	case RequestStatusPending:
		return to == RequestStatusProcessing
	case RequestStatusProcessing:
		return to == RequestStatusDone || to == RequestStatusError
	default:
		return false
	}
}
