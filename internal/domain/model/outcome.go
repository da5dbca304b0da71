package model

type outcomeKind uint8

const (
	outcomeNone outcomeKind = iota
	outcomeSucceeded
	outcomeFailed
)

// Outcome is the terminal result of a request: nothing yet, an evaluation, or
// a failure message. Exactly one of the two payloads can ever be present.
type Outcome struct {
	kind       outcomeKind
	evaluation Evaluation
	failure    string
}

func Succeeded(ev Evaluation) Outcome {
	return Outcome{kind: outcomeSucceeded, evaluation: ev}
}

func Failed(msg string) Outcome {
	if msg == "" {
		msg = "processing failed"
	}
	return Outcome{kind: outcomeFailed, failure: msg}
}

func (o Outcome) IsZero() bool { return o.kind == outcomeNone }

func (o Outcome) Evaluation() (Evaluation, bool) {
	return o.evaluation, o.kind == outcomeSucceeded
}

func (o Outcome) Failure() (string, bool) {
	return o.failure, o.kind == outcomeFailed
}

// Status is the terminal status this outcome commits.
func (o Outcome) Status() RequestStatus {
	switch o.kind {
	case outcomeSucceeded:
		return RequestStatusDone
	case outcomeFailed:
		return RequestStatusError
	default:
		return ""
	}
}
