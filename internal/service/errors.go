package service

// ValidationError marks a producer payload rejected at the boundary. It is
// surfaced to the caller with the reason and the submission is never
// persisted or broadcast.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}
