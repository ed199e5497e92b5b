package ipp

// JobState is the print job's observable state, normalized from the raw
// IPP job-state integer (RFC 8011 §5.3.7) into the enum the rest of this
// service speaks.
type JobState int

// Known job states (spec §3).
const (
	JobStateUnknown JobState = iota
	JobStatePending
	JobStatePendingHeld
	JobStateProcessing
	JobStateProcessingStopped
	JobStateCanceled
	JobStateAborted
	JobStateCompleted
)

// ipp job-state integer values, per RFC 8011.
const (
	ippJobStatePending           = 3
	ippJobStatePendingHeld       = 4
	ippJobStateProcessing        = 5
	ippJobStateProcessingStopped = 6
	ippJobStateCanceled          = 7
	ippJobStateAborted           = 8
	ippJobStateCompleted         = 9
)

// DecodeJobState maps a raw IPP job-state integer onto JobState.
func DecodeJobState(raw int) JobState {
	switch raw {
	case ippJobStatePending:
		return JobStatePending
	case ippJobStatePendingHeld:
		return JobStatePendingHeld
	case ippJobStateProcessing:
		return JobStateProcessing
	case ippJobStateProcessingStopped:
		return JobStateProcessingStopped
	case ippJobStateCanceled:
		return JobStateCanceled
	case ippJobStateAborted:
		return JobStateAborted
	case ippJobStateCompleted:
		return JobStateCompleted
	}
	return JobStateUnknown
}

func (s JobState) String() string {
	switch s {
	case JobStatePending:
		return "pending"
	case JobStatePendingHeld:
		return "pendingHeld"
	case JobStateProcessing:
		return "processing"
	case JobStateProcessingStopped:
		return "processingStopped"
	case JobStateCanceled:
		return "canceled"
	case JobStateAborted:
		return "aborted"
	case JobStateCompleted:
		return "completed"
	}
	return "unknown"
}

// Terminal reports whether the state is one the poll loop should stop on.
func (s JobState) Terminal() bool {
	switch s {
	case JobStateCanceled, JobStateAborted, JobStateCompleted:
		return true
	}
	return false
}
