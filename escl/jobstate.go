package escl

import "github.com/innohassle/printhub/internal/xmldoc"

// JobState is an eSCL scan job's lifecycle state, as reported in a
// ScannerStatus document's scan:JobState element (spec §4.3's Status()
// diagnostic call, decoded in status.go's DecodeScannerStatus).
//
// This is a distinct vocabulary from ipp.JobState (spec §4.5's print job
// states): the print side adds pendingHeld/processingStopped, which have
// no eSCL equivalent, and eSCL never reports them.
type JobState int

// Known scan job states.
const (
	UnknownJobState JobState = iota
	Canceled                 // job was canceled by user
	Aborted                  // job was aborted due to fatal error
	Completed                // job finished successfully
	Pending                  // job was initiated
	Processing               // job is in progress
)

// decodeJobState decodes a JobState out of a scan:JobState element's text.
func decodeJobState(root xmldoc.Element) (JobState, error) {
	return decodeEnum(root, DecodeJobState)
}

// String returns the wire representation of state.
func (state JobState) String() string {
	switch state {
	case Canceled:
		return "Canceled"
	case Aborted:
		return "Aborted"
	case Completed:
		return "Completed"
	case Pending:
		return "Pending"
	case Processing:
		return "Processing"
	}
	return "Unknown"
}

// DecodeJobState parses a scan:JobState element's text form.
func DecodeJobState(s string) JobState {
	switch s {
	case "Canceled":
		return Canceled
	case "Aborted":
		return Aborted
	case "Completed":
		return Completed
	case "Pending":
		return Pending
	case "Processing":
		return Processing
	}
	return UnknownJobState
}
