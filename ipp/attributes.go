package ipp

// JobAttributes is the result of a Get-Job-Attributes request, normalized
// from the raw IPP response (spec §4.2).
type JobAttributes struct {
	JobState             JobState
	JobStateReasons      []string
	JobStateMessage      string
	PrinterStateReasons  []StateReason
	PrinterStateMessage  string
}
