package escl

import (
	"bytes"

	"github.com/innohassle/printhub/internal/xmldoc"
)

// ScannerStatus is the decoded form of the eSCL ScannerStatus document
// (spec §4.3's "Status() (diagnostic only)"): the jobs the device still
// remembers and the state it last reported for each.
type ScannerStatus struct {
	Jobs []JobInfo
}

// JobInfo is one entry of a ScannerStatus document's Jobs list.
type JobInfo struct {
	URI   string
	State JobState
}

// DecodeScannerStatus parses a raw scan:ScannerStatus document body.
func DecodeScannerStatus(body []byte) (ScannerStatus, error) {
	root, err := xmldoc.Decode(NsMap, bytes.NewReader(body))
	if err != nil {
		return ScannerStatus{}, err
	}

	var st ScannerStatus

	jobs := xmldoc.Lookup{Name: NsScan + ":Jobs"}
	root.Lookup(&jobs)
	if !jobs.Found {
		return st, nil
	}

	for _, jobElem := range jobs.Elem.Children {
		if jobElem.Name != NsScan+":JobInfo" {
			continue
		}

		uri := xmldoc.Lookup{Name: NsPWG + ":JobUri"}
		state := xmldoc.Lookup{Name: NsScan + ":JobState", Required: true}
		if missed := jobElem.Lookup(&uri, &state); missed != nil {
			return ScannerStatus{}, xmldoc.XMLErrWrap(jobElem, xmldoc.XMLErrMissed(missed.Name))
		}

		s, err := decodeJobState(state.Elem)
		if err != nil {
			return ScannerStatus{}, err
		}

		st.Jobs = append(st.Jobs, JobInfo{URI: uri.Elem.Text, State: s})
	}

	return st, nil
}
