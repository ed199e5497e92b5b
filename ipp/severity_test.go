package ipp

import "testing"

func TestParseStateReason(t *testing.T) {
	cases := []struct {
		in       string
		reason   string
		severity Severity
	}{
		{"media-empty-error", "media-empty", SeverityError},
		{"media-needed-warning", "media-needed", SeverityWarning},
		{"job-printing-report", "job-printing", SeverityReport},
		{"cups-waiting-for-job-completed", "cups-waiting-for-job-completed", SeverityNone},
		{"none", "none", SeverityNone},
	}

	for _, c := range cases {
		got := ParseStateReason(c.in)
		if got.Reason != c.reason || got.Severity != c.severity {
			t.Errorf("ParseStateReason(%q) = %+v, want {%q %v}",
				c.in, got, c.reason, c.severity)
		}
	}
}

func TestHasSeverity(t *testing.T) {
	reasons := ParseStateReasons([]string{"media-empty-error", "toner-low-warning"})
	if !HasSeverity(reasons, SeverityError) {
		t.Errorf("expected an error-severity reason")
	}
	if HasSeverity(reasons, SeverityReport) {
		t.Errorf("did not expect a report-severity reason")
	}
}
