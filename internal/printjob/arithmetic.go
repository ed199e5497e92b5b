package printjob

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/innohassle/printhub/internal/apperr"
	"github.com/innohassle/printhub/ipp"
)

// CountPapersToPrint implements §4.5.1's papers-to-print arithmetic.
//
// Page selection runs against the source document's page numbers first;
// numberUp layout is then applied to the selected page count to get the
// sheet count before duplexing and copies. (This resolves the spec's open
// question on page-range/numberUp ordering in favor of the literal
// invariant values in §8 Testable Property 2, which only hold under this
// order — applying numberUp before selection does not reproduce them.)
func CountPapersToPrint(pages int, pageRanges string, numberUp int, sides ipp.Sides, copies int) (int, error) {
	if numberUp <= 0 {
		return 0, apperr.New(apperr.InvalidArgument, fmt.Errorf("printjob: numberUp must be positive, got %d", numberUp))
	}
	if pages < 0 {
		return 0, apperr.New(apperr.InvalidArgument, fmt.Errorf("printjob: pages must be non-negative, got %d", pages))
	}

	selected := pages
	if pageRanges != "" {
		var err error
		selected, err = selectedPageCount(pages, pageRanges)
		if err != nil {
			return 0, err
		}
	}

	afterLayout := ceilDiv(selected, numberUp)

	perSheet := 1
	if sides == ipp.TwoSidedLongEdge {
		perSheet = 2
	}
	sheets := ceilDiv(afterLayout, perSheet)

	if copies <= 0 {
		copies = 1
	}

	return sheets * copies, nil
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

// selectedPageCount sums the pages each range contributes, clamped to
// [1, pages]; a > b ranges and fully out-of-bounds ranges contribute 0
// (§4.5.1 step 3, §8 Testable Property 3's "out-of-bounds single pages
// contribute 0").
func selectedPageCount(pages int, pageRanges string) (int, error) {
	total := 0
	for _, component := range strings.Split(pageRanges, ",") {
		a, b, err := parseRange(component)
		if err != nil {
			return 0, err
		}
		if a > b {
			continue
		}
		if a < 1 {
			a = 1
		}
		if b > pages {
			b = pages
		}
		if a > b {
			continue
		}
		total += b - a + 1
	}
	return total, nil
}

func parseRange(component string) (a, b int, err error) {
	component = strings.TrimSpace(component)
	parts := strings.Split(component, "-")
	switch len(parts) {
	case 1:
		n, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, 0, apperr.New(apperr.InvalidArgument, fmt.Errorf("printjob: bad page range %q: %w", component, err))
		}
		return n, n, nil
	case 2:
		a, errA := strconv.Atoi(parts[0])
		b, errB := strconv.Atoi(parts[1])
		if errA != nil || errB != nil {
			return 0, 0, apperr.New(apperr.InvalidArgument, fmt.Errorf("printjob: bad page range %q", component))
		}
		return a, b, nil
	default:
		return 0, 0, apperr.New(apperr.InvalidArgument, fmt.Errorf("printjob: ambiguous page range %q", component))
	}
}

// NormalizePageRanges implements §4.5.2's page-range normalization.
// It returns the normalized string and whether it differs from input —
// callers surface a differing result as a suggestion, not an applied value.
func NormalizePageRanges(input string) (normalized string, changed bool, err error) {
	var components []string
	for _, raw := range strings.Split(input, ",") {
		norm, err := normalizeComponent(raw)
		if err != nil {
			return "", false, err
		}
		if norm == "" {
			continue
		}
		components = append(components, norm)
	}

	if len(components) == 0 {
		return "", false, apperr.New(apperr.InvalidArgument, fmt.Errorf("printjob: page range %q is empty after normalization", input))
	}

	result := strings.Join(components, ",")
	return result, result != input, nil
}

func normalizeComponent(raw string) (string, error) {
	var stripped strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '-' {
			stripped.WriteRune(r)
		}
	}

	s := collapseDashes(stripped.String())
	s = strings.Trim(s, "-")
	if s == "" {
		return "", nil
	}

	segs := strings.Split(s, "-")
	switch len(segs) {
	case 1:
		if _, err := strconv.Atoi(segs[0]); err != nil {
			return "", nil
		}
		return segs[0], nil
	case 2:
		a, errA := strconv.Atoi(segs[0])
		b, errB := strconv.Atoi(segs[1])
		if errA != nil || errB != nil {
			return "", apperr.New(apperr.InvalidArgument, fmt.Errorf("printjob: bad page range component %q", raw))
		}
		if a > b {
			a, b = b, a
		}
		return fmt.Sprintf("%d-%d", a, b), nil
	default:
		// Three or more dash-separated numbers (e.g. "1-2-3") are
		// ambiguous, not silently collapsed.
		return "", apperr.New(apperr.InvalidArgument, fmt.Errorf("printjob: ambiguous page range component %q", raw))
	}
}

func collapseDashes(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range s {
		if r == '-' {
			if prevDash {
				continue
			}
			prevDash = true
		} else {
			prevDash = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
