package printjob

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/innohassle/printhub/internal/artifact"
	"github.com/innohassle/printhub/internal/ownerid"
	"github.com/innohassle/printhub/ipp"
)

// TestScenarioS1HappyPrint stores a ready PDF artifact and exercises the
// dispatch/poll cycle against the same numbers as the happy-print scenario: a 3-page document,
// copies=2, one-sided, numberUp=1, expecting 6 papers and a clean completion.
func TestScenarioS1HappyPrint(t *testing.T) {
	papers, err := CountPapersToPrint(3, "", 1, ipp.OneSided, 2)
	require.NoError(t, err)
	require.Equal(t, 6, papers)

	dir := t.TempDir()
	store := artifact.New(dir)
	owner := ownerid.ID("owner-a")

	handle, err := store.Put(owner, ".pdf", strings.NewReader(string(minimalPDF(t))))
	require.NoError(t, err)

	backend := &fakeBackend{
		jobID:  1,
		states: []ipp.JobState{ipp.JobStatePending, ipp.JobStateProcessing, ipp.JobStateCompleted},
	}
	o := New(store, backend, nil, nil, dir)

	jobID, err := o.Dispatch(context.Background(), owner, handle, "ipp://printer/p1", "doc.pdf", ipp.PrintOptions{
		Copies: 2, Sides: ipp.OneSided, NumberUp: 1,
	})
	require.NoError(t, err)

	outcome := o.Poll(context.Background(), "ipp://printer/p1", jobID, papers, func(ipp.JobAttributes) {}, nil)
	require.Equal(t, ipp.JobStateCompleted, outcome.State)
	require.False(t, outcome.Cancelled)
	require.False(t, outcome.TimedOut)
}

// TestScenarioS2Layout checks the layout scenario's literal numbers: an
// 8-page document, numberUp=4, one-sided, one copy, no page ranges, yields
// 2 papers and dispatches number-up=4 with page ranges left untouched.
func TestScenarioS2Layout(t *testing.T) {
	papers, err := CountPapersToPrint(8, "", 4, ipp.OneSided, 1)
	require.NoError(t, err)
	require.Equal(t, 2, papers)

	options := ipp.PrintOptions{Copies: 1, Sides: ipp.OneSided, NumberUp: 4}
	require.Equal(t, "", options.PageRanges)
	require.Equal(t, 4, options.NumberUp)

	dict := options.ToCupsOptionDict()
	require.Equal(t, "4", dict["number-up"])
	require.NotContains(t, dict, "page-ranges")
}

// TestScenarioS3CancelMidPrint mirrors S1 but the cancel signal is already
// closed when the poll loop starts: Cancel must reach the backend and the final
// outcome must report Cancelled, not a terminal job state race.
func TestScenarioS3CancelMidPrint(t *testing.T) {
	dir := t.TempDir()
	store := artifact.New(dir)
	owner := ownerid.ID("owner-a")

	handle, err := store.Put(owner, ".pdf", strings.NewReader(string(minimalPDF(t))))
	require.NoError(t, err)

	states := make([]ipp.JobState, 0, 1000)
	for i := 0; i < 1000; i++ {
		states = append(states, ipp.JobStateProcessing)
	}
	backend := &fakeBackend{jobID: 2, states: states}
	o := New(store, backend, nil, nil, dir)

	jobID, err := o.Dispatch(context.Background(), owner, handle, "ipp://printer/p1", "doc.pdf", ipp.PrintOptions{
		Copies: 2, Sides: ipp.OneSided, NumberUp: 1,
	})
	require.NoError(t, err)

	cancel := make(chan struct{})
	close(cancel) // user already pressed cancel before the first tick

	outcome := o.Poll(context.Background(), "ipp://printer/p1", jobID, 6, func(ipp.JobAttributes) {}, cancel)
	require.True(t, outcome.Cancelled)
	require.Equal(t, 1, backend.cancelCalls)
}
