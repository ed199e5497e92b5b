package printjob

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/innohassle/printhub/internal/artifact"
	"github.com/innohassle/printhub/internal/converter"
	"github.com/innohassle/printhub/internal/ownerid"
	"github.com/innohassle/printhub/internal/workerpool"
	"github.com/innohassle/printhub/ipp"
)

// fakeBackend implements printjob.Backend for poll-loop tests.
type fakeBackend struct {
	jobID       int
	states      []ipp.JobState
	cancelCalls int
}

func (f *fakeBackend) Submit(_ context.Context, _, _ string, _ io.Reader, _ ipp.PrintOptions) (int, error) {
	return f.jobID, nil
}

func (f *fakeBackend) JobAttributes(_ context.Context, _ string, _ int) (ipp.JobAttributes, error) {
	if len(f.states) == 0 {
		return ipp.JobAttributes{JobState: ipp.JobStateCompleted}, nil
	}
	s := f.states[0]
	f.states = f.states[1:]
	return ipp.JobAttributes{JobState: s}, nil
}

func (f *fakeBackend) Cancel(_ context.Context, _ string, _ int) error {
	f.cancelCalls++
	return nil
}

func minimalPDF(t *testing.T) []byte {
	t.Helper()
	// A syntactically minimal single-page PDF, enough for pdfcpu to parse.
	return []byte("%PDF-1.4\n1 0 obj<</Type/Catalog/Pages 2 0 R>>endobj\n" +
		"2 0 obj<</Type/Pages/Kids[3 0 R]/Count 1>>endobj\n" +
		"3 0 obj<</Type/Page/Parent 2 0 R/MediaBox[0 0 612 792]>>endobj\n" +
		"trailer<</Root 1 0 R>>\n%%EOF")
}

func TestPrepareStoresVerbatimPDF(t *testing.T) {
	dir := t.TempDir()
	store := artifact.New(dir)

	o := New(store, nil, nil, nil, dir)

	owner := ownerid.ID("owner-a")
	pdf := minimalPDF(t)

	res, err := o.Prepare(context.Background(), owner, "doc.pdf", strings.NewReader(string(pdf)))
	require.NoError(t, err)
	require.NotEmpty(t, res.FileHandle)
	require.GreaterOrEqual(t, res.Pages, 0)
}

func TestPrepareRejectsUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	store := artifact.New(dir)

	o := New(store, nil, nil, nil, dir)

	_, err := o.Prepare(context.Background(), ownerid.ID("owner-a"), "doc.exe", strings.NewReader("binary"))
	require.Error(t, err)
}

func TestPrepareRejectsEmptyFile(t *testing.T) {
	dir := t.TempDir()
	store := artifact.New(dir)

	o := New(store, nil, nil, nil, dir)

	_, err := o.Prepare(context.Background(), ownerid.ID("owner-a"), "doc.pdf", strings.NewReader(""))
	require.Error(t, err)
}

type stubConverter struct {
	pdf []byte
}

func (s stubConverter) Convert(_ context.Context, _, outPath string) error {
	return os.WriteFile(outPath, s.pdf, 0o600)
}

var _ converter.Converter = stubConverter{}

func TestConvertDispatchesToConverter(t *testing.T) {
	dir := t.TempDir()
	store := artifact.New(dir)

	pool := workerpool.New(2)
	defer pool.Close()

	o := New(store, nil, stubConverter{pdf: minimalPDF(t)}, pool, dir)

	res, err := o.Prepare(context.Background(), ownerid.ID("owner-a"), "doc.txt", strings.NewReader("hello world"))
	require.NoError(t, err)
	require.NotEmpty(t, res.FileHandle)
}

func TestPollReachesTerminalState(t *testing.T) {
	dir := t.TempDir()
	store := artifact.New(dir)

	backend := &fakeBackend{
		jobID:  42,
		states: []ipp.JobState{ipp.JobStatePending, ipp.JobStateProcessing, ipp.JobStateCompleted},
	}

	o := New(store, backend, nil, nil, dir)

	var updates []ipp.JobAttributes
	outcome := o.Poll(context.Background(), "ipp://printer", 42, 1, func(a ipp.JobAttributes) {
		updates = append(updates, a)
	}, nil)

	require.Equal(t, ipp.JobStateCompleted, outcome.State)
	require.False(t, outcome.Cancelled)
	require.False(t, outcome.TimedOut)
	require.NotEmpty(t, updates)
}

func TestPollHonorsCancel(t *testing.T) {
	dir := t.TempDir()
	store := artifact.New(dir)

	states := make([]ipp.JobState, 0, 1000)
	for i := 0; i < 1000; i++ {
		states = append(states, ipp.JobStateProcessing)
	}
	backend := &fakeBackend{jobID: 7, states: states}

	o := New(store, backend, nil, nil, dir)

	cancel := make(chan struct{})
	go func() {
		time.Sleep(5 * time.Millisecond)
		close(cancel)
	}()

	outcome := o.Poll(context.Background(), "ipp://printer", 7, 1, func(ipp.JobAttributes) {}, cancel)
	require.True(t, outcome.Cancelled)
	require.Equal(t, 1, backend.cancelCalls)
}

func TestDispatchConsumesArtifactRegardlessOfOutcome(t *testing.T) {
	dir := t.TempDir()
	store := artifact.New(dir)
	owner := ownerid.ID("owner-a")

	handle, err := store.Put(owner, ".pdf", strings.NewReader("fake pdf bytes"))
	require.NoError(t, err)

	backend := &fakeBackend{jobID: 99}
	o := New(store, backend, nil, nil, dir)

	jobID, err := o.Dispatch(context.Background(), owner, handle, "ipp://printer", "doc.pdf", ipp.PrintOptions{})
	require.NoError(t, err)
	require.Equal(t, 99, jobID)

	_, err = store.Path(owner, handle)
	require.Error(t, err, "artifact must be consumed after dispatch")
}
