package scanjob

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/innohassle/printhub/internal/apperr"
	"github.com/innohassle/printhub/internal/artifact"
	"github.com/innohassle/printhub/internal/ownerid"
	"github.com/innohassle/printhub/internal/pdfutil"
	"github.com/innohassle/printhub/internal/scanbackend"
)

// fakeBackend replays NextDocument results in order.
type fakeBackend struct {
	startErr   error
	documents  [][]byte
	deleteLog  []string
	nextCalled int
}

func (f *fakeBackend) Start(context.Context, scanbackend.Options) (string, error) {
	if f.startErr != nil {
		return "", f.startErr
	}
	return "job-1", nil
}

func (f *fakeBackend) NextDocument(context.Context, string) ([]byte, error) {
	d := f.documents[f.nextCalled]
	f.nextCalled++
	return d, nil
}

func (f *fakeBackend) Delete(_ context.Context, jobID string) error {
	f.deleteLog = append(f.deleteLog, jobID)
	return nil
}

func onePagePDF() []byte {
	return []byte("%PDF-1.4\n1 0 obj<</Type/Catalog/Pages 2 0 R>>endobj\n" +
		"2 0 obj<</Type/Pages/Kids[3 0 R]/Count 1>>endobj\n" +
		"3 0 obj<</Type/Page/Parent 2 0 R/MediaBox[0 0 612 792]>>endobj\n" +
		"trailer<</Root 1 0 R>>\n%%EOF")
}

func TestStartCycleSurfacesBusy(t *testing.T) {
	dir := t.TempDir()
	store := artifact.New(dir)

	backend := &fakeBackend{startErr: apperr.New(apperr.BackendBusy, errors.New("busy"))}
	o := New(store, backend)

	sess := &Session{Scanner: "scanner-1"}
	err := o.StartCycle(context.Background(), sess)
	require.Error(t, err)
	require.Equal(t, apperr.BackendBusy, apperr.KindOf(err))
	require.Empty(t, sess.JobIDInFlight, "no backend job id stored on Busy (spec S4)")
}

func TestFetchCycleMergesAndUpdatesPageCount(t *testing.T) {
	dir := t.TempDir()
	store := artifact.New(dir)
	owner := ownerid.ID("owner-a")

	backend := &fakeBackend{documents: [][]byte{onePagePDF(), onePagePDF(), onePagePDF()}}
	o := New(store, backend)

	sess := &Session{Scanner: "scanner-1", JobIDInFlight: "job-1"}

	for i := 0; i < 3; i++ {
		sess.JobIDInFlight = "job-1"
		err := o.FetchCycle(context.Background(), owner, sess)
		require.NoError(t, err)
		require.Empty(t, sess.JobIDInFlight, "cleared after Delete")
	}

	require.NotEmpty(t, sess.ArtifactHandle)
	require.Equal(t, 3, sess.PageCount)
	require.Equal(t, 3, len(backend.deleteLog))
}

func TestUndoReducesPageCount(t *testing.T) {
	dir := t.TempDir()
	store := artifact.New(dir)
	owner := ownerid.ID("owner-a")

	merged, err := pdfutil.Merge(onePagePDF(), onePagePDF())
	require.NoError(t, err)

	handle, err := store.Put(owner, ".pdf", bytes.NewReader(merged))
	require.NoError(t, err)

	o := New(store, &fakeBackend{})
	sess := &Session{ArtifactHandle: handle, PageCount: 2}

	err = o.Undo(owner, sess)
	require.NoError(t, err)
	require.NotEmpty(t, sess.ArtifactHandle, "handle survives undo, never deleted")
	require.Equal(t, 1, sess.PageCount)
}

func TestFinalizeDeletesArtifact(t *testing.T) {
	dir := t.TempDir()
	store := artifact.New(dir)
	owner := ownerid.ID("owner-a")

	handle, err := store.Put(owner, ".pdf", bytes.NewReader(onePagePDF()))
	require.NoError(t, err)

	o := New(store, &fakeBackend{})
	sess := &Session{ArtifactHandle: handle}

	require.NoError(t, o.Finalize(owner, sess))
	require.Empty(t, sess.ArtifactHandle)

	_, err = store.Path(owner, handle)
	require.Error(t, err)
}

func TestCancelIsIdempotentWithNoInFlightJob(t *testing.T) {
	dir := t.TempDir()
	store := artifact.New(dir)
	owner := ownerid.ID("owner-a")

	o := New(store, &fakeBackend{})
	sess := &Session{}

	require.NoError(t, o.Cancel(context.Background(), owner, sess))
}
