package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/innohassle/printhub/internal/artifact"
	"github.com/innohassle/printhub/internal/auth"
	"github.com/innohassle/printhub/internal/config"
	"github.com/innohassle/printhub/internal/ownerid"
	"github.com/innohassle/printhub/internal/printerstatus"
	"github.com/innohassle/printhub/internal/printjob"
	"github.com/innohassle/printhub/internal/registry"
	"github.com/innohassle/printhub/internal/scanbackend"
	"github.com/innohassle/printhub/internal/scanjob"
	"github.com/innohassle/printhub/internal/workerpool"
	"github.com/innohassle/printhub/ipp"
)

const testBotSecret = "shhh"

// fakeResolver is the IdentityResolver used under the bot-token path so
// tests never hit a real identity provider.
type fakeResolver struct{}

func (fakeResolver) ResolveTelegramID(_ context.Context, telegramID string) (ownerid.ID, error) {
	return ownerid.ID("owner-" + telegramID), nil
}

func botAuthHeader() string {
	return "Bearer 42:" + testBotSecret
}

// fakePrintBackend implements printjob.Backend.
type fakePrintBackend struct {
	nextJobID int
	state     ipp.JobState
	cancelled bool
}

func (f *fakePrintBackend) Submit(_ context.Context, _, _ string, file io.Reader, _ ipp.PrintOptions) (int, error) {
	io.Copy(io.Discard, file)
	f.nextJobID++
	f.state = ipp.JobStateCompleted
	return f.nextJobID, nil
}

func (f *fakePrintBackend) JobAttributes(_ context.Context, _ string, _ int) (ipp.JobAttributes, error) {
	return ipp.JobAttributes{JobState: f.state}, nil
}

func (f *fakePrintBackend) Cancel(_ context.Context, _ string, _ int) error {
	f.cancelled = true
	return nil
}

// fakeScanBackend implements scanjob.Backend.
type fakeScanBackend struct {
	documents [][]byte
	next      int
}

func (f *fakeScanBackend) Start(_ context.Context, _ scanbackend.Options) (string, error) {
	return "scanjob-1", nil
}

func (f *fakeScanBackend) NextDocument(_ context.Context, _ string) ([]byte, error) {
	doc := f.documents[f.next]
	f.next++
	return doc, nil
}

func (f *fakeScanBackend) Delete(_ context.Context, _ string) error { return nil }

type fakeDialer struct {
	backend scanjob.Backend
}

func (d fakeDialer) Dial(string) (scanjob.Backend, error) { return d.backend, nil }

type noopConverter struct{}

func (noopConverter) Convert(_ context.Context, _, _ string) error { return nil }

// minimalPDF is a tiny well-formed single-page PDF, good enough for
// pdfcpu's page-count reader.
func minimalPDF(t *testing.T) []byte {
	t.Helper()
	return []byte("%PDF-1.4\n1 0 obj<</Type/Catalog/Pages 2 0 R>>endobj\n" +
		"2 0 obj<</Type/Pages/Kids[3 0 R]/Count 1>>endobj\n" +
		"3 0 obj<</Type/Page/Parent 2 0 R/MediaBox[0 0 612 792]>>endobj\n" +
		"trailer<</Root 1 0 R>>\n%%EOF")
}

func newTestServer(t *testing.T, printBackend *fakePrintBackend, dialer ScannerDialer) *Server {
	t.Helper()

	settings := &config.Settings{
		Printers: []config.Printer{{DisplayName: "Office", CupsName: "office", IPPEndpoint: "ipp://printer/office"}},
		Scanners: []config.Scanner{{DisplayName: "Flatbed", Name: "flatbed", ESCLBaseURL: "https://scanner.local"}},
	}
	reg := registry.New(settings)

	artifacts := artifact.New(t.TempDir())
	pool := workerpool.New(1)
	t.Cleanup(pool.Close)

	orch := printjob.New(artifacts, printBackend, noopConverter{}, pool, t.TempDir())
	status := printerstatus.New(fakeProber{}, reg)

	gate := auth.New("https://idp.example", testBotSecret, fakeResolver{})

	srv := New(gate, reg, status, artifacts, orch, printBackend, ".*", testLogger())
	if dialer != nil {
		srv.Scanners = dialer
	}
	return srv
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type fakeProber struct{}

func (fakeProber) ProbeReachable(context.Context, string) bool        { return true }
func (fakeProber) PaperPct(context.Context, string) (int, bool)       { return 80, true }

func TestGetPrintersRequiresAuth(t *testing.T) {
	srv := newTestServer(t, &fakePrintBackend{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/print/get_printers", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetPrintersListsConfigured(t *testing.T) {
	srv := newTestServer(t, &fakePrintBackend{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/print/get_printers", nil)
	req.Header.Set("Authorization", botAuthHeader())
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var out []printerView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out, 1)
	require.Equal(t, "office", out[0].CupsName)
}

func TestPrepareThenPrintThenJobStatus(t *testing.T) {
	backend := &fakePrintBackend{}
	srv := newTestServer(t, backend, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "doc.pdf")
	require.NoError(t, err)
	_, err = part.Write(minimalPDF(t))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	prepReq := httptest.NewRequest(http.MethodPost, "/print/prepare", &buf)
	prepReq.Header.Set("Authorization", botAuthHeader())
	prepReq.Header.Set("Content-Type", mw.FormDataContentType())
	prepW := httptest.NewRecorder()
	srv.Router().ServeHTTP(prepW, prepReq)
	require.Equal(t, http.StatusOK, prepW.Code)

	var prep prepareResponse
	require.NoError(t, json.Unmarshal(prepW.Body.Bytes(), &prep))
	require.Equal(t, 1, prep.Pages)
	require.NotEmpty(t, prep.Filename)

	body, _ := json.Marshal(printingOptions{Copies: 1, Sides: "one-sided"})
	printReq := httptest.NewRequest(http.MethodPost,
		"/print/print?filename="+prep.Filename+"&printer_cups_name=office", bytes.NewReader(body))
	printReq.Header.Set("Authorization", botAuthHeader())
	printW := httptest.NewRecorder()
	srv.Router().ServeHTTP(printW, printReq)
	require.Equal(t, http.StatusOK, printW.Code)

	var printed printResponse
	require.NoError(t, json.Unmarshal(printW.Body.Bytes(), &printed))
	require.Equal(t, 1, printed.JobID)

	statusReq := httptest.NewRequest(http.MethodGet, "/print/job_status?job_id=1", nil)
	statusReq.Header.Set("Authorization", botAuthHeader())
	statusW := httptest.NewRecorder()
	srv.Router().ServeHTTP(statusW, statusReq)
	require.Equal(t, http.StatusOK, statusW.Code)

	var attrs ipp.JobAttributes
	require.NoError(t, json.Unmarshal(statusW.Body.Bytes(), &attrs))
	require.Equal(t, ipp.JobStateCompleted, attrs.JobState)
}

func TestGetFileNotOwnedReturns404(t *testing.T) {
	srv := newTestServer(t, &fakePrintBackend{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/print/get_file?filename=nonexistent", nil)
	req.Header.Set("Authorization", botAuthHeader())
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestWaitAndMergeRoundTrip(t *testing.T) {
	scanBackend := &fakeScanBackend{documents: [][]byte{minimalPDFPage(t)}}
	srv := newTestServer(t, &fakePrintBackend{}, fakeDialer{backend: scanBackend})

	startReq := httptest.NewRequest(http.MethodPost, "/scan/manual/start_scan?scanner_name=flatbed",
		bytes.NewReader([]byte(`{"quality":300,"inputSource":"Platen"}`)))
	startReq.Header.Set("Authorization", botAuthHeader())
	startW := httptest.NewRecorder()
	srv.Router().ServeHTTP(startW, startReq)
	require.Equal(t, http.StatusOK, startW.Code)

	var started startScanResponse
	require.NoError(t, json.Unmarshal(startW.Body.Bytes(), &started))
	require.NotEmpty(t, started.ScanJobID)

	mergeReq := httptest.NewRequest(http.MethodPost,
		"/scan/manual/wait_and_merge?scanner_name=flatbed&job_id="+started.ScanJobID, nil)
	mergeReq.Header.Set("Authorization", botAuthHeader())
	mergeW := httptest.NewRecorder()
	srv.Router().ServeHTTP(mergeW, mergeReq)
	require.Equal(t, http.StatusOK, mergeW.Code)

	var merged mergeResponse
	require.NoError(t, json.Unmarshal(mergeW.Body.Bytes(), &merged))
	require.Equal(t, 1, merged.PageCount)
	require.NotEmpty(t, merged.Filename)
}

func minimalPDFPage(t *testing.T) []byte {
	t.Helper()
	return minimalPDF(t)
}
