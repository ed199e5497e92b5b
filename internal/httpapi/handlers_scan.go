package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/innohassle/printhub/internal/apperr"
	"github.com/innohassle/printhub/internal/registry"
	"github.com/innohassle/printhub/internal/scanbackend"
	"github.com/innohassle/printhub/internal/scanjob"
)

type scannerView struct {
	DisplayName string `json:"display_name"`
	Name        string `json:"name"`
}

func toScannerView(sc registry.Scanner) scannerView {
	return scannerView{DisplayName: sc.DisplayName, Name: sc.Name}
}

func (s *Server) handleGetScanners(w http.ResponseWriter, r *http.Request) error {
	scanners := s.Registry.Scanners()
	out := make([]scannerView, len(scanners))
	for i, sc := range scanners {
		out[i] = toScannerView(sc)
	}
	writeJSON(w, http.StatusOK, out)
	return nil
}

// scanningOptions is the request body for start_scan, mirroring spec §3's
// ScanOptions in JSON form.
type scanningOptions struct {
	Sides       bool   `json:"sides"`
	Quality     int    `json:"quality"`
	InputSource string `json:"inputSource"`
	Crop        bool   `json:"crop"`
}

func (so scanningOptions) toBackend() scanbackend.Options {
	src := scanbackend.Platen
	if so.InputSource == string(scanbackend.Adf) {
		src = scanbackend.Adf
	}
	return scanbackend.Options{
		Sides:       so.Sides,
		Quality:     scanbackend.Quality(so.Quality),
		InputSource: src,
		Crop:        so.Crop,
	}
}

func (s *Server) orchestratorFor(scannerName string) (*scanjob.Orchestrator, error) {
	sc, err := s.Registry.Scanner(scannerName)
	if err != nil {
		return nil, err
	}
	backend, err := s.Scanners.Dial(sc.ESCLBaseURL)
	if err != nil {
		return nil, apperr.New(apperr.BackendError, err)
	}
	return scanjob.New(s.Artifacts, backend), nil
}

type startScanResponse struct {
	ScanJobID string `json:"scanJobId"`
}

func (s *Server) handleStartScan(w http.ResponseWriter, r *http.Request) error {
	owner, err := ownerFrom(r)
	if err != nil {
		return err
	}
	scannerName := r.URL.Query().Get("scanner_name")
	if scannerName == "" {
		return apperr.New(apperr.InvalidArgument, fmt.Errorf("httpapi: scanner_name is required"))
	}

	var body scanningOptions
	if err := decodeJSON(r, &body); err != nil {
		return err
	}

	orch, err := s.orchestratorFor(scannerName)
	if err != nil {
		return err
	}

	sess := &scanjob.Session{Options: body.toBackend()}
	if err := orch.StartCycle(r.Context(), sess); err != nil {
		// BackendBusy is a normal, expected outcome here (spec §4.6/§7,
		// scenario S4) — it is still reported to the caller as-is, the
		// orchestrator-absorbs-Busy policy applies to the chat FSM layer,
		// not this stateless transport.
		return err
	}

	s.mu.Lock()
	s.scans[sess.JobIDInFlight] = scanSession{owner: owner, scanner: scannerName, options: body.toBackend()}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, startScanResponse{ScanJobID: sess.JobIDInFlight})
	return nil
}

func (s *Server) handleCancelScan(w http.ResponseWriter, r *http.Request) error {
	owner, err := ownerFrom(r)
	if err != nil {
		return err
	}
	scannerName := r.URL.Query().Get("scanner_name")
	jobID := r.URL.Query().Get("job_id")
	if scannerName == "" || jobID == "" {
		return apperr.New(apperr.InvalidArgument, fmt.Errorf("httpapi: scanner_name and job_id are required"))
	}

	orch, err := s.orchestratorFor(scannerName)
	if err != nil {
		return err
	}

	sess := &scanjob.Session{JobIDInFlight: jobID}
	if err := orch.Cancel(r.Context(), owner, sess); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.scans, jobID)
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
	return nil
}

type mergeResponse struct {
	Filename  string `json:"filename"`
	PageCount int    `json:"page_count"`
}

func (s *Server) handleWaitAndMerge(w http.ResponseWriter, r *http.Request) error {
	owner, err := ownerFrom(r)
	if err != nil {
		return err
	}
	scannerName := r.URL.Query().Get("scanner_name")
	jobID := r.URL.Query().Get("job_id")
	prevFilename := r.URL.Query().Get("prev_filename")
	if scannerName == "" || jobID == "" {
		return apperr.New(apperr.InvalidArgument, fmt.Errorf("httpapi: scanner_name and job_id are required"))
	}

	if prevFilename != "" {
		if _, err := s.Artifacts.Path(owner, prevFilename); err != nil {
			return err
		}
	}

	s.mu.Lock()
	tracked, ok := s.scans[jobID]
	s.mu.Unlock()
	options := scanbackend.Options{}
	if ok {
		options = tracked.options
	}

	orch, err := s.orchestratorFor(scannerName)
	if err != nil {
		return err
	}

	sess := &scanjob.Session{JobIDInFlight: jobID, ArtifactHandle: prevFilename, Options: options}
	if err := orch.FetchCycle(r.Context(), owner, sess); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.scans, jobID)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, mergeResponse{Filename: sess.ArtifactHandle, PageCount: sess.PageCount})
	return nil
}

func (s *Server) handleRemoveLastPage(w http.ResponseWriter, r *http.Request) error {
	owner, err := ownerFrom(r)
	if err != nil {
		return err
	}
	handle := r.URL.Query().Get("filename")
	if handle == "" {
		return apperr.New(apperr.InvalidArgument, fmt.Errorf("httpapi: filename is required"))
	}

	sess := &scanjob.Session{ArtifactHandle: handle}
	orch := scanjob.New(s.Artifacts, nil)
	if err := orch.Undo(owner, sess); err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, mergeResponse{Filename: sess.ArtifactHandle, PageCount: sess.PageCount})
	return nil
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) error {
	owner, err := ownerFrom(r)
	if err != nil {
		return err
	}
	handle := r.URL.Query().Get("filename")
	if handle == "" {
		return apperr.New(apperr.InvalidArgument, fmt.Errorf("httpapi: filename is required"))
	}
	if err := s.Artifacts.Delete(owner, handle); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) handleScanGetFile(w http.ResponseWriter, r *http.Request) error {
	owner, err := ownerFrom(r)
	if err != nil {
		return err
	}
	handle := r.URL.Query().Get("filename")
	if handle == "" {
		return apperr.New(apperr.InvalidArgument, fmt.Errorf("httpapi: filename is required"))
	}
	path, err := s.Artifacts.Path(owner, handle)
	if err != nil {
		return err
	}
	f, ferr := os.Open(path)
	if ferr != nil {
		return apperr.New(apperr.IOError, ferr)
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/pdf")
	_, _ = io.Copy(w, f)
	return nil
}

func (s *Server) handleMyID(w http.ResponseWriter, r *http.Request) error {
	owner, err := ownerFrom(r)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": string(owner)})
	return nil
}
