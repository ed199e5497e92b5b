package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/innohassle/printhub/internal/apperr"
	"github.com/innohassle/printhub/internal/ownerid"
	"github.com/innohassle/printhub/internal/printjob"
	"github.com/innohassle/printhub/internal/registry"
	"github.com/innohassle/printhub/ipp"
)

type printerView struct {
	DisplayName string `json:"display_name"`
	CupsName    string `json:"cups_name"`
}

func toPrinterView(p registry.Printer) printerView {
	return printerView{DisplayName: p.DisplayName, CupsName: p.CupsName}
}

func (s *Server) handleGetPrinters(w http.ResponseWriter, r *http.Request) error {
	printers := s.Registry.Printers()
	out := make([]printerView, len(printers))
	for i, p := range printers {
		out[i] = toPrinterView(p)
	}
	writeJSON(w, http.StatusOK, out)
	return nil
}

func (s *Server) handleGetPrintersStatus(w http.ResponseWriter, r *http.Request) error {
	writeJSON(w, http.StatusOK, s.Status.StatusAll(r.Context()))
	return nil
}

func (s *Server) handleGetPrinterStatus(w http.ResponseWriter, r *http.Request) error {
	cupsName := r.URL.Query().Get("printer_cups_name")
	if cupsName == "" {
		return apperr.New(apperr.InvalidArgument, fmt.Errorf("httpapi: printer_cups_name is required"))
	}
	if _, err := s.Registry.Printer(cupsName); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, s.Status.Status(r.Context(), cupsName))
	return nil
}

type prepareResponse struct {
	Filename string `json:"filename"`
	Pages    int    `json:"pages"`
}

func (s *Server) handlePrepare(w http.ResponseWriter, r *http.Request) error {
	owner, err := ownerFrom(r)
	if err != nil {
		return err
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return apperr.New(apperr.InvalidArgument, fmt.Errorf("httpapi: multipart file is required: %w", err))
	}
	defer file.Close()

	result, err := s.PrintJob.Prepare(r.Context(), owner, header.Filename, file)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, prepareResponse{Filename: result.FileHandle, Pages: result.Pages})
	return nil
}

// printingOptions is the request body for /print/print, mirroring spec
// §3's PrintOptions in JSON form.
type printingOptions struct {
	Copies     int    `json:"copies"`
	PageRanges string `json:"pageRanges"`
	Sides      string `json:"sides"`
	NumberUp   int    `json:"numberUp"`
}

func (po printingOptions) toIPP() (ipp.PrintOptions, error) {
	normalized, _, err := printjob.NormalizePageRanges(po.PageRanges)
	if err != nil && po.PageRanges != "" {
		return ipp.PrintOptions{}, apperr.New(apperr.InvalidArgument, err)
	}

	sides := ipp.Sides(po.Sides)
	if sides == "" {
		sides = ipp.OneSided
	}
	copies := po.Copies
	if copies <= 0 {
		copies = 1
	}

	return ipp.PrintOptions{
		Copies:     copies,
		PageRanges: normalized,
		Sides:      sides,
		NumberUp:   po.NumberUp,
	}, nil
}

type printResponse struct {
	JobID int `json:"jobId"`
}

func (s *Server) handlePrint(w http.ResponseWriter, r *http.Request) error {
	owner, err := ownerFrom(r)
	if err != nil {
		return err
	}

	handle := r.URL.Query().Get("filename")
	cupsName := r.URL.Query().Get("printer_cups_name")
	if handle == "" || cupsName == "" {
		return apperr.New(apperr.InvalidArgument, fmt.Errorf("httpapi: filename and printer_cups_name are required"))
	}

	printer, err := s.Registry.Printer(cupsName)
	if err != nil {
		return err
	}

	var body printingOptions
	if err := decodeJSON(r, &body); err != nil {
		return err
	}
	options, err := body.toIPP()
	if err != nil {
		return err
	}

	jobID, err := s.PrintJob.Dispatch(r.Context(), owner, handle, printer.IPPEndpoint, handle, options)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.printJob[jobKey{owner, jobID}] = printer.IPPEndpoint
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, printResponse{JobID: jobID})
	return nil
}

func (s *Server) lookupJob(owner ownerid.ID, jobID int) (string, error) {
	s.mu.Lock()
	ippURL, ok := s.printJob[jobKey{owner, jobID}]
	s.mu.Unlock()
	if !ok {
		return "", apperr.New(apperr.NotFound, fmt.Errorf("httpapi: no such job %d", jobID))
	}
	return ippURL, nil
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) error {
	owner, err := ownerFrom(r)
	if err != nil {
		return err
	}

	jobID, err := parseJobID(r)
	if err != nil {
		return err
	}

	ippURL, err := s.lookupJob(owner, jobID)
	if err != nil {
		return err
	}

	attrs, err := s.Print.JobAttributes(r.Context(), ippURL, jobID)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, attrs)
	return nil
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) error {
	owner, err := ownerFrom(r)
	if err != nil {
		return err
	}

	jobID, err := parseJobID(r)
	if err != nil {
		return err
	}

	ippURL, err := s.lookupJob(owner, jobID)
	if err != nil {
		return err
	}

	// Cancellation paths swallow backend NotFound: the job may already have
	// finished (spec §7).
	if err := s.Print.Cancel(r.Context(), ippURL, jobID); err != nil && apperr.KindOf(err) != apperr.NotFound {
		return err
	}

	s.mu.Lock()
	delete(s.printJob, jobKey{owner, jobID})
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) handleCancelPreparation(w http.ResponseWriter, r *http.Request) error {
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

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) error {
	owner, err := ownerFrom(r)
	if err != nil {
		return err
	}
	return s.streamArtifact(w, owner, r.URL.Query().Get("filename"))
}

func (s *Server) streamArtifact(w http.ResponseWriter, owner ownerid.ID, handle string) error {
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

func parseJobID(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("job_id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.New(apperr.InvalidArgument, fmt.Errorf("httpapi: job_id must be an integer: %w", err))
	}
	return id, nil
}
