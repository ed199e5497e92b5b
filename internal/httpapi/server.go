// Package httpapi implements the HTTP API transport (spec §6): the
// bearer-authenticated surface the chat front-end's web counterpart (or any
// other client) drives the same print/scan orchestrators through.
package httpapi

import (
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/innohassle/printhub/internal/artifact"
	"github.com/innohassle/printhub/internal/auth"
	"github.com/innohassle/printhub/internal/ownerid"
	"github.com/innohassle/printhub/internal/printerstatus"
	"github.com/innohassle/printhub/internal/printjob"
	"github.com/innohassle/printhub/internal/registry"
	"github.com/innohassle/printhub/internal/scanbackend"
	"github.com/innohassle/printhub/internal/scanjob"
)

// requestTimeout is the HTTP default (spec §5: "HTTP default 10 s").
const requestTimeout = 10 * time.Second

// mediaTimeout covers the routes spec §5 budgets separately: file
// upload/conversion ("prepare") and a blocking scan fetch ("wait_and_merge").
const mediaTimeout = 5 * time.Minute

// ScannerDialer opens a Scan Backend Port for one registered scanner.
// A small interface rather than a concrete *scanbackend.Backend so tests
// can substitute a fake without a live eSCL device.
type ScannerDialer interface {
	Dial(eSCLBaseURL string) (scanjob.Backend, error)
}

// liveScannerDialer dials real scanbackend.Backend instances — cheap
// enough (an *http.Client) to build fresh per request rather than pooling.
type liveScannerDialer struct{}

func (liveScannerDialer) Dial(eSCLBaseURL string) (scanjob.Backend, error) {
	return scanbackend.New(eSCLBaseURL)
}

// scanSession is the server-held memory of one in-flight manual scan job,
// keyed by the backend-issued scanJobID. The HTTP API's scan endpoints are
// otherwise request-scoped (spec §6 passes scanner_name/job_id/prev_filename
// explicitly on every call) — the Crop choice made at start_scan is the one
// piece that must survive to the matching wait_and_merge call.
type scanSession struct {
	owner   ownerid.ID
	scanner string
	options scanbackend.Options
}

// Server holds the wiring for every handler; Router builds the chi mux.
type Server struct {
	Auth      *auth.Gate
	Registry  *registry.Registry
	Status    *printerstatus.Aggregator
	Artifacts *artifact.Store
	PrintJob  *printjob.Orchestrator
	Print     printjob.Backend // direct access for job_status/cancel, outside any poll loop
	Scanners  ScannerDialer

	log       zerolog.Logger
	corsRegex *regexp.Regexp

	mu       sync.Mutex
	printJob map[jobKey]string // owner+jobID -> ippURL, for job_status/cancel
	scans    map[string]scanSession
}

type jobKey struct {
	owner ownerid.ID
	jobID int
}

// New returns a wired Server. corsPattern is the configured
// cors_allow_origin_regex.
func New(authGate *auth.Gate, reg *registry.Registry, status *printerstatus.Aggregator,
	artifacts *artifact.Store, printOrch *printjob.Orchestrator, printBackend printjob.Backend,
	corsPattern string, log zerolog.Logger) *Server {

	return &Server{
		Auth:      authGate,
		Registry:  reg,
		Status:    status,
		Artifacts: artifacts,
		PrintJob:  printOrch,
		Print:     printBackend,
		Scanners:  liveScannerDialer{},
		log:       log,
		corsRegex: compileCORS(corsPattern),
		printJob:  make(map[jobKey]string),
		scans:     make(map[string]scanSession),
	}
}

// Router builds the full mux: one middleware chain (request id, real IP,
// recoverer, timeout, CORS, authentication) ahead of every route. The
// two media routes skip the requestTimeout and run under mediaTimeout.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	mediaRoutes := map[string]bool{"/print/prepare": true, "/scan/manual/wait_and_merge": true}
	r.Use(func(next http.Handler) http.Handler {
		short := middleware.Timeout(requestTimeout)(next)
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if mediaRoutes[req.URL.Path] {
				next.ServeHTTP(w, req)
				return
			}
			short.ServeHTTP(w, req)
		})
	})
	r.Use(s.cors)
	r.Use(s.authenticate)

	r.Route("/print", func(r chi.Router) {
		r.Get("/get_printers", s.wrap(s.handleGetPrinters))
		r.Get("/get_printers_status", s.wrap(s.handleGetPrintersStatus))
		r.Get("/get_printer_status", s.wrap(s.handleGetPrinterStatus))
		r.With(middleware.Timeout(mediaTimeout)).Post("/prepare", s.wrap(s.handlePrepare))
		r.Post("/print", s.wrap(s.handlePrint))
		r.Get("/job_status", s.wrap(s.handleJobStatus))
		r.Post("/cancel", s.wrap(s.handleCancelJob))
		r.Post("/cancel_preparation", s.wrap(s.handleCancelPreparation))
		r.Get("/get_file", s.wrap(s.handleGetFile))
	})

	r.Route("/scan", func(r chi.Router) {
		r.Get("/get_scanners", s.wrap(s.handleGetScanners))
		r.Route("/manual", func(r chi.Router) {
			r.Post("/start_scan", s.wrap(s.handleStartScan))
			r.Post("/cancel_scan", s.wrap(s.handleCancelScan))
			r.With(middleware.Timeout(mediaTimeout)).Post("/wait_and_merge", s.wrap(s.handleWaitAndMerge))
			r.Post("/remove_last_page", s.wrap(s.handleRemoveLastPage))
			r.Post("/delete_file", s.wrap(s.handleDeleteFile))
		})
		r.Get("/get_file", s.wrap(s.handleScanGetFile))
	})

	r.Route("/users", func(r chi.Router) {
		r.Get("/my_id", s.wrap(s.handleMyID))
	})

	return r
}

