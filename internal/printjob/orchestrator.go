// Package printjob implements the Print Orchestrator (spec §4.5):
// prepare → dispatch → poll → terminate for one print job.
package printjob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/innohassle/printhub/internal/apperr"
	"github.com/innohassle/printhub/internal/artifact"
	"github.com/innohassle/printhub/internal/converter"
	"github.com/innohassle/printhub/internal/ownerid"
	"github.com/innohassle/printhub/internal/pdfutil"
	"github.com/innohassle/printhub/internal/workerpool"
	"github.com/innohassle/printhub/ipp"
)

// pollInterval is how often the poll loop re-reads job attributes (spec §4.5).
const pollInterval = 1 * time.Second

// perPaperBudget is the poll loop's wall-clock allowance per sheet (spec §5).
const perPaperBudget = 60 * time.Second

// convertibleExtensions is the fixed whitelist dispatched to the external
// Converter (spec §4.5: "word-processor, spreadsheet, common raster, plain
// text, markdown").
var convertibleExtensions = map[string]bool{
	".doc": true, ".docx": true, ".odt": true, ".rtf": true,
	".xls": true, ".xlsx": true, ".ods": true,
	".ppt": true, ".pptx": true, ".odp": true,
	".png": true, ".jpg": true, ".jpeg": true, ".bmp": true, ".gif": true, ".tiff": true,
	".txt": true, ".md": true,
}

// Backend is the subset of the Print Backend Port the orchestrator needs.
type Backend interface {
	Submit(ctx context.Context, ippURL, title string, file io.Reader, options ipp.PrintOptions) (int, error)
	JobAttributes(ctx context.Context, ippURL string, jobID int) (ipp.JobAttributes, error)
	Cancel(ctx context.Context, ippURL string, jobID int) error
}

// Orchestrator drives a single owner's print jobs end to end.
type Orchestrator struct {
	Artifacts *artifact.Store
	Backend   Backend
	Converter converter.Converter
	Pool      *workerpool.Pool
	TempDir   string
}

// New returns an Orchestrator.
func New(store *artifact.Store, backend Backend, conv converter.Converter, pool *workerpool.Pool, tempDir string) *Orchestrator {
	return &Orchestrator{Artifacts: store, Backend: backend, Converter: conv, Pool: pool, TempDir: tempDir}
}

// PrepareResult is the outcome of a successful Prepare call.
type PrepareResult struct {
	FileHandle string
	Pages      int
}

// Prepare ingests raw content claimed to be named filename, normalizes it to
// PDF, and stores it in the Artifact Store (spec §4.5 "Prepare phase").
func (o *Orchestrator) Prepare(ctx context.Context, owner ownerid.ID, filename string, content io.Reader) (PrepareResult, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	raw, err := io.ReadAll(content)
	if err != nil {
		return PrepareResult{}, apperr.New(apperr.IOError, err)
	}
	if len(raw) == 0 {
		return PrepareResult{}, apperr.New(apperr.InvalidArgument, fmt.Errorf("printjob: empty file"))
	}

	var pdfBytes []byte
	switch {
	case ext == ".pdf":
		pdfBytes = raw
	case convertibleExtensions[ext]:
		pdfBytes, err = o.convert(ctx, ext, raw)
		if err != nil {
			return PrepareResult{}, err
		}
	default:
		return PrepareResult{}, apperr.New(apperr.UnsupportedFormat, fmt.Errorf("printjob: unsupported extension %q", ext))
	}

	pages, err := pdfutil.PageCount(pdfBytes)
	if err != nil {
		return PrepareResult{}, apperr.New(apperr.ConversionFailed, fmt.Errorf("printjob: page count: %w", err))
	}

	handle, err := o.Artifacts.Put(owner, ".pdf", bytes.NewReader(pdfBytes))
	if err != nil {
		return PrepareResult{}, err
	}

	return PrepareResult{FileHandle: handle, Pages: pages}, nil
}

// convert runs the external Converter on the worker pool and returns the
// resulting PDF bytes.
func (o *Orchestrator) convert(ctx context.Context, ext string, raw []byte) ([]byte, error) {
	inFile, err := os.CreateTemp(o.TempDir, "printhub-in-*"+ext)
	if err != nil {
		return nil, apperr.New(apperr.IOError, err)
	}
	defer os.Remove(inFile.Name())
	if _, err := inFile.Write(raw); err != nil {
		inFile.Close()
		return nil, apperr.New(apperr.IOError, err)
	}
	if err := inFile.Close(); err != nil {
		return nil, apperr.New(apperr.IOError, err)
	}

	outFile, err := os.CreateTemp(o.TempDir, "printhub-out-*.pdf")
	if err != nil {
		return nil, apperr.New(apperr.IOError, err)
	}
	outPath := outFile.Name()
	outFile.Close()
	defer os.Remove(outPath)

	_, err = workerpool.Submit(ctx, o.Pool, func() (struct{}, error) {
		return struct{}{}, o.Converter.Convert(ctx, inFile.Name(), outPath)
	})
	if err != nil {
		switch {
		case apperr.KindOf(err) != apperr.Unknown:
			return nil, err
		case ctx.Err() != nil:
			return nil, apperr.New(apperr.Timeout, err)
		default:
			return nil, apperr.New(apperr.ConversionFailed, err)
		}
	}

	pdfBytes, err := os.ReadFile(outPath)
	if err != nil {
		return nil, apperr.New(apperr.ConversionFailed, fmt.Errorf("printjob: read converted file: %w", err))
	}
	return pdfBytes, nil
}

// Dispatch submits the artifact to the printer at ippURL and consumes it
// (spec §4.5 "Dispatch phase") — the artifact is removed whether Submit
// succeeds or fails.
func (o *Orchestrator) Dispatch(ctx context.Context, owner ownerid.ID, handle, ippURL, title string, options ipp.PrintOptions) (jobID int, err error) {
	path, err := o.Artifacts.Path(owner, handle)
	if err != nil {
		return 0, err
	}

	f, ferr := os.Open(path)
	if ferr != nil {
		_ = o.Artifacts.Delete(owner, handle)
		return 0, apperr.New(apperr.IOError, ferr)
	}

	jobID, err = o.Backend.Submit(ctx, ippURL, title, f, options)
	f.Close()

	// Consumed unconditionally: spec §4.5 "the artifact is never reusable
	// across retries".
	_ = o.Artifacts.Delete(owner, handle)

	return jobID, err
}

// Outcome is the poll loop's terminal result.
type Outcome struct {
	State     ipp.JobState
	Attrs     ipp.JobAttributes
	TimedOut  bool
	Cancelled bool
}

// Poll runs the cooperatively cancellable poll loop (spec §4.5 "Poll
// phase"/"Termination"). onUpdate is invoked after every successful read,
// for presentation updates; cancel is closed to request a user cancel.
func (o *Orchestrator) Poll(ctx context.Context, ippURL string, jobID int, papersToPrint int,
	onUpdate func(ipp.JobAttributes), cancel <-chan struct{}) Outcome {

	if papersToPrint <= 0 {
		papersToPrint = 1
	}
	deadline := time.Now().Add(time.Duration(papersToPrint) * perPaperBudget)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return o.terminate(context.Background(), ippURL, jobID, false, true)

		case <-cancel:
			return o.terminate(ctx, ippURL, jobID, true, false)

		case <-ticker.C:
			if time.Now().After(deadline) {
				return o.terminate(ctx, ippURL, jobID, false, true)
			}

			attrs, err := o.Backend.JobAttributes(ctx, ippURL, jobID)
			if err != nil {
				// Transient errors are absorbed; the loop keeps polling
				// (spec §7's poll-loop propagation policy).
				continue
			}

			onUpdate(attrs)

			if attrs.JobState.Terminal() {
				return Outcome{State: attrs.JobState, Attrs: attrs}
			}
		}
	}
}

func (o *Orchestrator) terminate(ctx context.Context, ippURL string, jobID int, cancelled, timedOut bool) Outcome {
	_ = o.Backend.Cancel(ctx, ippURL, jobID)
	attrs, _ := o.Backend.JobAttributes(ctx, ippURL, jobID)
	return Outcome{State: attrs.JobState, Attrs: attrs, TimedOut: timedOut, Cancelled: cancelled}
}
