// Package scanbackend implements the Scan Backend Port (spec §4.3) on
// top of the escl package's eSCL wire client.
package scanbackend

import (
	"context"
	"errors"

	"github.com/innohassle/printhub/escl"
	"github.com/innohassle/printhub/internal/apperr"
)

// InputSource mirrors spec §3's ScanOptions.inputSource.
type InputSource string

// Known input sources.
const (
	Platen InputSource = "Platen"
	Adf    InputSource = "Adf"
)

// Quality is a supported scan resolution, in DPI.
type Quality int

// Supported qualities (spec §3).
const (
	Quality200 Quality = 200
	Quality300 Quality = 300
	Quality400 Quality = 400
	Quality600 Quality = 600
)

// Options is the scan request (spec §3's ScanOptions).
type Options struct {
	Sides       bool // two-sided; only honored when InputSource == Adf
	Quality     Quality
	InputSource InputSource
	Crop        bool
}

func (o Options) toScanSettings() escl.ScanSettings {
	src := escl.Platen
	if o.InputSource == Adf {
		src = escl.Adf
	}

	return escl.ScanSettings{
		InputSource: src,
		// Duplex is only meaningful for ADF; escl.ScanSettings.ToXML
		// already omits it for Platen, this mirrors that at the call site.
		Duplex:      o.Sides && o.InputSource == Adf,
		XResolution: int(o.Quality),
		YResolution: int(o.Quality),
	}
}

// Backend is the Scan Backend Port, bound to one scanner's eSCL base URL.
type Backend struct {
	client *escl.Client
}

// New returns a Backend for the scanner at baseURL.
func New(baseURL string) (*Backend, error) {
	c, err := escl.NewClient(baseURL)
	if err != nil {
		return nil, apperr.New(apperr.InvalidArgument, err)
	}
	return &Backend{client: c}, nil
}

// Start begins a scan. A busy device is reported as apperr.BackendBusy,
// not a generic error — orchestrators are expected to absorb it (spec §7).
func (b *Backend) Start(ctx context.Context, opts Options) (scanJobID string, err error) {
	id, err := b.client.Start(ctx, opts.toScanSettings())
	if err != nil {
		if errors.Is(err, escl.ErrBusy) {
			return "", apperr.New(apperr.BackendBusy, err)
		}
		return "", apperr.New(apperr.BackendError, err)
	}
	return id, nil
}

// NextDocument blocks until the device delivers one PDF for scanJobID.
func (b *Backend) NextDocument(ctx context.Context, scanJobID string) ([]byte, error) {
	data, err := b.client.NextDocument(ctx, scanJobID)
	if err != nil {
		if errors.Is(err, escl.ErrNotReady) {
			return nil, apperr.New(apperr.Timeout, err)
		}
		return nil, apperr.New(apperr.BackendError, err)
	}
	return data, nil
}

// Delete terminates scanJobID on the device. Idempotent.
func (b *Backend) Delete(ctx context.Context, scanJobID string) error {
	if err := b.client.Delete(ctx, scanJobID); err != nil {
		return apperr.New(apperr.BackendError, err)
	}
	return nil
}

// Capabilities returns the raw ScannerCapabilities document (diagnostic).
func (b *Backend) Capabilities(ctx context.Context) ([]byte, error) {
	return b.client.Capabilities(ctx)
}

// Status returns the decoded ScannerStatus document (diagnostic).
func (b *Backend) Status(ctx context.Context) (escl.ScannerStatus, error) {
	return b.client.Status(ctx)
}
