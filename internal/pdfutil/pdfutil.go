// Package pdfutil wraps github.com/pdfcpu/pdfcpu for the three PDF
// operations the orchestration core needs: counting pages, merging a
// scan's successive acquisitions, and removing the last page (scan undo).
package pdfutil

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/innohassle/printhub/internal/apperr"
)

// PageCount returns the number of pages in a PDF document.
func PageCount(data []byte) (int, error) {
	ctx, err := api.ReadContext(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return 0, apperr.New(apperr.IOError, fmt.Errorf("pdfutil: read: %w", err))
	}
	return ctx.PageCount, nil
}

// Merge concatenates PDFs in order, preserving page order (spec §3's
// growing-artifact invariant: p1 || p2 || ... || pk).
func Merge(docs ...[]byte) ([]byte, error) {
	if len(docs) == 0 {
		return nil, apperr.New(apperr.InvalidArgument, fmt.Errorf("pdfutil: merge: no documents"))
	}
	if len(docs) == 1 {
		return docs[0], nil
	}

	var out bytes.Buffer
	seekers := toReadSeekers(docs)
	if err := api.MergeRaw(seekers, &out, false, model.NewDefaultConfiguration()); err != nil {
		return nil, apperr.New(apperr.IOError, fmt.Errorf("pdfutil: merge: %w", err))
	}

	return out.Bytes(), nil
}

// RemoveLastPage returns data with its last page removed. A single-page
// input yields a zero-page (but still present) artifact, per spec §3's
// undo invariant — this function never deletes the artifact, only
// rewrites its content; callers are responsible for that distinction.
func RemoveLastPage(data []byte) ([]byte, error) {
	n, err := PageCount(data)
	if err != nil {
		return nil, err
	}
	if n <= 1 {
		return emptyPDF(), nil
	}

	var out bytes.Buffer
	pageSelection := []string{fmt.Sprintf("-%d", n-1)} // pdfcpu "all but last" selector
	if err := api.TrimRaw(toReadSeeker(data), &out, pageSelection, model.NewDefaultConfiguration()); err != nil {
		return nil, apperr.New(apperr.IOError, fmt.Errorf("pdfutil: trim: %w", err))
	}

	return out.Bytes(), nil
}

// emptyPDF returns the bytes of a minimal zero-page PDF document, the
// permitted "zero-page result" terminal state of repeated undo (spec §3).
func emptyPDF() []byte {
	var out bytes.Buffer
	_ = api.CreateRaw(nil, &out, model.NewDefaultConfiguration())
	return out.Bytes()
}

func toReadSeeker(data []byte) *bytes.Reader {
	return bytes.NewReader(data)
}

func toReadSeekers(docs [][]byte) []*bytes.Reader {
	out := make([]*bytes.Reader, len(docs))
	for i, d := range docs {
		out[i] = bytes.NewReader(d)
	}
	return out
}
