// Package scanjob implements the Scan Orchestrator (spec §4.6):
// start → fetch → merge/undo → finalize for one owner's scan session.
package scanjob

import (
	"bytes"
	"context"
	"os"

	"github.com/innohassle/printhub/internal/apperr"
	"github.com/innohassle/printhub/internal/artifact"
	"github.com/innohassle/printhub/internal/ownerid"
	"github.com/innohassle/printhub/internal/pdfutil"
	"github.com/innohassle/printhub/internal/scanbackend"
)

// Backend is the subset of the Scan Backend Port the orchestrator needs.
type Backend interface {
	Start(ctx context.Context, opts scanbackend.Options) (string, error)
	NextDocument(ctx context.Context, scanJobID string) ([]byte, error)
	Delete(ctx context.Context, scanJobID string) error
}

// Session is the live state of one owner's scan, mirroring spec §4.6's
// "{scanner, options, artifactHandle?, jobIdInFlight?, pageCount}".
type Session struct {
	Scanner        string
	Options        scanbackend.Options
	ArtifactHandle string
	JobIDInFlight  string
	PageCount      int
}

// Orchestrator drives one owner's scan session end to end.
type Orchestrator struct {
	Artifacts *artifact.Store
	Backend   Backend
}

// New returns an Orchestrator.
func New(store *artifact.Store, backend Backend) *Orchestrator {
	return &Orchestrator{Artifacts: store, Backend: backend}
}

// StartCycle begins an acquisition (spec §4.6 "Start cycle"). A Busy
// backend result is returned unmodified — callers surface it and return to
// the prior menu state, per spec §7's orchestrator-absorbs-Busy policy.
func (o *Orchestrator) StartCycle(ctx context.Context, sess *Session) error {
	jobID, err := o.Backend.Start(ctx, sess.Options)
	if err != nil {
		return err
	}
	sess.JobIDInFlight = jobID
	return nil
}

// FetchCycle retrieves the device's next page, optionally auto-crops it,
// and merges it into the session's growing artifact (spec §4.6 "Fetch
// cycle").
func (o *Orchestrator) FetchCycle(ctx context.Context, owner ownerid.ID, sess *Session) error {
	data, err := o.Backend.NextDocument(ctx, sess.JobIDInFlight)
	if err != nil {
		return err
	}

	if sess.Options.Crop {
		data, err = AutoCrop(data)
		if err != nil {
			return apperr.New(apperr.ConversionFailed, err)
		}
	}

	var newHandle string
	if sess.ArtifactHandle == "" {
		newHandle, err = o.Artifacts.Put(owner, ".pdf", bytes.NewReader(data))
	} else {
		var prev []byte
		prev, err = o.readArtifact(owner, sess.ArtifactHandle)
		if err == nil {
			var merged []byte
			merged, err = pdfutil.Merge(prev, data)
			if err == nil {
				newHandle, err = o.Artifacts.Replace(owner, sess.ArtifactHandle, bytes.NewReader(merged), ".pdf")
			}
		}
	}
	if err != nil {
		return err
	}
	sess.ArtifactHandle = newHandle

	merged, err := o.readArtifact(owner, sess.ArtifactHandle)
	if err != nil {
		return err
	}
	pages, err := pdfutil.PageCount(merged)
	if err != nil {
		return apperr.New(apperr.IOError, err)
	}
	sess.PageCount = pages

	// Delete is idempotent; a prior partial failure here is safe to retry.
	_ = o.Backend.Delete(ctx, sess.JobIDInFlight)
	sess.JobIDInFlight = ""

	return nil
}

// Undo removes the artifact's last page (spec §4.6 "Undo (remove-last)").
// The handle is never deleted, even when the result has zero pages.
func (o *Orchestrator) Undo(owner ownerid.ID, sess *Session) error {
	data, err := o.readArtifact(owner, sess.ArtifactHandle)
	if err != nil {
		return err
	}

	trimmed, err := pdfutil.RemoveLastPage(data)
	if err != nil {
		return err
	}

	newHandle, err := o.Artifacts.Replace(owner, sess.ArtifactHandle, bytes.NewReader(trimmed), ".pdf")
	if err != nil {
		return err
	}
	sess.ArtifactHandle = newHandle

	pages, err := pdfutil.PageCount(trimmed)
	if err != nil {
		return apperr.New(apperr.IOError, err)
	}
	sess.PageCount = pages

	return nil
}

// Finalize deletes the artifact and clears the session (spec §4.6
// "Finalize").
func (o *Orchestrator) Finalize(owner ownerid.ID, sess *Session) error {
	var err error
	if sess.ArtifactHandle != "" {
		err = o.Artifacts.Delete(owner, sess.ArtifactHandle)
	}
	*sess = Session{}
	return err
}

// Cancel terminates any in-flight backend job and deletes the artifact
// (spec §4.6 "Cancel"). Both operations are idempotent.
func (o *Orchestrator) Cancel(ctx context.Context, owner ownerid.ID, sess *Session) error {
	if sess.JobIDInFlight != "" {
		_ = o.Backend.Delete(ctx, sess.JobIDInFlight)
	}
	if sess.ArtifactHandle != "" {
		_ = o.Artifacts.Delete(owner, sess.ArtifactHandle)
	}
	*sess = Session{}
	return nil
}

func (o *Orchestrator) readArtifact(owner ownerid.ID, handle string) ([]byte, error) {
	path, err := o.Artifacts.Path(owner, handle)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.New(apperr.IOError, err)
	}
	return data, nil
}
