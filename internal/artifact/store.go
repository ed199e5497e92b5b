// Package artifact implements the Artifact Store: the owner-scoped map
// from an opaque file handle to an on-disk temporary file that every
// piece of user content (uploads, converted PDFs, scan results) passes
// through.
//
// Path resolution happens only inside this package (Path is the one
// function that turns a handle into an absolute path), so ownership
// checks can never be bypassed by a caller constructing its own path —
// per the "Temp-file ownership cycle" design note in spec.md §9.
package artifact

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/innohassle/printhub/internal/apperr"
	"github.com/innohassle/printhub/internal/ownerid"
)

// record is the metadata kept for one live handle.
type record struct {
	ownerID   ownerid.ID
	path      string
	createdAt time.Time
}

// Store is the Artifact Store. All mutations hold the per-owner lock;
// reads take a snapshot under a brief read lock and then operate outside
// it, so a slow disk read never blocks another owner's mutation.
type Store struct {
	root string

	mu      sync.RWMutex // guards records map structure
	records map[ownerid.ID]map[string]record

	ownerLocks sync.Map // ownerid.ID -> *sync.Mutex
}

// New returns a Store rooted at dir. dir must already exist.
func New(dir string) *Store {
	return &Store{
		root:    dir,
		records: make(map[ownerid.ID]map[string]record),
	}
}

func (s *Store) lockFor(owner ownerid.ID) *sync.Mutex {
	v, _ := s.ownerLocks.LoadOrStore(owner, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// newHandle returns a fresh opaque handle — a UUIDv4 carries 122 bits of
// randomness, well past the spec's unguessability requirement.
func newHandle() string {
	return uuid.NewString()
}

// Put writes r's bytes atomically under a new handle and returns it.
func (s *Store) Put(owner ownerid.ID, extension string, r io.Reader) (string, error) {
	lock := s.lockFor(owner)
	lock.Lock()
	defer lock.Unlock()

	handle := newHandle()
	absPath := filepath.Join(s.root, string(owner)+"_"+handle+extension)

	tmp := absPath + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return "", apperr.New(apperr.IOError, err)
		}
		return "", classifyWriteErr(err)
	}

	_, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(tmp)
		if copyErr != nil {
			return "", classifyWriteErr(copyErr)
		}
		return "", apperr.New(apperr.IOError, closeErr)
	}

	if err := os.Rename(tmp, absPath); err != nil {
		os.Remove(tmp)
		return "", apperr.New(apperr.IOError, err)
	}

	s.mu.Lock()
	if s.records[owner] == nil {
		s.records[owner] = make(map[string]record)
	}
	s.records[owner][handle] = record{ownerID: owner, path: absPath, createdAt: time.Now()}
	s.mu.Unlock()

	return handle, nil
}

// Path resolves (owner, handle) to an absolute path. It reports NotFound
// both when the handle never existed and when it belongs to a different
// owner — the two cases are indistinguishable to the caller, by design
// (invariant I1: no cross-owner handle visibility).
func (s *Store) Path(owner ownerid.ID, handle string) (string, error) {
	s.mu.RLock()
	rec, ok := s.records[owner][handle]
	s.mu.RUnlock()

	if !ok {
		return "", apperr.New(apperr.NotFound, nil)
	}
	return rec.path, nil
}

// Replace atomically swaps the content behind handle: a new handle is
// created for newBytes and the old one is removed. Either both effects
// land or neither does.
func (s *Store) Replace(owner ownerid.ID, handle string, r io.Reader, extension string) (string, error) {
	lock := s.lockFor(owner)
	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	_, existed := s.records[owner][handle]
	s.mu.RUnlock()
	if !existed {
		return "", apperr.New(apperr.NotFound, nil)
	}

	newHandleVal := newHandle()
	absPath := filepath.Join(s.root, string(owner)+"_"+newHandleVal+extension)
	tmp := absPath + ".tmp"

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return "", classifyWriteErr(err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", classifyWriteErr(err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", apperr.New(apperr.IOError, err)
	}
	if err := os.Rename(tmp, absPath); err != nil {
		os.Remove(tmp)
		return "", apperr.New(apperr.IOError, err)
	}

	s.mu.Lock()
	oldPath := s.records[owner][handle].path
	delete(s.records[owner], handle)
	s.records[owner][newHandleVal] = record{ownerID: owner, path: absPath, createdAt: time.Now()}
	s.mu.Unlock()

	os.Remove(oldPath)

	return newHandleVal, nil
}

// Delete removes handle. It is idempotent: deleting an absent handle
// succeeds silently (invariant I4).
func (s *Store) Delete(owner ownerid.ID, handle string) error {
	lock := s.lockFor(owner)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	rec, ok := s.records[owner][handle]
	if ok {
		delete(s.records[owner], handle)
	}
	s.mu.Unlock()

	if !ok {
		return nil
	}

	if err := os.Remove(rec.path); err != nil && !os.IsNotExist(err) {
		return apperr.New(apperr.IOError, err)
	}
	return nil
}

// OnTerminate best-effort removes every live file. Called on shutdown.
func (s *Store) OnTerminate() {
	s.mu.Lock()
	all := s.records
	s.records = make(map[ownerid.ID]map[string]record)
	s.mu.Unlock()

	for _, owned := range all {
		for _, rec := range owned {
			os.Remove(rec.path)
		}
	}
}

func classifyWriteErr(err error) error {
	if errors.Is(err, syscall.ENOSPC) {
		return apperr.New(apperr.IOError, err).WithHint("storage-full")
	}
	return apperr.New(apperr.IOError, err)
}
