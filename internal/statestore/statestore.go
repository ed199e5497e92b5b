// Package statestore defines the StateStore port (spec §6: "Persisted
// state... per-owner FSM rows persisted in an external key/value store")
// and a github.com/tidwall/buntdb-backed implementation.
package statestore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tidwall/buntdb"

	"github.com/innohassle/printhub/internal/apperr"
	"github.com/innohassle/printhub/internal/ownerid"
)

// Store persists one opaque row per owner, keyed by owner id.
type Store interface {
	Load(ctx context.Context, owner ownerid.ID, into any) (found bool, err error)
	Save(ctx context.Context, owner ownerid.ID, row any) error
	Delete(ctx context.Context, owner ownerid.ID) error
}

const keyPrefix = "convoy:"

// BuntStore is a Store backed by an embedded buntdb database file.
type BuntStore struct {
	db *buntdb.DB
}

// Open opens (creating if absent) the buntdb file at path.
func Open(path string) (*BuntStore, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, apperr.New(apperr.IOError, err)
	}
	return &BuntStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BuntStore) Close() error {
	return s.db.Close()
}

func key(owner ownerid.ID) string {
	return keyPrefix + string(owner)
}

// Load decodes the owner's row into into. found is false when no row is
// stored yet (not an error).
func (s *BuntStore) Load(_ context.Context, owner ownerid.ID, into any) (bool, error) {
	var raw string
	err := s.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(key(owner))
		if err != nil {
			return err
		}
		raw = v
		return nil
	})
	if err == buntdb.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, apperr.New(apperr.IOError, err)
	}

	if err := json.Unmarshal([]byte(raw), into); err != nil {
		return false, apperr.New(apperr.IOError, fmt.Errorf("statestore: decode: %w", err))
	}
	return true, nil
}

// Save overwrites the owner's row.
func (s *BuntStore) Save(_ context.Context, owner ownerid.ID, row any) error {
	data, err := json.Marshal(row)
	if err != nil {
		return apperr.New(apperr.IOError, fmt.Errorf("statestore: encode: %w", err))
	}

	err = s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key(owner), string(data), nil)
		return err
	})
	if err != nil {
		return apperr.New(apperr.IOError, err)
	}
	return nil
}

// Delete removes the owner's row. Idempotent: a missing row is success.
func (s *BuntStore) Delete(_ context.Context, owner ownerid.ID) error {
	err := s.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(key(owner))
		if err == buntdb.ErrNotFound {
			return nil
		}
		return err
	})
	if err != nil {
		return apperr.New(apperr.IOError, err)
	}
	return nil
}
