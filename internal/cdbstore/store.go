// Package cdbstore wraps a read-only BadgerDB instance as the opaque
// key/value collaborator the lookup engine reads canonical binary-FEN
// keys from. It never writes: the database is built and populated by a
// separate offline job, and this package only ever opens it for
// concurrent reads.
package cdbstore

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// Store is a read-only handle onto a prebuilt key/value database. All
// methods are safe for concurrent use by multiple goroutines.
type Store struct {
	db *badger.DB
}

// Options configures how the underlying database is opened.
type Options struct {
	// Path is the directory containing the prebuilt database.
	Path string
	// ReadOnly opens the database without acquiring the write lock a
	// normal Open would take, so multiple processes can share one
	// on-disk database. Badger still requires the usual value-log
	// files to be present and consistent.
	ReadOnly bool
	// BlockCacheMB bounds the block cache Badger keeps for compressed
	// table blocks, trading memory for read latency.
	BlockCacheMB int64
	// NumCompactors sizes Badger's background compaction pool. Set to
	// a small number for a read-only store since no writes ever
	// trigger compaction here; left at Badger's default when zero.
	NumCompactors int
}

// Open opens the database described by opts.
func Open(opts Options) (*Store, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("cdbstore: empty path")
	}

	bopts := badger.DefaultOptions(opts.Path)
	bopts.Logger = nil
	bopts.ReadOnly = opts.ReadOnly
	if opts.BlockCacheMB > 0 {
		bopts.BlockCacheSize = opts.BlockCacheMB << 20
	}
	if opts.NumCompactors > 0 {
		bopts.NumCompactors = opts.NumCompactors
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("cdbstore: open %s: %w", opts.Path, err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// PinnedValue is a value read from the store. GetPinned and MultiGet
// fill it with ValueCopy, so its bytes stay valid after the read
// transaction ends and Release is a no-op kept for symmetry with the
// pinned-read API the store models; callers that want to avoid a copy
// on the hot path should prefer WithValue.
type PinnedValue struct {
	data []byte
}

// Bytes returns the value's bytes. The slice is owned by the
// PinnedValue and must not be retained past a call to Release.
func (p PinnedValue) Bytes() []byte {
	return p.data
}

// NewPinnedValue wraps raw bytes as a PinnedValue, for fakes that
// implement the engine-facing Store interface without a real Badger
// instance behind them.
func NewPinnedValue(data []byte) PinnedValue {
	return PinnedValue{data: data}
}

// Release is a no-op; see PinnedValue.
func (p PinnedValue) Release() {}

// GetPinned fetches the value stored under key. The second return
// value is false if the key is absent, in which case err is nil.
func (s *Store) GetPinned(key []byte) (PinnedValue, bool, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return PinnedValue{}, false, fmt.Errorf("cdbstore: get: %w", err)
	}
	if out == nil {
		return PinnedValue{}, false, nil
	}
	return PinnedValue{data: out}, true, nil
}

// WithValue calls fn with the value stored under key without copying
// it, for callers on a hot path who can finish using the bytes before
// fn returns. found is false if the key is absent, in which case fn is
// not called.
func (s *Store) WithValue(key []byte, fn func(val []byte) error) (found bool, err error) {
	txErr := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(fn)
	})
	if txErr != nil {
		return false, fmt.Errorf("cdbstore: with value: %w", txErr)
	}
	return found, nil
}

// Result is one key's outcome from a MultiGet batch.
type Result struct {
	Value PinnedValue
	Found bool
	Err   error
}

// MultiGet fetches every key in a single read transaction, so the
// batch observes one consistent snapshot of the database. Each key
// resolves independently: a missing key sets Found false with a nil
// Err, and a read failure on one key never aborts the others.
func (s *Store) MultiGet(keys [][]byte) ([]Result, error) {
	results := make([]Result, len(keys))
	err := s.db.View(func(txn *badger.Txn) error {
		for i, key := range keys {
			item, err := txn.Get(key)
			if err == badger.ErrKeyNotFound {
				continue
			}
			if err != nil {
				results[i].Err = err
				continue
			}
			val, err := item.ValueCopy(nil)
			if err != nil {
				results[i].Err = err
				continue
			}
			results[i] = Result{Value: PinnedValue{data: val}, Found: true}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cdbstore: multi get: %w", err)
	}
	return results, nil
}
