package durable

import (
	"errors"

	"github.com/cockroachdb/pebble"
	"github.com/go-logr/logr"

	"github.com/l7mp/ddflow/pkg/trace"
)

// Options configures a Store.
type Options struct {
	// Dir is the directory of the Pebble database.
	Dir string
	// NoSync disables syncing the WAL on every write.
	NoSync bool
	// PebbleOptions allows tuning Pebble. If nil, defaults are used.
	PebbleOptions *pebble.Options
	Logger        logr.Logger
}

// Store keeps named artifacts in a Pebble database.
type Store struct {
	db        *pebble.DB
	writeOpts *pebble.WriteOptions
	log       logr.Logger
}

// Open creates or opens an artifact store.
func Open(opts Options) (*Store, error) {
	if opts.Dir == "" {
		return nil, newStoreError("open", "", errors.New("Options.Dir is required"))
	}
	logger := opts.Logger
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}

	po := opts.PebbleOptions
	if po == nil {
		po = &pebble.Options{}
	}
	db, err := pebble.Open(opts.Dir, po)
	if err != nil {
		return nil, newStoreError("open", opts.Dir, err)
	}

	writeOpts := pebble.Sync
	if opts.NoSync {
		writeOpts = pebble.NoSync
	}

	s := &Store{db: db, writeOpts: writeOpts, log: logger.WithName("durable-store")}
	s.log.V(1).Info("opened artifact store", "dir", opts.Dir)
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return newStoreError("close", "", err)
	}
	return nil
}

// Put stores an artifact. Existing artifacts are never overwritten.
func (s *Store) Put(name string, data []byte) error {
	key := []byte(name)
	_, closer, err := s.db.Get(key)
	switch {
	case err == nil:
		closer.Close()
		return newStoreError("put", name, errors.New("artifact exists"))
	case !errors.Is(err, pebble.ErrNotFound):
		return newStoreError("put", name, err)
	}

	if err := s.db.Set(key, data, s.writeOpts); err != nil {
		return newStoreError("put", name, err)
	}
	s.log.V(4).Info("stored artifact", "name", name, "bytes", len(data))
	return nil
}

// Get returns a copy of an artifact.
func (s *Store) Get(name string) ([]byte, error) {
	val, closer, err := s.db.Get([]byte(name))
	if err != nil {
		return nil, newStoreError("get", name, err)
	}
	defer closer.Close()
	return append([]byte(nil), val...), nil
}

// List returns the names of the artifacts of a batch identifier, oldest first.
func (s *Store) List(id trace.BatchIdentifier) ([]string, error) {
	prefix := []byte(artifactPrefixFor(id))
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: prefixUpperBound(prefix)})
	if err != nil {
		return nil, newStoreError("list", string(prefix), err)
	}
	defer iter.Close()

	var names []string
	for valid := iter.First(); valid; valid = iter.Next() {
		names = append(names, string(iter.Key()))
	}
	if err := iter.Error(); err != nil {
		return nil, newStoreError("list", string(prefix), err)
	}
	return names, nil
}

// Delete removes the artifacts of a batch identifier.
func (s *Store) Delete(id trace.BatchIdentifier) error {
	prefix := []byte(artifactPrefixFor(id))
	if err := s.db.DeleteRange(prefix, prefixUpperBound(prefix), s.writeOpts); err != nil {
		return newStoreError("delete", string(prefix), err)
	}
	return nil
}

// prefixUpperBound returns the smallest key greater than every key with the given prefix.
func prefixUpperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
