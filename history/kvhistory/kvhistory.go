// Package kvhistory implements run history in a Badger database.
package kvhistory

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/zephyrtronium/voxe/history"
)

/*
Key structure:
- Runs: "run\x00" × start × ID, value is the encoded report.
	Start is the Unix nanosecond time as big-endian uint64 with the sign bit
	flipped, so that keys sort by time.
- Index: "rid\x00" × ID, value is the run key. Used to replace reports
	recorded again under the same ID.
*/

var (
	runPrefix = []byte("run\x00")
	idPrefix  = []byte("rid\x00")
)

// Store is a run history in a Badger database.
type Store struct {
	db *badger.DB
}

var _ history.Store = (*Store)(nil)

// New returns a history store within the given database.
// The db must remain open for the lifetime of the store.
func New(db *badger.DB) *Store {
	return &Store{db: db}
}

func runKey(r *history.Report) []byte {
	b := make([]byte, 0, len(runPrefix)+8+len(r.ID))
	b = append(b, runPrefix...)
	b = binary.BigEndian.AppendUint64(b, uint64(r.Start.UnixNano())^(1<<63))
	b = append(b, r.ID[:]...)
	return b
}

func idKey(r *history.Report) []byte {
	b := make([]byte, 0, len(idPrefix)+len(r.ID))
	b = append(b, idPrefix...)
	b = append(b, r.ID[:]...)
	return b
}

// Record saves a report. Recording the same ID twice replaces the report.
func (s *Store) Record(ctx context.Context, r *history.Report) error {
	v, err := history.Marshal(r)
	if err != nil {
		return fmt.Errorf("couldn't encode report: %w", err)
	}
	rk, ik := runKey(r), idKey(r)
	err = s.db.Update(func(txn *badger.Txn) error {
		old, err := txn.Get(ik)
		switch {
		case err == nil:
			k, err := old.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("couldn't read index for %v: %w", r.ID, err)
			}
			if err := txn.Delete(k); err != nil {
				return err
			}
		case errors.Is(err, badger.ErrKeyNotFound): // do nothing
		default:
			return fmt.Errorf("couldn't look up index for %v: %w", r.ID, err)
		}
		if err := txn.Set(ik, rk); err != nil {
			return err
		}
		return txn.Set(rk, v)
	})
	if err != nil {
		return fmt.Errorf("couldn't commit report: %w", err)
	}
	return nil
}

// Recent returns up to n reports, most recent first.
func (s *Store) Recent(ctx context.Context, n int) ([]history.Report, error) {
	if n <= 0 {
		return nil, nil
	}
	var r []history.Report
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = runPrefix
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()
		// Reverse iteration starts at the last key not after the seek key.
		seek := append(append([]byte{}, runPrefix...), 0xff)
		var b []byte
		for it.Seek(seek); it.ValidForPrefix(runPrefix) && len(r) < n; it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var err error
			b, err = it.Item().ValueCopy(b[:0])
			if err != nil {
				return fmt.Errorf("couldn't get report %q: %w", it.Item().Key(), err)
			}
			var rep history.Report
			if err := history.Unmarshal(b, &rep); err != nil {
				return fmt.Errorf("couldn't decode report: %w", err)
			}
			r = append(r, rep)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}
