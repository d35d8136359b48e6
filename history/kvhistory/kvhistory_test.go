package kvhistory_test

import (
	"context"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/zephyrtronium/voxe/history"
	"github.com/zephyrtronium/voxe/history/historytest"
	"github.com/zephyrtronium/voxe/history/kvhistory"
)

func testDB(t *testing.T) *badger.DB {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStore(t *testing.T) {
	historytest.Test(context.Background(), t, func(ctx context.Context) history.Store {
		return kvhistory.New(testDB(t))
	})
}

func TestBeforeEpoch(t *testing.T) {
	ctx := context.Background()
	s := kvhistory.New(testDB(t))
	old := &history.Report{ID: uuid.New(), Start: time.Unix(-100, 0).UTC()}
	now := &history.Report{ID: uuid.New(), Start: time.Unix(100, 0).UTC()}
	for _, r := range []*history.Report{now, old} {
		if err := s.Record(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	r, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(r) != 2 || r[0].ID != now.ID || r[1].ID != old.ID {
		t.Errorf("times before the epoch sort wrong: %+v", r)
	}
}
