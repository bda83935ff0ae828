// Public domain.

package regionstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/soniakeys/gwmoc/healpix"
	"github.com/soniakeys/gwmoc/internal/regionstore"
	"github.com/soniakeys/gwmoc/moc"
)

func newStore(t *testing.T) *regionstore.SQLiteStore {
	db, err := regionstore.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	s, err := regionstore.NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	return s
}

func mustMOC(t *testing.T, order int, ix ...uint64) *moc.MOC {
	cs := make([]healpix.Cell, len(ix))
	for i, x := range ix {
		cs[i] = healpix.Cell{Order: order, Index: x}
	}
	m, err := moc.New(order, cs...)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestPutGetListDelete(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	a50 := mustMOC(t, 3, 1, 2, 3)
	a90 := mustMOC(t, 3, 1, 2, 3, 4, 5, 6, 40)
	b90 := mustMOC(t, 4, 30)
	err := s.Put(ctx,
		regionstore.Record{Event: "S190425z", Pipeline: "bayestar", Level: .5, MOC: a50},
		regionstore.Record{Event: "S190425z", Pipeline: "bayestar", Level: .9, MOC: a90},
		regionstore.Record{Event: "S190425z", Pipeline: "lalinference", Level: .9, MOC: b90},
		regionstore.Record{Event: "S200105ae", Pipeline: "bayestar", Level: .9, MOC: b90},
	)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := s.Get(ctx, "S190425z", "bayestar", .9)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !got.Equal(a90) {
		t.Errorf("Get = %v, want %v", got, a90)
	}

	es, err := s.List(ctx, "S190425z")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(es) != 3 {
		t.Fatalf("List returned %d entries, want 3", len(es))
	}
	if es[0].Level != .5 || es[2].Pipeline != "lalinference" || es[2].MaxOrder != 4 {
		t.Errorf("List = %+v", es)
	}
	if es[1].SqDegrees != a90.SquareDegrees() {
		t.Errorf("area %g, want %g", es[1].SqDegrees, a90.SquareDegrees())
	}
	if all, _ := s.List(ctx, ""); len(all) != 4 {
		t.Errorf("List all returned %d entries, want 4", len(all))
	}

	// replace
	if err := s.Put(ctx, regionstore.Record{Event: "S190425z", Pipeline: "bayestar", Level: .9, MOC: a50}); err != nil {
		t.Fatalf("Put replace failed: %v", err)
	}
	if got, _ := s.Get(ctx, "S190425z", "bayestar", .9); !got.Equal(a50) {
		t.Errorf("after replace Get = %v", got)
	}

	if err := s.Delete(ctx, "S190425z", "bayestar", .5); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get(ctx, "S190425z", "bayestar", .5); !errors.Is(err, regionstore.ErrNotFound) {
		t.Errorf("Get after Delete: %v", err)
	}
	if err := s.Delete(ctx, "S190425z", "bayestar", .5); !errors.Is(err, regionstore.ErrNotFound) {
		t.Errorf("second Delete: %v", err)
	}
}

func TestPutNil(t *testing.T) {
	s := newStore(t)
	err := s.Put(context.Background(),
		regionstore.Record{Event: "e", Pipeline: "p", Level: .9, MOC: mustMOC(t, 1, 4)},
		regionstore.Record{Event: "e", Pipeline: "p", Level: .5})
	if err == nil {
		t.Fatal("Put with nil MOC succeeded")
	}
	// the transaction was rolled back
	if es, _ := s.List(context.Background(), "e"); len(es) != 0 {
		t.Fatalf("List after failed Put = %+v", es)
	}
}
