package store

import (
	"flag"
	"log"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestPutList(t *testing.T) {
	t.Parallel()
	dir, err := os.MkdirTemp("", "")
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer os.RemoveAll(dir)

	dbPath := filepath.Join(dir, "results.db")
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("%+v", err)
	}

	// Insert out of temperature order, across two system sizes.
	recs := []Record{
		{L: 8, T: 2.5, C: 1.1, Chi: 3.2, U4: 0.45, EMean: -1.3, MMean: 0.4},
		{L: 8, T: 2.0, C: 0.8, Chi: 1.1, U4: 0.64, EMean: -1.75, MMean: 0.9},
		{L: 12, T: 2.2, C: 1.5, Chi: 5.0, U4: 0.60, EMean: -1.5, MMean: 0.7},
		{L: 8, T: 2.2, C: 1.6, Chi: 4.4, U4: 0.61, EMean: -1.55, MMean: 0.75},
	}
	for _, rec := range recs {
		if err := db.Put(rec); err != nil {
			t.Fatalf("%+v", err)
		}
	}
	// Replacement at the same key.
	if err := db.Put(Record{L: 8, T: 2.0, C: 0.9, Chi: 1.2, U4: 0.65, EMean: -1.7, MMean: 0.88}); err != nil {
		t.Fatalf("%+v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("%+v", err)
	}

	// Reopen to check persistence.
	db, err = Open(dbPath)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer db.Close()

	sizes, err := db.Sizes()
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !(len(sizes) == 2 && sizes[0] == 8 && sizes[1] == 12) {
		t.Fatalf("%#v", sizes)
	}

	got, err := db.List(8)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	want := []Record{
		{L: 8, T: 2.0, C: 0.9, Chi: 1.2, U4: 0.65, EMean: -1.7, MMean: 0.88},
		{L: 8, T: 2.2, C: 1.6, Chi: 4.4, U4: 0.61, EMean: -1.55, MMean: 0.75},
		{L: 8, T: 2.5, C: 1.1, Chi: 3.2, U4: 0.45, EMean: -1.3, MMean: 0.4},
	}
	if len(got) != len(want) {
		t.Fatalf("%d, expected %d", len(got), len(want))
	}
	for i, rec := range got {
		if rec != want[i] {
			t.Fatalf("%d %#v, expected %#v", i, rec, want[i])
		}
	}

	empty, err := db.List(16)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("%#v", empty)
	}
}

// TestPutListNaN checks that a degenerate run's NaN Binder cumulant survives
// a round trip through the database.
func TestPutListNaN(t *testing.T) {
	t.Parallel()
	dir, err := os.MkdirTemp("", "")
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer os.RemoveAll(dir)

	db, err := Open(filepath.Join(dir, "results.db"))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer db.Close()

	rec := Record{L: 4, T: 2.0, C: 0.5, Chi: 0.1, U4: math.NaN(), EMean: -1.9, MMean: 0.01}
	if err := db.Put(rec); err != nil {
		t.Fatalf("%+v", err)
	}

	got, err := db.List(4)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if len(got) != 1 {
		t.Fatalf("%d, expected 1", len(got))
	}
	if !math.IsNaN(got[0].U4) {
		t.Fatalf("%f", got[0].U4)
	}
	rec.U4, got[0].U4 = 0, 0
	if got[0] != rec {
		t.Fatalf("%#v, expected %#v", got[0], rec)
	}
}

func TestMain(m *testing.M) {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)

	m.Run()
}
