package tracking

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "journal", "actions.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_InsertAndCount(t *testing.T) {
	s := openTestStore(t)

	id1, err := s.Insert(Action{Engine: "mm", Kind: KindFill, Ticker: "T", Side: "yes", Count: 5, TotalFilled: IntPtr(5)})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	id2, err := s.Insert(Action{Engine: "combined", Kind: KindConditionFails, Combined: IntPtr(101)})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if id2 <= id1 {
		t.Errorf("row ids not increasing: %d then %d", id1, id2)
	}

	if n, _ := s.Count(""); n != 2 {
		t.Errorf("Count(all) = %d, want 2", n)
	}
	if n, _ := s.Count(KindFill); n != 1 {
		t.Errorf("Count(fill) = %d, want 1", n)
	}
	if n, _ := s.Count(KindPause); n != 0 {
		t.Errorf("Count(pause) = %d, want 0", n)
	}
}

func TestStore_ReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actions.db")
	s, err := OpenStore(path)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	s.Insert(Action{Engine: "mm", Kind: KindRepost})
	s.Close()

	s, err = OpenStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if s.rowCount != 1 {
		t.Errorf("rowCount after reopen = %d, want 1", s.rowCount)
	}
}

func TestStore_EvictsOldestWhenOverBudget(t *testing.T) {
	s := openTestStore(t)
	for i := 0; i < 10; i++ {
		if _, err := s.Insert(Action{Engine: "mm", Kind: KindOrderPlaced, Count: i}); err != nil {
			t.Fatalf("Insert %d: %v", i, err)
		}
	}

	s.maxBytes = 1
	if _, err := s.Insert(Action{Engine: "mm", Kind: KindOrderPlaced, Count: 10}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if n, _ := s.Count(""); n != 10 {
		t.Errorf("Count after evict = %d, want 10", n)
	}
	var oldest int
	s.db.QueryRow(`SELECT qty FROM engine_actions ORDER BY id ASC LIMIT 1`).Scan(&oldest)
	if oldest != 1 {
		t.Errorf("oldest remaining count = %d, want 1", oldest)
	}
}

func TestTracker_NilSafeAndStamped(t *testing.T) {
	var nilTracker *Tracker
	nilTracker.Track(Action{Kind: KindFill})

	if NewTracker(nil, "mm") != nil {
		t.Error("NewTracker(nil) should return nil")
	}

	s := openTestStore(t)
	tr := NewTracker(s, "marketmaking")
	tr.Track(Action{Kind: KindPause, Ticker: "T", Detail: "max_shares reached (20)"})

	var engine, detail string
	if err := s.db.QueryRow(`SELECT engine, detail FROM engine_actions`).Scan(&engine, &detail); err != nil {
		t.Fatalf("query: %v", err)
	}
	if engine != "marketmaking" || detail != "max_shares reached (20)" {
		t.Errorf("row = %q / %q", engine, detail)
	}
}
