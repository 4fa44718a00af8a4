package trading

import "testing"

func TestOrderSet(t *testing.T) {
	s := NewOrderSet()
	s.Track(OpenOrder{OrderID: "b", Ticker: "T2", Side: "no"})
	s.Track(OpenOrder{OrderID: "a", Ticker: "T1", Side: "yes"})
	s.Track(OpenOrder{Ticker: "ignored"})

	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
	if !s.Owns("a") || s.Owns("zzz") {
		t.Error("Owns mismatch")
	}
	if o, ok := s.Get("b"); !ok || o.Ticker != "T2" {
		t.Errorf("Get(b) = %+v, %v", o, ok)
	}

	orders := s.Orders()
	if orders[0].OrderID != "a" || orders[1].OrderID != "b" {
		t.Errorf("Orders not sorted: %+v", orders)
	}

	s.Remove("a")
	if s.Owns("a") {
		t.Error("a still owned after Remove")
	}

	cleared := s.Clear()
	if len(cleared) != 1 || cleared[0].OrderID != "b" {
		t.Errorf("Clear returned %+v", cleared)
	}
	if s.Len() != 0 {
		t.Errorf("Len after Clear = %d", s.Len())
	}
}

func TestProcessedSet(t *testing.T) {
	p := NewProcessedSet()
	if !p.Mark("x") {
		t.Error("first Mark should report new")
	}
	if p.Mark("x") {
		t.Error("second Mark should report seen")
	}
	if !p.Seen("x") || p.Seen("y") {
		t.Error("Seen mismatch")
	}
}

func TestInstrumentState(t *testing.T) {
	s := NewInstrumentState("T")
	s.RecordFill(5, 42)
	s.RecordFill(3, 0)

	if s.TotalFilled != 8 {
		t.Errorf("TotalFilled = %d, want 8", s.TotalFilled)
	}
	if s.LastFillPrice != 42 {
		t.Errorf("LastFillPrice = %d, want 42", s.LastFillPrice)
	}
	if got := s.Remaining(10); got != 2 {
		t.Errorf("Remaining(10) = %d, want 2", got)
	}
	if got := s.Remaining(5); got != 0 {
		t.Errorf("Remaining(5) = %d, want 0", got)
	}

	s.Pause("max_shares reached")
	if !s.Paused || s.PauseReason != "max_shares reached" {
		t.Errorf("state = %+v", s)
	}
}
