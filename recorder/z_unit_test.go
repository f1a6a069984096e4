package recorder

import "testing"

func TestRecordAndMerge(t *testing.T) {
	exp := []float64{1, 3}
	a, err := NewDrawRecorder("m", exp)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := NewDrawRecorder("m", exp)
	a.Record(0)
	a.RecordAll([]int{1, 1})
	b.RecordAll([]int{1, 0, 1})

	m, err := MergeDrawRecorder([]*DrawRecorder{a, b})
	if err != nil {
		t.Fatal(err)
	}
	if m.Draws != 6 || m.Counts[0] != 2 || m.Counts[1] != 4 {
		t.Fatalf("merged %+v", m)
	}
	f, err := m.Done()
	if err != nil {
		t.Fatal(err)
	}
	if f.Summary.Draws != 6 || f.Outcomes[1].Expected != 0.75 {
		t.Fatalf("report %+v", f.Summary)
	}

	a.Reset()
	if a.Draws != 0 || a.Counts[1] != 0 {
		t.Fatalf("reset failed")
	}
}

func TestMergeMismatch(t *testing.T) {
	a, _ := NewDrawRecorder("a", []float64{1})
	b, _ := NewDrawRecorder("b", []float64{1})
	if _, err := MergeDrawRecorder([]*DrawRecorder{a, b}); err == nil {
		t.Fatalf("expected name mismatch error")
	}
	c, _ := NewDrawRecorder("a", []float64{1, 1})
	if _, err := MergeDrawRecorder([]*DrawRecorder{a, c}); err == nil {
		t.Fatalf("expected size mismatch error")
	}
	if _, err := MergeDrawRecorder(nil); err == nil {
		t.Fatalf("expected empty error")
	}
}
