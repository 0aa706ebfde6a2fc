package differential

import "testing"

func drain(t *testing.T, out <-chan KeyedDiff) []KeyedDiff {
	t.Helper()
	var got []KeyedDiff
	for {
		select {
		case d := <-out:
			got = append(got, d)
		default:
			return got
		}
	}
}

func TestRetainOperatorFiltersByPredicate(t *testing.T) {
	in := make(chan KeyedDiff, 4)
	in <- KeyedDiff{Key: "a", Value: 4, Diff: 1}
	in <- KeyedDiff{Key: "b", Value: 3, Diff: 1}
	op := NewRetainOperator("even", in, func(v interface{}) bool { return v.(int)%2 == 0 })
	op.Step()
	got := drain(t, op.Output())
	if len(got) != 1 || got[0].Key != "a" {
		t.Fatalf("got %+v; want only key a to survive", got)
	}
}

func TestMapOperatorTransformsValuePreservingKey(t *testing.T) {
	in := make(chan KeyedDiff, 1)
	in <- KeyedDiff{Key: "x", Value: 2, Diff: 1, Timestamp: 5}
	op := NewMapOperator("double", in, func(v interface{}) interface{} { return v.(int) * 2 })
	op.Step()
	got := drain(t, op.Output())
	if len(got) != 1 || got[0].Value != 4 || got[0].Key != "x" || got[0].Timestamp != 5 {
		t.Fatalf("got %+v; want {x 4 _ 5}", got)
	}
}

func TestCountOperatorTracksLiveKeyCount(t *testing.T) {
	in := make(chan KeyedDiff, 8)
	op := NewCountOperator("count", in, "total")

	in <- KeyedDiff{Key: "a", Diff: 1}
	op.Step()
	got := drain(t, op.Output())
	if len(got) != 1 || got[0].Value != 1 {
		t.Fatalf("after one insert, got %+v; want count 1", got)
	}

	in <- KeyedDiff{Key: "b", Diff: 1}
	op.Step()
	got = drain(t, op.Output())
	if len(got) != 1 || got[0].Value != 2 {
		t.Fatalf("after two inserts, got %+v; want count 2", got)
	}

	in <- KeyedDiff{Key: "a", Diff: -1}
	op.Step()
	got = drain(t, op.Output())
	if len(got) != 1 || got[0].Value != 1 {
		t.Fatalf("after removing a, got %+v; want count 1", got)
	}
}

func TestCountOperatorDuplicateInsertIsNotDoubleCounted(t *testing.T) {
	in := make(chan KeyedDiff, 2)
	op := NewCountOperator("count", in, "total")
	in <- KeyedDiff{Key: "a", Diff: 1}
	in <- KeyedDiff{Key: "a", Diff: 1}
	op.Step()
	got := drain(t, op.Output())
	if len(got) != 1 || got[0].Value != 1 {
		t.Fatalf("got %+v; want a single emission at count 1", got)
	}
}

func TestAppendOperatorForcesPositiveDiff(t *testing.T) {
	in := make(chan KeyedDiff, 1)
	in <- KeyedDiff{Key: "item-1", Value: "hi", Diff: -1}
	op := NewAppendOperator("append", in)
	op.Step()
	got := drain(t, op.Output())
	if len(got) != 1 || got[0].Diff != 1 {
		t.Fatalf("got %+v; want Diff forced to +1", got)
	}
}

func TestRemoveOperatorForcesNegativeDiff(t *testing.T) {
	in := make(chan KeyedDiff, 1)
	in <- KeyedDiff{Key: "item-1", Value: "hi", Diff: 1}
	op := NewRemoveOperator("remove", in)
	op.Step()
	got := drain(t, op.Output())
	if len(got) != 1 || got[0].Diff != -1 {
		t.Fatalf("got %+v; want Diff forced to -1", got)
	}
}

func TestHoldStateOperatorLatchesMostRecentValue(t *testing.T) {
	in := make(chan KeyedDiff, 2)
	op := NewHoldStateOperator("held", in, "state", nil)
	if _, ok := op.Value(); ok {
		t.Fatalf("Value() ok before any insert")
	}

	in <- KeyedDiff{Key: "ignored", Value: "first", Diff: 1}
	op.Step()
	v, ok := op.Value()
	if !ok || v != "first" {
		t.Fatalf("Value() = %v, %v; want first, true", v, ok)
	}

	in <- KeyedDiff{Key: "ignored", Value: "second", Diff: 1}
	op.Step()
	v, ok = op.Value()
	if !ok || v != "second" {
		t.Fatalf("Value() after second insert = %v, %v; want second, true", v, ok)
	}
}

func TestHoldStateOperatorIgnoresRetractions(t *testing.T) {
	in := make(chan KeyedDiff, 2)
	op := NewHoldStateOperator("held", in, "state", "seed")
	in <- KeyedDiff{Value: "retracted", Diff: -1}
	op.Step()
	v, ok := op.Value()
	if !ok || v != "seed" {
		t.Fatalf("Value() after a retraction = %v, %v; want seed (unchanged), true", v, ok)
	}
}

func TestKeyedHoldStateOperatorTracksPerKeyState(t *testing.T) {
	in := make(chan KeyedDiff, 4)
	op := NewKeyedHoldStateOperator("fields", in)

	in <- KeyedDiff{Key: "name", Value: "ada", Diff: 1}
	in <- KeyedDiff{Key: "age", Value: 36, Diff: 1}
	op.Step()

	snap := op.Snapshot()
	if snap["name"] != "ada" || snap["age"] != 36 {
		t.Fatalf("Snapshot() = %+v; want name=ada age=36", snap)
	}

	in <- KeyedDiff{Key: "name", Value: "ada", Diff: -1}
	op.Step()
	snap = op.Snapshot()
	if _, ok := snap["name"]; ok {
		t.Fatalf("Snapshot() still has name after its removal: %+v", snap)
	}
	if snap["age"] != 36 {
		t.Fatalf("Snapshot() lost an unrelated key: %+v", snap)
	}
}
