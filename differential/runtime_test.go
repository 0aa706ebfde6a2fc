package differential

import (
	"testing"

	"github.com/boonlang/boon"
)

func TestRuntimeInjectThenReadAfterTick(t *testing.T) {
	r := NewRuntime()
	slot := boon.SlotId{Index: 1, Generation: 0}
	port := boon.Port{Kind: boon.PortOutput}

	r.Inject(slot, port, boon.NumberPayload(42))
	res := r.Tick()
	if !res.Quiescent {
		t.Fatalf("Tick() = %+v; want Quiescent", res)
	}

	v, ok := r.Read(slot)
	if !ok {
		t.Fatal("Read(slot) not ok after injecting and ticking")
	}
	if v != boon.NumberPayload(42) {
		t.Fatalf("Read(slot) = %v; want 42", v)
	}
}

func TestRuntimeSnapshotRoundTrip(t *testing.T) {
	r := NewRuntime()
	slot := boon.SlotId{Index: 2, Generation: 0}
	port := boon.Port{Kind: boon.PortOutput}
	r.Inject(slot, port, boon.TextPayload("hello"))
	if res := r.Tick(); !res.Quiescent {
		t.Fatalf("Tick() = %+v; want Quiescent", res)
	}

	snap := r.Snapshot()

	r2 := NewRuntime()
	if err := r2.Restore(snap); err != nil {
		t.Fatalf("Restore returned error: %v", err)
	}
	v, ok := r2.Read(slot)
	if !ok || v != boon.TextPayload("hello") {
		t.Fatalf("Read(slot) after Restore = %v, %v; want hello, true", v, ok)
	}
}

func TestRuntimeReadMissingSlotIsNotOK(t *testing.T) {
	r := NewRuntime()
	if _, ok := r.Read(boon.SlotId{Index: 99, Generation: 0}); ok {
		t.Fatal("Read on a never-injected slot reported ok")
	}
}
