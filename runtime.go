package boon

// Runtime is the common surface both execution backends expose: the
// arena-based Engine in this package, and the differential package's
// keyed-collection engine. NewEngine does not read Config.Backend and
// always builds the arena Engine; a host wanting the differential backend
// constructs differential.NewRuntime itself and then programs against
// this interface.
type Runtime interface {
	Tick() TickResult
	Inject(slot SlotId, port Port, payload Payload)
	Read(slot SlotId) (Payload, bool)
	Snapshot() Snapshot
	Restore(Snapshot) error
}

// Read satisfies Runtime; it is the same lookup as GetCurrentValue, named
// to match the interface the differential backend also implements.
func (e *Engine) Read(slot SlotId) (Payload, bool) { return e.GetCurrentValue(slot) }

// Snapshot satisfies Runtime.
func (e *Engine) Snapshot() Snapshot { return e.CreateSnapshot() }

// Restore satisfies Runtime.
func (e *Engine) Restore(s Snapshot) error { return e.RestoreSnapshot(s) }

var _ Runtime = (*Engine)(nil)
