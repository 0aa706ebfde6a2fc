package differential

// KeyedDiff is one incremental update flowing between operators: a value
// arriving or leaving a key at a timestamp. Keys are plain strings (the
// stable list-item identity, or a hold's name) rather than the engine's
// generational SlotId — the differential backend addresses state by name,
// not by arena slot.
type KeyedDiff struct {
	Key       string
	Value     interface{}
	Diff      int64
	Timestamp Timestamp
}

// Operator is one stage of a Graph: it consumes zero or more upstream
// channels and produces Output(), stepped forward one batch at a time by
// Graph.Step. Operators never block; Step drains whatever is currently
// buffered on their inputs and returns.
type Operator interface {
	Name() string
	Step()
	Output() <-chan KeyedDiff
}

// RetainOperator forwards only diffs whose value satisfies pred, mirroring
// a FilteredView's boolean condition but over a keyed collection instead
// of per-item condition slots.
type RetainOperator struct {
	name string
	in   <-chan KeyedDiff
	out  chan KeyedDiff
	pred func(interface{}) bool
}

// NewRetainOperator constructs a RetainOperator reading from in.
func NewRetainOperator(name string, in <-chan KeyedDiff, pred func(interface{}) bool) *RetainOperator {
	return &RetainOperator{name: name, in: in, out: make(chan KeyedDiff, 256), pred: pred}
}

func (o *RetainOperator) Name() string                { return o.name }
func (o *RetainOperator) Output() <-chan KeyedDiff     { return o.out }
func (o *RetainOperator) Step() {
	for {
		select {
		case d, ok := <-o.in:
			if !ok {
				return
			}
			if o.pred(d.Value) {
				o.out <- d
			}
		default:
			return
		}
	}
}

// MapOperator applies fn to every incoming value, preserving key/diff/
// timestamp, mirroring the arena's TextTemplate/Arithmetic-style pure
// transforms but over a keyed stream.
type MapOperator struct {
	name string
	in   <-chan KeyedDiff
	out  chan KeyedDiff
	fn   func(interface{}) interface{}
}

// NewMapOperator constructs a MapOperator reading from in.
func NewMapOperator(name string, in <-chan KeyedDiff, fn func(interface{}) interface{}) *MapOperator {
	return &MapOperator{name: name, in: in, out: make(chan KeyedDiff, 256), fn: fn}
}

func (o *MapOperator) Name() string            { return o.name }
func (o *MapOperator) Output() <-chan KeyedDiff { return o.out }
func (o *MapOperator) Step() {
	for {
		select {
		case d, ok := <-o.in:
			if !ok {
				return
			}
			d.Value = o.fn(d.Value)
			o.out <- d
		default:
			return
		}
	}
}

// CountOperator maintains a single running count of live keys, emitting a
// fresh KeyedDiff under a fixed key whenever the count changes. Mirrors
// the arena's ListCount node.
type CountOperator struct {
	name  string
	in    <-chan KeyedDiff
	out   chan KeyedDiff
	key   string
	live  map[string]bool
	count int
}

// NewCountOperator constructs a CountOperator whose output uses outputKey
// as its single key.
func NewCountOperator(name string, in <-chan KeyedDiff, outputKey string) *CountOperator {
	return &CountOperator{name: name, in: in, out: make(chan KeyedDiff, 16), key: outputKey, live: make(map[string]bool)}
}

func (o *CountOperator) Name() string            { return o.name }
func (o *CountOperator) Output() <-chan KeyedDiff { return o.out }
func (o *CountOperator) Step() {
	changed := false
	for {
		select {
		case d, ok := <-o.in:
			if !ok {
				if changed {
					o.out <- KeyedDiff{Key: o.key, Value: o.count, Diff: 1, Timestamp: d.Timestamp}
				}
				return
			}
			wasLive := o.live[d.Key]
			if d.Diff > 0 && !wasLive {
				o.live[d.Key] = true
				o.count++
				changed = true
			} else if d.Diff < 0 && wasLive {
				delete(o.live, d.Key)
				o.count--
				changed = true
			}
			if changed {
				o.out <- KeyedDiff{Key: o.key, Value: o.count, Diff: 1, Timestamp: d.Timestamp}
				changed = false
			}
		default:
			return
		}
	}
}

// AppendOperator relays every diff unchanged but additionally re-stamps
// its Diff to +1, modeling ListAppender: every element that reaches it is
// a new, permanent member of the output collection.
type AppendOperator struct {
	name string
	in   <-chan KeyedDiff
	out  chan KeyedDiff
}

// NewAppendOperator constructs an AppendOperator reading from in.
func NewAppendOperator(name string, in <-chan KeyedDiff) *AppendOperator {
	return &AppendOperator{name: name, in: in, out: make(chan KeyedDiff, 256)}
}

func (o *AppendOperator) Name() string            { return o.name }
func (o *AppendOperator) Output() <-chan KeyedDiff { return o.out }
func (o *AppendOperator) Step() {
	for {
		select {
		case d, ok := <-o.in:
			if !ok {
				return
			}
			d.Diff = 1
			o.out <- d
		default:
			return
		}
	}
}

// RemoveOperator relays a diff for key as a retraction (Diff -1), modeling
// a list's remove-by-key action.
type RemoveOperator struct {
	name string
	in   <-chan KeyedDiff
	out  chan KeyedDiff
}

// NewRemoveOperator constructs a RemoveOperator reading from in.
func NewRemoveOperator(name string, in <-chan KeyedDiff) *RemoveOperator {
	return &RemoveOperator{name: name, in: in, out: make(chan KeyedDiff, 256)}
}

func (o *RemoveOperator) Name() string            { return o.name }
func (o *RemoveOperator) Output() <-chan KeyedDiff { return o.out }
func (o *RemoveOperator) Step() {
	for {
		select {
		case d, ok := <-o.in:
			if !ok {
				return
			}
			d.Diff = -1
			o.out <- d
		default:
			return
		}
	}
}

// HoldStateOperator is the single-key analogue of the arena's Register: it
// remembers the most recent value seen on a fixed key across epochs and
// re-emits it, forming a level out of a stream of pulses.
type HoldStateOperator struct {
	name    string
	in      <-chan KeyedDiff
	out     chan KeyedDiff
	key     string
	current interface{}
	hasVal  bool
}

// NewHoldStateOperator constructs a HoldStateOperator seeded with initial.
func NewHoldStateOperator(name string, in <-chan KeyedDiff, key string, initial interface{}) *HoldStateOperator {
	h := &HoldStateOperator{name: name, in: in, out: make(chan KeyedDiff, 16), key: key, current: initial}
	if initial != nil {
		h.hasVal = true
	}
	return h
}

func (o *HoldStateOperator) Name() string            { return o.name }
func (o *HoldStateOperator) Output() <-chan KeyedDiff { return o.out }
func (o *HoldStateOperator) Step() {
	for {
		select {
		case d, ok := <-o.in:
			if !ok {
				return
			}
			if d.Diff > 0 {
				o.current = d.Value
				o.hasVal = true
				o.out <- KeyedDiff{Key: o.key, Value: o.current, Diff: 1, Timestamp: d.Timestamp}
			}
		default:
			return
		}
	}
}

// Value returns the operator's current held value.
func (o *HoldStateOperator) Value() (interface{}, bool) { return o.current, o.hasVal }

// KeyedHoldStateOperator is HoldStateOperator generalized to one stored
// value per key, the differential analogue of a Bus whose items each hold
// their own Register.
type KeyedHoldStateOperator struct {
	name string
	in   <-chan KeyedDiff
	out  chan KeyedDiff
	coll *Collection[string, interface{}]
}

// NewKeyedHoldStateOperator constructs a KeyedHoldStateOperator.
func NewKeyedHoldStateOperator(name string, in <-chan KeyedDiff) *KeyedHoldStateOperator {
	return &KeyedHoldStateOperator{name: name, in: in, out: make(chan KeyedDiff, 256), coll: NewCollection[string, interface{}]()}
}

func (o *KeyedHoldStateOperator) Name() string            { return o.name }
func (o *KeyedHoldStateOperator) Output() <-chan KeyedDiff { return o.out }
func (o *KeyedHoldStateOperator) Step() {
	for {
		select {
		case d, ok := <-o.in:
			if !ok {
				return
			}
			if d.Diff > 0 {
				o.coll.Insert(d.Key, d.Value)
			} else {
				o.coll.Remove(d.Key, d.Value)
			}
			o.out <- d
		default:
			return
		}
	}
}

// Snapshot returns every key's currently held value.
func (o *KeyedHoldStateOperator) Snapshot() map[string]interface{} {
	out := make(map[string]interface{})
	o.coll.ForEach(func(k string, v interface{}) { out[k] = v })
	return out
}
