package differential

import "testing"

func TestGraphStepIncrementsEpoch(t *testing.T) {
	g := NewGraph()
	if g.Epoch() != 0 {
		t.Fatalf("fresh graph epoch = %d; want 0", g.Epoch())
	}
	g.Step(1)
	if g.Epoch() != 1 {
		t.Fatalf("epoch after one Step = %d; want 1", g.Epoch())
	}
	g.Step(1)
	if g.Epoch() != 2 {
		t.Fatalf("epoch after two Steps = %d; want 2", g.Epoch())
	}
}

func TestGraphStepPropagatesThroughChainedOperators(t *testing.T) {
	g := NewGraph()
	session := g.NewInputSession(InputId(1))
	doubled := NewMapOperator("double", session.Output(), func(v interface{}) interface{} { return v.(int) * 2 })
	held := NewHoldStateOperator("held", doubled.Output(), "result", nil)
	g.AddOperator(doubled)
	g.AddOperator(held)

	session.Insert("x", 21)
	g.Step(4)

	v, ok := held.Value()
	if !ok || v != 42 {
		t.Fatalf("held.Value() = %v, %v; want 42, true", v, ok)
	}
}

func TestGraphPublishFansOutToDisplayAndPersistence(t *testing.T) {
	g := NewGraph()
	g.Publish(KeyedDiff{Key: "a", Value: 1, Diff: 1})

	select {
	case d := <-g.Display():
		if d.Key != "a" {
			t.Fatalf("Display() got key %q; want a", d.Key)
		}
	default:
		t.Fatal("Display() had nothing buffered after Publish")
	}

	select {
	case d := <-g.Persistence():
		if d.Key != "a" {
			t.Fatalf("Persistence() got key %q; want a", d.Key)
		}
	default:
		t.Fatal("Persistence() had nothing buffered after Publish")
	}
}

func TestInputSessionUpdateRetractsOldBeforeInsertingNew(t *testing.T) {
	g := NewGraph()
	session := g.NewInputSession(InputId(7))
	held := NewHoldStateOperator("held", session.Output(), "state", nil)
	g.AddOperator(held)

	session.Insert("count", 1)
	g.Step(1)
	session.Update("count", 1, 2)
	g.Step(1)

	v, ok := held.Value()
	if !ok || v != 2 {
		t.Fatalf("held.Value() after Update = %v, %v; want 2, true", v, ok)
	}
}
