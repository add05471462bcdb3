package greyring

import "testing"

func TestInsertAndRemove(t *testing.T) {
	var sentinel, a, b Ring
	sentinel.Init()
	a.Init()
	b.Init()

	if a.IsAttached() {
		t.Fatalf("freshly initialized node reports attached")
	}

	a.InsertAfter(&sentinel)
	b.InsertAfter(&sentinel)

	if sentinel.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", sentinel.Len())
	}
	if !a.IsAttached() || !b.IsAttached() {
		t.Fatalf("inserted nodes not reported as attached")
	}

	a.Remove()
	if sentinel.Len() != 1 {
		t.Fatalf("Len() = %d after removing a, want 1", sentinel.Len())
	}
	if a.IsAttached() {
		t.Fatalf("removed node still reports attached")
	}

	// Remove on an already-detached node is a no-op.
	a.Remove()
	if sentinel.Len() != 1 {
		t.Fatalf("double Remove() changed ring length")
	}
}

func TestEachVisitsInOrder(t *testing.T) {
	var sentinel, a, b, c Ring
	sentinel.Init()
	a.Init()
	b.Init()
	c.Init()

	a.InsertAfter(&sentinel)
	b.InsertAfter(&a)
	c.InsertAfter(&b)

	var order []*Ring
	sentinel.Each(func(n *Ring) { order = append(order, n) })

	want := []*Ring{&a, &b, &c}
	if len(order) != len(want) {
		t.Fatalf("Each visited %d nodes, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order[%d] = %p, want %p", i, order[i], want[i])
		}
	}
}
