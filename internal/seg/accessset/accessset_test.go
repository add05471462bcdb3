package accessset

import "testing"

func TestAddRemoveHas(t *testing.T) {
	as := Empty.Add(Read)
	if !as.Has(Read) {
		t.Fatalf("Has(Read) = false after Add(Read)")
	}
	if as.Has(Write) {
		t.Fatalf("Has(Write) = true before Add(Write)")
	}
	as = as.Add(Write)
	if !as.Has(Both) {
		t.Fatalf("Has(Both) = false after adding both modes")
	}
	as = as.Remove(Read)
	if as.Has(Read) {
		t.Fatalf("Has(Read) = true after Remove(Read)")
	}
	if !as.Has(Write) {
		t.Fatalf("Remove(Read) dropped unrelated Write bit")
	}
}

func TestIsSubset(t *testing.T) {
	if !Read.IsSubset(Both) {
		t.Errorf("Read.IsSubset(Both) = false")
	}
	if Both.IsSubset(Read) {
		t.Errorf("Both.IsSubset(Read) = true")
	}
}
