package registry

import "testing"

func TestNewIsEmpty(t *testing.T) {
	r := New()
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
	if r.Valid(0) {
		t.Error("Valid(0) should be false on an empty registry")
	}
}

func TestLoadFromNamesBuildsParallelSlices(t *testing.T) {
	r := LoadFromNames([]string{"reader0", "reader1"})
	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}
	if got := r.Names(); got[0] != "reader0" || got[1] != "reader1" {
		t.Errorf("Names() = %v", got)
	}
	for i := range r.States {
		if r.Connections[i] == nil {
			t.Errorf("Connections[%d] is nil", i)
		}
		if r.Connections[i].Handle != 0 {
			t.Errorf("Connections[%d].Handle = %v, want 0", i, r.Connections[i].Handle)
		}
	}
}

func TestValidBoundsCheck(t *testing.T) {
	r := LoadFromNames([]string{"reader0"})
	if !r.Valid(0) {
		t.Error("Valid(0) should be true")
	}
	if r.Valid(1) {
		t.Error("Valid(1) should be false")
	}
	if r.Valid(-1) {
		t.Error("Valid(-1) should be false")
	}
}

func TestDwCurrentStateRoundTrips(t *testing.T) {
	r := LoadFromNames([]string{"reader0"})
	r.States[0].SetDwCurrentState(0x42)
	if got := r.States[0].DwCurrentState(); got != 0x42 {
		t.Errorf("DwCurrentState() = %#x, want 0x42", got)
	}
}

func TestLoadFromNamesRebuildIsIndependentOfPrevious(t *testing.T) {
	old := LoadFromNames([]string{"reader0", "reader1"})
	old.Connections[0].Handle = 7
	old.Connections[0].IgnoreCounter = 2

	fresh := LoadFromNames([]string{"reader1"})
	if fresh.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", fresh.Len())
	}
	if fresh.Connections[0].Handle != 0 || fresh.Connections[0].IgnoreCounter != 0 {
		t.Error("a freshly rebuilt registry must not inherit the old connection state")
	}
	// old registry is untouched by rebuilding a new one from a subset of names.
	if old.Connections[0].Handle != 7 {
		t.Error("rebuilding a new registry must not mutate the previous one")
	}
}
