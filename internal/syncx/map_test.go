package syncx

import (
	"errors"
	"sync"
	"testing"
)

func TestMapLoadStore(t *testing.T) {
	m := NewMap(map[string]int{"a": 1})

	if v, ok := m.Load("a"); !ok || v != 1 {
		t.Errorf("Load(a) = %d, %v, want 1, true", v, ok)
	}
	if _, ok := m.Load("missing"); ok {
		t.Error("Load(missing) should report absent")
	}

	m.Store("a", 2)
	if v, _ := m.Load("a"); v != 2 {
		t.Errorf("Load(a) after Store = %d, want 2", v)
	}
}

func TestMapSeedIsCopied(t *testing.T) {
	seed := map[string]int{"a": 1}
	m := NewMap(seed)
	seed["a"] = 99

	if v, _ := m.Load("a"); v != 1 {
		t.Errorf("Load(a) = %d, seed mutation leaked in", v)
	}
}

func TestMapUpdateRejects(t *testing.T) {
	m := NewMap(map[string]int{"a": 1})
	errBad := errors.New("bad")

	err := m.Update("a", func(cur int, ok bool) (int, error) {
		return 0, errBad
	})
	if !errors.Is(err, errBad) {
		t.Errorf("Update() error = %v, want %v", err, errBad)
	}
	if v, _ := m.Load("a"); v != 1 {
		t.Errorf("Load(a) = %d, rejected update was applied", v)
	}

	if err := m.Update("a", func(cur int, ok bool) (int, error) { return cur + 1, nil }); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if v, _ := m.Load("a"); v != 2 {
		t.Errorf("Load(a) = %d, want 2", v)
	}
}

func TestMapKeysSorted(t *testing.T) {
	m := NewMap(map[string]bool{"Pause": false, "AllowOSCControl": true, "ControlPort": false})

	keys := m.Keys()
	want := []string{"AllowOSCControl", "ControlPort", "Pause"}
	if len(keys) != len(want) {
		t.Fatalf("Keys() = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestMapConcurrent(t *testing.T) {
	m := NewMap(map[string]int{"n": 0})
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Update("n", func(cur int, _ bool) (int, error) { return cur + 1, nil })
		}()
	}
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Load("n")
			m.Snapshot()
		}()
	}
	wg.Wait()

	if v, _ := m.Load("n"); v != 100 {
		t.Errorf("Load(n) = %d, want 100", v)
	}
}
