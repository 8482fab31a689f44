package depend

import (
	"testing"

	"github.com/muridata/postorage/config"
)

func TestLongMode1(t *testing.T) {
	got := longMode1(6, 3)
	want := []int{5, 3, 1}
	assertIntSlice(t, got, want)
}

func TestLongMode2(t *testing.T) {
	got := longMode2(7, 3)
	want := []int{5, 4, 2}
	assertIntSlice(t, got, want)
}

func TestShortMode1(t *testing.T) {
	got := shortMode1(7, 3, 4)
	want := []int{2, 4, 0, 6}
	assertIntSlice(t, got, want)
}

func TestShortMode2(t *testing.T) {
	got := shortMode2(13, 5, 4)
	want := []int{3, 6, 0, 12}
	assertIntSlice(t, got, want)
}

func TestLongDependCountAutoScale(t *testing.T) {
	if got := LongDependCount(9, 0); got != 1 {
		t.Fatalf("LongDependCount(9, 0) = %d, want 1", got)
	}
	if got := LongDependCount(25, 0); got != 3 {
		t.Fatalf("LongDependCount(25, 0) = %d, want 3", got)
	}
	if got := LongDependCount(25, 5); got != 5 {
		t.Fatalf("LongDependCount(25, 5) = %d, want 5 (explicit cntL wins)", got)
	}
}

func TestLongDependKeyedRandomInRangeAndDistinct(t *testing.T) {
	prevID := []byte("previous-block-chaining-id")
	idxs := LongDepend(prevID, 50, 6, config.ModeKeyedRandom)
	if len(idxs) != 6 {
		t.Fatalf("expected 6 indices, got %d", len(idxs))
	}
	seen := map[int]bool{}
	for _, idx := range idxs {
		if idx < 0 || idx >= 50 {
			t.Fatalf("index %d out of range [0,50)", idx)
		}
		if seen[idx] {
			t.Fatalf("duplicate index %d", idx)
		}
		seen[idx] = true
	}
}

func TestLongDependReproducibleFromID(t *testing.T) {
	prevID := []byte("previous-block-chaining-id")
	a := LongDepend(prevID, 50, 6, config.ModeKeyedRandom)
	b := LongDepend(prevID, 50, 6, config.ModeKeyedRandom)
	assertIntSlice(t, a, b)
}

func TestLongDependBlockZeroHasNoDeps(t *testing.T) {
	if got := LongDepend([]byte("x"), 0, 3, config.ModeKeyedRandom); got != nil {
		t.Fatalf("block 0 should have no long-range deps, got %v", got)
	}
}

func TestShortDependKeyedRandomExcludesSelf(t *testing.T) {
	prevUnit := []byte("working bytes of the previous unit")
	idxs := ShortDepend(prevUnit, 64, 10, 5, config.ModeKeyedRandom)
	if len(idxs) != 5 {
		t.Fatalf("expected 5 indices, got %d", len(idxs))
	}
	for _, idx := range idxs {
		if idx == 10 {
			t.Fatalf("short-range deps must not include the unit's own index")
		}
	}
}

func TestShortDependEmptySeedForUnitZero(t *testing.T) {
	a := ShortDepend(nil, 16, 0, 3, config.ModeKeyedRandom)
	b := ShortDepend(nil, 16, 0, 3, config.ModeKeyedRandom)
	if len(a) != 3 {
		t.Fatalf("expected 3 indices, got %d", len(a))
	}
	assertIntSlice(t, a, b)
}

func assertIntSlice(t *testing.T, got, want []int) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("mismatch at %d: got %v want %v", i, got, want)
		}
	}
}
