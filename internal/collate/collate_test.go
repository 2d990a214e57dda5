package collate

import (
	"bytes"
	"sort"
	"strconv"
	"testing"
)

func TestLessOrdersAccentsWithBaseLetters(t *testing.T) {
	names := []string{"Zoe", "Émilie", "adam", "Eve", "Ada"}
	sort.Slice(names, func(i, j int) bool { return Less(names[i], names[j]) })

	want := []string{"Ada", "adam", "Émilie", "Eve", "Zoe"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, names)
		}
	}
}

func TestCompareNeverEqualForDistinctStrings(t *testing.T) {
	if Compare("a", "A") == 0 {
		t.Fatalf("expected distinct strings to differ")
	}
	if Compare("GBR", "GBR") != 0 {
		t.Fatalf("expected equal strings to compare equal")
	}
}

func TestCompareInts(t *testing.T) {
	if CompareInts(1, 2) != -1 || CompareInts(2, 1) != 1 || CompareInts(3, 3) != 0 {
		t.Fatalf("unexpected integer ordering")
	}
}

func TestSortKeyCacheIsBounded(t *testing.T) {
	first := append([]byte(nil), SortKey("name-0")...)
	for i := 0; i < 3*maxCachedKeys; i++ {
		SortKey("name-" + strconv.Itoa(i))
	}
	mu.Lock()
	n := len(keys)
	mu.Unlock()
	if n > maxCachedKeys {
		t.Fatalf("expected at most %d cached keys, got %d", maxCachedKeys, n)
	}
	if !bytes.Equal(SortKey("name-0"), first) {
		t.Fatalf("expected stable key after cache reset")
	}
}
