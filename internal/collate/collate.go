// Package collate orders names and codes the way people expect to read
// them, independently of byte order.
package collate

import (
	"bytes"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// maxCachedKeys bounds the key cache; it is emptied when full.
const maxCachedKeys = 8192

var (
	mu       sync.Mutex
	collator = collate.New(language.Und)
	buf      collate.Buffer
	keys     = make(map[string][]byte)
)

// SortKey returns the collation key of s.
func SortKey(s string) []byte {
	mu.Lock()
	defer mu.Unlock()
	if k, ok := keys[s]; ok {
		return k
	}
	k := append([]byte(nil), collator.KeyFromString(&buf, s)...)
	buf.Reset()
	if len(keys) >= maxCachedKeys {
		clear(keys)
	}
	keys[s] = k
	return k
}

// Compare orders a and b by collation key, falling back to the raw strings
// so that distinct strings never compare equal.
func Compare(a, b string) int {
	if a == b {
		return 0
	}
	if c := bytes.Compare(SortKey(a), SortKey(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// Less reports whether a sorts before b.
func Less(a, b string) bool {
	return Compare(a, b) < 0
}

// CompareInts orders integers, for use alongside Compare in composite keys.
func CompareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
