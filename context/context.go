// Package context implements k-CFA bounded call-string contexts: an
// immutable stack of call-site symbols, trimmed to a configurable depth K,
// used by interproc to distinguish callers of the same function
// (SPEC_FULL.md §4.4 "Context").
package context

import (
	"strings"

	"github.com/minio/highwayhash"
)

// Site identifies one call site, typically "<function>@<instruction handle>".
type Site string

// Context is an immutable call-string, most recent call site last. The zero
// value is the empty context (used to seed analysis of top-level entry
// points).
type Context struct {
	sites []Site
}

// Empty returns the empty call-string context.
func Empty() Context { return Context{} }

// Sites returns the call-string's sites, oldest first. The returned slice
// must not be mutated.
func (c Context) Sites() []Site { return c.sites }

// Len reports the call-string depth.
func (c Context) Len() int { return len(c.sites) }

// Equal reports whether c and o are the same call-string.
func (c Context) Equal(o Context) bool {
	if len(c.sites) != len(o.sites) {
		return false
	}
	for i := range c.sites {
		if c.sites[i] != o.sites[i] {
			return false
		}
	}
	return true
}

// String renders the call-string as "site1/site2/...".
func (c Context) String() string {
	parts := make([]string, len(c.sites))
	for i, s := range c.sites {
		parts[i] = string(s)
	}
	return strings.Join(parts, "/")
}

var hashKey = []byte("npaflowK-CFA-contextHashKeyABCDE")

// Hash returns a content hash of the call-string, for use as a map key
// component where Context itself (a slice-backed struct) is not comparable
// with ==. Grounded on inspector/graph.Hash's highwayhash.New64 pattern.
func (c Context) Hash() uint64 {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		// hashKey is a fixed 32-byte constant; New64 only fails on key
		// length, so this is unreachable.
		panic(err)
	}
	h.Write([]byte(c.String()))
	return h.Sum64()
}

// Unbounded requests full call-string sensitivity (never trims).
const Unbounded = -1

// Table pushes call sites onto contexts, trimming to depth K (k-CFA). K==0
// is 0-CFA: every pushed context collapses back to empty, matching
// InterproceduralEngine.h's default template parameter K=0 ("if
// next.size() > K, trim" with K=0 trims every push). Negative K (see
// Unbounded) disables trimming.
type Table struct {
	K int
}

// NewTable returns a Table bounding contexts to depth k.
func NewTable(k int) *Table { return &Table{K: k} }

// Push returns the context reached by calling through site from cs,
// trimming the oldest sites first once the string exceeds K.
func (t *Table) Push(cs Context, site Site) Context {
	next := make([]Site, len(cs.sites), len(cs.sites)+1)
	copy(next, cs.sites)
	next = append(next, site)
	if t.K >= 0 && len(next) > t.K {
		next = next[len(next)-t.K:]
	}
	return Context{sites: next}
}
