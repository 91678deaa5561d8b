// Package frontier implements the head of a merkle clock: an ordered set of
// event identifiers none of which is an ancestor of another.
package frontier

import (
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/pkg/errors"
)

// ErrInvalidFrontier is returned for frontiers holding malformed or
// duplicate identifiers.
var ErrInvalidFrontier = errors.New("invalid frontier")

// Frontier is the list of concurrent tips of a clock, in the order this
// replica learned about them. Frontiers are never modified in place.
type Frontier []cid.Cid

// New returns a frontier holding ids in the given order.
func New(ids ...cid.Cid) Frontier {
	return Frontier(ids).Clone()
}

// Index returns the position of id in f, or -1.
func (f Frontier) Index(id cid.Cid) int {
	for i, element := range f {
		if element.Equals(id) {
			return i
		}
	}
	return -1
}

// Contains returns whether id is an element of f.
func (f Frontier) Contains(id cid.Cid) bool {
	return f.Index(id) != -1
}

// Clone returns a copy of f that shares no backing array with it.
func (f Frontier) Clone() Frontier {
	clone := make(Frontier, len(f))
	copy(clone, f)
	return clone
}

// Append returns a new frontier holding the elements of f followed by id.
func (f Frontier) Append(id cid.Cid) Frontier {
	appended := make(Frontier, 0, len(f)+1)
	appended = append(appended, f...)
	return append(appended, id)
}

// Filter returns a new frontier with the elements of f for which keep
// returns true, in their original order.
func (f Frontier) Filter(keep func(cid.Cid) bool) Frontier {
	filtered := make(Frontier, 0, len(f))
	for _, element := range f {
		if keep(element) {
			filtered = append(filtered, element)
		}
	}
	return filtered
}

// Sorted returns a copy of f in identifier order. Two frontiers hold the
// same set iff their sorted forms are equal.
func (f Frontier) Sorted() Frontier {
	sorted := f.Clone()
	SortIDs(sorted)
	return sorted
}

// Equal returns whether f and other hold the same elements in the same order.
func (f Frontier) Equal(other Frontier) bool {
	return IDsEqual(f, other)
}

// SetEqual returns whether f and other hold the same elements, ignoring
// order.
func (f Frontier) SetEqual(other Frontier) bool {
	if len(f) != len(other) {
		return false
	}
	return f.Sorted().Equal(other.Sorted())
}

// Validate checks that f holds no undefined and no duplicate identifiers.
// It cannot check the ancestry invariant, which needs the block store.
func (f Frontier) Validate() error {
	seen := make(map[cid.Cid]struct{}, len(f))
	for i, element := range f {
		if !element.Defined() {
			return errors.Wrapf(ErrInvalidFrontier, "element %d is undefined", i)
		}
		if _, ok := seen[element]; ok {
			return errors.Wrapf(ErrInvalidFrontier, "element %s appears more than once", element)
		}
		seen[element] = struct{}{}
	}
	return nil
}

func (f Frontier) String() string {
	return "[" + strings.Join(f.Strings(), ", ") + "]"
}
