package frontier

import (
	"sort"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/pkg/errors"
)

// CompareIDs orders identifiers by their binary form. The order carries no
// causal meaning.
func CompareIDs(a, b cid.Cid) int {
	return strings.Compare(a.KeyString(), b.KeyString())
}

// SortIDs sorts ids in place by CompareIDs.
func SortIDs(ids []cid.Cid) {
	sort.Slice(ids, func(i, j int) bool {
		return CompareIDs(ids[i], ids[j]) < 0
	})
}

// IDsEqual returns whether a and b hold the same identifiers in the same
// order.
func IDsEqual(a, b []cid.Cid) bool {
	if len(a) != len(b) {
		return false
	}
	for i, id := range a {
		if !id.Equals(b[i]) {
			return false
		}
	}
	return true
}

// ParseID parses the string form of an event identifier.
func ParseID(s string) (cid.Cid, error) {
	id, err := cid.Decode(s)
	if err != nil {
		return cid.Undef, errors.Wrapf(err, "invalid event identifier %q", s)
	}
	return id, nil
}
