package frontier

import (
	"fmt"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/pkg/errors"
)

func testIDs(t *testing.T, count int) []cid.Cid {
	ids := make([]cid.Cid, count)
	for i := range ids {
		hash, err := multihash.Sum([]byte(fmt.Sprintf("id %d", i)), multihash.SHA2_256, -1)
		if err != nil {
			t.Fatalf("%s: Sum unexpectedly failed: %s", t.Name(), err)
		}
		ids[i] = cid.NewCidV1(cid.DagCBOR, hash)
	}
	return ids
}

func TestFrontierIsNotModified(t *testing.T) {
	ids := testIDs(t, 4)
	f := New(ids[0], ids[1], ids[2])
	original := f.Clone()

	appended := f.Append(ids[3])
	if !appended.Equal(Frontier{ids[0], ids[1], ids[2], ids[3]}) {
		t.Fatalf("TestFrontierIsNotModified: unexpected Append result %s", appended)
	}
	filtered := f.Filter(func(id cid.Cid) bool { return !id.Equals(ids[1]) })
	if !filtered.Equal(Frontier{ids[0], ids[2]}) {
		t.Fatalf("TestFrontierIsNotModified: unexpected Filter result %s", filtered)
	}
	appended[0] = ids[3]
	filtered[0] = ids[3]

	if !f.Equal(original) {
		t.Fatalf("TestFrontierIsNotModified: frontier changed to %s", f)
	}

	source := []cid.Cid{ids[0], ids[1]}
	fromSource := New(source...)
	source[0] = ids[2]
	if !fromSource[0].Equals(ids[0]) {
		t.Fatalf("TestFrontierIsNotModified: New shares its backing array with the arguments")
	}
}

func TestFrontierMembership(t *testing.T) {
	ids := testIDs(t, 3)
	f := New(ids[1], ids[0])

	tests := []struct {
		id            cid.Cid
		expectedIndex int
	}{
		{id: ids[1], expectedIndex: 0},
		{id: ids[0], expectedIndex: 1},
		{id: ids[2], expectedIndex: -1},
		{id: cid.Undef, expectedIndex: -1},
	}
	for i, test := range tests {
		index := f.Index(test.id)
		if index != test.expectedIndex {
			t.Fatalf("TestFrontierMembership: test %d: expected index %d, got %d", i, test.expectedIndex, index)
		}
		if f.Contains(test.id) != (test.expectedIndex != -1) {
			t.Fatalf("TestFrontierMembership: test %d: Contains disagrees with Index", i)
		}
	}
}

func TestFrontierEquality(t *testing.T) {
	ids := testIDs(t, 3)

	tests := []struct {
		name        string
		a, b        Frontier
		expectEqual bool
		expectSet   bool
	}{
		{name: "identical", a: New(ids[0], ids[1]), b: New(ids[0], ids[1]), expectEqual: true, expectSet: true},
		{name: "reordered", a: New(ids[0], ids[1]), b: New(ids[1], ids[0]), expectEqual: false, expectSet: true},
		{name: "different", a: New(ids[0], ids[1]), b: New(ids[0], ids[2]), expectEqual: false, expectSet: false},
		{name: "prefix", a: New(ids[0]), b: New(ids[0], ids[1]), expectEqual: false, expectSet: false},
		{name: "empty", a: Frontier{}, b: nil, expectEqual: true, expectSet: true},
	}
	for _, test := range tests {
		if test.a.Equal(test.b) != test.expectEqual {
			t.Fatalf("TestFrontierEquality: %s: Equal returned %t", test.name, !test.expectEqual)
		}
		if test.a.SetEqual(test.b) != test.expectSet {
			t.Fatalf("TestFrontierEquality: %s: SetEqual returned %t", test.name, !test.expectSet)
		}
	}
}

func TestFrontierSorted(t *testing.T) {
	ids := testIDs(t, 5)
	f := New(ids[4], ids[2], ids[0], ids[3], ids[1])
	sorted := f.Sorted()
	for i := 1; i < len(sorted); i++ {
		if CompareIDs(sorted[i-1], sorted[i]) >= 0 {
			t.Fatalf("TestFrontierSorted: %s is not sorted", sorted)
		}
	}
	if !f.Equal(New(ids[4], ids[2], ids[0], ids[3], ids[1])) {
		t.Fatalf("TestFrontierSorted: Sorted modified the frontier")
	}
}

func TestFrontierValidate(t *testing.T) {
	ids := testIDs(t, 2)

	tests := []struct {
		name        string
		f           Frontier
		expectValid bool
	}{
		{name: "empty", f: Frontier{}, expectValid: true},
		{name: "distinct", f: New(ids[0], ids[1]), expectValid: true},
		{name: "undefined", f: Frontier{ids[0], cid.Undef}, expectValid: false},
		{name: "duplicate", f: Frontier{ids[0], ids[1], ids[0]}, expectValid: false},
	}
	for _, test := range tests {
		err := test.f.Validate()
		if test.expectValid && err != nil {
			t.Fatalf("TestFrontierValidate: %s: unexpected error: %s", test.name, err)
		}
		if !test.expectValid && !errors.Is(err, ErrInvalidFrontier) {
			t.Fatalf("TestFrontierValidate: %s: expected ErrInvalidFrontier, got: %v", test.name, err)
		}
	}
}

func TestSerialization(t *testing.T) {
	ids := testIDs(t, 3)
	for _, f := range []Frontier{{}, New(ids[0]), New(ids[2], ids[0], ids[1])} {
		serialized, err := Serialize(f)
		if err != nil {
			t.Fatalf("TestSerialization: Serialize unexpectedly failed: %s", err)
		}
		deserialized, err := Deserialize(serialized)
		if err != nil {
			t.Fatalf("TestSerialization: Deserialize unexpectedly failed: %s", err)
		}
		if !deserialized.Equal(f) {
			t.Fatalf("TestSerialization: expected %s, got %s", f, deserialized)
		}
	}

	_, err := Deserialize([]byte{0xff})
	if err == nil {
		t.Fatalf("TestSerialization: Deserialize of garbage unexpectedly succeeded")
	}
	duplicated, err := Serialize(Frontier{ids[0], ids[0]})
	if err != nil {
		t.Fatalf("TestSerialization: Serialize unexpectedly failed: %s", err)
	}
	_, err = Deserialize(duplicated)
	if !errors.Is(err, ErrInvalidFrontier) {
		t.Fatalf("TestSerialization: expected ErrInvalidFrontier, got: %v", err)
	}
}

func TestFromStrings(t *testing.T) {
	ids := testIDs(t, 2)
	f := New(ids[1], ids[0])

	parsed, err := FromStrings(f.Strings())
	if err != nil {
		t.Fatalf("TestFromStrings: FromStrings unexpectedly failed: %s", err)
	}
	if !parsed.Equal(f) {
		t.Fatalf("TestFromStrings: expected %s, got %s", f, parsed)
	}

	_, err = FromStrings([]string{"not an identifier"})
	if err == nil {
		t.Fatalf("TestFromStrings: parsing garbage unexpectedly succeeded")
	}
	_, err = FromStrings([]string{ids[0].String(), ids[0].String()})
	if !errors.Is(err, ErrInvalidFrontier) {
		t.Fatalf("TestFromStrings: expected ErrInvalidFrontier, got: %v", err)
	}
}
