// Package event defines merkle clock events and the deterministic encoding
// that derives their content identifiers.
//
// An event is encoded as the dag-cbor map
//
//	{"data": <bytes>, "parents": [<link>, ...]}
//
// and identified by a CIDv1 with the dag-cbor codec over the sha2-256
// multihash of the encoded bytes.
package event

import (
	"bytes"
	"context"

	"github.com/ipfs/go-cid"
	"github.com/ipld/go-ipld-prime/codec/dagcbor"
	"github.com/ipld/go-ipld-prime/datamodel"
	"github.com/ipld/go-ipld-prime/fluent/qp"
	cidlink "github.com/ipld/go-ipld-prime/linking/cid"
	"github.com/ipld/go-ipld-prime/node/basicnode"
	"github.com/kaspanet/merkleclock/domain/clock/model"
	"github.com/multiformats/go-multihash"
	"github.com/pkg/errors"
)

const (
	dataKey    = "data"
	parentsKey = "parents"
)

var (
	// ErrInvalidParent is returned when an event is created with a
	// malformed parent identifier.
	ErrInvalidParent = errors.New("invalid parent identifier")

	// ErrUnknownParent is returned when an event is created with a parent
	// that is not present in the block store.
	ErrUnknownParent = errors.New("unknown parent")

	// ErrCIDMismatch is returned when block bytes do not hash to the
	// identifier they were stored under.
	ErrCIDMismatch = errors.New("block bytes do not match identifier")

	// ErrMalformedEvent is returned when block bytes do not decode to an
	// event.
	ErrMalformedEvent = errors.New("malformed event")
)

// Event is a single immutable update in a merkle clock.
type Event struct {
	Data    []byte
	Parents []cid.Cid
}

// IsRoot returns whether the event has no parents.
func (e *Event) IsRoot() bool {
	return len(e.Parents) == 0
}

// HasParent returns whether id is a direct parent of the event.
func (e *Event) HasParent(id cid.Cid) bool {
	for _, parent := range e.Parents {
		if parent.Equals(id) {
			return true
		}
	}
	return false
}

// Block is an encoded event together with its identifier, ready to be put
// in a block store.
type Block struct {
	CID   cid.Cid
	Bytes []byte
	Event *Event
}

// Create encodes an event with the given payload and parents and derives its
// identifier. The parent order is part of the encoding.
func Create(data []byte, parents []cid.Cid) (*Block, error) {
	for i, parent := range parents {
		if !parent.Defined() {
			return nil, errors.Wrapf(ErrInvalidParent, "parent %d is undefined", i)
		}
	}

	encoded, err := encode(data, parents)
	if err != nil {
		return nil, err
	}
	id, err := sum(encoded)
	if err != nil {
		return nil, err
	}

	return &Block{
		CID:   id,
		Bytes: encoded,
		Event: &Event{
			Data:    cloneBytes(data),
			Parents: cloneIDs(parents),
		},
	}, nil
}

// CreateChecked is Create for events that will be put in store: every
// parent must already be present there, which keeps the graph acyclic.
func CreateChecked(ctx context.Context, store model.BlockStore, data []byte, parents []cid.Cid) (*Block, error) {
	for _, parent := range parents {
		if !parent.Defined() {
			continue
		}
		has, err := store.Has(ctx, parent)
		if err != nil {
			return nil, err
		}
		if !has {
			return nil, errors.Wrapf(ErrUnknownParent, "parent %s", parent)
		}
	}
	return Create(data, parents)
}

// Decode verifies that bytes hash to id and decodes the event they encode.
func Decode(id cid.Cid, bytes []byte) (*Event, error) {
	computed, err := id.Prefix().Sum(bytes)
	if err != nil {
		return nil, errors.Wrapf(ErrCIDMismatch, "%s: %s", id, err)
	}
	if !computed.Equals(id) {
		return nil, errors.Wrapf(ErrCIDMismatch, "expected %s, got %s", id, computed)
	}
	return decode(bytes)
}

// Get fetches and decodes the event identified by id.
func Get(ctx context.Context, fetcher model.BlockFetcher, id cid.Cid) (*Event, error) {
	bytes, err := fetcher.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return Decode(id, bytes)
}

func encode(data []byte, parents []cid.Cid) ([]byte, error) {
	if data == nil {
		data = []byte{}
	}
	node, err := qp.BuildMap(basicnode.Prototype.Map, 2, func(ma datamodel.MapAssembler) {
		qp.MapEntry(ma, dataKey, qp.Bytes(data))
		qp.MapEntry(ma, parentsKey, qp.List(int64(len(parents)), func(la datamodel.ListAssembler) {
			for _, parent := range parents {
				qp.ListEntry(la, qp.Link(cidlink.Link{Cid: parent}))
			}
		}))
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to build event node")
	}

	var buf bytes.Buffer
	err = dagcbor.Encode(node, &buf)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode event")
	}
	return buf.Bytes(), nil
}

func decode(encoded []byte) (*Event, error) {
	builder := basicnode.Prototype.Any.NewBuilder()
	err := dagcbor.Decode(builder, bytes.NewReader(encoded))
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedEvent, "dag-cbor: %s", err)
	}
	node := builder.Build()

	dataNode, err := node.LookupByString(dataKey)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedEvent, "missing %s: %s", dataKey, err)
	}
	data, err := dataNode.AsBytes()
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedEvent, "%s: %s", dataKey, err)
	}

	parentsNode, err := node.LookupByString(parentsKey)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedEvent, "missing %s: %s", parentsKey, err)
	}
	if parentsNode.Kind() != datamodel.Kind_List {
		return nil, errors.Wrapf(ErrMalformedEvent, "%s is a %s", parentsKey, parentsNode.Kind())
	}
	parents := make([]cid.Cid, 0, parentsNode.Length())
	iterator := parentsNode.ListIterator()
	for !iterator.Done() {
		_, parentNode, err := iterator.Next()
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedEvent, "%s: %s", parentsKey, err)
		}
		link, err := parentNode.AsLink()
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedEvent, "%s: %s", parentsKey, err)
		}
		parentLink, ok := link.(cidlink.Link)
		if !ok {
			return nil, errors.Wrapf(ErrMalformedEvent, "%s: unsupported link %s", parentsKey, link)
		}
		parents = append(parents, parentLink.Cid)
	}

	return &Event{Data: data, Parents: parents}, nil
}

func sum(encoded []byte) (cid.Cid, error) {
	hash, err := multihash.Sum(encoded, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, errors.Wrap(err, "failed to hash event")
	}
	return cid.NewCidV1(cid.DagCBOR, hash), nil
}

func cloneBytes(data []byte) []byte {
	clone := make([]byte, len(data))
	copy(clone, data)
	return clone
}

func cloneIDs(ids []cid.Cid) []cid.Cid {
	clone := make([]cid.Cid, len(ids))
	copy(clone, ids)
	return clone
}
