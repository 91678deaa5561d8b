package frontier

import (
	"bytes"

	"github.com/ipld/go-ipld-prime/codec/dagcbor"
	"github.com/ipld/go-ipld-prime/datamodel"
	"github.com/ipld/go-ipld-prime/fluent/qp"
	cidlink "github.com/ipld/go-ipld-prime/linking/cid"
	"github.com/ipld/go-ipld-prime/node/basicnode"
	"github.com/pkg/errors"
)

// Serialize encodes f as a dag-cbor list of links, preserving order.
func Serialize(f Frontier) ([]byte, error) {
	node, err := qp.BuildList(basicnode.Prototype.List, int64(len(f)), func(la datamodel.ListAssembler) {
		for _, element := range f {
			qp.ListEntry(la, qp.Link(cidlink.Link{Cid: element}))
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to build frontier node")
	}
	var buf bytes.Buffer
	err = dagcbor.Encode(node, &buf)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode frontier")
	}
	return buf.Bytes(), nil
}

// Deserialize decodes a frontier produced by Serialize.
func Deserialize(serialized []byte) (Frontier, error) {
	builder := basicnode.Prototype.List.NewBuilder()
	err := dagcbor.Decode(builder, bytes.NewReader(serialized))
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode frontier")
	}
	node := builder.Build()

	f := make(Frontier, 0, node.Length())
	iterator := node.ListIterator()
	for !iterator.Done() {
		_, elementNode, err := iterator.Next()
		if err != nil {
			return nil, errors.WithStack(err)
		}
		link, err := elementNode.AsLink()
		if err != nil {
			return nil, errors.WithStack(err)
		}
		cidLink, ok := link.(cidlink.Link)
		if !ok {
			return nil, errors.Errorf("unsupported frontier link %s", link)
		}
		f = append(f, cidLink.Cid)
	}
	err = f.Validate()
	if err != nil {
		return nil, err
	}
	return f, nil
}

// FromStrings parses the string forms of a frontier's identifiers.
func FromStrings(elements []string) (Frontier, error) {
	f := make(Frontier, len(elements))
	for i, element := range elements {
		id, err := ParseID(element)
		if err != nil {
			return nil, err
		}
		f[i] = id
	}
	err := f.Validate()
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Strings returns the string forms of f's identifiers.
func (f Frontier) Strings() []string {
	elements := make([]string, len(f))
	for i, element := range f {
		elements[i] = element.String()
	}
	return elements
}

