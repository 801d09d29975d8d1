package zyread

import (
	"fmt"

	"github.com/tinylib/msgp/msgp"
)

// Hand-written msgp marshalling for nodes. The wire shape matches
// NodeToGo, so NodesToMsgpack output unmarshals here and back.

func appendPosition(o []byte, p Position) []byte {
	o = msgp.AppendMapHeader(o, 3)
	o = msgp.AppendString(o, "offset")
	o = msgp.AppendInt(o, p.Offset)
	o = msgp.AppendString(o, "line")
	o = msgp.AppendInt(o, p.Line)
	o = msgp.AppendString(o, "column")
	o = msgp.AppendInt(o, p.Column)
	return o
}

func appendSpan(o []byte, s Span) []byte {
	o = msgp.AppendMapHeader(o, 2)
	o = msgp.AppendString(o, "start")
	o = appendPosition(o, s.Start)
	o = msgp.AppendString(o, "end")
	o = appendPosition(o, s.End)
	return o
}

func positionMsgsize() int {
	return msgp.MapHeaderSize + 7 + msgp.IntSize + 5 + msgp.IntSize + 7 + msgp.IntSize
}

func spanMsgsize() int {
	return msgp.MapHeaderSize + 6 + positionMsgsize() + 4 + positionMsgsize()
}

func appendLeaf(o []byte, kind NodeKind, content string, loc Span) []byte {
	o = msgp.AppendMapHeader(o, 3)
	o = msgp.AppendString(o, "type")
	o = msgp.AppendString(o, kind.String())
	o = msgp.AppendString(o, "content")
	o = msgp.AppendString(o, content)
	o = msgp.AppendString(o, "location")
	return appendSpan(o, loc)
}

func leafMsgsize(kind NodeKind, content string) int {
	return msgp.MapHeaderSize + 5 + msgp.StringPrefixSize + len(kind.String()) +
		8 + msgp.StringPrefixSize + len(content) + 9 + spanMsgsize()
}

// MarshalMsg implements msgp.Marshaler
func (a *Atom) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.Require(b, a.Msgsize())
	return appendLeaf(o, KindAtom, a.Content, a.Location), nil
}

func (a *Atom) Msgsize() int { return leafMsgsize(KindAtom, a.Content) }

// MarshalMsg implements msgp.Marshaler
func (s *StringLiteral) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.Require(b, s.Msgsize())
	return appendLeaf(o, KindString, s.Content, s.Location), nil
}

func (s *StringLiteral) Msgsize() int { return leafMsgsize(KindString, s.Content) }

// MarshalMsg implements msgp.Marshaler
func (l *List) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.Require(b, l.Msgsize())
	o = msgp.AppendMapHeader(o, 3)
	o = msgp.AppendString(o, "type")
	o = msgp.AppendString(o, KindList.String())
	o = msgp.AppendString(o, "content")
	o = msgp.AppendArrayHeader(o, uint32(len(l.Content)))
	for _, child := range l.Content {
		o, err = marshalNode(o, child)
		if err != nil {
			return nil, err
		}
	}
	o = msgp.AppendString(o, "location")
	return appendSpan(o, l.Location), nil
}

func (l *List) Msgsize() int {
	s := msgp.MapHeaderSize + 5 + msgp.StringPrefixSize + len(KindList.String()) +
		8 + msgp.ArrayHeaderSize + 9 + spanMsgsize()
	for _, child := range l.Content {
		s += nodeMsgsize(child)
	}
	return s
}

func marshalNode(o []byte, n Node) ([]byte, error) {
	m, ok := n.(msgp.Marshaler)
	if !ok {
		return nil, errNotANode(n)
	}
	return m.MarshalMsg(o)
}

func nodeMsgsize(n Node) int {
	if s, ok := n.(msgp.Sizer); ok {
		return s.Msgsize()
	}
	return 0
}

// MarshalTree appends nodes to b as a msgpack array.
func MarshalTree(b []byte, nodes []Node) (o []byte, err error) {
	o = msgp.AppendArrayHeader(b, uint32(len(nodes)))
	for _, n := range nodes {
		o, err = marshalNode(o, n)
		if err != nil {
			return nil, err
		}
	}
	return o, nil
}

func unmarshalPosition(bts []byte) (p Position, o []byte, err error) {
	var sz uint32
	sz, bts, err = msgp.ReadMapHeaderBytes(bts)
	if err != nil {
		return
	}
	for ; sz > 0; sz-- {
		var field []byte
		field, bts, err = msgp.ReadMapKeyZC(bts)
		if err != nil {
			return
		}
		switch msgp.UnsafeString(field) {
		case "offset":
			p.Offset, bts, err = msgp.ReadIntBytes(bts)
		case "line":
			p.Line, bts, err = msgp.ReadIntBytes(bts)
		case "column":
			p.Column, bts, err = msgp.ReadIntBytes(bts)
		default:
			bts, err = msgp.Skip(bts)
		}
		if err != nil {
			return
		}
	}
	return p, bts, nil
}

func unmarshalSpan(bts []byte) (s Span, o []byte, err error) {
	var sz uint32
	sz, bts, err = msgp.ReadMapHeaderBytes(bts)
	if err != nil {
		return
	}
	for ; sz > 0; sz-- {
		var field []byte
		field, bts, err = msgp.ReadMapKeyZC(bts)
		if err != nil {
			return
		}
		switch msgp.UnsafeString(field) {
		case "start":
			s.Start, bts, err = unmarshalPosition(bts)
		case "end":
			s.End, bts, err = unmarshalPosition(bts)
		default:
			bts, err = msgp.Skip(bts)
		}
		if err != nil {
			return
		}
	}
	return s, bts, nil
}

// UnmarshalNode reads one node from the front of bts and returns
// the remaining bytes. Keys may come in any order.
func UnmarshalNode(bts []byte) (n Node, o []byte, err error) {
	var sz uint32
	sz, bts, err = msgp.ReadMapHeaderBytes(bts)
	if err != nil {
		return
	}
	var (
		typ      string
		text     string
		children []Node
		loc      Span
	)
	for ; sz > 0; sz-- {
		var field []byte
		field, bts, err = msgp.ReadMapKeyZC(bts)
		if err != nil {
			return
		}
		switch msgp.UnsafeString(field) {
		case "type":
			typ, bts, err = msgp.ReadStringBytes(bts)
		case "content":
			switch msgp.NextType(bts) {
			case msgp.StrType:
				text, bts, err = msgp.ReadStringBytes(bts)
			case msgp.ArrayType:
				children, bts, err = UnmarshalTree(bts)
			default:
				err = fmt.Errorf("%w: content must be a string or an array", ErrBadNodeEncoding)
			}
		case "location":
			loc, bts, err = unmarshalSpan(bts)
		default:
			bts, err = msgp.Skip(bts)
		}
		if err != nil {
			return
		}
	}
	switch typ {
	case "atom":
		return &Atom{Content: text, Location: loc}, bts, nil
	case "string":
		return &StringLiteral{Content: text, Location: loc}, bts, nil
	case "list":
		if children == nil {
			children = []Node{}
		}
		return &List{Content: children, Location: loc}, bts, nil
	}
	return nil, bts, fmt.Errorf("%w: unknown node type %q", ErrBadNodeEncoding, typ)
}

// UnmarshalTree reads an array of nodes written by MarshalTree.
func UnmarshalTree(bts []byte) (nodes []Node, o []byte, err error) {
	var sz uint32
	sz, bts, err = msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		return
	}
	nodes = make([]Node, 0, sz)
	for ; sz > 0; sz-- {
		var n Node
		n, bts, err = UnmarshalNode(bts)
		if err != nil {
			return nil, bts, err
		}
		nodes = append(nodes, n)
	}
	return nodes, bts, nil
}
