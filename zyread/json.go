package zyread

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"

	"github.com/ugorji/go/codec"
)

var ErrBadNodeEncoding = errors.New("bad node encoding")

/*
 Conversion map

 Node <--(1)--> Go map[string]interface{} <--(2)--> json / msgpack

(1) NodeToGo() and GoToNode(); the map shape is
    {"type": "atom"|"string"|"list",
     "content": string | []interface{},
     "location": {"start": {"offset","line","column"}, "end": {...}}}
(2) ugorji/go/codec, through msgpHelper below.

The binary forms in msgp.go and bsave.go write the same shape.
*/

type msgpackHelper struct {
	initialized bool
	mh          codec.MsgpackHandle
	jh          codec.JsonHandle
}

func (m *msgpackHelper) init() {
	if m.initialized {
		return
	}

	m.mh.MapType = reflect.TypeOf(map[string]interface{}(nil))
	m.mh.RawToString = true
	m.mh.WriteExt = true
	m.mh.SignedInteger = true
	m.mh.Canonical = true // sort maps before writing them

	m.jh.MapType = reflect.TypeOf(map[string]interface{}(nil))
	m.jh.SignedInteger = true
	m.jh.Canonical = true

	m.initialized = true
}

var msgpHelper msgpackHelper

func init() {
	msgpHelper.init()
}

func positionToGo(p Position) map[string]interface{} {
	return map[string]interface{}{
		"offset": p.Offset,
		"line":   p.Line,
		"column": p.Column,
	}
}

func spanToGo(s Span) map[string]interface{} {
	return map[string]interface{}{
		"start": positionToGo(s.Start),
		"end":   positionToGo(s.End),
	}
}

// NodeToGo converts n to plain maps and slices.
func NodeToGo(n Node) map[string]interface{} {
	m := map[string]interface{}{
		"type":     n.Kind().String(),
		"location": spanToGo(n.Span()),
	}
	switch x := n.(type) {
	case *Atom:
		m["content"] = x.Content
	case *StringLiteral:
		m["content"] = x.Content
	case *List:
		m["content"] = NodesToGo(x.Content)
	}
	return m
}

func NodesToGo(nodes []Node) []interface{} {
	out := make([]interface{}, len(nodes))
	for i, n := range nodes {
		out[i] = NodeToGo(n)
	}
	return out
}

func goInt(v interface{}) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case uint64:
		return int(x), nil
	case float64:
		return int(x), nil
	}
	return 0, fmt.Errorf("%w: expected a number, got %T", ErrBadNodeEncoding, v)
}

func goToPosition(v interface{}) (p Position, err error) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return p, fmt.Errorf("%w: position must be a map, got %T", ErrBadNodeEncoding, v)
	}
	if p.Offset, err = goInt(m["offset"]); err != nil {
		return p, err
	}
	if p.Line, err = goInt(m["line"]); err != nil {
		return p, err
	}
	if p.Column, err = goInt(m["column"]); err != nil {
		return p, err
	}
	return p, nil
}

func goToSpan(v interface{}) (s Span, err error) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return s, fmt.Errorf("%w: location must be a map, got %T", ErrBadNodeEncoding, v)
	}
	if s.Start, err = goToPosition(m["start"]); err != nil {
		return s, err
	}
	if s.End, err = goToPosition(m["end"]); err != nil {
		return s, err
	}
	return s, nil
}

// GoToNode is the inverse of NodeToGo.
func GoToNode(iface interface{}) (Node, error) {
	m, ok := iface.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: node must be a map, got %T", ErrBadNodeEncoding, iface)
	}
	loc, err := goToSpan(m["location"])
	if err != nil {
		return nil, err
	}
	typ, _ := m["type"].(string)
	switch typ {
	case "atom", "string":
		content, ok := m["content"].(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s content must be a string, got %T", ErrBadNodeEncoding, typ, m["content"])
		}
		if typ == "atom" {
			return &Atom{Content: content, Location: loc}, nil
		}
		return &StringLiteral{Content: content, Location: loc}, nil
	case "list":
		kids, ok := m["content"].([]interface{})
		if !ok && m["content"] != nil {
			return nil, fmt.Errorf("%w: list content must be an array, got %T", ErrBadNodeEncoding, m["content"])
		}
		children, err := GoToNodes(kids)
		if err != nil {
			return nil, err
		}
		return &List{Content: children, Location: loc}, nil
	}
	return nil, fmt.Errorf("%w: unknown node type %q", ErrBadNodeEncoding, typ)
}

func GoToNodes(ifaces []interface{}) ([]Node, error) {
	nodes := make([]Node, 0, len(ifaces))
	for _, v := range ifaces {
		n, err := GoToNode(v)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func encodeGo(iface interface{}, h codec.Handle) ([]byte, error) {
	var w bytes.Buffer
	enc := codec.NewEncoder(&w, h)
	if err := enc.Encode(&iface); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func decodeNodes(by []byte, h codec.Handle) ([]Node, error) {
	var iface interface{}
	dec := codec.NewDecoderBytes(by, h)
	if err := dec.Decode(&iface); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadNodeEncoding, err)
	}
	VPrintf("decoded type: %T", iface)
	arr, ok := iface.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: top level must be an array, got %T", ErrBadNodeEncoding, iface)
	}
	return GoToNodes(arr)
}

// NodesToJson encodes nodes as a json array of node maps.
func NodesToJson(nodes []Node) ([]byte, error) {
	return encodeGo(NodesToGo(nodes), &msgpHelper.jh)
}

func JsonToNodes(json []byte) ([]Node, error) {
	return decodeNodes(json, &msgpHelper.jh)
}

// NodesToMsgpack encodes nodes as a msgpack array of node maps.
func NodesToMsgpack(nodes []Node) ([]byte, error) {
	return encodeGo(NodesToGo(nodes), &msgpHelper.mh)
}

func MsgpackToNodes(msgp []byte) ([]Node, error) {
	return decodeNodes(msgp, &msgpHelper.mh)
}
