package zyread

import (
	"fmt"
	"io"
	"os"

	"github.com/glycerine/greenpack/msgp"
)

// WriteTree streams nodes to w as a msgpack array, in the same
// shape MarshalTree produces.
func WriteTree(w io.Writer, nodes []Node) error {
	mw := msgp.NewWriter(w)
	if err := mw.WriteArrayHeader(uint32(len(nodes))); err != nil {
		return err
	}
	for _, n := range nodes {
		if err := writeNode(mw, n); err != nil {
			return err
		}
	}
	return mw.Flush()
}

func writeNode(mw *msgp.Writer, n Node) (err error) {
	if err = mw.WriteMapHeader(3); err != nil {
		return
	}
	if err = mw.WriteString("type"); err != nil {
		return
	}
	if err = mw.WriteString(n.Kind().String()); err != nil {
		return
	}
	if err = mw.WriteString("content"); err != nil {
		return
	}
	switch x := n.(type) {
	case *Atom:
		err = mw.WriteString(x.Content)
	case *StringLiteral:
		err = mw.WriteString(x.Content)
	case *List:
		if err = mw.WriteArrayHeader(uint32(len(x.Content))); err != nil {
			return
		}
		for _, child := range x.Content {
			if err = writeNode(mw, child); err != nil {
				return
			}
		}
	default:
		err = errNotANode(n)
	}
	if err != nil {
		return
	}
	if err = mw.WriteString("location"); err != nil {
		return
	}
	return writeSpan(mw, n.Span())
}

func writeSpan(mw *msgp.Writer, s Span) (err error) {
	if err = mw.WriteMapHeader(2); err != nil {
		return
	}
	if err = mw.WriteString("start"); err != nil {
		return
	}
	if err = writePosition(mw, s.Start); err != nil {
		return
	}
	if err = mw.WriteString("end"); err != nil {
		return
	}
	return writePosition(mw, s.End)
}

func writePosition(mw *msgp.Writer, p Position) (err error) {
	if err = mw.WriteMapHeader(3); err != nil {
		return
	}
	for _, kv := range []struct {
		key string
		val int
	}{{"offset", p.Offset}, {"line", p.Line}, {"column", p.Column}} {
		if err = mw.WriteString(kv.key); err != nil {
			return
		}
		if err = mw.WriteInt(kv.val); err != nil {
			return
		}
	}
	return nil
}

// ReadTree reads one array of nodes written by WriteTree or MarshalTree.
func ReadTree(r io.Reader) ([]Node, error) {
	return readNodes(msgp.NewReader(r))
}

func readNodes(mr *msgp.Reader) ([]Node, error) {
	sz, err := mr.ReadArrayHeader()
	if err != nil {
		return nil, err
	}
	nodes := make([]Node, 0, sz)
	for ; sz > 0; sz-- {
		n, err := readNode(mr)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func readNode(mr *msgp.Reader) (Node, error) {
	sz, err := mr.ReadMapHeader()
	if err != nil {
		return nil, err
	}
	var (
		typ      string
		text     string
		children []Node
		loc      Span
	)
	for ; sz > 0; sz-- {
		key, err := mr.ReadString()
		if err != nil {
			return nil, err
		}
		switch key {
		case "type":
			typ, err = mr.ReadString()
		case "content":
			var t msgp.Type
			t, err = mr.NextType()
			if err != nil {
				return nil, err
			}
			switch t {
			case msgp.StrType:
				text, err = mr.ReadString()
			case msgp.ArrayType:
				children, err = readNodes(mr)
			default:
				err = fmt.Errorf("%w: content must be a string or an array", ErrBadNodeEncoding)
			}
		case "location":
			loc, err = readSpan(mr)
		default:
			err = mr.Skip()
		}
		if err != nil {
			return nil, err
		}
	}
	switch typ {
	case "atom":
		return &Atom{Content: text, Location: loc}, nil
	case "string":
		return &StringLiteral{Content: text, Location: loc}, nil
	case "list":
		if children == nil {
			children = []Node{}
		}
		return &List{Content: children, Location: loc}, nil
	}
	return nil, fmt.Errorf("%w: unknown node type %q", ErrBadNodeEncoding, typ)
}

func readSpan(mr *msgp.Reader) (s Span, err error) {
	sz, err := mr.ReadMapHeader()
	if err != nil {
		return
	}
	for ; sz > 0; sz-- {
		var key string
		if key, err = mr.ReadString(); err != nil {
			return
		}
		switch key {
		case "start":
			s.Start, err = readPosition(mr)
		case "end":
			s.End, err = readPosition(mr)
		default:
			err = mr.Skip()
		}
		if err != nil {
			return
		}
	}
	return s, nil
}

func readPosition(mr *msgp.Reader) (p Position, err error) {
	sz, err := mr.ReadMapHeader()
	if err != nil {
		return
	}
	for ; sz > 0; sz-- {
		var key string
		if key, err = mr.ReadString(); err != nil {
			return
		}
		switch key {
		case "offset":
			p.Offset, err = mr.ReadInt()
		case "line":
			p.Line, err = mr.ReadInt()
		case "column":
			p.Column, err = mr.ReadInt()
		default:
			err = mr.Skip()
		}
		if err != nil {
			return
		}
	}
	return p, nil
}

// SaveTreeFile writes nodes to a new file at path. An existing file
// is never overwritten.
func SaveTreeFile(path string, nodes []Node) error {
	if FileExists(path) {
		return fmt.Errorf("refusing to overwrite existing file '%s'", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create '%s': %w", path, err)
	}
	defer f.Close()
	return WriteTree(f, nodes)
}

func LoadTreeFile(path string) ([]Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTree(f)
}

func FileExists(name string) bool {
	fi, err := os.Stat(name)
	if err != nil {
		return false
	}
	return !fi.IsDir()
}
