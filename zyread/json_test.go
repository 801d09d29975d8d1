package zyread

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	cv "github.com/glycerine/goconvey/convey"
)

const sampleSource = "#!/bin/zyread\n(define (f x) ; doc\n  `(list ,x ,@rest \"s\\n\"))\n'() a\\ b"

func Test040JsonRoundTrip(t *testing.T) {

	cv.Convey(`Nodes should survive json encoding with content and locations intact`, t, func() {
		nodes := mustRead(sampleSource)
		by, err := NodesToJson(nodes)
		cv.So(err, cv.ShouldBeNil)
		cv.So(string(by), cv.ShouldContainSubstring, `"type":"list"`)
		cv.So(string(by), cv.ShouldContainSubstring, `"column":`)

		back, err := JsonToNodes(by)
		cv.So(err, cv.ShouldBeNil)
		cv.So(back, cv.ShouldResemble, nodes)
	})

	cv.Convey(`NodeToGo should produce the plain map shape`, t, func() {
		nodes := mustRead(`(a "b")`)
		m := NodeToGo(nodes[0])
		cv.So(m["type"], cv.ShouldEqual, "list")
		kids := m["content"].([]interface{})
		cv.So(len(kids), cv.ShouldEqual, 2)
		cv.So(kids[1].(map[string]interface{})["type"], cv.ShouldEqual, "string")
		loc := m["location"].(map[string]interface{})
		cv.So(loc["end"].(map[string]interface{})["offset"], cv.ShouldEqual, 7)
	})

	cv.Convey(`Malformed json trees should be rejected with ErrBadNodeEncoding`, t, func() {
		for _, doc := range []string{
			`{"type":"atom"}`,
			`[{"type":"blob","content":"x","location":{"start":{"offset":0,"line":1,"column":1},"end":{"offset":1,"line":1,"column":2}}}]`,
			`[{"type":"atom","content":[],"location":{"start":{"offset":0,"line":1,"column":1},"end":{"offset":1,"line":1,"column":2}}}]`,
			`[{"type":"atom","content":"x","location":"here"}]`,
			`[1, 2`,
		} {
			_, err := JsonToNodes([]byte(doc))
			cv.So(err, cv.ShouldNotBeNil)
			cv.So(errors.Is(err, ErrBadNodeEncoding), cv.ShouldBeTrue)
		}
	})
}

func Test041MsgpackEncodings(t *testing.T) {

	cv.Convey(`The codec msgpack encoding should round trip`, t, func() {
		nodes := mustRead(sampleSource)
		by, err := NodesToMsgpack(nodes)
		cv.So(err, cv.ShouldBeNil)
		back, err := MsgpackToNodes(by)
		cv.So(err, cv.ShouldBeNil)
		cv.So(back, cv.ShouldResemble, nodes)
	})

	cv.Convey(`MarshalTree and UnmarshalTree should round trip and consume exactly their bytes`, t, func() {
		nodes := mustRead(sampleSource)
		by, err := MarshalTree(nil, nodes)
		cv.So(err, cv.ShouldBeNil)

		sz := 0
		for _, n := range nodes {
			sz += nodeMsgsize(n)
		}
		cv.So(sz, cv.ShouldBeGreaterThanOrEqualTo, len(by)-5)

		back, rest, err := UnmarshalTree(append(by, 0xc0))
		cv.So(err, cv.ShouldBeNil)
		cv.So(rest, cv.ShouldResemble, []byte{0xc0})
		cv.So(back, cv.ShouldResemble, nodes)
	})

	cv.Convey(`Bytes from the codec encoder, whose map keys are sorted, should unmarshal with the hand-written reader`, t, func() {
		nodes := mustRead(sampleSource)
		by, err := NodesToMsgpack(nodes)
		cv.So(err, cv.ShouldBeNil)
		back, rest, err := UnmarshalTree(by)
		cv.So(err, cv.ShouldBeNil)
		cv.So(len(rest), cv.ShouldEqual, 0)
		cv.So(back, cv.ShouldResemble, nodes)
	})

	cv.Convey(`And MarshalTree output should decode through the codec path`, t, func() {
		nodes := mustRead(sampleSource)
		by, err := MarshalTree(nil, nodes)
		cv.So(err, cv.ShouldBeNil)
		back, err := MsgpackToNodes(by)
		cv.So(err, cv.ShouldBeNil)
		cv.So(back, cv.ShouldResemble, nodes)
	})
}

func Test042StreamingTreeSaveAndLoad(t *testing.T) {

	cv.Convey(`WriteTree and ReadTree should round trip over a stream`, t, func() {
		nodes := mustRead(sampleSource)
		var buf bytes.Buffer
		cv.So(WriteTree(&buf, nodes), cv.ShouldBeNil)

		cv.Convey(`in the shape UnmarshalTree reads`, func() {
			back, rest, err := UnmarshalTree(buf.Bytes())
			cv.So(err, cv.ShouldBeNil)
			cv.So(len(rest), cv.ShouldEqual, 0)
			cv.So(back, cv.ShouldResemble, nodes)
		})

		back, err := ReadTree(bytes.NewReader(buf.Bytes()))
		cv.So(err, cv.ShouldBeNil)
		cv.So(back, cv.ShouldResemble, nodes)
	})

	cv.Convey(`SaveTreeFile should refuse to overwrite, and LoadTreeFile should read back what was saved`, t, func() {
		nodes := mustRead(`(a (b "c"))`)
		fn := filepath.Join(t.TempDir(), "tree.msgp")
		cv.So(SaveTreeFile(fn, nodes), cv.ShouldBeNil)
		cv.So(FileExists(fn), cv.ShouldBeTrue)

		err := SaveTreeFile(fn, nodes)
		cv.So(err, cv.ShouldNotBeNil)
		cv.So(err.Error(), cv.ShouldContainSubstring, "refusing")

		back, err := LoadTreeFile(fn)
		cv.So(err, cv.ShouldBeNil)
		cv.So(back, cv.ShouldResemble, nodes)
	})

	cv.Convey(`A truncated stream should be an error`, t, func() {
		var buf bytes.Buffer
		cv.So(WriteTree(&buf, mustRead(`(a b c)`)), cv.ShouldBeNil)
		by := buf.Bytes()
		_, err := ReadTree(strings.NewReader(string(by[:len(by)/2])))
		cv.So(err, cv.ShouldNotBeNil)
	})
}
