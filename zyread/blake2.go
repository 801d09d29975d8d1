package zyread

import (
	"encoding/binary"

	"github.com/glycerine/blake2b"
)

// Blake2bUint64 returns an 8 byte BLAKE2b cryptographic
// hash of the raw.
//
// reference: https://blake2.net/
// reference: https://tools.ietf.org/html/rfc7693
func Blake2bUint64(raw []byte) uint64 {
	cfg := &blake2b.Config{Size: 8}
	h, err := blake2b.New(cfg)
	panicOn(err)
	h.Write(raw)
	by := h.Sum(nil)
	return binary.LittleEndian.Uint64(by[:8])
}

// Fingerprint hashes the structure and content of n, ignoring
// locations. Trees that print the same share a fingerprint.
func Fingerprint(n Node) uint64 {
	return Blake2bUint64([]byte(n.SexpString()))
}
