package zyread

import "github.com/glycerine/zyread/parsec"

// Replace makes target behave exactly like source, in place. Every
// rule that references target sees the new behaviour at once; this
// is how the recursive List and Quoted rules are tied, and how a
// host overrides a rule grammar-wide.
//
// To wrap a rule's existing behaviour, Clone it first and build
// source from the clone; building source from target itself makes
// target call itself forever.
//
// Replace must not run while a parse over the same grammar is in flight.
func Replace(target, source *parsec.Parser) {
	target.SetBehaviour(source.Behaviour())
}

// Clone returns a new rule that behaves like p does now. Later
// Replace calls on p do not affect the clone. Cloning a forward
// reference before it is tied captures the unresolved placeholder.
func Clone(p *parsec.Parser) *parsec.Parser {
	return parsec.New(p.Behaviour())
}
