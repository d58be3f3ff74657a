// Package ast defines the typed, immutable abstract syntax tree produced by
// the parser: tokens, word-parts, words, arithmetic and boolean expression
// trees, redirections and commands. Every node type is a closed tagged
// union member (see the design notes on sum types): each carries an
// unexported isNode/isWordPart/isCommand/... tag method so that switches
// over a field's dynamic type are exhaustiveness-checkable by inspection,
// the way a hand-rolled sum type is meant to be read.
//
// Nodes are pure tree structure: each child belongs to exactly one parent,
// there are no back-pointers, and nothing here mutates after construction
// except the here-doc body backfill described on HereDoc.
package ast

import "posh.sh/pkg/arena"

// Node is satisfied by every AST type. SourceText returns the exact source
// bytes the node was parsed from; concatenating the SourceText of a List's
// top-level children in order reproduces the original input byte-for-byte
// (invariant 1 of the data model).
type Node interface {
	SourceText() string
	Start() arena.Span
	End() arena.Span
	isNode()
}

// Base is embedded by every concrete node type to provide the common
// Node plumbing. It is filled in once, at construction time, by the
// parser; nothing below this package ever modifies it afterward.
type Base struct {
	Text  string
	Begin arena.Span
	Final arena.Span
}

// Init records the span of source text a node was built from. Parsers call
// this exactly once per node, right after constructing it.
func (b *Base) Init(text string, begin, final arena.Span) {
	b.Text, b.Begin, b.Final = text, begin, final
}

func (b Base) SourceText() string { return b.Text }
func (b Base) Start() arena.Span  { return b.Begin }
func (b Base) End() arena.Span    { return b.Final }
