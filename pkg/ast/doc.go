// Package ast defines the syntax tree leftovers walks.
//
// Every front-end (Ruby, ERB, HAML) lowers its input to the same small set
// of node kinds. Method calls, including operators and attribute
// assignment, are KindSend; definitions, constants and variables have their
// own kinds; everything else is a KindBegin container whose children are
// walked without further meaning.
//
// Accessors such as Positional, Keywords, Literal and NodeName return an
// absent value when the node does not have that role, so callers never need
// to check the kind first.
package ast
