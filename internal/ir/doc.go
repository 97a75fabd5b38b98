// Package ir defines the canonical tabular intermediate representation: named
// tables of ordered rows, each row a mapping from a lowercase column name to
// a typed scalar (string, integer, or float only).
//
// The IR is the hand-off boundary to the external spreadsheet emitter. It is
// tidy by construction: one fact per row, year always a column value and
// never a column name. The shape rules are enforced by a separate validation
// stage regardless of how the IR was produced.
package ir
