// Package match compares an expected value against an actual value under
// configurable numeric tolerance, producing a pass/fail verdict with a
// path-qualified explanation on failure.
//
// The comparison is recursive and short-circuits on the first divergence in
// a fixed traversal order. Dynamic type discrimination is intentionally
// stricter than native equality: an int that became a float fails even when
// the numeric values agree, because "value looks equal but type changed" is
// exactly the regression this harness exists to report.
//
// A mismatch is a normal, typed result. Match never panics on well-formed
// inputs and never aborts the caller.
package match
