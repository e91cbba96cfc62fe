// Package codec encodes runtime values into tagged, portable records and
// decodes them back in a possibly different process context.
//
// Encoding is hybrid: a value expressible in the portable text model
// (package ir) is stored as canonical-ordered JSON under kind "text"; any
// other value falls back whole to a deep gob serialization, framed with a
// CRC32 checksum and wrapped in base64, under kind "binary". The choice is
// all-or-nothing per value - a value is never partially text and partially
// binary.
//
// Decoding a "binary" payload reconstructs user-defined types by name
// against a caller-supplied ResolutionContext. Type names recorded in one
// process (including transient "main" identities) are resolved through the
// context's registry, alias table, and optional on-demand loader. A name
// that cannot be resolved surfaces as a typed DecodeError, never a panic.
package codec
