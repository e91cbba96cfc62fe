// Package ir provides the portable text value model for regrest records.
//
// This package contains the value types and their canonical serialization.
// All other internal packages import ir; ir imports nothing internal. This
// ensures the value model remains the foundational layer with no circular
// dependencies.
//
// Key design constraints:
//   - Values are a closed set: Null, String, Int, Float, Bool, Array, Object
//   - Object keys are sorted in RFC 8785 order (UTF-16 code units)
//   - Canonical serialization is byte-deterministic: it is the only form
//     used for fingerprinting and at-rest text payloads
//   - NaN and infinities have no canonical form and are rejected at the
//     conversion boundary
package ir
