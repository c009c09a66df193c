// Package tinybits implements a compact, self-describing binary encoding
// for dynamically typed values: integers, doubles, strings, blobs, maps,
// arrays, booleans, null, NaN/±Infinity, datetimes, user extensions, and
// stream separators.
//
// A tinybits message is a concatenation of tagged values. Every value
// begins with a single tag byte that identifies its kind and, for small
// values, embeds the payload or its length directly; larger payloads
// spill into a variable-length integer that follows the tag. There is no
// file header, no framing, and no checksum — a stream is simply values,
// optionally separated by a Separator tag between logical documents.
//
// Two features can be toggled independently when a Packer is created:
//
//   - FeatureStringDedupe caches short strings (2..128 bytes) in a
//     bounded table and emits a small back-reference instead of repeating
//     bytes already written.
//   - FeatureCompressFloats detects doubles that are exact decimal
//     fractions with at most 12 digits after the point and stores them
//     as a sign, a decimal-place count, and an integer mantissa instead
//     of the raw 8-byte IEEE-754 representation.
//
// Use NewPacker to build a buffer and NewUnpacker to read one back; the
// higher-level Marshal and Unmarshal functions build on top of them for
// Go maps, slices, and tagged structs.
package tinybits
