package tinybits

// Tag byte constants, one family per high-bit pattern.
const (
	intTag = 0x80 // 1xxxxxxx: small int or continuation marker
	strTag = 0x40 // 01xxxxxx: literal string or dedup back-reference
	refTag = 0x60 // 01 1xxxxx: back-reference subfamily of strTag
	dblTag = 0x20 // 001xxxxx: double family (raw, scaled, NaN/Inf)
	pfpTag = 0x20 // positive scaled decimal
	nfpTag = 0x30 // negative scaled decimal
	mapTag = 0x10 // 0001xxxx: map header
	arrTag = 0x08 // 00001xxx: array header

	nanTag = 0x2D
	infTag = 0x3D
	nInfTag = 0x2E
	f32Tag  = 0x2F // reserved, never emitted by Pack; Unpack treats as Error
	f16Tag  = 0x3E // reserved, never emitted by Pack; Unpack treats as Error
	f64Tag  = 0x3F

	dtmTag = 0x07
	nxtTag = 0x06 // reserved for multibyte extensions; unknown on decode
	sepTag = 0x05
	extTag = 0x04
	blbTag = 0x03
	nilTag = 0x02
	truTag = 0x01
	flsTag = 0x00
)

// Overflow markers in the low bits of a tag: values below the marker are
// embedded directly; the marker itself means a varint of (value - marker)
// follows.
const (
	strLen = 0x1F // literal-string lengths 0..30 embed; 0x1F means overflow
	refLen = 0x1F // back-reference ids 0..30 embed; 0x1F means overflow
	mapLen = 0x0F // map lengths 0..14 embed; 0x0F means overflow
	arrLen = 0x07 // array lengths 0..6 embed; 0x07 means overflow
)

// Dedup table bounds.
const (
	hashBins      = 128
	hashCacheSize = 256
	dedupMinLen   = 2
	dedupMaxLen   = 128
)

// powers[k] == 10^k, used to reconstruct a scaled-decimal mantissa.
var powers = [13]float64{
	1.0, 10.0, 100.0, 1000.0, 10000.0, 100000.0, 1000000.0,
	10000000.0, 100000000.0, 1000000000.0, 10000000000.0,
	100000000000.0, 1000000000000.0,
}
