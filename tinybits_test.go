package tinybits

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRoundTripAllKinds packs one value of every kind into a single
// document and checks each decodes back to the same Go value, in order.
func TestRoundTripAllKinds(t *testing.T) {
	p := NewPacker(128, FeatureStringDedupe|FeatureCompressFloats)

	require.NoError(t, errOf(p.PackNull()))
	require.NoError(t, errOf(p.PackTrue()))
	require.NoError(t, errOf(p.PackFalse()))
	require.NoError(t, errOf(p.PackInt(-123456)))
	require.NoError(t, errOf(p.PackDouble(1.5)))
	require.NoError(t, errOf(p.PackDouble(math.Pi)))
	require.NoError(t, errOf(p.PackNaN()))
	require.NoError(t, errOf(p.PackInfinity()))
	require.NoError(t, errOf(p.PackNegativeInfinity()))
	require.NoError(t, errOf(p.PackStr([]byte("hello world"))))
	require.NoError(t, errOf(p.PackBlob([]byte{0xDE, 0xAD, 0xBE, 0xEF})))
	require.NoError(t, errOf(p.PackDatetime(1712345678, -14400)))
	require.NoError(t, errOf(p.PackSeparator()))
	require.NoError(t, errOf(p.PackExt()))

	u := NewUnpacker()
	u.SetBuffer(p.Bytes())
	var val Value

	require.Equal(t, KindNull, u.UnpackValue(&val))
	require.Equal(t, KindTrue, u.UnpackValue(&val))
	require.Equal(t, KindFalse, u.UnpackValue(&val))
	require.Equal(t, KindInt, u.UnpackValue(&val))
	require.Equal(t, int64(-123456), val.Int)
	require.Equal(t, KindDouble, u.UnpackValue(&val))
	require.Equal(t, 1.5, val.Double)
	require.Equal(t, KindDouble, u.UnpackValue(&val))
	require.Equal(t, math.Pi, val.Double)
	require.Equal(t, KindNaN, u.UnpackValue(&val))
	require.Equal(t, KindInf, u.UnpackValue(&val))
	require.Equal(t, KindNegInf, u.UnpackValue(&val))
	require.Equal(t, KindStr, u.UnpackValue(&val))
	require.Equal(t, "hello world", string(val.Bytes))
	require.Equal(t, KindBlob, u.UnpackValue(&val))
	require.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, val.Bytes)
	require.Equal(t, KindDatetime, u.UnpackValue(&val))
	require.Equal(t, float64(1712345678), val.Double)
	require.Equal(t, -14400, val.Offset)
	require.Equal(t, KindSeparator, u.UnpackValue(&val))
	require.Equal(t, KindExt, u.UnpackValue(&val))
	require.Equal(t, KindFinished, u.UnpackValue(&val))
}

func errOf(_ int, err error) error { return err }

// TestCompressedFloatsAreSmallerThanRaw checks these short decimals take
// the scaled-decimal path, which is smaller than the raw 9-byte form, and
// decode back to the same value.
func TestCompressedFloatsAreSmallerThanRaw(t *testing.T) {
	values := []float64{0, 1, -1, 1.5, -2.25, 100, 123.456, 0.001}
	for _, v := range values {
		compressed := NewPacker(16, FeatureCompressFloats)
		_, err := compressed.PackDouble(v)
		require.NoError(t, err)
		require.Less(t, compressed.Len(), 9, "value %v", v)

		u := NewUnpacker()
		u.SetBuffer(compressed.Bytes())
		var val Value
		require.Equal(t, KindDouble, u.UnpackValue(&val))
		require.Equal(t, v, val.Double)
	}
}

// TestUncompressibleFloatFallsBackToRaw checks a value with no exact
// short decimal representation always uses the raw 9-byte form even with
// compression enabled, and still round-trips exactly.
func TestUncompressibleFloatFallsBackToRaw(t *testing.T) {
	v := math.Sqrt(2)
	p := NewPacker(16, FeatureCompressFloats)
	_, err := p.PackDouble(v)
	require.NoError(t, err)
	require.Equal(t, 9, p.Len())

	u := NewUnpacker()
	u.SetBuffer(p.Bytes())
	var val Value
	require.Equal(t, KindDouble, u.UnpackValue(&val))
	require.Equal(t, v, val.Double)
}

// TestStringDedupeIsDeterministicByInsertionOrder checks repeated strings
// resolve to back-references keyed by the order they were first written,
// not by any property of the string contents.
func TestStringDedupeIsDeterministicByInsertionOrder(t *testing.T) {
	p := NewPacker(64, FeatureStringDedupe)
	words := []string{"zeta", "alpha", "zeta", "mu", "alpha"}
	for _, w := range words {
		_, err := p.PackStr([]byte(w))
		require.NoError(t, err)
	}

	u := NewUnpacker()
	u.SetBuffer(p.Bytes())
	wantStrID := []int32{-1, -2, 1, -3, 2}
	for i, w := range words {
		var val Value
		require.Equal(t, KindStr, u.UnpackValue(&val))
		require.Equal(t, w, string(val.Bytes))
		require.Equal(t, wantStrID[i], val.StrID, "word %q at index %d", w, i)
	}
}

// TestContainerLengthBoundaries checks the small-length/overflow split for
// both map and array headers on both sides of their inline ceilings.
func TestContainerLengthBoundaries(t *testing.T) {
	for _, n := range []int{0, arrLen - 1, arrLen, arrLen + 1, arrLen + 300} {
		p := NewPacker(16, 0)
		_, err := p.PackArr(n)
		require.NoError(t, err)
		u := NewUnpacker()
		u.SetBuffer(p.Bytes())
		var val Value
		require.Equal(t, KindArray, u.UnpackValue(&val))
		require.Equal(t, n, val.Length)
	}
	for _, n := range []int{0, mapLen - 1, mapLen, mapLen + 1, mapLen + 300} {
		p := NewPacker(16, 0)
		_, err := p.PackMap(n)
		require.NoError(t, err)
		u := NewUnpacker()
		u.SetBuffer(p.Bytes())
		var val Value
		require.Equal(t, KindMap, u.UnpackValue(&val))
		require.Equal(t, n, val.Length)
	}
}

// TestStringLengthBoundaries checks the inline/overflow split for literal
// string length headers around the embedded-length ceiling.
func TestStringLengthBoundaries(t *testing.T) {
	for _, n := range []int{0, 1, strLen - 1, strLen, strLen + 1, strLen + 200} {
		s := make([]byte, n)
		for i := range s {
			s[i] = byte('a' + i%26)
		}
		p := NewPacker(256, 0)
		_, err := p.PackStr(s)
		require.NoError(t, err)
		u := NewUnpacker()
		u.SetBuffer(p.Bytes())
		var val Value
		require.Equal(t, KindStr, u.UnpackValue(&val))
		require.Equal(t, s, val.Bytes)
	}
}

// TestDecodedStringsAliasTheSourceBuffer checks the zero-copy contract:
// decoded string bytes share storage with the buffer passed to SetBuffer.
func TestDecodedStringsAliasTheSourceBuffer(t *testing.T) {
	p := NewPacker(32, 0)
	_, err := p.PackStr([]byte("alias-me"))
	require.NoError(t, err)
	buf := append([]byte(nil), p.Bytes()...)

	u := NewUnpacker()
	u.SetBuffer(buf)
	var val Value
	require.Equal(t, KindStr, u.UnpackValue(&val))
	require.Equal(t, "alias-me", string(val.Bytes))

	buf[len(buf)-1] = '!'
	require.Equal(t, byte('!'), val.Bytes[len(val.Bytes)-1], "decoded bytes should alias the source buffer")
}

// TestErrorStateIsSticky checks that after UnpackValue reports KindError,
// LastError keeps describing that failure until the next successful call.
func TestErrorStateIsSticky(t *testing.T) {
	u := NewUnpacker()
	u.SetBuffer([]byte{nxtTag})
	var val Value
	require.Equal(t, KindError, u.UnpackValue(&val))
	require.Error(t, u.LastError())
}
