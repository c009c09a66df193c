package tinybits

import "math"

// Feature is a bitset of optional packer behaviors, set once at
// construction time.
type Feature uint8

const (
	// FeatureStringDedupe enables the bounded back-reference cache for
	// strings of length [2, 128].
	FeatureStringDedupe Feature = 0x01
	// FeatureCompressFloats enables the scaled-decimal double encoding.
	FeatureCompressFloats Feature = 0x02
)

// maxPackableLen bounds varint-addressable lengths so that a pathological
// caller-supplied length can't silently wrap during size arithmetic. It is
// far above any payload this codec is meant to carry in one value.
const maxPackableLen = 1 << 56

// Packer is an append-only writer over a growable buffer. It exposes one
// pack method per value kind. A Packer is not safe for concurrent use by
// multiple goroutines.
type Packer struct {
	buf      []byte
	features Feature
	dedup    *dedupTable
}

// NewPacker allocates a Packer with the given initial buffer capacity and
// feature set. initialCapacity may be 0; the buffer grows as needed.
func NewPacker(initialCapacity int, features Feature) *Packer {
	if initialCapacity < 0 {
		initialCapacity = 0
	}
	p := &Packer{
		buf:      make([]byte, 0, initialCapacity),
		features: features,
	}
	if features&FeatureStringDedupe != 0 {
		p.dedup = newDedupTable()
	}
	return p
}

// Reset rewinds the packer to the start of its buffer and clears the
// dedup cache, preserving the underlying allocation for reuse.
func (p *Packer) Reset() {
	p.buf = p.buf[:0]
	if p.dedup != nil {
		p.dedup.reset()
	}
}

// Bytes returns the packed buffer so far. The returned slice aliases the
// packer's internal storage and is invalidated by the next pack call.
func (p *Packer) Bytes() []byte { return p.buf }

// Len returns the number of bytes written so far.
func (p *Packer) Len() int { return len(p.buf) }

func (p *Packer) tagOnly(tag byte) (int, error) {
	p.buf = append(p.buf, tag)
	return 1, nil
}

// PackNull writes the Null singleton.
func (p *Packer) PackNull() (int, error) { return p.tagOnly(nilTag) }

// PackTrue writes the True singleton.
func (p *Packer) PackTrue() (int, error) { return p.tagOnly(truTag) }

// PackFalse writes the False singleton.
func (p *Packer) PackFalse() (int, error) { return p.tagOnly(flsTag) }

// PackNaN writes the NaN singleton.
func (p *Packer) PackNaN() (int, error) { return p.tagOnly(nanTag) }

// PackInfinity writes the +Infinity singleton.
func (p *Packer) PackInfinity() (int, error) { return p.tagOnly(infTag) }

// PackNegativeInfinity writes the -Infinity singleton.
func (p *Packer) PackNegativeInfinity() (int, error) { return p.tagOnly(nInfTag) }

// PackSeparator writes a Separator tag, marking a boundary between
// logical top-level documents in a concatenated stream.
func (p *Packer) PackSeparator() (int, error) { return p.tagOnly(sepTag) }

// PackExt writes a zero-payload user-extension tag. Profiles that need a
// payload format must layer it on top of this single marker byte.
func (p *Packer) PackExt() (int, error) { return p.tagOnly(extTag) }

// PackInt writes a signed 64-bit integer using the small-int/continuation
// tag scheme: values in [0, 120) and (-7, 0) fit entirely in the tag byte,
// everything else spills into a trailing varint of the excess magnitude.
func (p *Packer) PackInt(value int64) (int, error) {
	start := len(p.buf)
	switch {
	case value >= 0 && value < 120:
		p.buf = append(p.buf, byte(intTag|value))
	case value >= 120:
		p.buf = append(p.buf, 248)
		p.buf = appendVarint(p.buf, uint64(value-120))
	case value > -7:
		p.buf = append(p.buf, byte(248+(-value)))
	default:
		p.buf = append(p.buf, 255)
		p.buf = appendVarint(p.buf, uint64(-(value + 7)))
	}
	return len(p.buf) - start, nil
}

// PackDouble writes a double, auto-selecting the scaled-decimal
// compression (when FeatureCompressFloats is set and the value permits
// exact reconstruction) or the raw 8-byte IEEE-754 form otherwise.
func (p *Packer) PackDouble(val float64) (int, error) {
	if math.IsNaN(val) {
		return p.PackNaN()
	}
	if math.IsInf(val, 1) {
		return p.PackInfinity()
	}
	if math.IsInf(val, -1) {
		return p.PackNegativeInfinity()
	}

	start := len(p.buf)
	if p.features&FeatureCompressFloats != 0 {
		neg := math.Signbit(val)
		absVal := math.Abs(val)
		if k, mantissa, ok := decimalPlaces(absVal); ok && mantissa < maxScaledMantissa {
			tag := pfpTag
			if neg {
				tag = nfpTag
			}
			p.buf = append(p.buf, byte(tag|k))
			p.buf = appendVarint(p.buf, mantissa)
			return len(p.buf) - start, nil
		}
	}

	p.buf = append(p.buf, f64Tag)
	p.buf = appendUint64BE(p.buf, math.Float64bits(val))
	return len(p.buf) - start, nil
}

// PackDatetime writes a unix timestamp (as a double, matching the wire's
// raw-double payload) together with a timezone offset in seconds. The
// offset is stored as a signed count of 15-minute steps in a single byte,
// so offsets are only reconstructed modulo one day.
func (p *Packer) PackDatetime(unixtime float64, offsetSeconds int) (int, error) {
	start := len(p.buf)
	p.buf = append(p.buf, dtmTag, byte(int8((offsetSeconds%86400)/900)))
	p.buf = appendUint64BE(p.buf, math.Float64bits(unixtime))
	return len(p.buf) - start, nil
}

// PackBlob writes a raw byte blob with a varint length prefix. Blobs are
// never deduplicated or otherwise interpreted.
func (p *Packer) PackBlob(blob []byte) (int, error) {
	if uint64(len(blob)) >= maxPackableLen {
		return 0, ErrValueTooLarge
	}
	start := len(p.buf)
	p.buf = append(p.buf, blbTag)
	p.buf = appendVarint(p.buf, uint64(len(blob)))
	p.buf = append(p.buf, blob...)
	return len(p.buf) - start, nil
}

// PackMap writes a map header declaring n key/value pairs. The caller is
// responsible for packing exactly 2*n subsequent values; nothing enforces
// this.
func (p *Packer) PackMap(n int) (int, error) {
	return p.packContainerHeader(mapTag, mapLen, n)
}

// PackArr writes an array header declaring n elements. The caller is
// responsible for packing exactly n subsequent values.
func (p *Packer) PackArr(n int) (int, error) {
	return p.packContainerHeader(arrTag, arrLen, n)
}

func (p *Packer) packContainerHeader(tag byte, smallMax, length int) (int, error) {
	start := len(p.buf)
	if length < smallMax {
		p.buf = append(p.buf, tag|byte(length))
	} else {
		p.buf = append(p.buf, tag|byte(smallMax))
		p.buf = appendVarint(p.buf, uint64(length-smallMax))
	}
	return len(p.buf) - start, nil
}

// PackStr writes a string, emitting a back-reference instead of the
// literal bytes when FeatureStringDedupe is enabled and an identical
// string (length in [2,128]) was already written in this buffer.
func (p *Packer) PackStr(s []byte) (int, error) {
	if uint64(len(s)) >= maxPackableLen {
		return 0, ErrValueTooLarge
	}
	start := len(p.buf)

	if p.dedup != nil && dedupable(len(s)) {
		if id, found := p.dedup.find(s, p.buf); found {
			if id < refLen {
				p.buf = append(p.buf, byte(refTag|id))
			} else {
				p.buf = append(p.buf, byte(refTag|refLen))
				p.buf = appendVarint(p.buf, uint64(id-refLen))
			}
			return len(p.buf) - start, nil
		}
	}

	if len(s) < strLen {
		p.buf = append(p.buf, byte(strTag|len(s)))
	} else {
		p.buf = append(p.buf, byte(strTag|strLen))
		p.buf = appendVarint(p.buf, uint64(len(s)-strLen))
	}
	dataOffset := len(p.buf)
	p.buf = append(p.buf, s...)

	if p.dedup != nil && dedupable(len(s)) {
		p.dedup.insert(p.buf[dataOffset:dataOffset+len(s)], uint32(dataOffset))
	}

	return len(p.buf) - start, nil
}

func appendUint64BE(buf []byte, v uint64) []byte {
	return append(buf,
		byte(v>>56), byte(v>>48), byte(v>>40), byte(v>>32),
		byte(v>>24), byte(v>>16), byte(v>>8), byte(v),
	)
}
