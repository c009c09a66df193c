package tinybits

import "math"

// stringRecord is one entry in the decoder's per-buffer string table: a
// zero-copy alias into the bound buffer, recorded the first time a
// dedupable literal string is seen so later back-references can resolve
// to it.
type stringRecord struct {
	data []byte
}

// Unpacker is a forward-only reader over a caller-owned, read-only
// buffer. Decoded strings and blobs alias directly into that buffer and
// are valid only for its lifetime; the caller must not mutate the buffer
// while an Unpacker is reading it. An Unpacker is not safe for concurrent
// use by multiple goroutines.
type Unpacker struct {
	buf     []byte
	pos     int
	strings []stringRecord
	lastErr *decodeError
}

// NewUnpacker allocates an Unpacker with no buffer bound. Call SetBuffer
// before the first UnpackValue.
func NewUnpacker() *Unpacker {
	return &Unpacker{strings: make([]stringRecord, 0, 8)}
}

// SetBuffer binds buf as the source to decode and implicitly resets all
// reader state (read position and string table).
func (u *Unpacker) SetBuffer(buf []byte) {
	u.buf = buf
	u.pos = 0
	u.strings = u.strings[:0]
	u.lastErr = nil
}

// Reset rewinds the read position and clears the string table without
// changing the bound buffer, so the same bytes can be decoded again.
func (u *Unpacker) Reset() {
	u.pos = 0
	u.strings = u.strings[:0]
	u.lastErr = nil
}

// LastError describes why the most recent UnpackValue call returned
// KindError. It is nil if the last call did not return KindError.
func (u *Unpacker) LastError() error {
	if u.lastErr == nil {
		return nil
	}
	return u.lastErr
}

func (u *Unpacker) fail(kind decodeErrKind, tag byte) Kind {
	u.lastErr = &decodeError{kind: kind, pos: u.pos, tag: tag}
	return KindError
}

// UnpackValue decodes and returns the next value from the bound buffer.
// It advances the read position by exactly the byte length of the value
// returned, or leaves it unchanged and returns KindFinished. On KindError
// the read position is left at an unspecified point inside the failed
// value, and the caller must not continue decoding.
func (u *Unpacker) UnpackValue(out *Value) Kind {
	u.lastErr = nil
	if u.pos >= len(u.buf) {
		return KindFinished
	}

	tag := u.buf[u.pos]
	u.pos++

	switch {
	case tag&intTag == intTag:
		return u.unpackInt(tag, out)
	case tag&strTag == strTag:
		return u.unpackStr(tag, out)
	case tag == nilTag:
		return KindNull
	case tag == nanTag:
		return KindNaN
	case tag == infTag:
		return KindInf
	case tag == nInfTag:
		return KindNegInf
	case tag&dblTag == dblTag:
		return u.unpackDouble(tag, out)
	case tag&mapTag == mapTag:
		return u.unpackMap(tag, out)
	case tag&arrTag == arrTag:
		return u.unpackArr(tag, out)
	case tag == blbTag:
		return u.unpackBlob(out)
	case tag == dtmTag:
		return u.unpackDatetime(out)
	case tag == sepTag:
		return KindSeparator
	case tag == extTag:
		return KindExt
	case tag == truTag:
		return KindTrue
	case tag == flsTag:
		return KindFalse
	default:
		u.pos--
		return u.fail(errUnknownTag, tag)
	}
}

func (u *Unpacker) unpackInt(tag byte, out *Value) Kind {
	switch {
	case tag < 248:
		out.Int = int64(tag) - 128
		return KindInt
	case tag == 248:
		v, n, ok := decodeVarint(u.buf, u.pos)
		if !ok {
			return u.fail(errShortRead, tag)
		}
		u.pos += n
		out.Int = int64(v) + 120
		return KindInt
	case tag < 255:
		out.Int = -(int64(tag) - 248)
		return KindInt
	default: // 255
		v, n, ok := decodeVarint(u.buf, u.pos)
		if !ok {
			return u.fail(errShortRead, tag)
		}
		u.pos += n
		out.Int = -(int64(v) + 7)
		return KindInt
	}
}

func (u *Unpacker) unpackArr(tag byte, out *Value) Kind {
	if tag&arrLen != arrLen {
		out.Length = int(tag & 0x07)
		return KindArray
	}
	v, n, ok := decodeVarint(u.buf, u.pos)
	if !ok {
		return u.fail(errShortRead, tag)
	}
	u.pos += n
	out.Length = int(v) + arrLen
	return KindArray
}

func (u *Unpacker) unpackMap(tag byte, out *Value) Kind {
	if tag&mapLen != mapLen {
		out.Length = int(tag & 0x0F)
		return KindMap
	}
	v, n, ok := decodeVarint(u.buf, u.pos)
	if !ok {
		return u.fail(errShortRead, tag)
	}
	u.pos += n
	out.Length = int(v) + mapLen
	return KindMap
}

func (u *Unpacker) unpackDouble(tag byte, out *Value) Kind {
	if tag == f64Tag {
		if u.pos+8 > len(u.buf) {
			return u.fail(errShortRead, tag)
		}
		out.Double = math.Float64frombits(decodeUint64BE(u.buf[u.pos:]))
		u.pos += 8
		return KindDouble
	}
	if tag == f32Tag || tag == f16Tag {
		// Reserved, never emitted by Pack; no decoder defined yet.
		return u.fail(errUnknownTag, tag)
	}
	v, n, ok := decodeVarint(u.buf, u.pos)
	if !ok {
		return u.fail(errShortRead, tag)
	}
	u.pos += n
	k := int(tag & 0x0F)
	out.Double = reconstructScaled(v, k, tag&0x10 != 0)
	return KindDouble
}

func (u *Unpacker) unpackDatetime(out *Value) Kind {
	if u.pos+9 > len(u.buf) {
		return u.fail(errShortRead, dtmTag)
	}
	offsetByte := int8(u.buf[u.pos])
	out.Offset = int(offsetByte) * 900
	out.Double = math.Float64frombits(decodeUint64BE(u.buf[u.pos+1:]))
	u.pos += 9
	return KindDatetime
}

func (u *Unpacker) unpackBlob(out *Value) Kind {
	v, n, ok := decodeVarint(u.buf, u.pos)
	if !ok {
		return u.fail(errShortRead, blbTag)
	}
	start := u.pos + n
	end := start + int(v)
	if end > len(u.buf) || end < start {
		return u.fail(errShortRead, blbTag)
	}
	out.Bytes = u.buf[start:end]
	out.Length = int(v)
	u.pos = end
	return KindBlob
}

func (u *Unpacker) unpackStr(tag byte, out *Value) Kind {
	var length int
	var dataStart int

	switch {
	case tag < 0x5F:
		length = int(tag & 0x1F)
		dataStart = u.pos
		if dataStart+length > len(u.buf) {
			return u.fail(errShortRead, tag)
		}
		u.pos = dataStart + length
	case tag == 0x5F:
		v, n, ok := decodeVarint(u.buf, u.pos)
		if !ok {
			return u.fail(errShortRead, tag)
		}
		length = int(v) + 31
		dataStart = u.pos + n
		if dataStart+length > len(u.buf) {
			return u.fail(errShortRead, tag)
		}
		u.pos = dataStart + length
	default: // back-reference, tag in [0x60, 0x7F]
		var id int
		if tag < 0x7F {
			id = int(tag & 0x1F)
		} else {
			v, n, ok := decodeVarint(u.buf, u.pos)
			if !ok {
				return u.fail(errShortRead, tag)
			}
			u.pos += n
			id = int(v) + 31
		}
		if id >= len(u.strings) {
			return u.fail(errDanglingRef, tag)
		}
		rec := u.strings[id]
		out.Bytes = rec.data
		out.Length = len(rec.data)
		out.StrID = int32(id) + 1
		return KindStr
	}

	data := u.buf[dataStart : dataStart+length]
	out.Bytes = data
	out.Length = length
	out.StrID = 0

	if dedupable(length) && len(u.strings) < hashCacheSize {
		u.strings = append(u.strings, stringRecord{data: data})
		out.StrID = -int32(len(u.strings))
	}
	return KindStr
}

func decodeUint64BE(b []byte) uint64 {
	return uint64(b[0])<<56 | uint64(b[1])<<48 | uint64(b[2])<<40 | uint64(b[3])<<32 |
		uint64(b[4])<<24 | uint64(b[5])<<16 | uint64(b[6])<<8 | uint64(b[7])
}
