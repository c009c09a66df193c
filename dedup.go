package tinybits

// dedupEntry is a chained hash-table node stored in a flat, fixed-capacity
// arena rather than individually heap-allocated.
type dedupEntry struct {
	hash   uint32
	length uint32
	offset uint32 // byte offset into the packer's own output buffer
	next   uint16 // 0 means end of chain; n>0 means cache index n-1
}

// dedupTable is the packer-side write cache: up to hashCacheSize entries,
// chained through hashBins buckets. Insertion order is the dedup ID space.
//
// bins uses uint16 rather than uint8 head indices: with hashCacheSize ==
// 256, a uint8 head index cannot distinguish "empty" from "the 256th
// entry" (both stored as the same truncated byte), silently breaking the
// last slot's chain. This is purely an internal lookup-table width and has
// no effect on the wire format.
type dedupTable struct {
	cache []dedupEntry // len == hashCacheSize once allocated
	bins  [hashBins]uint16
	pos   int // number of entries populated so far
}

func newDedupTable() *dedupTable {
	return &dedupTable{cache: make([]dedupEntry, hashCacheSize)}
}

func (t *dedupTable) reset() {
	t.pos = 0
	for i := range t.bins {
		t.bins[i] = 0
	}
}

// fingerprint computes the 32-bit key (len<<24)|s[0]<<16|s[1]<<8|s[len-1].
// Only called for 2 <= len(s) <= 128.
func fingerprint(s []byte) uint32 {
	n := len(s)
	return uint32(n)<<24 | uint32(s[0])<<16 | uint32(s[1])<<8 | uint32(s[n-1])
}

// find walks the chain for s's fingerprint, verifying each candidate with a
// full byte compare against the source buffer. It returns the matched
// entry's insertion-order ID and true on a hit.
func (t *dedupTable) find(s []byte, source []byte) (id int, found bool) {
	h := fingerprint(s)
	bin := int(h % hashBins)
	idx := t.bins[bin]
	for idx > 0 {
		e := t.cache[idx-1]
		if e.hash == h && int(e.length) == len(s) &&
			bytesEqual(s, source[e.offset:e.offset+e.length]) {
			return int(idx) - 1, true
		}
		idx = e.next
	}
	return 0, false
}

// insert records a newly written literal string at byte offset off in the
// packer's buffer. It is a no-op once the cache is full.
func (t *dedupTable) insert(s []byte, off uint32) {
	if t.pos >= hashCacheSize {
		return
	}
	h := fingerprint(s)
	bin := int(h % hashBins)
	t.cache[t.pos] = dedupEntry{hash: h, length: uint32(len(s)), offset: off, next: t.bins[bin]}
	t.pos++
	t.bins[bin] = uint16(t.pos)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// dedupable reports whether a string of this length participates in
// deduplication at all.
func dedupable(n int) bool {
	return n >= dedupMinLen && n <= dedupMaxLen
}
