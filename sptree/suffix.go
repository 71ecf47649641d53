package sptree

// SuffixEntry records the full value behind one duplicate-chain feature
// offset whose index key is a truncated string prefix (keycodec's
// EncodeStringPrefix), so find_eq can tell genuine prefix collisions
// ("abcdefgh-one" vs "abcdefgh-two" sharing an 8-byte prefix) apart from
// a true equal-value match (spec.md §4.4's collision handling).
type SuffixEntry struct {
	Offset int64
	Value  string
}

// SuffixTable maps a feature offset to its full indexed string value. It
// is only populated for string-typed columns, and only needs entries for
// offsets that participate in a duplicate-key chain — a unique prefix
// never needs disambiguation.
type SuffixTable struct {
	entries map[int64]string
}

// NewSuffixTable builds a table from entries.
func NewSuffixTable(entries []SuffixEntry) *SuffixTable {
	t := &SuffixTable{entries: make(map[int64]string, len(entries))}
	for _, e := range entries {
		t.entries[e.Offset] = e.Value
	}

	return t
}

// Lookup returns the full string value stored for a feature offset.
func (t *SuffixTable) Lookup(offset int64) (string, bool) {
	if t == nil {
		return "", false
	}

	v, ok := t.entries[offset]

	return v, ok
}

// Encode serializes the table as a count followed by (offset int64,
// length uint32, bytes) entries.
func (t *SuffixTable) Encode() []byte {
	if t == nil {
		return encodeUint32(0)
	}

	size := 4
	for _, v := range t.entries {
		size += 8 + 4 + len(v)
	}

	buf := make([]byte, size)
	putU32(buf, uint32(len(t.entries))) //nolint: gosec

	off := 4
	for offset, v := range t.entries {
		putU64(buf[off:], uint64(offset))
		off += 8
		putU32(buf[off:], uint32(len(v))) //nolint: gosec
		off += 4
		off += copy(buf[off:], v)
	}

	return buf
}

func encodeUint32(v uint32) []byte {
	buf := make([]byte, 4)
	putU32(buf, v)

	return buf
}

// DecodeSuffixTable parses the byte form produced by Encode.
func DecodeSuffixTable(data []byte) (*SuffixTable, int, error) {
	if len(data) < 4 {
		return nil, 0, errTruncated
	}

	count := getU32(data)
	off := 4

	t := &SuffixTable{entries: make(map[int64]string, count)}

	for i := uint32(0); i < count; i++ {
		if off+12 > len(data) {
			return nil, 0, errTruncated
		}

		offset := int64(getU64(data[off:]))
		off += 8
		n := getU32(data[off:])
		off += 4

		if off+int(n) > len(data) {
			return nil, 0, errTruncated
		}

		t.entries[offset] = string(data[off : off+int(n)])
		off += int(n)
	}

	return t, off, nil
}
