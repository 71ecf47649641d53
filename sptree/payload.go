// Package sptree implements the static, implicit-addressed B+Tree used
// to index one attribute column (spec.md §4.4): internal and leaf layers
// are flat, fixed-stride arrays, in the spirit of dpeckett-qcow2's L1/L2
// cluster tables. Each internal entry stores in its ptr the start index
// of its child group in the layer below, and descent follows that stored
// index rather than computing it from the parent's position. A leaf ptr
// is either a direct feature offset or, for duplicate-key fan-out (more
// than one feature sharing a key), a tagged index into a chain of
// fixed-size payload blocks.
package sptree

import "github.com/cityjson/flatcitybuf/errs"

// payloadTagBit marks a leaf ptr as a payload-block index rather than a
// direct feature offset (spec.md §3's "(b) a tagged offset into the
// payload section when duplicates exist").
const payloadTagBit = uint64(1) << 63

// DefaultPayloadCapacity is M, the number of feature offsets held by one
// payload block before chaining to the next.
const DefaultPayloadCapacity = 64

// payloadBlockWidth returns the on-disk byte width of one payload block
// with room for m offsets: count(u32) + next(u64) + m*offset(u64).
func payloadBlockWidth(m int) int { return 4 + 8 + 8*m }

// MaxPayloadChainBytes bounds the total bytes a single find_eq
// dereference will walk across chained payload blocks, defeating a
// maliciously or corruptly cyclic next chain (spec.md §9: "implementers
// must cap chain traversal by total payload size to defeat malformed
// inputs"). Default is generous relative to DefaultPayloadCapacity so
// legitimate duplicate chains never hit it.
var MaxPayloadChainBytes = payloadBlockWidth(DefaultPayloadCapacity) * 64

// encodePayloadBlocks lays out offs (already known to need chaining, i.e.
// len(offs) > 1) into one or more fixed-capacity blocks, chained via
// next (1-based block index, 0 terminates). It appends the serialized
// blocks to *section (so several duplicate chains share one payload
// region) and returns the 1-based index of the first block written, for
// use as a tagged leaf ptr.
func encodePayloadBlocks(section *[]byte, offs []int64, capacity int) uint64 {
	blockWidth := payloadBlockWidth(capacity)

	type pending struct {
		chunk []int64
	}

	var chunks []pending
	for i := 0; i < len(offs); i += capacity {
		end := i + capacity
		if end > len(offs) {
			end = len(offs)
		}

		chunks = append(chunks, pending{chunk: offs[i:end]})
	}

	firstIndex := uint64(len(*section)/blockWidth) + 1

	for i, c := range chunks {
		next := uint64(0)
		if i < len(chunks)-1 {
			next = firstIndex + uint64(i) + 1
		}

		*section = append(*section, encodeBlock(c.chunk, next, capacity)...)
	}

	return firstIndex
}

func encodeBlock(offs []int64, next uint64, capacity int) []byte {
	buf := make([]byte, payloadBlockWidth(capacity))
	putU32(buf[0:], uint32(len(offs))) //nolint: gosec
	putU64(buf[4:], next)

	for i, o := range offs {
		putU64(buf[12+i*8:], uint64(o))
	}

	return buf
}

// walkChain follows a duplicate-key's payload chain starting at the
// 1-based block index first, returning every feature offset in it. read
// fetches the raw bytes of block index i (1-based); capacity must match
// the value the chain was built with.
func walkChain(first uint64, capacity int, read func(blockIndex uint64) ([]byte, error)) ([]int64, error) {
	blockWidth := payloadBlockWidth(capacity)

	var out []int64

	walked := 0
	idx := first

	for idx != 0 {
		walked += blockWidth
		if walked > MaxPayloadChainBytes {
			return nil, errs.NewFormatError("sptree-payload", errs.ErrCorruptIndex)
		}

		buf, err := read(idx)
		if err != nil {
			return nil, err
		}

		if len(buf) != blockWidth {
			return nil, errs.NewFormatError("sptree-payload", errs.ErrCorruptIndex)
		}

		count := getU32(buf[0:])
		if int(count) > capacity {
			return nil, errs.NewFormatError("sptree-payload", errs.ErrCorruptIndex)
		}

		next := getU64(buf[4:])

		for i := 0; i < int(count); i++ {
			out = append(out, int64(getU64(buf[12+i*8:])))
		}

		idx = next
	}

	return out, nil
}
