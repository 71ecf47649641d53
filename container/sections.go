package container

// padTo8 returns the number of zero bytes needed to advance off to the
// next multiple of 8 (spec.md §4.7/§6.1's section alignment rule).
func padTo8(off uint64) uint64 {
	rem := off % 8
	if rem == 0 {
		return 0
	}

	return 8 - rem
}

// alignUp8 returns off rounded up to the next multiple of 8.
func alignUp8(off uint64) uint64 {
	return off + padTo8(off)
}
