package dirty

// DirtyTracker is the minimal interface for reporting modified byte ranges.
// Components that only write (the allocator) depend on this rather than on
// Tracker so in-memory heaps can pass nil.
type DirtyTracker interface {
	// Add marks a byte range as dirty. off is the offset from the start of
	// the region, length is the number of bytes.
	Add(off, length int)
}
