// Package dirty tracks which byte ranges of a file-backed heap have been
// modified so they can be flushed with msync instead of syncing the whole
// mapping.
//
// # Overview
//
// The allocator reports every tag, link and payload-copy write through the
// DirtyTracker interface. A Tracker records those ranges cheaply (one slice
// append per call) and does the expensive work at flush time: ranges are
// page-aligned, sorted and merged, then each merged range is msynced.
//
// # Usage
//
//	dt := dirty.NewTracker()
//	dt.Add(0x1000, 16)
//	if err := dt.Flush(ctx, data); err != nil {
//	    return err
//	}
//	if err := dirty.Fdatasync(fd); err != nil {
//	    return err
//	}
//
// # Thread Safety
//
// Tracker is NOT thread-safe, matching the single-threaded allocator.
package dirty
