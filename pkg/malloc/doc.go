/*
Package malloc is the public face of the heap allocator.

# Quick Start

Use the process-wide default heap with C-style calls:

	p := malloc.Malloc(64)
	if p == malloc.Nil {
	    // out of memory
	}
	copy(malloc.Bytes(p), data)
	p = malloc.Realloc(p, 128)
	malloc.Free(p)

Or own a heap explicitly:

	h := malloc.New(nil)
	defer h.Close()

	p, buf, err := h.Alloc(64)
	if err != nil {
	    return err
	}
	copy(buf, data)

# Addresses

A Ptr is an offset into the heap, not a Go pointer. Payload slices returned
by Alloc and Bytes alias the heap and stay valid only until the next Alloc,
Realloc or Calloc on the same heap, which may grow it.

# Persistent Heaps

CreateFile and OpenFile back the heap with a memory-mapped file whose length
follows the heap break. Addresses stay valid across reopen. Payload views
handed out by Alloc, Calloc and Bytes are recorded as written; Sync flushes
them together with the allocator's own bookkeeping.

# Concurrency

Neither a Heap nor the default heap is safe for concurrent use. The default
heap detects overlapping calls and panics rather than corrupt itself.
*/
package malloc
