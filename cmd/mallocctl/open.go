package main

import (
	"fmt"
	"os"

	"github.com/Jeff-Souza/malloc/pkg/malloc"
)

// openImage opens a heap image with a reservation large enough for it.
// Opening rewrites the free-list links in place; a consistent image is
// left byte-for-byte unchanged.
func openImage(path string, maxHeap int) (*malloc.Heap, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	printVerbose("Opening heap image: %s (%s)\n", path, formatBytes(info.Size()))
	return malloc.OpenFile(path, &malloc.Options{MaxHeap: max(maxHeap, int(info.Size()))})
}
