package region

import "fmt"

// Memory is a Region backed by a Go byte slice. The full reservation is
// allocated up front so growth is a reslice and the base never moves.
type Memory struct {
	data   []byte
	max    int
	closed bool
}

// NewMemory reserves maxBytes (DefaultMaxHeap if <= 0) of zeroed memory.
func NewMemory(maxBytes int) *Memory {
	maxBytes = resolveMax(maxBytes)
	return &Memory{
		data: make([]byte, 0, maxBytes),
		max:  maxBytes,
	}
}

// Sbrk implements Region.
func (m *Memory) Sbrk(n int) (int, error) {
	if m.closed {
		return 0, ErrClosed
	}
	brk := len(m.data)
	if n <= 0 {
		return brk, nil
	}
	if n > m.max-brk {
		return 0, fmt.Errorf("sbrk %d bytes at break %d (max %d): %w", n, brk, m.max, ErrExhausted)
	}
	m.data = m.data[:brk+n]
	return brk, nil
}

// Bytes implements Region.
func (m *Memory) Bytes() []byte {
	return m.data[:len(m.data):len(m.data)]
}

// Len implements Region.
func (m *Memory) Len() int { return len(m.data) }

// Cap returns the reservation size.
func (m *Memory) Cap() int { return m.max }

// Close implements Region.
func (m *Memory) Close() error {
	if m.closed {
		return ErrClosed
	}
	m.closed = true
	m.data = nil
	return nil
}
