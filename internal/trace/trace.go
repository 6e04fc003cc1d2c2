// Package trace reads, writes, generates and replays allocation traces.
//
// A trace is a malloc-lab style script: a four-line header followed by one
// operation per line.
//
//	20000      suggested heap size (informational)
//	3          number of distinct block ids
//	5          number of operations
//	1          weight
//	a 0 512    allocate 512 bytes as block 0
//	a 1 128
//	r 0 640    resize block 0 to 640 bytes
//	f 1        free block 1
//	f 0
//
// Blank lines and lines starting with # are ignored.
package trace

import (
	"errors"
	"fmt"
)

var (
	// ErrSyntax indicates malformed trace text. Parse errors are *ParseError
	// values wrapping it.
	ErrSyntax = errors.New("trace: syntax error")

	// ErrInvalid indicates a structurally valid trace that misuses an id:
	// out of range, allocated twice, or used while not live.
	ErrInvalid = errors.New("trace: invalid operation")

	// ErrVerify indicates the heap under replay returned a misaligned,
	// out-of-range or overlapping block, or lost payload contents.
	ErrVerify = errors.New("trace: replay verification failed")
)

// Kind identifies an operation.
type Kind byte

// Operation kinds, spelled as in the trace text.
const (
	Alloc   Kind = 'a'
	Realloc Kind = 'r'
	Free    Kind = 'f'
)

func (k Kind) String() string {
	switch k {
	case Alloc:
		return "alloc"
	case Realloc:
		return "realloc"
	case Free:
		return "free"
	default:
		return fmt.Sprintf("Kind(%q)", byte(k))
	}
}

// Op is one trace line. Size is unused for Free.
type Op struct {
	Kind Kind
	ID   int
	Size int
}

func (o Op) String() string {
	if o.Kind == Free {
		return fmt.Sprintf("%c %d", o.Kind, o.ID)
	}
	return fmt.Sprintf("%c %d %d", o.Kind, o.ID, o.Size)
}

// Trace is a parsed allocation script.
type Trace struct {
	Name     string // File base name, if read from a file
	HeapSize int    // Suggested heap size from the header
	NumIDs   int    // Ids are in [0, NumIDs)
	Weight   int
	Ops      []Op
}

// Validate checks every op against the id range and the live set: an id
// must be free to be allocated and live to be resized or freed. A block
// resized to zero bytes is freed.
func (t *Trace) Validate() error {
	live := make([]bool, t.NumIDs)
	for i, op := range t.Ops {
		if op.ID < 0 || op.ID >= t.NumIDs {
			return fmt.Errorf("%w: op %d (%v): id outside [0, %d)", ErrInvalid, i, op, t.NumIDs)
		}
		if op.Size < 0 {
			return fmt.Errorf("%w: op %d (%v): negative size", ErrInvalid, i, op)
		}
		switch op.Kind {
		case Alloc:
			if live[op.ID] {
				return fmt.Errorf("%w: op %d (%v): id already allocated", ErrInvalid, i, op)
			}
			live[op.ID] = true
		case Realloc:
			if !live[op.ID] {
				return fmt.Errorf("%w: op %d (%v): id not allocated", ErrInvalid, i, op)
			}
			live[op.ID] = op.Size != 0
		case Free:
			if !live[op.ID] {
				return fmt.Errorf("%w: op %d (%v): id not allocated", ErrInvalid, i, op)
			}
			live[op.ID] = false
		default:
			return fmt.Errorf("%w: op %d: unknown kind %v", ErrInvalid, i, op.Kind)
		}
	}
	return nil
}
