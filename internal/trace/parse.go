package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	commentPrefix = "#"
	headerLines   = 4

	scannerInitialBufferSize = 64 * 1024
	scannerMaxLineSize       = 1024 * 1024

	// maxPrealloc bounds the op slice reserved from an untrusted header.
	maxPrealloc = 1 << 16
)

// ParseError reports malformed trace text at a line.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("trace: line %d: %s", e.Line, e.Msg)
}

// Unwrap returns ErrSyntax.
func (e *ParseError) Unwrap() error { return ErrSyntax }

// ParseFile parses the trace at path. The trace is named after the file.
func ParseFile(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	t.Name = filepath.Base(path)
	return t, nil
}

// Parse reads a trace. UTF-8 input is read as is; a byte order mark
// switches decoding to UTF-16 (either endianness) or strips the UTF-8 BOM.
// The op count in the header must match the ops that follow.
func Parse(r io.Reader) (*Trace, error) {
	// BOMOverride picks the decoder from a leading BOM and falls back to
	// UTF-8 without one.
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	scanner := bufio.NewScanner(transform.NewReader(r, decoder))
	buf := make([]byte, 0, scannerInitialBufferSize)
	scanner.Buffer(buf, scannerMaxLineSize)

	var (
		t      Trace
		header [headerLines]int
		nhdr   int
		numOps int
		lineNo int
	)

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}

		if nhdr < headerLines {
			v, err := strconv.Atoi(line)
			if err != nil || v < 0 {
				return nil, &ParseError{Line: lineNo, Msg: fmt.Sprintf("header field %d: want a non-negative integer, got %q", nhdr+1, line)}
			}
			header[nhdr] = v
			nhdr++
			if nhdr == headerLines {
				t.HeapSize, t.NumIDs, numOps, t.Weight = header[0], header[1], header[2], header[3]
				t.Ops = make([]Op, 0, min(numOps, maxPrealloc))
			}
			continue
		}

		op, err := parseOp(line)
		if err != nil {
			return nil, &ParseError{Line: lineNo, Msg: err.Error()}
		}
		if op.ID >= t.NumIDs {
			return nil, &ParseError{Line: lineNo, Msg: fmt.Sprintf("id %d outside [0, %d)", op.ID, t.NumIDs)}
		}
		t.Ops = append(t.Ops, op)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning trace: %w", err)
	}

	if nhdr < headerLines {
		return nil, &ParseError{Line: lineNo, Msg: fmt.Sprintf("truncated header: %d of %d fields", nhdr, headerLines)}
	}
	if len(t.Ops) != numOps {
		return nil, &ParseError{Line: lineNo, Msg: fmt.Sprintf("header declares %d ops, found %d", numOps, len(t.Ops))}
	}
	return &t, nil
}

func parseOp(line string) (Op, error) {
	fields := strings.Fields(line)
	if len(fields[0]) != 1 {
		return Op{}, fmt.Errorf("unknown op %q", fields[0])
	}

	op := Op{Kind: Kind(fields[0][0])}
	want := 3
	switch op.Kind {
	case Alloc, Realloc:
	case Free:
		want = 2
	default:
		return Op{}, fmt.Errorf("unknown op %q", fields[0])
	}
	if len(fields) != want {
		return Op{}, fmt.Errorf("%v: want %d fields, got %d", op.Kind, want, len(fields))
	}

	id, err := strconv.Atoi(fields[1])
	if err != nil || id < 0 {
		return Op{}, fmt.Errorf("bad id %q", fields[1])
	}
	op.ID = id

	if want == 3 {
		size, err := strconv.Atoi(fields[2])
		if err != nil || size < 0 {
			return Op{}, fmt.Errorf("bad size %q", fields[2])
		}
		op.Size = size
	}
	return op, nil
}
