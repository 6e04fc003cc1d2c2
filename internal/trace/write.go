package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Write serializes t in the text format Parse reads. The op count in the
// header is taken from len(t.Ops).
func Write(w io.Writer, t *Trace) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n%d\n%d\n%d\n", t.HeapSize, t.NumIDs, len(t.Ops), t.Weight)
	for _, op := range t.Ops {
		bw.WriteString(op.String())
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WriteFile writes t to path, replacing any existing file.
func WriteFile(path string, t *Trace) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, t); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
