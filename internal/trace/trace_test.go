package trace

import (
	"bytes"
	"errors"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const sampleTrace = `# sample
100
2
3
1
a 0 24
r 0 48
f 0
`

func TestParse_Sample(t *testing.T) {
	tr, err := Parse(strings.NewReader(sampleTrace))
	require.NoError(t, err)

	assert.Equal(t, 100, tr.HeapSize)
	assert.Equal(t, 2, tr.NumIDs)
	assert.Equal(t, 1, tr.Weight)
	assert.Equal(t, []Op{
		{Kind: Alloc, ID: 0, Size: 24},
		{Kind: Realloc, ID: 0, Size: 48},
		{Kind: Free, ID: 0},
	}, tr.Ops)
	require.NoError(t, tr.Validate())
}

func TestParse_Encodings(t *testing.T) {
	tests := []struct {
		name string
		enc  transform.Transformer
	}{
		{"utf8 with bom", unicode.UTF8BOM.NewEncoder()},
		{"utf16le with bom", unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()},
		{"utf16be with bom", unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder()},
	}

	want, err := Parse(strings.NewReader(sampleTrace))
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, _, err := transform.String(tt.enc, sampleTrace)
			require.NoError(t, err)

			got, err := Parse(strings.NewReader(encoded))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
		line int
		msg  string
	}{
		{"truncated header", "100\n2\n", 2, "truncated header"},
		{"bad header", "100\nten\n", 2, "header field 2"},
		{"negative header", "100\n-2\n1\n1\n", 2, "header field 2"},
		{"unknown op", "1\n1\n1\n1\nx 0 8\n", 5, "unknown op"},
		{"long op", "1\n1\n1\n1\nalloc 0 8\n", 5, "unknown op"},
		{"missing size", "1\n1\n1\n1\na 0\n", 5, "want 3 fields"},
		{"free with size", "1\n1\n1\n1\nf 0 8\n", 5, "want 2 fields"},
		{"bad id", "1\n1\n1\n1\na x 8\n", 5, "bad id"},
		{"bad size", "1\n1\n1\n1\na 0 -8\n", 5, "bad size"},
		{"id out of range", "1\n1\n1\n1\na 1 8\n", 5, "outside [0, 1)"},
		{"op count mismatch", "1\n1\n2\n1\na 0 8\n", 5, "declares 2 ops, found 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.text))
			require.ErrorIs(t, err, ErrSyntax)

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.line, pe.Line)
			assert.Contains(t, pe.Msg, tt.msg)
		})
	}
}

func TestParseFile_Testdata(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "*.rep"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			tr, err := ParseFile(path)
			require.NoError(t, err)
			assert.Equal(t, filepath.Base(path), tr.Name)
			require.NoError(t, tr.Validate())
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		ops  []Op
		msg  string
	}{
		{"double alloc", []Op{{Alloc, 0, 8}, {Alloc, 0, 8}}, "already allocated"},
		{"free unallocated", []Op{{Free, 1, 0}}, "not allocated"},
		{"realloc unallocated", []Op{{Realloc, 0, 8}}, "not allocated"},
		{"use after zero realloc", []Op{{Alloc, 0, 8}, {Realloc, 0, 0}, {Free, 0, 0}}, "not allocated"},
		{"id range", []Op{{Alloc, 2, 8}}, "outside"},
		{"negative size", []Op{{Alloc, 0, -1}}, "negative size"},
		{"unknown kind", []Op{{Kind('z'), 0, 0}}, "unknown kind"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &Trace{NumIDs: 2, Ops: tt.ops}
			err := tr.Validate()
			require.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestWrite_RoundTrip(t *testing.T) {
	tr := Generate(rand.New(rand.NewSource(7)), GenConfig{Ops: 200, IDs: 80, MaxSize: 300})

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, tr))

	got, err := Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, tr, got)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.rep")
	tr, err := Parse(strings.NewReader(sampleTrace))
	require.NoError(t, err)

	require.NoError(t, WriteFile(path, tr))
	got, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, tr.Ops, got.Ops)
	assert.Equal(t, "out.rep", got.Name)
}

func TestGenerate(t *testing.T) {
	for _, seed := range []int64{1, 2, 3} {
		cfg := GenConfig{Ops: 1000, IDs: 400, MaxSize: 2000, ReallocPct: 30, LargePct: 10}
		tr := Generate(rand.New(rand.NewSource(seed)), cfg)

		require.NoError(t, tr.Validate(), "seed %d", seed)
		assert.LessOrEqual(t, len(tr.Ops), cfg.Ops)
		assert.LessOrEqual(t, tr.NumIDs, cfg.IDs)
		assert.Positive(t, tr.HeapSize)

		allocs, frees := 0, 0
		for _, op := range tr.Ops {
			switch op.Kind {
			case Alloc:
				allocs++
				assert.Positive(t, op.Size)
				assert.LessOrEqual(t, op.Size, cfg.MaxSize)
			case Free:
				frees++
			}
		}
		assert.Equal(t, allocs, frees, "every block is freed")
		assert.Equal(t, tr.NumIDs, allocs)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	a := Generate(rand.New(rand.NewSource(99)), DefaultGenConfig)
	b := Generate(rand.New(rand.NewSource(99)), DefaultGenConfig)
	assert.Equal(t, a, b)
	assert.NotEmpty(t, a.Ops)
}

func TestKindAndOpString(t *testing.T) {
	assert.Equal(t, "alloc", Alloc.String())
	assert.Equal(t, "realloc", Realloc.String())
	assert.Equal(t, "free", Free.String())
	assert.Equal(t, "Kind('z')", Kind('z').String())
	assert.Equal(t, "a 3 24", Op{Alloc, 3, 24}.String())
	assert.Equal(t, "f 3", Op{Free, 3, 0}.String())
}
