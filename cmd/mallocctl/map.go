package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Jeff-Souza/malloc/internal/format"
	"github.com/Jeff-Souza/malloc/pkg/malloc"
)

var (
	mapWidth   int
	mapCell    int
	mapMaxHeap int
)

const (
	mapAutoRows = 32

	glyphAlloc    = '#'
	glyphFree     = '.'
	glyphSentinel = '|'
)

func init() {
	cmd := newMapCmd()
	cmd.Flags().IntVar(&mapWidth, "width", 64, "Cells per row")
	cmd.Flags().IntVar(&mapCell, "cell", 0, "Bytes per cell (default: fit the heap in ~32 rows)")
	cmd.Flags().IntVar(&mapMaxHeap, "max-heap", 0, "Reservation in bytes (default: image size)")
	rootCmd.AddCommand(cmd)
}

func newMapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map <heap-file>",
		Short: "Draw a block map of a heap image",
		Long: `The map command draws the heap as rows of cells, each covering a fixed
number of bytes and showing the block at its start: # allocated, . free,
| sentinel.

Example:
  mallocctl map app.heap
  mallocctl map app.heap --cell 16 --width 100
  mallocctl map app.heap --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMap(args)
		},
	}
	return cmd
}

// BlockMap is the map command's JSON shape.
type BlockMap struct {
	Path      string             `json:"path"`
	HeapBytes int                `json:"heap_bytes"`
	Blocks    []malloc.BlockInfo `json:"blocks"`
}

func runMap(args []string) error {
	path := args[0]

	h, err := openImage(path, mapMaxHeap)
	if err != nil {
		return err
	}
	defer h.Close()

	var blocks []malloc.BlockInfo
	if err := h.Walk(func(bi malloc.BlockInfo) error {
		blocks = append(blocks, bi)
		return nil
	}); err != nil {
		return fmt.Errorf("failed to walk heap: %w", err)
	}

	if jsonOut {
		return printJSON(BlockMap{Path: path, HeapBytes: h.Len(), Blocks: blocks})
	}

	width := max(mapWidth, 1)
	cell := mapCell
	if cell <= 0 {
		cell = format.Align8(max(h.Len()/(width*mapAutoRows), format.DoubleSize))
	}

	printInfo("\nBlock map: %s (%s, %s per cell)\n\n", path, formatBytes(int64(h.Len())), formatBytes(int64(cell)))
	printInfo("%s", renderMap(blocks, h.Len(), cell, width))
	printInfo("\n%s\n", renderLegend(cell))
	return nil
}

// renderMap draws one glyph per cell, width cells per row, each row
// prefixed with its starting offset.
func renderMap(blocks []malloc.BlockInfo, heapLen, cell, width int) string {
	var sb strings.Builder
	for row := 0; row*cell*width < heapLen; row++ {
		base := row * cell * width
		sb.WriteString(render(offsetStyle, fmt.Sprintf("%10d ", base)))

		var run []byte
		var runGlyph byte
		flush := func() {
			if len(run) > 0 {
				sb.WriteString(render(glyphStyle(runGlyph), string(run)))
				run = run[:0]
			}
		}
		for c := range width {
			off := base + c*cell
			if off >= heapLen {
				break
			}
			g := glyphAt(blocks, heapLen, off)
			if g != runGlyph {
				flush()
				runGlyph = g
			}
			run = append(run, g)
		}
		flush()
		sb.WriteByte('\n')
	}
	return sb.String()
}

// glyphAt classifies the byte at off.
func glyphAt(blocks []malloc.BlockInfo, heapLen, off int) byte {
	if off < int(format.HeapStart+format.PrologueSize) || off >= heapLen-format.WordSize {
		return glyphSentinel
	}
	// Blocks span [ptr-4, ptr-4+size); find the last one starting at or
	// before off.
	i := sort.Search(len(blocks), func(i int) bool {
		return int(blocks[i].Ptr)-format.WordSize > off
	}) - 1
	if i < 0 {
		return glyphSentinel
	}
	if blocks[i].Allocated {
		return glyphAlloc
	}
	return glyphFree
}

func glyphStyle(g byte) lipgloss.Style {
	switch g {
	case glyphAlloc:
		return allocStyle
	case glyphFree:
		return freeStyle
	default:
		return sentinelStyle
	}
}

func renderLegend(cell int) string {
	legend := fmt.Sprintf("%s allocated  %s free  %s sentinel   1 cell = %d bytes",
		render(allocStyle, string(glyphAlloc)),
		render(freeStyle, string(glyphFree)),
		render(sentinelStyle, string(glyphSentinel)),
		cell,
	)
	if noColor {
		return legend
	}
	return legendStyle.Render(legend)
}
