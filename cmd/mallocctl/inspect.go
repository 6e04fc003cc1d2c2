package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Jeff-Souza/malloc/pkg/malloc"
)

var inspectMaxHeap int

func init() {
	cmd := newInspectCmd()
	cmd.Flags().IntVar(&inspectMaxHeap, "max-heap", 0, "Reservation in bytes (default: image size)")
	rootCmd.AddCommand(cmd)
}

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <heap-file>",
		Short: "Check a heap image and summarize its layout",
		Long: `The inspect command opens a heap image written by a file-backed heap,
verifies every block and free-list invariant, and prints block counts,
free space and fragmentation.

Example:
  mallocctl inspect app.heap
  mallocctl inspect app.heap --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(args)
		},
	}
	return cmd
}

// InspectReport is the inspect command's JSON shape.
type InspectReport struct {
	Path     string       `json:"path"`
	Usage    malloc.Usage `json:"usage"`
	Valid    bool         `json:"valid"`
	Problems []string     `json:"problems,omitempty"`
}

func runInspect(args []string) error {
	path := args[0]

	h, err := openImage(path, inspectMaxHeap)
	if err != nil {
		return err
	}
	defer h.Close()

	report := InspectReport{Path: path}
	report.Usage, err = h.Usage()
	if err != nil {
		return fmt.Errorf("failed to walk heap: %w", err)
	}
	if checkErr := h.Check(); checkErr != nil {
		report.Problems = splitErrors(checkErr)
	}
	report.Valid = len(report.Problems) == 0

	if jsonOut {
		if err := printJSON(report); err != nil {
			return err
		}
	} else {
		printInspect(report)
	}

	if !report.Valid {
		return fmt.Errorf("heap image %s has %d problem(s)", path, len(report.Problems))
	}
	return nil
}

func printInspect(r InspectReport) {
	u := r.Usage
	printInfo("\nHeap Image: %s\n\n", r.Path)

	printInfo("Layout:\n")
	printInfo("  Heap size: %s (%s bytes)\n", formatBytes(int64(u.HeapBytes)), formatNumber(int64(u.HeapBytes)))
	printInfo("  Blocks: %s\n", formatNumber(int64(u.Blocks)))
	printInfo("  Allocated: %s blocks, %s (%s payload)\n",
		formatNumber(int64(u.AllocatedBlocks)), formatBytes(int64(u.AllocatedBytes)), formatBytes(int64(u.PayloadBytes)))
	printInfo("  Free: %s blocks, %s\n", formatNumber(int64(u.FreeBlocks)), formatBytes(int64(u.FreeBytes)))
	printInfo("  Largest free block: %s\n", formatBytes(int64(u.LargestFree)))
	printInfo("  Fragmentation: %.1f%%\n\n", u.Fragmentation*100)

	if r.Valid {
		printInfo("%s\n", render(okStyle, "✓ heap is consistent"))
		return
	}
	printInfo("%s\n", render(errStyle, fmt.Sprintf("✗ %d problem(s):", len(r.Problems))))
	for _, p := range r.Problems {
		printInfo("  - %s\n", p)
	}
}

// splitErrors lists the members of an errors.Join result.
func splitErrors(err error) []string {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return []string{err.Error()}
	}
	var out []string
	for _, e := range joined.Unwrap() {
		out = append(out, e.Error())
	}
	return out
}
