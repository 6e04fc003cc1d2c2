package main

import (
	"math/rand"

	"github.com/spf13/cobra"

	"github.com/Jeff-Souza/malloc/internal/trace"
)

var (
	genSeed    int64
	genOps     int
	genIDs     int
	genMaxSize int
	genRealloc int
	genLarge   int
)

func init() {
	cmd := newGenCmd()
	d := trace.DefaultGenConfig
	cmd.Flags().Int64Var(&genSeed, "seed", 1, "Random seed")
	cmd.Flags().IntVar(&genOps, "ops", d.Ops, "Number of operations")
	cmd.Flags().IntVar(&genIDs, "ids", d.IDs, "Maximum number of distinct blocks")
	cmd.Flags().IntVar(&genMaxSize, "max-size", d.MaxSize, "Largest request in bytes")
	cmd.Flags().IntVar(&genRealloc, "realloc", d.ReallocPct, "Percent of non-alloc steps that resize")
	cmd.Flags().IntVar(&genLarge, "large", d.LargePct, "Percent of requests in the upper half of the size range")
	rootCmd.AddCommand(cmd)
}

func newGenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen <out>",
		Short: "Generate a random allocation trace",
		Long: `The gen command writes a random, valid allocation trace. Every block
is allocated once and freed by the end of the trace.

Example:
  mallocctl gen random.rep
  mallocctl gen big.rep --ops 100000 --ids 40000 --max-size 65536 --seed 7`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen(args)
		},
	}
	return cmd
}

func runGen(args []string) error {
	out := args[0]
	cfg := trace.GenConfig{
		Ops:        genOps,
		IDs:        genIDs,
		MaxSize:    genMaxSize,
		ReallocPct: genRealloc,
		LargePct:   genLarge,
	}

	tr := trace.Generate(rand.New(rand.NewSource(genSeed)), cfg)
	if err := trace.WriteFile(out, tr); err != nil {
		return err
	}

	if jsonOut {
		return printJSON(map[string]any{
			"path":      out,
			"ops":       len(tr.Ops),
			"ids":       tr.NumIDs,
			"heap_size": tr.HeapSize,
			"seed":      genSeed,
		})
	}
	printInfo("Wrote %s ops (%s blocks, peak %s) to %s\n",
		formatNumber(int64(len(tr.Ops))), formatNumber(int64(tr.NumIDs)), formatBytes(int64(tr.HeapSize)), out)
	return nil
}
