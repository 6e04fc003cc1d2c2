package main

import (
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/Jeff-Souza/malloc/internal/format"
)

// Set by -ldflags at release time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// VersionInfo is the --json form of the version command.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Built     string `json:"built"`
	Go        string `json:"go"`
	Library   string `json:"library"`
	Alignment int    `json:"alignment"`
	ChunkSize int    `json:"chunk_size"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and allocator build parameters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVersion()
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion() error {
	info := VersionInfo{
		Version:   version,
		Commit:    commit,
		Built:     date,
		Go:        runtime.Version(),
		Library:   libraryVersion(),
		Alignment: format.Alignment,
		ChunkSize: format.ChunkSize,
	}
	if jsonOut {
		return printJSON(info)
	}
	printInfo("mallocctl %s (commit %s, built %s)\n", info.Version, info.Commit, info.Built)
	printInfo("  library:   %s\n", info.Library)
	printInfo("  go:        %s\n", info.Go)
	printInfo("  alignment: %d bytes, chunk %s\n", info.Alignment, formatBytes(int64(info.ChunkSize)))
	return nil
}

// libraryVersion reports the malloc module version linked into the binary.
func libraryVersion() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, dep := range bi.Deps {
		if dep.Path == "github.com/Jeff-Souza/malloc" {
			if dep.Replace != nil {
				return dep.Replace.Path
			}
			return dep.Version
		}
	}
	return "unknown"
}
