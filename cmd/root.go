package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

// VERSION is the build version string, reported by the root command's
// long help and each subcommand's startup log line.
const VERSION = "0.1.0"

// RootCmd is the base command executed when ksketch is invoked with no
// subcommand.
var RootCmd = &cobra.Command{
	Use:   "ksketch",
	Short: "K-mer sketching and pairwise genome distance estimation",
	Long: fmt.Sprintf(`
    Program: ksketch (k-mer sketch and pairwise distance estimator)
    Version: v%s

ksketch builds probabilistic sketches of FASTA/FASTQ genomes and
estimates pairwise similarity (Jaccard index, Mash distance,
containment) between them without all-pairs alignment.

`, VERSION),
}

// Execute runs the root command; it is the sole entry point called from
// main.main.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().IntP("threads", "j", runtime.NumCPU(), "number of worker threads to use")
	RootCmd.PersistentFlags().BoolP("quiet", "q", false, "do not print progress/log information")
	RootCmd.PersistentFlags().StringP("infile-list", "F", "", "file of input paths, one per line (appended to positional args)")
	RootCmd.PersistentFlags().StringP("preset", "", "", "load a named parameter bundle from a YAML preset file")
	RootCmd.PersistentFlags().StringP("preset-file", "", "", "path to the YAML preset file (default: ksketch-presets.yaml)")
}
