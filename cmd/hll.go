package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kmers-io/ksketch/internal/ioutil"
	"github.com/kmers-io/ksketch/internal/orchestrator"
	"github.com/kmers-io/ksketch/internal/sketch"
)

// hllCmd prints a per-input cardinality table (path, HLL estimate, and
// optionally the exact distinct-hash count) without computing a
// distance matrix, matching dashing.cpp's hll_main.
var hllCmd = &cobra.Command{
	Use:   "hll",
	Short: "Report per-input HyperLogLog cardinality estimates",
	Run: func(cmd *cobra.Command, args []string) {
		checkError(cmd.Flags().Set("sketch-family", "HLL"))
		opts := buildOrchestratorOptions(cmd)
		opts.Family = sketch.HLL

		inputs := gatherInputs(cmd, args)
		if len(inputs) == 0 {
			log.Error("no input files given")
			return
		}

		outFile := getFlagString(cmd, "out-file")
		if outFile == "" {
			outFile = "-"
		}
		out, err := ioutil.OutStream(outFile, false, -1)
		checkError(err)
		defer out.Close()

		log.Infof("ksketch v%s: reporting cardinality for %d inputs", VERSION, len(inputs))
		checkError(orchestrator.RunCardinality(opts, inputs, out, getFlagBool(cmd, "exact")))
	},
}

func init() {
	RootCmd.AddCommand(hllCmd)
	addSketchFlags(hllCmd)
	hllCmd.Flags().BoolP("exact", "", false, "also report the exact distinct-hash count (rebuilds every input as a FullHashSet)")
	hllCmd.Flags().StringP("out-file", "o", "-", `output file for the cardinality report ("-" for stdout)`)
}
