package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/kmers-io/ksketch/internal/ioutil"
	"github.com/kmers-io/ksketch/internal/orchestrator"
)

var sketchCmd = &cobra.Command{
	Use:   "sketch",
	Short: "Build and cache sketches for a set of FASTA/FASTQ inputs",
	Long: `Build and cache sketches for a set of FASTA/FASTQ inputs

Each positional argument is one logical input: a path, or several paths
joined with a single space to be sketched together as one genome.
`,
	Run: func(cmd *cobra.Command, args []string) {
		opts := buildOrchestratorOptions(cmd)
		inputs := gatherInputs(cmd, args)
		if len(inputs) == 0 {
			log.Error("no input files given")
			return
		}

		sizesFile := getFlagString(cmd, "out-sizes")
		var sizesOut *ioutil.WriteCloser
		if sizesFile != "" {
			var err error
			sizesOut, err = ioutil.OutStream(sizesFile, false, -1)
			checkError(err)
			defer sizesOut.Close()
		}

		log.Infof("ksketch v%s: sketching %d inputs", VERSION, len(inputs))

		var sizesWriter io.Writer
		if sizesOut != nil {
			sizesWriter = sizesOut
		}
		_, err := orchestrator.RunSketch(opts, inputs, sizesWriter)
		checkError(err)
	},
}

func init() {
	RootCmd.AddCommand(sketchCmd)
	addSketchFlags(sketchCmd)
	sketchCmd.Flags().StringP("out-sizes", "O", "", `write a "#Path\tSize" report here ("-" for stdout)`)
}
