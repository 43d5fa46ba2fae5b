package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/kmers-io/ksketch/internal/distance"
	"github.com/kmers-io/ksketch/internal/ioutil"
	"github.com/kmers-io/ksketch/internal/orchestrator"
	"github.com/kmers-io/ksketch/internal/pipeline"
)

var distCmd = &cobra.Command{
	Use:   "dist",
	Short: "Estimate pairwise distances/similarities between sketched genomes",
	Long: `Estimate pairwise distances/similarities between sketched genomes

Without -Q, every positional/-F input is compared against every other
input (symmetric all-pairs, strict upper triangle). With -Q, the
positional/-F inputs are references and -Q's inputs are queries; the
engine reports the query x reference block.
`,
	Run: func(cmd *cobra.Command, args []string) {
		opts := buildOrchestratorOptions(cmd)
		opts.ResultType = parseResultType(cmd)
		opts.EmitFormat = parseEmitFormat(cmd)
		opts.Scientific = getFlagBool(cmd, "scientific")

		refs := gatherInputs(cmd, args)
		if len(refs) == 0 {
			log.Error("no input files given")
			return
		}

		var queries []pipeline.Input
		if qFile := getFlagString(cmd, "query-list"); qFile != "" {
			var err error
			queries, err = pipeline.ReadFileOfPaths(qFile)
			checkError(err)
		}

		sizesFile := getFlagString(cmd, "out-sizes")
		var sizesOut *ioutil.WriteCloser
		if sizesFile != "" {
			var err error
			sizesOut, err = ioutil.OutStream(sizesFile, false, -1)
			checkError(err)
			defer sizesOut.Close()
		}

		outFile := getFlagString(cmd, "out-file")
		if outFile == "" {
			outFile = "-"
		}
		matOut, err := ioutil.OutStream(outFile, false, -1)
		checkError(err)
		defer matOut.Close()

		// A Binary matrix carries no labels of its own, so printmat/flatten
		// can only round-trip it back with a "<matrix>.labels" sidecar
		// already on disk next to it.
		var labelsOut *ioutil.WriteCloser
		if opts.EmitFormat == distance.Binary && !ioutil.IsStdout(outFile) {
			labelsOut, err = ioutil.OutStream(outFile+".labels", false, -1)
			checkError(err)
			defer labelsOut.Close()
		}

		log.Infof("ksketch v%s: computing distances for %d references", VERSION, len(refs))

		var sizesWriter, labelsWriter io.Writer
		if sizesOut != nil {
			sizesWriter = sizesOut
		}
		if labelsOut != nil {
			labelsWriter = labelsOut
		}
		err = orchestrator.RunDist(opts, refs, queries, sizesWriter, matOut, labelsWriter)
		checkError(err)
	},
}

func init() {
	RootCmd.AddCommand(distCmd)
	addSketchFlags(distCmd)
	distCmd.Flags().StringP("result-type", "", "JI", "JI|MashDist|FullMashDist|Sizes|ContainmentIndex|ContainmentDist|FullContainmentDist|SymContainmentIndex|SymContainmentDist")
	distCmd.Flags().StringP("emit-fmt", "", "UpperTriTSV", "UpperTriTSV|PhylipUpperTri|FullTSV|Binary")
	distCmd.Flags().BoolP("scientific", "", false, "use scientific notation in text output")
	distCmd.Flags().StringP("query-list", "Q", "", "file of query paths, one per line; enables query/reference mode")
	distCmd.Flags().StringP("out-file", "o", "-", `output file for the distance matrix ("-" for stdout)`)
	distCmd.Flags().StringP("out-sizes", "", "", `write a "#Path\tSize" report here ("-" for stdout)`)
}
