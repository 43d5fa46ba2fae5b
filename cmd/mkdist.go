package cmd

import "github.com/spf13/cobra"

// mkdistCmd is dist with --presketched locked on, for building a
// distance matrix straight from a directory of already-cached sketch
// files without re-reading any sequence data.
var mkdistCmd = &cobra.Command{
	Use:   "mkdist",
	Short: "Compute a distance matrix from already-built sketch files (shorthand for dist --presketched)",
	Run: func(cmd *cobra.Command, args []string) {
		checkError(cmd.Flags().Set("presketched", "true"))
		distCmd.Run(cmd, args)
	},
}

func init() {
	RootCmd.AddCommand(mkdistCmd)
	addSketchFlags(mkdistCmd)
	mkdistCmd.Flags().StringP("result-type", "", "JI", "JI|MashDist|FullMashDist|Sizes|ContainmentIndex|ContainmentDist|FullContainmentDist|SymContainmentIndex|SymContainmentDist")
	mkdistCmd.Flags().StringP("emit-fmt", "", "UpperTriTSV", "UpperTriTSV|PhylipUpperTri|FullTSV|Binary")
	mkdistCmd.Flags().BoolP("scientific", "", false, "use scientific notation in text output")
	mkdistCmd.Flags().StringP("query-list", "Q", "", "file of query paths, one per line; enables query/reference mode")
	mkdistCmd.Flags().StringP("out-file", "o", "-", `output file for the distance matrix ("-" for stdout)`)
	mkdistCmd.Flags().StringP("out-sizes", "", "", `write a "#Path\tSize" report here ("-" for stdout)`)
}
