package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kmers-io/ksketch/internal/ioutil"
	"github.com/kmers-io/ksketch/internal/orchestrator"
	"github.com/kmers-io/ksketch/internal/sketch"
)

var unionCmd = &cobra.Command{
	Use:   "union",
	Short: "Merge cached sketches of the same family/parameters into one",
	Run: func(cmd *cobra.Command, args []string) {
		family, err := sketch.ParseFamily(getFlagString(cmd, "sketch-family"))
		checkError(err)
		params := sketch.Params{
			K:         getFlagPositiveInt(cmd, "kmer-len"),
			Log2Size:  mustUint8(cmd, "log2-sketch-size"),
			B:         mustUint8(cmd, "b-bits"),
			Canonical: getFlagBool(cmd, "canonical"),
		}

		paths := gatherInputPaths(cmd, args)
		if len(paths) == 0 {
			log.Error("no input sketch files given")
			return
		}

		merged, err := orchestrator.RunUnion(paths, family, params)
		checkError(err)

		outFile := getFlagString(cmd, "out-file")
		if outFile == "" {
			outFile = "-"
		}
		w, err := ioutil.OutStream(outFile, false, -1)
		checkError(err)
		defer w.Close()
		checkError(merged.Serialize(w))
	},
}

// gatherInputPaths is union's flavor of gatherInputs: sketch files are
// never FNAME_SEP-joined, so each positional/-F line is exactly one
// path.
func gatherInputPaths(cmd *cobra.Command, args []string) []string {
	paths := append([]string{}, args...)
	if listFile := getFlagString(cmd, "infile-list"); listFile != "" {
		extra, err := readLines(listFile)
		checkError(err)
		paths = append(paths, extra...)
	}
	return paths
}

func init() {
	RootCmd.AddCommand(unionCmd)
	unionCmd.Flags().IntP("kmer-len", "k", 21, "k-mer length (for the log-distance formulas downstream)")
	unionCmd.Flags().Uint8P("log2-sketch-size", "p", 12, "log2 sketch size; each family derives its register/bucket/minima count from it")
	unionCmd.Flags().Uint8P("b-bits", "b", 16, "bit width for b-bit-family sketches")
	unionCmd.Flags().BoolP("canonical", "C", true, "canonicalize k-mers (strand-independent hashing)")
	unionCmd.Flags().StringP("sketch-family", "", "HLL", "sketch family of every input")
	unionCmd.Flags().StringP("out-file", "o", "-", `output path for the merged sketch ("-" for stdout)`)
}
