package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kmers-io/ksketch/internal/ioutil"
	"github.com/kmers-io/ksketch/internal/orchestrator"
)

var printmatCmd = &cobra.Command{
	Use:     "printmat",
	Aliases: []string{"view"},
	Short:   "Pretty-print a binary distance matrix as an aligned text table",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			log.Error("printmat takes exactly one binary matrix file")
			return
		}
		matIn, err := ioutil.InStream(args[0])
		checkError(err)
		defer matIn.Close()

		labelsPath := getFlagString(cmd, "labels")
		if labelsPath == "" {
			labelsPath = args[0] + ".labels"
		}
		labelsIn, err := ioutil.InStream(labelsPath)
		checkError(err)
		defer labelsIn.Close()

		outFile := getFlagString(cmd, "out-file")
		if outFile == "" {
			outFile = "-"
		}
		out, err := ioutil.OutStream(outFile, false, -1)
		checkError(err)
		defer out.Close()

		checkError(orchestrator.RunPrintMat(matIn, labelsIn, out, getFlagBool(cmd, "scientific")))
	},
}

func init() {
	RootCmd.AddCommand(printmatCmd)
	printmatCmd.Flags().StringP("labels", "", "", "labels sidecar path (default: <matrix>.labels)")
	printmatCmd.Flags().StringP("out-file", "o", "-", `output file ("-" for stdout)`)
	printmatCmd.Flags().BoolP("scientific", "", false, "use scientific notation")
}
