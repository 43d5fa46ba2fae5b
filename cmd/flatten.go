package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kmers-io/ksketch/internal/ioutil"
	"github.com/kmers-io/ksketch/internal/orchestrator"
)

var flattenCmd = &cobra.Command{
	Use:   "flatten",
	Short: "Re-emit a binary distance matrix as long-format TSV (labelA, labelB, value)",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			log.Error("flatten takes exactly one binary matrix file")
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

		checkError(orchestrator.RunFlatten(matIn, labelsIn, out))
	},
}

func init() {
	RootCmd.AddCommand(flattenCmd)
	flattenCmd.Flags().StringP("labels", "", "", "labels sidecar path (default: <matrix>.labels)")
	flattenCmd.Flags().StringP("out-file", "o", "-", `output file ("-" for stdout)`)
}
