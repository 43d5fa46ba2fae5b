package cmd

import (
	"bufio"
	"os"
	"runtime"

	colorable "github.com/mattn/go-colorable"
	"github.com/shenwei356/go-logging"
	"github.com/spf13/cobra"
)

var log = logging.MustGetLogger("ksketch")

// init wires stderr through go-colorable so %{color} directives in the
// log format render correctly under the Windows console as well as
// ordinary terminals, matching the rest of the shenwei356 tool family's
// habit of never leaving ANSI escapes raw on cmd.exe.
func init() {
	backend := logging.NewLogBackend(colorable.NewColorableStderr(), "", 0)
	formatter := logging.NewBackendFormatter(backend, logging.MustStringFormatter(
		`%{color}[%{level:.4s}]%{color:reset} %{message}`,
	))
	logging.SetBackend(formatter)
}

func checkError(err error) {
	if err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func getFlagString(cmd *cobra.Command, flag string) string {
	v, err := cmd.Flags().GetString(flag)
	checkError(err)
	return v
}

func getFlagBool(cmd *cobra.Command, flag string) bool {
	v, err := cmd.Flags().GetBool(flag)
	checkError(err)
	return v
}

func getFlagInt(cmd *cobra.Command, flag string) int {
	v, err := cmd.Flags().GetInt(flag)
	checkError(err)
	return v
}

func getFlagPositiveInt(cmd *cobra.Command, flag string) int {
	v := getFlagInt(cmd, flag)
	if v <= 0 {
		checkError(&flagRangeError{flag, "must be > 0"})
	}
	return v
}

func getFlagNonNegativeInt(cmd *cobra.Command, flag string) int {
	v := getFlagInt(cmd, flag)
	if v < 0 {
		checkError(&flagRangeError{flag, "must be >= 0"})
	}
	return v
}

func getFlagUint64(cmd *cobra.Command, flag string) uint64 {
	v, err := cmd.Flags().GetUint64(flag)
	checkError(err)
	return v
}

func getFlagFloat64(cmd *cobra.Command, flag string) float64 {
	v, err := cmd.Flags().GetFloat64(flag)
	checkError(err)
	return v
}

type flagRangeError struct {
	flag, reason string
}

func (e *flagRangeError) Error() string { return "flag --" + e.flag + ": " + e.reason }

// readLines returns every non-blank line of path, used by commands that
// want one path per line without pipeline.Input's FNAME_SEP splitting.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := sc.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}

func threadsOrDefault(cmd *cobra.Command) int {
	n := getFlagNonNegativeInt(cmd, "threads")
	if n == 0 {
		n = runtime.NumCPU()
	}
	return n
}
