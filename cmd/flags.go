package cmd

import (
	"strconv"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/kmers-io/ksketch/internal/distance"
	"github.com/kmers-io/ksketch/internal/kmerenc"
	"github.com/kmers-io/ksketch/internal/orchestrator"
	"github.com/kmers-io/ksketch/internal/pipeline"
	"github.com/kmers-io/ksketch/internal/presetcfg"
	"github.com/kmers-io/ksketch/internal/sketch"
)

// addSketchFlags registers every sketch/encode/filter/cache flag named
// in §6.5, shared by the sketch and dist subcommands.
func addSketchFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("kmer-len", "k", 21, "k-mer length")
	cmd.Flags().IntP("window", "w", 0, "minimizer window size (0 disables minimizer selection)")
	cmd.Flags().StringP("spacing", "", "", "spaced-seed mask, a string of 0/1 of length k (empty disables spacing)")
	cmd.Flags().Uint8P("log2-sketch-size", "p", 12, "log2 sketch size; each family derives its register/bucket/minima count from it")
	cmd.Flags().Uint8P("b-bits", "b", 16, "bit width for b-bit-family sketches")
	cmd.Flags().BoolP("canonical", "C", true, "canonicalize k-mers (strand-independent hashing)")
	cmd.Flags().StringP("sketch-family", "", "HLL", "sketch family: HLL|Bloom|RangeMinHash|CountingRangeMinHash|FullHashSet|BBitMinHash|SuperMinHash|CountingBBitMinHash")
	cmd.Flags().IntP("bloom-nhashes", "", 4, "number of hash functions for Bloom filter sketches")
	cmd.Flags().StringP("encoding", "", "Exact", "k-mer encoding: Exact|NTHash|Cyclic")
	cmd.Flags().BoolP("weighted", "", false, "wrap the sketch in the multiplicity-aware weighted sketcher")
	cmd.Flags().Uint8P("weighted-cm-log2-rows", "", 16, "weighted sketcher's Count-Min log2 row width")
	cmd.Flags().IntP("weighted-cm-nhashes", "", 8, "weighted sketcher's Count-Min hash count")
	cmd.Flags().StringP("filtering", "", "None", "Count-Min pre-filter mode: None|CountMin|ByFilename")
	cmd.Flags().Uint16P("min-count", "", 2, "minimum occurrence count admitted by the pre-filter")
	cmd.Flags().IntP("cm-nhashes", "", 4, "pre-filter Count-Min row count")
	cmd.Flags().Uint8P("cm-log2", "", 20, "pre-filter Count-Min log2 column count")
	cmd.Flags().StringP("hll-estim", "", "ErtlMLE", "HLL cardinality estimator: Original|ErtlImproved|ErtlMLE")
	cmd.Flags().StringP("hll-jestim", "", "ErtlJointMLE", "HLL joint estimator: ErtlJointMLE|InclusionExclusion")
	cmd.Flags().BoolP("clamp", "", false, "clamp HLL estimates below expected variance to 0")
	cmd.Flags().BoolP("entropy-minimizer", "g", false, "break minimizer ties by highest source-window base entropy instead of lexicographic order")
	cmd.Flags().BoolP("cache-sketches", "", false, "load/store sketches under --cache-dir instead of rebuilding every run")
	cmd.Flags().StringP("cache-dir", "", ".ksketch-cache", "directory for cached sketches")
	cmd.Flags().BoolP("presketched", "", false, "treat every input as an already-built sketch file rather than a sequence file")
	cmd.Flags().BoolP("sort-by-size", "", true, "process larger inputs first for better load balance")
	cmd.Flags().Uint64P("run-seed", "", 0, "seed mixed into every worker's Count-Min seed and the Exact/Cyclic k-mer hash")
}

// buildOrchestratorOptions assembles an orchestrator.Options from cmd's
// flags, applying a --preset bundle first. applyPreset sets every flag
// the preset names through cmd.Flags().Set, so a preset value replaces
// that flag's value even when the user passed the flag explicitly.
func buildOrchestratorOptions(cmd *cobra.Command) *orchestrator.Options {
	applyPreset(cmd)

	family, err := sketch.ParseFamily(getFlagString(cmd, "sketch-family"))
	checkError(err)
	encoding, err := kmerenc.ParseVariant(getFlagString(cmd, "encoding"))
	checkError(err)
	filtering, err := parseFiltering(getFlagString(cmd, "filtering"))
	checkError(err)
	estim, err := parseEstimator(getFlagString(cmd, "hll-estim"))
	checkError(err)
	jestim, err := parseJointEstimator(getFlagString(cmd, "hll-jestim"))
	checkError(err)

	return &orchestrator.Options{
		K:                  getFlagPositiveInt(cmd, "kmer-len"),
		W:                  getFlagNonNegativeInt(cmd, "window"),
		Spacing:            getFlagString(cmd, "spacing"),
		Log2Size:           mustUint8(cmd, "log2-sketch-size"),
		B:                  mustUint8(cmd, "b-bits"),
		Canonical:          getFlagBool(cmd, "canonical"),
		Family:             family,
		SketchNHash:        getFlagPositiveInt(cmd, "bloom-nhashes"),
		Estim:              estim,
		JEstim:             jestim,
		Clamp:              getFlagBool(cmd, "clamp"),
		Encoding:           encoding,
		Score:              minimizerScore(cmd),
		Weighted:           getFlagBool(cmd, "weighted"),
		WeightedCMLog2Rows: mustUint8(cmd, "weighted-cm-log2-rows"),
		WeightedCMHashes:   getFlagPositiveInt(cmd, "weighted-cm-nhashes"),
		Filtering:          filtering,
		MinCount:           mustUint16(cmd, "min-count"),
		CMRows:             getFlagPositiveInt(cmd, "cm-nhashes"),
		CMLog2Cols:         mustUint8(cmd, "cm-log2"),
		CacheSketches:      getFlagBool(cmd, "cache-sketches"),
		CacheDir:           expandCacheDir(getFlagString(cmd, "cache-dir")),
		PresketchedOnly:    getFlagBool(cmd, "presketched"),
		SortBySize:         getFlagBool(cmd, "sort-by-size"),
		NumThreads:         threadsOrDefault(cmd),
		RunSeed:            getFlagUint64(cmd, "run-seed"),
		Progress:           !getFlagBool(cmd, "quiet"),
	}
}

func mustUint8(cmd *cobra.Command, flag string) uint8 {
	v, err := cmd.Flags().GetUint8(flag)
	checkError(err)
	return v
}

func mustUint16(cmd *cobra.Command, flag string) uint16 {
	v, err := cmd.Flags().GetUint16(flag)
	checkError(err)
	return v
}

func parseFiltering(name string) (pipeline.Filtering, error) {
	switch name {
	case "None":
		return pipeline.NoFilter, nil
	case "CountMin":
		return pipeline.CountMinFilter, nil
	case "ByFilename":
		return pipeline.ByFilenameFilter, nil
	default:
		return 0, &flagRangeError{"filtering", "unknown mode " + name}
	}
}

func parseEstimator(name string) (sketch.Estimator, error) {
	switch name {
	case "Original":
		return sketch.Original, nil
	case "ErtlImproved":
		return sketch.ErtlImproved, nil
	case "ErtlMLE":
		return sketch.ErtlMLE, nil
	default:
		return 0, &flagRangeError{"hll-estim", "unknown estimator " + name}
	}
}

func parseJointEstimator(name string) (sketch.JointEstimator, error) {
	switch name {
	case "ErtlJointMLE":
		return sketch.ErtlJointMLE, nil
	case "InclusionExclusion":
		return sketch.InclusionExclusion, nil
	default:
		return 0, &flagRangeError{"hll-jestim", "unknown joint estimator " + name}
	}
}

// minimizerScore maps -g/--entropy-minimizer (dashing.cpp's -g flag) to
// kmerenc's MinimizerScore tie-break selector.
func minimizerScore(cmd *cobra.Command) kmerenc.MinimizerScore {
	if getFlagBool(cmd, "entropy-minimizer") {
		return kmerenc.Entropy
	}
	return kmerenc.Lexicographic
}

func parseResultType(cmd *cobra.Command) distance.ResultType {
	rt, err := distance.ParseResultType(getFlagString(cmd, "result-type"))
	checkError(err)
	return rt
}

func parseEmitFormat(cmd *cobra.Command) distance.EmitFormat {
	switch getFlagString(cmd, "emit-fmt") {
	case "UpperTriTSV":
		return distance.UpperTriTSV
	case "PhylipUpperTri":
		return distance.PhylipUpperTri
	case "FullTSV":
		return distance.FullTSV
	case "Binary":
		return distance.Binary
	default:
		checkError(&flagRangeError{"emit-fmt", "unknown format"})
		return distance.UpperTriTSV
	}
}

// applyPreset loads --preset-file (default ksketch-presets.yaml) and, if
// --preset names an entry, overwrites this command's flags with its
// values before they're read by buildOrchestratorOptions.
func applyPreset(cmd *cobra.Command) {
	name := getFlagString(cmd, "preset")
	if name == "" {
		return
	}
	path := getFlagString(cmd, "preset-file")
	if path == "" {
		path = "ksketch-presets.yaml"
	}
	file, err := presetcfg.Load(path)
	checkError(err)
	p, ok := file.Lookup(name)
	if !ok {
		checkError(&flagRangeError{"preset", "no such preset " + name + " in " + path})
	}

	set := func(flag, value string) {
		if value == "" {
			return
		}
		checkError(cmd.Flags().Set(flag, value))
	}
	if p.K != 0 {
		set("kmer-len", itoa(p.K))
	}
	if p.W != 0 {
		set("window", itoa(p.W))
	}
	set("spacing", p.Spacing)
	if p.Log2Size != 0 {
		set("log2-sketch-size", itoa(p.Log2Size))
	}
	if p.B != 0 {
		set("b-bits", itoa(p.B))
	}
	if p.Canonical != nil {
		set("canonical", strconv.FormatBool(*p.Canonical))
	}
	set("sketch-family", p.SketchFamily)
	set("encoding", p.Encoding)
	if p.Weighted != nil {
		set("weighted", strconv.FormatBool(*p.Weighted))
	}
	set("filtering", p.Filtering)
	if p.MinCount != 0 {
		set("min-count", itoa(p.MinCount))
	}
	if p.CMNHashes != 0 {
		set("cm-nhashes", itoa(p.CMNHashes))
	}
	if p.CMLog2 != 0 {
		set("cm-log2", itoa(p.CMLog2))
	}
	set("result-type", p.ResultType)
	set("emit-fmt", p.EmitFormat)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

// expandCacheDir resolves a leading "~" in --cache-dir to the invoking
// user's home directory, so a preset or shell alias can write
// "~/.ksketch-cache" without relying on the shell to have expanded it
// (e.g. when the value came from a preset file instead of argv).
func expandCacheDir(dir string) string {
	if !strings.HasPrefix(dir, "~") {
		return dir
	}
	expanded, err := homedir.Expand(dir)
	if err != nil {
		return dir
	}
	return expanded
}
