package kmerenc

// UnsupportedError reports an operation a given encoder variant cannot
// perform, mirroring the sketch package's UnsupportedError shape for
// consistent error handling at the orchestrator layer. Spaced seeds
// under NTHash are rejected by New with a ConfigError, not this type.
type UnsupportedError struct {
	Variant   Variant
	Operation string
}

func (e *UnsupportedError) Error() string {
	return "kmerenc: " + e.Operation + " unsupported for " + e.Variant.String() + " encoder"
}
