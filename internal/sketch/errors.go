package sketch

import "fmt"

// UnsupportedError reports that a capability method is not implemented for
// a given family (§7 Unsupported).
type UnsupportedError struct {
	Family    Family
	Operation string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("sketch: %s is unsupported for family %s", e.Operation, e.Family)
}

func unsupported(f Family, op string) error {
	return &UnsupportedError{Family: f, Operation: op}
}

// CacheCorruptionError reports a deserialize mismatch (§7 CacheCorruption).
type CacheCorruptionError struct {
	Path   string
	Reason string
}

func (e *CacheCorruptionError) Error() string {
	return fmt.Sprintf("sketch: cache corruption in %s: %s", e.Path, e.Reason)
}
