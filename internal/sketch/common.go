package sketch

import "encoding/binary"

// be is the byte order used by every family's on-disk form, matching
// kmcp's index/serialization.go convention.
var be = binary.BigEndian
