package sketch

import (
	"fmt"
	"io"
)

// New builds an empty Sketch of the given family. nhashes is only
// consulted for BloomFilter.
func New(f Family, params Params, nhashes int) (Sketch, error) {
	switch f {
	case HLL:
		return NewHLL(params), nil
	case BloomFilter:
		return NewBloom(params, nhashes), nil
	case RangeMinHash:
		return NewRangeMinHash(params), nil
	case CountingRangeMinHash:
		return NewCountingRangeMinHash(params), nil
	case FullHashSet:
		return NewFullHashSet(params), nil
	case BBitMinHash:
		return NewBBitMinHash(params), nil
	case SuperMinHash:
		return NewSuperMinHash(params), nil
	case CountingBBitMinHash:
		return NewCountingBBitMinHash(params), nil
	default:
		return nil, fmt.Errorf("sketch: unknown family %s", f)
	}
}

// Deserialize reads back a Sketch of the given family.
func Deserialize(f Family, r io.Reader, params Params) (Sketch, error) {
	switch f {
	case HLL:
		return DeserializeHLL(r, params)
	case BloomFilter:
		return DeserializeBloom(r, params)
	case RangeMinHash:
		return DeserializeRangeMinHash(r, params)
	case CountingRangeMinHash:
		return DeserializeCountingRangeMinHash(r, params)
	case FullHashSet:
		return DeserializeFullHashSet(r, params)
	case BBitMinHash:
		return DeserializeBBitMinHash(r, params)
	case SuperMinHash:
		return DeserializeSuperMinHash(r, params)
	case CountingBBitMinHash:
		return DeserializeCountingBBitMinHash(r, params)
	default:
		return nil, fmt.Errorf("sketch: unknown family %s", f)
	}
}

// ParseFamily maps a --sketch-family flag value to a Family tag.
func ParseFamily(name string) (Family, error) {
	switch name {
	case "HLL":
		return HLL, nil
	case "Bloom":
		return BloomFilter, nil
	case "RangeMinHash":
		return RangeMinHash, nil
	case "CountingRangeMinHash":
		return CountingRangeMinHash, nil
	case "FullHashSet":
		return FullHashSet, nil
	case "BBitMinHash":
		return BBitMinHash, nil
	case "SuperMinHash":
		return SuperMinHash, nil
	case "CountingBBitMinHash":
		return CountingBBitMinHash, nil
	default:
		return 0, fmt.Errorf("sketch: unknown sketch_family %q", name)
	}
}
