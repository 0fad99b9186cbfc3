package types

import (
	"errors"
	"fmt"
)

// VariantType categorizes the hardware a variant describes.
type VariantType string

const (
	VariantTypeBuildPlate VariantType = "buildplate"
	VariantTypeNozzle     VariantType = "nozzle"

	// AnyVariantType matches every variant type in lookups.
	AnyVariantType VariantType = ""
)

// AllVariantTypes lists the known variant types in enumeration order.
// Untyped lookups search the types in this order.
var AllVariantTypes = []VariantType{VariantTypeBuildPlate, VariantTypeNozzle}

// ErrUnknownVariantType is returned when a hardware_type string does not name a known VariantType.
var ErrUnknownVariantType = errors.New("unknown variant type")

// ParseVariantType converts a hardware_type string into a VariantType.
func ParseVariantType(s string) (VariantType, error) {
	for _, vt := range AllVariantTypes {
		if string(vt) == s {
			return vt, nil
		}
	}
	return AnyVariantType, fmt.Errorf("%w: %q", ErrUnknownVariantType, s)
}

// Well-known metadata keys.
const (
	MetaID           = "id"
	MetaName         = "name"
	MetaType         = "type"
	MetaDefinition   = "definition"
	MetaHardwareType = "hardware_type"

	MetaHasVariants                    = "has_variants"
	MetaHasVariantBuildPlates          = "has_variant_buildplates"
	MetaPreferredVariantName           = "preferred_variant_name"
	MetaPreferredVariantBuildPlateName = "preferred_variant_buildplate_name"
)

// Container types stored in a metadata registry.
const (
	ContainerTypeVariant = "variant"
	ContainerTypeMachine = "machine"
)

// Metadata is the lightweight key/value description of a container.
// Values are whatever the resource decoder produced (strings, bools, numbers, nested maps).
type Metadata map[string]interface{}

// DeepCopy returns a copy of m whose nested maps and slices are not shared.
func (m Metadata) DeepCopy() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, inner := range val {
			out[k] = deepCopyValue(inner)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, inner := range val {
			out[i] = deepCopyValue(inner)
		}
		return out
	default:
		return v
	}
}
