// Package variants provides the in-memory lookup table of hardware variants
// (nozzles and build plates) keyed by machine definition.
//
// # Contract
//
// The Index is built wholesale from a types.MetadataSource. It stores one
// containernode.Node per variant record under
//
//	definition id → variant type → variant name
//
// and never mutates the table between rebuilds.
//
// Thread safety: all methods are safe for concurrent use via sync.RWMutex.
// Queries issued during a rebuild see either the old table or the new one.
//
// # Methods
//
//	Initialize(ctx) error
//	  - Fetches every "variant" record and rebuilds the table.
//	  - Skips ids in the exclusion set ("empty_variant" by default).
//	  - Fails on a missing id/name/definition/hardware_type, an unknown
//	    hardware_type, or a duplicate (definition, type, name) triple
//	    (*DuplicateVariantError). On failure the table is emptied.
//
//	VariantNode(definitionID, name, variantType) (*Node, bool)
//	  - AnyVariantType searches build plates first, then nozzles.
//	  - Unknown machines, types or names report false.
//
//	VariantNodes(machine, variantType) map[string]*Node
//	  - Copy of the name → node map; empty, never nil, when nothing matches.
//
//	DefaultVariantNode(definition, variantType) (*Node, bool)
//	  - Preferred variant named by the machine definition, gated on
//	    has_variant_buildplates / has_variants.
package variants
