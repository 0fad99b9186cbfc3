package variants

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/rockets-cn/Cura-1/internal/containernode"
	"github.com/rockets-cn/Cura-1/internal/types"
	"github.com/rockets-cn/Cura-1/internal/util"
)

// EmptyVariantID is the placeholder variant every machine stack falls back to.
// It is never indexed.
const EmptyVariantID = "empty_variant"

// ErrMissingField is returned when a variant record lacks a required metadata key.
var ErrMissingField = errors.New("variant metadata missing required field")

// DuplicateVariantError reports two variant records sharing machine, type and name.
type DuplicateVariantError struct {
	DefinitionID string
	VariantType  types.VariantType
	Name         string
	ExistingID   string
	DuplicateID  string
}

func (e *DuplicateVariantError) Error() string {
	return fmt.Sprintf("duplicated variant name %q, type %q for machine %q (ids %q and %q)",
		e.Name, e.VariantType, e.DefinitionID, e.ExistingID, e.DuplicateID)
}

// RebuildEvent summarizes a successful Initialize.
type RebuildEvent struct {
	Machines int
	Variants int
	Excluded int
}

// OnRebuildFunc is called after the index has been rebuilt.
type OnRebuildFunc func(event RebuildEvent)

// variantTable is the per-machine level of the index: type → name → node.
type variantTable map[types.VariantType]map[string]*containernode.Node

func newVariantTable() variantTable {
	t := make(variantTable, len(types.AllVariantTypes))
	for _, vt := range types.AllVariantTypes {
		t[vt] = make(map[string]*containernode.Node)
	}
	return t
}

// Index is the lookup table of variants:
//
//	definition id → variant type → variant name → *containernode.Node
//
// e.g. "ultimaker3" → "nozzle" → "AA 0.4" → node.
type Index struct {
	source    types.MetadataSource
	loader    types.ContainerLoader
	logger    *zap.Logger
	excluded  sets.Set[string]
	onRebuild OnRebuildFunc

	mu        sync.RWMutex
	byMachine map[string]variantTable
	count     int
	ready     bool
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(idx *Index) {
		if logger != nil {
			idx.logger = logger
		}
	}
}

// WithExcludedIDs replaces the set of variant ids that are never indexed.
func WithExcludedIDs(ids ...string) Option {
	return func(idx *Index) {
		idx.excluded = sets.New(ids...)
	}
}

// WithOnRebuild registers a callback fired after every successful Initialize.
func WithOnRebuild(fn OnRebuildFunc) Option {
	return func(idx *Index) {
		idx.onRebuild = fn
	}
}

// New creates an empty Index. Call Initialize before querying it.
func New(source types.MetadataSource, loader types.ContainerLoader, opts ...Option) *Index {
	idx := &Index{
		source:    source,
		loader:    loader,
		logger:    zap.NewNop(),
		excluded:  sets.New(EmptyVariantID),
		byMachine: make(map[string]variantTable),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Initialize rebuilds the whole index from the metadata source.
//
// On failure the index is left empty and Ready reports false.
func (idx *Index) Initialize(ctx context.Context) error {
	records, err := idx.source.FindMetadataByType(ctx, types.ContainerTypeVariant)
	if err != nil {
		idx.reset()
		return fmt.Errorf("listing variant metadata: %w", err)
	}

	byMachine := make(map[string]variantTable)
	var count, excluded int
	for _, md := range records {
		id, ok := util.RequiredString(md, types.MetaID)
		if !ok {
			idx.reset()
			return fmt.Errorf("variant named %q: %w: %s",
				util.SafeNestedString(md, types.MetaName), ErrMissingField, types.MetaID)
		}
		if idx.excluded.Has(id) {
			idx.logger.Debug("Excluding variant", zap.String("variant", id))
			excluded++
			continue
		}

		definitionID, variantType, name, err := parseRecord(md)
		if err != nil {
			idx.reset()
			return fmt.Errorf("variant %q: %w", id, err)
		}

		table, ok := byMachine[definitionID]
		if !ok {
			table = newVariantTable()
			byMachine[definitionID] = table
		}

		names := table[variantType]
		if existing, dup := names[name]; dup {
			idx.reset()
			return &DuplicateVariantError{
				DefinitionID: definitionID,
				VariantType:  variantType,
				Name:         name,
				ExistingID:   existing.ID(),
				DuplicateID:  id,
			}
		}
		names[name] = containernode.New(md, idx.loader)
		count++
	}

	idx.mu.Lock()
	idx.byMachine = byMachine
	idx.count = count
	idx.ready = true
	idx.mu.Unlock()

	idx.logger.Info("Variant index rebuilt",
		zap.Int("machines", len(byMachine)),
		zap.Int("variants", count),
		zap.Int("excluded", excluded),
	)
	if idx.onRebuild != nil {
		idx.onRebuild(RebuildEvent{Machines: len(byMachine), Variants: count, Excluded: excluded})
	}
	return nil
}

// parseRecord extracts the index keys from a variant record.
func parseRecord(md types.Metadata) (string, types.VariantType, string, error) {
	definitionID, ok := util.RequiredString(md, types.MetaDefinition)
	if !ok {
		return "", "", "", fmt.Errorf("%w: %s", ErrMissingField, types.MetaDefinition)
	}
	name, ok := util.RequiredString(md, types.MetaName)
	if !ok {
		return "", "", "", fmt.Errorf("%w: %s", ErrMissingField, types.MetaName)
	}
	hardwareType, ok := util.RequiredString(md, types.MetaHardwareType)
	if !ok {
		return "", "", "", fmt.Errorf("%w: %s", ErrMissingField, types.MetaHardwareType)
	}
	variantType, err := types.ParseVariantType(hardwareType)
	if err != nil {
		return "", "", "", err
	}
	return definitionID, variantType, name, nil
}

func (idx *Index) reset() {
	idx.mu.Lock()
	idx.byMachine = make(map[string]variantTable)
	idx.count = 0
	idx.ready = false
	idx.mu.Unlock()
}

// VariantNode returns the variant with the given name for a machine definition.
// With AnyVariantType every type is searched in AllVariantTypes order and the
// first match wins. Unknown machines, types and names report false.
func (idx *Index) VariantNode(definitionID, name string, variantType types.VariantType) (*containernode.Node, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	table, ok := idx.byMachine[definitionID]
	if !ok {
		return nil, false
	}

	if variantType == types.AnyVariantType {
		for _, vt := range types.AllVariantTypes {
			if node, found := table[vt][name]; found {
				return node, true
			}
		}
		return nil, false
	}

	node, found := table[variantType][name]
	return node, found
}

// VariantNodes returns the name → node mapping of one variant type for the machine.
// The result is a copy and is never nil; it is empty for unknown machines or types
// and for AnyVariantType.
func (idx *Index) VariantNodes(machine types.Machine, variantType types.VariantType) map[string]*containernode.Node {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	names := idx.byMachine[machine.DefinitionID()][variantType]
	result := make(map[string]*containernode.Node, len(names))
	for name, node := range names {
		result[name] = node
	}
	return result
}

// DefaultVariantNode returns the preferred variant of a type for a machine definition.
//
// Build plates are only considered when has_variant_buildplates is set and use
// preferred_variant_buildplate_name; every other type requires has_variants and
// uses preferred_variant_name.
func (idx *Index) DefaultVariantNode(definition types.Definition, variantType types.VariantType) (*containernode.Node, bool) {
	flagKey, nameKey := types.MetaHasVariants, types.MetaPreferredVariantName
	if variantType == types.VariantTypeBuildPlate {
		flagKey, nameKey = types.MetaHasVariantBuildPlates, types.MetaPreferredVariantBuildPlateName
	}

	if !util.ParseBool(definition.MetaDataEntry(flagKey, false)) {
		return nil, false
	}
	preferred, ok := definition.MetaDataEntry(nameKey, nil).(string)
	if !ok || preferred == "" {
		return nil, false
	}
	return idx.VariantNode(definition.ID(), preferred, variantType)
}

// MachineIDs returns the indexed machine definition ids in sorted order.
func (idx *Index) MachineIDs() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return sets.List(sets.KeySet(idx.byMachine))
}

// Count returns the number of indexed variants.
func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.count
}

// Ready reports whether the last Initialize succeeded.
func (idx *Index) Ready() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.ready
}
