package variants

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rockets-cn/Cura-1/internal/testutil"
	"github.com/rockets-cn/Cura-1/internal/types"
)

func m1Records() []types.Metadata {
	return []types.Metadata{
		testutil.MakeVariant("m1_glass", "m1", types.VariantTypeBuildPlate, "Glass"),
		testutil.MakeVariant("m1_aa04", "m1", types.VariantTypeNozzle, "AA 0.4"),
		testutil.MakeVariant("m1_bb08", "m1", types.VariantTypeNozzle, "BB 0.8"),
	}
}

func newInitialized(t *testing.T, records []types.Metadata, opts ...Option) *Index {
	t.Helper()
	idx := New(&testutil.StaticSource{Records: records}, nil, opts...)
	require.NoError(t, idx.Initialize(context.Background()))
	return idx
}

func TestNewIsEmpty(t *testing.T) {
	idx := New(&testutil.StaticSource{}, nil)
	assert.False(t, idx.Ready())
	assert.Equal(t, 0, idx.Count())
	assert.Empty(t, idx.MachineIDs())

	_, ok := idx.VariantNode("m1", "AA 0.4", types.AnyVariantType)
	assert.False(t, ok)
}

func TestInitialize_Example(t *testing.T) {
	idx := newInitialized(t, m1Records())
	assert.True(t, idx.Ready())
	assert.Equal(t, 3, idx.Count())
	assert.Equal(t, []string{"m1"}, idx.MachineIDs())

	nozzles := idx.VariantNodes(testutil.Machine("m1"), types.VariantTypeNozzle)
	require.Len(t, nozzles, 2)
	assert.Contains(t, nozzles, "AA 0.4")
	assert.Contains(t, nozzles, "BB 0.8")

	glass, ok := idx.VariantNode("m1", "Glass", types.AnyVariantType)
	require.True(t, ok)
	assert.Equal(t, "m1_glass", glass.ID())

	missing, ok := idx.VariantNode("m1", "missing", types.AnyVariantType)
	assert.False(t, ok)
	assert.Nil(t, missing)
}

func TestVariantNode_TypedAndUntyped(t *testing.T) {
	records := m1Records()
	idx := newInitialized(t, records)

	for _, md := range records {
		name := md[types.MetaName].(string)
		vt := types.VariantType(md[types.MetaHardwareType].(string))

		typed, ok := idx.VariantNode("m1", name, vt)
		require.True(t, ok, "typed lookup of %s", name)
		assert.Equal(t, md[types.MetaID], typed.ID())

		untyped, ok := idx.VariantNode("m1", name, types.AnyVariantType)
		require.True(t, ok, "untyped lookup of %s", name)
		assert.Same(t, typed, untyped)
	}

	// Right name, wrong type
	_, ok := idx.VariantNode("m1", "Glass", types.VariantTypeNozzle)
	assert.False(t, ok)

	// Type that is not part of the enumeration
	_, ok = idx.VariantNode("m1", "Glass", types.VariantType("extruder"))
	assert.False(t, ok)
}

func TestVariantNode_UntypedSearchOrder(t *testing.T) {
	// Same name under both types: build plates are searched first.
	idx := newInitialized(t, []types.Metadata{
		testutil.MakeVariant("m1_std_nozzle", "m1", types.VariantTypeNozzle, "Standard"),
		testutil.MakeVariant("m1_std_plate", "m1", types.VariantTypeBuildPlate, "Standard"),
	})

	node, ok := idx.VariantNode("m1", "Standard", types.AnyVariantType)
	require.True(t, ok)
	assert.Equal(t, "m1_std_plate", node.ID())
}

func TestUnknownMachine(t *testing.T) {
	idx := newInitialized(t, m1Records())

	_, ok := idx.VariantNode("unknown", "AA 0.4", types.AnyVariantType)
	assert.False(t, ok)

	_, ok = idx.VariantNode("unknown", "AA 0.4", types.VariantTypeNozzle)
	assert.False(t, ok)

	nodes := idx.VariantNodes(testutil.Machine("unknown"), types.VariantTypeNozzle)
	assert.NotNil(t, nodes)
	assert.Empty(t, nodes)

	def := testutil.MapDefinition{
		DefinitionID: "unknown",
		Entries:      map[string]interface{}{"has_variants": true, "preferred_variant_name": "AA 0.4"},
	}
	_, ok = idx.DefaultVariantNode(def, types.VariantTypeNozzle)
	assert.False(t, ok)
}

func TestVariantNodes(t *testing.T) {
	idx := newInitialized(t, append(m1Records(),
		testutil.MakeVariant("m2_aa04", "m2", types.VariantTypeNozzle, "AA 0.4"),
	))

	plates := idx.VariantNodes(testutil.Machine("m1"), types.VariantTypeBuildPlate)
	assert.Len(t, plates, 1)
	assert.Contains(t, plates, "Glass")

	// Machine seen only with nozzles still has an empty build plate bucket.
	m2Plates := idx.VariantNodes(testutil.Machine("m2"), types.VariantTypeBuildPlate)
	assert.NotNil(t, m2Plates)
	assert.Empty(t, m2Plates)

	// Untyped mapping lookups return nothing.
	assert.Empty(t, idx.VariantNodes(testutil.Machine("m1"), types.AnyVariantType))
}

func TestVariantNodes_ReturnsCopy(t *testing.T) {
	idx := newInitialized(t, m1Records())

	nodes := idx.VariantNodes(testutil.Machine("m1"), types.VariantTypeNozzle)
	delete(nodes, "AA 0.4")

	_, ok := idx.VariantNode("m1", "AA 0.4", types.VariantTypeNozzle)
	assert.True(t, ok)
	assert.Len(t, idx.VariantNodes(testutil.Machine("m1"), types.VariantTypeNozzle), 2)
}

func TestInitialize_Idempotent(t *testing.T) {
	source := &testutil.StaticSource{Records: append(m1Records(),
		testutil.MakeVariant("m2_glass", "m2", types.VariantTypeBuildPlate, "Glass"),
	)}
	idx := New(source, nil)

	snapshot := func() map[string]string {
		out := map[string]string{}
		for _, machine := range idx.MachineIDs() {
			for _, vt := range types.AllVariantTypes {
				for name, node := range idx.VariantNodes(testutil.Machine(machine), vt) {
					out[fmt.Sprintf("%s/%s/%s", machine, vt, name)] = node.ID()
				}
			}
		}
		return out
	}

	require.NoError(t, idx.Initialize(context.Background()))
	first := snapshot()
	require.NoError(t, idx.Initialize(context.Background()))
	second := snapshot()

	assert.Equal(t, first, second)
	assert.Len(t, first, 4)
	assert.Equal(t, 2, source.Calls())
	assert.Equal(t, 4, idx.Count())
}

func TestInitialize_RebuildReplacesTable(t *testing.T) {
	source := &testutil.StaticSource{Records: m1Records()}
	idx := New(source, nil)
	require.NoError(t, idx.Initialize(context.Background()))

	source.Records = []types.Metadata{
		testutil.MakeVariant("m3_aa04", "m3", types.VariantTypeNozzle, "AA 0.4"),
	}
	require.NoError(t, idx.Initialize(context.Background()))

	_, ok := idx.VariantNode("m1", "Glass", types.AnyVariantType)
	assert.False(t, ok)
	_, ok = idx.VariantNode("m3", "AA 0.4", types.VariantTypeNozzle)
	assert.True(t, ok)
	assert.Equal(t, []string{"m3"}, idx.MachineIDs())
}

func TestInitialize_Duplicate(t *testing.T) {
	source := &testutil.StaticSource{Records: m1Records()}
	idx := New(source, nil)
	require.NoError(t, idx.Initialize(context.Background()))

	source.Records = append(m1Records(),
		testutil.MakeVariant("m1_aa04_copy", "m1", types.VariantTypeNozzle, "AA 0.4"),
	)
	err := idx.Initialize(context.Background())
	require.Error(t, err)

	var dupErr *DuplicateVariantError
	require.True(t, errors.As(err, &dupErr))
	assert.Equal(t, "m1", dupErr.DefinitionID)
	assert.Equal(t, types.VariantTypeNozzle, dupErr.VariantType)
	assert.Equal(t, "AA 0.4", dupErr.Name)
	assert.Equal(t, "m1_aa04", dupErr.ExistingID)
	assert.Equal(t, "m1_aa04_copy", dupErr.DuplicateID)
	assert.Contains(t, err.Error(), "duplicated variant name")

	// Nothing from the failed or the previous build is queryable.
	assert.False(t, idx.Ready())
	assert.Equal(t, 0, idx.Count())
	_, ok := idx.VariantNode("m1", "Glass", types.AnyVariantType)
	assert.False(t, ok)
	assert.Empty(t, idx.VariantNodes(testutil.Machine("m1"), types.VariantTypeNozzle))
}

func TestInitialize_SameNameDifferentScopeIsNotDuplicate(t *testing.T) {
	idx := newInitialized(t, []types.Metadata{
		testutil.MakeVariant("m1_std_nozzle", "m1", types.VariantTypeNozzle, "Standard"),
		testutil.MakeVariant("m1_std_plate", "m1", types.VariantTypeBuildPlate, "Standard"),
		testutil.MakeVariant("m2_std_nozzle", "m2", types.VariantTypeNozzle, "Standard"),
	})
	assert.Equal(t, 3, idx.Count())
}

func TestInitialize_Excluded(t *testing.T) {
	idx := newInitialized(t, append(m1Records(),
		testutil.MakeVariant(EmptyVariantID, "m1", types.VariantTypeNozzle, "Empty"),
	))

	assert.Equal(t, 3, idx.Count())
	_, ok := idx.VariantNode("m1", "Empty", types.AnyVariantType)
	assert.False(t, ok)
	assert.NotContains(t, idx.VariantNodes(testutil.Machine("m1"), types.VariantTypeNozzle), "Empty")
}

func TestInitialize_ExcludedRecordNeedsNoFields(t *testing.T) {
	// The placeholder variant has no definition; it must be skipped before parsing.
	idx := newInitialized(t, append(m1Records(), types.Metadata{
		types.MetaID:   EmptyVariantID,
		types.MetaName: "empty",
		types.MetaType: types.ContainerTypeVariant,
	}))
	assert.Equal(t, 3, idx.Count())
}

func TestWithExcludedIDs(t *testing.T) {
	idx := newInitialized(t, m1Records(), WithExcludedIDs("m1_bb08"))

	_, ok := idx.VariantNode("m1", "BB 0.8", types.VariantTypeNozzle)
	assert.False(t, ok)
	_, ok = idx.VariantNode("m1", "AA 0.4", types.VariantTypeNozzle)
	assert.True(t, ok)
}

func TestInitialize_InvalidRecords(t *testing.T) {
	tests := []struct {
		name    string
		record  types.Metadata
		wantErr error
	}{
		{
			name:    "unknown hardware type",
			record:  testutil.MakeVariant("m1_x", "m1", types.VariantType("extruder"), "X"),
			wantErr: types.ErrUnknownVariantType,
		},
		{
			name: "missing hardware type",
			record: types.Metadata{
				types.MetaID: "m1_x", types.MetaName: "X", types.MetaType: types.ContainerTypeVariant,
				types.MetaDefinition: "m1",
			},
			wantErr: ErrMissingField,
		},
		{
			name: "missing definition",
			record: types.Metadata{
				types.MetaID: "m1_x", types.MetaName: "X", types.MetaType: types.ContainerTypeVariant,
				types.MetaHardwareType: "nozzle",
			},
			wantErr: ErrMissingField,
		},
		{
			name:    "empty name",
			record:  testutil.MakeVariant("m1_x", "m1", types.VariantTypeNozzle, ""),
			wantErr: ErrMissingField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := New(&testutil.StaticSource{Records: append(m1Records(), tt.record)}, nil)
			err := idx.Initialize(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), "m1_x")
			assert.False(t, idx.Ready())
			assert.Equal(t, 0, idx.Count())
		})
	}
}

func TestInitialize_MissingID(t *testing.T) {
	tests := []struct {
		name   string
		record types.Metadata
	}{
		{
			name: "absent",
			record: types.Metadata{
				types.MetaName: "CC 0.6", types.MetaType: types.ContainerTypeVariant,
				types.MetaDefinition: "m1", types.MetaHardwareType: "nozzle",
			},
		},
		{
			name:   "empty",
			record: testutil.MakeVariant("", "m1", types.VariantTypeNozzle, "CC 0.6"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := New(&testutil.StaticSource{Records: append(m1Records(), tt.record)}, nil)
			err := idx.Initialize(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMissingField)
			assert.Contains(t, err.Error(), "CC 0.6")
			assert.False(t, idx.Ready())

			_, ok := idx.VariantNode("m1", "CC 0.6", types.VariantTypeNozzle)
			assert.False(t, ok)
		})
	}
}

func TestInitialize_SourceError(t *testing.T) {
	sourceErr := errors.New("registry unavailable")
	idx := New(&testutil.StaticSource{Err: sourceErr}, nil)

	err := idx.Initialize(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, sourceErr)
	assert.False(t, idx.Ready())
}

func TestInitialize_IgnoresOtherContainerTypes(t *testing.T) {
	idx := newInitialized(t, append(m1Records(), types.Metadata{
		types.MetaID:   "m1",
		types.MetaName: "Machine One",
		types.MetaType: types.ContainerTypeMachine,
	}))
	assert.Equal(t, 3, idx.Count())
}

func TestOnRebuildCallback(t *testing.T) {
	var events []RebuildEvent
	idx := New(&testutil.StaticSource{Records: append(m1Records(),
		testutil.MakeVariant(EmptyVariantID, "m1", types.VariantTypeNozzle, "Empty"),
	)}, nil, WithOnRebuild(func(e RebuildEvent) {
		events = append(events, e)
	}))

	require.NoError(t, idx.Initialize(context.Background()))
	require.Len(t, events, 1)
	assert.Equal(t, RebuildEvent{Machines: 1, Variants: 3, Excluded: 1}, events[0])
}

func TestOnRebuildNotCalledOnFailure(t *testing.T) {
	called := false
	idx := New(&testutil.StaticSource{Err: errors.New("boom")}, nil, WithOnRebuild(func(RebuildEvent) {
		called = true
	}))

	require.Error(t, idx.Initialize(context.Background()))
	assert.False(t, called)
}

func TestDefaultVariantNode(t *testing.T) {
	idx := newInitialized(t, m1Records())

	tests := []struct {
		name        string
		entries     map[string]interface{}
		variantType types.VariantType
		wantID      string
	}{
		{
			name:        "nozzle with has_variants",
			entries:     map[string]interface{}{"has_variants": true, "preferred_variant_name": "BB 0.8"},
			variantType: types.VariantTypeNozzle,
			wantID:      "m1_bb08",
		},
		{
			name:        "nozzle with string flag",
			entries:     map[string]interface{}{"has_variants": "True", "preferred_variant_name": "AA 0.4"},
			variantType: types.VariantTypeNozzle,
			wantID:      "m1_aa04",
		},
		{
			name:        "nozzle with numeric string flag",
			entries:     map[string]interface{}{"has_variants": "1", "preferred_variant_name": "AA 0.4"},
			variantType: types.VariantTypeNozzle,
		},
		{
			name:        "nozzle flag false",
			entries:     map[string]interface{}{"has_variants": false, "preferred_variant_name": "AA 0.4"},
			variantType: types.VariantTypeNozzle,
		},
		{
			name:        "nozzle flag absent",
			entries:     map[string]interface{}{"preferred_variant_name": "AA 0.4"},
			variantType: types.VariantTypeNozzle,
		},
		{
			name:        "nozzle no preferred name",
			entries:     map[string]interface{}{"has_variants": true},
			variantType: types.VariantTypeNozzle,
		},
		{
			name:        "nozzle empty preferred name",
			entries:     map[string]interface{}{"has_variants": true, "preferred_variant_name": ""},
			variantType: types.VariantTypeNozzle,
		},
		{
			name:        "nozzle preferred name not indexed",
			entries:     map[string]interface{}{"has_variants": true, "preferred_variant_name": "CC 0.6"},
			variantType: types.VariantTypeNozzle,
		},
		{
			name: "build plate uses its own flag and name",
			entries: map[string]interface{}{
				"has_variant_buildplates":           "yes",
				"preferred_variant_buildplate_name": "Glass",
			},
			variantType: types.VariantTypeBuildPlate,
			wantID:      "m1_glass",
		},
		{
			name: "build plate ignores has_variants",
			entries: map[string]interface{}{
				"has_variants":                      true,
				"preferred_variant_buildplate_name": "Glass",
			},
			variantType: types.VariantTypeBuildPlate,
		},
		{
			name: "build plate flag false",
			entries: map[string]interface{}{
				"has_variant_buildplates":           false,
				"preferred_variant_buildplate_name": "Glass",
			},
			variantType: types.VariantTypeBuildPlate,
		},
		{
			name: "typed lookup does not cross types",
			entries: map[string]interface{}{
				"has_variants":           true,
				"preferred_variant_name": "Glass",
			},
			variantType: types.VariantTypeNozzle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := testutil.MapDefinition{DefinitionID: "m1", Entries: tt.entries}
			node, ok := idx.DefaultVariantNode(def, tt.variantType)
			if tt.wantID == "" {
				assert.False(t, ok)
				assert.Nil(t, node)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.wantID, node.ID())
		})
	}
}

func TestConcurrency(t *testing.T) {
	idx := newInitialized(t, m1Records())
	var wg sync.WaitGroup

	// Concurrent rebuilds
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = idx.Initialize(context.Background())
		}()
	}

	// Concurrent reads
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = idx.VariantNode("m1", "AA 0.4", types.AnyVariantType)
			_ = idx.VariantNodes(testutil.Machine("m1"), types.VariantTypeNozzle)
			_ = idx.MachineIDs()
			_ = idx.Count()
		}()
	}

	wg.Wait()
	assert.Equal(t, 3, idx.Count())
}
