// Package testutil provides shared test helpers for the variant packages.
// Import this in test files to avoid duplicating record builders, fakes and fixture writing.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rockets-cn/Cura-1/internal/types"
)

// MakeVariant creates a variant metadata record.
func MakeVariant(id, definition string, vt types.VariantType, name string) types.Metadata {
	return types.Metadata{
		types.MetaID:           id,
		types.MetaName:         name,
		types.MetaType:         types.ContainerTypeVariant,
		types.MetaDefinition:   definition,
		types.MetaHardwareType: string(vt),
	}
}

// StaticSource is a types.MetadataSource returning a fixed list of records.
type StaticSource struct {
	Records []types.Metadata
	Err     error

	calls atomic.Int32
}

// Calls returns how many times FindMetadataByType was invoked.
func (s *StaticSource) Calls() int {
	return int(s.calls.Load())
}

// FindMetadataByType returns Records filtered by their "type" key.
func (s *StaticSource) FindMetadataByType(_ context.Context, containerType string) ([]types.Metadata, error) {
	s.calls.Add(1)
	if s.Err != nil {
		return nil, s.Err
	}
	var result []types.Metadata
	for _, md := range s.Records {
		if md[types.MetaType] == containerType {
			result = append(result, md)
		}
	}
	return result, nil
}

// MapDefinition is a types.Definition backed by a plain map.
type MapDefinition struct {
	DefinitionID string
	Entries      map[string]interface{}
}

// ID returns the definition id.
func (d MapDefinition) ID() string { return d.DefinitionID }

// MetaDataEntry returns Entries[key] or def.
func (d MapDefinition) MetaDataEntry(key string, def interface{}) interface{} {
	if v, ok := d.Entries[key]; ok {
		return v
	}
	return def
}

// Machine is a types.Machine with a fixed definition id.
type Machine string

// DefinitionID returns the machine's definition id.
func (m Machine) DefinitionID() string { return string(m) }

// WriteFixture writes content to dir/rel, creating parent directories.
// Fails the test immediately if the file can't be written.
func WriteFixture(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755), "failed to create fixture dir for %s", rel)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600), "failed to write fixture %s", rel)
	return path
}
