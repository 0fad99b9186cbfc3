package types

import "context"

// Container is a fully loaded configuration resource: its metadata plus the
// setting values it overrides.
type Container struct {
	ID       string
	Metadata Metadata
	Values   map[string]interface{}
}

// MetadataSource returns the metadata of every container tagged with a type.
//
// The variant index calls FindMetadataByType once per rebuild with
// ContainerTypeVariant. Implementations must not retain or mutate the returned
// records after handing them out.
type MetadataSource interface {
	FindMetadataByType(ctx context.Context, containerType string) ([]Metadata, error)
}

// ContainerLoader resolves the full container for a metadata id.
// ContainerNodes call it lazily the first time their container is requested.
type ContainerLoader interface {
	LoadContainer(ctx context.Context, id string) (*Container, error)
}

// Machine is a configured printer; only its definition id matters to variant lookups.
type Machine interface {
	DefinitionID() string
}

// Definition is a machine definition: the template a printer model is built from.
type Definition interface {
	// ID returns the machine definition id, e.g. "ultimaker3".
	ID() string

	// MetaDataEntry returns the metadata value for key, or def when the key is absent.
	MetaDataEntry(key string, def interface{}) interface{}
}
