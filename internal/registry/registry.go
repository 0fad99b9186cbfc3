package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/rockets-cn/Cura-1/internal/types"
	"github.com/rockets-cn/Cura-1/internal/util"
)

// ErrNotFound is returned when no container with the requested id is registered.
var ErrNotFound = errors.New("container not found")

// Registry is an in-memory store of configuration containers keyed by id.
// It serves both as the metadata source for lookup indexes and as the loader
// for lazily resolved containers. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	containers map[string]*types.Container // id → container
	byType     map[string]sets.Set[string] // type → ids
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		containers: make(map[string]*types.Container),
		byType:     make(map[string]sets.Set[string]),
	}
}

// Register adds a container to the registry.
// Returns an error if the id is empty or already registered.
func (r *Registry) Register(c *types.Container) error {
	if c == nil || c.ID == "" {
		return errors.New("container id must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.containers[c.ID]; exists {
		return fmt.Errorf("container %q already registered", c.ID)
	}
	r.containers[c.ID] = c

	containerType := util.SafeNestedString(c.Metadata, types.MetaType)
	ids, ok := r.byType[containerType]
	if !ok {
		ids = sets.New[string]()
		r.byType[containerType] = ids
	}
	ids.Insert(c.ID)
	return nil
}

// Unregister removes a container by id.
// Returns ErrNotFound if the container is not registered.
func (r *Registry) Unregister(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, exists := r.containers[id]
	if !exists {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	delete(r.containers, id)

	containerType := util.SafeNestedString(c.Metadata, types.MetaType)
	if ids, ok := r.byType[containerType]; ok {
		ids.Delete(id)
		if ids.Len() == 0 {
			delete(r.byType, containerType)
		}
	}
	return nil
}

// FindMetadataByType returns the metadata of every container of the given type,
// ordered by id. Each record is a copy the caller may keep.
func (r *Registry) FindMetadataByType(ctx context.Context, containerType string) ([]types.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := sets.List(r.byType[containerType])
	result := make([]types.Metadata, 0, len(ids))
	for _, id := range ids {
		result = append(result, r.containers[id].Metadata.DeepCopy())
	}
	return result, nil
}

// LoadContainer returns the registered container with the given id.
func (r *Registry) LoadContainer(ctx context.Context, id string) (*types.Container, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.containers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return c, nil
}

// Definition returns the machine definition with the given id, or false if none.
func (r *Registry) Definition(id string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.containers[id]
	if !ok || util.SafeNestedString(c.Metadata, types.MetaType) != types.ContainerTypeMachine {
		return nil, false
	}
	return &Definition{container: c}, true
}

// Count returns the number of registered containers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.containers)
}

// Definition is a machine definition container. It implements types.Definition
// and types.Machine, so a bare definition can stand in for a machine in lookups.
type Definition struct {
	container *types.Container
}

// ID returns the definition id.
func (d *Definition) ID() string {
	return d.container.ID
}

// DefinitionID returns the definition id.
func (d *Definition) DefinitionID() string {
	return d.container.ID
}

// Name returns the display name of the machine.
func (d *Definition) Name() string {
	name, _ := util.RequiredString(d.container.Metadata, types.MetaName)
	return name
}

// MetaDataEntry returns the metadata value for key, or def when absent.
func (d *Definition) MetaDataEntry(key string, def interface{}) interface{} {
	if v, ok := d.container.Metadata[key]; ok {
		return v
	}
	return def
}
