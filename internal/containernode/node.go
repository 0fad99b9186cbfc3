package containernode

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rockets-cn/Cura-1/internal/types"
	"github.com/rockets-cn/Cura-1/internal/util"
)

// ErrNoLoader is returned by Container when the node was built without a loader.
var ErrNoLoader = errors.New("container node has no loader")

// Node pairs a container's metadata with its lazily loaded full container.
type Node struct {
	metadata types.Metadata
	loader   types.ContainerLoader

	mu        sync.Mutex
	container *types.Container
}

// New creates a Node for the given metadata. The container is not loaded until
// Container is first called.
func New(metadata types.Metadata, loader types.ContainerLoader) *Node {
	return &Node{
		metadata: metadata,
		loader:   loader,
	}
}

// ID returns the container id from the metadata.
func (n *Node) ID() string {
	return util.SafeNestedString(n.metadata, types.MetaID)
}

// Name returns the display name from the metadata.
func (n *Node) Name() string {
	name, _ := util.RequiredString(n.metadata, types.MetaName)
	return name
}

// Metadata returns a copy of the node's metadata.
func (n *Node) Metadata() types.Metadata {
	return n.metadata.DeepCopy()
}

// MetaDataEntry returns the metadata value for key, or def when absent.
func (n *Node) MetaDataEntry(key string, def interface{}) interface{} {
	if v, ok := n.metadata[key]; ok {
		return v
	}
	return def
}

// Loaded reports whether the container has already been resolved.
func (n *Node) Loaded() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.container != nil
}

// Container returns the full container, loading it on first use.
// Subsequent calls return the same instance. A failed load is not cached.
func (n *Node) Container(ctx context.Context) (*types.Container, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.container != nil {
		return n.container, nil
	}
	if n.loader == nil {
		return nil, ErrNoLoader
	}

	id := n.ID()
	c, err := n.loader.LoadContainer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading container %q: %w", id, err)
	}
	n.container = c
	return c, nil
}
