// Package registry is the in-memory container registry backing variant lookups.
//
// Containers are registered once with their metadata (id, name, type, ...) and
// setting values. The registry implements types.MetadataSource, returning
// deep copies of metadata for every container of a type in id order, and
// types.ContainerLoader for containernode.Node. Machine definitions
// (type "machine") are exposed as *Definition for default-variant selection.
package registry
