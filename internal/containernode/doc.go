// Package containernode provides a lazy handle over a configuration container.
//
// A Node is created from the lightweight metadata a registry hands out and
// only resolves the full container (with its setting values) through a
// types.ContainerLoader the first time Container is called. Indexes that hold
// hundreds of variants therefore cost one metadata map each until a variant is
// actually used.
//
// Container is memoized: once loaded, every caller gets the same *types.Container.
// Load failures are returned to the caller and retried on the next call.
// All methods are safe for concurrent use.
package containernode
