// Package resources loads machine definitions and variants from a directory tree.
//
// # Layout
//
//	<root>/definitions/*.yaml   machine definitions (type "machine")
//	<root>/variants/*.yaml      nozzle and build plate variants (type "variant")
//
// # Document
//
//	id: ultimaker3_aa04
//	name: AA 0.4
//	metadata:
//	  definition: ultimaker3
//	  hardware_type: nozzle
//	values:
//	  machine_nozzle_size: 0.4
//
// id and name are copied into the metadata map so that a metadata record is
// self-describing once it is handed to an index. Errors from individual files
// are aggregated; one broken file does not stop the rest of the tree loading,
// but the caller always sees every failure.
package resources
