// variantctl is a CLI tool for inspecting the nozzle and build plate variants
// available to each machine definition in a resource tree.
//
// Installation:
//
//	go build -o variantctl ./cmd/variantctl
//
// Usage:
//
//	variantctl machines -r ./resources
//	variantctl list -m ultimaker3 -t nozzle
//	variantctl get -m ultimaker3 "AA 0.4"
//	variantctl default -m ultimaker3 -t buildplate
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version      = "dev"
	outputFmt    string
	resourcesDir string
	verbose      bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "variantctl",
		Short: "Inspect machine variants",
		Long: `variantctl indexes the variant files of a resource tree by machine
definition, variant type and name, and answers the same lookups the slicer
makes when configuring a printer.

The resource tree is read from --resources, or from $VARIANTCTL_RESOURCES
when the flag is not given.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVarP(&resourcesDir, "resources", "r", "", "Resource directory containing definitions/ and variants/")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(machinesCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(getCmd())
	rootCmd.AddCommand(defaultCmd())

	return rootCmd
}
