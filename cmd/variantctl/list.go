package main

import (
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rockets-cn/Cura-1/internal/types"
)

func machinesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "machines",
		Short: "List machine definitions that have variants",
		Long: `List every machine definition id that at least one variant refers to,
with the number of build plate and nozzle variants for each.

Examples:
  # Show all machines
  variantctl machines -r ./resources

  # Output as JSON
  variantctl machines -o json`,
		Args: cobra.NoArgs,
		RunE: runMachines,
	}
	return cmd
}

func runMachines(cmd *cobra.Command, _ []string) error {
	return withSession(cmd.Context(), func(s *session) error {
		result := MachinesResult{Machines: []MachineInfo{}}
		for _, id := range s.index.MachineIDs() {
			machine, def := s.definitionFor(id)
			info := MachineInfo{
				ID:          id,
				BuildPlates: len(s.index.VariantNodes(machine, types.VariantTypeBuildPlate)),
				Nozzles:     len(s.index.VariantNodes(machine, types.VariantTypeNozzle)),
			}
			if def != nil {
				info.Name = def.Name()
			}
			result.Machines = append(result.Machines, info)
		}
		result.Total = len(result.Machines)
		return outputResult(cmd.OutOrStdout(), result, outputFmt)
	})
}

func listCmd() *cobra.Command {
	var machineID, variantType string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the variants of a machine",
		Long: `List the variants indexed for a machine definition.

Without --type, build plates are listed first, then nozzles.

Examples:
  # All variants of a machine
  variantctl list -m ultimaker3

  # Only nozzles
  variantctl list -m ultimaker3 -t nozzle`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			vt, err := parseTypeFlag(variantType)
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), func(s *session) error {
				result := listVariants(s, machineID, vt)
				return outputResult(cmd.OutOrStdout(), result, outputFmt)
			})
		},
	}

	cmd.Flags().StringVarP(&machineID, "machine", "m", "", "Machine definition id (required)")
	cmd.Flags().StringVarP(&variantType, "type", "t", "", "Variant type: buildplate or nozzle (default: all)")
	_ = cmd.MarkFlagRequired("machine")

	return cmd
}

// listVariants collects the variants of one machine, grouped by type in
// enumeration order and sorted by name within each type.
func listVariants(s *session, machineID string, vt types.VariantType) ListResult {
	machine, _ := s.definitionFor(machineID)

	wanted := types.AllVariantTypes
	if vt != types.AnyVariantType {
		wanted = []types.VariantType{vt}
	}

	result := ListResult{Machine: machineID, Variants: []VariantInfo{}}
	for _, t := range wanted {
		nodes := s.index.VariantNodes(machine, t)
		names := make([]string, 0, len(nodes))
		for name := range nodes {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			result.Variants = append(result.Variants, variantInfo(nodes[name], nil))
		}
	}
	result.Total = len(result.Variants)

	s.logger.Debug("Listed variants",
		zap.String("machine", machineID),
		zap.String("type", typeLabel(vt)),
		zap.Int("count", result.Total),
	)
	return result
}
