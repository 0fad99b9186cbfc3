package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rockets-cn/Cura-1/internal/containernode"
	"github.com/rockets-cn/Cura-1/internal/types"
)

func getCmd() *cobra.Command {
	var machineID, variantType string

	cmd := &cobra.Command{
		Use:   "get NAME",
		Short: "Show one variant and its settings",
		Long: `Look up a variant by name for a machine definition and print it
together with the setting values it overrides.

Without --type, build plates are searched before nozzles.

Examples:
  variantctl get -m ultimaker3 "AA 0.4"
  variantctl get -m ultimaker3 -t buildplate Glass -o yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vt, err := parseTypeFlag(variantType)
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), func(s *session) error {
				node, ok := s.index.VariantNode(machineID, args[0], vt)
				if !ok {
					return fmt.Errorf("variant %q (type %s) not found for machine %q", args[0], typeLabel(vt), machineID)
				}
				result, err := describeVariant(cmd.Context(), s, node)
				if err != nil {
					return err
				}
				return outputResult(cmd.OutOrStdout(), result, outputFmt)
			})
		},
	}

	cmd.Flags().StringVarP(&machineID, "machine", "m", "", "Machine definition id (required)")
	cmd.Flags().StringVarP(&variantType, "type", "t", "", "Variant type: buildplate or nozzle (default: any)")
	_ = cmd.MarkFlagRequired("machine")

	return cmd
}

func defaultCmd() *cobra.Command {
	var machineID, variantType string

	cmd := &cobra.Command{
		Use:   "default",
		Short: "Show the preferred variant of a machine",
		Long: `Show the variant a machine definition prefers for a variant type.

Build plates use has_variant_buildplates and preferred_variant_buildplate_name,
nozzles use has_variants and preferred_variant_name.

Examples:
  variantctl default -m ultimaker3 -t nozzle
  variantctl default -m ultimaker3 -t buildplate -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			vt, err := types.ParseVariantType(variantType)
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), func(s *session) error {
				def, ok := s.registry.Definition(machineID)
				if !ok {
					return fmt.Errorf("no machine definition %q", machineID)
				}
				node, ok := s.index.DefaultVariantNode(def, vt)
				if !ok {
					s.logger.Debug("No default variant",
						zap.String("machine", machineID),
						zap.String("type", string(vt)),
					)
					return outputResult(cmd.OutOrStdout(), VariantResult{Found: false}, outputFmt)
				}
				result, err := describeVariant(cmd.Context(), s, node)
				if err != nil {
					return err
				}
				return outputResult(cmd.OutOrStdout(), result, outputFmt)
			})
		},
	}

	cmd.Flags().StringVarP(&machineID, "machine", "m", "", "Machine definition id (required)")
	cmd.Flags().StringVarP(&variantType, "type", "t", "", "Variant type: buildplate or nozzle (required)")
	_ = cmd.MarkFlagRequired("machine")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

// describeVariant loads the node's container and builds the output.
func describeVariant(ctx context.Context, s *session, node *containernode.Node) (VariantResult, error) {
	c, err := node.Container(ctx)
	if err != nil {
		return VariantResult{}, fmt.Errorf("failed to load variant: %w", err)
	}
	info := variantInfo(node, c.Values)
	s.logger.Debug("Loaded variant", zap.String("variant", info.ID))
	return VariantResult{Found: true, Variant: &info}, nil
}
