package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"sigs.k8s.io/yaml"

	"github.com/rockets-cn/Cura-1/internal/containernode"
	"github.com/rockets-cn/Cura-1/internal/types"
)

// MachineInfo summarizes the variants indexed for one machine definition.
type MachineInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	BuildPlates int    `json:"buildPlates"`
	Nozzles     int    `json:"nozzles"`
}

// MachinesResult is the result of a machines command.
type MachinesResult struct {
	Machines []MachineInfo `json:"machines"`
	Total    int           `json:"total"`
}

// VariantInfo represents a variant in command results.
type VariantInfo struct {
	ID       string                 `json:"id"`
	Name     string                 `json:"name"`
	Type     string                 `json:"type"`
	Machine  string                 `json:"machine"`
	Settings map[string]interface{} `json:"settings,omitempty"`
}

// ListResult is the result of a list command.
type ListResult struct {
	Machine  string        `json:"machine"`
	Variants []VariantInfo `json:"variants"`
	Total    int           `json:"total"`
}

// VariantResult is the result of the get and default commands.
type VariantResult struct {
	Found   bool         `json:"found"`
	Variant *VariantInfo `json:"variant,omitempty"`
}

// variantInfo converts a node into its output form. Settings are only
// included when the container has been loaded.
func variantInfo(node *containernode.Node, settings map[string]interface{}) VariantInfo {
	return VariantInfo{
		ID:       node.ID(),
		Name:     node.Name(),
		Type:     fmt.Sprint(node.MetaDataEntry(types.MetaHardwareType, "")),
		Machine:  fmt.Sprint(node.MetaDataEntry(types.MetaDefinition, "")),
		Settings: settings,
	}
}

// outputResult writes the result in the specified format.
func outputResult(w io.Writer, result interface{}, format string) error {
	switch format {
	case "json":
		return outputJSON(w, result)
	case "yaml":
		return outputYAML(w, result)
	case "table", "":
		return outputTable(w, result)
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

func outputJSON(w io.Writer, result interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func outputYAML(w io.Writer, result interface{}) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func outputTable(out io.Writer, result interface{}) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	switch r := result.(type) {
	case MachinesResult:
		return outputMachinesTable(w, r)
	case ListResult:
		return outputListTable(w, r)
	case VariantResult:
		return outputVariantTable(w, r)
	default:
		// Fall back to JSON for unknown types
		return outputJSON(out, result)
	}
}

func outputMachinesTable(w *tabwriter.Writer, r MachinesResult) error {
	fmt.Fprintln(w, "MACHINE\tNAME\tBUILD PLATES\tNOZZLES")
	for _, m := range r.Machines {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", m.ID, m.Name, m.BuildPlates, m.Nozzles)
	}
	return nil
}

func outputListTable(w *tabwriter.Writer, r ListResult) error {
	fmt.Fprintf(w, "MACHINE\t%s\n", r.Machine)
	fmt.Fprintf(w, "TOTAL\t%d\n\n", r.Total)

	fmt.Fprintln(w, "NAME\tTYPE\tID")
	for _, v := range r.Variants {
		fmt.Fprintf(w, "%s\t%s\t%s\n", v.Name, v.Type, v.ID)
	}
	return nil
}

func outputVariantTable(w *tabwriter.Writer, r VariantResult) error {
	if !r.Found || r.Variant == nil {
		fmt.Fprintln(w, "No matching variant.")
		return nil
	}

	v := r.Variant
	fmt.Fprintf(w, "ID:\t%s\n", v.ID)
	fmt.Fprintf(w, "NAME:\t%s\n", v.Name)
	fmt.Fprintf(w, "TYPE:\t%s\n", v.Type)
	fmt.Fprintf(w, "MACHINE:\t%s\n", v.Machine)

	if len(v.Settings) > 0 {
		keys := make([]string, 0, len(v.Settings))
		for k := range v.Settings {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Fprintln(w, "\nSETTINGS:")
		for _, k := range keys {
			fmt.Fprintf(w, "  %s\t%v\n", k, v.Settings[k])
		}
	}
	return nil
}

// typeLabel renders a type filter for messages.
func typeLabel(vt types.VariantType) string {
	if vt == types.AnyVariantType {
		return "any"
	}
	return string(vt)
}
