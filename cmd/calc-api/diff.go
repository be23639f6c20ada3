package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	calcapi "github.com/lex00/calc-api-go"
	"github.com/lex00/calc-api-go/internal/differ"
)

func newDiffCmd(a *app) *cobra.Command {
	var (
		outputFormat  string
		ignoreOrder   bool
		resourcesOnly bool
	)

	cmd := &cobra.Command{
		Use:   "diff <from> <to>",
		Short: "Compare two stacks or template files",
		Long: `Diff compares two CloudFormation templates. Each argument is a registered
stack name, which is synthesized, or a path to a JSON or YAML template.

Examples:
    calc-api diff api api-variants
    calc-api diff deployed.json api
    calc-api diff old.yaml new.yaml --format json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := a.loadTemplate(args[0])
			if err != nil {
				return err
			}
			to, err := a.loadTemplate(args[1])
			if err != nil {
				return err
			}

			result, err := differ.Compare(from, to, differ.Options{
				IgnoreOrder:   ignoreOrder,
				ResourcesOnly: resourcesOnly,
			})
			if err != nil {
				return err
			}
			return outputDiffResult(cmd, result, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&ignoreOrder, "ignore-order", false, "Ignore array element order")
	cmd.Flags().BoolVar(&resourcesOnly, "resources-only", false, "Skip parameters and outputs")

	return cmd
}

// loadTemplate reads a template file when arg names one, otherwise
// synthesizes the stack registered as arg.
func (a *app) loadTemplate(arg string) (*calcapi.Template, error) {
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		return differ.LoadTemplate(arg)
	}
	_, tmpl, err := a.synth(arg)
	return tmpl, err
}

func outputDiffResult(cmd *cobra.Command, result *differ.Result, format string) error {
	out := cmd.OutOrStdout()

	switch format {
	case "json":
		data, err := json.MarshalIndent(calcapi.DiffResult{Diff: result.Diff, Summary: result.Summary}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))

	case "text":
		if result.Summary.Total == 0 {
			fmt.Fprintln(out, "No differences.")
			return nil
		}
		for _, e := range result.Diff.Added {
			fmt.Fprintf(out, "+ %s (%s)\n", e.Resource, e.Type)
		}
		for _, e := range result.Diff.Removed {
			fmt.Fprintf(out, "- %s (%s)\n", e.Resource, e.Type)
		}
		for _, e := range result.Diff.Modified {
			fmt.Fprintf(out, "~ %s (%s)\n", e.Resource, e.Type)
			for _, change := range e.Changes {
				fmt.Fprintf(out, "    %s\n", change)
			}
		}
		fmt.Fprintf(out, "\n%d added, %d removed, %d modified\n",
			result.Summary.Added, result.Summary.Removed, result.Summary.Modified)

	default:
		return unknownFormat(format, "text", "json")
	}

	return nil
}
