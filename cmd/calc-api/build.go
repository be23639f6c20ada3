package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	calcapi "github.com/lex00/calc-api-go"
	"github.com/lex00/calc-api-go/internal/template"
)

func newBuildCmd(a *app) *cobra.Command {
	var (
		outputFormat string
		outputFile   string
		asResult     bool
	)

	cmd := &cobra.Command{
		Use:   "build [stack]",
		Short: "Generate CloudFormation template for a stack",
		Long: `Build synthesizes a declared stack into a CloudFormation template.

Examples:
    calc-api build
    calc-api build api -o template.json
    calc-api build api-variants --format yaml
    calc-api build api --result          # JSON envelope with success and errors`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeStacks,
		RunE: func(cmd *cobra.Command, args []string) error {
			if asResult {
				return runBuildResult(cmd, a, stackArg(args))
			}
			return runBuild(cmd, a, stackArg(args), outputFormat, outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&asResult, "result", false, "Print a JSON build result instead of the bare template")

	return cmd
}

func runBuild(cmd *cobra.Command, a *app, name, format, outputFile string) error {
	_, tmpl, err := a.synth(name)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	if outputFile == "" {
		return template.Write(tmpl, template.Format(format), cmd.OutOrStdout())
	}

	var buf bytes.Buffer
	if err := template.Write(tmpl, template.Format(format), &buf); err != nil {
		return err
	}
	if err := os.WriteFile(outputFile, buf.Bytes(), 0o644); err != nil {
		return err
	}
	a.log.Infow("template written", "stack", name, "path", outputFile, "resources", len(tmpl.Resources))
	return nil
}

// runBuildResult prints the build as a BuildResult. A failed build is
// reported in the result and also returned as an error.
func runBuildResult(cmd *cobra.Command, a *app, name string) error {
	result := calcapi.BuildResult{Stack: name}

	_, tmpl, err := a.synth(name)
	if err != nil {
		result.Errors = []string{err.Error()}
	} else {
		result.Success = true
		result.Template = *tmpl
		for resource := range tmpl.Resources {
			result.Resources = append(result.Resources, resource)
		}
		sort.Strings(result.Resources)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))

	if !result.Success {
		return fmt.Errorf("build failed: %s", result.Errors[0])
	}
	return nil
}
