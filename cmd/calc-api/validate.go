package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	calcapi "github.com/lex00/calc-api-go"
	"github.com/lex00/calc-api-go/internal/artifact"
	"github.com/lex00/calc-api-go/internal/stack"
	"github.com/lex00/calc-api-go/internal/validation"
)

// errValidationFailed is returned after the failures have been printed.
var errValidationFailed = errors.New("validation failed")

type validateOptions struct {
	format         string
	lint           bool
	checkArtifacts bool
}

func newValidateCmd(a *app) *cobra.Command {
	opts := validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate [stack]",
		Short: "Validate the synthesized template and artifacts",
		Long: `Validate synthesizes a stack and checks it.

Checks performed:
  - Route wiring: every route reaches an integration, function and role
  - References: every Ref, Fn::GetAtt and Fn::Sub variable resolves
  - cfn-lint: CloudFormation schema rules (--lint)
  - Artifacts: declared zip and image build paths exist (--check-artifacts)

Examples:
    calc-api validate
    calc-api validate api-variants --format json
    calc-api validate api --check-artifacts`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeStacks,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, a, stackArg(args), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&opts.lint, "lint", true, "Run cfn-lint on the template")
	cmd.Flags().BoolVar(&opts.checkArtifacts, "check-artifacts", false, "Check that artifact locations exist")

	return cmd
}

func runValidate(cmd *cobra.Command, a *app, name string, opts validateOptions) error {
	s, tmpl, err := a.synth(name)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	result := calcapi.ValidateResult{
		Stack:     name,
		Resources: len(tmpl.Resources),
		Errors:    validation.Structural(tmpl),
	}

	if opts.lint {
		lintResult, err := validation.LintTemplate(tmpl)
		if err != nil {
			return err
		}
		result.Errors = append(result.Errors, lintResult.Errors...)
		result.Warnings = append(result.Warnings, lintResult.Warnings...)
		a.log.Debugw("cfn-lint finished", "stack", name, "issues", lintResult.TotalIssues())
	}

	if opts.checkArtifacts {
		missing, err := a.checkArtifacts(cmd.Context(), s)
		if err != nil {
			return err
		}
		for _, location := range missing {
			result.Errors = append(result.Errors, "artifact not found: "+location)
		}
	}

	result.Success = len(result.Errors) == 0
	return outputValidateResult(cmd, result, opts.format)
}

// artifactLocations returns the checkable artifact locations of a stack.
// Pushed image URIs live in a registry and are not checked.
func artifactLocations(s *stack.Stack) []string {
	var locations []string
	for _, fn := range s.Functions() {
		code := fn.Props().Code
		if code.Kind == stack.CodeImage {
			continue
		}
		locations = append(locations, code.Location())
	}
	return locations
}

func (a *app) checkArtifacts(ctx context.Context, s *stack.Stack) ([]string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	locations := artifactLocations(s)

	router := &artifact.Router{Local: localStore(a)}
	for _, location := range locations {
		if strings.HasPrefix(location, "s3://") {
			store, err := artifact.NewS3Store(ctx, a.cfg.Region)
			if err != nil {
				return nil, err
			}
			router.S3 = store
			break
		}
	}

	a.log.Debugw("checking artifacts", "locations", locations)
	return validation.CheckArtifacts(ctx, router, locations)
}

func outputValidateResult(cmd *cobra.Command, result calcapi.ValidateResult, format string) error {
	out := cmd.OutOrStdout()

	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))

	case "text":
		if result.Success {
			fmt.Fprintf(out, "Validation passed: %s, %d resources OK\n", result.Stack, result.Resources)
		} else {
			fmt.Fprintf(out, "Validation FAILED: %s\n", result.Stack)
			for _, errMsg := range result.Errors {
				fmt.Fprintf(out, "  ERROR: %s\n", errMsg)
			}
		}
		for _, warnMsg := range result.Warnings {
			fmt.Fprintf(out, "  WARNING: %s\n", warnMsg)
		}

	default:
		return unknownFormat(format, "text", "json")
	}

	if !result.Success {
		return errValidationFailed
	}
	return nil
}

func localStore(a *app) *artifact.LocalStore {
	return artifact.NewLocalStore(a.cfg.Artifacts.Root)
}
