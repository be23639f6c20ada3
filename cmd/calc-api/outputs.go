package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	calcapi "github.com/lex00/calc-api-go"
	"github.com/lex00/calc-api-go/internal/outputs"
)

func newOutputsCmd(a *app) *cobra.Command {
	var (
		outputFormat string
		stackName    string
	)

	cmd := &cobra.Command{
		Use:   "outputs [stack]",
		Short: "Show the outputs of a deployed stack",
		Long: `Outputs reads the outputs of a deployed stack, such as ApiEndpoint, from
CloudFormation. The deployed name is <stack_prefix>-<stage>-<stack> unless
--stack-name is given.

Examples:
    calc-api outputs
    calc-api outputs api --stage prod
    calc-api outputs --stack-name calc-prod-api --format json`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeStacks,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := stackName
			if name == "" {
				name = outputs.StackName(a.cfg.StackPrefix, a.cfg.Stage, stackArg(args))
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			fetcher, err := outputs.NewFetcher(ctx, a.cfg.Region)
			if err != nil {
				return err
			}
			return runOutputs(ctx, cmd, a, fetcher, name, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringVar(&stackName, "stack-name", "", "Deployed CloudFormation stack name")

	return cmd
}

func runOutputs(ctx context.Context, cmd *cobra.Command, a *app, fetcher *outputs.Fetcher, name, format string) error {
	a.log.Debugw("describing stack", "stack_name", name, "region", a.cfg.Region)

	values, err := fetcher.Fetch(ctx, name)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		data, err := json.MarshalIndent(calcapi.OutputsResult{StackName: name, Outputs: values}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))

	case "text":
		keys := make([]string, 0, len(values))
		for key := range values {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(out, "%s = %s\n", key, values[key])
		}

	default:
		return unknownFormat(format, "text", "json")
	}
	return nil
}
