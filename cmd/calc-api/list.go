package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	calcapi "github.com/lex00/calc-api-go"
	"github.com/lex00/calc-api-go/internal/stack"
)

func newListCmd(a *app) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "list [stack]",
		Short: "List routes and synthesized resources",
		Long: `List shows the route table of a stack and the resources it synthesizes.
With no stack name and --stacks, the registered stacks are listed.

Examples:
    calc-api list
    calc-api list api-variants --format json
    calc-api list --stacks`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeStacks,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showStacks, _ := cmd.Flags().GetBool("stacks"); showStacks {
				for _, name := range stack.Names() {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}
			return runList(cmd, a, stackArg(args), outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().Bool("stacks", false, "List registered stack names")

	return cmd
}

func runList(cmd *cobra.Command, a *app, name, format string) error {
	s, err := a.buildStack(name)
	if err != nil {
		return err
	}
	declared, err := s.Declared()
	if err != nil {
		return err
	}

	result := listResult(s, declared)

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))

	case "text":
		fmt.Fprintf(out, "Routes (%d):\n\n", len(result.Routes))
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, r := range result.Routes {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n", r.RouteKey, r.Function, r.Runtime, r.Handler, r.Artifact)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Fprintf(out, "\nResources (%d):\n\n", len(result.Resources))
		for _, res := range result.Resources {
			fmt.Fprintf(out, "  %s: %s\n", res.Name, res.Type)
		}

	default:
		return unknownFormat(format, "text", "json")
	}

	return nil
}

func listResult(s *stack.Stack, declared map[string]calcapi.DeclaredResource) calcapi.ListResult {
	result := calcapi.ListResult{
		Stack:     s.Name(),
		Routes:    []calcapi.ListRoute{},
		Resources: make([]calcapi.ListResource, 0, len(declared)),
	}

	for _, api := range s.Apis() {
		for _, route := range api.Routes() {
			props := route.Function.Props()
			result.Routes = append(result.Routes, calcapi.ListRoute{
				Api:      api.ID(),
				RouteKey: route.Key.String(),
				Function: route.Function.ID(),
				Runtime:  string(props.Runtime),
				Handler:  props.Handler,
				Artifact: props.Code.Location(),
				Tracing:  string(props.Tracing),
			})
		}
	}

	for name, res := range declared {
		result.Resources = append(result.Resources, calcapi.ListResource{
			Name:      name,
			Type:      res.Type,
			Construct: res.Construct,
		})
	}
	sort.Slice(result.Resources, func(i, j int) bool {
		return result.Resources[i].Name < result.Resources[j].Name
	})

	return result
}
