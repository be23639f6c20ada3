package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lex00/calc-api-go/internal/graph"
)

func newGraphCmd(a *app) *cobra.Command {
	var (
		outputFormat      string
		includeParameters bool
		clusterByType     bool
	)

	cmd := &cobra.Command{
		Use:   "graph [stack]",
		Short: "Generate DOT graph of resource dependencies",
		Long: `Generate a DOT or Mermaid format graph showing resource dependencies.

The output can be rendered with Graphviz:
    calc-api graph api | dot -Tpng -o deps.png

Or used in GitHub markdown (Mermaid format):
    calc-api graph api -f mermaid

Examples:
    calc-api graph
    calc-api graph api -p              # include parameters
    calc-api graph api-variants -c     # cluster by service`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeStacks,
		RunE: func(cmd *cobra.Command, args []string) error {
			var graphFormat graph.Format
			switch outputFormat {
			case "dot":
				graphFormat = graph.FormatDOT
			case "mermaid":
				graphFormat = graph.FormatMermaid
			default:
				return unknownFormat(outputFormat, "dot", "mermaid")
			}

			s, tmpl, err := a.synth(stackArg(args))
			if err != nil {
				return err
			}
			declared, err := s.Declared()
			if err != nil {
				return err
			}
			if len(declared) == 0 {
				return fmt.Errorf("no resources found")
			}

			gen := &graph.Generator{
				Format:            graphFormat,
				IncludeParameters: includeParameters,
				ClusterByType:     clusterByType,
			}
			return gen.Generate(declared, tmpl.Parameters, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "dot", "Output format: dot or mermaid")
	cmd.Flags().BoolVarP(&includeParameters, "include-parameters", "p", false, "Include parameter nodes in the graph")
	cmd.Flags().BoolVarP(&clusterByType, "cluster", "c", false, "Cluster resources by AWS service")

	return cmd
}
