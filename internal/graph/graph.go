// Package graph generates DOT and Mermaid format dependency graphs from
// synthesized stack resources.
package graph

import (
	"io"
	"sort"
	"strings"

	"github.com/emicklei/dot"

	calcapi "github.com/lex00/calc-api-go"
)

// Format specifies the output format for the graph.
type Format string

const (
	// FormatDOT outputs Graphviz DOT format.
	FormatDOT Format = "dot"
	// FormatMermaid outputs Mermaid format for GitHub/markdown rendering.
	FormatMermaid Format = "mermaid"
)

// Generator creates dependency graphs from declared resources.
type Generator struct {
	// IncludeParameters includes template parameter nodes in the graph.
	IncludeParameters bool

	// Format specifies the output format (dot or mermaid). Defaults to dot.
	Format Format

	// ClusterByType groups resources by AWS service.
	ClusterByType bool
}

// Generate creates a dependency graph and writes it to w.
func (g *Generator) Generate(resources map[string]calcapi.DeclaredResource, parameters map[string]calcapi.Parameter, w io.Writer) error {
	graph := g.buildGraph(resources, parameters)

	var output string
	if g.Format == FormatMermaid {
		output = dot.MermaidGraph(graph, dot.MermaidTopToBottom)
	} else {
		output = graph.String()
	}

	_, err := io.WriteString(w, output)
	return err
}

// GenerateString returns the graph as a string.
func (g *Generator) GenerateString(resources map[string]calcapi.DeclaredResource, parameters map[string]calcapi.Parameter) (string, error) {
	var sb strings.Builder
	if err := g.Generate(resources, parameters, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (g *Generator) buildGraph(resources map[string]calcapi.DeclaredResource, parameters map[string]calcapi.Parameter) *dot.Graph {
	graph := dot.NewGraph(dot.Directed)
	graph.Attr("rankdir", "TB")

	graph.NodeInitializer(func(n dot.Node) {
		n.Attr("shape", "box")
		n.Attr("fontname", "Arial")
	})
	graph.EdgeInitializer(func(e dot.Edge) {
		e.Attr("fontname", "Arial")
		e.Attr("fontsize", "10")
	})

	names := sortedNames(resources)

	// Edges must use the node values created here; graph.Node on the root
	// does not see nodes that live in a cluster.
	nodes := make(map[string]dot.Node, len(resources)+len(parameters))
	if g.ClusterByType {
		g.addClusteredNodes(graph, resources, names, nodes)
	} else {
		for _, name := range names {
			nodes[name] = graph.Node(name).Label(g.nodeLabel(name, resources[name].Type))
		}
	}

	if g.IncludeParameters {
		for _, name := range sortedNames(parameters) {
			n := graph.Node(name)
			n.Attr("shape", "ellipse")
			n.Attr("style", "dashed")
			nodes[name] = n.Label(name)
		}
	}

	getAttRefs := buildGetAttSet(resources)

	for _, name := range names {
		for _, dep := range resources[name].Dependencies {
			to, ok := nodes[dep]
			if !ok {
				continue
			}

			e := graph.Edge(nodes[name], to)
			if getAttRefs[name+"->"+dep] {
				e.Attr("color", "blue")
			}
		}
	}

	return graph
}

// buildGetAttSet returns the edges that carry a GetAtt reference.
func buildGetAttSet(resources map[string]calcapi.DeclaredResource) map[string]bool {
	getAttRefs := make(map[string]bool)
	for name, res := range resources {
		for _, usage := range res.AttrRefUsages {
			getAttRefs[name+"->"+usage.ResourceName] = true
		}
	}
	return getAttRefs
}

// addClusteredNodes adds resource nodes grouped by AWS service.
func (g *Generator) addClusteredNodes(graph *dot.Graph, resources map[string]calcapi.DeclaredResource, names []string, nodes map[string]dot.Node) {
	serviceResources := make(map[string][]string)
	for _, name := range names {
		service := Service(resources[name].Type)
		serviceResources[service] = append(serviceResources[service], name)
	}

	for _, service := range sortedNames(serviceResources) {
		resNames := serviceResources[service]
		target := graph
		if len(resNames) > 1 {
			target = graph.Subgraph("cluster_"+service, dot.ClusterOption{})
			target.Attr("label", service)
			target.Attr("style", "rounded")
			target.Attr("bgcolor", "lightyellow")
		}
		for _, name := range resNames {
			nodes[name] = target.Node(name).Label(g.nodeLabel(name, resources[name].Type))
		}
	}
}

// nodeLabel puts the type on a second line in DOT. The dot writer quotes
// labels with %q, so a real newline is emitted as the \n escape. Mermaid
// labels stay on one line.
func (g *Generator) nodeLabel(name, cfType string) string {
	if g.Format == FormatMermaid {
		return name + " [" + cfType + "]"
	}
	return name + "\n[" + cfType + "]"
}

// Service extracts the service name from a CloudFormation type.
// e.g., "AWS::ApiGatewayV2::Route" -> "ApiGatewayV2"
func Service(cfType string) string {
	parts := strings.Split(cfType, "::")
	if len(parts) == 3 {
		return parts[1]
	}
	return "Other"
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
