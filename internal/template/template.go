// Package template builds CloudFormation templates from synthesized resources.
package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	calcapi "github.com/lex00/calc-api-go"
	"github.com/lex00/calc-api-go/internal/serialize"
	"github.com/lex00/calc-api-go/intrinsics"
)

// Format is a template output format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Builder constructs CloudFormation templates from synthesized resources.
type Builder struct {
	description string
	resources   map[string]calcapi.DeclaredResource
	values      map[string]calcapi.Resource
	dependsOn   map[string][]string
	parameters  map[string]*intrinsics.Parameter
	outputs     map[string]calcapi.Output
}

// NewBuilder creates a template builder from declared resources.
func NewBuilder(resources map[string]calcapi.DeclaredResource) *Builder {
	return &Builder{
		resources:  resources,
		values:     make(map[string]calcapi.Resource),
		dependsOn:  make(map[string][]string),
		parameters: make(map[string]*intrinsics.Parameter),
		outputs:    make(map[string]calcapi.Output),
	}
}

// SetDescription sets the template description.
func (b *Builder) SetDescription(description string) {
	b.description = description
}

// SetValue associates a resource value with its logical name.
func (b *Builder) SetValue(name string, value calcapi.Resource) {
	b.values[name] = value
}

// SetDependsOn adds an explicit DependsOn for a resource.
func (b *Builder) SetDependsOn(name string, deps ...string) {
	b.dependsOn[name] = append(b.dependsOn[name], deps...)
}

// AddParameter adds a template parameter. The parameter is named after its key.
func (b *Builder) AddParameter(name string, param *intrinsics.Parameter) {
	param.SetName(name)
	b.parameters[name] = param
}

// AddOutput adds a template output.
func (b *Builder) AddOutput(name string, output calcapi.Output) {
	b.outputs[name] = output
}

// Build constructs the CloudFormation template.
func (b *Builder) Build() (*calcapi.Template, error) {
	order, err := b.topologicalSort()
	if err != nil {
		return nil, err
	}

	template := &calcapi.Template{
		AWSTemplateFormatVersion: "2010-09-09",
		Description:              b.description,
		Resources:                make(map[string]calcapi.ResourceDef),
	}

	if len(b.parameters) > 0 {
		template.Parameters = make(map[string]calcapi.Parameter)
		for name, param := range b.parameters {
			template.Parameters[name] = calcapi.Parameter{
				Type:          param.Type,
				Description:   param.Description,
				Default:       param.Default,
				AllowedValues: param.AllowedValues,
			}
		}
	}

	for _, name := range order {
		res := b.resources[name]
		value, ok := b.values[name]
		if !ok {
			return nil, fmt.Errorf("no value set for resource %s", name)
		}

		resourceType := value.ResourceType()
		if res.Type != "" && res.Type != resourceType {
			return nil, fmt.Errorf("resource %s declared as %s but value is %s", name, res.Type, resourceType)
		}

		props, err := properties(value)
		if err != nil {
			return nil, fmt.Errorf("serializing %s: %w", name, err)
		}

		def := calcapi.ResourceDef{
			Type:       resourceType,
			Properties: props,
		}
		if deps := b.dependsOn[name]; len(deps) > 0 {
			def.DependsOn = append([]string(nil), deps...)
			sort.Strings(def.DependsOn)
		}
		template.Resources[name] = def
	}

	if len(b.outputs) > 0 {
		template.Outputs = make(map[string]calcapi.Output)
		for name, output := range b.outputs {
			normalized, err := normalizeOutput(output)
			if err != nil {
				return nil, fmt.Errorf("serializing output %s: %w", name, err)
			}
			template.Outputs[name] = normalized
		}
	}

	return template, nil
}

// properties serializes a resource value into normalized template properties.
func properties(value calcapi.Resource) (map[string]any, error) {
	props, err := serialize.Properties(value)
	if err != nil {
		return nil, err
	}
	if len(props) == 0 {
		return nil, nil
	}

	normalized, err := serialize.Normalize(props)
	if err != nil {
		return nil, err
	}
	return normalized.(map[string]any), nil
}

func normalizeOutput(output calcapi.Output) (calcapi.Output, error) {
	value, err := serialize.Normalize(output.Value)
	if err != nil {
		return output, err
	}
	output.Value = value

	if output.Export != nil {
		name, err := serialize.Normalize(output.Export.Name)
		if err != nil {
			return output, err
		}
		output.Export = &calcapi.OutputExport{Name: name}
	}
	return output, nil
}

// topologicalSort returns resources in dependency order.
func (b *Builder) topologicalSort() ([]string, error) {
	graph := make(map[string][]string)
	inDegree := make(map[string]int)

	for name := range b.resources {
		graph[name] = nil
		inDegree[name] = 0
	}

	for name, deps := range b.dependencies() {
		for _, dep := range deps {
			if _, exists := b.resources[dep]; exists {
				graph[dep] = append(graph[dep], name)
				inDegree[name]++
			}
		}
	}

	// Kahn's algorithm
	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	var result []string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, neighbor := range graph[node] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
				sort.Strings(queue)
			}
		}
	}

	if len(result) != len(b.resources) {
		return nil, b.detectCycle()
	}

	return result, nil
}

// dependencies merges declared dependencies with explicit DependsOn.
func (b *Builder) dependencies() map[string][]string {
	deps := make(map[string][]string, len(b.resources))
	for name, res := range b.resources {
		deps[name] = append(deps[name], res.Dependencies...)
		deps[name] = append(deps[name], b.dependsOn[name]...)
	}
	return deps
}

// detectCycle finds and reports a cycle in the dependency graph.
func (b *Builder) detectCycle() error {
	deps := b.dependencies()
	visited := make(map[string]bool)
	onPath := make(map[string]bool)

	names := make([]string, 0, len(b.resources))
	for name := range b.resources {
		names = append(names, name)
	}
	sort.Strings(names)

	// stack holds the current DFS path; a back edge to dep closes the cycle
	// stack[index(dep):] -> dep.
	var (
		stack []string
		cycle []string
	)
	var findCycle func(node string) bool
	findCycle = func(node string) bool {
		visited[node] = true
		onPath[node] = true
		stack = append(stack, node)

		for _, dep := range deps[node] {
			if _, exists := b.resources[dep]; !exists {
				continue
			}
			if onPath[dep] {
				for i, name := range stack {
					if name == dep {
						cycle = append(append([]string(nil), stack[i:]...), dep)
						return true
					}
				}
			}
			if !visited[dep] && findCycle(dep) {
				return true
			}
		}

		stack = stack[:len(stack)-1]
		onPath[node] = false
		return false
	}

	for _, name := range names {
		if !visited[name] && findCycle(name) {
			break
		}
	}

	if len(cycle) == 0 {
		return errors.New("circular dependency detected")
	}

	var msg strings.Builder
	msg.WriteString("circular dependency detected:\n")
	for i, name := range cycle {
		if i == 0 {
			msg.WriteString("  ")
		} else {
			msg.WriteString("\n    → ")
		}
		fmt.Fprintf(&msg, "%s (%s)", name, b.resources[name].Construct)
	}
	return errors.New(msg.String())
}

// ToJSON serializes the template to JSON.
func ToJSON(t *calcapi.Template) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// ToYAML serializes the template to YAML.
func ToYAML(t *calcapi.Template) ([]byte, error) {
	return yaml.Marshal(t)
}

// Write serializes the template in the given format to w.
func Write(t *calcapi.Template, format Format, w io.Writer) error {
	var (
		data []byte
		err  error
	)

	switch format {
	case FormatJSON, "":
		data, err = ToJSON(t)
	case FormatYAML:
		data, err = ToYAML(t)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}
