// Package differ provides semantic comparison of CloudFormation templates.
package differ

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"sort"

	"gopkg.in/yaml.v3"

	calcapi "github.com/lex00/calc-api-go"
)

// Entry types for parameters and outputs. Resources use their CloudFormation type.
const (
	TypeParameter = "Parameter"
	TypeOutput    = "Output"
)

// Options configures the differ.
type Options struct {
	// IgnoreOrder ignores array element order in comparisons
	IgnoreOrder bool
	// ResourcesOnly skips parameters and outputs
	ResourcesOnly bool
}

// Result contains the difference between two templates.
type Result struct {
	Diff    calcapi.TemplateDiff
	Summary calcapi.DiffSummary
}

// Compare compares two CloudFormation templates and returns differences.
func Compare(template1, template2 *calcapi.Template, opts Options) (*Result, error) {
	if template1 == nil || template2 == nil {
		return nil, fmt.Errorf("compare: nil template")
	}

	result := &Result{}

	for name, def := range template2.Resources {
		if _, exists := template1.Resources[name]; !exists {
			result.Diff.Added = append(result.Diff.Added, calcapi.DiffEntry{Resource: name, Type: def.Type})
		}
	}
	for name, def := range template1.Resources {
		def2, exists := template2.Resources[name]
		if !exists {
			result.Diff.Removed = append(result.Diff.Removed, calcapi.DiffEntry{Resource: name, Type: def.Type})
			continue
		}
		if changes := compareResources(def, def2, opts); len(changes) > 0 {
			result.Diff.Modified = append(result.Diff.Modified, calcapi.DiffEntry{
				Resource: name,
				Type:     def.Type,
				Changes:  changes,
			})
		}
	}

	if !opts.ResourcesOnly {
		compareSection(&result.Diff, TypeParameter, toMaps(template1.Parameters), toMaps(template2.Parameters), opts)
		compareSection(&result.Diff, TypeOutput, toMaps(template1.Outputs), toMaps(template2.Outputs), opts)
	}

	sortEntries(result.Diff.Added)
	sortEntries(result.Diff.Removed)
	sortEntries(result.Diff.Modified)

	result.Summary = calcapi.DiffSummary{
		Added:    len(result.Diff.Added),
		Removed:  len(result.Diff.Removed),
		Modified: len(result.Diff.Modified),
	}
	result.Summary.Total = result.Summary.Added + result.Summary.Removed + result.Summary.Modified

	return result, nil
}

// CompareFiles compares two template files.
func CompareFiles(file1, file2 string, opts Options) (*Result, error) {
	t1, err := LoadTemplate(file1)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file1, err)
	}

	t2, err := LoadTemplate(file2)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", file2, err)
	}

	return Compare(t1, t2, opts)
}

// LoadTemplate loads a CloudFormation template from a JSON or YAML file.
func LoadTemplate(path string) (*calcapi.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTemplate(data)
}

// ParseTemplate parses a JSON or YAML template. Values are normalized to the
// shapes encoding/json produces so templates from either format compare equal.
func ParseTemplate(data []byte) (*calcapi.Template, error) {
	var template calcapi.Template
	if err := json.Unmarshal(data, &template); err == nil {
		return &template, nil
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse as JSON or YAML: %w", err)
	}
	normalized, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize YAML: %w", err)
	}
	if err := json.Unmarshal(normalized, &template); err != nil {
		return nil, fmt.Errorf("failed to parse as JSON or YAML: %w", err)
	}
	return &template, nil
}

// compareResources compares two resource definitions and returns changes.
func compareResources(def1, def2 calcapi.ResourceDef, opts Options) []string {
	var changes []string

	if def1.Type != def2.Type {
		changes = append(changes, fmt.Sprintf("Type changed: %s → %s", def1.Type, def2.Type))
	}

	changes = append(changes, compareProperties("", def1.Properties, def2.Properties, opts)...)

	if !equalStringSlices(def1.DependsOn, def2.DependsOn) {
		changes = append(changes, "DependsOn changed")
	}

	return changes
}

// compareSection diffs parameters or outputs, recorded under entryType.
func compareSection(diff *calcapi.TemplateDiff, entryType string, s1, s2 map[string]map[string]any, opts Options) {
	for name := range s2 {
		if _, exists := s1[name]; !exists {
			diff.Added = append(diff.Added, calcapi.DiffEntry{Resource: name, Type: entryType})
		}
	}
	for name, v1 := range s1 {
		v2, exists := s2[name]
		if !exists {
			diff.Removed = append(diff.Removed, calcapi.DiffEntry{Resource: name, Type: entryType})
			continue
		}
		if changes := compareProperties("", v1, v2, opts); len(changes) > 0 {
			diff.Modified = append(diff.Modified, calcapi.DiffEntry{Resource: name, Type: entryType, Changes: changes})
		}
	}
}

// toMaps converts typed parameters or outputs to generic maps via JSON.
func toMaps[V any](section map[string]V) map[string]map[string]any {
	result := make(map[string]map[string]any, len(section))
	for name, v := range section {
		data, err := json.Marshal(v)
		if err != nil {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			continue
		}
		result[name] = m
	}
	return result
}

// compareProperties recursively compares property maps.
func compareProperties(prefix string, props1, props2 map[string]any, opts Options) []string {
	var changes []string

	for key, val2 := range props2 {
		path := joinPath(prefix, key)

		val1, exists := props1[key]
		if !exists {
			changes = append(changes, fmt.Sprintf("%s added", path))
			continue
		}

		m1, ok1 := val1.(map[string]any)
		m2, ok2 := val2.(map[string]any)
		if ok1 && ok2 && !isIntrinsic(m1) && !isIntrinsic(m2) {
			changes = append(changes, compareProperties(path, m1, m2, opts)...)
			continue
		}

		if !deepEqual(val1, val2, opts) {
			changes = append(changes, fmt.Sprintf("%s modified", path))
		}
	}

	for key := range props1 {
		if _, exists := props2[key]; !exists {
			changes = append(changes, fmt.Sprintf("%s removed", joinPath(prefix, key)))
		}
	}

	sort.Strings(changes)
	return changes
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// isIntrinsic reports whether a map is a single intrinsic function
// ({"Ref": ...}, {"Fn::Sub": ...}), which is compared as a whole.
func isIntrinsic(m map[string]any) bool {
	if len(m) != 1 {
		return false
	}
	for key := range m {
		return key == "Ref" || len(key) > 4 && key[:4] == "Fn::"
	}
	return false
}

// deepEqual compares two values deeply, optionally ignoring order.
func deepEqual(a, b any, opts Options) bool {
	if opts.IgnoreOrder {
		a = normalizeValue(a)
		b = normalizeValue(b)
	}
	return reflect.DeepEqual(a, b)
}

// normalizeValue sorts slices by their JSON encoding, recursively.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case []any:
		result := make([]any, len(val))
		keys := make(map[int]string, len(val))
		for i, elem := range val {
			result[i] = normalizeValue(elem)
		}
		for i, elem := range result {
			data, _ := json.Marshal(elem)
			keys[i] = string(data)
		}
		idx := make([]int, len(result))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(i, j int) bool { return keys[idx[i]] < keys[idx[j]] })
		sorted := make([]any, len(result))
		for i, j := range idx {
			sorted[i] = result[j]
		}
		return sorted
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v := range val {
			result[k] = normalizeValue(v)
		}
		return result
	default:
		return v
	}
}

func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// sortEntries sorts diff entries by type, then name.
func sortEntries(entries []calcapi.DiffEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Resource != entries[j].Resource {
			return entries[i].Resource < entries[j].Resource
		}
		return entries[i].Type < entries[j].Type
	})
}
