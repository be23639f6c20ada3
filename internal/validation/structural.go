package validation

import (
	"fmt"
	"sort"
	"strings"

	calcapi "github.com/lex00/calc-api-go"
)

// CloudFormation types the route table is wired from.
const (
	typeRoute       = "AWS::ApiGatewayV2::Route"
	typeIntegration = "AWS::ApiGatewayV2::Integration"
	typeApi         = "AWS::ApiGatewayV2::Api"
	typeFunction    = "AWS::Lambda::Function"
	typePermission  = "AWS::Lambda::Permission"
	typeRole        = "AWS::IAM::Role"
)

// Structural checks the wiring of a built template: each route reaches an
// integration on a declared api, each integration invokes a function, each
// function runs under a role, and every Ref, Fn::GetAtt and Fn::Sub variable
// names a resource, parameter or pseudo parameter. Issues are sorted.
func Structural(t *calcapi.Template) []string {
	var issues []string
	add := func(format string, args ...any) {
		issues = append(issues, fmt.Sprintf(format, args...))
	}

	for _, name := range sortedNames(t.Resources) {
		res := t.Resources[name]

		switch res.Type {
		case typeRoute:
			if target := refTarget(res.Properties["ApiId"]); !isType(t, target, typeApi) {
				add("%s: ApiId does not reference an %s", name, typeApi)
			}
			integration, ok := routeIntegration(res.Properties["Target"])
			if !ok {
				add("%s: Target is not integrations/<integration>", name)
			} else if !isType(t, integration, typeIntegration) {
				add("%s: Target %s is not an %s", name, integration, typeIntegration)
			}

		case typeIntegration:
			if target := refTarget(res.Properties["ApiId"]); !isType(t, target, typeApi) {
				add("%s: ApiId does not reference an %s", name, typeApi)
			}
			if fn := getAttTarget(res.Properties["IntegrationUri"]); !isType(t, fn, typeFunction) {
				add("%s: IntegrationUri does not reference a %s", name, typeFunction)
			}

		case typeFunction:
			if role := getAttTarget(res.Properties["Role"]); !isType(t, role, typeRole) {
				if _, literal := res.Properties["Role"].(string); !literal {
					add("%s: Role does not reference an %s", name, typeRole)
				}
			}

		case typePermission:
			if fn := getAttTarget(res.Properties["FunctionName"]); fn != "" && !isType(t, fn, typeFunction) {
				add("%s: FunctionName does not reference a %s", name, typeFunction)
			}
		}

		for _, ref := range collectRefs(res.Properties) {
			if issue := checkRef(t, ref); issue != "" {
				add("%s: %s", name, issue)
			}
		}
	}

	for _, name := range sortedNames(t.Outputs) {
		for _, ref := range collectRefs(t.Outputs[name].Value) {
			if issue := checkRef(t, ref); issue != "" {
				add("output %s: %s", name, issue)
			}
		}
	}

	sort.Strings(issues)
	return issues
}

// reference is a Ref, Fn::GetAtt or Fn::Sub variable found in a template.
type reference struct {
	kind   string
	target string
}

func checkRef(t *calcapi.Template, ref reference) string {
	if strings.HasPrefix(ref.target, "AWS::") {
		return ""
	}
	if _, ok := t.Resources[ref.target]; ok {
		return ""
	}
	if ref.kind != "Fn::GetAtt" {
		if _, ok := t.Parameters[ref.target]; ok {
			return ""
		}
	}
	return fmt.Sprintf("%s to undeclared %s", ref.kind, ref.target)
}

// collectRefs walks a value and returns every reference it makes.
func collectRefs(v any) []reference {
	var refs []reference

	var walk func(v any)
	walk = func(v any) {
		switch val := v.(type) {
		case map[string]any:
			if len(val) == 1 {
				if target, ok := val["Ref"].(string); ok {
					refs = append(refs, reference{kind: "Ref", target: target})
					return
				}
				if target := getAttTarget(val); target != "" {
					refs = append(refs, reference{kind: "Fn::GetAtt", target: target})
					return
				}
				if sub, ok := val["Fn::Sub"]; ok {
					refs = append(refs, subRefs(sub)...)
					return
				}
			}
			for _, key := range sortedNames(val) {
				walk(val[key])
			}
		case []any:
			for _, elem := range val {
				walk(elem)
			}
		}
	}

	walk(v)
	return refs
}

// subRefs returns the ${Name} and ${Name.Attr} variables of an Fn::Sub that
// are not bound by its variable map.
func subRefs(sub any) []reference {
	var str string
	bound := map[string]bool{}

	switch val := sub.(type) {
	case string:
		str = val
	case []any:
		if len(val) == 0 {
			return nil
		}
		str, _ = val[0].(string)
		if len(val) > 1 {
			if vars, ok := val[1].(map[string]any); ok {
				for name := range vars {
					bound[name] = true
				}
			}
		}
	}

	var refs []reference
	for {
		start := strings.Index(str, "${")
		if start < 0 {
			break
		}
		end := strings.Index(str[start:], "}")
		if end < 0 {
			break
		}
		name := str[start+2 : start+end]
		str = str[start+end+1:]

		if name == "" || strings.HasPrefix(name, "!") || bound[name] {
			continue
		}
		if resource, _, isAttr := strings.Cut(name, "."); isAttr {
			refs = append(refs, reference{kind: "Fn::GetAtt", target: resource})
			continue
		}
		refs = append(refs, reference{kind: "Ref", target: name})
	}
	return refs
}

func refTarget(v any) string {
	m, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	target, _ := m["Ref"].(string)
	return target
}

func getAttTarget(v any) string {
	m, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	switch args := m["Fn::GetAtt"].(type) {
	case []any:
		if len(args) == 2 {
			target, _ := args[0].(string)
			return target
		}
	case string:
		target, _, _ := strings.Cut(args, ".")
		return target
	}
	return ""
}

// routeIntegration extracts the integration from a route Target, either
// "integrations/<id>" or Fn::Join ["", ["integrations/", {"Ref": id}]].
func routeIntegration(v any) (string, bool) {
	if s, ok := v.(string); ok {
		id, found := strings.CutPrefix(s, "integrations/")
		return id, found && id != ""
	}

	m, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	args, ok := m["Fn::Join"].([]any)
	if !ok || len(args) != 2 {
		return "", false
	}
	parts, ok := args[1].([]any)
	if !ok || len(parts) != 2 || parts[0] != "integrations/" {
		return "", false
	}
	id := refTarget(parts[1])
	return id, id != ""
}

func isType(t *calcapi.Template, name, cfType string) bool {
	if name == "" {
		return false
	}
	res, ok := t.Resources[name]
	return ok && res.Type == cfType
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
