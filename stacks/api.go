// Package stacks holds the declared calculate stacks. Each registers itself
// with the stack registry under the name the CLI uses.
package stacks

import (
	"github.com/lex00/calc-api-go/internal/stack"
)

// Settings read by the declarations. The CLI fills them from config.
const (
	SettingCalculateAsset = "calculate.asset"
	SettingContainerImage = "container.image"
	SettingDartImage      = "dart.image"
)

// Default artifact locations, relative to the project root.
const (
	DefaultCalculateAsset   = "packages/functions/dist/lambda.zip"
	DefaultContainerContext = "packages/functions"
	DefaultDartContext      = "packages/functions/dart"
)

func init() {
	stack.Register("api", API)
	stack.Register("api-variants", APIVariants)
}

// API declares the calculate function behind GET /calculate and exports the
// api endpoint.
func API(s *stack.Stack) error {
	_, err := declareCalculate(s, nil)
	return err
}

// declareCalculate declares the calculate function and the api, plus any
// extra routes, and adds the ApiEndpoint output.
func declareCalculate(s *stack.Stack, extra map[string]stack.RouteTarget) (*stack.Api, error) {
	code, err := stack.ParseLocation(s.Setting(SettingCalculateAsset, DefaultCalculateAsset))
	if err != nil {
		return nil, err
	}

	calculate, err := s.Function("calculate", stack.FunctionProps{
		Runtime: stack.RuntimeProvidedAL2,
		Handler: "calculate",
		Code:    code,
		Tracing: stack.TracingActive,
	})
	if err != nil {
		return nil, err
	}

	routes := map[string]stack.RouteTarget{
		"GET /calculate": stack.FunctionTarget(calculate),
	}
	for key, target := range extra {
		routes[key] = target
	}

	api, err := s.Api("api", stack.ApiProps{Routes: routes})
	if err != nil {
		return nil, err
	}

	if err := s.AddOutputs(map[string]any{"ApiEndpoint": api.URL()}); err != nil {
		return nil, err
	}
	return api, nil
}
