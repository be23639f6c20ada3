// Package calcapi declares the calculate API stack as Go values.
//
// A stack is a route table plus the functions it targets:
//
//	var Calculate, _ = s.Function("calculate", stack.FunctionProps{
//	    Runtime: stack.RuntimeProvidedAL2,
//	    Handler: "calculate",
//	    Code:    stack.FromAsset("packages/functions/dist/lambda.zip"),
//	    Tracing: stack.TracingActive,
//	})
//
//	api, _ := s.Api("api", stack.ApiProps{
//	    Routes: map[string]stack.RouteTarget{
//	        "GET /calculate": stack.FunctionTarget(Calculate),
//	    },
//	})
//
// The calc-api CLI synthesizes these declarations into a CloudFormation
// template. Provisioning is left to CloudFormation.
package calcapi

import (
	"encoding/json"
)

// Resource represents a CloudFormation resource.
// All resource types (lambda.Function, apigatewayv2.Route, etc.) implement this interface.
type Resource interface {
	// ResourceType returns the CloudFormation type (e.g., "AWS::Lambda::Function")
	ResourceType() string
}

// AttrRef represents a GetAtt reference to a resource attribute.
//
// When serialized to CloudFormation JSON, AttrRef becomes:
//
//	{"Fn::GetAtt": ["CalculateFunction", "Arn"]}
type AttrRef struct {
	// Resource is the logical name of the referenced resource
	Resource string
	// Attribute is the attribute name (e.g., "Arn", "ApiEndpoint")
	Attribute string
}

// MarshalJSON serializes AttrRef to CloudFormation GetAtt syntax.
func (a AttrRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][]string{
		"Fn::GetAtt": {a.Resource, a.Attribute},
	})
}

// IsZero returns true if the AttrRef has not been populated.
func (a AttrRef) IsZero() bool {
	return a.Resource == "" && a.Attribute == ""
}

// Ref is a plain Ref to a resource or parameter by logical name.
type Ref string

// MarshalJSON serializes Ref to {"Ref": name}.
func (r Ref) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"Ref": string(r)})
}

// AttrRefUsage records a GetAtt reference made by a resource.
type AttrRefUsage struct {
	// ResourceName is the logical name of the referenced resource
	ResourceName string
	// Attribute is the referenced attribute
	Attribute string
	// FieldPath is the property that holds the reference
	FieldPath string
}

// DeclaredResource is a resource produced by synthesizing a stack.
// Name becomes the CloudFormation logical ID.
type DeclaredResource struct {
	Name string
	// Type is the CloudFormation type (e.g., "AWS::Lambda::Function")
	Type string
	// Construct is the id of the stack construct that produced this resource
	Construct string
	// Dependencies are logical names of referenced resources
	Dependencies []string
	// AttrRefUsages are the GetAtt references made by this resource
	AttrRefUsages []AttrRefUsage
}

// Template represents a CloudFormation template.
type Template struct {
	AWSTemplateFormatVersion string                 `json:"AWSTemplateFormatVersion" yaml:"AWSTemplateFormatVersion"`
	Description              string                 `json:"Description,omitempty" yaml:"Description,omitempty"`
	Parameters               map[string]Parameter   `json:"Parameters,omitempty" yaml:"Parameters,omitempty"`
	Resources                map[string]ResourceDef `json:"Resources" yaml:"Resources"`
	Outputs                  map[string]Output      `json:"Outputs,omitempty" yaml:"Outputs,omitempty"`
}

// ResourceDef is a single resource in the CloudFormation template.
type ResourceDef struct {
	Type       string         `json:"Type" yaml:"Type"`
	Properties map[string]any `json:"Properties,omitempty" yaml:"Properties,omitempty"`
	DependsOn  []string       `json:"DependsOn,omitempty" yaml:"DependsOn,omitempty"`
}

// Parameter is a CloudFormation template parameter.
type Parameter struct {
	Type          string `json:"Type" yaml:"Type"`
	Description   string `json:"Description,omitempty" yaml:"Description,omitempty"`
	Default       any    `json:"Default,omitempty" yaml:"Default,omitempty"`
	AllowedValues []any  `json:"AllowedValues,omitempty" yaml:"AllowedValues,omitempty"`
}

// OutputExport names a cross-stack export.
type OutputExport struct {
	Name any `json:"Name" yaml:"Name"`
}

// Output is a CloudFormation template output.
type Output struct {
	Description string        `json:"Description,omitempty" yaml:"Description,omitempty"`
	Value       any           `json:"Value" yaml:"Value"`
	Export      *OutputExport `json:"Export,omitempty" yaml:"Export,omitempty"`
}

// BuildResult is the JSON output from `calc-api build`.
type BuildResult struct {
	Success   bool     `json:"success"`
	Stack     string   `json:"stack"`
	Template  Template `json:"template,omitempty"`
	Resources []string `json:"resources,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

// ListResult is the JSON output from `calc-api list`.
type ListResult struct {
	Stack     string         `json:"stack"`
	Routes    []ListRoute    `json:"routes"`
	Resources []ListResource `json:"resources"`
}

// ListRoute is a single route in the list output.
type ListRoute struct {
	Api      string `json:"api"`
	RouteKey string `json:"route_key"`
	Function string `json:"function"`
	Runtime  string `json:"runtime"`
	Handler  string `json:"handler,omitempty"`
	Artifact string `json:"artifact"`
	Tracing  string `json:"tracing,omitempty"`
}

// ListResource is a single synthesized resource in the list output.
type ListResource struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Construct string `json:"construct"`
}

// ValidateResult is the JSON output from `calc-api validate`.
type ValidateResult struct {
	Success   bool     `json:"success"`
	Stack     string   `json:"stack"`
	Resources int      `json:"resources"`
	Errors    []string `json:"errors,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// DiffEntry is a single resource or output that differs between templates.
type DiffEntry struct {
	Resource string   `json:"resource"`
	Type     string   `json:"type,omitempty"`
	Changes  []string `json:"changes,omitempty"`
}

// TemplateDiff lists what differs between two templates.
type TemplateDiff struct {
	Added    []DiffEntry `json:"added,omitempty"`
	Removed  []DiffEntry `json:"removed,omitempty"`
	Modified []DiffEntry `json:"modified,omitempty"`
}

// DiffSummary counts the differences.
type DiffSummary struct {
	Added    int `json:"added"`
	Removed  int `json:"removed"`
	Modified int `json:"modified"`
	Total    int `json:"total"`
}

// DiffResult is the JSON output from `calc-api diff`.
type DiffResult struct {
	Diff    TemplateDiff `json:"diff"`
	Summary DiffSummary  `json:"summary"`
}

// OutputsResult is the JSON output from `calc-api outputs`.
type OutputsResult struct {
	StackName string            `json:"stack_name"`
	Outputs   map[string]string `json:"outputs"`
}
