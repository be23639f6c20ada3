// Package intrinsics provides the CloudFormation intrinsic functions used by
// the stack declarations.
//
// The core intrinsic types come from cloudformation-schema-go:
//
//	Ref{LogicalName: "Api"} → {"Ref": "Api"}
//	Sub{String: "https://${Api}.execute-api.${AWS::Region}.${AWS::URLSuffix}"}
//	Join{Delimiter: "", Values: []any{"arn:", AWS_PARTITION, ":execute-api:"}}
package intrinsics

import (
	"encoding/json"

	"github.com/lex00/cloudformation-schema-go/intrinsics"
)

type (
	// Ref represents a CloudFormation Ref intrinsic function.
	Ref = intrinsics.Ref

	// Sub represents a CloudFormation Fn::Sub intrinsic function.
	Sub = intrinsics.Sub

	// Join represents a CloudFormation Fn::Join intrinsic function.
	Join = intrinsics.Join
)

// Parameter is a template parameter declared by a stack.
// Used as a property value it serializes to {"Ref": "<name>"} once named.
type Parameter struct {
	// Type is the CloudFormation parameter type (String, Number, ...)
	Type string
	// Description is optional documentation for the parameter
	Description string
	// Default is the value used when the deployer supplies none
	Default any
	// AllowedValues restricts the parameter to specific values
	AllowedValues []any

	name string
}

// NewParameter returns a named String parameter.
func NewParameter(name, description string, def any) *Parameter {
	return &Parameter{
		Type:        "String",
		Description: description,
		Default:     def,
		name:        name,
	}
}

// SetName sets the parameter name for Ref serialization.
func (p *Parameter) SetName(name string) {
	p.name = name
}

// Name returns the parameter name.
func (p Parameter) Name() string {
	return p.name
}

// MarshalJSON serializes Parameter as a Ref when used as a value.
func (p Parameter) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"Ref": p.name})
}
