package intrinsics

import (
	"encoding/json"
)

// PolicyDocument represents an IAM policy document.
//
// Example:
//
//	var TrustPolicy = PolicyDocument{
//	    Version:   "2012-10-17",
//	    Statement: []any{AssumeRoleStatement(ServicePrincipal{"lambda.amazonaws.com"})},
//	}
type PolicyDocument struct {
	Version   string `json:"Version,omitempty"`
	Statement []any  `json:"Statement"`
}

// NewPolicyDocument creates a PolicyDocument with the default version.
func NewPolicyDocument(statements ...any) PolicyDocument {
	return PolicyDocument{Version: "2012-10-17", Statement: statements}
}

// PolicyStatement represents an IAM policy statement.
type PolicyStatement struct {
	Sid       string `json:"Sid,omitempty"`
	Effect    string `json:"Effect"`
	Principal any    `json:"Principal,omitempty"`
	Action    any    `json:"Action,omitempty"`
	Resource  any    `json:"Resource,omitempty"`
}

// AssumeRoleStatement allows the given principal to assume a role.
func AssumeRoleStatement(principal any) PolicyStatement {
	return PolicyStatement{
		Effect:    "Allow",
		Principal: principal,
		Action:    "sts:AssumeRole",
	}
}

// ServicePrincipal represents a service principal (e.g., lambda.amazonaws.com).
// Serializes to {"Service": ...} format.
type ServicePrincipal []any

// MarshalJSON serializes to {"Service": ...} format.
func (p ServicePrincipal) MarshalJSON() ([]byte, error) {
	if len(p) == 1 {
		return json.Marshal(map[string]any{"Service": p[0]})
	}
	return json.Marshal(map[string]any{"Service": []any(p)})
}

// ManagedPolicyArn returns the partition-aware ARN of an AWS managed policy.
//
//	ManagedPolicyArn("service-role/AWSLambdaBasicExecutionRole")
//	→ {"Fn::Sub": "arn:${AWS::Partition}:iam::aws:policy/service-role/AWSLambdaBasicExecutionRole"}
func ManagedPolicyArn(name string) Sub {
	return Sub{String: "arn:${AWS::Partition}:iam::aws:policy/" + name}
}
