// Package iam contains the AWS::IAM resource types used by the stacks.
package iam

// Role is an AWS::IAM::Role.
type Role struct {
	RoleName                 any   `json:"RoleName,omitempty"`
	Description              any   `json:"Description,omitempty"`
	AssumeRolePolicyDocument any   `json:"AssumeRolePolicyDocument,omitempty"`
	ManagedPolicyArns        []any `json:"ManagedPolicyArns,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (Role) ResourceType() string {
	return "AWS::IAM::Role"
}
