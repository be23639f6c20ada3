package lambda

// Permission is an AWS::Lambda::Permission granting a principal invoke access.
type Permission struct {
	Action       any `json:"Action,omitempty"`
	FunctionName any `json:"FunctionName,omitempty"`
	Principal    any `json:"Principal,omitempty"`
	SourceArn    any `json:"SourceArn,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (Permission) ResourceType() string {
	return "AWS::Lambda::Permission"
}
