// Package lambda contains the AWS::Lambda resource types used by the stacks.
package lambda

// Function is an AWS::Lambda::Function.
type Function struct {
	FunctionName  any                     `json:"FunctionName,omitempty"`
	Description   any                     `json:"Description,omitempty"`
	Runtime       any                     `json:"Runtime,omitempty"`
	Handler       any                     `json:"Handler,omitempty"`
	PackageType   any                     `json:"PackageType,omitempty"`
	Code          *Function_Code          `json:"Code,omitempty"`
	ImageConfig   *Function_ImageConfig   `json:"ImageConfig,omitempty"`
	Role          any                     `json:"Role,omitempty"`
	TracingConfig *Function_TracingConfig `json:"TracingConfig,omitempty"`
	MemorySize    any                     `json:"MemorySize,omitempty"`
	Timeout       any                     `json:"Timeout,omitempty"`
	Architectures []any                   `json:"Architectures,omitempty"`
	Environment   *Function_Environment   `json:"Environment,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (Function) ResourceType() string {
	return "AWS::Lambda::Function"
}

// Function_Code is the deployment package of a Function.
// Either S3Bucket/S3Key or ImageUri is set.
type Function_Code struct {
	S3Bucket any `json:"S3Bucket,omitempty"`
	S3Key    any `json:"S3Key,omitempty"`
	ImageUri any `json:"ImageUri,omitempty"`
}

// Function_ImageConfig overrides the container image settings.
type Function_ImageConfig struct {
	Command          []any `json:"Command,omitempty"`
	EntryPoint       []any `json:"EntryPoint,omitempty"`
	WorkingDirectory any   `json:"WorkingDirectory,omitempty"`
}

// Function_TracingConfig sets the X-Ray tracing mode.
type Function_TracingConfig struct {
	Mode any `json:"Mode,omitempty"`
}

// Function_Environment holds environment variables for the function.
type Function_Environment struct {
	Variables map[string]any `json:"Variables,omitempty"`
}

// Package types.
const (
	PackageTypeZip   = "Zip"
	PackageTypeImage = "Image"
)

// Tracing modes.
const (
	TracingModeActive      = "Active"
	TracingModePassThrough = "PassThrough"
)
