package stack

import (
	"fmt"
	"time"

	calcapi "github.com/lex00/calc-api-go"
)

// Architectures accepted by FunctionProps.Architecture.
const (
	ArchitectureX86_64 = "x86_64"
	ArchitectureARM64  = "arm64"
)

// FunctionProps configures a deployed function.
type FunctionProps struct {
	Description string
	// Runtime selects the execution environment.
	Runtime Runtime
	// Handler names the entry point inside the artifact. Required for zip
	// runtimes; for containers it becomes the image command when Code has none.
	Handler string
	// Code is the location of the pre-built artifact.
	Code    Code
	Tracing Tracing
	// MemorySize in MB; zero leaves the platform default.
	MemorySize int
	// Timeout; zero leaves the platform default.
	Timeout      time.Duration
	Architecture string
	Environment  map[string]string
}

func (p FunctionProps) validate() error {
	if err := p.Runtime.Validate(); err != nil {
		return err
	}
	if err := p.Tracing.Validate(); err != nil {
		return err
	}
	if err := p.Code.validate(); err != nil {
		return err
	}

	if p.Runtime.IsContainer() {
		if !p.Code.IsImage() {
			return fmt.Errorf("%w: container runtime needs image code, got %s", ErrInvalidCode, p.Code.Kind)
		}
	} else {
		if p.Code.IsImage() {
			return fmt.Errorf("%w: runtime %s needs zip code, got %s", ErrInvalidCode, p.Runtime, p.Code.Kind)
		}
		if p.Handler == "" {
			return fmt.Errorf("%w: runtime %s", ErrMissingHandler, p.Runtime)
		}
	}

	if p.MemorySize != 0 && (p.MemorySize < 128 || p.MemorySize > 10240) {
		return fmt.Errorf("memory size %d MB out of range 128-10240", p.MemorySize)
	}
	if p.Timeout != 0 && (p.Timeout < time.Second || p.Timeout > 15*time.Minute) {
		return fmt.Errorf("timeout %s out of range 1s-15m", p.Timeout)
	}
	if p.Timeout%time.Second != 0 {
		return fmt.Errorf("timeout %s is not a whole number of seconds", p.Timeout)
	}
	switch p.Architecture {
	case "", ArchitectureX86_64, ArchitectureARM64:
	default:
		return fmt.Errorf("unknown architecture: %s", p.Architecture)
	}
	return nil
}

// Function is a function declared in a stack.
type Function struct {
	id        string
	logicalID string
	props     FunctionProps
}

// ID returns the construct id the function was declared with.
func (f *Function) ID() string {
	return f.id
}

// LogicalID returns the CloudFormation logical ID of the function.
func (f *Function) LogicalID() string {
	return f.logicalID
}

// Props returns the function configuration.
func (f *Function) Props() FunctionProps {
	return f.props
}

// Arn references the function ARN.
func (f *Function) Arn() calcapi.AttrRef {
	return calcapi.AttrRef{Resource: f.logicalID, Attribute: "Arn"}
}

func (f *Function) roleLogicalID() string {
	return f.logicalID + "ServiceRole"
}
