package stack

import (
	"fmt"

	"github.com/lex00/cloudformation-schema-go/enums"

	"github.com/lex00/calc-api-go/resources/lambda"
)

// Runtime selects how a deployed function is executed.
type Runtime string

const (
	// RuntimeProvidedAL2 is the custom runtime on Amazon Linux 2. The artifact
	// is a zip holding a bootstrap binary.
	RuntimeProvidedAL2 Runtime = "provided.al2"
	// RuntimeProvidedAL2023 is the custom runtime on Amazon Linux 2023.
	RuntimeProvidedAL2023 Runtime = "provided.al2023"
	// RuntimeContainer runs the function from a container image. The image
	// carries its own runtime, so no Lambda runtime identifier is sent.
	RuntimeContainer Runtime = "container"
)

// zipRuntimes are the custom runtimes accepted even when the schema enums
// are older than the runtime.
var zipRuntimes = map[Runtime]bool{
	RuntimeProvidedAL2:    true,
	RuntimeProvidedAL2023: true,
	"provided":            true,
}

// IsContainer reports whether the runtime is a container image.
func (r Runtime) IsContainer() bool {
	return r == RuntimeContainer
}

// PackageType returns the Lambda package type for the runtime.
func (r Runtime) PackageType() string {
	if r.IsContainer() {
		return lambda.PackageTypeImage
	}
	return lambda.PackageTypeZip
}

// Validate checks the runtime against the CloudFormation Lambda Runtime enum.
func (r Runtime) Validate() error {
	if r == "" {
		return fmt.Errorf("%w: runtime is required", ErrUnknownRuntime)
	}
	if r.IsContainer() {
		return nil
	}

	if zipRuntimes[r] {
		return nil
	}
	if enumName := enums.GetEnumForProperty("lambda", "Runtime"); enumName != "" {
		if enums.IsValidValue("lambda", enumName, string(r)) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownRuntime, r)
}

// Tracing is the X-Ray tracing flag passed to the platform.
type Tracing string

const (
	// TracingDefault leaves the choice to the stack's function defaults,
	// and means no tracing when those are unset too.
	TracingDefault Tracing = ""
	// TracingDisabled sends no tracing configuration, whatever the defaults.
	TracingDisabled Tracing = "Disabled"
	// TracingActive samples and traces incoming requests.
	TracingActive Tracing = lambda.TracingModeActive
	// TracingPassThrough traces only when the caller sampled the request.
	TracingPassThrough Tracing = lambda.TracingModePassThrough
)

// Validate checks the tracing mode.
func (t Tracing) Validate() error {
	switch t {
	case TracingDefault, TracingDisabled, TracingActive, TracingPassThrough:
		return nil
	default:
		return fmt.Errorf("unknown tracing mode: %s", string(t))
	}
}

// Enabled reports whether the mode sends a tracing configuration.
func (t Tracing) Enabled() bool {
	return t == TracingActive || t == TracingPassThrough
}
