package stack

import "errors"

var (
	// ErrInvalidRouteKey is returned for a route key that is not "METHOD /path" or "$default".
	ErrInvalidRouteKey = errors.New("invalid route key")
	// ErrDuplicateRoute is returned when an api declares the same route twice.
	ErrDuplicateRoute = errors.New("duplicate route")
	// ErrDuplicateID is returned when two constructs share an id or logical ID.
	ErrDuplicateID = errors.New("duplicate construct id")
	// ErrInvalidID is returned for an empty or unusable construct id.
	ErrInvalidID = errors.New("invalid construct id")
	// ErrUnknownRuntime is returned for a runtime the platform does not offer.
	ErrUnknownRuntime = errors.New("unknown runtime")
	// ErrMissingHandler is returned for a zip function without a handler.
	ErrMissingHandler = errors.New("missing handler")
	// ErrInvalidCode is returned when the code location does not match the runtime.
	ErrInvalidCode = errors.New("invalid code location")
	// ErrEmptyTarget is returned for a route without a function.
	ErrEmptyTarget = errors.New("route has no target")
	// ErrDuplicateOutput is returned when an output name is added twice.
	ErrDuplicateOutput = errors.New("duplicate output")
	// ErrUnknownStack is returned by Lookup for an unregistered stack.
	ErrUnknownStack = errors.New("unknown stack")
)
