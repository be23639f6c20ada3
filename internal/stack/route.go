package stack

import (
	"fmt"
	"strings"
)

// DefaultRouteKey catches requests no other route matches.
const DefaultRouteKey = "$default"

var routeMethods = map[string]bool{
	"GET":     true,
	"POST":    true,
	"PUT":     true,
	"PATCH":   true,
	"DELETE":  true,
	"HEAD":    true,
	"OPTIONS": true,
	"ANY":     true,
}

// RouteKey is an HTTP method and path used by the gateway as a dispatch key.
type RouteKey struct {
	Method string
	Path   string
}

// ParseRouteKey parses "METHOD /path" or "$default". The method is
// case-insensitive and normalized to upper case.
func ParseRouteKey(s string) (RouteKey, error) {
	s = strings.TrimSpace(s)
	if s == DefaultRouteKey {
		return RouteKey{Path: DefaultRouteKey}, nil
	}

	fields := strings.Fields(s)
	if len(fields) != 2 {
		return RouteKey{}, fmt.Errorf("%w: %q (want \"METHOD /path\")", ErrInvalidRouteKey, s)
	}

	method := strings.ToUpper(fields[0])
	if !routeMethods[method] {
		return RouteKey{}, fmt.Errorf("%w: %q has unsupported method %s", ErrInvalidRouteKey, s, fields[0])
	}

	path := fields[1]
	if !strings.HasPrefix(path, "/") {
		return RouteKey{}, fmt.Errorf("%w: %q path must start with /", ErrInvalidRouteKey, s)
	}
	if err := validatePath(path); err != nil {
		return RouteKey{}, fmt.Errorf("%w: %q %v", ErrInvalidRouteKey, s, err)
	}

	return RouteKey{Method: method, Path: path}, nil
}

// validatePath checks path segments. Empty segments are rejected except for
// the root path; {name} and a trailing {name+} are path parameters.
func validatePath(path string) error {
	if path == "/" {
		return nil
	}
	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")
	for i, seg := range segments {
		if seg == "" {
			return fmt.Errorf("has an empty segment")
		}
		if !strings.ContainsAny(seg, "{}") {
			continue
		}
		if !strings.HasPrefix(seg, "{") || !strings.HasSuffix(seg, "}") || strings.Trim(seg, "{}+") == "" {
			return fmt.Errorf("has a malformed parameter %s", seg)
		}
		if strings.HasSuffix(seg, "+}") && i != len(segments)-1 {
			return fmt.Errorf("greedy parameter %s must be last", seg)
		}
	}
	return nil
}

// IsDefault reports whether this is the $default catch-all route.
func (k RouteKey) IsDefault() bool {
	return k.Method == "" && k.Path == DefaultRouteKey
}

// String returns the key in gateway form.
func (k RouteKey) String() string {
	if k.IsDefault() {
		return DefaultRouteKey
	}
	return k.Method + " " + k.Path
}

// Route is a route key bound to the function that serves it.
type Route struct {
	Key      RouteKey
	Function *Function
	// Inline is true when the function was declared by the route itself.
	Inline bool
}
