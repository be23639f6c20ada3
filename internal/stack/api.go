package stack

import (
	"fmt"
	"hash/fnv"
	"sort"

	calcapi "github.com/lex00/calc-api-go"
	"github.com/lex00/calc-api-go/internal/serialize"
	"github.com/lex00/calc-api-go/intrinsics"
)

// RouteTarget is what a route invokes: a declared function or an inline
// function specification.
type RouteTarget struct {
	function *Function
	inline   *FunctionProps
}

// FunctionTarget routes to a function declared with Stack.Function.
func FunctionTarget(fn *Function) RouteTarget {
	return RouteTarget{function: fn}
}

// InlineTarget routes to a function declared by the route itself.
func InlineTarget(props FunctionProps) RouteTarget {
	return RouteTarget{inline: &props}
}

// ApiProps configures an HTTP API.
type ApiProps struct {
	Description string
	// Routes maps route keys ("GET /calculate") to targets.
	Routes map[string]RouteTarget
	// CorsOrigins enables CORS for the listed origins.
	CorsOrigins []string
}

// Api is an HTTP API declared in a stack.
type Api struct {
	stack     *Stack
	id        string
	logicalID string
	props     ApiProps
	routes    map[string]Route
	// suffixes maps a route key to the logical ID suffix of its resources.
	suffixes map[string]string
}

// ID returns the construct id the api was declared with.
func (a *Api) ID() string {
	return a.id
}

// LogicalID returns the CloudFormation logical ID of the api.
func (a *Api) LogicalID() string {
	return a.logicalID
}

// URL is the invoke URL of the api's default stage, resolved at deploy time.
func (a *Api) URL() intrinsics.Join {
	return intrinsics.Join{Delimiter: "", Values: []any{
		"https://", a.Ref(), ".execute-api.", intrinsics.AWS_REGION, ".", intrinsics.AWS_URL_SUFFIX,
	}}
}

// Ref references the api id.
func (a *Api) Ref() calcapi.Ref {
	return calcapi.Ref(a.logicalID)
}

// Routes returns the api routes sorted by key.
func (a *Api) Routes() []Route {
	keys := make([]string, 0, len(a.routes))
	for key := range a.routes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	routes := make([]Route, len(keys))
	for i, key := range keys {
		routes[i] = a.routes[key]
	}
	return routes
}

// Route returns the route for a key, if declared.
func (a *Api) Route(key string) (Route, bool) {
	parsed, err := ParseRouteKey(key)
	if err != nil {
		return Route{}, false
	}
	route, ok := a.routes[parsed.String()]
	return route, ok
}

// AddRoutes adds routes to the api. Either every route is added or none is.
func (a *Api) AddRoutes(routes map[string]RouteTarget) error {
	keys := make([]string, 0, len(routes))
	for key := range routes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	type pending struct {
		key    RouteKey
		target RouteTarget
		ids    []string
	}

	var batch []pending
	seen := make(map[string]bool)
	claimed := make(map[string]bool)
	suffixes := make(map[string]string)
	usedSuffixes := make(map[string]bool)
	for _, suffix := range a.suffixes {
		usedSuffixes[suffix] = true
	}

	for _, raw := range keys {
		key, err := ParseRouteKey(raw)
		if err != nil {
			return fmt.Errorf("api %s: %w", a.id, err)
		}
		norm := key.String()
		if _, exists := a.routes[norm]; exists || seen[norm] {
			return fmt.Errorf("api %s: %w: %s", a.id, ErrDuplicateRoute, norm)
		}
		seen[norm] = true

		target := routes[raw]
		switch {
		case target.function != nil:
			if !a.stack.owns(target.function) {
				return fmt.Errorf("api %s: route %s targets function %s from another stack", a.id, norm, target.function.id)
			}
		case target.inline != nil:
			if err := a.stack.applyDefaults(*target.inline).validate(); err != nil {
				return fmt.Errorf("api %s: route %s: %w", a.id, norm, err)
			}
		default:
			return fmt.Errorf("api %s: %w: %s", a.id, ErrEmptyTarget, norm)
		}

		suffix := routeSuffix(key, usedSuffixes)
		usedSuffixes[suffix] = true
		suffixes[norm] = suffix

		ids := a.routeLogicalIDs(suffix)
		if target.inline != nil {
			fnID := inlineFunctionID(a.id, key)
			if a.stack.constructs[fnID] {
				return fmt.Errorf("api %s: %w: %s", a.id, ErrDuplicateID, fnID)
			}
			fnLogical := a.logicalID + suffix
			ids = append(ids, fnLogical, fnLogical+"ServiceRole")
		}
		for _, id := range ids {
			if claimed[id] {
				return fmt.Errorf("api %s: %w: %s", a.id, ErrDuplicateID, id)
			}
			if err := a.stack.checkFree(id); err != nil {
				return fmt.Errorf("api %s: route %s: %w", a.id, norm, err)
			}
			claimed[id] = true
		}

		batch = append(batch, pending{key: key, target: target})
	}

	for _, p := range batch {
		norm := p.key.String()
		suffix := suffixes[norm]
		fn := p.target.function
		inline := false
		if p.target.inline != nil {
			created, err := a.stack.declareFunction(inlineFunctionID(a.id, p.key), a.logicalID+suffix, *p.target.inline)
			if err != nil {
				return fmt.Errorf("api %s: route %s: %w", a.id, p.key, err)
			}
			fn = created
			inline = true
		}
		for _, id := range a.routeLogicalIDs(suffix) {
			a.stack.claim(id, a.id)
		}
		a.suffixes[norm] = suffix
		a.routes[norm] = Route{Key: p.key, Function: fn, Inline: inline}
	}

	return nil
}

func inlineFunctionID(apiID string, key RouteKey) string {
	return apiID + " " + key.String()
}

func (a *Api) stageLogicalID() string {
	return a.logicalID + "DefaultStage"
}

// routeSuffix names the resources of a route. Paths are case-sensitive and
// keep punctuation, so distinct keys can share a logical ID ("GET /Calc" and
// "GET /calc"); a key whose ID is taken gets a hash of the key appended.
func routeSuffix(key RouteKey, used map[string]bool) string {
	suffix := serialize.LogicalID(key.String())
	if !used[suffix] {
		return suffix
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key.String()))
	return fmt.Sprintf("%s%08X", suffix, h.Sum32())
}

func (a *Api) suffix(key RouteKey) string {
	if suffix, ok := a.suffixes[key.String()]; ok {
		return suffix
	}
	return serialize.LogicalID(key.String())
}

func (a *Api) integrationLogicalID(key RouteKey) string {
	return a.logicalID + "Integration" + a.suffix(key)
}

func (a *Api) routeLogicalID(key RouteKey) string {
	return a.logicalID + "Route" + a.suffix(key)
}

func (a *Api) permissionLogicalID(key RouteKey) string {
	return a.logicalID + "Permission" + a.suffix(key)
}

func (a *Api) routeLogicalIDs(suffix string) []string {
	return []string{
		a.logicalID + "Integration" + suffix,
		a.logicalID + "Route" + suffix,
		a.logicalID + "Permission" + suffix,
	}
}
