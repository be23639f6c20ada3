// Package stack declares functions, HTTP APIs and their route tables, and
// synthesizes them into a CloudFormation template.
package stack

import (
	"fmt"
	"sort"
	"strings"
	"time"

	calcapi "github.com/lex00/calc-api-go"
	"github.com/lex00/calc-api-go/internal/serialize"
	"github.com/lex00/calc-api-go/internal/template"
	"github.com/lex00/calc-api-go/intrinsics"
	"github.com/lex00/calc-api-go/resources/apigatewayv2"
	"github.com/lex00/calc-api-go/resources/iam"
	"github.com/lex00/calc-api-go/resources/lambda"
)

// ArtifactBucketParameter is the template parameter naming the bucket that
// holds asset artifacts.
const ArtifactBucketParameter = "ArtifactBucket"

// Option configures a Stack.
type Option func(*Stack)

// WithStage sets the deployment stage. Asset keys are prefixed with it.
func WithStage(stage string) Option {
	return func(s *Stack) {
		s.stage = stage
	}
}

// WithDescription sets the template description.
func WithDescription(description string) Option {
	return func(s *Stack) {
		s.description = description
	}
}

// WithArtifactBucket sets the default of the ArtifactBucket parameter.
func WithArtifactBucket(bucket string) Option {
	return func(s *Stack) {
		s.artifactBucket = bucket
	}
}

// WithSetting sets a value stack definitions can read with Setting.
func WithSetting(key, value string) Option {
	return func(s *Stack) {
		s.settings[key] = value
	}
}

// FunctionDefaults fill the fields a function declaration leaves zero.
type FunctionDefaults struct {
	MemorySize int
	Timeout    time.Duration
	Tracing    Tracing
}

// WithFunctionDefaults sets defaults applied to every declared function.
func WithFunctionDefaults(defaults FunctionDefaults) Option {
	return func(s *Stack) {
		s.defaults = defaults
	}
}

// Stack is a set of functions and APIs deployed together.
type Stack struct {
	name           string
	stage          string
	description    string
	artifactBucket string
	settings       map[string]string
	defaults       FunctionDefaults

	functions  []*Function
	apis       []*Api
	outputs    map[string]calcapi.Output
	constructs map[string]bool
	// logicalIDs maps claimed logical IDs to the construct that claimed them.
	logicalIDs map[string]string
}

// New creates an empty stack.
func New(name string, opts ...Option) *Stack {
	s := &Stack{
		name:       name,
		settings:   make(map[string]string),
		outputs:    make(map[string]calcapi.Output),
		constructs: make(map[string]bool),
		logicalIDs: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the stack name.
func (s *Stack) Name() string {
	return s.name
}

// Stage returns the deployment stage.
func (s *Stack) Stage() string {
	return s.stage
}

// Setting returns a configured setting or def when unset.
func (s *Stack) Setting(key, def string) string {
	if v, ok := s.settings[key]; ok && v != "" {
		return v
	}
	return def
}

// Functions returns the declared functions in declaration order.
func (s *Stack) Functions() []*Function {
	return append([]*Function(nil), s.functions...)
}

// Apis returns the declared apis in declaration order.
func (s *Stack) Apis() []*Api {
	return append([]*Api(nil), s.apis...)
}

// Outputs returns the declared outputs.
func (s *Stack) Outputs() map[string]calcapi.Output {
	outputs := make(map[string]calcapi.Output, len(s.outputs))
	for name, output := range s.outputs {
		outputs[name] = output
	}
	return outputs
}

// Function declares a function.
func (s *Stack) Function(id string, props FunctionProps) (*Function, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("function: %w: empty id", ErrInvalidID)
	}
	if s.constructs[id] {
		return nil, fmt.Errorf("function %s: %w", id, ErrDuplicateID)
	}
	return s.declareFunction(id, serialize.LogicalID(id), props)
}

func (s *Stack) declareFunction(id, logicalID string, props FunctionProps) (*Function, error) {
	props = s.applyDefaults(props)
	if err := props.validate(); err != nil {
		return nil, fmt.Errorf("function %s: %w", id, err)
	}

	fn := &Function{id: id, logicalID: logicalID, props: props}
	if fn.logicalID == "" {
		return nil, fmt.Errorf("function %s: %w: no letters or digits", id, ErrInvalidID)
	}
	for _, logical := range []string{fn.logicalID, fn.roleLogicalID()} {
		if err := s.checkFree(logical); err != nil {
			return nil, fmt.Errorf("function %s: %w", id, err)
		}
	}

	s.constructs[id] = true
	s.claim(fn.logicalID, id)
	s.claim(fn.roleLogicalID(), id)
	s.functions = append(s.functions, fn)
	return fn, nil
}

// Api declares an HTTP API with an initial route table.
func (s *Stack) Api(id string, props ApiProps) (*Api, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("api: %w: empty id", ErrInvalidID)
	}
	if s.constructs[id] {
		return nil, fmt.Errorf("api %s: %w", id, ErrDuplicateID)
	}

	api := &Api{
		stack:     s,
		id:        id,
		logicalID: serialize.LogicalID(id),
		props:     props,
		routes:    make(map[string]Route),
		suffixes:  make(map[string]string),
	}
	if api.logicalID == "" {
		return nil, fmt.Errorf("api %s: %w: no letters or digits", id, ErrInvalidID)
	}
	for _, logical := range []string{api.logicalID, api.stageLogicalID()} {
		if err := s.checkFree(logical); err != nil {
			return nil, fmt.Errorf("api %s: %w", id, err)
		}
	}

	s.constructs[id] = true
	s.claim(api.logicalID, id)
	s.claim(api.stageLogicalID(), id)

	if err := api.AddRoutes(props.Routes); err != nil {
		s.release(id)
		return nil, err
	}

	s.apis = append(s.apis, api)
	return api, nil
}

// AddOutputs adds named stack outputs. A value may be a calcapi.Output or
// any template value (string, intrinsic, AttrRef).
func (s *Stack) AddOutputs(outputs map[string]any) error {
	for name := range outputs {
		if _, exists := s.outputs[name]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateOutput, name)
		}
		if serialize.LogicalID(name) != name {
			return fmt.Errorf("output %q: %w: must be alphanumeric", name, ErrInvalidID)
		}
	}

	for name, value := range outputs {
		if output, ok := value.(calcapi.Output); ok {
			s.outputs[name] = output
			continue
		}
		s.outputs[name] = calcapi.Output{Value: value}
	}
	return nil
}

func (s *Stack) applyDefaults(props FunctionProps) FunctionProps {
	if props.MemorySize == 0 {
		props.MemorySize = s.defaults.MemorySize
	}
	if props.Timeout == 0 {
		props.Timeout = s.defaults.Timeout
	}
	if props.Tracing == TracingDefault {
		props.Tracing = s.defaults.Tracing
	}
	return props
}

func (s *Stack) owns(fn *Function) bool {
	for _, f := range s.functions {
		if f == fn {
			return true
		}
	}
	return false
}

func (s *Stack) checkFree(logicalID string) error {
	if owner, exists := s.logicalIDs[logicalID]; exists {
		return fmt.Errorf("%w: logical ID %s already used by %s", ErrDuplicateID, logicalID, owner)
	}
	return nil
}

func (s *Stack) claim(logicalID, constructID string) {
	s.logicalIDs[logicalID] = constructID
}

// release drops everything claimed by a construct that failed to declare.
func (s *Stack) release(constructID string) {
	delete(s.constructs, constructID)
	for logical, owner := range s.logicalIDs {
		if owner == constructID {
			delete(s.logicalIDs, logical)
		}
	}
}

// Declared returns the synthesized resources with their dependencies.
func (s *Stack) Declared() (map[string]calcapi.DeclaredResource, error) {
	syn, err := s.synthesize()
	if err != nil {
		return nil, err
	}
	return syn.declared, nil
}

// Synth produces the CloudFormation template for the stack.
func (s *Stack) Synth() (*calcapi.Template, error) {
	syn, err := s.synthesize()
	if err != nil {
		return nil, err
	}

	builder := template.NewBuilder(syn.declared)
	builder.SetDescription(s.description)
	for name, value := range syn.values {
		builder.SetValue(name, value)
	}
	for name, deps := range syn.dependsOn {
		builder.SetDependsOn(name, deps...)
	}
	for name, param := range syn.parameters {
		builder.AddParameter(name, param)
	}
	for name, output := range s.outputs {
		builder.AddOutput(name, output)
	}

	tmpl, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("stack %s: %w", s.name, err)
	}
	return tmpl, nil
}

type synthesis struct {
	declared   map[string]calcapi.DeclaredResource
	values     map[string]calcapi.Resource
	dependsOn  map[string][]string
	parameters map[string]*intrinsics.Parameter
}

func (syn *synthesis) add(name, construct string, value calcapi.Resource, deps []string, usages ...calcapi.AttrRefUsage) {
	syn.declared[name] = calcapi.DeclaredResource{
		Name:          name,
		Type:          value.ResourceType(),
		Construct:     construct,
		Dependencies:  deps,
		AttrRefUsages: usages,
	}
	syn.values[name] = value
}

func (s *Stack) synthesize() (*synthesis, error) {
	syn := &synthesis{
		declared:   make(map[string]calcapi.DeclaredResource),
		values:     make(map[string]calcapi.Resource),
		dependsOn:  make(map[string][]string),
		parameters: make(map[string]*intrinsics.Parameter),
	}

	for _, fn := range s.functions {
		if err := s.synthFunction(syn, fn); err != nil {
			return nil, err
		}
	}
	for _, api := range s.apis {
		s.synthApi(syn, api)
	}
	return syn, nil
}

func (s *Stack) synthFunction(syn *synthesis, fn *Function) error {
	props := fn.props

	policies := []any{intrinsics.ManagedPolicyArn("service-role/AWSLambdaBasicExecutionRole")}
	if props.Tracing.Enabled() {
		policies = append(policies, intrinsics.ManagedPolicyArn("AWSXRayDaemonWriteAccess"))
	}
	syn.add(fn.roleLogicalID(), fn.id, iam.Role{
		AssumeRolePolicyDocument: intrinsics.NewPolicyDocument(
			intrinsics.AssumeRoleStatement(intrinsics.ServicePrincipal{"lambda.amazonaws.com"}),
		),
		ManagedPolicyArns: policies,
	}, nil)

	value := lambda.Function{
		PackageType: props.Runtime.PackageType(),
		Role:        calcapi.AttrRef{Resource: fn.roleLogicalID(), Attribute: "Arn"},
	}
	if props.Description != "" {
		value.Description = props.Description
	}
	if props.MemorySize != 0 {
		value.MemorySize = props.MemorySize
	}
	if props.Timeout != 0 {
		value.Timeout = int(props.Timeout.Seconds())
	}
	if !props.Runtime.IsContainer() {
		value.Runtime = string(props.Runtime)
		value.Handler = props.Handler
	}
	if props.Tracing.Enabled() {
		value.TracingConfig = &lambda.Function_TracingConfig{Mode: string(props.Tracing)}
	}
	if props.Architecture != "" {
		value.Architectures = []any{props.Architecture}
	}
	if len(props.Environment) > 0 {
		vars := make(map[string]any, len(props.Environment))
		for k, v := range props.Environment {
			vars[k] = v
		}
		value.Environment = &lambda.Function_Environment{Variables: vars}
	}

	code, params, err := s.synthCode(syn, fn)
	if err != nil {
		return err
	}
	value.Code = code

	if props.Code.IsImage() {
		command := props.Code.Command
		if len(command) == 0 && props.Handler != "" {
			command = []string{props.Handler}
		}
		if len(command) > 0 {
			cmd := make([]any, len(command))
			for i, c := range command {
				cmd[i] = c
			}
			value.ImageConfig = &lambda.Function_ImageConfig{Command: cmd}
		}
	}

	// Parameters are listed as dependencies so graphs can show them; the
	// builder ignores dependencies that are not resources.
	deps := append([]string{fn.roleLogicalID()}, params...)
	syn.add(fn.logicalID, fn.id, value, deps, calcapi.AttrRefUsage{
		ResourceName: fn.roleLogicalID(),
		Attribute:    "Arn",
		FieldPath:    "Role",
	})
	return nil
}

func (s *Stack) synthCode(syn *synthesis, fn *Function) (*lambda.Function_Code, []string, error) {
	code := fn.props.Code

	switch code.Kind {
	case CodeAsset:
		bucket, ok := syn.parameters[ArtifactBucketParameter]
		if !ok {
			var def any
			if s.artifactBucket != "" {
				def = s.artifactBucket
			}
			bucket = intrinsics.NewParameter(ArtifactBucketParameter, "S3 bucket holding function artifacts", def)
			syn.parameters[ArtifactBucketParameter] = bucket
		}
		key := code.assetKey()
		if s.stage != "" {
			key = s.stage + "/" + key
		}
		keyParam := intrinsics.NewParameter(fn.logicalID+"CodeKey", "S3 key of the "+fn.id+" artifact built from "+code.Path, key)
		syn.parameters[keyParam.Name()] = keyParam
		return &lambda.Function_Code{S3Bucket: bucket, S3Key: keyParam}, []string{bucket.Name(), keyParam.Name()}, nil

	case CodeBucket:
		return &lambda.Function_Code{S3Bucket: code.Bucket, S3Key: code.Key}, nil, nil

	case CodeImage:
		return &lambda.Function_Code{ImageUri: code.ImageURI}, nil, nil

	case CodeImageAsset:
		uri := intrinsics.NewParameter(fn.logicalID+"ImageUri", "Image URI of the "+fn.id+" image built from "+code.Path, nil)
		syn.parameters[uri.Name()] = uri
		return &lambda.Function_Code{ImageUri: uri}, []string{uri.Name()}, nil

	default:
		return nil, nil, fmt.Errorf("function %s: %w", fn.id, ErrInvalidCode)
	}
}

func (s *Stack) synthApi(syn *synthesis, api *Api) {
	value := apigatewayv2.Api{
		Name:         intrinsics.Join{Delimiter: "-", Values: []any{intrinsics.AWS_STACK_NAME, api.logicalID}},
		ProtocolType: apigatewayv2.ProtocolHTTP,
	}
	if api.props.Description != "" {
		value.Description = api.props.Description
	}
	if len(api.props.CorsOrigins) > 0 {
		origins := make([]any, len(api.props.CorsOrigins))
		for i, o := range api.props.CorsOrigins {
			origins[i] = o
		}
		value.CorsConfiguration = &apigatewayv2.Cors{
			AllowOrigins: origins,
			AllowMethods: []any{"*"},
			AllowHeaders: []any{"*"},
		}
	}
	syn.add(api.logicalID, api.id, value, nil)

	syn.add(api.stageLogicalID(), api.id, apigatewayv2.Stage{
		ApiId:      api.Ref(),
		StageName:  apigatewayv2.DefaultStageName,
		AutoDeploy: true,
	}, []string{api.logicalID})

	for _, route := range api.Routes() {
		fn := route.Function
		integrationID := api.integrationLogicalID(route.Key)

		syn.add(integrationID, api.id, apigatewayv2.Integration{
			ApiId:                api.Ref(),
			IntegrationType:      apigatewayv2.IntegrationTypeAWSProxy,
			IntegrationUri:       fn.Arn(),
			PayloadFormatVersion: apigatewayv2.PayloadFormat20,
		}, []string{api.logicalID, fn.logicalID}, calcapi.AttrRefUsage{
			ResourceName: fn.logicalID,
			Attribute:    "Arn",
			FieldPath:    "IntegrationUri",
		})

		syn.add(api.routeLogicalID(route.Key), api.id, apigatewayv2.Route{
			ApiId:             api.Ref(),
			RouteKey:          route.Key.String(),
			Target:            intrinsics.Join{Delimiter: "", Values: []any{"integrations/", calcapi.Ref(integrationID)}},
			AuthorizationType: apigatewayv2.AuthorizationNone,
		}, []string{api.logicalID, integrationID})

		syn.add(api.permissionLogicalID(route.Key), api.id, lambda.Permission{
			Action:       "lambda:InvokeFunction",
			FunctionName: fn.Arn(),
			Principal:    "apigateway.amazonaws.com",
			SourceArn:    executeAPIArn(api, route.Key),
		}, []string{api.logicalID, fn.logicalID}, calcapi.AttrRefUsage{
			ResourceName: fn.logicalID,
			Attribute:    "Arn",
			FieldPath:    "FunctionName",
		})
	}
}

// executeAPIArn is the execute-api ARN of a route on any stage.
func executeAPIArn(api *Api, key RouteKey) intrinsics.Join {
	return intrinsics.Join{Delimiter: "", Values: []any{
		"arn:", intrinsics.AWS_PARTITION,
		":execute-api:", intrinsics.AWS_REGION,
		":", intrinsics.AWS_ACCOUNT_ID,
		":", api.Ref(),
		"/*/" + sourceArnPath(key),
	}}
}

// sourceArnPath is the method/path suffix of an execute-api ARN. Path
// parameters and ANY become wildcards.
func sourceArnPath(key RouteKey) string {
	if key.IsDefault() {
		return DefaultRouteKey
	}

	method := key.Method
	if method == "ANY" {
		method = "*"
	}

	segments := strings.Split(key.Path, "/")
	for i, seg := range segments {
		if strings.HasPrefix(seg, "{") {
			segments[i] = "*"
		}
	}
	return method + strings.Join(segments, "/")
}

// Resources returns the logical IDs claimed by the stack, sorted.
func (s *Stack) Resources() []string {
	names := make([]string, 0, len(s.logicalIDs))
	for name := range s.logicalIDs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
