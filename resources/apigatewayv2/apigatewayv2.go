// Package apigatewayv2 contains the AWS::ApiGatewayV2 resource types for HTTP APIs.
package apigatewayv2

// Api is an AWS::ApiGatewayV2::Api.
type Api struct {
	Name              any   `json:"Name,omitempty"`
	Description       any   `json:"Description,omitempty"`
	ProtocolType      any   `json:"ProtocolType,omitempty"`
	CorsConfiguration *Cors `json:"CorsConfiguration,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (Api) ResourceType() string {
	return "AWS::ApiGatewayV2::Api"
}

// Cors is the CORS configuration of an HTTP API.
type Cors struct {
	AllowOrigins []any `json:"AllowOrigins,omitempty"`
	AllowMethods []any `json:"AllowMethods,omitempty"`
	AllowHeaders []any `json:"AllowHeaders,omitempty"`
}

// Integration is an AWS::ApiGatewayV2::Integration.
type Integration struct {
	ApiId                any `json:"ApiId,omitempty"`
	IntegrationType      any `json:"IntegrationType,omitempty"`
	IntegrationUri       any `json:"IntegrationUri,omitempty"`
	PayloadFormatVersion any `json:"PayloadFormatVersion,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (Integration) ResourceType() string {
	return "AWS::ApiGatewayV2::Integration"
}

// Route is an AWS::ApiGatewayV2::Route.
type Route struct {
	ApiId             any `json:"ApiId,omitempty"`
	RouteKey          any `json:"RouteKey,omitempty"`
	Target            any `json:"Target,omitempty"`
	AuthorizationType any `json:"AuthorizationType,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (Route) ResourceType() string {
	return "AWS::ApiGatewayV2::Route"
}

// Stage is an AWS::ApiGatewayV2::Stage.
type Stage struct {
	ApiId      any  `json:"ApiId,omitempty"`
	StageName  any  `json:"StageName,omitempty"`
	AutoDeploy bool `json:"AutoDeploy,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (Stage) ResourceType() string {
	return "AWS::ApiGatewayV2::Stage"
}

const (
	ProtocolHTTP            = "HTTP"
	IntegrationTypeAWSProxy = "AWS_PROXY"
	PayloadFormat20         = "2.0"
	AuthorizationNone       = "NONE"
	DefaultStageName        = "$default"
)
