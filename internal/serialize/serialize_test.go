package serialize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	calcapi "github.com/lex00/calc-api-go"
	"github.com/lex00/calc-api-go/resources/lambda"
)

type testFunction struct {
	Handler     string            `json:"Handler,omitempty"`
	MemorySize  int               `json:"MemorySize,omitempty"`
	Layers      []string          `json:"Layers,omitempty"`
	Tracing     *testTracing      `json:"TracingConfig,omitempty"`
	Environment map[string]string `json:"Environment,omitempty"`
	Role        any               `json:"Role,omitempty"`
	Ignored     string            `json:"-"`
	Untagged    bool
	hidden      string
}

type testTracing struct {
	Mode string `json:"Mode"`
}

func TestProperties_SimpleStruct(t *testing.T) {
	props, err := Properties(testFunction{Handler: "calculate", hidden: "x", Ignored: "y"})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"Handler": "calculate"}, props)
}

func TestProperties_NestedAndCollections(t *testing.T) {
	props, err := Properties(&testFunction{
		Handler:     "calculate",
		MemorySize:  256,
		Layers:      []string{"a", "b"},
		Tracing:     &testTracing{Mode: "Active"},
		Environment: map[string]string{"STAGE": "dev"},
		Untagged:    true,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(256), props["MemorySize"])
	assert.Equal(t, []any{"a", "b"}, props["Layers"])
	assert.Equal(t, map[string]any{"Mode": "Active"}, props["TracingConfig"])
	assert.Equal(t, map[string]any{"STAGE": "dev"}, props["Environment"])
	assert.Equal(t, true, props["Untagged"])
}

func TestProperties_Marshalers(t *testing.T) {
	props, err := Properties(testFunction{
		Role: calcapi.AttrRef{Resource: "CalculateServiceRole", Attribute: "Arn"},
	})
	require.NoError(t, err)

	role := props["Role"].(map[string]any)
	assert.Equal(t, []any{"CalculateServiceRole", "Arn"}, role["Fn::GetAtt"])

	props, err = Properties(testFunction{Role: calcapi.Ref("ExistingRole")})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"Ref": "ExistingRole"}, props["Role"])
}

func TestProperties_ResourceType(t *testing.T) {
	props, err := Properties(lambda.Function{
		Runtime: "provided.al2",
		Code:    &lambda.Function_Code{S3Bucket: calcapi.Ref("ArtifactBucket"), S3Key: "lambda.zip"},
	})
	require.NoError(t, err)

	assert.Equal(t, "provided.al2", props["Runtime"])
	code := props["Code"].(map[string]any)
	assert.Equal(t, map[string]any{"Ref": "ArtifactBucket"}, code["S3Bucket"])
	assert.NotContains(t, props, "TracingConfig")
}

func TestProperties_NotStruct(t *testing.T) {
	_, err := Properties("calculate")
	assert.Error(t, err)

	var nilFn *testFunction
	props, err := Properties(nilFn)
	require.NoError(t, err)
	assert.Nil(t, props)
}

func TestNormalize(t *testing.T) {
	out, err := Normalize(map[string]any{"MemorySize": 128, "Role": calcapi.Ref("R")})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"MemorySize": float64(128),
		"Role":       map[string]any{"Ref": "R"},
	}, out)
}

func TestLogicalID(t *testing.T) {
	tests := []struct {
		parts    []string
		expected string
	}{
		{[]string{"calculate"}, "Calculate"},
		{[]string{"api"}, "Api"},
		{[]string{"api", "route", "GET /calculate"}, "ApiRouteGetCalculate"},
		{[]string{"api", "GET /calculate/dart-container"}, "ApiGetCalculateDartContainer"},
		{[]string{"calculate", "ServiceRole"}, "CalculateServiceRole"},
		{[]string{"api", "$default"}, "ApiDefault"},
		{[]string{"fn_v2"}, "FnV2"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, LogicalID(tt.parts...))
		})
	}
}
