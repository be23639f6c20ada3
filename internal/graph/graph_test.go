package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	calcapi "github.com/lex00/calc-api-go"
)

func calculateResources() map[string]calcapi.DeclaredResource {
	return map[string]calcapi.DeclaredResource{
		"CalculateServiceRole": {
			Name: "CalculateServiceRole",
			Type: "AWS::IAM::Role",
		},
		"Calculate": {
			Name:         "Calculate",
			Type:         "AWS::Lambda::Function",
			Dependencies: []string{"CalculateServiceRole", "ArtifactBucket"},
			AttrRefUsages: []calcapi.AttrRefUsage{
				{ResourceName: "CalculateServiceRole", Attribute: "Arn", FieldPath: "Role"},
			},
		},
		"Api": {
			Name: "Api",
			Type: "AWS::ApiGatewayV2::Api",
		},
		"ApiRouteGetCalculate": {
			Name:         "ApiRouteGetCalculate",
			Type:         "AWS::ApiGatewayV2::Route",
			Dependencies: []string{"Api"},
		},
	}
}

func TestGenerator_Generate_DOT(t *testing.T) {
	gen := &Generator{}
	output, err := gen.GenerateString(calculateResources(), nil)
	require.NoError(t, err)

	assert.Contains(t, output, "digraph")
	assert.Contains(t, output, "Calculate")
	assert.Contains(t, output, "[AWS::Lambda::Function]")
	assert.Contains(t, output, "blue", "GetAtt edges are blue")
	assert.NotContains(t, output, "ArtifactBucket", "parameters excluded by default")
}

func TestGenerator_Generate_Parameters(t *testing.T) {
	gen := &Generator{IncludeParameters: true}
	output, err := gen.GenerateString(calculateResources(), map[string]calcapi.Parameter{
		"ArtifactBucket": {Type: "String"},
	})
	require.NoError(t, err)

	assert.Contains(t, output, "ArtifactBucket")
	assert.Contains(t, output, "dashed")
}

func TestGenerator_Generate_Mermaid(t *testing.T) {
	gen := &Generator{Format: FormatMermaid}
	var sb strings.Builder
	require.NoError(t, gen.Generate(calculateResources(), nil, &sb))

	output := sb.String()
	assert.True(t, strings.Contains(output, "flowchart") || strings.Contains(output, "graph"), output)
	assert.NotContains(t, output, "digraph")
}

func TestGenerator_Generate_Clustered(t *testing.T) {
	gen := &Generator{ClusterByType: true}
	output, err := gen.GenerateString(calculateResources(), nil)
	require.NoError(t, err)

	assert.Contains(t, output, "subgraph cluster_")
	assert.Contains(t, output, `label="ApiGatewayV2"`)
	assert.NotContains(t, output, `label="Lambda"`, "single-resource services are not clustered")

	// Every node appears once, with its typed label, and edges reach it.
	assert.Equal(t, 1, strings.Count(output, `label="Api\n[AWS::ApiGatewayV2::Api]"`))
	assert.NotContains(t, output, `label="Api",`)
	assert.NotContains(t, output, `label="Api"]`)
	assert.NotContains(t, output, `label="ApiRouteGetCalculate",`)
	assert.Equal(t, 2, strings.Count(output, "->"))
}

func TestGenerator_Generate_LabelLineBreak(t *testing.T) {
	output, err := (&Generator{}).GenerateString(calculateResources(), nil)
	require.NoError(t, err)

	assert.Contains(t, output, `Calculate\n[AWS::Lambda::Function]`)
	assert.NotContains(t, output, `\\n`)

	output, err = (&Generator{Format: FormatMermaid}).GenerateString(calculateResources(), nil)
	require.NoError(t, err)
	assert.Contains(t, output, "Calculate [AWS::Lambda::Function]")
}

func TestService(t *testing.T) {
	assert.Equal(t, "Lambda", Service("AWS::Lambda::Function"))
	assert.Equal(t, "ApiGatewayV2", Service("AWS::ApiGatewayV2::Stage"))
	assert.Equal(t, "Other", Service("Custom"))
}
