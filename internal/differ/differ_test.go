package differ

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	calcapi "github.com/lex00/calc-api-go"
)

func calculateTemplate(runtime string) *calcapi.Template {
	return &calcapi.Template{
		AWSTemplateFormatVersion: "2010-09-09",
		Parameters: map[string]calcapi.Parameter{
			"ArtifactBucket": {Type: "String"},
		},
		Resources: map[string]calcapi.ResourceDef{
			"Calculate": {Type: "AWS::Lambda::Function", Properties: map[string]any{
				"Runtime":       runtime,
				"Handler":       "calculate",
				"TracingConfig": map[string]any{"Mode": "Active"},
				"Role":          map[string]any{"Fn::GetAtt": []any{"CalculateServiceRole", "Arn"}},
			}},
			"CalculateServiceRole": {Type: "AWS::IAM::Role"},
		},
		Outputs: map[string]calcapi.Output{
			"ApiEndpoint": {Value: map[string]any{"Fn::Sub": "https://${Api}.execute-api.${AWS::Region}.${AWS::URLSuffix}"}},
		},
	}
}

func TestCompare(t *testing.T) {
	t1 := calculateTemplate("provided.al2")
	t2 := calculateTemplate("provided.al2023")
	delete(t2.Resources, "CalculateServiceRole")
	t2.Resources["ApiRouteGetCalculate"] = calcapi.ResourceDef{Type: "AWS::ApiGatewayV2::Route"}

	result, err := Compare(t1, t2, Options{})
	require.NoError(t, err)

	require.Len(t, result.Diff.Added, 1)
	assert.Equal(t, "ApiRouteGetCalculate", result.Diff.Added[0].Resource)

	require.Len(t, result.Diff.Removed, 1)
	assert.Equal(t, "CalculateServiceRole", result.Diff.Removed[0].Resource)

	require.Len(t, result.Diff.Modified, 1)
	assert.Equal(t, "Calculate", result.Diff.Modified[0].Resource)
	assert.Equal(t, []string{"Runtime modified"}, result.Diff.Modified[0].Changes)

	assert.Equal(t, calcapi.DiffSummary{Added: 1, Removed: 1, Modified: 1, Total: 3}, result.Summary)
}

func TestCompare_Identical(t *testing.T) {
	result, err := Compare(calculateTemplate("provided.al2"), calculateTemplate("provided.al2"), Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Summary.Total)
}

func TestCompare_NestedPaths(t *testing.T) {
	t1 := calculateTemplate("provided.al2")
	t2 := calculateTemplate("provided.al2")
	t2.Resources["Calculate"].Properties["TracingConfig"] = map[string]any{"Mode": "PassThrough"}
	t2.Resources["Calculate"].Properties["Role"] = map[string]any{"Fn::GetAtt": []any{"OtherRole", "Arn"}}

	result, err := Compare(t1, t2, Options{})
	require.NoError(t, err)
	require.Len(t, result.Diff.Modified, 1)
	assert.Equal(t, []string{"Role modified", "TracingConfig.Mode modified"}, result.Diff.Modified[0].Changes)
}

func TestCompare_OutputsAndParameters(t *testing.T) {
	t1 := calculateTemplate("provided.al2")
	t2 := calculateTemplate("provided.al2")
	t2.Outputs["ApiEndpoint"] = calcapi.Output{Value: "https://example.com"}
	t2.Parameters["CalculateCodeKey"] = calcapi.Parameter{Type: "String", Default: "lambda.zip"}

	result, err := Compare(t1, t2, Options{})
	require.NoError(t, err)

	require.Len(t, result.Diff.Added, 1)
	assert.Equal(t, calcapi.DiffEntry{Resource: "CalculateCodeKey", Type: TypeParameter}, result.Diff.Added[0])
	require.Len(t, result.Diff.Modified, 1)
	assert.Equal(t, TypeOutput, result.Diff.Modified[0].Type)
	assert.Equal(t, []string{"Value modified"}, result.Diff.Modified[0].Changes)

	result, err = Compare(t1, t2, Options{ResourcesOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Summary.Total)
}

func TestCompare_IgnoreOrder(t *testing.T) {
	t1 := calculateTemplate("provided.al2")
	t2 := calculateTemplate("provided.al2")
	t1.Resources["CalculateServiceRole"] = calcapi.ResourceDef{Type: "AWS::IAM::Role", Properties: map[string]any{
		"ManagedPolicyArns": []any{"a", "b"},
	}}
	t2.Resources["CalculateServiceRole"] = calcapi.ResourceDef{Type: "AWS::IAM::Role", Properties: map[string]any{
		"ManagedPolicyArns": []any{"b", "a"},
	}}

	result, err := Compare(t1, t2, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Summary.Modified)

	result, err = Compare(t1, t2, Options{IgnoreOrder: true})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Summary.Total)
}

func TestCompareFiles_JSONAndYAML(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "template.json")
	yamlPath := filepath.Join(dir, "template.yaml")

	require.NoError(t, os.WriteFile(jsonPath, []byte(`{
		"AWSTemplateFormatVersion": "2010-09-09",
		"Resources": {
			"Calculate": {"Type": "AWS::Lambda::Function", "Properties": {"MemorySize": 128, "Runtime": "provided.al2"}}
		}
	}`), 0o644))
	require.NoError(t, os.WriteFile(yamlPath, []byte(`AWSTemplateFormatVersion: "2010-09-09"
Resources:
  Calculate:
    Type: AWS::Lambda::Function
    Properties:
      MemorySize: 128
      Runtime: provided.al2
`), 0o644))

	result, err := CompareFiles(jsonPath, yamlPath, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Summary.Total)

	_, err = CompareFiles(filepath.Join(dir, "missing.json"), yamlPath, Options{})
	assert.Error(t, err)
}

func TestLoadTemplate_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("Resources: [unterminated"), 0o644))

	_, err := LoadTemplate(path)
	assert.Error(t, err)
}
