package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cfntypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/smithy-go"
	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	calcapi "github.com/lex00/calc-api-go"
	"github.com/lex00/calc-api-go/internal/artifact"
	"github.com/lex00/calc-api-go/internal/config"
	"github.com/lex00/calc-api-go/internal/logging"
	"github.com/lex00/calc-api-go/internal/outputs"
	"github.com/lex00/calc-api-go/internal/stack"
)

// run executes the root command against an empty config directory.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runIn(t, t.TempDir(), args...)
}

func runIn(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--config-dir", dir))
	err := cmd.Execute()
	return out.String(), err
}

func TestBuild_JSON(t *testing.T) {
	out, err := run(t, "build")
	require.NoError(t, err)

	var tmpl calcapi.Template
	require.NoError(t, json.Unmarshal([]byte(out), &tmpl))
	assert.Equal(t, "2010-09-09", tmpl.AWSTemplateFormatVersion)
	assert.Contains(t, tmpl.Outputs, "ApiEndpoint")
	assert.Equal(t, "AWS::Lambda::Function", tmpl.Resources["Calculate"].Type)
	assert.Contains(t, tmpl.Parameters, "ArtifactBucket")
	assert.Nil(t, tmpl.Parameters["ArtifactBucket"].Default)
	assert.Equal(t, "local/lambda.zip", tmpl.Parameters["CalculateCodeKey"].Default)
}

func TestBuild_YAMLToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.yaml")
	_, err := run(t, "build", "api-variants", "-f", "yaml", "-o", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "AWSTemplateFormatVersion")
	assert.Contains(t, string(data), "ApiEndpoint")
}

func TestBuild_UnknownStack(t *testing.T) {
	_, err := run(t, "build", "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, stack.ErrUnknownStack)
}

func TestBuild_StageFromConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.BaseConfigFile), []byte(`stage = "prod"`+"\n"), 0o644))

	out, err := runIn(t, dir, "build")
	require.NoError(t, err)
	assert.Contains(t, out, "calculate API (prod)")

	out, err = runIn(t, dir, "build", "--stage", "qa")
	require.NoError(t, err)
	assert.Contains(t, out, "calculate API (qa)")
}

func TestList_Text(t *testing.T) {
	out, err := run(t, "list", "api-variants")
	require.NoError(t, err)

	assert.Contains(t, out, "Routes (3):")
	assert.Contains(t, out, "GET /calculate")
	assert.Contains(t, out, "GET /calculate/container")
	assert.Contains(t, out, "GET /calculate/dart")
	assert.Contains(t, out, "Calculate: AWS::Lambda::Function")
}

func TestList_JSON(t *testing.T) {
	out, err := run(t, "list", "-f", "json")
	require.NoError(t, err)

	var result calcapi.ListResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Routes, 1)
	assert.Equal(t, "GET /calculate", result.Routes[0].RouteKey)
	assert.Equal(t, "calculate", result.Routes[0].Function)
	assert.Equal(t, "Active", result.Routes[0].Tracing)
}

func TestList_Stacks(t *testing.T) {
	out, err := run(t, "list", "--stacks")
	require.NoError(t, err)
	assert.Equal(t, "api\napi-variants\n", out)
}

func TestValidate_Structural(t *testing.T) {
	out, err := run(t, "validate", "--lint=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Validation passed: api")
}

func TestValidate_MissingArtifacts(t *testing.T) {
	out, err := run(t, "validate", "--lint=false", "--check-artifacts", "-f", "json")
	require.ErrorIs(t, err, errValidationFailed)

	var result calcapi.ValidateResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.False(t, result.Success)
	assert.Contains(t, result.Errors, "artifact not found: packages/functions/dist/lambda.zip")
}

func TestValidate_ArtifactsPresent(t *testing.T) {
	dir := t.TempDir()
	zip := filepath.Join(dir, "packages", "functions", "dist", "lambda.zip")
	require.NoError(t, os.MkdirAll(filepath.Dir(zip), 0o755))
	require.NoError(t, os.WriteFile(zip, []byte("zip"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.BaseConfigFile),
		[]byte("[artifacts]\nroot = \""+filepath.ToSlash(dir)+"\"\n"), 0o644))

	out, err := runIn(t, dir, "validate", "--lint=false", "--check-artifacts")
	require.NoError(t, err)
	assert.Contains(t, out, "Validation passed")
}

func TestDiff_Stacks(t *testing.T) {
	out, err := run(t, "diff", "api", "api-variants")
	require.NoError(t, err)

	assert.Contains(t, out, "+ ")
	assert.NotContains(t, out, "\n- ")
	assert.NotContains(t, out, "\n~ ")
	assert.Contains(t, out, "0 removed, 0 modified")
}

func TestDiff_Identical(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.json")
	_, err := run(t, "build", "-o", path)
	require.NoError(t, err)

	out, err := run(t, "diff", path, "api")
	require.NoError(t, err)
	assert.Equal(t, "No differences.\n", out)
}

func TestDiff_JSON(t *testing.T) {
	out, err := run(t, "diff", "api-variants", "api", "-f", "json", "--resources-only")
	require.NoError(t, err)

	var result calcapi.DiffResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Zero(t, result.Summary.Added)
	assert.Positive(t, result.Summary.Removed)
}

func TestGraph(t *testing.T) {
	out, err := run(t, "graph", "-p")
	require.NoError(t, err)
	assert.Contains(t, out, "digraph")
	assert.Contains(t, out, "Calculate")
	assert.Contains(t, out, "ArtifactBucket")

	_, err = run(t, "graph", "-f", "png")
	assert.Error(t, err)
}

func TestWatchCmd_Flags(t *testing.T) {
	cmd := newWatchCmd(&app{})

	assert.Equal(t, "watch [stack]", cmd.Use)
	flag := cmd.Flags().Lookup("debounce")
	require.NotNil(t, flag)
	assert.Equal(t, "500ms", flag.DefValue)
	assert.NotNil(t, cmd.Flags().Lookup("output"))
}

func TestWatchDirs(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "dist"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "image"), 0o755))

	s := stack.New("watch")
	_, err := s.Function("zip", stack.FunctionProps{
		Runtime: stack.RuntimeProvidedAL2,
		Handler: "calculate",
		Code:    stack.FromAsset("dist/lambda.zip"),
	})
	require.NoError(t, err)
	_, err = s.Function("image", stack.FunctionProps{
		Runtime: stack.RuntimeContainer,
		Handler: "calculate",
		Code:    stack.FromImageAsset("image"),
	})
	require.NoError(t, err)
	_, err = s.Function("missing", stack.FunctionProps{
		Runtime: stack.RuntimeProvidedAL2,
		Handler: "calculate",
		Code:    stack.FromAsset("nowhere/lambda.zip"),
	})
	require.NoError(t, err)

	dirs := watchDirs(root, artifact.NewLocalStore(root), s)
	assert.ElementsMatch(t, []string{root, filepath.Join(root, "dist"), filepath.Join(root, "image")}, dirs)
}

func TestRelevant(t *testing.T) {
	out, err := filepath.Abs("template.json")
	require.NoError(t, err)

	assert.True(t, relevant(fsnotify.Event{Name: "/cfg/calc-api.toml", Op: fsnotify.Write}, ""))
	assert.False(t, relevant(fsnotify.Event{Name: "/cfg/calc-api.toml", Op: fsnotify.Chmod}, ""))
	assert.False(t, relevant(fsnotify.Event{Name: "/cfg/.calc-api.toml.swp", Op: fsnotify.Write}, ""))
	assert.False(t, relevant(fsnotify.Event{Name: out, Op: fsnotify.Write}, "template.json"))
}

func TestRebuild_WritesOutput(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)
	a := &app{configDir: dir, cfg: cfg, log: logging.Nop()}

	var out bytes.Buffer
	cmd := newWatchCmd(a)
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())

	path := filepath.Join(dir, "template.json")
	rebuild(cmd, a, "api", watchOptions{debounce: time.Millisecond, outputFormat: "json", outputFile: path})

	assert.Contains(t, out.String(), "wrote "+path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ApiEndpoint")

	out.Reset()
	rebuild(cmd, a, "api", watchOptions{})
	assert.True(t, strings.HasPrefix(out.String(), "Build successful: api"))
}

type fakeDescribeStacks struct {
	output *cloudformation.DescribeStacksOutput
	err    error
	name   string
}

func (f *fakeDescribeStacks) DescribeStacks(_ context.Context, params *cloudformation.DescribeStacksInput, _ ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error) {
	f.name = aws.ToString(params.StackName)
	return f.output, f.err
}

func TestRunOutputs(t *testing.T) {
	client := &fakeDescribeStacks{output: &cloudformation.DescribeStacksOutput{
		Stacks: []cfntypes.Stack{{
			Outputs: []cfntypes.Output{
				{OutputKey: aws.String("ApiEndpoint"), OutputValue: aws.String("https://abc.execute-api.us-east-1.amazonaws.com")},
			},
		}},
	}}
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	a := &app{cfg: cfg, log: logging.Nop()}

	var out bytes.Buffer
	cmd := newOutputsCmd(a)
	cmd.SetOut(&out)

	err = runOutputs(context.Background(), cmd, a, &outputs.Fetcher{Client: client}, "calc-prod-api", "text")
	require.NoError(t, err)
	assert.Equal(t, "calc-prod-api", client.name)
	assert.Equal(t, "ApiEndpoint = https://abc.execute-api.us-east-1.amazonaws.com\n", out.String())

	client.err = &smithy.GenericAPIError{Code: "ValidationError", Message: "Stack with id calc-prod-api does not exist"}
	err = runOutputs(context.Background(), cmd, a, &outputs.Fetcher{Client: client}, "calc-prod-api", "json")
	assert.ErrorIs(t, err, outputs.ErrStackNotFound)
}

func TestBuild_Result(t *testing.T) {
	out, err := run(t, "build", "--result")
	require.NoError(t, err)

	var result calcapi.BuildResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Success)
	assert.Equal(t, "api", result.Stack)
	assert.Contains(t, result.Resources, "ApiRouteGetCalculate")
	assert.Contains(t, result.Template.Outputs, "ApiEndpoint")

	out, err = run(t, "build", "missing", "--result")
	require.Error(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Errors)
}

func TestStageFlag_Validated(t *testing.T) {
	_, err := run(t, "build", "--stage", "a b/c")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid stage")
}

func TestUpdateWatches(t *testing.T) {
	watcher, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer watcher.Close()

	a := &app{log: logging.Nop()}
	first, second := t.TempDir(), t.TempDir()

	updateWatches(watcher, []string{first}, a)
	assert.ElementsMatch(t, []string{first}, watcher.WatchList())

	// A reload that moves the artifacts swaps the watched directory.
	updateWatches(watcher, []string{second}, a)
	assert.ElementsMatch(t, []string{second}, watcher.WatchList())

	updateWatches(watcher, []string{first, second, filepath.Join(first, "missing")}, a)
	assert.ElementsMatch(t, []string{first, second}, watcher.WatchList())
}
