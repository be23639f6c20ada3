package outputs

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDescribeStacks struct {
	stacks map[string][]types.Output
	err    error
}

func (f *fakeDescribeStacks) DescribeStacks(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	name := aws.ToString(params.StackName)
	outputs, ok := f.stacks[name]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "ValidationError", Message: "Stack with id " + name + " does not exist"}
	}
	return &cloudformation.DescribeStacksOutput{
		Stacks: []types.Stack{{StackName: params.StackName, Outputs: outputs}},
	}, nil
}

func TestFetcher_Fetch(t *testing.T) {
	fetcher := &Fetcher{Client: &fakeDescribeStacks{stacks: map[string][]types.Output{
		"calc-dev-api": {
			{OutputKey: aws.String("ApiEndpoint"), OutputValue: aws.String("https://abc.execute-api.us-east-1.amazonaws.com")},
		},
	}}}

	outputs, err := fetcher.Fetch(context.Background(), "calc-dev-api")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"ApiEndpoint": "https://abc.execute-api.us-east-1.amazonaws.com"}, outputs)
}

func TestFetcher_NotFound(t *testing.T) {
	fetcher := &Fetcher{Client: &fakeDescribeStacks{}}

	_, err := fetcher.Fetch(context.Background(), "calc-dev-api")
	assert.ErrorIs(t, err, ErrStackNotFound)
}

func TestFetcher_Error(t *testing.T) {
	fetcher := &Fetcher{Client: &fakeDescribeStacks{err: errors.New("throttled")}}

	_, err := fetcher.Fetch(context.Background(), "calc-dev-api")
	assert.ErrorContains(t, err, "throttled")
	assert.NotErrorIs(t, err, ErrStackNotFound)
}

func TestFetcher_ValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		notFound bool
	}{
		{"missing stack", &smithy.GenericAPIError{Code: "ValidationError", Message: "Stack with id calc-dev-api does not exist"}, true},
		{"bad request", &smithy.GenericAPIError{Code: "ValidationError", Message: "1 validation error detected"}, false},
		{"other code", &smithy.GenericAPIError{Code: "AccessDenied", Message: "Stack does not exist or access denied"}, false},
		{"plain error", errors.New("Stack with id calc-dev-api does not exist"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &Fetcher{Client: &fakeDescribeStacks{err: tt.err}}
			_, err := fetcher.Fetch(context.Background(), "calc-dev-api")
			require.Error(t, err)
			assert.Equal(t, tt.notFound, errors.Is(err, ErrStackNotFound))
		})
	}
}

func TestStackName(t *testing.T) {
	assert.Equal(t, "calc-dev-api", StackName("calc", "dev", "api"))
	assert.Equal(t, "api", StackName("", "", "api"))
	assert.Equal(t, "dev-api-variants", StackName("", "dev", "api-variants"))
}
