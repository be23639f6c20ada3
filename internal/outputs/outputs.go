// Package outputs reads the outputs of a deployed stack, such as the
// ApiEndpoint URL, from CloudFormation.
package outputs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/smithy-go"
)

// ErrStackNotFound is returned when the stack has not been deployed.
var ErrStackNotFound = errors.New("stack not found")

// DescribeStacksAPI is the part of the CloudFormation client Fetcher needs.
type DescribeStacksAPI interface {
	DescribeStacks(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
}

// Fetcher reads stack outputs.
type Fetcher struct {
	Client DescribeStacksAPI
}

// NewFetcher creates a Fetcher from the default AWS credential chain.
func NewFetcher(ctx context.Context, region string) (*Fetcher, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &Fetcher{Client: cloudformation.NewFromConfig(cfg)}, nil
}

// Fetch returns the outputs of the named stack keyed by output name.
func (f *Fetcher) Fetch(ctx context.Context, stackName string) (map[string]string, error) {
	resp, err := f.Client.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(stackName),
	})
	if err != nil {
		if isStackMissing(err) {
			return nil, fmt.Errorf("%w: %s", ErrStackNotFound, stackName)
		}
		return nil, fmt.Errorf("describing stack %s: %w", stackName, err)
	}
	if len(resp.Stacks) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrStackNotFound, stackName)
	}

	outputs := make(map[string]string, len(resp.Stacks[0].Outputs))
	for _, output := range resp.Stacks[0].Outputs {
		outputs[aws.ToString(output.OutputKey)] = aws.ToString(output.OutputValue)
	}
	return outputs, nil
}

// isStackMissing reports the ValidationError CloudFormation returns for a
// stack that does not exist. The same code covers malformed requests, so the
// message is checked too.
func isStackMissing(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.ErrorCode() == "ValidationError" && strings.Contains(apiErr.ErrorMessage(), "does not exist")
}

// StackName is the deployed name of a stack: prefix, stage and name joined
// with dashes, skipping empty parts.
func StackName(prefix, stage, name string) string {
	var parts []string
	for _, part := range []string{prefix, stage, name} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, "-")
}
