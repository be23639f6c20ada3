package validation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	existing map[string]bool
	err      error
}

func (f fakeStore) Exists(ctx context.Context, location string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.existing[location], nil
}

func TestCheckArtifacts(t *testing.T) {
	store := fakeStore{existing: map[string]bool{"dist/lambda.zip": true}}

	missing, err := CheckArtifacts(context.Background(), store, []string{
		"dist/lambda.zip",
		"s3://artifacts/missing.zip",
		"s3://artifacts/missing.zip",
		"",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"s3://artifacts/missing.zip"}, missing)
}

func TestCheckArtifacts_StoreError(t *testing.T) {
	_, err := CheckArtifacts(context.Background(), fakeStore{err: errors.New("throttled")}, []string{"dist/lambda.zip"})
	assert.ErrorContains(t, err, "throttled")
}
