package stack

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	Register("registry-test", func(s *Stack) error {
		_, err := s.Function("calculate", calculateProps())
		return err
	})
	Register("registry-test-failing", func(s *Stack) error {
		return errors.New("boom")
	})

	assert.Contains(t, Names(), "registry-test")
	assert.Panics(t, func() {
		Register("registry-test", func(*Stack) error { return nil })
	})

	s, err := Build("registry-test", WithStage("dev"))
	require.NoError(t, err)
	assert.Equal(t, "registry-test", s.Name())
	assert.Len(t, s.Functions(), 1)

	_, err = Build("registry-test-failing")
	assert.EqualError(t, err, "stack registry-test-failing: boom")

	_, err = Lookup("missing")
	assert.ErrorIs(t, err, ErrUnknownStack)
}
