package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRouteKey(t *testing.T) {
	tests := []struct {
		in       string
		expected RouteKey
	}{
		{"GET /calculate", RouteKey{Method: "GET", Path: "/calculate"}},
		{"get /calculate", RouteKey{Method: "GET", Path: "/calculate"}},
		{"  POST   /calculate/dart  ", RouteKey{Method: "POST", Path: "/calculate/dart"}},
		{"ANY /", RouteKey{Method: "ANY", Path: "/"}},
		{"GET /items/{id}", RouteKey{Method: "GET", Path: "/items/{id}"}},
		{"ANY /proxy/{path+}", RouteKey{Method: "ANY", Path: "/proxy/{path+}"}},
		{"$default", RouteKey{Path: DefaultRouteKey}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			key, err := ParseRouteKey(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, key)
		})
	}
}

func TestParseRouteKey_Invalid(t *testing.T) {
	for _, in := range []string{
		"",
		"GET",
		"/calculate",
		"FETCH /calculate",
		"GET calculate",
		"GET /calculate extra",
		"GET /calculate//x",
		"GET /items/{}",
		"GET /items/{id",
		"GET /items/{path+}/more",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseRouteKey(in)
			assert.ErrorIs(t, err, ErrInvalidRouteKey)
		})
	}
}

func TestRouteKey_String(t *testing.T) {
	key, err := ParseRouteKey("get /calculate")
	require.NoError(t, err)
	assert.Equal(t, "GET /calculate", key.String())
	assert.False(t, key.IsDefault())

	def, err := ParseRouteKey("$default")
	require.NoError(t, err)
	assert.Equal(t, "$default", def.String())
	assert.True(t, def.IsDefault())
}

func TestSourceArnPath(t *testing.T) {
	tests := []struct {
		key      string
		expected string
	}{
		{"GET /calculate", "GET/calculate"},
		{"ANY /calculate", "*/calculate"},
		{"GET /items/{id}", "GET/items/*"},
		{"$default", "$default"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			key, err := ParseRouteKey(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, sourceArnPath(key))
		})
	}
}
