package pipeline

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type trainArgs struct {
	Data    []float64
	MaxIter int     `default:"100"`
	Rate    float64 `forge:"learning_rate" default:"0.5"`
	skipped bool
}

func TestCallableSignature(t *testing.T) {
	t.Run("declared positional parameters", func(t *testing.T) {
		fn := reflect.ValueOf(func(a, b int) int { return a + b })
		sig, err := callableSignature(fn, []Param{NewParam("a"), NewParam("b")})
		require.NoError(t, err)
		assert.False(t, sig.wantsCtx)
		assert.False(t, sig.structArg)
		require.Len(t, sig.params, 2)
		assert.Equal(t, "a", sig.params[0].Name)
	})

	t.Run("leading context detected", func(t *testing.T) {
		fn := reflect.ValueOf(func(ctx context.Context, a int) int { return a })
		sig, err := callableSignature(fn, []Param{NewParam("a")})
		require.NoError(t, err)
		assert.True(t, sig.wantsCtx)
		require.Len(t, sig.params, 1)
	})

	t.Run("niladic", func(t *testing.T) {
		fn := reflect.ValueOf(func() {})
		sig, err := callableSignature(fn, nil)
		require.NoError(t, err)
		assert.Empty(t, sig.params)
	})

	t.Run("single struct argument", func(t *testing.T) {
		fn := reflect.ValueOf(func(a trainArgs) int { return a.MaxIter })
		sig, err := callableSignature(fn, nil)
		require.NoError(t, err)
		assert.True(t, sig.structArg)
		assert.False(t, sig.argIsPtr)
		require.Len(t, sig.params, 3)
		assert.Equal(t, "data", sig.params[0].Name)
		assert.Equal(t, "max_iter", sig.params[1].Name)
		assert.Equal(t, "learning_rate", sig.params[2].Name)
	})

	t.Run("pointer struct argument", func(t *testing.T) {
		fn := reflect.ValueOf(func(a *trainArgs) int { return a.MaxIter })
		sig, err := callableSignature(fn, nil)
		require.NoError(t, err)
		assert.True(t, sig.structArg)
		assert.True(t, sig.argIsPtr)
	})

	t.Run("multiple undeclared parameters fail", func(t *testing.T) {
		fn := reflect.ValueOf(func(a, b int) int { return a + b })
		_, err := callableSignature(fn, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnresolvedParameter)
	})

	t.Run("declared count mismatch fails", func(t *testing.T) {
		fn := reflect.ValueOf(func(a int) int { return a })
		_, err := callableSignature(fn, []Param{NewParam("a"), NewParam("b")})
		require.Error(t, err)
	})
}

func TestStructParams_Defaults(t *testing.T) {
	params, err := structParams(reflect.TypeOf(trainArgs{}))
	require.NoError(t, err)
	require.Len(t, params, 3, "unexported fields are skipped")

	assert.Equal(t, "data", params[0].Name)
	assert.False(t, params[0].HasDefault)

	assert.Equal(t, "max_iter", params[1].Name)
	require.True(t, params[1].HasDefault)
	assert.Equal(t, 100, params[1].Default, "defaults decode into the field type")

	assert.Equal(t, "learning_rate", params[2].Name)
	require.True(t, params[2].HasDefault)
	assert.Equal(t, 0.5, params[2].Default)
}

func TestStructParams_BadDefault(t *testing.T) {
	type bad struct {
		N int `default:"not a number"`
	}
	_, err := structParams(reflect.TypeOf(bad{}))
	require.Error(t, err)
}

func TestBinder_Precedence(t *testing.T) {
	host, err := ReflectHost(&hostTarget{MaxIter: 7, Rate: 0.25})
	require.NoError(t, err)
	registry := NewRegistry()
	registry.RegisterValue("max_iter", 99)
	registry.RegisterValue("threshold", 0.9)

	b := &binder{host: host, registry: registry}

	tests := []struct {
		name   string
		params []Param
		args   Args
		want   map[string]any
	}{
		{
			name:   "explicit argument wins over host and registry",
			params: []Param{NewParam("max_iter")},
			args:   Args{"max_iter": 3},
			want:   map[string]any{"max_iter": 3},
		},
		{
			name:   "host field wins over registry value",
			params: []Param{NewParam("max_iter")},
			want:   map[string]any{"max_iter": 7},
		},
		{
			name:   "registry value used when host has no field",
			params: []Param{NewParam("threshold")},
			want:   map[string]any{"threshold": 0.9},
		},
		{
			name:   "default used last",
			params: []Param{NewParamDefault("epochs", 10)},
			want:   map[string]any{"epochs": 10},
		},
		{
			name:   "host field wins over default",
			params: []Param{{Name: "learning_rate", Default: 1.0, HasDefault: true}},
			want:   map[string]any{"learning_rate": 0.25},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.build(tt.params, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBinder_Errors(t *testing.T) {
	b := &binder{}

	_, err := b.build([]Param{NewParam("missing")}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnresolvedParameter)

	_, err = b.build([]Param{NewParamDefault("a", 1)}, Args{"a": 2, "stray": 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedArgument)
}

func TestBinder_ResolveArgument(t *testing.T) {
	host, err := ReflectHost(&hostTarget{MaxIter: 7})
	require.NoError(t, err)
	b := &binder{
		host:    host,
		objects: map[string]any{"model": "the model"},
	}

	// A string naming an earlier stage's object yields the object.
	assert.Equal(t, "the model", b.resolveArgument("model"))
	// A string naming a host field yields the field value.
	assert.Equal(t, 7, b.resolveArgument("max_iter"))
	// Anything else stays literal.
	assert.Equal(t, "plain", b.resolveArgument("plain"))
	assert.Equal(t, 42, b.resolveArgument(42))
}

func TestBinder_BuildIsRepeatable(t *testing.T) {
	registry := NewRegistry()
	registry.RegisterValue("rate", 0.1)
	b := &binder{registry: registry}

	params := []Param{NewParam("rate"), NewParamDefault("epochs", 5)}
	args := Args{"epochs": 7}

	first, err := b.build(params, args)
	require.NoError(t, err)
	second, err := b.build(params, args)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, Args{"epochs": 7}, args, "inputs are never mutated")
}
