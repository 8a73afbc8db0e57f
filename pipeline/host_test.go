package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hostTarget struct {
	Data    []float64
	MaxIter int
	Rate    float64 `forge:"learning_rate"`
	hidden  string
}

func (h *hostTarget) Describe() string {
	return h.hidden
}

func TestReflectHost(t *testing.T) {
	tests := []struct {
		name    string
		target  any
		wantErr bool
	}{
		{
			name:    "pointer to struct",
			target:  &hostTarget{},
			wantErr: false,
		},
		{
			name:    "non-pointer struct",
			target:  hostTarget{},
			wantErr: true,
		},
		{
			name:    "nil",
			target:  nil,
			wantErr: true,
		},
		{
			name:    "typed nil pointer",
			target:  (*hostTarget)(nil),
			wantErr: true,
		},
		{
			name:    "pointer to non-struct",
			target:  new(int),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := ReflectHost(tt.target)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrTypeMismatch)
				assert.Nil(t, h)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, h)
			}
		})
	}
}

func TestStructHost_FieldLookup(t *testing.T) {
	target := &hostTarget{Data: []float64{1, 2}, MaxIter: 50, Rate: 0.1}
	h, err := ReflectHost(target)
	require.NoError(t, err)

	tests := []struct {
		name  string
		field string
		want  any
	}{
		{
			name:  "exact name",
			field: "MaxIter",
			want:  50,
		},
		{
			name:  "snake_case name",
			field: "max_iter",
			want:  50,
		},
		{
			name:  "lowercase name",
			field: "data",
			want:  []float64{1, 2},
		},
		{
			name:  "tag name",
			field: "learning_rate",
			want:  0.1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.True(t, h.HasField(tt.field))
			got, err := h.GetField(tt.field)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.False(t, h.HasField("hidden"), "unexported fields are invisible")
	assert.False(t, h.HasField("missing"))

	_, err = h.GetField("missing")
	assert.ErrorIs(t, err, ErrUnknownAttribute)
}

func TestStructHost_SetField(t *testing.T) {
	target := &hostTarget{}
	h, err := ReflectHost(target)
	require.NoError(t, err)

	require.NoError(t, h.SetField("max_iter", 100))
	assert.Equal(t, 100, target.MaxIter)

	// Numeric conversion: an int lands in a float64 field.
	require.NoError(t, h.SetField("learning_rate", 1))
	assert.Equal(t, 1.0, target.Rate)

	err = h.SetField("missing", 1)
	assert.ErrorIs(t, err, ErrUnknownAttribute)

	err = h.SetField("data", "not a slice")
	assert.Error(t, err)
}

func TestStructHost_Method(t *testing.T) {
	h, err := ReflectHost(&hostTarget{hidden: "x"})
	require.NoError(t, err)

	m, ok := h.Method("describe")
	require.True(t, ok)
	fn, ok := m.(func() string)
	require.True(t, ok)
	assert.Equal(t, "x", fn())

	_, ok = h.Method("missing")
	assert.False(t, ok)
}

func TestMapHost(t *testing.T) {
	h := NewMapHost(map[string]any{
		"count": 3,
		"double": func(x int) int {
			return x * 2
		},
	})

	assert.True(t, h.HasField("count"))
	v, err := h.GetField("count")
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	_, err = h.GetField("missing")
	assert.ErrorIs(t, err, ErrUnknownAttribute)

	// Map hosts can grow.
	require.NoError(t, h.SetField("fresh", "value"))
	v, err = h.GetField("fresh")
	require.NoError(t, err)
	assert.Equal(t, "value", v)

	// Func-valued entries double as methods; plain values do not.
	_, ok := h.Method("double")
	assert.True(t, ok)
	_, ok = h.Method("count")
	assert.False(t, ok)
}

func TestNameHelpers(t *testing.T) {
	tests := []struct {
		name string
		in   string
		fn   func(string) string
		want string
	}{
		{
			name: "export simple",
			in:   "data",
			fn:   exportName,
			want: "Data",
		},
		{
			name: "export already exported",
			in:   "Data",
			fn:   exportName,
			want: "Data",
		},
		{
			name: "snake to camel",
			in:   "max_iter",
			fn:   snakeToCamel,
			want: "MaxIter",
		},
		{
			name: "camel to snake",
			in:   "MaxIter",
			fn:   camelToSnake,
			want: "max_iter",
		},
		{
			name: "camel to snake single word",
			in:   "Data",
			fn:   camelToSnake,
			want: "data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.fn(tt.in))
		})
	}
}

func TestNameCandidates(t *testing.T) {
	assert.Equal(t, []string{"max_iter", "Max_iter", "MaxIter"}, nameCandidates("max_iter"))
	assert.Equal(t, []string{"data", "Data"}, nameCandidates("data"))
	assert.Equal(t, []string{"Fit"}, nameCandidates("Fit"))
}
