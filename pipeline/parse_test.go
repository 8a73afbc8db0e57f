package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tupleScaler struct {
	Factor float64
}

func (tupleScaler) Scale() float64 { return 0 }

func TestParseStep_Shapes(t *testing.T) {
	scaler := ClassOf[tupleScaler]()
	args := Args{"factor": 2.0}

	tests := []struct {
		name          string
		desc          any
		wantAttribute string
		wantMethod    string
		wantClass     *Class
		wantArgs      Args
	}{
		{
			name:       "bare method name",
			desc:       "Validate",
			wantMethod: "Validate",
		},
		{
			name:      "bare class",
			desc:      scaler,
			wantClass: scaler,
		},
		{
			name:       "single element tuple with method",
			desc:       Step("Validate"),
			wantMethod: "Validate",
		},
		{
			name:      "single element tuple with class",
			desc:      Step(scaler),
			wantClass: scaler,
		},
		{
			name:       "method resolving against class",
			desc:       Step("scale", scaler),
			wantMethod: "scale",
			wantClass:  scaler,
		},
		{
			name:          "attribute with class",
			desc:          Step("output", scaler),
			wantAttribute: "output",
			wantClass:     scaler,
		},
		{
			name:          "attribute with method",
			desc:          Step("output", "Validate"),
			wantAttribute: "output",
			wantMethod:    "Validate",
		},
		{
			name:       "method with arguments",
			desc:       Step("Validate", args),
			wantMethod: "Validate",
			wantArgs:   args,
		},
		{
			name:          "attribute method class",
			desc:          Step("output", "scale", scaler),
			wantAttribute: "output",
			wantMethod:    "scale",
			wantClass:     scaler,
		},
		{
			name:          "attribute method arguments",
			desc:          Step("output", "Validate", args),
			wantAttribute: "output",
			wantMethod:    "Validate",
			wantArgs:      args,
		},
		{
			name:       "method class arguments",
			desc:       Step("scale", scaler, args),
			wantMethod: "scale",
			wantClass:  scaler,
			wantArgs:   args,
		},
		{
			name:          "attribute class arguments",
			desc:          Step("output", scaler, args),
			wantAttribute: "output",
			wantClass:     scaler,
			wantArgs:      args,
		},
		{
			name:          "attribute method class arguments",
			desc:          Step("output", "scale", scaler, args),
			wantAttribute: "output",
			wantMethod:    "scale",
			wantClass:     scaler,
			wantArgs:      args,
		},
		{
			name:       "plain map arguments",
			desc:       Step("Validate", map[string]any{"factor": 2.0}),
			wantMethod: "Validate",
			wantArgs:   args,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New()
			st, err := p.parseStep(tt.desc)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAttribute, st.Attribute)
			assert.Equal(t, tt.wantMethod, st.Method)
			assert.Equal(t, tt.wantClass, st.Class)
			assert.Equal(t, tt.wantArgs, st.Arguments)
		})
	}
}

func TestParseStep_Errors(t *testing.T) {
	scaler := ClassOf[tupleScaler]()

	tests := []struct {
		name string
		desc any
	}{
		{
			name: "nil descriptor",
			desc: nil,
		},
		{
			name: "unsupported type",
			desc: 42,
		},
		{
			name: "empty tuple",
			desc: Step(),
		},
		{
			name: "single element of wrong type",
			desc: Step(42),
		},
		{
			name: "too many elements",
			desc: Step("a", "b", scaler, Args{}, "extra"),
		},
		{
			name: "pair with non-string first element",
			desc: Step(42, scaler),
		},
		{
			name: "pair of two classes",
			desc: Step(scaler, scaler),
		},
		{
			name: "triple with non-string first element",
			desc: Step(42, "m", scaler),
		},
		{
			name: "triple with class but no arguments",
			desc: Step("a", scaler, "x"),
		},
		{
			name: "quad with wrong element types",
			desc: Step("a", "m", "not a class", Args{}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New()
			_, err := p.parseStep(tt.desc)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidDescriptor)
		})
	}
}

func TestParseStep_AmbiguousPairProbesResolution(t *testing.T) {
	p := New()
	scaler := ClassOf[tupleScaler]()

	// "scale" resolves against the class method set, so it is a method name.
	st, err := p.parseStep(Step("scale", scaler))
	require.NoError(t, err)
	assert.Equal(t, "scale", st.Method)
	assert.Empty(t, st.Attribute)

	// "result" does not resolve, so it stays an attribute of a construct stage.
	st, err = p.parseStep(Step("result", scaler))
	require.NoError(t, err)
	assert.Empty(t, st.Method)
	assert.Equal(t, "result", st.Attribute)
}

func TestFromList(t *testing.T) {
	p := New()
	err := p.FromList([]any{
		"Validate",
		Step("scaled", "scale", ClassOf[tupleScaler]()),
	})
	require.NoError(t, err)
	require.Equal(t, 2, p.StageCount())

	stages := p.Stages()
	assert.Equal(t, 0, stages[0].Num())
	assert.Equal(t, 1, stages[1].Num())
	assert.NotEmpty(t, stages[0].ID())
	assert.Equal(t, StageParsed, stages[0].State())
}

func TestFromList_Empty(t *testing.T) {
	p := New()
	err := p.FromList(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidDescriptor)
}

func TestFromList_StopsOnBadDescriptor(t *testing.T) {
	p := New()
	err := p.FromList([]any{"Validate", 42})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidDescriptor)
}

func TestFromSteps(t *testing.T) {
	p := New()
	err := p.FromSteps(
		MethodStep{Method: "Validate"},
		AttributeStep{Attribute: "scaled", Method: "scale"},
		ConstructStep{Attribute: "model", Class: ClassOf[tupleScaler]()},
	)
	require.NoError(t, err)
	assert.Equal(t, 3, p.StageCount())
}

func TestFromSteps_Invalid(t *testing.T) {
	tests := []struct {
		name string
		spec StepSpec
	}{
		{
			name: "method step without method",
			spec: MethodStep{Attribute: "out"},
		},
		{
			name: "attribute step without attribute",
			spec: AttributeStep{Method: "scale"},
		},
		{
			name: "attribute step without method",
			spec: AttributeStep{Attribute: "out"},
		},
		{
			name: "construct step without class",
			spec: ConstructStep{Attribute: "model"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New()
			err := p.FromSteps(tt.spec)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidDescriptor)
		})
	}
}

func TestAddStages_Renumbers(t *testing.T) {
	p := New()
	require.NoError(t, p.FromList([]any{"Validate"}))

	p.AddStages(
		NewStage("out", "scale", ClassOf[tupleScaler](), nil),
		NewStage("", "Validate", nil, nil),
	)

	stages := p.Stages()
	require.Len(t, stages, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{stages[0].Num(), stages[1].Num(), stages[2].Num()})
	assert.NotEqual(t, stages[1].ID(), stages[2].ID())
}
