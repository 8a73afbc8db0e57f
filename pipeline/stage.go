package pipeline

import (
	"fmt"
	"math/rand/v2"
	"reflect"
	"time"
)

// Args is an explicit argument map for a stage: parameter name to value.
// String values are first probed against the object registry and the host
// before being used as literals; see the argument builder for the exact
// precedence.
type Args map[string]any

// Class is a reference to a struct type that a stage can instantiate or
// resolve a method against. It plays the role a class object plays in the
// step descriptors: a token identifying both a constructor and a method
// namespace.
type Class struct {
	typ reflect.Type
}

// ClassOf returns the Class for the struct type T.
func ClassOf[T any]() *Class {
	return &Class{typ: reflect.TypeOf((*T)(nil)).Elem()}
}

// ClassFor returns the Class for the dynamic type of v. Pointer types are
// dereferenced. Returns ErrTypeMismatch if v is not a struct or a pointer to
// one.
func ClassFor(v any) (*Class, error) {
	t := reflect.TypeOf(v)
	if t == nil {
		return nil, fmt.Errorf("%w: nil value", ErrTypeMismatch)
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s", ErrTypeMismatch, t.String())
	}
	return &Class{typ: t}, nil
}

// Name returns the struct type name, e.g. "Scaler".
func (c *Class) Name() string {
	return c.typ.Name()
}

// Type returns the underlying struct type.
func (c *Class) Type() reflect.Type {
	return c.typ
}

// hasMethod reports whether the class (pointer method set included) has a
// method matching name under the usual name candidates.
func (c *Class) hasMethod(name string) bool {
	_, ok := c.method(name)
	return ok
}

// method looks up a method by name on the pointer type, which covers both
// value and pointer receivers.
func (c *Class) method(name string) (reflect.Method, bool) {
	pt := reflect.PointerTo(c.typ)
	for _, candidate := range nameCandidates(name) {
		if m, ok := pt.MethodByName(candidate); ok {
			return m, true
		}
	}
	return reflect.Method{}, false
}

func (c *Class) String() string {
	if c == nil {
		return "<nil>"
	}
	return c.typ.String()
}

// Stage is one normalized, ordered unit of pipeline execution. Identity
// (sequence number, id) is assigned at insertion; the parsed fields are
// immutable afterwards; only execution metadata mutates, once, during a run.
type Stage struct {
	num int
	id  string

	// Attribute is the destination name for the return value, if any.
	Attribute string
	// Method is the name to resolve to an invocable, if any.
	Method string
	// Class is the type to resolve the method against or to instantiate.
	Class *Class
	// Arguments are explicit parameter overrides for the invocable.
	Arguments Args

	// afterConstruct names the method invoked on a freshly built instance of
	// a construct-only stage. Empty means the pipeline-wide default applies.
	afterConstruct string

	state    StageState
	start    time.Time
	end      time.Time
	duration time.Duration
}

// NewStage creates a stage with explicit fields, for use with AddStages.
// Sequence number and id are assigned when the stage is appended.
func NewStage(attribute, method string, class *Class, arguments Args) *Stage {
	return &Stage{
		Attribute: attribute,
		Method:    method,
		Class:     class,
		Arguments: arguments,
		state:     StageParsed,
	}
}

// Num returns the stage's sequence index within the pipeline.
func (s *Stage) Num() int { return s.num }

// ID returns the stage's opaque identifier.
func (s *Stage) ID() string { return s.id }

// State returns the stage's current execution state.
func (s *Stage) State() StageState { return s.state }

// Duration returns the stage's wall-clock execution time. Zero before a run.
func (s *Stage) Duration() time.Duration { return s.duration }

// StartTime returns when execution of the stage began. Zero before a run.
func (s *Stage) StartTime() time.Time { return s.start }

// EndTime returns when execution of the stage finished. Zero before a run.
func (s *Stage) EndTime() time.Time { return s.end }

// label returns a short human identifier for logs and progress lines.
func (s *Stage) label() string {
	switch {
	case s.Method != "":
		return s.Method
	case s.Class != nil:
		return s.Class.Name()
	default:
		return s.Attribute
	}
}

// StageTiming is one line of the duration report produced after a run.
type StageTiming struct {
	Num      int
	ID       string
	Label    string
	Duration time.Duration
}

// newStageID produces the opaque per-stage identifier: 32 random bits in hex.
func newStageID() string {
	return fmt.Sprintf("%08x", rand.Uint32())
}

// Step builds a descriptor tuple for FromList. It exists purely for
// readability at call sites:
//
//	p.FromList([]any{
//		Step("scaled", "Scale", ClassOf[Scaler]()),
//		"Validate",
//	})
func Step(elems ...any) []any {
	return elems
}

// StepSpec is a typed step descriptor. The concrete variants carry exactly
// the fields that shape of step supports, so callers who prefer explicit
// construction over descriptor tuples never go through shape sniffing.
type StepSpec interface {
	stage() (*Stage, error)
}

// MethodStep invokes a named method, resolved against Class when present or
// against the host/registry scopes otherwise. The result is stored under
// Attribute when set.
type MethodStep struct {
	Attribute string
	Method    string
	Class     *Class
	Arguments Args
}

func (m MethodStep) stage() (*Stage, error) {
	if m.Method == "" {
		return nil, fmt.Errorf("%w: MethodStep requires a method name", ErrInvalidDescriptor)
	}
	return NewStage(m.Attribute, m.Method, m.Class, m.Arguments), nil
}

// AttributeStep invokes a named method and stores the result under Attribute.
// It is the typed form of the (attribute, method) descriptor pair.
type AttributeStep struct {
	Attribute string
	Method    string
}

func (a AttributeStep) stage() (*Stage, error) {
	if a.Attribute == "" || a.Method == "" {
		return nil, fmt.Errorf("%w: AttributeStep requires attribute and method names", ErrInvalidDescriptor)
	}
	return NewStage(a.Attribute, a.Method, nil, nil), nil
}

// ConstructStep instantiates Class, populating its exported fields through
// the argument builder. InvokeAfterConstruct optionally names a method called
// on the fresh instance; when empty the pipeline-wide default method applies.
type ConstructStep struct {
	Attribute            string
	Class                *Class
	Arguments            Args
	InvokeAfterConstruct string
}

func (c ConstructStep) stage() (*Stage, error) {
	if c.Class == nil {
		return nil, fmt.Errorf("%w: ConstructStep requires a class", ErrInvalidDescriptor)
	}
	s := NewStage(c.Attribute, "", c.Class, c.Arguments)
	s.afterConstruct = c.InvokeAfterConstruct
	return s, nil
}
