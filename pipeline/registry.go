package pipeline

import (
	"context"
	"fmt"
	"reflect"
)

var ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()

// Registry is an explicit, caller-supplied lookup table for free functions
// and ambient values. It replaces any reliance on process-wide globals: a
// name resolves outside the class/host scopes only if the caller put it here.
type Registry struct {
	funcs  map[string]registeredFunc
	values map[string]any
}

type registeredFunc struct {
	fn     reflect.Value
	params []Param
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		funcs:  make(map[string]registeredFunc),
		values: make(map[string]any),
	}
}

// RegisterFunc registers fn under name. Go reflection does not expose
// parameter names, so they are declared here, in the function's positional
// order. An optional leading context.Context parameter is handled by the
// executor and must not be declared. Functions taking a single struct
// argument may omit the declaration entirely; their parameters derive from
// the struct's exported fields.
func (r *Registry) RegisterFunc(name string, fn any, params ...Param) error {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func {
		return fmt.Errorf("%w: %q is not a function", ErrTypeMismatch, name)
	}
	t := v.Type()
	n := t.NumIn()
	if n > 0 && t.In(0) == ctxType {
		n--
	}
	if len(params) > 0 && len(params) != n {
		return fmt.Errorf("registering %q: declared %d parameters, function takes %d", name, len(params), n)
	}
	r.funcs[name] = registeredFunc{fn: v, params: params}
	return nil
}

// RegisterValue registers a plain value under name. Values participate in
// argument resolution (step 3 of the precedence chain) and, when the value is
// a *Class, in name resolution as a construct target.
func (r *Registry) RegisterValue(name string, v any) {
	r.values[name] = v
}

// Value returns the value registered under name.
func (r *Registry) Value(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

func (r *Registry) fn(name string) (registeredFunc, bool) {
	f, ok := r.funcs[name]
	return f, ok
}

// Param declares one parameter of a registered function: its name and,
// optionally, a default used when no other scope can supply a value.
type Param struct {
	Name       string
	Default    any
	HasDefault bool
}

// NewParam declares a required parameter.
func NewParam(name string) Param {
	return Param{Name: name}
}

// NewParamDefault declares a parameter with a default value.
func NewParamDefault(name string, def any) Param {
	return Param{Name: name, Default: def, HasDefault: true}
}
