package pipeline

import (
	"fmt"
	"reflect"

	"gopkg.in/yaml.v3"
)

// fieldParam is a declared parameter backed by a struct field.
type fieldParam struct {
	Param
	index []int
}

// signature describes how a resolved invocable consumes the built keyword
// arguments: either positionally (declared parameters) or through a single
// struct argument whose exported fields are the parameters.
type signature struct {
	params   []Param
	wantsCtx bool

	structArg bool
	argType   reflect.Type // struct type of the single argument
	argIsPtr  bool
	fields    []fieldParam
}

// callableSignature derives the declared parameters of fn. Parameter names
// come either from the registry declaration (positional order) or from the
// single-struct-argument convention; Go reflection offers no other source of
// names.
func callableSignature(fn reflect.Value, declared []Param) (signature, error) {
	t := fn.Type()
	var sig signature

	idx := 0
	if t.NumIn() > 0 && t.In(0) == ctxType {
		sig.wantsCtx = true
		idx = 1
	}
	remaining := t.NumIn() - idx

	switch {
	case len(declared) > 0:
		if len(declared) != remaining {
			return signature{}, fmt.Errorf("%s declares %d parameters but takes %d", t, len(declared), remaining)
		}
		sig.params = declared
	case remaining == 0:
		// Niladic; nothing to bind.
	case remaining == 1 && structArgType(t.In(idx)) != nil:
		at := t.In(idx)
		sig.structArg = true
		sig.argIsPtr = at.Kind() == reflect.Pointer
		sig.argType = structArgType(at)
		fields, err := structParams(sig.argType)
		if err != nil {
			return signature{}, err
		}
		sig.fields = fields
		for _, f := range fields {
			sig.params = append(sig.params, f.Param)
		}
	default:
		return signature{}, fmt.Errorf("%w: cannot determine parameter names for %s; declare them at registration or use a single struct argument", ErrUnresolvedParameter, t)
	}
	return sig, nil
}

// constructSignature derives the declared parameters of a construct-only
// stage: the exported fields of the class struct.
func constructSignature(c *Class) (signature, error) {
	fields, err := structParams(c.typ)
	if err != nil {
		return signature{}, err
	}
	sig := signature{argType: c.typ, fields: fields}
	for _, f := range fields {
		sig.params = append(sig.params, f.Param)
	}
	return sig, nil
}

func structArgType(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() == reflect.Struct {
		return t
	}
	return nil
}

// structParams maps the exported fields of t to declared parameters, in field
// declaration order. The parameter name is the `forge` tag when present, else
// the snake_case form of the field name. A `default` tag declares the
// parameter's default, decoded as YAML into the field's type so that
// `default:"0.5"` on a float64 field yields a float64.
func structParams(t reflect.Type) ([]fieldParam, error) {
	var params []fieldParam
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := tagName(f.Tag.Get("forge"))
		if name == "" {
			name = camelToSnake(f.Name)
		}
		p := fieldParam{Param: Param{Name: name}, index: f.Index}
		if def, ok := f.Tag.Lookup("default"); ok {
			ptr := reflect.New(f.Type)
			if err := yaml.Unmarshal([]byte(def), ptr.Interface()); err != nil {
				return nil, fmt.Errorf("decoding default %q for field %s.%s: %w", def, t.Name(), f.Name, err)
			}
			p.Default = ptr.Elem().Interface()
			p.HasDefault = true
		}
		params = append(params, p)
	}
	return params, nil
}

// binder produces the final keyword arguments for an invocable by merging
// explicit arguments, previously produced objects, host fields, registry
// values and declared defaults.
type binder struct {
	host     Host
	objects  map[string]any
	registry *Registry
}

// build resolves a value for every declared parameter. Precedence, per
// parameter: explicit argument (string values probe the object registry, then
// the host, then stay literal) > host field named like the parameter >
// registry value > declared default. A parameter with no source fails with
// ErrUnresolvedParameter; an explicit argument naming no declared parameter
// fails with ErrUnexpectedArgument. Inputs are never mutated, so building
// twice with the same inputs yields the same map.
func (b *binder) build(params []Param, args Args) (map[string]any, error) {
	out := make(map[string]any, len(params))

	for _, p := range params {
		if args != nil {
			if v, ok := args[p.Name]; ok {
				out[p.Name] = b.resolveArgument(v)
				continue
			}
		}
		if b.host != nil && b.host.HasField(p.Name) {
			v, err := b.host.GetField(p.Name)
			if err != nil {
				return nil, err
			}
			out[p.Name] = v
			continue
		}
		if b.registry != nil {
			if v, ok := b.registry.Value(p.Name); ok {
				out[p.Name] = v
				continue
			}
		}
		if p.HasDefault {
			out[p.Name] = p.Default
			continue
		}
		return nil, fmt.Errorf("%w: %q not found in arguments, host or registry and has no default", ErrUnresolvedParameter, p.Name)
	}

	// Every explicit argument must have landed on a declared parameter.
	for name := range args {
		if _, ok := out[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnexpectedArgument, name)
		}
	}
	return out, nil
}

// resolveArgument applies the by-name indirections an explicit argument value
// supports: a string naming an object produced by an earlier stage yields
// that object, a string naming a host field yields the field's current value,
// anything else is literal.
func (b *binder) resolveArgument(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if obj, ok := b.objects[s]; ok {
		return obj
	}
	if b.host != nil && b.host.HasField(s) {
		if hv, err := b.host.GetField(s); err == nil {
			return hv
		}
	}
	return v
}
