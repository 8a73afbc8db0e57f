package pipeline

import (
	"fmt"
	"reflect"
	"strings"
)

type invKind int

const (
	// invCallable is a plain callable: a function or a bound method.
	invCallable invKind = iota
	// invConstruct instantiates a class and returns the instance.
	invConstruct
)

// invocable is a resolved target: something the executor knows how to call.
type invocable struct {
	kind     invKind
	fn       reflect.Value // valid for invCallable
	class    *Class        // valid for invConstruct
	declared []Param       // registry-declared parameters, if any
}

// resolver maps a method name and optional class to an invocable, searching a
// fixed ordered list of scopes. Absence is not an error; callers decide
// whether a miss is fatal.
type resolver struct {
	host     Host
	registry *Registry
	objects  map[string]any
	self     any // the owning pipeline, searched for engine-scope methods
}

// resolve searches, in order: the class method set (no fall-through when a
// class is given), the class constructor, host methods and func-valued host
// fields, the engine's own methods, the registry (functions, then values),
// and finally dotted object.method paths.
func (r *resolver) resolve(method string, class *Class) (invocable, bool, error) {
	if class != nil {
		if class.typ.Kind() != reflect.Struct {
			return invocable{}, false, fmt.Errorf("%w: %s", ErrTypeMismatch, class.typ)
		}
		if method != "" {
			// A named class scopes the search: no fall-through on a miss.
			inst := reflect.New(class.typ)
			for _, candidate := range nameCandidates(method) {
				if m := inst.MethodByName(candidate); m.IsValid() {
					return invocable{kind: invCallable, fn: m}, true, nil
				}
			}
			return invocable{}, false, nil
		}
		return invocable{kind: invConstruct, class: class}, true, nil
	}

	if method == "" {
		return invocable{}, false, nil
	}

	if r.host != nil {
		if ms, ok := r.host.(MethodSource); ok {
			if m, ok := ms.Method(method); ok {
				return invocable{kind: invCallable, fn: reflect.ValueOf(m)}, true, nil
			}
		}
		if r.host.HasField(method) {
			if v, err := r.host.GetField(method); err == nil && v != nil {
				if fv := reflect.ValueOf(v); fv.Kind() == reflect.Func {
					return invocable{kind: invCallable, fn: fv}, true, nil
				}
			}
		}
	}

	if r.self != nil {
		sv := reflect.ValueOf(r.self)
		for _, candidate := range nameCandidates(method) {
			if m := sv.MethodByName(candidate); m.IsValid() {
				return invocable{kind: invCallable, fn: m}, true, nil
			}
		}
	}

	if r.registry != nil {
		if f, ok := r.registry.fn(method); ok {
			return invocable{kind: invCallable, fn: f.fn, declared: f.params}, true, nil
		}
		if v, ok := r.registry.Value(method); ok {
			if c, ok := v.(*Class); ok {
				return invocable{kind: invConstruct, class: c}, true, nil
			}
			if fv := reflect.ValueOf(v); fv.Kind() == reflect.Func {
				return invocable{kind: invCallable, fn: fv}, true, nil
			}
		}
	}

	if strings.Contains(method, ".") {
		inv, err := r.resolvePath(strings.Split(method, "."))
		if err != nil {
			return invocable{}, false, err
		}
		return inv, true, nil
	}

	return invocable{}, false, nil
}

// resolvePath walks a dotted method path. The root segment is looked up in
// the host, then in the object registry; intermediate segments are field
// lookups; the final segment must resolve to a bound method or a func-valued
// field. Only single-level paths (object.method) are exercised by the step
// grammar; longer paths walk the same way.
func (r *resolver) resolvePath(segments []string) (invocable, error) {
	root := segments[0]
	var current any
	switch {
	case r.host != nil && r.host.HasField(root):
		v, err := r.host.GetField(root)
		if err != nil {
			return invocable{}, err
		}
		current = v
	default:
		obj, ok := r.objects[root]
		if !ok {
			return invocable{}, fmt.Errorf("%w: path root %q not found in host or object registry", ErrMissingObject, root)
		}
		current = obj
	}

	for _, segment := range segments[1 : len(segments)-1] {
		next, ok := fieldValue(current, segment)
		if !ok {
			return invocable{}, fmt.Errorf("%w: %q has no field %q", ErrMissingObject, reflect.TypeOf(current), segment)
		}
		current = next
	}

	last := segments[len(segments)-1]
	if current == nil {
		return invocable{}, fmt.Errorf("%w: nil object in path before %q", ErrMissingObject, last)
	}
	cv := reflect.ValueOf(current)
	for _, candidate := range nameCandidates(last) {
		if m := cv.MethodByName(candidate); m.IsValid() {
			return invocable{kind: invCallable, fn: m}, nil
		}
	}
	if v, ok := fieldValue(current, last); ok && v != nil {
		if fv := reflect.ValueOf(v); fv.Kind() == reflect.Func {
			return invocable{kind: invCallable, fn: fv}, nil
		}
	}
	return invocable{}, fmt.Errorf("%w: %s has no method %q", ErrMissingObject, cv.Type(), last)
}

// fieldValue reads an exported struct field by descriptor name from v, which
// may be a struct or a pointer to one.
func fieldValue(v any, name string) (any, bool) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, false
	}
	for _, candidate := range nameCandidates(name) {
		if f := rv.FieldByName(candidate); f.IsValid() {
			return f.Interface(), true
		}
	}
	return nil, false
}
