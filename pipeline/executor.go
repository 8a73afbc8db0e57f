package pipeline

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"
)

var errType = reflect.TypeOf((*error)(nil)).Elem()

// runStage takes a parsed stage through resolution, argument building,
// invocation and result storage. Any error aborts the run; stages before this
// one keep their committed side effects.
func (p *Pipeline) runStage(ctx context.Context, st *Stage) error {
	inv, ok, err := p.newResolver().resolve(st.Method, st.Class)
	if err != nil {
		return fmt.Errorf("stage #%03d(%s): %w", st.num, st.id, err)
	}
	if !ok {
		return fmt.Errorf("stage #%03d(%s) %q: %w", st.num, st.id, st.label(), ErrNotResolvable)
	}
	st.state = StageResolved

	var sig signature
	switch inv.kind {
	case invConstruct:
		sig, err = constructSignature(inv.class)
	default:
		sig, err = callableSignature(inv.fn, inv.declared)
	}
	if err != nil {
		return fmt.Errorf("stage #%03d(%s) %q: %w", st.num, st.id, st.label(), err)
	}

	built, err := p.binder().build(sig.params, st.Arguments)
	if err != nil {
		return fmt.Errorf("stage #%03d(%s) %q: %w", st.num, st.id, st.label(), err)
	}

	st.start = time.Now()
	value, callErr := p.invoke(ctx, st, inv, sig, built)
	st.end = time.Now()
	st.duration = st.end.Sub(st.start)
	st.state = StageExecuted
	if callErr != nil {
		return fmt.Errorf("stage #%03d(%s) %q: %w", st.num, st.id, st.label(), callErr)
	}

	if st.Attribute != "" {
		if err := p.storeResult(st, value); err != nil {
			return fmt.Errorf("stage #%03d(%s) %q: %w", st.num, st.id, st.label(), err)
		}
		st.state = StageStored
		p.logger.Debug("stored stage result", "attribute", st.Attribute, "stage_id", st.id)
	}
	return nil
}

func (p *Pipeline) invoke(ctx context.Context, st *Stage, inv invocable, sig signature, built map[string]any) (any, error) {
	if inv.kind == invConstruct {
		return p.construct(ctx, st, inv.class, sig, built)
	}
	return callFn(ctx, inv.fn, sig, built)
}

// callFn assembles the positional in-args for fn from the built keyword set
// and calls it. Return conventions: (T), (T, error), (error) or nothing; a
// non-nil trailing error fails the stage.
func callFn(ctx context.Context, fn reflect.Value, sig signature, built map[string]any) (any, error) {
	t := fn.Type()
	var in []reflect.Value
	if sig.wantsCtx {
		in = append(in, reflect.ValueOf(ctx))
	}
	switch {
	case sig.structArg:
		arg := reflect.New(sig.argType)
		if err := fillStruct(arg.Elem(), sig.fields, built); err != nil {
			return nil, err
		}
		if sig.argIsPtr {
			in = append(in, arg)
		} else {
			in = append(in, arg.Elem())
		}
	default:
		for i, prm := range sig.params {
			pv := reflect.New(t.In(len(in))).Elem()
			if err := assignValue(pv, built[prm.Name]); err != nil {
				return nil, fmt.Errorf("argument %q (position %d): %w", prm.Name, i, err)
			}
			in = append(in, pv)
		}
	}
	return splitResults(fn.Call(in))
}

// construct builds a fresh instance of class, populates its exported fields
// from the built arguments, and invokes the post-construct method: the
// stage's explicit one, or the pipeline-wide default when the type has it.
// The instance itself is the stage's return value.
func (p *Pipeline) construct(ctx context.Context, st *Stage, class *Class, sig signature, built map[string]any) (any, error) {
	inst := reflect.New(class.typ)
	if err := fillStruct(inst.Elem(), sig.fields, built); err != nil {
		return nil, err
	}

	method := st.afterConstruct
	explicit := method != ""
	if !explicit {
		method = p.defaultMethod
	}
	if method != "" {
		m, ok := niladicMethod(inst, method)
		switch {
		case ok:
			var in []reflect.Value
			if m.Type().NumIn() > 0 {
				in = append(in, reflect.ValueOf(ctx))
			}
			if _, err := splitResults(m.Call(in)); err != nil {
				return nil, fmt.Errorf("%s.%s: %w", class.Name(), method, err)
			}
		case explicit:
			// The pipeline default is a convention and may be absent; an
			// explicitly requested method must exist.
			return nil, fmt.Errorf("%s has no niladic method %q: %w", class.Name(), method, ErrNotResolvable)
		}
	}
	return inst.Interface(), nil
}

// niladicMethod finds a method taking no arguments beyond an optional
// context.Context.
func niladicMethod(inst reflect.Value, name string) (reflect.Value, bool) {
	for _, candidate := range nameCandidates(name) {
		m := inst.MethodByName(candidate)
		if !m.IsValid() {
			continue
		}
		t := m.Type()
		if t.NumIn() == 0 || (t.NumIn() == 1 && t.In(0) == ctxType) {
			return m, true
		}
	}
	return reflect.Value{}, false
}

// fillStruct assigns built argument values into the struct fields that
// declared them.
func fillStruct(dst reflect.Value, fields []fieldParam, built map[string]any) error {
	for _, f := range fields {
		v, ok := built[f.Name]
		if !ok {
			continue
		}
		if err := assignValue(dst.FieldByIndex(f.index), v); err != nil {
			return fmt.Errorf("field %q: %w", f.Name, err)
		}
	}
	return nil
}

// splitResults interprets a call's return values: a trailing error return
// reports failure, the first non-error value is the stage result.
func splitResults(outs []reflect.Value) (any, error) {
	var value any
	var callErr error
	for i, o := range outs {
		if o.Type() == errType {
			if i == len(outs)-1 && !o.IsNil() {
				callErr = o.Interface().(error)
			}
			continue
		}
		if value == nil {
			value = o.Interface()
		}
	}
	return value, callErr
}

// storeResult applies the storage policy: host field when a host is present
// (falling back to the attribute map for names the host cannot grow), the
// attribute map otherwise, plus registration in the object registry for
// anything that is not itself a class reference.
func (p *Pipeline) storeResult(st *Stage, value any) error {
	if p.host != nil {
		if err := p.host.SetField(st.Attribute, value); err != nil {
			if !errors.Is(err, ErrUnknownAttribute) {
				return err
			}
			p.attributes[st.Attribute] = value
		}
	} else {
		p.attributes[st.Attribute] = value
	}
	if !isClassValue(value) {
		p.objects[st.Attribute] = value
	}
	return nil
}

func isClassValue(v any) bool {
	switch v.(type) {
	case *Class, reflect.Type:
		return true
	default:
		return false
	}
}
