package pipeline

import (
	"fmt"
)

// parseStep normalizes one step descriptor into a stage. A descriptor is a
// bare method name, a bare class reference, a typed StepSpec, or a tuple of
// one to four elements whose meaning is inferred from the element types:
//
//	"method"
//	class
//	("method")
//	(class)
//
//	("method", class)
//	("attribute", class)
//	("attribute", "method")
//	("method", arguments)
//
//	("attribute", "method", class)
//	("attribute", "method", arguments)
//	("attribute", class, arguments)
//	("method", class, arguments)
//
//	("attribute", "method", class, arguments)
//
// The (string, class) shapes are ambiguous: the string is a method name when
// it resolves against the class, an attribute name otherwise. The shape check
// runs first, the resolvability probe second, and a string that resolves as
// neither stays an attribute name rather than failing.
func (p *Pipeline) parseStep(desc any) (*Stage, error) {
	switch d := desc.(type) {
	case nil:
		return nil, fmt.Errorf("%w: descriptor is nil", ErrInvalidDescriptor)
	case StepSpec:
		return d.stage()
	case string:
		return NewStage("", d, nil, nil), nil
	case *Class:
		return NewStage("", "", d, nil), nil
	case []any:
		return p.parseTuple(d)
	default:
		return nil, fmt.Errorf("%w: %T is not a string, *Class, StepSpec or tuple", ErrInvalidDescriptor, desc)
	}
}

func (p *Pipeline) parseTuple(tuple []any) (*Stage, error) {
	switch len(tuple) {
	case 0:
		return nil, fmt.Errorf("%w: empty tuple", ErrInvalidDescriptor)
	case 1:
		switch e := tuple[0].(type) {
		case string:
			return NewStage("", e, nil, nil), nil
		case *Class:
			return NewStage("", "", e, nil), nil
		default:
			return nil, fmt.Errorf("%w: single element %T must be a string or *Class", ErrInvalidDescriptor, tuple[0])
		}
	case 2:
		return p.parsePair(tuple[0], tuple[1])
	case 3:
		return p.parseTriple(tuple[0], tuple[1], tuple[2])
	case 4:
		return p.parseQuad(tuple[0], tuple[1], tuple[2], tuple[3])
	default:
		return nil, fmt.Errorf("%w: tuple has %d elements, want 1 to 4", ErrInvalidDescriptor, len(tuple))
	}
}

func (p *Pipeline) parsePair(e0, e1 any) (*Stage, error) {
	if class, ok := e1.(*Class); ok {
		name, ok := e0.(string)
		if !ok {
			return nil, fmt.Errorf("%w: first element %T must be a string when the second is a class", ErrInvalidDescriptor, e0)
		}
		if p.probeMethod(name, class) {
			return NewStage("", name, class, nil), nil
		}
		return NewStage(name, "", class, nil), nil
	}
	if args, ok := toArgs(e1); ok {
		method, ok := e0.(string)
		if !ok {
			return nil, fmt.Errorf("%w: first element %T must be a string when the second is an argument map", ErrInvalidDescriptor, e0)
		}
		return NewStage("", method, nil, args), nil
	}
	if method, ok := e1.(string); ok {
		attribute, ok := e0.(string)
		if !ok {
			return nil, fmt.Errorf("%w: first element %T must be a string when the second is a method name", ErrInvalidDescriptor, e0)
		}
		return NewStage(attribute, method, nil, nil), nil
	}
	return nil, fmt.Errorf("%w: 2-element tuple must be (string, *Class), (string, string) or (string, arguments)", ErrInvalidDescriptor)
}

func (p *Pipeline) parseTriple(e0, e1, e2 any) (*Stage, error) {
	first, ok := e0.(string)
	if !ok {
		return nil, fmt.Errorf("%w: first element %T of a 3-element tuple must be a string", ErrInvalidDescriptor, e0)
	}
	if method, ok := e1.(string); ok {
		switch {
		case isClass(e2):
			return NewStage(first, method, e2.(*Class), nil), nil
		default:
			if args, ok := toArgs(e2); ok {
				return NewStage(first, method, nil, args), nil
			}
			return nil, fmt.Errorf("%w: 3-element tuple must be (string, string, *Class) or (string, string, arguments)", ErrInvalidDescriptor)
		}
	}
	if class, ok := e1.(*Class); ok {
		args, ok := toArgs(e2)
		if !ok {
			return nil, fmt.Errorf("%w: third element %T must be an argument map when the second is a class", ErrInvalidDescriptor, e2)
		}
		if p.probeMethod(first, class) {
			return NewStage("", first, class, args), nil
		}
		return NewStage(first, "", class, args), nil
	}
	return nil, fmt.Errorf("%w: 3-element tuple must be (string, string, *Class|arguments) or (string, *Class, arguments)", ErrInvalidDescriptor)
}

func (p *Pipeline) parseQuad(e0, e1, e2, e3 any) (*Stage, error) {
	attribute, ok0 := e0.(string)
	method, ok1 := e1.(string)
	class, ok2 := e2.(*Class)
	args, ok3 := toArgs(e3)
	if !ok0 || !ok1 || !ok2 || !ok3 {
		return nil, fmt.Errorf("%w: 4-element tuple must be (string, string, *Class, arguments)", ErrInvalidDescriptor)
	}
	return NewStage(attribute, method, class, args), nil
}

// probeMethod asks the resolver whether name resolves against class. This is
// the disambiguation step for the (string, class) shapes, so it must go
// through the same resolution path a run uses.
func (p *Pipeline) probeMethod(name string, class *Class) bool {
	_, ok, err := p.newResolver().resolve(name, class)
	return err == nil && ok
}

func toArgs(v any) (Args, bool) {
	switch a := v.(type) {
	case Args:
		return a, true
	case map[string]any:
		return Args(a), true
	default:
		return nil, false
	}
}

func isClass(v any) bool {
	_, ok := v.(*Class)
	return ok
}
