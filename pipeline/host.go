package pipeline

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
)

// Host is the capability interface the engine uses to read ambient parameter
// values from, and store stage results on, the caller's context object. The
// engine never depends on the concrete host shape, only on this interface.
type Host interface {
	// HasField reports whether the host exposes a value under name.
	HasField(name string) bool
	// GetField returns the current value stored under name.
	GetField(name string) (any, error)
	// SetField stores value under name. Implementations that cannot grow
	// (e.g. struct-backed hosts) return an error wrapping ErrUnknownAttribute
	// for names they have no slot for.
	SetField(name string, value any) error
}

// MethodSource is an optional extension of Host for hosts that also serve as
// a method namespace. The resolver probes it before falling back to
// func-valued fields.
type MethodSource interface {
	Method(name string) (any, bool)
}

// StructHost adapts a pointer to an arbitrary struct into a Host. Field
// lookup tolerates the naming gap between parameter names and exported Go
// fields: "max_iter" matches MaxIter, "data" matches Data, and a
// `forge:"..."` struct tag wins over any derived name.
type StructHost struct {
	target reflect.Value // pointer to struct
}

// ReflectHost wraps target, which must be a non-nil pointer to a struct.
func ReflectHost(target any) (*StructHost, error) {
	v := reflect.ValueOf(target)
	if !v.IsValid() || v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: host must be a non-nil pointer to a struct, got %T", ErrTypeMismatch, target)
	}
	return &StructHost{target: v}, nil
}

// HasField reports whether the struct has a matching exported field.
func (h *StructHost) HasField(name string) bool {
	_, ok := h.field(name)
	return ok
}

// GetField returns the current value of the matching field.
func (h *StructHost) GetField(name string) (any, error) {
	f, ok := h.field(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no field %q", ErrUnknownAttribute, h.target.Elem().Type(), name)
	}
	return f.Interface(), nil
}

// SetField assigns value to the matching field.
func (h *StructHost) SetField(name string, value any) error {
	f, ok := h.field(name)
	if !ok {
		return fmt.Errorf("%w: %s has no field %q", ErrUnknownAttribute, h.target.Elem().Type(), name)
	}
	if err := assignValue(f, value); err != nil {
		return fmt.Errorf("setting field %q: %w", name, err)
	}
	return nil
}

// Method returns a bound method of the host by name.
func (h *StructHost) Method(name string) (any, bool) {
	for _, candidate := range nameCandidates(name) {
		if m := h.target.MethodByName(candidate); m.IsValid() {
			return m.Interface(), true
		}
	}
	return nil, false
}

// Target returns the wrapped struct pointer.
func (h *StructHost) Target() any {
	return h.target.Interface()
}

func (h *StructHost) field(name string) (reflect.Value, bool) {
	elem := h.target.Elem()
	typ := elem.Type()
	for _, candidate := range nameCandidates(name) {
		if f, ok := typ.FieldByName(candidate); ok && f.IsExported() {
			return elem.FieldByIndex(f.Index), true
		}
	}
	// Tag match as last resort.
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if !f.IsExported() {
			continue
		}
		if tag := f.Tag.Get("forge"); tag != "" && tagName(tag) == name {
			return elem.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// MapHost is a Host backed by a plain map. Unlike StructHost it can grow, so
// stages may store results under names the caller never declared. The zero
// value is not usable; use NewMapHost.
type MapHost struct {
	fields map[string]any
}

// NewMapHost creates a MapHost seeded with the given fields (may be nil).
func NewMapHost(fields map[string]any) *MapHost {
	if fields == nil {
		fields = make(map[string]any)
	}
	return &MapHost{fields: fields}
}

// HasField reports whether name is present in the map.
func (h *MapHost) HasField(name string) bool {
	_, ok := h.fields[name]
	return ok
}

// GetField returns the value stored under name.
func (h *MapHost) GetField(name string) (any, error) {
	v, ok := h.fields[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAttribute, name)
	}
	return v, nil
}

// SetField stores value under name, growing the map as needed.
func (h *MapHost) SetField(name string, value any) error {
	h.fields[name] = value
	return nil
}

// Method resolves func-valued entries so a MapHost can serve as a method
// namespace too.
func (h *MapHost) Method(name string) (any, bool) {
	v, ok := h.fields[name]
	if !ok {
		return nil, false
	}
	if reflect.ValueOf(v).Kind() != reflect.Func {
		return nil, false
	}
	return v, true
}

// nameCandidates expands a descriptor name into the identifiers it may match
// in Go: the exact name, the exported form, and the CamelCase form of a
// snake_case name.
func nameCandidates(name string) []string {
	candidates := []string{name}
	if exported := exportName(name); exported != name {
		candidates = append(candidates, exported)
	}
	if camel := snakeToCamel(name); camel != name && camel != exportName(name) {
		candidates = append(candidates, camel)
	}
	return candidates
}

func exportName(name string) string {
	if name == "" {
		return name
	}
	r := []rune(name)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func snakeToCamel(name string) string {
	parts := strings.Split(name, "_")
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(exportName(p))
	}
	return b.String()
}

// camelToSnake derives the descriptor-facing name of an exported field:
// MaxIter becomes max_iter.
func camelToSnake(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func tagName(tag string) string {
	if i := strings.Index(tag, ","); i >= 0 {
		return tag[:i]
	}
	return tag
}

// assignValue sets v into dst, converting between numeric types when needed.
func assignValue(dst reflect.Value, v any) error {
	if v == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.Type().AssignableTo(dst.Type()):
		dst.Set(rv)
	case isNumeric(rv.Kind()) && isNumeric(dst.Kind()):
		dst.Set(rv.Convert(dst.Type()))
	default:
		return fmt.Errorf("value of type %s is not assignable to %s", rv.Type(), dst.Type())
	}
	return nil
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
