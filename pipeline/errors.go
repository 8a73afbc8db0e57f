package pipeline

import "errors"

// Sentinel errors returned by the pipeline engine. All of them are fatal at
// the point raised: the run aborts and the error propagates to the caller,
// wrapped with the offending descriptor, parameter or class name.
var (
	// ErrInvalidDescriptor is returned when a step descriptor has an
	// unrecognized shape (empty tuple, more than four elements, or element
	// types that match no known pattern).
	ErrInvalidDescriptor = errors.New("invalid step descriptor")

	// ErrTypeMismatch is returned when a value that is not a struct type is
	// used where a class reference is expected.
	ErrTypeMismatch = errors.New("not a class reference")

	// ErrMissingObject is returned when the root of a dotted method path is
	// found neither in the host nor in the object registry.
	ErrMissingObject = errors.New("object not found")

	// ErrUnknownClass is returned when a class name from a config file is not
	// present in the caller-supplied namespace.
	ErrUnknownClass = errors.New("unknown class")

	// ErrUnresolvedParameter is returned when no value can be sourced for a
	// required parameter of the resolved invocable.
	ErrUnresolvedParameter = errors.New("parameter cannot be resolved")

	// ErrUnexpectedArgument is returned when an explicit argument does not
	// match any declared parameter. This guards against typos in caller
	// supplied argument maps.
	ErrUnexpectedArgument = errors.New("argument matches no declared parameter")

	// ErrUnrecognizedConfigKey is returned for config fields other than
	// attribute, method, class and arguments.
	ErrUnrecognizedConfigKey = errors.New("unrecognized config key")

	// ErrNotResolvable is returned when a stage's method or class cannot be
	// resolved to an invocable in any scope.
	ErrNotResolvable = errors.New("no invocable found")

	// ErrEmptyPipeline is returned when Run is called with no stages loaded.
	ErrEmptyPipeline = errors.New("pipeline has no stages")

	// ErrNotRun is returned by GetAttribute before a run has completed.
	ErrNotRun = errors.New("pipeline has not completed a run")

	// ErrUnknownAttribute is returned by GetAttribute when no stage stored a
	// value under the requested name.
	ErrUnknownAttribute = errors.New("attribute not found")
)
