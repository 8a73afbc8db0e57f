// Package pipeline provides a sequential step runner: an ordered list of
// stages, each naming an invocable (a registered function, a host method, a
// class method or a class constructor) plus optional arguments, executed one
// at a time with timing, progress and result capture.
//
// # Stages and descriptors
//
// A pipeline is loaded from step descriptors. The convenient form is a
// loosely-typed tuple whose meaning is inferred from element types:
//
//	host := &Experiment{Data: raw}
//	h, _ := pipeline.ReflectHost(host)
//	p := pipeline.New(pipeline.WithHost(h))
//	err := p.FromList([]any{
//		"Prepare",                                     // host method, result discarded
//		pipeline.Step("scaled", "Scale", pipeline.ClassOf[Scaler]()),
//		pipeline.Step("model", pipeline.ClassOf[Model](), pipeline.Args{"input": "scaled"}),
//		pipeline.Step("score", "model.Evaluate"),
//	})
//
// Callers who prefer explicit construction use the typed variants instead:
//
//	err := p.FromSteps(
//		pipeline.MethodStep{Method: "Prepare"},
//		pipeline.ConstructStep{Attribute: "model", Class: pipeline.ClassOf[Model]()},
//	)
//
// # Resolution and argument binding
//
// A stage's method name is resolved against ordered scopes: the stage's
// class, the host context, the pipeline's own methods, the caller-supplied
// registry, and dotted object.method paths into previously produced objects.
//
// The call arguments are built per declared parameter with a fixed
// precedence: explicit stage arguments win (string values are dereferenced
// through the object registry and the host before being taken literally),
// then host fields named like the parameter, then registry values, then
// declared defaults. A parameter with no source, or an explicit argument
// naming no parameter, aborts the run.
//
// Because Go reflection exposes no parameter names, invocables declare their
// parameters either at registry registration or through a single struct
// argument whose exported fields (with optional `forge` and `default` tags)
// are the parameters. Construct-only stages bind the class struct's own
// fields the same way.
//
// # Execution
//
// Run executes stages strictly in order in a single goroutine; results stored
// by stage N are resolvable by name from stage N+1. The first error aborts
// the run. Committed side effects are kept; there is no rollback and no
// retry.
package pipeline
