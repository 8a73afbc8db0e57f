package pipeline

// StageState represents how far a stage has progressed through a run.
type StageState int

const (
	// StagePending indicates the stage has been created but its descriptor
	// has not been parsed yet.
	StagePending StageState = iota

	// StageParsed indicates the descriptor has been normalized into
	// attribute/method/class/arguments fields.
	StageParsed

	// StageResolved indicates the method or class has been resolved to a
	// concrete invocable.
	StageResolved

	// StageExecuted indicates the invocable has been called and execution
	// metadata (start, end, duration) is populated.
	StageExecuted

	// StageStored indicates the return value has been stored under the
	// stage's attribute name.
	StageStored
)

// String returns a human-readable representation of the StageState.
func (s StageState) String() string {
	switch s {
	case StagePending:
		return "pending"
	case StageParsed:
		return "parsed"
	case StageResolved:
		return "resolved"
	case StageExecuted:
		return "executed"
	case StageStored:
		return "stored"
	default:
		return "unknown"
	}
}
