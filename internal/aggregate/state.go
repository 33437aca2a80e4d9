package aggregate

// State tracks pipeline progress. Transitions run strictly forward; a
// non-recoverable component failure moves to StateFailed and aborts the
// remaining stages. There is no retry state — retries mean re-invoking
// the whole pipeline.
type State int

const (
	StateSchemaResolved State = iota
	StateDirectivesApplied
	StateStructureSynthesized
	StateRulesApplied
	StatePopulated
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateSchemaResolved:
		return "schema-resolved"
	case StateDirectivesApplied:
		return "directives-applied"
	case StateStructureSynthesized:
		return "structure-synthesized"
	case StateRulesApplied:
		return "rules-applied"
	case StatePopulated:
		return "populated"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
