package dataflow

// DecisionReason records why the compiler chose static evaluation or
// dataflow lowering for a program, a supplemented feature not named
// verbatim in spec.md §4.11 but present in
// original_source/.../engine_dd/core/compile.rs's has_reactive_constructs
// check — surfacing the reason is useful for diagnostics and tests, so
// it is kept as an explicit value rather than inferred after the fact.
type DecisionReason int

const (
	// ReasonNoReactiveConstructs: the program contains no LINK, HOLD, or
	// Timer/Router input, so it can be folded to a single Value.
	ReasonNoReactiveConstructs DecisionReason = iota
	// ReasonHasLink: the program declares at least one LINK socket.
	ReasonHasLink
	// ReasonHasHold: the program declares at least one HOLD accumulator.
	ReasonHasHold
	// ReasonHasExternalInput: the program references Timer or Router.
	ReasonHasExternalInput
)

func (r DecisionReason) String() string {
	switch r {
	case ReasonNoReactiveConstructs:
		return "no reactive constructs"
	case ReasonHasLink:
		return "program declares a LINK"
	case ReasonHasHold:
		return "program declares a HOLD"
	case ReasonHasExternalInput:
		return "program references an external input (Timer/Router)"
	default:
		return "unknown"
	}
}

// Decision is the compiler's static-vs-dataflow choice plus its reason,
// per spec.md §4.11: "The compiler decides between a static evaluation
// ... and a dataflow lowering."
type Decision struct {
	UseDataflow bool
	Reason      DecisionReason
}

// ProgramFeatures summarizes the reactive constructs a program's AST
// walk found, the input to Decide.
type ProgramFeatures struct {
	HasLink          bool
	HasHold          bool
	HasExternalInput bool
}

// Decide chooses static evaluation versus dataflow lowering, mirroring
// original_source/.../compile.rs's compiler.has_reactive_constructs
// gate. A LINK, a HOLD or a Timer/Router reference selects dataflow
// lowering; a HOLD fed only by Stream/pulses with no external source
// also selects dataflow lowering and is not folded statically.
func Decide(f ProgramFeatures) Decision {
	switch {
	case f.HasLink:
		return Decision{UseDataflow: true, Reason: ReasonHasLink}
	case f.HasHold:
		return Decision{UseDataflow: true, Reason: ReasonHasHold}
	case f.HasExternalInput:
		return Decision{UseDataflow: true, Reason: ReasonHasExternalInput}
	default:
		return Decision{UseDataflow: false, Reason: ReasonNoReactiveConstructs}
	}
}
