package cml

// Gate joins the branches of a flow step.
type Gate int

const (
	GateAnd Gate = iota
	GateOr
	GateXor
)

func (g Gate) String() string {
	switch g {
	case GateAnd:
		return "and"
	case GateOr:
		return "or"
	case GateXor:
		return "xor"
	default:
		return "unknown"
	}
}

// ParseGate converts a document gate name; the empty string means and.
func ParseGate(s string) (Gate, bool) {
	switch s {
	case "", "and", "+":
		return GateAnd, true
	case "or", "o":
		return GateOr, true
	case "xor", "x":
		return GateXor, true
	default:
		return 0, false
	}
}

// Flow is an application-layer orchestration flow.
type Flow struct {
	Name  string
	Steps []FlowStep
}

// FlowStep is one of CommandInvocation or EventProduction.
type FlowStep interface {
	flowStep()
}

// CommandInvocation: events trigger commands ("event A triggers command b").
// Gate joins the invoked commands.
type CommandInvocation struct {
	Events   []string
	Commands []string
	Gate     Gate
}

// EventProduction: a command emits events ("command b emits event C").
// Gate joins the emitted events.
type EventProduction struct {
	Command string
	Events  []string
	Gate    Gate
}

func (CommandInvocation) flowStep() {}
func (EventProduction) flowStep()   {}
