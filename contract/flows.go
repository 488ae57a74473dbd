package contract

import (
	"strings"

	"github.com/teranos/contractgen/cml"
)

// expandFlows flattens application flows into command/event steps. Shapes
// the target syntax cannot express are rejected before anything is emitted.
func expandFlows(context string, flows []cml.Flow) ([]*OrchestrationFlow, error) {
	out := make([]*OrchestrationFlow, 0, len(flows))
	for _, flow := range flows {
		of := &OrchestrationFlow{Name: flow.Name}
		for i, step := range flow.Steps {
			expanded, reason := expandStep(step)
			if reason != "" {
				return nil, inputError(UnsupportedFlowShape, context, "flow %s step %d: %s", flow.Name, i+1, reason)
			}
			of.Steps = append(of.Steps, expanded...)
		}
		out = append(out, of)
	}
	return out, nil
}

// expandStep returns the steps for one flow step, or a description of why
// the step cannot be expressed.
func expandStep(step cml.FlowStep) ([]FlowStep, string) {
	switch s := step.(type) {
	case cml.EventProduction:
		if len(s.Events) > 1 && s.Gate != cml.GateAnd {
			return nil, "command " + s.Command + " emits " + strings.Join(s.Events, ", ") + " joined by " + s.Gate.String()
		}
		steps := make([]FlowStep, 0, len(s.Events))
		for _, ev := range s.Events {
			steps = append(steps, FlowStep{Command: s.Command, Event: ev, IsDependentStep: true})
		}
		return steps, ""
	case cml.CommandInvocation:
		if len(s.Events) > 1 && len(s.Commands) > 1 {
			return nil, "several events (" + strings.Join(s.Events, ", ") + ") trigger several commands (" + strings.Join(s.Commands, ", ") + ")"
		}
		if len(s.Commands) > 1 && s.Gate != cml.GateAnd {
			return nil, "commands " + strings.Join(s.Commands, ", ") + " joined by " + s.Gate.String()
		}
		steps := make([]FlowStep, 0, len(s.Events)*len(s.Commands))
		for _, ev := range s.Events {
			for _, cmd := range s.Commands {
				steps = append(steps, FlowStep{Command: cmd, Event: ev})
			}
		}
		return steps, ""
	default:
		return nil, "unknown step type"
	}
}
